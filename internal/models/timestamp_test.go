package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampValid(t *testing.T) {
	valid := []Timestamp{"1700000000.123456", "1700000000", "1700000000.1", "0.000001"}
	for _, ts := range valid {
		assert.True(t, ts.Valid(), "%q should be valid", ts)
	}

	invalid := []Timestamp{"", "   ", "abc", "17e9.000001", "1700000000.12ab56"}
	for _, ts := range invalid {
		assert.False(t, ts.Valid(), "%q should be invalid", ts)
	}
}

func TestTimestampTime(t *testing.T) {
	ts := Timestamp("1700000000.123456")
	want := time.Unix(1700000000, 123456000).UTC()
	require.Equal(t, want, ts.Time())

	// Short fractions pad to microseconds; long ones truncate.
	assert.Equal(t, time.Unix(1700000000, 100000000).UTC(), Timestamp("1700000000.1").Time())
	assert.Equal(t, time.Unix(1700000000, 123456000).UTC(), Timestamp("1700000000.1234569").Time())

	assert.True(t, Timestamp("garbage").Time().IsZero())
}

func TestTimestampCompare(t *testing.T) {
	// Numeric, not bytewise: "99.0" sorts before "100.0".
	assert.Equal(t, -1, Timestamp("99.000001").Compare("100.000001"))
	assert.Equal(t, 1, Timestamp("100.000002").Compare("100.000001"))
	assert.Equal(t, 0, Timestamp("100.1").Compare("100.100000"))

	assert.True(t, Timestamp("100.000001").Before("100.000002"))
	assert.True(t, Timestamp("100.000002").After("100.000001"))
}

func TestTimestampRoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 123456000).UTC()
	ts := TimestampFromTime(now)
	assert.Equal(t, Timestamp("1700000000.123456"), ts)
	assert.Equal(t, now, ts.Time())
}

func TestTimeRangeValidate(t *testing.T) {
	ok := TimeRange{Oldest: "100.000000", Latest: "200.000000"}
	require.NoError(t, ok.Validate())

	// Inverted bounds are rejected before any remote call happens.
	inverted := TimeRange{Oldest: "200.000000", Latest: "100.000000"}
	require.Error(t, inverted.Validate())

	require.Error(t, TimeRange{Oldest: "", Latest: "100.000000"}.Validate())
	require.Error(t, TimeRange{Oldest: "100.000000", Latest: "bogus"}.Validate())
}

func TestTimeRangeContains(t *testing.T) {
	incl := TimeRange{Oldest: "100.000000", Latest: "200.000000", Inclusive: true}
	assert.True(t, incl.Contains("100.000000"))
	assert.True(t, incl.Contains("200.000000"))
	assert.True(t, incl.Contains("150.000000"))
	assert.False(t, incl.Contains("99.999999"))

	excl := TimeRange{Oldest: "100.000000", Latest: "200.000000"}
	assert.False(t, excl.Contains("100.000000"))
	assert.False(t, excl.Contains("200.000000"))
	assert.True(t, excl.Contains("100.000001"))
}
