package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageClassification(t *testing.T) {
	parent := MessageRecord{ID: "100.000000", ReplyCount: 3, ThreadAnchor: "100.000000"}
	assert.True(t, parent.IsThreadParent())
	assert.False(t, parent.IsThreadReply())

	reply := MessageRecord{ID: "150.000000", ThreadAnchor: "100.000000"}
	assert.False(t, reply.IsThreadParent())
	assert.True(t, reply.IsThreadReply())

	// A message with no replies and no anchor is plain channel traffic.
	plain := MessageRecord{ID: "120.000000"}
	assert.False(t, plain.IsThreadParent())
	assert.False(t, plain.IsThreadReply())
}

func TestMessageLastActivity(t *testing.T) {
	parent := MessageRecord{ID: "100.000000", ReplyCount: 1, LastReplyAt: "180.000000"}
	assert.Equal(t, Timestamp("180.000000"), parent.LastActivityAt())

	plain := MessageRecord{ID: "120.000000"}
	assert.Equal(t, Timestamp("120.000000"), plain.LastActivityAt())
}

func TestThreadStatusAt(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()

	recent := TimestampFromTime(now.Add(-2 * time.Hour))
	assert.Equal(t, ThreadStatusActive, ThreadStatusAt(recent, now))

	old := TimestampFromTime(now.Add(-25 * time.Hour))
	assert.Equal(t, ThreadStatusStale, ThreadStatusAt(old, now))
}

func TestPrincipalLabel(t *testing.T) {
	assert.Equal(t, "Dana", Principal{Name: "dana", RealName: "Dana Ortiz", DisplayName: "Dana"}.Label())
	assert.Equal(t, "Dana Ortiz", Principal{Name: "dana", RealName: "Dana Ortiz"}.Label())
	assert.Equal(t, "dana", Principal{Name: "dana"}.Label())
}
