package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp is a message timestamp in the workspace's wire format:
// fixed-point seconds with microsecond precision, e.g. "1700000000.123456".
// It doubles as the unique message id within a channel, so ordering matters.
// Comparison is numeric; the string form is not safe to compare bytewise.
type Timestamp string

func (t Timestamp) IsZero() bool {
	return strings.TrimSpace(string(t)) == ""
}

func (t Timestamp) parts() (int64, int64, error) {
	s := strings.TrimSpace(string(t))
	if s == "" {
		return 0, 0, fmt.Errorf("empty timestamp")
	}
	whole, frac, _ := strings.Cut(s, ".")
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	if frac == "" {
		return sec, 0, nil
	}
	// Pad or trim to microsecond precision.
	if len(frac) < 6 {
		frac += strings.Repeat("0", 6-len(frac))
	} else if len(frac) > 6 {
		frac = frac[:6]
	}
	usec, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return sec, usec, nil
}

// Valid reports whether the timestamp parses in wire format.
func (t Timestamp) Valid() bool {
	_, _, err := t.parts()
	return err == nil
}

// Time converts to a time.Time. Invalid timestamps yield the zero time.
func (t Timestamp) Time() time.Time {
	sec, usec, err := t.parts()
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, usec*1000).UTC()
}

// Compare orders two timestamps numerically: -1, 0, or 1.
func (t Timestamp) Compare(o Timestamp) int {
	ts, tu, terr := t.parts()
	os, ou, oerr := o.parts()
	if terr != nil || oerr != nil {
		return strings.Compare(string(t), string(o))
	}
	switch {
	case ts < os:
		return -1
	case ts > os:
		return 1
	case tu < ou:
		return -1
	case tu > ou:
		return 1
	}
	return 0
}

func (t Timestamp) Before(o Timestamp) bool { return t.Compare(o) < 0 }
func (t Timestamp) After(o Timestamp) bool  { return t.Compare(o) > 0 }

// TimestampFromTime renders a time.Time in wire format.
func TimestampFromTime(tm time.Time) Timestamp {
	return Timestamp(fmt.Sprintf("%d.%06d", tm.Unix(), tm.Nanosecond()/1000))
}

// TimeRange bounds a history scan. Oldest and Latest are both required;
// Inclusive controls whether messages exactly on the bounds are returned.
type TimeRange struct {
	Oldest    Timestamp `json:"oldest"`
	Latest    Timestamp `json:"latest"`
	Inclusive bool      `json:"inclusive,omitempty"`
}

// Validate rejects malformed or inverted ranges.
func (r TimeRange) Validate() error {
	if !r.Oldest.Valid() {
		return fmt.Errorf("invalid oldest bound %q", r.Oldest)
	}
	if !r.Latest.Valid() {
		return fmt.Errorf("invalid latest bound %q", r.Latest)
	}
	if r.Oldest.After(r.Latest) {
		return fmt.Errorf("oldest %s is after latest %s", r.Oldest, r.Latest)
	}
	return nil
}

// Contains reports whether ts falls inside the range.
func (r TimeRange) Contains(ts Timestamp) bool {
	if r.Inclusive {
		return ts.Compare(r.Oldest) >= 0 && ts.Compare(r.Latest) <= 0
	}
	return ts.After(r.Oldest) && ts.Before(r.Latest)
}
