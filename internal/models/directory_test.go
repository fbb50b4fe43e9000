package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeChannelID(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"C12345678", true},
		{"G12345678", true},
		{"D12345678", true},
		{"CABC123XYZ0", true},
		{"U12345678", false},
		{"C1234567", false},
		{"c12345678", false},
		{"C1234567a", false},
		{"general", false},
		{"#general", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LooksLikeChannelID(tc.in), "input %q", tc.in)
	}
}

func TestLooksLikePrincipalID(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"U87654321", true},
		{"W87654321", true},
		{"C87654321", false},
		{"U1234567", false},
		{"u87654321", false},
		{"priya", false},
		{"@priya", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LooksLikePrincipalID(tc.in), "input %q", tc.in)
	}
}
