package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		in   string
		want Record
	}{
		{"21-1-0", Record{Wins: 21, Losses: 1, Draws: 0}},
		{"21-1-0, 15 KO", Record{Wins: 21, Losses: 1, Draws: 0, KOs: 15}},
		{"25W-1L-0D", Record{Wins: 25, Losses: 1, Draws: 0}},
		{"12W-3L", Record{Wins: 12, Losses: 3}},
		{"8-2", Record{Wins: 8, Losses: 2}},
		{"Record: 14-2-1", Record{Wins: 14, Losses: 2, Draws: 1}},
		{"10-0-0, 9 KOs", Record{Wins: 10, Losses: 0, Draws: 0, KOs: 9}},
		{"garbage", Record{}},
		{"", Record{}},
		{"KO of the night", Record{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRecord(tt.in))
		})
	}
}

func TestPlausibleName(t *testing.T) {
	plausible := []string{
		"Julian Lane",
		"Lorenzo Hunt",
		"shogun",
		"José Aldo",
	}
	for _, s := range plausible {
		assert.True(t, PlausibleName(s), "expected %q to be plausible", s)
	}

	implausible := []string{
		"",
		"x",
		"Round 3",
		"Method: Decision",
		"Buy Tickets",
		"Main Card",
		"TBD",
		"Smith vs Jones",
		"12345",
		"A fighter name that runs far past any realistic length bound for a human being",
	}
	for _, s := range implausible {
		assert.False(t, PlausibleName(s), "expected %q to be implausible", s)
	}
}
