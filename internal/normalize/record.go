package normalize

import (
	"regexp"
	"strconv"
)

// Record is a win/loss/draw record parsed from free text.
type Record struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
	KOs    int `json:"kos,omitempty"`
}

var (
	// "25W-1L-0D" style, draws optional
	letteredRecordPattern = regexp.MustCompile(`(?i)(\d+)\s*W\s*-\s*(\d+)\s*L(?:\s*-\s*(\d+)\s*D)?`)

	// "21-1-0" or "21-1" style, draws optional
	plainRecordPattern = regexp.MustCompile(`(\d+)\s*-\s*(\d+)(?:\s*-\s*(\d+))?`)

	// trailing knockout count: "..., 15 KO"
	koPattern = regexp.MustCompile(`(?i)(\d+)\s*KOs?\b`)
)

// ParseRecord extracts wins-losses-draws from strings like "21-1-0",
// "21-1-0, 15 KO" or "25W-1L-0D". Missing draws default to zero. Unparsable
// input yields an all-zero record, never an error.
func ParseRecord(s string) Record {
	var rec Record

	m := letteredRecordPattern.FindStringSubmatch(s)
	if m == nil {
		m = plainRecordPattern.FindStringSubmatch(s)
	}
	if m == nil {
		return rec
	}

	rec.Wins, _ = strconv.Atoi(m[1])
	rec.Losses, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		rec.Draws, _ = strconv.Atoi(m[3])
	}

	if ko := koPattern.FindStringSubmatch(s); ko != nil {
		rec.KOs, _ = strconv.Atoi(ko[1])
	}

	return rec
}
