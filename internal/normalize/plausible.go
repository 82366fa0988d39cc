package normalize

import (
	"strings"
	"unicode"
)

const (
	minNameLength = 2
	maxNameLength = 60
)

// denyWords are tokens that never appear in a real fighter name. Scraped
// fragments mentioning rounds, results or ticketing get rejected outright.
var denyWords = map[string]bool{
	"round": true, "rounds": true, "rd": true,
	"method": true, "decision": true, "submission": true,
	"knockout": true, "ko": true, "tko": true, "dq": true,
	"ticket": true, "tickets": true, "ppv": true, "buy": true,
	"watch": true, "stream": true, "preview": true, "results": true,
	"card": true, "prelims": true, "prelim": true, "main": true,
	"odds": true, "vs": true, "versus": true,
	"tba": true, "tbd": true, "winner": true, "bout": true,
}

// PlausibleName reports whether a scraped string could be a fighter name.
// Extractors apply this before a candidate enters a snapshot; rejected
// candidates (and the fights referencing them) are dropped with a warning.
func PlausibleName(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < minNameLength || len(s) > maxNameLength {
		return false
	}
	if !strings.ContainsFunc(s, unicode.IsLetter) {
		return false
	}
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		if denyWords[strings.Trim(tok, ".:,!?()")] {
			return false
		}
	}
	return true
}
