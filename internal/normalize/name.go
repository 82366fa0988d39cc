package normalize

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Name is the canonical structured form of a raw fighter name or URL slug.
// Last is never empty for a valid name; First is empty only for single-name
// competitors.
type Name struct {
	First    string `json:"firstName"`
	Last     string `json:"lastName"`
	Nickname string `json:"nickname,omitempty"`
}

// nicknameMarkers are starter words that open a nickname span when they appear
// neither first nor last in the token list ("lorenzo-the-juggernaut-hunt").
var nicknameMarkers = map[string]bool{
	"the": true, "da": true, "el": true, "la": true,
	"big": true, "lil": true, "baby": true,
	"king": true, "queen": true,
}

// nameSuffixes are upper-cased rather than title-cased.
var nameSuffixes = map[string]bool{
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true,
}

// singleLetterParticles are the only single-letter tokens kept during
// tokenization (everything else of length one is slug noise).
var singleLetterParticles = map[string]bool{
	"o": true, "d": true,
}

// Parse turns a raw display name or URL slug into a Name. It is deterministic
// and pure: same input, same output. Unusable input yields a zero Name, never
// an error.
func Parse(raw string) Name {
	tokens := tokenize(raw)
	if len(tokens) == 0 {
		return Name{}
	}

	if len(tokens) == 1 {
		// Single-name competitor: the sort key becomes the last name.
		return Name{Last: caseToken(tokens[0])}
	}

	// Scan for a nickname marker that is neither the first nor the last token.
	for i := 1; i < len(tokens)-1; i++ {
		if nicknameMarkers[tokens[i]] {
			return Name{
				First:    caseTokens(tokens[:i]),
				Nickname: caseTokens(tokens[i : len(tokens)-1]),
				Last:     caseToken(tokens[len(tokens)-1]),
			}
		}
	}

	return Name{
		First: caseToken(tokens[0]),
		Last:  caseTokens(tokens[1:]),
	}
}

// IsZero reports whether no name survived normalization.
func (n Name) IsZero() bool {
	return n.Last == ""
}

// Display returns the human-readable "First Last" form.
func (n Name) Display() string {
	if n.First == "" {
		return n.Last
	}
	return n.First + " " + n.Last
}

// Key returns the case- and diacritic-insensitive identity key used to
// deduplicate a fighter across sightings and runs.
func (n Name) Key() string {
	return foldKey(n.First) + "|" + foldKey(n.Last)
}

// tokenize splits a raw name or slug into lower-cased tokens, dropping noise:
// tokens containing digits, stray single letters, and vowel-less fragments.
// Percent-encoded input is decoded when possible and left as-is otherwise.
func tokenize(raw string) []string {
	if decoded, err := url.QueryUnescape(raw); err == nil {
		raw = decoded
	}

	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '-' || r == '_' || r == '+' || r == '.' || r == ',' || unicode.IsSpace(r)
	})

	var tokens []string
	for _, f := range fields {
		tok := strings.ToLower(strings.TrimSpace(f))
		if tok == "" || isNoiseToken(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func isNoiseToken(tok string) bool {
	if strings.ContainsFunc(tok, unicode.IsDigit) {
		return true
	}
	runeLen := len([]rune(tok))
	if runeLen == 1 && !singleLetterParticles[tok] {
		return true
	}
	if runeLen >= 3 && !strings.ContainsAny(tok, "aeiouyáéíóúàèìòùäëïöü") {
		return true
	}
	return false
}

// caseToken title-cases a single token, upper-casing known name suffixes
// ("jr" -> "JR", "iii" -> "III") and capitalizing after apostrophes.
func caseToken(tok string) string {
	if nameSuffixes[tok] {
		return strings.ToUpper(tok)
	}

	var b strings.Builder
	upperNext := true
	for _, r := range tok {
		if upperNext {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(r)
		}
		upperNext = r == '\''
	}
	return b.String()
}

func caseTokens(toks []string) string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = caseToken(t)
	}
	return strings.Join(out, " ")
}

// foldKey lower-cases and strips diacritics so "José" and "Jose" share a key.
func foldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
