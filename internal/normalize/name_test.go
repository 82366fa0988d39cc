package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Name
	}{
		{
			name: "simple slug",
			in:   "julian-lane",
			want: Name{First: "Julian", Last: "Lane"},
		},
		{
			name: "nickname marker mid-slug",
			in:   "lorenzo-the-juggernaut-hunt",
			want: Name{First: "Lorenzo", Last: "Hunt", Nickname: "The Juggernaut"},
		},
		{
			name: "slug with id suffix",
			in:   "yoel-romero-iqws6",
			want: Name{First: "Yoel", Last: "Romero"},
		},
		{
			name: "plain display name",
			in:   "Mike Perry",
			want: Name{First: "Mike", Last: "Perry"},
		},
		{
			name: "single-name competitor",
			in:   "shogun",
			want: Name{Last: "Shogun"},
		},
		{
			name: "multi-token last name",
			in:   "junior-dos-santos",
			want: Name{First: "Junior", Last: "Dos Santos"},
		},
		{
			name: "generation suffix upper-cased",
			in:   "roberto-duran-jr",
			want: Name{First: "Roberto", Last: "Duran JR"},
		},
		{
			name: "roman numeral suffix",
			in:   "antonio-silva-iii",
			want: Name{First: "Antonio", Last: "Silva III"},
		},
		{
			name: "nickname with multiple words",
			in:   "mike-big-bad-perry",
			want: Name{First: "Mike", Last: "Perry", Nickname: "Big Bad"},
		},
		{
			name: "marker as first token is not a nickname",
			in:   "la-flare",
			want: Name{First: "La", Last: "Flare"},
		},
		{
			name: "percent-encoded input decoded",
			in:   "jos%C3%A9-aldo",
			want: Name{First: "José", Last: "Aldo"},
		},
		{
			name: "vowel-less fragments dropped",
			in:   "xzqrt-john-smith",
			want: Name{First: "John", Last: "Smith"},
		},
		{
			name: "empty input",
			in:   "",
			want: Name{},
		},
		{
			name: "digits only",
			in:   "12345",
			want: Name{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestParseDeterministic(t *testing.T) {
	inputs := []string{"julian-lane", "lorenzo-the-juggernaut-hunt", "Mike Perry", "jos%C3%A9-aldo"}
	for _, in := range inputs {
		first := Parse(in)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Parse(in), "Parse(%q) must be deterministic", in)
		}
	}
}

func TestNameKey(t *testing.T) {
	// Case- and diacritic-insensitive: accented and plain spellings collide.
	a := Parse("jose-aldo")
	b := Parse("Jos%C3%A9 Aldo")
	assert.Equal(t, a.Key(), b.Key())

	// Distinct fighters keep distinct keys.
	c := Parse("julian-lane")
	assert.NotEqual(t, a.Key(), c.Key())

	// Single-name key has an empty first component.
	assert.Equal(t, "|shogun", Parse("shogun").Key())
}

func TestNameDisplay(t *testing.T) {
	assert.Equal(t, "Julian Lane", Parse("julian-lane").Display())
	assert.Equal(t, "Shogun", Parse("shogun").Display())
}

func TestNameIsZero(t *testing.T) {
	assert.True(t, Parse("").IsZero())
	assert.True(t, Parse("---").IsZero())
	assert.False(t, Parse("julian-lane").IsZero())
}
