package snapshot

import (
	"sort"
	"strings"
	"time"

	"github.com/fortuna/cutman/internal/normalize"
)

// FighterRecord is a fighter reference exactly as one extractor saw it,
// unvalidated beyond the plausibility filter. It lives only within one run
// and in the interchange documents.
type FighterRecord struct {
	DisplayName string `json:"displayName"`
	SourceURL   string `json:"sourceUrl,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	RecordText  string `json:"recordText,omitempty"`
	WeightClass string `json:"weightClass,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Discipline  string `json:"discipline,omitempty"`
}

// Name returns the canonical structured name for the reference.
func (f FighterRecord) Name() normalize.Name {
	return normalize.Parse(f.DisplayName)
}

// FightRecord is a draft fight pairing within an event.
type FightRecord struct {
	FighterA        FighterRecord `json:"fighterA"`
	FighterB        FighterRecord `json:"fighterB"`
	WeightClass     string        `json:"weightClass,omitempty"`
	TitleFight      bool          `json:"titleFight,omitempty"`
	CardPosition    int           `json:"cardPosition,omitempty"`
	ScheduledRounds int           `json:"scheduledRounds,omitempty"`
}

// PairKey returns the unordered fighter-pair key for the fight. Two fights
// referencing the same two fighters are the same fight regardless of which
// side each fighter was recorded on.
func (f FightRecord) PairKey() string {
	return PairKey(f.FighterA.Name(), f.FighterB.Name())
}

// PairKey builds the unordered pair key from two canonical names.
func PairKey(a, b normalize.Name) string {
	keys := []string{a.Key(), b.Key()}
	sort.Strings(keys)
	return strings.Join(keys, "::")
}

// EventRecord is a draft event with its embedded fight list.
type EventRecord struct {
	Name      string        `json:"name"`
	Promotion string        `json:"promotion,omitempty"`
	Date      time.Time     `json:"date"`
	StartTime string        `json:"startTime,omitempty"`
	Venue     string        `json:"venue,omitempty"`
	Location  string        `json:"location,omitempty"`
	BannerURL string        `json:"bannerUrl,omitempty"`
	SourceURL string        `json:"sourceUrl,omitempty"`
	Fights    []FightRecord `json:"fights"`
}

// Snapshot is the full set of draft records produced by one extractor run for
// one source. It is never persisted as-is; it drives upserts and
// reconciliation, then is discarded (the interchange files aside).
type Snapshot struct {
	Source    string          `json:"source"`
	ScrapedAt time.Time       `json:"scrapedAt"`
	Events    []EventRecord   `json:"events"`
	Athletes  []FighterRecord `json:"athletes"`
}

// CollectAthletes rebuilds the athlete list from every fighter reference in
// the snapshot's events, deduplicated by canonical name key. Fuller entries
// (with a record or image) win over bare mentions.
func (s *Snapshot) CollectAthletes() {
	seen := make(map[string]FighterRecord)
	var order []string

	consider := func(f FighterRecord) {
		name := f.Name()
		if name.IsZero() {
			return
		}
		key := name.Key()
		prev, ok := seen[key]
		if !ok {
			seen[key] = f
			order = append(order, key)
			return
		}
		if fullness(f) > fullness(prev) {
			seen[key] = f
		}
	}

	for _, ev := range s.Events {
		for _, fight := range ev.Fights {
			consider(fight.FighterA)
			consider(fight.FighterB)
		}
	}

	s.Athletes = s.Athletes[:0]
	for _, key := range order {
		s.Athletes = append(s.Athletes, seen[key])
	}
}

func fullness(f FighterRecord) int {
	score := 0
	if f.RecordText != "" {
		score++
	}
	if f.ImageURL != "" {
		score++
	}
	if f.SourceURL != "" {
		score++
	}
	if f.WeightClass != "" {
		score++
	}
	return score
}
