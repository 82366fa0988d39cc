package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/fortuna/cutman/internal/normalize"
)

// ErrNotFound is returned by repository lookups when no row matches.
var ErrNotFound = errors.New("not found")

// Event status values.
const (
	EventUpcoming  = "upcoming"
	EventLive      = "live"
	EventCompleted = "completed"
)

// Fight status values. A completed fight is terminal; cancelled fights may be
// restored to upcoming when their exact pairing reappears upstream.
const (
	FightUpcoming  = "upcoming"
	FightLive      = "live"
	FightCompleted = "completed"
	FightCancelled = "cancelled"
)

// Fighter is a canonical fighter identity, keyed by the case- and
// diacritic-insensitive (first, last) name key. Created on first sighting and
// updated in place on later sightings; never destroyed or re-keyed.
type Fighter struct {
	FighterID   int            `json:"fighter_id" db:"fighter_id"`
	NameKey     string         `json:"-" db:"name_key"`
	FirstName   string         `json:"first_name" db:"first_name"`
	LastName    string         `json:"last_name" db:"last_name"`
	Nickname    sql.NullString `json:"nickname,omitempty" db:"nickname"`
	ImageURL    sql.NullString `json:"image_url,omitempty" db:"image_url"`
	SourceURL   sql.NullString `json:"source_url,omitempty" db:"source_url"`
	Wins        int            `json:"wins" db:"wins"`
	Losses      int            `json:"losses" db:"losses"`
	Draws       int            `json:"draws" db:"draws"`
	KOs         int            `json:"kos" db:"kos"`
	WeightClass sql.NullString `json:"weight_class,omitempty" db:"weight_class"`
	Gender      sql.NullString `json:"gender,omitempty" db:"gender"`
	Discipline  sql.NullString `json:"discipline,omitempty" db:"discipline"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// Name returns the fighter's canonical structured name.
func (f *Fighter) Name() normalize.Name {
	return normalize.Name{First: f.FirstName, Last: f.LastName, Nickname: f.Nickname.String}
}

// Event is a canonical fight card, keyed by source URL when available and by
// (name, date) otherwise. Updated in place on each run, never duplicated.
type Event struct {
	EventID   int            `json:"event_id" db:"event_id"`
	Name      string         `json:"name" db:"name"`
	Promotion sql.NullString `json:"promotion,omitempty" db:"promotion"`
	EventDate time.Time      `json:"event_date" db:"event_date"`
	StartTime sql.NullString `json:"start_time,omitempty" db:"start_time"`
	Venue     sql.NullString `json:"venue,omitempty" db:"venue"`
	Location  sql.NullString `json:"location,omitempty" db:"location"`
	BannerURL sql.NullString `json:"banner_url,omitempty" db:"banner_url"`
	SourceURL sql.NullString `json:"source_url,omitempty" db:"source_url"`
	Status    string         `json:"status" db:"status"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// Fight is a canonical bout, keyed by (event, unordered fighter pair).
// FighterAID is always the smaller of the two IDs; the pair is immutable once
// created. If the real-world pairing changes, a new fight is created and the
// old one transitions to cancelled.
type Fight struct {
	FightID         int            `json:"fight_id" db:"fight_id"`
	EventID         int            `json:"event_id" db:"event_id"`
	FighterAID      int            `json:"fighter_a_id" db:"fighter_a_id"`
	FighterBID      int            `json:"fighter_b_id" db:"fighter_b_id"`
	WeightClass     sql.NullString `json:"weight_class,omitempty" db:"weight_class"`
	TitleFight      bool           `json:"title_fight" db:"title_fight"`
	CardPosition    sql.NullInt32  `json:"card_position,omitempty" db:"card_position"`
	ScheduledRounds sql.NullInt32  `json:"scheduled_rounds,omitempty" db:"scheduled_rounds"`
	Status          string         `json:"status" db:"status"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// FightPairing is a persisted fight joined with both fighter names, the shape
// the reconciliation engine compares snapshots against.
type FightPairing struct {
	FightID  int
	EventID  int
	Status   string
	FighterA normalize.Name
	FighterB normalize.Name
}

// PairKey returns the unordered fighter-pair key for the persisted fight.
func (p FightPairing) PairKey() string {
	a, b := p.FighterA.Key(), p.FighterB.Key()
	if a > b {
		a, b = b, a
	}
	return a + "::" + b
}
