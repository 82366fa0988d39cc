// Package storetest provides an in-memory fake of the persistence
// collaborator, mirroring the repositories' upsert-by-identity-key semantics
// closely enough for orchestrator and reconciliation unit tests.
package storetest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fortuna/cutman/internal/store"
)

// Fake is an in-memory persisted store. Per-entity views returned by
// Fighters, Events and Fights expose the same method sets as the real
// repositories, so they satisfy the consumers' store interfaces directly.
type Fake struct {
	mu sync.Mutex

	fighters map[string]*store.Fighter // name_key -> fighter
	events   map[string]*store.Event   // source URL or name|date -> event
	fights   map[string]*store.Fight   // eventID::aID::bID -> fight

	nextFighterID int
	nextEventID   int
	nextFightID   int

	// Write counters for idempotence assertions.
	FighterInserts int
	EventInserts   int
	FightInserts   int
	StatusChanges  int
}

// NewFake creates an empty fake store.
func NewFake() *Fake {
	return &Fake{
		fighters: make(map[string]*store.Fighter),
		events:   make(map[string]*store.Event),
		fights:   make(map[string]*store.Fight),
	}
}

// Fighters returns the fighter repository view.
func (f *Fake) Fighters() *FighterView { return &FighterView{f} }

// Events returns the event repository view.
func (f *Fake) Events() *EventView { return &EventView{f} }

// Fights returns the fight repository view.
func (f *Fake) Fights() *FightView { return &FightView{f} }

// FighterView implements the fighter store contract.
type FighterView struct{ f *Fake }

// GetByName finds a fighter by the canonical (first, last) identity key.
func (v *FighterView) GetByName(_ context.Context, first, last string) (*store.Fighter, error) {
	v.f.mu.Lock()
	defer v.f.mu.Unlock()

	key := (&store.Fighter{FirstName: first, LastName: last}).Name().Key()
	fighter, ok := v.f.fighters[key]
	if !ok {
		return nil, fmt.Errorf("fighter %q %q: %w", first, last, store.ErrNotFound)
	}
	out := *fighter
	return &out, nil
}

// Upsert inserts or refreshes a fighter by name key, mirroring the
// forward-only merge of the real repository.
func (v *FighterView) Upsert(_ context.Context, fighter *store.Fighter) error {
	v.f.mu.Lock()
	defer v.f.mu.Unlock()

	if fighter.NameKey == "" {
		fighter.NameKey = fighter.Name().Key()
	}

	existing, ok := v.f.fighters[fighter.NameKey]
	if !ok {
		v.f.nextFighterID++
		fighter.FighterID = v.f.nextFighterID
		v.f.FighterInserts++
		stored := *fighter
		v.f.fighters[fighter.NameKey] = &stored
		return nil
	}

	if fighter.Nickname.Valid && fighter.Nickname.String != "" {
		existing.Nickname = fighter.Nickname
	}
	if fighter.ImageURL.Valid && fighter.ImageURL.String != "" {
		existing.ImageURL = fighter.ImageURL
	}
	if fighter.SourceURL.Valid && fighter.SourceURL.String != "" {
		existing.SourceURL = fighter.SourceURL
	}
	if fighter.Wins+fighter.Losses+fighter.Draws > 0 {
		existing.Wins, existing.Losses, existing.Draws = fighter.Wins, fighter.Losses, fighter.Draws
	}
	if fighter.KOs > existing.KOs {
		existing.KOs = fighter.KOs
	}
	if fighter.WeightClass.Valid && fighter.WeightClass.String != "" {
		existing.WeightClass = fighter.WeightClass
	}
	if fighter.Gender.Valid && fighter.Gender.String != "" {
		existing.Gender = fighter.Gender
	}
	if fighter.Discipline.Valid && fighter.Discipline.String != "" {
		existing.Discipline = fighter.Discipline
	}
	fighter.FighterID = existing.FighterID
	return nil
}

// EventView implements the event store contract.
type EventView struct{ f *Fake }

func eventKey(event *store.Event) string {
	if event.SourceURL.Valid && event.SourceURL.String != "" {
		return "url:" + event.SourceURL.String
	}
	return fmt.Sprintf("name:%s|%s", event.Name, event.EventDate.Format("2006-01-02"))
}

// GetBySourceURL finds an event by its upstream page URL.
func (v *EventView) GetBySourceURL(_ context.Context, sourceURL string) (*store.Event, error) {
	v.f.mu.Lock()
	defer v.f.mu.Unlock()

	for _, event := range v.f.events {
		if event.SourceURL.Valid && event.SourceURL.String == sourceURL {
			out := *event
			return &out, nil
		}
	}
	return nil, fmt.Errorf("event %q: %w", sourceURL, store.ErrNotFound)
}

// GetByNameAndDate finds an event by its fallback (name, date) key.
func (v *EventView) GetByNameAndDate(_ context.Context, name string, date time.Time) (*store.Event, error) {
	v.f.mu.Lock()
	defer v.f.mu.Unlock()

	for _, event := range v.f.events {
		if strings.EqualFold(event.Name, name) &&
			event.EventDate.Format("2006-01-02") == date.Format("2006-01-02") {
			out := *event
			return &out, nil
		}
	}
	return nil, fmt.Errorf("event %q on %s: %w", name, date.Format("2006-01-02"), store.ErrNotFound)
}

// Upsert inserts or updates an event by its identity key.
func (v *EventView) Upsert(_ context.Context, event *store.Event) error {
	v.f.mu.Lock()
	defer v.f.mu.Unlock()

	key := eventKey(event)
	existing, ok := v.f.events[key]
	if !ok {
		v.f.nextEventID++
		event.EventID = v.f.nextEventID
		v.f.EventInserts++
		stored := *event
		v.f.events[key] = &stored
		return nil
	}

	existing.Name = event.Name
	existing.EventDate = event.EventDate
	if event.Venue.Valid && event.Venue.String != "" {
		existing.Venue = event.Venue
	}
	if event.BannerURL.Valid && event.BannerURL.String != "" {
		existing.BannerURL = event.BannerURL
	}
	event.EventID = existing.EventID
	return nil
}

// FightView implements the fight store contract.
type FightView struct{ f *Fake }

func fightKey(fight *store.Fight) string {
	a, b := fight.FighterAID, fight.FighterBID
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d::%d::%d", fight.EventID, a, b)
}

// Upsert inserts or updates a fight by its (event, unordered pair) key.
// Status is never changed by an upsert, matching the real repository.
func (v *FightView) Upsert(_ context.Context, fight *store.Fight) error {
	if fight.FighterAID == fight.FighterBID {
		return fmt.Errorf("fight references the same fighter twice (id %d)", fight.FighterAID)
	}

	v.f.mu.Lock()
	defer v.f.mu.Unlock()

	if fight.FighterAID > fight.FighterBID {
		fight.FighterAID, fight.FighterBID = fight.FighterBID, fight.FighterAID
	}
	if fight.Status == "" {
		fight.Status = store.FightUpcoming
	}

	key := fightKey(fight)
	existing, ok := v.f.fights[key]
	if !ok {
		v.f.nextFightID++
		fight.FightID = v.f.nextFightID
		v.f.FightInserts++
		stored := *fight
		v.f.fights[key] = &stored
		return nil
	}

	if fight.WeightClass.Valid && fight.WeightClass.String != "" {
		existing.WeightClass = fight.WeightClass
	}
	existing.TitleFight = fight.TitleFight
	if fight.CardPosition.Valid {
		existing.CardPosition = fight.CardPosition
	}
	if fight.ScheduledRounds.Valid {
		existing.ScheduledRounds = fight.ScheduledRounds
	}
	fight.FightID = existing.FightID
	fight.Status = existing.Status
	return nil
}

// GetPairingsByEventAndStatus returns fights on an event in any of the given
// statuses, joined with fighter names.
func (v *FightView) GetPairingsByEventAndStatus(_ context.Context, eventID int, statuses ...string) ([]store.FightPairing, error) {
	v.f.mu.Lock()
	defer v.f.mu.Unlock()

	wanted := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}

	byID := make(map[int]*store.Fighter)
	for _, fighter := range v.f.fighters {
		byID[fighter.FighterID] = fighter
	}

	var pairings []store.FightPairing
	for _, fight := range v.f.fights {
		if fight.EventID != eventID || !wanted[fight.Status] {
			continue
		}
		a, b := byID[fight.FighterAID], byID[fight.FighterBID]
		if a == nil || b == nil {
			continue
		}
		pairings = append(pairings, store.FightPairing{
			FightID:  fight.FightID,
			EventID:  fight.EventID,
			Status:   fight.Status,
			FighterA: a.Name(),
			FighterB: b.Name(),
		})
	}
	return pairings, nil
}

// SetStatus transitions a fight's status.
func (v *FightView) SetStatus(_ context.Context, fightID int, status string) error {
	v.f.mu.Lock()
	defer v.f.mu.Unlock()

	for _, fight := range v.f.fights {
		if fight.FightID == fightID {
			fight.Status = status
			v.f.StatusChanges++
			return nil
		}
	}
	return fmt.Errorf("fight %d: %w", fightID, store.ErrNotFound)
}

// FightStatus returns the current status of a fight, for assertions.
func (f *Fake) FightStatus(fightID int) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, fight := range f.fights {
		if fight.FightID == fightID {
			return fight.Status, true
		}
	}
	return "", false
}

// SeedFightStatus forces a fight's status without counting a status change,
// for arranging test fixtures.
func (f *Fake) SeedFightStatus(fightID int, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, fight := range f.fights {
		if fight.FightID == fightID {
			fight.Status = status
			return
		}
	}
}

// EventByName returns a stored event by display name, for test assertions.
func (f *Fake) EventByName(name string) (*store.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, event := range f.events {
		if event.Name == name {
			out := *event
			return &out, true
		}
	}
	return nil, false
}

// Counts returns the number of stored fighters, events and fights.
func (f *Fake) Counts() (fighters, events, fights int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fighters), len(f.events), len(f.fights)
}
