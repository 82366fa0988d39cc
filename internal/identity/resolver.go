// Package identity maps raw fighter references to canonical fighter
// identities. Within one run, identity is de-duplicated purely by
// normalized-name equality; against the persisted store, lookup is by the
// same key. There is no fuzzy cross-spelling merge: a materially different
// spelling is a separate fighter.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/cutman/internal/normalize"
	"github.com/fortuna/cutman/internal/snapshot"
	"github.com/fortuna/cutman/internal/store"
)

// ErrImplausibleName is returned when a raw reference normalizes to nothing
// usable. The caller drops the reference (and any fight built on it) rather
// than importing a corrupt identity.
var ErrImplausibleName = errors.New("implausible fighter name")

// FighterStore is the slice of the persisted store the resolver needs.
type FighterStore interface {
	GetByName(ctx context.Context, first, last string) (*store.Fighter, error)
	Upsert(ctx context.Context, fighter *store.Fighter) error
}

// Resolver resolves raw fighter references to canonical fighters for one run.
type Resolver struct {
	fighters FighterStore

	seen    map[string]*store.Fighter
	created int
	updated int
}

// NewResolver creates a resolver backed by the given fighter store.
func NewResolver(fighters FighterStore) *Resolver {
	return &Resolver{
		fighters: fighters,
		seen:     make(map[string]*store.Fighter),
	}
}

// Resolve maps a raw reference to its canonical fighter, creating it on first
// sighting and refreshing mutable fields on later ones. Two references
// normalizing to the same (first, last) key are the same fighter for the run.
func (r *Resolver) Resolve(ctx context.Context, ref snapshot.FighterRecord) (*store.Fighter, error) {
	if !normalize.PlausibleName(ref.DisplayName) {
		return nil, fmt.Errorf("%w: %q", ErrImplausibleName, ref.DisplayName)
	}

	name := ref.Name()
	if name.IsZero() {
		return nil, fmt.Errorf("%w: %q normalized to nothing", ErrImplausibleName, ref.DisplayName)
	}

	key := name.Key()
	if fighter, ok := r.seen[key]; ok {
		return fighter, nil
	}

	_, err := r.fighters.GetByName(ctx, name.First, name.Last)
	switch {
	case errors.Is(err, store.ErrNotFound):
		r.created++
	case err != nil:
		return nil, fmt.Errorf("looking up fighter %s: %w", name.Display(), err)
	default:
		r.updated++
	}

	record := normalize.ParseRecord(ref.RecordText)
	fighter := &store.Fighter{
		NameKey:     key,
		FirstName:   name.First,
		LastName:    name.Last,
		Nickname:    nullString(name.Nickname),
		ImageURL:    nullString(ref.ImageURL),
		SourceURL:   nullString(ref.SourceURL),
		Wins:        record.Wins,
		Losses:      record.Losses,
		Draws:       record.Draws,
		KOs:         record.KOs,
		WeightClass: nullString(ref.WeightClass),
		Gender:      nullString(ref.Gender),
		Discipline:  nullString(ref.Discipline),
	}

	if err := r.fighters.Upsert(ctx, fighter); err != nil {
		return nil, fmt.Errorf("upserting fighter %s: %w", name.Display(), err)
	}

	r.seen[key] = fighter
	return fighter, nil
}

// Stats returns how many fighters this run created versus refreshed.
func (r *Resolver) Stats() (created, updated int) {
	return r.created, r.updated
}

// Reset clears the per-run dedupe state ahead of a new run.
func (r *Resolver) Reset() {
	r.seen = make(map[string]*store.Fighter)
	r.created = 0
	r.updated = 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
