package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/cutman/internal/normalize"
	"github.com/fortuna/cutman/internal/store"
)

// FighterRepository handles canonical fighter data access
type FighterRepository struct {
	db *store.Database
}

// NewFighterRepository creates a new fighter repository
func NewFighterRepository(db *store.Database) *FighterRepository {
	return &FighterRepository{db: db}
}

// GetByName finds a fighter by the canonical (first, last) identity key.
// Matching is case- and diacritic-insensitive. Returns store.ErrNotFound when
// the fighter has never been sighted.
func (r *FighterRepository) GetByName(ctx context.Context, first, last string) (*store.Fighter, error) {
	key := normalize.Name{First: first, Last: last}.Key()

	query := `
		SELECT fighter_id, name_key, first_name, last_name, nickname, image_url, source_url,
			wins, losses, draws, kos, weight_class, gender, discipline,
			created_at, updated_at
		FROM fighters
		WHERE name_key = $1
	`

	fighter := &store.Fighter{}
	err := r.db.DB().QueryRowContext(ctx, query, key).Scan(
		&fighter.FighterID, &fighter.NameKey, &fighter.FirstName, &fighter.LastName,
		&fighter.Nickname, &fighter.ImageURL, &fighter.SourceURL,
		&fighter.Wins, &fighter.Losses, &fighter.Draws, &fighter.KOs,
		&fighter.WeightClass, &fighter.Gender, &fighter.Discipline,
		&fighter.CreatedAt, &fighter.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fighter %q %q: %w", first, last, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying fighter: %w", err)
	}

	return fighter, nil
}

// Upsert inserts a fighter or refreshes an existing one by identity key.
// Mutable fields (nickname, image, record, weight class) only move forward:
// an empty value from a sparse scrape never erases richer persisted data.
// The identity key itself is never re-keyed.
func (r *FighterRepository) Upsert(ctx context.Context, fighter *store.Fighter) error {
	if fighter.NameKey == "" {
		fighter.NameKey = fighter.Name().Key()
	}

	query := `
		INSERT INTO fighters (name_key, first_name, last_name, nickname, image_url, source_url,
			wins, losses, draws, kos, weight_class, gender, discipline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (name_key) DO UPDATE SET
			nickname = COALESCE(NULLIF(EXCLUDED.nickname, ''), fighters.nickname),
			image_url = COALESCE(NULLIF(EXCLUDED.image_url, ''), fighters.image_url),
			source_url = COALESCE(NULLIF(EXCLUDED.source_url, ''), fighters.source_url),
			wins = CASE WHEN EXCLUDED.wins + EXCLUDED.losses + EXCLUDED.draws > 0
				THEN EXCLUDED.wins ELSE fighters.wins END,
			losses = CASE WHEN EXCLUDED.wins + EXCLUDED.losses + EXCLUDED.draws > 0
				THEN EXCLUDED.losses ELSE fighters.losses END,
			draws = CASE WHEN EXCLUDED.wins + EXCLUDED.losses + EXCLUDED.draws > 0
				THEN EXCLUDED.draws ELSE fighters.draws END,
			kos = GREATEST(EXCLUDED.kos, fighters.kos),
			weight_class = COALESCE(NULLIF(EXCLUDED.weight_class, ''), fighters.weight_class),
			gender = COALESCE(NULLIF(EXCLUDED.gender, ''), fighters.gender),
			discipline = COALESCE(NULLIF(EXCLUDED.discipline, ''), fighters.discipline),
			updated_at = NOW()
		RETURNING fighter_id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		fighter.NameKey, fighter.FirstName, fighter.LastName,
		fighter.Nickname, fighter.ImageURL, fighter.SourceURL,
		fighter.Wins, fighter.Losses, fighter.Draws, fighter.KOs,
		fighter.WeightClass, fighter.Gender, fighter.Discipline,
	).Scan(&fighter.FighterID)

	if err != nil {
		return fmt.Errorf("upserting fighter %s: %w", fighter.Name().Display(), err)
	}

	return nil
}
