package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"sparkAPI/internal/couple"
	"sparkAPI/internal/progress"
	"sparkAPI/internal/store"
)

const profileColumns = `id, COALESCE(owner_id, ''), partner1_name, partner2_name, relationship_status,
	relationship_duration, challenge_frequency, preferred_categories, excluded_categories, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*couple.Profile, error) {
	p := &couple.Profile{}
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Partner1Name,
		&p.Partner2Name,
		&p.RelationshipStatus,
		&p.RelationshipDuration,
		&p.ChallengeFrequency,
		&p.PreferredCategories,
		&p.ExcludedCategories,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *Store) CreateProfile(ctx context.Context, p *couple.Profile, initial progress.Progress) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
	INSERT INTO couple_profiles (id, owner_id, partner1_name, partner2_name, relationship_status,
		relationship_duration, challenge_frequency, preferred_categories, excluded_categories, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = tx.Exec(ctx, query,
		p.ID,
		nullable(p.OwnerID),
		p.Partner1Name,
		p.Partner2Name,
		p.RelationshipStatus,
		p.RelationshipDuration,
		p.ChallengeFrequency,
		nonNil(p.PreferredCategories),
		nonNil(p.ExcludedCategories),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return mapErr(err, "create profile")
	}

	_, err = tx.Exec(ctx, `
	INSERT INTO couple_progress (profile_id, streak, last_completed, spark_level, total_completed)
	VALUES ($1, $2, $3, $4, $5)
	`, p.ID, initial.Streak, initial.LastCompleted, initial.SparkLevel, initial.TotalCompleted)
	if err != nil {
		return mapErr(err, "create progress")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*couple.Profile, error) {
	p, err := scanProfile(s.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM couple_profiles WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "get profile")
	}
	return p, nil
}

func (s *Store) ProfileIDForOwner(ctx context.Context, ownerID string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM couple_profiles WHERE owner_id = $1`, ownerID).Scan(&id)
	if err != nil {
		return uuid.Nil, mapErr(err, "find profile for owner")
	}
	return id, nil
}

func (s *Store) UpdateProfile(ctx context.Context, p *couple.Profile) error {
	query := `
	UPDATE couple_profiles
	SET
		partner1_name = $2,
		partner2_name = $3,
		relationship_status = $4,
		relationship_duration = $5,
		challenge_frequency = $6,
		preferred_categories = $7,
		excluded_categories = $8,
		updated_at = $9
	WHERE id = $1
	`
	result, err := s.db.Exec(ctx, query,
		p.ID,
		p.Partner1Name,
		p.Partner2Name,
		p.RelationshipStatus,
		p.RelationshipDuration,
		p.ChallengeFrequency,
		nonNil(p.PreferredCategories),
		nonNil(p.ExcludedCategories),
		p.UpdatedAt,
	)
	if err != nil {
		return mapErr(err, "update profile")
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.Exec(ctx, `DELETE FROM couple_profiles WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "delete profile")
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
