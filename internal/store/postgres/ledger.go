package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"sparkAPI/internal/progress"
	"sparkAPI/internal/store"
)

func scanProgress(row pgx.Row, profileID uuid.UUID) (progress.Progress, error) {
	p := progress.Progress{ProfileID: profileID}
	err := row.Scan(&p.Streak, &p.LastCompleted, &p.SparkLevel, &p.TotalCompleted)
	return p, err
}

func (s *Store) GetProgress(ctx context.Context, profileID uuid.UUID) (progress.Progress, error) {
	p, err := scanProgress(s.db.QueryRow(ctx, `
	SELECT streak, last_completed, spark_level, total_completed
	FROM couple_progress
	WHERE profile_id = $1
	`, profileID), profileID)
	if err != nil {
		return progress.Progress{}, mapErr(err, "get progress")
	}
	return p, nil
}

func (s *Store) CompletedChallenges(ctx context.Context, profileID uuid.UUID) ([]progress.CompletedChallenge, error) {
	if err := s.requireProgress(ctx, profileID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `
	SELECT challenge_id, category, completed_at
	FROM completed_challenges
	WHERE profile_id = $1
	ORDER BY completed_at, challenge_id
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch completed challenges: %w", err)
	}
	defer rows.Close()

	var out []progress.CompletedChallenge
	for rows.Next() {
		c := progress.CompletedChallenge{ProfileID: profileID}
		if err := rows.Scan(&c.ChallengeID, &c.Category, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completed challenge: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) Badges(ctx context.Context, profileID uuid.UUID) ([]progress.Badge, error) {
	if err := s.requireProgress(ctx, profileID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `
	SELECT badge_name, earned_at
	FROM couple_badges
	WHERE profile_id = $1
	ORDER BY earned_at, badge_name
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch badges: %w", err)
	}
	defer rows.Close()

	var out []progress.Badge
	for rows.Next() {
		b := progress.Badge{ProfileID: profileID}
		if err := rows.Scan(&b.Name, &b.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) AwardBadges(ctx context.Context, profileID uuid.UUID, names []string, earnedAt time.Time) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `
	INSERT INTO couple_badges (profile_id, badge_name, earned_at)
	SELECT $1, name, $3 FROM unnest($2::text[]) AS name
	ON CONFLICT (profile_id, badge_name) DO NOTHING
	RETURNING badge_name
	`, profileID, names, earnedAt)
	if err != nil {
		return nil, mapErr(err, "award badges")
	}
	defer rows.Close()

	var inserted []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		inserted = append(inserted, name)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err, "award badges")
	}
	return inserted, nil
}

// RecordCompletion locks the progress row so concurrent completions for one
// profile serialize; the primary key turns a duplicate into a no-op insert.
func (s *Store) RecordCompletion(ctx context.Context, c progress.CompletedChallenge) (store.CompletionResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return store.CompletionResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cur, err := scanProgress(tx.QueryRow(ctx, `
	SELECT streak, last_completed, spark_level, total_completed
	FROM couple_progress
	WHERE profile_id = $1
	FOR UPDATE
	`, c.ProfileID), c.ProfileID)
	if err != nil {
		return store.CompletionResult{}, mapErr(err, "lock progress")
	}

	tag, err := tx.Exec(ctx, `
	INSERT INTO completed_challenges (profile_id, challenge_id, category, completed_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (profile_id, challenge_id) DO NOTHING
	`, c.ProfileID, c.ChallengeID, c.Category, c.CompletedAt)
	if err != nil {
		return store.CompletionResult{}, mapErr(err, "record completion")
	}
	if tag.RowsAffected() == 0 {
		return store.CompletionResult{AlreadyCompleted: true, Progress: cur}, nil
	}

	next := cur.Complete(c.CompletedAt)
	_, err = tx.Exec(ctx, `
	UPDATE couple_progress
	SET streak = $2, last_completed = $3, spark_level = $4, total_completed = $5
	WHERE profile_id = $1
	`, c.ProfileID, next.Streak, next.LastCompleted, next.SparkLevel, next.TotalCompleted)
	if err != nil {
		return store.CompletionResult{}, mapErr(err, "update progress")
	}

	if err := tx.Commit(ctx); err != nil {
		return store.CompletionResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return store.CompletionResult{Progress: next}, nil
}

func (s *Store) ResetProgress(ctx context.Context, profileID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	initial := progress.New(profileID)
	tag, err := tx.Exec(ctx, `
	UPDATE couple_progress
	SET streak = $2, last_completed = NULL, spark_level = $3, total_completed = $4
	WHERE profile_id = $1
	`, profileID, initial.Streak, initial.SparkLevel, initial.TotalCompleted)
	if err != nil {
		return mapErr(err, "reset progress")
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	for _, table := range []string{"completed_challenges", "couple_badges", "current_challenges"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE profile_id = $1`, profileID); err != nil {
			return mapErr(err, "clear "+table)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) requireProgress(ctx context.Context, profileID uuid.UUID) error {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM couple_progress WHERE profile_id = $1)`, profileID).Scan(&exists)
	if err != nil {
		return mapErr(err, "check profile")
	}
	if !exists {
		return store.ErrNotFound
	}
	return nil
}
