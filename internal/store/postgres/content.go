package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"sparkAPI/internal/progress"
	"sparkAPI/internal/store"
)

func (s *Store) SetCurrentChallenge(ctx context.Context, cc progress.CurrentChallenge) error {
	_, err := s.db.Exec(ctx, `
	INSERT INTO current_challenges (profile_id, challenge_id, category, source, generated_at, challenge)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (profile_id) DO UPDATE
	SET challenge_id = EXCLUDED.challenge_id,
		category = EXCLUDED.category,
		source = EXCLUDED.source,
		generated_at = EXCLUDED.generated_at,
		challenge = EXCLUDED.challenge
	`, cc.ProfileID, cc.ChallengeID, cc.Category, string(cc.Source), cc.GeneratedAt, cc.Challenge)
	if err != nil {
		return mapErr(err, "set current challenge")
	}
	return nil
}

func (s *Store) CurrentChallenge(ctx context.Context, profileID uuid.UUID) (progress.CurrentChallenge, error) {
	cc := progress.CurrentChallenge{ProfileID: profileID}
	var source string
	err := s.db.QueryRow(ctx, `
	SELECT challenge_id, category, source, generated_at, challenge
	FROM current_challenges
	WHERE profile_id = $1
	`, profileID).Scan(&cc.ChallengeID, &cc.Category, &source, &cc.GeneratedAt, &cc.Challenge)
	if err != nil {
		return progress.CurrentChallenge{}, mapErr(err, "get current challenge")
	}
	cc.Source = progress.Source(source)
	return cc, nil
}

func viewedTable(kind store.ContentKind) (string, error) {
	switch kind {
	case store.KindArticle:
		return "viewed_articles", nil
	case store.KindProduct:
		return "viewed_products", nil
	default:
		return "", fmt.Errorf("unknown content kind %q", kind)
	}
}

func (s *Store) MarkViewed(ctx context.Context, kind store.ContentKind, v progress.ViewedContent) error {
	table, err := viewedTable(kind)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
	INSERT INTO `+table+` (profile_id, content_id, viewed_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (profile_id, content_id) DO NOTHING
	`, v.ProfileID, v.ContentID, v.ViewedAt)
	if err != nil {
		return mapErr(err, "mark viewed")
	}
	return nil
}

func (s *Store) Viewed(ctx context.Context, kind store.ContentKind, profileID uuid.UUID) ([]progress.ViewedContent, error) {
	table, err := viewedTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `
	SELECT content_id, viewed_at
	FROM `+table+`
	WHERE profile_id = $1
	ORDER BY viewed_at
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch viewed content: %w", err)
	}
	defer rows.Close()

	var out []progress.ViewedContent
	for rows.Next() {
		v := progress.ViewedContent{ProfileID: profileID}
		if err := rows.Scan(&v.ContentID, &v.ViewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan viewed content: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
