package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"sparkAPI/internal/couple"
	"sparkAPI/internal/progress"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type ProfileRepository interface {
	// CreateProfile stores the profile together with its initial progress
	// record. An owner may hold only one profile (ErrConflict).
	CreateProfile(ctx context.Context, p *couple.Profile, initial progress.Progress) error
	GetProfile(ctx context.Context, id uuid.UUID) (*couple.Profile, error)
	ProfileIDForOwner(ctx context.Context, ownerID string) (uuid.UUID, error)
	UpdateProfile(ctx context.Context, p *couple.Profile) error
	// DeleteProfile removes the profile and every record scoped to it.
	DeleteProfile(ctx context.Context, id uuid.UUID) error
}

type CompletionResult struct {
	AlreadyCompleted bool
	Progress         progress.Progress
}

type LedgerRepository interface {
	GetProgress(ctx context.Context, profileID uuid.UUID) (progress.Progress, error)
	CompletedChallenges(ctx context.Context, profileID uuid.UUID) ([]progress.CompletedChallenge, error)
	Badges(ctx context.Context, profileID uuid.UUID) ([]progress.Badge, error)
	// AwardBadges inserts the named badges, skipping any the profile already
	// holds, and returns the names actually inserted.
	AwardBadges(ctx context.Context, profileID uuid.UUID, names []string, earnedAt time.Time) ([]string, error)
	// RecordCompletion appends the completion and applies the progress
	// transition as one unit. A repeated (profile, challenge) pair changes
	// nothing and reports AlreadyCompleted.
	RecordCompletion(ctx context.Context, c progress.CompletedChallenge) (CompletionResult, error)
	// ResetProgress clears completions, badges and the current challenge and
	// restores the initial progress record, all or nothing.
	ResetProgress(ctx context.Context, profileID uuid.UUID) error
}

type CurrentChallengeRepository interface {
	SetCurrentChallenge(ctx context.Context, cc progress.CurrentChallenge) error
	// CurrentChallenge returns ErrNotFound when nothing has been offered yet.
	CurrentChallenge(ctx context.Context, profileID uuid.UUID) (progress.CurrentChallenge, error)
}

type ContentKind string

const (
	KindArticle ContentKind = "article"
	KindProduct ContentKind = "product"
)

type ViewedRepository interface {
	// MarkViewed is idempotent per (profile, kind, content id).
	MarkViewed(ctx context.Context, kind ContentKind, v progress.ViewedContent) error
	Viewed(ctx context.Context, kind ContentKind, profileID uuid.UUID) ([]progress.ViewedContent, error)
}

// Store is the full persistence port the services depend on.
type Store interface {
	ProfileRepository
	LedgerRepository
	CurrentChallengeRepository
	ViewedRepository
}
