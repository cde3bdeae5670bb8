package generation

import (
	"context"
	"errors"

	"sparkAPI/internal/catalog"
	"sparkAPI/internal/couple"
)

// ErrUnavailable covers every reason a generated challenge could not be
// produced. Callers recover with Fallback and never surface it.
var ErrUnavailable = errors.New("challenge generation unavailable")

type Request struct {
	Couple   couple.Context
	Category string
}

type BatchRequest struct {
	Couple     couple.Context
	Count      int
	Categories []string
}

// Generator is the external challenge generation capability.
type Generator interface {
	Generate(ctx context.Context, req Request) (catalog.Challenge, error)
	GenerateBatch(ctx context.Context, req BatchRequest) ([]catalog.Challenge, error)
}

const (
	FallbackID          = "default_challenge"
	FallbackTitle       = "Connection Time"
	FallbackDescription = "Spend 15 minutes today sharing three things you appreciate about each other."
)

// Fallback is the deterministic challenge offered when neither the catalog nor
// the generator can provide one.
func Fallback(category string) catalog.Challenge {
	if category == "" {
		category = catalog.DefaultCategory
	}
	return catalog.Challenge{
		ID:          FallbackID,
		Title:       FallbackTitle,
		Description: FallbackDescription,
		Category:    category,
		Difficulty:  catalog.DifficultyEasy,
	}
}
