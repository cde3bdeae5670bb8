package services

import (
	"errors"
	"fmt"

	"sparkAPI/internal/store"
)

var (
	ErrProfileNotFound   = errors.New("couple profile not found")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrContentNotFound   = errors.New("content not found")
	ErrInvalidInput      = errors.New("invalid input")
)

// profileErr maps a storage miss on a profile-scoped lookup to
// ErrProfileNotFound and wraps everything else.
func profileErr(err error, action string) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrProfileNotFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
