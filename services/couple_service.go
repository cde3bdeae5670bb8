package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sparkAPI/internal/catalog"
	"sparkAPI/internal/couple"
	"sparkAPI/internal/logger"
	"sparkAPI/internal/progress"
	"sparkAPI/internal/store"
)

var ErrProfileExists = errors.New("couple profile already exists")

type CoupleService struct {
	store      store.Store
	catalog    *catalog.Catalog
	challenges *ChallengeService
	now        func() time.Time
	log        *logger.Logger
}

func NewCoupleService(st store.Store, cat *catalog.Catalog, challenges *ChallengeService, log *logger.Logger) *CoupleService {
	if log == nil {
		log = logger.Nop()
	}
	return &CoupleService{
		store:      st,
		catalog:    cat,
		challenges: challenges,
		now:        time.Now,
		log:        log.With("component", "CoupleService"),
	}
}

func (s *CoupleService) WithClock(now func() time.Time) *CoupleService {
	s.now = now
	return s
}

type CreateProfileResponse struct {
	Profile   *couple.Profile `json:"profile"`
	Challenge *ChallengeView  `json:"challenge,omitempty"`
}

// CreateProfile stores a new profile with its initial progress and offers the
// first challenge. An owner holds at most one profile.
func (s *CoupleService) CreateProfile(ctx context.Context, ownerID string, req *couple.CreateProfileRequest) (*CreateProfileResponse, error) {
	if err := req.Validate(s.catalog.HasChallengeCategory); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.now()
	profile := &couple.Profile{
		ID:                   uuid.New(),
		OwnerID:              ownerID,
		Partner1Name:         req.Partner1Name,
		Partner2Name:         req.Partner2Name,
		RelationshipStatus:   req.RelationshipStatus,
		RelationshipDuration: req.RelationshipDuration,
		ChallengeFrequency:   req.ChallengeFrequency,
		PreferredCategories:  req.PreferredCategories,
		ExcludedCategories:   req.ExcludedCategories,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.store.CreateProfile(ctx, profile, progress.New(profile.ID)); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrProfileExists
		}
		return nil, fmt.Errorf("failed to create couple profile: %w", err)
	}
	s.log.Info("couple profile created", "profile_id", profile.ID, "owner_id", ownerID)

	resp := &CreateProfileResponse{Profile: profile}
	if s.challenges != nil {
		ch, err := s.challenges.GetNextChallenge(ctx, profile.ID, NextChallengeRequest{})
		if err != nil {
			s.log.Warn("failed to offer first challenge", "profile_id", profile.ID, "error", err)
		} else {
			resp.Challenge = ch
		}
	}
	return resp, nil
}

func (s *CoupleService) GetProfile(ctx context.Context, profileID uuid.UUID) (*couple.Profile, error) {
	p, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		return nil, profileErr(err, "get couple profile")
	}
	return p, nil
}

func (s *CoupleService) ProfileIDForOwner(ctx context.Context, ownerID string) (uuid.UUID, error) {
	id, err := s.store.ProfileIDForOwner(ctx, ownerID)
	if err != nil {
		return uuid.Nil, profileErr(err, "get couple profile")
	}
	return id, nil
}

func (s *CoupleService) UpdateProfile(ctx context.Context, profileID uuid.UUID, req *couple.UpdateProfileRequest) (*couple.Profile, error) {
	p, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		return nil, profileErr(err, "get couple profile")
	}
	if err := req.Apply(p, s.catalog.HasChallengeCategory); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	p.UpdatedAt = s.now()

	if err := s.store.UpdateProfile(ctx, p); err != nil {
		return nil, profileErr(err, "update couple profile")
	}
	return p, nil
}

func (s *CoupleService) DeleteProfile(ctx context.Context, profileID uuid.UUID) error {
	if err := s.store.DeleteProfile(ctx, profileID); err != nil {
		return profileErr(err, "delete couple profile")
	}
	s.log.Info("couple profile deleted", "profile_id", profileID)
	return nil
}

// DeleteByOwner removes the profile owned by ownerID, if any. A missing
// profile is not an error.
func (s *CoupleService) DeleteByOwner(ctx context.Context, ownerID string) error {
	id, err := s.store.ProfileIDForOwner(ctx, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get couple profile: %w", err)
	}
	return s.DeleteProfile(ctx, id)
}
