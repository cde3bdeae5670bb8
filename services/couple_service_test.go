package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sparkAPI/internal/couple"
	"sparkAPI/internal/progress"
)

func TestCreateProfileOffersFirstChallenge(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	resp, err := f.couples.CreateProfile(ctx, "user_1", &couple.CreateProfileRequest{
		Partner1Name:        " Ana ",
		Partner2Name:        "Ben",
		PreferredCategories: []string{"Creative Date Night Ideas"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", resp.Profile.Partner1Name)
	assert.Equal(t, couple.CadenceDaily, resp.Profile.ChallengeFrequency)
	require.NotNil(t, resp.Challenge)
	assert.Equal(t, "Creative Date Night Ideas", resp.Challenge.Category)

	p, err := f.store.GetProgress(ctx, resp.Profile.ID)
	require.NoError(t, err)
	assert.Equal(t, progress.New(resp.Profile.ID), p)

	id, err := f.couples.ProfileIDForOwner(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, resp.Profile.ID, id)
}

func TestCreateProfileValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.couples.CreateProfile(ctx, "user_1", &couple.CreateProfileRequest{Partner1Name: "Ana"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.couples.CreateProfile(ctx, "user_1", &couple.CreateProfileRequest{
		Partner1Name:       "Ana",
		Partner2Name:       "Ben",
		ExcludedCategories: []string{"Knitting"},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateProfileOnePerOwner(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	req := func() *couple.CreateProfileRequest {
		return &couple.CreateProfileRequest{Partner1Name: "Ana", Partner2Name: "Ben"}
	}

	_, err := f.couples.CreateProfile(ctx, "user_1", req())
	require.NoError(t, err)
	_, err = f.couples.CreateProfile(ctx, "user_1", req())
	assert.ErrorIs(t, err, ErrProfileExists)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t, nil)
	id := f.createCouple(t, nil)
	ctx := context.Background()

	f.now = f.now.Add(time.Hour)
	weekly := couple.CadenceWeekly
	excluded := []string{"Sexual Exploration"}
	p, err := f.couples.UpdateProfile(ctx, id, &couple.UpdateProfileRequest{
		ChallengeFrequency: &weekly,
		ExcludedCategories: &excluded,
	})
	require.NoError(t, err)
	assert.Equal(t, couple.CadenceWeekly, p.ChallengeFrequency)
	assert.Equal(t, excluded, p.ExcludedCategories)
	assert.Equal(t, "Ana", p.Partner1Name)
	assert.Equal(t, f.now, p.UpdatedAt)

	bad := couple.Cadence("hourly")
	_, err = f.couples.UpdateProfile(ctx, id, &couple.UpdateProfileRequest{ChallengeFrequency: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.couples.UpdateProfile(ctx, uuid.New(), &couple.UpdateProfileRequest{})
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestDeleteByOwner(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	resp, err := f.couples.CreateProfile(ctx, "user_gone", &couple.CreateProfileRequest{Partner1Name: "Ana", Partner2Name: "Ben"})
	require.NoError(t, err)

	require.NoError(t, f.couples.DeleteByOwner(ctx, "user_gone"))
	_, err = f.couples.GetProfile(ctx, resp.Profile.ID)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	assert.NoError(t, f.couples.DeleteByOwner(ctx, "user_gone"), "deleting twice is a no-op")
	assert.ErrorIs(t, f.couples.DeleteProfile(ctx, resp.Profile.ID), ErrProfileNotFound)
}
