// Package storetest holds the behaviour every store.Store implementation must
// share. Implementations call Run from their own tests.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sparkAPI/internal/catalog"
	"sparkAPI/internal/couple"
	"sparkAPI/internal/progress"
	"sparkAPI/internal/store"
)

// NewProfile builds a valid profile owned by a fresh owner id.
func NewProfile() *couple.Profile {
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.New()
	return &couple.Profile{
		ID:                   id,
		OwnerID:              "user_" + id.String(),
		Partner1Name:         "Alex",
		Partner2Name:         "Sam",
		RelationshipStatus:   "married",
		RelationshipDuration: "1-3 years",
		ChallengeFrequency:   couple.CadenceDaily,
		PreferredCategories:  []string{"Emotional Connection"},
		ExcludedCategories:   []string{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func create(t *testing.T, s store.Store) *couple.Profile {
	t.Helper()
	p := NewProfile()
	require.NoError(t, s.CreateProfile(context.Background(), p, progress.New(p.ID)))
	return p
}

func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("ProfileLifecycle", func(t *testing.T) { testProfileLifecycle(t, newStore(t)) })
	t.Run("OwnerConflict", func(t *testing.T) { testOwnerConflict(t, newStore(t)) })
	t.Run("RecordCompletionIdempotent", func(t *testing.T) { testRecordCompletionIdempotent(t, newStore(t)) })
	t.Run("ConcurrentDuplicateCompletion", func(t *testing.T) { testConcurrentDuplicate(t, newStore(t)) })
	t.Run("AwardBadges", func(t *testing.T) { testAwardBadges(t, newStore(t)) })
	t.Run("ResetProgress", func(t *testing.T) { testResetProgress(t, newStore(t)) })
	t.Run("CurrentChallengeOverwrite", func(t *testing.T) { testCurrentChallenge(t, newStore(t)) })
	t.Run("Viewed", func(t *testing.T) { testViewed(t, newStore(t)) })
	t.Run("DeleteCascades", func(t *testing.T) { testDeleteCascades(t, newStore(t)) })
}

func testProfileLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := create(t, s)

	got, err := s.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Partner1Name, got.Partner1Name)
	assert.Equal(t, p.PreferredCategories, got.PreferredCategories)
	assert.Equal(t, p.OwnerID, got.OwnerID)

	id, err := s.ProfileIDForOwner(ctx, p.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, id)

	prog, err := s.GetProgress(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, progress.InitialSparkLevel, prog.SparkLevel)
	assert.Zero(t, prog.TotalCompleted)

	got.ChallengeFrequency = couple.CadenceWeekly
	got.ExcludedCategories = []string{"Sexual Exploration"}
	require.NoError(t, s.UpdateProfile(ctx, got))

	again, err := s.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, couple.CadenceWeekly, again.ChallengeFrequency)
	assert.True(t, again.IsExcluded("Sexual Exploration"))

	_, err = s.GetProfile(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.ProfileIDForOwner(ctx, "user_nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetProgress(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)

	missing := NewProfile()
	assert.ErrorIs(t, s.UpdateProfile(ctx, missing), store.ErrNotFound)
}

func testOwnerConflict(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := create(t, s)

	dup := NewProfile()
	dup.OwnerID = p.OwnerID
	err := s.CreateProfile(ctx, dup, progress.New(dup.ID))
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.GetProfile(ctx, dup.ID)
	assert.ErrorIs(t, err, store.ErrNotFound, "failed create leaves nothing behind")
}

func testRecordCompletionIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := create(t, s)
	now := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)

	c := progress.CompletedChallenge{ProfileID: p.ID, ChallengeID: "comm_1", Category: "Communication Boosters", CompletedAt: now}

	first, err := s.RecordCompletion(ctx, c)
	require.NoError(t, err)
	assert.False(t, first.AlreadyCompleted)
	assert.Equal(t, 1, first.Progress.TotalCompleted)
	assert.Equal(t, 1, first.Progress.Streak)
	assert.Equal(t, 15.0, first.Progress.SparkLevel)

	c.CompletedAt = now.Add(time.Hour)
	second, err := s.RecordCompletion(ctx, c)
	require.NoError(t, err)
	assert.True(t, second.AlreadyCompleted)
	assert.Equal(t, first.Progress.TotalCompleted, second.Progress.TotalCompleted)
	assert.Equal(t, first.Progress.SparkLevel, second.Progress.SparkLevel)
	assert.Equal(t, first.Progress.Streak, second.Progress.Streak)

	next := progress.CompletedChallenge{ProfileID: p.ID, ChallengeID: "comm_2", Category: "Communication Boosters", CompletedAt: now.Add(24 * time.Hour)}
	third, err := s.RecordCompletion(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Progress.Streak)

	done, err := s.CompletedChallenges(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, done, 2)

	stored, err := s.GetProgress(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, len(done), stored.TotalCompleted)

	_, err = s.RecordCompletion(ctx, progress.CompletedChallenge{ProfileID: uuid.New(), ChallengeID: "comm_1", CompletedAt: now})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testConcurrentDuplicate(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := create(t, s)
	now := time.Now()

	const workers = 8
	var wg sync.WaitGroup
	results := make([]store.CompletionResult, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.RecordCompletion(ctx, progress.CompletedChallenge{
				ProfileID: p.ID, ChallengeID: "touch_1", Category: "Physical Touch & Affection", CompletedAt: now,
			})
		}(i)
	}
	wg.Wait()

	recorded := 0
	for i := range results {
		require.NoError(t, errs[i])
		if !results[i].AlreadyCompleted {
			recorded++
		}
	}
	assert.Equal(t, 1, recorded)

	prog, err := s.GetProgress(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, prog.TotalCompleted)
	assert.Equal(t, 15.0, prog.SparkLevel)
}

func testAwardBadges(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := create(t, s)
	now := time.Now().UTC().Truncate(time.Microsecond)

	inserted, err := s.AwardBadges(ctx, p.ID, []string{"First Spark", "3 Day Streak"}, now)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"First Spark", "3 Day Streak"}, inserted)

	inserted, err = s.AwardBadges(ctx, p.ID, []string{"First Spark", "Flame Starter"}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"Flame Starter"}, inserted)

	badges, err := s.Badges(ctx, p.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"First Spark", "3 Day Streak", "Flame Starter"}, progress.BadgeNames(badges))
}

func testResetProgress(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := create(t, s)
	now := time.Now()

	_, err := s.RecordCompletion(ctx, progress.CompletedChallenge{ProfileID: p.ID, ChallengeID: "comm_1", CompletedAt: now})
	require.NoError(t, err)
	_, err = s.AwardBadges(ctx, p.ID, []string{"First Spark"}, now)
	require.NoError(t, err)
	require.NoError(t, s.SetCurrentChallenge(ctx, progress.CurrentChallenge{
		ProfileID: p.ID, ChallengeID: "comm_2", Category: "Communication Boosters", GeneratedAt: now,
		Source: progress.SourceCatalog, Challenge: catalog.Challenge{ID: "comm_2", Title: "t"},
	}))

	require.NoError(t, s.ResetProgress(ctx, p.ID))

	prog, err := s.GetProgress(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, prog.Streak)
	assert.Nil(t, prog.LastCompleted)
	assert.Equal(t, progress.InitialSparkLevel, prog.SparkLevel)
	assert.Zero(t, prog.TotalCompleted)

	done, err := s.CompletedChallenges(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, done)
	badges, err := s.Badges(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, badges)
	_, err = s.CurrentChallenge(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.ResetProgress(ctx, uuid.New()), store.ErrNotFound)
}

func testCurrentChallenge(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := create(t, s)
	at := time.Now().UTC().Truncate(time.Microsecond)

	_, err := s.CurrentChallenge(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	for _, id := range []string{"comm_1", "ai_emotional_connection_abc"} {
		require.NoError(t, s.SetCurrentChallenge(ctx, progress.CurrentChallenge{
			ProfileID: p.ID, ChallengeID: id, Category: "Emotional Connection", GeneratedAt: at,
			Source:    progress.SourceGenerated,
			Challenge: catalog.Challenge{ID: id, Title: "Title " + id, Category: "Emotional Connection", Difficulty: catalog.DifficultyEasy},
		}))
	}

	cc, err := s.CurrentChallenge(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "ai_emotional_connection_abc", cc.ChallengeID)
	assert.Equal(t, "Title ai_emotional_connection_abc", cc.Challenge.Title)
	assert.Equal(t, progress.SourceGenerated, cc.Source)
	assert.True(t, at.Equal(cc.GeneratedAt))
}

func testViewed(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := create(t, s)
	now := time.Now().UTC().Truncate(time.Microsecond)

	for i := 0; i < 2; i++ {
		require.NoError(t, s.MarkViewed(ctx, store.KindArticle, progress.ViewedContent{ProfileID: p.ID, ContentID: "art_1", ViewedAt: now}))
	}
	require.NoError(t, s.MarkViewed(ctx, store.KindProduct, progress.ViewedContent{ProfileID: p.ID, ContentID: "prod_1", ViewedAt: now}))

	articles, err := s.Viewed(ctx, store.KindArticle, p.ID)
	require.NoError(t, err)
	assert.Len(t, articles, 1)

	products, err := s.Viewed(ctx, store.KindProduct, p.ID)
	require.NoError(t, err)
	assert.Len(t, products, 1)

	err = s.MarkViewed(ctx, store.KindArticle, progress.ViewedContent{ProfileID: uuid.New(), ContentID: "art_1", ViewedAt: now})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Error(t, s.MarkViewed(ctx, store.ContentKind("video"), progress.ViewedContent{ProfileID: p.ID, ContentID: "v"}))
}

func testDeleteCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := create(t, s)
	now := time.Now()

	_, err := s.RecordCompletion(ctx, progress.CompletedChallenge{ProfileID: p.ID, ChallengeID: "comm_1", CompletedAt: now})
	require.NoError(t, err)
	require.NoError(t, s.MarkViewed(ctx, store.KindArticle, progress.ViewedContent{ProfileID: p.ID, ContentID: "art_1", ViewedAt: now}))

	require.NoError(t, s.DeleteProfile(ctx, p.ID))

	_, err = s.GetProfile(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetProgress(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.ProfileIDForOwner(ctx, p.OwnerID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	viewed, err := s.Viewed(ctx, store.KindArticle, p.ID)
	require.NoError(t, err)
	assert.Empty(t, viewed)

	assert.ErrorIs(t, s.DeleteProfile(ctx, p.ID), store.ErrNotFound)

	// owner id is free again
	again := NewProfile()
	again.OwnerID = p.OwnerID
	require.NoError(t, s.CreateProfile(ctx, again, progress.New(again.ID)))
}
