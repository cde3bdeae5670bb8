package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"sparkAPI/internal/catalog"
	"sparkAPI/internal/couple"
	"sparkAPI/internal/generation"
	"sparkAPI/internal/logger"
	"sparkAPI/internal/metrics"
	"sparkAPI/internal/progress"
	"sparkAPI/internal/selection"
	"sparkAPI/internal/store"
)

// Prefetcher accepts best-effort batch generation jobs. Schedule must not
// block.
type Prefetcher interface {
	Schedule(job generation.BatchRequest) bool
}

type ChallengeServiceConfig struct {
	Policy selection.PolicyConfig
	// BatchSize is the number of challenges requested per prefetch job.
	// Zero disables prefetching.
	BatchSize int
	// Location decides civil dates for streaks.
	Location *time.Location
}

type ChallengeService struct {
	store     store.Store
	catalog   *catalog.Catalog
	pipeline  *generation.Pipeline
	prefetch  Prefetcher
	rng       selection.Rand
	policy    selection.PolicyConfig
	batchSize int
	loc       *time.Location
	now       func() time.Time
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// NewChallengeService wires the selection engine. pipeline and prefetch may be
// nil; without a pipeline every generation path yields the fallback challenge.
func NewChallengeService(
	st store.Store,
	cat *catalog.Catalog,
	pipeline *generation.Pipeline,
	prefetch Prefetcher,
	rng selection.Rand,
	cfg ChallengeServiceConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) *ChallengeService {
	if rng == nil {
		rng = selection.NewRand()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Policy.ExhaustionRatio <= 0 {
		cfg.Policy = selection.DefaultPolicy()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ChallengeService{
		store:     st,
		catalog:   cat,
		pipeline:  pipeline,
		prefetch:  prefetch,
		rng:       rng,
		policy:    cfg.Policy,
		batchSize: cfg.BatchSize,
		loc:       cfg.Location,
		now:       time.Now,
		log:       log.With("component", "ChallengeService"),
		metrics:   m,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *ChallengeService) WithClock(now func() time.Time) *ChallengeService {
	s.now = now
	return s
}

type NextChallengeRequest struct {
	Category    string `json:"category,omitempty"`
	ChallengeID string `json:"challenge_id,omitempty"`
}

// GetNextChallenge selects the next challenge for the couple and stores it as
// the current challenge. Once the profile is known it always yields something
// displayable; only lookups of an explicit challenge id can fail.
func (s *ChallengeService) GetNextChallenge(ctx context.Context, profileID uuid.UUID, req NextChallengeRequest) (*ChallengeView, error) {
	profile, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		return nil, profileErr(err, "get couple profile")
	}

	if id := strings.TrimSpace(req.ChallengeID); id != "" {
		return s.offerByID(ctx, profile, id)
	}

	category := strings.TrimSpace(req.Category)
	if category != "" && !s.catalog.HasChallengeCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}

	completed, err := s.store.CompletedChallenges(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed challenges: %w", err)
	}
	prog, err := s.store.GetProgress(ctx, profileID)
	if err != nil {
		return nil, profileErr(err, "get progress")
	}

	done := make(map[string]bool, len(completed))
	doneByCategory := make(map[string]string, len(completed))
	for _, c := range completed {
		done[c.ChallengeID] = true
		doneByCategory[c.ChallengeID] = c.Category
	}

	candidates := s.candidateCategories(profile)
	if category == "" {
		counts := selection.CountByCategory(s.catalog, doneByCategory)
		category, _ = selection.ChooseCategory(s.rng, candidates, counts)
	}

	if s.pipeline.Enabled() {
		finished, available := selection.CategoryUsage(s.catalog, category, done)
		if reason := s.policy.Decide(finished, available, prog.Streak, prog.TotalCompleted); reason != selection.ReasonNone {
			s.log.Debug("using external generation", "profile_id", profileID, "category", category, "reason", reason)
			ch, source := s.generated(ctx, profile, category, done)
			return s.offer(ctx, profile, ch, source, candidates)
		}
	}

	if ch, ok := selection.SelectChallenge(s.rng, s.catalog, category, done); ok {
		return s.offer(ctx, profile, ch, progress.SourceCatalog, candidates)
	}

	// The category is exhausted. Broaden to every category the couple has
	// not excluded before turning to generation.
	exclude := make(map[string]bool, len(done))
	for id := range done {
		exclude[id] = true
	}
	for _, c := range profile.ExcludedCategories {
		for _, ch := range s.catalog.ChallengesByCategory(c) {
			exclude[ch.ID] = true
		}
	}
	if ch, ok := selection.SelectChallenge(s.rng, s.catalog, "", exclude); ok {
		s.log.Debug("category exhausted, broadened selection", "profile_id", profileID, "category", category)
		return s.offer(ctx, profile, ch, progress.SourceCatalog, candidates)
	}

	ch, source := s.generated(ctx, profile, category, done)
	return s.offer(ctx, profile, ch, source, candidates)
}

// candidateCategories applies exclusion first, then preference. When every
// category is excluded the default category is used.
func (s *ChallengeService) candidateCategories(p *couple.Profile) []string {
	candidates := selection.ResolveCategories(s.catalog.ChallengeCategories(), p.PreferredCategories, p.ExcludedCategories)
	if len(candidates) == 0 {
		return []string{catalog.DefaultCategory}
	}
	return candidates
}

// generated asks the pipeline for a challenge the couple has not completed.
func (s *ChallengeService) generated(ctx context.Context, p *couple.Profile, category string, done map[string]bool) (catalog.Challenge, progress.Source) {
	if s.pipeline == nil {
		return generation.Fallback(category), progress.SourceFallback
	}
	res := s.pipeline.Challenge(ctx, p.Context(), category, done)
	return res.Challenge, res.Source
}

func (s *ChallengeService) offerByID(ctx context.Context, p *couple.Profile, id string) (*ChallengeView, error) {
	if ch, ok := s.catalog.ChallengeByID(id); ok {
		return s.offer(ctx, p, ch, progress.SourceCatalog, nil)
	}
	if !strings.HasPrefix(id, catalog.GeneratedPrefix) {
		return nil, ErrChallengeNotFound
	}

	// Generated challenges are not addressable once replaced. The current one
	// is shown again; any other id re-enters generation for its category.
	category := catalog.DefaultCategory
	cur, err := s.store.CurrentChallenge(ctx, p.ID)
	switch {
	case err == nil && cur.ChallengeID == id:
		return newChallengeView(cur, p), nil
	case err == nil && cur.Category != "":
		category = cur.Category
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("failed to get current challenge: %w", err)
	}

	completed, err := s.store.CompletedChallenges(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed challenges: %w", err)
	}
	done := make(map[string]bool, len(completed))
	for _, c := range completed {
		done[c.ChallengeID] = true
	}

	ch, source := s.generated(ctx, p, category, done)
	return s.offer(ctx, p, ch, source, nil)
}

func (s *ChallengeService) offer(ctx context.Context, p *couple.Profile, ch catalog.Challenge, source progress.Source, categories []string) (*ChallengeView, error) {
	cc := progress.CurrentChallenge{
		ProfileID:   p.ID,
		ChallengeID: ch.ID,
		Category:    ch.Category,
		GeneratedAt: s.now(),
		Source:      source,
		Challenge:   ch,
	}
	if err := s.store.SetCurrentChallenge(ctx, cc); err != nil {
		return nil, fmt.Errorf("failed to set current challenge: %w", err)
	}
	s.metrics.Selection(string(source))

	if len(categories) > 0 {
		s.schedulePrefetch(p, categories)
	}
	return newChallengeView(cc, p), nil
}

func (s *ChallengeService) schedulePrefetch(p *couple.Profile, categories []string) {
	if s.prefetch == nil || s.batchSize <= 0 || !s.pipeline.Enabled() {
		return
	}
	s.prefetch.Schedule(generation.BatchRequest{
		Couple:     p.Context(),
		Count:      s.batchSize,
		Categories: categories,
	})
}

// CompleteChallenge records the completion, awards any newly earned badges and
// offers the next challenge. Completing the same challenge again changes
// nothing and reports AlreadyCompleted.
func (s *ChallengeService) CompleteChallenge(ctx context.Context, profileID uuid.UUID, challengeID, category string) (*ProgressView, error) {
	challengeID = strings.TrimSpace(challengeID)
	if challengeID == "" {
		return nil, fmt.Errorf("%w: challenge_id is required", ErrInvalidInput)
	}
	if _, err := s.store.GetProfile(ctx, profileID); err != nil {
		return nil, profileErr(err, "get couple profile")
	}

	category, err := s.completionCategory(ctx, profileID, challengeID, strings.TrimSpace(category))
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	res, err := s.store.RecordCompletion(ctx, progress.CompletedChallenge{
		ProfileID:   profileID,
		ChallengeID: challengeID,
		Category:    category,
		CompletedAt: now,
	})
	if err != nil {
		return nil, profileErr(err, "record completion")
	}
	s.metrics.Completion(res.AlreadyCompleted)

	badges, err := s.store.Badges(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get badges: %w", err)
	}

	view := &ProgressView{
		AlreadyCompleted: res.AlreadyCompleted,
		Progress:         res.Progress,
		NewBadges:        []string{},
		Badges:           badges,
	}
	if res.AlreadyCompleted {
		return view, nil
	}

	if earned := progress.EvaluateBadges(res.Progress, progress.BadgeNames(badges)); len(earned) > 0 {
		inserted, err := s.store.AwardBadges(ctx, profileID, earned, now)
		if err != nil {
			return nil, fmt.Errorf("failed to award badges: %w", err)
		}
		for _, name := range inserted {
			s.metrics.BadgeAwarded(name)
		}
		view.NewBadges = append(view.NewBadges, inserted...)

		if view.Badges, err = s.store.Badges(ctx, profileID); err != nil {
			return nil, fmt.Errorf("failed to get badges: %w", err)
		}
	}

	// The completion is already durable; a failed follow-up selection only
	// leaves the next challenge to be requested explicitly.
	next, err := s.GetNextChallenge(ctx, profileID, NextChallengeRequest{})
	if err != nil {
		s.log.Warn("failed to select next challenge after completion", "profile_id", profileID, "error", err)
	} else {
		view.NextChallenge = next
	}
	return view, nil
}

// completionCategory resolves the category recorded with a completion. The
// catalog is authoritative for its own ids; generated and fallback challenges
// take the category they were offered under.
func (s *ChallengeService) completionCategory(ctx context.Context, profileID uuid.UUID, challengeID, requested string) (string, error) {
	if ch, ok := s.catalog.ChallengeByID(challengeID); ok {
		return ch.Category, nil
	}
	if challengeID != generation.FallbackID && !strings.HasPrefix(challengeID, catalog.GeneratedPrefix) {
		return "", ErrChallengeNotFound
	}

	cur, err := s.store.CurrentChallenge(ctx, profileID)
	switch {
	case err == nil && cur.ChallengeID == challengeID && cur.Category != "":
		return cur.Category, nil
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return "", fmt.Errorf("failed to get current challenge: %w", err)
	}

	if requested != "" {
		return requested, nil
	}
	return catalog.DefaultCategory, nil
}

// ResetProgress clears the couple's history and restores the initial progress
// record. The profile itself is kept.
func (s *ChallengeService) ResetProgress(ctx context.Context, profileID uuid.UUID) error {
	if err := s.store.ResetProgress(ctx, profileID); err != nil {
		return profileErr(err, "reset progress")
	}
	s.log.Info("progress reset", "profile_id", profileID)
	return nil
}

// ExportProgress gathers every record held for the couple.
func (s *ChallengeService) ExportProgress(ctx context.Context, profileID uuid.UUID) (*ProgressExport, error) {
	profile, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		return nil, profileErr(err, "get couple profile")
	}

	export := &ProgressExport{Profile: profile, ExportDate: s.now()}

	if export.Progress, err = s.store.GetProgress(ctx, profileID); err != nil {
		return nil, profileErr(err, "get progress")
	}
	if export.CompletedChallenges, err = s.store.CompletedChallenges(ctx, profileID); err != nil {
		return nil, fmt.Errorf("failed to get completed challenges: %w", err)
	}
	if export.Badges, err = s.store.Badges(ctx, profileID); err != nil {
		return nil, fmt.Errorf("failed to get badges: %w", err)
	}
	if export.ViewedArticles, err = s.store.Viewed(ctx, store.KindArticle, profileID); err != nil {
		return nil, fmt.Errorf("failed to get viewed articles: %w", err)
	}
	if export.ViewedProducts, err = s.store.Viewed(ctx, store.KindProduct, profileID); err != nil {
		return nil, fmt.Errorf("failed to get viewed products: %w", err)
	}

	cur, err := s.store.CurrentChallenge(ctx, profileID)
	switch {
	case err == nil:
		export.CurrentChallenge = &cur
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("failed to get current challenge: %w", err)
	}

	return export, nil
}
