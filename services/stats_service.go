package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sparkAPI/internal/catalog"
	"sparkAPI/internal/progress"
	"sparkAPI/internal/store"
)

type StatsService struct {
	store   store.Store
	catalog *catalog.Catalog
	loc     *time.Location
}

func NewStatsService(st store.Store, cat *catalog.Catalog, loc *time.Location) *StatsService {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsService{store: st, catalog: cat, loc: loc}
}

type ProgressSummary struct {
	Progress     progress.Progress    `json:"progress"`
	Badges       []progress.Badge     `json:"badges"`
	LockedBadges []progress.BadgeRule `json:"locked_badges"`
}

func (s *StatsService) Summary(ctx context.Context, profileID uuid.UUID) (*ProgressSummary, error) {
	p, err := s.store.GetProgress(ctx, profileID)
	if err != nil {
		return nil, profileErr(err, "get progress")
	}
	badges, err := s.store.Badges(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get badges: %w", err)
	}

	earned := make(map[string]bool, len(badges))
	for _, b := range badges {
		earned[b.Name] = true
	}
	locked := make([]progress.BadgeRule, 0, len(progress.BadgeRules))
	for _, rule := range progress.BadgeRules {
		if !earned[rule.Name] {
			locked = append(locked, rule)
		}
	}

	return &ProgressSummary{Progress: p, Badges: badges, LockedBadges: locked}, nil
}

// Calendar marks the days of the month with at least one completion. A zero
// year or month means the current one.
func (s *StatsService) Calendar(ctx context.Context, profileID uuid.UUID, year int, month time.Month) (*progress.Calendar, error) {
	if month < 0 || month > time.December {
		return nil, fmt.Errorf("%w: month must be between 1 and 12", ErrInvalidInput)
	}
	now := time.Now().In(s.loc)
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}

	completed, err := s.completed(ctx, profileID)
	if err != nil {
		return nil, err
	}
	cal := progress.BuildCalendar(year, month, s.loc, completed)
	return &cal, nil
}

func (s *StatsService) CategoryStats(ctx context.Context, profileID uuid.UUID) ([]progress.CategoryStat, error) {
	completed, err := s.completed(ctx, profileID)
	if err != nil {
		return nil, err
	}

	categories := s.catalog.ChallengeCategories()
	totals := make(map[string]int, len(categories))
	for _, c := range categories {
		totals[c] = len(s.catalog.ChallengesByCategory(c))
	}
	return progress.BuildCategoryStats(categories, totals, completed), nil
}

// CurrentChallenge returns the challenge last offered to the couple, or nil
// when nothing has been offered since creation or reset.
func (s *StatsService) CurrentChallenge(ctx context.Context, profileID uuid.UUID) (*ChallengeView, error) {
	profile, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		return nil, profileErr(err, "get couple profile")
	}
	cur, err := s.store.CurrentChallenge(ctx, profileID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current challenge: %w", err)
	}
	return newChallengeView(cur, profile), nil
}

// completed checks the profile exists so that an unknown id is reported
// rather than treated as an empty history.
func (s *StatsService) completed(ctx context.Context, profileID uuid.UUID) ([]progress.CompletedChallenge, error) {
	if _, err := s.store.GetProgress(ctx, profileID); err != nil {
		return nil, profileErr(err, "get progress")
	}
	completed, err := s.store.CompletedChallenges(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed challenges: %w", err)
	}
	return completed, nil
}
