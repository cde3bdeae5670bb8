package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sparkAPI/internal/couple"
	"sparkAPI/internal/progress"
	"sparkAPI/internal/store"
)

// Store keeps everything in process memory behind one mutex. The service and
// handler tests run against it.
type Store struct {
	mu sync.Mutex

	profiles  map[uuid.UUID]couple.Profile
	owners    map[string]uuid.UUID
	progress  map[uuid.UUID]progress.Progress
	completed map[uuid.UUID][]progress.CompletedChallenge
	badges    map[uuid.UUID][]progress.Badge
	current   map[uuid.UUID]progress.CurrentChallenge
	viewed    map[store.ContentKind]map[uuid.UUID][]progress.ViewedContent
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		profiles:  make(map[uuid.UUID]couple.Profile),
		owners:    make(map[string]uuid.UUID),
		progress:  make(map[uuid.UUID]progress.Progress),
		completed: make(map[uuid.UUID][]progress.CompletedChallenge),
		badges:    make(map[uuid.UUID][]progress.Badge),
		current:   make(map[uuid.UUID]progress.CurrentChallenge),
		viewed: map[store.ContentKind]map[uuid.UUID][]progress.ViewedContent{
			store.KindArticle: {},
			store.KindProduct: {},
		},
	}
}

func cloneProfile(p couple.Profile) couple.Profile {
	p.PreferredCategories = append([]string(nil), p.PreferredCategories...)
	p.ExcludedCategories = append([]string(nil), p.ExcludedCategories...)
	return p
}

func (s *Store) CreateProfile(_ context.Context, p *couple.Profile, initial progress.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[p.ID]; exists {
		return fmt.Errorf("profile %s: %w", p.ID, store.ErrConflict)
	}
	if p.OwnerID != "" {
		if _, taken := s.owners[p.OwnerID]; taken {
			return fmt.Errorf("owner already has a profile: %w", store.ErrConflict)
		}
		s.owners[p.OwnerID] = p.ID
	}
	s.profiles[p.ID] = cloneProfile(*p)
	initial.ProfileID = p.ID
	s.progress[p.ID] = initial
	return nil
}

func (s *Store) GetProfile(_ context.Context, id uuid.UUID) (*couple.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneProfile(p)
	return &out, nil
}

func (s *Store) ProfileIDForOwner(_ context.Context, ownerID string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.owners[ownerID]
	if !ok {
		return uuid.Nil, store.ErrNotFound
	}
	return id, nil
}

func (s *Store) UpdateProfile(_ context.Context, p *couple.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.profiles[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	updated := cloneProfile(*p)
	updated.OwnerID = existing.OwnerID
	updated.CreatedAt = existing.CreatedAt
	s.profiles[p.ID] = updated
	return nil
}

func (s *Store) DeleteProfile(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(s.owners, p.OwnerID)
	delete(s.profiles, id)
	delete(s.progress, id)
	delete(s.completed, id)
	delete(s.badges, id)
	delete(s.current, id)
	for _, byProfile := range s.viewed {
		delete(byProfile, id)
	}
	return nil
}

func (s *Store) GetProgress(_ context.Context, profileID uuid.UUID) (progress.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.progress[profileID]
	if !ok {
		return progress.Progress{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) CompletedChallenges(_ context.Context, profileID uuid.UUID) ([]progress.CompletedChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.progress[profileID]; !ok {
		return nil, store.ErrNotFound
	}
	return append([]progress.CompletedChallenge(nil), s.completed[profileID]...), nil
}

func (s *Store) Badges(_ context.Context, profileID uuid.UUID) ([]progress.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.progress[profileID]; !ok {
		return nil, store.ErrNotFound
	}
	return append([]progress.Badge(nil), s.badges[profileID]...), nil
}

func (s *Store) AwardBadges(_ context.Context, profileID uuid.UUID, names []string, earnedAt time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.progress[profileID]; !ok {
		return nil, store.ErrNotFound
	}
	have := make(map[string]bool)
	for _, b := range s.badges[profileID] {
		have[b.Name] = true
	}

	var inserted []string
	for _, name := range names {
		if have[name] {
			continue
		}
		have[name] = true
		s.badges[profileID] = append(s.badges[profileID], progress.Badge{ProfileID: profileID, Name: name, EarnedAt: earnedAt})
		inserted = append(inserted, name)
	}
	return inserted, nil
}

func (s *Store) RecordCompletion(_ context.Context, c progress.CompletedChallenge) (store.CompletionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.progress[c.ProfileID]
	if !ok {
		return store.CompletionResult{}, store.ErrNotFound
	}
	for _, done := range s.completed[c.ProfileID] {
		if done.ChallengeID == c.ChallengeID {
			return store.CompletionResult{AlreadyCompleted: true, Progress: cur}, nil
		}
	}

	s.completed[c.ProfileID] = append(s.completed[c.ProfileID], c)
	next := cur.Complete(c.CompletedAt)
	s.progress[c.ProfileID] = next
	return store.CompletionResult{Progress: next}, nil
}

func (s *Store) ResetProgress(_ context.Context, profileID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.progress[profileID]; !ok {
		return store.ErrNotFound
	}
	delete(s.completed, profileID)
	delete(s.badges, profileID)
	delete(s.current, profileID)
	s.progress[profileID] = progress.New(profileID)
	return nil
}

func (s *Store) SetCurrentChallenge(_ context.Context, cc progress.CurrentChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[cc.ProfileID]; !ok {
		return store.ErrNotFound
	}
	s.current[cc.ProfileID] = cc
	return nil
}

func (s *Store) CurrentChallenge(_ context.Context, profileID uuid.UUID) (progress.CurrentChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cc, ok := s.current[profileID]
	if !ok {
		return progress.CurrentChallenge{}, store.ErrNotFound
	}
	return cc, nil
}

func (s *Store) MarkViewed(_ context.Context, kind store.ContentKind, v progress.ViewedContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byProfile, ok := s.viewed[kind]
	if !ok {
		return fmt.Errorf("unknown content kind %q", kind)
	}
	if _, ok := s.profiles[v.ProfileID]; !ok {
		return store.ErrNotFound
	}
	for _, seen := range byProfile[v.ProfileID] {
		if seen.ContentID == v.ContentID {
			return nil
		}
	}
	byProfile[v.ProfileID] = append(byProfile[v.ProfileID], v)
	return nil
}

func (s *Store) Viewed(_ context.Context, kind store.ContentKind, profileID uuid.UUID) ([]progress.ViewedContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byProfile, ok := s.viewed[kind]
	if !ok {
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
	out := append([]progress.ViewedContent(nil), byProfile[profileID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ViewedAt.Before(out[j].ViewedAt) })
	return out, nil
}
