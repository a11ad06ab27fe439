package memory

import (
	"context"
	"sort"
	"sync"

	"globetrotter/internal/domain"
	"globetrotter/internal/quiz"
)

// ProfileStore is an in-memory implementation of app.ProfileRepository.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[string]domain.Profile)}
}

func (s *ProfileStore) Get(_ context.Context, username string) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[username]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return profile, nil
}

func (s *ProfileStore) Create(_ context.Context, profile domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.Username]; ok {
		return domain.ErrUsernameTaken
	}
	s.profiles[profile.Username] = profile
	return nil
}

func (s *ProfileStore) RecordOutcome(_ context.Context, username string, correct bool) (domain.Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[username]
	if !ok {
		return domain.Score{}, domain.ErrProfileNotFound
	}
	profile.Score = quiz.ApplyOutcome(profile.Score, correct)
	s.profiles[username] = profile
	return profile.Score, nil
}

// Leaderboard orders by correct answers, then earliest registration, then name.
func (s *ProfileStore) Leaderboard(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	profiles := make([]domain.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profiles = append(profiles, p)
	}
	s.mu.RUnlock()

	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].Score.Correct != profiles[j].Score.Correct {
			return profiles[i].Score.Correct > profiles[j].Score.Correct
		}
		if !profiles[i].CreatedAt.Equal(profiles[j].CreatedAt) {
			return profiles[i].CreatedAt.Before(profiles[j].CreatedAt)
		}
		return profiles[i].Username < profiles[j].Username
	})
	if limit > 0 && len(profiles) > limit {
		profiles = profiles[:limit]
	}

	entries := make([]domain.LeaderboardEntry, 0, len(profiles))
	for _, p := range profiles {
		entries = append(entries, domain.LeaderboardEntry{Username: p.Username, Score: p.Score.Correct})
	}
	return entries, nil
}

func (s *ProfileStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = make(map[string]domain.Profile)
	return nil
}
