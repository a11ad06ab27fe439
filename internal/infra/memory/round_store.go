package memory

import (
	"context"
	"sync"
	"time"

	"globetrotter/internal/domain"
)

// RoundStore is an in-memory implementation of app.RoundRepository. Rounds
// expire ttl after their last save.
type RoundStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu     sync.RWMutex
	rounds map[string]storedRound
}

type storedRound struct {
	round     domain.Round
	expiresAt time.Time
}

func NewRoundStore(ttl time.Duration) *RoundStore {
	return &RoundStore{
		ttl:    ttl,
		clock:  time.Now,
		rounds: make(map[string]storedRound),
	}
}

func (s *RoundStore) Save(_ context.Context, round domain.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	s.sweepLocked(now)
	s.rounds[round.ID] = storedRound{round: round, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *RoundStore) Get(_ context.Context, roundID string) (domain.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.rounds[roundID]
	if !ok || (s.ttl > 0 && !stored.expiresAt.After(s.clock())) {
		return domain.Round{}, domain.ErrRoundNotFound
	}
	return stored.round, nil
}

// MarkAnswered replaces a stored round only while it is still unanswered.
func (s *RoundStore) MarkAnswered(_ context.Context, round domain.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	stored, ok := s.rounds[round.ID]
	if !ok || (s.ttl > 0 && !stored.expiresAt.After(now)) {
		return domain.ErrRoundNotFound
	}
	if stored.round.Answered {
		return domain.ErrRoundAnswered
	}
	s.rounds[round.ID] = storedRound{round: round, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *RoundStore) sweepLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, stored := range s.rounds {
		if !stored.expiresAt.After(now) {
			delete(s.rounds, id)
		}
	}
}
