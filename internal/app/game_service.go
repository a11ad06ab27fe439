package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"globetrotter/internal/domain"
	"globetrotter/internal/quiz"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

// DestinationSource supplies reference data for rounds.
type DestinationSource interface {
	FetchDestinationPool(ctx context.Context) ([]domain.Destination, error)
	FetchCandidateLabels(ctx context.Context) ([]string, error)
}

// RoundRepository keeps rounds between issue and submission.
type RoundRepository interface {
	Save(ctx context.Context, round domain.Round) error
	Get(ctx context.Context, roundID string) (domain.Round, error)
	// MarkAnswered stores the answered round only if the stored copy is still
	// unanswered, otherwise it returns domain.ErrRoundAnswered. It must be
	// atomic across every instance sharing the store.
	MarkAnswered(ctx context.Context, round domain.Round) error
}

// ProfileRepository persists players and their scores.
type ProfileRepository interface {
	Get(ctx context.Context, username string) (domain.Profile, error)
	Create(ctx context.Context, profile domain.Profile) error
	// RecordOutcome atomically adds one correct or incorrect answer to the
	// player's score and returns the new score.
	RecordOutcome(ctx context.Context, username string, correct bool) (domain.Score, error)
	// Leaderboard returns up to limit entries ordered by correct answers, best first.
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	Reset(ctx context.Context) error
}

// Option customizes a GameService.
type Option func(*GameService)

func WithLogger(logger *zap.Logger) Option {
	return func(s *GameService) { s.logger = logger }
}

func WithDistractorCount(n int) Option {
	return func(s *GameService) {
		if n > 0 {
			s.distractors = n
		}
	}
}

func WithLeaderboardSize(n int) Option {
	return func(s *GameService) {
		if n > 0 {
			s.leaderboardSize = n
		}
	}
}

func WithResetDisabled() Option {
	return func(s *GameService) { s.resetDisabled = true }
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *GameService) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *GameService) { s.newID = newID }
}

// GameService contains the game use cases: profiles, rounds, scoring and the leaderboard.
type GameService struct {
	destinations DestinationSource
	rounds       RoundRepository
	profiles     ProfileRepository
	picker       *quiz.Picker
	feed         *leaderboardFeed

	logger          *zap.Logger
	distractors     int
	leaderboardSize int
	resetDisabled   bool
	now             func() time.Time
	newID           func() string
}

func NewGameService(destinations DestinationSource, rounds RoundRepository, profiles ProfileRepository, picker *quiz.Picker, opts ...Option) *GameService {
	s := &GameService{
		destinations:    destinations,
		rounds:          rounds,
		profiles:        profiles,
		picker:          picker,
		feed:            newLeaderboardFeed(),
		logger:          zap.NewNop(),
		distractors:     quiz.DefaultDistractorCount,
		leaderboardSize: defaultLeaderboardSize,
		now:             time.Now,
		newID:           func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register returns the existing profile for username, or creates one with a
// zero score. created reports which of the two happened.
func (s *GameService) Register(ctx context.Context, username string) (domain.Profile, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Profile{}, false, domain.ErrUsernameRequired
	}

	existing, err := s.profiles.Get(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return domain.Profile{}, false, fmt.Errorf("lookup profile: %w", err)
	}

	profile := domain.Profile{
		ID:        s.newID(),
		Username:  username,
		CreatedAt: s.now().UTC(),
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			// Lost a race with a concurrent registration of the same name.
			existing, getErr := s.profiles.Get(ctx, username)
			if getErr == nil {
				return existing, false, nil
			}
		}
		return domain.Profile{}, false, fmt.Errorf("create profile: %w", err)
	}
	s.logger.Info("profile created", zap.String("username", username))
	return profile, true, nil
}

// Profile looks up a player by username.
func (s *GameService) Profile(ctx context.Context, username string) (domain.Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Profile{}, domain.ErrUsernameRequired
	}
	return s.profiles.Get(ctx, username)
}

// NewRound issues a question for a registered player.
func (s *GameService) NewRound(ctx context.Context, username string) (domain.Round, error) {
	profile, err := s.Profile(ctx, username)
	if err != nil {
		return domain.Round{}, err
	}

	pool, err := s.destinations.FetchDestinationPool(ctx)
	if err != nil {
		s.logger.Error("fetch destination pool", zap.Error(err))
		return domain.Round{}, fmt.Errorf("%w: %v", domain.ErrDestinationsUnavailable, err)
	}
	destination, err := s.picker.PickDestination(pool)
	if err != nil {
		return domain.Round{}, err
	}

	round := domain.Round{
		ID:          s.newID(),
		Username:    profile.Username,
		Destination: destination,
		Clues:       s.picker.SelectClues(destination),
		Options:     s.picker.BuildOptions(destination.City, s.candidateLabels(ctx), s.distractors),
		Score:       profile.Score,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.rounds.Save(ctx, round); err != nil {
		return domain.Round{}, fmt.Errorf("save round: %w", err)
	}
	return round, nil
}

// candidateLabels falls back to the static city list when the source fails
// or has nothing to offer.
func (s *GameService) candidateLabels(ctx context.Context) []string {
	labels, err := s.destinations.FetchCandidateLabels(ctx)
	if err != nil {
		s.logger.Warn("fetch candidate labels, using fallback cities", zap.Error(err))
		return quiz.FallbackCities()
	}
	if len(labels) == 0 {
		s.logger.Warn("no candidate labels, using fallback cities")
		return quiz.FallbackCities()
	}
	return labels
}

// Submit judges the player's answer to a round and records the outcome. A
// round can be answered once. Failing to persist the score does not fail the
// round; the result reports it through Persisted.
func (s *GameService) Submit(ctx context.Context, roundID, username, selected string) (domain.RoundResult, error) {
	if selected == "" {
		return domain.RoundResult{}, domain.ErrSelectionRequired
	}
	username = strings.TrimSpace(username)

	round, err := s.rounds.Get(ctx, roundID)
	if err != nil {
		return domain.RoundResult{}, err
	}
	if round.Username != username {
		return domain.RoundResult{}, domain.ErrRoundOwner
	}
	if round.Answered {
		return domain.RoundResult{}, domain.ErrRoundAnswered
	}
	if !round.HasOption(selected) {
		return domain.RoundResult{}, domain.ErrOptionNotOffered
	}

	correct := quiz.Evaluate(selected, round.Destination.City)
	round.Selected = selected
	round.Answered = true
	round.Correct = correct
	round.Explanation = s.picker.PickExplanation(round.Destination, correct)
	if err := s.rounds.MarkAnswered(ctx, round); err != nil {
		if errors.Is(err, domain.ErrRoundAnswered) || errors.Is(err, domain.ErrRoundNotFound) {
			return domain.RoundResult{}, err
		}
		return domain.RoundResult{}, fmt.Errorf("save round: %w", err)
	}

	result := domain.RoundResult{
		RoundID:     round.ID,
		Correct:     correct,
		Selected:    selected,
		Answer:      round.Destination.City,
		Country:     round.Destination.Country,
		Explanation: round.Explanation,
	}

	score, err := s.profiles.RecordOutcome(ctx, username, correct)
	if err != nil {
		s.logger.Warn("persist score", zap.String("username", username), zap.Error(err))
		result.Score = quiz.ApplyOutcome(round.Score, correct)
		return result, nil
	}
	result.Score = score
	result.Persisted = true

	if correct {
		s.publishLeaderboard(ctx)
	}
	return result, nil
}

// Leaderboard returns the top players. A non-positive limit uses the configured size.
func (s *GameService) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	if limit <= 0 {
		limit = s.leaderboardSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}
	entries, err := s.profiles.Leaderboard(ctx, limit)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("load leaderboard: %w", err)
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: s.now().UTC()}, nil
}

// Subscribe returns a channel that receives leaderboard updates, starting
// with the current standings. The caller must invoke cancel to avoid leaks.
func (s *GameService) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	ch, cancel := s.feed.subscribe()
	initial, err := s.Leaderboard(ctx, 0)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	s.feed.prime(ch, initial)
	return ch, cancel, nil
}

// Reset deletes every profile and score.
func (s *GameService) Reset(ctx context.Context) error {
	if s.resetDisabled {
		return domain.ErrResetDisabled
	}
	if err := s.profiles.Reset(ctx); err != nil {
		return fmt.Errorf("reset profiles: %w", err)
	}
	s.logger.Info("all profiles reset")
	s.feed.publish(domain.Leaderboard{Entries: []domain.LeaderboardEntry{}, UpdatedAt: s.now().UTC()})
	return nil
}

func (s *GameService) publishLeaderboard(ctx context.Context) {
	lb, err := s.Leaderboard(ctx, 0)
	if err != nil {
		s.logger.Warn("refresh leaderboard", zap.Error(err))
		return
	}
	s.feed.publish(lb)
}
