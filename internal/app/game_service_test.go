package app_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"globetrotter/internal/app"
	"globetrotter/internal/domain"
	"globetrotter/internal/infra/memory"
	"globetrotter/internal/quiz"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(memory.NewStaticDestinationSource(samplePool()))

	profile, created, err := service.Register(ctx, "  alice ")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !created || profile.Username != "alice" || profile.ID == "" {
		t.Fatalf("expected new profile for alice, got %+v created=%v", profile, created)
	}
	if profile.Score != (domain.Score{}) {
		t.Fatalf("expected zero score, got %+v", profile.Score)
	}

	again, created, err := service.Register(ctx, "alice")
	if err != nil {
		t.Fatalf("register again: %v", err)
	}
	if created || again.ID != profile.ID {
		t.Fatalf("expected existing profile, got %+v created=%v", again, created)
	}

	if _, _, err := service.Register(ctx, "   "); !errors.Is(err, domain.ErrUsernameRequired) {
		t.Fatalf("expected username required, got %v", err)
	}
}

func TestNewRoundRequiresProfile(t *testing.T) {
	service, _ := newTestService(memory.NewStaticDestinationSource(samplePool()))
	if _, err := service.NewRound(context.Background(), "ghost"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected profile not found, got %v", err)
	}
}

func TestRoundShape(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(memory.NewStaticDestinationSource(samplePool()))
	mustRegister(t, service, "alice")

	round, err := service.NewRound(ctx, "alice")
	if err != nil {
		t.Fatalf("new round: %v", err)
	}
	if round.ID == "" || round.Username != "alice" || round.Answered {
		t.Fatalf("unexpected round %+v", round)
	}
	if len(round.Clues) < 1 || len(round.Clues) > 2 {
		t.Fatalf("expected 1 or 2 clues, got %v", round.Clues)
	}
	if len(round.Options) != 4 || !round.HasOption(round.Destination.City) {
		t.Fatalf("expected 4 options with the answer, got %v", round.Options)
	}
}

func TestSubmitCorrectAnswer(t *testing.T) {
	ctx := context.Background()
	service, profiles := newTestService(memory.NewStaticDestinationSource(samplePool()))
	mustRegister(t, service, "alice")

	round, err := service.NewRound(ctx, "alice")
	if err != nil {
		t.Fatalf("new round: %v", err)
	}
	result, err := service.Submit(ctx, round.ID, "alice", round.Destination.City)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Correct || !result.Persisted {
		t.Fatalf("expected persisted correct result, got %+v", result)
	}
	if result.Score != (domain.Score{Correct: 1}) {
		t.Fatalf("expected {1 0}, got %+v", result.Score)
	}
	if result.Explanation != round.Destination.FunFacts[0] {
		t.Fatalf("expected fun fact, got %q", result.Explanation)
	}
	stored, _ := profiles.Get(ctx, "alice")
	if stored.Score != result.Score {
		t.Fatalf("expected stored score %+v, got %+v", result.Score, stored.Score)
	}

	if _, err := service.Submit(ctx, round.ID, "alice", round.Destination.City); !errors.Is(err, domain.ErrRoundAnswered) {
		t.Fatalf("expected round answered, got %v", err)
	}
}

func TestSubmitWrongAnswer(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(memory.NewStaticDestinationSource(samplePool()))
	mustRegister(t, service, "alice")

	round, _ := service.NewRound(ctx, "alice")
	wrong := firstWrongOption(t, round)
	result, err := service.Submit(ctx, round.ID, "alice", wrong)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Correct || result.Answer != round.Destination.City {
		t.Fatalf("expected incorrect result revealing the answer, got %+v", result)
	}
	if result.Score != (domain.Score{Incorrect: 1}) {
		t.Fatalf("expected {0 1}, got %+v", result.Score)
	}
	if result.Explanation != round.Destination.Trivia[0] {
		t.Fatalf("expected trivia, got %q", result.Explanation)
	}
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(memory.NewStaticDestinationSource(samplePool()))
	mustRegister(t, service, "alice")
	mustRegister(t, service, "bob")
	round, _ := service.NewRound(ctx, "alice")

	cases := []struct {
		name     string
		roundID  string
		username string
		selected string
		want     error
	}{
		{"empty selection", round.ID, "alice", "", domain.ErrSelectionRequired},
		{"unknown round", "nope", "alice", "Paris", domain.ErrRoundNotFound},
		{"other player", round.ID, "bob", round.Destination.City, domain.ErrRoundOwner},
		{"not offered", round.ID, "alice", "Atlantis", domain.ErrOptionNotOffered},
	}
	for _, tc := range cases {
		if _, err := service.Submit(ctx, tc.roundID, tc.username, tc.selected); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	// The round is still open after rejected submissions.
	if _, err := service.Submit(ctx, round.ID, "alice", round.Destination.City); err != nil {
		t.Fatalf("expected open round, got %v", err)
	}
}

func TestNewRoundFallsBackToStaticCities(t *testing.T) {
	ctx := context.Background()
	source := &flakySource{pool: samplePool(), labelsErr: errors.New("labels down")}
	service, _ := newTestService(source)
	mustRegister(t, service, "alice")

	round, err := service.NewRound(ctx, "alice")
	if err != nil {
		t.Fatalf("new round: %v", err)
	}
	if len(round.Options) != 4 {
		t.Fatalf("expected 4 options from the fallback list, got %v", round.Options)
	}
	fallback := map[string]bool{}
	for _, c := range quiz.FallbackCities() {
		fallback[c] = true
	}
	for _, opt := range round.Options {
		if opt != round.Destination.City && !fallback[opt] {
			t.Fatalf("distractor %q not from fallback list", opt)
		}
	}

	source.labelsErr = nil
	source.labels = []string{}
	round, err = service.NewRound(ctx, "alice")
	if err != nil || len(round.Options) != 4 {
		t.Fatalf("expected fallback for empty labels, got %v (%v)", round.Options, err)
	}
}

func TestNewRoundPoolFailures(t *testing.T) {
	ctx := context.Background()
	source := &flakySource{poolErr: errors.New("db down")}
	service, _ := newTestService(source)
	mustRegister(t, service, "alice")

	if _, err := service.NewRound(ctx, "alice"); !errors.Is(err, domain.ErrDestinationsUnavailable) {
		t.Fatalf("expected destinations unavailable, got %v", err)
	}
	source.poolErr = nil
	if _, err := service.NewRound(ctx, "alice"); !errors.Is(err, domain.ErrEmptyPool) {
		t.Fatalf("expected empty pool, got %v", err)
	}
}

func TestSubmitSurvivesScorePersistenceFailure(t *testing.T) {
	ctx := context.Background()
	profiles := &failingProfiles{ProfileStore: memory.NewProfileStore()}
	service := app.NewGameService(
		memory.NewStaticDestinationSource(samplePool()),
		memory.NewRoundStore(time.Minute),
		profiles,
		quiz.NewPicker(rand.New(rand.NewSource(1))),
	)
	mustRegister(t, service, "alice")
	round, _ := service.NewRound(ctx, "alice")

	profiles.updateErr = errors.New("write failed")
	result, err := service.Submit(ctx, round.ID, "alice", round.Destination.City)
	if err != nil {
		t.Fatalf("submit should not fail: %v", err)
	}
	if result.Persisted || !result.Correct || result.Score.Correct != 1 {
		t.Fatalf("expected unpersisted correct result, got %+v", result)
	}
}

func TestSubmitConcurrentAnswersCountOnce(t *testing.T) {
	ctx := context.Background()
	profiles := memory.NewProfileStore()
	service := app.NewGameService(
		memory.NewStaticDestinationSource(samplePool()),
		memory.NewRoundStore(time.Minute),
		profiles,
		quiz.NewPicker(quiz.NewLockedSource()),
	)
	mustRegister(t, service, "alice")
	round, err := service.NewRound(ctx, "alice")
	if err != nil {
		t.Fatalf("new round: %v", err)
	}

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.Submit(ctx, round.ID, "alice", round.Destination.City)
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case !errors.Is(err, domain.ErrRoundAnswered):
			t.Fatalf("unexpected error %v", err)
		}
	}
	if accepted != 1 {
		t.Fatalf("expected exactly one accepted answer, got %d", accepted)
	}
	stored, _ := profiles.Get(ctx, "alice")
	if stored.Score != (domain.Score{Correct: 1}) {
		t.Fatalf("expected a single increment, got %+v", stored.Score)
	}
}

func TestLeaderboardAndSubscribe(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(memory.NewStaticDestinationSource(samplePool()))
	mustRegister(t, service, "alice")
	mustRegister(t, service, "bob")

	updates, cancel, err := service.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	initial := <-updates
	if len(initial.Entries) != 2 {
		t.Fatalf("expected initial snapshot with 2 players, got %+v", initial.Entries)
	}

	round, _ := service.NewRound(ctx, "bob")
	if _, err := service.Submit(ctx, round.ID, "bob", round.Destination.City); err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case update := <-updates:
		if update.Entries[0].Username != "bob" || update.Entries[0].Score != 1 || update.Entries[0].Rank != 1 {
			t.Fatalf("expected bob leading, got %+v", update.Entries)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected leaderboard update")
	}

	lb, err := service.Leaderboard(ctx, 1)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].Username != "bob" {
		t.Fatalf("expected bob alone, got %+v", lb.Entries)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(memory.NewStaticDestinationSource(samplePool()))
	mustRegister(t, service, "alice")

	if err := service.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := service.Profile(ctx, "alice"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected profile gone, got %v", err)
	}

	locked := app.NewGameService(
		memory.NewStaticDestinationSource(samplePool()),
		memory.NewRoundStore(time.Minute),
		memory.NewProfileStore(),
		quiz.NewPicker(rand.New(rand.NewSource(1))),
		app.WithResetDisabled(),
	)
	if err := locked.Reset(ctx); !errors.Is(err, domain.ErrResetDisabled) {
		t.Fatalf("expected reset disabled, got %v", err)
	}
}

func newTestService(source app.DestinationSource) (*app.GameService, *memory.ProfileStore) {
	profiles := memory.NewProfileStore()
	ids := 0
	service := app.NewGameService(
		source,
		memory.NewRoundStore(time.Minute),
		profiles,
		quiz.NewPicker(rand.New(rand.NewSource(1))),
		app.WithIDGenerator(func() string {
			ids++
			return "id-" + string(rune('a'+ids))
		}),
	)
	return service, profiles
}

func mustRegister(t *testing.T, service *app.GameService, username string) {
	t.Helper()
	if _, _, err := service.Register(context.Background(), username); err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
}

func firstWrongOption(t *testing.T, round domain.Round) string {
	t.Helper()
	for _, opt := range round.Options {
		if opt != round.Destination.City {
			return opt
		}
	}
	t.Fatalf("round has no distractors: %v", round.Options)
	return ""
}

type flakySource struct {
	pool      []domain.Destination
	poolErr   error
	labels    []string
	labelsErr error
}

func (s *flakySource) FetchDestinationPool(context.Context) ([]domain.Destination, error) {
	return s.pool, s.poolErr
}

func (s *flakySource) FetchCandidateLabels(context.Context) ([]string, error) {
	return s.labels, s.labelsErr
}

type failingProfiles struct {
	*memory.ProfileStore
	updateErr error
}

func (p *failingProfiles) RecordOutcome(ctx context.Context, username string, correct bool) (domain.Score, error) {
	if p.updateErr != nil {
		return domain.Score{}, p.updateErr
	}
	return p.ProfileStore.RecordOutcome(ctx, username, correct)
}

func samplePool() []domain.Destination {
	return []domain.Destination{
		{ID: "paris", City: "Paris", Country: "France", Clues: []string{"Clue A", "Clue B"}, FunFacts: []string{"F1"}, Trivia: []string{"T1"}},
		{ID: "tokyo", City: "Tokyo", Country: "Japan", Clues: []string{"Crossing"}, FunFacts: []string{"F2"}, Trivia: []string{"T2"}},
		{ID: "rome", City: "Rome", Country: "Italy", Clues: []string{"Colosseum"}, FunFacts: []string{"F3"}, Trivia: []string{"T3"}},
		{ID: "cairo", City: "Cairo", Country: "Egypt", Clues: []string{"Pyramids"}, FunFacts: []string{"F4"}, Trivia: []string{"T4"}},
		{ID: "lima", City: "Lima", Country: "Peru", Clues: []string{"Ceviche"}, FunFacts: []string{"F5"}, Trivia: []string{"T5"}},
	}
}
