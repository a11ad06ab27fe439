package app_test

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"globetrotter/internal/app"
	"globetrotter/internal/domain"
	"globetrotter/internal/infra/memory"
)

func TestChallengeLinkRoundTrip(t *testing.T) {
	profile := domain.Profile{Username: "Jean Luc", Score: domain.Score{Correct: 7, Incorrect: 2}}
	link, err := app.ChallengeLink("https://globetrotter.example/play", profile)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	challenge, ok := app.ParseChallenge(u.Query())
	if !ok {
		t.Fatalf("expected challenge in %s", link)
	}
	if challenge.Challenger != "Jean Luc" || challenge.Score != 7 {
		t.Fatalf("unexpected challenge %+v", challenge)
	}
	if !strings.HasPrefix(link, "https://globetrotter.example/play?") {
		t.Fatalf("unexpected link %s", link)
	}
}

func TestParseChallenge(t *testing.T) {
	if _, ok := app.ParseChallenge(url.Values{"challenger": {"alice"}}); ok {
		t.Fatalf("expected no challenge without score")
	}
	if _, ok := app.ParseChallenge(url.Values{"score": {"3"}}); ok {
		t.Fatalf("expected no challenge without challenger")
	}
	c, ok := app.ParseChallenge(url.Values{"challenger": {"alice"}, "score": {"lots"}})
	if !ok || c.Score != 0 {
		t.Fatalf("expected unparseable score to read as 0, got %+v ok=%v", c, ok)
	}
}

func TestServiceChallenge(t *testing.T) {
	ctx := context.Background()
	service, profiles := newTestService(memory.NewStaticDestinationSource(samplePool()))
	mustRegister(t, service, "alice")
	for _, correct := range []bool{true, true, false, true, true} {
		if _, err := profiles.RecordOutcome(ctx, "alice", correct); err != nil {
			t.Fatalf("record outcome: %v", err)
		}
	}

	invite, err := service.Challenge(ctx, "alice", "http://localhost:8080")
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	if invite.Score != 4 || !strings.Contains(invite.Link, "challenger=alice") || !strings.Contains(invite.Link, "score=4") {
		t.Fatalf("unexpected invite %+v", invite)
	}
	if !strings.Contains(invite.Message, "4 correct answers") || !strings.HasPrefix(invite.WhatsAppURL, "https://wa.me/?text=") {
		t.Fatalf("unexpected share text %+v", invite)
	}
}
