package app

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"globetrotter/internal/domain"
)

// Invite is a shareable challenge built from a player's score.
type Invite struct {
	Link        string `json:"link"`
	Message     string `json:"message"`
	WhatsAppURL string `json:"whatsappUrl"`
	Username    string `json:"username"`
	Score       int    `json:"score"`
}

// Challenge builds an invite link for username rooted at base.
func (s *GameService) Challenge(ctx context.Context, username, base string) (Invite, error) {
	profile, err := s.Profile(ctx, username)
	if err != nil {
		return Invite{}, err
	}
	link, err := ChallengeLink(base, profile)
	if err != nil {
		return Invite{}, err
	}
	message := ShareMessage(link, profile)
	return Invite{
		Link:        link,
		Message:     message,
		WhatsAppURL: "https://wa.me/?text=" + url.QueryEscape(message),
		Username:    profile.Username,
		Score:       profile.Score.Correct,
	}, nil
}

// ChallengeLink appends the challenger's name and correct count to base.
func ChallengeLink(base string, profile domain.Profile) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse share base url: %w", err)
	}
	q := u.Query()
	q.Set("challenger", profile.Username)
	q.Set("score", strconv.Itoa(profile.Score.Correct))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func ShareMessage(link string, profile domain.Profile) string {
	return fmt.Sprintf("Challenge from %s! Can you beat my score of %d correct answers in The Globetrotter Challenge? Try it now: %s",
		profile.Username, profile.Score.Correct, link)
}

// ParseChallenge reads a challenge from link parameters. Both challenger and
// score must be present; a score that is not a number reads as 0.
func ParseChallenge(q url.Values) (domain.Challenge, bool) {
	name := strings.TrimSpace(q.Get("challenger"))
	rawScore := q.Get("score")
	if name == "" || rawScore == "" {
		return domain.Challenge{}, false
	}
	score, err := strconv.Atoi(rawScore)
	if err != nil || score < 0 {
		score = 0
	}
	return domain.Challenge{Challenger: name, Score: score}, true
}
