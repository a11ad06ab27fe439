package domain

import "time"

// Destination is read-only reference data: a city, the clues that hint at it,
// and the explanations shown after an answer.
type Destination struct {
	ID       string   `json:"id" yaml:"id"`
	City     string   `json:"city" yaml:"city"`
	Country  string   `json:"country" yaml:"country"`
	Clues    []string `json:"clues" yaml:"clues"`
	FunFacts []string `json:"fun_facts" yaml:"fun_facts"`
	Trivia   []string `json:"trivia" yaml:"trivia"`
}

// Score is the running tally of a player's outcomes.
type Score struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

// Profile is a registered player.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Score     Score     `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

// LeaderboardEntry ranks a player by correct answers.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Leaderboard is an ordered snapshot of the top players.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Round is one question-answer cycle owned by a single player.
type Round struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	Destination Destination `json:"destination"`
	Clues       []string    `json:"clues"`
	Options     []string    `json:"options"`
	Selected    string      `json:"selected,omitempty"`
	Answered    bool        `json:"answered"`
	Correct     bool        `json:"correct"`
	Explanation string      `json:"explanation,omitempty"`
	Score       Score       `json:"score"` // player's score when the round was issued
	CreatedAt   time.Time   `json:"createdAt"`
}

// HasOption reports whether label was offered in this round.
func (r Round) HasOption(label string) bool {
	for _, opt := range r.Options {
		if opt == label {
			return true
		}
	}
	return false
}

// RoundResult summarizes a submitted answer.
type RoundResult struct {
	RoundID     string `json:"roundId"`
	Correct     bool   `json:"correct"`
	Selected    string `json:"selected"`
	Answer      string `json:"answer"`
	Country     string `json:"country"`
	Explanation string `json:"explanation"`
	Score       Score  `json:"score"`
	Persisted   bool   `json:"persisted"` // false when the score could not be saved
}

// Challenge is the invitation carried by a shared link.
type Challenge struct {
	Challenger string `json:"challenger"`
	Score      int    `json:"score"`
}
