package http

import "globetrotter/internal/domain"

// questionView is what a player sees before answering; the answer stays on the server.
type questionView struct {
	RoundID string   `json:"roundId"`
	Clues   []string `json:"clues"`
	Options []string `json:"options"`
}

func newQuestionView(round domain.Round) questionView {
	return questionView{RoundID: round.ID, Clues: round.Clues, Options: round.Options}
}

type profileView struct {
	domain.Profile
	Created bool `json:"created"`
}
