package quiz

import "globetrotter/internal/domain"

// Evaluate reports whether the selected label is the correct one. Labels are
// compared byte for byte; the dataset is expected to be normalized already.
func Evaluate(selected, correct string) bool {
	return selected == correct
}

// ApplyOutcome returns score with exactly one counter incremented.
func ApplyOutcome(score domain.Score, wasCorrect bool) domain.Score {
	if wasCorrect {
		score.Correct++
	} else {
		score.Incorrect++
	}
	return score
}
