// Package quiz holds the randomized question logic: picking a destination,
// choosing which clues to show, building the option set and judging answers.
// Nothing here performs I/O; randomness comes from an injected Source.
package quiz

import (
	"math/rand"
	"sync"
	"time"

	"globetrotter/internal/domain"
)

// DefaultDistractorCount is the number of wrong options offered with the answer.
const DefaultDistractorCount = 3

// Source yields uniform integers in [0, n). *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// Picker makes the random choices of a quiz round.
type Picker struct {
	rnd Source
}

func NewPicker(rnd Source) *Picker {
	return &Picker{rnd: rnd}
}

// NewLockedSource returns a time-seeded Source that is safe for concurrent use.
func NewLockedSource() Source {
	return &lockedSource{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

// PickDestination selects one destination uniformly at random.
func (p *Picker) PickDestination(pool []domain.Destination) (domain.Destination, error) {
	if len(pool) == 0 {
		return domain.Destination{}, domain.ErrEmptyPool
	}
	return pool[p.rnd.Intn(len(pool))], nil
}

// SelectClues returns one or two of the destination's clues, chosen by a fair
// coin, in random order. The destination's own slice is left untouched.
func (p *Picker) SelectClues(d domain.Destination) []string {
	count := 1 + p.rnd.Intn(2)
	clues := append([]string(nil), d.Clues...)
	p.shuffle(clues)
	if count > len(clues) {
		count = len(clues)
	}
	return clues[:count]
}

// PickExplanation draws a fun fact after a correct answer and a piece of
// trivia otherwise. An empty set yields "".
func (p *Picker) PickExplanation(d domain.Destination, wasCorrect bool) string {
	set := d.Trivia
	if wasCorrect {
		set = d.FunFacts
	}
	if len(set) == 0 {
		return ""
	}
	return set[p.rnd.Intn(len(set))]
}

// shuffle is an in-place Fisher-Yates permutation.
func (p *Picker) shuffle(items []string) {
	for i := len(items) - 1; i > 0; i-- {
		j := p.rnd.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
