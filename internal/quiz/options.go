package quiz

// fallbackCities backs the option builder when no candidate labels can be fetched.
var fallbackCities = []string{
	"Paris",
	"Tokyo",
	"New York",
	"Venice",
	"Sydney",
	"London",
	"Cairo",
	"Rome",
	"Rio de Janeiro",
	"Bangkok",
	"Dubai",
	"Berlin",
	"Moscow",
	"Amsterdam",
	"Singapore",
	"Hong Kong",
	"Madrid",
	"Seoul",
	"Toronto",
}

// FallbackCities returns a copy of the static candidate list.
func FallbackCities() []string {
	return append([]string(nil), fallbackCities...)
}

// BuildOptions returns the correct label plus up to distractorCount distinct
// distractors from pool, shuffled. Entries equal to correct and repeated
// entries are dropped before sampling, so the result never holds duplicates.
// A pool with too few distractors degrades to a shorter option list.
func (p *Picker) BuildOptions(correct string, pool []string, distractorCount int) []string {
	seen := map[string]struct{}{correct: {}}
	candidates := make([]string, 0, len(pool))
	for _, label := range pool {
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		candidates = append(candidates, label)
	}

	if distractorCount < 0 {
		distractorCount = 0
	}
	if distractorCount > len(candidates) {
		distractorCount = len(candidates)
	}

	// Partial Fisher-Yates: the first distractorCount slots become a uniform
	// sample without replacement.
	for i := 0; i < distractorCount; i++ {
		j := i + p.rnd.Intn(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}

	options := make([]string, 0, distractorCount+1)
	options = append(options, candidates[:distractorCount]...)
	options = append(options, correct)
	p.shuffle(options)
	return options
}
