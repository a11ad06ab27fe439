package memory

import (
	"context"

	"globetrotter/internal/domain"
)

// StaticDestinationSource serves a fixed pool (useful for tests/demos).
type StaticDestinationSource struct {
	pool []domain.Destination
}

func NewStaticDestinationSource(pool []domain.Destination) *StaticDestinationSource {
	return &StaticDestinationSource{pool: pool}
}

func (s *StaticDestinationSource) FetchDestinationPool(_ context.Context) ([]domain.Destination, error) {
	return append([]domain.Destination(nil), s.pool...), nil
}

// FetchCandidateLabels derives the labels from the pool's cities.
func (s *StaticDestinationSource) FetchCandidateLabels(_ context.Context) ([]string, error) {
	labels := make([]string, 0, len(s.pool))
	for _, d := range s.pool {
		labels = append(labels, d.City)
	}
	return labels, nil
}
