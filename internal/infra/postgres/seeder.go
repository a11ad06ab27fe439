package postgres

import (
	"context"
	"fmt"

	"globetrotter/internal/domain"
	"github.com/uptrace/bun"
)

type destinationModel struct {
	bun.BaseModel `bun:"table:destinations"`

	ID       string   `bun:"id,pk"`
	City     string   `bun:"city,notnull"`
	Country  string   `bun:"country,notnull"`
	Clues    []string `bun:"clues,array"`
	FunFacts []string `bun:"fun_facts,array"`
	Trivia   []string `bun:"trivia,array"`
}

// Seeder upserts reference destinations.
type Seeder struct {
	db *bun.DB
}

func NewSeeder(db *bun.DB) *Seeder {
	return &Seeder{db: db}
}

// Seed inserts destinations, replacing rows that share an id. It returns the
// number of rows written.
func (s *Seeder) Seed(ctx context.Context, destinations []domain.Destination) (int, error) {
	if len(destinations) == 0 {
		return 0, nil
	}
	models := make([]destinationModel, 0, len(destinations))
	for _, d := range destinations {
		models = append(models, destinationModel{
			ID:       d.ID,
			City:     d.City,
			Country:  d.Country,
			Clues:    nonNil(d.Clues),
			FunFacts: nonNil(d.FunFacts),
			Trivia:   nonNil(d.Trivia),
		})
	}
	res, err := s.db.NewInsert().
		Model(&models).
		On("CONFLICT (id) DO UPDATE").
		Set("city = EXCLUDED.city").
		Set("country = EXCLUDED.country").
		Set("clues = EXCLUDED.clues").
		Set("fun_facts = EXCLUDED.fun_facts").
		Set("trivia = EXCLUDED.trivia").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed destinations: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
