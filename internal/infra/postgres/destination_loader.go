package postgres

import (
	"context"
	"fmt"

	"globetrotter/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// DestinationLoader reads reference destinations from Postgres.
type DestinationLoader struct {
	pool *pgxpool.Pool
}

func NewDestinationLoader(pool *pgxpool.Pool) *DestinationLoader {
	return &DestinationLoader{pool: pool}
}

func (l *DestinationLoader) FetchDestinationPool(ctx context.Context) ([]domain.Destination, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, city, country, clues, fun_facts, trivia FROM destinations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load destinations: %w", err)
	}
	defer rows.Close()

	var pool []domain.Destination
	for rows.Next() {
		var d domain.Destination
		if err := rows.Scan(&d.ID, &d.City, &d.Country, &d.Clues, &d.FunFacts, &d.Trivia); err != nil {
			return nil, fmt.Errorf("scan destination: %w", err)
		}
		pool = append(pool, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load destinations: %w", err)
	}
	return pool, nil
}

func (l *DestinationLoader) FetchCandidateLabels(ctx context.Context) ([]string, error) {
	rows, err := l.pool.Query(ctx, `SELECT DISTINCT city FROM destinations ORDER BY city`)
	if err != nil {
		return nil, fmt.Errorf("load cities: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		labels = append(labels, city)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load cities: %w", err)
	}
	return labels, nil
}
