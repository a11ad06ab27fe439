package postgres

import (
	"context"
	"errors"
	"fmt"

	"globetrotter/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ProfileStore persists profiles in the user_profiles table.
type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

func (s *ProfileStore) Get(ctx context.Context, username string) (domain.Profile, error) {
	var p domain.Profile
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, score, incorrect, created_at FROM user_profiles WHERE username=$1`,
		username,
	).Scan(&p.ID, &p.Username, &p.Score.Correct, &p.Score.Incorrect, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) Create(ctx context.Context, p domain.Profile) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO user_profiles (id, username, score, incorrect, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (username) DO NOTHING`,
		p.ID, p.Username, p.Score.Correct, p.Score.Incorrect, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUsernameTaken
	}
	return nil
}

// RecordOutcome increments in a single UPDATE so concurrent answers never
// overwrite each other.
func (s *ProfileStore) RecordOutcome(ctx context.Context, username string, correct bool) (domain.Score, error) {
	incCorrect, incIncorrect := 0, 1
	if correct {
		incCorrect, incIncorrect = 1, 0
	}
	var score domain.Score
	err := s.pool.QueryRow(ctx,
		`UPDATE user_profiles SET score = score + $2, incorrect = incorrect + $3
		 WHERE username=$1
		 RETURNING score, incorrect`,
		username, incCorrect, incIncorrect,
	).Scan(&score.Correct, &score.Incorrect)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Score{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Score{}, fmt.Errorf("record outcome: %w", err)
	}
	return score, nil
}

func (s *ProfileStore) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT username, score FROM user_profiles ORDER BY score DESC, created_at ASC, username ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []domain.LeaderboardEntry{}
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Score); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *ProfileStore) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM user_profiles`); err != nil {
		return fmt.Errorf("reset profiles: %w", err)
	}
	return nil
}
