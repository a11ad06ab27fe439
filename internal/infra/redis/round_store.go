package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"globetrotter/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RoundStore keeps rounds as JSON values that expire ttl after the last save,
// so any instance can accept the answer to a round another instance issued.
type RoundStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoundStore(client *redis.Client, ttl time.Duration) *RoundStore {
	return &RoundStore{client: client, ttl: ttl}
}

func (s *RoundStore) Save(ctx context.Context, round domain.Round) error {
	raw, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("encode round: %w", err)
	}
	return s.client.Set(ctx, s.key(round.ID), raw, s.ttl).Err()
}

func (s *RoundStore) Get(ctx context.Context, roundID string) (domain.Round, error) {
	raw, err := s.client.Get(ctx, s.key(roundID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Round{}, domain.ErrRoundNotFound
	}
	if err != nil {
		return domain.Round{}, err
	}
	var round domain.Round
	if err := json.Unmarshal(raw, &round); err != nil {
		return domain.Round{}, fmt.Errorf("decode round: %w", err)
	}
	return round, nil
}

// MarkAnswered writes the answered round under WATCH so that, across every
// instance, only the first submission for a round commits.
func (s *RoundStore) MarkAnswered(ctx context.Context, round domain.Round) error {
	raw, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("encode round: %w", err)
	}
	key := s.key(round.ID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrRoundNotFound
		}
		if err != nil {
			return err
		}
		var stored domain.Round
		if err := json.Unmarshal(current, &stored); err != nil {
			return fmt.Errorf("decode round: %w", err)
		}
		if stored.Answered {
			return domain.ErrRoundAnswered
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, s.ttl)
			return nil
		})
		return err
	}, key)
	// A round is only rewritten when it is answered, so a lost race means
	// another submission won.
	if errors.Is(err, redis.TxFailedErr) {
		return domain.ErrRoundAnswered
	}
	return err
}

func (s *RoundStore) key(roundID string) string {
	return "globetrotter:round:" + roundID
}
