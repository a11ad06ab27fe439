package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"globetrotter/internal/domain"
	"github.com/redis/go-redis/v9"
)

const leaderboardKey = "globetrotter:leaderboard"

// ProfileStore keeps one hash per profile and ranks players in a sorted set:
//
//	HSET globetrotter:profile:{username} id .. correct .. incorrect .. created_at ..
//	ZADD globetrotter:leaderboard {correct} {username}
type ProfileStore struct {
	client *redis.Client
}

func NewProfileStore(client *redis.Client) *ProfileStore {
	return &ProfileStore{client: client}
}

func (s *ProfileStore) Get(ctx context.Context, username string) (domain.Profile, error) {
	fields, err := s.client.HGetAll(ctx, s.key(username)).Result()
	if err != nil {
		return domain.Profile{}, err
	}
	if len(fields) == 0 {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	correct, _ := strconv.Atoi(fields["correct"])
	incorrect, _ := strconv.Atoi(fields["incorrect"])
	createdAt, _ := time.Parse(time.RFC3339Nano, fields["created_at"])
	return domain.Profile{
		ID:        fields["id"],
		Username:  username,
		Score:     domain.Score{Correct: correct, Incorrect: incorrect},
		CreatedAt: createdAt,
	}, nil
}

// createProfile claims the username and writes the whole profile in one step.
var createProfile = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'id', ARGV[1], 'correct', ARGV[2], 'incorrect', ARGV[3], 'created_at', ARGV[4])
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[5])
return 1
`)

// recordOutcome increments one counter and mirrors the correct count into the
// leaderboard. A missing profile returns nil.
var recordOutcome = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
local correct = redis.call('HINCRBY', KEYS[1], 'correct', ARGV[1])
local incorrect = redis.call('HINCRBY', KEYS[1], 'incorrect', ARGV[2])
redis.call('ZADD', KEYS[2], correct, ARGV[3])
return {correct, incorrect}
`)

func (s *ProfileStore) Create(ctx context.Context, profile domain.Profile) error {
	claimed, err := createProfile.Run(ctx, s.client,
		[]string{s.key(profile.Username), leaderboardKey},
		profile.ID,
		profile.Score.Correct,
		profile.Score.Incorrect,
		profile.CreatedAt.UTC().Format(time.RFC3339Nano),
		profile.Username,
	).Int()
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	if claimed == 0 {
		return domain.ErrUsernameTaken
	}
	return nil
}

func (s *ProfileStore) RecordOutcome(ctx context.Context, username string, correct bool) (domain.Score, error) {
	incCorrect, incIncorrect := 0, 1
	if correct {
		incCorrect, incIncorrect = 1, 0
	}
	counts, err := recordOutcome.Run(ctx, s.client,
		[]string{s.key(username), leaderboardKey},
		incCorrect, incIncorrect, username,
	).Int64Slice()
	if errors.Is(err, redis.Nil) {
		return domain.Score{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Score{}, fmt.Errorf("record outcome: %w", err)
	}
	if len(counts) != 2 {
		return domain.Score{}, fmt.Errorf("record outcome: unexpected reply %v", counts)
	}
	return domain.Score{Correct: int(counts[0]), Incorrect: int(counts[1])}, nil
}

func (s *ProfileStore) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ranked, err := s.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(ranked))
	for _, z := range ranked {
		name, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{Username: name, Score: int(z.Score)})
	}
	return entries, nil
}

// Reset deletes every profile hash and the leaderboard.
func (s *ProfileStore) Reset(ctx context.Context) error {
	members, err := s.client.ZRange(ctx, leaderboardKey, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, s.key(m))
	}
	keys = append(keys, leaderboardKey)
	return s.client.Del(ctx, keys...).Err()
}

func (s *ProfileStore) key(username string) string {
	return "globetrotter:profile:" + username
}
