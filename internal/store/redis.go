package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis"
	"github.com/vmihailenco/msgpack"

	"wordpoll/internal/domain"
)

// RedisStore keeps each question's words in a Redis list and the config as
// a msgpack blob.
type RedisStore struct {
	client *redis.Client
	pollID string
}

// OpenRedis connects to Redis
func OpenRedis(addr, password string, db int, pollID string) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis address required for redis store")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisStore(client, pollID), nil
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client, pollID string) *RedisStore {
	return &RedisStore{client: client, pollID: pollID}
}

func (r *RedisStore) configKey() string {
	return fmt.Sprintf("wordpoll:%s:config", r.pollID)
}

func (r *RedisStore) wordsKey(question int) string {
	return fmt.Sprintf("wordpoll:%s:words:%d", r.pollID, question)
}

// Load implements Store
func (r *RedisStore) Load(ctx context.Context, n int) (Snapshot, error) {
	snap := NewSnapshot(n)

	data, err := r.client.WithContext(ctx).Get(r.configKey()).Bytes()
	switch {
	case err == redis.Nil:
		// Nothing stored yet
	case err != nil:
		return Snapshot{}, fmt.Errorf("failed to load poll config: %w", err)
	default:
		var cfg domain.PollConfig
		if err := msgpack.Unmarshal(data, &cfg); err != nil {
			return Snapshot{}, fmt.Errorf("failed to decode poll config: %w", err)
		}
		snap.Config = cfg
	}

	for q := 0; q < n; q++ {
		words, err := r.client.WithContext(ctx).LRange(r.wordsKey(q), 0, -1).Result()
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to load words for question %d: %w", q, err)
		}
		snap.Words[q] = words
	}

	return sanitize(snap, n), nil
}

// SaveConfig implements Store
func (r *RedisStore) SaveConfig(ctx context.Context, cfg domain.PollConfig) error {
	data, err := msgpack.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to encode poll config: %w", err)
	}
	if err := r.client.WithContext(ctx).Set(r.configKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save poll config: %w", err)
	}
	return nil
}

// AppendWords implements Store. RPUSH is atomic, so the list order matches
// the order appends were serialized in.
func (r *RedisStore) AppendWords(ctx context.Context, question, offset int, words []string) error {
	if len(words) == 0 {
		return nil
	}

	values := make([]interface{}, len(words))
	for i, w := range words {
		values[i] = w
	}
	if err := r.client.WithContext(ctx).RPush(r.wordsKey(question), values...).Err(); err != nil {
		return fmt.Errorf("failed to append words: %w", err)
	}
	return nil
}

// Reset implements Store
func (r *RedisStore) Reset(ctx context.Context, n int) error {
	initial := domain.NewPollConfig(n)
	data, err := msgpack.Marshal(&initial)
	if err != nil {
		return fmt.Errorf("failed to encode poll config: %w", err)
	}

	keys := make([]string, n)
	for q := range keys {
		keys[q] = r.wordsKey(q)
	}

	_, err = r.client.WithContext(ctx).TxPipelined(func(pipe redis.Pipeliner) error {
		pipe.Del(keys...)
		pipe.Set(r.configKey(), data, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset poll: %w", err)
	}
	return nil
}

// Close implements Store
func (r *RedisStore) Close() error {
	return r.client.Close()
}
