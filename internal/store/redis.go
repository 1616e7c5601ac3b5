package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "kouki:posts"

// RedisOptions configures RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Key names the hash holding one JSON-encoded record per field.
	Key string
}

// RedisStore reads posts from a single hash: field = post id, value = JSON record.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, o RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     o.Addr,
		Password: o.Password,
		DB:       o.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	key := o.Key
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisStore{client: client, key: key}, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

// ListAll returns the records ordered by id, since hash iteration order is
// unspecified.
func (s *RedisStore) ListAll(ctx context.Context) ([]Record, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", s.key, err)
	}
	return decodeHash(fields)
}

// Upsert writes each record under its id.
func (s *RedisStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	values := make([]any, 0, len(records)*2)
	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("upserting post: empty id")
		}
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding post %s: %w", r.ID, err)
		}
		values = append(values, r.ID, string(b))
	}
	if err := s.client.HSet(ctx, s.key, values...).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", s.key, err)
	}
	return nil
}

func decodeHash(fields map[string]string) ([]Record, error) {
	ids := make([]string, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		var r Record
		if err := json.Unmarshal([]byte(fields[id]), &r); err != nil {
			return nil, fmt.Errorf("decoding post %s: %w", id, err)
		}
		if r.ID == "" {
			r.ID = id
		}
		out = append(out, r)
	}
	return out, nil
}
