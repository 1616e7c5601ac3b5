// Package store fetches raw blog post records from the configured backend.
// The retrieval cache only needs ListAll; Upsert exists for the backends
// that the CLI can seed.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Record is a post as persisted by a backend. Body text is either an ordered
// list of paragraphs or a single raw body string.
type Record struct {
	ID         string   `json:"id" yaml:"id" firestore:"id,omitempty"`
	Title      string   `json:"title" yaml:"title" firestore:"title"`
	Date       string   `json:"date" yaml:"date" firestore:"date"`
	Paragraphs []string `json:"paragraphs,omitempty" yaml:"paragraphs,omitempty" firestore:"paragraphs,omitempty"`
	Body       string   `json:"body,omitempty" yaml:"body,omitempty" firestore:"body,omitempty"`
}

// Store lists every record of the corpus.
type Store interface {
	ListAll(ctx context.Context) ([]Record, error)
	Close() error
}

// Writer is implemented by backends that accept new records.
type Writer interface {
	Upsert(ctx context.Context, records []Record) error
}

// Backend identifiers accepted by Open.
const (
	BackendFile      = "file"
	BackendSQLite    = "sqlite"
	BackendRedis     = "redis"
	BackendFirestore = "firestore"
)

// ErrNotConfigured is returned when a backend is selected without the
// settings it needs.
var ErrNotConfigured = errors.New("store not configured")

// Options selects and configures a backend.
type Options struct {
	Backend string

	PostsDir string

	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	FirestoreProject    string
	FirestoreCollection string
}

// Open constructs the backend named by o.Backend.
func Open(ctx context.Context, o Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(o.Backend)) {
	case BackendFile, "":
		if o.PostsDir == "" {
			return nil, fmt.Errorf("%w: posts_dir is empty", ErrNotConfigured)
		}
		return NewFileStore(o.PostsDir), nil
	case BackendSQLite:
		if o.SQLitePath == "" {
			return nil, fmt.Errorf("%w: sqlite_path is empty", ErrNotConfigured)
		}
		return OpenSQLite(o.SQLitePath)
	case BackendRedis:
		if o.RedisAddr == "" {
			return nil, fmt.Errorf("%w: redis_addr is empty", ErrNotConfigured)
		}
		return NewRedisStore(ctx, RedisOptions{
			Addr:     o.RedisAddr,
			Password: o.RedisPassword,
			DB:       o.RedisDB,
			Key:      o.RedisKey,
		})
	case BackendFirestore:
		return NewFirestoreStore(ctx, o.FirestoreProject, o.FirestoreCollection)
	default:
		return nil, fmt.Errorf("unknown store backend: %s (use file, sqlite, redis or firestore)", o.Backend)
	}
}
