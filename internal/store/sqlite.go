package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/koukiniwa/ai-kouki-backend/internal/utils"
)

// SQLiteStore keeps posts in a single table. Paragraphs are stored as a
// JSON array next to the raw body.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := utils.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("creating sqlite dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL DEFAULT '',
			date       TEXT NOT NULL DEFAULT '',
			paragraphs TEXT NOT NULL DEFAULT '[]',
			body       TEXT NOT NULL DEFAULT ''
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// ListAll returns posts in insertion order.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, date, paragraphs, body FROM posts ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r     Record
			paras string
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.Date, &paras, &r.Body); err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		if paras != "" {
			if err := json.Unmarshal([]byte(paras), &r.Paragraphs); err != nil {
				return nil, fmt.Errorf("decoding paragraphs of %s: %w", r.ID, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Upsert inserts or replaces posts by id.
func (s *SQLiteStore) Upsert(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts (id, title, date, paragraphs, body)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			date = excluded.date,
			paragraphs = excluded.paragraphs,
			body = excluded.body
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("upserting post: empty id")
		}
		paras := r.Paragraphs
		if paras == nil {
			paras = []string{}
		}
		b, err := json.Marshal(paras)
		if err != nil {
			return fmt.Errorf("encoding paragraphs of %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Title, r.Date, string(b), r.Body); err != nil {
			return fmt.Errorf("upserting post %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}
