package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
)

const defaultFirestoreCollection = "posts"

// FirestoreStore reads every document of one collection. Credentials come
// from the environment (GOOGLE_APPLICATION_CREDENTIALS or metadata server).
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore creates the client once; callers inject it into the cache.
func NewFirestoreStore(ctx context.Context, projectID, collection string) (*FirestoreStore, error) {
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	if collection == "" {
		collection = defaultFirestoreCollection
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &FirestoreStore{client: client, collection: collection}, nil
}

func (s *FirestoreStore) Close() error { return s.client.Close() }

// ListAll fetches the whole collection. Document ids fill in records that do
// not carry an explicit id field.
func (s *FirestoreStore) ListAll(ctx context.Context) ([]Record, error) {
	snaps, err := s.client.Collection(s.collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore list %s: %w", s.collection, err)
	}
	out := make([]Record, 0, len(snaps))
	for _, snap := range snaps {
		var r Record
		if err := snap.DataTo(&r); err != nil {
			return nil, fmt.Errorf("decoding %s/%s: %w", s.collection, snap.Ref.ID, err)
		}
		if r.ID == "" {
			r.ID = snap.Ref.ID
		}
		out = append(out, r)
	}
	return out, nil
}

// Upsert writes each record as a document keyed by its id.
func (s *FirestoreStore) Upsert(ctx context.Context, records []Record) error {
	col := s.client.Collection(s.collection)
	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("upserting post: empty id")
		}
		if _, err := col.Doc(r.ID).Set(ctx, r); err != nil {
			return fmt.Errorf("firestore set %s: %w", r.ID, err)
		}
	}
	return nil
}
