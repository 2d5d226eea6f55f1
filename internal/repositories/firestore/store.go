package firestore

import (
	"context"
	"errors"
	"fmt"

	"fleetdesk/internal/repositories/interfaces"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Store struct {
	client *firestore.Client
}

func NewStore(client *firestore.Client) *Store {
	return &Store{client: client}
}

func (s *Store) ref(collection, id string) *firestore.DocumentRef {
	if id == "" {
		return s.client.Collection(collection).NewDoc()
	}
	return s.client.Collection(collection).Doc(id)
}

func (s *Store) Create(ctx context.Context, collection string, doc interfaces.Document) (string, error) {
	ref := s.ref(collection, doc.GetID())
	doc.SetID(ref.ID)

	if _, err := ref.Set(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (s *Store) Get(ctx context.Context, collection, id string, dest interfaces.Document) error {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return mapError(err, "failed to get document")
	}
	if err := snap.DataTo(dest); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	dest.SetID(snap.Ref.ID)
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, toUpdates(fields))
	if err != nil {
		return mapError(err, "failed to update document")
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		return mapError(err, "failed to delete document")
	}
	return nil
}

func (s *Store) List(ctx context.Context, collection string, query interfaces.Query) ([]interfaces.DocumentSnapshot, error) {
	docs, err := s.buildQuery(collection, query).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	return wrap(docs), nil
}

// Subscribe relays Firestore snapshot listener updates until ctx is done.
func (s *Store) Subscribe(ctx context.Context, collection string, query interfaces.Query) (<-chan interfaces.Snapshot, error) {
	out := make(chan interfaces.Snapshot, 1)
	it := s.buildQuery(collection, query).Snapshots(ctx)

	go func() {
		defer close(out)
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled || errors.Is(err, iterator.Done) {
					return
				}
				deliver(ctx, out, interfaces.Snapshot{Err: err})
				return
			}

			docs, err := qs.Documents.GetAll()
			if !deliver(ctx, out, interfaces.Snapshot{Documents: wrap(docs), Err: err}) {
				return
			}
		}
	}()

	return out, nil
}

func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx interfaces.Transaction) error) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, &transaction{store: s, tx: tx})
	})
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) buildQuery(collection string, query interfaces.Query) firestore.Query {
	q := s.client.Collection(collection).Query
	for _, f := range query.Filters {
		q = q.Where(f.Field, "==", f.Value)
	}
	if query.OrderBy != "" {
		dir := firestore.Asc
		if query.Descending {
			dir = firestore.Desc
		}
		q = q.OrderBy(query.OrderBy, dir)
	}
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}
	return q
}

type transaction struct {
	store *Store
	tx    *firestore.Transaction
}

func (t *transaction) Get(collection, id string, dest interfaces.Document) error {
	snap, err := t.tx.Get(t.store.client.Collection(collection).Doc(id))
	if err != nil {
		return mapError(err, "failed to get document")
	}
	if err := snap.DataTo(dest); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	dest.SetID(snap.Ref.ID)
	return nil
}

func (t *transaction) Create(collection string, doc interfaces.Document) (string, error) {
	ref := t.store.ref(collection, doc.GetID())
	doc.SetID(ref.ID)
	if err := t.tx.Set(ref, doc); err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (t *transaction) Update(collection, id string, fields map[string]interface{}) error {
	if err := t.tx.Update(t.store.client.Collection(collection).Doc(id), toUpdates(fields)); err != nil {
		return mapError(err, "failed to update document")
	}
	return nil
}

func (t *transaction) Delete(collection, id string) error {
	if err := t.tx.Delete(t.store.client.Collection(collection).Doc(id), firestore.Exists); err != nil {
		return mapError(err, "failed to delete document")
	}
	return nil
}

type snapshot struct {
	doc *firestore.DocumentSnapshot
}

func (s snapshot) ID() string { return s.doc.Ref.ID }

func (s snapshot) DataTo(dest interface{}) error { return s.doc.DataTo(dest) }

func wrap(docs []*firestore.DocumentSnapshot) []interfaces.DocumentSnapshot {
	out := make([]interfaces.DocumentSnapshot, 0, len(docs))
	for _, doc := range docs {
		out = append(out, snapshot{doc: doc})
	}
	return out
}

func toUpdates(fields map[string]interface{}) []firestore.Update {
	updates := make([]firestore.Update, 0, len(fields))
	for field, value := range fields {
		updates = append(updates, firestore.Update{Path: field, Value: value})
	}
	return updates
}

func mapError(err error, msg string) error {
	if status.Code(err) == codes.NotFound {
		return interfaces.ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func deliver(ctx context.Context, out chan<- interfaces.Snapshot, snap interfaces.Snapshot) bool {
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}
