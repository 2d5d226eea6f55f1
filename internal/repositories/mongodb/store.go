package mongodb

import (
	"context"
	"errors"
	"fmt"

	"fleetdesk/internal/repositories/interfaces"
	"fleetdesk/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store keeps one document per id in a collection of the same name. Change
// streams and transactions require a replica set.
type Store struct {
	db *database.MongoDB
}

func NewStore(db *database.MongoDB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, collection string, doc interfaces.Document) (string, error) {
	id := prepareID(doc)
	if err := replace(ctx, s.db.Collection(collection), id, doc); err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", collection, err)
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, collection, id string, dest interfaces.Document) error {
	return findOne(ctx, s.db.Collection(collection), id, dest)
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	return updateOne(ctx, s.db.Collection(collection), id, fields)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return deleteOne(ctx, s.db.Collection(collection), id)
}

func (s *Store) List(ctx context.Context, collection string, query interfaces.Query) ([]interfaces.DocumentSnapshot, error) {
	filter := bson.D{}
	for _, f := range query.Filters {
		filter = append(filter, bson.E{Key: fieldName(f.Field), Value: f.Value})
	}

	opts := options.Find()
	if query.OrderBy != "" {
		dir := 1
		if query.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: fieldName(query.OrderBy), Value: dir}})
	}
	if query.Limit > 0 {
		opts.SetLimit(int64(query.Limit))
	}

	cursor, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var snaps []interfaces.DocumentSnapshot
	for cursor.Next(ctx) {
		raw := make(bson.Raw, len(cursor.Current))
		copy(raw, cursor.Current)
		snaps = append(snaps, snapshot{raw: raw})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", collection, err)
	}
	return snaps, nil
}

// Subscribe sends the query result, then watches the collection's change
// stream and re-runs the query after every change.
func (s *Store) Subscribe(ctx context.Context, collection string, query interfaces.Query) (<-chan interfaces.Snapshot, error) {
	stream, err := s.db.Collection(collection).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", collection, err)
	}

	out := make(chan interfaces.Snapshot, 1)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		send := func() bool {
			docs, err := s.List(ctx, collection, query)
			return deliver(ctx, out, interfaces.Snapshot{Documents: docs, Err: err})
		}

		if !send() {
			return
		}
		for stream.Next(ctx) {
			if !send() {
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			deliver(ctx, out, interfaces.Snapshot{Err: err})
		}
	}()

	return out, nil
}

func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx interfaces.Transaction) error) error {
	_, err := s.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx, &transaction{store: s, ctx: sessCtx})
	})
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

type transaction struct {
	store *Store
	ctx   mongo.SessionContext
}

func (t *transaction) Get(collection, id string, dest interfaces.Document) error {
	return findOne(t.ctx, t.store.db.Collection(collection), id, dest)
}

func (t *transaction) Create(collection string, doc interfaces.Document) (string, error) {
	id := prepareID(doc)
	if err := replace(t.ctx, t.store.db.Collection(collection), id, doc); err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", collection, err)
	}
	return id, nil
}

func (t *transaction) Update(collection, id string, fields map[string]interface{}) error {
	return updateOne(t.ctx, t.store.db.Collection(collection), id, fields)
}

func (t *transaction) Delete(collection, id string) error {
	return deleteOne(t.ctx, t.store.db.Collection(collection), id)
}

type snapshot struct {
	raw bson.Raw
}

func (s snapshot) ID() string {
	id, _ := s.raw.Lookup("_id").StringValueOK()
	return id
}

func (s snapshot) DataTo(dest interface{}) error {
	if err := bson.Unmarshal(s.raw, dest); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

func prepareID(doc interfaces.Document) string {
	id := doc.GetID()
	if id == "" {
		id = primitive.NewObjectID().Hex()
	}
	doc.SetID(id)
	return id
}

func replace(ctx context.Context, coll *mongo.Collection, id string, doc interface{}) error {
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

func findOne(ctx context.Context, coll *mongo.Collection, id string, dest interfaces.Document) error {
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(dest)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return interfaces.ErrNotFound
		}
		return fmt.Errorf("failed to get document: %w", err)
	}
	dest.SetID(id)
	return nil
}

func updateOne(ctx context.Context, coll *mongo.Collection, id string, fields map[string]interface{}) error {
	set := bson.M{}
	for k, v := range fields {
		set[fieldName(k)] = v
	}

	result, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func deleteOne(ctx context.Context, coll *mongo.Collection, id string) error {
	result, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if result.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func fieldName(field string) string {
	if field == "id" {
		return "_id"
	}
	return field
}

func deliver(ctx context.Context, out chan<- interfaces.Snapshot, snap interfaces.Snapshot) bool {
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}
