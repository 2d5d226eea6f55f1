// Package memory is an in-process ResourceStore used in demo mode and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"fleetdesk/internal/repositories/interfaces"

	"github.com/google/uuid"
)

type record map[string]interface{}

type subscriber struct {
	collection string
	query      interfaces.Query
	ch         chan interfaces.Snapshot
}

type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]record
	subscribers map[*subscriber]struct{}
	faults      map[string]error
	newID       func() string
}

func NewStore() *Store {
	return &Store{
		collections: make(map[string]map[string]record),
		subscribers: make(map[*subscriber]struct{}),
		faults:      make(map[string]error),
		newID:       uuid.NewString,
	}
}

// InjectFault makes the next write to collection fail with err.
func (s *Store) InjectFault(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[collection] = err
}

func (s *Store) takeFaultLocked(collection string) error {
	err, ok := s.faults[collection]
	if !ok {
		return nil
	}
	delete(s.faults, collection)
	return err
}

func (s *Store) Create(ctx context.Context, collection string, doc interfaces.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFaultLocked(collection); err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}

	id, rec, err := s.prepareCreate(doc)
	if err != nil {
		return "", err
	}
	s.putLocked(collection, id, rec)
	s.notifyLocked(map[string]bool{collection: true})
	return id, nil
}

func (s *Store) prepareCreate(doc interfaces.Document) (string, record, error) {
	id := doc.GetID()
	if id == "" {
		id = s.newID()
	}
	doc.SetID(id)

	rec, err := encode(doc)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode document: %w", err)
	}
	rec["id"] = id
	return id, rec, nil
}

func (s *Store) Get(ctx context.Context, collection, id string, dest interfaces.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(collection, id, dest)
}

func (s *Store) getLocked(collection, id string, dest interfaces.Document) error {
	rec, ok := s.collections[collection][id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if err := decode(rec, dest); err != nil {
		return err
	}
	dest.SetID(id)
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collections[collection][id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if err := s.takeFaultLocked(collection); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	merged, err := merge(rec, fields)
	if err != nil {
		return err
	}
	s.putLocked(collection, id, merged)
	s.notifyLocked(map[string]bool{collection: true})
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return interfaces.ErrNotFound
	}
	if err := s.takeFaultLocked(collection); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	delete(s.collections[collection], id)
	s.notifyLocked(map[string]bool{collection: true})
	return nil
}

func (s *Store) List(ctx context.Context, collection string, query interfaces.Query) ([]interfaces.DocumentSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLocked(collection, query)
}

// Subscribe sends the current result set immediately and again after every
// write to the collection. A slow reader only ever sees the latest set.
func (s *Store) Subscribe(ctx context.Context, collection string, query interfaces.Query) (<-chan interfaces.Snapshot, error) {
	sub := &subscriber{
		collection: collection,
		query:      query,
		ch:         make(chan interfaces.Snapshot, 1),
	}

	s.mu.Lock()
	s.subscribers[sub] = struct{}{}
	s.sendLocked(sub)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subscribers, sub)
		close(sub.ch)
		s.mu.Unlock()
	}()

	return sub.ch, nil
}

// RunTransaction stages every write and applies them only when fn returns
// nil. Transactions are serialized against all other store operations, so
// fn must use tx rather than the store itself.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx interfaces.Transaction) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{store: s, staged: make(map[string]map[string]record)}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	touched := make(map[string]bool)
	for collection, docs := range tx.staged {
		for id, rec := range docs {
			if rec == nil {
				delete(s.collections[collection], id)
				continue
			}
			s.putLocked(collection, id, rec)
		}
		touched[collection] = true
	}
	s.notifyLocked(touched)
	return nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) putLocked(collection, id string, rec record) {
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]record)
		s.collections[collection] = docs
	}
	docs[id] = rec
}

func (s *Store) queryLocked(collection string, query interfaces.Query) ([]interfaces.DocumentSnapshot, error) {
	filters := make([]interface{}, len(query.Filters))
	for i, f := range query.Filters {
		normalized, err := normalize(f.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid filter on %s: %w", f.Field, err)
		}
		filters[i] = normalized
	}

	var matched []record
	for _, rec := range s.collections[collection] {
		ok := true
		for i, f := range query.Filters {
			if !reflect.DeepEqual(rec[f.Field], filters[i]) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, rec)
		}
	}

	orderBy := query.OrderBy
	if orderBy == "" {
		orderBy = "id"
	}
	sort.SliceStable(matched, func(i, j int) bool {
		c := compareValues(matched[i][orderBy], matched[j][orderBy])
		if c == 0 {
			c = compareValues(matched[i]["id"], matched[j]["id"])
		}
		if query.Descending {
			return c > 0
		}
		return c < 0
	})

	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}

	snaps := make([]interfaces.DocumentSnapshot, 0, len(matched))
	for _, rec := range matched {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		id, _ := rec["id"].(string)
		snaps = append(snaps, &snapshot{id: id, data: data})
	}
	return snaps, nil
}

func (s *Store) notifyLocked(collections map[string]bool) {
	for sub := range s.subscribers {
		if collections[sub.collection] {
			s.sendLocked(sub)
		}
	}
}

func (s *Store) sendLocked(sub *subscriber) {
	docs, err := s.queryLocked(sub.collection, sub.query)
	snap := interfaces.Snapshot{Documents: docs, Err: err}

	select {
	case sub.ch <- snap:
	default:
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- snap
	}
}

// transaction stages writes per document. A nil record stages a delete.
type transaction struct {
	store  *Store
	staged map[string]map[string]record
}

func (t *transaction) lookup(collection, id string) (record, bool) {
	if rec, ok := t.staged[collection][id]; ok {
		return rec, rec != nil
	}
	rec, ok := t.store.collections[collection][id]
	return rec, ok
}

func (t *transaction) stage(collection, id string, rec record) {
	docs, ok := t.staged[collection]
	if !ok {
		docs = make(map[string]record)
		t.staged[collection] = docs
	}
	docs[id] = rec
}

func (t *transaction) Get(collection, id string, dest interfaces.Document) error {
	rec, ok := t.lookup(collection, id)
	if !ok {
		return interfaces.ErrNotFound
	}
	if err := decode(rec, dest); err != nil {
		return err
	}
	dest.SetID(id)
	return nil
}

func (t *transaction) Create(collection string, doc interfaces.Document) (string, error) {
	if err := t.store.takeFaultLocked(collection); err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}
	id, rec, err := t.store.prepareCreate(doc)
	if err != nil {
		return "", err
	}
	t.stage(collection, id, rec)
	return id, nil
}

func (t *transaction) Update(collection, id string, fields map[string]interface{}) error {
	rec, ok := t.lookup(collection, id)
	if !ok {
		return interfaces.ErrNotFound
	}
	if err := t.store.takeFaultLocked(collection); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	merged, err := merge(rec, fields)
	if err != nil {
		return err
	}
	t.stage(collection, id, merged)
	return nil
}

func (t *transaction) Delete(collection, id string) error {
	if _, ok := t.lookup(collection, id); !ok {
		return interfaces.ErrNotFound
	}
	if err := t.store.takeFaultLocked(collection); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	t.stage(collection, id, nil)
	return nil
}

type snapshot struct {
	id   string
	data []byte
}

func (s *snapshot) ID() string { return s.id }

func (s *snapshot) DataTo(dest interface{}) error {
	if err := json.Unmarshal(s.data, dest); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

func encode(v interface{}) (record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = record{}
	}
	return rec, nil
}

func decode(rec record, dest interface{}) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

func normalize(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// merge returns a copy of rec with fields applied. The stored record is
// never modified in place.
func merge(rec record, fields map[string]interface{}) (record, error) {
	out := make(record, len(rec)+len(fields))
	for k, v := range rec {
		out[k] = v
	}
	for k, v := range fields {
		normalized, err := normalize(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %s: %w", k, err)
		}
		out[k] = normalized
	}
	return out, nil
}

func compareValues(a, b interface{}) int {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case string:
		if bv, ok := b.(string); ok {
			if at, bt, ok := parseTimes(av, bv); ok {
				return at.Compare(bt)
			}
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			}
			return 1
		}
	case nil:
		if b == nil {
			return 0
		}
		return -1
	}
	if b == nil {
		return 1
	}
	return 0
}

// parseTimes decodes both values when they are encoded timestamps. JSON
// trims trailing zeros from fractional seconds, so their text does not sort
// in time order.
func parseTimes(a, b string) (time.Time, time.Time, bool) {
	at, err := time.Parse(time.RFC3339Nano, a)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	bt, err := time.Parse(time.RFC3339Nano, b)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return at, bt, true
}
