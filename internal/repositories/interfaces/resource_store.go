package interfaces

import (
	"context"
	"errors"
	"fmt"
)

// Collection names used by the service.
const (
	CollectionRoutes            = "routes"
	CollectionDrivers           = "drivers"
	CollectionVehicles          = "vehicles"
	CollectionClients           = "clients"
	CollectionInvoices          = "invoices"
	CollectionPayrollRuns       = "payroll_runs"
	CollectionNotifications     = "notifications"
	CollectionExpenses          = "expenses"
	CollectionSafetyInspections = "safety_inspections"
	CollectionMaintenanceAlerts = "maintenance_alerts"
	CollectionDeviceTokens      = "device_tokens"
)

var ErrNotFound = errors.New("document not found")

// Document is any stored record. Backends assign the id on Create.
type Document interface {
	GetID() string
	SetID(id string)
}

// DocumentSnapshot is one document as returned by List or Subscribe.
type DocumentSnapshot interface {
	ID() string
	DataTo(dest interface{}) error
}

type Filter struct {
	Field string
	Value interface{}
}

type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

// Where returns a copy of q with an extra equality filter.
func (q Query) Where(field string, value interface{}) Query {
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)
	q.Filters = append(filters, Filter{Field: field, Value: value})
	return q
}

// Snapshot carries the full result set of a subscription after a change.
type Snapshot struct {
	Documents []DocumentSnapshot
	Err       error
}

// Transaction is the view of the store inside RunTransaction. Reads must
// happen before writes.
type Transaction interface {
	Get(collection, id string, dest Document) error
	Create(collection string, doc Document) (string, error)
	Update(collection, id string, fields map[string]interface{}) error
	Delete(collection, id string) error
}

type ResourceStore interface {
	Create(ctx context.Context, collection string, doc Document) (string, error)
	Get(ctx context.Context, collection, id string, dest Document) error
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string, query Query) ([]DocumentSnapshot, error)
	Subscribe(ctx context.Context, collection string, query Query) (<-chan Snapshot, error)
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
	Close() error
}

// DecodeAll decodes snapshots into a typed slice and stamps each id.
func DecodeAll[T any, PT interface {
	*T
	Document
}](snaps []DocumentSnapshot) ([]T, error) {
	out := make([]T, 0, len(snaps))
	for _, snap := range snaps {
		var item T
		if err := snap.DataTo(PT(&item)); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", snap.ID(), err)
		}
		PT(&item).SetID(snap.ID())
		out = append(out, item)
	}
	return out, nil
}
