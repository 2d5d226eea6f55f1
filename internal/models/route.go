package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RouteStatus string

const (
	RouteStatusPending    RouteStatus = "Pending"
	RouteStatusInProgress RouteStatus = "In Progress"
	RouteStatusCompleted  RouteStatus = "Completed"
)

// Progress written when a driver and vehicle are first assigned.
const AssignedRouteProgress = 5

type Route struct {
	ID                  string      `json:"id" bson:"_id" firestore:"id"`
	OrganizationID      string      `json:"organization_id" bson:"organization_id" firestore:"organization_id"`
	Name                string      `json:"name" bson:"name" firestore:"name"`
	ClientID            string      `json:"client_id,omitempty" bson:"client_id,omitempty" firestore:"client_id,omitempty"`
	Notes               string      `json:"notes,omitempty" bson:"notes,omitempty" firestore:"notes,omitempty"`
	Status              RouteStatus `json:"status" bson:"status" firestore:"status"`
	Progress            int         `json:"progress" bson:"progress" firestore:"progress"`
	Rate                float64     `json:"rate" bson:"rate" firestore:"rate"`
	Distance            float64     `json:"distance" bson:"distance" firestore:"distance"` // kilometers
	DriverID            string      `json:"driver_id,omitempty" bson:"driver_id,omitempty" firestore:"driver_id,omitempty"`
	DriverName          string      `json:"driver_name,omitempty" bson:"driver_name,omitempty" firestore:"driver_name,omitempty"`
	VehicleID           string      `json:"vehicle_id,omitempty" bson:"vehicle_id,omitempty" firestore:"vehicle_id,omitempty"`
	VehiclePlate        string      `json:"vehicle_plate,omitempty" bson:"vehicle_plate,omitempty" firestore:"vehicle_plate,omitempty"`
	Stops               []Stop      `json:"stops" bson:"stops" firestore:"stops"`
	Expenses            []Expense   `json:"expenses" bson:"expenses" firestore:"expenses"`
	PreTripInspectionID string      `json:"pre_trip_inspection_id,omitempty" bson:"pre_trip_inspection_id,omitempty" firestore:"pre_trip_inspection_id,omitempty"`
	SafetyWarning       bool        `json:"safety_warning" bson:"safety_warning" firestore:"safety_warning"`
	ScheduledDate       *time.Time  `json:"scheduled_date,omitempty" bson:"scheduled_date,omitempty" firestore:"scheduled_date,omitempty"`
	AssignedAt          *time.Time  `json:"assigned_at,omitempty" bson:"assigned_at,omitempty" firestore:"assigned_at,omitempty"`
	StartedAt           *time.Time  `json:"started_at,omitempty" bson:"started_at,omitempty" firestore:"started_at,omitempty"`
	CompletionDate      *time.Time  `json:"completion_date,omitempty" bson:"completion_date,omitempty" firestore:"completion_date,omitempty"`
	CreatedBy           string      `json:"created_by,omitempty" bson:"created_by,omitempty" firestore:"created_by,omitempty"`
	CreatedAt           time.Time   `json:"created_at" bson:"created_at" firestore:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at" bson:"updated_at" firestore:"updated_at"`
	Version             int64       `json:"version" bson:"version" firestore:"version"`
}

type Expense struct {
	ID          string    `json:"id" bson:"id" firestore:"id"`
	Type        string    `json:"type" bson:"type" firestore:"type"`
	Description string    `json:"description" bson:"description" firestore:"description"`
	Amount      float64   `json:"amount" bson:"amount" firestore:"amount"`
	Date        time.Time `json:"date" bson:"date" firestore:"date"`
}

// RouteInput is a new route as submitted by an operator.
type RouteInput struct {
	Name          string      `json:"name"`
	ClientID      string      `json:"client_id,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	Rate          float64     `json:"rate"`
	Distance      float64     `json:"distance"`
	ScheduledDate *time.Time  `json:"scheduled_date,omitempty"`
	Stops         []StopInput `json:"stops"`
}

// RouteEdit carries the fields an operator may change while a route is Pending.
// Nil pointers leave the stored value untouched.
type RouteEdit struct {
	Name            *string     `json:"name,omitempty"`
	ClientID        *string     `json:"client_id,omitempty"`
	Notes           *string     `json:"notes,omitempty"`
	Rate            *float64    `json:"rate,omitempty"`
	Distance        *float64    `json:"distance,omitempty"`
	ScheduledDate   *time.Time  `json:"scheduled_date,omitempty"`
	Stops           []StopInput `json:"stops,omitempty"`
	ExpectedVersion *int64      `json:"expected_version,omitempty"`
}

func (r *Route) GetID() string   { return r.ID }
func (r *Route) SetID(id string) { r.ID = id }

// Balance is the route rate minus every recorded expense.
func (r *Route) Balance() decimal.Decimal {
	balance := decimal.NewFromFloat(r.Rate)
	for _, expense := range r.Expenses {
		balance = balance.Sub(decimal.NewFromFloat(expense.Amount))
	}
	return balance
}

func (r *Route) TotalExpenses() decimal.Decimal {
	total := decimal.Zero
	for _, expense := range r.Expenses {
		total = total.Add(decimal.NewFromFloat(expense.Amount))
	}
	return total
}

func (r *Route) IsEditable() bool {
	return r.Status == RouteStatusPending
}

// FindStop returns the index of the stop with the given id, or -1.
func (r *Route) FindStop(stopID string) int {
	for i := range r.Stops {
		if r.Stops[i].ID == stopID {
			return i
		}
	}
	return -1
}

// CanTransition reports whether the route state machine allows moving from
// one status to another. Completed is terminal and no state may be skipped.
func CanTransition(from, to RouteStatus) bool {
	switch from {
	case RouteStatusPending:
		return to == RouteStatusInProgress
	case RouteStatusInProgress:
		return to == RouteStatusCompleted
	default:
		return false
	}
}

func (s RouteStatus) IsValid() bool {
	switch s {
	case RouteStatusPending, RouteStatusInProgress, RouteStatusCompleted:
		return true
	}
	return false
}
