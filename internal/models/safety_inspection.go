package models

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

type InspectionStatus string

const (
	InspectionStatusGood          InspectionStatus = "good"
	InspectionStatusFair          InspectionStatus = "fair"
	InspectionStatusPoor          InspectionStatus = "poor"
	InspectionStatusMissing       InspectionStatus = "missing"
	InspectionStatusNotApplicable InspectionStatus = "not_applicable"
)

var (
	ErrUnknownChecklistItem    = errors.New("unknown checklist item")
	ErrInvalidInspectionStatus = errors.New("invalid inspection status")
)

func (s InspectionStatus) IsValid() bool {
	switch s {
	case InspectionStatusGood, InspectionStatusFair, InspectionStatusPoor,
		InspectionStatusMissing, InspectionStatusNotApplicable:
		return true
	}
	return false
}

func (s InspectionStatus) IsCritical() bool {
	return s == InspectionStatusPoor || s == InspectionStatusMissing
}

// Checklist is the pre-trip taxonomy. It is configuration, not logic.
type Checklist struct {
	Categories []ChecklistCategory `json:"categories" mapstructure:"categories"`
}

type ChecklistCategory struct {
	Name  string          `json:"name" mapstructure:"name"`
	Items []ChecklistItem `json:"items" mapstructure:"items"`
}

type ChecklistItem struct {
	ID       string `json:"id" mapstructure:"id"`
	Question string `json:"question" mapstructure:"question"`
	Required bool   `json:"required" mapstructure:"required"`
}

// Item looks up a checklist item and its category by id.
func (c *Checklist) Item(id string) (ChecklistItem, string, bool) {
	for _, category := range c.Categories {
		for _, item := range category.Items {
			if item.ID == id {
				return item, category.Name, true
			}
		}
	}
	return ChecklistItem{}, "", false
}

func (c *Checklist) RequiredItemIDs() []string {
	var ids []string
	for _, category := range c.Categories {
		for _, item := range category.Items {
			if item.Required {
				ids = append(ids, item.ID)
			}
		}
	}
	return ids
}

type InspectionResponse struct {
	Status InspectionStatus `json:"status"`
	Notes  string           `json:"notes,omitempty"`
}

type InspectionSubmission struct {
	Responses map[string]InspectionResponse `json:"responses"`
	StartedAt *time.Time                    `json:"started_at,omitempty"`
}

type InspectionItem struct {
	ItemID   string           `json:"item_id" bson:"item_id" firestore:"item_id"`
	Category string           `json:"category" bson:"category" firestore:"category"`
	Question string           `json:"question" bson:"question" firestore:"question"`
	Required bool             `json:"required" bson:"required" firestore:"required"`
	Status   InspectionStatus `json:"status" bson:"status" firestore:"status"`
	Notes    string           `json:"notes,omitempty" bson:"notes,omitempty" firestore:"notes,omitempty"`
}

type SafetyInspection struct {
	ID                    string           `json:"id" bson:"_id" firestore:"id"`
	OrganizationID        string           `json:"organization_id" bson:"organization_id" firestore:"organization_id"`
	RouteID               string           `json:"route_id" bson:"route_id" firestore:"route_id"`
	DriverID              string           `json:"driver_id" bson:"driver_id" firestore:"driver_id"`
	VehicleID             string           `json:"vehicle_id" bson:"vehicle_id" firestore:"vehicle_id"`
	Items                 []InspectionItem `json:"items" bson:"items" firestore:"items"`
	HasCriticalIssues     bool             `json:"has_critical_issues" bson:"has_critical_issues" firestore:"has_critical_issues"`
	IsPerfect             bool             `json:"is_perfect" bson:"is_perfect" firestore:"is_perfect"`
	CompletionTimeSeconds int              `json:"completion_time_seconds" bson:"completion_time_seconds" firestore:"completion_time_seconds"`
	StartedAt             *time.Time       `json:"started_at,omitempty" bson:"started_at,omitempty" firestore:"started_at,omitempty"`
	SubmittedAt           time.Time        `json:"submitted_at" bson:"submitted_at" firestore:"submitted_at"`
	CreatedAt             time.Time        `json:"created_at" bson:"created_at" firestore:"created_at"`
}

func (s *SafetyInspection) GetID() string   { return s.ID }
func (s *SafetyInspection) SetID(id string) { s.ID = id }

// CriticalItems returns the items answered poor or missing.
func (s *SafetyInspection) CriticalItems() []InspectionItem {
	var items []InspectionItem
	for _, item := range s.Items {
		if item.Status.IsCritical() {
			items = append(items, item)
		}
	}
	return items
}

// Score rates the inspection from 0 to 100. good counts fully, fair half,
// poor and missing not at all; not_applicable answers are ignored.
func (s *SafetyInspection) Score() (float64, bool) {
	var total, counted float64
	for _, item := range s.Items {
		switch item.Status {
		case InspectionStatusGood:
			total += 1
		case InspectionStatusFair:
			total += 0.5
		case InspectionStatusNotApplicable:
			continue
		}
		counted++
	}
	if counted == 0 {
		return 0, false
	}
	return 100 * total / counted, true
}

type InspectionEvaluation struct {
	HasCriticalIssues bool     `json:"has_critical_issues"`
	IsPerfect         bool     `json:"is_perfect"`
	Unanswered        []string `json:"unanswered"`
}

// EvaluateInspection flags critical answers, perfect checklists and
// required items without a response.
func EvaluateInspection(checklist *Checklist, responses map[string]InspectionResponse) InspectionEvaluation {
	eval := InspectionEvaluation{IsPerfect: len(responses) > 0}

	for _, response := range responses {
		if response.Status.IsCritical() {
			eval.HasCriticalIssues = true
		}
		if response.Status != InspectionStatusGood {
			eval.IsPerfect = false
		}
	}

	for _, id := range checklist.RequiredItemIDs() {
		if _, ok := responses[id]; !ok {
			eval.Unanswered = append(eval.Unanswered, id)
		}
	}
	sort.Strings(eval.Unanswered)

	return eval
}

// ValidateResponses rejects answers to items outside the checklist and
// statuses outside the known set.
func ValidateResponses(checklist *Checklist, responses map[string]InspectionResponse) error {
	for id, response := range responses {
		if _, _, ok := checklist.Item(id); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownChecklistItem, id)
		}
		if !response.Status.IsValid() {
			return fmt.Errorf("%w: %q for %s", ErrInvalidInspectionStatus, response.Status, id)
		}
	}
	return nil
}

// DefaultChecklist is used when no checklist file is configured.
func DefaultChecklist() *Checklist {
	return &Checklist{
		Categories: []ChecklistCategory{
			{
				Name: "exterior",
				Items: []ChecklistItem{
					{ID: "tires", Question: "Tires inflated, tread depth adequate, no visible damage", Required: true},
					{ID: "lights", Question: "Headlights, brake lights and indicators working", Required: true},
					{ID: "mirrors", Question: "Mirrors clean and correctly adjusted", Required: true},
					{ID: "body_damage", Question: "No new body damage", Required: false},
				},
			},
			{
				Name: "mechanical",
				Items: []ChecklistItem{
					{ID: "brakes", Question: "Brakes respond normally", Required: true},
					{ID: "fluids", Question: "Oil, coolant and washer fluid at correct levels", Required: true},
					{ID: "dashboard_warnings", Question: "No warning lights on the dashboard", Required: true},
				},
			},
			{
				Name: "safety_equipment",
				Items: []ChecklistItem{
					{ID: "first_aid_kit", Question: "First aid kit present and stocked", Required: true},
					{ID: "fire_extinguisher", Question: "Fire extinguisher present and charged", Required: true},
					{ID: "warning_triangle", Question: "Warning triangle present", Required: false},
				},
			},
			{
				Name: "documents",
				Items: []ChecklistItem{
					{ID: "registration", Question: "Vehicle registration on board", Required: true},
					{ID: "insurance", Question: "Proof of insurance on board", Required: true},
				},
			},
		},
	}
}
