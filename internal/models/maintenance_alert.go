package models

import "time"

type AlertSeverity string

const (
	AlertSeverityHigh     AlertSeverity = "high"
	AlertSeverityCritical AlertSeverity = "critical"

	MaintenanceAlertOpen = "open"
)

// MaintenanceAlert is raised for every inspection item answered poor or missing.
type MaintenanceAlert struct {
	ID             string        `json:"id" bson:"_id" firestore:"id"`
	OrganizationID string        `json:"organization_id" bson:"organization_id" firestore:"organization_id"`
	VehicleID      string        `json:"vehicle_id" bson:"vehicle_id" firestore:"vehicle_id"`
	RouteID        string        `json:"route_id" bson:"route_id" firestore:"route_id"`
	InspectionID   string        `json:"inspection_id" bson:"inspection_id" firestore:"inspection_id"`
	ItemID         string        `json:"item_id" bson:"item_id" firestore:"item_id"`
	Category       string        `json:"category" bson:"category" firestore:"category"`
	Question       string        `json:"question" bson:"question" firestore:"question"`
	Severity       AlertSeverity `json:"severity" bson:"severity" firestore:"severity"`
	Status         string        `json:"status" bson:"status" firestore:"status"`
	CreatedAt      time.Time     `json:"created_at" bson:"created_at" firestore:"created_at"`
}

func (a *MaintenanceAlert) GetID() string   { return a.ID }
func (a *MaintenanceAlert) SetID(id string) { a.ID = id }

func SeverityFor(status InspectionStatus) AlertSeverity {
	if status == InspectionStatusMissing {
		return AlertSeverityCritical
	}
	return AlertSeverityHigh
}
