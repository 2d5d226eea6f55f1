package models

import "time"

type DriverStatus string

const (
	DriverStatusIdle      DriverStatus = "Idle"
	DriverStatusAvailable DriverStatus = "Available"
	DriverStatusOnRoute   DriverStatus = "On-route"
	DriverStatusOffDuty   DriverStatus = "Off-duty"
	DriverStatusInactive  DriverStatus = "Inactive"
)

type Driver struct {
	ID                 string       `json:"id" bson:"_id" firestore:"id"`
	OrganizationID     string       `json:"organization_id" bson:"organization_id" firestore:"organization_id"`
	UserID             string       `json:"user_id,omitempty" bson:"user_id,omitempty" firestore:"user_id,omitempty"`
	Name               string       `json:"name" bson:"name" firestore:"name"`
	Phone              string       `json:"phone" bson:"phone" firestore:"phone"`
	WhatsAppOptIn      bool         `json:"whatsapp_opt_in" bson:"whatsapp_opt_in" firestore:"whatsapp_opt_in"`
	LicenseNumber      string       `json:"license_number,omitempty" bson:"license_number,omitempty" firestore:"license_number,omitempty"`
	Status             DriverStatus `json:"status" bson:"status" firestore:"status"`
	CurrentRouteID     string       `json:"current_route_id" bson:"current_route_id" firestore:"current_route_id"`
	CurrentRouteStatus RouteStatus  `json:"current_route_status" bson:"current_route_status" firestore:"current_route_status"`
	SafetyScore        float64      `json:"safety_score" bson:"safety_score" firestore:"safety_score"`
	InspectionCount    int          `json:"inspection_count" bson:"inspection_count" firestore:"inspection_count"`
	CreatedAt          time.Time    `json:"created_at" bson:"created_at" firestore:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at" bson:"updated_at" firestore:"updated_at"`
}

func (d *Driver) GetID() string   { return d.ID }
func (d *Driver) SetID(id string) { d.ID = id }

// IsAssignable reports whether the driver may take a new route.
func (d *Driver) IsAssignable() bool {
	return d.Status == DriverStatusIdle || d.Status == DriverStatusAvailable
}

// IsManualDriverStatus lists the statuses an operator may set directly.
// On-route is owned by the route workflow.
func IsManualDriverStatus(s DriverStatus) bool {
	switch s {
	case DriverStatusIdle, DriverStatusAvailable, DriverStatusOffDuty, DriverStatusInactive:
		return true
	}
	return false
}
