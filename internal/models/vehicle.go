package models

import "time"

type VehicleStatus string

const (
	VehicleStatusActive      VehicleStatus = "Active"
	VehicleStatusParked      VehicleStatus = "Parked"
	VehicleStatusOnTheMove   VehicleStatus = "On the Move"
	VehicleStatusIdle        VehicleStatus = "Idle"
	VehicleStatusMaintenance VehicleStatus = "Maintenance"
	VehicleStatusInactive    VehicleStatus = "Inactive"
)

type Vehicle struct {
	ID                 string        `json:"id" bson:"_id" firestore:"id"`
	OrganizationID     string        `json:"organization_id" bson:"organization_id" firestore:"organization_id"`
	Plate              string        `json:"plate" bson:"plate" firestore:"plate"`
	Make               string        `json:"make,omitempty" bson:"make,omitempty" firestore:"make,omitempty"`
	Model              string        `json:"model,omitempty" bson:"model,omitempty" firestore:"model,omitempty"`
	Status             VehicleStatus `json:"status" bson:"status" firestore:"status"`
	CurrentRouteID     string        `json:"current_route_id" bson:"current_route_id" firestore:"current_route_id"`
	CurrentRouteStatus RouteStatus   `json:"current_route_status" bson:"current_route_status" firestore:"current_route_status"`
	Odometer           float64       `json:"odometer" bson:"odometer" firestore:"odometer"` // kilometers
	OdometerTracked    bool          `json:"odometer_tracked" bson:"odometer_tracked" firestore:"odometer_tracked"`
	CreatedAt          time.Time     `json:"created_at" bson:"created_at" firestore:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" bson:"updated_at" firestore:"updated_at"`
}

func (v *Vehicle) GetID() string   { return v.ID }
func (v *Vehicle) SetID(id string) { v.ID = id }

func (v *Vehicle) IsAssignable() bool {
	return v.Status == VehicleStatusActive || v.Status == VehicleStatusParked
}

func IsManualVehicleStatus(s VehicleStatus) bool {
	switch s {
	case VehicleStatusActive, VehicleStatusParked, VehicleStatusIdle, VehicleStatusMaintenance, VehicleStatusInactive:
		return true
	}
	return false
}
