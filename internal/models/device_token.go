package models

import "time"

type DevicePlatform string

const (
	DevicePlatformAndroid DevicePlatform = "android"
	DevicePlatformIOS     DevicePlatform = "ios"
)

// DeviceToken is stored under the owning user's id, one device per user.
type DeviceToken struct {
	ID             string         `json:"id" bson:"_id" firestore:"id"`
	OrganizationID string         `json:"organization_id" bson:"organization_id" firestore:"organization_id"`
	UserID         string         `json:"user_id" bson:"user_id" firestore:"user_id"`
	Token          string         `json:"token" bson:"token" firestore:"token"`
	Platform       DevicePlatform `json:"platform" bson:"platform" firestore:"platform"`
	UpdatedAt      time.Time      `json:"updated_at" bson:"updated_at" firestore:"updated_at"`
}

func (d *DeviceToken) GetID() string   { return d.ID }
func (d *DeviceToken) SetID(id string) { d.ID = id }
