package validators

import (
	"strings"

	"fleetdesk/internal/models"
	"fleetdesk/internal/utils"
)

type CreateDriverRequest struct {
	Name          string           `json:"name" validate:"required,min=2,max=100"`
	Phone         string           `json:"phone" validate:"required,phone_number"`
	UserID        utils.FlexibleID `json:"user_id" validate:"omitempty,max=64"`
	LicenseNumber string           `json:"license_number" validate:"omitempty,min=5,max=20"`
	WhatsAppOptIn *bool            `json:"whatsapp_opt_in"`
}

type CreateVehicleRequest struct {
	Plate           string  `json:"plate" validate:"required,min=2,max=15"`
	Make            string  `json:"make" validate:"omitempty,max=50"`
	Model           string  `json:"model" validate:"omitempty,max=50"`
	Status          string  `json:"status" validate:"omitempty,vehicle_status"`
	Odometer        float64 `json:"odometer" validate:"min=0"`
	OdometerTracked bool    `json:"odometer_tracked"`
}

type DriverStatusRequest struct {
	Status string `json:"status" validate:"required,driver_status"`
}

type VehicleStatusRequest struct {
	Status string `json:"status" validate:"required,vehicle_status"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required,max=4096"`
	Platform string `json:"platform" validate:"required,oneof=android ios"`
}

// ToDriver builds the driver record. WhatsApp messages are on unless the
// request opts out.
func (r *CreateDriverRequest) ToDriver() *models.Driver {
	optIn := true
	if r.WhatsAppOptIn != nil {
		optIn = *r.WhatsAppOptIn
	}
	return &models.Driver{
		Name:          strings.TrimSpace(r.Name),
		Phone:         utils.NormalizePhone(r.Phone),
		UserID:        r.UserID.String(),
		LicenseNumber: strings.ToUpper(strings.TrimSpace(r.LicenseNumber)),
		WhatsAppOptIn: optIn,
	}
}

func (r *CreateVehicleRequest) ToVehicle() *models.Vehicle {
	return &models.Vehicle{
		Plate:           strings.ToUpper(strings.TrimSpace(r.Plate)),
		Make:            r.Make,
		Model:           r.Model,
		Status:          models.VehicleStatus(r.Status),
		Odometer:        r.Odometer,
		OdometerTracked: r.OdometerTracked,
	}
}

func (r *RegisterDeviceRequest) ToDeviceToken() *models.DeviceToken {
	return &models.DeviceToken{
		Token:    r.Token,
		Platform: models.DevicePlatform(r.Platform),
	}
}
