package validators

import (
	"strings"
	"time"

	"fleetdesk/internal/models"
	"fleetdesk/internal/utils"
)

type StopRequest struct {
	Address        string `json:"address" validate:"required,max=500"`
	RecipientName  string `json:"recipient_name" validate:"omitempty,max=200"`
	RecipientPhone string `json:"recipient_phone" validate:"omitempty,phone_number"`
}

type CreateRouteRequest struct {
	Name          string           `json:"name" validate:"required,max=200"`
	ClientID      utils.FlexibleID `json:"client_id" validate:"omitempty,max=64"`
	Notes         string           `json:"notes" validate:"omitempty,max=2000"`
	Rate          float64          `json:"rate" validate:"min=0"`
	Distance      float64          `json:"distance" validate:"min=0"`
	ScheduledDate *time.Time       `json:"scheduled_date"`
	Stops         []StopRequest    `json:"stops" validate:"omitempty,max=200,dive"`
}

type EditRouteRequest struct {
	Name            *string           `json:"name" validate:"omitempty,min=1,max=200"`
	ClientID        *utils.FlexibleID `json:"client_id" validate:"omitempty,max=64"`
	Notes           *string           `json:"notes" validate:"omitempty,max=2000"`
	Rate            *float64          `json:"rate" validate:"omitempty,min=0"`
	Distance        *float64          `json:"distance" validate:"omitempty,min=0"`
	ScheduledDate   *time.Time        `json:"scheduled_date"`
	Stops           []StopRequest     `json:"stops" validate:"omitempty,max=200,dive"`
	ExpectedVersion *int64            `json:"expected_version" validate:"omitempty,min=0"`
}

type AssignRouteRequest struct {
	DriverID  utils.FlexibleID `json:"driver_id" validate:"required"`
	VehicleID utils.FlexibleID `json:"vehicle_id" validate:"required"`
}

type UpdateStopRequest struct {
	Status string `json:"status" validate:"required,stop_status"`
	Notes  string `json:"notes" validate:"omitempty,max=2000"`
}

type PODRequest struct {
	RecipientName string `json:"recipient_name" form:"recipient_name" validate:"required,max=200"`
	DeliveryNotes string `json:"delivery_notes" form:"delivery_notes" validate:"omitempty,max=2000"`
	PODPhotoURL   string `json:"pod_photo_url" form:"pod_photo_url" validate:"omitempty,url"`
}

type ExpenseRequest struct {
	Type        string     `json:"type" validate:"required,max=50"`
	Description string     `json:"description" validate:"omitempty,max=500"`
	Amount      float64    `json:"amount" validate:"gt=0"`
	Date        *time.Time `json:"date"`
}

func toStopInputs(stops []StopRequest) []models.StopInput {
	if stops == nil {
		return nil
	}
	inputs := make([]models.StopInput, 0, len(stops))
	for _, s := range stops {
		phone := ""
		if s.RecipientPhone != "" {
			phone = utils.NormalizePhone(s.RecipientPhone)
		}
		inputs = append(inputs, models.StopInput{
			Address:        s.Address,
			RecipientName:  s.RecipientName,
			RecipientPhone: phone,
		})
	}
	return inputs
}

func (r *CreateRouteRequest) ToRouteInput() *models.RouteInput {
	return &models.RouteInput{
		Name:          strings.TrimSpace(r.Name),
		ClientID:      r.ClientID.String(),
		Notes:         r.Notes,
		Rate:          r.Rate,
		Distance:      r.Distance,
		ScheduledDate: r.ScheduledDate,
		Stops:         toStopInputs(r.Stops),
	}
}

// ToEdit converts the request into a RouteEdit, or ErrEmptyRequest when
// nothing would change.
func (r *EditRouteRequest) ToEdit() (*models.RouteEdit, error) {
	edit := &models.RouteEdit{
		Name:            r.Name,
		Notes:           r.Notes,
		Rate:            r.Rate,
		Distance:        r.Distance,
		ScheduledDate:   r.ScheduledDate,
		Stops:           toStopInputs(r.Stops),
		ExpectedVersion: r.ExpectedVersion,
	}
	if r.ClientID != nil {
		id := r.ClientID.String()
		edit.ClientID = &id
	}

	if edit.Name == nil && edit.ClientID == nil && edit.Notes == nil && edit.Rate == nil &&
		edit.Distance == nil && edit.ScheduledDate == nil && edit.Stops == nil {
		return nil, ErrEmptyRequest
	}
	return edit, nil
}

func (r *PODRequest) ToPOD() models.PODData {
	return models.PODData{
		RecipientName: r.RecipientName,
		DeliveryNotes: r.DeliveryNotes,
		PODPhotoURL:   r.PODPhotoURL,
	}
}

func (r *ExpenseRequest) ToExpense() models.Expense {
	expense := models.Expense{
		Type:        strings.TrimSpace(r.Type),
		Description: r.Description,
		Amount:      r.Amount,
	}
	if r.Date != nil {
		expense.Date = *r.Date
	}
	return expense
}
