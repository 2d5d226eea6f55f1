package validators

import (
	"time"

	"fleetdesk/internal/models"
)

type InspectionResponseRequest struct {
	Status string `json:"status" validate:"required,inspection_status"`
	Notes  string `json:"notes" validate:"omitempty,max=1000"`
}

// StartRouteRequest carries the pre-trip checklist answers keyed by item id.
type StartRouteRequest struct {
	Responses map[string]InspectionResponseRequest `json:"responses" validate:"required,min=1,dive,keys,required,max=64,endkeys"`
	StartedAt *time.Time                           `json:"started_at"`
}

func (r *StartRouteRequest) ToSubmission() models.InspectionSubmission {
	responses := make(map[string]models.InspectionResponse, len(r.Responses))
	for id, resp := range r.Responses {
		responses[id] = models.InspectionResponse{
			Status: models.InspectionStatus(resp.Status),
			Notes:  resp.Notes,
		}
	}
	return models.InspectionSubmission{
		Responses: responses,
		StartedAt: r.StartedAt,
	}
}
