package handlers

import (
	"fleetdesk/internal/middleware"
	"fleetdesk/internal/services"
	"fleetdesk/internal/utils"
	"fleetdesk/pkg/logger"

	"github.com/gin-gonic/gin"
)

type SafetyHandler struct {
	safetyService services.SafetyInspectionService
	logger        *logger.Logger
}

func NewSafetyHandler(safetyService services.SafetyInspectionService, log *logger.Logger) *SafetyHandler {
	return &SafetyHandler{
		safetyService: safetyService,
		logger:        log,
	}
}

// GetChecklist returns the pre-trip checklist drivers must answer
func (h *SafetyHandler) GetChecklist(c *gin.Context) {
	utils.SuccessResponse(c, "Checklist retrieved successfully", h.safetyService.Checklist())
}

func (h *SafetyHandler) GetInspection(c *gin.Context) {
	inspection, err := h.safetyService.GetInspection(c.Request.Context(), middleware.OrganizationID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Inspection retrieved successfully", inspection)
}
