package handlers

import (
	"context"
	"net/http"
	"strings"

	"fleetdesk/internal/middleware"
	"fleetdesk/internal/models"
	"fleetdesk/internal/services"
	"fleetdesk/internal/utils"
	"fleetdesk/internal/validators"
	"fleetdesk/pkg/logger"

	"github.com/gin-gonic/gin"
)

type RouteHandler struct {
	routeService services.RouteLifecycleService
	podService   services.PODPhotoService
	logger       *logger.Logger
}

func NewRouteHandler(routeService services.RouteLifecycleService, podService services.PODPhotoService, log *logger.Logger) *RouteHandler {
	return &RouteHandler{
		routeService: routeService,
		podService:   podService,
		logger:       log,
	}
}

// RouteResponse adds the computed money fields to a route.
type RouteResponse struct {
	*models.Route
	TotalExpenses string `json:"total_expenses"`
	Balance       string `json:"balance"`
}

func newRouteResponse(route *models.Route) RouteResponse {
	return RouteResponse{
		Route:         route,
		TotalExpenses: route.TotalExpenses().StringFixed(2),
		Balance:       route.Balance().StringFixed(2),
	}
}

// CreateRoute creates a pending route
func (h *RouteHandler) CreateRoute(c *gin.Context) {
	var req validators.CreateRouteRequest
	if !bindJSON(c, &req) {
		return
	}

	route, err := h.routeService.CreateRoute(c.Request.Context(), middleware.OrganizationID(c), middleware.UserID(c), req.ToRouteInput())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Route created successfully", newRouteResponse(route))
}

// ListRoutes lists the organization's routes, optionally by status
func (h *RouteHandler) ListRoutes(c *gin.Context) {
	status := models.RouteStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		utils.BadRequestResponse(c, "Invalid status filter")
		return
	}

	routes, err := h.routeService.ListRoutes(c.Request.Context(), middleware.OrganizationID(c), status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response := make([]RouteResponse, 0, len(routes))
	for i := range routes {
		response = append(response, newRouteResponse(&routes[i]))
	}
	utils.SuccessResponseWithMeta(c, "Routes retrieved successfully", response, &utils.Meta{Count: len(response)})
}

func (h *RouteHandler) GetRoute(c *gin.Context) {
	route, err := h.routeService.GetRoute(c.Request.Context(), middleware.OrganizationID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Route retrieved successfully", newRouteResponse(route))
}

// EditRoute changes a pending route
func (h *RouteHandler) EditRoute(c *gin.Context) {
	var req validators.EditRouteRequest
	if !bindJSON(c, &req) {
		return
	}
	edit, err := req.ToEdit()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	route, err := h.routeService.EditRoute(c.Request.Context(), middleware.OrganizationID(c), c.Param("id"), edit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Route updated successfully", newRouteResponse(route))
}

func (h *RouteHandler) DeleteRoute(c *gin.Context) {
	if err := h.routeService.DeleteRoute(c.Request.Context(), middleware.OrganizationID(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Route deleted successfully", nil)
}

// AssignRoute puts a driver and vehicle on a pending route
func (h *RouteHandler) AssignRoute(c *gin.Context) {
	var req validators.AssignRouteRequest
	if !bindJSON(c, &req) {
		return
	}

	route, err := h.routeService.Assign(c.Request.Context(), middleware.OrganizationID(c), c.Param("id"), req.DriverID.String(), req.VehicleID.String())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Route assigned successfully", newRouteResponse(route))
}

// StartRoute submits the pre-trip inspection and starts the route
func (h *RouteHandler) StartRoute(c *gin.Context) {
	var req validators.StartRouteRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.routeService.StartRoute(c.Request.Context(), middleware.OrganizationID(c), c.Param("id"), req.ToSubmission())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response := gin.H{
		"route":      newRouteResponse(result.Route),
		"inspection": result.Inspection,
	}
	utils.SuccessResponseWithMeta(c, "Route started successfully", response, &utils.Meta{Count: 1, Warnings: result.Warnings})
}

// UpdateStop moves a stop to arrived, completed or failed
func (h *RouteHandler) UpdateStop(c *gin.Context) {
	var req validators.UpdateStopRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.routeService.UpdateStop(c.Request.Context(), middleware.OrganizationID(c), c.Param("id"), c.Param("stop_id"), models.StopStatus(req.Status), req.Notes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Stop updated successfully", stopResult(result))
}

// SubmitPOD records proof of delivery. Multipart requests may carry the
// photo itself, which is stored before the POD is applied.
func (h *RouteHandler) SubmitPOD(c *gin.Context) {
	orgID := middleware.OrganizationID(c)
	routeID, stopID := c.Param("id"), c.Param("stop_id")

	var req validators.PODRequest
	var photo *services.PODPhoto
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request: "+err.Error())
			return
		}
		if errs := validators.ValidateStruct(&req); len(errs) > 0 {
			utils.ValidationErrorResponse(c, errs.Details())
			return
		}

		if header, err := c.FormFile("photo"); err == nil {
			file, err := header.Open()
			if err != nil {
				utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeBadRequest, utils.ErrFileUploadFailed)
				return
			}
			defer file.Close()

			photo, err = h.podService.UploadPODPhoto(c.Request.Context(), orgID, routeID, stopID, file, header.Filename)
			if err != nil {
				respondError(c, h.logger, err)
				return
			}
			req.PODPhotoURL = photo.URL
		}
	} else if !bindJSON(c, &req) {
		return
	}

	result, err := h.routeService.SubmitPOD(c.Request.Context(), orgID, routeID, stopID, req.ToPOD())
	if err != nil {
		if photo != nil {
			h.discardPhoto(c, routeID, photo)
		}
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Proof of delivery recorded", stopResult(result))
}

// discardPhoto drops a photo uploaded for a POD that was rejected.
func (h *RouteHandler) discardPhoto(c *gin.Context, routeID string, photo *services.PODPhoto) {
	if err := h.podService.DeletePODPhoto(context.WithoutCancel(c.Request.Context()), photo.Key); err != nil {
		h.logger.WithContext(c.Request.Context()).WithRouteID(routeID).LogSideEffectFailure("pod_photo_cleanup", err, map[string]interface{}{
			"key": photo.Key,
		})
	}
}

// UploadPODPhoto stores a photo and returns its URL for a later POD
func (h *RouteHandler) UploadPODPhoto(c *gin.Context) {
	header, err := c.FormFile("photo")
	if err != nil {
		utils.BadRequestResponse(c, "photo is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeBadRequest, utils.ErrFileUploadFailed)
		return
	}
	defer file.Close()

	photo, err := h.podService.UploadPODPhoto(c.Request.Context(), middleware.OrganizationID(c), c.Param("id"), c.Param("stop_id"), file, header.Filename)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Photo uploaded successfully", gin.H{"pod_photo_url": photo.URL})
}

// CompleteRoute closes a route whose stops are all resolved
func (h *RouteHandler) CompleteRoute(c *gin.Context) {
	route, err := h.routeService.CompleteRoute(c.Request.Context(), middleware.OrganizationID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Route completed successfully", newRouteResponse(route))
}

func (h *RouteHandler) AddExpense(c *gin.Context) {
	var req validators.ExpenseRequest
	if !bindJSON(c, &req) {
		return
	}

	route, err := h.routeService.AddExpense(c.Request.Context(), middleware.OrganizationID(c), c.Param("id"), req.ToExpense())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Expense added successfully", newRouteResponse(route))
}

func stopResult(result *services.StopUpdateResult) gin.H {
	return gin.H{
		"route":                      newRouteResponse(result.Route),
		"stop":                       result.Stop,
		"auto_completed":             result.AutoCompleted,
		"requires_manual_completion": result.RequiresManualCompletion,
	}
}
