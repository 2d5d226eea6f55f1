package handlers

import (
	"fleetdesk/internal/middleware"
	"fleetdesk/internal/models"
	"fleetdesk/internal/services"
	"fleetdesk/internal/utils"
	"fleetdesk/internal/validators"
	"fleetdesk/pkg/logger"

	"github.com/gin-gonic/gin"
)

type FleetHandler struct {
	fleetService services.FleetService
	logger       *logger.Logger
}

func NewFleetHandler(fleetService services.FleetService, log *logger.Logger) *FleetHandler {
	return &FleetHandler{
		fleetService: fleetService,
		logger:       log,
	}
}

func (h *FleetHandler) CreateDriver(c *gin.Context) {
	var req validators.CreateDriverRequest
	if !bindJSON(c, &req) {
		return
	}

	driver, err := h.fleetService.CreateDriver(c.Request.Context(), middleware.OrganizationID(c), req.ToDriver())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Driver created successfully", driver)
}

func (h *FleetHandler) ListDrivers(c *gin.Context) {
	status := models.DriverStatus(c.Query("status"))

	drivers, err := h.fleetService.ListDrivers(c.Request.Context(), middleware.OrganizationID(c), status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Drivers retrieved successfully", drivers, &utils.Meta{Count: len(drivers)})
}

func (h *FleetHandler) GetDriver(c *gin.Context) {
	driver, err := h.fleetService.GetDriver(c.Request.Context(), middleware.OrganizationID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Driver retrieved successfully", driver)
}

// UpdateDriverStatus sets a manual driver status
func (h *FleetHandler) UpdateDriverStatus(c *gin.Context) {
	var req validators.DriverStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	driver, err := h.fleetService.UpdateDriverStatus(c.Request.Context(), middleware.OrganizationID(c), c.Param("id"), models.DriverStatus(req.Status))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Driver status updated successfully", driver)
}

func (h *FleetHandler) CreateVehicle(c *gin.Context) {
	var req validators.CreateVehicleRequest
	if !bindJSON(c, &req) {
		return
	}

	vehicle, err := h.fleetService.CreateVehicle(c.Request.Context(), middleware.OrganizationID(c), req.ToVehicle())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Vehicle created successfully", vehicle)
}

func (h *FleetHandler) ListVehicles(c *gin.Context) {
	status := models.VehicleStatus(c.Query("status"))

	vehicles, err := h.fleetService.ListVehicles(c.Request.Context(), middleware.OrganizationID(c), status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Vehicles retrieved successfully", vehicles, &utils.Meta{Count: len(vehicles)})
}

func (h *FleetHandler) GetVehicle(c *gin.Context) {
	vehicle, err := h.fleetService.GetVehicle(c.Request.Context(), middleware.OrganizationID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Vehicle retrieved successfully", vehicle)
}

func (h *FleetHandler) UpdateVehicleStatus(c *gin.Context) {
	var req validators.VehicleStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	vehicle, err := h.fleetService.UpdateVehicleStatus(c.Request.Context(), middleware.OrganizationID(c), c.Param("id"), models.VehicleStatus(req.Status))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Vehicle status updated successfully", vehicle)
}

// RegisterDevice stores the caller's push token
func (h *FleetHandler) RegisterDevice(c *gin.Context) {
	var req validators.RegisterDeviceRequest
	if !bindJSON(c, &req) {
		return
	}

	token := req.ToDeviceToken()
	token.OrganizationID = middleware.OrganizationID(c)
	token.UserID = middleware.UserID(c)

	if err := h.fleetService.RegisterDevice(c.Request.Context(), token); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Device registered successfully", token)
}
