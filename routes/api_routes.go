package routes

import (
	"fleetdesk/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupRouteRoutes sets up the route lifecycle endpoints
func SetupRouteRoutes(r *gin.RouterGroup, routeHandler *handlers.RouteHandler) {
	routes := r.Group("/routes")
	{
		routes.POST("", routeHandler.CreateRoute)
		routes.GET("", routeHandler.ListRoutes)
		routes.GET("/:id", routeHandler.GetRoute)
		routes.PATCH("/:id", routeHandler.EditRoute)
		routes.DELETE("/:id", routeHandler.DeleteRoute)

		// Workflow
		routes.POST("/:id/assign", routeHandler.AssignRoute)
		routes.POST("/:id/start", routeHandler.StartRoute)
		routes.POST("/:id/complete", routeHandler.CompleteRoute)
		routes.POST("/:id/expenses", routeHandler.AddExpense)

		// Stops
		routes.PATCH("/:id/stops/:stop_id", routeHandler.UpdateStop)
		routes.POST("/:id/stops/:stop_id/pod", routeHandler.SubmitPOD)
		routes.POST("/:id/stops/:stop_id/photo", routeHandler.UploadPODPhoto)
	}
}

// SetupFleetRoutes sets up driver, vehicle and device endpoints
func SetupFleetRoutes(r *gin.RouterGroup, fleetHandler *handlers.FleetHandler) {
	drivers := r.Group("/drivers")
	{
		drivers.POST("", fleetHandler.CreateDriver)
		drivers.GET("", fleetHandler.ListDrivers)
		drivers.GET("/:id", fleetHandler.GetDriver)
		drivers.PATCH("/:id/status", fleetHandler.UpdateDriverStatus)
	}

	vehicles := r.Group("/vehicles")
	{
		vehicles.POST("", fleetHandler.CreateVehicle)
		vehicles.GET("", fleetHandler.ListVehicles)
		vehicles.GET("/:id", fleetHandler.GetVehicle)
		vehicles.PATCH("/:id/status", fleetHandler.UpdateVehicleStatus)
	}

	r.POST("/devices", fleetHandler.RegisterDevice)
}

func SetupSafetyRoutes(r *gin.RouterGroup, safetyHandler *handlers.SafetyHandler) {
	safety := r.Group("/safety")
	{
		safety.GET("/checklist", safetyHandler.GetChecklist)
		safety.GET("/inspections/:id", safetyHandler.GetInspection)
	}
}

func SetupNotificationRoutes(r *gin.RouterGroup, notificationHandler *handlers.NotificationHandler) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", notificationHandler.ListNotifications)
		notifications.PATCH("/:id/read", notificationHandler.MarkRead)
	}
}

// SetupRealtimeRoutes mounts the websocket endpoint at path
func SetupRealtimeRoutes(r *gin.RouterGroup, path string, realtimeHandler *handlers.RealtimeHandler) {
	r.GET(path, realtimeHandler.Subscribe)
}
