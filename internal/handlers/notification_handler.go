package handlers

import (
	"fleetdesk/internal/middleware"
	"fleetdesk/internal/services"
	"fleetdesk/internal/utils"
	"fleetdesk/pkg/logger"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notifier services.NotificationEmitter
	logger   *logger.Logger
}

func NewNotificationHandler(notifier services.NotificationEmitter, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifier: notifier,
		logger:   log,
	}
}

// ListNotifications returns the caller's newest notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	notifications, err := h.notifier.ListNotifications(c.Request.Context(), middleware.OrganizationID(c), middleware.UserID(c), queryLimit(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Notifications retrieved successfully", notifications, &utils.Meta{Count: len(notifications)})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	err := h.notifier.MarkRead(c.Request.Context(), middleware.OrganizationID(c), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Notification marked as read", nil)
}
