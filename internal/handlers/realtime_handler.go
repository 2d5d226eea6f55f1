package handlers

import (
	"fleetdesk/internal/middleware"
	"fleetdesk/internal/repositories/interfaces"
	"fleetdesk/internal/utils"
	"fleetdesk/pkg/logger"
	"fleetdesk/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// collections clients may subscribe to
var subscribable = map[string]bool{
	interfaces.CollectionRoutes:        true,
	interfaces.CollectionDrivers:       true,
	interfaces.CollectionVehicles:      true,
	interfaces.CollectionNotifications: true,
}

type RealtimeHandler struct {
	hub    *websocket.Hub
	store  interfaces.ResourceStore
	logger *logger.Logger
}

func NewRealtimeHandler(hub *websocket.Hub, store interfaces.ResourceStore, log *logger.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub:    hub,
		store:  store,
		logger: log,
	}
}

// Subscribe upgrades to a websocket and streams the full result set of the
// requested collection after every change. Notification frames published by
// the emitter arrive on the same connection.
func (h *RealtimeHandler) Subscribe(c *gin.Context) {
	collection := c.DefaultQuery("collection", interfaces.CollectionRoutes)
	if !subscribable[collection] {
		utils.BadRequestResponse(c, "Unsupported collection")
		return
	}

	orgID, userID := middleware.OrganizationID(c), middleware.UserID(c)
	query := interfaces.Query{}.Where("organization_id", orgID)
	if collection == interfaces.CollectionNotifications {
		query = query.Where("user_id", userID)
	}

	client, err := h.hub.Serve(c.Writer, c.Request, userID, orgID)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	updates, err := h.store.Subscribe(client.Context(), collection, query)
	if err != nil {
		h.logger.WithError(err).WithField("collection", collection).Error("Failed to subscribe")
		client.Send(websocket.Message{Type: "error", Data: "subscription failed"})
		return
	}

	go h.forward(client, collection, updates)
}

func (h *RealtimeHandler) forward(client *websocket.Client, collection string, updates <-chan interfaces.Snapshot) {
	log := h.logger.WithFields(map[string]interface{}{
		"collection":      collection,
		"user_id":         client.UserID,
		"organization_id": client.OrganizationID,
	})

	for snap := range updates {
		if snap.Err != nil {
			log.WithError(snap.Err).Warn("Subscription error")
			client.Send(websocket.Message{Type: "error", Data: "subscription interrupted"})
			continue
		}

		documents := make([]map[string]interface{}, 0, len(snap.Documents))
		for _, doc := range snap.Documents {
			data := make(map[string]interface{})
			if err := doc.DataTo(&data); err != nil {
				log.WithError(err).Warn("Failed to decode snapshot document")
				continue
			}
			delete(data, "_id")
			data["id"] = doc.ID()
			documents = append(documents, data)
		}

		client.Send(websocket.Message{
			Type:           "snapshot",
			OrganizationID: client.OrganizationID,
			Data: map[string]interface{}{
				"collection": collection,
				"documents":  documents,
			},
		})
	}
}
