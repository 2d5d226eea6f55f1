package websocket

import (
	"fmt"
	"net/http"
)

// Serve upgrades the request, registers the connection with the hub and
// starts its pumps. The returned client lets callers push frames to it.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID, orgID string) (*Client, error) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket upgrade failed: %w", err)
	}

	client := newClient(h, conn, userID, orgID)
	h.register <- client

	go client.writePump()
	go client.readPump()

	return client, nil
}
