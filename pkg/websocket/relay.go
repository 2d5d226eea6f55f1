package websocket

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// RelayChannel is the Redis pub/sub channel shared by every instance.
const RelayChannel = "fleetdesk:realtime"

// Relay forwards frames published on Redis into the local hub so a client
// connected to any instance receives them.
func (h *Hub) Relay(ctx context.Context, pubsub *redis.PubSub) {
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var message Message
			if err := json.Unmarshal([]byte(msg.Payload), &message); err != nil {
				h.logger.WithError(err).Warn("Dropping malformed realtime frame")
				continue
			}
			h.Publish(message)
		}
	}
}
