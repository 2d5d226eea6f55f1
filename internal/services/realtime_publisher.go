package services

import (
	"context"

	"fleetdesk/pkg/cache"
	"fleetdesk/pkg/websocket"
)

// RealtimePublisher delivers a frame to connected websocket clients.
type RealtimePublisher interface {
	Publish(ctx context.Context, message websocket.Message) error
}

type hubPublisher struct {
	hub *websocket.Hub
}

// NewHubPublisher publishes straight into the local hub. Used when Redis is
// not configured and only one instance runs.
func NewHubPublisher(hub *websocket.Hub) RealtimePublisher {
	return &hubPublisher{hub: hub}
}

func (p *hubPublisher) Publish(ctx context.Context, message websocket.Message) error {
	p.hub.Publish(message)
	return nil
}

type redisPublisher struct {
	cache *cache.RedisCache
}

// NewRedisPublisher fans frames out through Redis so every instance's hub
// relays them to its own clients.
func NewRedisPublisher(c *cache.RedisCache) RealtimePublisher {
	return &redisPublisher{cache: c}
}

func (p *redisPublisher) Publish(ctx context.Context, message websocket.Message) error {
	return p.cache.Publish(ctx, websocket.RelayChannel, message)
}
