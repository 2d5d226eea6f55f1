package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"fleetdesk/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(logger.Discard(), nil)
	go hub.Run(ctx)
	return hub
}

func readFrame(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return Message{}
	}
}

func TestHubDeliversToUserRoomOnly(t *testing.T) {
	hub := startHub(t)

	alice := newClient(hub, nil, "u-1", "org-1")
	bob := newClient(hub, nil, "u-2", "org-1")
	hub.register <- alice
	hub.register <- bob

	hub.Publish(Message{Type: "route_assigned", RoomID: UserRoom("u-1"), Data: map[string]string{"route_id": "r-1"}})

	msg := readFrame(t, alice)
	assert.Equal(t, "route_assigned", msg.Type)
	assert.NotZero(t, msg.Timestamp)

	select {
	case <-bob.send:
		t.Fatal("bob should not receive alice's frame")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubOrganizationRoom(t *testing.T) {
	hub := startHub(t)

	a := newClient(hub, nil, "u-1", "org-1")
	b := newClient(hub, nil, "u-2", "org-1")
	hub.register <- a
	hub.register <- b

	assert.Eventually(t, func() bool { return hub.RoomSize(OrganizationRoom("org-1")) == 2 }, time.Second, 10*time.Millisecond)

	hub.Publish(Message{Type: "ping", RoomID: OrganizationRoom("org-1")})
	readFrame(t, a)
	readFrame(t, b)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := startHub(t)

	c := newClient(hub, nil, "u-1", "")
	hub.register <- c
	hub.unregister <- c

	assert.Eventually(t, func() bool {
		_, ok := <-c.send
		return !ok
	}, time.Second, 10*time.Millisecond)
	assert.False(t, c.Send(Message{Type: "late"}))
}

func TestRelayForwardsRedisFrames(t *testing.T) {
	hub := startHub(t)
	c := newClient(hub, nil, "u-9", "")
	hub.register <- c

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := rdb.Subscribe(ctx, RelayChannel)
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)
	go hub.Relay(ctx, pubsub)

	payload, _ := json.Marshal(Message{Type: "route_completed", RoomID: UserRoom("u-9")})
	require.NoError(t, rdb.Publish(ctx, RelayChannel, payload).Err())

	msg := readFrame(t, c)
	assert.Equal(t, "route_completed", msg.Type)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.fleetdesk.io"})

	allowed, _ := http.NewRequest(http.MethodGet, "/ws", nil)
	allowed.Header.Set("Origin", "https://app.fleetdesk.io")
	assert.True(t, check(allowed))

	denied, _ := http.NewRequest(http.MethodGet, "/ws", nil)
	denied.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(denied))

	assert.True(t, originChecker(nil)(denied))
}
