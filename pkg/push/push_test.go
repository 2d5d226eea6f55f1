package push

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProvider struct {
	name string
	got  []*NotificationRequest
}

func (r *recordingProvider) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	r.got = append(r.got, request)
	return &NotificationResponse{Success: true, MessageID: r.name, Token: request.Token}, nil
}

func TestRouterPicksProviderByPlatform(t *testing.T) {
	android := &recordingProvider{name: "fcm"}
	ios := &recordingProvider{name: "apns"}
	router := &Router{Android: android, IOS: ios}

	resp, err := router.SendNotification(context.Background(), &NotificationRequest{Token: "t1", Platform: "ios"})
	require.NoError(t, err)
	assert.Equal(t, "apns", resp.MessageID)

	resp, err = router.SendNotification(context.Background(), &NotificationRequest{Token: "t2", Platform: "android"})
	require.NoError(t, err)
	assert.Equal(t, "fcm", resp.MessageID)
}

func TestRouterFallsBackToFCMForIOS(t *testing.T) {
	android := &recordingProvider{name: "fcm"}
	router := &Router{Android: android}

	resp, err := router.SendNotification(context.Background(), &NotificationRequest{Token: "t1", Platform: "ios"})
	require.NoError(t, err)
	assert.Equal(t, "fcm", resp.MessageID)
}

func TestRouterWithoutProviders(t *testing.T) {
	_, err := (&Router{}).SendNotification(context.Background(), &NotificationRequest{Platform: "android"})
	assert.Error(t, err)
}

func TestBuildFCMMessage(t *testing.T) {
	msg := buildFCMMessage(&NotificationRequest{Token: "t", Platform: "ios", Title: "Hi", Body: "There", Data: map[string]string{"route_id": "r1"}})

	assert.Equal(t, "t", msg.Token)
	assert.Equal(t, "r1", msg.Data["route_id"])
	require.NotNil(t, msg.APNS)
	assert.Equal(t, "Hi", msg.APNS.Payload.Aps.Alert.Title)
}
