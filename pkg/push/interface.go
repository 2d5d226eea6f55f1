package push

import (
	"context"
	"fmt"
)

type PushProvider interface {
	SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error)
}

type NotificationRequest struct {
	Token    string            `json:"token"`
	Platform string            `json:"platform"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
}

type NotificationResponse struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Token     string `json:"token,omitempty"`
}

// Router picks a provider by the device platform. iOS devices fall back
// to FCM when no APNs provider is configured.
type Router struct {
	Android PushProvider
	IOS     PushProvider
}

func (r *Router) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	provider := r.Android
	if request.Platform == "ios" && r.IOS != nil {
		provider = r.IOS
	}
	if provider == nil {
		return nil, fmt.Errorf("no push provider for platform %q", request.Platform)
	}
	return provider.SendNotification(ctx, request)
}
