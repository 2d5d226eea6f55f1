package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleetdesk/internal/config"
	"fleetdesk/internal/models"
	"fleetdesk/internal/repositories/interfaces"
	"fleetdesk/internal/utils"
	"fleetdesk/pkg/cache"
	"fleetdesk/pkg/logger"
	"fleetdesk/pkg/messaging"
	"fleetdesk/pkg/push"
	"fleetdesk/pkg/websocket"
)

const deviceTokenCacheTTL = 30 * time.Minute

// WhatsApp template keys
const (
	TemplateRouteAssigned   = "route_assigned"
	TemplateDriverOnboarded = "driver_onboarded"
)

type WhatsAppResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NotificationEmitter fans workflow events out to in-app notifications,
// realtime frames, mobile push and WhatsApp. Every channel is best-effort.
type NotificationEmitter interface {
	Notify(ctx context.Context, kind models.NotificationKind, userID, orgID string, payload map[string]string) error
	SendWhatsApp(ctx context.Context, phone, templateID string, params []string) *WhatsAppResult
	ListNotifications(ctx context.Context, orgID, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, orgID, userID, notificationID string) error
	RegisterDevice(ctx context.Context, token *models.DeviceToken) error
}

type NotificationEmitterConfig struct {
	Store     interfaces.ResourceStore
	Publisher RealtimePublisher
	Push      push.PushProvider
	WhatsApp  messaging.Provider
	Templates map[string]config.MessageTemplate
	Cache     *cache.RedisCache
	Logger    *logger.Logger
}

type notificationEmitter struct {
	store     interfaces.ResourceStore
	publisher RealtimePublisher
	push      push.PushProvider
	whatsapp  messaging.Provider
	templates map[string]config.MessageTemplate
	cache     *cache.RedisCache
	logger    *logger.Logger
	now       func() time.Time
}

func NewNotificationEmitter(cfg NotificationEmitterConfig) NotificationEmitter {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &notificationEmitter{
		store:     cfg.Store,
		publisher: cfg.Publisher,
		push:      cfg.Push,
		whatsapp:  cfg.WhatsApp,
		templates: cfg.Templates,
		cache:     cfg.Cache,
		logger:    log,
		now:       time.Now,
	}
}

// Notify persists the notification, publishes it to the user's room and
// pushes it to the user's device. A failing channel does not stop the
// others; the joined error is for logging only.
func (e *notificationEmitter) Notify(ctx context.Context, kind models.NotificationKind, userID, orgID string, payload map[string]string) error {
	if userID == "" {
		return fmt.Errorf("notification %s has no recipient", kind)
	}

	title, body := models.NotificationText(kind, payload)
	notification := &models.Notification{
		OrganizationID: orgID,
		UserID:         userID,
		Kind:           kind,
		Title:          title,
		Body:           body,
		Data:           payload,
		CreatedAt:      e.now(),
	}

	var errs []error

	if _, err := e.store.Create(ctx, interfaces.CollectionNotifications, notification); err != nil {
		errs = append(errs, fmt.Errorf("failed to persist notification: %w", err))
	}

	if e.publisher != nil {
		err := e.publisher.Publish(ctx, websocket.Message{
			Type:           "notification",
			RoomID:         websocket.UserRoom(userID),
			UserID:         userID,
			OrganizationID: orgID,
			Data:           notification,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to publish notification: %w", err))
		}
	}

	if e.push != nil {
		if err := e.sendPush(ctx, notification); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (e *notificationEmitter) sendPush(ctx context.Context, n *models.Notification) error {
	device, err := e.deviceToken(ctx, n.UserID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up device token: %w", err)
	}
	if device.OrganizationID != n.OrganizationID {
		return nil
	}

	data := make(map[string]string, len(n.Data)+2)
	for k, v := range n.Data {
		data[k] = v
	}
	data["kind"] = string(n.Kind)
	data["notification_id"] = n.ID

	resp, err := e.push.SendNotification(ctx, &push.NotificationRequest{
		Token:    device.Token,
		Platform: string(device.Platform),
		Title:    n.Title,
		Body:     n.Body,
		Data:     data,
	})
	if err != nil {
		return fmt.Errorf("failed to send push: %w", err)
	}
	if resp != nil && !resp.Success {
		return fmt.Errorf("push rejected: %s", resp.Error)
	}
	return nil
}

// deviceToken reads through the Redis cache when one is configured.
func (e *notificationEmitter) deviceToken(ctx context.Context, userID string) (*models.DeviceToken, error) {
	key := utils.CacheDeviceTokenPrefix + userID

	var device models.DeviceToken
	if e.cache != nil {
		if err := e.cache.Get(ctx, key, &device); err == nil {
			return &device, nil
		}
	}

	if err := e.store.Get(ctx, interfaces.CollectionDeviceTokens, userID, &device); err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, &device, deviceTokenCacheTTL); err != nil {
			e.logger.WithError(err).WithField("user_id", userID).Warn("Failed to cache device token")
		}
	}
	return &device, nil
}

func (e *notificationEmitter) RegisterDevice(ctx context.Context, token *models.DeviceToken) error {
	token.ID = token.UserID
	token.UpdatedAt = e.now()

	if _, err := e.store.Create(ctx, interfaces.CollectionDeviceTokens, token); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}

	if e.cache != nil {
		if err := e.cache.Delete(ctx, utils.CacheDeviceTokenPrefix+token.UserID); err != nil {
			e.logger.WithError(err).WithField("user_id", token.UserID).Warn("Failed to invalidate device token cache")
		}
	}
	return nil
}

// SendWhatsApp sends a template message and reports the outcome. It never
// returns an error or panics.
func (e *notificationEmitter) SendWhatsApp(ctx context.Context, phone, templateID string, params []string) (result *WhatsAppResult) {
	defer func() {
		if r := recover(); r != nil {
			result = &WhatsAppResult{Error: fmt.Sprintf("messaging provider panicked: %v", r)}
		}
	}()

	if e.whatsapp == nil {
		return &WhatsAppResult{Error: "messaging is not configured"}
	}
	if phone == "" {
		return &WhatsAppResult{Error: "recipient has no phone number"}
	}

	template, ok := e.templates[templateID]
	if !ok {
		return &WhatsAppResult{Error: fmt.Sprintf("unknown template %q", templateID)}
	}

	resp, err := e.whatsapp.SendTemplate(ctx, &messaging.TemplateMessage{
		To:         phone,
		TemplateID: template.ContentSID,
		Params:     params,
		Text:       messaging.Render(template.Text, params),
	})
	if err != nil {
		return &WhatsAppResult{Error: err.Error()}
	}
	if resp == nil {
		return &WhatsAppResult{Success: true}
	}
	if resp.Error != "" {
		return &WhatsAppResult{MessageID: resp.MessageID, Error: resp.Error}
	}
	return &WhatsAppResult{Success: true, MessageID: resp.MessageID}
}

func (e *notificationEmitter) ListNotifications(ctx context.Context, orgID, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > utils.MaxListLimit {
		limit = utils.DefaultListLimit
	}

	query := interfaces.Query{OrderBy: "created_at", Descending: true, Limit: limit}.
		Where("organization_id", orgID).
		Where("user_id", userID)

	snaps, err := e.store.List(ctx, interfaces.CollectionNotifications, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return interfaces.DecodeAll[models.Notification](snaps)
}

func (e *notificationEmitter) MarkRead(ctx context.Context, orgID, userID, notificationID string) error {
	var n models.Notification
	if err := e.store.Get(ctx, interfaces.CollectionNotifications, notificationID, &n); err != nil {
		return storeError(err, "notification", notificationID)
	}
	if n.OrganizationID != orgID || n.UserID != userID {
		return notFound("notification", notificationID)
	}
	if n.Read {
		return nil
	}
	if err := e.store.Update(ctx, interfaces.CollectionNotifications, notificationID, map[string]interface{}{"read": true}); err != nil {
		return storeError(err, "notification", notificationID)
	}
	return nil
}
