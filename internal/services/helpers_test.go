package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fleetdesk/internal/config"
	"fleetdesk/internal/models"
	"fleetdesk/internal/repositories/interfaces"
	"fleetdesk/internal/repositories/memory"
	"fleetdesk/pkg/maps"
	"fleetdesk/pkg/messaging"
	"fleetdesk/pkg/push"
	"fleetdesk/pkg/websocket"

	"github.com/stretchr/testify/require"
)

const (
	testOrg  = "org-1"
	testUser = "dispatcher-1"
)

type fakePublisher struct {
	mu       sync.Mutex
	messages []websocket.Message
}

func (p *fakePublisher) Publish(ctx context.Context, message websocket.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message)
	return nil
}

func (p *fakePublisher) rooms() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var rooms []string
	for _, m := range p.messages {
		rooms = append(rooms, m.RoomID)
	}
	return rooms
}

type fakeWhatsApp struct {
	mu    sync.Mutex
	sent  []*messaging.TemplateMessage
	err   error
	panic bool
}

func (f *fakeWhatsApp) Name() string { return "fake" }

func (f *fakeWhatsApp) SendTemplate(ctx context.Context, message *messaging.TemplateMessage) (*messaging.MessageResponse, error) {
	if f.panic {
		panic("provider exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, message)
	return &messaging.MessageResponse{MessageID: "SM123", Status: "queued"}, nil
}

type fakePush struct {
	mu       sync.Mutex
	requests []*push.NotificationRequest
}

func (f *fakePush) SendNotification(ctx context.Context, request *push.NotificationRequest) (*push.NotificationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, request)
	return &push.NotificationResponse{Success: true, MessageID: "msg-1"}, nil
}

type harness struct {
	store     *memory.Store
	publisher *fakePublisher
	whatsapp  *fakeWhatsApp
	push      *fakePush
	notifier  NotificationEmitter
	safety    SafetyInspectionService
	routes    RouteLifecycleService
	fleet     FleetService
	now       time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		store:     memory.NewStore(),
		publisher: &fakePublisher{},
		whatsapp:  &fakeWhatsApp{},
		push:      &fakePush{},
		now:       time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}

	h.notifier = NewNotificationEmitter(NotificationEmitterConfig{
		Store:     h.store,
		Publisher: h.publisher,
		Push:      h.push,
		WhatsApp:  h.whatsapp,
		Templates: map[string]config.MessageTemplate{
			TemplateRouteAssigned:   {ContentSID: "HX-assigned", Text: "Hi {{1}}, route {{2}} with {{3}}."},
			TemplateDriverOnboarded: {ContentSID: "HX-welcome", Text: "Welcome, {{1}}!"},
		},
	})
	h.safety = NewSafetyInspectionService(h.store, nil, h.notifier, nil)
	h.routes = NewRouteLifecycleService(RouteLifecycleConfig{
		Store:    h.store,
		Safety:   h.safety,
		Notifier: h.notifier,
		Distance: maps.NewMockDistanceProvider([]maps.MockPair{
			{From: "1 Dock Rd", To: "2 Mill St", Meters: 12345},
			{From: "2 Mill St", To: "3 Harbor Ave", Meters: 5000},
		}),
	})
	h.fleet = NewFleetService(h.store, h.notifier, nil)

	svc := h.routes.(*routeLifecycleService)
	svc.now = func() time.Time { return h.now }

	return h
}

func (h *harness) seedDriver(t *testing.T, driver models.Driver) *models.Driver {
	t.Helper()
	if driver.OrganizationID == "" {
		driver.OrganizationID = testOrg
	}
	if driver.Status == "" {
		driver.Status = models.DriverStatusIdle
	}
	_, err := h.store.Create(context.Background(), interfaces.CollectionDrivers, &driver)
	require.NoError(t, err)
	return &driver
}

func (h *harness) seedVehicle(t *testing.T, vehicle models.Vehicle) *models.Vehicle {
	t.Helper()
	if vehicle.OrganizationID == "" {
		vehicle.OrganizationID = testOrg
	}
	if vehicle.Status == "" {
		vehicle.Status = models.VehicleStatusParked
	}
	_, err := h.store.Create(context.Background(), interfaces.CollectionVehicles, &vehicle)
	require.NoError(t, err)
	return &vehicle
}

func (h *harness) createRoute(t *testing.T, addresses ...string) *models.Route {
	t.Helper()
	input := &models.RouteInput{Name: "Morning run", Rate: 250}
	for _, a := range addresses {
		input.Stops = append(input.Stops, models.StopInput{Address: a})
	}
	route, err := h.routes.CreateRoute(context.Background(), testOrg, testUser, input)
	require.NoError(t, err)
	return route
}

// assignedRoute returns a route in progress together with its driver and vehicle.
func (h *harness) assignedRoute(t *testing.T, addresses ...string) (*models.Route, *models.Driver, *models.Vehicle) {
	t.Helper()
	driver := h.seedDriver(t, models.Driver{Name: "Dana", UserID: "driver-user-1", Phone: "+15551234567", WhatsAppOptIn: true})
	vehicle := h.seedVehicle(t, models.Vehicle{Plate: "AB-123"})
	route := h.createRoute(t, addresses...)

	assigned, err := h.routes.Assign(context.Background(), testOrg, route.ID, driver.ID, vehicle.ID)
	require.NoError(t, err)
	return assigned, driver, vehicle
}

func (h *harness) route(t *testing.T, id string) models.Route {
	t.Helper()
	var route models.Route
	require.NoError(t, h.store.Get(context.Background(), interfaces.CollectionRoutes, id, &route))
	return route
}

func (h *harness) driver(t *testing.T, id string) models.Driver {
	t.Helper()
	var driver models.Driver
	require.NoError(t, h.store.Get(context.Background(), interfaces.CollectionDrivers, id, &driver))
	return driver
}

func (h *harness) vehicle(t *testing.T, id string) models.Vehicle {
	t.Helper()
	var vehicle models.Vehicle
	require.NoError(t, h.store.Get(context.Background(), interfaces.CollectionVehicles, id, &vehicle))
	return vehicle
}

func (h *harness) notifications(t *testing.T, userID string) []models.Notification {
	t.Helper()
	list, err := h.notifier.ListNotifications(context.Background(), testOrg, userID, 0)
	require.NoError(t, err)
	return list
}

func allGood() models.InspectionSubmission {
	responses := make(map[string]models.InspectionResponse)
	for _, category := range models.DefaultChecklist().Categories {
		for _, item := range category.Items {
			responses[item.ID] = models.InspectionResponse{Status: models.InspectionStatusGood}
		}
	}
	return models.InspectionSubmission{Responses: responses}
}

var errBoom = errors.New("boom")
