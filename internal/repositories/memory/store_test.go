package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleetdesk/internal/models"
	"fleetdesk/internal/repositories/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	id, err := store.Create(ctx, interfaces.CollectionDrivers, &models.Driver{
		OrganizationID: "org-1",
		Name:           "Dana",
		Status:         models.DriverStatusIdle,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var driver models.Driver
	require.NoError(t, store.Get(ctx, interfaces.CollectionDrivers, id, &driver))
	assert.Equal(t, id, driver.ID)
	assert.Equal(t, "Dana", driver.Name)

	require.NoError(t, store.Update(ctx, interfaces.CollectionDrivers, id, map[string]interface{}{
		"status":           models.DriverStatusOnRoute,
		"current_route_id": "r-1",
	}))
	require.NoError(t, store.Get(ctx, interfaces.CollectionDrivers, id, &driver))
	assert.Equal(t, models.DriverStatusOnRoute, driver.Status)
	assert.Equal(t, "r-1", driver.CurrentRouteID)
	assert.Equal(t, "Dana", driver.Name)

	require.NoError(t, store.Delete(ctx, interfaces.CollectionDrivers, id))
	assert.ErrorIs(t, store.Get(ctx, interfaces.CollectionDrivers, id, &driver), interfaces.ErrNotFound)
}

func TestMissingDocumentsAreNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	assert.ErrorIs(t, store.Update(ctx, interfaces.CollectionRoutes, "nope", map[string]interface{}{"name": "x"}), interfaces.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, interfaces.CollectionRoutes, "nope"), interfaces.ErrNotFound)
}

func TestCreateKeepsPresetID(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	id, err := store.Create(ctx, interfaces.CollectionDeviceTokens, &models.DeviceToken{ID: "user-1", Token: "a"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	_, err = store.Create(ctx, interfaces.CollectionDeviceTokens, &models.DeviceToken{ID: "user-1", Token: "b"})
	require.NoError(t, err)

	var token models.DeviceToken
	require.NoError(t, store.Get(ctx, interfaces.CollectionDeviceTokens, "user-1", &token))
	assert.Equal(t, "b", token.Token)
}

func TestListFiltersSortsAndLimits(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	for _, r := range []models.Route{
		{OrganizationID: "org-1", Name: "b", Status: models.RouteStatusPending},
		{OrganizationID: "org-1", Name: "a", Status: models.RouteStatusPending},
		{OrganizationID: "org-1", Name: "c", Status: models.RouteStatusCompleted},
		{OrganizationID: "org-2", Name: "d", Status: models.RouteStatusPending},
	} {
		route := r
		_, err := store.Create(ctx, interfaces.CollectionRoutes, &route)
		require.NoError(t, err)
	}

	query := interfaces.Query{OrderBy: "name"}.
		Where("organization_id", "org-1").
		Where("status", models.RouteStatusPending)

	snaps, err := store.List(ctx, interfaces.CollectionRoutes, query)
	require.NoError(t, err)

	routes, err := interfaces.DecodeAll[models.Route](snaps)
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, "a", routes[0].Name)
	assert.Equal(t, "b", routes[1].Name)
	assert.NotEmpty(t, routes[0].ID)

	query.Descending = true
	query.Limit = 1
	snaps, err = store.List(ctx, interfaces.CollectionRoutes, query)
	require.NoError(t, err)
	routes, err = interfaces.DecodeAll[models.Route](snaps)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "b", routes[0].Name)
}

func TestTransactionCommitsAllWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	routeID, _ := store.Create(ctx, interfaces.CollectionRoutes, &models.Route{Status: models.RouteStatusPending})
	driverID, _ := store.Create(ctx, interfaces.CollectionDrivers, &models.Driver{Status: models.DriverStatusIdle})

	err := store.RunTransaction(ctx, func(ctx context.Context, tx interfaces.Transaction) error {
		var route models.Route
		if err := tx.Get(interfaces.CollectionRoutes, routeID, &route); err != nil {
			return err
		}
		if err := tx.Update(interfaces.CollectionRoutes, routeID, map[string]interface{}{"status": models.RouteStatusInProgress}); err != nil {
			return err
		}
		return tx.Update(interfaces.CollectionDrivers, driverID, map[string]interface{}{"status": models.DriverStatusOnRoute})
	})
	require.NoError(t, err)

	var route models.Route
	var driver models.Driver
	require.NoError(t, store.Get(ctx, interfaces.CollectionRoutes, routeID, &route))
	require.NoError(t, store.Get(ctx, interfaces.CollectionDrivers, driverID, &driver))
	assert.Equal(t, models.RouteStatusInProgress, route.Status)
	assert.Equal(t, models.DriverStatusOnRoute, driver.Status)
}

func TestTransactionRollsBackOnFault(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	routeID, _ := store.Create(ctx, interfaces.CollectionRoutes, &models.Route{Status: models.RouteStatusPending})
	driverID, _ := store.Create(ctx, interfaces.CollectionDrivers, &models.Driver{Status: models.DriverStatusIdle})

	boom := errors.New("disk full")
	store.InjectFault(interfaces.CollectionDrivers, boom)

	err := store.RunTransaction(ctx, func(ctx context.Context, tx interfaces.Transaction) error {
		if err := tx.Update(interfaces.CollectionRoutes, routeID, map[string]interface{}{"status": models.RouteStatusInProgress}); err != nil {
			return err
		}
		var route models.Route
		if err := tx.Get(interfaces.CollectionRoutes, routeID, &route); err != nil {
			return err
		}
		assert.Equal(t, models.RouteStatusInProgress, route.Status)
		return tx.Update(interfaces.CollectionDrivers, driverID, map[string]interface{}{"status": models.DriverStatusOnRoute})
	})
	require.ErrorIs(t, err, boom)

	var route models.Route
	require.NoError(t, store.Get(ctx, interfaces.CollectionRoutes, routeID, &route))
	assert.Equal(t, models.RouteStatusPending, route.Status)

	// the fault is consumed by the failed write
	require.NoError(t, store.Update(ctx, interfaces.CollectionDrivers, driverID, map[string]interface{}{"name": "ok"}))
}

func TestTransactionDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	routeID, _ := store.Create(ctx, interfaces.CollectionRoutes, &models.Route{Status: models.RouteStatusPending})

	err := store.RunTransaction(ctx, func(ctx context.Context, tx interfaces.Transaction) error {
		if err := tx.Delete(interfaces.CollectionRoutes, routeID); err != nil {
			return err
		}
		var route models.Route
		assert.ErrorIs(t, tx.Get(interfaces.CollectionRoutes, routeID, &route), interfaces.ErrNotFound)
		assert.ErrorIs(t, tx.Delete(interfaces.CollectionRoutes, routeID), interfaces.ErrNotFound)
		return nil
	})
	require.NoError(t, err)

	var route models.Route
	assert.ErrorIs(t, store.Get(ctx, interfaces.CollectionRoutes, routeID, &route), interfaces.ErrNotFound)
}

func TestTransactionDeleteRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	routeID, _ := store.Create(ctx, interfaces.CollectionRoutes, &models.Route{Status: models.RouteStatusPending})
	boom := errors.New("abort")

	err := store.RunTransaction(ctx, func(ctx context.Context, tx interfaces.Transaction) error {
		if err := tx.Delete(interfaces.CollectionRoutes, routeID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var route models.Route
	require.NoError(t, store.Get(ctx, interfaces.CollectionRoutes, routeID, &route))
	assert.Equal(t, models.RouteStatusPending, route.Status)
}

func TestListOrdersTimestampsChronologically(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	// encoded as "...08:00:00Z", "...08:00:00.5Z" and "...08:00:00.25Z"
	for name, offset := range map[string]time.Duration{
		"whole":   0,
		"half":    500 * time.Millisecond,
		"quarter": 250 * time.Millisecond,
	} {
		_, err := store.Create(ctx, interfaces.CollectionRoutes, &models.Route{
			OrganizationID: "org-1",
			Name:           name,
			CreatedAt:      base.Add(offset),
		})
		require.NoError(t, err)
	}

	snaps, err := store.List(ctx, interfaces.CollectionRoutes, interfaces.Query{OrderBy: "created_at"})
	require.NoError(t, err)
	routes, err := interfaces.DecodeAll[models.Route](snaps)
	require.NoError(t, err)

	var names []string
	for _, route := range routes {
		names = append(names, route.Name)
	}
	assert.Equal(t, []string{"whole", "quarter", "half"}, names)
}

func TestSubscribeDeliversInitialAndChangedSets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewStore()

	ch, err := store.Subscribe(ctx, interfaces.CollectionVehicles, interfaces.Query{}.Where("organization_id", "org-1"))
	require.NoError(t, err)

	first := receive(t, ch)
	assert.Empty(t, first.Documents)

	_, err = store.Create(ctx, interfaces.CollectionVehicles, &models.Vehicle{OrganizationID: "org-1", Plate: "AB-123"})
	require.NoError(t, err)

	second := receive(t, ch)
	require.Len(t, second.Documents, 1)
	vehicles, err := interfaces.DecodeAll[models.Vehicle](second.Documents)
	require.NoError(t, err)
	assert.Equal(t, "AB-123", vehicles[0].Plate)

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestSubscribeKeepsOnlyLatestForSlowReaders(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewStore()

	ch, err := store.Subscribe(ctx, interfaces.CollectionVehicles, interfaces.Query{})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := store.Create(ctx, interfaces.CollectionVehicles, &models.Vehicle{Plate: "P"})
		require.NoError(t, err)
	}

	snap := receive(t, ch)
	assert.Len(t, snap.Documents, 3)
}

func receive(t *testing.T, ch <-chan interfaces.Snapshot) interfaces.Snapshot {
	t.Helper()
	select {
	case snap := <-ch:
		require.NoError(t, snap.Err)
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return interfaces.Snapshot{}
	}
}
