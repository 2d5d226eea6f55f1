package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"fleetdesk/internal/models"
	"fleetdesk/internal/repositories/interfaces"
	"fleetdesk/internal/utils"
	"fleetdesk/pkg/logger"
	"fleetdesk/pkg/maps"

	"github.com/google/uuid"
)

// RouteLifecycleService enforces the route state machine and keeps the
// route, its driver and its vehicle consistent. Every multi-document write
// runs in one store transaction; notifications follow the commit and never
// fail the operation.
type RouteLifecycleService interface {
	CreateRoute(ctx context.Context, orgID, userID string, input *models.RouteInput) (*models.Route, error)
	GetRoute(ctx context.Context, orgID, routeID string) (*models.Route, error)
	ListRoutes(ctx context.Context, orgID string, status models.RouteStatus) ([]models.Route, error)
	EditRoute(ctx context.Context, orgID, routeID string, edit *models.RouteEdit) (*models.Route, error)
	DeleteRoute(ctx context.Context, orgID, routeID string) error

	Assign(ctx context.Context, orgID, routeID, driverID, vehicleID string) (*models.Route, error)
	StartRoute(ctx context.Context, orgID, routeID string, submission models.InspectionSubmission) (*StartRouteResult, error)
	UpdateStop(ctx context.Context, orgID, routeID, stopID string, status models.StopStatus, notes string) (*StopUpdateResult, error)
	SubmitPOD(ctx context.Context, orgID, routeID, stopID string, pod models.PODData) (*StopUpdateResult, error)
	CompleteRoute(ctx context.Context, orgID, routeID string) (*models.Route, error)
	AddExpense(ctx context.Context, orgID, routeID string, expense models.Expense) (*models.Route, error)
}

type StopUpdateResult struct {
	Route         *models.Route `json:"route"`
	Stop          models.Stop   `json:"stop"`
	AutoCompleted bool          `json:"auto_completed"`
	// RequiresManualCompletion is set when every stop is resolved but a
	// failed stop keeps the route from completing on its own.
	RequiresManualCompletion bool `json:"requires_manual_completion"`
}

type StartRouteResult struct {
	Route      *models.Route            `json:"route"`
	Inspection *models.SafetyInspection `json:"inspection"`
	Warnings   []string                 `json:"warnings,omitempty"`
}

type RouteLifecycleConfig struct {
	Store    interfaces.ResourceStore
	Safety   SafetyInspectionService
	Notifier NotificationEmitter
	Distance maps.DistanceProvider
	Locker   RouteLocker
	Logger   *logger.Logger
}

type routeLifecycleService struct {
	store    interfaces.ResourceStore
	safety   SafetyInspectionService
	notifier NotificationEmitter
	distance maps.DistanceProvider
	locker   RouteLocker
	logger   *logger.Logger
	now      func() time.Time
	newID    func() string
}

func NewRouteLifecycleService(cfg RouteLifecycleConfig) RouteLifecycleService {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &routeLifecycleService{
		store:    cfg.Store,
		safety:   cfg.Safety,
		notifier: cfg.Notifier,
		distance: cfg.Distance,
		locker:   cfg.Locker,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

func (s *routeLifecycleService) CreateRoute(ctx context.Context, orgID, userID string, input *models.RouteInput) (*models.Route, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: route name is required", ErrInvalidInput)
	}

	now := s.now()
	route := &models.Route{
		OrganizationID: orgID,
		Name:           strings.TrimSpace(input.Name),
		ClientID:       input.ClientID,
		Notes:          input.Notes,
		Status:         models.RouteStatusPending,
		Progress:       0,
		Rate:           input.Rate,
		Distance:       input.Distance,
		Stops:          models.BuildStops(input.Stops, s.newID),
		Expenses:       []models.Expense{},
		ScheduledDate:  input.ScheduledDate,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
		Version:        1,
	}

	if route.Distance == 0 {
		route.Distance = s.estimateDistance(ctx, route.Stops)
	}

	id, err := s.store.Create(ctx, interfaces.CollectionRoutes, route)
	if err != nil {
		return nil, fmt.Errorf("failed to create route: %w", err)
	}
	route.ID = id

	s.logger.WithContext(ctx).LogRouteEvent(id, "created", map[string]interface{}{"stops": len(route.Stops)})
	return route, nil
}

// estimateDistance asks the distance provider for the driving distance
// through the stops in order. It returns 0 when no estimate is available.
func (s *routeLifecycleService) estimateDistance(ctx context.Context, stops []models.Stop) float64 {
	if s.distance == nil || len(stops) < 2 {
		return 0
	}

	addresses := make([]string, 0, len(stops))
	for _, stop := range stops {
		addresses = append(addresses, stop.Address)
	}

	km, err := maps.RouteDistanceKM(ctx, s.distance, addresses)
	if err != nil {
		s.logger.WithContext(ctx).LogSideEffectFailure("distance_estimate", err, nil)
		return 0
	}
	return math.Round(km*10) / 10
}

func (s *routeLifecycleService) GetRoute(ctx context.Context, orgID, routeID string) (*models.Route, error) {
	var route models.Route
	if err := s.store.Get(ctx, interfaces.CollectionRoutes, routeID, &route); err != nil {
		return nil, storeError(err, "route", routeID)
	}
	if route.OrganizationID != orgID {
		return nil, notFound("route", routeID)
	}
	return &route, nil
}

func (s *routeLifecycleService) ListRoutes(ctx context.Context, orgID string, status models.RouteStatus) ([]models.Route, error) {
	query := interfaces.Query{OrderBy: "created_at", Descending: true, Limit: utils.MaxListLimit}.
		Where("organization_id", orgID)
	if status != "" {
		query = query.Where("status", status)
	}

	snaps, err := s.store.List(ctx, interfaces.CollectionRoutes, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	return interfaces.DecodeAll[models.Route](snaps)
}

func (s *routeLifecycleService) EditRoute(ctx context.Context, orgID, routeID string, edit *models.RouteEdit) (*models.Route, error) {
	var route *models.Route

	err := s.mutate(ctx, routeID, func(ctx context.Context, tx interfaces.Transaction) error {
		current, err := getRoute(tx, orgID, routeID)
		if err != nil {
			return err
		}
		if !current.IsEditable() {
			return fmt.Errorf("%w: route is %s and can no longer be edited", ErrPolicyViolation, current.Status)
		}
		if edit.ExpectedVersion != nil && *edit.ExpectedVersion != current.Version {
			return fmt.Errorf("%w: route was modified (version %d, expected %d)", ErrConflict, current.Version, *edit.ExpectedVersion)
		}

		now := s.now()
		fields := map[string]interface{}{
			"updated_at": now,
			"version":    current.Version + 1,
		}
		if edit.Name != nil {
			name := strings.TrimSpace(*edit.Name)
			if name == "" {
				return fmt.Errorf("%w: route name is required", ErrInvalidInput)
			}
			current.Name = name
			fields["name"] = name
		}
		if edit.ClientID != nil {
			current.ClientID = *edit.ClientID
			fields["client_id"] = *edit.ClientID
		}
		if edit.Notes != nil {
			current.Notes = *edit.Notes
			fields["notes"] = *edit.Notes
		}
		if edit.Rate != nil {
			current.Rate = *edit.Rate
			fields["rate"] = *edit.Rate
		}
		if edit.Distance != nil {
			current.Distance = *edit.Distance
			fields["distance"] = *edit.Distance
		}
		if edit.ScheduledDate != nil {
			current.ScheduledDate = edit.ScheduledDate
			fields["scheduled_date"] = *edit.ScheduledDate
		}
		if edit.Stops != nil {
			current.Stops = models.BuildStops(edit.Stops, s.newID)
			fields["stops"] = current.Stops
		}

		current.UpdatedAt = now
		current.Version++
		route = current
		return tx.Update(interfaces.CollectionRoutes, routeID, fields)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).LogRouteEvent(routeID, "edited", map[string]interface{}{"version": route.Version})
	return route, nil
}

// DeleteRoute removes a Pending route. The status check and the delete share
// one transaction, so a concurrent assignment either lands first and blocks
// the delete or finds the route gone.
func (s *routeLifecycleService) DeleteRoute(ctx context.Context, orgID, routeID string) error {
	err := s.mutate(ctx, routeID, func(ctx context.Context, tx interfaces.Transaction) error {
		current, err := getRoute(tx, orgID, routeID)
		if err != nil {
			return err
		}
		if !current.IsEditable() {
			return fmt.Errorf("%w: route is %s and can no longer be deleted", ErrPolicyViolation, current.Status)
		}
		if err := tx.Delete(interfaces.CollectionRoutes, routeID); err != nil {
			return storeError(err, "route", routeID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.WithContext(ctx).LogRouteEvent(routeID, "deleted", nil)
	return nil
}

// Assign moves a Pending route to In Progress with the given driver and
// vehicle. Preconditions are checked inside the transaction, so a rejected
// assignment writes nothing.
func (s *routeLifecycleService) Assign(ctx context.Context, orgID, routeID, driverID, vehicleID string) (*models.Route, error) {
	var (
		route   *models.Route
		driver  models.Driver
		vehicle models.Vehicle
	)

	err := s.mutate(ctx, routeID, func(ctx context.Context, tx interfaces.Transaction) error {
		current, err := getRoute(tx, orgID, routeID)
		if err != nil {
			return err
		}
		if err := getScoped(tx, interfaces.CollectionDrivers, "driver", orgID, driverID, &driver, func() string { return driver.OrganizationID }); err != nil {
			return err
		}
		if err := getScoped(tx, interfaces.CollectionVehicles, "vehicle", orgID, vehicleID, &vehicle, func() string { return vehicle.OrganizationID }); err != nil {
			return err
		}

		if !models.CanTransition(current.Status, models.RouteStatusInProgress) {
			return fmt.Errorf("%w: route is %s, only Pending routes can be assigned", ErrPrecondition, current.Status)
		}
		if !driver.IsAssignable() {
			return fmt.Errorf("%w: driver %s is %s", ErrPrecondition, driver.Name, driver.Status)
		}
		if !vehicle.IsAssignable() {
			return fmt.Errorf("%w: vehicle %s is %s", ErrPrecondition, vehicle.Plate, vehicle.Status)
		}

		now := s.now()
		err = tx.Update(interfaces.CollectionRoutes, routeID, map[string]interface{}{
			"status":        models.RouteStatusInProgress,
			"progress":      models.AssignedRouteProgress,
			"driver_id":     driver.ID,
			"driver_name":   driver.Name,
			"vehicle_id":    vehicle.ID,
			"vehicle_plate": vehicle.Plate,
			"assigned_at":   now,
			"updated_at":    now,
			"version":       current.Version + 1,
		})
		if err != nil {
			return err
		}
		err = tx.Update(interfaces.CollectionDrivers, driver.ID, map[string]interface{}{
			"status":               models.DriverStatusOnRoute,
			"current_route_id":     routeID,
			"current_route_status": models.RouteStatusInProgress,
			"updated_at":           now,
		})
		if err != nil {
			return err
		}
		err = tx.Update(interfaces.CollectionVehicles, vehicle.ID, map[string]interface{}{
			"status":               models.VehicleStatusOnTheMove,
			"current_route_id":     routeID,
			"current_route_status": models.RouteStatusInProgress,
			"updated_at":           now,
		})
		if err != nil {
			return err
		}

		current.Status = models.RouteStatusInProgress
		current.Progress = models.AssignedRouteProgress
		current.DriverID, current.DriverName = driver.ID, driver.Name
		current.VehicleID, current.VehiclePlate = vehicle.ID, vehicle.Plate
		current.AssignedAt = &now
		current.UpdatedAt = now
		current.Version++
		route = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).LogRouteEvent(routeID, "assigned", map[string]interface{}{
		"driver_id":  driver.ID,
		"vehicle_id": vehicle.ID,
	})
	s.announceAssignment(ctx, route, &driver)
	return route, nil
}

func (s *routeLifecycleService) announceAssignment(ctx context.Context, route *models.Route, driver *models.Driver) {
	if s.notifier == nil {
		return
	}
	log := s.logger.WithContext(ctx).WithRouteID(route.ID)

	err := s.notifier.Notify(ctx, models.NotificationKindRouteAssigned, driverUserID(driver), route.OrganizationID, map[string]string{
		"route_id":      route.ID,
		"route_name":    route.Name,
		"vehicle_plate": route.VehiclePlate,
	})
	if err != nil {
		log.LogSideEffectFailure("notification", err, map[string]interface{}{
			"driver_id": driver.ID,
			"kind":      models.NotificationKindRouteAssigned,
		})
	}

	if !driver.WhatsAppOptIn || driver.Phone == "" {
		return
	}
	result := s.notifier.SendWhatsApp(ctx, driver.Phone, TemplateRouteAssigned, []string{driver.Name, route.Name, route.VehiclePlate})
	if !result.Success {
		log.LogSideEffectFailure("whatsapp", errors.New(result.Error), map[string]interface{}{"driver_id": driver.ID})
	}
}

// StartRoute records the pre-trip inspection and marks the route started.
// Critical findings are returned as warnings and do not block the start.
func (s *routeLifecycleService) StartRoute(ctx context.Context, orgID, routeID string, submission models.InspectionSubmission) (*StartRouteResult, error) {
	var (
		route      *models.Route
		inspection *models.SafetyInspection
	)

	err := s.mutate(ctx, routeID, func(ctx context.Context, tx interfaces.Transaction) error {
		current, err := getRoute(tx, orgID, routeID)
		if err != nil {
			return err
		}
		if current.Status != models.RouteStatusInProgress {
			return fmt.Errorf("%w: route is %s, only assigned routes can be started", ErrPrecondition, current.Status)
		}
		if current.StartedAt != nil || current.PreTripInspectionID != "" {
			return fmt.Errorf("%w: route has already been started", ErrPrecondition)
		}

		now := s.now()
		built, err := s.safety.BuildInspection(current, submission, now)
		if err != nil {
			return err
		}
		built.ID = s.newID()

		if _, err := tx.Create(interfaces.CollectionSafetyInspections, built); err != nil {
			return err
		}
		err = tx.Update(interfaces.CollectionRoutes, routeID, map[string]interface{}{
			"pre_trip_inspection_id": built.ID,
			"started_at":             now,
			"safety_warning":         built.HasCriticalIssues,
			"updated_at":             now,
			"version":                current.Version + 1,
		})
		if err != nil {
			return err
		}

		current.PreTripInspectionID = built.ID
		current.StartedAt = &now
		current.SafetyWarning = built.HasCriticalIssues
		current.UpdatedAt = now
		current.Version++
		route, inspection = current, built
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).LogRouteEvent(routeID, "started", map[string]interface{}{
		"inspection_id":       inspection.ID,
		"has_critical_issues": inspection.HasCriticalIssues,
	})

	warnings := s.safety.ApplySideEffects(ctx, inspection)
	s.notifyCreator(ctx, route, models.NotificationKindRouteStarted)

	return &StartRouteResult{Route: route, Inspection: inspection, Warnings: warnings}, nil
}

func (s *routeLifecycleService) UpdateStop(ctx context.Context, orgID, routeID, stopID string, status models.StopStatus, notes string) (*StopUpdateResult, error) {
	return s.changeStop(ctx, orgID, routeID, stopID, func(stop models.Stop, now time.Time) (models.Stop, bool, error) {
		updated, err := models.ApplyStopTransition(stop, status, notes, now)
		return updated, false, err
	})
}

// SubmitPOD completes a stop with its proof of delivery. Submitting the
// same proof again for a completed stop succeeds without writing.
func (s *routeLifecycleService) SubmitPOD(ctx context.Context, orgID, routeID, stopID string, pod models.PODData) (*StopUpdateResult, error) {
	return s.changeStop(ctx, orgID, routeID, stopID, func(stop models.Stop, now time.Time) (models.Stop, bool, error) {
		updated, err := models.ApplyPOD(stop, pod, now)
		if err != nil {
			return stop, false, err
		}
		unchanged := stop.Status == models.StopStatusCompleted &&
			updated.RecipientName == stop.RecipientName &&
			updated.DeliveryNotes == stop.DeliveryNotes &&
			updated.PODPhotoURL == stop.PODPhotoURL
		return updated, unchanged, nil
	})
}

type stopChange func(stop models.Stop, now time.Time) (updated models.Stop, unchanged bool, err error)

func (s *routeLifecycleService) changeStop(ctx context.Context, orgID, routeID, stopID string, change stopChange) (*StopUpdateResult, error) {
	result := &StopUpdateResult{}

	err := s.mutate(ctx, routeID, func(ctx context.Context, tx interfaces.Transaction) error {
		current, err := getRoute(tx, orgID, routeID)
		if err != nil {
			return err
		}
		idx := current.FindStop(stopID)
		if idx < 0 {
			return notFound("stop", stopID)
		}

		now := s.now()
		updated, unchanged, err := change(current.Stops[idx], now)
		if err != nil {
			return fmt.Errorf("stop %s: %w", stopID, err)
		}
		if unchanged {
			result.Route, result.Stop = current, updated
			result.RequiresManualCompletion = current.Status == models.RouteStatusInProgress && models.NeedsManualCompletion(current.Stops)
			return nil
		}
		if current.Status != models.RouteStatusInProgress {
			return fmt.Errorf("%w: route is %s, stops can only change while In Progress", ErrPrecondition, current.Status)
		}

		stops := make([]models.Stop, len(current.Stops))
		copy(stops, current.Stops)
		stops[idx] = updated
		result.Stop = updated

		if models.IsRouteComplete(stops) {
			completed, err := s.completeTx(tx, current, stops, now, false)
			if err != nil {
				return err
			}
			result.Route = completed
			result.AutoCompleted = true
			return nil
		}

		progress := models.ComputeProgress(stops)
		err = tx.Update(interfaces.CollectionRoutes, routeID, map[string]interface{}{
			"stops":      stops,
			"progress":   progress,
			"updated_at": now,
			"version":    current.Version + 1,
		})
		if err != nil {
			return err
		}

		current.Stops = stops
		current.Progress = progress
		current.UpdatedAt = now
		current.Version++
		result.Route = current
		result.RequiresManualCompletion = models.NeedsManualCompletion(stops)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.AutoCompleted {
		s.logger.WithContext(ctx).LogRouteEvent(routeID, "completed", map[string]interface{}{"trigger": "last_stop"})
		s.notifyCreator(ctx, result.Route, models.NotificationKindRouteCompleted)
	}
	return result, nil
}

// CompleteRoute closes a route by hand. It is refused while any stop is
// still pending or arrived.
func (s *routeLifecycleService) CompleteRoute(ctx context.Context, orgID, routeID string) (*models.Route, error) {
	var route *models.Route

	err := s.mutate(ctx, routeID, func(ctx context.Context, tx interfaces.Transaction) error {
		current, err := getRoute(tx, orgID, routeID)
		if err != nil {
			return err
		}
		if !models.CanTransition(current.Status, models.RouteStatusCompleted) {
			return fmt.Errorf("%w: route is %s, only In Progress routes can be completed", ErrPrecondition, current.Status)
		}
		if models.HasUnresolvedStops(current.Stops) {
			return fmt.Errorf("%w: route still has pending stops", ErrPrecondition)
		}

		route, err = s.completeTx(tx, current, current.Stops, s.now(), true)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).LogRouteEvent(routeID, "completed", map[string]interface{}{"trigger": "manual"})
	s.notifyCreator(ctx, route, models.NotificationKindRouteCompleted)
	return route, nil
}

// completeTx writes the completed route and releases its driver and
// vehicle. Driver and vehicle are only touched while they still point at
// this route. All reads happen before the first write.
func (s *routeLifecycleService) completeTx(tx interfaces.Transaction, route *models.Route, stops []models.Stop, now time.Time, manual bool) (*models.Route, error) {
	if !models.CanTransition(route.Status, models.RouteStatusCompleted) {
		return nil, fmt.Errorf("%w: route is %s and cannot be completed", ErrPrecondition, route.Status)
	}

	var (
		driver     models.Driver
		vehicle    models.Vehicle
		hasDriver  bool
		hasVehicle bool
	)

	if route.DriverID != "" {
		err := tx.Get(interfaces.CollectionDrivers, route.DriverID, &driver)
		if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
			return nil, err
		}
		hasDriver = err == nil && driver.CurrentRouteID == route.ID
	}
	if route.VehicleID != "" {
		err := tx.Get(interfaces.CollectionVehicles, route.VehicleID, &vehicle)
		if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
			return nil, err
		}
		hasVehicle = err == nil && vehicle.CurrentRouteID == route.ID
	}

	err := tx.Update(interfaces.CollectionRoutes, route.ID, map[string]interface{}{
		"status":          models.RouteStatusCompleted,
		"progress":        100,
		"stops":           stops,
		"completion_date": now,
		"updated_at":      now,
		"version":         route.Version + 1,
	})
	if err != nil {
		return nil, err
	}

	if hasDriver {
		err := tx.Update(interfaces.CollectionDrivers, driver.ID, map[string]interface{}{
			"status":               models.DriverStatusIdle,
			"current_route_id":     "",
			"current_route_status": "",
			"updated_at":           now,
		})
		if err != nil {
			return nil, err
		}
	}

	if hasVehicle {
		fields := map[string]interface{}{
			"status":               models.VehicleStatusIdle,
			"current_route_id":     "",
			"current_route_status": "",
			"updated_at":           now,
		}
		if manual && vehicle.OdometerTracked && route.Distance > 0 {
			fields["odometer"] = vehicle.Odometer + route.Distance
		}
		if err := tx.Update(interfaces.CollectionVehicles, vehicle.ID, fields); err != nil {
			return nil, err
		}
	}

	completed := *route
	completed.Status = models.RouteStatusCompleted
	completed.Progress = 100
	completed.Stops = stops
	completed.CompletionDate = &now
	completed.UpdatedAt = now
	completed.Version++
	return &completed, nil
}

func (s *routeLifecycleService) AddExpense(ctx context.Context, orgID, routeID string, expense models.Expense) (*models.Route, error) {
	if expense.Amount <= 0 {
		return nil, fmt.Errorf("%w: expense amount must be positive", ErrInvalidInput)
	}

	var route *models.Route
	err := s.mutate(ctx, routeID, func(ctx context.Context, tx interfaces.Transaction) error {
		current, err := getRoute(tx, orgID, routeID)
		if err != nil {
			return err
		}

		now := s.now()
		expense.ID = s.newID()
		if expense.Date.IsZero() {
			expense.Date = now
		}
		expenses := append(append([]models.Expense{}, current.Expenses...), expense)

		err = tx.Update(interfaces.CollectionRoutes, routeID, map[string]interface{}{
			"expenses":   expenses,
			"updated_at": now,
			"version":    current.Version + 1,
		})
		if err != nil {
			return err
		}

		current.Expenses = expenses
		current.UpdatedAt = now
		current.Version++
		route = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return route, nil
}

func (s *routeLifecycleService) notifyCreator(ctx context.Context, route *models.Route, kind models.NotificationKind) {
	if s.notifier == nil || route.CreatedBy == "" {
		return
	}
	err := s.notifier.Notify(ctx, kind, route.CreatedBy, route.OrganizationID, map[string]string{
		"route_id":   route.ID,
		"route_name": route.Name,
	})
	if err != nil {
		s.logger.WithContext(ctx).WithRouteID(route.ID).LogSideEffectFailure("notification", err, map[string]interface{}{"kind": kind})
	}
}

// mutate runs fn in a store transaction while holding the route lock.
func (s *routeLifecycleService) mutate(ctx context.Context, routeID string, fn func(ctx context.Context, tx interfaces.Transaction) error) error {
	unlock, err := s.lock(ctx, routeID)
	if err != nil {
		return err
	}
	defer unlock()

	return s.store.RunTransaction(ctx, fn)
}

func (s *routeLifecycleService) lock(ctx context.Context, routeID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	return s.locker.Lock(ctx, routeID)
}

func getRoute(tx interfaces.Transaction, orgID, routeID string) (*models.Route, error) {
	var route models.Route
	if err := tx.Get(interfaces.CollectionRoutes, routeID, &route); err != nil {
		return nil, storeError(err, "route", routeID)
	}
	if route.OrganizationID != orgID {
		return nil, notFound("route", routeID)
	}
	return &route, nil
}

// getScoped loads a document and treats one from another organization as
// missing. org reads the organization of the decoded document.
func getScoped(tx interfaces.Transaction, collection, resource, orgID, id string, dest interfaces.Document, org func() string) error {
	if id == "" {
		return fmt.Errorf("%w: %s id is required", ErrInvalidInput, resource)
	}
	if err := tx.Get(collection, id, dest); err != nil {
		return storeError(err, resource, id)
	}
	if org() != orgID {
		return notFound(resource, id)
	}
	return nil
}

func driverUserID(driver *models.Driver) string {
	if driver.UserID != "" {
		return driver.UserID
	}
	return driver.ID
}
