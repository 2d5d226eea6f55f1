package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fleetdesk/internal/models"
	"fleetdesk/internal/repositories/interfaces"
	"fleetdesk/internal/utils"
	"fleetdesk/pkg/logger"
)

// FleetService manages the drivers and vehicles a route can be assigned to.
type FleetService interface {
	CreateDriver(ctx context.Context, orgID string, driver *models.Driver) (*models.Driver, error)
	GetDriver(ctx context.Context, orgID, driverID string) (*models.Driver, error)
	ListDrivers(ctx context.Context, orgID string, status models.DriverStatus) ([]models.Driver, error)
	UpdateDriverStatus(ctx context.Context, orgID, driverID string, status models.DriverStatus) (*models.Driver, error)

	CreateVehicle(ctx context.Context, orgID string, vehicle *models.Vehicle) (*models.Vehicle, error)
	GetVehicle(ctx context.Context, orgID, vehicleID string) (*models.Vehicle, error)
	ListVehicles(ctx context.Context, orgID string, status models.VehicleStatus) ([]models.Vehicle, error)
	UpdateVehicleStatus(ctx context.Context, orgID, vehicleID string, status models.VehicleStatus) (*models.Vehicle, error)

	RegisterDevice(ctx context.Context, token *models.DeviceToken) error
}

type fleetService struct {
	store    interfaces.ResourceStore
	notifier NotificationEmitter
	logger   *logger.Logger
	now      func() time.Time
}

func NewFleetService(store interfaces.ResourceStore, notifier NotificationEmitter, log *logger.Logger) FleetService {
	if log == nil {
		log = logger.Discard()
	}
	return &fleetService{
		store:    store,
		notifier: notifier,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *fleetService) CreateDriver(ctx context.Context, orgID string, driver *models.Driver) (*models.Driver, error) {
	if strings.TrimSpace(driver.Name) == "" {
		return nil, fmt.Errorf("%w: driver name is required", ErrInvalidInput)
	}

	now := s.now()
	driver.ID = ""
	driver.OrganizationID = orgID
	driver.Status = models.DriverStatusIdle
	driver.CurrentRouteID = ""
	driver.CurrentRouteStatus = ""
	driver.CreatedAt = now
	driver.UpdatedAt = now

	if _, err := s.store.Create(ctx, interfaces.CollectionDrivers, driver); err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"driver_id": driver.ID,
		"phone":     utils.MaskPhone(driver.Phone),
	}).Info("Driver created")

	s.welcome(ctx, driver)
	return driver, nil
}

func (s *fleetService) welcome(ctx context.Context, driver *models.Driver) {
	if s.notifier == nil {
		return
	}
	log := s.logger.WithContext(ctx).WithField("driver_id", driver.ID)

	if driver.UserID != "" {
		err := s.notifier.Notify(ctx, models.NotificationKindDriverOnboarded, driver.UserID, driver.OrganizationID, map[string]string{
			"driver_id":   driver.ID,
			"driver_name": driver.Name,
		})
		if err != nil {
			log.LogSideEffectFailure("notification", err, map[string]interface{}{"kind": models.NotificationKindDriverOnboarded})
		}
	}

	if driver.WhatsAppOptIn && driver.Phone != "" {
		result := s.notifier.SendWhatsApp(ctx, driver.Phone, TemplateDriverOnboarded, []string{driver.Name})
		if !result.Success {
			log.LogSideEffectFailure("whatsapp", errors.New(result.Error), nil)
		}
	}
}

func (s *fleetService) GetDriver(ctx context.Context, orgID, driverID string) (*models.Driver, error) {
	var driver models.Driver
	if err := s.store.Get(ctx, interfaces.CollectionDrivers, driverID, &driver); err != nil {
		return nil, storeError(err, "driver", driverID)
	}
	if driver.OrganizationID != orgID {
		return nil, notFound("driver", driverID)
	}
	return &driver, nil
}

func (s *fleetService) ListDrivers(ctx context.Context, orgID string, status models.DriverStatus) ([]models.Driver, error) {
	query := interfaces.Query{OrderBy: "name", Limit: utils.MaxListLimit}.Where("organization_id", orgID)
	if status != "" {
		query = query.Where("status", status)
	}

	snaps, err := s.store.List(ctx, interfaces.CollectionDrivers, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	return interfaces.DecodeAll[models.Driver](snaps)
}

// UpdateDriverStatus sets an operator-controlled status. A driver holding a
// route keeps On-route until the route completes.
func (s *fleetService) UpdateDriverStatus(ctx context.Context, orgID, driverID string, status models.DriverStatus) (*models.Driver, error) {
	if !models.IsManualDriverStatus(status) {
		return nil, fmt.Errorf("%w: status %q cannot be set directly", ErrPolicyViolation, status)
	}

	var driver models.Driver
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx interfaces.Transaction) error {
		if err := getScoped(tx, interfaces.CollectionDrivers, "driver", orgID, driverID, &driver, func() string { return driver.OrganizationID }); err != nil {
			return err
		}
		if driver.CurrentRouteID != "" {
			return fmt.Errorf("%w: driver is on route %s", ErrPolicyViolation, driver.CurrentRouteID)
		}

		driver.Status = status
		driver.UpdatedAt = s.now()
		return tx.Update(interfaces.CollectionDrivers, driverID, map[string]interface{}{
			"status":     status,
			"updated_at": driver.UpdatedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

func (s *fleetService) CreateVehicle(ctx context.Context, orgID string, vehicle *models.Vehicle) (*models.Vehicle, error) {
	vehicle.Plate = strings.ToUpper(strings.TrimSpace(vehicle.Plate))
	if vehicle.Plate == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrInvalidInput)
	}
	if vehicle.Status == "" {
		vehicle.Status = models.VehicleStatusParked
	}
	if !models.IsManualVehicleStatus(vehicle.Status) {
		return nil, fmt.Errorf("%w: vehicle cannot be created as %s", ErrPolicyViolation, vehicle.Status)
	}

	query := interfaces.Query{Limit: 1}.Where("organization_id", orgID).Where("plate", vehicle.Plate)
	existing, err := s.store.List(ctx, interfaces.CollectionVehicles, query)
	if err != nil {
		return nil, fmt.Errorf("failed to check plate: %w", err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: a vehicle with plate %s already exists", ErrConflict, vehicle.Plate)
	}

	now := s.now()
	vehicle.ID = ""
	vehicle.OrganizationID = orgID
	vehicle.CurrentRouteID = ""
	vehicle.CurrentRouteStatus = ""
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now

	if _, err := s.store.Create(ctx, interfaces.CollectionVehicles, vehicle); err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	s.logger.WithContext(ctx).WithField("vehicle_id", vehicle.ID).Info("Vehicle created")
	return vehicle, nil
}

func (s *fleetService) GetVehicle(ctx context.Context, orgID, vehicleID string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := s.store.Get(ctx, interfaces.CollectionVehicles, vehicleID, &vehicle); err != nil {
		return nil, storeError(err, "vehicle", vehicleID)
	}
	if vehicle.OrganizationID != orgID {
		return nil, notFound("vehicle", vehicleID)
	}
	return &vehicle, nil
}

func (s *fleetService) ListVehicles(ctx context.Context, orgID string, status models.VehicleStatus) ([]models.Vehicle, error) {
	query := interfaces.Query{OrderBy: "plate", Limit: utils.MaxListLimit}.Where("organization_id", orgID)
	if status != "" {
		query = query.Where("status", status)
	}

	snaps, err := s.store.List(ctx, interfaces.CollectionVehicles, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	return interfaces.DecodeAll[models.Vehicle](snaps)
}

func (s *fleetService) UpdateVehicleStatus(ctx context.Context, orgID, vehicleID string, status models.VehicleStatus) (*models.Vehicle, error) {
	if !models.IsManualVehicleStatus(status) {
		return nil, fmt.Errorf("%w: status %q cannot be set directly", ErrPolicyViolation, status)
	}

	var vehicle models.Vehicle
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx interfaces.Transaction) error {
		if err := getScoped(tx, interfaces.CollectionVehicles, "vehicle", orgID, vehicleID, &vehicle, func() string { return vehicle.OrganizationID }); err != nil {
			return err
		}
		if vehicle.CurrentRouteID != "" {
			return fmt.Errorf("%w: vehicle is on route %s", ErrPolicyViolation, vehicle.CurrentRouteID)
		}

		vehicle.Status = status
		vehicle.UpdatedAt = s.now()
		return tx.Update(interfaces.CollectionVehicles, vehicleID, map[string]interface{}{
			"status":     status,
			"updated_at": vehicle.UpdatedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (s *fleetService) RegisterDevice(ctx context.Context, token *models.DeviceToken) error {
	if token.UserID == "" || token.Token == "" {
		return fmt.Errorf("%w: user and token are required", ErrInvalidInput)
	}
	if s.notifier == nil {
		return errors.New("notifications are not configured")
	}
	return s.notifier.RegisterDevice(ctx, token)
}
