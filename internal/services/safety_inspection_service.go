package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fleetdesk/internal/models"
	"fleetdesk/internal/repositories/interfaces"
	"fleetdesk/pkg/logger"
)

// SafetyInspectionService evaluates pre-trip checklists and applies their
// best-effort consequences.
type SafetyInspectionService interface {
	Checklist() *models.Checklist
	BuildInspection(route *models.Route, submission models.InspectionSubmission, now time.Time) (*models.SafetyInspection, error)
	ApplySideEffects(ctx context.Context, inspection *models.SafetyInspection) []string
	GetInspection(ctx context.Context, orgID, inspectionID string) (*models.SafetyInspection, error)
}

type safetyInspectionService struct {
	store     interfaces.ResourceStore
	checklist *models.Checklist
	notifier  NotificationEmitter
	logger    *logger.Logger
}

func NewSafetyInspectionService(store interfaces.ResourceStore, checklist *models.Checklist, notifier NotificationEmitter, log *logger.Logger) SafetyInspectionService {
	if checklist == nil {
		checklist = models.DefaultChecklist()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &safetyInspectionService{
		store:     store,
		checklist: checklist,
		notifier:  notifier,
		logger:    log,
	}
}

func (s *safetyInspectionService) Checklist() *models.Checklist {
	return s.checklist
}

// BuildInspection validates the answers and produces the inspection record
// in checklist order. It does not write anything.
func (s *safetyInspectionService) BuildInspection(route *models.Route, submission models.InspectionSubmission, now time.Time) (*models.SafetyInspection, error) {
	if err := models.ValidateResponses(s.checklist, submission.Responses); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	eval := models.EvaluateInspection(s.checklist, submission.Responses)
	if len(eval.Unanswered) > 0 {
		return nil, fmt.Errorf("%w: unanswered required checklist items: %s", ErrPrecondition, strings.Join(eval.Unanswered, ", "))
	}

	inspection := &models.SafetyInspection{
		OrganizationID:    route.OrganizationID,
		RouteID:           route.ID,
		DriverID:          route.DriverID,
		VehicleID:         route.VehicleID,
		HasCriticalIssues: eval.HasCriticalIssues,
		IsPerfect:         eval.IsPerfect,
		StartedAt:         submission.StartedAt,
		SubmittedAt:       now,
		CreatedAt:         now,
	}

	for _, category := range s.checklist.Categories {
		for _, item := range category.Items {
			response, ok := submission.Responses[item.ID]
			if !ok {
				continue
			}
			inspection.Items = append(inspection.Items, models.InspectionItem{
				ItemID:   item.ID,
				Category: category.Name,
				Question: item.Question,
				Required: item.Required,
				Status:   response.Status,
				Notes:    strings.TrimSpace(response.Notes),
			})
		}
	}

	if submission.StartedAt != nil && submission.StartedAt.Before(now) {
		inspection.CompletionTimeSeconds = int(now.Sub(*submission.StartedAt).Seconds())
	}

	return inspection, nil
}

// ApplySideEffects updates the driver's rolling safety score, raises a
// maintenance alert per critical item and notifies the dispatcher. Failures
// are logged and never returned. The result lists the critical findings.
func (s *safetyInspectionService) ApplySideEffects(ctx context.Context, inspection *models.SafetyInspection) []string {
	log := s.logger.WithRouteID(inspection.RouteID).WithField("inspection_id", inspection.ID)

	if err := s.updateDriverScore(ctx, inspection); err != nil {
		log.LogSideEffectFailure("safety_score", err, map[string]interface{}{"driver_id": inspection.DriverID})
	}

	critical := inspection.CriticalItems()
	warnings := make([]string, 0, len(critical))
	for _, item := range critical {
		warnings = append(warnings, fmt.Sprintf("%s: %s (%s)", item.Category, item.Question, item.Status))

		if inspection.VehicleID == "" {
			continue
		}
		alert := &models.MaintenanceAlert{
			OrganizationID: inspection.OrganizationID,
			VehicleID:      inspection.VehicleID,
			RouteID:        inspection.RouteID,
			InspectionID:   inspection.ID,
			ItemID:         item.ItemID,
			Category:       item.Category,
			Question:       item.Question,
			Severity:       models.SeverityFor(item.Status),
			Status:         models.MaintenanceAlertOpen,
			CreatedAt:      inspection.CreatedAt,
		}
		if _, err := s.store.Create(ctx, interfaces.CollectionMaintenanceAlerts, alert); err != nil {
			log.LogSideEffectFailure("maintenance_alert", err, map[string]interface{}{"item_id": item.ItemID})
		}
	}

	if len(critical) > 0 {
		s.notifyDispatcher(ctx, inspection, len(critical))
	}

	return warnings
}

// updateDriverScore folds this inspection into the cumulative mean.
func (s *safetyInspectionService) updateDriverScore(ctx context.Context, inspection *models.SafetyInspection) error {
	score, ok := inspection.Score()
	if !ok || inspection.DriverID == "" {
		return nil
	}

	return s.store.RunTransaction(ctx, func(ctx context.Context, tx interfaces.Transaction) error {
		var driver models.Driver
		if err := tx.Get(interfaces.CollectionDrivers, inspection.DriverID, &driver); err != nil {
			return err
		}
		if driver.OrganizationID != inspection.OrganizationID {
			return interfaces.ErrNotFound
		}

		count := float64(driver.InspectionCount)
		newScore := (driver.SafetyScore*count + score) / (count + 1)

		return tx.Update(interfaces.CollectionDrivers, driver.ID, map[string]interface{}{
			"safety_score":     newScore,
			"inspection_count": driver.InspectionCount + 1,
		})
	})
}

func (s *safetyInspectionService) notifyDispatcher(ctx context.Context, inspection *models.SafetyInspection, issues int) {
	if s.notifier == nil {
		return
	}

	var route models.Route
	if err := s.store.Get(ctx, interfaces.CollectionRoutes, inspection.RouteID, &route); err != nil {
		s.logger.WithRouteID(inspection.RouteID).LogSideEffectFailure("safety_notification", err, nil)
		return
	}
	if route.CreatedBy == "" {
		return
	}

	err := s.notifier.Notify(ctx, models.NotificationKindSafetyIssue, route.CreatedBy, inspection.OrganizationID, map[string]string{
		"route_id":      route.ID,
		"route_name":    route.Name,
		"inspection_id": inspection.ID,
		"issue_count":   strconv.Itoa(issues),
	})
	if err != nil {
		s.logger.WithRouteID(route.ID).LogSideEffectFailure("safety_notification", err, map[string]interface{}{"kind": models.NotificationKindSafetyIssue})
	}
}

func (s *safetyInspectionService) GetInspection(ctx context.Context, orgID, inspectionID string) (*models.SafetyInspection, error) {
	var inspection models.SafetyInspection
	if err := s.store.Get(ctx, interfaces.CollectionSafetyInspections, inspectionID, &inspection); err != nil {
		return nil, storeError(err, "inspection", inspectionID)
	}
	if inspection.OrganizationID != orgID {
		return nil, notFound("inspection", inspectionID)
	}
	return &inspection, nil
}
