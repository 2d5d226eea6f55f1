package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

type StopStatus string

const (
	StopStatusPending   StopStatus = "pending"
	StopStatusArrived   StopStatus = "arrived"
	StopStatusCompleted StopStatus = "completed"
	StopStatusFailed    StopStatus = "failed"
)

var (
	ErrInvalidStopTransition = errors.New("invalid stop transition")
	ErrMissingRecipient      = errors.New("recipient name is required for proof of delivery")
	ErrMissingFailureReason  = errors.New("a failure reason is required")
)

type Stop struct {
	ID             string     `json:"id" bson:"id" firestore:"id"`
	Sequence       int        `json:"sequence" bson:"sequence" firestore:"sequence"`
	Address        string     `json:"address" bson:"address" firestore:"address"`
	RecipientName  string     `json:"recipient_name,omitempty" bson:"recipient_name,omitempty" firestore:"recipient_name,omitempty"`
	RecipientPhone string     `json:"recipient_phone,omitempty" bson:"recipient_phone,omitempty" firestore:"recipient_phone,omitempty"`
	Status         StopStatus `json:"status" bson:"status" firestore:"status"`
	PODPhotoURL    string     `json:"pod_photo_url,omitempty" bson:"pod_photo_url,omitempty" firestore:"pod_photo_url,omitempty"`
	DeliveryNotes  string     `json:"delivery_notes,omitempty" bson:"delivery_notes,omitempty" firestore:"delivery_notes,omitempty"`
	FailureReason  string     `json:"failure_reason,omitempty" bson:"failure_reason,omitempty" firestore:"failure_reason,omitempty"`
	ArrivedAt      *time.Time `json:"arrived_at,omitempty" bson:"arrived_at,omitempty" firestore:"arrived_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty" firestore:"completed_at,omitempty"`
	FailedAt       *time.Time `json:"failed_at,omitempty" bson:"failed_at,omitempty" firestore:"failed_at,omitempty"`
}

// StopInput is a stop as supplied when a route is created or edited.
type StopInput struct {
	Address        string `json:"address"`
	RecipientName  string `json:"recipient_name,omitempty"`
	RecipientPhone string `json:"recipient_phone,omitempty"`
}

type PODData struct {
	RecipientName string `json:"recipient_name"`
	DeliveryNotes string `json:"delivery_notes,omitempty"`
	PODPhotoURL   string `json:"pod_photo_url,omitempty"`
}

func (s StopStatus) IsValid() bool {
	switch s {
	case StopStatusPending, StopStatusArrived, StopStatusCompleted, StopStatusFailed:
		return true
	}
	return false
}

func (s StopStatus) IsTerminal() bool {
	return s == StopStatusCompleted || s == StopStatusFailed
}

// HasPOD reports whether the stop carries a proof of delivery.
func (s Stop) HasPOD() bool {
	return s.Status == StopStatusCompleted && strings.TrimSpace(s.RecipientName) != ""
}

// BuildStops turns inputs into pending stops with contiguous 1-based
// sequence numbers. newID supplies each stop identifier.
func BuildStops(inputs []StopInput, newID func() string) []Stop {
	stops := make([]Stop, 0, len(inputs))
	for i, in := range inputs {
		stops = append(stops, Stop{
			ID:             newID(),
			Sequence:       i + 1,
			Address:        strings.TrimSpace(in.Address),
			RecipientName:  strings.TrimSpace(in.RecipientName),
			RecipientPhone: strings.TrimSpace(in.RecipientPhone),
			Status:         StopStatusPending,
		})
	}
	return stops
}

// ComputeProgress returns the share of completed stops as an integer
// percentage. 100 is reserved for lists where every stop is completed.
func ComputeProgress(stops []Stop) int {
	if len(stops) == 0 {
		return 0
	}

	completed := 0
	for _, stop := range stops {
		if stop.Status == StopStatusCompleted {
			completed++
		}
	}

	progress := int(math.Round(100 * float64(completed) / float64(len(stops))))
	if progress >= 100 && completed < len(stops) {
		return 99
	}
	return progress
}

// IsRouteComplete is true only when every stop is completed. Failed stops
// block auto-completion.
func IsRouteComplete(stops []Stop) bool {
	if len(stops) == 0 {
		return false
	}
	for _, stop := range stops {
		if stop.Status != StopStatusCompleted {
			return false
		}
	}
	return true
}

// HasUnresolvedStops reports whether any stop is still pending or arrived.
func HasUnresolvedStops(stops []Stop) bool {
	for _, stop := range stops {
		if !stop.Status.IsTerminal() {
			return true
		}
	}
	return false
}

func HasFailedStops(stops []Stop) bool {
	for _, stop := range stops {
		if stop.Status == StopStatusFailed {
			return true
		}
	}
	return false
}

// NeedsManualCompletion is true when every stop is terminal but a failed
// stop keeps the route from completing on its own.
func NeedsManualCompletion(stops []Stop) bool {
	return len(stops) > 0 && !HasUnresolvedStops(stops) && HasFailedStops(stops)
}

// ApplyPOD records a proof of delivery and marks the stop completed.
// Reapplying the same payload leaves the stop unchanged.
func ApplyPOD(stop Stop, pod PODData, now time.Time) (Stop, error) {
	recipient := strings.TrimSpace(pod.RecipientName)
	if recipient == "" {
		return stop, ErrMissingRecipient
	}
	if stop.Status == StopStatusFailed {
		return stop, fmt.Errorf("%w: stop %d already failed", ErrInvalidStopTransition, stop.Sequence)
	}

	updated := stop
	updated.RecipientName = recipient
	updated.DeliveryNotes = strings.TrimSpace(pod.DeliveryNotes)
	updated.PODPhotoURL = strings.TrimSpace(pod.PODPhotoURL)
	updated.Status = StopStatusCompleted
	if updated.CompletedAt == nil {
		completedAt := now
		updated.CompletedAt = &completedAt
	}
	return updated, nil
}

// ApplyStopTransition moves a stop along pending -> arrived -> completed, or
// to failed from pending or arrived.
func ApplyStopTransition(stop Stop, status StopStatus, notes string, now time.Time) (Stop, error) {
	if !status.IsValid() {
		return stop, fmt.Errorf("%w: unknown status %q", ErrInvalidStopTransition, status)
	}
	if !stopTransitionAllowed(stop.Status, status) {
		return stop, fmt.Errorf("%w: %s -> %s", ErrInvalidStopTransition, stop.Status, status)
	}

	notes = strings.TrimSpace(notes)
	updated := stop
	updated.Status = status
	at := now

	switch status {
	case StopStatusArrived:
		updated.ArrivedAt = &at
		if notes != "" {
			updated.DeliveryNotes = notes
		}
	case StopStatusCompleted:
		updated.CompletedAt = &at
		if notes != "" {
			updated.DeliveryNotes = notes
		}
	case StopStatusFailed:
		if notes == "" {
			return stop, ErrMissingFailureReason
		}
		updated.FailedAt = &at
		updated.FailureReason = notes
	}

	return updated, nil
}

func stopTransitionAllowed(from, to StopStatus) bool {
	switch from {
	case StopStatusPending:
		return to == StopStatusArrived || to == StopStatusFailed
	case StopStatusArrived:
		return to == StopStatusCompleted || to == StopStatusFailed
	default:
		return false
	}
}
