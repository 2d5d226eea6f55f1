package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stopsWith(statuses ...StopStatus) []Stop {
	stops := make([]Stop, len(statuses))
	for i, status := range statuses {
		stops[i] = Stop{ID: fmt.Sprintf("s%d", i+1), Sequence: i + 1, Status: status}
	}
	return stops
}

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name  string
		stops []Stop
		want  int
	}{
		{"empty", nil, 0},
		{"none completed", stopsWith(StopStatusPending, StopStatusArrived), 0},
		{"one of three", stopsWith(StopStatusCompleted, StopStatusPending, StopStatusPending), 33},
		{"two of three", stopsWith(StopStatusCompleted, StopStatusCompleted, StopStatusFailed), 67},
		{"all completed", stopsWith(StopStatusCompleted, StopStatusCompleted), 100},
		{"failed does not count", stopsWith(StopStatusFailed, StopStatusFailed), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeProgress(tt.stops))
		})
	}
}

func TestComputeProgressNeverRoundsUpToComplete(t *testing.T) {
	statuses := make([]StopStatus, 201)
	for i := range statuses {
		statuses[i] = StopStatusCompleted
	}
	statuses[200] = StopStatusPending

	stops := stopsWith(statuses...)
	assert.Equal(t, 99, ComputeProgress(stops))
	assert.False(t, IsRouteComplete(stops))
}

func TestIsRouteComplete(t *testing.T) {
	assert.False(t, IsRouteComplete(nil))
	assert.False(t, IsRouteComplete(stopsWith(StopStatusCompleted, StopStatusFailed)))
	assert.True(t, IsRouteComplete(stopsWith(StopStatusCompleted, StopStatusCompleted)))
}

func TestNeedsManualCompletion(t *testing.T) {
	assert.True(t, NeedsManualCompletion(stopsWith(StopStatusCompleted, StopStatusFailed)))
	assert.False(t, NeedsManualCompletion(stopsWith(StopStatusArrived, StopStatusFailed)))
	assert.False(t, NeedsManualCompletion(stopsWith(StopStatusCompleted)))
	assert.False(t, NeedsManualCompletion(nil))
}

func TestBuildStopsSequencesFromOne(t *testing.T) {
	n := 0
	stops := BuildStops([]StopInput{
		{Address: " 1 Main St "},
		{Address: "2 High St", RecipientName: "Ana"},
	}, func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})

	require.Len(t, stops, 2)
	assert.Equal(t, 1, stops[0].Sequence)
	assert.Equal(t, 2, stops[1].Sequence)
	assert.Equal(t, "1 Main St", stops[0].Address)
	assert.Equal(t, "id-2", stops[1].ID)
	assert.Equal(t, StopStatusPending, stops[1].Status)
}

func TestApplyPOD(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	stop := Stop{ID: "s1", Sequence: 1, Status: StopStatusArrived}

	updated, err := ApplyPOD(stop, PODData{RecipientName: "Ana", DeliveryNotes: "left at door", PODPhotoURL: "https://cdn/p.jpg"}, now)
	require.NoError(t, err)

	assert.Equal(t, StopStatusCompleted, updated.Status)
	assert.Equal(t, "Ana", updated.RecipientName)
	assert.Equal(t, "left at door", updated.DeliveryNotes)
	assert.Equal(t, "https://cdn/p.jpg", updated.PODPhotoURL)
	require.NotNil(t, updated.CompletedAt)
	assert.True(t, updated.CompletedAt.Equal(now))
	assert.True(t, updated.HasPOD())
}

func TestApplyPODIsIdempotent(t *testing.T) {
	pod := PODData{RecipientName: "Ana", DeliveryNotes: "ok"}
	first, err := ApplyPOD(Stop{ID: "s1", Status: StopStatusPending}, pod, time.Unix(100, 0))
	require.NoError(t, err)

	second, err := ApplyPOD(first, pod, time.Unix(200, 0))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestApplyPODRejects(t *testing.T) {
	_, err := ApplyPOD(Stop{Status: StopStatusArrived}, PODData{RecipientName: "   "}, time.Now())
	assert.ErrorIs(t, err, ErrMissingRecipient)

	_, err = ApplyPOD(Stop{Status: StopStatusFailed}, PODData{RecipientName: "Ana"}, time.Now())
	assert.ErrorIs(t, err, ErrInvalidStopTransition)
}

func TestApplyStopTransition(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	arrived, err := ApplyStopTransition(Stop{Status: StopStatusPending}, StopStatusArrived, "gate code 12", now)
	require.NoError(t, err)
	assert.Equal(t, StopStatusArrived, arrived.Status)
	assert.Equal(t, "gate code 12", arrived.DeliveryNotes)
	require.NotNil(t, arrived.ArrivedAt)

	completed, err := ApplyStopTransition(arrived, StopStatusCompleted, "", now)
	require.NoError(t, err)
	assert.Equal(t, StopStatusCompleted, completed.Status)
	assert.Equal(t, "gate code 12", completed.DeliveryNotes)

	failed, err := ApplyStopTransition(Stop{Status: StopStatusArrived}, StopStatusFailed, "nobody home", now)
	require.NoError(t, err)
	assert.Equal(t, "nobody home", failed.FailureReason)
	require.NotNil(t, failed.FailedAt)
}

func TestApplyStopTransitionRejects(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		from  StopStatus
		to    StopStatus
		notes string
		err   error
	}{
		{"skip arrival", StopStatusPending, StopStatusCompleted, "", ErrInvalidStopTransition},
		{"reopen completed", StopStatusCompleted, StopStatusPending, "", ErrInvalidStopTransition},
		{"fail completed", StopStatusCompleted, StopStatusFailed, "late", ErrInvalidStopTransition},
		{"unknown status", StopStatusPending, StopStatus("lost"), "", ErrInvalidStopTransition},
		{"fail without reason", StopStatusPending, StopStatusFailed, " ", ErrMissingFailureReason},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stop := Stop{Status: tt.from}
			got, err := ApplyStopTransition(stop, tt.to, tt.notes, now)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, stop, got)
		})
	}
}
