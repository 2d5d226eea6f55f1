package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteBalance(t *testing.T) {
	route := &Route{
		Rate: 450.10,
		Expenses: []Expense{
			{ID: "e1", Type: "fuel", Amount: 120.05},
			{ID: "e2", Type: "toll", Amount: 30.02},
		},
	}

	assert.Equal(t, "300.03", route.Balance().StringFixed(2))
	assert.Equal(t, "150.07", route.TotalExpenses().StringFixed(2))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(RouteStatusPending, RouteStatusInProgress))
	assert.True(t, CanTransition(RouteStatusInProgress, RouteStatusCompleted))
	assert.False(t, CanTransition(RouteStatusPending, RouteStatusCompleted))
	assert.False(t, CanTransition(RouteStatusCompleted, RouteStatusPending))
	assert.False(t, CanTransition(RouteStatusCompleted, RouteStatusInProgress))
	assert.False(t, CanTransition(RouteStatusInProgress, RouteStatusInProgress))
	assert.False(t, CanTransition(RouteStatusCompleted, RouteStatusCompleted))
}

func TestRouteFindStop(t *testing.T) {
	route := &Route{Stops: stopsWith(StopStatusPending, StopStatusPending)}

	assert.Equal(t, 1, route.FindStop("s2"))
	assert.Equal(t, -1, route.FindStop("missing"))
}
