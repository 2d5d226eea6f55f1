package maps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteDistanceKMSumsLegs(t *testing.T) {
	provider := NewMockDistanceProvider([]MockPair{
		{From: "Depot", To: "1 Main St", Meters: 1200},
		{From: "1 Main St", To: "2 High St", Meters: 800},
	})

	km, err := RouteDistanceKM(context.Background(), provider, []string{"Depot", " 1  Main St ", "", "2 High St"})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, km, 0.0001)
}

func TestRouteDistanceKMNeedsTwoStops(t *testing.T) {
	_, err := RouteDistanceKM(context.Background(), NewMockDistanceProvider(nil), []string{"Depot", "  "})
	assert.Error(t, err)
}

func TestRouteDistanceKMPropagatesLegErrors(t *testing.T) {
	_, err := RouteDistanceKM(context.Background(), NewMockDistanceProvider(nil), []string{"A", "B"})
	assert.Error(t, err)
}
