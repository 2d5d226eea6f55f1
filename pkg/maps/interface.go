package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DistanceProvider measures driving distance between two addresses.
type DistanceProvider interface {
	GetDistance(ctx context.Context, origin, destination string) (DistanceResult, error)
}

type DistanceResult struct {
	DistanceMeters  int
	DurationSeconds int
}

// RouteDistanceKM sums the legs between consecutive addresses.
func RouteDistanceKM(ctx context.Context, provider DistanceProvider, addresses []string) (float64, error) {
	var stops []string
	for _, a := range addresses {
		if a = normalize(a); a != "" {
			stops = append(stops, a)
		}
	}
	if len(stops) < 2 {
		return 0, errors.New("at least two addresses are required")
	}

	meters := 0
	for i := 1; i < len(stops); i++ {
		leg, err := provider.GetDistance(ctx, stops[i-1], stops[i])
		if err != nil {
			return 0, fmt.Errorf("leg %d %q -> %q: %w", i, stops[i-1], stops[i], err)
		}
		meters += leg.DistanceMeters
	}
	return float64(meters) / 1000, nil
}

// normalize collapses whitespace so equal addresses compare equal.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
