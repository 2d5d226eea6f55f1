package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

type GoogleMapsProvider struct {
	client *maps.Client
}

func NewGoogleMapsProvider(apiKey string) (*GoogleMapsProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{
		client: client,
	}, nil
}

func (g *GoogleMapsProvider) GetDistance(ctx context.Context, origin, destination string) (DistanceResult, error) {
	req := &maps.DistanceMatrixRequest{
		Origins:      []string{origin},
		Destinations: []string{destination},
		Mode:         maps.TravelModeDriving,
		Units:        maps.UnitsMetric,
	}

	resp, err := g.client.DistanceMatrix(ctx, req)
	if err != nil {
		return DistanceResult{}, fmt.Errorf("distance matrix request failed: %w", err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return DistanceResult{}, fmt.Errorf("no distance returned for %q -> %q", origin, destination)
	}

	element := resp.Rows[0].Elements[0]
	if element.Status != "OK" {
		return DistanceResult{}, fmt.Errorf("distance matrix element status %s", element.Status)
	}

	return DistanceResult{
		DistanceMeters:  element.Distance.Meters,
		DurationSeconds: int(element.Duration.Seconds()),
	}, nil
}
