package maps

import (
	"context"
	"fmt"
)

type MockPair struct {
	From, To string
	Meters   int
	Seconds  int
}

// MockDistanceProvider answers from a fixed table of address pairs.
type MockDistanceProvider struct {
	m map[string]DistanceResult
}

func NewMockDistanceProvider(pairs []MockPair) *MockDistanceProvider {
	m := make(map[string]DistanceResult, len(pairs))
	for _, p := range pairs {
		m[p.From+"|"+p.To] = DistanceResult{DistanceMeters: p.Meters, DurationSeconds: p.Seconds}
	}
	return &MockDistanceProvider{m: m}
}

func (p *MockDistanceProvider) GetDistance(ctx context.Context, origin, destination string) (DistanceResult, error) {
	r, ok := p.m[origin+"|"+destination]
	if !ok {
		return DistanceResult{}, fmt.Errorf("missing pair %q -> %q", origin, destination)
	}
	return r, nil
}
