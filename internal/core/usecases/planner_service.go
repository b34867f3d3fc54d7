package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dlathrop/geoscout/internal/core/domain"
	"github.com/dlathrop/geoscout/internal/core/fallback"
	"github.com/dlathrop/geoscout/internal/core/ports"
)

const (
	// maxRouteSteps caps how many leading provider steps are kept.
	maxRouteSteps = 8

	routeCacheTTLSeconds = 300
)

// PlannerService computes a driving route between two coordinates. Like the
// locator it never fails: any provider problem is answered with a synthetic
// distance-estimated route.
type PlannerService struct {
	provider ports.RoutingProvider
	cache    ports.CacheService
}

// NewPlannerService creates a new PlannerService.
func NewPlannerService(provider ports.RoutingProvider, cache ports.CacheService) *PlannerService {
	return &PlannerService{provider: provider, cache: cache}
}

// PlanRoute returns a route from origin to destination with at most eight
// turn-level steps, falling back to a synthesized route on provider failure.
// The returned route always has at least one step.
func (s *PlannerService) PlanRoute(ctx context.Context, origin, destination domain.Coordinate) domain.Route {
	cacheKey := fmt.Sprintf("routes:%.5f:%.5f:%.5f:%.5f",
		origin.Lat, origin.Lon, destination.Lat, destination.Lon)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var route domain.Route
			if err := json.Unmarshal(data, &route); err == nil && len(route.Steps) > 0 {
				return route
			}
		}
	}

	raw, err := s.provider.Route(ctx, origin, destination)
	if err != nil || raw == nil || len(raw.Steps) == 0 {
		return fallback.NewRoute(origin, destination)
	}

	route := normalizeRoute(*raw)

	if s.cache != nil {
		if data, err := json.Marshal(route); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, routeCacheTTLSeconds)
		}
	}

	return route
}

// normalizeRoute trims the step list to the leading eight and fills missing
// instruction text.
func normalizeRoute(route domain.Route) domain.Route {
	if len(route.Steps) > maxRouteSteps {
		route.Steps = route.Steps[:maxRouteSteps]
	}
	for i := range route.Steps {
		if route.Steps[i].Instruction == "" {
			route.Steps[i].Instruction = "Continue straight"
		}
	}
	return route
}
