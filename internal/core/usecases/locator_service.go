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
	// DefaultRadiusKm is the search radius used when the caller does not
	// supply one.
	DefaultRadiusKm = 5.0

	// maxPlaces caps how many provider results are kept per lookup.
	maxPlaces = 10

	placesCacheTTLSeconds = 300
)

// LocatorService finds points of interest near a coordinate. It never fails:
// a provider error, timeout, malformed payload, or empty result set is
// answered with synthesized places instead.
type LocatorService struct {
	provider ports.PlacesProvider
	cache    ports.CacheService
}

// NewLocatorService creates a new LocatorService.
func NewLocatorService(provider ports.PlacesProvider, cache ports.CacheService) *LocatorService {
	return &LocatorService{provider: provider, cache: cache}
}

// FindNearby returns up to ten normalized places of the given category within
// radiusKm of center, or five synthetic ones when the provider cannot serve.
func (s *LocatorService) FindNearby(ctx context.Context, center domain.Coordinate, category domain.Category, radiusKm float64) []domain.Place {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}

	cacheKey := fmt.Sprintf("places:nearby:%.4f:%.4f:%.1f:%s", center.Lat, center.Lon, radiusKm, category)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var places []domain.Place
			if err := json.Unmarshal(data, &places); err == nil && len(places) > 0 {
				return places
			}
		}
	}

	raw, err := s.provider.FindNearby(ctx, center, category, radiusKm)
	if err != nil || len(raw) == 0 {
		return fallback.Places(center, category)
	}

	places := normalizePlaces(raw, center, category)

	// Synthetic results are not cached: they carry no provider data worth
	// reusing, and a later call may find the provider healthy again.
	if s.cache != nil {
		if data, err := json.Marshal(places); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, placesCacheTTLSeconds)
		}
	}

	return places
}

// normalizePlaces applies the missing-field rules: placeholder name from the
// category and position, center coordinate for unlocated results, a sentinel
// address, and a hard cap of ten entries. Ratings pass through untouched.
func normalizePlaces(raw []domain.Place, center domain.Coordinate, category domain.Category) []domain.Place {
	if len(raw) > maxPlaces {
		raw = raw[:maxPlaces]
	}

	places := make([]domain.Place, len(raw))
	for i, p := range raw {
		if p.Name == "" {
			p.Name = fmt.Sprintf("%s %d", category.Label(), i+1)
		}
		if p.Location == (domain.Coordinate{}) {
			p.Location = center
		}
		if p.Address == "" {
			p.Address = "Address not available"
		}
		if p.ID == "" {
			p.ID = fmt.Sprintf("%s-%d", category, i+1)
		}
		p.Category = category
		places[i] = p
	}
	return places
}
