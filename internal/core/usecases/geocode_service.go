package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dlathrop/geoscout/internal/core/domain"
	"github.com/dlathrop/geoscout/internal/core/ports"
)

const geocodeCacheTTLSeconds = 3600

// GeocodeService resolves free-text queries to coordinates. It feeds the same
// center input the locator expects; it is not part of the never-fail pipeline,
// so provider errors do surface here.
type GeocodeService struct {
	provider ports.GeocodingProvider
	cache    ports.CacheService
}

// NewGeocodeService creates a new GeocodeService.
func NewGeocodeService(provider ports.GeocodingProvider, cache ports.CacheService) *GeocodeService {
	return &GeocodeService{provider: provider, cache: cache}
}

// Search returns the best-match coordinate for a query, or (nil, nil) when
// nothing matches.
func (s *GeocodeService) Search(ctx context.Context, query string) (*domain.Coordinate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("geocode query must not be empty")
	}

	cacheKey := "geocode:" + strings.ToLower(query)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var c domain.Coordinate
			if err := json.Unmarshal(data, &c); err == nil {
				return &c, nil
			}
		}
	}

	coord, err := s.provider.Geocode(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}
	if coord == nil {
		return nil, nil
	}

	if s.cache != nil {
		if data, err := json.Marshal(coord); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, geocodeCacheTTLSeconds)
		}
	}

	return coord, nil
}
