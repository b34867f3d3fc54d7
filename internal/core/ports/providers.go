package ports

import (
	"context"

	"github.com/dlathrop/geoscout/internal/core/domain"
)

// PlacesProvider queries an external source for points of interest near a
// coordinate. Implementations return raw, possibly incomplete places; the
// locator use case normalizes and falls back.
type PlacesProvider interface {
	FindNearby(ctx context.Context, center domain.Coordinate, category domain.Category, radiusKm float64) ([]domain.Place, error)
}

// RoutingProvider computes a driving route with turn-level steps between two
// coordinates.
type RoutingProvider interface {
	Route(ctx context.Context, origin, destination domain.Coordinate) (*domain.Route, error)
}

// GeocodingProvider resolves a free-text query to its best-match coordinate.
// A (nil, nil) return means no match; that is a result, not an error.
type GeocodingProvider interface {
	Geocode(ctx context.Context, query string) (*domain.Coordinate, error)
}
