// Package fallback synthesizes plausible places and routes when an external
// provider is unreachable or returns nothing, so the pipeline never surfaces
// a hard failure to its caller. Shapes are deterministic (same count, same
// fields); coordinates and ratings are randomized per call.
package fallback

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/dlathrop/geoscout/internal/core/domain"
	"github.com/dlathrop/geoscout/internal/pkg/geomath"
)

// jitterDegrees is the uniform offset applied per axis to spread synthetic
// places around the requested center.
const jitterDegrees = 0.01

var lodgingNames = []string{
	"Grand Plaza Hotel",
	"City Comfort Inn",
	"Sunrise Residency",
	"Parkview Lodge",
	"Riverside Suites",
}

var schoolNames = []string{
	"Central Public School",
	"Greenfield Academy",
	"St. Mary's School",
	"Sunrise International School",
	"City Montessori School",
}

// stepFractions split a synthesized route's distance and duration across its
// four steps.
var stepFractions = [4]float64{0.3, 0.4, 0.2, 0.1}

var stepInstructions = [4]string{
	"Head toward destination",
	"Continue on the main road",
	"Turn toward destination",
	"Arrive at destination",
}

// Places returns exactly five synthetic places of the requested category,
// jittered around center, each rated somewhere in [3.0, 5.0].
func Places(center domain.Coordinate, category domain.Category) []domain.Place {
	names := schoolNames
	if category == domain.CategoryLodging {
		names = lodgingNames
	}

	places := make([]domain.Place, 0, len(names))
	for i, name := range names {
		rating := 3.0 + rand.Float64()*2.0
		places = append(places, domain.Place{
			ID:   fmt.Sprintf("synthetic-%s-%d", category, i+1),
			Name: name,
			Location: domain.Coordinate{
				Lat: center.Lat + (rand.Float64()*2-1)*jitterDegrees,
				Lon: center.Lon + (rand.Float64()*2-1)*jitterDegrees,
			},
			Address:   "Address not available",
			Category:  category,
			Rating:    &rating,
			Synthetic: true,
		})
	}
	return places
}

// NewRoute estimates a route as the great-circle distance at a fixed pace of
// 2 min/km, split over four fixed steps. The shape holds even for a
// zero-length route: four steps, all zero.
func NewRoute(origin, destination domain.Coordinate) domain.Route {
	distanceKm := geomath.DistanceKm(origin, destination)
	durationMin := math.Round(distanceKm * 2)

	steps := make([]domain.RouteStep, 0, len(stepFractions))
	for i, f := range stepFractions {
		steps = append(steps, domain.RouteStep{
			Instruction: stepInstructions[i],
			DistanceKm:  distanceKm * f,
			DurationMin: durationMin * f,
		})
	}

	return domain.Route{
		TotalDistanceKm:  distanceKm,
		TotalDurationMin: durationMin,
		Steps:            steps,
		Synthetic:        true,
	}
}
