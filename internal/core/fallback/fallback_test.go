package fallback_test

import (
	"math"
	"testing"

	"github.com/dlathrop/geoscout/internal/core/domain"
	"github.com/dlathrop/geoscout/internal/core/fallback"
)

func TestPlaces_ShapeAndBounds(t *testing.T) {
	center := domain.Coordinate{Lat: 28.6139, Lon: 77.2090}

	for _, cat := range []domain.Category{domain.CategoryLodging, domain.CategorySchool} {
		places := fallback.Places(center, cat)
		if len(places) != 5 {
			t.Fatalf("category %s: expected 5 places, got %d", cat, len(places))
		}
		for _, p := range places {
			if p.Category != cat {
				t.Errorf("place %s: category %s, want %s", p.ID, p.Category, cat)
			}
			if !p.Synthetic {
				t.Errorf("place %s: expected synthetic flag", p.ID)
			}
			if p.Rating == nil || *p.Rating < 3.0 || *p.Rating > 5.0 {
				t.Errorf("place %s: rating %v outside [3.0, 5.0]", p.ID, p.Rating)
			}
			if math.Abs(p.Location.Lat-center.Lat) > 0.01 || math.Abs(p.Location.Lon-center.Lon) > 0.01 {
				t.Errorf("place %s at %v: jitter exceeds ±0.01° of center", p.ID, p.Location)
			}
			if p.Name == "" || p.ID == "" {
				t.Errorf("place missing name or id: %+v", p)
			}
		}
	}
}

func TestPlaces_SchoolNamesAreFixed(t *testing.T) {
	want := map[string]bool{
		"Central Public School":        true,
		"Greenfield Academy":           true,
		"St. Mary's School":            true,
		"Sunrise International School": true,
		"City Montessori School":       true,
	}

	places := fallback.Places(domain.Coordinate{Lat: 28.6139, Lon: 77.2090}, domain.CategorySchool)
	for _, p := range places {
		if !want[p.Name] {
			t.Errorf("unexpected synthetic school name %q", p.Name)
		}
		delete(want, p.Name)
	}
	if len(want) != 0 {
		t.Errorf("missing synthetic school names: %v", want)
	}
}

func TestNewRoute_StepSplit(t *testing.T) {
	origin := domain.Coordinate{Lat: 28.6139, Lon: 77.2090}
	dest := domain.Coordinate{Lat: 28.7041, Lon: 77.1025}

	route := fallback.NewRoute(origin, dest)
	if len(route.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(route.Steps))
	}
	if !route.Synthetic {
		t.Error("expected synthetic flag")
	}
	if route.TotalDistanceKm <= 0 {
		t.Fatalf("expected positive distance, got %v", route.TotalDistanceKm)
	}
	if route.TotalDurationMin != math.Round(route.TotalDistanceKm*2) {
		t.Errorf("duration %v, want round(%v*2)", route.TotalDurationMin, route.TotalDistanceKm)
	}

	var sumDist, sumDur float64
	for _, s := range route.Steps {
		if s.Instruction == "" {
			t.Error("step missing instruction")
		}
		sumDist += s.DistanceKm
		sumDur += s.DurationMin
	}
	if math.Abs(sumDist-route.TotalDistanceKm) > 1e-9 {
		t.Errorf("step distances sum to %v, want %v", sumDist, route.TotalDistanceKm)
	}
	if math.Abs(sumDur-route.TotalDurationMin) > 1e-9 {
		t.Errorf("step durations sum to %v, want %v", sumDur, route.TotalDurationMin)
	}
}

func TestNewRoute_ZeroDistance(t *testing.T) {
	p := domain.Coordinate{Lat: 28.6139, Lon: 77.2090}

	route := fallback.NewRoute(p, p)
	if route.TotalDistanceKm != 0 || route.TotalDurationMin != 0 {
		t.Errorf("zero-length route has totals %v km / %v min, want 0/0",
			route.TotalDistanceKm, route.TotalDurationMin)
	}
	if len(route.Steps) != 4 {
		t.Fatalf("zero-length route must still have 4 steps, got %d", len(route.Steps))
	}
	for i, s := range route.Steps {
		if s.DistanceKm != 0 || s.DurationMin != 0 {
			t.Errorf("step %d has non-zero magnitudes: %+v", i, s)
		}
	}
}
