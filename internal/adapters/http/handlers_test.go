package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/dlathrop/geoscout/internal/adapters/http"
	"github.com/dlathrop/geoscout/internal/core/domain"
	"github.com/dlathrop/geoscout/internal/core/usecases"
	"github.com/dlathrop/geoscout/internal/pkg/config"
)

// ---- Mock providers ----

type mockPlacesProvider struct {
	findNearbyFn func(ctx context.Context, center domain.Coordinate, category domain.Category, radiusKm float64) ([]domain.Place, error)
}

func (m *mockPlacesProvider) FindNearby(ctx context.Context, center domain.Coordinate, category domain.Category, radiusKm float64) ([]domain.Place, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, center, category, radiusKm)
	}
	return nil, nil
}

type mockRoutingProvider struct {
	routeFn func(ctx context.Context, origin, destination domain.Coordinate) (*domain.Route, error)
}

func (m *mockRoutingProvider) Route(ctx context.Context, origin, destination domain.Coordinate) (*domain.Route, error) {
	if m.routeFn != nil {
		return m.routeFn(ctx, origin, destination)
	}
	return nil, nil
}

type mockGeocodingProvider struct {
	geocodeFn func(ctx context.Context, query string) (*domain.Coordinate, error)
}

func (m *mockGeocodingProvider) Geocode(ctx context.Context, query string) (*domain.Coordinate, error) {
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, query)
	}
	return nil, nil
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	locator := usecases.NewLocatorService(&mockPlacesProvider{}, nil)
	planner := usecases.NewPlannerService(&mockRoutingProvider{}, nil)
	d := &handler.Dependencies{
		Locator:  locator,
		Planner:  planner,
		Geocoder: usecases.NewGeocodeService(&mockGeocodingProvider{}, nil),
		Sessions: usecases.NewSessionService(locator, planner, nil),
		Map: config.MapConfig{
			SpanDegrees:    domain.DefaultSpanDegrees,
			OverviewWidth:  400,
			OverviewHeight: 300,
		},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

// ---- Places ----

func TestNearbyPlaces_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Locator = usecases.NewLocatorService(&mockPlacesProvider{
			findNearbyFn: func(ctx context.Context, center domain.Coordinate, category domain.Category, radiusKm float64) ([]domain.Place, error) {
				return []domain.Place{
					{ID: "p1", Name: "Hotel Taj", Location: center, Category: category},
					{ID: "p2", Name: "Parkview Lodge", Location: center, Category: category},
				}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/places/nearby?lat=28.6139&lon=77.2090&category=lodging", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var result struct {
		Places []domain.Place `json:"places"`
		Count  int            `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Count != 2 || len(result.Places) != 2 {
		t.Errorf("expected 2 places, got count=%d len=%d", result.Count, len(result.Places))
	}
}

func TestNearbyPlaces_MissingParams(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/places/nearby?category=lodging", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestNearbyPlaces_UnknownCategory(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/places/nearby?lat=28.6&lon=77.2&category=museum", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestNearbyPlaces_ProviderFailureStillSucceeds(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Locator = usecases.NewLocatorService(&mockPlacesProvider{
			findNearbyFn: func(ctx context.Context, center domain.Coordinate, category domain.Category, radiusKm float64) ([]domain.Place, error) {
				return nil, fmt.Errorf("overpass down")
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/places/nearby?lat=28.6139&lon=77.2090&category=school", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("provider failure must not surface, got %d", resp.StatusCode)
	}

	var result struct {
		Places []domain.Place `json:"places"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Places) != 5 {
		t.Errorf("expected 5 synthesized places, got %d", len(result.Places))
	}
	for _, p := range result.Places {
		if !p.Synthetic {
			t.Errorf("place %s not flagged synthetic", p.ID)
		}
	}
}

// ---- Routes ----

func TestRoute_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Planner = usecases.NewPlannerService(&mockRoutingProvider{
			routeFn: func(ctx context.Context, origin, destination domain.Coordinate) (*domain.Route, error) {
				return &domain.Route{
					TotalDistanceKm:  31.2,
					TotalDurationMin: 47,
					Steps:            []domain.RouteStep{{Instruction: "Turn left onto NH 48", DistanceKm: 31.2, DurationMin: 47}},
				}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/routes?from_lat=28.6139&from_lon=77.2090&to_lat=28.4595&to_lon=77.0266", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var route domain.Route
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		t.Fatal(err)
	}
	if route.TotalDistanceKm != 31.2 || len(route.Steps) != 1 {
		t.Errorf("unexpected route: %+v", route)
	}
}

func TestRoute_MissingParams(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/routes?from_lat=28.6", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRoute_ProviderFailureStillSucceeds(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Planner = usecases.NewPlannerService(&mockRoutingProvider{
			routeFn: func(ctx context.Context, origin, destination domain.Coordinate) (*domain.Route, error) {
				return nil, fmt.Errorf("osrm down")
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/routes?from_lat=28.6139&from_lon=77.2090&to_lat=28.4595&to_lon=77.0266", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("provider failure must not surface, got %d", resp.StatusCode)
	}

	var route domain.Route
	json.NewDecoder(resp.Body).Decode(&route)
	if !route.Synthetic || len(route.Steps) != 4 {
		t.Errorf("expected 4-step synthetic route, got %+v", route)
	}
}

// ---- Geocode ----

func TestGeocode_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Geocoder = usecases.NewGeocodeService(&mockGeocodingProvider{
			geocodeFn: func(ctx context.Context, query string) (*domain.Coordinate, error) {
				return &domain.Coordinate{Lat: 28.6139, Lon: 77.2090}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/geocode?q=Connaught+Place", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var coord domain.Coordinate
	json.NewDecoder(resp.Body).Decode(&coord)
	if coord.Lat != 28.6139 {
		t.Errorf("unexpected coordinate: %v", coord)
	}
}

func TestGeocode_NoMatch(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/geocode?q=nowhere", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 for no match, got %d", resp.StatusCode)
	}

	var apiErr handler.APIError
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "not_found" {
		t.Errorf("expected not_found code, got %q", apiErr.Code)
	}
}

func TestGeocode_MissingQuery(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/geocode", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Map ----

func TestMap_ReturnsPNG(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/map?lat=28.6139&lon=77.2090&category=lodging", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type %q, want image/png", ct)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(readBody(t, resp.Body)))
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" || cfg.Width != 400 || cfg.Height != 300 {
		t.Errorf("got %s %dx%d, want png 400x300", format, cfg.Width, cfg.Height)
	}
}

func TestMap_CustomSurfaceSize(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/map?lat=28.6&lon=77.2&category=school&width=400&height=180", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(readBody(t, resp.Body)))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 400 || cfg.Height != 180 {
		t.Errorf("got %dx%d, want 400x180", cfg.Width, cfg.Height)
	}
}

// ---- Sessions ----

func TestSession_Lifecycle(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		locator := usecases.NewLocatorService(&mockPlacesProvider{
			findNearbyFn: func(ctx context.Context, center domain.Coordinate, category domain.Category, radiusKm float64) ([]domain.Place, error) {
				return []domain.Place{{ID: "p1", Name: "Greenfield Academy", Location: domain.Coordinate{Lat: center.Lat + 0.01, Lon: center.Lon + 0.01}}}, nil
			},
		}, nil)
		d.Locator = locator
		d.Sessions = usecases.NewSessionService(locator, d.Planner, nil)
	})
	app := setupApp(deps)

	// Create
	body := strings.NewReader(`{"lat": 28.6139, "lon": 77.2090, "category": "school"}`)
	req := httptest.NewRequest("POST", "/v1/sessions", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("create: expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var snap usecases.SessionSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.ID == "" || len(snap.Places) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	// Get
	req = httptest.NewRequest("GET", "/v1/sessions/"+snap.ID, nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("get: expected 200, got %d", resp.StatusCode)
	}

	// Click the marker: place at center+0.01/+0.01 projects to (300, 75)
	req = httptest.NewRequest("POST", "/v1/sessions/"+snap.ID+"/click", strings.NewReader(`{"x": 300, "y": 75}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("click: expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var clicked struct {
		Place *domain.Place `json:"place"`
		Route *domain.Route `json:"route"`
	}
	json.NewDecoder(resp.Body).Decode(&clicked)
	if clicked.Place == nil || clicked.Place.ID != "p1" {
		t.Errorf("expected p1 selected, got %+v", clicked.Place)
	}
	if clicked.Route == nil || len(clicked.Route.Steps) == 0 {
		t.Errorf("expected a route, got %+v", clicked.Route)
	}

	// Session map
	req = httptest.NewRequest("GET", "/v1/sessions/"+snap.ID+"/map", nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("map: expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("map Content-Type %q", ct)
	}

	// Close
	req = httptest.NewRequest("DELETE", "/v1/sessions/"+snap.ID, nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 204 {
		t.Fatalf("close: expected 204, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/v1/sessions/"+snap.ID, nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("get after close: expected 404, got %d", resp.StatusCode)
	}
}

func TestSessionClick_Miss(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		locator := usecases.NewLocatorService(&mockPlacesProvider{
			findNearbyFn: func(ctx context.Context, center domain.Coordinate, category domain.Category, radiusKm float64) ([]domain.Place, error) {
				return []domain.Place{{ID: "p1", Name: "X", Location: domain.Coordinate{Lat: center.Lat + 0.01, Lon: center.Lon + 0.01}}}, nil
			},
		}, nil)
		d.Locator = locator
		d.Sessions = usecases.NewSessionService(locator, d.Planner, nil)
	})
	app := setupApp(deps)

	body := strings.NewReader(`{"lat": 28.6139, "lon": 77.2090, "category": "lodging"}`)
	req := httptest.NewRequest("POST", "/v1/sessions", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	var snap usecases.SessionSnapshot
	json.NewDecoder(resp.Body).Decode(&snap)

	req = httptest.NewRequest("POST", "/v1/sessions/"+snap.ID+"/click", strings.NewReader(`{"x": 10, "y": 290}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("miss: expected 404, got %d", resp.StatusCode)
	}
}

func TestSession_UnknownCategory(t *testing.T) {
	app := setupApp(makeDeps())

	body := strings.NewReader(`{"lat": 28.6, "lon": 77.2, "category": "museum"}`)
	req := httptest.NewRequest("POST", "/v1/sessions", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- System ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReady_WithoutOptionalBackends(t *testing.T) {
	// Cache and NATS are optional; readiness holds as long as the core
	// services are wired.
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
}

func TestNearbyPlaces_CacheControlHeader(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/places/nearby?lat=28.6&lon=77.2&category=lodging", nil)
	resp, _ := app.Test(req, -1)
	if cc := resp.Header.Get("Cache-Control"); !strings.Contains(cc, "max-age=300") {
		t.Errorf("Cache-Control %q, want max-age=300", cc)
	}
}

func TestSecurityHeaders(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options %q", got)
	}
	if got := resp.Header.Get("X-API-Version"); got == "" {
		t.Error("X-API-Version missing")
	}
}

// ---- GraphQL ----

func TestGraphQL_PlacesNearby(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Locator = usecases.NewLocatorService(&mockPlacesProvider{
			findNearbyFn: func(ctx context.Context, center domain.Coordinate, category domain.Category, radiusKm float64) ([]domain.Place, error) {
				return []domain.Place{{ID: "p1", Name: "Hotel Taj", Location: center, Category: category}}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	query := `{"query": "{ placesNearby(lat: 28.6139, lon: 77.2090, category: \"lodging\") { id name category } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(query))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			PlacesNearby []struct {
				ID       string `json:"id"`
				Name     string `json:"name"`
				Category string `json:"category"`
			} `json:"placesNearby"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("graphql errors: %v", result.Errors)
	}
	if len(result.Data.PlacesNearby) != 1 || result.Data.PlacesNearby[0].Name != "Hotel Taj" {
		t.Errorf("unexpected result: %+v", result.Data.PlacesNearby)
	}
}

func TestGraphQL_Geocode(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Geocoder = usecases.NewGeocodeService(&mockGeocodingProvider{
			geocodeFn: func(ctx context.Context, query string) (*domain.Coordinate, error) {
				return &domain.Coordinate{Lat: 28.6139, Lon: 77.2090}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	query := `{"query": "{ geocode(query: \"Connaught Place\") { lat lon } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(query))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)

	var result struct {
		Data struct {
			Geocode *struct {
				Lat float64 `json:"lat"`
				Lon float64 `json:"lon"`
			} `json:"geocode"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Data.Geocode == nil || result.Data.Geocode.Lat != 28.6139 {
		t.Errorf("unexpected geocode result: %+v", result.Data.Geocode)
	}
}
