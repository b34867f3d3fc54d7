package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dlathrop/geoscout/internal/core/domain"
	"github.com/dlathrop/geoscout/internal/pkg/metrics"
	"github.com/dlathrop/geoscout/internal/render"
)

func parseCoordinate(c *fiber.Ctx, latKey, lonKey string) (domain.Coordinate, bool) {
	lat := c.QueryFloat(latKey, -1000)
	lon := c.QueryFloat(lonKey, -1000)
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return domain.Coordinate{}, false
	}
	return domain.Coordinate{Lat: lat, Lon: lon}, true
}

func parseCategory(c *fiber.Ctx) (domain.Category, bool) {
	category := domain.Category(c.Query("category"))
	return category, category.Valid()
}

// NearbyPlacesHandler returns places of a category around a coordinate.
// Provider failures never surface here; the response always has places.
func NearbyPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, ok := parseCoordinate(c, "lat", "lon")
		if !ok {
			return errBadRequest(c, "lat and lon are required and must be valid coordinates")
		}
		category, ok := parseCategory(c)
		if !ok {
			return errBadRequest(c, "category must be \"lodging\" or \"school\"")
		}
		radiusKm := c.QueryFloat("radius_km", 0)
		if radiusKm < 0 || radiusKm > 50 {
			return errBadRequest(c, "radius_km must be between 0 and 50")
		}

		places := deps.Locator.FindNearby(c.UserContext(), center, category, radiusKm)
		if len(places) > 0 && places[0].Synthetic {
			metrics.FallbackPlaces.WithLabelValues(string(category)).Inc()
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(fiber.Map{
			"places": places,
			"count":  len(places),
		})
	}
}

// RouteHandler computes a route between two coordinates. Same never-fail
// contract as NearbyPlacesHandler: a provider outage yields a synthetic route.
func RouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin, ok := parseCoordinate(c, "from_lat", "from_lon")
		if !ok {
			return errBadRequest(c, "from_lat and from_lon are required and must be valid coordinates")
		}
		destination, ok := parseCoordinate(c, "to_lat", "to_lon")
		if !ok {
			return errBadRequest(c, "to_lat and to_lon are required and must be valid coordinates")
		}

		route := deps.Planner.PlanRoute(c.UserContext(), origin, destination)
		if route.Synthetic {
			metrics.FallbackRoutes.Inc()
		}
		return c.JSON(route)
	}
}

// GeocodeHandler resolves a free-text query to a coordinate.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		coord, err := deps.Geocoder.Search(c.UserContext(), query)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if coord == nil {
			return errNotFound(c, "no match for query")
		}

		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(coord)
	}
}

// MapHandler renders a one-shot overview map for a coordinate and category.
func MapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, ok := parseCoordinate(c, "lat", "lon")
		if !ok {
			return errBadRequest(c, "lat and lon are required and must be valid coordinates")
		}
		category, ok := parseCategory(c)
		if !ok {
			return errBadRequest(c, "category must be \"lodging\" or \"school\"")
		}

		width := c.QueryInt("width", deps.Map.OverviewWidth)
		height := c.QueryInt("height", deps.Map.OverviewHeight)
		if width <= 0 || width > 2000 || height <= 0 || height > 2000 {
			return errBadRequest(c, "width and height must be between 1 and 2000")
		}

		vp := domain.Viewport{
			Center:      center,
			SpanDegrees: deps.Map.SpanDegrees,
			PixelWidth:  width,
			PixelHeight: height,
		}
		places := deps.Locator.FindNearby(c.UserContext(), center, category, 0)

		png, err := render.EncodePNG(vp, places, &center)
		if err != nil {
			return errInternal(c, err.Error())
		}
		metrics.MapsRendered.Inc()

		c.Set("Content-Type", "image/png")
		c.Set("Cache-Control", "public, max-age=60")
		return c.Send(png)
	}
}

type createSessionRequest struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Category string  `json:"category"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

// CreateSessionHandler opens a map session and loads its initial place set.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createSessionRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat < -90 || req.Lat > 90 || req.Lon < -180 || req.Lon > 180 {
			return errBadRequest(c, "lat and lon must be valid coordinates")
		}

		center := domain.Coordinate{Lat: req.Lat, Lon: req.Lon}
		snap, err := deps.Sessions.Create(c.UserContext(), center, domain.Category(req.Category), req.Width, req.Height)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		metrics.ActiveSessions.Inc()

		return c.Status(fiber.StatusCreated).JSON(snap)
	}
}

// GetSessionHandler returns a session's current snapshot.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := deps.Sessions.Get(c.Params("id"))
		if err != nil {
			return errNotFound(c, "session not found")
		}
		return c.JSON(snap)
	}
}

type refreshSessionRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RefreshSessionHandler recenters a session and replaces its place set.
func RefreshSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req refreshSessionRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat < -90 || req.Lat > 90 || req.Lon < -180 || req.Lon > 180 {
			return errBadRequest(c, "lat and lon must be valid coordinates")
		}

		snap, err := deps.Sessions.Refresh(c.UserContext(), c.Params("id"), domain.Coordinate{Lat: req.Lat, Lon: req.Lon})
		if err != nil {
			return errNotFound(c, "session not found")
		}
		return c.JSON(snap)
	}
}

type clickSessionRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ClickSessionHandler resolves a pixel click against the session's markers.
// A hit plans a route to the selected place; a miss is a 404 no-match.
func ClickSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req clickSessionRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		place, route, err := deps.Sessions.Click(c.UserContext(), c.Params("id"), req.X, req.Y)
		if err != nil {
			return errNotFound(c, err.Error())
		}
		if place == nil {
			return errNotFound(c, "no marker at click position")
		}

		return c.JSON(fiber.Map{
			"place": place,
			"route": route,
		})
	}
}

// CloseSessionHandler removes a session.
func CloseSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := deps.Sessions.Get(c.Params("id")); err != nil {
			return errNotFound(c, "session not found")
		}
		deps.Sessions.Close(c.Params("id"))
		metrics.ActiveSessions.Dec()
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SessionMapHandler renders a session's current state to PNG.
func SessionMapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := deps.Sessions.Get(c.Params("id"))
		if err != nil {
			return errNotFound(c, "session not found")
		}

		png, err := render.EncodePNG(snap.Viewport, snap.Places, snap.User)
		if err != nil {
			return errInternal(c, err.Error())
		}
		metrics.MapsRendered.Inc()

		c.Set("Content-Type", "image/png")
		c.Set("Cache-Control", "no-cache")
		return c.Send(png)
	}
}
