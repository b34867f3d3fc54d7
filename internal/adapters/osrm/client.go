// Package osrm implements ports.RoutingProvider against an OSRM server.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dlathrop/geoscout/internal/core/domain"
	"github.com/dlathrop/geoscout/internal/pkg/metrics"
)

// DefaultBaseURL is the public OSRM demo server.
const DefaultBaseURL = "https://router.project-osrm.org"

// Client requests driving routes from OSRM.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// New creates an OSRM client. An empty baseURL selects the public demo server.
func New(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Legs     []struct {
			Steps []struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
				Name     string  `json:"name"`
				Maneuver struct {
					Type     string `json:"type"`
					Modifier string `json:"modifier"`
				} `json:"maneuver"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// Route requests a driving route with turn-by-turn steps. OSRM takes
// coordinates in lon,lat order and answers in meters and seconds.
func (c *Client) Route(ctx context.Context, origin, destination domain.Coordinate) (_ *domain.Route, err error) {
	start := time.Now()
	defer func() { metrics.ObserveProvider("osrm", start, err) }()

	reqURL := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false&steps=true",
		c.baseURL, origin.Lon, origin.Lat, destination.Lon, destination.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("osrm: build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("osrm: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("osrm: status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("osrm: decode: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return nil, fmt.Errorf("osrm: no route (code %q)", body.Code)
	}

	best := body.Routes[0]
	route := &domain.Route{
		TotalDistanceKm:  best.Distance / 1000,
		TotalDurationMin: best.Duration / 60,
	}
	for _, leg := range best.Legs {
		for _, s := range leg.Steps {
			route.Steps = append(route.Steps, domain.RouteStep{
				Instruction: instruction(s.Maneuver.Type, s.Maneuver.Modifier, s.Name),
				DistanceKm:  s.Distance / 1000,
				DurationMin: s.Duration / 60,
			})
		}
	}
	return route, nil
}

// instruction builds a readable direction from an OSRM maneuver.
func instruction(maneuverType, modifier, road string) string {
	var b strings.Builder
	switch maneuverType {
	case "depart":
		b.WriteString("Head out")
	case "arrive":
		return "Arrive at destination"
	case "turn", "end of road", "fork":
		if modifier != "" {
			b.WriteString("Turn " + modifier)
		} else {
			b.WriteString("Turn")
		}
	case "roundabout", "rotary":
		b.WriteString("Take the roundabout")
	case "merge":
		b.WriteString("Merge")
	case "continue", "new name":
		b.WriteString("Continue")
	default:
		b.WriteString("Continue straight")
	}
	if road != "" {
		b.WriteString(" onto " + road)
	}
	return b.String()
}
