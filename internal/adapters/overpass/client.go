// Package overpass implements ports.PlacesProvider against the Overpass API.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dlathrop/geoscout/internal/core/domain"
	"github.com/dlathrop/geoscout/internal/pkg/metrics"
)

const (
	// DefaultBaseURL is the public Overpass interpreter endpoint.
	DefaultBaseURL = "https://overpass-api.de/api/interpreter"

	// queryTimeoutSeconds is the server-side [timeout:] bound. The HTTP
	// client timeout must exceed it so the server can answer first.
	queryTimeoutSeconds = 25

	maxResults = 10
)

// Client queries the Overpass API for points of interest.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// New creates an Overpass client. An empty baseURL selects the public API.
func New(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = (queryTimeoutSeconds + 10) * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

// tagFilter maps a category to the OSM tag selecting it.
func tagFilter(category domain.Category) (key, value string, ok bool) {
	switch category {
	case domain.CategoryLodging:
		return "tourism", "hotel", true
	case domain.CategorySchool:
		return "amenity", "school", true
	}
	return "", "", false
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center,omitempty"`
	Tags map[string]string `json:"tags"`
}

type response struct {
	Elements []element `json:"elements"`
}

// FindNearby returns up to ten places of the category within radiusKm of
// center. Ways are located by their computed center.
func (c *Client) FindNearby(ctx context.Context, center domain.Coordinate, category domain.Category, radiusKm float64) (_ []domain.Place, err error) {
	start := time.Now()
	defer func() { metrics.ObserveProvider("overpass", start, err) }()

	key, value, ok := tagFilter(category)
	if !ok {
		return nil, fmt.Errorf("overpass: no tag mapping for category %q", category)
	}

	radiusM := radiusKm * 1000
	query := fmt.Sprintf(`
		[out:json][timeout:%d];
		(
			node[%q=%q](around:%f,%f,%f);
			way[%q=%q](around:%f,%f,%f);
		);
		out center %d;
	`, queryTimeoutSeconds,
		key, value, radiusM, center.Lat, center.Lon,
		key, value, radiusM, center.Lat, center.Lon,
		maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL,
		strings.NewReader("data="+url.QueryEscape(query)))
	if err != nil {
		return nil, fmt.Errorf("overpass: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass: query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass: status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("overpass: decode: %w", err)
	}

	places := make([]domain.Place, 0, len(body.Elements))
	for _, el := range body.Elements {
		p := domain.Place{
			ID:       fmt.Sprintf("osm-%s-%d", el.Type, el.ID),
			Name:     el.Tags["name"],
			Category: category,
			Location: domain.Coordinate{Lat: el.Lat, Lon: el.Lon},
			Address:  formatAddress(el.Tags),
			Rating:   parseRating(el.Tags),
		}
		if el.Center != nil {
			p.Location = domain.Coordinate{Lat: el.Center.Lat, Lon: el.Center.Lon}
		}
		places = append(places, p)
	}
	return places, nil
}

// parseRating reads the OSM "stars" tag for lodging. Anything unparsable
// yields no rating rather than an error.
func parseRating(tags map[string]string) *float64 {
	stars, ok := tags["stars"]
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(stars), 64)
	if err != nil {
		return nil
	}
	return &v
}

func formatAddress(tags map[string]string) string {
	var parts []string
	if v := tags["addr:housenumber"]; v != "" {
		parts = append(parts, v)
	}
	if v := tags["addr:street"]; v != "" {
		parts = append(parts, v)
	}
	if v := tags["addr:city"]; v != "" {
		parts = append(parts, v)
	}
	return strings.Join(parts, " ")
}
