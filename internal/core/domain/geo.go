package domain

// Coordinate represents a geographic position (WGS 84).
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Viewport is the geographic window currently being rendered, together with
// the raster surface it maps onto. SpanDegrees is the half-width of the window
// in degrees: the visible box is [center-span, center+span] in both axes.
type Viewport struct {
	Center      Coordinate `json:"center"`
	SpanDegrees float64    `json:"span_degrees"`
	PixelWidth  int        `json:"pixel_width"`
	PixelHeight int        `json:"pixel_height"`
}

// DefaultSpanDegrees is the fixed viewport span used by the overview map.
const DefaultSpanDegrees = 0.02

// Bounds returns the geographic box visible through the viewport.
func (v Viewport) Bounds() Bounds {
	return Bounds{
		MinLat: v.Center.Lat - v.SpanDegrees,
		MinLon: v.Center.Lon - v.SpanDegrees,
		MaxLat: v.Center.Lat + v.SpanDegrees,
		MaxLon: v.Center.Lon + v.SpanDegrees,
	}
}
