package geomath

import (
	"math"

	"github.com/dlathrop/geoscout/internal/core/domain"
)

const earthRadiusKm = 6371.0

// clickTolerancePx is the marker hit box half-size, fixed in pixels
// regardless of viewport span.
const clickTolerancePx = 15.0

// DistanceKm calculates the great-circle distance in kilometers between two
// coordinates using the haversine formula.
func DistanceKm(a, b domain.Coordinate) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// Project linearly maps a coordinate through the viewport onto pixel space.
// The geographic box [center-span, center+span] maps onto
// [0, PixelWidth] x [PixelHeight, 0]; the y axis is inverted so north is up.
// Coordinates outside the box project outside the pixel rectangle; the caller
// culls if it cares.
func Project(c domain.Coordinate, vp domain.Viewport) (x, y float64) {
	span2 := 2 * vp.SpanDegrees
	x = (c.Lon - (vp.Center.Lon - vp.SpanDegrees)) / span2 * float64(vp.PixelWidth)
	y = float64(vp.PixelHeight) - (c.Lat-(vp.Center.Lat-vp.SpanDegrees))/span2*float64(vp.PixelHeight)
	return x, y
}

// ResolveClick maps a pixel click back to the place whose projected marker it
// hits, or nil when no marker is close enough. The hit box is a 15px square
// per axis (|dx| and |dy| checked independently, not a radial distance); the
// first place in input order that qualifies wins.
func ResolveClick(clickX, clickY float64, vp domain.Viewport, places []domain.Place) *domain.Place {
	for i := range places {
		px, py := Project(places[i].Location, vp)
		if math.Abs(px-clickX) <= clickTolerancePx && math.Abs(py-clickY) <= clickTolerancePx {
			return &places[i]
		}
	}
	return nil
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
