package render

import (
	"bytes"
	"image"
	_ "image/png"
	"testing"

	"github.com/dlathrop/geoscout/internal/core/domain"
)

var testViewport = domain.Viewport{
	Center:      domain.Coordinate{Lat: 0, Lon: 0},
	SpanDegrees: domain.DefaultSpanDegrees,
	PixelWidth:  400,
	PixelHeight: 300,
}

func testPlaces() []domain.Place {
	return []domain.Place{
		{ID: "p1", Name: "Grand Plaza Hotel", Category: domain.CategoryLodging, Location: domain.Coordinate{Lat: 0.01, Lon: 0.01}},
		{ID: "p2", Name: "Central Public School", Category: domain.CategorySchool, Location: domain.Coordinate{Lat: -0.005, Lon: -0.005}},
	}
}

func TestRender_Idempotent(t *testing.T) {
	user := domain.Coordinate{Lat: 0, Lon: 0}

	a := NewSurface(testViewport)
	b := NewSurface(testViewport)
	Render(a, testViewport, testPlaces(), &user)
	Render(b, testViewport, testPlaces(), &user)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("two renders of identical inputs differ")
	}

	// Re-rendering onto a dirty surface must fully overwrite it.
	Render(a, testViewport, nil, nil)
	Render(b, testViewport, nil, nil)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("render does not clear previous content")
	}
}

func TestRender_MarkerColors(t *testing.T) {
	img := NewSurface(testViewport)
	Render(img, testViewport, testPlaces(), nil)

	// Place p1 at (0.01, 0.01) projects to (300, 75).
	if got := img.RGBAAt(300, 75); got != lodgingColor {
		t.Errorf("lodging marker at (300,75): %v, want %v", got, lodgingColor)
	}
	// Place p2 at (-0.005, -0.005) projects to (150, 187.5) -> pixel (150, 187).
	if got := img.RGBAAt(150, 187); got != schoolColor {
		t.Errorf("school marker at (150,187): %v, want %v", got, schoolColor)
	}
}

func TestRender_UserMarkerTwoTone(t *testing.T) {
	user := domain.Coordinate{Lat: 0, Lon: 0}
	img := NewSurface(testViewport)
	Render(img, testViewport, nil, &user)

	// User at center projects to (200, 150): inner dot over outer disc.
	if got := img.RGBAAt(200, 150); got != userInnerColor {
		t.Errorf("inner dot: %v, want %v", got, userInnerColor)
	}
	if got := img.RGBAAt(200+userOuterRadiusPx-1, 150); got != userOuterColor {
		t.Errorf("outer disc: %v, want %v", got, userOuterColor)
	}
}

func TestRender_BackgroundAndGrid(t *testing.T) {
	img := NewSurface(testViewport)
	Render(img, testViewport, nil, nil)

	if got := img.RGBAAt(0, 0); got != gridColor {
		t.Errorf("grid line at origin: %v, want %v", got, gridColor)
	}
	if got := img.RGBAAt(40, 1); got != gridColor {
		t.Errorf("vertical grid line at x=40: %v, want %v", got, gridColor)
	}
	if got := img.RGBAAt(21, 21); got != backgroundColor {
		t.Errorf("background between grid lines: %v, want %v", got, backgroundColor)
	}
}

func TestRender_OffscreenPlaceIsSafe(t *testing.T) {
	places := []domain.Place{
		{ID: "far", Name: "Far Away", Category: domain.CategoryLodging, Location: domain.Coordinate{Lat: 10, Lon: 10}},
	}
	img := NewSurface(testViewport)
	Render(img, testViewport, places, nil)
	// Projection does not clamp; drawing outside the surface must be a no-op.
	if got := img.RGBAAt(21, 21); got != backgroundColor {
		t.Errorf("offscreen place altered the visible surface: %v", got)
	}
}

func TestTruncateLabel(t *testing.T) {
	if got := truncateLabel("Sunrise International School"); got != "Sunrise Interna" {
		t.Errorf("truncation: got %q", got)
	}
	if got := truncateLabel("Short"); got != "Short" {
		t.Errorf("short name altered: %q", got)
	}
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(testViewport, testPlaces(), nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" {
		t.Errorf("format %q, want png", format)
	}
	if cfg.Width != 400 || cfg.Height != 300 {
		t.Errorf("dimensions %dx%d, want 400x300", cfg.Width, cfg.Height)
	}
}
