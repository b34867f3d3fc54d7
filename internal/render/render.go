// Package render draws a viewport's place markers onto a raster surface.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/dlathrop/geoscout/internal/core/domain"
	"github.com/dlathrop/geoscout/internal/pkg/geomath"
)

const (
	gridPitchPx   = 40
	maxLabelRunes = 15

	markerRadiusPx    = 5
	userOuterRadiusPx = 7
	userInnerRadiusPx = 3
)

var (
	backgroundColor = color.RGBA{R: 0xe8, G: 0xf0, B: 0xe8, A: 0xff}
	gridColor       = color.RGBA{R: 0xd0, G: 0xd8, B: 0xd0, A: 0xff}
	labelColor      = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}

	lodgingColor = color.RGBA{R: 0xc0, G: 0x30, B: 0x30, A: 0xff}
	schoolColor  = color.RGBA{R: 0x20, G: 0x50, B: 0xb8, A: 0xff}

	userOuterColor = color.RGBA{R: 0x10, G: 0x70, B: 0x30, A: 0xff}
	userInnerColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// NewSurface allocates a raster surface matching the viewport's pixel size.
func NewSurface(vp domain.Viewport) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, vp.PixelWidth, vp.PixelHeight))
}

// Render draws the viewport onto img: background, reference grid, the user
// marker when present, and one labeled marker per place. Rendering is a pure
// function of its inputs.
func Render(img *image.RGBA, vp domain.Viewport, places []domain.Place, user *domain.Coordinate) {
	bounds := img.Bounds()
	draw.Draw(img, bounds, image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	// The grid is a fixed-pitch spatial reference, not tied to geographic
	// scale.
	for x := bounds.Min.X; x < bounds.Max.X; x += gridPitchPx {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			img.Set(x, y, gridColor)
		}
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y += gridPitchPx {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.Set(x, y, gridColor)
		}
	}

	for i := range places {
		p := &places[i]
		x, y := geomath.Project(p.Location, vp)
		fillDisc(img, int(x), int(y), markerRadiusPx, markerColor(p.Category))
		drawLabel(img, int(x)+markerRadiusPx+3, int(y)+4, truncateLabel(p.Name))
	}

	if user != nil {
		x, y := geomath.Project(*user, vp)
		fillDisc(img, int(x), int(y), userOuterRadiusPx, userOuterColor)
		fillDisc(img, int(x), int(y), userInnerRadiusPx, userInnerColor)
	}
}

// EncodePNG renders the viewport into a fresh surface and encodes it.
func EncodePNG(vp domain.Viewport, places []domain.Place, user *domain.Coordinate) ([]byte, error) {
	img := NewSurface(vp)
	Render(img, vp, places, user)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("render: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func markerColor(category domain.Category) color.RGBA {
	if category == domain.CategorySchool {
		return schoolColor
	}
	return lodgingColor
}

func truncateLabel(name string) string {
	runes := []rune(name)
	if len(runes) > maxLabelRunes {
		return string(runes[:maxLabelRunes])
	}
	return name
}

// fillDisc sets every pixel within radius of (cx, cy). Pixels outside the
// surface are dropped by img.Set.
func fillDisc(img *image.RGBA, cx, cy, radius int, col color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				img.Set(cx+dx, cy+dy, col)
			}
		}
	}
}

func drawLabel(img *image.RGBA, x, y int, text string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
