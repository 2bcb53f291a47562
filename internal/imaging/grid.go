package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultGridColor is used by GridOverlay when no colour is given.
const DefaultGridColor = "#00a0ff"

// MinGridSpacing is the smallest spacing GridOverlay accepts.
const MinGridSpacing = 10

// GridOverlay returns a copy of img with a coordinate grid drawn every
// spacing pixels. When showCoordinates is set each intersection is labelled
// with its x,y position in img's coordinate space, which is the space
// region extraction expects.
func GridOverlay(img image.Image, spacing int, showCoordinates bool, gridColor string) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	if spacing < MinGridSpacing {
		return nil, fmt.Errorf("grid spacing %d below minimum %d", spacing, MinGridSpacing)
	}
	if gridColor == "" {
		gridColor = DefaultGridColor
	}

	c, err := colorful.Hex(gridColor)
	if err != nil {
		return nil, fmt.Errorf("invalid grid color %q: %w", gridColor, err)
	}
	r, g, b := c.RGB255()
	line := color.NRGBA{R: r, G: g, B: b, A: 255}

	out := imaging.Clone(img)
	drawGrid(out, img.Bounds().Min, spacing, line, showCoordinates)
	return out, nil
}

// drawGrid draws lines on dst at every multiple of spacing in the source
// coordinate space, where dst's (0,0) corresponds to origin.
func drawGrid(dst *image.NRGBA, origin image.Point, spacing int, line color.NRGBA, showCoordinates bool) {
	bounds := dst.Bounds()
	labelFg := color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	for x := firstMultiple(origin.X, spacing); x-origin.X < bounds.Dx(); x += spacing {
		for y := 0; y < bounds.Dy(); y++ {
			dst.SetNRGBA(x-origin.X, y, line)
		}
	}
	for y := firstMultiple(origin.Y, spacing); y-origin.Y < bounds.Dy(); y += spacing {
		for x := 0; x < bounds.Dx(); x++ {
			dst.SetNRGBA(x, y-origin.Y, line)
		}
	}

	if !showCoordinates {
		return
	}
	for y := firstMultiple(origin.Y, spacing); y-origin.Y < bounds.Dy(); y += spacing {
		for x := firstMultiple(origin.X, spacing); x-origin.X < bounds.Dx(); x += spacing {
			// Captions are placed below-right of the intersection.
			drawCaption(dst, x-origin.X+2, y-origin.Y+14, fmt.Sprintf("%d,%d", x, y), labelFg, line)
		}
	}
}

// firstMultiple returns the smallest positive multiple of spacing that is
// >= from.
func firstMultiple(from, spacing int) int {
	m := (from / spacing) * spacing
	if m < from {
		m += spacing
	}
	if m <= 0 {
		m = spacing
	}
	return m
}
