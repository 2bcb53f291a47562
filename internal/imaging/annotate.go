package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultBoxColor is used by Annotate when no colour is given.
const DefaultBoxColor = "#ff0000"

// Label is a rectangle to outline and the caption to print above it.
type Label struct {
	Box  image.Rectangle
	Text string
}

// Annotate returns a copy of img with every label's box outlined in boxColor
// and its text printed just above the box.
//
// boxColor is a hex colour ("#rrggbb"); an empty string selects
// DefaultBoxColor. Boxes are in the coordinate space of img.Bounds(); the
// returned image starts at (0,0). Labels outside the image are clipped.
func Annotate(img image.Image, labels []Label, boxColor string) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	if boxColor == "" {
		boxColor = DefaultBoxColor
	}

	c, err := colorful.Hex(boxColor)
	if err != nil {
		return nil, fmt.Errorf("invalid box color %q: %w", boxColor, err)
	}
	r, g, b := c.RGB255()
	stroke := color.NRGBA{R: r, G: g, B: b, A: 255}
	// Captions go on a pale tint of the stroke so they stay readable.
	tint := c.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, 0.8).Clamped()
	tr, tg, tb := tint.RGB255()
	captionBg := color.NRGBA{R: tr, G: tg, B: tb, A: 255}

	out := imaging.Clone(img)
	offset := img.Bounds().Min

	for _, l := range labels {
		box := l.Box.Canon().Sub(offset)
		drawOutline(out, box, stroke)
		if l.Text != "" {
			drawCaption(out, box.Min.X, box.Min.Y-2, l.Text, stroke, captionBg)
		}
	}

	return out, nil
}

// drawOutline draws a one pixel rectangle border, clipped to dst.
func drawOutline(dst *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	if r.Empty() {
		return
	}
	bounds := dst.Bounds()
	set := func(x, y int) {
		if (image.Point{X: x, Y: y}).In(bounds) {
			dst.SetNRGBA(x, y, c)
		}
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		set(x, r.Min.Y)
		set(x, r.Max.Y-1)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		set(r.Min.X, y)
		set(r.Max.X-1, y)
	}
}

// drawCaption prints text with its baseline at (x, baseline) on a filled
// background. When the caption would leave the top of the image it is moved
// inside the box instead.
func drawCaption(dst *image.NRGBA, x, baseline int, text string, fg, bg color.NRGBA) {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	descent := metrics.Descent.Ceil()

	if baseline-ascent < dst.Bounds().Min.Y {
		baseline += ascent + descent + 2
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(baseline)},
	}
	width := d.MeasureString(text).Ceil()

	backdrop := image.Rect(x-1, baseline-ascent-1, x+width+1, baseline+descent)
	draw.Draw(dst, backdrop.Intersect(dst.Bounds()), image.NewUniform(bg), image.Point{}, draw.Src)

	d.DrawString(text)
}
