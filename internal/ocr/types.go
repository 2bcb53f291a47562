package ocr

import (
	"image"
	"strings"
)

// BoundingBox is a pixel-space rectangle with its origin at the top-left
// corner, X growing rightward and Y growing downward.
//
// Width and Height are never negative in values produced by this package.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect converts the box to an image.Rectangle (Max exclusive).
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Translate shifts the box by (dx, dy).
func (b BoundingBox) Translate(dx, dy int) BoundingBox {
	b.X += dx
	b.Y += dy
	return b
}

// normalized clamps every field to be non-negative.
func (b BoundingBox) normalized() BoundingBox {
	if b.X < 0 {
		b.X = 0
	}
	if b.Y < 0 {
		b.Y = 0
	}
	if b.Width < 0 {
		b.Width = 0
	}
	if b.Height < 0 {
		b.Height = 0
	}
	return b
}

// BoxFromRect converts an image.Rectangle to a BoundingBox.
func BoxFromRect(r image.Rectangle) BoundingBox {
	r = r.Canon()
	return BoundingBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// TextFragment is one recognized word together with where it was found.
// Text is never empty.
type TextFragment struct {
	Box  BoundingBox `json:"box"`
	Text string      `json:"text"`
}

// ExtractionResult is the ordered list of fragments found in one image.
//
// The order is the engine's scan order (for Tesseract: block, paragraph,
// line, word). It is never re-sorted.
type ExtractionResult []TextFragment

// Text joins all fragment texts with single spaces.
func (r ExtractionResult) Text() string {
	words := make([]string, len(r))
	for i, f := range r {
		words[i] = f.Text
	}
	return strings.Join(words, " ")
}

// Level is the layout level a detection belongs to.
type Level int

// Tesseract page iterator levels, as numbered in its TSV output.
const (
	LevelPage      Level = 1
	LevelBlock     Level = 2
	LevelParagraph Level = 3
	LevelLine      Level = 4
	LevelWord      Level = 5
)

func (l Level) String() string {
	switch l {
	case LevelPage:
		return "page"
	case LevelBlock:
		return "block"
	case LevelParagraph:
		return "paragraph"
	case LevelLine:
		return "line"
	case LevelWord:
		return "word"
	}
	return "unknown"
}

// Detection is one raw row reported by a recognition engine.
//
// Engines report every layout level; only word rows carry text. Confidence
// is on the engine's 0-100 scale, -1 where the engine does not score the row.
type Detection struct {
	Level      Level       `json:"level"`
	Box        BoundingBox `json:"box"`
	Confidence float64     `json:"confidence"`
	Text       string      `json:"text"`
}
