package ocr

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"os/exec"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// requireTesseract skips the test unless a real tesseract is on PATH.
func requireTesseract(t *testing.T) *TextExtractor {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping tesseract run in short mode")
	}
	if _, err := exec.LookPath(DefaultExecutable); err != nil {
		t.Skip("Tesseract not available")
	}
	return NewTextExtractor(NewTesseractCLI(DefaultExecutable, nil))
}

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// renderText draws text at 1x and scales it up so tesseract can read the
// 7x13 bitmap font.
func renderText(text string, scale int) *image.RGBA {
	width := len(text)*7 + 40
	height := 40

	small := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	drawText(small, 20, 25, text, color.Black)

	img := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := small.At(x, y)
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.Set(x*scale+dx, y*scale+dy, c)
				}
			}
		}
	}
	return img
}

func TestTesseract_BlankImage(t *testing.T) {
	ex := requireTesseract(t)

	result, err := ex.Extract(context.Background(), whiteImage(200, 100))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("blank image: got %+v, want no fragments", result)
	}
}

func TestTesseract_RenderedWords(t *testing.T) {
	ex := requireTesseract(t)
	img := renderText("HELLO WORLD", 4)

	result, err := ex.Extract(context.Background(), img)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	t.Logf("Extracted: %q (%d fragments)", result.Text(), len(result))

	bounds := img.Bounds()
	for _, f := range result {
		if f.Text == "" {
			t.Error("empty fragment returned")
		}
		if f.Box.X < 0 || f.Box.Y < 0 || f.Box.Width < 0 || f.Box.Height < 0 {
			t.Errorf("negative box %+v for %q", f.Box, f.Text)
		}
		if !f.Box.Rect().In(bounds) {
			t.Errorf("box %+v for %q lies outside the image", f.Box, f.Text)
		}
	}

	if !strings.Contains(strings.ToUpper(result.Text()), "HELLO") {
		t.Log("Warning: HELLO not recognized - may need larger scale or different font")
	}
}

func TestTesseract_Deterministic(t *testing.T) {
	ex := requireTesseract(t)
	img := renderText("SCALE TEST", 3)

	first, err := ex.Extract(context.Background(), img)
	if err != nil {
		t.Fatalf("first Extract failed: %v", err)
	}
	second, err := ex.Extract(context.Background(), img)
	if err != nil {
		t.Fatalf("second Extract failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeat runs differ:\n %+v\n %+v", first, second)
	}
}

func TestTesseract_RegionOffsets(t *testing.T) {
	ex := requireTesseract(t)

	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	drawText(img, 150, 100, "CENTER TEXT", color.Black)
	drawText(img, 10, 20, "TOP LEFT", color.Black)

	result, err := ex.ExtractRegion(context.Background(), img, image.Rect(100, 50, 300, 150))
	if err != nil {
		t.Fatalf("ExtractRegion failed: %v", err)
	}
	t.Logf("Extracted from center region: %q", result.Text())

	for _, f := range result {
		if f.Box.X < 100 || f.Box.Y < 50 {
			t.Errorf("box %+v should be offset into image coordinates", f.Box)
		}
	}
}
