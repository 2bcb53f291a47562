package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

// stubEngine returns canned detections and records what it was asked to read.
type stubEngine struct {
	detections []Detection
	err        error

	calls  int
	bounds image.Rectangle
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Recognize(ctx context.Context, img image.Image) ([]Detection, error) {
	s.calls++
	s.bounds = img.Bounds()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]Detection, len(s.detections))
	copy(out, s.detections)
	return out, nil
}

func whiteImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "image.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// helloDetections is what tesseract reports for a single word: one row per
// layout level, only the word row carrying text.
func helloDetections() []Detection {
	return []Detection{
		{Level: LevelPage, Box: BoundingBox{0, 0, 100, 50}, Confidence: -1},
		{Level: LevelBlock, Box: BoundingBox{10, 20, 50, 15}, Confidence: -1},
		{Level: LevelParagraph, Box: BoundingBox{10, 20, 50, 15}, Confidence: -1},
		{Level: LevelLine, Box: BoundingBox{10, 20, 50, 15}, Confidence: -1},
		{Level: LevelWord, Box: BoundingBox{10, 20, 50, 15}, Confidence: 96.2, Text: "HELLO"},
	}
}

func TestExtract_SingleWord(t *testing.T) {
	engine := &stubEngine{detections: helloDetections()}
	ex := NewTextExtractor(engine)

	result, err := ex.Extract(context.Background(), whiteImage(100, 50))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := ExtractionResult{{Box: BoundingBox{X: 10, Y: 20, Width: 50, Height: 15}, Text: "HELLO"}}
	if !reflect.DeepEqual(result, want) {
		t.Errorf("result: got %+v, want %+v", result, want)
	}
	if engine.calls != 1 {
		t.Errorf("engine calls: got %d, want 1", engine.calls)
	}
}

func TestExtract_NoTextGivesEmptyResult(t *testing.T) {
	engine := &stubEngine{detections: []Detection{
		{Level: LevelPage, Box: BoundingBox{0, 0, 100, 100}, Confidence: -1},
	}}
	ex := NewTextExtractor(engine)

	result, err := ex.Extract(context.Background(), whiteImage(100, 100))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result == nil {
		t.Fatal("result should be empty, not nil")
	}
	if len(result) != 0 {
		t.Errorf("fragments: got %d, want 0", len(result))
	}
}

func TestExtract_NoDetectionsAtAll(t *testing.T) {
	ex := NewTextExtractor(&stubEngine{})

	result, err := ex.Extract(context.Background(), whiteImage(10, 10))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result == nil || len(result) != 0 {
		t.Errorf("got %#v, want empty non-nil result", result)
	}
}

func TestExtract_FiltersOnlyEmptyText(t *testing.T) {
	detections := []Detection{
		{Level: LevelWord, Box: BoundingBox{0, 0, 10, 10}, Confidence: 90, Text: "one"},
		{Level: LevelWord, Box: BoundingBox{12, 0, 10, 10}, Confidence: 95, Text: ""},
		{Level: LevelWord, Box: BoundingBox{24, 0, 10, 10}, Confidence: 3, Text: "two"},
		{Level: LevelWord, Box: BoundingBox{36, 0, 10, 10}, Confidence: 0, Text: " "},
		{Level: LevelLine, Box: BoundingBox{0, 0, 46, 10}, Confidence: -1, Text: ""},
		{Level: LevelWord, Box: BoundingBox{48, 0, 10, 10}, Confidence: 50, Text: "one"},
	}
	ex := NewTextExtractor(&stubEngine{detections: detections})

	result, err := ex.Extract(context.Background(), whiteImage(60, 10))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := ExtractionResult{
		{Box: BoundingBox{0, 0, 10, 10}, Text: "one"},
		{Box: BoundingBox{24, 0, 10, 10}, Text: "two"},
		{Box: BoundingBox{36, 0, 10, 10}, Text: " "},
		{Box: BoundingBox{48, 0, 10, 10}, Text: "one"},
	}
	if !reflect.DeepEqual(result, want) {
		t.Errorf("result:\n got  %+v\n want %+v", result, want)
	}
}

func TestExtract_KeepsEngineOrder(t *testing.T) {
	// Deliberately not in reading order.
	detections := []Detection{
		{Level: LevelWord, Box: BoundingBox{80, 40, 10, 10}, Text: "c"},
		{Level: LevelWord, Box: BoundingBox{0, 0, 10, 10}, Text: "a"},
		{Level: LevelWord, Box: BoundingBox{40, 20, 10, 10}, Text: "b"},
	}
	ex := NewTextExtractor(&stubEngine{detections: detections})

	result, err := ex.Extract(context.Background(), whiteImage(100, 60))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got := result.Text(); got != "c a b" {
		t.Errorf("order: got %q, want %q", got, "c a b")
	}
}

func TestExtract_BoxesNeverNegative(t *testing.T) {
	detections := []Detection{
		{Level: LevelWord, Box: BoundingBox{X: -3, Y: -1, Width: -5, Height: 8}, Text: "edge"},
		{Level: LevelWord, Box: BoundingBox{X: 4, Y: 2, Width: 6, Height: -2}, Text: "flat"},
	}
	ex := NewTextExtractor(&stubEngine{detections: detections})

	result, err := ex.Extract(context.Background(), whiteImage(20, 20))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	for _, f := range result {
		if f.Box.X < 0 || f.Box.Y < 0 || f.Box.Width < 0 || f.Box.Height < 0 {
			t.Errorf("fragment %q has negative box %+v", f.Text, f.Box)
		}
	}
	if result[0].Box != (BoundingBox{X: 0, Y: 0, Width: 0, Height: 8}) {
		t.Errorf("clamped box: got %+v", result[0].Box)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	ex := NewTextExtractor(&stubEngine{detections: helloDetections()})
	img := whiteImage(100, 50)

	first, err := ex.Extract(context.Background(), img)
	if err != nil {
		t.Fatalf("first Extract failed: %v", err)
	}
	second, err := ex.Extract(context.Background(), img)
	if err != nil {
		t.Fatalf("second Extract failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ:\n %+v\n %+v", first, second)
	}

	// Results are owned by the caller.
	first[0].Text = "changed"
	if second[0].Text != "HELLO" {
		t.Error("results share backing storage")
	}
}

func TestExtract_EngineErrorAborts(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{"unavailable", NewEngineUnavailableError("/opt/missing/tesseract", os.ErrNotExist), CodeEngineUnavailable},
		{"failure", NewEngineFailureError("bad output", nil), CodeEngineFailure},
		{"unclassified", errors.New("boom"), CodeEngineFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &stubEngine{detections: helloDetections(), err: tt.err}
			ex := NewTextExtractor(engine)

			result, err := ex.Extract(context.Background(), whiteImage(10, 10))
			if err == nil {
				t.Fatal("Extract should fail")
			}
			if result != nil {
				t.Errorf("result should be nil on failure, got %+v", result)
			}
			if got := CodeOf(err); got != tt.wantCode {
				t.Errorf("code: got %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestExtract_LogsFailures(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	engine := &stubEngine{err: NewEngineUnavailableError("/nope/tesseract", os.ErrNotExist)}
	ex := NewTextExtractor(engine, WithLogger(logrus.NewEntry(logger)))

	if _, err := ex.Extract(context.Background(), whiteImage(10, 10)); err == nil {
		t.Fatal("Extract should fail")
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Level != logrus.WarnLevel {
		t.Errorf("level: got %s, want warning", entry.Level)
	}
	if entry.Data["error_code"] != string(CodeEngineUnavailable) {
		t.Errorf("error_code field: got %v", entry.Data["error_code"])
	}
	if entry.Data["engine"] != "stub" {
		t.Errorf("engine field: got %v", entry.Data["engine"])
	}
}

func TestExtract_NilImage(t *testing.T) {
	engine := &stubEngine{}
	ex := NewTextExtractor(engine)

	_, err := ex.Extract(context.Background(), nil)
	if !errors.Is(err, ErrImageLoad) {
		t.Errorf("got %v, want ImageLoadError", err)
	}
	if engine.calls != 0 {
		t.Error("engine should not run without an image")
	}
}

func TestExtract_SubImageCoordinates(t *testing.T) {
	base := whiteImage(200, 100)
	sub := base.SubImage(image.Rect(30, 20, 100, 80))

	engine := &stubEngine{detections: []Detection{
		{Level: LevelWord, Box: BoundingBox{5, 6, 10, 4}, Text: "x"},
	}}
	ex := NewTextExtractor(engine)

	result, err := ex.Extract(context.Background(), sub)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got, want := result[0].Box, (BoundingBox{35, 26, 10, 4}); got != want {
		t.Errorf("box: got %+v, want %+v", got, want)
	}
}

func TestExtract_NegativeOriginClamped(t *testing.T) {
	img := image.NewRGBA(image.Rect(-50, -50, 50, 50))
	engine := &stubEngine{detections: []Detection{
		{Level: LevelWord, Box: BoundingBox{1, 2, 3, 4}, Text: "HI"},
	}}
	ex := NewTextExtractor(engine)

	result, err := ex.Extract(context.Background(), img)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got, want := result[0].Box, (BoundingBox{0, 0, 3, 4}); got != want {
		t.Errorf("box: got %+v, want %+v", got, want)
	}

	result, err = ex.ExtractRegion(context.Background(), img, image.Rect(-50, -50, 0, 0))
	if err != nil {
		t.Fatalf("ExtractRegion failed: %v", err)
	}
	if got, want := result[0].Box, (BoundingBox{0, 0, 3, 4}); got != want {
		t.Errorf("region box: got %+v, want %+v", got, want)
	}
}

func TestExtractFile(t *testing.T) {
	path := writePNG(t, whiteImage(64, 32))
	engine := &stubEngine{detections: helloDetections()}
	ex := NewTextExtractor(engine)

	result, err := ex.ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractFile failed: %v", err)
	}
	if len(result) != 1 || result[0].Text != "HELLO" {
		t.Errorf("result: got %+v", result)
	}
	if engine.bounds.Dx() != 64 || engine.bounds.Dy() != 32 {
		t.Errorf("engine saw %v, want 64x32 image", engine.bounds)
	}
}

func TestExtractFile_UsesGivenPath(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "small.png")
	large := filepath.Join(dir, "large.png")
	for path, size := range map[string]int{small: 8, large: 40} {
		f, err := os.Create(path)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := png.Encode(f, whiteImage(size, size)); err != nil {
			t.Fatalf("encode: %v", err)
		}
		f.Close()
	}

	engine := &stubEngine{}
	ex := NewTextExtractor(engine)

	if _, err := ex.ExtractFile(context.Background(), large); err != nil {
		t.Fatalf("ExtractFile failed: %v", err)
	}
	if engine.bounds.Dx() != 40 {
		t.Errorf("engine read a %dpx image, want the 40px one", engine.bounds.Dx())
	}
}

func TestExtractFile_LoadErrors(t *testing.T) {
	corrupt := filepath.Join(t.TempDir(), "corrupt.png")
	if err := os.WriteFile(corrupt, []byte("not a png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing", "/nonexistent/path/image.png"},
		{"corrupt", corrupt},
		{"empty path", ""},
		{"directory", t.TempDir()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &stubEngine{detections: helloDetections()}
			ex := NewTextExtractor(engine)

			result, err := ex.ExtractFile(context.Background(), tt.path)
			if !errors.Is(err, ErrImageLoad) {
				t.Fatalf("got %v, want ImageLoadError", err)
			}
			if result != nil {
				t.Errorf("result should be nil, got %+v", result)
			}
			if engine.calls != 0 {
				t.Error("engine should not run when the image cannot be loaded")
			}
		})
	}
}

func TestExtractRegion(t *testing.T) {
	img := whiteImage(200, 100)
	for y := 50; y < 60; y++ {
		for x := 60; x < 90; x++ {
			img.Set(x, y, color.Black)
		}
	}

	engine := &stubEngine{detections: []Detection{
		{Level: LevelPage, Box: BoundingBox{0, 0, 100, 50}, Confidence: -1},
		{Level: LevelWord, Box: BoundingBox{10, 10, 30, 10}, Confidence: 88, Text: "BAR"},
	}}
	ex := NewTextExtractor(engine)

	result, err := ex.ExtractRegion(context.Background(), img, image.Rect(50, 40, 150, 90))
	if err != nil {
		t.Fatalf("ExtractRegion failed: %v", err)
	}

	if engine.bounds.Dx() != 100 || engine.bounds.Dy() != 50 {
		t.Errorf("engine saw %v, want a 100x50 crop", engine.bounds)
	}
	want := ExtractionResult{{Box: BoundingBox{60, 50, 30, 10}, Text: "BAR"}}
	if !reflect.DeepEqual(result, want) {
		t.Errorf("result: got %+v, want %+v", result, want)
	}
}

func TestExtractRegion_ClipsToImage(t *testing.T) {
	engine := &stubEngine{detections: []Detection{
		{Level: LevelWord, Box: BoundingBox{1, 1, 5, 5}, Text: "z"},
	}}
	ex := NewTextExtractor(engine)

	result, err := ex.ExtractRegion(context.Background(), whiteImage(100, 100), image.Rect(80, 90, 300, 300))
	if err != nil {
		t.Fatalf("ExtractRegion failed: %v", err)
	}
	if engine.bounds.Dx() != 20 || engine.bounds.Dy() != 10 {
		t.Errorf("engine saw %v, want a 20x10 crop", engine.bounds)
	}
	if got, want := result[0].Box, (BoundingBox{81, 91, 5, 5}); got != want {
		t.Errorf("box: got %+v, want %+v", got, want)
	}
}

func TestExtractRegion_OutsideImage(t *testing.T) {
	engine := &stubEngine{}
	ex := NewTextExtractor(engine)

	_, err := ex.ExtractRegion(context.Background(), whiteImage(50, 50), image.Rect(60, 60, 80, 80))
	if !errors.Is(err, ErrImageLoad) {
		t.Errorf("got %v, want ImageLoadError", err)
	}
	if engine.calls != 0 {
		t.Error("engine should not run for an empty region")
	}
}

func TestExtractionResult_Text(t *testing.T) {
	r := ExtractionResult{{Text: "Hello"}, {Text: "World"}}
	if got := r.Text(); got != "Hello World" {
		t.Errorf("Text: got %q", got)
	}
	if got := (ExtractionResult{}).Text(); got != "" {
		t.Errorf("empty Text: got %q", got)
	}
}

func TestBoundingBox_Rect(t *testing.T) {
	b := BoundingBox{X: 10, Y: 20, Width: 50, Height: 15}
	if got, want := b.Rect(), image.Rect(10, 20, 60, 35); got != want {
		t.Errorf("Rect: got %v, want %v", got, want)
	}
	if got := BoxFromRect(image.Rect(60, 35, 10, 20)); got != b {
		t.Errorf("BoxFromRect: got %+v, want %+v", got, b)
	}
}
