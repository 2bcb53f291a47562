//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/ironsheep/ocr-textboxes/internal/imaging"
	"github.com/otiai10/gosseract/v2"
)

// TesseractLibrary recognizes text in-process through libtesseract using the
// gosseract binding. It is compiled only with the "gosseract" build tag and
// requires the tesseract and leptonica development headers.
type TesseractLibrary struct {
	tessdataDir string
	newClient   func() *gosseract.Client
}

// NewTesseractLibrary returns the in-process engine. tessdataDir overrides
// where language data is read from; empty keeps libtesseract's default.
func NewTesseractLibrary(tessdataDir string) (*TesseractLibrary, error) {
	return &TesseractLibrary{
		tessdataDir: tessdataDir,
		newClient:   gosseract.NewClient,
	}, nil
}

func (t *TesseractLibrary) Name() string { return "tesseract-library" }

// Recognize runs word-level recognition over img. A fresh client is used per
// call, so concurrent calls do not share libtesseract state.
func (t *TesseractLibrary) Recognize(ctx context.Context, img image.Image) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewEngineFailureError("recognition cancelled", err)
	}

	payload, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, NewImageLoadError("", err)
	}

	client := t.newClient()
	defer client.Close()

	if t.tessdataDir != "" {
		if err := client.SetTessdataPrefix(t.tessdataDir); err != nil {
			return nil, NewEngineUnavailableError(t.tessdataDir, fmt.Errorf("failed to set tessdata path: %w", err))
		}
	}

	if err := client.SetImageFromBytes(payload); err != nil {
		return nil, NewEngineFailureError("failed to set image", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, NewEngineFailureError("failed to get bounding boxes", err)
	}

	detections := make([]Detection, 0, len(boxes))
	for _, box := range boxes {
		detections = append(detections, Detection{
			Level:      LevelWord,
			Box:        BoxFromRect(box.Box),
			Confidence: box.Confidence,
			Text:       box.Word,
		})
	}

	return detections, nil
}

// Version returns the linked libtesseract version.
func (t *TesseractLibrary) Version(ctx context.Context) (string, error) {
	client := t.newClient()
	defer client.Close()
	return client.Version(), nil
}
