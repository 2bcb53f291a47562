package ocr

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/ironsheep/ocr-textboxes/internal/imaging"
	"github.com/sirupsen/logrus"
)

// TextExtractor turns an image into the words a recognition engine finds in
// it, each with its bounding box.
//
// A TextExtractor holds only its engine and logger. It keeps no state
// between calls and is safe for concurrent use when its engine is.
type TextExtractor struct {
	engine Recognizer
	log    *logrus.Entry
}

// ExtractorOption configures a TextExtractor.
type ExtractorOption func(*TextExtractor)

// WithLogger sets the logger used for per-call diagnostics.
func WithLogger(log *logrus.Entry) ExtractorOption {
	return func(e *TextExtractor) {
		if log != nil {
			e.log = log
		}
	}
}

// NewTextExtractor returns an extractor backed by engine.
func NewTextExtractor(engine Recognizer, opts ...ExtractorOption) *TextExtractor {
	e := &TextExtractor{
		engine: engine,
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.WithField("engine", engine.Name())
	return e
}

// Engine returns the recognizer this extractor runs.
func (e *TextExtractor) Engine() Recognizer {
	return e.engine
}

// Extract runs the engine once over img and returns its word fragments.
//
// Detections with empty text are dropped; everything else is kept exactly
// once, whatever its confidence, in the order the engine reported it. Boxes
// are in the coordinate space of img.Bounds(). An image without text gives
// an empty, non-nil result.
//
// On failure the result is nil and the error is an *Error.
func (e *TextExtractor) Extract(ctx context.Context, img image.Image) (ExtractionResult, error) {
	if img == nil {
		return nil, NewImageLoadError("", errors.New("nil image"))
	}

	start := time.Now()
	detections, err := e.engine.Recognize(ctx, img)
	if err != nil {
		err = asExtractionError(err)
		e.log.WithFields(errorFields(err)).Warn("text extraction failed")
		return nil, err
	}

	origin := img.Bounds().Min
	result := fragmentsFrom(detections, origin.X, origin.Y)

	e.log.WithFields(logrus.Fields{
		"detections": len(detections),
		"fragments":  len(result),
		"duration":   time.Since(start),
	}).Debug("text extracted")

	return result, nil
}

// ExtractFile loads the image at path and extracts its text.
func (e *TextExtractor) ExtractFile(ctx context.Context, path string) (ExtractionResult, error) {
	img, err := imaging.Load(path)
	if err != nil {
		loadErr := NewImageLoadError(path, err)
		e.log.WithFields(loadErr.Fields()).Warn("image load failed")
		return nil, loadErr
	}

	result, err := e.Extract(ctx, img)
	if err != nil {
		var extractErr *Error
		if errors.As(err, &extractErr) && extractErr.Code == CodeImageLoad && extractErr.Path == "" {
			extractErr.Path = path
		}
		return nil, err
	}
	return result, nil
}

// ExtractRegion extracts text from the part of img inside region only.
//
// region is clipped to the image; a region that misses the image entirely is
// an ImageLoadError. Returned boxes are in img's coordinate space, not the
// region's.
func (e *TextExtractor) ExtractRegion(ctx context.Context, img image.Image, region image.Rectangle) (ExtractionResult, error) {
	if img == nil {
		return nil, NewImageLoadError("", errors.New("nil image"))
	}

	cropped, clipped, err := imaging.CropRegion(img, region)
	if err != nil {
		return nil, NewImageLoadError("", err)
	}

	result, err := e.Extract(ctx, cropped)
	if err != nil {
		return nil, err
	}

	for i := range result {
		result[i].Box = result[i].Box.Translate(clipped.Min.X, clipped.Min.Y).normalized()
	}
	return result, nil
}

// fragmentsFrom keeps every detection with non-empty text, shifting boxes by
// (dx, dy) and clamping the result.
func fragmentsFrom(detections []Detection, dx, dy int) ExtractionResult {
	result := make(ExtractionResult, 0, len(detections))
	for _, d := range detections {
		if d.Text == "" {
			continue
		}
		result = append(result, TextFragment{
			Box:  d.Box.Translate(dx, dy).normalized(),
			Text: d.Text,
		})
	}
	return result
}

// asExtractionError makes sure engine errors that are not already classified
// surface as EngineFailure.
func asExtractionError(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return NewEngineFailureError("", err)
}

func errorFields(err error) logrus.Fields {
	var e *Error
	if errors.As(err, &e) {
		return logrus.Fields(e.Fields())
	}
	return logrus.Fields{"error": err.Error()}
}
