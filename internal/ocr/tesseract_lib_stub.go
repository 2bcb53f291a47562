//go:build !gosseract

package ocr

import (
	"context"
	"errors"
	"image"
)

// errLibraryNotCompiled is the cause attached when the library engine is
// requested from a binary built without the "gosseract" tag.
var errLibraryNotCompiled = errors.New("libtesseract support not compiled in; rebuild with -tags gosseract")

// TesseractLibrary is the placeholder used without the "gosseract" build tag.
// Every method reports EngineUnavailable.
type TesseractLibrary struct{}

// NewTesseractLibrary always fails in this build.
func NewTesseractLibrary(tessdataDir string) (*TesseractLibrary, error) {
	return nil, NewEngineUnavailableError("libtesseract", errLibraryNotCompiled)
}

func (t *TesseractLibrary) Name() string { return "tesseract-library" }

func (t *TesseractLibrary) Recognize(ctx context.Context, img image.Image) ([]Detection, error) {
	return nil, NewEngineUnavailableError("libtesseract", errLibraryNotCompiled)
}

func (t *TesseractLibrary) Version(ctx context.Context) (string, error) {
	return "", NewEngineUnavailableError("libtesseract", errLibraryNotCompiled)
}
