// Package ocr extracts words and their bounding boxes from images using
// Tesseract.
//
// The central type is TextExtractor. It asks a Recognizer for every
// detection in an image, drops the ones without text, and returns the rest
// as an ExtractionResult in the engine's scan order. No confidence threshold
// is applied and nothing is reordered.
//
// # Engines
//
// Two Recognizer implementations are provided:
//
//   - TesseractCLI runs an installed tesseract executable and parses its TSV
//     output. The executable is chosen by configuration, so tests and
//     deployments can point at any binary without touching process state.
//   - TesseractLibrary calls libtesseract in-process through gosseract/v2.
//     It is only built with the "gosseract" tag; otherwise it reports
//     EngineUnavailable.
//
// Tests substitute their own Recognizer to avoid depending on an installed
// engine.
//
// # Prerequisites
//
// The CLI engine needs Tesseract 4 or newer with English language data:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//   - Windows: https://github.com/UB-Mannheim/tesseract/wiki
//
// # Error Handling
//
// Every failure is an *Error with one of three codes:
//   - IMAGE_LOAD_ERROR: the image path is invalid, unreadable or corrupt
//   - ENGINE_UNAVAILABLE: the executable is missing, not executable or
//     cannot be started
//   - ENGINE_FAILURE: the engine ran but failed, was cancelled, or printed
//     output that could not be parsed
//
// Use errors.Is with ErrImageLoad, ErrEngineUnavailable or ErrEngineFailure.
// There are no retries, no fallback engine and no partial results.
package ocr
