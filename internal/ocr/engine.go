package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
)

// Recognizer is a text recognition engine.
//
// Recognize runs the engine once over img and returns every detection it
// reports, in the engine's own order, with boxes relative to img's top-left
// pixel. Implementations return *Error values (EngineUnavailable or
// EngineFailure) and never a partial slice alongside an error.
//
// Implementations hold no per-call state and may be used concurrently.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) ([]Detection, error)
}

// Engine kinds accepted by NewEngine.
const (
	EngineCLI     = "cli"
	EngineLibrary = "library"
)

// EngineConfig selects and configures a recognition engine.
type EngineConfig struct {
	// Kind is EngineCLI (default) or EngineLibrary.
	Kind string

	// ExecutablePath selects the tesseract binary for EngineCLI. A bare
	// name is looked up on PATH; anything else is resolved against the
	// working directory.
	ExecutablePath string

	// TessdataDir overrides the language data directory for EngineLibrary.
	TessdataDir string
}

// NewEngine builds the engine described by cfg.
//
// The CLI engine does not touch the executable here; a missing binary is
// reported by the first Recognize call.
func NewEngine(cfg EngineConfig, log *logrus.Entry) (Recognizer, error) {
	switch cfg.Kind {
	case "", EngineCLI:
		return NewTesseractCLI(cfg.ExecutablePath, log), nil
	case EngineLibrary:
		lib, err := NewTesseractLibrary(cfg.TessdataDir)
		if err != nil {
			return nil, err
		}
		return lib, nil
	default:
		return nil, fmt.Errorf("unknown engine kind %q (want %q or %q)", cfg.Kind, EngineCLI, EngineLibrary)
	}
}

// EngineInfo describes an engine's availability.
type EngineInfo struct {
	Name       string `json:"name"`
	Available  bool   `json:"available"`
	Version    string `json:"version,omitempty"`
	Executable string `json:"executable,omitempty"`
	Error      string `json:"error,omitempty"`
}

type versioned interface {
	Version(ctx context.Context) (string, error)
}

type executableBacked interface {
	Executable() (string, error)
}

// DescribeEngine probes r and reports whether it can run.
//
// Engines that expose neither a version nor an executable are reported as
// available.
func DescribeEngine(ctx context.Context, r Recognizer) EngineInfo {
	info := EngineInfo{Name: r.Name(), Available: true}

	if eb, ok := r.(executableBacked); ok {
		exe, err := eb.Executable()
		if err != nil {
			info.Available = false
			info.Error = err.Error()
			return info
		}
		info.Executable = exe
	}

	if v, ok := r.(versioned); ok {
		version, err := v.Version(ctx)
		if err != nil {
			info.Available = false
			info.Error = err.Error()
			return info
		}
		info.Version = version
	}

	return info
}
