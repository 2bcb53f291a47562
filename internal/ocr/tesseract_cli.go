package ocr

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ironsheep/ocr-textboxes/internal/imaging"
	"github.com/sirupsen/logrus"
)

// DefaultExecutable is the tesseract binary used when none is configured.
const DefaultExecutable = "tesseract"

// TesseractCLI runs an installed tesseract executable once per image.
//
// The image is PNG-encoded and written to the process's stdin; word boxes are
// read back from its TSV output on stdout:
//
//	<executable> stdin stdout tsv
//
// The executable is resolved on every call, so replacing or removing the
// binary takes effect without rebuilding the engine.
type TesseractCLI struct {
	path string
	log  *logrus.Entry
}

// NewTesseractCLI returns an engine for the executable at path. An empty
// path selects DefaultExecutable. log may be nil.
func NewTesseractCLI(path string, log *logrus.Entry) *TesseractCLI {
	if path == "" {
		path = DefaultExecutable
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &TesseractCLI{
		path: path,
		log:  log.WithField("engine", "tesseract-cli"),
	}
}

func (t *TesseractCLI) Name() string { return "tesseract-cli" }

// Executable resolves the configured path to an absolute executable file.
//
// A name without a path separator is searched on PATH. Anything else is
// taken relative to the current working directory. The result must be an
// existing regular file with an execute bit set (the execute bit is not
// checked on Windows).
func (t *TesseractCLI) Executable() (string, error) {
	return resolveExecutable(t.path)
}

func resolveExecutable(path string) (string, error) {
	if !strings.ContainsAny(path, `/\`) {
		found, err := exec.LookPath(path)
		if err != nil {
			return "", NewEngineUnavailableError(path, err)
		}
		path = found
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", NewEngineUnavailableError(path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", NewEngineUnavailableError(abs, err)
	}
	if info.IsDir() {
		return "", NewEngineUnavailableError(abs, errors.New("is a directory"))
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return "", NewEngineUnavailableError(abs, errors.New("not executable"))
	}

	return abs, nil
}

// Recognize runs tesseract over img.
func (t *TesseractCLI) Recognize(ctx context.Context, img image.Image) ([]Detection, error) {
	exe, err := t.Executable()
	if err != nil {
		return nil, err
	}

	payload, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, NewImageLoadError("", err)
	}

	start := time.Now()
	stdout, err := t.run(ctx, exe, bytes.NewReader(payload), "stdin", "stdout", "tsv")
	if err != nil {
		return nil, err
	}

	detections, err := ParseTSV(bytes.NewReader(stdout))
	if err != nil {
		return nil, NewEngineFailureError("unreadable tsv output", err)
	}

	t.log.WithFields(logrus.Fields{
		"executable": exe,
		"detections": len(detections),
		"duration":   time.Since(start),
	}).Debug("tesseract finished")

	return detections, nil
}

// Version runs "<executable> --version" and returns the first line printed.
// Older releases print the banner on stderr, so both streams are read.
func (t *TesseractCLI) Version(ctx context.Context) (string, error) {
	exe, err := t.Executable()
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, exe, "--version")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", classifyRunError(ctx, exe, err, out)
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	return "", NewEngineFailureError("empty version output", nil)
}

func (t *TesseractCLI) run(ctx context.Context, exe string, stdin *bytes.Reader, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, classifyRunError(ctx, exe, err, stderr.Bytes())
	}

	return stdout.Bytes(), nil
}

// classifyRunError maps an exec error to EngineUnavailable when the process
// never started and EngineFailure when it started and failed.
func classifyRunError(ctx context.Context, exe string, err error, output []byte) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return NewEngineFailureError("recognition cancelled", ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			msg = "no output"
		}
		return NewEngineFailureError(
			fmt.Sprintf("%s exited with status %d", filepath.Base(exe), exitErr.ExitCode()),
			errors.New(msg),
		)
	}

	return NewEngineUnavailableError(exe, err)
}
