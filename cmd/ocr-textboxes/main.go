package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/ironsheep/ocr-textboxes/internal/config"
	"github.com/ironsheep/ocr-textboxes/internal/imaging"
	"github.com/ironsheep/ocr-textboxes/internal/logging"
	"github.com/ironsheep/ocr-textboxes/internal/ocr"
	"github.com/ironsheep/ocr-textboxes/internal/server"
	"github.com/sirupsen/logrus"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	command := "mcp"
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Fprintf(stdout, "ocr-textboxes %s\n", Version)
			fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
			return exitOK
		case "--help", "-h", "help":
			printUsage(stdout)
			return exitOK
		}
		if !strings.HasPrefix(args[0], "-") {
			command, args = args[0], args[1:]
		}
	}

	switch command {
	case "extract":
		return runExtract(ctx, args, stdout, stderr)
	case "annotate":
		return runAnnotate(ctx, args, stdout, stderr)
	case "engine":
		return runEngine(ctx, args, stdout, stderr)
	case "mcp":
		return runMCP(ctx, args, stderr)
	case "http":
		return runHTTP(ctx, args, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		printUsage(stderr)
		return exitUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "ocr-textboxes - extract words and their bounding boxes from images")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ocr-textboxes extract [flags] <image>              print fragments as JSON")
	fmt.Fprintln(w, "  ocr-textboxes annotate [flags] <image> <out.png>   draw boxes onto a copy")
	fmt.Fprintln(w, "  ocr-textboxes engine [flags]                       report engine availability")
	fmt.Fprintln(w, "  ocr-textboxes mcp [flags]                          MCP server on stdio (default)")
	fmt.Fprintln(w, "  ocr-textboxes http [flags]                         HTTP server")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Common flags:")
	fmt.Fprintln(w, "  -config <file>      YAML config file (or "+config.EnvConfigPath+")")
	fmt.Fprintln(w, "  -tesseract <path>   tesseract executable")
	fmt.Fprintln(w, "  -engine <kind>      cli or library")
	fmt.Fprintln(w, "  -log-level <level>  trace, debug, info, warn or error")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprint(w, config.Describe())
}

// commonFlags are accepted by every command and override the config file
// and environment.
type commonFlags struct {
	configPath string
	tesseract  string
	engine     string
	logLevel   string
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var c commonFlags
	fs.StringVar(&c.configPath, "config", "", "path to YAML config file")
	fs.StringVar(&c.tesseract, "tesseract", "", "tesseract executable")
	fs.StringVar(&c.engine, "engine", "", "recognition engine: cli or library")
	fs.StringVar(&c.logLevel, "log-level", "", "log level")
	return fs, &c
}

// app is everything a command needs once configuration is resolved.
type app struct {
	cfg       *config.Config
	logger    *logrus.Logger
	extractor *ocr.TextExtractor
}

func setup(c *commonFlags, stderr io.Writer) (*app, error) {
	a, err := configure(c, stderr)
	if err != nil {
		return nil, err
	}
	if err := a.buildExtractor(); err != nil {
		return nil, err
	}
	return a, nil
}

// configure resolves configuration and logging without touching the engine.
func configure(c *commonFlags, stderr io.Writer) (*app, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(c.configPath, config.Overrides{
		ExecutablePath: c.tesseract,
		Engine:         c.engine,
		LogLevel:       c.logLevel,
	})
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewWithWriter(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) buildExtractor() error {
	engine, err := ocr.NewEngine(ocr.EngineConfig{
		Kind:           a.cfg.Engine,
		ExecutablePath: a.cfg.ExecutablePath,
		TessdataDir:    a.cfg.TessdataDir,
	}, logging.Component(a.logger, "engine"))
	if err != nil {
		return err
	}

	a.extractor = ocr.NewTextExtractor(engine, ocr.WithLogger(logging.Component(a.logger, "extractor")))
	return nil
}

func (a *app) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, a.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func runExtract(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, common := newFlagSet("extract", stderr)
	regionFlag := fs.String("region", "", "only extract inside x1,y1,x2,y2")
	pretty := fs.Bool("pretty", false, "indent JSON output")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: ocr-textboxes extract [flags] <image>")
		return exitUsage
	}
	path := fs.Arg(0)

	var region *image.Rectangle
	if *regionFlag != "" {
		r, err := parseRegion(*regionFlag)
		if err != nil {
			fmt.Fprintf(stderr, "invalid -region: %v\n", err)
			return exitUsage
		}
		region = &r
	}

	a, err := setup(common, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	var result ocr.ExtractionResult
	if region == nil {
		result, err = a.extractor.ExtractFile(ctx, path)
	} else {
		var img image.Image
		img, err = imaging.Load(path)
		if err != nil {
			err = ocr.NewImageLoadError(path, err)
		} else {
			result, err = a.extractor.ExtractRegion(ctx, img, *region)
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	enc := json.NewEncoder(stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	return exitOK
}

func runAnnotate(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, common := newFlagSet("annotate", stderr)
	boxColor := fs.String("color", imaging.DefaultBoxColor, "box colour in hex")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, "usage: ocr-textboxes annotate [flags] <image> <out.png>")
		return exitUsage
	}
	in, out := fs.Arg(0), fs.Arg(1)

	a, err := setup(common, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	img, err := imaging.Load(in)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", ocr.NewImageLoadError(in, err))
		return exitError
	}
	result, err := a.extractor.Extract(ctx, img)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	annotated, err := imaging.Annotate(img, server.LabelsFrom(result), *boxColor)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	if err := imaging.SavePNG(out, annotated); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	fmt.Fprintf(stdout, "%d fragments annotated in %s\n", len(result), out)
	return exitOK
}

func runEngine(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, common := newFlagSet("engine", stderr)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	a, err := configure(common, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	var info ocr.EngineInfo
	if err := a.buildExtractor(); err != nil {
		info = ocr.EngineInfo{Name: engineName(a.cfg.Engine), Error: err.Error()}
	} else {
		info = ocr.DescribeEngine(ctx, a.extractor.Engine())
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(info); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	if !info.Available {
		return exitError
	}
	return exitOK
}

// engineName is the Name an engine of the given kind reports.
func engineName(kind string) string {
	if kind == ocr.EngineLibrary {
		return "tesseract-library"
	}
	return "tesseract-cli"
}

func runMCP(ctx context.Context, args []string, stderr io.Writer) int {
	fs, common := newFlagSet("mcp", stderr)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	a, err := setup(common, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	a.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"commit":     GitCommit,
	}).Debug("mcp server starting")

	srv := server.New(a.extractor,
		server.WithTimeout(a.cfg.Timeout),
		server.WithVersion(Version),
		server.WithLogger(logging.Component(a.logger, "server")),
	)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.WithError(err).Error("server error")
		return exitError
	}
	return exitOK
}

func runHTTP(ctx context.Context, args []string, stderr io.Writer) int {
	fs, common := newFlagSet("http", stderr)
	addr := fs.String("addr", "", "listen address (overrides config)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	a, err := setup(common, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	if *addr != "" {
		a.cfg.HTTPAddr = *addr
	}

	log := logging.Component(a.logger, "server")
	handler := server.NewHTTPHandler(a.extractor, a.cfg.Timeout, log)
	if err := server.ListenAndServe(ctx, a.cfg.HTTPAddr, handler.Router(), log); err != nil {
		log.WithError(err).Error("http server error")
		return exitError
	}
	return exitOK
}

// parseRegion parses "x1,y1,x2,y2".
func parseRegion(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("want x1,y1,x2,y2, got %q", s)
	}

	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("coordinate %q: %w", p, err)
		}
		v[i] = n
	}
	return image.Rect(v[0], v[1], v[2], v[3]), nil
}
