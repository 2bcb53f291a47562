// Package config loads runtime settings from an optional YAML file, a .env
// file and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// EnvConfigPath names the variable holding the YAML config file path when
// none is given on the command line.
const EnvConfigPath = "OCR_TEXTBOXES_CONFIG"

// Config holds every setting the binary reads. Environment variables take
// precedence over values from the config file.
type Config struct {
	ExecutablePath string        `yaml:"tesseract_path" env:"OCR_TEXTBOXES_TESSERACT_PATH" env-default:"tesseract" env-description:"tesseract executable; a bare name is looked up on PATH"`
	Engine         string        `yaml:"engine" env:"OCR_TEXTBOXES_ENGINE" env-default:"cli" env-description:"recognition engine: cli or library"`
	TessdataDir    string        `yaml:"tessdata_dir" env:"OCR_TEXTBOXES_TESSDATA" env-description:"language data directory for the library engine"`
	LogLevel       string        `yaml:"log_level" env:"OCR_TEXTBOXES_LOG_LEVEL" env-default:"info" env-description:"log level: trace, debug, info, warn or error"`
	LogFormat      string        `yaml:"log_format" env:"OCR_TEXTBOXES_LOG_FORMAT" env-default:"text" env-description:"log format: text or json"`
	HTTPAddr       string        `yaml:"http_addr" env:"OCR_TEXTBOXES_HTTP_ADDR" env-default:":8080" env-description:"listen address for the http command"`
	Timeout        time.Duration `yaml:"timeout" env:"OCR_TEXTBOXES_TIMEOUT" env-default:"0s" env-description:"per-request extraction timeout, 0 for none"`
}

// Overrides carries values given on the command line. Non-empty fields
// replace what the file and environment set.
type Overrides struct {
	ExecutablePath string
	Engine         string
	LogLevel       string
}

// Load reads the configuration and applies overrides on top of it.
//
// path selects a YAML file; when empty, EnvConfigPath is consulted, and when
// that is empty too only the environment is read. A named file that does not
// exist is an error. Validation runs once, after the overrides, so a flag can
// correct a bad environment value.
func Load(path string, overrides Overrides) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read environment: %w", err)
	}

	if overrides.ExecutablePath != "" {
		cfg.ExecutablePath = overrides.ExecutablePath
	}
	if overrides.Engine != "" {
		cfg.Engine = overrides.Engine
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}

	cfg.Engine = strings.ToLower(strings.TrimSpace(cfg.Engine))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that have a fixed set of choices.
func (c *Config) Validate() error {
	switch c.Engine {
	case "cli", "library":
	default:
		return fmt.Errorf("invalid engine %q: must be cli or library", c.Engine)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", c.LogFormat)
	}

	if c.ExecutablePath == "" && c.Engine == "cli" {
		return errors.New("tesseract path must not be empty")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %s: must not be negative", c.Timeout)
	}
	return nil
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// named) without overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot load env file: %w", err)
	}
	return nil
}

// Describe returns a help text listing every environment variable.
func Describe() string {
	var cfg Config
	header := "Environment variables:"
	text, err := cleanenv.GetDescription(&cfg, &header)
	if err != nil {
		return ""
	}
	return text
}
