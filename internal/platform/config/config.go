// Package config loads idcheck configuration from an optional YAML file with
// environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"idcheck/internal/registry/store"
	"idcheck/internal/verification"
)

// EnvConfigPath names the variable holding the YAML config path.
const EnvConfigPath = "IDCHECK_CONFIG"

// Config is the top-level application configuration.
type Config struct {
	Server   Server              `yaml:"server"`
	Roll     Roll                `yaml:"roll"`
	Postgres Postgres            `yaml:"postgres"`
	OCR      OCR                 `yaml:"ocr"`
	Layout   verification.Layout `yaml:"layout"`
	Logging  Logging             `yaml:"logging"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Roll describes the delimited-file source of the electoral roll. Columns
// map header names; Positions are used instead when NoHeader is set.
// Encoding defaults to latin1, the encoding of the published roll; set
// "utf-8" for exports that were re-encoded.
type Roll struct {
	Path      string          `yaml:"path"`
	Delimiter string          `yaml:"delimiter"`
	Encoding  string          `yaml:"encoding"`
	NoHeader  bool            `yaml:"no_header"`
	Columns   store.Columns   `yaml:"columns"`
	Positions store.Positions `yaml:"positions"`
}

// CSVOptions converts the roll settings into loader options.
func (r Roll) CSVOptions() (store.CSVOptions, error) {
	delim, err := store.ParseDelimiter(r.Delimiter)
	if err != nil {
		return store.CSVOptions{}, err
	}
	return store.CSVOptions{
		Path:      r.Path,
		Delimiter: delim,
		Encoding:  r.Encoding,
		Columns:   r.Columns,
		NoHeader:  r.NoHeader,
		Positions: r.Positions,
	}, nil
}

// Postgres selects a database-backed roll. When URL is set it takes
// precedence over the file source.
type Postgres struct {
	URL   string `yaml:"url"`
	Table string `yaml:"table"`
}

// OCR configures the tesseract recognizer.
type OCR struct {
	Disabled      bool          `yaml:"disabled"`
	TesseractPath string        `yaml:"tesseract_path"`
	Language      string        `yaml:"language"`
	Timeout       time.Duration `yaml:"timeout"`
	// Whitelist restricts recognized characters in both regions; it must
	// cover the digits of the ID as well as the letters of names.
	Whitelist string `yaml:"whitelist"`
}

// Logging controls slog level and output format.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the file named by IDCHECK_CONFIG, if any, and applies overrides.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(EnvConfigPath))
}

// LoadFile reads a YAML config file (if path is non-empty), applies
// environment overrides and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is LoadFile without validation, for callers that apply their own
// overrides (command-line flags) first.
func Read(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config for local development.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Roll: Roll{
			Delimiter: "comma",
			Encoding:  store.EncodingLatin1,
			Columns:   store.DefaultColumns(),
			Positions: store.DefaultPositions(),
		},
		Postgres: Postgres{
			Table: store.DefaultRollTable,
		},
		OCR: OCR{
			TesseractPath: "tesseract",
			Language:      "spa",
			Timeout:       20 * time.Second,
		},
		Layout: verification.DefaultLayout(),
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Roll.Path == "" && c.Postgres.URL == "" {
		return errors.New("config: one of roll.path or postgres.url is required")
	}
	if _, err := c.Roll.CSVOptions(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Roll.NoHeader {
		if err := c.Roll.Positions.Validate(); err != nil {
			return fmt.Errorf("config: roll.positions: %w", err)
		}
	}
	if _, err := store.ParseTableName(c.Postgres.Table); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("config: layout: %w", err)
	}
	if c.OCR.Timeout < 0 {
		return errors.New("config: ocr.timeout must not be negative")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("IDCHECK_ADDR", &cfg.Server.Addr)
	setString("IDCHECK_ROLL_PATH", &cfg.Roll.Path)
	setString("IDCHECK_ROLL_DELIMITER", &cfg.Roll.Delimiter)
	setString("IDCHECK_ROLL_ENCODING", &cfg.Roll.Encoding)
	setString("IDCHECK_DATABASE_URL", &cfg.Postgres.URL)
	setString("IDCHECK_ROLL_TABLE", &cfg.Postgres.Table)
	setString("IDCHECK_TESSERACT_PATH", &cfg.OCR.TesseractPath)
	setString("IDCHECK_OCR_LANG", &cfg.OCR.Language)
	setString("IDCHECK_OCR_WHITELIST", &cfg.OCR.Whitelist)
	setString("IDCHECK_LOG_LEVEL", &cfg.Logging.Level)
	setString("IDCHECK_LOG_FORMAT", &cfg.Logging.Format)

	if v := os.Getenv("IDCHECK_ROLL_NO_HEADER"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: IDCHECK_ROLL_NO_HEADER: %w", err)
		}
		cfg.Roll.NoHeader = b
	}
	if v := os.Getenv("IDCHECK_ROLL_POSITIONS"); v != "" {
		p, err := store.ParsePositions(v)
		if err != nil {
			return fmt.Errorf("config: IDCHECK_ROLL_POSITIONS: %w", err)
		}
		cfg.Roll.Positions = p
	}
	if v := os.Getenv("IDCHECK_OCR_DISABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: IDCHECK_OCR_DISABLED: %w", err)
		}
		cfg.OCR.Disabled = b
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
	return nil
}
