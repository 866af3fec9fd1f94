package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingBaseDir is returned by Validate when no base directory is set.
	ErrMissingBaseDir = errors.New("base directory not configured")
	// ErrUnsupportedExt is returned by Validate for extensions other than
	// those in SupportedExtensions.
	ErrUnsupportedExt = errors.New("extension not supported")
)

// SupportedExtensions lists the file extensions a report can target.
var SupportedExtensions = []string{"xml", "pdf"}

// Config holds all filereport configuration.
type Config struct {
	// BaseDir contains one tree per extension (BaseDir/xml, BaseDir/pdf).
	BaseDir string `yaml:"base_dir"`
	Ext     string `yaml:"ext"`

	// AcronFile lists acronyms one per line. When empty the acronyms are
	// the subdirectories of BaseDir/Ext.
	AcronFile string `yaml:"acron_file"`

	Output  OutputConfig  `yaml:"output"`
	Scan    ScanConfig    `yaml:"scan"`
	Logging LoggingConfig `yaml:"logging"`
}

// OutputConfig configures where report rows go.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	SQLite string `yaml:"sqlite"` // optional index database
}

// ScanConfig controls per-file inspection.
type ScanConfig struct {
	Workers int `yaml:"workers"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Dir: "output",
		},
		Scan: ScanConfig{
			Workers: DefaultWorkers(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultWorkers sizes the inspection pool from the CPU count, capped at 20.
func DefaultWorkers() int {
	workers := runtime.NumCPU()
	if workers > 20 {
		workers = 20
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FILEREPORT_BASE_DIR"); v != "" {
		c.BaseDir = v
	}
	if v := os.Getenv("FILEREPORT_EXT"); v != "" {
		c.Ext = v
	}
	if v := os.Getenv("FILEREPORT_ACRON_FILE"); v != "" {
		c.AcronFile = v
	}
	if v := os.Getenv("FILEREPORT_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("FILEREPORT_SQLITE"); v != "" {
		c.Output.SQLite = v
	}
	if v := os.Getenv("FILEREPORT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Scan.Workers = n
		}
	}
	if v := os.Getenv("FILEREPORT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// NormalizedExt returns Ext lowercased, trimmed and without leading dots.
func (c *Config) NormalizedExt() string {
	return strings.TrimLeft(strings.ToLower(strings.TrimSpace(c.Ext)), ".")
}

// Root returns the directory holding the acronym trees for the configured
// extension. BaseDir is kept as given, uncleaned, since it prefixes every
// path column of the report.
func (c *Config) Root() string {
	base := c.BaseDir
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + c.NormalizedExt()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseDir) == "" {
		return ErrMissingBaseDir
	}

	ext := c.NormalizedExt()
	valid := false
	for _, e := range SupportedExtensions {
		if ext == e {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: %q (valid: %v)", ErrUnsupportedExt, ext, SupportedExtensions)
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output directory not configured")
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("invalid worker count: %d", c.Scan.Workers)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}
