package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// UNIFIED CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Output.Dir != "output" {
		t.Errorf("expected Output.Dir=output, got %s", cfg.Output.Dir)
	}
	if cfg.Scan.Workers < 1 || cfg.Scan.Workers > 20 {
		t.Errorf("expected 1 <= Workers <= 20, got %d", cfg.Scan.Workers)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected Logging.Level=info, got %s", cfg.Logging.Level)
	}
}

func TestLoad_File(t *testing.T) {
	t.Setenv("FILEREPORT_BASE_DIR", "")
	t.Setenv("FILEREPORT_EXT", "")
	t.Setenv("FILEREPORT_OUTPUT_DIR", "")
	t.Setenv("FILEREPORT_SQLITE", "")
	t.Setenv("FILEREPORT_WORKERS", "")

	path := filepath.Join(t.TempDir(), "filereport.yaml")
	data := `base_dir: /var/www/scielosp_org/bases
ext: pdf
output:
  sqlite: report.db
scan:
  workers: 3
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.BaseDir != "/var/www/scielosp_org/bases" {
		t.Errorf("expected BaseDir from file, got %s", loaded.BaseDir)
	}
	if loaded.Output.Dir != "output" {
		t.Errorf("expected unset Output.Dir to keep its default, got %s", loaded.Output.Dir)
	}
	if loaded.Ext != "pdf" {
		t.Errorf("expected Ext=pdf, got %s", loaded.Ext)
	}
	if loaded.Output.SQLite != "report.db" {
		t.Errorf("expected Output.SQLite=report.db, got %s", loaded.Output.SQLite)
	}
	if loaded.Scan.Workers != 3 {
		t.Errorf("expected Workers=3, got %d", loaded.Scan.Workers)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("FILEREPORT_OUTPUT_DIR", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Output.Dir != "output" {
		t.Errorf("expected default output dir, got %s", cfg.Output.Dir)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("base_dir: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error for malformed YAML")
	}
}

func TestConfig_NormalizedExt(t *testing.T) {
	cases := map[string]string{
		"xml":     "xml",
		" .XML ":  "xml",
		"..pdf":   "pdf",
		"Pdf":     "pdf",
		".tar.gz": "tar.gz",
	}
	for in, want := range cases {
		cfg := &Config{Ext: in}
		if got := cfg.NormalizedExt(); got != want {
			t.Errorf("NormalizedExt(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConfig_Root(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"/bases", "/bases/xml"},
		{"/bases/", "/bases/xml"},
		{"./bases", "./bases/xml"},
		{"/srv//bases/", "/srv//bases/xml"},
	}
	for _, tt := range tests {
		cfg := &Config{BaseDir: tt.base, Ext: ".XML"}
		if got := cfg.Root(); got != tt.want {
			t.Errorf("Root() with BaseDir %q = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); !errors.Is(err, ErrMissingBaseDir) {
		t.Errorf("expected ErrMissingBaseDir, got %v", err)
	}

	cfg.BaseDir = "/bases"
	cfg.Ext = "docx"
	if err := cfg.Validate(); !errors.Is(err, ErrUnsupportedExt) {
		t.Errorf("expected ErrUnsupportedExt, got %v", err)
	}

	cfg.Ext = ".PDF"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg.Scan.Workers = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for zero workers")
	}

	cfg.Scan.Workers = 1
	cfg.Logging.Level = "chatty"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unknown log level")
	}
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	cfg := LoggingConfig{}
	if !cfg.IsCategoryEnabled("scan") {
		t.Error("expected categories enabled by default")
	}

	cfg.Categories = map[string]bool{"xml": false}
	if cfg.IsCategoryEnabled("xml") {
		t.Error("expected xml category disabled")
	}
	if !cfg.IsCategoryEnabled("scan") {
		t.Error("expected unlisted category enabled")
	}
}
