package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/garnizeh/a11ymon/internal/config"
	"github.com/garnizeh/a11ymon/internal/export"
)

func baseConfig(env string) *config.Config {
	return &config.Config{
		Addr:         ":8080",
		JWTSecret:    "supersecretkey",
		APITimeout:   5 * time.Second,
		DatabasePath: "a11ymon.db",
		Timezone:     "Europe/London",
		Env:          env,
	}
}

func TestValidate_InsecureJWT_FailsWhenNotDevelopment(t *testing.T) {
	if err := baseConfig("production").Validate(); err == nil {
		t.Fatalf("expected Validate to fail for insecure JWT in non-development env")
	}
}

func TestValidate_InsecureJWT_AllowsDevelopment(t *testing.T) {
	if err := baseConfig("development").Validate(); err != nil {
		t.Fatalf("expected Validate to succeed in development env, got: %v", err)
	}
}

func TestValidate_FillsDefaults(t *testing.T) {
	cfg := baseConfig("development")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	o := cfg.Correspondence
	if o.FollowupWeek1 != 7 || o.FollowupWeek4 != 28 || o.FollowupWeek12 != 84 || o.OverdueGrace != 7 {
		t.Fatalf("unexpected default offsets: %+v", o)
	}
	if len(cfg.Export.Columns) != len(export.DefaultColumns()) {
		t.Fatalf("expected default export columns, got %d", len(cfg.Export.Columns))
	}
	if cfg.Location().String() != "Europe/London" {
		t.Fatalf("unexpected location %s", cfg.Location())
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := map[string]func(*config.Config){
		"unknown timezone":  func(c *config.Config) { c.Timezone = "Mars/Olympus" },
		"negative offset":   func(c *config.Config) { c.Correspondence.FollowupWeek4 = -1 },
		"missing database":  func(c *config.Config) { c.DatabasePath = "" },
		"bad export column": func(c *config.Config) { c.Export.Columns = []export.Column{{Name: "X", SourceAttr: "nope"}} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := baseConfig("development")
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadConfig_YAMLOverridesEnvDefaults(t *testing.T) {
	t.Setenv("A11Y_ADDR", ":9999")
	t.Setenv("A11Y_ENV", "development")

	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	y := `database_path: /tmp/x.db
base_url: https://a11y.example
correspondence:
  followup_week_1: 5
  overdue_grace: 3
export:
  columns:
    - name: Organisation
      required: true
      source_attr: organisation_name
`
	if err := os.WriteFile(p, []byte(y), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := config.LoadConfig(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("expected env addr, got %q", cfg.Addr)
	}
	if cfg.DatabasePath != "/tmp/x.db" || cfg.BaseURL != "https://a11y.example" {
		t.Fatalf("yaml not applied: %+v", cfg)
	}
	if cfg.Correspondence.FollowupWeek1 != 5 || cfg.Correspondence.FollowupWeek4 != 28 || cfg.Correspondence.OverdueGrace != 3 {
		t.Fatalf("unexpected offsets %+v", cfg.Correspondence)
	}
	if len(cfg.Export.Columns) != 1 || !cfg.Export.Columns[0].Required {
		t.Fatalf("unexpected export columns %+v", cfg.Export.Columns)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
