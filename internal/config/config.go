package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/garnizeh/a11ymon/internal/export"
	"github.com/garnizeh/a11ymon/internal/schedule"
)

const insecureJWTSecret = "supersecretkey"

type Config struct {
	Addr           string        `yaml:"addr"`
	JWTSecret      string        `yaml:"jwt_secret"`
	APITimeout     time.Duration `yaml:"timeout"`
	DatabasePath   string        `yaml:"database_path"`
	MigrateOnStart bool          `yaml:"migrate_on_start"`
	Timezone       string        `yaml:"timezone"`
	BaseURL        string        `yaml:"base_url"`
	Env            string        `yaml:"env"`

	Correspondence CorrespondenceConfig `yaml:"correspondence"`
	Export         ExportConfig         `yaml:"export"`
}

// CorrespondenceConfig holds the follow-up offsets in calendar days and the
// number of days after which a sent follow-up needs progressing.
type CorrespondenceConfig struct {
	schedule.Offsets `yaml:",inline"`
	OverdueGrace     int `yaml:"overdue_grace"`
}

type ExportConfig struct {
	Columns []export.Column `yaml:"columns"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:           getEnv("A11Y_ADDR", ":8080"),
		JWTSecret:      getEnv("A11Y_JWT_SECRET", insecureJWTSecret),
		APITimeout:     15 * time.Second,
		DatabasePath:   getEnv("A11Y_DATABASE_PATH", "a11ymon.db"),
		MigrateOnStart: true,
		Timezone:       getEnv("A11Y_TIMEZONE", "Europe/London"),
		Env:            getEnv("A11Y_ENV", "production"),
		Correspondence: CorrespondenceConfig{Offsets: schedule.DefaultOffsets(), OverdueGrace: 7},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	// the environment decides whether insecure defaults are tolerated
	if env := os.Getenv("A11Y_ENV"); env != "" {
		cfg.Env = env
	}

	return cfg, nil
}

// Validate rejects unusable settings and fills defaults for zero values.
func (c *Config) Validate() error {
	if c.Env == "" {
		c.Env = getEnv("A11Y_ENV", "production")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.JWTSecret == insecureJWTSecret && c.Env != "development" {
		return fmt.Errorf("jwt_secret uses the insecure default outside development")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.APITimeout <= 0 {
		c.APITimeout = 15 * time.Second
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}

	def := schedule.DefaultOffsets()
	o := &c.Correspondence
	for _, f := range []struct {
		name string
		v    *int
		def  int
	}{
		{"followup_week_1", &o.FollowupWeek1, def.FollowupWeek1},
		{"followup_week_4", &o.FollowupWeek4, def.FollowupWeek4},
		{"followup_week_12", &o.FollowupWeek12, def.FollowupWeek12},
		{"twelve_week_chaser", &o.TwelveWeekChaser, def.TwelveWeekChaser},
		{"no_contact_one_week", &o.NoContactOneWeek, def.NoContactOneWeek},
		{"no_contact_four_week", &o.NoContactFourWeek, def.NoContactFourWeek},
		{"overdue_grace", &o.OverdueGrace, 7},
	} {
		if *f.v == 0 {
			*f.v = f.def
		}
		if *f.v < 0 {
			return fmt.Errorf("correspondence.%s must be positive, got %d", f.name, *f.v)
		}
	}

	if len(c.Export.Columns) == 0 {
		c.Export.Columns = export.DefaultColumns()
	}
	if err := export.Validate(c.Export.Columns); err != nil {
		return err
	}
	return nil
}

// Location returns the configured time zone. Call after Validate.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
