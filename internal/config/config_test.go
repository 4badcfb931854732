package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hourcast/internal/config"
)

func TestGenerateDefaultRoundTrip(t *testing.T) {
	cfg, err := config.FromYAML([]byte(config.GenerateDefault("tenant-1")))
	if err != nil {
		t.Fatalf("parse generated config: %v", err)
	}
	if cfg.Tenant.ID != "tenant-1" {
		t.Fatalf("tenant id = %q", cfg.Tenant.ID)
	}
	if cfg.Forecasting.HoursPerDay != 8 {
		t.Fatalf("hours per day = %v", cfg.Forecasting.HoursPerDay)
	}
	if cfg.Server.Addr != ":8787" {
		t.Fatalf("server addr = %q", cfg.Server.Addr)
	}
}

func TestLoadFromWorkspace(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hourcast.yml"), []byte(config.GenerateDefault("acme")), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Tenant.ID != "acme" {
		t.Fatalf("tenant id = %q", cfg.Tenant.ID)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "hc init") {
		t.Fatalf("expected init hint, got %v", err)
	}
	cfg, err := config.LoadOptional(t.TempDir())
	if err != nil || cfg != nil {
		t.Fatalf("LoadOptional = %v, %v", cfg, err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := map[string]func(*config.Config){
		"empty tenant":      func(c *config.Config) { c.Tenant.ID = "" },
		"zero hours":        func(c *config.Config) { c.Forecasting.HoursPerDay = 0 },
		"hours over 24":     func(c *config.Config) { c.Forecasting.HoursPerDay = 25 },
		"no version name":   func(c *config.Config) { c.Forecasting.DefaultVersionName = "" },
		"bad holiday":       func(c *config.Config) { c.Forecasting.Holidays = []string{"June 2nd"} },
		"empty server addr": func(c *config.Config) { c.Server.Addr = "" },
	}
	for name, mutate := range cases {
		cfg := config.Default("tenant-1")
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
