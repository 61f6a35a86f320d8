package tilekit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.CacheCapacityBytes != 30<<20 {
		t.Errorf("CacheCapacityBytes = %d", cfg.CacheCapacityBytes)
	}
	if cfg.ConnectTimeout != 10*time.Second || cfg.ReadTimeout != 30*time.Second {
		t.Errorf("timeouts = %v/%v", cfg.ConnectTimeout, cfg.ReadTimeout)
	}
	if cfg.DedupeInFlight {
		t.Error("dedupe should be off by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative capacity", func(c *Config) { c.CacheCapacityBytes = -1 }},
		{"negative disk capacity", func(c *Config) { c.DiskCacheCapacityBytes = -1 }},
		{"zero connect timeout", func(c *Config) { c.ConnectTimeout = 0 }},
		{"zero read timeout", func(c *Config) { c.ReadTimeout = 0 }},
		{"negative conns", func(c *Config) { c.MaxConnsPerHost = -2 }},
		{"negative viewport", func(c *Config) { c.ViewportHeightPixels = -1 }},
		{"negative dead zone", func(c *Config) { c.DragDeadZone = -1 }},
		{"negative double tap", func(c *Config) { c.DoubleTapTimeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestDiskCapacityDefaultsToMemory(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.diskCapacity() != cfg.CacheCapacityBytes {
		t.Errorf("diskCapacity = %d", cfg.diskCapacity())
	}
	cfg.DiskCacheCapacityBytes = 5
	if cfg.diskCapacity() != 5 {
		t.Errorf("diskCapacity = %d, want 5", cfg.diskCapacity())
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultConfig()
	if cfg.CacheCapacityBytes != def.CacheCapacityBytes || cfg.ReadTimeout != def.ReadTimeout ||
		cfg.DoubleTapTimeout != def.DoubleTapTimeout || cfg.UserAgent != def.UserAgent {
		t.Errorf("LoadConfig(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tilekit.yaml")
	data := []byte(`
cache_capacity_bytes: 1048576
cache_dir: /var/cache/tiles
read_timeout: 5s
dedupe_in_flight: true
tile_url: "https://{s}.example.org/{z}/{x}/{y}.png"
subdomains: [a, b]
viewport_height_pixels: 720
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CacheCapacityBytes != 1<<20 {
		t.Errorf("CacheCapacityBytes = %d", cfg.CacheCapacityBytes)
	}
	if cfg.CacheDir != "/var/cache/tiles" {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.ReadTimeout)
	}
	if cfg.ConnectTimeout != DefaultConnectTimeout {
		t.Errorf("ConnectTimeout = %v, want default", cfg.ConnectTimeout)
	}
	if !cfg.DedupeInFlight {
		t.Error("DedupeInFlight = false")
	}
	if len(cfg.Subdomains) != 2 || cfg.Subdomains[1] != "b" {
		t.Errorf("Subdomains = %v", cfg.Subdomains)
	}
	if cfg.ViewportHeightPixels != 720 {
		t.Errorf("ViewportHeightPixels = %f", cfg.ViewportHeightPixels)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("TILEKIT_CONNECT_TIMEOUT", "3s")
	t.Setenv("TILEKIT_USER_AGENT", "maps-test/1.0")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ConnectTimeout != 3*time.Second {
		t.Errorf("ConnectTimeout = %v, want 3s", cfg.ConnectTimeout)
	}
	if cfg.UserAgent != "maps-test/1.0" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("read_timeout: 0s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
