package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/buildgrid/catalog-backend/internal/pkg/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}

	cfg := LoadConfig(log)
	if cfg.HTTPAddr != ":8008" {
		t.Fatalf("HTTPAddr=%q, want :8008", cfg.HTTPAddr)
	}
	if !cfg.CacheEnabled {
		t.Fatal("cache should default to enabled")
	}
}

func TestLoadConfigFileOverlay(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	overlay := "http_addr: \":9000\"\ncache_enabled: false\nallow_origins:\n  - https://catalog.example.com\n"
	if err := os.WriteFile(path, []byte(overlay), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Setenv("CATALOG_CONFIG_FILE", path)

	cfg := LoadConfig(log)
	if cfg.HTTPAddr != ":9000" {
		t.Fatalf("HTTPAddr=%q, want :9000", cfg.HTTPAddr)
	}
	if cfg.CacheEnabled {
		t.Fatal("overlay should disable the cache")
	}
	if len(cfg.AllowOrigins) != 1 || cfg.AllowOrigins[0] != "https://catalog.example.com" {
		t.Fatalf("AllowOrigins=%v", cfg.AllowOrigins)
	}
}
