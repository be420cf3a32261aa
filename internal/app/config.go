package app

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/buildgrid/catalog-backend/internal/pkg/logger"
	"github.com/buildgrid/catalog-backend/internal/utils"
)

type Config struct {
	ServiceName  string
	Environment  string
	Version      string
	HTTPAddr     string
	AllowOrigins []string
	CacheEnabled bool
}

// fileConfig is the optional YAML overlay; any field present overrides the
// value read from the environment.
type fileConfig struct {
	HTTPAddr     string   `yaml:"http_addr"`
	AllowOrigins []string `yaml:"allow_origins"`
	CacheEnabled *bool    `yaml:"cache_enabled"`
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		ServiceName:  utils.GetEnv("SERVICE_NAME", "catalog-backend", log),
		Environment:  utils.GetEnv("ENVIRONMENT", "development", log),
		Version:      utils.GetEnv("SERVICE_VERSION", "dev", log),
		HTTPAddr:     utils.GetEnv("HTTP_ADDR", ":8008", log),
		CacheEnabled: utils.GetEnvAsBool("LATEST_CACHE_ENABLED", true, log),
	}
	if origins := utils.GetEnv("ALLOW_ORIGINS", "", log); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowOrigins = append(cfg.AllowOrigins, o)
			}
		}
	}

	path := utils.GetEnv("CATALOG_CONFIG_FILE", "", log)
	if path == "" {
		return cfg
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Config file unreadable, using environment only", "path", path, "error", err)
		return cfg
	}
	var overlay fileConfig
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		log.Warn("Config file unparseable, using environment only", "path", path, "error", err)
		return cfg
	}
	if overlay.HTTPAddr != "" {
		cfg.HTTPAddr = overlay.HTTPAddr
	}
	if len(overlay.AllowOrigins) > 0 {
		cfg.AllowOrigins = overlay.AllowOrigins
	}
	if overlay.CacheEnabled != nil {
		cfg.CacheEnabled = *overlay.CacheEnabled
	}
	return cfg
}
