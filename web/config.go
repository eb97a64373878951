// Package web serves the backups page: the media rotation chart, usage
// ceilings, site properties, scheduled tasks and table metadata, with POST
// handlers for editing each section.
package web

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the server's yaml configuration file.
type Config struct {
	// Listen is the address to serve on, e.g. ":8080".
	Listen string `yaml:"listen"`
	// SiteRoot is the directory holding data/ and backup/logs/.
	SiteRoot string `yaml:"siteRoot"`
}

// LoadConfig reads and validates a yaml config file.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("web: config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("web: config %s: %w", path, err)
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if cfg.SiteRoot == "" {
		return Config{}, fmt.Errorf("web: config %s: siteRoot is required", path)
	}
	if fi, err := os.Stat(cfg.SiteRoot); err != nil || !fi.IsDir() {
		return Config{}, fmt.Errorf("web: config %s: siteRoot %s is not a directory", path, cfg.SiteRoot)
	}
	return cfg, nil
}
