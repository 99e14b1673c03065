// Package config loads server settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/onnxscope/core/internal/models"
)

type Config struct {
	Addr           string             `yaml:"addr"`
	AllowedOrigins []string           `yaml:"allowed_origins"`
	MaxUploadMB    int64              `yaml:"max_upload_mb"`
	SessionLimit   int                `yaml:"session_limit"`
	Layout         models.LayoutHints `yaml:"layout"`
}

func Default() Config {
	return Config{
		Addr: ":8080",
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		},
		MaxUploadMB:  64,
		SessionLimit: 128,
		Layout:       models.DefaultLayout(),
	}
}

// Load reads path (skipped when empty) over the defaults and then applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	c.Addr = getEnv("ONNXSCOPE_ADDR", c.Addr)
	c.Layout.RankDir = getEnv("ONNXSCOPE_LAYOUT_RANKDIR", c.Layout.RankDir)

	if origins := os.Getenv("CORS_ALLOWED_ORIGIN"); origins != "" {
		c.AllowedOrigins = splitList(origins)
	}

	if v := os.Getenv("ONNXSCOPE_MAX_UPLOAD_MB"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ONNXSCOPE_MAX_UPLOAD_MB: %w", err)
		}
		c.MaxUploadMB = n
	}

	if v := os.Getenv("ONNXSCOPE_SESSION_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ONNXSCOPE_SESSION_LIMIT: %w", err)
		}
		c.SessionLimit = n
	}

	return nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("invalid config: missing addr")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid config: max_upload_mb must be positive, got %d", c.MaxUploadMB)
	}
	if c.SessionLimit < 0 {
		return fmt.Errorf("invalid config: session_limit must not be negative, got %d", c.SessionLimit)
	}
	switch c.Layout.RankDir {
	case "TB", "BT", "LR", "RL":
	default:
		return fmt.Errorf("invalid config: layout rank_dir %q", c.Layout.RankDir)
	}
	return nil
}

// MaxUploadBytes is the request body limit for model uploads.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
