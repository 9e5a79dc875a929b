package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/crewvitals/vigil/internal/services"
	"github.com/crewvitals/vigil/internal/utils"
)

type GatewayConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type RiskConfig struct {
	ModerateAt     float64 `yaml:"moderate_at"`
	HighAt         float64 `yaml:"high_at"`
	VisualOverride float64 `yaml:"visual_override"`
}

type Config struct {
	Addr         string        `yaml:"addr"`
	SQLitePath   string        `yaml:"sqlite_path"`
	SnapshotPath string        `yaml:"snapshot_path"`
	Gateway      GatewayConfig `yaml:"gateway"`
	Risk         RiskConfig    `yaml:"risk"`
}

func defaults() Config {
	policy := services.DefaultRiskPolicy()
	return Config{
		Addr: ":8080",
		Gateway: GatewayConfig{
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 30,
		},
		Risk: RiskConfig{
			ModerateAt:     policy.ModerateAt,
			HighAt:         policy.HighAt,
			VisualOverride: policy.VisualOverride,
		},
	}
}

// Load reads the YAML config at path (optional), then applies VIGIL_*
// environment overrides. A missing file falls back to defaults; a malformed
// one is an error.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.Addr = utils.SafeEnv("VIGIL_ADDR", cfg.Addr)
	cfg.SQLitePath = utils.SafeEnv("VIGIL_SQLITE_PATH", cfg.SQLitePath)
	cfg.SnapshotPath = utils.SafeEnv("VIGIL_SNAPSHOT_PATH", cfg.SnapshotPath)
	cfg.Gateway.Endpoint = utils.SafeEnv("VIGIL_GATEWAY_ENDPOINT", cfg.Gateway.Endpoint)
	cfg.Gateway.APIKey = utils.SafeEnv("VIGIL_GATEWAY_API_KEY", cfg.Gateway.APIKey)
	cfg.Gateway.Model = utils.SafeEnv("VIGIL_GATEWAY_MODEL", cfg.Gateway.Model)
	if v := os.Getenv("VIGIL_GATEWAY_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("parse VIGIL_GATEWAY_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Gateway.TimeoutSeconds = n
	}

	if err := cfg.RiskPolicy().Validate(); err != nil {
		return cfg, fmt.Errorf("risk policy: %w", err)
	}
	return cfg, nil
}

func (c Config) RiskPolicy() services.RiskPolicy {
	return services.RiskPolicy{
		ModerateAt:     c.Risk.ModerateAt,
		HighAt:         c.Risk.HighAt,
		VisualOverride: c.Risk.VisualOverride,
	}
}

func (c Config) GatewayConfig() services.GatewayConfig {
	return services.GatewayConfig{
		Endpoint: c.Gateway.Endpoint,
		APIKey:   c.Gateway.APIKey,
		Model:    c.Gateway.Model,
		Timeout:  time.Duration(c.Gateway.TimeoutSeconds) * time.Second,
	}
}
