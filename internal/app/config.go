package app

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stillpath/stillpath-backend/internal/platform/envutil"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

type Config struct {
	Port          string   `yaml:"port"`
	CORSOrigins   []string `yaml:"cors_origins"`
	JWTSecretKey  string   `yaml:"jwt_secret_key"`
	RedisAddr     string   `yaml:"redis_addr"`
	RedisChannel  string   `yaml:"redis_channel"`
	SweepSchedule string   `yaml:"sweep_schedule"`
}

// LoadConfig reads environment variables first, then overlays an optional
// YAML file named by CONFIG_FILE. File values win where set.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Port:          envutil.GetEnv("PORT", "8080", log),
		JWTSecretKey:  envutil.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		RedisAddr:     envutil.GetEnv("REDIS_ADDR", "", log),
		RedisChannel:  envutil.GetEnv("REDIS_CHANNEL", "progression", log),
		SweepSchedule: envutil.GetEnv("SWEEP_SCHEDULE", "@every 10m", log),
	}
	if origins := envutil.GetEnv("CORS_ORIGINS", "", log); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	path := envutil.GetEnv("CONFIG_FILE", "", log)
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}
	var overlay Config
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if overlay.Port != "" {
		cfg.Port = overlay.Port
	}
	if len(overlay.CORSOrigins) > 0 {
		cfg.CORSOrigins = overlay.CORSOrigins
	}
	if overlay.JWTSecretKey != "" {
		cfg.JWTSecretKey = overlay.JWTSecretKey
	}
	if overlay.RedisAddr != "" {
		cfg.RedisAddr = overlay.RedisAddr
	}
	if overlay.RedisChannel != "" {
		cfg.RedisChannel = overlay.RedisChannel
	}
	if overlay.SweepSchedule != "" {
		cfg.SweepSchedule = overlay.SweepSchedule
	}
	return cfg, nil
}
