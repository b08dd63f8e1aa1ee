package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds service-level configuration. Model-level configuration
// (thresholds, clinical ranges) travels inside the pipeline artifact,
// not here.
type Config struct {
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Model struct {
		// Path to the serialized pipeline artifact bundle.
		BundlePath string `yaml:"bundle_path"`
	} `yaml:"model"`

	Cache struct {
		PredictionKeyPrefix  string `yaml:"prediction_key_prefix"`
		ExplanationKeyPrefix string `yaml:"explanation_key_prefix"`
		TTL                  int    `yaml:"ttl"` // seconds
	} `yaml:"cache"`

	Explain struct {
		MaxSampleSize int `yaml:"max_sample_size"` // cap for global importance sampling
		CacheSize     int `yaml:"cache_size"`      // LRU entries for global importance
		Workers       int `yaml:"workers"`         // bounded workers for kernel attribution
		Timeout       int `yaml:"timeout"`         // seconds, per explanation request
	} `yaml:"explain"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load builds configuration from environment variables with defaults.
// If CONFIG_FILE points at a YAML file, its values override the result.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.Model.BundlePath = getEnv("MODEL_BUNDLE_PATH", "models/maternal_risk_bundle.json")

	cfg.Cache.PredictionKeyPrefix = getEnv("CACHE_PREDICTION_PREFIX", "maternal-risk:prediction:")
	cfg.Cache.ExplanationKeyPrefix = getEnv("CACHE_EXPLANATION_PREFIX", "maternal-risk:explanation:")
	cfg.Cache.TTL = getEnvInt("CACHE_TTL", 3600)

	cfg.Explain.MaxSampleSize = getEnvInt("EXPLAIN_MAX_SAMPLE_SIZE", 100)
	cfg.Explain.CacheSize = getEnvInt("EXPLAIN_CACHE_SIZE", 32)
	cfg.Explain.Workers = getEnvInt("EXPLAIN_WORKERS", 4)
	cfg.Explain.Timeout = getEnvInt("EXPLAIN_TIMEOUT", 10)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
