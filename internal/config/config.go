// Package config loads the application configuration from YAML with
// environment variable overrides.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Reddit  RedditConfig  `yaml:"reddit"`
	Jobs    JobsConfig    `yaml:"jobs"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MetricsAddr string `yaml:"metricsAddr"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

// RedditConfig carries the defaults used when an owner has no stored
// rate-limit settings. TimeoutSeconds applies to interactive calls and is
// clamped to 1-60 by the client.
type RedditConfig struct {
	RequestsPerMinute  int `yaml:"requestsPerMinute"`
	ConcurrentRequests int `yaml:"concurrentRequests"`
	TimeoutSeconds     int `yaml:"timeoutSeconds"`
}

type JobsConfig struct {
	Workers int `yaml:"workers"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080", MetricsAddr: ""},
		Storage: StorageConfig{DBPath: "./nichefinder.db"},
		Reddit:  RedditConfig{RequestsPerMinute: 60, ConcurrentRequests: 5, TimeoutSeconds: 10},
		Jobs:    JobsConfig{Workers: 2},
	}
}

// ResolveEnv fills in config fields from environment variables if set.
func (c *Config) ResolveEnv() {
	if v := os.Getenv("NICHE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("NICHE_METRICS_ADDR"); v != "" {
		c.Server.MetricsAddr = v
	}
	if v := os.Getenv("NICHE_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("NICHE_REQUESTS_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Reddit.RequestsPerMinute = n
		}
	}
	if v := os.Getenv("NICHE_REQUEST_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Reddit.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("NICHE_JOB_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Jobs.Workers = n
		}
	}
}

// Load reads YAML config from path, falling back to defaults when the file is
// absent. Environment overrides are applied either way.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ResolveEnv()
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}
