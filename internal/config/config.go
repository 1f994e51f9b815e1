package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env    string `yaml:"env"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Catalog struct {
		Name string `yaml:"name"`
		TTL  string `yaml:"ttl"`
	} `yaml:"catalog"`
	Game struct {
		Variant string `yaml:"variant"`
		Seed    int64  `yaml:"seed"` // 0 seeds from the clock
		IdleTTL string `yaml:"idle_ttl"`
	} `yaml:"game"`
	Telegram struct {
		Token     string `yaml:"token"`
		AssetsDir string `yaml:"assets_dir"`
	} `yaml:"telegram"`
}

// Load reads YAML config from path and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadOptional is Load, except a missing file yields an empty config.
func LoadOptional(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Config{}
		cfg.applyEnv()
		return cfg, nil
	}
	return cfg, err
}

func (c *Config) applyEnv() {
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		c.Env = env
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.Postgres.URL = url
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
