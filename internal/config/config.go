package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL     = "https://ws.audioscrobbler.com/2.0/"
	DefaultRetries     = 2
	DefaultBackoff     = 500 * time.Millisecond
	DefaultConcurrency = 4
	DefaultQuestions   = 10
	DefaultPort        = "8080"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	LastFM struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"lastfm"`
	Fetch struct {
		Retries     *int   `yaml:"retries"`
		Backoff     string `yaml:"backoff"`
		Concurrency int    `yaml:"concurrency"`
		CacheTTL    string `yaml:"cache_ttl"`
	} `yaml:"fetch"`
	Quiz struct {
		Questions      int      `yaml:"questions"`
		ShuffleChoices bool     `yaml:"shuffle_choices"`
		Periods        []string `yaml:"periods"`
		Categories     []string `yaml:"categories"`
	} `yaml:"quiz"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
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

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Config{}
		cfg.applyEnv()
		return cfg, nil
	}
	return cfg, err
}

func (c *Config) applyEnv() {
	if key := strings.TrimSpace(os.Getenv("LASTFM_API_KEY")); key != "" {
		c.LastFM.APIKey = key
	}
}

// APIKey returns the trimmed API key; empty means not configured.
func (c Config) APIKey() string {
	return strings.TrimSpace(c.LastFM.APIKey)
}

// BaseURL returns the Last.fm endpoint.
func (c Config) BaseURL() string {
	if c.LastFM.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.LastFM.BaseURL
}

// Retries returns how many extra attempts a transient failure gets. An
// explicit 0 disables retries.
func (c Config) Retries() int {
	if c.Fetch.Retries == nil || *c.Fetch.Retries < 0 {
		return DefaultRetries
	}
	return *c.Fetch.Retries
}

// Concurrency returns the task pool width.
func (c Config) Concurrency() int {
	if c.Fetch.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return c.Fetch.Concurrency
}

// Questions returns the quiz length.
func (c Config) Questions() int {
	if c.Quiz.Questions <= 0 {
		return DefaultQuestions
	}
	return c.Quiz.Questions
}

// Duration parses a duration string or returns the fallback if empty.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
