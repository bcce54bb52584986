package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RouteLimit is the sliding-window policy for one route class.
type RouteLimit struct {
	Window      string `yaml:"window"`
	MaxRequests int    `yaml:"maxRequests"`
}

type Config struct {
	Server struct {
		Port              string `yaml:"port"`
		TrustForwardedFor bool   `yaml:"trustForwardedFor"`
		Debug             bool   `yaml:"debug"`
		MaxBodyBytes      int64  `yaml:"maxBodyBytes"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Persistence struct {
		Backend     string `yaml:"backend"`
		ScoresPath  string `yaml:"scoresPath"`
		StatsPath   string `yaml:"statsPath"`
		SQLitePath  string `yaml:"sqlitePath"`
		SaveTimeout string `yaml:"saveTimeout"`
	} `yaml:"persistence"`
	Questions struct {
		Path string `yaml:"path"`
	} `yaml:"questions"`
	Leaderboard struct {
		Capacity int `yaml:"capacity"`
		TopN     int `yaml:"topN"`
	} `yaml:"leaderboard"`
	Quota struct {
		Limit        int    `yaml:"limit"`
		Timezone     string `yaml:"timezone"`
		RestoreCount bool   `yaml:"restoreCount"`
	} `yaml:"quota"`
	RateLimit struct {
		Read         RouteLimit `yaml:"read"`
		Write        RouteLimit `yaml:"write"`
		SweepEvery   int        `yaml:"sweepEvery"`
		JanitorEvery string     `yaml:"janitorEvery"`
		GlobalRPS    float64    `yaml:"globalRPS"`
		GlobalBurst  int        `yaml:"globalBurst"`
	} `yaml:"rateLimit"`
	Gate struct {
		AllowedOrigins     []string `yaml:"allowedOrigins"`
		AllowMissingOrigin bool     `yaml:"allowMissingOrigin"`
		RequireBrowserUA   bool     `yaml:"requireBrowserUA"`
		BotSignatures      []string `yaml:"botSignatures"`
		BrowserMarkers     []string `yaml:"browserMarkers"`
	} `yaml:"gate"`
	Stats struct {
		Backend string `yaml:"backend"`
	} `yaml:"stats"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "3000"
	cfg.Server.TrustForwardedFor = false
	cfg.Server.MaxBodyBytes = 1 << 20

	cfg.Redis.Prefix = "quiz"

	cfg.Persistence.Backend = "file"
	cfg.Persistence.ScoresPath = "scores.json"
	cfg.Persistence.StatsPath = "stats.json"
	cfg.Persistence.SQLitePath = "snapshots.db"
	cfg.Persistence.SaveTimeout = "5s"

	cfg.Leaderboard.Capacity = 50
	cfg.Leaderboard.TopN = 10

	cfg.Quota.Limit = 100
	cfg.Quota.Timezone = "Local"
	cfg.Quota.RestoreCount = true

	cfg.RateLimit.Read = RouteLimit{Window: "1m", MaxRequests: 60}
	cfg.RateLimit.Write = RouteLimit{Window: "5m", MaxRequests: 10}
	cfg.RateLimit.SweepEvery = 256
	cfg.RateLimit.JanitorEvery = "2m"
	cfg.RateLimit.GlobalBurst = 50

	cfg.Gate.AllowedOrigins = []string{
		"https://math-worksheet-vue.vercel.app",
		"http://localhost:3000",
		"http://localhost:5173",
		"http://localhost:8080",
	}
	cfg.Gate.AllowMissingOrigin = true
	cfg.Gate.RequireBrowserUA = true
	cfg.Gate.BotSignatures = []string{
		"bot", "crawler", "spider", "scraper", "slurp", "curl", "wget",
		"python-requests", "httpclient", "go-http-client", "headless",
		"phantomjs", "selenium", "puppeteer", "scrapy",
	}
	cfg.Gate.BrowserMarkers = []string{"chrome", "safari", "firefox", "edg", "opr", "gecko"}

	cfg.Stats.Backend = "memory"
	return cfg
}

// Load reads YAML config from path on top of Default. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	switch c.Persistence.Backend {
	case "file", "redis", "sqlite", "memory":
	default:
		return fmt.Errorf("config: unknown persistence backend %q", c.Persistence.Backend)
	}
	switch c.Stats.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown stats backend %q", c.Stats.Backend)
	}
	if (c.Persistence.Backend == "redis" || c.Stats.Backend == "redis") && c.Redis.Addr == "" {
		return errors.New("config: redis backend selected but redis.addr is empty")
	}
	if c.Leaderboard.Capacity <= 0 || c.Leaderboard.TopN <= 0 {
		return errors.New("config: leaderboard capacity and topN must be positive")
	}
	if c.Quota.Limit <= 0 {
		return errors.New("config: quota.limit must be positive")
	}
	if c.RateLimit.Read.MaxRequests <= 0 || c.RateLimit.Write.MaxRequests <= 0 {
		return errors.New("config: rate limit maxRequests must be positive")
	}
	if _, err := Location(c.Quota.Timezone); err != nil {
		return fmt.Errorf("config: quota.timezone: %w", err)
	}
	return nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return fallback
}

// Location resolves the quota timezone; empty and "Local" mean the process zone.
func Location(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
