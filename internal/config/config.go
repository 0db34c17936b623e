package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "tweetlink.yaml"

// EnvPrefix prefixes every environment override, e.g. TWEETLINK_SERVER_ADDR.
const EnvPrefix = "TWEETLINK_"

type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
	Redis    RedisConfig    `yaml:"redis" envPrefix:"REDIS_"`
	Session  SessionConfig  `yaml:"session" envPrefix:"SESSION_"`
	Twitter  TwitterConfig  `yaml:"twitter" envPrefix:"TWITTER_"`
	Users    UsersConfig    `yaml:"users" envPrefix:"USERS_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr" env:"ADDR"`
	BaseURL       string `yaml:"base_url" env:"BASE_URL"`
	SecureCookies bool   `yaml:"secure_cookies" env:"SECURE_COOKIES"`
	Mode          string `yaml:"mode" env:"MODE"` // gin mode: debug, release, test
}

type DatabaseConfig struct {
	Path  string `yaml:"path" env:"PATH"`
	Debug bool   `yaml:"debug" env:"DEBUG"`
}

// RedisConfig selects the session store. An empty Addr keeps sessions in
// process memory.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
}

type SessionConfig struct {
	HashKey  string        `yaml:"hash_key" env:"HASH_KEY"`
	BlockKey string        `yaml:"block_key" env:"BLOCK_KEY"`
	TTL      time.Duration `yaml:"ttl" env:"TTL"`
}

type TwitterConfig struct {
	ClientID     string   `yaml:"client_id" env:"CLIENT_ID"`
	ClientSecret string   `yaml:"client_secret" env:"CLIENT_SECRET"`
	CallbackURL  string   `yaml:"callback_url" env:"CALLBACK_URL"`
	Scopes       []string `yaml:"scopes" env:"SCOPES" envSeparator:","`
}

type UsersConfig struct {
	DisposableDomains []string `yaml:"disposable_domains" env:"DISPOSABLE_DOMAINS" envSeparator:","`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"` // text or json
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:    ":8080",
			BaseURL: "http://localhost:8080",
			Mode:    "release",
		},
		Database: DatabaseConfig{Path: "tweetlink.db"},
		Session:  SessionConfig{TTL: 30 * 24 * time.Hour},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration from defaults, the YAML file at path, a
// .env file in the working directory and finally the environment.
// A missing file at the default path is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills derived values and rejects unusable settings.
func (c *Config) Validate() error {
	c.Server.BaseURL = strings.TrimRight(c.Server.BaseURL, "/")
	if c.Server.BaseURL == "" {
		return errors.New("server.base_url is required")
	}
	if c.Twitter.CallbackURL == "" {
		c.Twitter.CallbackURL = c.Server.BaseURL + "/auth/twitter/callback"
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}
	return nil
}

// Save writes the configuration as YAML with owner-only permissions, since
// it may contain secrets.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
