package internal

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// DefaultSource tags every envelope sent by this client.
const DefaultSource = "enable3-chat"

// DefaultWebhookURL is the webhook used when no endpoints are configured.
const DefaultWebhookURL = "https://n8n-djwe.onrender.com/webhook/4b2e3bea-1ccb-44d5-90eb-36ad411982b7"

// DefaultRelays are public relays that forward a request whose target is
// appended URL-encoded.
var DefaultRelays = []string{
	"https://corsproxy.io/?",
	"https://cors-anywhere.herokuapp.com/",
	"https://proxy.cors.sh/",
	"https://api.allorigins.win/raw?url=",
}

// Environment variables overriding the config file. List values are
// comma-separated.
const (
	EnvEndpoints = "HOOKCHAT_ENDPOINTS"
	EnvRelays    = "HOOKCHAT_RELAYS"
	EnvSource    = "HOOKCHAT_SOURCE"
)

// IdentityConfig selects where the user id is persisted.
type IdentityConfig struct {
	Driver    StoreType     `yaml:"driver"`
	Path      string        `yaml:"path,omitempty"`
	Key       string        `yaml:"key"`
	RedisAddr string        `yaml:"redis_addr,omitempty"`
	RedisTTL  time.Duration `yaml:"redis_ttl,omitempty"`
}

// Config is the on-disk configuration.
type Config struct {
	Endpoints []string       `yaml:"endpoints"`
	Relays    []string       `yaml:"relays"`
	Source    string         `yaml:"source"`
	Timeouts  Timeouts       `yaml:"timeouts"`
	Identity  IdentityConfig `yaml:"identity"`
	// TimeZone names the IANA zone used for display timestamps. Empty means local.
	TimeZone string `yaml:"location,omitempty"`
	LogLevel string `yaml:"log_level,omitempty"`

	loc *time.Location
}

// DefaultConfig returns the built-in configuration. paths decides where the
// file and sqlite identity drivers keep their data.
func DefaultConfig(paths DataPaths) *Config {
	return &Config{
		Endpoints: []string{DefaultWebhookURL},
		Relays:    append([]string(nil), DefaultRelays...),
		Source:    DefaultSource,
		Timeouts: Timeouts{
			AvailabilityCheck: 8 * time.Second,
			SendMessage:       15 * time.Second,
			InitSession:       10 * time.Second,
			Attempt:           5 * time.Second,
		},
		Identity: IdentityConfig{
			Driver: StoreTypeFile,
			Path:   paths.IdentityFile,
			Key:    DefaultIdentityKey,
		},
		LogLevel: "warn",
	}
}

// LoadConfig reads the YAML file at path over the defaults, applies
// environment overrides and validates the result. A missing file is only
// an error when required is set.
func LoadConfig(path string, paths DataPaths, required bool) (*Config, error) {
	cfg := DefaultConfig(paths)
	// resolved from the driver below unless the file sets it
	cfg.Identity.Path = ""

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config %s", path)
		}
		LogDebug("Loaded config from %s", path)
	case os.IsNotExist(err) && !required:
		LogDebug("No config at %s, using defaults", path)
	default:
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	cfg.applyEnv(os.Getenv)
	if cfg.Identity.Path == "" {
		cfg.Identity.Path = paths.IdentityPath(cfg.Identity.Driver)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvEndpoints); v != "" {
		c.Endpoints = splitList(v)
	}
	if v, ok := lookup(getenv, EnvRelays); ok {
		c.Relays = splitList(v)
	}
	if v := getenv(EnvSource); v != "" {
		c.Source = v
	}
}

// lookup treats "-" as an explicit empty list so relays can be disabled
// from the environment.
func lookup(getenv func(string) string, key string) (string, bool) {
	v := getenv(key)
	if v == "-" {
		return "", true
	}
	return v, v != ""
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects configurations that cannot deliver anything.
func (c *Config) Validate() error {
	if len(c.Endpoints) == 0 {
		return &ConfigError{Field: "endpoints", Reason: "must list at least one URL"}
	}
	for _, e := range c.Endpoints {
		if strings.TrimSpace(e) == "" {
			return &ConfigError{Field: "endpoints", Reason: "must not contain empty URLs"}
		}
	}
	for _, r := range c.Relays {
		if strings.TrimSpace(r) == "" {
			return &ConfigError{Field: "relays", Reason: "must not contain empty templates"}
		}
	}
	if c.Source == "" {
		return &ConfigError{Field: "source", Reason: "must not be empty"}
	}

	positive := []struct {
		field string
		d     time.Duration
	}{
		{"timeouts.availability_check", c.Timeouts.AvailabilityCheck},
		{"timeouts.send_message", c.Timeouts.SendMessage},
		{"timeouts.init_session", c.Timeouts.InitSession},
	}
	for _, p := range positive {
		if p.d <= 0 {
			return &ConfigError{Field: p.field, Reason: "must be positive"}
		}
	}
	if c.Timeouts.Attempt < 0 {
		return &ConfigError{Field: "timeouts.attempt", Reason: "must not be negative"}
	}

	switch c.Identity.Driver {
	case StoreTypeMemory:
	case StoreTypeFile, StoreTypeSQLite:
		if c.Identity.Path == "" {
			return &ConfigError{Field: "identity.path", Reason: "is required for the " + string(c.Identity.Driver) + " driver"}
		}
	case StoreTypeRedis:
		if c.Identity.RedisAddr == "" {
			return &ConfigError{Field: "identity.redis_addr", Reason: "is required for the redis driver"}
		}
	default:
		return &ConfigError{Field: "identity.driver", Reason: "unknown driver " + string(c.Identity.Driver)}
	}
	if c.Identity.Key == "" {
		return &ConfigError{Field: "identity.key", Reason: "must not be empty"}
	}

	if c.TimeZone != "" {
		loc, err := time.LoadLocation(c.TimeZone)
		if err != nil {
			return &ConfigError{Field: "location", Reason: err.Error()}
		}
		c.loc = loc
	}
	if c.LogLevel != "" {
		switch c.LogLevel {
		case "error", "warn", "warning", "info", "debug", "trace":
		default:
			return &ConfigError{Field: "log_level", Reason: "unknown level " + c.LogLevel}
		}
	}
	return nil
}

// Location returns the zone for display timestamps.
func (c *Config) Location() *time.Location {
	if c.loc != nil {
		return c.loc
	}
	return time.Local
}

// OpenIdentityStore opens the identity store the config selects.
func (c *Config) OpenIdentityStore() (IdentityStore, error) {
	opts := []StoreOption{WithKey(c.Identity.Key), WithPath(c.Identity.Path)}
	if c.Identity.Driver == StoreTypeRedis {
		opts = append(opts,
			WithRedisClient(redis.NewClient(&redis.Options{Addr: c.Identity.RedisAddr})),
			WithRedisTTL(c.Identity.RedisTTL),
		)
	}
	return NewIdentityStore(c.Identity.Driver, opts...)
}

// Save writes the config as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write config %s", path)
	}
	return nil
}
