// Package config loads and validates the worker configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/appswitch-io/appswitch/pkg/types"
)

// Default prompt texts.
const (
	DefaultMenuTitle           = "Please select a choice."
	DefaultInvalidInputMessage = "That is an incorrect choice. Please enter the number " +
		"of the menu item you wish to choose."
	DefaultTryAgainMessage = "Try Again"
	DefaultErrorMessage    = "Oops! We experienced a temporary error. " +
		"Please try and dial the line again."
)

// Default expiries, in seconds.
const (
	DefaultSessionExpiry = 5 * 60
	DefaultMessageExpiry = 60 * 60 * 24 * 2
)

// Default returns a configuration with all defaults applied.
func Default() *types.Config {
	return &types.Config{
		WorkerName:          "appswitch",
		SessionExpiry:       DefaultSessionExpiry,
		MessageExpiry:       DefaultMessageExpiry,
		Redis:               types.RedisConfig{Addr: "localhost:6379"},
		HTTPAddr:            "127.0.0.1:8090",
		MenuTitle:           DefaultMenuTitle,
		InvalidInputMessage: DefaultInvalidInputMessage,
		TryAgainMessage:     DefaultTryAgainMessage,
		ErrorMessage:        DefaultErrorMessage,
	}
}

// Load reads configuration (priority order):
// 1. Defaults
// 2. YAML config file, when path is non-empty
// 3. Environment variables
// The result is validated before being returned.
func Load(path string) (*types.Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *types.Config) {
	if addr := os.Getenv("APPSWITCH_REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("APPSWITCH_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if db := os.Getenv("APPSWITCH_REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			cfg.Redis.DB = n
		}
	}
	if addr := os.Getenv("APPSWITCH_HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}
	if name := os.Getenv("APPSWITCH_WORKER_NAME"); name != "" {
		cfg.WorkerName = name
	}
}

// Validate checks the configuration for deployment errors.
func Validate(cfg *types.Config) error {
	if cfg.WorkerName == "" {
		return errors.New("worker_name must not be empty")
	}
	if cfg.SessionExpiry <= 0 {
		return errors.New("session_expiry must be positive")
	}
	if cfg.MessageExpiry <= 0 {
		return errors.New("message_expiry must be positive")
	}
	if len(cfg.Entries) == 0 {
		return errors.New("entries must contain at least one application")
	}
	for i, entry := range cfg.Entries {
		if entry.Label == "" || entry.Endpoint == "" {
			return fmt.Errorf("entries[%d] needs both label and endpoint", i)
		}
	}
	if len(cfg.RoutingTable) == 0 {
		return errors.New("routing_table is required")
	}
	for connector, endpoints := range cfg.RoutingTable {
		for endpoint, target := range endpoints {
			if len(target) != 2 {
				return fmt.Errorf(
					"routing_table[%s][%s] must be a [connector, endpoint] pair",
					connector, endpoint)
			}
		}
	}
	return nil
}

// Provider hands out the current configuration. The dynamic portion can
// be swapped at runtime by the reload watcher; readers always see a
// complete, validated snapshot.
type Provider struct {
	current atomic.Pointer[types.Config]
}

// NewProvider creates a provider serving the given configuration.
func NewProvider(cfg *types.Config) *Provider {
	p := &Provider{}
	p.current.Store(cfg)
	return p
}

// Current returns the active configuration snapshot.
func (p *Provider) Current() *types.Config {
	return p.current.Load()
}

// Swap replaces the active configuration.
func (p *Provider) Swap(cfg *types.Config) {
	p.current.Store(cfg)
}
