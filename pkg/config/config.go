// Package config defines the runtime configuration for the SDK, including the
// collection endpoint, the optional websocket endpoint, tracking feature flags,
// and operation timeouts. It also provides validation and defaulting helpers
// plus a YAML file loader.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all SDK settings required to initialize the transport and the
// provider instrumentation. Use Validate to fill implicit defaults and to check
// for required fields. The struct is treated as immutable after NewSDK: the SDK
// copies what it needs at construction time and never writes back.
type Config struct {
	// AppKey identifies the application to the collection service (required).
	AppKey string `json:"app_key" yaml:"app_key"`
	// Endpoint is the HTTP collection endpoint base URL (required). Events are
	// POSTed to {Endpoint}/events and identity bootstrap goes to
	// {Endpoint}/identify.
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	// SocketURL is an optional websocket endpoint (ws:// or wss://). When set,
	// events are emitted fire-and-forget over the socket instead of HTTP.
	SocketURL string `json:"socket_url" yaml:"socket_url"`
	// Features selects which listeners and interceptions are installed when a
	// provider is attached. Never mutated after init.
	Features Features `json:"features" yaml:"features"`
	// Debug enables verbose logging.
	Debug bool `json:"debug" yaml:"debug"`
	// CachePath is an optional file path for the identity cache. Empty means
	// the identity token is kept in memory only (or in whatever storage port
	// the application injects).
	CachePath string `json:"cache_path" yaml:"cache_path"`
	// Timeouts configures per-operation deadlines. See Timeouts.WithDefaults.
	Timeouts Timeouts `json:"timeouts" yaml:"timeouts"`
}

// Features is the set of boolean tracking flags. Flags only select what gets
// observed at construction/attachment time; disabled concerns are never wired.
type Features struct {
	// PageViews enables TrackPageView (URL/UTM parsing, referrer, title).
	PageViews bool `json:"page_views" yaml:"page_views"`
	// Clicks enables TrackClick.
	Clicks bool `json:"clicks" yaml:"clicks"`
	// WalletEvents installs accountsChanged/chainChanged/disconnect listeners
	// on the attached provider.
	WalletEvents bool `json:"wallet_events" yaml:"wallet_events"`
	// Transactions intercepts eth_sendTransaction on the attached provider.
	Transactions bool `json:"transactions" yaml:"transactions"`
	// Signing intercepts message-signing methods on the attached provider.
	Signing bool `json:"signing" yaml:"signing"`
}

// AllFeatures returns a Features value with every flag enabled.
func AllFeatures() Features {
	return Features{
		PageViews:    true,
		Clicks:       true,
		WalletEvents: true,
		Transactions: true,
		Signing:      true,
	}
}

// Timeouts controls SDK operation deadlines.
// Zero values will be replaced by sane defaults in WithDefaults.
type Timeouts struct {
	Identify   time.Duration // identity bootstrap HTTP call
	Send       time.Duration // single event HTTP POST
	ChainRead  time.Duration // eth_chainId / eth_getTransactionCount
	SocketDial time.Duration // websocket dial attempt
	FlushWait  time.Duration // drain wait on Close
}

// Validate verifies that AppKey and Endpoint are provided. SocketURL, when
// present, must carry a ws:// or wss:// scheme.
func (c *Config) Validate() error {
	if c.AppKey == "" {
		return errors.New("app key is required")
	}
	if c.Endpoint == "" {
		return errors.New("collection endpoint is required")
	}
	if c.SocketURL != "" && !strings.HasPrefix(c.SocketURL, "ws://") && !strings.HasPrefix(c.SocketURL, "wss://") {
		return fmt.Errorf("socket URL must use ws:// or wss://, got %q", c.SocketURL)
	}
	return nil
}

// WithDefaults returns a copy of t with zero values replaced by defaults:
//
//	Identify:   5s
//	Send:       5s
//	ChainRead:  12s
//	SocketDial: 5s
//	FlushWait:  3s
func (t Timeouts) WithDefaults() Timeouts {
	tt := t
	if tt.Identify == 0 {
		tt.Identify = 5 * time.Second
	}
	if tt.Send == 0 {
		tt.Send = 5 * time.Second
	}
	if tt.ChainRead == 0 {
		tt.ChainRead = 12 * time.Second
	}
	if tt.SocketDial == 0 {
		tt.SocketDial = 5 * time.Second
	}
	if tt.FlushWait == 0 {
		tt.FlushWait = 3 * time.Second
	}
	return tt
}

// LoadFile reads a YAML configuration file from path and returns the decoded
// Config. The result is not validated; call Validate before use.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := new(Config)
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}
