// Package sdk exposes the high-level WalletLens entry points. It wires
// together the transport (HTTP or socket), the identity bootstrap, the event
// emitter, and the provider instrumentation (interceptor, listener registry,
// connection lifecycle tracking).
package sdk

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/walletlens/walletlens-sdk-go/pkg/config"
	"github.com/walletlens/walletlens-sdk-go/pkg/event"
	"github.com/walletlens/walletlens-sdk-go/pkg/provider"
	"github.com/walletlens/walletlens-sdk-go/pkg/session"
	"github.com/walletlens/walletlens-sdk-go/pkg/storage"
	"github.com/walletlens/walletlens-sdk-go/pkg/transport"
	"go.uber.org/zap"
)

// WalletLens is the public interface for instrumenting an application and its
// wallet provider.
type WalletLens interface {
	// AttachProvider composes the interception decorator around p and installs
	// the configured listeners. The returned handle is what the host should
	// route wallet calls through. Attaching while another provider is attached
	// first fully reverses the prior interception.
	AttachProvider(p provider.Provider) provider.Provider

	// DetachProvider removes all installed listeners and discards the
	// decorator, leaving the borrowed provider exactly as it was.
	DetachProvider()

	// TrackPageView reports a page navigation. No-op unless the PageViews
	// feature flag is set.
	TrackPageView(rawURL, title, referrer string)

	// TrackClick reports an element click. No-op unless the Clicks feature
	// flag is set.
	TrackClick(elementID, text, href string)

	// Track reports a custom event with arbitrary attributes.
	Track(name string, attrs map[string]any)

	// Identity returns the opaque per-installation identity token, or empty if
	// the bootstrap has not succeeded.
	Identity() string

	// Session returns the current wallet session state (disconnected when no
	// provider is attached).
	Session() session.State

	// Close releases the transport. Attached providers are detached first.
	Close() error
}

// init configures a default global zap logger for the SDK. Applications may
// replace it with zap.ReplaceGlobals(...) if they need custom logging.
func init() {
	c := zap.Config{
		Level:            zap.NewAtomicLevelAt(zap.InfoLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := c.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}

// Core is the concrete SDK implementation.
type Core struct {
	features  config.Features
	timeouts  config.Timeouts
	store     storage.Store
	transport transport.Transport
	emitter   *event.Emitter
	identity  string
	sessionID string

	// mu is the attachment lock: at most one provider is instrumented at a
	// time, and swaps are serialized.
	mu         sync.Mutex
	attachment *provider.Attachment
	tracker    *session.Tracker
}

type options struct {
	store      storage.Store
	transport  transport.Transport
	httpClient *http.Client
}

// Option customizes SDK construction.
type Option func(*options)

// WithStorage injects the key/value store backing the identity cache.
// Overrides the config's CachePath.
func WithStorage(store storage.Store) Option {
	return func(o *options) { o.store = store }
}

// WithTransport injects a pre-built transport, bypassing the endpoint
// selection in the config.
func WithTransport(t transport.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithHTTPClient replaces the HTTP client used for event delivery and the
// identity bootstrap.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// NewSDK initializes the SDK with validated configuration: it selects the
// transport (socket when SocketURL is set, HTTP otherwise), performs the
// one-time identity bootstrap (a failure there is logged and tolerated; events
// then carry only the session id), and mints the session id. It aborts the
// process if the configuration is invalid.
func NewSDK(cfg *config.Config, opts ...Option) WalletLens {
	if err := cfg.Validate(); err != nil {
		zap.L().Fatal("Invalid config", zap.Error(err))
	}
	timeouts := cfg.Timeouts.WithDefaults()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store
	if store == nil {
		if cfg.CachePath != "" {
			store = storage.NewFile(cfg.CachePath)
		} else {
			store = storage.NewMemory()
		}
	}

	tr := o.transport
	if tr == nil {
		if cfg.SocketURL != "" {
			tr = transport.NewSocket(cfg.SocketURL,
				transport.WithDialTimeout(timeouts.SocketDial),
				transport.WithFlushWait(timeouts.FlushWait))
		} else {
			httpOpts := []transport.HTTPOption{}
			if o.httpClient != nil {
				httpOpts = append(httpOpts, transport.WithHTTPClient(o.httpClient))
			}
			tr = transport.NewHTTP(cfg.Endpoint, cfg.AppKey, httpOpts...)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Identify)
	identity, err := transport.BootstrapIdentity(ctx, cfg.Endpoint, cfg.AppKey, store, o.httpClient)
	cancel()
	if err != nil {
		zap.L().Warn("identity bootstrap failed, continuing anonymous", zap.Error(err))
	}

	sessionID := uuid.NewString()
	if cfg.Debug {
		zap.L().Debug("sdk initialized",
			zap.String("session_id", sessionID),
			zap.Bool("identified", identity != ""))
	}

	return &Core{
		features:  cfg.Features,
		timeouts:  timeouts,
		store:     store,
		transport: tr,
		emitter:   event.NewEmitter(tr, cfg.AppKey, sessionID, identity, timeouts.Send),
		identity:  identity,
		sessionID: sessionID,
	}
}

// AttachProvider instruments p according to the configured feature flags and
// returns the handle the host should call through. See WalletLens.
func (c *Core) AttachProvider(p provider.Provider) provider.Provider {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attachment != nil {
		c.detachLocked()
	}

	var methods []string
	if c.features.Transactions {
		methods = append(methods, provider.MethodSendTransaction)
	}
	if c.features.Signing {
		methods = append(methods, provider.SigningMethods...)
	}

	att := provider.Attach(p, c.emitter,
		provider.WithInterceptedMethods(methods...),
		provider.WithChainReadTimeout(c.timeouts.ChainRead))
	c.attachment = att

	if c.features.WalletEvents && p != nil {
		tracker := session.NewTracker(p, c.emitter, c.timeouts.ChainRead)
		c.tracker = tracker

		att.Subscribe(provider.EventAccountsChanged, func(payload any) {
			if err := tracker.HandleAccountsChanged(payload); err != nil {
				zap.L().Error("accountsChanged handling failed", zap.Error(err))
			}
		})
		att.Subscribe(provider.EventChainChanged, func(payload any) {
			if err := tracker.HandleChainChanged(payload); err != nil {
				zap.L().Error("chainChanged handling failed", zap.Error(err))
			}
		})
		att.Subscribe(provider.EventDisconnect, func(payload any) {
			if err := tracker.HandleDisconnect(payload); err != nil {
				zap.L().Error("disconnect handling failed", zap.Error(err))
			}
		})
	}

	return att.Provider()
}

// DetachProvider reverses the current interception. Safe to call when nothing
// is attached.
func (c *Core) DetachProvider() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detachLocked()
}

func (c *Core) detachLocked() {
	if c.attachment == nil {
		return
	}
	c.attachment.Detach()
	c.attachment = nil
	c.tracker = nil
}

// Identity returns the bootstrap token obtained at construction.
func (c *Core) Identity() string {
	return c.identity
}

// Session returns the current wallet session state.
func (c *Core) Session() session.State {
	c.mu.Lock()
	tracker := c.tracker
	c.mu.Unlock()
	if tracker == nil {
		return session.State{}
	}
	return tracker.Current()
}

// Close detaches any attached provider and shuts down the transport.
func (c *Core) Close() error {
	c.DetachProvider()
	return c.transport.Close()
}
