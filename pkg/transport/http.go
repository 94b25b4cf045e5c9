package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/walletlens/walletlens-sdk-go/pkg/event"
	"go.uber.org/zap"
)

// appKeyHeader carries the application key on every collector request.
const appKeyHeader = "X-WalletLens-Key"

// HTTP posts each event as a JSON document to {endpoint}/events.
type HTTP struct {
	endpoint string
	appKey   string
	client   *http.Client
}

// HTTPOption configures the HTTP transport.
type HTTPOption func(*HTTP)

// WithHTTPClient replaces the underlying HTTP client (custom TLS, proxies).
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.client = client
	}
}

// NewHTTP constructs an HTTP transport for the given collection endpoint.
// Per-call deadlines are expected on the context passed to Send.
func NewHTTP(endpoint, appKey string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		endpoint: strings.TrimRight(endpoint, "/"),
		appKey:   appKey,
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Send delivers one event and returns an error for network failures or any
// non-2xx collector response.
func (h *HTTP) Send(ctx context.Context, ev event.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint+"/events", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(appKeyHeader, h.appKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		zap.L().Warn("collector rejected event",
			zap.String("event", ev.Name), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("collector returned status %d", resp.StatusCode)
	}
	return nil
}

// Close is a no-op; the HTTP transport holds no persistent connection state
// beyond the client's idle pool.
func (h *HTTP) Close() error {
	return nil
}
