// Package provider defines the wallet-provider capability surface consumed by
// the SDK (EIP-1193 style request/event interface), the interceptor that
// decorates a provider's request path for observation, and the registry that
// tracks listeners installed on a borrowed provider so they can be removed
// when it is swapped. An adapter over go-ethereum's rpc.Client is included for
// hosts that talk to a node endpoint directly.
package provider

import "context"

// Provider event names delivered through On/RemoveListener.
const (
	EventAccountsChanged = "accountsChanged"
	EventChainChanged    = "chainChanged"
	EventDisconnect      = "disconnect"
)

// Listener receives a provider event payload. The payload shape depends on
// the event: accountsChanged carries the account list, chainChanged the new
// chain id, disconnect an optional reason.
type Listener func(payload any)

// Provider is the capability surface the SDK borrows from the host. Ownership
// stays with the host: the SDK never closes a provider and removes everything
// it installed when detaching.
type Provider interface {
	// Request performs a JSON-RPC style call.
	Request(ctx context.Context, method string, params ...any) (any, error)
	// On subscribes fn to the named provider event.
	On(eventName string, fn Listener)
	// RemoveListener unsubscribes a previously installed listener.
	RemoveListener(eventName string, fn Listener)
}

// Sealed marks providers whose request path must not be decorated (hardened
// wallet providers freeze their request function). Attach detects this before
// wrapping, reports a soft warning, and leaves the provider untouched.
type Sealed interface {
	SealedRequest() bool
}

// Noop is a Provider that accepts everything and does nothing. It is handed
// out when attachment is requested without a usable provider, so the host call
// path keeps working.
type Noop struct{}

func (Noop) Request(context.Context, string, ...any) (any, error) { return nil, nil }
func (Noop) On(string, Listener)                                  {}
func (Noop) RemoveListener(string, Listener)                      {}
