// Package sdk provides the high-level entry point for WalletLens, a
// client-side analytics instrumentation library for wallet-enabled
// applications.
//
// The SDK observes application events (page navigation, clicks) and
// wallet-provider activity (connect/disconnect, chain changes, transaction
// submission, message signing) and forwards them as structured events to a
// remote collection endpoint.
//
// # Quick Start
//
// Create an SDK instance with configuration, then attach your provider:
//
//	import (
//		"github.com/walletlens/walletlens-sdk-go/pkg/config"
//		"github.com/walletlens/walletlens-sdk-go/pkg/sdk"
//	)
//
//	func main() {
//		cfg := &config.Config{
//			AppKey:   "wl-your-app-key",
//			Endpoint: "https://collect.walletlens.io",
//			Features: config.AllFeatures(),
//		}
//
//		lens := sdk.NewSDK(cfg)
//		defer lens.Close()
//
//		// Route wallet calls through the returned handle.
//		wallet := lens.AttachProvider(yourProvider)
//
//		lens.TrackPageView("https://dapp.example/swap?utm_source=x", "Swap", "")
//		txHash, err := wallet.Request(ctx, "eth_sendTransaction", txObject)
//		...
//	}
//
// # Architecture
//
// The SDK coordinates several subsystems:
//
//   - Transport: HTTP POST per event, or fire-and-forget websocket emission
//     with disconnect buffering (pkg/transport)
//   - Identity: one-time /identify bootstrap, token cached in an injected
//     key/value store (pkg/storage)
//   - Provider: interception decorator, listener registry, and an adapter
//     over go-ethereum's rpc.Client (pkg/provider)
//   - Session: wallet connection lifecycle state machine (pkg/session)
//
// # Provider Instrumentation
//
// AttachProvider composes a decorator around the provider's request path.
// Configured methods (eth_sendTransaction and the signing family) are
// observed synchronously, then forwarded unmodified. The provider is
// borrowed, never owned: DetachProvider (or attaching a replacement) removes
// every listener the SDK installed and renders the decorator inert.
//
// Providers that seal their request path, or a nil provider, are tolerated:
// the SDK reports a WARNING event and continues without interception.
//
// # Error Handling
//
// Non-fatal conditions (missing provider, sealed provider, disconnect
// without prior state) are reported to the collector as WARNING events and
// execution continues. A chain-id fetch failure during connect reports an
// ERROR event and aborts only the triggering callback.
//
// # Thread Safety
//
// The SDK instance is safe for concurrent use. Provider attachment is
// serialized by an internal lock; session state follows last-write-wins
// under overlapping provider callbacks.
package sdk
