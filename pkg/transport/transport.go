// Package transport delivers event payloads to the remote collection service.
// Two implementations are provided: HTTP (request/response POST per event) and
// Socket (fire-and-forget websocket emission with disconnect buffering). The
// package also performs the one-time identity bootstrap against the
// /identify endpoint.
package transport

import (
	"context"

	"github.com/walletlens/walletlens-sdk-go/pkg/event"
)

// Transport delivers events to the collection service. Send semantics depend
// on the implementation: the HTTP transport reports delivery errors to the
// caller, while the socket transport queues and returns immediately.
type Transport interface {
	Send(ctx context.Context, ev event.Event) error
	Close() error
}
