package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// RPCProvider adapts a go-ethereum rpc.Client to the Provider surface. Node
// endpoints do not push wallet events, so the adapter carries its own
// dispatcher: integrations that track account or chain state call Emit to feed
// accountsChanged/chainChanged/disconnect into the installed listeners.
type RPCProvider struct {
	client *rpc.Client

	mu        sync.Mutex
	listeners map[string][]Listener
}

// DialRPC connects to a geth-compatible endpoint (http, ws, or ipc URL) and
// wraps it as a Provider.
func DialRPC(ctx context.Context, rawurl string) (*RPCProvider, error) {
	client, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		zap.L().Error("rpc dial failed", zap.String("url", rawurl), zap.Error(err))
		return nil, fmt.Errorf("dial %s: %w", rawurl, err)
	}
	return NewRPCProvider(client), nil
}

// NewRPCProvider wraps an existing rpc.Client.
func NewRPCProvider(client *rpc.Client) *RPCProvider {
	return &RPCProvider{
		client:    client,
		listeners: make(map[string][]Listener),
	}
}

// Request performs the JSON-RPC call and decodes the result into a generic
// value (string, number, map, or slice depending on the method).
func (p *RPCProvider) Request(ctx context.Context, method string, params ...any) (any, error) {
	var raw json.RawMessage
	if err := p.client.CallContext(ctx, &raw, method, params...); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", method, err)
	}
	return out, nil
}

// On subscribes fn to the named event.
func (p *RPCProvider) On(eventName string, fn Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners[eventName] = append(p.listeners[eventName], fn)
}

// RemoveListener unsubscribes fn, matched by function identity.
func (p *RPCProvider) RemoveListener(eventName string, fn Listener) {
	target := reflect.ValueOf(fn).Pointer()

	p.mu.Lock()
	defer p.mu.Unlock()
	installed := p.listeners[eventName]
	for i, l := range installed {
		if reflect.ValueOf(l).Pointer() == target {
			p.listeners[eventName] = append(installed[:i:i], installed[i+1:]...)
			break
		}
	}
	if len(p.listeners[eventName]) == 0 {
		delete(p.listeners, eventName)
	}
}

// Emit dispatches a provider event to every installed listener. Hosts call
// this to forward wallet-side events (account switches, chain switches,
// disconnects) through the adapter.
func (p *RPCProvider) Emit(eventName string, payload any) {
	p.mu.Lock()
	installed := make([]Listener, len(p.listeners[eventName]))
	copy(installed, p.listeners[eventName])
	p.mu.Unlock()

	for _, fn := range installed {
		fn(payload)
	}
}

// ListenerCount reports how many listeners are installed for the named event.
func (p *RPCProvider) ListenerCount(eventName string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners[eventName])
}

// Close releases the underlying RPC connection. The adapter owns the client
// it dialed; callers who passed their own client should close it themselves.
func (p *RPCProvider) Close() {
	p.client.Close()
}
