// Package testutil provides in-memory fakes shared by package tests: a wallet
// provider with scriptable responses and event emission, and an event recorder
// that captures everything reported through it.
package testutil

import (
	"context"
	"reflect"
	"sync"

	"github.com/walletlens/walletlens-sdk-go/pkg/event"
	"github.com/walletlens/walletlens-sdk-go/pkg/provider"
)

// Call records one Request made against the fake provider.
type Call struct {
	Method string
	Params []any
}

// FakeProvider is a scriptable Provider. Responses maps method names to
// results; Errs maps method names to injected errors. Events emitted via Emit
// are dispatched synchronously to installed listeners.
type FakeProvider struct {
	mu        sync.Mutex
	Responses map[string]any
	Errs      map[string]error
	calls     []Call
	listeners map[string][]provider.Listener
	sealed    bool
}

// NewFakeProvider returns a fake with empty scripts.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		Responses: make(map[string]any),
		Errs:      make(map[string]error),
		listeners: make(map[string][]provider.Listener),
	}
}

// Seal makes the fake report a sealed request path.
func (f *FakeProvider) Seal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sealed = true
}

// SealedRequest implements provider.Sealed.
func (f *FakeProvider) SealedRequest() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sealed
}

// Request records the call and returns the scripted response or error.
func (f *FakeProvider) Request(_ context.Context, method string, params ...any) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: method, Params: params})
	if err := f.Errs[method]; err != nil {
		return nil, err
	}
	return f.Responses[method], nil
}

// On implements provider event subscription.
func (f *FakeProvider) On(eventName string, fn provider.Listener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners[eventName] = append(f.listeners[eventName], fn)
}

// RemoveListener removes fn by function identity.
func (f *FakeProvider) RemoveListener(eventName string, fn provider.Listener) {
	target := reflect.ValueOf(fn).Pointer()

	f.mu.Lock()
	defer f.mu.Unlock()
	installed := f.listeners[eventName]
	for i, l := range installed {
		if reflect.ValueOf(l).Pointer() == target {
			f.listeners[eventName] = append(installed[:i:i], installed[i+1:]...)
			break
		}
	}
	if len(f.listeners[eventName]) == 0 {
		delete(f.listeners, eventName)
	}
}

// Emit dispatches a provider event synchronously to installed listeners.
func (f *FakeProvider) Emit(eventName string, payload any) {
	f.mu.Lock()
	installed := make([]provider.Listener, len(f.listeners[eventName]))
	copy(installed, f.listeners[eventName])
	f.mu.Unlock()

	for _, fn := range installed {
		fn(payload)
	}
}

// Calls returns a copy of all recorded requests.
func (f *FakeProvider) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns recorded requests for one method.
func (f *FakeProvider) CallsTo(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// ListenerCount reports installed listeners for one event name.
func (f *FakeProvider) ListenerCount(eventName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners[eventName])
}

// TotalListeners reports installed listeners across all event names.
func (f *FakeProvider) TotalListeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, l := range f.listeners {
		n += len(l)
	}
	return n
}

// CaptureRecorder collects events reported through Record.
type CaptureRecorder struct {
	mu     sync.Mutex
	events []event.Event
}

// Record implements event.Recorder.
func (c *CaptureRecorder) Record(name string, attrs map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event.Event{Name: name, Attributes: attrs})
}

// Events returns a copy of everything recorded.
func (c *CaptureRecorder) Events() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]event.Event, len(c.events))
	copy(out, c.events)
	return out
}

// Named returns recorded events with the given name.
func (c *CaptureRecorder) Named(name string) []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []event.Event
	for _, ev := range c.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// CaptureSink collects events handed to Send, for use as a transport stand-in.
type CaptureSink struct {
	mu     sync.Mutex
	events []event.Event
}

// Send implements event.Sink and transport.Transport's Send half.
func (c *CaptureSink) Send(_ context.Context, ev event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

// Close implements transport.Transport.
func (c *CaptureSink) Close() error { return nil }

// Events returns a copy of everything sent.
func (c *CaptureSink) Events() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]event.Event, len(c.events))
	copy(out, c.events)
	return out
}

// Named returns sent events with the given name.
func (c *CaptureSink) Named(name string) []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []event.Event
	for _, ev := range c.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}
