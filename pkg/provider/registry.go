package provider

import "sync"

// Registry tracks listeners the SDK installed on a borrowed provider, keyed by
// event name. The invariant is exactly one listener per event name: installing
// over an existing name first removes the old listener from the provider.
// All installed listeners are removed before a new provider may be attached.
type Registry struct {
	mu        sync.Mutex
	listeners map[string]Listener
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{listeners: make(map[string]Listener)}
}

// Install subscribes fn to the named event on p and records it. A listener
// already registered under the same name is removed from p first.
func (r *Registry) Install(p Provider, eventName string, fn Listener) {
	r.mu.Lock()
	old, replaced := r.listeners[eventName]
	r.listeners[eventName] = fn
	r.mu.Unlock()

	if replaced {
		p.RemoveListener(eventName, old)
	}
	p.On(eventName, fn)
}

// RemoveAll unsubscribes every recorded listener from p and empties the
// registry.
func (r *Registry) RemoveAll(p Provider) {
	r.mu.Lock()
	removed := r.listeners
	r.listeners = make(map[string]Listener)
	r.mu.Unlock()

	for name, fn := range removed {
		p.RemoveListener(name, fn)
	}
}

// Len reports how many listeners are currently registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}
