// Package event defines the outbound event vocabulary and payload shape, and
// the Emitter that builds attribute payloads and hands them to a transport
// sink. Every event leaving the SDK is an Event with a name from the fixed
// vocabulary below and a flat attribute map.
package event

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Event kinds understood by the collection service.
const (
	PageView             = "PAGE_VIEW"
	Click                = "CLICK"
	WalletConnect        = "WALLET_CONNECT"
	WalletDisconnect     = "WALLET_DISCONNECT"
	ChainChanged         = "CHAIN_CHANGED"
	TransactionSubmitted = "TRANSACTION_SUBMITTED"
	MessageSigned        = "MESSAGE_SIGNED"
	Log                  = "LOG"
	Warning              = "WARNING"
	Error                = "ERROR"
)

// Event is the wire payload delivered to the collection endpoint.
type Event struct {
	Name       string         `json:"event"`
	Attributes map[string]any `json:"attributes"`
}

// Sink accepts finished events for delivery. Transports implement this.
type Sink interface {
	Send(ctx context.Context, ev Event) error
}

// Recorder is the narrow surface handed to provider listeners and the
// interceptor. Record is fire-and-forget: delivery failures are logged, never
// propagated back into the host call path.
type Recorder interface {
	Record(name string, attrs map[string]any)
}

// Emitter builds attribute payloads for the event vocabulary and forwards them
// to the configured Sink. Base attributes (app key, session id, identity,
// timestamp) are stamped onto every event. Emitter is safe for concurrent use:
// all fields are set at construction and never mutated.
type Emitter struct {
	sink      Sink
	appKey    string
	sessionID string
	identity  string
	sendWait  time.Duration
	now       func() time.Time
}

// NewEmitter constructs an Emitter bound to the given sink. identity may be
// empty when the bootstrap has not completed; events then carry only the
// session id for correlation.
func NewEmitter(sink Sink, appKey, sessionID, identity string, sendWait time.Duration) *Emitter {
	return &Emitter{
		sink:      sink,
		appKey:    appKey,
		sessionID: sessionID,
		identity:  identity,
		sendWait:  sendWait,
		now:       time.Now,
	}
}

// Record builds an Event from the given name and attributes, stamps the base
// attributes, and hands it to the sink. Implements Recorder.
func (e *Emitter) Record(name string, attrs map[string]any) {
	if err := e.Emit(context.Background(), name, attrs); err != nil {
		zap.L().Warn("event delivery failed",
			zap.String("event", name), zap.Error(err))
	}
}

// Emit is like Record but surfaces the delivery error to the caller and honors
// the provided context.
func (e *Emitter) Emit(ctx context.Context, name string, attrs map[string]any) error {
	if e.sendWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.sendWait)
		defer cancel()
	}
	return e.sink.Send(ctx, e.build(name, attrs))
}

func (e *Emitter) build(name string, attrs map[string]any) Event {
	merged := make(map[string]any, len(attrs)+4)
	for k, v := range attrs {
		merged[k] = v
	}
	merged["app_key"] = e.appKey
	merged["session_id"] = e.sessionID
	if e.identity != "" {
		merged["identity"] = e.identity
	}
	merged["timestamp"] = e.now().UTC().Format(time.RFC3339Nano)
	return Event{Name: name, Attributes: merged}
}

// ReportWarning ships a WARNING diagnostic event carrying the message and any
// extra attributes. Used by the non-fatal error paths (missing provider,
// sealed provider, disconnect without prior state).
func (e *Emitter) ReportWarning(msg string, attrs map[string]any) {
	e.Record(Warning, withMessage(msg, attrs))
}

// ReportError ships an ERROR diagnostic event. Callers are expected to also
// propagate the underlying error up their own call chain.
func (e *Emitter) ReportError(msg string, attrs map[string]any) {
	e.Record(Error, withMessage(msg, attrs))
}

func withMessage(msg string, attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		out[k] = v
	}
	out["message"] = msg
	return out
}
