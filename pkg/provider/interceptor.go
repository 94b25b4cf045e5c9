package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"github.com/walletlens/walletlens-sdk-go/pkg/event"
	"go.uber.org/zap"
)

// Methods whose calls are observed before being forwarded.
const (
	MethodSendTransaction = "eth_sendTransaction"
	MethodEthSign         = "eth_sign"
	MethodPersonalSign    = "personal_sign"
	MethodSignTypedData   = "eth_signTypedData"
	MethodSignTypedDataV4 = "eth_signTypedData_v4"
)

// SigningMethods lists the message-signing methods the interceptor understands.
var SigningMethods = []string{
	MethodEthSign,
	MethodPersonalSign,
	MethodSignTypedData,
	MethodSignTypedDataV4,
}

// etherDecimals is the wei-to-ether exponent for the human-readable value attribute.
const etherDecimals = 18

// Attachment is one instrumentation of one provider. It owns the decorator
// composed around the provider's request path and the registry of listeners
// installed on it. Discarding the attachment (Detach) fully reverses the
// interception: listeners are removed and the decorator goes inert, leaving
// the borrowed provider exactly as it was.
type Attachment struct {
	inner        Provider
	decorated    Provider
	registry     *Registry
	rec          event.Recorder
	methods      map[string]struct{}
	chainRead    time.Duration
	instrumented bool

	mu       sync.Mutex
	detached bool
}

// AttachOption configures an Attachment.
type AttachOption func(*Attachment)

// WithInterceptedMethods sets which request methods are observed. Without this
// option nothing is intercepted and the attachment only manages listeners.
func WithInterceptedMethods(methods ...string) AttachOption {
	return func(a *Attachment) {
		for _, m := range methods {
			a.methods[m] = struct{}{}
		}
	}
}

// WithChainReadTimeout bounds auxiliary provider calls made while extracting
// event attributes (default 12s).
func WithChainReadTimeout(d time.Duration) AttachOption {
	return func(a *Attachment) {
		a.chainRead = d
	}
}

// Attach composes a decorator around p and returns the attachment. The
// decorator observes configured method calls, reports them through rec, then
// forwards to p unmodified. A nil provider, or one that seals its request
// path, is never an error: a WARNING is reported and the attachment is inert
// (Provider returns a pass-through handle, Subscribe still works where a
// provider exists). Each provider is wrapped at most once per attachment;
// serializing attachments is the caller's job (the SDK holds an attachment
// lock).
func Attach(p Provider, rec event.Recorder, opts ...AttachOption) *Attachment {
	a := &Attachment{
		inner:     p,
		registry:  NewRegistry(),
		rec:       rec,
		methods:   make(map[string]struct{}),
		chainRead: 12 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}

	switch {
	case p == nil:
		zap.L().Warn("attach requested without a provider")
		rec.Record(event.Warning, map[string]any{
			"message": "no provider to instrument",
			"where":   "attach",
		})
		a.decorated = Noop{}
	case isSealed(p):
		zap.L().Warn("provider seals its request path, interception skipped")
		rec.Record(event.Warning, map[string]any{
			"message": "provider request path is sealed, interception skipped",
			"where":   "attach",
		})
		a.decorated = p
	default:
		a.instrumented = true
		a.decorated = &interceptedProvider{attachment: a}
	}
	return a
}

func isSealed(p Provider) bool {
	s, ok := p.(Sealed)
	return ok && s.SealedRequest()
}

// Provider returns the handle the host should call through: the decorator when
// instrumentation is active, otherwise a pass-through.
func (a *Attachment) Provider() Provider {
	return a.decorated
}

// Instrumented reports whether request interception is active.
func (a *Attachment) Instrumented() bool {
	return a.instrumented
}

// Subscribe installs fn for the named provider event through the registry,
// keeping the one-listener-per-event invariant. No-op when there is no
// provider.
func (a *Attachment) Subscribe(eventName string, fn Listener) {
	if a.inner == nil {
		return
	}
	a.mu.Lock()
	if a.detached {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()
	a.registry.Install(a.inner, eventName, fn)
}

// ListenerCount reports how many listeners this attachment has installed.
func (a *Attachment) ListenerCount() int {
	return a.registry.Len()
}

// Detach reverses the interception: every installed listener is removed from
// the provider and the decorator goes inert, forwarding without observation.
// Safe to call more than once.
func (a *Attachment) Detach() {
	a.mu.Lock()
	if a.detached {
		a.mu.Unlock()
		return
	}
	a.detached = true
	a.mu.Unlock()

	if a.inner != nil {
		a.registry.RemoveAll(a.inner)
	}
}

// Detached reports whether Detach has been called.
func (a *Attachment) Detached() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.detached
}

// interceptedProvider is the decorator composed around the borrowed provider.
// It observes configured methods synchronously, then forwards the original
// call and returns its result unmodified. Observation failures never affect
// the forwarded call.
type interceptedProvider struct {
	attachment *Attachment
}

func (ip *interceptedProvider) Request(ctx context.Context, method string, params ...any) (any, error) {
	a := ip.attachment
	if !a.Detached() {
		if _, hit := a.methods[method]; hit {
			a.observe(ctx, method, params)
		}
	}
	return a.inner.Request(ctx, method, params...)
}

func (ip *interceptedProvider) On(eventName string, fn Listener) {
	ip.attachment.inner.On(eventName, fn)
}

func (ip *interceptedProvider) RemoveListener(eventName string, fn Listener) {
	ip.attachment.inner.RemoveListener(eventName, fn)
}

// observe extracts tracking attributes for the intercepted call and reports
// the corresponding event. Extraction problems degrade to partial attributes.
func (a *Attachment) observe(ctx context.Context, method string, params []any) {
	switch method {
	case MethodSendTransaction:
		a.rec.Record(event.TransactionSubmitted, a.transactionAttributes(ctx, params))
	default:
		a.rec.Record(event.MessageSigned, signingAttributes(method, params))
	}
}

// transactionAttributes pulls sender, recipient, value, and gas out of the
// eth_sendTransaction call object and resolves the sender's pending nonce via
// an auxiliary eth_getTransactionCount call.
func (a *Attachment) transactionAttributes(ctx context.Context, params []any) map[string]any {
	attrs := map[string]any{"method": MethodSendTransaction}

	tx, ok := firstCallObject(params)
	if !ok {
		zap.L().Warn("eth_sendTransaction params not inspectable")
		return attrs
	}

	from, hasFrom := normalizedAddress(tx["from"])
	if hasFrom {
		attrs["from"] = from
	}
	if to, ok := normalizedAddress(tx["to"]); ok {
		attrs["to"] = to
	}
	if gas, ok := tx["gas"].(string); ok && gas != "" {
		attrs["gas"] = gas
	}
	if raw, ok := tx["value"].(string); ok && raw != "" {
		if wei, err := hexutil.DecodeBig(raw); err == nil {
			attrs["value_wei"] = wei.String()
			attrs["value_eth"] = decimal.NewFromBigInt(wei, -etherDecimals).String()
		} else {
			zap.L().Debug("transaction value not hex-decodable", zap.String("value", raw))
		}
	}

	if hasFrom {
		if nonce, err := a.pendingNonce(ctx, from); err == nil {
			attrs["nonce"] = nonce
		} else {
			zap.L().Warn("nonce lookup failed", zap.String("from", from), zap.Error(err))
		}
	}
	return attrs
}

// pendingNonce asks the borrowed provider for the sender's pending transaction
// count. This is the one auxiliary call the interceptor makes per observed
// transaction.
func (a *Attachment) pendingNonce(ctx context.Context, from string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, a.chainRead)
	defer cancel()

	res, err := a.inner.Request(ctx, "eth_getTransactionCount", from, "pending")
	if err != nil {
		return 0, err
	}
	raw, ok := res.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected transaction count payload %T", res)
	}
	return hexutil.DecodeUint64(raw)
}

// signingAttributes extracts signer and message payload from a signing call.
// Parameter order differs between methods: personal_sign takes
// [message, address], the others take [address, payload].
func signingAttributes(method string, params []any) map[string]any {
	attrs := map[string]any{"method": method}

	var signer, payload any
	switch method {
	case MethodPersonalSign:
		if len(params) > 0 {
			payload = params[0]
		}
		if len(params) > 1 {
			signer = params[1]
		}
	default:
		if len(params) > 0 {
			signer = params[0]
		}
		if len(params) > 1 {
			payload = params[1]
		}
	}

	if addr, ok := normalizedAddress(signer); ok {
		attrs["signer"] = addr
	}
	if payload != nil {
		attrs["message"] = fmt.Sprint(payload)
	}
	return attrs
}

// firstCallObject returns the first parameter as a string-keyed map, the shape
// wallet providers use for call objects.
func firstCallObject(params []any) (map[string]any, bool) {
	if len(params) == 0 {
		return nil, false
	}
	obj, ok := params[0].(map[string]any)
	return obj, ok
}

// normalizedAddress checksums a hex address value, returning false for
// anything that is not a valid address string.
func normalizedAddress(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || !common.IsHexAddress(s) {
		return "", false
	}
	return common.HexToAddress(s).Hex(), true
}
