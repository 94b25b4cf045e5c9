// Package session tracks the wallet connection lifecycle: a state machine
// over {disconnected, connected(account, chain)} driven by the provider's
// accountsChanged/chainChanged/disconnect events. Connect events are emitted
// once per account (idempotent re-announces are suppressed) and disconnects
// clear the whole identity atomically.
package session

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/walletlens/walletlens-sdk-go/pkg/event"
	"github.com/walletlens/walletlens-sdk-go/pkg/provider"
	"go.uber.org/zap"
)

// State is the current session identity. The zero value means disconnected.
type State struct {
	ChainID string
	Account string
}

// Connected reports whether an account is present.
func (s State) Connected() bool {
	return s.Account != ""
}

// Tracker drives the connection lifecycle. Handlers may be invoked from
// overlapping provider callbacks; the state is guarded by a mutex and the last
// write wins. In-flight chain-id fetches are not cancelled by a disconnect.
type Tracker struct {
	prov      provider.Provider
	rec       event.Recorder
	chainRead time.Duration

	mu    sync.Mutex
	state State
}

// NewTracker binds a lifecycle tracker to the borrowed provider. chainRead
// bounds the eth_chainId and similar lookups.
func NewTracker(p provider.Provider, rec event.Recorder, chainRead time.Duration) *Tracker {
	if chainRead == 0 {
		chainRead = 12 * time.Second
	}
	return &Tracker{prov: p, rec: rec, chainRead: chainRead}
}

// Current returns a copy of the session state.
func (t *Tracker) Current() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// HandleAccountsChanged processes an accountsChanged payload. A non-empty
// account list transitions to connected (fetching the chain id and emitting
// WALLET_CONNECT) unless the first account matches the current one. An empty
// list is a disconnect.
func (t *Tracker) HandleAccountsChanged(payload any) error {
	accounts := accountList(payload)
	if len(accounts) == 0 {
		t.Disconnect("accounts cleared")
		return nil
	}

	account := normalizeAccount(accounts[0])

	t.mu.Lock()
	if t.state.Account == account {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	chainID, err := t.fetchChainID()
	if err != nil {
		t.rec.Record(event.Error, map[string]any{
			"message": "chain id fetch failed on connect",
			"account": account,
			"error":   err.Error(),
		})
		return fmt.Errorf("fetch chain id: %w", err)
	}

	t.mu.Lock()
	t.state = State{ChainID: chainID, Account: account}
	t.mu.Unlock()

	t.rec.Record(event.WalletConnect, map[string]any{
		"account":  account,
		"chain_id": chainID,
	})
	return nil
}

// HandleChainChanged processes a chainChanged payload, updating the session's
// chain id and emitting CHAIN_CHANGED.
func (t *Tracker) HandleChainChanged(payload any) error {
	chainID, err := decodeChainID(payload)
	if err != nil {
		zap.L().Warn("undecodable chainChanged payload", zap.Any("payload", payload), zap.Error(err))
		return err
	}

	t.mu.Lock()
	t.state.ChainID = chainID
	account := t.state.Account
	t.mu.Unlock()

	attrs := map[string]any{"chain_id": chainID}
	if account != "" {
		attrs["account"] = account
	}
	t.rec.Record(event.ChainChanged, attrs)
	return nil
}

// HandleDisconnect processes a provider disconnect event.
func (t *Tracker) HandleDisconnect(any) error {
	t.Disconnect("provider disconnect")
	return nil
}

// Disconnect transitions to disconnected, emitting WALLET_DISCONNECT with the
// last known account and chain id. Chain id and account are cleared together
// under one lock, so no partial identity is ever observable. A disconnect
// without prior connected state is reported as a WARNING and is otherwise a
// no-op.
func (t *Tracker) Disconnect(reason string) {
	t.mu.Lock()
	prev := t.state
	t.state = State{}
	t.mu.Unlock()

	if !prev.Connected() {
		zap.L().Warn("disconnect without prior connection", zap.String("reason", reason))
		t.rec.Record(event.Warning, map[string]any{
			"message": "disconnect without prior connection",
			"reason":  reason,
		})
		return
	}

	t.rec.Record(event.WalletDisconnect, map[string]any{
		"account":  prev.Account,
		"chain_id": prev.ChainID,
		"reason":   reason,
	})
}

// fetchChainID resolves the provider's chain id as a decimal string.
func (t *Tracker) fetchChainID() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), t.chainRead)
	defer cancel()

	res, err := t.prov.Request(ctx, "eth_chainId")
	if err != nil {
		return "", err
	}
	return decodeChainID(res)
}

// decodeChainID accepts the hex string form providers use as well as plain
// numbers, and renders the id as a decimal string.
func decodeChainID(v any) (string, error) {
	switch id := v.(type) {
	case string:
		n, err := hexutil.DecodeUint64(id)
		if err != nil {
			return "", fmt.Errorf("decode chain id %q: %w", id, err)
		}
		return strconv.FormatUint(n, 10), nil
	case float64:
		return strconv.FormatUint(uint64(id), 10), nil
	case uint64:
		return strconv.FormatUint(id, 10), nil
	case int:
		return strconv.FormatUint(uint64(id), 10), nil
	default:
		return "", fmt.Errorf("unexpected chain id payload %T", v)
	}
}

// accountList coerces the accountsChanged payload ([]string, or []any of
// strings after JSON decoding) into a string slice.
func accountList(payload any) []string {
	switch list := payload.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, v := range list {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case nil:
		return nil
	default:
		zap.L().Warn("unexpected accountsChanged payload", zap.Any("payload", payload))
		return nil
	}
}

// normalizeAccount checksums valid hex addresses and passes anything else
// through untouched, so equality checks are stable across casings.
func normalizeAccount(s string) string {
	if common.IsHexAddress(s) {
		return common.HexToAddress(s).Hex()
	}
	return s
}
