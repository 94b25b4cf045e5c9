package session

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/walletlens/walletlens-sdk-go/internal/testutil"
	"github.com/walletlens/walletlens-sdk-go/pkg/event"
)

const account = "0x8ba1f109551bd432803012645ac136ddd64dba72"

func newTracker(prov *testutil.FakeProvider, rec *testutil.CaptureRecorder) *Tracker {
	return NewTracker(prov, rec, 0)
}

// TestConnect_EmitsOnce verifies that re-announcing the same account emits at
// most one WALLET_CONNECT.
func TestConnect_EmitsOnce(t *testing.T) {
	prov := testutil.NewFakeProvider()
	prov.Responses["eth_chainId"] = "0x1"
	rec := &testutil.CaptureRecorder{}
	tr := newTracker(prov, rec)

	if err := tr.HandleAccountsChanged([]string{account}); err != nil {
		t.Fatalf("HandleAccountsChanged returned error: %v", err)
	}
	if err := tr.HandleAccountsChanged([]string{account}); err != nil {
		t.Fatalf("HandleAccountsChanged returned error: %v", err)
	}
	// Casing differences are the same account.
	if err := tr.HandleAccountsChanged([]any{common.HexToAddress(account).Hex()}); err != nil {
		t.Fatalf("HandleAccountsChanged returned error: %v", err)
	}

	got := rec.Named(event.WalletConnect)
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 WALLET_CONNECT, got %d", len(got))
	}
	if got[0].Attributes["chain_id"] != "1" {
		t.Fatalf("chain id not resolved from eth_chainId: %#v", got[0].Attributes)
	}
	if got[0].Attributes["account"] != common.HexToAddress(account).Hex() {
		t.Fatalf("account not normalized: %#v", got[0].Attributes)
	}
}

// TestConnect_AccountSwitch verifies that a different account produces a new
// connect event.
func TestConnect_AccountSwitch(t *testing.T) {
	prov := testutil.NewFakeProvider()
	prov.Responses["eth_chainId"] = "0x1"
	rec := &testutil.CaptureRecorder{}
	tr := newTracker(prov, rec)

	tr.HandleAccountsChanged([]string{account})
	tr.HandleAccountsChanged([]string{"0x0000000000000000000000000000000000000002"})

	if got := rec.Named(event.WalletConnect); len(got) != 2 {
		t.Fatalf("expected 2 WALLET_CONNECT, got %d", len(got))
	}
}

// TestConnectThenDisconnect verifies that accounts ["0xabc"] then
// [] produce exactly one connect followed by exactly one disconnect, both
// carrying the chain id resolved from eth_chainId.
func TestConnectThenDisconnect(t *testing.T) {
	prov := testutil.NewFakeProvider()
	prov.Responses["eth_chainId"] = "0xaa36a7" // 11155111
	rec := &testutil.CaptureRecorder{}
	tr := newTracker(prov, rec)

	if err := tr.HandleAccountsChanged([]string{account}); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if err := tr.HandleAccountsChanged([]string{}); err != nil {
		t.Fatalf("disconnect failed: %v", err)
	}

	connects := rec.Named(event.WalletConnect)
	disconnects := rec.Named(event.WalletDisconnect)
	if len(connects) != 1 || len(disconnects) != 1 {
		t.Fatalf("expected 1 connect and 1 disconnect, got %d and %d",
			len(connects), len(disconnects))
	}
	if connects[0].Attributes["chain_id"] != "11155111" {
		t.Fatalf("connect chain id wrong: %#v", connects[0].Attributes)
	}
	if disconnects[0].Attributes["chain_id"] != "11155111" {
		t.Fatalf("disconnect chain id wrong: %#v", disconnects[0].Attributes)
	}
	if disconnects[0].Attributes["account"] != common.HexToAddress(account).Hex() {
		t.Fatalf("disconnect account wrong: %#v", disconnects[0].Attributes)
	}
	if tr.Current().Connected() {
		t.Fatal("state not cleared after disconnect")
	}
}

// TestDisconnect_ClearsAtomically verifies that no partial identity remains
// after a disconnect.
func TestDisconnect_ClearsAtomically(t *testing.T) {
	prov := testutil.NewFakeProvider()
	prov.Responses["eth_chainId"] = "0x1"
	rec := &testutil.CaptureRecorder{}
	tr := newTracker(prov, rec)

	tr.HandleAccountsChanged([]string{account})
	tr.HandleDisconnect(nil)

	st := tr.Current()
	if st.Account != "" || st.ChainID != "" {
		t.Fatalf("partial state after disconnect: %#v", st)
	}
}

// TestDisconnect_WithoutPriorState verifies the non-fatal warning path.
func TestDisconnect_WithoutPriorState(t *testing.T) {
	prov := testutil.NewFakeProvider()
	rec := &testutil.CaptureRecorder{}
	tr := newTracker(prov, rec)

	if err := tr.HandleDisconnect(nil); err != nil {
		t.Fatalf("HandleDisconnect returned error: %v", err)
	}

	if got := rec.Named(event.WalletDisconnect); len(got) != 0 {
		t.Fatalf("unexpected WALLET_DISCONNECT: %d", len(got))
	}
	if got := rec.Named(event.Warning); len(got) != 1 {
		t.Fatalf("expected 1 WARNING, got %d", len(got))
	}
}

// TestConnect_ChainIDFetchFatal verifies that a failing eth_chainId reports an
// ERROR event and propagates the error up the triggering call chain.
func TestConnect_ChainIDFetchFatal(t *testing.T) {
	prov := testutil.NewFakeProvider()
	prov.Errs["eth_chainId"] = errors.New("node down")
	rec := &testutil.CaptureRecorder{}
	tr := newTracker(prov, rec)

	err := tr.HandleAccountsChanged([]string{account})
	if err == nil {
		t.Fatal("expected error from failed chain id fetch")
	}
	if got := rec.Named(event.Error); len(got) != 1 {
		t.Fatalf("expected 1 ERROR event, got %d", len(got))
	}
	if got := rec.Named(event.WalletConnect); len(got) != 0 {
		t.Fatalf("connect emitted despite fatal fetch: %d", len(got))
	}
	if tr.Current().Connected() {
		t.Fatal("state mutated despite fatal fetch")
	}
}

// TestChainChanged verifies chain switches update state and emit CHAIN_CHANGED.
func TestChainChanged(t *testing.T) {
	prov := testutil.NewFakeProvider()
	prov.Responses["eth_chainId"] = "0x1"
	rec := &testutil.CaptureRecorder{}
	tr := newTracker(prov, rec)

	tr.HandleAccountsChanged([]string{account})
	if err := tr.HandleChainChanged("0x89"); err != nil {
		t.Fatalf("HandleChainChanged returned error: %v", err)
	}

	got := rec.Named(event.ChainChanged)
	if len(got) != 1 {
		t.Fatalf("expected 1 CHAIN_CHANGED, got %d", len(got))
	}
	if got[0].Attributes["chain_id"] != "137" {
		t.Fatalf("chain id not decoded: %#v", got[0].Attributes)
	}
	if tr.Current().ChainID != "137" {
		t.Fatalf("state chain id not updated: %#v", tr.Current())
	}
}
