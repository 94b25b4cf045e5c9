package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/walletlens/walletlens-sdk-go/internal/testutil"
	"github.com/walletlens/walletlens-sdk-go/pkg/config"
	"github.com/walletlens/walletlens-sdk-go/pkg/event"
	"github.com/walletlens/walletlens-sdk-go/pkg/provider"
	"github.com/walletlens/walletlens-sdk-go/pkg/sdk"
	"github.com/walletlens/walletlens-sdk-go/pkg/storage"
)

// collector is an in-memory stand-in for the collection service: it answers
// /identify and records everything POSTed to /events.
type collector struct {
	mu       sync.Mutex
	events   []event.Event
	identify int
}

func (c *collector) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/identify", func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.identify++
		c.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"identity": "tok-e2e"})
	})
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		var ev event.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c.mu.Lock()
		c.events = append(c.events, ev)
		c.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	})
	return mux
}

func (c *collector) named(name string) []event.Event {
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

// TestFullInstrumentationFlow exercises identity bootstrap, provider
// attachment, the connect/disconnect lifecycle, transaction interception, and
// page tracking against a live HTTP collector.
func TestFullInstrumentationFlow(t *testing.T) {
	col := &collector{}
	srv := startHTTPServer(t, col.handler())
	defer srv.Close()

	cfg := &config.Config{
		AppKey:   "wl-e2e",
		Endpoint: srv.URL,
		Features: config.AllFeatures(),
	}
	lens := sdk.NewSDK(cfg, sdk.WithStorage(storage.NewMemory()))
	defer lens.Close()

	if lens.Identity() != "tok-e2e" {
		t.Fatalf("identity bootstrap failed: %q", lens.Identity())
	}

	prov := testutil.NewFakeProvider()
	prov.Responses["eth_chainId"] = "0x1"
	prov.Responses["eth_sendTransaction"] = "0xtxhash"
	prov.Responses["eth_getTransactionCount"] = "0x5"
	wallet := lens.AttachProvider(prov)

	lens.TrackPageView("https://dapp.example/swap?utm_source=x", "Swap", "")

	account := "0x8ba1f109551bd432803012645ac136ddd64dba72"
	prov.Emit(provider.EventAccountsChanged, []string{account})

	if _, err := wallet.Request(context.Background(), provider.MethodSendTransaction,
		map[string]any{"from": account, "value": "0xde0b6b3a7640000"}); err != nil {
		t.Fatalf("send through handle failed: %v", err)
	}

	prov.Emit(provider.EventAccountsChanged, []string{})

	if got := col.named(event.PageView); len(got) != 1 {
		t.Fatalf("expected 1 PAGE_VIEW, got %d", len(got))
	}
	connects := col.named(event.WalletConnect)
	if len(connects) != 1 {
		t.Fatalf("expected 1 WALLET_CONNECT, got %d", len(connects))
	}
	if connects[0].Attributes["chain_id"] != "1" {
		t.Fatalf("connect chain id wrong: %#v", connects[0].Attributes)
	}
	if connects[0].Attributes["identity"] != "tok-e2e" {
		t.Fatalf("identity not stamped: %#v", connects[0].Attributes)
	}

	txs := col.named(event.TransactionSubmitted)
	if len(txs) != 1 {
		t.Fatalf("expected 1 TRANSACTION_SUBMITTED, got %d", len(txs))
	}
	if txs[0].Attributes["value_eth"] != "1" {
		t.Fatalf("transaction value not extracted: %#v", txs[0].Attributes)
	}
	// JSON re-decoding turns the nonce into a float64.
	if txs[0].Attributes["nonce"] != float64(5) {
		t.Fatalf("nonce not resolved: %#v", txs[0].Attributes)
	}

	if got := col.named(event.WalletDisconnect); len(got) != 1 {
		t.Fatalf("expected 1 WALLET_DISCONNECT, got %d", len(got))
	}

	col.mu.Lock()
	identifyCalls := col.identify
	col.mu.Unlock()
	if identifyCalls != 1 {
		t.Fatalf("expected exactly 1 identify call, got %d", identifyCalls)
	}
}

// startHTTPServer starts an httptest server, skipping the test when the
// sandbox forbids socket creation.
func startHTTPServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			if strings.Contains(msg, "operation not permitted") {
				t.Skip("network operations not permitted in sandbox")
			}
			panic(r)
		}
	}()
	return httptest.NewServer(handler)
}
