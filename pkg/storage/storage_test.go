package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

// TestMemory_RoundTrip verifies basic Set/Get behavior and the ErrNotFound
// contract of the in-memory store.
func TestMemory_RoundTrip(t *testing.T) {
	m := NewMemory()

	if _, err := m.Get("walletlens:identity"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := m.Set("walletlens:identity", "tok-1"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	v, err := m.Get("walletlens:identity")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if v != "tok-1" {
		t.Fatalf("got %q want %q", v, "tok-1")
	}

	// Overwrite replaces the previous value.
	if err := m.Set("walletlens:identity", "tok-2"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if v, _ := m.Get("walletlens:identity"); v != "tok-2" {
		t.Fatalf("got %q want %q", v, "tok-2")
	}
}

// TestFile_RoundTrip verifies that the file store persists values across
// instances pointing at the same path.
func TestFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	f := NewFile(path)
	if _, err := f.Get("walletlens:identity"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on fresh file, got %v", err)
	}
	if err := f.Set("walletlens:identity", "tok-1"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := f.Set("walletlens:anonymous", "anon-1"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	// A second instance reads what the first wrote.
	g := NewFile(path)
	v, err := g.Get("walletlens:identity")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if v != "tok-1" {
		t.Fatalf("got %q want %q", v, "tok-1")
	}
	if v, _ := g.Get("walletlens:anonymous"); v != "anon-1" {
		t.Fatalf("second key lost: %q", v)
	}
}
