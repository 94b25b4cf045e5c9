package event

import "testing"

// TestPageAttributes_UTMParsing verifies that campaign parameters are lifted
// out of the page URL into top-level attributes.
func TestPageAttributes_UTMParsing(t *testing.T) {
	attrs := PageAttributes(
		"https://dapp.example/swap?utm_source=twitter&utm_campaign=launch&foo=bar",
		"Swap",
		"https://twitter.com",
	)

	if attrs["utm_source"] != "twitter" {
		t.Fatalf("missing utm_source: %#v", attrs)
	}
	if attrs["utm_campaign"] != "launch" {
		t.Fatalf("missing utm_campaign: %#v", attrs)
	}
	if _, ok := attrs["utm_medium"]; ok {
		t.Fatalf("absent UTM param should be omitted: %#v", attrs)
	}
	if _, ok := attrs["foo"]; ok {
		t.Fatalf("non-UTM query param leaked: %#v", attrs)
	}
	if attrs["host"] != "dapp.example" {
		t.Fatalf("missing host: %#v", attrs)
	}
	if attrs["path"] != "/swap" {
		t.Fatalf("missing path: %#v", attrs)
	}
	if attrs["title"] != "Swap" || attrs["referrer"] != "https://twitter.com" {
		t.Fatalf("title/referrer lost: %#v", attrs)
	}
}

// TestPageAttributes_BadURL verifies that an unparseable URL is passed through
// verbatim instead of being dropped.
func TestPageAttributes_BadURL(t *testing.T) {
	attrs := PageAttributes("://not-a-url", "", "")
	if attrs["url"] != "://not-a-url" {
		t.Fatalf("raw url lost: %#v", attrs)
	}
}

// TestClickAttributes verifies that empty click fields are omitted.
func TestClickAttributes(t *testing.T) {
	attrs := ClickAttributes("cta", "", "https://dapp.example/buy")
	if attrs["element_id"] != "cta" {
		t.Fatalf("missing element_id: %#v", attrs)
	}
	if _, ok := attrs["text"]; ok {
		t.Fatalf("empty text should be omitted: %#v", attrs)
	}
	if attrs["href"] != "https://dapp.example/buy" {
		t.Fatalf("missing href: %#v", attrs)
	}
}
