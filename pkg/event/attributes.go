package event

import (
	"net/url"

	"go.uber.org/zap"
)

// utmKeys are the campaign query parameters lifted from a page URL into
// PAGE_VIEW attributes, keyed by the attribute name they are stored under.
var utmKeys = map[string]string{
	"utm_source":   "utm_source",
	"utm_medium":   "utm_medium",
	"utm_campaign": "utm_campaign",
	"utm_term":     "utm_term",
	"utm_content":  "utm_content",
}

// PageAttributes builds the attribute payload for a PAGE_VIEW event. The raw
// URL is split into path/host/query parts and any UTM campaign parameters are
// lifted to top-level attributes. An unparseable URL is passed through verbatim
// under "url" so the event is still delivered.
func PageAttributes(rawURL, title, referrer string) map[string]any {
	attrs := map[string]any{"url": rawURL}
	if title != "" {
		attrs["title"] = title
	}
	if referrer != "" {
		attrs["referrer"] = referrer
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		zap.L().Debug("unparseable page URL", zap.String("url", rawURL), zap.Error(err))
		return attrs
	}
	if u.Host != "" {
		attrs["host"] = u.Host
	}
	if u.Path != "" {
		attrs["path"] = u.Path
	}

	q := u.Query()
	for param, key := range utmKeys {
		if v := q.Get(param); v != "" {
			attrs[key] = v
		}
	}
	return attrs
}

// ClickAttributes builds the attribute payload for a CLICK event. Empty fields
// are omitted so the payload only carries what the host application knows
// about the clicked element.
func ClickAttributes(elementID, text, href string) map[string]any {
	attrs := make(map[string]any, 3)
	if elementID != "" {
		attrs["element_id"] = elementID
	}
	if text != "" {
		attrs["text"] = text
	}
	if href != "" {
		attrs["href"] = href
	}
	return attrs
}
