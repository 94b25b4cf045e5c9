package sdk

import (
	"github.com/walletlens/walletlens-sdk-go/pkg/event"
	"go.uber.org/zap"
)

// TrackPageView reports a page navigation with URL/UTM and referrer
// attributes. Gated on the PageViews feature flag.
func (c *Core) TrackPageView(rawURL, title, referrer string) {
	if !c.features.PageViews {
		zap.L().Debug("page view tracking disabled", zap.String("url", rawURL))
		return
	}
	c.emitter.Record(event.PageView, event.PageAttributes(rawURL, title, referrer))
}

// TrackClick reports an element click. Gated on the Clicks feature flag.
func (c *Core) TrackClick(elementID, text, href string) {
	if !c.features.Clicks {
		return
	}
	c.emitter.Record(event.Click, event.ClickAttributes(elementID, text, href))
}

// Track reports a custom event. The name should be stable and uppercase by
// convention; attributes are passed through untouched.
func (c *Core) Track(name string, attrs map[string]any) {
	c.emitter.Record(name, attrs)
}
