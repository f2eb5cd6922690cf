// Package content resolves the page content descriptor attached to an
// auction. Lookups are best effort: every malformed or missing structure is
// treated as "no content available" and never surfaces as an error.
package content

import (
	"encoding/json"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/demandsignal/telemetry/analytics"
)

// Source tags where a resolved Context came from.
type Source string

const (
	SourceBidderRequest Source = "bidderRequest"
	SourceAuctionEnd    Source = "auctionEnd"
	SourceConfig        Source = "config"
)

// Context is the normalized content descriptor shared with vendors. A
// Context always carries at least one of Language or Keywords; auctions
// without either get no Context at all.
type Context struct {
	Language string   `json:"language,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Source   Source   `json:"source"`
}

// Resolve picks the content descriptor for a finished auction. Priority:
// the first per-bidder request carrying an ortb2 site content fragment, then
// the event's top-level descriptor, then the persisted descriptor from
// configuration. Returns nil when none of the sources yields a language or
// keywords.
func Resolve(event *analytics.AuctionEndEvent, persisted *openrtb2.Content) *Context {
	if event != nil {
		for _, request := range event.BidderRequests {
			if ctx := fromBidderRequest(request); ctx != nil {
				return ctx
			}
		}
		if ctx := fromDescriptor(event.Content, SourceAuctionEnd); ctx != nil {
			return ctx
		}
	}
	return fromContent(persisted, SourceConfig)
}

// fromBidderRequest digs ortb2.site.content out of one raw bidder request
// object.
func fromBidderRequest(request json.RawMessage) *Context {
	if len(request) == 0 {
		return nil
	}
	descriptor, dataType, _, err := jsonparser.Get(request, "ortb2", "site", "content")
	if err != nil || dataType != jsonparser.Object {
		return nil
	}
	return fromDescriptor(descriptor, SourceBidderRequest)
}

func fromDescriptor(descriptor json.RawMessage, source Source) *Context {
	if len(descriptor) == 0 {
		return nil
	}
	var c openrtb2.Content
	if err := json.Unmarshal(descriptor, &c); err != nil {
		return nil
	}
	return fromContent(&c, source)
}

func fromContent(c *openrtb2.Content, source Source) *Context {
	if c == nil {
		return nil
	}
	keywords := splitKeywords(c)
	if c.Language == "" && len(keywords) == 0 {
		return nil
	}
	return &Context{
		Language: c.Language,
		Keywords: keywords,
		Source:   source,
	}
}

// splitKeywords prefers the OpenRTB 2.6 keyword array and falls back to the
// legacy comma-separated string.
func splitKeywords(c *openrtb2.Content) []string {
	if len(c.KwArray) > 0 {
		return c.KwArray
	}
	if c.Keywords == "" {
		return nil
	}
	var keywords []string
	for _, kw := range strings.Split(c.Keywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}
