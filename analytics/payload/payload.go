// Package payload assembles the two vendor-facing views of a finished
// auction: the full telemetry payload and the privacy-preserving index
// payload. Both are built exactly once per auction and shared across
// vendors; any per-vendor shaping happens on copies.
package payload

import (
	"time"

	"github.com/demandsignal/telemetry/analytics"
	"github.com/demandsignal/telemetry/analytics/aggregator"
	"github.com/demandsignal/telemetry/analytics/content"
	"github.com/demandsignal/telemetry/analytics/stats"
	"github.com/demandsignal/telemetry/util/mathutil"
)

// FullPayload carries the complete telemetry of one auction.
type FullPayload struct {
	Domain          string           `json:"domain"`
	PageURL         string           `json:"pageUrl"`
	PublisherID     string           `json:"publisherId"`
	Timestamp       string           `json:"timestamp"`
	AuctionID       string           `json:"auctionId"`
	AdapterVersion  string           `json:"adapterVersion"`
	PbjsVersion     string           `json:"pbjsVersion"`
	UserAgent       string           `json:"userAgent"`
	AdUnits         int              `json:"adUnits"`
	BidderRequests  int              `json:"bidderRequests"`
	BidResponses    int              `json:"bidResponses"`
	NoBids          int              `json:"noBids"`
	UniqueBidders   int              `json:"uniqueBidders"`
	BidderList      []string         `json:"bidderList"`
	CpmStats        stats.CpmStats   `json:"cpmStats"`
	FillRate        float64          `json:"fillRate"`
	AuctionDuration int64            `json:"auctionDuration"`
	ContentContext  *content.Context `json:"contentContext,omitempty"`
}

// IndexPayload is the shape sent to index-mode vendors. It deliberately
// omits per-bid CPM detail and bidder identities.
type IndexPayload struct {
	Domain         string           `json:"domain"`
	Timestamp      string           `json:"timestamp"`
	UserAgent      string           `json:"userAgent"`
	Signal         float64          `json:"signal"`
	AdUnits        int              `json:"adUnits"`
	UniqueBidders  int              `json:"uniqueBidders"`
	FillRate       float64          `json:"fillRate"`
	ContentContext *content.Context `json:"contentContext,omitempty"`
}

// SignalField is the key added on top of raw payloads for vendors in "both"
// mode.
const SignalField = "signal"

// knownFields is the vocabulary of excludable full-payload field names.
// userAgent and contentContext are deliberately not excludable.
var knownFields = map[string]struct{}{
	"domain":          {},
	"pageUrl":         {},
	"publisherId":     {},
	"timestamp":       {},
	"auctionId":       {},
	"adapterVersion":  {},
	"pbjsVersion":     {},
	"adUnits":         {},
	"bidderRequests":  {},
	"bidResponses":    {},
	"noBids":          {},
	"uniqueBidders":   {},
	"bidderList":      {},
	"cpmStats":        {},
	"fillRate":        {},
	"auctionDuration": {},
}

// IsKnownField reports whether name may appear in an exclusion list.
func IsKnownField(name string) bool {
	_, ok := knownFields[name]
	return ok
}

// Meta holds the per-deployment constants stamped onto every full payload.
type Meta struct {
	PublisherID    string
	AdapterVersion string
}

// BuildFull assembles the FullPayload for one auction snapshot. The fill
// rate is rounded here for display; scoring uses the unrounded ratio.
func BuildFull(snapshot *aggregator.Snapshot, cpmStats stats.CpmStats, ctx *content.Context, page analytics.PageInfo, meta Meta, now time.Time) *FullPayload {
	return &FullPayload{
		Domain:          page.Domain,
		PageURL:         page.Path,
		PublisherID:     meta.PublisherID,
		Timestamp:       now.UTC().Format(time.RFC3339),
		AuctionID:       snapshot.AuctionID,
		AdapterVersion:  meta.AdapterVersion,
		PbjsVersion:     page.PbjsVersion,
		UserAgent:       page.UserAgent,
		AdUnits:         snapshot.AdUnits,
		BidderRequests:  snapshot.BidderRequests,
		BidResponses:    snapshot.BidResponses,
		NoBids:          snapshot.NoBids,
		UniqueBidders:   len(snapshot.Bidders),
		BidderList:      snapshot.Bidders,
		CpmStats:        cpmStats,
		FillRate:        mathutil.RoundTo2Decimals(snapshot.FillRate()),
		AuctionDuration: snapshot.DurationMs,
		ContentContext:  ctx,
	}
}

// BuildIndex assembles the IndexPayload for one auction snapshot.
func BuildIndex(snapshot *aggregator.Snapshot, signalScore float64, ctx *content.Context, page analytics.PageInfo, now time.Time) *IndexPayload {
	return &IndexPayload{
		Domain:         page.Domain,
		Timestamp:      now.UTC().Format(time.RFC3339),
		UserAgent:      page.UserAgent,
		Signal:         signalScore,
		AdUnits:        snapshot.AdUnits,
		UniqueBidders:  len(snapshot.Bidders),
		FillRate:       mathutil.RoundTo2Decimals(snapshot.FillRate()),
		ContentContext: ctx,
	}
}
