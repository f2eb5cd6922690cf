package analytics

import "encoding/json"

// Module must be implemented by telemetry consumers to receive the auction
// lifecycle events emitted by the host auction engine. Do not hold on to the
// event pointers after the call returns; copy what you need.
type Module interface {
	LogAuctionStart(*AuctionStartEvent)
	LogBidRequested(*BidRequestedEvent)
	LogBidResponse(*BidResponseEvent)
	LogNoBid(*NoBidEvent)
	LogAuctionEnd(*AuctionEndEvent)
	Shutdown()
}

// AuctionStartEvent opens the lifecycle of a single auction. Timestamp is
// milliseconds since epoch; zero means "use the receiver's clock".
type AuctionStartEvent struct {
	AuctionID string   `json:"auctionId"`
	Timestamp int64    `json:"timestamp,omitempty"`
	AdUnits   []AdUnit `json:"adUnits"`
}

// AdUnit identifies one placement participating in an auction.
type AdUnit struct {
	Code string `json:"code"`
}

// BidRequestedEvent records one bidder being asked for bids. The number of
// requested bids is the length of Bids.
type BidRequestedEvent struct {
	AuctionID  string    `json:"auctionId"`
	BidderCode string    `json:"bidderCode"`
	Bids       []BidStub `json:"bids"`
}

// BidStub carries the identifying fields of a single outgoing bid request.
type BidStub struct {
	BidID      string `json:"bidId"`
	AdUnitCode string `json:"adUnitCode,omitempty"`
}

// BidResponseEvent records one bid coming back. Cpm is in the auction
// currency; non-positive values are counted but excluded from statistics.
type BidResponseEvent struct {
	AuctionID  string  `json:"auctionId"`
	BidderCode string  `json:"bidderCode"`
	Cpm        float64 `json:"cpm"`
}

// NoBidEvent records a bidder declining to bid.
type NoBidEvent struct {
	AuctionID  string `json:"auctionId"`
	BidderCode string `json:"bidderCode,omitempty"`
}

// AuctionEndEvent closes the lifecycle of an auction. BidderRequests holds
// the raw per-bidder request objects as emitted by the engine; they may carry
// an ortb2 site content fragment and are traversed best-effort. Content is an
// optional top-level content descriptor with the same shape.
type AuctionEndEvent struct {
	AuctionID      string            `json:"auctionId"`
	Timestamp      int64             `json:"timestamp,omitempty"`
	BidderRequests []json.RawMessage `json:"bidderRequests,omitempty"`
	Content        json.RawMessage   `json:"content,omitempty"`
	Page           PageInfo          `json:"page"`
}

// PageInfo describes the page the auction ran on.
type PageInfo struct {
	Domain      string `json:"domain"`
	Path        string `json:"path"`
	UserAgent   string `json:"userAgent"`
	PbjsVersion string `json:"pbjsVersion"`
}
