// Package aggregator maintains the per-auction telemetry records between the
// auction-start and auction-end events.
package aggregator

import (
	"sort"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
)

// auctionRecord accumulates the telemetry of one in-flight auction. It is
// owned by the Aggregator and never escapes it; callers only ever see
// Snapshot copies.
type auctionRecord struct {
	auctionID      string
	startTime      int64
	adUnits        int
	bidderRequests int
	bidResponses   int
	noBids         int
	cpmValues      []float64
	biddersSeen    map[string]struct{}
}

// Snapshot is the immutable view of a finished auction returned by Finalize.
type Snapshot struct {
	AuctionID      string
	StartTime      int64
	DurationMs     int64
	AdUnits        int
	BidderRequests int
	BidResponses   int
	NoBids         int
	CpmValues      []float64
	Bidders        []string
}

// FillRate returns the unrounded ratio of bid responses to bid requests, 0
// when no bids were requested.
func (s *Snapshot) FillRate() float64 {
	if s.BidderRequests == 0 {
		return 0
	}
	return float64(s.BidResponses) / float64(s.BidderRequests)
}

// Aggregator owns the table of in-flight auction records. All state is
// internal; construct one per pipeline so independent instances (including
// tests) never interfere.
type Aggregator struct {
	mu      sync.Mutex
	records map[string]*auctionRecord
	clock   clock.Clock
}

func New(clock clock.Clock) *Aggregator {
	return &Aggregator{
		records: make(map[string]*auctionRecord),
		clock:   clock,
	}
}

// Begin creates the record for auctionID. A lingering record under the same
// id is replaced; the engine reuses ids only after abandoning the previous
// auction, so the stale record is dropped with a warning.
func (a *Aggregator) Begin(auctionID string, startTime int64, adUnits int) {
	if startTime == 0 {
		startTime = a.clock.Now().UnixMilli()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.records[auctionID]; ok {
		glog.Warningf("[aggregator] replacing existing record for auction %s", auctionID)
	}
	a.records[auctionID] = &auctionRecord{
		auctionID:   auctionID,
		startTime:   startTime,
		adUnits:     adUnits,
		biddersSeen: make(map[string]struct{}),
	}
}

// RecordBidRequest adds requestedBids outgoing bid requests for bidderCode.
func (a *Aggregator) RecordBidRequest(auctionID string, bidderCode string, requestedBids int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	record, ok := a.records[auctionID]
	if !ok {
		glog.Warningf("[aggregator] bid request for unknown auction %s", auctionID)
		return
	}
	record.bidderRequests += requestedBids
	record.biddersSeen[bidderCode] = struct{}{}
}

// RecordBidResponse counts one incoming bid. The CPM joins the statistics
// sequence only when strictly positive.
func (a *Aggregator) RecordBidResponse(auctionID string, cpm float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	record, ok := a.records[auctionID]
	if !ok {
		glog.Warningf("[aggregator] bid response for unknown auction %s", auctionID)
		return
	}
	record.bidResponses++
	if cpm > 0 {
		record.cpmValues = append(record.cpmValues, cpm)
	}
}

// RecordNoBid counts one declined bid. Unknown ids are silently ignored; the
// engine emits no-bid events for auctions it timed out before starting.
func (a *Aggregator) RecordNoBid(auctionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if record, ok := a.records[auctionID]; ok {
		record.noBids++
	}
}

// Finalize removes the record for auctionID and returns its snapshot. A zero
// endTime defaults to the aggregator's clock. Returns nil when the id is
// unknown, which makes a second Finalize for the same auction a no-op.
func (a *Aggregator) Finalize(auctionID string, endTime int64) *Snapshot {
	if endTime == 0 {
		endTime = a.clock.Now().UnixMilli()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	record, ok := a.records[auctionID]
	if !ok {
		glog.Warningf("[aggregator] finalize for unknown auction %s", auctionID)
		return nil
	}
	delete(a.records, auctionID)

	bidders := make([]string, 0, len(record.biddersSeen))
	for bidder := range record.biddersSeen {
		bidders = append(bidders, bidder)
	}
	sort.Strings(bidders)

	cpmValues := make([]float64, len(record.cpmValues))
	copy(cpmValues, record.cpmValues)

	return &Snapshot{
		AuctionID:      record.auctionID,
		StartTime:      record.startTime,
		DurationMs:     endTime - record.startTime,
		AdUnits:        record.adUnits,
		BidderRequests: record.bidderRequests,
		BidResponses:   record.bidResponses,
		NoBids:         record.noBids,
		CpmValues:      cpmValues,
		Bidders:        bidders,
	}
}

// Active returns the number of in-flight auction records.
func (a *Aggregator) Active() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// Clear drops every in-flight record. Called on shutdown.
func (a *Aggregator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = make(map[string]*auctionRecord)
}
