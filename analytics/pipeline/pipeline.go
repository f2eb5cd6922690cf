// Package pipeline wires the auction lifecycle events through aggregation,
// scoring and vendor dispatch. It is the single Module implementation the
// intake surface talks to.
package pipeline

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/demandsignal/telemetry/analytics"
	"github.com/demandsignal/telemetry/analytics/aggregator"
	"github.com/demandsignal/telemetry/analytics/content"
	"github.com/demandsignal/telemetry/analytics/dispatch"
	"github.com/demandsignal/telemetry/analytics/payload"
	"github.com/demandsignal/telemetry/analytics/signal"
	"github.com/demandsignal/telemetry/analytics/stats"
	"github.com/demandsignal/telemetry/config"
	"github.com/demandsignal/telemetry/metrics"
)

// Version is stamped onto every full payload as adapterVersion.
const Version = "1.0.0"

type Module struct {
	aggregator       *aggregator.Aggregator
	dispatcher       *dispatch.Dispatcher
	persistedContent *openrtb2.Content
	meta             payload.Meta
	metrics          *metrics.Metrics
	clock            clock.Clock
}

// NewModule builds the telemetry pipeline from a validated configuration.
func NewModule(cfg *config.Configuration, client *http.Client, me *metrics.Metrics, clk clock.Clock) (*Module, error) {
	if client == nil {
		return nil, errors.New("client cannot be nil")
	}
	if len(cfg.Vendors) == 0 {
		return nil, errors.New("no vendors configured")
	}

	glog.Infof("[pipeline] configuring telemetry for %d vendor(s)", len(cfg.Vendors))

	return &Module{
		aggregator:       aggregator.New(clk),
		dispatcher:       dispatch.NewDispatcher(cfg.Vendors, cfg.ExcludeFields, dispatch.NewHTTPSender(client), me),
		persistedContent: cfg.Content.ToORTB(),
		meta: payload.Meta{
			PublisherID:    cfg.PublisherID,
			AdapterVersion: Version,
		},
		metrics: me,
		clock:   clk,
	}, nil
}

func (m *Module) LogAuctionStart(event *analytics.AuctionStartEvent) {
	if event == nil || event.AuctionID == "" {
		glog.Warning("[pipeline] auction start event without auction id")
		return
	}
	m.aggregator.Begin(event.AuctionID, event.Timestamp, len(event.AdUnits))
}

func (m *Module) LogBidRequested(event *analytics.BidRequestedEvent) {
	if event == nil || event.AuctionID == "" {
		glog.Warning("[pipeline] bid requested event without auction id")
		return
	}
	m.aggregator.RecordBidRequest(event.AuctionID, event.BidderCode, len(event.Bids))
}

func (m *Module) LogBidResponse(event *analytics.BidResponseEvent) {
	if event == nil || event.AuctionID == "" {
		glog.Warning("[pipeline] bid response event without auction id")
		return
	}
	m.aggregator.RecordBidResponse(event.AuctionID, event.Cpm)
	if event.Cpm > 0 {
		m.metrics.CpmHistogram.Update(toHundredths(event.Cpm))
	}
}

func (m *Module) LogNoBid(event *analytics.NoBidEvent) {
	if event == nil || event.AuctionID == "" {
		return
	}
	m.aggregator.RecordNoBid(event.AuctionID)
}

// LogAuctionEnd finalizes the auction and fans the shaped payloads out. The
// record is gone before any vendor send starts; deliveries are never awaited
// here.
func (m *Module) LogAuctionEnd(event *analytics.AuctionEndEvent) {
	if event == nil || event.AuctionID == "" {
		glog.Warning("[pipeline] auction end event without auction id")
		return
	}

	snapshot := m.aggregator.Finalize(event.AuctionID, event.Timestamp)
	if snapshot == nil {
		m.metrics.OrphanEventMeter.Mark(1)
		return
	}

	cpmStats := stats.ComputeCpmStats(snapshot.CpmValues)
	signalScore := signal.ComputeSignal(snapshot.FillRate(), cpmStats.Avg, len(snapshot.Bidders))
	ctx := content.Resolve(event, m.persistedContent)

	now := m.clock.Now()
	full := payload.BuildFull(snapshot, cpmStats, ctx, event.Page, m.meta, now)
	index := payload.BuildIndex(snapshot, signalScore, ctx, event.Page, now)

	m.dispatcher.Dispatch(full, index, signalScore)

	m.metrics.AuctionMeter.Mark(1)
	m.metrics.AuctionTimer.Update(timeMillis(snapshot.DurationMs))
	m.metrics.SignalHistogram.Update(toHundredths(signalScore))
}

func timeMillis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// toHundredths scales a value to integer hundredths for the histograms,
// rounding rather than truncating.
func toHundredths(v float64) int64 {
	return int64(math.Round(v * 100))
}

// Shutdown drops any in-flight auction records and waits for pending vendor
// deliveries to settle.
func (m *Module) Shutdown() {
	glog.Info("[pipeline] shutting down")
	m.aggregator.Clear()
	m.dispatcher.Wait()
}
