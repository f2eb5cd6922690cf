// Package metrics exposes the service's go-metrics instrumentation and the
// optional InfluxDB export. Every metric here is best-effort observability;
// no pipeline behavior depends on it.
package metrics

import (
	"fmt"
	"time"

	"github.com/rcrowley/go-metrics"
	"github.com/vrischmann/go-metrics-influxdb"

	"github.com/demandsignal/telemetry/config"
)

// VendorMetrics houses the delivery metrics for one configured vendor.
type VendorMetrics struct {
	SentMeter  metrics.Meter
	ErrorMeter metrics.Meter
}

type Metrics struct {
	registry metrics.Registry

	EventMeters       map[string]metrics.Meter
	InvalidEventMeter metrics.Meter
	OrphanEventMeter  metrics.Meter
	AuctionMeter      metrics.Meter
	AuctionTimer      metrics.Timer
	CpmHistogram      metrics.Histogram
	SignalHistogram   metrics.Histogram

	VendorMetrics map[string]*VendorMetrics
}

// NewMetrics registers all service metrics on registry. CPM and signal
// histograms sample hundredths (value * 100) since go-metrics histograms are
// integer valued.
func NewMetrics(registry metrics.Registry, eventTypes []string, vendors []string) *Metrics {
	m := &Metrics{
		registry:          registry,
		EventMeters:       make(map[string]metrics.Meter, len(eventTypes)),
		InvalidEventMeter: metrics.GetOrRegisterMeter("events.invalid", registry),
		OrphanEventMeter:  metrics.GetOrRegisterMeter("events.orphaned", registry),
		AuctionMeter:      metrics.GetOrRegisterMeter("auctions.completed", registry),
		AuctionTimer:      metrics.GetOrRegisterTimer("auctions.duration", registry),
		CpmHistogram:      metrics.GetOrRegisterHistogram("auctions.cpm_cents", registry, metrics.NewExpDecaySample(1028, 0.015)),
		SignalHistogram:   metrics.GetOrRegisterHistogram("auctions.signal_hundredths", registry, metrics.NewExpDecaySample(1028, 0.015)),
		VendorMetrics:     make(map[string]*VendorMetrics, len(vendors)),
	}

	for _, eventType := range eventTypes {
		m.EventMeters[eventType] = metrics.GetOrRegisterMeter(fmt.Sprintf("events.%s", eventType), registry)
	}
	for _, vendor := range vendors {
		m.VendorMetrics[vendor] = &VendorMetrics{
			SentMeter:  metrics.GetOrRegisterMeter(fmt.Sprintf("vendor.%s.sent", vendor), registry),
			ErrorMeter: metrics.GetOrRegisterMeter(fmt.Sprintf("vendor.%s.errors", vendor), registry),
		}
	}
	return m
}

// NewBlankMetrics creates a Metrics object that records nothing. Useful for
// tests and for code paths that must not fail when metrics are disabled.
func NewBlankMetrics() *Metrics {
	blankMeter := &metrics.NilMeter{}
	blankHistogram := &metrics.NilHistogram{}
	return &Metrics{
		registry:          metrics.NewRegistry(),
		EventMeters:       make(map[string]metrics.Meter),
		InvalidEventMeter: blankMeter,
		OrphanEventMeter:  blankMeter,
		AuctionMeter:      blankMeter,
		AuctionTimer:      &metrics.NilTimer{},
		CpmHistogram:      blankHistogram,
		SignalHistogram:   blankHistogram,
		VendorMetrics:     make(map[string]*VendorMetrics),
	}
}

// MarkEvent counts one received event of the given type. Types without a
// registered meter are ignored.
func (m *Metrics) MarkEvent(eventType string) {
	if meter, ok := m.EventMeters[eventType]; ok {
		meter.Mark(1)
	}
}

// ForVendor returns the delivery metrics for vendor, falling back to blank
// meters for unknown names.
func (m *Metrics) ForVendor(vendor string) *VendorMetrics {
	if vm, ok := m.VendorMetrics[vendor]; ok {
		return vm
	}
	return &VendorMetrics{SentMeter: &metrics.NilMeter{}, ErrorMeter: &metrics.NilMeter{}}
}

// Export begins exporting all metrics to InfluxDB. This blocks indefinitely,
// so it should be run inside a goroutine.
func (m *Metrics) Export(cfg config.Metrics) {
	influxdb.InfluxDB(
		m.registry,
		time.Second*10,
		cfg.Host,
		cfg.Database,
		cfg.Username,
		cfg.Password,
	)
}
