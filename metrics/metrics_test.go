package metrics

import (
	"testing"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	registry := gometrics.NewRegistry()
	m := NewMetrics(registry, []string{"auctionInit", "auctionEnd"}, []string{"vendor-a"})

	m.MarkEvent("auctionInit")
	m.MarkEvent("auctionInit")
	m.MarkEvent("not-registered")
	assert.Equal(t, int64(2), m.EventMeters["auctionInit"].Count())
	assert.Zero(t, m.EventMeters["auctionEnd"].Count())

	m.ForVendor("vendor-a").SentMeter.Mark(1)
	require.Contains(t, m.VendorMetrics, "vendor-a")
	assert.Equal(t, int64(1), m.VendorMetrics["vendor-a"].SentMeter.Count())

	// unknown vendors fall back to blank meters instead of panicking
	m.ForVendor("who-dis").ErrorMeter.Mark(1)

	assert.NotNil(t, registry.Get("events.auctionInit"))
	assert.NotNil(t, registry.Get("vendor.vendor-a.errors"))
	assert.NotNil(t, registry.Get("auctions.completed"))
}

func TestBlankMetricsRecordNothing(t *testing.T) {
	m := NewBlankMetrics()

	m.MarkEvent("auctionInit")
	m.InvalidEventMeter.Mark(1)
	m.AuctionMeter.Mark(1)
	m.CpmHistogram.Update(150)

	assert.Zero(t, m.InvalidEventMeter.Count())
	assert.Zero(t, m.AuctionMeter.Count())
}
