package endpoints

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demandsignal/telemetry/analytics"
	"github.com/demandsignal/telemetry/metrics"
)

// stubModule records which lifecycle methods were invoked.
type stubModule struct {
	starts    []*analytics.AuctionStartEvent
	requests  []*analytics.BidRequestedEvent
	responses []*analytics.BidResponseEvent
	noBids    []*analytics.NoBidEvent
	ends      []*analytics.AuctionEndEvent
}

func (s *stubModule) LogAuctionStart(e *analytics.AuctionStartEvent) {
	s.starts = append(s.starts, e)
}

func (s *stubModule) LogBidRequested(e *analytics.BidRequestedEvent) {
	s.requests = append(s.requests, e)
}

func (s *stubModule) LogBidResponse(e *analytics.BidResponseEvent) {
	s.responses = append(s.responses, e)
}

func (s *stubModule) LogNoBid(e *analytics.NoBidEvent) {
	s.noBids = append(s.noBids, e)
}

func (s *stubModule) LogAuctionEnd(e *analytics.AuctionEndEvent) {
	s.ends = append(s.ends, e)
}

func (s *stubModule) Shutdown() {}

func postEvent(t *testing.T, module analytics.Module, body string) *httptest.ResponseRecorder {
	t.Helper()
	handle := NewEventEndpoint(module, metrics.NewBlankMetrics())
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/telemetry/event", strings.NewReader(body))
	handle(recorder, request, nil)
	return recorder
}

func TestEventEndpointAuctionInit(t *testing.T) {
	module := &stubModule{}
	recorder := postEvent(t, module, `{
		"eventType": "auctionInit",
		"auctionId": "A1",
		"timestamp": 1700000000000,
		"adUnits": [{"code":"top"},{"code":"side"}]
	}`)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	require.Len(t, module.starts, 1)
	assert.Equal(t, "A1", module.starts[0].AuctionID)
	assert.Len(t, module.starts[0].AdUnits, 2)
}

func TestEventEndpointBidLifecycle(t *testing.T) {
	module := &stubModule{}

	postEvent(t, module, `{"eventType":"bidRequested","auctionId":"A1","bidderCode":"appnexus","bids":[{"bidId":"1"},{"bidId":"2"}]}`)
	postEvent(t, module, `{"eventType":"bidResponse","auctionId":"A1","bidderCode":"appnexus","cpm":2.5}`)
	postEvent(t, module, `{"eventType":"noBid","auctionId":"A1","bidderCode":"rubicon"}`)
	postEvent(t, module, `{"eventType":"auctionEnd","auctionId":"A1","timestamp":1700000000850,"page":{"domain":"example.com"}}`)

	require.Len(t, module.requests, 1)
	assert.Len(t, module.requests[0].Bids, 2)
	require.Len(t, module.responses, 1)
	assert.Equal(t, 2.5, module.responses[0].Cpm)
	assert.Len(t, module.noBids, 1)
	require.Len(t, module.ends, 1)
	assert.Equal(t, "example.com", module.ends[0].Page.Domain)
}

func TestEventEndpointRejectsMalformedBodies(t *testing.T) {
	tests := []struct {
		description string
		body        string
	}{
		{"not json", `so very not json`},
		{"missing eventType", `{"auctionId":"A1"}`},
		{"unknown eventType", `{"eventType":"bidWon","auctionId":"A1"}`},
		{"wrong field type", `{"eventType":"bidResponse","auctionId":"A1","cpm":"expensive"}`},
	}

	for _, test := range tests {
		module := &stubModule{}
		recorder := postEvent(t, module, test.body)

		assert.Equal(t, http.StatusBadRequest, recorder.Code, test.description)
		assert.Empty(t, module.starts, test.description)
		assert.Empty(t, module.responses, test.description)
	}
}

func TestStatusEndpoint(t *testing.T) {
	recorder := httptest.NewRecorder()
	NewStatusEndpoint()(recorder, httptest.NewRequest(http.MethodGet, "/status", nil), nil)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}
