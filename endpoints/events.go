// Package endpoints holds the HTTP handlers of the telemetry intake surface.
package endpoints

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/buger/jsonparser"
	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"

	"github.com/demandsignal/telemetry/analytics"
	"github.com/demandsignal/telemetry/metrics"
)

// Lifecycle event discriminators, matching the names emitted by the host
// auction engine.
const (
	EventAuctionInit  = "auctionInit"
	EventBidRequested = "bidRequested"
	EventBidResponse  = "bidResponse"
	EventNoBid        = "noBid"
	EventAuctionEnd   = "auctionEnd"
)

// EventTypes lists every accepted event discriminator.
func EventTypes() []string {
	return []string{EventAuctionInit, EventBidRequested, EventBidResponse, EventNoBid, EventAuctionEnd}
}

const maxEventSize = 1 << 20

// NewEventEndpoint returns the handler for POST /telemetry/event. The body
// is an event envelope carrying an eventType discriminator next to the event
// fields. Malformed envelopes get a 400 and never reach the module.
func NewEventEndpoint(module analytics.Module, me *metrics.Metrics) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxEventSize))
		if err != nil {
			me.InvalidEventMeter.Mark(1)
			http.Error(w, "failed to read event body", http.StatusBadRequest)
			return
		}

		eventType, err := jsonparser.GetString(body, "eventType")
		if err != nil {
			me.InvalidEventMeter.Mark(1)
			http.Error(w, "missing eventType", http.StatusBadRequest)
			return
		}

		if err := dispatchEvent(module, eventType, body); err != nil {
			glog.Warningf("[endpoints] rejected %s event: %v", eventType, err)
			me.InvalidEventMeter.Mark(1)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		me.MarkEvent(eventType)
		w.WriteHeader(http.StatusNoContent)
	}
}

func dispatchEvent(module analytics.Module, eventType string, body []byte) error {
	switch eventType {
	case EventAuctionInit:
		var event analytics.AuctionStartEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return err
		}
		module.LogAuctionStart(&event)
	case EventBidRequested:
		var event analytics.BidRequestedEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return err
		}
		module.LogBidRequested(&event)
	case EventBidResponse:
		var event analytics.BidResponseEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return err
		}
		module.LogBidResponse(&event)
	case EventNoBid:
		var event analytics.NoBidEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return err
		}
		module.LogNoBid(&event)
	case EventAuctionEnd:
		var event analytics.AuctionEndEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return err
		}
		module.LogAuctionEnd(&event)
	default:
		return errUnknownEventType(eventType)
	}
	return nil
}

type errUnknownEventType string

func (e errUnknownEventType) Error() string {
	return "unknown eventType " + string(e)
}

// NewStatusEndpoint reports process liveness.
func NewStatusEndpoint() httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusNoContent)
	}
}
