// Package dispatch shapes a finished auction's payloads per vendor and fans
// them out. Each vendor delivery is independent: one vendor failing, hanging
// or being misconfigured never affects the others or the aggregation path.
package dispatch

import (
	"encoding/json"
	"sync"

	"github.com/golang/glog"

	"github.com/demandsignal/telemetry/analytics/payload"
	"github.com/demandsignal/telemetry/config"
	"github.com/demandsignal/telemetry/metrics"
)

type Dispatcher struct {
	vendors       []config.Vendor
	globalExclude []string
	send          Sender
	metrics       *metrics.Metrics
	inflight      sync.WaitGroup
}

func NewDispatcher(vendors []config.Vendor, globalExclude []string, send Sender, me *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		vendors:       vendors,
		globalExclude: globalExclude,
		send:          send,
		metrics:       me,
	}
}

// Dispatch sends the shaped payloads of one auction to every vendor. Sends
// are issued concurrently and not awaited; callers continue immediately.
// Shaping happens on copies, so full and index stay untouched and are safely
// reused across vendors.
func (d *Dispatcher) Dispatch(full *payload.FullPayload, index *payload.IndexPayload, signalScore float64) {
	for i := range d.vendors {
		vendor := d.vendors[i]

		body, err := d.shape(vendor, full, index, signalScore)
		if err != nil {
			glog.Warningf("[dispatch] cannot serialize payload for vendor %s: %v", vendor.Name, err)
			d.metrics.ForVendor(vendor.Name).ErrorMeter.Mark(1)
			continue
		}

		d.inflight.Add(1)
		go func() {
			defer d.inflight.Done()
			if err := d.send(body, vendor.Endpoint); err != nil {
				glog.Warningf("[dispatch] delivery to vendor %s failed: %v", vendor.Name, err)
				d.metrics.ForVendor(vendor.Name).ErrorMeter.Mark(1)
				return
			}
			d.metrics.ForVendor(vendor.Name).SentMeter.Mark(1)
		}()
	}
}

// Wait blocks until every in-flight delivery has completed. Used by graceful
// shutdown and tests; the event path never calls it.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

func (d *Dispatcher) shape(vendor config.Vendor, full *payload.FullPayload, index *payload.IndexPayload, signalScore float64) ([]byte, error) {
	if vendor.DataMode == config.DataModeIndex {
		return json.Marshal(index)
	}

	shaped, err := toMap(full)
	if err != nil {
		return nil, err
	}
	for _, field := range d.effectiveExclusions(vendor) {
		delete(shaped, field)
	}
	if vendor.DataMode == config.DataModeBoth {
		shaped[payload.SignalField] = signalScore
	}
	return json.Marshal(shaped)
}

// effectiveExclusions returns the vendor's own exclusion set when non-empty,
// otherwise the global one. The two are never merged.
func (d *Dispatcher) effectiveExclusions(vendor config.Vendor) []string {
	if len(vendor.ExcludeFields) > 0 {
		return vendor.ExcludeFields
	}
	return d.globalExclude
}

// toMap produces a fresh generic copy of the payload so field deletion never
// touches the shared struct.
func toMap(full *payload.FullPayload) (map[string]interface{}, error) {
	serialized, err := json.Marshal(full)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(serialized, &m); err != nil {
		return nil, err
	}
	return m, nil
}
