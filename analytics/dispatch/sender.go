package dispatch

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/golang/glog"
)

// Sender delivers one serialized payload to one endpoint. Implementations
// must be safe for concurrent use.
type Sender = func(payload []byte, endpoint string) error

// NewHTTPSender returns a Sender that POSTs JSON payloads. Each call is a
// one-shot best-effort delivery; there is no retry.
func NewHTTPSender(client *http.Client) Sender {
	return func(payload []byte, endpoint string) error {
		req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			glog.Error(err)
			return err
		}

		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return fmt.Errorf("wrong code received %d instead of 2xx", resp.StatusCode)
		}
		return nil
	}
}
