package downstream

import (
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every downstream call.
const DefaultTimeout = 4 * time.Second

// maximum amount of an error body kept for diagnostics
const maxErrBody = 512

// do performs req and maps a transport error or a non-2xx
// status to a *DownstreamError for target.
func do(client *http.Client, req *http.Request, target string) error {
	resp, err := client.Do(req)
	if err != nil {
		return &DownstreamError{Target: target, Err: err}
	}
	defer resp.Body.Close()
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := strings.TrimSpace(string(msg))
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		return &DownstreamError{Target: target, Status: resp.StatusCode, Msg: text}
	}
	return nil
}
