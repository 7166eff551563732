package splitlog

import (
	"fmt"
	"net/http"
	"time"
)

// loggingRoundTripper is an http.RoundTripper that propagates the request
// id and records each outbound call in the request's Recorder.
type loggingRoundTripper struct {
	next       http.RoundTripper
	redactKeys []string
}

// NewClientLogger wraps next. Query parameters named in redactKeys are
// masked in the recorded URL. A nil next uses http.DefaultTransport.
func NewClientLogger(next http.RoundTripper, redactKeys []string) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingRoundTripper{next: next, redactKeys: redactKeys}
}

// RoundTrip executes a single HTTP transaction, recording it around the call.
func (lrt *loggingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	startTime := time.Now()
	ctx := r.Context()

	if id := RequestIDFromContext(ctx); id != "" {
		// RoundTrippers must not modify the caller's request.
		r = r.Clone(ctx)
		r.Header.Set(HeaderRequestID, id)
	}

	resp, err := lrt.next.RoundTrip(r)
	latency := time.Since(startTime)

	rec := RecorderFromContext(ctx)
	if rec == nil {
		return resp, err
	}

	target := redactURL(r.URL, lrt.redactKeys)
	if r.URL != nil {
		target = r.URL.Scheme + "://" + r.URL.Host + target
	}
	if err != nil {
		rec.Record("ERROR", fmt.Sprintf("[ HTTP ] %s %s failed after %dms: %v", r.Method, target, latency.Milliseconds(), err))
		return nil, err
	}
	rec.Record("INFO", fmt.Sprintf("[ HTTP ] %s %s status=%d latency=%dms", r.Method, target, resp.StatusCode, latency.Milliseconds()))
	return resp, nil
}
