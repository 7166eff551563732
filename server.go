package splitlog

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// responseWriter is a wrapper around http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader captures the status code before writing it to the original ResponseWriter.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// httpRequestInfo exposes an inbound request as RequestInfo.
type httpRequestInfo struct {
	r          *http.Request
	debug      bool
	redactKeys []string
	start      time.Time
	startMem   uint64
}

func (i *httpRequestInfo) ClientIP() string {
	if fwd := i.r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(i.r.RemoteAddr)
	if err != nil {
		return i.r.RemoteAddr
	}
	return host
}

func (i *httpRequestInfo) Host() string         { return i.r.Host }
func (i *httpRequestInfo) URL() string          { return redactURL(i.r.URL, i.redactKeys) }
func (i *httpRequestInfo) Method() string       { return i.r.Method }
func (i *httpRequestInfo) Debug() bool          { return i.debug }
func (i *httpRequestInfo) StartTime() time.Time { return i.start }
func (i *httpRequestInfo) StartMemory() uint64  { return i.startMem }

// Middleware collects everything a request records through its context
// Recorder and saves it as one batch, preceded by the request summary, once
// the handler returns. Paths listed in Config.SkipPaths are not logged.
func Middleware(router *Router) func(http.Handler) http.Handler {
	cfg := router.Config()
	// Create a map for quick lookup of skip paths
	skipPaths := make(map[string]bool, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			info := &httpRequestInfo{
				r:          r,
				debug:      cfg.Debug,
				redactKeys: cfg.RedactKeys,
				start:      router.now(),
			}
			if cfg.Debug {
				info.startMem = heapAlloc()
			}

			rec := NewRecorder()
			ctx := WithRecorder(r.Context(), rec)
			ctx = WithRequestID(ctx, router.RequestID())
			r = r.WithContext(ctx)

			w.Header().Set(HeaderRequestID, router.RequestID())
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			latency := router.now().Sub(info.start)
			rec.Record("INFO", fmt.Sprintf("[ RESPONSE ] status=%d latency=%dms", rw.statusCode, latency.Milliseconds()))

			if err := router.SaveRequest(info, rec.Batch()); err != nil {
				router.reportError(fmt.Errorf("save request log: %w", err))
			}
		})
	}
}
