package splitlog

import (
	"context"
	"sync"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	recorderKey  contextKey = "splitlog_recorder"
	requestIDKey contextKey = "splitlog_request_id"
)

// Recorder collects the messages of one request until they are saved as a
// single Batch. It is safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	tags Batch
}

func NewRecorder() *Recorder {
	return &Recorder{tags: make(Batch)}
}

// Record appends msg under tag.
func (r *Recorder) Record(tag string, msg any) {
	r.mu.Lock()
	r.tags[tag] = append(r.tags[tag], msg)
	r.mu.Unlock()
}

// Batch returns a copy of everything recorded so far.
func (r *Recorder) Batch() Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(Batch, len(r.tags))
	for tag, msgs := range r.tags {
		out[tag] = append([]any(nil), msgs...)
	}
	return out
}

// WithRecorder returns a copy of ctx carrying rec.
func WithRecorder(ctx context.Context, rec *Recorder) context.Context {
	return context.WithValue(ctx, recorderKey, rec)
}

// RecorderFromContext returns the Recorder carried by ctx, or nil.
func RecorderFromContext(ctx context.Context) *Recorder {
	if ctx == nil {
		return nil
	}
	rec, _ := ctx.Value(recorderKey).(*Recorder)
	return rec
}

// WithRequestID returns a copy of ctx carrying id for outbound calls.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id carried by ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
