package splitlog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// cliMarker prefixes every message written in batch (CLI) mode.
const cliMarker = "[ CLI ] "

// Batch maps a tag such as "INFO" or "SQL" to its messages in order.
// Messages that are not strings are converted before writing.
type Batch map[string][]any

// stream is one destination file and the zap core that formats into it.
type stream struct {
	sink *fileSink
	core zapcore.Core
}

// Router formats tagged messages and routes them to the general, SQL or
// per-level log files, rotating each file by size before a batch is written.
type Router struct {
	cfg    Config
	id     RequestID
	now    func() time.Time
	lookup func(string) (string, bool)
	errOut zapcore.WriteSyncer

	mu      sync.Mutex
	general *stream
	sql     *stream
	apart   map[string]*stream
	streams []*stream
	byPath  map[string]*stream
}

// Option configures a Router.
type Option func(*Router)

// WithClock sets the time source used for line timestamps and runtime stats.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

// WithEnvLookup replaces os.LookupEnv when resolving the request id.
func WithEnvLookup(lookup func(string) (string, bool)) Option {
	return func(r *Router) {
		if lookup != nil {
			r.lookup = lookup
		}
	}
}

// WithErrorOutput sets where failures that cannot be returned to a caller
// are reported. Defaults to stderr.
func WithErrorOutput(w zapcore.WriteSyncer) Option {
	return func(r *Router) {
		if w != nil {
			r.errOut = w
		}
	}
}

// New opens the destination files described by cfg and returns a Router.
func New(cfg Config, opts ...Option) (*Router, error) {
	r := &Router{
		cfg:    cfg.normalize(),
		now:    time.Now,
		lookup: os.LookupEnv,
		errOut: zapcore.Lock(os.Stderr),
		apart:  make(map[string]*stream),
		byPath: make(map[string]*stream),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.id = resolveRequestID(r.cfg.RequestIDEnv, r.lookup, r.now())

	var err error
	if r.general, err = r.openStream(r.cfg.FileName); err != nil {
		return nil, err
	}
	r.sql = r.general
	if r.cfg.SeparateSQL {
		if r.sql, err = r.openStream(r.cfg.SQLFileName); err != nil {
			_ = r.Close()
			return nil, err
		}
	}
	for _, level := range r.cfg.ApartLevel {
		tag := strings.ToUpper(level)
		if tag == TagSQL || r.apart[tag] != nil {
			continue
		}
		st, err := r.openStream(strings.ToLower(level) + ".log")
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		r.apart[tag] = st
	}
	return r, nil
}

// openStream returns the stream writing to name under the configured path.
// Destinations that resolve to the same file share one stream, so rotation
// reopens every writer of that file.
func (r *Router) openStream(name string) (*stream, error) {
	path := filepath.Clean(r.cfg.Path + name)
	if st, ok := r.byPath[path]; ok {
		return st, nil
	}

	var enc zapcore.Encoder
	if r.cfg.JSON {
		enc = newJSONEncoder(r.cfg.TimeFormat)
	} else {
		template := strings.ReplaceAll(r.cfg.LogFormat, placeholderRequestID, r.id.String())
		line, err := newLineEncoder(template, r.cfg.TimeFormat)
		if err != nil {
			return nil, err
		}
		enc = line
	}
	sink, err := newFileSink(path, r.cfg.Archive)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(enc, sink, zapcore.DebugLevel)
	if r.cfg.JSON {
		core = core.With([]zapcore.Field{zap.String("request_id", r.id.String())})
	}
	st := &stream{sink: sink, core: core}
	r.streams = append(r.streams, st)
	r.byPath[path] = st
	return st, nil
}

// RequestID returns the identifier stamped on every line. It is resolved
// once in New and never changes.
func (r *Router) RequestID() string { return r.id.String() }

// Config returns the normalized configuration.
func (r *Router) Config() Config { return r.cfg }

// Save writes batch. appendMode is accepted for compatibility and ignored.
// Every message is attempted; the first write error is returned.
func (r *Router) Save(batch Batch, appendMode bool) error {
	return r.save(nil, batch)
}

// SaveRequest writes batch preceded by a summary of the request described
// by info. The summary is skipped in CLI mode.
func (r *Router) SaveRequest(info RequestInfo, batch Batch) error {
	return r.save(info, batch)
}

// Record adds msg under tag to the Recorder carried by ctx, or writes it
// straight away when ctx has none.
func (r *Router) Record(ctx context.Context, tag string, msg any) error {
	if rec := RecorderFromContext(ctx); rec != nil {
		rec.Record(tag, msg)
		return nil
	}
	return r.Save(Batch{tag: {msg}}, true)
}

func (r *Router) save(info RequestInfo, batch Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rotating()

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if !r.cfg.CLI && info != nil {
		st, sev := r.route("INFO")
		for _, line := range extraInfo(info, r.now()) {
			keep(r.write(st, sev, line))
		}
	}

	tags := make([]string, 0, len(batch))
	for tag := range batch {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		st, sev := r.route(tag)
		for _, m := range batch[tag] {
			msg := stringify(m)
			if r.ignored(msg) {
				continue
			}
			if r.cfg.CLI {
				msg = cliMarker + msg
			}
			keep(r.write(st, sev, msg))
		}
	}
	return firstErr
}

// route picks the destination and severity for tag. Unknown tags go to the
// general stream at DEBUG.
func (r *Router) route(tag string) (*stream, Severity) {
	tag = strings.ToUpper(tag)
	if tag == TagSQL {
		return r.sql, SeverityInfo
	}
	sev, _ := ParseTag(tag)
	if st, ok := r.apart[tag]; ok {
		return st, sev
	}
	return r.general, sev
}

func (r *Router) ignored(msg string) bool {
	if !r.cfg.IgnoreNoise {
		return false
	}
	for _, p := range r.cfg.IgnorePatterns {
		if p != "" && strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func (r *Router) write(st *stream, sev Severity, msg string) error {
	ent := zapcore.Entry{
		LoggerName: r.cfg.LogName,
		Time:       r.now(),
		Level:      sev.zapLevel(),
		Message:    msg,
	}
	return st.core.Write(ent, []zapcore.Field{zap.String(levelNameKey, sev.String())})
}

// rotating checks every destination file before a batch is written. The
// result of checkLogSize only decides whether the sink must reopen; a
// failed rename leaves the sink on the oversized file.
func (r *Router) rotating() {
	for _, st := range r.streams {
		if checkLogSize(st.sink.path, r.cfg.FileSize) {
			st.sink.reopen()
		}
	}
}

// reportError writes err to the error output. Used where no caller can
// receive the error, such as after an HTTP handler returned.
func (r *Router) reportError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(r.errOut, "%s splitlog: %v\n", r.now().Format(time.RFC3339), err)
	_ = r.errOut.Sync()
}

// Close closes every destination file.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, st := range r.streams {
		if err := st.sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// stringify returns the text written for m. Values other than strings,
// errors and Stringers use their Go-syntax representation.
func stringify(m any) string {
	switch v := m.(type) {
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%#v", v)
	}
}
