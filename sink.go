package splitlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/DeRuina/timberjack"
)

// sinkCeilingMB keeps timberjack's own size rotation out of the way; the
// router rotates by byte threshold before every batch.
const sinkCeilingMB = 10240

// fileSink is an append-only destination file. It implements
// zapcore.WriteSyncer so a zap core can write to it, and can be reopened
// after the file it points at has been renamed away.
type fileSink struct {
	path    string
	archive ArchiveConfig

	mu  sync.Mutex
	out *timberjack.Logger
}

func newFileSink(path string, archive ArchiveConfig) (*fileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("splitlog: create log dir for %s: %w", path, err)
	}
	s := &fileSink{path: path, archive: archive}
	s.out = s.newWriter()
	return s, nil
}

func (s *fileSink) newWriter() *timberjack.Logger {
	return &timberjack.Logger{
		Filename:    s.path,
		MaxSize:     sinkCeilingMB,
		MaxAge:      s.archive.MaxAge,
		Compression: s.archive.Compression,
		LocalTime:   true,
	}
}

// Write appends p to the current file, creating it if needed.
func (s *fileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Write(p)
}

// Sync is a no-op: timberjack writes straight through to the file.
func (s *fileSink) Sync() error { return nil }

// reopen drops the handle on the renamed file so the next Write creates a
// fresh file under the original name.
func (s *fileSink) reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.out.Close()
	s.out = s.newWriter()
}

func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Close()
}
