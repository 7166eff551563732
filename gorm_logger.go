package splitlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormLogger is a GORM logger that writes statements to the SQL stream.
type GormLogger struct {
	Router               *Router
	LogLevel             logger.LogLevel
	SlowQueryThresholdMs time.Duration
}

// NewGormLogger creates a new GormLogger.
func NewGormLogger(router *Router, cfg GormConfig) *GormLogger {
	logLevel := logger.Info
	switch cfg.Level {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "warn":
		logLevel = logger.Warn
	}

	slowQueryThreshold := 200 * time.Millisecond
	if cfg.SlowQueryThresholdMs > 0 {
		slowQueryThreshold = time.Duration(cfg.SlowQueryThresholdMs) * time.Millisecond
	}

	return &GormLogger{
		Router:               router,
		LogLevel:             logLevel,
		SlowQueryThresholdMs: slowQueryThreshold,
	}
}

// LogMode sets the log level.
func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

// Info logs informational messages.
func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Info {
		l.record(ctx, "INFO", fmt.Sprintf(msg, data...))
	}
}

// Warn logs warning messages.
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Warn {
		l.record(ctx, "WARNING", fmt.Sprintf(msg, data...))
	}
}

// Error logs error messages.
func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Error {
		l.record(ctx, "ERROR", fmt.Sprintf(msg, data...))
	}
}

// Trace records the SQL statement. Failed statements also record an ERROR
// line and slow ones a WARNING line on the general stream.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	line := fmt.Sprintf("[ SQL ] %s [ RunTime:%.6fs ] rows:%d", sql, elapsed.Seconds(), rows)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.LogLevel >= logger.Error:
		l.record(ctx, TagSQL, line)
		l.record(ctx, "ERROR", fmt.Sprintf("[ SQL ] %s failed: %v", sql, err))
	case elapsed > l.SlowQueryThresholdMs && l.LogLevel >= logger.Warn:
		l.record(ctx, TagSQL, line)
		l.record(ctx, "WARNING", fmt.Sprintf("[ SQL ] slow query (%s > %s): %s", elapsed, l.SlowQueryThresholdMs, sql))
	case l.LogLevel >= logger.Info:
		l.record(ctx, TagSQL, line)
	}
}

func (l *GormLogger) record(ctx context.Context, tag, msg string) {
	if err := l.Router.Record(ctx, tag, msg); err != nil {
		l.Router.reportError(fmt.Errorf("record gorm log: %w", err))
	}
}
