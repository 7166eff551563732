package splitlog

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Severity is the level a tagged message is written at.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityNotice
	SeverityWarning
	SeverityError
	SeverityCritical
	SeverityAlert
	SeverityEmergency
)

// TagSQL selects the SQL stream.
const TagSQL = "SQL"

var severityNames = [...]string{
	SeverityDebug:     "DEBUG",
	SeverityInfo:      "INFO",
	SeverityNotice:    "NOTICE",
	SeverityWarning:   "WARNING",
	SeverityError:     "ERROR",
	SeverityCritical:  "CRITICAL",
	SeverityAlert:     "ALERT",
	SeverityEmergency: "EMERGENCY",
}

// tagSeverity maps known tags to a severity. Only the severity names and
// SQL are known; anything else, including LOG and WARN, is DEBUG.
var tagSeverity = map[string]Severity{
	"DEBUG":     SeverityDebug,
	"INFO":      SeverityInfo,
	"NOTICE":    SeverityNotice,
	"WARNING":   SeverityWarning,
	"ERROR":     SeverityError,
	"CRITICAL":  SeverityCritical,
	"ALERT":     SeverityAlert,
	"EMERGENCY": SeverityEmergency,
	TagSQL:      SeverityInfo,
}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return severityNames[SeverityDebug]
	}
	return severityNames[s]
}

// ParseTag returns the severity for tag (case-insensitive). Unknown tags
// report ok=false and SeverityDebug.
func ParseTag(tag string) (Severity, bool) {
	s, ok := tagSeverity[strings.ToUpper(tag)]
	if !ok {
		return SeverityDebug, false
	}
	return s, true
}

// zapLevel maps s onto a zap level. Levels above ERROR are written at
// ErrorLevel so zap never panics or exits; the severity name is carried
// in the line separately.
func (s Severity) zapLevel() zapcore.Level {
	switch s {
	case SeverityDebug:
		return zapcore.DebugLevel
	case SeverityInfo, SeverityNotice:
		return zapcore.InfoLevel
	case SeverityWarning:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
