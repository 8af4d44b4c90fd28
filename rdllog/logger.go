// Package rdllog provides the ambient structured logger used across the
// toolkit's CLI binaries and library packages.
//
// Grounded on the teacher's runtime/logger.go: a small Logger interface
// with level-gated methods, a process-global default instance, and
// package-level convenience functions, rather than a dependency-injected
// logging framework.
package rdllog

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level is the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string (case-insensitively) into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "OFF", "NONE":
		return LevelOff, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// Logger is the structured logging interface used throughout the toolkit.
// The elaborator accepts one of these (defaulting to Nop) to trace
// pass boundaries at Debug level; it is never used to surface
// diagnostics, which always flow through rdldiag.List instead.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	SetLevel(level Level)
	GetLevel() Level
}

// StdLogger is the default Logger implementation, backed by the standard
// library's log.Logger.
type StdLogger struct {
	level  Level
	logger *log.Logger
	mu     sync.RWMutex
}

// New constructs a StdLogger writing to output at the given minimum level.
func New(output io.Writer, level Level) *StdLogger {
	return &StdLogger{
		level:  level,
		logger: log.New(output, "", log.LstdFlags),
	}
}

func (l *StdLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *StdLogger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *StdLogger) log(level Level, format string, args ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if level < l.level {
		return
	}
	l.logger.Printf("[%s] %s", level.String(), fmt.Sprintf(format, args...))
}

func (l *StdLogger) Debugf(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }
func (l *StdLogger) Infof(format string, args ...interface{})  { l.log(LevelInfo, format, args...) }
func (l *StdLogger) Warnf(format string, args ...interface{})  { l.log(LevelWarn, format, args...) }
func (l *StdLogger) Errorf(format string, args ...interface{}) { l.log(LevelError, format, args...) }

// nopLogger discards everything; it is the elaborator's default so callers
// that don't care about tracing pay no cost and need not nil-check.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) SetLevel(Level)                {}
func (nopLogger) GetLevel() Level                { return LevelOff }

// Nop is the shared no-op Logger instance.
var Nop Logger = nopLogger{}

var global Logger = New(os.Stderr, LevelInfo)

// SetLevel sets the global logger's minimum level.
func SetLevel(level Level) { global.SetLevel(level) }

// GetLevel returns the global logger's current minimum level.
func GetLevel() Level { return global.GetLevel() }

// Debugf logs at debug level using the global logger.
func Debugf(format string, args ...interface{}) { global.Debugf(format, args...) }

// Infof logs at info level using the global logger.
func Infof(format string, args ...interface{}) { global.Infof(format, args...) }

// Warnf logs at warn level using the global logger.
func Warnf(format string, args ...interface{}) { global.Warnf(format, args...) }

// Errorf logs at error level using the global logger.
func Errorf(format string, args ...interface{}) { global.Errorf(format, args...) }

func init() {
	if levelStr := os.Getenv("RDL_LOG_LEVEL"); levelStr != "" {
		if level, err := ParseLevel(levelStr); err == nil {
			SetLevel(level)
		}
	}
	if strings.HasSuffix(os.Args[0], ".test") {
		SetLevel(LevelError)
	}
}
