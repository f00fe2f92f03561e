// Package log provides structured file logging for glyphpad.
// Logging stays silent until Init is called, which happens when the
// --debug flag, GLYPHPAD_DEBUG or the debug config key is set.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
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
	default:
		return "UNKNOWN"
	}
}

// Category groups related log messages.
type Category string

const (
	CatRender   Category = "render"   // highlight passes
	CatRegistry Category = "registry" // embedded tables and links
	CatThumb    Category = "thumb"    // thumbnail generation
	CatScene    Category = "scene"    // external scene tool
	CatConfig   Category = "config"   // configuration loading/saving
	CatWatcher  Category = "watcher"  // file watcher events
	CatUI       Category = "ui"       // terminal host
	CatCache    Category = "cache"    // cache operations
)

// DefaultPath is where the terminal host logs when no log_file is configured.
const DefaultPath = "/tmp/glyphpad.log"

// Logger writes leveled, categorized entries.
type Logger struct {
	mu       sync.Mutex
	file     *os.File
	writer   io.Writer
	enabled  bool
	minLevel Level
}

var defaultLogger *Logger

// Init opens path for appending and installs it as the global logger.
// Returns a cleanup function to close the log file.
func Init(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //nolint:gosec // G304: user-controlled debug log path
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	defaultLogger = &Logger{
		file:     f,
		writer:   f,
		enabled:  true,
		minLevel: LevelDebug,
	}
	return func() { _ = f.Close() }, nil
}

// SetOutput installs a logger writing to w. Tests use it to capture entries.
func SetOutput(w io.Writer) {
	if w == nil {
		defaultLogger = nil
		return
	}
	defaultLogger = &Logger{writer: w, enabled: true, minLevel: LevelDebug}
}

// SetEnabled toggles logging on/off.
func SetEnabled(enabled bool) {
	if defaultLogger != nil {
		defaultLogger.mu.Lock()
		defaultLogger.enabled = enabled
		defaultLogger.mu.Unlock()
	}
}

// SetMinLevel sets the minimum log level.
func SetMinLevel(level Level) {
	if defaultLogger != nil {
		defaultLogger.mu.Lock()
		defaultLogger.minLevel = level
		defaultLogger.mu.Unlock()
	}
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	log(LevelDebug, cat, msg, fields...)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	log(LevelInfo, cat, msg, fields...)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	log(LevelWarn, cat, msg, fields...)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	log(LevelError, cat, msg, fields...)
}

// ErrorErr logs an error with the error value.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	log(LevelError, cat, msg, fields...)
}

// Block writes a multi-line block verbatim after a header entry. It is used
// for dumps that would be unreadable as a single key=value field.
func Block(level Level, cat Category, msg string, block string) {
	log(level, cat, msg)
	l := defaultLogger
	if l == nil || !l.enabled || level < l.minLevel {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.writer, block)
	if len(block) > 0 && block[len(block)-1] != '\n' {
		_, _ = io.WriteString(l.writer, "\n")
	}
}

func log(level Level, cat Category, msg string, fields ...any) {
	l := defaultLogger
	if l == nil || !l.enabled {
		return
	}
	if level < l.minLevel {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Format: 2025-12-06T10:45:00 [ERROR] [render] message key=value key2=value2
	timestamp := time.Now().Format("2006-01-02T15:04:05")
	entry := fmt.Sprintf("%s [%s] [%s] %s", timestamp, level, cat, msg)

	for i := 0; i+1 < len(fields); i += 2 {
		entry += fmt.Sprintf(" %v=%v", fields[i], fields[i+1])
	}
	if len(fields)%2 != 0 {
		entry += fmt.Sprintf(" %v=<missing>", fields[len(fields)-1])
	}
	entry += "\n"

	if l.writer != nil {
		_, _ = l.writer.Write([]byte(entry))
	}
}
