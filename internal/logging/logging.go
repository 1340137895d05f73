package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultLogFile = "keyspace-browser.log"

// Rotation bounds the size and number of retained log files.
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var defaultRotation = Rotation{MaxSizeMB: 16, MaxBackups: 3, MaxAgeDays: 14}

var (
	mu           sync.Mutex
	traceEnabled bool
	logPath      = defaultLogFile
	rotation     = defaultRotation
	writer       io.WriteCloser
	errLog       *log.Logger
)

// Error appends err to the shared log file.
func Error(err error) {
	if err == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	ensureWriterLocked()
	errLog.Println(err)
}

// SetTraceEnabled toggles emission of structured trace entries.
func SetTraceEnabled(enabled bool) {
	mu.Lock()
	traceEnabled = enabled
	mu.Unlock()
}

// TraceEnabled reports whether Trace currently writes entries.
func TraceEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return traceEnabled
}

// Trace appends a structured JSON entry to the shared log when tracing is enabled.
func Trace(event string, payload interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if !traceEnabled {
		return
	}

	entry := struct {
		Time    time.Time   `json:"time"`
		Event   string      `json:"event"`
		Payload interface{} `json:"payload,omitempty"`
	}{
		Time:    time.Now().UTC(),
		Event:   event,
		Payload: payload,
	}

	ensureWriterLocked()
	if err := json.NewEncoder(writer).Encode(entry); err != nil {
		fmt.Fprintf(os.Stderr, "trace encoding failed: %v\n", err)
	}
}

// Configure sets the log destination. Empty values fall back to the default
// path. Directories are created automatically when missing.
func Configure(path string) {
	mu.Lock()
	defer mu.Unlock()
	closeWriterLocked()
	if strings.TrimSpace(path) == "" {
		logPath = defaultLogFile
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "unable to create log directory: %v\n", err)
		logPath = defaultLogFile
		return
	}
	logPath = path
}

// ConfigureRotation replaces the rotation limits. Zero fields keep the
// defaults.
func ConfigureRotation(r Rotation) {
	mu.Lock()
	defer mu.Unlock()
	closeWriterLocked()
	rotation = defaultRotation
	if r.MaxSizeMB > 0 {
		rotation.MaxSizeMB = r.MaxSizeMB
	}
	if r.MaxBackups > 0 {
		rotation.MaxBackups = r.MaxBackups
	}
	if r.MaxAgeDays > 0 {
		rotation.MaxAgeDays = r.MaxAgeDays
	}
}

// Path returns the active log destination.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}

// Close flushes and releases the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeWriterLocked()
}

func ensureWriterLocked() {
	if writer != nil {
		return
	}
	writer = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    rotation.MaxSizeMB,
		MaxBackups: rotation.MaxBackups,
		MaxAge:     rotation.MaxAgeDays,
	}
	errLog = log.New(writer, "", log.LstdFlags)
}

func closeWriterLocked() {
	if writer == nil {
		return
	}
	if err := writer.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "closing log failed: %v\n", err)
	}
	writer = nil
	errLog = nil
}
