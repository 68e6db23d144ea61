// Package logging provides leveled, component-scoped console output for
// the agent. Log sinks stay simple on purpose: one line per event, plain
// text, safe for a supervisor to capture from stdout.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Logger writes structured lines to a single output. Derived loggers from
// WithComponent share the output and level of their parent.
type Logger struct {
	mu        *sync.Mutex
	output    io.Writer
	minLevel  *Level
	component string
}

// New creates a new Logger writing to stdout at INFO level.
func New() *Logger {
	level := LevelInfo
	return &Logger{
		mu:       &sync.Mutex{},
		output:   os.Stdout,
		minLevel: &level,
	}
}

// WithComponent returns a logger that prefixes every line with the given
// component name. The returned logger shares output and level with its
// parent.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		mu:        l.mu,
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	*l.minLevel = level
	l.mu.Unlock()
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.output = w
	l.mu.Unlock()
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs in stable order.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " " + strings.Join(parts, " ")
}

// log writes a line in the format: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if levelPriority[level] < levelPriority[*l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		fieldStr = formatFields(fields[0])
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.output.Write([]byte(line))
}

// --- Lifecycle event helpers ---
// Fixed message vocabulary for the agent's lifecycle so log scrapers can
// match on stable tokens.

// RegistrationAttempt logs the start of a registration handshake.
func (l *Logger) RegistrationAttempt(machineID, gatewayURL, pool string) {
	l.Info("registration_attempt", map[string]interface{}{
		"machine_id": machineID,
		"gateway":    gatewayURL,
		"pool":       pool,
	})
}

// RegistrationComplete logs a successful handshake.
func (l *Logger) RegistrationComplete(machineID string) {
	l.Info("registration_complete", map[string]interface{}{
		"machine_id": machineID,
	})
}

// HeartbeatFailure logs one failed heartbeat with the current position
// against the unhealthy threshold.
func (l *Logger) HeartbeatFailure(failures, threshold int, err error) {
	l.Warn("heartbeat_failed", map[string]interface{}{
		"failures": fmt.Sprintf("%d/%d", failures, threshold),
		"error":    err.Error(),
	})
}

// SchedulerEvent logs a keepalive scheduler lifecycle transition.
func (l *Logger) SchedulerEvent(event string, interval time.Duration) {
	l.Info("scheduler_"+event, map[string]interface{}{
		"interval": interval.String(),
	})
}
