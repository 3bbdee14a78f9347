// Package logging provides structured JSON logging for unpin components.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event represents a structured log event
type Event struct {
	Timestamp string         `json:"ts"`
	Level     Level          `json:"level"`
	Component string         `json:"component"`
	Event     string         `json:"event"`
	Device    string         `json:"device,omitempty"`
	Run       string         `json:"run,omitempty"`
	Duration  int64          `json:"duration_ms,omitempty"`
	Error     string         `json:"error,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

var (
	outMu  sync.Mutex
	output io.Writer = os.Stderr
)

// SetOutput redirects log output. Used by tests.
func SetOutput(w io.Writer) {
	outMu.Lock()
	output = w
	outMu.Unlock()
}

// Logger provides structured logging
type Logger struct {
	component string
	device    string
	run       string
}

// New creates a new logger for a component
func New(component string) *Logger {
	return &Logger{
		component: component,
		device:    os.Getenv("UNPIN_DEVICE"),
	}
}

// WithDevice sets the device context
func (l *Logger) WithDevice(device string) *Logger {
	return &Logger{
		component: l.component,
		device:    device,
		run:       l.run,
	}
}

// WithRun sets the run context
func (l *Logger) WithRun(run string) *Logger {
	return &Logger{
		component: l.component,
		device:    l.device,
		run:       run,
	}
}

// log emits a structured log event
func (l *Logger) log(level Level, event string, extra map[string]any, err error) {
	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Component: l.component,
		Event:     event,
		Device:    l.device,
		Run:       l.run,
		Extra:     extra,
	}

	if err != nil {
		e.Error = err.Error()
	}

	emit(e)
}

func emit(e Event) {
	data, _ := json.Marshal(e)
	outMu.Lock()
	fmt.Fprintln(output, string(data))
	outMu.Unlock()
}

// Debug logs a debug event
func (l *Logger) Debug(event string, extra map[string]any) {
	l.log(LevelDebug, event, extra, nil)
}

// Info logs an info event
func (l *Logger) Info(event string, extra map[string]any) {
	l.log(LevelInfo, event, extra, nil)
}

// Warn logs a warning event
func (l *Logger) Warn(event string, extra map[string]any, err error) {
	l.log(LevelWarn, event, extra, err)
}

// Error logs an error event
func (l *Logger) Error(event string, extra map[string]any, err error) {
	l.log(LevelError, event, extra, err)
}

// TimedEvent logs an event with duration
func (l *Logger) TimedEvent(event string, start time.Time, extra map[string]any) {
	emit(Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     LevelInfo,
		Component: l.component,
		Event:     event,
		Device:    l.device,
		Run:       l.run,
		Duration:  time.Since(start).Milliseconds(),
		Extra:     extra,
	})
}
