// Package observability provides query audit logging, query history
// persistence, prometheus metrics, and HTTP instrumentation for the
// switchyard gateway.
//
// Every routed query emits: query_id, sql, routing label (or the forced
// engine), engine, duration, outcome, and error (if any).
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// QueryLogEntry contains the audit fields for one routed query.
type QueryLogEntry struct {
	// QueryID is the unique identifier for this query.
	// Required: every query must have an ID.
	QueryID string

	// SQL is the statement as received, before any rewriting.
	SQL string

	// Label is the classifier's routing label. Empty when the engine was
	// forced and classification never ran.
	Label string

	// Forced reports whether the client overrode routing.
	Forced bool

	// Engine is the engine that served (or was asked to serve) the query.
	Engine string

	// Duration is how long execution took. Zero for requests that never
	// reached an engine.
	Duration time.Duration

	// Outcome is the result status: "success" or "error".
	Outcome string

	// Error contains the error message if the query failed.
	// Empty string for successful queries.
	Error string
}

// Validate checks that all required fields are present.
func (e *QueryLogEntry) Validate() error {
	if e.QueryID == "" {
		return fmt.Errorf("observability: query_id is required")
	}
	if e.Outcome == "" {
		return fmt.Errorf("observability: outcome is required")
	}
	if e.Duration < 0 {
		return fmt.Errorf("observability: duration cannot be negative")
	}
	return nil
}

// QueryLogger is the interface for query audit logging.
type QueryLogger interface {
	// LogQuery logs a query execution event.
	// Returns an error if logging fails or the entry is invalid.
	LogQuery(ctx context.Context, entry QueryLogEntry) error

	// Summary returns aggregated statistics over logged queries.
	Summary(ctx context.Context) (*Summary, error)
}

// Summary represents aggregated query statistics. Aggregates only - raw
// statements stay in the log.
type Summary struct {
	SuccessCount int          `json:"success_count"`
	ErrorCount   int          `json:"error_count"`
	TopErrors    []ErrorStat  `json:"top_errors"`
	TopEngines   []EngineStat `json:"top_engines"`
}

// ErrorStat counts occurrences of one error message.
type ErrorStat struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// EngineStat counts queries served by one engine.
type EngineStat struct {
	Engine string `json:"engine"`
	Count  int    `json:"count"`
}

// jsonLogOutput is the structured format for JSON logs.
type jsonLogOutput struct {
	Timestamp  string `json:"timestamp"`
	Level      string `json:"level"`
	QueryID    string `json:"query_id"`
	SQL        string `json:"sql"`
	Label      string `json:"label,omitempty"`
	Forced     bool   `json:"forced,omitempty"`
	Engine     string `json:"engine"`
	DurationMs int64  `json:"duration_ms"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
}

// JSONLogger implements QueryLogger with JSON-lines output.
type JSONLogger struct {
	writer  io.Writer
	entries []QueryLogEntry // kept for summaries
	mu      sync.RWMutex
}

// NewJSONLogger creates a new JSON logger writing to the given writer.
func NewJSONLogger(w io.Writer) *JSONLogger {
	return &JSONLogger{
		writer:  w,
		entries: make([]QueryLogEntry, 0),
	}
}

// LogQuery logs a query execution event as one JSON line.
func (l *JSONLogger) LogQuery(ctx context.Context, entry QueryLogEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("observability: context error: %w", err)
	}

	if err := entry.Validate(); err != nil {
		return err
	}

	level := "info"
	if entry.Error != "" {
		level = "error"
	}

	output := jsonLogOutput{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Level:      level,
		QueryID:    entry.QueryID,
		SQL:        entry.SQL,
		Label:      entry.Label,
		Forced:     entry.Forced,
		Engine:     entry.Engine,
		DurationMs: entry.Duration.Milliseconds(),
		Outcome:    entry.Outcome,
		Error:      entry.Error,
	}

	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("observability: failed to marshal log: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("observability: failed to write log: %w", err)
	}
	l.entries = append(l.entries, entry)
	return nil
}

// Summary aggregates the entries logged so far.
func (l *JSONLogger) Summary(ctx context.Context) (*Summary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	summary := &Summary{
		TopErrors:  []ErrorStat{},
		TopEngines: []EngineStat{},
	}

	errorCounts := make(map[string]int)
	engineCounts := make(map[string]int)

	for _, entry := range l.entries {
		if entry.Error == "" {
			summary.SuccessCount++
		} else {
			summary.ErrorCount++
			errorCounts[entry.Error]++
		}
		if entry.Engine != "" {
			engineCounts[entry.Engine]++
		}
	}

	for message, count := range errorCounts {
		summary.TopErrors = append(summary.TopErrors, ErrorStat{Message: message, Count: count})
	}
	sortErrorStats(summary.TopErrors)
	if len(summary.TopErrors) > 5 {
		summary.TopErrors = summary.TopErrors[:5]
	}

	for engine, count := range engineCounts {
		summary.TopEngines = append(summary.TopEngines, EngineStat{Engine: engine, Count: count})
	}
	sortEngineStats(summary.TopEngines)
	if len(summary.TopEngines) > 5 {
		summary.TopEngines = summary.TopEngines[:5]
	}

	return summary, nil
}

// sortErrorStats orders by count descending, message ascending for ties so
// summaries are stable.
func sortErrorStats(stats []ErrorStat) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Message < stats[j].Message
	})
}

// sortEngineStats orders by count descending, engine ascending for ties.
func sortEngineStats(stats []EngineStat) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Engine < stats[j].Engine
	})
}

// NoopLogger is a logger that discards all logs.
// Useful for testing or when audit logging is disabled.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

// LogQuery does nothing and always succeeds.
func (l *NoopLogger) LogQuery(ctx context.Context, entry QueryLogEntry) error {
	return nil
}

// Summary returns an empty summary for the no-op logger.
func (l *NoopLogger) Summary(ctx context.Context) (*Summary, error) {
	return &Summary{
		TopErrors:  []ErrorStat{},
		TopEngines: []EngineStat{},
	}, nil
}
