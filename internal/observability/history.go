package observability

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// historySchema is the query history table. sql_text keeps the statement
// as received; rewritten forms never reach the audit trail.
const historySchema = `CREATE TABLE IF NOT EXISTS query_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	query_id TEXT NOT NULL,
	sql_text TEXT NOT NULL,
	label TEXT,
	forced INTEGER NOT NULL DEFAULT 0,
	engine TEXT,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	outcome TEXT NOT NULL,
	error_message TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// OpenHistoryDB opens (or creates) the SQLite history database at path.
// Use ":memory:" for an ephemeral history. The handle is capped at one
// connection: an in-memory SQLite database exists per connection, so a
// pool would scatter the history across invisible copies.
func OpenHistoryDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("observability: failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// HistoryLogger implements QueryLogger with SQLite persistence. The query
// history survives gateway restarts when backed by a file.
type HistoryLogger struct {
	db *sql.DB
}

// NewHistoryLogger creates a logger that persists query history to SQLite,
// ensuring the schema exists.
func NewHistoryLogger(db *sql.DB) (*HistoryLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("observability: database connection is required for history logging")
	}
	if _, err := db.Exec(historySchema); err != nil {
		return nil, fmt.Errorf("observability: failed to ensure history schema: %w", err)
	}
	return &HistoryLogger{db: db}, nil
}

// LogQuery persists a query log entry.
func (l *HistoryLogger) LogQuery(ctx context.Context, entry QueryLogEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("observability: context error: %w", err)
	}

	if err := entry.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO query_history (
			query_id, sql_text, label, forced, engine,
			duration_ms, outcome, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := l.db.ExecContext(ctx, query,
		entry.QueryID,
		entry.SQL,
		nullableString(entry.Label),
		boolToInt(entry.Forced),
		nullableString(entry.Engine),
		entry.Duration.Milliseconds(),
		entry.Outcome,
		nullableString(entry.Error),
	)
	if err != nil {
		return fmt.Errorf("observability: failed to persist history entry: %w", err)
	}

	return nil
}

// Summary returns aggregated statistics from the persisted history.
func (l *HistoryLogger) Summary(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		TopErrors:  []ErrorStat{},
		TopEngines: []EngineStat{},
	}

	row := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM query_history WHERE error_message IS NULL OR error_message = ''
	`)
	if err := row.Scan(&summary.SuccessCount); err != nil {
		return nil, fmt.Errorf("observability: failed to count successes: %w", err)
	}

	row = l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM query_history WHERE error_message IS NOT NULL AND error_message != ''
	`)
	if err := row.Scan(&summary.ErrorCount); err != nil {
		return nil, fmt.Errorf("observability: failed to count errors: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT error_message, COUNT(*) as cnt
		FROM query_history
		WHERE error_message IS NOT NULL AND error_message != ''
		GROUP BY error_message
		ORDER BY cnt DESC, error_message ASC
		LIMIT 5
	`)
	if err != nil {
		return nil, fmt.Errorf("observability: failed to aggregate errors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var stat ErrorStat
		if err := rows.Scan(&stat.Message, &stat.Count); err != nil {
			return nil, fmt.Errorf("observability: failed to scan error stat: %w", err)
		}
		summary.TopErrors = append(summary.TopErrors, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("observability: error aggregation failed: %w", err)
	}

	engineRows, err := l.db.QueryContext(ctx, `
		SELECT engine, COUNT(*) as cnt
		FROM query_history
		WHERE engine IS NOT NULL AND engine != ''
		GROUP BY engine
		ORDER BY cnt DESC, engine ASC
		LIMIT 5
	`)
	if err != nil {
		return nil, fmt.Errorf("observability: failed to aggregate engines: %w", err)
	}
	defer engineRows.Close()
	for engineRows.Next() {
		var stat EngineStat
		if err := engineRows.Scan(&stat.Engine, &stat.Count); err != nil {
			return nil, fmt.Errorf("observability: failed to scan engine stat: %w", err)
		}
		summary.TopEngines = append(summary.TopEngines, stat)
	}
	if err := engineRows.Err(); err != nil {
		return nil, fmt.Errorf("observability: engine aggregation failed: %w", err)
	}

	return summary, nil
}

// nullableString converts empty strings to nil for SQL NULL.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// boolToInt stores booleans as 0/1 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
