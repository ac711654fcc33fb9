package adapters

import (
	"database/sql"
	"fmt"
)

// Collect drains a result set into a QueryResult. Rows are keyed by column
// name; Columns preserves the query's output order, which is the only order
// authority once rows are serialized as JSON objects. Statements that
// produce no result set (writes, DDL) come back as Status "ok".
func Collect(rows *sql.Rows) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	if len(columns) == 0 {
		return &QueryResult{Status: "ok"}, nil
	}

	var resultRows []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, name := range columns {
			row[name] = normalizeValue(values[i])
		}
		resultRows = append(resultRows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return &QueryResult{
		Columns: columns,
		Rows:    resultRows,
	}, nil
}

// normalizeValue converts driver-specific scan types into JSON-friendly
// values. Drivers hand back []byte for text and numeric columns; serializing
// that raw would base64-encode strings on the wire.
func normalizeValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
