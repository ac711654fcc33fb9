// Package models provides shared data models for the switchyard public API.
package models

import "encoding/json"

// QueryRequest is the API request for executing a query.
// ForceEngine, when set, bypasses classification and names the target
// engine directly.
type QueryRequest struct {
	SQL         string `json:"sql"`
	ForceEngine string `json:"force_engine,omitempty"`
}

// QueryResponse is the API response for a query execution.
// Exactly one of Data, Status, or Error is populated. Engine and Duration
// are always populated; Duration is elapsed seconds.
type QueryResponse struct {
	Data     []map[string]interface{} `json:"data,omitempty"`
	Columns  []string                 `json:"columns,omitempty"`
	Status   string                   `json:"status,omitempty"`
	Error    string                   `json:"error,omitempty"`
	Engine   string                   `json:"engine"`
	Duration float64                  `json:"duration"`
}

// MarshalJSON enforces key presence on the wire: exactly one of data,
// status, or error appears, and engine and duration always appear. An
// empty rowset is emitted as "data": [] with its "columns", not omitted,
// so callers can distinguish zero rows from a statement with no result
// set. Decoding uses the plain struct tags.
func (r QueryResponse) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"engine":   r.Engine,
		"duration": r.Duration,
	}
	switch {
	case r.Error != "":
		out["error"] = r.Error
	case r.Status != "":
		out["status"] = r.Status
	default:
		data := r.Data
		if data == nil {
			data = []map[string]interface{}{}
		}
		columns := r.Columns
		if columns == nil {
			columns = []string{}
		}
		out["data"] = data
		out["columns"] = columns
	}
	return json.Marshal(out)
}

// HealthResponse is the API response for the liveness endpoint.
type HealthResponse struct {
	Status  string   `json:"status"`
	Engines []string `json:"engines"`
}

// ReadinessResponse is the API response for the readiness endpoint.
// Engines maps each registered engine name to "ok" or its probe error.
type ReadinessResponse struct {
	Ready   bool              `json:"ready"`
	Engines map[string]string `json:"engines"`
}

// TablesResponse lists the logical tables discovered in object storage.
type TablesResponse struct {
	Tables []string `json:"tables"`
}

// IngestRequest is the API request for loading a CSV file into the lake.
type IngestRequest struct {
	Table   string `json:"table"`
	CSVPath string `json:"csv_path"`
}

// IngestResponse is the API response for an ingest call.
type IngestResponse struct {
	Status string `json:"status,omitempty"`
	Path   string `json:"path,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ErrorResponse is the API response for transport-level errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
