// Package api defines the public API endpoints and headers for the switchyard gateway.
package api

// API version
const Version = "0.1.0"

// API endpoints
const (
	EndpointQuery   = "/query"
	EndpointHealth  = "/health"
	EndpointReady   = "/readyz"
	EndpointTables  = "/tables"
	EndpointIngest  = "/ingest"
	EndpointMetrics = "/metrics"
)

// HTTP headers
const (
	HeaderContentType = "Content-Type"
	HeaderRequestID   = "X-Request-ID"
)

// Content types
const (
	ContentTypeJSON = "application/json"
)
