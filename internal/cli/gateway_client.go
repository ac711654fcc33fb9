package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/switchyard-labs/switchyard/internal/errors"
	"github.com/switchyard-labs/switchyard/pkg/api"
	"github.com/switchyard-labs/switchyard/pkg/models"
)

// GatewayClient is the HTTP client for communicating with the switchyard
// gateway. The CLI is a client, not an emulator: every command that shows
// routing behavior asks the running gateway.
type GatewayClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewGatewayClient creates a new gateway client.
func NewGatewayClient(endpoint string) *GatewayClient {
	return &GatewayClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Endpoint returns the configured gateway endpoint.
func (c *GatewayClient) Endpoint() string {
	return c.endpoint
}

// Query executes a statement through the gateway. The gateway answers 200
// for every routed query, so a non-200 status here is a transport-level
// failure, not a backend one.
func (c *GatewayClient) Query(ctx context.Context, sql, forceEngine string) (*models.QueryResponse, error) {
	if c.endpoint == "" {
		return nil, errors.NewGatewayUnavailable("", "no gateway endpoint configured")
	}

	body, _ := json.Marshal(models.QueryRequest{SQL: sql, ForceEngine: forceEngine})
	resp, err := c.doRequest(ctx, http.MethodPost, api.EndpointQuery, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var result models.QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// Health retrieves liveness and the registered engine names.
func (c *GatewayClient) Health(ctx context.Context) (*models.HealthResponse, error) {
	if c.endpoint == "" {
		return nil, errors.NewGatewayUnavailable("", "no gateway endpoint configured")
	}

	resp, err := c.doRequest(ctx, http.MethodGet, api.EndpointHealth, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var result models.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// Readiness retrieves the per-engine probe results. A degraded gateway
// answers 503 with the same body shape, so both statuses decode here and
// the Ready field carries the verdict.
func (c *GatewayClient) Readiness(ctx context.Context) (*models.ReadinessResponse, error) {
	if c.endpoint == "" {
		return nil, errors.NewGatewayUnavailable("", "no gateway endpoint configured")
	}

	resp, err := c.doRequest(ctx, http.MethodGet, api.EndpointReady, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, c.parseErrorResponse(resp)
	}

	var result models.ReadinessResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// ListTables retrieves the logical tables in the lake bucket.
func (c *GatewayClient) ListTables(ctx context.Context) ([]string, error) {
	if c.endpoint == "" {
		return nil, errors.NewGatewayUnavailable("", "no gateway endpoint configured")
	}

	resp, err := c.doRequest(ctx, http.MethodGet, api.EndpointTables, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var result models.TablesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Tables, nil
}

// Ingest asks the gateway to copy a CSV file into the lake. Both the 200
// and 500 answers carry an IngestResponse body.
func (c *GatewayClient) Ingest(ctx context.Context, table, csvPath string) (*models.IngestResponse, error) {
	if c.endpoint == "" {
		return nil, errors.NewGatewayUnavailable("", "no gateway endpoint configured")
	}

	body, _ := json.Marshal(models.IngestRequest{Table: table, CSVPath: csvPath})
	resp, err := c.doRequest(ctx, http.MethodPost, api.EndpointIngest, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusInternalServerError {
		return nil, c.parseErrorResponse(resp)
	}

	var result models.IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// doRequest performs an HTTP request to the gateway.
func (c *GatewayClient) doRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	url := c.endpoint + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(api.HeaderContentType, api.ContentTypeJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewGatewayUnavailable(c.endpoint, err.Error())
	}

	return resp, nil
}

// parseErrorResponse parses an error response from the gateway.
func (c *GatewayClient) parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp models.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("gateway error: %d - %s", resp.StatusCode, string(body))
	}
	return fmt.Errorf("%s", errResp.Error)
}
