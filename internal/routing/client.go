package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/config"
)

// Request is the projection of an event sent to the routing dependency.
type Request struct {
	EventID           string   `json:"eventId"`
	ShipmentID        string   `json:"shipmentId"`
	MerchantID        string   `json:"merchantId"`
	ShippingCompanyID string   `json:"shippingCompanyId"`
	EventType         string   `json:"eventType"`
	Origin            string   `json:"origin,omitempty"`
	Destination       string   `json:"destination,omitempty"`
	Weight            *float64 `json:"weight,omitempty"`
}

// Result is the routing dependency's response.
type Result struct {
	Routed      bool   `json:"routed"`
	RouteID     string `json:"routeId"`
	ProcessedAt string `json:"processedAt"`
}

// Client is a thin HTTP caller to the external routing dependency. Any
// transport error or non-success response propagates as an error the
// caller treats as transient and retryable.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg *config.RoutingConfig, logger *zap.Logger) *Client {
	return &Client{
		url: cfg.URL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}
}

// Route performs the outbound POST and decodes the result.
func (c *Client) Route(ctx context.Context, request *Request) (*Result, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal routing request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create routing request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("routing call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a bounded slice of the body for the error message
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("routing call returned HTTP %d: %s", resp.StatusCode, snippet)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode routing response: %w", err)
	}

	if !result.Routed {
		return nil, fmt.Errorf("routing dependency declined event %s (routeId %q)", request.EventID, result.RouteID)
	}

	c.logger.Debug("Routing call succeeded",
		zap.String("event_id", request.EventID),
		zap.String("route_id", result.RouteID),
		zap.Duration("latency", time.Since(start)),
	)

	return &result, nil
}
