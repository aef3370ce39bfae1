package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/inventory"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/order"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TokenSource supplies bearer tokens for backend calls
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// invalidator is implemented by token sources that cache tokens
type invalidator interface {
	Invalidate()
}

// Client talks to the commerce backend. It is the order feed, the batch
// applier and the stats refresher of the reconciliation service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	validate   *validator.Validate
	tracer     trace.Tracer
	logger     *zap.Logger

	statsMu     sync.RWMutex
	latestStats *inventory.InventoryStats
}

var (
	_ inventory.OrderFeed      = (*Client)(nil)
	_ inventory.BatchApplier   = (*Client)(nil)
	_ inventory.StatsRefresher = (*Client)(nil)
)

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokenSource sets the source of bearer tokens
func WithTokenSource(ts TokenSource) ClientOption {
	return func(c *Client) {
		c.tokens = ts
	}
}

// NewClient creates a backend client
func NewClient(cfg Config, logger *zap.Logger, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		validate:   validator.New(),
		tracer:     otel.Tracer("inventory-backend-client"),
		logger:     logger.Named("backend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListStockAffectingOrders fetches the orders whose status may move stock.
// Malformed orders and line items are dropped with a warning.
func (c *Client) ListStockAffectingOrders(ctx context.Context) (*inventory.FeedSnapshot, error) {
	var resp ordersResponse
	if err := c.doJSON(ctx, http.MethodGet, pathStockAffectingOrders, nil, &resp); err != nil {
		return nil, err
	}

	orders := make([]order.Order, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		if err := c.validate.Struct(o); err != nil {
			c.logger.Warn("Dropping malformed order from feed",
				zap.String("order_number", o.OrderNumber),
				zap.Error(err))
			continue
		}
		items := o.Items[:0:0]
		for _, item := range o.Items {
			if err := c.validate.Struct(item); err != nil {
				c.logger.Warn("Dropping malformed line item from feed",
					zap.String("order_id", o.ID),
					zap.String("product_id", item.ProductID),
					zap.Error(err))
				continue
			}
			items = append(items, item)
		}
		o.Items = items
		orders = append(orders, o)
	}

	return &inventory.FeedSnapshot{
		Orders:       orders,
		LastSyncedAt: resp.LastSyncedAt,
	}, nil
}

// Apply submits adjustments in one batch call
func (c *Client) Apply(ctx context.Context, adjustments []inventory.StockAdjustment) ([]inventory.ApplyResult, error) {
	req := batchRequest{Adjustments: make([]adjustmentPayload, 0, len(adjustments))}
	for _, adj := range adjustments {
		req.Adjustments = append(req.Adjustments, toPayload(adj))
	}

	var resp batchResponse
	if err := c.doJSON(ctx, http.MethodPost, pathBatchAdjustments, req, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// RefreshStats fetches aggregate statistics and caches them
func (c *Client) RefreshStats(ctx context.Context) error {
	var resp statsResponse
	if err := c.doJSON(ctx, http.MethodGet, pathInventoryStats, nil, &resp); err != nil {
		return err
	}

	stats := &inventory.InventoryStats{
		TotalProducts:   resp.TotalProducts,
		TotalStock:      resp.TotalStock,
		LowStockCount:   resp.LowStockCount,
		OutOfStockCount: resp.OutOfStockCount,
		RefreshedAt:     time.Now(),
	}
	c.statsMu.Lock()
	c.latestStats = stats
	c.statsMu.Unlock()
	return nil
}

// LatestStats returns a copy of the last refreshed statistics, or nil
func (c *Client) LatestStats() *inventory.InventoryStats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	if c.latestStats == nil {
		return nil
	}
	stats := *c.latestStats
	return &stats
}

// doJSON performs one request and decodes a JSON response into out
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	ctx, span := c.tracer.Start(ctx, "backend "+method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
	defer span.End()

	err := c.do(ctx, span, method, path, in, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) do(ctx context.Context, span trace.Span, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("backend: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("backend: failed to obtain service token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend: request failed: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("backend: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			if inv, ok := c.tokens.(invalidator); ok {
				inv.Invalidate()
			}
		}
		return fmt.Errorf("%w: HTTP %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("backend: failed to decode response: %w", err)
	}
	return nil
}
