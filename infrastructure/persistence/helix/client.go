// Package helix is the HelixDB document store client. HelixDB exposes named
// queries as POST /query/<name> with a JSON argument object.
package helix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"coursegraph/domain/graph"
	pkgerrors "coursegraph/pkg/errors"
	"coursegraph/pkg/observability"
)

const (
	QueryDocumentsByUser  = "getPDFsByUser"
	QueryRelatedDocuments = "getRelatedPDFs"

	maxResponseBytes = 8 << 20
)

// Config configures the HelixDB client
type Config struct {
	BaseURL string
	Timeout time.Duration

	// Circuit breaker
	MaxRequests      uint32
	Interval         time.Duration
	OpenTimeout      time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultConfig returns the client defaults for baseURL
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:          baseURL,
		Timeout:          10 * time.Second,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		OpenTimeout:      60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Client implements ports.DocumentStore over HelixDB's HTTP query API
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	tracer     trace.Tracer
	metrics    *observability.Collector
	logger     *zap.Logger
}

// NewClient creates a HelixDB client
func NewClient(config Config, httpClient *http.Client, metrics *observability.Collector, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "helix",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		baseURL:    config.BaseURL,
		httpClient: httpClient,
		breaker:    breaker,
		tracer:     otel.Tracer("coursegraph/helix"),
		metrics:    metrics,
		logger:     logger,
	}
}

// StatusError is a non-2xx answer from the store
type StatusError struct {
	Query  string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("helix query %s failed: status %d", e.Query, e.Status)
}

// Query runs a named query and returns the raw response body
func (c *Client) Query(ctx context.Context, name string, args any) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "helix.Query", trace.WithAttributes(attribute.String("helix.query", name)))
	defer span.End()

	start := time.Now()
	out, err := c.breaker.Execute(func() (any, error) {
		return c.do(ctx, name, args)
	})
	c.metrics.RecordHelixQuery(name, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("helix query %s: %w", name, err)
		}
		return nil, err
	}
	return out.([]byte), nil
}

func (c *Client) do(ctx context.Context, name string, args any) ([]byte, error) {
	if args == nil {
		args = struct{}{}
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode helix args: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query/"+name, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build helix request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("helix query %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Query: name, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read helix response: %w", err)
	}
	return body, nil
}

// DocumentsByUser returns the user's documents. The query may return other
// users' records, which are filtered out here.
func (c *Client) DocumentsByUser(ctx context.Context, userID string) ([]graph.Document, error) {
	body, err := c.Query(ctx, QueryDocumentsByUser, map[string]string{"user_id": userID})
	if err != nil {
		return nil, err
	}

	all, err := normalizeDocuments(body, "pdfs")
	if err != nil {
		return nil, err
	}

	docs := make([]graph.Document, 0, len(all))
	for _, d := range all {
		if d.UserID == userID {
			docs = append(docs, d)
		}
	}

	c.logger.Debug("Fetched documents",
		zap.String("userID", userID),
		zap.Int("total", len(all)),
		zap.Int("owned", len(docs)),
	)
	return docs, nil
}

// RelatedDocuments returns the documents related to pdfID
func (c *Client) RelatedDocuments(ctx context.Context, pdfID int64) ([]graph.Document, error) {
	body, err := c.Query(ctx, QueryRelatedDocuments, map[string]int64{"pdf_id": pdfID})
	if err != nil {
		return nil, err
	}
	return normalizeDocuments(body, "related")
}

// Ready reports an error while the circuit breaker is open
func (c *Client) Ready(context.Context) error {
	if c.breaker.State() == gobreaker.StateOpen {
		return pkgerrors.NewUnavailableError("helix").WithCause(gobreaker.ErrOpenState)
	}
	return nil
}
