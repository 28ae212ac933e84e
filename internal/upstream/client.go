// Package upstream is the typed client for the marketplace API that owns
// mentors, session-type catalogs, availability and bookings. This service
// keeps no durable state of its own; every read and write goes through here.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/mentorhub/booking-api/internal/models"
	"github.com/mentorhub/booking-api/pkg/circuitbreaker"
	apperrors "github.com/mentorhub/booking-api/pkg/errors"
	"github.com/mentorhub/booking-api/pkg/httpclient"
	"github.com/mentorhub/booking-api/pkg/logger"
	"github.com/mentorhub/booking-api/pkg/metrics"
	"github.com/mentorhub/booking-api/pkg/retry"
)

// StatusError is returned for any non-2xx marketplace response. A non-2xx is
// always a recoverable UI error, never conflated with an empty result.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Code, e.Body)
}

// Unwrap lets callers match with errors.Is(err, apperrors.ErrUnavailable).
func (e *StatusError) Unwrap() error {
	return apperrors.ErrUnavailable
}

// HTTPClient talks to the marketplace API over HTTP with a circuit breaker
// around all calls and retry on idempotent reads only.
type HTTPClient struct {
	baseURL  string
	apiToken string
	http     httpclient.Client
	breaker  *gobreaker.CircuitBreaker
	catalog  *gocache.Cache // session-type catalogs keyed by mentor id
}

// readRetryConfig retries transport failures and 5xx responses; a 4xx is a
// deterministic answer and is returned as-is.
func readRetryConfig() retry.Config {
	cfg := retry.UpstreamConfig()
	cfg.RetryableErrors = func(err error) bool {
		var se *StatusError
		if errors.As(err, &se) {
			return se.Code >= 500
		}
		return true
	}
	return cfg
}

// NewHTTPClient creates a marketplace API client. catalogTTL bounds how long
// a mentor's session-type catalog is served from memory.
func NewHTTPClient(baseURL, apiToken string, hc httpclient.Client, catalogTTL time.Duration) *HTTPClient {
	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("marketplace"))

	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		http:     hc,
		breaker:  cb,
		catalog:  gocache.New(catalogTTL, time.Minute),
	}
}

// Breaker exposes the circuit breaker state for health reporting.
func (c *HTTPClient) Breaker() *gobreaker.CircuitBreaker {
	return c.breaker
}

// GetSessionTypes fetches a mentor's bookable offerings, serving from the
// catalog cache when fresh.
func (c *HTTPClient) GetSessionTypes(ctx context.Context, mentorID string) ([]models.SessionType, error) {
	if cached, found := c.catalog.Get(mentorID); found {
		if types, ok := cached.([]models.SessionType); ok {
			metrics.CatalogCacheHits.Inc()
			return types, nil
		}
	}
	metrics.CatalogCacheMisses.Inc()

	url := fmt.Sprintf("%s/mentors/%s/session-types", c.baseURL, mentorID)
	types, err := getJSON[[]models.SessionType](ctx, c, "getSessionTypes", url)
	if err != nil {
		return nil, err
	}

	c.catalog.SetDefault(mentorID, types)
	return types, nil
}

// GetAvailability fetches a mentor's slots for a bounded date window.
func (c *HTTPClient) GetAvailability(ctx context.Context, mentorID string, start, end time.Time) ([]models.AvailabilitySlot, error) {
	url := fmt.Sprintf("%s/mentors/%s/availability?start_date=%s&end_date=%s",
		c.baseURL, mentorID, start.Format("2006-01-02"), end.Format("2006-01-02"))

	envelope, err := getJSON[models.AvailabilityEnvelope](ctx, c, "getAvailability", url)
	if err != nil {
		return nil, err
	}
	return envelope.AvailableSlots, nil
}

// CreateBooking submits a booking. Never retried: the caller's single-flight
// guard assumes at most one request leaves per confirmation.
func (c *HTTPClient) CreateBooking(ctx context.Context, req *models.BookingRequest) (*models.BookingCreated, error) {
	url := c.baseURL + "/bookings/create"
	created, err := postJSON[models.BookingCreated](ctx, c, "createBooking", url, req)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// RescheduleBooking moves an existing booking. Never retried, same as create.
func (c *HTTPClient) RescheduleBooking(ctx context.Context, bookingID string, req *models.RescheduleRequest) error {
	url := fmt.Sprintf("%s/bookings/%s/reschedule", c.baseURL, bookingID)
	_, err := postJSON[json.RawMessage](ctx, c, "rescheduleBooking", url, req)
	return err
}

// getJSON performs an authenticated GET with retry and breaker protection.
func getJSON[T any](ctx context.Context, c *HTTPClient, operation, url string) (T, error) {
	var zero T

	result, err := circuitbreaker.Execute(c.breaker, func() (T, error) {
		return retry.DoWithResult(ctx, readRetryConfig(), operation, func() (T, error) {
			return doRequest[T](ctx, c, operation, http.MethodGet, url, nil)
		})
	})
	if err != nil {
		return zero, circuitbreaker.FormatError(c.breaker.Name(), err)
	}
	return result, nil
}

// postJSON performs an authenticated POST with breaker protection but no
// retry.
func postJSON[T any](ctx context.Context, c *HTTPClient, operation, url string, body any) (T, error) {
	var zero T

	payload, err := json.Marshal(body)
	if err != nil {
		return zero, fmt.Errorf("failed to encode %s payload: %w", operation, err)
	}

	result, err := circuitbreaker.Execute(c.breaker, func() (T, error) {
		return doRequest[T](ctx, c, operation, http.MethodPost, url, payload)
	})
	if err != nil {
		return zero, circuitbreaker.FormatError(c.breaker.Name(), err)
	}
	return result, nil
}

func doRequest[T any](ctx context.Context, c *HTTPClient, operation, method, url string, payload []byte) (T, error) {
	var zero T
	start := time.Now()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return zero, fmt.Errorf("failed to build %s request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		recordUpstream(operation, "error", start)
		return zero, fmt.Errorf("%s: %w", operation, apperrors.ErrUnavailable)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		recordUpstream(operation, "error", start)
		return zero, fmt.Errorf("failed to read %s response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		recordUpstream(operation, "error", start)
		logger.Warn("Marketplace API returned error status",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode))
		return zero, &StatusError{Code: resp.StatusCode, Body: truncate(string(raw), 512)}
	}

	var result T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			recordUpstream(operation, "error", start)
			return zero, fmt.Errorf("failed to decode %s response: %w", operation, err)
		}
	}

	recordUpstream(operation, "success", start)
	return result, nil
}

func recordUpstream(operation, status string, start time.Time) {
	duration := metrics.MeasureDuration(start)
	metrics.UpstreamRequestDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.UpstreamRequestTotal.WithLabelValues(operation, status).Inc()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
