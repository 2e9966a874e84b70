package klarna

import (
	"bytes"
	"context"
	"encoding/base64"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/errors"
	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/json"
	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/logger"
	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/metrics"
)

// Provider environments.
//
// Live (production) base URLs:
//   - Europe:        https://api.klarna.com/
//   - North America: https://api-na.klarna.com/
//   - Oceania:       https://api-oc.klarna.com/
//
// Testing (playground) base URLs:
//   - Europe:        https://api.playground.klarna.com/
//   - North America: https://api-na.playground.klarna.com/
//   - Oceania:       https://api-oc.playground.klarna.com/
const (
	EnvironmentPlayground = "playground"
	EnvironmentProduction = "production"
)

const (
	checkoutOrdersPath = "/checkout/v3/orders"
	defaultTimeout     = 15 * time.Second

	// One retry on transport failure, never on an HTTP-level response.
	transportRetries      = 1
	transportRetryBackoff = 500 * time.Millisecond
)

// ClientConfig carries the per-channel provider credentials resolved from the
// app configuration.
type ClientConfig struct {
	APIURL   string
	Username string
	Password string
	Timeout  time.Duration
}

// Client talks to the provider's checkout API. One client per invocation;
// credentials are channel-scoped.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	log      *zap.Logger
}

// NewClient builds a provider client for the given credentials. The base URL
// is normalized (trimmed, no trailing slash) and requests are bounded by the
// configured timeout.
func NewClient(cfg ClientConfig, log *zap.Logger) *Client {
	baseURL := strings.TrimSpace(cfg.APIURL)
	baseURL = strings.TrimSuffix(baseURL, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	cbSettings := gobreaker.Settings{
		Name:        "KlarnaCheckoutCB",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state change", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}

	return &Client{
		baseURL:  baseURL,
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: timeout},
		breaker:  gobreaker.NewCircuitBreaker(cbSettings),
		log:      log,
	}
}

// BaseURL returns the normalized provider base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Environment classifies the client's base URL as playground or production.
// Purely informational; behavior is identical in both.
func (c *Client) Environment() string {
	return EnvironmentFromURL(c.baseURL)
}

// CreateCheckoutOrderResponse is the provider's answer to a checkout-order
// creation.
type CreateCheckoutOrderResponse struct {
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	HTMLSnippet string `json:"html_snippet"`
}

// CreateCheckoutOrder POSTs the order to the provider's checkout-creation
// endpoint. Transport failures get one bounded retry; a non-2xx response is
// surfaced as *errors.HTTPClientError carrying the provider's error body
// verbatim and is never retried.
func (c *Client) CreateCheckoutOrder(ctx context.Context, order *CheckoutOrder) (*CreateCheckoutOrderResponse, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal checkout order")
	}

	var response *CreateCheckoutOrderResponse
	operation := func() error {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.postCheckoutOrder(ctx, body)
		})
		if err != nil {
			var httpErr *errors.HTTPClientError
			if stderrors.As(err, &httpErr) {
				return backoff.Permanent(err)
			}
			if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}
			return err
		}
		resp, ok := result.(*CreateCheckoutOrderResponse)
		if !ok {
			return backoff.Permanent(errors.Invariant("unexpected breaker result type %T", result))
		}
		response = resp
		return nil
	}

	retryPolicy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(transportRetryBackoff), transportRetries),
		ctx,
	)
	if err := backoff.Retry(operation, retryPolicy); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *Client) postCheckoutOrder(ctx context.Context, body []byte) (*CreateCheckoutOrderResponse, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+checkoutOrdersPath, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", authorizationHeader(c.username, c.password))
	if id := logger.CorrelationID(ctx); id != "" {
		req.Header.Set("Klarna-Correlation-Id", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ProviderRequestDuration.WithLabelValues(metrics.OutcomeError).Observe(time.Since(start).Seconds())
		return nil, errors.Wrap(err, "failed to call provider")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.ProviderRequestDuration.WithLabelValues(metrics.OutcomeRejected).Observe(time.Since(start).Seconds())
		return nil, readClientError(resp)
	}

	var result CreateCheckoutOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metrics.ProviderRequestDuration.WithLabelValues(metrics.OutcomeError).Observe(time.Since(start).Seconds())
		return nil, errors.Wrap(err, "failed to decode provider response")
	}

	metrics.ProviderRequestDuration.WithLabelValues(metrics.OutcomeSuccess).Observe(time.Since(start).Seconds())
	return &result, nil
}

// readClientError preserves the provider's error body verbatim, wrapped in a
// single-entry errors array the way the platform expects it echoed back.
func readClientError(resp *http.Response) error {
	var data interface{}
	raw, err := io.ReadAll(resp.Body)
	if err == nil && len(raw) > 0 {
		if jsonErr := json.Unmarshal(raw, &data); jsonErr != nil {
			data = string(raw)
		}
	}
	return &errors.HTTPClientError{
		StatusText: resp.Status,
		Errors:     []any{data},
	}
}

func authorizationHeader(username, password string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return "Basic " + encoded
}

// EnvironmentFromURL classifies a provider base URL as a test environment
// when it points at a playground host.
func EnvironmentFromURL(url string) string {
	if strings.Contains(url, ".playground.") {
		return EnvironmentPlayground
	}
	return EnvironmentProduction
}
