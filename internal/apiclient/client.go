// Package apiclient is the single gateway to the remote REST API. Every call
// carries the bearer token of the session found in the request context, and
// every failure comes back classified as an apperr kind.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
	"github.com/wolfman30/ayurdiet-portal/internal/observability/metrics"
	"github.com/wolfman30/ayurdiet-portal/internal/session"
	"github.com/wolfman30/ayurdiet-portal/pkg/logging"
)

const (
	defaultBaseURL = "http://localhost:5000/api"
	defaultTimeout = 20 * time.Second
	maxErrorBody   = 300
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Tracer     trace.Tracer
	Metrics    *metrics.UpstreamMetrics
}

// Client wraps REST calls to the diet management API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
	tracer     trace.Tracer
	metrics    *metrics.UpstreamMetrics
}

// New constructs an API client.
func New(opts Options, logger *logging.Logger) *Client {
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("ayurdiet.internal.apiclient")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		logger:     logger,
		tracer:     opts.Tracer,
		metrics:    opts.Metrics,
	}
}

// BaseURL reports the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// endpoint is a method plus a templated route such as /appointments/{id}/confirm.
// The route labels spans and metrics; the concrete path is built by at.
type endpoint struct {
	method string
	route  string
}

type target struct {
	endpoint
	path string
}

// at substitutes each {placeholder} of the route, in order, with an escaped param.
func (e endpoint) at(params ...string) target {
	var b strings.Builder
	route := e.route
	for _, p := range params {
		open := strings.IndexByte(route, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(route[open:], '}')
		if end < 0 {
			break
		}
		b.WriteString(route[:open])
		b.WriteString(url.PathEscape(p))
		route = route[open+end+1:]
	}
	b.WriteString(route)
	return target{endpoint: e, path: b.String()}
}

// errorBody is the failure shape of the API, {"error": "..."}; some routes use message.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) doJSON(ctx context.Context, t target, body interface{}, out interface{}) (err error) {
	op := t.method + " " + t.route
	ctx, span := c.tracer.Start(ctx, "apiclient."+strings.ToLower(t.method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", t.method),
			attribute.String("http.route", t.route),
		))
	started := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = apperr.Present(err).Kind
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		c.metrics.ObserveRequest(t.method, t.route, outcome, time.Since(started))
		span.End()
	}()

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, t.method, c.baseURL+t.path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := session.TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("api request failed", "method", t.method, "path", t.path, "error", err)
		return apperr.FromTransport(op, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if apperr.IsTransport(err) {
			return apperr.FromTransport(op, err)
		}
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(respBody)
		c.logger.Warn("api error response",
			"method", t.method,
			"path", t.path,
			"status", resp.StatusCode,
			"body", msg,
		)
		return apperr.FromStatus(op, resp.StatusCode, msg)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return apperr.Wrap(apperr.ErrUpstream, op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func errorMessage(body []byte) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}

// Ping checks that the API answers its health route.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.doJSON(ctx, epHealth.at(), nil, nil); err != nil {
		return fmt.Errorf("ping api: %w", err)
	}
	return nil
}

// isNotFound lets list endpoints that answer 404 for "nothing yet" return empty.
func isNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}
