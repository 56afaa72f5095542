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
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/patient-companion/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/patient-companion/pkg/errors"
	"github.com/jwalitptl/patient-companion/pkg/logger"
	"github.com/jwalitptl/patient-companion/pkg/metrics"
)

const (
	DefaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
)

type Config struct {
	BaseURL            string
	Timeout            time.Duration
	RequestsPerSecond  float64
	Burst              int
	BreakerMaxFailures int
	BreakerTimeout     time.Duration
	BankCacheTTL       time.Duration
}

// Client talks to the remote marketplace API on behalf of the signed-in user.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
	breaker *circuitbreaker.CircuitBreaker
	cache   *cache.Cache
	bankTTL time.Duration
	log     *logger.Logger
	metrics *metrics.Metrics
}

func New(cfg Config, log *logger.Logger, m *metrics.Metrics) (*Client, error) {
	return NewWithTransport(cfg, nil, log, m)
}

// NewWithTransport lets tests swap the RoundTripper.
func NewWithTransport(cfg Config, tr http.RoundTripper, log *logger.Logger, m *metrics.Metrics) (*Client, error) {
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BankCacheTTL <= 0 {
		cfg.BankCacheTTL = time.Hour
	}
	if log == nil {
		log = logger.Nop()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}

	if tr == nil {
		tr = http.DefaultTransport
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout, Transport: tr},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: rate.NewLimiter(limit, burst),
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "remote-api",
			MaxFailures: cfg.BreakerMaxFailures,
			Timeout:     cfg.BreakerTimeout,
			IsFailure:   func(err error) bool { return apperrors.Is(err, apperrors.KindNetwork) },
		}),
		cache:   cache.New(cfg.BankCacheTTL, 2*cfg.BankCacheTTL),
		bankTTL: cfg.BankCacheTTL,
		log:     log,
		metrics: m,
	}, nil
}

type tokenKey struct{}

// WithToken attaches the caller's bearer token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// envelope is the shape every remote response comes wrapped in.
type envelope struct {
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type request struct {
	method      string
	path        string
	endpoint    string
	query       url.Values
	body        io.Reader
	contentType string
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, endpoint: endpoint, query: query}, out)
}

func (c *Client) sendJSON(ctx context.Context, method, endpoint, path string, in, out any) error {
	req := request{method: method, path: path, endpoint: endpoint}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return apperrors.Internal(fmt.Errorf("marshal %s request: %w", endpoint, err))
		}
		req.body = bytes.NewReader(b)
		req.contentType = "application/json"
	}
	return c.do(ctx, req, out)
}

func (c *Client) sendMultipart(ctx context.Context, endpoint, path string, form *Multipart, out any) error {
	body, contentType, err := form.Encode()
	if err != nil {
		return apperrors.Validation("invalid form", err)
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		endpoint:    endpoint,
		body:        body,
		contentType: contentType,
	}, out)
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.Network("request canceled", err)
	}

	start := time.Now()
	status := 0
	err := c.breaker.Execute(func() error {
		var err error
		status, err = c.roundTrip(ctx, r, out)
		return err
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		err = apperrors.Network("remote service unavailable", err)
	}

	if c.metrics != nil {
		c.metrics.APIRequests.WithLabelValues(r.endpoint, strconv.Itoa(status)).Inc()
		c.metrics.APILatency.WithLabelValues(r.endpoint).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.log.Warn("remote request failed",
			"endpoint", r.endpoint,
			"method", r.method,
			"status", status,
			"error", err.Error())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, r request, out any) (int, error) {
	u := c.baseURL + "/" + strings.TrimLeft(r.path, "/")
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return 0, apperrors.Internal(fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, apperrors.Network("remote service unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, apperrors.Network("failed to read response", err)
	}

	var env envelope
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, statusError(resp.StatusCode, env.Message, raw)
	}
	if env.Success != nil && !*env.Success {
		return resp.StatusCode, apperrors.Validation(nonEmpty(env.Message, "request rejected"), nil)
	}

	if out == nil || len(raw) == 0 {
		return resp.StatusCode, nil
	}
	payload := raw
	if len(env.Data) > 0 {
		payload = env.Data
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return resp.StatusCode, apperrors.Internal(fmt.Errorf("decode %s response: %w", r.endpoint, err))
	}
	return resp.StatusCode, nil
}

// StatusError is the raw failure behind a non-2xx AppError.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, e.Body)
}

func statusError(code int, message string, raw []byte) error {
	cause := &StatusError{StatusCode: code, Body: strings.TrimSpace(string(raw))}
	switch {
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return apperrors.Validation(nonEmpty(message, "invalid request"), cause)
	case code == http.StatusUnauthorized:
		return apperrors.New(apperrors.KindUnauthorized, nonEmpty(message, "unauthorized"), cause)
	case code == http.StatusForbidden:
		return apperrors.Permission(nonEmpty(message, "forbidden"), cause)
	case code == http.StatusNotFound:
		return apperrors.New(apperrors.KindNotFound, nonEmpty(message, "not found"), cause)
	case code == http.StatusConflict:
		return apperrors.Conflict(nonEmpty(message, "conflict"), cause)
	case code == http.StatusTooManyRequests || code >= 500:
		return apperrors.Network(nonEmpty(message, "remote service error"), cause)
	}
	return apperrors.New(apperrors.KindInternal, nonEmpty(message, "unexpected response"), cause)
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func pageQuery(page, pageSize int) url.Values {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return url.Values{
		"page":  []string{strconv.Itoa(page)},
		"limit": []string{strconv.Itoa(pageSize)},
	}
}
