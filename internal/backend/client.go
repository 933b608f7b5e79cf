// Package backend is the authenticated client for the ERP REST API. Every
// response is a {status, data, message} envelope; a false status becomes an
// *APIError carrying the backend message.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/odyssey-erp/receiving/internal/platform/httpx"
	"github.com/odyssey-erp/receiving/internal/shared"
)

const (
	defaultTimeout    = 15 * time.Second
	idempotencyHeader = "Idempotency-Key"
	maxErrorBody      = 4 << 10
)

// Envelope is the response wrapper used by every backend endpoint.
type Envelope[T any] struct {
	Status  bool   `json:"status"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

// APIError reports a failed backend call.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// UserMessage returns the backend text shown to users.
func (e *APIError) UserMessage() string { return e.Message }

// Unwrap classifies the failure for HTTP mapping.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return httpx.ErrUnauthorized
	case http.StatusNotFound:
		return httpx.ErrNotFound
	case http.StatusConflict:
		return httpx.ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return httpx.ErrValidation
	}
	return httpx.ErrUpstream
}

// TokenSource yields the bearer token for an outbound call.
type TokenSource func(ctx context.Context) string

// ForwardedToken uses the caller's token from ctx, falling back to a service
// token for calls made outside a user request.
func ForwardedToken(serviceToken string) TokenSource {
	return func(ctx context.Context) string {
		if token := shared.BearerTokenFromContext(ctx); token != "" {
			return token
		}
		return serviceToken
	}
}

// Client calls the backend API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *slog.Logger
}

// NewClient constructs a backend client. A zero timeout uses the default.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logger,
	}
}

type request struct {
	op             string
	method         string
	path           []string
	body           any
	idempotencyKey string
	fallback       string
}

// call performs req and decodes the envelope data into T.
func call[T any](ctx context.Context, c *Client, req request) (T, error) {
	var zero T
	endpoint, err := url.JoinPath(c.baseURL, req.path...)
	if err != nil {
		return zero, fmt.Errorf("backend: %s: %w", req.op, err)
	}

	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return zero, fmt.Errorf("backend: %s: encode: %w", req.op, err)
		}
		body = bytes.NewReader(raw)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return zero, fmt.Errorf("backend: %s: %w", req.op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.idempotencyKey != "" {
		httpReq.Header.Set(idempotencyHeader, req.idempotencyKey)
	}
	token := ""
	if c.tokens != nil {
		token = c.tokens(ctx)
	}
	if token == "" {
		return zero, fmt.Errorf("backend: %s: %w: %w", req.op, httpx.ErrUnauthorized, shared.ErrMissingToken)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return zero, fmt.Errorf("backend: %s: %w: %w", req.op, httpx.ErrUpstream, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("backend call",
		slog.String("op", req.op),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(started)))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("backend: %s: read body: %w: %w", req.op, httpx.ErrUpstream, err)
	}

	var env Envelope[T]
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode >= 400 || decodeErr != nil || !env.Status {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = req.fallback
		}
		apiErr := &APIError{Op: req.op, StatusCode: resp.StatusCode, Message: msg}
		if decodeErr != nil {
			c.logger.Warn("backend returned non-envelope body",
				slog.String("op", req.op),
				slog.Int("status", resp.StatusCode),
				slog.String("body", truncate(raw)))
		}
		if resp.StatusCode < 400 {
			// a 2xx with status:false is a business rejection
			apiErr.StatusCode = http.StatusUnprocessableEntity
			if decodeErr != nil {
				apiErr.StatusCode = http.StatusBadGateway
			}
		}
		return zero, apiErr
	}
	return env.Data, nil
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}
