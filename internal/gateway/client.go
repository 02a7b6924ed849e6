package gateway

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

	"github.com/otcheredev/hms-web/internal/metrics"
	"github.com/rs/zerolog/log"
)

const maxResponseBytes = 10 << 20

// TokenSource returns the bearer token to attach to a request, or "" to send it unauthenticated
type TokenSource func(ctx context.Context) string

// UnauthorizedHook is invoked whenever a backend answers 401
type UnauthorizedHook func(ctx context.Context)

// Client talks to one backend service. All clients share the same policy:
// bearer token from the session, 401 teardown through the registered hook.
type Client struct {
	name           string
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	onUnauthorized UnauthorizedHook
}

// ClientConfig configures a backend client
type ClientConfig struct {
	Name           string
	BaseURL        string
	Timeout        time.Duration
	Tokens         TokenSource
	OnUnauthorized UnauthorizedHook
	Transport      http.RoundTripper
}

// NewClient creates a backend client
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = func(context.Context) string { return "" }
	}
	return &Client{
		name:    cfg.Name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: cfg.Transport,
		},
		tokens:         tokens,
		onUnauthorized: cfg.OnUnauthorized,
	}
}

// Name returns the backend name used in logs and metrics
func (c *Client) Name() string {
	return c.name
}

// envelope is the wrapper every backend response uses around its payload
type envelope struct {
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e envelope) hasData() bool {
	trimmed := bytes.TrimSpace(e.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Do sends a JSON request and decodes the envelope's data into out.
// A missing or null data field leaves out untouched.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	start := time.Now()
	err := c.do(ctx, method, path, query, body, out)
	metrics.ObserveBackendCall(c.name, method, outcome(err), time.Since(start))
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return c.fail(method, path, 0, "", fmt.Errorf("failed to encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return c.fail(method, path, 0, "", fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.addAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(method, path, 0, "", fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.fail(method, path, resp.StatusCode, "", fmt.Errorf("failed to read response: %w", err))
	}

	var env envelope
	var decodeErr error
	if len(bytes.TrimSpace(raw)) > 0 {
		decodeErr = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		log.Warn().Str("backend", c.name).Str("path", path).Msg("Backend rejected session token")
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return c.fail(method, path, resp.StatusCode, env.Message, nil)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.fail(method, path, resp.StatusCode, env.Message, nil)
	}

	if decodeErr != nil {
		return c.fail(method, path, 0, "", fmt.Errorf("failed to decode response: %w", decodeErr))
	}

	if out == nil || !env.hasData() {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return c.fail(method, path, 0, "", fmt.Errorf("failed to decode response data: %w", err))
	}
	return nil
}

func (c *Client) fail(method, path string, status int, message string, err error) *Error {
	kind := KindNetworkOrServer
	if status != 0 {
		kind = kindForStatus(status)
	}
	return &Error{
		Kind:    kind,
		Backend: c.name,
		Method:  method,
		Path:    path,
		Status:  status,
		Message: message,
		Err:     err,
	}
}

// addAuth attaches the session's bearer token, when there is one
func (c *Client) addAuth(req *http.Request) {
	if token := c.tokens(req.Context()); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind.String()
	}
	return "error"
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, query, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func cidQuery(cid string) url.Values {
	if cid == "" {
		return nil
	}
	return url.Values{"cid": []string{cid}}
}
