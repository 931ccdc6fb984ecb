package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yndnr/tokguard-go/internal/infra/buildinfo"
	"github.com/yndnr/tokguard-go/internal/infra/tlsroots"
)

// maxResponseBytes bounds a decoded response body.
const maxResponseBytes = 4 << 20

// Options configures an HTTPClient.
type Options struct {
	Server  string
	APIKey  string
	CAFile  string
	Timeout time.Duration
}

// APIError is an error envelope returned by the server.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

// HTTPClient provides HTTP communication with the server.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient creates a client. A server without scheme gets http://.
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	baseURL := strings.TrimRight(opts.Server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", opts.Server, err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.CAFile != "" {
		tlsCfg, err := tlsroots.ClientConfigFromFile(opts.CAFile)
		if err != nil {
			return nil, fmt.Errorf("load CA file: %w", err)
		}
		transport.TLSClientConfig = tlsCfg
	}

	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  opts.APIKey,
		client:  &http.Client{Timeout: timeout, Transport: transport},
	}, nil
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Do sends a request without body and decodes the envelope's data into
// out, which may be nil.
func (c *HTTPClient) Do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "tokguard-cli/"+buildinfo.Version)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return parseResponse(resp, out)
}

func parseResponse(resp *http.Response, out any) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Code, apiErr.Message, apiErr.RequestID = env.Code, env.Message, env.RequestID
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("parse response: %w", decodeErr)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("parse response data: %w", err)
		}
	}
	return nil
}

// Status is the body of GET /admin/v1/status.
type Status struct {
	Status         string         `json:"status"`
	Build          buildinfo.Info `json:"build"`
	Backend        string         `json:"backend"`
	ActiveSessions int            `json:"active_sessions"`
	UptimeSeconds  int64          `json:"uptime_seconds"`
	LogLevel       string         `json:"log_level"`
}

// Session is the operator view of a session.
type Session struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
	LastActive       time.Time `json:"last_active" yaml:"last_active"`
	ExpiresAt        time.Time `json:"expires_at" yaml:"expires_at"`
	Keys             int       `json:"keys"`
	HasToken         bool      `json:"has_token" yaml:"has_token"`
	TokenMasked      string    `json:"token_masked,omitempty" yaml:"token_masked,omitempty"`
	TokenFingerprint string    `json:"token_fingerprint,omitempty" yaml:"token_fingerprint,omitempty"`
}

// GeneratedToken is the body of POST /admin/v1/tokens/generate.
type GeneratedToken struct {
	Token       string `json:"token"`
	Fingerprint string `json:"fingerprint"`
}

// Health is the body of /health and /ready.
type Health struct {
	Status string `json:"status"`
	Time   string `json:"time"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Status fetches the server status.
func (c *HTTPClient) Status(ctx context.Context) (*Status, error) {
	var s Status
	if err := c.Do(ctx, http.MethodGet, "/admin/v1/status", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Health calls /health, or /ready when ready is set.
func (c *HTTPClient) Health(ctx context.Context, ready bool) (*Health, error) {
	path := "/health"
	if ready {
		path = "/ready"
	}
	var h Health
	if err := c.Do(ctx, http.MethodGet, path, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// GetSession inspects a session.
func (c *HTTPClient) GetSession(ctx context.Context, id string) (*Session, error) {
	var s Session
	if err := c.Do(ctx, http.MethodGet, "/admin/v1/sessions/"+url.PathEscape(id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// RotateSessionToken replaces the token of a session.
func (c *HTTPClient) RotateSessionToken(ctx context.Context, id string) (*Session, error) {
	var s Session
	if err := c.Do(ctx, http.MethodPost, "/admin/v1/sessions/"+url.PathEscape(id)+"/rotate", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// RevokeSession deletes a session.
func (c *HTTPClient) RevokeSession(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/admin/v1/sessions/"+url.PathEscape(id), nil)
}

// GenerateToken asks the server for a token not bound to any session.
func (c *HTTPClient) GenerateToken(ctx context.Context) (*GeneratedToken, error) {
	var g GeneratedToken
	if err := c.Do(ctx, http.MethodPost, "/admin/v1/tokens/generate", &g); err != nil {
		return nil, err
	}
	return &g, nil
}
