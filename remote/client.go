package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
)

// DefaultTimeout bounds a revoke call when the caller supplies no HTTP client.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 64 << 10

// LogoutPath is appended to the base URL.
const LogoutPath = "/auth/logout"

// ClientConfig configures a [Client].
type ClientConfig struct {
	// BaseURL is the session service root, e.g. "https://api.example.com".
	BaseURL string
	// HTTPClient performs requests. If nil, a client with DefaultTimeout is used.
	HTTPClient *http.Client
	// Logger receives request diagnostics. If nil, nothing is logged.
	Logger *slog.Logger
}

// Client revokes refresh tokens on the session service.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ goSession.RemoteSessionService = (*Client)(nil)

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type logoutResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("remote: BaseURL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("remote: invalid BaseURL %q: %w", cfg.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("remote: BaseURL %q must be http or https", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + LogoutPath,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Logout asks the service to revoke refreshToken. An empty token is sent
// as is; the service decides what that means.
func (c *Client) Logout(ctx context.Context, refreshToken string) (goSession.RevokeResult, error) {
	payload, err := json.Marshal(logoutRequest{RefreshToken: refreshToken})
	if err != nil {
		return goSession.RevokeResult{}, fmt.Errorf("%w: encode request: %w", goSession.ErrRemoteRevoke, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return goSession.RevokeResult{}, fmt.Errorf("%w: build request: %w", goSession.ErrRemoteRevoke, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goSession.RevokeResult{}, fmt.Errorf("%w: %w", goSession.ErrRemoteRevoke, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return goSession.RevokeResult{}, fmt.Errorf("%w: read response: %w", goSession.ErrRemoteRevoke, err)
	}

	c.logger.Debug("remote logout answered",
		slog.String("endpoint", c.endpoint), slog.Int("status", resp.StatusCode))

	var decoded logoutResponse
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Error bodies are optional; fall back to the status text.
		if json.Unmarshal(body, &decoded) != nil || decoded.Error == "" {
			decoded.Error = fmt.Sprintf("http %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return goSession.RevokeResult{Success: false, Error: decoded.Error}, nil
	}

	if err := json.Unmarshal(body, &decoded); err != nil {
		return goSession.RevokeResult{}, fmt.Errorf("%w: decode response: %w", goSession.ErrRemoteRevoke, err)
	}
	return goSession.RevokeResult{Success: decoded.Success, Error: decoded.Error}, nil
}
