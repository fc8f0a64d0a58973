package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/promstudy/promstudy/internal/client/models"
	"github.com/promstudy/promstudy/internal/logging"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

const maxErrorBody = 1 << 20

// Client talks to the promstudy REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logging.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger failed requests are reported to, together
// with their request id. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Token exchanges a username (or email) and password for an access token.
func (c *Client) Token(ctx context.Context, username, password string) (string, error) {
	var resp tokenResponse
	body := models.Credentials{Username: username, Password: password}
	if err := c.doRequest(ctx, http.MethodPost, "/token", "", body, &resp); err != nil {
		return "", fmt.Errorf("client.Token: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("client.Token: empty access token in response")
	}
	return resp.AccessToken, nil
}

// Me returns the profile that owns token.
func (c *Client) Me(ctx context.Context, token string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := c.doRequest(ctx, http.MethodGet, "/users/me", token, nil, &p); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &p, nil
}

// Signup creates an account together with its profile.
func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (*models.UserProfile, error) {
	var created models.UserProfile
	if err := c.doRequest(ctx, http.MethodPost, "/signup", "", req, &created); err != nil {
		return nil, fmt.Errorf("client.Signup: %w", err)
	}
	return &created, nil
}

// PromptCount returns the number of published prompts.
func (c *Client) PromptCount(ctx context.Context) (int64, error) {
	var n int64
	if err := c.doRequest(ctx, http.MethodGet, "/stats/prompts/count", "", nil, &n); err != nil {
		return 0, fmt.Errorf("client.PromptCount: %w", err)
	}
	return n, nil
}

// TotalLikes returns the net number of likes across all prompts.
func (c *Client) TotalLikes(ctx context.Context) (int64, error) {
	var n int64
	if err := c.doRequest(ctx, http.MethodGet, "/stats/prompts/total-likes", "", nil, &n); err != nil {
		return 0, fmt.Errorf("client.TotalLikes: %w", err)
	}
	return n, nil
}

func (c *Client) doRequest(ctx context.Context, method, path, token string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn(ctx, "request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return fmt.Errorf("%w: request %s: %w", ErrUnavailable, requestID, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		httpErr := &HTTPError{StatusCode: resp.StatusCode, RequestID: requestID}
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			httpErr.Detail = fmt.Sprintf("failed to read body: %v", readErr)
		} else {
			httpErr.Detail = parseDetail(respBody)
		}
		c.log.Debug(ctx, "request rejected", "method", method, "path", path, "request_id", requestID,
			"status", resp.StatusCode, "detail", httpErr.Detail)
		return httpErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// parseDetail extracts the FastAPI-style "detail" field. It is either a
// string or a list of validation errors with a "msg" each.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &envelope) != nil || len(envelope.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var s string
	if json.Unmarshal(envelope.Detail, &s) == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(envelope.Detail, &items) == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return string(envelope.Detail)
}
