// Package api is the typed client for the upstream NETTUBE REST API.
// Every exported method maps to exactly one REST operation, attaches the
// session's token headers, and decodes the upstream response envelope.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yudswin/nettube/internal/session"
)

const defaultTimeout = 30 * time.Second

// Header names the upstream expects credentials under.
const (
	headerAccessToken  = "accesstoken"
	headerRefreshToken = "refreshtoken"
)

// Client talks to the upstream NETTUBE API. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Session
	userAgent  string
}

// New creates a Client for the given base URL. sess may not be nil;
// unauthenticated endpoints simply send no token headers while the
// session is empty. If timeout is zero a 30s default applies.
func New(baseURL string, sess *session.Session, userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		session:    sess,
		userAgent:  userAgent,
	}
}

// envelope is the upstream response wrapper. Exactly one of Result or
// Error carries data depending on Status.
type envelope struct {
	Status  string          `json:"status"` // success | failed
	Msg     string          `json:"msg"`
	Result  json.RawMessage `json:"result"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

// do performs one request and decodes the success result into T.
// query and body may be nil. A 401 response clears the session before
// returning, so stale credentials can never be replayed.
func do[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (T, error) {
	var zero T

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return zero, fmt.Errorf("new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decode[T](c, resp)
}

// decode reads an envelope response and maps it onto T or an error.
func decode[T any](c *Client, resp *http.Response) (T, error) {
	var zero T

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Invalidate the session; the caller must log in again.
		if cerr := c.session.Clear(); cerr != nil {
			return zero, fmt.Errorf("%w (session clear: %v)", ErrUnauthorized, cerr)
		}
		return zero, ErrUnauthorized
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, fmt.Errorf("request failed: undecodable response (HTTP %d): %w", resp.StatusCode, err)
	}

	if env.Status != "success" {
		return zero, &APIError{
			HTTPStatus: resp.StatusCode,
			Msg:        env.Msg,
			Err:        env.Error,
			Details:    env.Details,
		}
	}

	if len(env.Result) == 0 || string(env.Result) == "null" {
		return zero, nil
	}
	var out T
	if err := json.Unmarshal(env.Result, &out); err != nil {
		return zero, fmt.Errorf("decode result: %w", err)
	}
	return out, nil
}

// setHeaders attaches the user agent and, when a session is active, the
// upstream token headers.
func (c *Client) setHeaders(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	tok, err := c.session.Tokens()
	if err != nil {
		return // unauthenticated request
	}
	req.Header.Set(headerAccessToken, tok.Access)
	req.Header.Set(headerRefreshToken, tok.Refresh)
}

// empty is the decode target for operations whose result carries no data.
type empty = struct{}
