// Package httpapi is the thin HTTP boundary behind the fetch and mutation
// collaborators. It owns exactly one concern of this layer: converting
// transport failures and non-success HTTP statuses into the apierr taxonomy
// (network / 5xx server / 4xx client with an optional server message).
// Payload shapes are opaque JSON contracts.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/satoshi-watanabe-0001/accountsync"
	"github.com/satoshi-watanabe-0001/accountsync/apierr"
)

// maxErrorBody caps how much of an error response body is read for the
// server-provided message.
const maxErrorBody = 64 << 10

type Client struct {
	base *url.URL
	hc   *http.Client
	log  accountsync.Logger

	// authToken is attached as a bearer token when set.
	authToken string
}

type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.hc = hc }
}

func WithLogger(l accountsync.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("httpapi: invalid base URL %q: %w", cfg.BaseURL, err)
	}
	c := &Client{
		base: u,
		hc:   &http.Client{Timeout: cfg.Timeout},
		log:  accountsync.NopLogger{},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// SetAuthToken sets the bearer token attached to subsequent requests.
// An empty token clears it.
func (c *Client) SetAuthToken(token string) { c.authToken = token }

// GetJSON issues a GET and decodes the 2xx response body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// PostJSON issues a POST with a JSON body and decodes the 2xx response into
// out. A nil out discards the body.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

// PutJSON issues a PUT with a JSON body.
func (c *Client) PutJSON(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPut, path, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	u := c.base.JoinPath(strings.TrimPrefix(path, "/"))

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpapi: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("httpapi: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		// transport-level failure: connectivity, DNS, client timeout
		return apierr.Network(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apierr.Server(resp.StatusCode, fmt.Sprintf("malformed response body: %v", err))
		}
		return nil
	}

	msg := errorMessage(resp.Body)
	c.log.Debug("non-success response", accountsync.Fields{
		"method": method, "path": path, "status": resp.StatusCode,
	})
	if resp.StatusCode >= 500 {
		return apierr.Server(resp.StatusCode, msg)
	}
	return apierr.Client(resp.StatusCode, msg)
}

// errorMessage pulls the server-provided message out of a structured error
// body, tolerating bodies that are not JSON at all.
func errorMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(b) == 0 {
		return ""
	}
	var eb struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(b, &eb); err != nil {
		return ""
	}
	if eb.Message != "" {
		return eb.Message
	}
	return eb.Error
}
