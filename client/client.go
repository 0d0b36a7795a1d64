// Package client speaks the event-photo backend's REST contract. Every
// authenticated call attaches the bearer token held by the session store;
// error bodies are decoded and distinguished reasons are mapped to sentinel
// errors so callers match with errors.Is instead of comparing strings.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pkt.systems/fotodrop/schema"
	"pkt.systems/pslog"
)

// alreadySubscribedMessage is the backend's literal duplicate-subscription
// reason. It is matched here, once, and nowhere else.
const alreadySubscribedMessage = "User already subscribed to event"

// TokenSource provides the bearer token for authenticated requests.
type TokenSource interface {
	Token() (schema.Token, bool)
}

// Client is a REST client for the backend.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSource
	log     pslog.Logger
}

// New constructs a client for the given base URL.
func New(baseURL string, tokens TokenSource) *Client {
	return NewWithLogger(baseURL, tokens, nil)
}

// NewWithLogger constructs a client with logging.
func NewWithLogger(baseURL string, tokens TokenSource, logger pslog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
		tokens:  tokens,
		log:     logger,
	}
}

// SetHTTPClient overrides the underlying HTTP client.
func (c *Client) SetHTTPClient(httpc *http.Client) {
	if httpc != nil {
		c.httpc = httpc
	}
}

// StatusError reports a non-success backend response.
type StatusError struct {
	Code   int
	Reason string
	err    error
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("backend returned status %d", e.Code)
}

// Unwrap exposes the mapped sentinel error, if any.
func (e *StatusError) Unwrap() error {
	return e.err
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any, authed bool) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	resp, err := c.do(ctx, method, path, contentType, body, authed)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, authed bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authed {
		token, ok := c.tokens.Token()
		if !ok {
			return nil, schema.ErrNotAuthenticated
		}
		req.Header.Set("Authorization", "Bearer "+string(token))
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		statusErr := decodeError(resp)
		if c.log != nil {
			c.log.Debug("request failed", "method", method, "path", path, "status", resp.StatusCode, "reason", statusErr.Reason)
		}
		return nil, statusErr
	}
	return resp, nil
}

func decodeError(resp *http.Response) *StatusError {
	statusErr := &StatusError{Code: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(data) > 0 {
		var apiErr schema.APIError
		if json.Unmarshal(data, &apiErr) == nil {
			statusErr.Reason = apiErr.Reason()
		}
	}
	switch {
	case statusErr.Reason == alreadySubscribedMessage:
		statusErr.err = schema.ErrAlreadySubscribed
	case resp.StatusCode == http.StatusUnauthorized:
		statusErr.err = schema.ErrNotAuthenticated
	case resp.StatusCode == http.StatusNotFound:
		statusErr.err = schema.ErrEventNotFound
	}
	return statusErr
}
