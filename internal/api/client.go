// Package api is the client for the bill-administration REST backend.
//
// Every response is an envelope {success, data, message}. A success: false
// envelope becomes an *APIError carrying the backend message; failures to reach
// the backend or to read an envelope become a *TransportError. Drafts are
// validated locally before any request is made.
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

	"github.com/rs/zerolog"

	"billgen/internal/logger"
)

// maxBodySize bounds how much of a response is read.
const maxBodySize = 10 << 20

// Envelope is the backend response wrapper.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Client talks to the backend under baseURL (e.g. http://localhost:5000/api).
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates a client with its own http.Client.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient creates a client around an existing http.Client.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        logger.WithComponent("api"),
	}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call performs one request and decodes the envelope data into T.
func call[T any](ctx context.Context, c *Client, op, method, path string, body any) (T, string, error) {
	var zero T

	data, msg, err := c.do(ctx, op, method, path, body)
	if err != nil {
		return zero, "", err
	}

	var out T
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return out, msg, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, "", &TransportError{Op: op, URL: c.baseURL + path, Err: fmt.Errorf("decode data: %w", err)}
	}
	return out, msg, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body any) (json.RawMessage, string, error) {
	url := c.baseURL + path
	start := time.Now()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, "", &TransportError{Op: op, URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("op", op).Str("url", url).Msg("Backend request failed")
		return nil, "", &TransportError{Op: op, URL: url, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, "", &TransportError{Op: op, URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	var env Envelope[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			err = fmt.Errorf("unexpected response: %s", resp.Status)
		} else {
			err = fmt.Errorf("decode envelope: %w", err)
		}
		return nil, "", &TransportError{Op: op, URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	c.log.Debug().
		Str("op", op).
		Str("method", method).
		Str("url", url).
		Int("status", resp.StatusCode).
		Bool("success", env.Success).
		Dur("duration", time.Since(start)).
		Msg("Backend request")

	if !env.Success {
		return nil, "", &APIError{Op: op, StatusCode: resp.StatusCode, Message: env.Message}
	}
	return env.Data, env.Message, nil
}

func idPath(prefix string, id int64) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}
