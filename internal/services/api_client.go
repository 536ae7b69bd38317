package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

const userAgent = "embedding-advisor/1.0"

// Client is a small HTTP client with connection pooling used for the
// benchmark download and the raw generateContent endpoint
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Headers    map[string]string
}

// RequestOptions provides options for API requests
type RequestOptions struct {
	Headers      map[string]string
	QueryParams  map[string]string
	Timeout      time.Duration
	ResponseType string // "json", "text", "binary"
}

// StatusError is returned when the server answers with a non-2xx status.
// The body is kept verbatim so callers can surface it.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status code %d: %s", e.StatusCode, e.Body)
}

// ClientConfig holds configuration for the API client
type ClientConfig struct {
	BaseURL             string
	Timeout             time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	DialTimeout         time.Duration
	KeepAlive           time.Duration
	TLSHandshakeTimeout time.Duration
}

// DefaultClientConfig returns defaults for the API client
func DefaultClientConfig(baseURL string) *ClientConfig {
	return &ClientConfig{
		BaseURL:             baseURL,
		Timeout:             60 * time.Second,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
		DialTimeout:         10 * time.Second,
		KeepAlive:           30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return NewClientWithConfig(DefaultClientConfig(baseURL))
}

// NewClientWithConfig creates a new API client with custom configuration
func NewClientWithConfig(config *ClientConfig) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		TLSHandshakeTimeout: config.TLSHandshakeTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		BaseURL: config.BaseURL,
		HTTPClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
			"User-Agent":   userAgent,
		},
	}
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, result any, opts *RequestOptions) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, result, opts)
}

// Post performs a POST request
func (c *Client) Post(ctx context.Context, path string, body, result any, opts *RequestOptions) error {
	return c.doRequest(ctx, http.MethodPost, path, body, result, opts)
}

// doRequest sends a single request; failures are never retried
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any, opts *RequestOptions) error {
	if opts == nil {
		opts = &RequestOptions{}
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var reqBody io.Reader
	var bodySize int64
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
		bodySize = int64(len(jsonBody))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if bodySize > 0 {
		req.ContentLength = bodySize
	}

	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	if len(opts.QueryParams) > 0 {
		q := req.URL.Query()
		for k, v := range opts.QueryParams {
			q.Add(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("error executing request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			fiberlog.Errorf("Error closing response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	return handleResponse(resp, result, opts)
}

func handleResponse(resp *http.Response, result any, opts *RequestOptions) error {
	responseType := "json"
	if opts.ResponseType != "" {
		responseType = opts.ResponseType
	}

	if result == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	switch responseType {
	case "json":
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			return fmt.Errorf("error unmarshaling response: %w", err)
		}
		return nil
	case "text":
		stringResult, ok := result.(*string)
		if !ok {
			return fmt.Errorf("result must be *string for text response")
		}
		*stringResult = string(bodyBytes)
		return nil
	case "binary":
		bytesResult, ok := result.(*[]byte)
		if !ok {
			return fmt.Errorf("result must be *[]byte for binary response")
		}
		*bytesResult = bodyBytes
		return nil
	default:
		return fmt.Errorf("unsupported response type: %s", responseType)
	}
}

// Close closes idle connections of the underlying HTTP client
func (c *Client) Close() {
	if transport, ok := c.HTTPClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
