// Package httpcall provides the net/http implementation of ports.HTTPCaller
// used by live api_call and webhook steps.
package httpcall

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mehdry/flowline/pkg/domain"
)

const defaultTimeout = 15 * time.Second

// maxResponseBytes caps how much of a collaborator's response body is
// captured into the run; automation steps only need a short excerpt.
const maxResponseBytes = 64 * 1024

// Caller performs real outbound HTTP requests.
type Caller struct {
	client *http.Client
}

// CallerOption configures the Caller.
type CallerOption func(*Caller)

// WithClient replaces the underlying HTTP client.
func WithClient(client *http.Client) CallerOption {
	return func(c *Caller) {
		if client != nil {
			c.client = client
		}
	}
}

// WithTimeout sets the per-request timeout on the default client.
func WithTimeout(timeout time.Duration) CallerOption {
	return func(c *Caller) {
		c.client.Timeout = timeout
	}
}

// New creates a Caller with a sane default timeout.
func New(opts ...CallerOption) *Caller {
	c := &Caller{
		client: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call performs the request and captures the status plus a bounded body
// excerpt. Transport failures are returned as errors; HTTP error statuses
// are not, so the executor can decide how to report them.
func (c *Caller) Call(ctx context.Context, req domain.HTTPCallRequest) (domain.HTTPCallResponse, error) {
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return domain.HTTPCallResponse{}, fmt.Errorf("invalid request %s %s: %w", req.Method, req.URL, err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.Body != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return domain.HTTPCallResponse{}, err
	}
	defer resp.Body.Close()

	excerpt, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.HTTPCallResponse{Status: resp.StatusCode}, fmt.Errorf("reading response body: %w", err)
	}

	return domain.HTTPCallResponse{
		Status: resp.StatusCode,
		Body:   string(excerpt),
	}, nil
}
