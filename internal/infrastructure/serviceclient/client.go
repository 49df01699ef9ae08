// Package serviceclient calls the events, posts and users services on behalf of
// pageserve.
package serviceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lllypuk/eventboard/internal/domain/errs"
)

const defaultHTTPTimeout = 10 * time.Second

// Relay is a downstream response passed back to the browser as is.
type Relay struct {
	Status      int
	ContentType string
	Body        []byte
}

// OK reports a 2xx status.
func (r *Relay) OK() bool {
	return r.Status >= http.StatusOK && r.Status < http.StatusMultipleChoices
}

// FilePart is one uploaded file forwarded in a multipart request.
type FilePart struct {
	Field    string
	Filename string
	Content  io.Reader
}

// Config contains configuration for a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Client sends requests to one downstream service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a client for the service at cfg.BaseURL (for example
// "http://localhost:8081/v1").
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

// PostForm sends an url-encoded form.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values) (*Relay, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// PostMultipart sends form values and files as multipart/form-data.
func (c *Client) PostMultipart(ctx context.Context, path string, form url.Values, files []FilePart) (*Relay, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	for key, values := range form {
		for _, v := range values {
			if err := w.WriteField(key, v); err != nil {
				return nil, fmt.Errorf("failed to write field %s: %w", key, err)
			}
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create file part %s: %w", f.Filename, err)
		}
		if _, err = io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("failed to copy file %s: %w", f.Filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req)
}

// Delete sends a DELETE with query parameters.
func (c *Client) Delete(ctx context.Context, path string, query url.Values) (*Relay, error) {
	target := c.endpoint(path)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req)
}

// GetJSON fetches path and decodes a 200 response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.decode(req, out)
}

// PostFormJSON sends a form and decodes a 2xx response into out.
func (c *Client) PostFormJSON(ctx context.Context, path string, form url.Values, out any) error {
	relay, err := c.PostForm(ctx, path, form)
	if err != nil {
		return err
	}
	return c.unmarshal(ctx, relay, out)
}

func (c *Client) decode(req *http.Request, out any) error {
	relay, err := c.do(req)
	if err != nil {
		return err
	}
	return c.unmarshal(req.Context(), relay, out)
}

func (c *Client) unmarshal(ctx context.Context, relay *Relay, out any) error {
	if !relay.OK() {
		c.logger.WarnContext(ctx, "downstream request failed",
			slog.Int("status", relay.Status),
			slog.String("body", string(relay.Body)))
		return fmt.Errorf("%w: status %d", errs.ErrUpstream, relay.Status)
	}
	if err := json.Unmarshal(relay.Body, out); err != nil {
		return fmt.Errorf("%w: invalid response: %w", errs.ErrUpstream, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) (*Relay, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(req.Context(), "downstream request error",
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", errs.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", errs.ErrUpstream, err)
	}

	return &Relay{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
