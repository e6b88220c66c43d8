package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/idilsaglam/todosync/internal/model"
)

const (
	// DefaultTimeout bounds every request end to end.
	DefaultTimeout = 10 * time.Second
	// HeaderRequestID carries a per-request UUID for log correlation.
	HeaderRequestID = "X-Request-ID"

	// DefaultMaxResponseBytes caps how much of a response body is read.
	DefaultMaxResponseBytes int64 = 8 << 20
)

// Config holds what the client needs to reach the backend.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Origin     string // sent as Origin; the response must allow it
	Token      string // bearer token, optional
	HTTPClient *http.Client
	Logger     *zap.Logger

	// MaxResponseBytes defaults to DefaultMaxResponseBytes.
	MaxResponseBytes int64
}

// Client issues the todo REST calls. It keeps no state between requests:
// no cache, no retries.
type Client struct {
	baseURL    string
	origin     string
	token      string
	httpClient *http.Client
	log        *zap.Logger
	maxBody    int64
}

// NewClient builds a client; zero fields take defaults.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		origin:     cfg.Origin,
		token:      cfg.Token,
		httpClient: hc,
		log:        log,
		maxBody:    cfg.MaxResponseBytes,
	}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// ListTodos fetches the list in server order. Unset filter fields are left
// out of the query.
func (c *Client) ListTodos(ctx context.Context, f model.Filter) ([]model.TodoItem, error) {
	q := url.Values{}
	if f.Completed != nil {
		q.Set("completed", strconv.FormatBool(*f.Completed))
	}
	if f.Priority != nil && *f.Priority != "" {
		q.Set("priority", string(*f.Priority))
	}
	if f.Category != nil && *f.Category != "" {
		q.Set("category", *f.Category)
	}
	todos := []model.TodoItem{}
	if err := c.doRequest(ctx, http.MethodGet, "/todos", q, nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// GetTodo fetches one item.
func (c *Client) GetTodo(ctx context.Context, id int64) (model.TodoItem, error) {
	var it model.TodoItem
	err := c.doRequest(ctx, http.MethodGet, todoPath(id), nil, nil, &it)
	return it, notFoundID(err, id)
}

// CreateTodo posts a new item and returns it with server-assigned fields.
func (c *Client) CreateTodo(ctx context.Context, in model.CreateInput) (model.TodoItem, error) {
	var it model.TodoItem
	err := c.doRequest(ctx, http.MethodPost, "/todos", nil, in, &it)
	return it, err
}

// UpdateTodo sends a partial update.
func (c *Client) UpdateTodo(ctx context.Context, id int64, patch model.UpdateInput) (model.TodoItem, error) {
	var it model.TodoItem
	err := c.doRequest(ctx, http.MethodPut, todoPath(id), nil, patch, &it)
	return it, notFoundID(err, id)
}

// DeleteTodo removes an item. Deleting it again yields a NotFoundError.
func (c *Client) DeleteTodo(ctx context.Context, id int64) error {
	return notFoundID(c.doRequest(ctx, http.MethodDelete, todoPath(id), nil, nil, nil), id)
}

// ToggleComplete flips completed server-side.
func (c *Client) ToggleComplete(ctx context.Context, id int64) (model.TodoItem, error) {
	var it model.TodoItem
	err := c.doRequest(ctx, http.MethodPatch, todoPath(id)+"/complete", nil, nil, &it)
	return it, notFoundID(err, id)
}

func todoPath(id int64) string {
	return "/todos/" + strconv.FormatInt(id, 10)
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, query url.Values, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	if c.origin != "" && method != http.MethodGet {
		if err := c.preflight(ctx, method, target); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, reqID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.origin != "" {
		req.Header.Set("Origin", c.origin)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		nerr := normalizeTransportError(err, c.baseURL)
		c.log.Warn("todo api request failed",
			zap.String("method", method),
			zap.String("path", endpoint),
			zap.String("request_id", reqID),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return nerr
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return normalizeTransportError(fmt.Errorf("failed to read response body: %w", err), c.baseURL)
	}
	if int64(len(respBody)) > c.maxBody {
		return &model.TransportError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("response body exceeds %d bytes", c.maxBody),
		}
	}

	c.log.Debug("todo api request",
		zap.String("method", method),
		zap.String("path", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", reqID),
		zap.Duration("latency", time.Since(start)),
	)

	if err := c.checkOrigin(resp, target); err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, respBody)
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// preflight asks whether method may be sent from our origin before the
// request itself goes out, so a rejected write never reaches the handler.
func (c *Client) preflight(ctx context.Context, method, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create preflight request: %w", err)
	}
	headers := []string{"content-type", "accept", strings.ToLower(HeaderRequestID)}
	if c.token != "" {
		headers = append(headers, "authorization")
	}
	req.Header.Set("Origin", c.origin)
	req.Header.Set("Access-Control-Request-Method", method)
	req.Header.Set("Access-Control-Request-Headers", strings.Join(headers, ","))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return normalizeTransportError(err, c.baseURL)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBody))
	resp.Body.Close()
	return c.checkOrigin(resp, target)
}

// checkOrigin plays the browser's part: a response that does not allow our
// origin is unusable, whatever its status.
func (c *Client) checkOrigin(resp *http.Response, target string) error {
	if c.origin == "" {
		return nil
	}
	allowed := resp.Header.Get("Access-Control-Allow-Origin")
	if allowed == "*" || allowed == c.origin {
		return nil
	}
	return &model.ConnectionError{
		URL:    target,
		Origin: c.origin,
		Message: fmt.Sprintf("CORS error: backend at %s is not allowing requests from %s",
			c.baseURL, c.origin),
	}
}

func notFoundID(err error, id int64) error {
	if nf, ok := err.(*model.NotFoundError); ok && nf.ID == 0 {
		nf.ID = id
	}
	return err
}
