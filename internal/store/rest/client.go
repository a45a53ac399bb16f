// Package rest is the client of the Kaslot REST backend, which owns all
// persistence and validation of events, suppliers and payments.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kaslot/internal/core"
)

const maxResponseBytes = 8 << 20

// APIError is a non-2xx answer from the backend. Message is the backend's
// own explanation when it sent one.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// Unwrap lets callers test for core.ErrNotFound on 404 answers.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return core.ErrNotFound
	}
	return nil
}

type Client struct {
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the backend rooted at baseURL (for example
// http://localhost:5000/api). Every request is bounded by timeout.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newHTTPClientWithPooling(timeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// newHTTPClientWithPooling keeps connections to the single backend host warm.
func newHTTPClientWithPooling(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// do sends in as JSON (when non-nil) and decodes the answer into out (when
// non-nil and the body is not empty).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	slog.DebugContext(ctx, "Backend request completed",
		"component", "api_client",
		"method", method,
		"path", path,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: errorMessage(raw, resp.StatusCode),
		}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// errorMessage extracts {"message": "..."} (or "error") from an error body.
func errorMessage(raw []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return http.StatusText(status)
}

func pathID(prefix, id string, rest ...string) string {
	parts := append([]string{prefix, url.PathEscape(id)}, rest...)
	return strings.Join(parts, "/")
}

// Ping checks the backend answers the cheapest read it serves.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/dashboard/summary", nil, nil)
}

func (c *Client) Summary(ctx context.Context) (core.DashboardSummary, error) {
	var sum core.DashboardSummary
	if err := c.do(ctx, http.MethodGet, "/dashboard/summary", nil, &sum); err != nil {
		return core.DashboardSummary{}, err
	}
	return sum, nil
}

func (c *Client) ListEvents(ctx context.Context) ([]core.Event, error) {
	var events []core.Event
	if err := c.do(ctx, http.MethodGet, "/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) CreateEvent(ctx context.Context, ev core.Event) (core.Event, error) {
	out := ev
	if err := c.do(ctx, http.MethodPost, "/events", newEventRequest(ev), &out); err != nil {
		return core.Event{}, err
	}
	return out, nil
}

func (c *Client) UpdateEvent(ctx context.Context, id string, ev core.Event) (core.Event, error) {
	out := ev
	out.ID = id
	if err := c.do(ctx, http.MethodPut, pathID("/events", id), newEventRequest(ev), &out); err != nil {
		return core.Event{}, err
	}
	return out, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, pathID("/events", id), nil, nil)
}

// AddParticipant maps a 409 answer to core.ErrDuplicateParticipant while
// keeping the backend's message reachable through errors.As.
func (c *Client) AddParticipant(ctx context.Context, eventID string, p core.Participant) error {
	body := participantRequest{
		SupplierID:  p.Supplier.ID,
		ExpectedPay: p.ExpectedPay,
		Currency:    p.Currency,
	}
	err := c.do(ctx, http.MethodPost, pathID("/events", eventID, "participants"), body, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
		return fmt.Errorf("%w: %w", core.ErrDuplicateParticipant, apiErr)
	}
	return err
}

func (c *Client) UpdateParticipant(ctx context.Context, eventID string, p core.Participant) error {
	body := participantUpdate{ExpectedPay: p.ExpectedPay, Currency: p.Currency}
	return c.do(ctx, http.MethodPut, pathID("/events", eventID, "participants", url.PathEscape(p.Supplier.ID)), body, nil)
}

func (c *Client) RemoveParticipant(ctx context.Context, eventID, supplierID string) error {
	return c.do(ctx, http.MethodDelete, pathID("/events", eventID, "participants", url.PathEscape(supplierID)), nil, nil)
}

func (c *Client) ListSuppliers(ctx context.Context) ([]core.Supplier, error) {
	var suppliers []core.Supplier
	if err := c.do(ctx, http.MethodGet, "/suppliers", nil, &suppliers); err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (c *Client) CreateSupplier(ctx context.Context, s core.Supplier) (core.Supplier, error) {
	s.ID = ""
	out := s
	if err := c.do(ctx, http.MethodPost, "/suppliers", s, &out); err != nil {
		return core.Supplier{}, err
	}
	return out, nil
}

func (c *Client) UpdateSupplier(ctx context.Context, id string, s core.Supplier) (core.Supplier, error) {
	s.ID = ""
	out := s
	out.ID = id
	if err := c.do(ctx, http.MethodPut, pathID("/suppliers", id), s, &out); err != nil {
		return core.Supplier{}, err
	}
	return out, nil
}

func (c *Client) DeleteSupplier(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, pathID("/suppliers", id), nil, nil)
}

func (c *Client) SupplierReport(ctx context.Context, supplierID string) (core.SupplierReport, error) {
	var report core.SupplierReport
	if err := c.do(ctx, http.MethodGet, pathID("/suppliers", supplierID, "report"), nil, &report); err != nil {
		return core.SupplierReport{}, err
	}
	return report, nil
}

func (c *Client) ListPayments(ctx context.Context) ([]core.Payment, error) {
	var payments []core.Payment
	if err := c.do(ctx, http.MethodGet, "/payments", nil, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

func (c *Client) CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	out := p
	if err := c.do(ctx, http.MethodPost, "/payments", newPaymentRequest(p), &out); err != nil {
		return core.Payment{}, err
	}
	return out, nil
}

func (c *Client) DeletePayment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, pathID("/payments", id), nil, nil)
}
