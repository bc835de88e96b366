package masking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// API paths relative to the base URL.
const (
	submitPath   = "/mask/async"
	pollPath     = "/async-status"
	validatePath = "/mask"
)

// Service status strings reported by the poll endpoint.
const (
	serviceStatusSuccess    = "SUCCESS"
	serviceStatusInProgress = "IN-PROGRESS"
	serviceStatusPending    = "PENDING"
)

const (
	// maxResponseSize bounds how much of a response body is read.
	maxResponseSize = 10 * 1024 * 1024

	// maxErrorMessage bounds how much of an error body ends up in UpstreamError.
	maxErrorMessage = 512

	// validationProbe is the text sent by Validate. It contains a name so a
	// working service has something to mask.
	validationProbe = "George Washington"
)

// HTTPClient talks to the masking service's JSON API over HTTP.
// It is safe for concurrent use.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	// Settings collected by options and applied in NewHTTPClient.
	authKey   string
	proxyAddr string
	userAgent string
	headers   map[string]string
	timeout   time.Duration
	custom    bool
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

// WithProxy routes all requests through a SOCKS5 proxy ("host:port").
func WithProxy(address string) Option {
	return func(c *HTTPClient) {
		c.proxyAddr = address
	}
}

// WithHeaders adds extra headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *HTTPClient) {
		c.headers = headers
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *HTTPClient) {
		c.userAgent = userAgent
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		c.timeout = timeout
	}
}

// WithHTTPClient replaces the underlying *http.Client. The client's
// transport is still wrapped so credentials and request ids are added.
// WithProxy is ignored when this option is used.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		c.httpClient = client
		c.custom = true
	}
}

// NewHTTPClient creates a client for the service rooted at baseURL,
// authenticating with authKey.
func NewHTTPClient(baseURL, authKey string, opts ...Option) (*HTTPClient, error) {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		authKey: authKey,
		logger:  slog.Default(),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	var base http.RoundTripper
	if c.custom {
		base = c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
	} else {
		transport, err := newTransport(c.proxyAddr)
		if err != nil {
			return nil, err
		}
		base = transport
		c.httpClient = &http.Client{Timeout: c.timeout}
	}

	wrapped := *c.httpClient
	wrapped.Transport = &headerInjectingTransport{
		base:      base,
		authKey:   c.authKey,
		userAgent: c.userAgent,
		headers:   c.headers,
	}
	c.httpClient = &wrapped
	return c, nil
}

// Wire types of the service API.
type (
	maskValue struct {
		Value string `json:"value"`
	}
	submitRequest struct {
		Mask []maskValue `json:"mask"`
	}
	trackingRef struct {
		TrackingID string `json:"tracking_id"`
	}
	statusRequest struct {
		Status []trackingRef `json:"status"`
	}
	tokenValue struct {
		TokenValue string `json:"token_value"`
	}
	responseItem struct {
		TrackingID   string       `json:"tracking_id"`
		Status       string       `json:"status"`
		TokenValue   string       `json:"token_value"`
		Result       []tokenValue `json:"result"`
		ErrorMessage string       `json:"error_message"`
	}
	response struct {
		Data    []responseItem `json:"data"`
		Message string         `json:"message"`
	}
)

// Submit sends text to the asynchronous mask endpoint and returns the
// tracking id.
func (c *HTTPClient) Submit(ctx context.Context, text string) (string, error) {
	resp, err := c.do(ctx, submitPath, submitRequest{Mask: []maskValue{{Value: text}}})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSubmission, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].TrackingID == "" {
		return "", fmt.Errorf("%w: %w: no tracking id", ErrSubmission, ErrMalformedResponse)
	}
	return resp.Data[0].TrackingID, nil
}

// Poll queries the status endpoint for trackingID.
func (c *HTTPClient) Poll(ctx context.Context, trackingID string) (PollResult, error) {
	resp, err := c.do(ctx, pollPath, statusRequest{Status: []trackingRef{{TrackingID: trackingID}}})
	if err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) && !upstream.Temporary() {
			return PollResult{Status: StatusFailed, Reason: upstream.Error()}, nil
		}
		return PollResult{}, fmt.Errorf("%w: %w", ErrTransientPoll, err)
	}
	if len(resp.Data) == 0 {
		return PollResult{}, fmt.Errorf("%w: %w: empty data", ErrTransientPoll, ErrMalformedResponse)
	}

	item := resp.Data[0]
	switch strings.ToUpper(strings.TrimSpace(item.Status)) {
	case serviceStatusSuccess:
		var b strings.Builder
		for _, r := range item.Result {
			b.WriteString(r.TokenValue)
		}
		return PollResult{Status: StatusCompleted, MaskedText: strings.TrimSpace(b.String())}, nil
	case serviceStatusInProgress, serviceStatusPending:
		return PollResult{Status: StatusPending}, nil
	default:
		reason := item.ErrorMessage
		if reason == "" {
			reason = fmt.Sprintf("service reported status %q", item.Status)
		}
		return PollResult{Status: StatusFailed, Reason: reason}, nil
	}
}

// Validate sends a probe to the synchronous mask endpoint and checks that
// the service answers with a token. It is the cheapest way to verify the
// base URL and the auth key before processing documents.
func (c *HTTPClient) Validate(ctx context.Context) error {
	resp, err := c.do(ctx, validatePath, submitRequest{Mask: []maskValue{{Value: validationProbe}}})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].TokenValue == "" {
		return fmt.Errorf("%w: %w: no token_value", ErrValidation, ErrMalformedResponse)
	}
	return nil
}

// do sends one PUT request with a JSON body and decodes the JSON response.
// Non-2xx responses become *UpstreamError.
func (c *HTTPClient) do(ctx context.Context, path string, payload any) (*response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("masking request failed", "path", path, "error", err)
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("masking request",
		"path", path,
		"status", res.StatusCode,
		"duration", time.Since(start),
	)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: res.StatusCode, Message: errorMessage(data)}
	}

	var decoded response
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return &decoded, nil
}

// errorMessage extracts a short message from an error response body.
func errorMessage(body []byte) string {
	var decoded response
	if err := json.Unmarshal(body, &decoded); err == nil {
		if decoded.Message != "" {
			return decoded.Message
		}
		if len(decoded.Data) > 0 && decoded.Data[0].ErrorMessage != "" {
			return decoded.Data[0].ErrorMessage
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage] + "..."
	}
	return msg
}
