// Package client is the Go SDK for the MedRemind HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

const Version = "0.1.0"

const defaultBasePath = "/api/v1"

// ErrInvalidConfig is returned by NewClient for an unusable base URL.
var ErrInvalidConfig = errors.New(errors.CodeInvalidParam, "invalid client configuration")

// Logger defines the logging interface used by the Client
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Errorf(string, ...interface{}) {}

// Client talks to one MedRemind API server.
type Client struct {
	baseURL      string
	basePath     string
	token        string
	httpClient   *http.Client
	userAgent    string
	logger       Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration

	reminders         *RemindersClient
	remindersOnce     sync.Once
	prescriptions     *PrescriptionsClient
	prescriptionsOnce sync.Once
	extraction        *ExtractionClient
	extractionOnce    sync.Once
}

// APIError is a non-2xx response. Suggestion and NLPData are set when the
// server rejected free text it could not turn into a reminder.
type APIError struct {
	StatusCode int                   `json:"status_code"`
	Code       string                `json:"code"`
	Message    string                `json:"message"`
	Detail     string                `json:"detail,omitempty"`
	Suggestion string                `json:"suggestion,omitempty"`
	NLPData    *medication.NLPResult `json:"nlpData,omitempty"`
	RequestID  string                `json:"request_id"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return fmt.Sprintf("medremind: %s (HTTP %d): %s [request_id=%s]", e.Code, e.StatusCode, msg, e.RequestID)
}

func (e *APIError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

func (e *APIError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }

func (e *APIError) IsServerError() bool { return e.StatusCode >= 500 && e.StatusCode < 600 }

// IsRejected reports whether the server could not extract a medication.
func (e *APIError) IsRejected() bool { return e.Suggestion != "" || e.NLPData != nil }

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	} `json:"error"`
	Suggestion string                `json:"suggestion"`
	NLPData    *medication.NLPResult `json:"nlpData"`
}

// NewClient builds a client for the server at baseURL. token is sent as a
// bearer token and may be empty when the server runs without auth.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrInvalidConfig
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid baseURL: %v", ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: baseURL scheme must be http or https", ErrInvalidConfig)
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		basePath:     defaultBasePath,
		token:        token,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    "medremind-go-sdk/" + Version,
		logger:       noopLogger{},
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Reminders returns the reminders sub-client.
func (c *Client) Reminders() *RemindersClient {
	c.remindersOnce.Do(func() { c.reminders = &RemindersClient{client: c} })
	return c.reminders
}

// Prescriptions returns the prescription upload sub-client.
func (c *Client) Prescriptions() *PrescriptionsClient {
	c.prescriptionsOnce.Do(func() { c.prescriptions = &PrescriptionsClient{client: c} })
	return c.prescriptions
}

// Extraction returns the parse and schedule preview sub-client.
func (c *Client) Extraction() *ExtractionClient {
	c.extractionOnce.Do(func() { c.extraction = &ExtractionClient{client: c} })
	return c.extraction
}

// Health is the liveness payload of /healthz.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Health calls the liveness probe, which lives outside the API base path.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.send(ctx, http.MethodGet, c.baseURL+"/healthz", "", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// request is a marshalled body plus its content type.
type request struct {
	contentType string
	body        []byte
}

func jsonBody(v interface{}) (*request, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return &request{contentType: "application/json", body: b}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	req, err := jsonBody(body)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	var ct string
	var raw []byte
	if req != nil {
		ct, raw = req.contentType, req.body
	}
	return c.send(ctx, method, c.baseURL+c.basePath+path, ct, raw, result)
}

// send performs the request. Only idempotent methods are retried on network
// errors and 5xx; a 429 with Retry-After is retried for every method.
func (c *Client) send(ctx context.Context, method, fullURL, contentType string, body []byte, result interface{}) error {
	idempotent := method == http.MethodGet || method == http.MethodPut || method == http.MethodDelete

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			c.logger.Debugf("retry attempt %d after %v", attempt, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		requestID := uuid.New().String()
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Errorf("request failed: %v", err)
			lastErr = err
			if idempotent {
				continue
			}
			return err
		}
		c.logger.Debugf("%s %s %d (%v)", method, req.URL.Path, resp.StatusCode, time.Since(start))

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.retryMax {
			if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
				c.logger.Infof("rate limited, retrying after %d seconds", seconds)
				select {
				case <-time.After(time.Duration(seconds) * time.Second):
					continue
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}

		if resp.StatusCode >= 400 {
			apiErr := decodeAPIError(resp.StatusCode, respBody)
			apiErr.RequestID = requestID
			lastErr = apiErr
			if idempotent && apiErr.IsServerError() {
				continue
			}
			return apiErr
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to unmarshal response: %w", err)
			}
		}
		return nil
	}
	return lastErr
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	if len(body) == 0 {
		return apiErr
	}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error.Code == "" {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}
	apiErr.Code = env.Error.Code
	apiErr.Message = env.Error.Message
	apiErr.Detail = env.Error.Detail
	apiErr.Suggestion = env.Suggestion
	apiErr.NLPData = env.NLPData
	return apiErr
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}
	if q := int64(backoff / 4); q > 0 {
		backoff += time.Duration(rand.Int63n(q))
	}
	return backoff
}

//Personal.AI order the ending
