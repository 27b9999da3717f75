package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "go-skin-analyzer/internal/errors"
)

// DefaultTimeout is the hard limit on one analysis call.
const DefaultTimeout = 60 * time.Second

const userAgent = "go-skin-analyzer/1.0"

// maxResponseBytes bounds how much of a reply is read.
const maxResponseBytes = 5 << 20

// Releaser is released exactly once when Submit returns.
type Releaser interface {
	Release()
}

// cancelAttacher is implemented by releasers that want the call's cancel
// function, so the call can be aborted from outside.
type cancelAttacher interface {
	Attach(cancel context.CancelFunc)
}

// Client posts submissions to the remote analysis endpoint.
type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
	log        *logrus.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the tuned default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger; the default is the logrus standard logger.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a client for endpoint; a non-positive timeout means DefaultTimeout.
func New(endpoint string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		endpoint:   endpoint,
		timeout:    timeout,
		httpClient: newHTTPClient(),
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:                  http.ProxyFromEnvironment,
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 16 << 10,
	}

	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("too many redirects (limit: 3)")
			}
			return nil
		},
	}
}

// Timeout returns the hard limit applied to each call.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

type outcome struct {
	result *RawAnalysisResult
	err    error
}

// Submit performs one POST with no retry. Whichever settles first, the
// exchange or the timeout, decides the outcome; the other is discarded.
// rel is released exactly once before Submit returns.
func (c *Client) Submit(ctx context.Context, rel Releaser, req SubmissionRequest) (*RawAnalysisResult, error) {
	defer rel.Release()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if a, ok := rel.(cancelAttacher); ok {
		a.Attach(cancel)
	}

	body, err := json.Marshal(req.payload())
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode submission", err)
	}

	start := time.Now()
	entry := c.log.WithFields(logrus.Fields{
		"session_id":    req.SessionID,
		"payload_bytes": len(body),
	})
	entry.Debug("Submitting photo for analysis")

	done := make(chan outcome, 1)
	go func() {
		res, err := c.exchange(ctx, body)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			if apperrors.IsType(o.err, apperrors.ErrorTypeNetwork) {
				o.err = c.classifyContextError(ctx, o.err)
			}
			entry.WithError(o.err).WithField("elapsed_ms", time.Since(start).Milliseconds()).Warn("Analysis request failed")
			return nil, o.err
		}
		entry.WithField("elapsed_ms", time.Since(start).Milliseconds()).Info("Analysis received")
		return o.result, nil
	case <-ctx.Done():
		err := c.classifyContextError(ctx, ctx.Err())
		entry.WithError(err).WithField("elapsed_ms", time.Since(start).Milliseconds()).Warn("Analysis request abandoned")
		return nil, err
	}
}

// classifyContextError turns failures caused by ctx into timeout or
// cancellation errors; anything else is returned unchanged.
func (c *Client) classifyContextError(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperrors.NewTimeoutError(fmt.Sprintf("analysis exceeded %s", c.timeout), err)
	case errors.Is(ctx.Err(), context.Canceled):
		return apperrors.NewNetworkError("analysis request cancelled", err)
	}
	return err
}

func (c *Client) exchange(ctx context.Context, body []byte) (*RawAnalysisResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewInternalError("invalid analysis endpoint", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewNetworkError("analysis service unreachable", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.WithError(cerr).Warn("Failed to close analysis response body")
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	// The status decides the class; an unreadable error body only loses details.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		details := ""
		if err == nil {
			details = upstreamMessage(raw)
		}
		return nil, apperrors.NewServiceError(
			fmt.Sprintf("analysis service returned status %d", resp.StatusCode),
			resp.StatusCode,
			details,
		)
	}
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read analysis response", err)
	}

	var result RawAnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, apperrors.NewServiceError("analysis service returned an unreadable body", resp.StatusCode, err.Error())
	}
	if !result.Success {
		return nil, apperrors.NewServiceError("analysis service reported a failure", 0, result.Error)
	}
	return &result, nil
}
