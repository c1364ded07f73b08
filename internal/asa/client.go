// Package asa provides a minimal client for the American Soccer Analysis
// public API (v1).
package asa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/time/rate"

	"github.com/pable/go-gplus/internal/flatten"
	"github.com/pable/go-gplus/internal/logger"
)

// DefaultBaseURL is the root endpoint of the ASA API.
const DefaultBaseURL = "https://app.americansocceranalysis.com/api/v1"

// Client defaults.
const (
	DefaultDelay        = 500 * time.Millisecond
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = 2 * time.Second
	DefaultChunkSize    = 100
)

// maxBody caps a decoded response body.
const maxBody = 64 << 20

// ErrSourceUnavailable wraps every failure to obtain a usable response.
var ErrSourceUnavailable = errors.New("asa source unavailable")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Observer receives per-request telemetry.
type Observer interface {
	ObserveRequest(endpoint string, code int, d time.Duration)
	ObserveRetry(endpoint string)
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, int, time.Duration) {}
func (nopObserver) ObserveRetry(string)                        {}

// Options configures a Client. Zero values take the package defaults.
type Options struct {
	BaseURL      string
	Delay        time.Duration
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	ChunkSize    int
	HTTPClient   *http.Client
	Observer     Observer
	Logger       logger.Logger
}

// Client is a throttled, retrying ASA API client. Requests are spaced at
// least Delay apart whatever goroutine issues them.
type Client struct {
	baseURL    string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	chunkSize  int
	observer   Observer
	log        logger.Logger
}

// NewClient returns a client configured by opts.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	var observer Observer = nopObserver{}
	if opts.Observer != nil {
		observer = opts.Observer
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL:    baseURL,
		http:       httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: maxRetries,
		backoff:    opts.RetryBackoff,
		chunkSize:  chunk,
		observer:   observer,
		log:        log.Named("asa"),
	}
}

// statusError is a non-2xx response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("HTTP %d", e.code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.code, e.body)
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return true
}

// get fetches path with query and decodes the JSON array response into
// records. endpoint labels the request for telemetry.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values) ([]flatten.Record, error) {
	u := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.observer.ObserveRetry(endpoint)
			c.log.Warn(ctx, "retrying request",
				logger.String("endpoint", endpoint),
				logger.Int("attempt", attempt),
				logger.Error(lastErr))
			if err := sleep(ctx, c.backoff); err != nil {
				return nil, fmt.Errorf("GET %s: %w", path, err)
			}
		}

		raw, err := c.do(ctx, endpoint, u)
		if err == nil {
			var out []flatten.Record
			if err := json.Unmarshal(raw, &out); err != nil {
				return nil, fmt.Errorf("%w: GET %s: decode: %v", ErrSourceUnavailable, path, err)
			}
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("GET %s: %w", path, ctx.Err())
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return nil, fmt.Errorf("%w: GET %s: %v", ErrSourceUnavailable, path, lastErr)
}

// do performs one throttled request and returns the decoded body.
func (c *Client) do(ctx context.Context, endpoint, u string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observer.ObserveRequest(endpoint, 0, time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()
	c.observer.ObserveRequest(endpoint, resp.StatusCode, time.Since(start))

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode, body: abbreviate(body)}
	}
	return body, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	}
	return io.ReadAll(io.LimitReader(r, maxBody))
}

func abbreviate(body []byte) string {
	const limit = 200
	b := bytes.TrimSpace(body)
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
