package analyst

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"FinResearch/internal/domain/models"
	pkghttp "FinResearch/pkg/http"
)

// Config holds settings for the research sidecar.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Attempts int
	Backoff  time.Duration
	Prompts  map[string]string
}

// HTTPServiceBase centralizes client construction and JSON POST handling for
// the sidecar endpoints.
type HTTPServiceBase struct {
	baseURL  string
	client   *pkghttp.Client
	attempts int
	backoff  time.Duration
}

// NewHTTPServiceBase builds an HTTP client with timeout and base URL from cfg.
func NewHTTPServiceBase(cfg Config, opts ...pkghttp.ClientOption) *HTTPServiceBase {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 2
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	opts = append([]pkghttp.ClientOption{pkghttp.WithTimeout(timeout)}, opts...)
	return &HTTPServiceBase{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		client:   pkghttp.NewClient(opts...),
		attempts: attempts,
		backoff:  backoff,
	}
}

// PostJSON posts payload to path under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("analyst http client not initialized")
	}
	err := b.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    b.baseURL + path,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

// PostJSONWithRetry retries transient failures (429, 5xx, transport errors)
// with linear backoff. Other errors return immediately.
func (b *HTTPServiceBase) PostJSONWithRetry(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	var err error
	for i := 1; i <= b.attempts; i++ {
		err = b.PostJSON(ctx, path, payload, dest)
		if err == nil || !retryable(err) || i == b.attempts {
			return err
		}
		t := time.NewTimer(time.Duration(i) * b.backoff)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return err
		}
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch code := pkghttp.StatusCode(err); {
	case code == http.StatusTooManyRequests, code >= 500:
		return true
	case code != 0:
		return false
	}
	return !errors.Is(err, pkghttp.ErrDecode)
}

// classify maps a sidecar failure onto the research error taxonomy.
func classify(op string, err error) error {
	var kind models.ErrorKind
	switch code := pkghttp.StatusCode(err); {
	case code == http.StatusNotFound:
		kind = models.ErrNotFound
	case code == http.StatusTooManyRequests:
		kind = models.ErrRateLimited
	case code >= 500:
		kind = models.ErrUnavailable
	case code >= 400:
		kind = models.ErrMalformed
	case errors.Is(err, pkghttp.ErrDecode):
		kind = models.ErrMalformed
	case errors.Is(err, context.DeadlineExceeded):
		kind = models.ErrTimedOut
	default:
		kind = models.ErrUnavailable
	}
	return models.NewProviderError(kind, op, err)
}
