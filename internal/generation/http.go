package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxResponseBytes bounds what a provider response may hold in memory.
const maxResponseBytes = 64 << 20

// HTTPConfig is the transport shared by the HTTP adapters.
type HTTPConfig struct {
	Client *http.Client
	// BaseURL replaces the provider's public endpoint, mainly for tests and proxies.
	BaseURL string
	// MaxTimeout caps the provider's own timeout when set.
	MaxTimeout time.Duration
}

func (h HTTPConfig) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return http.DefaultClient
}

func (h HTTPConfig) base(def string) string {
	if h.BaseURL != "" {
		return strings.TrimRight(h.BaseURL, "/")
	}
	return def
}

func (h HTTPConfig) timeout(own time.Duration) time.Duration {
	if h.MaxTimeout > 0 && h.MaxTimeout < own {
		return h.MaxTimeout
	}
	return own
}

type response struct {
	status      int
	contentType string
	body        []byte
	// retryAfter is the Retry-After header in seconds form, or zero.
	retryAfter time.Duration
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// do sends one request bounded by timeout and reads the whole body.
func (h HTTPConfig) do(ctx context.Context, timeout time.Duration, method, url string, headers map[string]string, payload any) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout(timeout))
	defer cancel()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	return &response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        data,
		retryAfter:  parseRetryAfter(resp.Header.Get("Retry-After")),
	}, nil
}

// transportSkip classifies a failed round trip.
func transportSkip(err error) Skip {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return skipf(SkipTransient, "timed out")
	case errors.Is(err, context.Canceled):
		return skipf(SkipTransient, "cancelled")
	default:
		return skipf(SkipTransient, "network error: %v", err)
	}
}

// statusSkip classifies a non-success HTTP status. A 429 waits for the longer of
// rateLimitDelay and the provider's Retry-After; with neither the plan advances at once.
func statusSkip(r *response, loadingDelay, rateLimitDelay time.Duration) Skip {
	detail := snippet(r.body)
	switch {
	case r.status == http.StatusServiceUnavailable:
		s := skipf(SkipLoading, "model loading (503): %s", detail)
		s.RetryAfter = loadingDelay
		return s
	case r.status == http.StatusTooManyRequests:
		s := skipf(SkipRateLimited, "rate limited (429)")
		s.RetryAfter = max(rateLimitDelay, r.retryAfter)
		return s
	case r.status == http.StatusUnauthorized || r.status == http.StatusForbidden:
		return skipf(SkipPermanent, "authentication failed (%d)", r.status)
	case r.status == http.StatusPaymentRequired:
		return skipf(SkipPermanent, "requires payment (402)")
	case r.status >= 500:
		return skipf(SkipTransient, "server error (%d): %s", r.status, detail)
	default:
		return skipf(SkipPermanent, "unexpected status %d: %s", r.status, detail)
	}
}

// snippet returns at most 200 bytes of a body for log and skip messages.
func snippet(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		s = s[:limit]
	}
	if s == "" {
		return "no content"
	}
	return s
}
