package adapters

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const maxBodySize = 10 << 20 // 10 MiB cap on any fetched payload

// HTTPClient wraps the shared HTTP transport used by all adapters.
type HTTPClient struct {
	client    *http.Client
	userAgent string
}

// NewHTTPClient builds the shared client with sane transport limits.
func NewHTTPClient(timeout time.Duration, userAgent string) *HTTPClient {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &HTTPClient{
		client:    &http.Client{Timeout: timeout, Transport: tr},
		userAgent: userAgent,
	}
}

// get fetches a URL with up to three attempts and doubling backoff.
// Non-2xx responses are errors.
func (c *HTTPClient) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	backoff := 500 * time.Millisecond

	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		body, err := c.getOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (c *HTTPClient) getOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, application/xml, text/html, */*")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// pacer enforces the source's rate-limit delay between successive network
// calls inside one fetch. The first call goes through immediately.
type pacer struct {
	delay time.Duration
	last  time.Time
}

func newPacer(delay time.Duration) *pacer {
	return &pacer{delay: delay}
}

func (p *pacer) wait(ctx context.Context) error {
	if !p.last.IsZero() {
		if remaining := p.delay - time.Since(p.last); remaining > 0 {
			select {
			case <-time.After(remaining):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	p.last = time.Now()
	return nil
}
