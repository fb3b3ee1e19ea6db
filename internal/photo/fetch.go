package photo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBackoffs is the wait between remote fetch attempts.
var DefaultBackoffs = []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second}

// Fetcher downloads remote photos with a per-request timeout and a size cap.
type Fetcher struct {
	httpClient *http.Client
	timeout    time.Duration
	maxBytes   int64
	maxRetries int
	backoffs   []time.Duration
}

func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{},
		timeout:    timeout,
		maxBytes:   maxBytes,
		maxRetries: 3,
		backoffs:   DefaultBackoffs,
	}
}

// WithBackoffs replaces the retry schedule. The number of attempts is one
// more than the number of waits.
func (f *Fetcher) WithBackoffs(backoffs []time.Duration) *Fetcher {
	f.backoffs = backoffs
	f.maxRetries = len(backoffs) + 1
	return f
}

// Fetch downloads url, retrying network errors and 5xx/429 responses.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	err := RetryWithBackoff(ctx, f.backoffs, f.maxRetries, func() error {
		var err error
		data, err = f.fetchOnce(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, statusErr
		}
		return nil, permanent(statusErr)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, permanent(fmt.Errorf("image is %d bytes, limit is %d bytes", resp.ContentLength, f.maxBytes))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, permanent(fmt.Errorf("image exceeds %d bytes", f.maxBytes))
	}
	return data, nil
}

// RetryWithBackoff runs fn up to maxRetries times, sleeping backoffs[i]
// after the i-th failure. It stops early on permanent errors and when ctx
// is done.
func RetryWithBackoff(ctx context.Context, backoffs []time.Duration, maxRetries int, fn func() error) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if i == maxRetries-1 {
			break
		}
		if i < len(backoffs) {
			timer := time.NewTimer(backoffs[i])
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("gave up after %d attempts: %w", i+1, lastErr)
			case <-timer.C:
			}
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
