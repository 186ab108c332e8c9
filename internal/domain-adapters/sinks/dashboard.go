// Package sinks provides the shipped report sink implementations.
package sinks

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPDashboardSink uploads interop payloads to a code-scanning dashboard
// endpoint with a single POST.
type HTTPDashboardSink struct {
	url        string
	httpClient *http.Client
}

// NewHTTPDashboardSink creates a sink posting to url.
func NewHTTPDashboardSink(url string) *HTTPDashboardSink {
	return &HTTPDashboardSink{
		url: url,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Deliver posts the payload. Any non-2xx response is an error; the caller
// decides whether that is fatal (the orchestrator logs and continues).
func (s *HTTPDashboardSink) Deliver(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create dashboard request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dashboard upload failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("dashboard returned status %d", resp.StatusCode)
	}
	return nil
}
