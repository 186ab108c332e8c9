// Package gateways defines the capability boundaries the engine invokes.
package gateways

import (
	"context"
	"errors"
	"fmt"

	"github.com/scangate/scangate/internal/domain/entities"
)

// ScannerGateway wraps an external vulnerability-scanning capability.
// A call may be slow (seconds to tens of seconds) and may fail transiently;
// implementations translate vendor-specific output into the finding model.
// Implementations may pre-filter by the profile's severity filter for
// efficiency, but callers must not rely on it.
type ScannerGateway interface {
	// Name identifies the gateway in configuration and logs.
	Name() string

	// Scan resolves the artifact reference and returns its findings.
	// Failures are reported as *ScanError so callers can distinguish
	// transient from fatal ones.
	Scan(ctx context.Context, artifactRef string, profile entities.ScanProfile) ([]entities.Finding, error)
}

// ScanError is a scan failure scoped to one profile. Transient errors
// (network, timeout) are eligible for retry; fatal ones (artifact not
// found, scanner misconfiguration) are surfaced immediately.
type ScanError struct {
	Profile   string
	Transient bool
	Err       error
}

func (e *ScanError) Error() string {
	kind := "fatal"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("scan failed (%s, profile %q): %v", kind, e.Profile, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Transient reports whether err is a retryable scan failure. A context
// deadline counts as transient since the per-call timeout is a retry
// boundary, not a terminal condition.
func Transient(err error) bool {
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr.Transient
	}
	return errors.Is(err, context.DeadlineExceeded)
}
