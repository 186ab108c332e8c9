// Package sinks defines the external consumers of rendered reports.
package sinks

import (
	"context"
	"time"
)

// DashboardSink accepts interop-format payloads for a code-scanning
// dashboard. Delivery is fire-and-forget from the engine's perspective:
// a failure is logged by the caller, never fatal to the run's verdict.
type DashboardSink interface {
	Deliver(ctx context.Context, payload []byte) error
}

// ReportStore accepts rendered report bytes plus a suggested retention
// period. Storage mechanics (rotation, actual expiry) are external.
type ReportStore interface {
	Store(ctx context.Context, name string, data []byte, retention time.Duration) error
}

// ReportSigner produces a signature artifact over rendered report bytes.
type ReportSigner interface {
	Sign(data []byte) ([]byte, error)
}
