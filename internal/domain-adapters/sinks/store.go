package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FSReportStore writes rendered reports into a directory, with a metadata
// sidecar carrying the suggested retention period. Actual expiry is the
// retention system's job, not this store's.
type FSReportStore struct {
	dir string
	now func() time.Time
}

// NewFSReportStore creates a store rooted at dir.
func NewFSReportStore(dir string) *FSReportStore {
	return &FSReportStore{dir: dir, now: time.Now}
}

type storeMetadata struct {
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Retention string    `json:"retention"`
}

// Store writes data under name and a name.meta.json sidecar next to it.
func (s *FSReportStore) Store(_ context.Context, name string, data []byte, retention time.Duration) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report %s: %w", name, err)
	}

	storedAt := s.now().UTC()
	meta := storeMetadata{
		StoredAt:  storedAt,
		ExpiresAt: storedAt.Add(retention),
		Retention: retention.String(),
	}
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report metadata: %w", err)
	}
	if err := os.WriteFile(path+".meta.json", metaBytes, 0644); err != nil {
		return fmt.Errorf("write report metadata for %s: %w", name, err)
	}
	return nil
}
