// Package metrics records per-statement execution metrics for a GizmoSQL
// session and serializes them for inspection.
package metrics

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// -----------------------------
// Domain Types & Metadata
// -----------------------------

// StatementKind classifies an executed statement.
type StatementKind string

const (
	Exec  StatementKind = "exec"
	Query StatementKind = "query"
)

// SessionMetadata captures high-level context for a session.
type SessionMetadata struct {
	Engine        string    `json:"engine"`
	VendorVersion string    `json:"vendor_version,omitempty"`
	URI           string    `json:"uri,omitempty"`
	Catalog       string    `json:"catalog,omitempty"`
	StartTime     time.Time `json:"start_time"`
}

// StatementRecord holds metrics for a single executed statement.
type StatementRecord struct {
	Kind         StatementKind `json:"kind"`
	SQL          string        `json:"sql"`
	StartTime    time.Time     `json:"start_time"`
	Duration     time.Duration `json:"duration"`
	RowsAffected int64         `json:"rows_affected"`
	Error        string        `json:"error,omitempty"`
}

// SessionSummary aggregates a session's statement records.
type SessionSummary struct {
	Statements    int           `json:"statements"`
	Errors        int           `json:"errors"`
	TotalDuration time.Duration `json:"total_duration"`
}

// SessionReport is the serializable form of a full session.
type SessionReport struct {
	Metadata   SessionMetadata   `json:"metadata"`
	Statements []StatementRecord `json:"statements"`
	Summary    SessionSummary    `json:"summary"`
}

// -----------------------------
// Collector
// -----------------------------

// Collector accumulates statement records. It is safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	metadata SessionMetadata
	records  []StatementRecord
}

// NewCollector creates a collector for one session.
func NewCollector(meta SessionMetadata) *Collector {
	if meta.Engine == "" {
		meta.Engine = "gizmosql"
	}
	if meta.StartTime.IsZero() {
		meta.StartTime = time.Now().UTC()
	}
	return &Collector{metadata: meta}
}

// Record appends one statement record.
func (c *Collector) Record(rec StatementRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
}

// Records returns a copy of the recorded statements.
func (c *Collector) Records() []StatementRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]StatementRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Summary aggregates the recorded statements.
func (c *Collector) Summary() SessionSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	var s SessionSummary
	s.Statements = len(c.records)
	for _, r := range c.records {
		s.TotalDuration += r.Duration
		if r.Error != "" {
			s.Errors++
		}
	}
	return s
}

// Report builds the full serializable session report.
func (c *Collector) Report() SessionReport {
	return SessionReport{
		Metadata:   c.metadata,
		Statements: c.Records(),
		Summary:    c.Summary(),
	}
}

// WriteJSON writes the session report to a file as indented JSON.
func (c *Collector) WriteJSON(path string) error {
	data, err := json.MarshalIndent(c.Report(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
