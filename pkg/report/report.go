package report

import (
	"context"
	"io"
	"time"

	"mercator-hq/importcheck/pkg/imports"
)

// Report is the stored outcome of one validation pass. Reports are
// immutable once recorded.
type Report struct {
	// Identity
	ID          string `json:"id"`          // uuid v4
	Fingerprint string `json:"fingerprint"` // Groups repeated identical failures

	// Document
	Source  string `json:"source"`
	Format  string `json:"format"`
	Version string `json:"version,omitempty"`
	Digest  string `json:"digest,omitempty"` // sha256 of the raw document
	Size    int    `json:"size"`

	// Outcome
	Valid          bool   `json:"valid"`
	ViolationKind  string `json:"violation_kind,omitempty"` // Violation kind or decode error type
	ViolationPath  string `json:"violation_path,omitempty"`
	ViolationField string `json:"violation_field,omitempty"`
	Message        string `json:"message,omitempty"`

	Summary imports.Summary `json:"summary"`

	// Provenance
	Origin string `json:"origin"`
	Commit string `json:"commit,omitempty"`

	// Timing
	ValidatedAt time.Time     `json:"validated_at"`
	RecordedAt  time.Time     `json:"recorded_at"`
	Duration    time.Duration `json:"duration"`
}

// Query filters reports for retrieval, counting and deletion. Zero values
// mean "no filter".
type Query struct {
	StartTime *time.Time // ValidatedAt >= StartTime
	EndTime   *time.Time // ValidatedAt <= EndTime

	Source      string // Exact match
	Origin      string
	Commit      string
	Fingerprint string
	Kind        string // ViolationKind
	Valid       *bool
	IDs         []string // Any of these IDs

	Limit     int
	Offset    int
	SortBy    string // validated_at, recorded_at, source, size, duration
	SortOrder string // asc or desc
}

// Storage persists reports.
type Storage interface {
	// Store persists a report. Storing an existing ID is an error.
	Store(ctx context.Context, r *Report) error

	// Get returns the report with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Report, error)

	// Query returns the reports matching q.
	Query(ctx context.Context, q *Query) ([]*Report, error)

	// QueryStream streams the reports matching q. Both channels are closed
	// when the query completes.
	QueryStream(ctx context.Context, q *Query) (<-chan *Report, <-chan error, error)

	// Count returns the number of reports matching q, ignoring Limit and Offset.
	Count(ctx context.Context, q *Query) (int64, error)

	// Delete removes the reports matching q and returns how many were removed.
	Delete(ctx context.Context, q *Query) (int64, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Exporter writes reports to w in an interchange format.
type Exporter interface {
	Export(ctx context.Context, reports []*Report, w io.Writer) error
}
