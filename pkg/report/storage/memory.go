package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"mercator-hq/importcheck/pkg/report"
)

const memoryBackend = "memory"

// MemoryStorage keeps reports in a map. It is used by tests and by one-shot
// CLI runs that do not persist reports.
type MemoryStorage struct {
	reports map[string]*report.Report
	mu      sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{reports: make(map[string]*report.Report)}
}

// Store keeps a copy of r.
func (s *MemoryStorage) Store(ctx context.Context, r *report.Report) error {
	if r.ID == "" {
		return report.NewStorageError(memoryBackend, "store", fmt.Errorf("report has no id"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[r.ID]; ok {
		return report.NewStorageError(memoryBackend, "store", fmt.Errorf("duplicate report id %s", r.ID))
	}
	c := *r
	s.reports[r.ID] = &c
	return nil
}

// Get returns a copy of the report with the given ID.
func (s *MemoryStorage) Get(ctx context.Context, id string) (*report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, report.ErrNotFound
	}
	c := *r
	return &c, nil
}

// Query returns sorted, paginated copies of the matching reports.
func (s *MemoryStorage) Query(ctx context.Context, q *report.Query) ([]*report.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, report.NewStorageError(memoryBackend, "query", err)
	}

	s.mu.RLock()
	results := make([]*report.Report, 0)
	for _, r := range s.reports {
		if Matches(r, q) {
			c := *r
			results = append(results, &c)
		}
	}
	s.mu.RUnlock()

	sortReports(results, q.SortBy, q.SortOrder)
	return paginate(results, q.Limit, q.Offset), nil
}

// QueryStream streams the result of Query.
func (s *MemoryStorage) QueryStream(ctx context.Context, q *report.Query) (<-chan *report.Report, <-chan error, error) {
	reports, err := s.Query(ctx, q)
	if err != nil {
		return nil, nil, err
	}

	reportsCh := make(chan *report.Report, streamBuffer)
	errCh := make(chan error, 1)

	go func() {
		defer close(reportsCh)
		defer close(errCh)

		for _, r := range reports {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case reportsCh <- r:
			}
		}
	}()

	return reportsCh, errCh, nil
}

// Count returns the number of matching reports.
func (s *MemoryStorage) Count(ctx context.Context, q *report.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, r := range s.reports {
		if Matches(r, q) {
			n++
		}
	}
	return n, nil
}

// Delete removes the matching reports.
func (s *MemoryStorage) Delete(ctx context.Context, q *report.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, r := range s.reports {
		if Matches(r, q) {
			delete(s.reports, id)
			n++
		}
	}
	return n, nil
}

// Ping always succeeds.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStorage) Close() error {
	return nil
}

// Len returns the number of stored reports.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

// Matches reports whether r passes every filter of q. Limit, Offset and
// sorting are ignored.
func Matches(r *report.Report, q *report.Query) bool {
	if q == nil {
		return true
	}
	if q.StartTime != nil && r.ValidatedAt.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && r.ValidatedAt.After(*q.EndTime) {
		return false
	}
	if q.Source != "" && r.Source != q.Source {
		return false
	}
	if q.Origin != "" && r.Origin != q.Origin {
		return false
	}
	if q.Commit != "" && r.Commit != q.Commit {
		return false
	}
	if q.Fingerprint != "" && r.Fingerprint != q.Fingerprint {
		return false
	}
	if q.Kind != "" && r.ViolationKind != q.Kind {
		return false
	}
	if q.Valid != nil && r.Valid != *q.Valid {
		return false
	}
	if len(q.IDs) > 0 && !slices.Contains(q.IDs, r.ID) {
		return false
	}
	return true
}

// sortReports orders reports by the given column. Ties are broken by ID so
// that paging is stable.
func sortReports(reports []*report.Report, sortBy, order string) {
	desc := !strings.EqualFold(order, "asc")

	slices.SortStableFunc(reports, func(a, b *report.Report) int {
		var c int
		switch sortBy {
		case "recorded_at":
			c = a.RecordedAt.Compare(b.RecordedAt)
		case "source":
			c = cmp.Compare(a.Source, b.Source)
		case "size":
			c = cmp.Compare(a.Size, b.Size)
		case "duration":
			c = cmp.Compare(a.Duration, b.Duration)
		default:
			c = a.ValidatedAt.Compare(b.ValidatedAt)
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if desc {
			return -c
		}
		return c
	})
}

func paginate(reports []*report.Report, limit, offset int) []*report.Report {
	if offset >= len(reports) {
		return []*report.Report{}
	}
	reports = reports[offset:]
	if limit > 0 && limit < len(reports) {
		reports = reports[:limit]
	}
	return reports
}
