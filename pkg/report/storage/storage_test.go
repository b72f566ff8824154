package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/importcheck/pkg/config"
	"mercator-hq/importcheck/pkg/imports"
	"mercator-hq/importcheck/pkg/report"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newReport(i int, valid bool) *report.Report {
	r := &report.Report{
		ID:          fmt.Sprintf("r-%03d", i),
		Fingerprint: fmt.Sprintf("fp-%d", i%2),
		Source:      fmt.Sprintf("exports/host-%d.xml", i),
		Format:      "xml",
		Version:     "2.0",
		Digest:      "deadbeef",
		Size:        100 + i,
		Valid:       valid,
		Summary:     imports.Summary{Groups: 1, Hosts: i, Items: 2 * i},
		Origin:      imports.OriginCLI,
		ValidatedAt: base.Add(time.Duration(i) * time.Hour),
		RecordedAt:  base.Add(time.Duration(i)*time.Hour + time.Second),
		Duration:    time.Duration(i) * time.Millisecond,
	}
	if !valid {
		r.ViolationKind = "MissingRequiredField"
		r.ViolationPath = "/hosts/host(1)"
		r.ViolationField = "name"
		r.Message = `Cannot parse XML tag "/hosts/host(1)": the tag "name" is missing.`
		r.Origin = imports.OriginGit
		r.Commit = "abc123"
	}
	return r
}

type backend struct {
	name string
	open func(t *testing.T) report.Storage
}

func backends() []backend {
	sqlite := func(driver string) func(t *testing.T) report.Storage {
		return func(t *testing.T) report.Storage {
			s, err := NewSQLiteStorage(&SQLiteConfig{
				Driver:      driver,
				Path:        filepath.Join(t.TempDir(), "reports.db"),
				WALMode:     true,
				BusyTimeout: time.Second,
			})
			if err != nil {
				t.Fatalf("NewSQLiteStorage(%s) error = %v", driver, err)
			}
			return s
		}
	}
	return []backend{
		{name: "memory", open: func(t *testing.T) report.Storage { return NewMemoryStorage() }},
		{name: "sqlite-modernc", open: sqlite(DriverModernc)},
		{name: "sqlite-mattn", open: sqlite(DriverMattn)},
	}
}

// seed stores six reports: even indexes valid, odd invalid.
func seed(t *testing.T, s report.Storage) {
	t.Helper()
	for i := 0; i < 6; i++ {
		if err := s.Store(context.Background(), newReport(i, i%2 == 0)); err != nil {
			t.Fatalf("Store(%d) error = %v", i, err)
		}
	}
}

func TestStorageRoundTrip(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			defer s.Close()
			ctx := context.Background()

			want := newReport(3, false)
			if err := s.Store(ctx, want); err != nil {
				t.Fatalf("Store() error = %v", err)
			}

			got, err := s.Get(ctx, want.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if *got != *want {
				t.Errorf("Get() = %+v\nwant %+v", got, want)
			}

			if err := s.Store(ctx, want); err == nil {
				t.Error("Store() duplicate id: expected error")
			}

			if _, err := s.Get(ctx, "missing"); !errors.Is(err, report.ErrNotFound) {
				t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
			}

			if err := s.Ping(ctx); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}

func TestStorageQuery(t *testing.T) {
	valid := true
	invalid := false
	start := base.Add(2 * time.Hour)
	end := base.Add(4 * time.Hour)

	tests := []struct {
		name  string
		query *report.Query
		want  []string
	}{
		{name: "all newest first", query: &report.Query{}, want: []string{"r-005", "r-004", "r-003", "r-002", "r-001", "r-000"}},
		{name: "ascending", query: &report.Query{SortOrder: "asc", Limit: 2}, want: []string{"r-000", "r-001"}},
		{name: "offset", query: &report.Query{SortOrder: "asc", Limit: 2, Offset: 4}, want: []string{"r-004", "r-005"}},
		{name: "offset past end", query: &report.Query{Offset: 10}, want: []string{}},
		{name: "valid only", query: &report.Query{Valid: &valid, SortOrder: "asc"}, want: []string{"r-000", "r-002", "r-004"}},
		{name: "invalid only", query: &report.Query{Valid: &invalid, SortOrder: "asc"}, want: []string{"r-001", "r-003", "r-005"}},
		{name: "time range", query: &report.Query{StartTime: &start, EndTime: &end, SortOrder: "asc"}, want: []string{"r-002", "r-003", "r-004"}},
		{name: "source", query: &report.Query{Source: "exports/host-2.xml"}, want: []string{"r-002"}},
		{name: "kind and commit", query: &report.Query{Kind: "MissingRequiredField", Commit: "abc123", Limit: 1}, want: []string{"r-005"}},
		{name: "origin", query: &report.Query{Origin: imports.OriginCLI, SortBy: "size"}, want: []string{"r-004", "r-002", "r-000"}},
		{name: "fingerprint", query: &report.Query{Fingerprint: "fp-1", SortBy: "duration", SortOrder: "asc"}, want: []string{"r-001", "r-003", "r-005"}},
		{name: "ids", query: &report.Query{IDs: []string{"r-001", "r-004", "nope"}, SortOrder: "asc"}, want: []string{"r-001", "r-004"}},
	}

	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			defer s.Close()
			seed(t, s)

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					got, err := s.Query(context.Background(), tt.query)
					if err != nil {
						t.Fatalf("Query() error = %v", err)
					}
					if ids := idsOf(got); fmt.Sprint(ids) != fmt.Sprint(tt.want) {
						t.Errorf("Query() = %v, want %v", ids, tt.want)
					}
				})
			}
		})
	}
}

func TestStorageStream(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			defer s.Close()
			seed(t, s)

			reportsCh, errCh, err := s.QueryStream(context.Background(), &report.Query{SortOrder: "asc"})
			if err != nil {
				t.Fatalf("QueryStream() error = %v", err)
			}

			var got []*report.Report
			for r := range reportsCh {
				got = append(got, r)
			}
			if err := <-errCh; err != nil {
				t.Fatalf("stream error = %v", err)
			}
			if len(got) != 6 || got[0].ID != "r-000" {
				t.Errorf("streamed %v", idsOf(got))
			}
		})
	}
}

func TestStorageCountDelete(t *testing.T) {
	invalid := false

	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			defer s.Close()
			seed(t, s)
			ctx := context.Background()

			n, err := s.Count(ctx, &report.Query{Valid: &invalid, Limit: 1})
			if err != nil || n != 3 {
				t.Fatalf("Count(invalid) = %d, %v; want 3", n, err)
			}

			cutoff := base.Add(time.Hour)
			deleted, err := s.Delete(ctx, &report.Query{EndTime: &cutoff})
			if err != nil || deleted != 2 {
				t.Fatalf("Delete(before cutoff) = %d, %v; want 2", deleted, err)
			}

			deleted, err = s.Delete(ctx, &report.Query{IDs: []string{"r-005"}})
			if err != nil || deleted != 1 {
				t.Fatalf("Delete(ids) = %d, %v; want 1", deleted, err)
			}

			n, err = s.Count(ctx, &report.Query{})
			if err != nil || n != 3 {
				t.Errorf("Count() after delete = %d, %v; want 3", n, err)
			}
		})
	}
}

func TestSQLiteSchemaReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")

	s, err := NewSQLiteStorage(&SQLiteConfig{Driver: DriverModernc, Path: path, WALMode: true})
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	seed(t, s)
	s.Close()

	s, err = NewSQLiteStorage(&SQLiteConfig{Driver: DriverModernc, Path: path, WALMode: true})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	n, err := s.Count(context.Background(), &report.Query{})
	if err != nil || n != 6 {
		t.Errorf("Count() after reopen = %d, %v; want 6", n, err)
	}
}

func TestSQLiteUnknownDriver(t *testing.T) {
	_, err := NewSQLiteStorage(&SQLiteConfig{Driver: "postgres", Path: ":memory:"})
	var se *report.StorageError
	if !errors.As(err, &se) || se.Operation != "open" {
		t.Errorf("NewSQLiteStorage(postgres) error = %v, want open StorageError", err)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StorageConfig
		wantErr bool
	}{
		{name: "memory", cfg: config.StorageConfig{Backend: "memory"}},
		{name: "sqlite in memory", cfg: config.StorageConfig{Backend: "sqlite", Driver: "sqlite", Path: ":memory:"}},
		{name: "sqlite nested dir", cfg: config.StorageConfig{Backend: "sqlite", Driver: "sqlite3", Path: filepath.Join(t.TempDir(), "a", "b", "r.db")}},
		{name: "unknown", cfg: config.StorageConfig{Backend: "s3"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if s == nil {
				return
			}
			defer s.Close()
			if err := s.Store(context.Background(), newReport(1, false)); err != nil {
				t.Errorf("Store() error = %v", err)
			}
		})
	}
}

func idsOf(reports []*report.Report) []string {
	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		ids = append(ids, r.ID)
	}
	return ids
}
