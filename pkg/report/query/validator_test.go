package query

import (
	"errors"
	"strings"
	"testing"
	"time"

	"mercator-hq/importcheck/pkg/report"
)

func TestValidate(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)
	valid := false

	tests := []struct {
		name    string
		query   *report.Query
		wantErr string
	}{
		{
			name: "all filters",
			query: &report.Query{
				StartTime: &past,
				EndTime:   &now,
				Source:    "hosts.xml",
				Origin:    "cli",
				Commit:    "abc123",
				Kind:      "MissingRequiredField",
				Valid:     &valid,
				Limit:     100,
				SortBy:    "validated_at",
				SortOrder: "desc",
			},
		},
		{name: "empty query", query: &report.Query{}},
		{name: "decode error kind", query: &report.Query{Kind: "syntax"}},
		{name: "upper case sort order", query: &report.Query{SortOrder: "ASC"}},
		{name: "negative limit", query: &report.Query{Limit: -1}, wantErr: "limit must be >= 0"},
		{name: "limit over max", query: &report.Query{Limit: MaxLimit + 1}, wantErr: "limit must be <="},
		{name: "negative offset", query: &report.Query{Offset: -1}, wantErr: "offset must be >= 0"},
		{name: "bad sort field", query: &report.Query{SortBy: "digest"}, wantErr: "invalid sort field"},
		{name: "bad sort order", query: &report.Query{SortOrder: "sideways"}, wantErr: "invalid sort order"},
		{name: "inverted range", query: &report.Query{StartTime: &now, EndTime: &past}, wantErr: "start_time must be before end_time"},
		{name: "unknown kind", query: &report.Query{Kind: "Oops"}, wantErr: "invalid kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.query)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
			var qe *report.QueryError
			if !errors.As(err, &qe) {
				t.Errorf("Validate() error type = %T, want *report.QueryError", err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	q := &report.Query{}
	ApplyDefaults(q)
	if q.Limit != DefaultLimit || q.SortBy != DefaultSortBy || q.SortOrder != "desc" {
		t.Errorf("ApplyDefaults() = limit %d, sort %s %s", q.Limit, q.SortBy, q.SortOrder)
	}

	q = &report.Query{Limit: 5, SortBy: "size", SortOrder: "ASC"}
	ApplyDefaults(q)
	if q.Limit != 5 || q.SortBy != "size" || q.SortOrder != "asc" {
		t.Errorf("ApplyDefaults() overwrote explicit values: %+v", q)
	}
}
