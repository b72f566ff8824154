package query

import (
	"fmt"
	"strings"

	importErrors "mercator-hq/importcheck/pkg/imports/errors"
	"mercator-hq/importcheck/pkg/report"
)

const (
	// DefaultLimit is the number of reports returned when Limit is 0.
	DefaultLimit = 100

	// MaxLimit caps a single query.
	MaxLimit = 10000

	// DefaultSortBy is the sort column applied by ApplyDefaults.
	DefaultSortBy = "validated_at"
)

// ValidSortFields lists the columns reports can be sorted by.
var ValidSortFields = map[string]bool{
	"validated_at": true,
	"recorded_at":  true,
	"source":       true,
	"size":         true,
	"duration":     true,
}

// ValidSortOrders lists the accepted sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

// ValidKinds lists the violation kinds and decode error types a report can carry.
var ValidKinds = map[string]bool{
	string(importErrors.KindMissingRequiredField): true,
	string(importErrors.KindTypeMismatch):         true,
	string(importErrors.KindUnexpectedField):      true,
	string(importErrors.KindMalformedCollection):  true,
	string(importErrors.KindInvalidDateTime):      true,
	string(importErrors.DecodeErrorIO):            true,
	string(importErrors.DecodeErrorSyntax):        true,
	string(importErrors.DecodeErrorStructure):     true,
	string(importErrors.DecodeErrorFormat):        true,
}

// Validate checks q and returns a *report.QueryError describing the first
// invalid parameter.
func Validate(q *report.Query) error {
	if q.Limit < 0 {
		return report.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return report.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}
	if q.Offset < 0 {
		return report.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	if q.SortBy != "" && !ValidSortFields[q.SortBy] {
		return report.NewQueryError(q, fmt.Errorf("invalid sort field: %s", q.SortBy))
	}
	if q.SortOrder != "" && !ValidSortOrders[strings.ToLower(q.SortOrder)] {
		return report.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return report.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
	}

	if q.Kind != "" && !ValidKinds[q.Kind] {
		return report.NewQueryError(q, fmt.Errorf("invalid kind: %s", q.Kind))
	}

	return nil
}

// ApplyDefaults fills in limit and sorting. Sort orders are normalized to
// lower case.
func ApplyDefaults(q *report.Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = DefaultSortBy
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
	q.SortOrder = strings.ToLower(q.SortOrder)
}
