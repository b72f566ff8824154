// Package export writes reports as JSON or CSV, either from a slice or
// streamed from report.Storage.QueryStream.
package export
