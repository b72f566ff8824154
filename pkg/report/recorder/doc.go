// Package recorder stores a report for every validation result without
// blocking the validating goroutine. Results are converted to reports,
// queued on a buffered channel and written by a single worker; Close
// drains the queue.
package recorder
