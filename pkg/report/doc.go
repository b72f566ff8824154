// Package report stores the outcome of validation passes.
//
// A Report is created for every validated document by the asynchronous
// recorder (subpackage recorder) and persisted through a Storage backend
// (subpackage storage): an in-memory map for tests and short lived runs, or
// SQLite for the server and watcher. Reports can be filtered with Query,
// exported as JSON or CSV (subpackage export) and pruned by age or count on
// a cron schedule (subpackage retention).
//
//	svc := imports.NewService(imports.WithRecorder(rec))
//	res, _ := svc.Validate(ctx, imports.Input{Path: "export.xml"})
//	// rec stores a Report for res in the background
package report
