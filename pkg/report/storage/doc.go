// Package storage implements report.Storage backends.
//
// MemoryStorage keeps reports in a map. SQLiteStorage persists them in a
// single table and works with either SQLite driver: the pure Go
// modernc.org/sqlite (driver name "sqlite", the default) or the cgo
// github.com/mattn/go-sqlite3 (driver name "sqlite3"). Both are linked in
// and selected at runtime through SQLiteConfig.Driver.
package storage
