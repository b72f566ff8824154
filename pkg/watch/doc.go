// Package watch validates export files whenever they change on disk.
//
// A Watcher registers an fsnotify watch on every directory of a tree,
// including directories created later. Create and write events for
// export files are debounced per file, so an editor saving in several
// steps triggers one validation, and then handed to a bounded pond worker
// pool. Results flow through the imports.Service, which logs, counts and
// records them like any other validation.
package watch
