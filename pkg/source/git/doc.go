// Package git keeps a local clone of a repository holding Zabbix export
// files and validates them.
//
// Repository wraps go-git clone, pull, log and tree diff operations with
// token, SSH key or anonymous authentication. Sync clones or pulls, picks
// either every export file or only the ones changed by the pull, and
// validates them with a batch.Runner, stamping each result with the HEAD
// commit.
package git
