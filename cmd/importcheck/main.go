// Importcheck validates Zabbix 2.0 configuration exports (XML, JSON or YAML)
// against the import schema before they reach a Zabbix server.
//
// Usage:
//
//	# Validate files or directories
//	importcheck validate hosts.xml templates/
//
//	# Validate from stdin as JSON
//	cat export.json | importcheck validate --format json -
//
//	# Serve the HTTP API with report storage and a directory watcher
//	importcheck serve --config importcheck.yaml --watch exports/
//
//	# Validate a git repository of exports
//	importcheck sync --repo https://git.example.com/ops/zabbix-exports.git
//
//	# Query stored reports
//	importcheck reports list --valid=false
//
// Exit status is 0 when every file is valid, 1 when any file is invalid or
// unreadable and 2 on usage or runtime errors.
package main

func main() {
	Execute()
}
