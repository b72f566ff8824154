// Package imports validates Zabbix 2.0 import-export documents.
//
// The subpackages hold the pieces of a validation pass:
//
//   - document: the format-neutral export tree
//   - decoder: XML, JSON and YAML readers producing that tree
//   - schema: the field-level rule checker
//   - validator: the recursive walk over the 2.0 node types
//   - errors: violations and decode errors
//   - messages: localized violation messages
//
// For one-off checks use the convenience functions:
//
//	if err := imports.ValidateFile("export.xml"); err != nil {
//		fmt.Println(err) // Cannot parse XML tag "/hosts/host(1)": the tag "name" is missing.
//	}
//
// Long-running callers build a Service, which adds tracing, metrics,
// logging and report recording around the same pass.
package imports
