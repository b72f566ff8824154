// Package errors defines the error types produced while decoding and
// validating Zabbix import documents.
//
// A validation pass stops at the first problem and reports it as a single
// *Violation. Its Kind classifies the problem, Path locates the offending
// node in the export tree and Field names the tag involved. Violations
// render in the classic form
//
//	Cannot parse XML tag "/hosts/host(1)/items/item(1)": the tag "key" is missing.
//
// and can be rendered in any language of the message catalog with Message.
//
// Problems found before validation (unreadable files, syntax errors, a
// missing zabbix_export root) are reported as *DecodeError.
//
// ErrorList gathers violations across independent passes, for example when
// validating a directory of export files.
package errors
