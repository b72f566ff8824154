// Package schema implements the generic field checker used for every node
// type of an import document.
//
// A RuleSet is an ordered list of field constraints. Check walks the rules in
// order and stops at the first failing field; Unexpected reports the first
// field of a node that no rule declares. Both are pure functions and hold no
// state, so a RuleSet may be shared by any number of goroutines.
package schema

import (
	"strings"

	"mercator-hq/importcheck/pkg/imports/document"
)

// Constraint is a set of checks applied to one field.
// The zero value places no constraint on the field.
type Constraint uint8

const (
	Required Constraint = 1 << iota // Field must be present
	String                          // Field, if present, must be a scalar
	Array                           // Field, if present, must be a collection
)

// Has returns true if c includes all checks of other.
func (c Constraint) Has(other Constraint) bool {
	return c&other == other
}

// String returns the constraint in the notation of the 2.0 rule tables,
// for example "required|string".
func (c Constraint) String() string {
	var parts []string
	if c.Has(Required) {
		parts = append(parts, "required")
	}
	if c.Has(String) {
		parts = append(parts, "string")
	}
	if c.Has(Array) {
		parts = append(parts, "array")
	}
	if len(parts) == 0 {
		return "any"
	}
	return strings.Join(parts, "|")
}

// Rule binds a constraint to a field name.
type Rule struct {
	Field      string
	Constraint Constraint
}

// RuleSet is the ordered field table of one node type.
type RuleSet []Rule

// Fields returns the declared field names in rule order.
func (rs RuleSet) Fields() []string {
	fields := make([]string, len(rs))
	for i, r := range rs {
		fields[i] = r.Field
	}
	return fields
}

// Lookup returns the constraint declared for field.
func (rs RuleSet) Lookup(field string) (Constraint, bool) {
	for _, r := range rs {
		if r.Field == field {
			return r.Constraint, true
		}
	}
	return 0, false
}

// Reason describes why a field failed its constraint.
type Reason string

const (
	ReasonMissing   Reason = "missing"    // Required field absent
	ReasonNotString Reason = "not_string" // Collection given for a string field
	ReasonNotArray  Reason = "not_array"  // Non-empty scalar given for an array field
)

// FieldError reports the first field that failed its constraint.
type FieldError struct {
	Field    string
	Reason   Reason
	Location document.Location
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return "field " + e.Field + ": " + string(e.Reason)
}

// ValidInput is the set of node fields that matched a declared rule.
type ValidInput map[string]struct{}

// Contains returns true if field matched a rule.
func (vi ValidInput) Contains(field string) bool {
	_, ok := vi[field]
	return ok
}

// Check validates node against rules in rule order and returns the fields
// that matched a rule. The first failing field is returned as a FieldError
// and no further rules are evaluated.
//
// An empty scalar satisfies Array: an empty collection and an empty string
// decode to the same thing from XML.
func Check(node *document.Node, rules RuleSet) (ValidInput, *FieldError) {
	valid := make(ValidInput, len(rules))

	for _, rule := range rules {
		value, ok := node.Get(rule.Field)
		if !ok {
			if rule.Constraint.Has(Required) {
				return nil, &FieldError{Field: rule.Field, Reason: ReasonMissing, Location: node.Location}
			}
			continue
		}

		if rule.Constraint.Has(String) && !value.IsScalar() {
			return nil, &FieldError{Field: rule.Field, Reason: ReasonNotString, Location: value.Location}
		}
		if rule.Constraint.Has(Array) && !value.IsCollection() && !value.IsEmpty() {
			return nil, &FieldError{Field: rule.Field, Reason: ReasonNotArray, Location: value.Location}
		}

		valid[rule.Field] = struct{}{}
	}

	return valid, nil
}

// Unexpected returns the first key of node, in node order, that is not part
// of valid.
func Unexpected(node *document.Node, valid ValidInput) (string, bool) {
	for _, key := range node.Keys() {
		if !valid.Contains(key) {
			return key, true
		}
	}
	return "", false
}
