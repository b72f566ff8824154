// Package validator checks decoded import documents against a node-type
// registry.
//
// The walk is recursive and fail-fast: the first violation anywhere in the
// tree aborts the pass. Every pass is a pure function of the registry and
// the tree, so one Validator can serve any number of goroutines.
package validator

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"mercator-hq/importcheck/pkg/imports/document"
	importErrors "mercator-hq/importcheck/pkg/imports/errors"
	"mercator-hq/importcheck/pkg/imports/schema"
)

var dateTimePattern = regexp.MustCompile(`^20[0-9]{2}-(0[1-9]|1[0-2])-(0[1-9]|[1-2][0-9]|3[01])T(2[0-3]|[01][0-9]):[0-5][0-9]:[0-5][0-9]Z$`)

// Validator validates export trees against a registry.
type Validator struct {
	registry *Registry
	logger   *slog.Logger
	suggest  bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithRegistry replaces the default 2.0 schema.
func WithRegistry(r *Registry) Option {
	return func(v *Validator) {
		v.registry = r
	}
}

// WithLogger sets the logger used for debug tracing of the walk.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// WithSuggestions attaches a "did you mean" hint to unexpected tag violations.
func WithSuggestions(enabled bool) Option {
	return func(v *Validator) {
		v.suggest = enabled
	}
}

// NewValidator creates a validator for the 2.0 export schema.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		registry: V20,
		logger:   slog.Default().With("component", "imports.validator"),
		suggest:  true,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Registry returns the registry the validator checks against.
func (v *Validator) Registry() *Registry {
	return v.registry
}

// Validate checks the unwrapped zabbix_export node. It returns nil when the
// tree is valid and a *errors.Violation otherwise.
func (v *Validator) Validate(root *document.Node) error {
	if violation := v.Check(root); violation != nil {
		return violation
	}
	return nil
}

// Check is Validate with a typed result.
func (v *Validator) Check(root *document.Node) *importErrors.Violation {
	if root == nil {
		root = document.NewNode()
	}

	if date, ok := root.Get("date"); ok {
		if violation := ValidateDateTime(date, document.Root.Field("date")); violation != nil {
			return violation
		}
	}

	return v.validateOne(root, v.registry.Root(), document.Root)
}

// ValidateDateTime checks an export date against YYYY-MM-DDThh:mm:ssZ.
// The check is lexical: February 31st passes.
func ValidateDateTime(value *document.Value, path document.Path) *importErrors.Violation {
	if !value.IsScalar() || !dateTimePattern.MatchString(value.Scalar) {
		return importErrors.NewInvalidDateTime(path).WithLocation(value.Location)
	}
	return nil
}

// validateOne checks a single node of type nt located at path, then recurses
// into its children.
func (v *Validator) validateOne(node *document.Node, nt *NodeType, path document.Path) *importErrors.Violation {
	if nt.PassThrough {
		return nil
	}

	valid, ferr := schema.Check(node, nt.Rules)
	if ferr != nil {
		return fieldViolation(ferr, path)
	}

	if nt.Closed {
		if field, ok := schema.Unexpected(node, valid); ok {
			violation := importErrors.NewUnexpectedField(path, field)
			if value, found := node.Get(field); found {
				violation.WithLocation(value.Location)
			}
			if v.suggest {
				violation.WithSuggestion(importErrors.SuggestTag(field, nt.Rules.Fields()))
			}
			return violation
		}
	}

	for _, child := range nt.Children {
		value, ok := node.Get(child.Field)
		if !ok {
			continue
		}
		if child.Gate != "" {
			if gate, _ := node.Get(child.Gate); gate.IsEmpty() {
				continue
			}
		}

		childType, _ := v.registry.Lookup(child.Type)
		childPath := path.Field(child.fieldSegment())

		var violation *importErrors.Violation
		if child.Kind == ChildSingle {
			violation = v.validateSingle(value, childType, child.SkipEmpty, childPath)
		} else {
			violation = v.validateList(value, child, childType, childPath)
		}
		if violation != nil {
			return violation
		}
	}

	return nil
}

// validateSingle checks a nested object such as a graph item's item.
func (v *Validator) validateSingle(value *document.Value, nt *NodeType, skipEmpty bool, path document.Path) *importErrors.Violation {
	if nt.PassThrough {
		return nil
	}
	if value.IsEmpty() {
		if skipEmpty {
			return nil
		}
		return v.validateOne(document.NewNode(), nt, path)
	}
	if !value.IsMapping() {
		return importErrors.NewMalformedCollection(path).WithLocation(value.Location)
	}
	return v.validateOne(value.Mapping, nt, path)
}

// validateList checks a collection of elements that share c.Tag and type nt.
// Tags are checked for every element first, then element shapes, then each
// element is validated in document order.
func (v *Validator) validateList(value *document.Value, c Child, nt *NodeType, path document.Path) *importErrors.Violation {
	if nt.PassThrough {
		return nil
	}
	if !value.IsCollection() {
		if value.IsEmpty() {
			return nil
		}
		return importErrors.NewMalformedCollection(path).WithLocation(value.Location)
	}

	elements := value.Elements()

	if v.logger.Enabled(context.Background(), slog.LevelDebug) {
		v.logger.Debug("validating collection",
			"path", path.String(),
			"type", nt.Name,
			"count", len(elements),
		)
	}

	tag, segment := c.Tag, c.tagSegment()

	for i, elem := range elements {
		if !matchesTag(elem.Tag, tag) {
			violation := importErrors.NewUnexpectedField(path.Index(segment, i+1), elem.Tag).WithLocation(elem.Value.Location)
			if v.suggest {
				violation.WithSuggestion(importErrors.SuggestTag(elem.Tag, []string{tag}))
			}
			return violation
		}
	}

	for i, elem := range elements {
		if !elementShapeOK(elem.Value, nt) {
			return importErrors.NewMalformedCollection(path.Index(segment, i+1)).WithLocation(elem.Value.Location)
		}
	}

	for i, elem := range elements {
		elemPath := path.Index(segment, i+1)

		var violation *importErrors.Violation
		if nt.Elements != nil {
			inner, _ := v.registry.Lookup(nt.Elements.Type)
			violation = v.validateList(elem.Value, *nt.Elements, inner, elemPath)
		} else {
			violation = v.validateOne(elem.Value.Mapping, nt, elemPath)
		}
		if violation != nil {
			return violation
		}
	}

	return nil
}

// fieldViolation maps a schema failure on the node at path to a violation.
func fieldViolation(ferr *schema.FieldError, path document.Path) *importErrors.Violation {
	switch ferr.Reason {
	case schema.ReasonMissing:
		return importErrors.NewMissingField(path, ferr.Field).WithLocation(ferr.Location)
	case schema.ReasonNotString:
		return importErrors.NewTypeMismatch(path, ferr.Field).WithLocation(ferr.Location)
	default:
		return importErrors.NewMalformedCollection(path.Field(ferr.Field)).WithLocation(ferr.Location)
	}
}

// matchesTag accepts untagged elements (JSON and YAML arrays), the tag itself
// and the tag followed by digits (repeated XML elements).
func matchesTag(got, want string) bool {
	if got == "" || got == want {
		return true
	}
	suffix, ok := strings.CutPrefix(got, want)
	if !ok {
		return false
	}
	_, err := strconv.ParseUint(suffix, 10, 64)
	return err == nil
}

// elementShapeOK reports whether a collection element can be validated as nt.
// Plain node types need a mapping; list-of-list types accept any collection.
func elementShapeOK(value *document.Value, nt *NodeType) bool {
	if nt.Elements != nil {
		return value.IsCollection()
	}
	return value.IsMapping()
}
