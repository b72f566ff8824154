package validator

import (
	"fmt"
	"sort"

	"mercator-hq/importcheck/pkg/imports/schema"
)

// ChildKind selects how a child field is recursed into.
type ChildKind int

const (
	// ChildList is a collection of elements sharing one tag and node type.
	ChildList ChildKind = iota
	// ChildSingle is one nested object validated directly.
	ChildSingle
)

// Child describes one child field of a node type.
type Child struct {
	Field string    // Field name on the parent node
	Tag   string    // Element tag inside the collection (ChildList only)
	Type  string    // Node type of the elements, or of the object for ChildSingle
	Kind  ChildKind // List or single object

	// SkipEmpty skips a ChildSingle whose value is empty.
	SkipEmpty bool

	// Gate names a field of the parent that must be non-empty for the child
	// to be validated. Empty means always.
	Gate string

	// PathField and PathTag override Field and Tag in violation paths.
	// Screen items are reported as /screenitems/screenitem(n) while the
	// document still uses screen_items and screen_item.
	PathField string
	PathTag   string
}

func (c Child) fieldSegment() string {
	if c.PathField != "" {
		return c.PathField
	}
	return c.Field
}

func (c Child) tagSegment() string {
	if c.PathTag != "" {
		return c.PathTag
	}
	return c.Tag
}

// NodeType is the schema of one kind of node: its rule set, whether the
// closure check runs, and which children are recursed into, in order.
type NodeType struct {
	Name     string
	Rules    schema.RuleSet
	Closed   bool
	Children []Child

	// Elements turns the node type into a list of lists: every node of this
	// type is itself a collection of elements described by Elements.
	// Rules, Closed and Children are ignored when Elements is set.
	Elements *Child

	// PassThrough disables all validation for the node type.
	PassThrough bool
}

// Declares reports whether field is part of the rule set.
func (nt *NodeType) Declares(field string) bool {
	_, ok := nt.Rules.Lookup(field)
	return ok
}

// Registry holds node types by name. A Registry is immutable once built and
// safe for concurrent use.
type Registry struct {
	root  string
	types map[string]*NodeType
}

// NewRegistry creates a registry from node types. The root node type is the
// entry point of every validation pass. Every child must reference a
// registered node type.
func NewRegistry(root string, types ...*NodeType) (*Registry, error) {
	r := &Registry{
		root:  root,
		types: make(map[string]*NodeType, len(types)),
	}

	for _, nt := range types {
		if _, dup := r.types[nt.Name]; dup {
			return nil, fmt.Errorf("duplicate node type %q", nt.Name)
		}
		r.types[nt.Name] = nt
	}

	if _, ok := r.types[root]; !ok {
		return nil, fmt.Errorf("root node type %q is not registered", root)
	}

	for _, nt := range types {
		children := nt.Children
		if nt.Elements != nil {
			children = []Child{*nt.Elements}
		}
		for _, c := range children {
			if _, ok := r.types[c.Type]; !ok {
				return nil, fmt.Errorf("node type %q: child %q references unknown type %q", nt.Name, c.Field, c.Type)
			}
			if c.Gate != "" && !nt.Declares(c.Gate) {
				return nil, fmt.Errorf("node type %q: child %q is gated on undeclared field %q", nt.Name, c.Field, c.Gate)
			}
		}
	}

	return r, nil
}

// Root returns the entry node type.
func (r *Registry) Root() *NodeType {
	return r.types[r.root]
}

// Lookup returns the node type registered under name.
func (r *Registry) Lookup(name string) (*NodeType, bool) {
	nt, ok := r.types[name]
	return nt, ok
}

// Names returns the registered node type names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MustRegistry is like NewRegistry but panics on error.
// It is meant for package-level schema tables.
func MustRegistry(root string, types ...*NodeType) *Registry {
	r, err := NewRegistry(root, types...)
	if err != nil {
		panic(err)
	}
	return r
}
