package document

// Kind represents the shape of a value in an export tree.
// Export documents only know three shapes; numbers and booleans are scalars.
type Kind int

const (
	KindScalar   Kind = iota // Character string
	KindMapping              // Nested node with named fields
	KindSequence             // Ordered list of tagged elements
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// Value is a single value of an export tree.
type Value struct {
	Kind     Kind
	Scalar   string // Set when Kind is KindScalar
	Mapping  *Node  // Set when Kind is KindMapping
	Items    []Item // Set when Kind is KindSequence
	Location Location
}

// Item is one element of a sequence. Tag holds the element name when the
// source format names its elements (XML) and is empty otherwise.
type Item struct {
	Tag   string
	Value *Value
}

// NewScalar creates a scalar value.
func NewScalar(s string) *Value {
	return &Value{Kind: KindScalar, Scalar: s}
}

// NewMapping creates a mapping value wrapping the given node.
func NewMapping(n *Node) *Value {
	if n == nil {
		n = NewNode()
	}
	return &Value{Kind: KindMapping, Mapping: n}
}

// NewSequence creates a sequence value from the given items.
func NewSequence(items ...Item) *Value {
	if items == nil {
		items = []Item{}
	}
	return &Value{Kind: KindSequence, Items: items}
}

// IsScalar returns true if the value is a character string.
func (v *Value) IsScalar() bool {
	return v != nil && v.Kind == KindScalar
}

// IsMapping returns true if the value is a nested node.
func (v *Value) IsMapping() bool {
	return v != nil && v.Kind == KindMapping
}

// IsCollection returns true if the value can hold child elements.
// Both mappings and sequences are collections: the XML decoder produces
// mappings keyed by element name where JSON and YAML produce sequences.
func (v *Value) IsCollection() bool {
	return v != nil && (v.Kind == KindMapping || v.Kind == KindSequence)
}

// IsEmpty returns true for an empty scalar, an empty mapping or an empty sequence.
func (v *Value) IsEmpty() bool {
	if v == nil {
		return true
	}
	switch v.Kind {
	case KindScalar:
		return v.Scalar == ""
	case KindMapping:
		return v.Mapping == nil || v.Mapping.Len() == 0
	default:
		return len(v.Items) == 0
	}
}

// Elements returns the children of a collection in document order.
// Mapping keys become element tags. Scalars have no elements.
func (v *Value) Elements() []Item {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case KindSequence:
		return v.Items
	case KindMapping:
		if v.Mapping == nil {
			return nil
		}
		items := make([]Item, 0, v.Mapping.Len())
		for _, key := range v.Mapping.keys {
			items = append(items, Item{Tag: key, Value: v.Mapping.values[key]})
		}
		return items
	default:
		return nil
	}
}

// Clone returns a deep copy of the value.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	c := &Value{Kind: v.Kind, Scalar: v.Scalar, Location: v.Location}
	if v.Mapping != nil {
		c.Mapping = v.Mapping.Clone()
	}
	if v.Items != nil {
		c.Items = make([]Item, len(v.Items))
		for i, item := range v.Items {
			c.Items[i] = Item{Tag: item.Tag, Value: item.Value.Clone()}
		}
	}
	return c
}
