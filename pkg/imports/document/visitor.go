package document

// VisitFunc is called for every value reached by Walk. Field is the name of
// the field holding the value, or the element tag for collection elements.
// Returning an error stops the walk.
type VisitFunc func(path Path, field string, v *Value) error

// Walk traverses the node depth-first in document order and calls fn for
// every field value and every collection element. Element paths use the
// 1-based position within their collection.
func Walk(n *Node, fn VisitFunc) error {
	return walkNode(n, Root, fn)
}

func walkNode(n *Node, path Path, fn VisitFunc) error {
	if n == nil {
		return nil
	}
	for _, key := range n.keys {
		v := n.values[key]
		fieldPath := path.Field(key)
		if err := fn(fieldPath, key, v); err != nil {
			return err
		}
		if err := walkValue(v, fieldPath, fn); err != nil {
			return err
		}
	}
	return nil
}

func walkValue(v *Value, path Path, fn VisitFunc) error {
	if v == nil || v.Kind == KindScalar {
		return nil
	}
	if v.Kind == KindSequence {
		for i, item := range v.Items {
			elemPath := path.Index(item.Tag, i+1)
			if err := fn(elemPath, item.Tag, item.Value); err != nil {
				return err
			}
			if err := walkValue(item.Value, elemPath, fn); err != nil {
				return err
			}
		}
		return nil
	}
	return walkNode(v.Mapping, path, fn)
}
