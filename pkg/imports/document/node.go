package document

// Node is an ordered mapping from field name to value.
// Keys are unique; Set on an existing key replaces the value in place.
type Node struct {
	keys     []string
	values   map[string]*Value
	Location Location
}

// NewNode creates an empty node.
func NewNode() *Node {
	return &Node{values: make(map[string]*Value)}
}

// Set stores a value under key, appending the key if it is new.
func (n *Node) Set(key string, v *Value) {
	if _, ok := n.values[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.values[key] = v
}

// Get returns the value stored under key.
func (n *Node) Get(key string) (*Value, bool) {
	if n == nil {
		return nil, false
	}
	v, ok := n.values[key]
	return v, ok
}

// Has returns true if the node contains key.
func (n *Node) Has(key string) bool {
	_, ok := n.Get(key)
	return ok
}

// Delete removes key from the node. Deleting a missing key is a no-op.
func (n *Node) Delete(key string) {
	if _, ok := n.values[key]; !ok {
		return
	}
	delete(n.values, key)
	for i, k := range n.keys {
		if k == key {
			n.keys = append(n.keys[:i:i], n.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	keys := make([]string, len(n.keys))
	copy(keys, n.keys)
	return keys
}

// Len returns the number of keys.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.keys)
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := NewNode()
	c.Location = n.Location
	for _, key := range n.keys {
		c.Set(key, n.values[key].Clone())
	}
	return c
}
