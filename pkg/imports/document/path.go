package document

import "strconv"

// Path is a slash-delimited location of a node inside an export tree, for
// example "/hosts/host(2)/items/item(5)". The root of the tree is the empty
// path. Paths are values; every method returns a new path.
type Path string

// Root is the path of the unwrapped zabbix_export element.
const Root Path = ""

// Field returns the path of a named field below p.
func (p Path) Field(name string) Path {
	return p + "/" + Path(name)
}

// Index returns the path of the n-th (1-based) element with the given tag below p.
func (p Path) Index(tag string, n int) Path {
	return p + "/" + Path(tag) + "(" + Path(strconv.Itoa(n)) + ")"
}

// String returns the path as a string.
func (p Path) String() string {
	return string(p)
}
