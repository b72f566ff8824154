package document

import (
	"reflect"
	"testing"
)

func TestNodeKeepsInsertionOrder(t *testing.T) {
	n := NewNode()
	n.Set("name", NewScalar("Zabbix servers"))
	n.Set("host", NewScalar("srv"))
	n.Set("items", NewSequence())
	n.Set("name", NewScalar("renamed"))

	want := []string{"name", "host", "items"}
	if got := n.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	v, ok := n.Get("name")
	if !ok || v.Scalar != "renamed" {
		t.Errorf("Get(name) = %v, %v; want renamed", v, ok)
	}

	n.Delete("host")
	want = []string{"name", "items"}
	if got := n.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() after Delete = %v, want %v", got, want)
	}
	if n.Has("host") {
		t.Error("Has(host) = true after Delete")
	}
}

func TestValueShapes(t *testing.T) {
	tests := []struct {
		name       string
		value      *Value
		collection bool
		empty      bool
		elements   int
	}{
		{"empty scalar", NewScalar(""), false, true, 0},
		{"scalar", NewScalar("x"), false, false, 0},
		{"empty sequence", NewSequence(), true, true, 0},
		{"sequence", NewSequence(Item{Value: NewScalar("a")}, Item{Value: NewScalar("b")}), true, false, 2},
		{"empty mapping", NewMapping(nil), true, true, 0},
		{"nil", nil, false, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.IsCollection(); got != tt.collection {
				t.Errorf("IsCollection() = %v, want %v", got, tt.collection)
			}
			if got := tt.value.IsEmpty(); got != tt.empty {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.empty)
			}
			if got := len(tt.value.Elements()); got != tt.elements {
				t.Errorf("len(Elements()) = %d, want %d", got, tt.elements)
			}
		})
	}
}

func TestMappingElementsUseKeysAsTags(t *testing.T) {
	hosts := NewNode()
	hosts.Set("host", NewMapping(nil))
	hosts.Set("host1", NewMapping(nil))

	elements := NewMapping(hosts).Elements()
	if len(elements) != 2 {
		t.Fatalf("len(Elements()) = %d, want 2", len(elements))
	}
	if elements[0].Tag != "host" || elements[1].Tag != "host1" {
		t.Errorf("tags = %q, %q; want host, host1", elements[0].Tag, elements[1].Tag)
	}
}

func TestPath(t *testing.T) {
	p := Root.Field("hosts").Index("host", 2).Field("items").Index("item", 5)
	if got, want := p.String(), "/hosts/host(2)/items/item(5)"; got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestCloneIsDeep(t *testing.T) {
	inner := NewNode()
	inner.Set("key", NewScalar("agent.ping"))
	root := NewNode()
	root.Set("items", NewSequence(Item{Tag: "item", Value: NewMapping(inner)}))

	c := root.Clone()
	v, _ := c.Get("items")
	v.Items[0].Value.Mapping.Set("key", NewScalar("changed"))

	orig, _ := inner.Get("key")
	if orig.Scalar != "agent.ping" {
		t.Errorf("original mutated through clone: %q", orig.Scalar)
	}
}

func TestWalk(t *testing.T) {
	item := NewNode()
	item.Set("key", NewScalar("system.cpu.load"))
	host := NewNode()
	host.Set("host", NewScalar("srv"))
	host.Set("items", NewSequence(Item{Tag: "item", Value: NewMapping(item)}))
	root := NewNode()
	root.Set("hosts", NewSequence(Item{Tag: "host", Value: NewMapping(host)}))

	var paths []string
	err := Walk(root, func(path Path, field string, v *Value) error {
		paths = append(paths, path.String())
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []string{
		"/hosts",
		"/hosts/host(1)",
		"/hosts/host(1)/host",
		"/hosts/host(1)/items",
		"/hosts/host(1)/items/item(1)",
		"/hosts/host(1)/items/item(1)/key",
	}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("Walk() paths = %v, want %v", paths, want)
	}
}
