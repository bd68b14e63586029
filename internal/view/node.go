// Package view holds the session document: regions of nodes rebuilt
// wholesale from each snapshot and relabeled through their bindings.
package view

import (
	"strings"
)

// Binding records how a label was produced so it can be re-derived for
// another language. Template placeholders {name} take Args[name] when
// present and the translation of name otherwise.
type Binding struct {
	Template string
	Args     map[string]string
}

// Label binds a node to a single translation key.
func Label(key string) *Binding {
	return &Binding{Template: "{" + key + "}"}
}

// Bind builds a binding with literal args.
func Bind(template string, args map[string]string) *Binding {
	return &Binding{Template: template, Args: args}
}

// Node is one element of a region.
type Node struct {
	Class    string
	ID       string
	Text     string
	Title    string
	Hidden   bool
	Binding  *Binding
	Attrs    map[string]string
	Children []*Node
}

// HasClass reports whether c is one of the space separated classes.
func (n *Node) HasClass(c string) bool {
	for _, f := range strings.Fields(n.Class) {
		if f == c {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth first.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the first node with the given id.
func (n *Node) Find(id string) *Node {
	var found *Node
	n.Walk(func(x *Node) {
		if found == nil && x.ID == id {
			found = x
		}
	})
	return found
}

// FindClass returns every node carrying class c, in document order.
func (n *Node) FindClass(c string) []*Node {
	var out []*Node
	n.Walk(func(x *Node) {
		if x.HasClass(c) {
			out = append(out, x)
		}
	})
	return out
}

// Clone deep-copies the node tree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	cp := *n
	if n.Binding != nil {
		b := *n.Binding
		if n.Binding.Args != nil {
			b.Args = make(map[string]string, len(n.Binding.Args))
			for k, v := range n.Binding.Args {
				b.Args[k] = v
			}
		}
		cp.Binding = &b
	}
	if n.Attrs != nil {
		cp.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			cp.Attrs[k] = v
		}
	}
	if n.Children != nil {
		cp.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			cp.Children[i] = c.Clone()
		}
	}
	return &cp
}
