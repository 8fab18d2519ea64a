package celestemap

import (
	"slices"
)

const (
	maxAttrCount  = 0xFF
	maxChildCount = 0xFFFF
)

// Element is one node of a map: a type name, named attributes and child
// elements.
//
// The parent link and the parent's child list always change together, and
// only through SetParent and Delete. An element is attached while it has a
// path to its document root and detached after Delete; a detached subtree
// stays intact and can be attached again.
type Element struct {
	typ      string
	names    []string
	attrs    map[string]Value
	parent   *Element
	children []*Element
	root     bool
}

// Attr is a named attribute value.
type Attr struct {
	Name  string
	Value Value
}

func NewElement(typ string) *Element {
	return &Element{typ: typ}
}

func (e *Element) Type() string {
	return e.typ
}

// Parent returns nil for a document root and for detached elements.
func (e *Element) Parent() *Element {
	return e.parent
}

// IsRoot reports whether e is the root of a document.
func (e *Element) IsRoot() bool {
	return e.root
}

// Top returns the topmost ancestor of e, or e itself.
func (e *Element) Top() *Element {
	for e.parent != nil {
		e = e.parent
	}
	return e
}

func (e *Element) Attr(name string) (Value, bool) {
	v, found := e.attrs[name]
	return v, found
}

// SetAttr sets an attribute together with its encoding. A new attribute goes
// after the existing ones; an existing one keeps its position.
func (e *Element) SetAttr(name string, v Value) {
	if e.attrs == nil {
		e.attrs = make(map[string]Value)
	}
	if _, found := e.attrs[name]; !found {
		e.names = append(e.names, name)
	}
	e.attrs[name] = v
}

// UpdateAttr sets the value of an existing attribute, keeping its encoding.
// raw is converted with Encoding.Coerce. It fails with ErrAttribute when the
// attribute does not exist, since there is no encoding to reuse.
func (e *Element) UpdateAttr(name string, raw any) error {
	old, found := e.attrs[name]
	if !found {
		return elementErrf(e, name, ErrAttribute, "attribute does not exist, encoding required")
	}
	v, err := old.enc.Coerce(raw)
	if err != nil {
		return elementErrf(e, name, err, "")
	}
	e.attrs[name] = v
	return nil
}

// RemoveAttr deletes an attribute and reports whether it existed.
func (e *Element) RemoveAttr(name string) bool {
	if _, found := e.attrs[name]; !found {
		return false
	}
	delete(e.attrs, name)
	e.names = slices.DeleteFunc(e.names, func(n string) bool { return n == name })
	return true
}

func (e *Element) AttrCount() int {
	return len(e.names)
}

// Attrs returns the attributes in insertion order.
func (e *Element) Attrs() []Attr {
	result := make([]Attr, len(e.names))
	for i, name := range e.names {
		result[i] = Attr{name, e.attrs[name]}
	}
	return result
}

// Child returns the first child of the given type.
func (e *Element) Child(typ string) *Element {
	for _, c := range e.children {
		if c.typ == typ {
			return c
		}
	}
	return nil
}

// Children returns the children of the given type, or all children when typ
// is empty.
func (e *Element) Children(typ string) []*Element {
	if typ == "" {
		return slices.Clone(e.children)
	}
	var result []*Element
	for _, c := range e.children {
		if c.typ == typ {
			result = append(result, c)
		}
	}
	return result
}

func (e *Element) ChildCount() int {
	return len(e.children)
}

func (e *Element) hasChild(c *Element) bool {
	return slices.Contains(e.children, c)
}

// IsAncestorOf reports whether e is a proper ancestor of another.
func (e *Element) IsAncestorOf(another *Element) bool {
	for a := another.parent; a != nil; a = a.parent {
		if a == e {
			return true
		}
	}
	return false
}

// SetParent moves e under parent, detaching it from its current parent first.
// It refuses with ErrAttribute to move a document root or to make e its own
// ancestor; the tree is unchanged in that case.
func (e *Element) SetParent(parent *Element) error {
	return e.setParentAt(parent, -1)
}

// setParentAt is SetParent inserting e at child index i of parent, or at the
// end when i is out of range.
func (e *Element) setParentAt(parent *Element, i int) error {
	if parent == nil {
		return elementErrf(e, "", ErrAttribute, "nil parent, use Delete to detach")
	}
	if e.root {
		return elementErrf(e, "", ErrAttribute, "cannot reparent the document root")
	}
	if parent == e || e.IsAncestorOf(parent) {
		return elementErrf(e, "", ErrAttribute, "cannot move element under %s, it would become its own ancestor", parent.typ)
	}
	if e.parent == parent {
		return nil
	}
	e.detach()
	e.parent = parent
	if i < 0 || i >= len(parent.children) {
		parent.children = append(parent.children, e)
	} else {
		parent.children = slices.Insert(parent.children, i, e)
	}
	return nil
}

// Delete detaches e from its parent. Its own children stay attached to it.
// Deleting a document root fails with ErrAttribute.
func (e *Element) Delete() error {
	if e.root {
		return elementErrf(e, "", ErrAttribute, "cannot delete the document root")
	}
	e.detach()
	return nil
}

func (e *Element) detach() {
	if p := e.parent; p != nil {
		if i := slices.Index(p.children, e); i >= 0 {
			p.children = slices.Delete(p.children, i, i+1)
		}
		e.parent = nil
	}
}

// Walk visits e and its descendants depth-first in pre-order. Returning false
// from fn skips the children of that element.
func (e *Element) Walk(fn func(el *Element, depth int) bool) {
	e.walk(fn, 0)
}

func (e *Element) walk(fn func(el *Element, depth int) bool, depth int) {
	if !fn(e, depth) {
		return
	}
	for _, c := range e.children {
		c.walk(fn, depth+1)
	}
}

// ReadElement decodes an element and, recursively, its children. The result
// is attached to parent unless parent is nil.
func ReadElement(b *Buffer, tbl *StringTable, parent *Element) (*Element, error) {
	typ, err := tbl.readRef(b)
	if err != nil {
		return nil, err
	}
	el := NewElement(typ)

	attrCount, err := b.ReadByte()
	if err != nil {
		return nil, err
	}
	for range int(attrCount) {
		name, err := tbl.readRef(b)
		if err != nil {
			return nil, err
		}
		v, err := ReadValue(b, tbl)
		if err != nil {
			return nil, err
		}
		el.SetAttr(name, v)
	}

	childCount, err := b.ReadShort()
	if err != nil {
		return nil, err
	}
	if childCount > 0 {
		el.children = make([]*Element, 0, childCount)
	}
	for range int(childCount) {
		if _, err := ReadElement(b, tbl, el); err != nil {
			return nil, err
		}
	}

	if parent != nil {
		el.parent = parent
		parent.children = append(parent.children, el)
	}
	return el, nil
}

// WriteElement encodes el and its children, interning names into tbl.
func WriteElement(b *Buffer, tbl *StringTable, el *Element) error {
	if err := tbl.writeRef(b, el.typ); err != nil {
		return elementErrf(el, "", err, "")
	}

	if len(el.names) > maxAttrCount {
		return elementErrf(el, "", ErrRange, "%d attributes, at most %d fit", len(el.names), maxAttrCount)
	}
	b.AppendByte(byte(len(el.names)))
	for _, name := range el.names {
		if err := tbl.writeRef(b, name); err != nil {
			return elementErrf(el, name, err, "")
		}
		if err := WriteValue(b, tbl, el.attrs[name]); err != nil {
			return elementErrf(el, name, err, "")
		}
	}

	if len(el.children) > maxChildCount {
		return elementErrf(el, "", ErrRange, "%d children, at most %d fit", len(el.children), maxChildCount)
	}
	b.AppendShort(uint16(len(el.children)))
	for _, c := range el.children {
		if err := WriteElement(b, tbl, c); err != nil {
			return err
		}
	}
	return nil
}

// intern adds every string WriteElement would reference to tbl, in the same
// order.
func intern(tbl *StringTable, el *Element) {
	el.Walk(func(e *Element, depth int) bool {
		tbl.Lookup(e.typ)
		for _, name := range e.names {
			tbl.Lookup(name)
			if v := e.attrs[name]; v.enc == EncLookup {
				tbl.Lookup(v.s)
			}
		}
		return true
	})
}
