package celestemap

import (
	"fmt"

	"github.com/google/uuid"
)

// ID identifies an element within a Tree. Ids are assigned when elements join
// the tree and stay the same for the lifetime of the Tree, so collaborators can
// refer to elements without holding pointers across edits.
type ID = uuid.UUID

// Tree owns the elements reachable from a document root and maps them to ids.
//
// A Tree is not safe for concurrent mutation.
type Tree struct {
	root     *Element
	rootID   ID
	elements map[ID]*Element
	ids      map[*Element]ID
}

func newID() ID {
	id, err := uuid.NewUUID()
	if err != nil {
		return uuid.New()
	}
	return id
}

// NewTree makes root a document root and assigns ids to it and all of its
// descendants. root must not have a parent.
func NewTree(root *Element) *Tree {
	return newTreeWithIDs(root, nil)
}

func newTreeWithIDs(root *Element, known map[*Element]ID) *Tree {
	if root.parent != nil {
		panic(fmt.Errorf("%s element has a parent and cannot be a document root", root.typ))
	}
	t := &Tree{
		root:     root,
		elements: make(map[ID]*Element),
		ids:      make(map[*Element]ID),
	}
	root.root = true
	root.Walk(func(el *Element, depth int) bool {
		id, found := known[el]
		if !found {
			id = newID()
		}
		t.elements[id] = el
		t.ids[el] = id
		return true
	})
	t.rootID = t.ids[root]
	return t
}

func (t *Tree) Root() *Element {
	return t.root
}

func (t *Tree) RootID() ID {
	return t.rootID
}

// Len returns the number of elements with an id, including detached ones
// that have not been pruned.
func (t *Tree) Len() int {
	return len(t.elements)
}

// Element returns the element with the given id, or nil.
func (t *Tree) Element(id ID) *Element {
	return t.elements[id]
}

// ID returns the id of el, assigning one if el has none yet (for example,
// because it was attached with Element.SetParent directly).
func (t *Tree) ID(el *Element) ID {
	if id, found := t.ids[el]; found {
		return id
	}
	id := newID()
	t.elements[id] = el
	t.ids[el] = id
	return id
}

func (t *Tree) register(el *Element) {
	el.Walk(func(e *Element, depth int) bool {
		t.ID(e)
		return true
	})
}

func (t *Tree) lookup(id ID) (*Element, error) {
	el := t.elements[id]
	if el == nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownID, id)
	}
	return el, nil
}

// Add attaches el under the element with the given id and assigns ids to el
// and its descendants.
func (t *Tree) Add(el *Element, parent ID) (ID, error) {
	p, err := t.lookup(parent)
	if err != nil {
		return uuid.Nil, err
	}
	if err := el.SetParent(p); err != nil {
		return uuid.Nil, err
	}
	t.register(el)
	return t.ids[el], nil
}

// Parent returns the id of the parent of the element with the given id. ok
// is false for the root, for detached elements and for unknown ids.
func (t *Tree) Parent(id ID) (parent ID, ok bool) {
	el := t.elements[id]
	if el == nil || el.parent == nil {
		return uuid.Nil, false
	}
	return t.ID(el.parent), true
}

// SetParent moves the element with the given id under another one.
func (t *Tree) SetParent(id, parent ID) error {
	el, err := t.lookup(id)
	if err != nil {
		return err
	}
	p, err := t.lookup(parent)
	if err != nil {
		return err
	}
	if err := el.SetParent(p); err != nil {
		return err
	}
	t.register(el)
	return nil
}

// Delete detaches the element with the given id from its parent. The element
// keeps its id, so it can be attached again with SetParent.
func (t *Tree) Delete(id ID) error {
	el, err := t.lookup(id)
	if err != nil {
		return err
	}
	return el.Delete()
}

// IsAttached reports whether el has a path to the root of t.
func (t *Tree) IsAttached(el *Element) bool {
	return el.Top() == t.root
}

// Prune forgets the ids of elements that are no longer attached to the root
// and returns how many were forgotten.
func (t *Tree) Prune() int {
	var n int
	for id, el := range t.elements {
		if !t.IsAttached(el) {
			delete(t.elements, id)
			delete(t.ids, el)
			n++
		}
	}
	return n
}

// Walk visits the attached elements depth-first in pre-order. Returning false
// from fn skips the children of that element.
func (t *Tree) Walk(fn func(id ID, el *Element, depth int) bool) {
	t.root.Walk(func(el *Element, depth int) bool {
		return fn(t.ID(el), el, depth)
	})
}
