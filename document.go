package celestemap

import (
	"fmt"
	"log/slog"
	"slices"
)

// Document is a map being edited. Mutations go through InsertElement,
// ChangeElement and RemoveElement, each producing an Edit.
//
// A Document is meant to have one owner; it is not safe for concurrent use.
type Document struct {
	m        *Map
	opt      Options
	edits    []*Edit
	undone   []*Edit
	saved    *Edit
	onChange func(ed *Edit)
}

func NewDocument(m *Map, opt Options) *Document {
	return &Document{m: m, opt: opt.withDefaults()}
}

// OpenDocument decodes a map file into a new document.
func OpenDocument(data []byte, opt Options) (*Document, error) {
	m, err := Decode(data, opt)
	if err != nil {
		return nil, err
	}
	return NewDocument(m, opt), nil
}

func (d *Document) Map() *Map {
	return d.m
}

func (d *Document) Tree() *Tree {
	return d.m.Tree
}

// OnChange registers a function called after every edit, undo and redo.
func (d *Document) OnChange(fn func(ed *Edit)) {
	d.onChange = fn
}

func (d *Document) notify(ed *Edit) {
	d.opt.debug("celestemap: edit", slog.String("op", ed.op.String()), slog.String("id", ed.id.String()), slog.Bool("applied", ed.applied))
	if d.onChange != nil {
		d.onChange(ed)
	}
}

func (d *Document) last() *Edit {
	if len(d.edits) == 0 {
		return nil
	}
	return d.edits[len(d.edits)-1]
}

// Edits returns the applied edits, oldest first.
func (d *Document) Edits() []*Edit {
	return slices.Clone(d.edits)
}

func (d *Document) run(ed *Edit) (*Edit, error) {
	if err := ed.apply(); err != nil {
		return nil, err
	}
	d.undone = nil
	d.notify(ed)
	return ed, nil
}

// InsertElement attaches el (with its subtree) under the element with the
// given id.
func (d *Document) InsertElement(parent ID, el *Element) (*Edit, error) {
	t := d.m.Tree
	p, err := t.lookup(parent)
	if err != nil {
		return nil, err
	}
	if el.root {
		return nil, elementErrf(el, "", ErrAttribute, "cannot insert a document root")
	}
	if el.parent != nil {
		return nil, elementErrf(el, "", ErrAttribute, "element is already attached to %s", el.parent.typ)
	}
	if el == p || el.IsAncestorOf(p) {
		return nil, elementErrf(el, "", ErrAttribute, "cannot insert element under its own descendant")
	}
	return d.run(&Edit{doc: d, op: OpInsert, el: el, parent: p})
}

// ChangeElement updates existing attributes of an element, converting each
// new value to the attribute's current encoding. Either all changes apply or
// none do.
func (d *Document) ChangeElement(id ID, changes map[string]any) (*Edit, error) {
	el, err := d.m.Tree.lookup(id)
	if err != nil {
		return nil, err
	}
	ed := &Edit{
		doc: d,
		op:  OpChange,
		el:  el,
		id:  id,
		old: make(map[string]Value, len(changes)),
		new: make(map[string]Value, len(changes)),
	}
	for name, raw := range changes {
		old, found := el.Attr(name)
		if !found {
			return nil, elementErrf(el, name, ErrAttribute, "attribute does not exist, encoding required")
		}
		v, err := old.enc.Coerce(raw)
		if err != nil {
			return nil, elementErrf(el, name, err, "")
		}
		ed.old[name] = old
		ed.new[name] = v
	}
	return d.run(ed)
}

// RemoveElement detaches the element with the given id from its parent.
func (d *Document) RemoveElement(id ID) (*Edit, error) {
	el, err := d.m.Tree.lookup(id)
	if err != nil {
		return nil, err
	}
	if el.root {
		return nil, elementErrf(el, "", ErrAttribute, "cannot remove the document root")
	}
	if el.parent == nil {
		return nil, elementErrf(el, "", ErrAttribute, "element is already detached")
	}
	return d.run(&Edit{doc: d, op: OpRemove, el: el, id: id, parent: el.parent})
}

// Dirty reports whether there are edits since the last Save.
func (d *Document) Dirty() bool {
	return d.last() != d.saved
}

// Save encodes the document and marks the current edit as saved.
func (d *Document) Save() ([]byte, error) {
	data, err := Encode(d.m, d.opt)
	if err != nil {
		return nil, err
	}
	d.saved = d.last()
	return data, nil
}

// Revert undoes edits until the document is back at its last saved state.
func (d *Document) Revert() error {
	if d.saved != nil && !slices.Contains(d.edits, d.saved) {
		return fmt.Errorf("cannot revert: saved state has been undone")
	}
	for d.last() != d.saved {
		if err := d.last().Undo(); err != nil {
			return err
		}
	}
	return nil
}
