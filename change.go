package celestemap

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

type Op int

const (
	OpNone   Op = 0
	OpInsert Op = 1
	OpChange Op = 2
	OpRemove Op = 3
)

func (v Op) String() string {
	switch v {
	case OpNone:
		return "none"
	case OpInsert:
		return "insert"
	case OpChange:
		return "change"
	case OpRemove:
		return "remove"
	default:
		return fmt.Sprintf("invalid op %d", int(v))
	}
}

var errEditOrder = errors.New("edits must be undone and redone in order")

// Edit is one applied document change that can be undone and redone.
// Undo only applies to the latest edit of the document, Redo only to the most
// recently undone one. A new edit discards the edits waiting to be redone.
type Edit struct {
	doc     *Document
	op      Op
	el      *Element
	id      ID
	parent  *Element
	index   int
	old     map[string]Value
	new     map[string]Value
	applied bool
}

func (ed *Edit) Op() Op {
	return ed.op
}

func (ed *Edit) ElementID() ID {
	return ed.id
}

func (ed *Edit) Element() *Element {
	return ed.el
}

// Label is a short human-readable description, e.g. for an undo menu.
func (ed *Edit) Label() string {
	switch ed.op {
	case OpInsert:
		return "Insert Element"
	case OpChange:
		return "Change Element"
	case OpRemove:
		return "Remove Element"
	default:
		return ed.op.String()
	}
}

// Changed returns the names of the attributes touched by a change edit.
func (ed *Edit) Changed() []string {
	return slices.Sorted(maps.Keys(ed.new))
}

func (ed *Edit) Applied() bool {
	return ed.applied
}

func (ed *Edit) Undo() error {
	d := ed.doc
	if !ed.applied || d.last() != ed {
		return fmt.Errorf("cannot undo %v: %w", ed.op, errEditOrder)
	}
	var err error
	switch ed.op {
	case OpInsert:
		err = ed.el.Delete()
	case OpChange:
		ed.set(ed.old)
	case OpRemove:
		err = ed.el.setParentAt(ed.parent, ed.index)
	}
	if err != nil {
		return err
	}
	ed.applied = false
	d.edits = d.edits[:len(d.edits)-1]
	d.undone = append(d.undone, ed)
	d.notify(ed)
	return nil
}

func (ed *Edit) Redo() error {
	d := ed.doc
	if ed.applied || len(d.undone) == 0 || d.undone[len(d.undone)-1] != ed {
		return fmt.Errorf("cannot redo %v: %w", ed.op, errEditOrder)
	}
	if err := ed.apply(); err != nil {
		return err
	}
	d.undone = d.undone[:len(d.undone)-1]
	d.notify(ed)
	return nil
}

func (ed *Edit) apply() error {
	var err error
	switch ed.op {
	case OpInsert:
		if err = ed.el.SetParent(ed.parent); err == nil {
			t := ed.doc.m.Tree
			t.register(ed.el)
			ed.id = t.ID(ed.el)
		}
	case OpChange:
		ed.set(ed.new)
	case OpRemove:
		ed.index = slices.Index(ed.parent.children, ed.el)
		err = ed.el.Delete()
	}
	if err != nil {
		return err
	}
	ed.applied = true
	ed.doc.edits = append(ed.doc.edits, ed)
	return nil
}

func (ed *Edit) set(values map[string]Value) {
	for name, v := range values {
		ed.el.SetAttr(name, v)
	}
}
