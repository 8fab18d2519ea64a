package celestemap

import (
	"errors"
	"testing"
)

func types(els []*Element) []string {
	var result []string
	for _, el := range els {
		result = append(result, el.Type())
	}
	return result
}

func attached(t testing.TB, parent *Element, child *Element) {
	t.Helper()
	if child.Parent() != parent {
		t.Errorf("%s.Parent() = %v, wanted %s", child.Type(), child.Parent(), parent.Type())
	}
	if !parent.hasChild(child) {
		t.Errorf("%s does not list %s as a child", parent.Type(), child.Type())
	}
}

func TestElement_Attrs(t *testing.T) {
	el := NewElement("entity")
	el.SetAttr("x", IntValue(1))
	el.SetAttr("y", IntValue(2))
	el.SetAttr("x", FloatValue(1.5))
	deepEqual(t, el.AttrCount(), 2)
	deepEqual(t, el.Attrs(), []Attr{{"x", FloatValue(1.5)}, {"y", IntValue(2)}})

	must(0, el.UpdateAttr("y", 5.0))
	v, _ := el.Attr("y")
	if !v.Equal(IntValue(5)) {
		t.Fatalf("y = %v (%v), wanted int 5", v, v.Encoding())
	}

	deepEqual(t, el.RemoveAttr("x"), true)
	deepEqual(t, el.RemoveAttr("x"), false)
	deepEqual(t, el.Attrs(), []Attr{{"y", IntValue(5)}})
	if _, found := el.Attr("x"); found {
		t.Fatalf("x still present")
	}
}

func TestElement_UpdateAttrErrors(t *testing.T) {
	el := NewElement("entity")
	el.SetAttr("b", ByteValue(1))

	err := el.UpdateAttr("missing", 1)
	var ee *ElementError
	if !errors.As(err, &ee) || !errors.Is(err, ErrAttribute) {
		t.Fatalf("UpdateAttr(missing) err = %v, wanted ErrAttribute ElementError", err)
	}
	deepEqual(t, ee.Type, "entity")
	deepEqual(t, ee.Name, "missing")

	if err := el.UpdateAttr("b", 300); !errors.Is(err, ErrAttribute) {
		t.Fatalf("UpdateAttr(b, 300) err = %v, wanted ErrAttribute", err)
	}
	v, _ := el.Attr("b")
	deepEqual(t, v.Uint(), uint32(1))
}

func TestElement_SetParent(t *testing.T) {
	root := NewElement("Map")
	NewTree(root)
	a := NewElement("a")
	b := NewElement("b")

	must(0, a.SetParent(root))
	must(0, b.SetParent(root))
	attached(t, root, a)
	attached(t, root, b)
	deepEqual(t, types(root.Children("")), []string{"a", "b"})

	must(0, b.SetParent(a))
	attached(t, a, b)
	deepEqual(t, types(root.Children("")), []string{"a"})

	// setting the same parent again keeps the position
	c := NewElement("c")
	must(0, c.SetParent(a))
	must(0, b.SetParent(a))
	deepEqual(t, types(a.Children("")), []string{"b", "c"})

	deepEqual(t, root.IsAncestorOf(b), true)
	deepEqual(t, b.IsAncestorOf(root), false)
	deepEqual(t, b.IsAncestorOf(b), false)
	deepEqual(t, b.Top(), root)
}

func TestElement_SetParentRefusals(t *testing.T) {
	root := NewElement("Map")
	NewTree(root)
	a := NewElement("a")
	b := NewElement("b")
	must(0, a.SetParent(root))
	must(0, b.SetParent(a))

	for _, tt := range []struct {
		name   string
		el     *Element
		parent *Element
	}{
		{"self", a, a},
		{"descendant", a, b},
		{"root", root, a},
		{"nil", b, nil},
	} {
		err := tt.el.SetParent(tt.parent)
		if !errors.Is(err, ErrAttribute) {
			t.Errorf("%s: err = %v, wanted ErrAttribute", tt.name, err)
		}
	}
	attached(t, root, a)
	attached(t, a, b)
	deepEqual(t, root.Parent(), (*Element)(nil))
	deepEqual(t, b.ChildCount(), 0)
}

func TestElement_Delete(t *testing.T) {
	root := NewElement("Map")
	NewTree(root)
	a := NewElement("a")
	b := NewElement("b")
	must(0, a.SetParent(root))
	must(0, b.SetParent(a))

	must(0, a.Delete())
	deepEqual(t, a.Parent(), (*Element)(nil))
	deepEqual(t, root.ChildCount(), 0)
	attached(t, a, b)
	deepEqual(t, b.Top(), a)

	// deleting a detached element is a no-op
	must(0, a.Delete())

	must(0, a.SetParent(root))
	attached(t, root, a)

	if err := root.Delete(); !errors.Is(err, ErrAttribute) {
		t.Fatalf("root.Delete() err = %v, wanted ErrAttribute", err)
	}
	deepEqual(t, root.Parent(), (*Element)(nil))
	deepEqual(t, root.ChildCount(), 1)
	attached(t, root, a)
	attached(t, a, b)
}

func TestElement_Children(t *testing.T) {
	root := NewElement("levels")
	for _, typ := range []string{"level", "filler", "level"} {
		must(0, NewElement(typ).SetParent(root))
	}
	deepEqual(t, len(root.Children("level")), 2)
	deepEqual(t, root.Child("filler").Type(), "filler")
	deepEqual(t, root.Child("style"), (*Element)(nil))
	deepEqual(t, root.Children("style"), []*Element(nil))

	// the returned slice is a copy
	all := root.Children("")
	all[0] = nil
	deepEqual(t, root.Children("")[0].Type(), "level")
}

func TestElement_Walk(t *testing.T) {
	root := NewElement("Map")
	levels := NewElement("levels")
	must(0, levels.SetParent(root))
	must(0, NewElement("level").SetParent(levels))
	must(0, NewElement("Style").SetParent(root))

	var visited []string
	root.Walk(func(el *Element, depth int) bool {
		visited = append(visited, el.Type())
		return el.Type() != "levels"
	})
	deepEqual(t, visited, []string{"Map", "levels", "Style"})

	maxDepth := 0
	root.Walk(func(el *Element, depth int) bool {
		maxDepth = max(maxDepth, depth)
		return true
	})
	deepEqual(t, maxDepth, 2)
}

func TestElement_ReadWrite(t *testing.T) {
	root := NewElement("root")
	root.SetAttr("k", LookupValue("v"))
	child := NewElement("child")
	child.SetAttr("n", ByteValue(3))
	must(0, child.SetParent(root))

	tbl := NewStringTable()
	intern(tbl, root)
	deepEqual(t, tbl.Strings(), []string{"root", "k", "v", "child", "n"})

	var b Buffer
	must(0, WriteElement(&b, tbl, root))
	deepEqual(t, b.Bytes(), x("0000 01 0100 05 0200 0100 0300 01 0400 01 03 0000"))
	deepEqual(t, tbl.Len(), 5)

	a := must(ReadElement(NewBuffer(b.Bytes()), tbl, nil))
	deepEqual(t, a.Type(), "root")
	deepEqual(t, a.Attrs(), root.Attrs())
	deepEqual(t, a.ChildCount(), 1)
	attached(t, a, a.Child("child"))
	deepEqual(t, a.Child("child").Attrs(), child.Attrs())
}

func TestElement_WriteLimits(t *testing.T) {
	el := NewElement("big")
	for i := 0; i < 256; i++ {
		el.SetAttr(string(rune('a'+i%26))+string(rune('a'+i/26)), BoolValue(true))
	}
	var b Buffer
	err := WriteElement(&b, NewStringTable(), el)
	var ee *ElementError
	if !errors.As(err, &ee) || !errors.Is(err, ErrRange) {
		t.Fatalf("WriteElement(256 attrs) err = %v, wanted ErrRange ElementError", err)
	}
}

func TestElement_ReadTruncated(t *testing.T) {
	tbl := must(ReadStringTable(NewBuffer(x("0100 0161"))))
	_, err := ReadElement(NewBuffer(x("0000 00 0100")), tbl, nil)
	if !errors.Is(err, ErrRange) {
		t.Fatalf("ReadElement(missing child) err = %v, wanted ErrRange", err)
	}
}
