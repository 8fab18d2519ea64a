package celestemap

import (
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpAttributes = DumpFlags(1 << iota)
	DumpEncodings
	DumpIDs
	DumpStats

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)

	indentStep = "  "
)

var dumpSep = strings.Repeat("=", 80)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the attached elements of t as an indented outline.
func Dump(t *Tree, f DumpFlags) string {
	var buf strings.Builder
	if f.Contains(DumpStats) {
		s := Stats(t)
		fmt.Fprintln(&buf, dumpSep)
		fmt.Fprintf(&buf, "elements = %d, attributes = %d, max_depth = %d, strings = %d, detached = %d\n", s.Elements, s.Attributes, s.MaxDepth, s.Strings, s.Detached)
		for _, typ := range s.Types() {
			fmt.Fprintf(&buf, "%s%s: %d\n", indentStep, typ, s.ByType[typ])
		}
		fmt.Fprintln(&buf, dumpSep)
	}
	t.Walk(func(id ID, el *Element, depth int) bool {
		dumpElement(&buf, strings.Repeat(indentStep, depth), f, id, el)
		return true
	})
	return buf.String()
}

func dumpElement(w *strings.Builder, prefix string, f DumpFlags, id ID, el *Element) {
	w.WriteString(prefix)
	w.WriteString(el.typ)
	if f.Contains(DumpIDs) {
		fmt.Fprintf(w, " #%s", id)
	}
	if n := len(el.children); n > 0 {
		fmt.Fprintf(w, " (%d children)", n)
	}
	w.WriteByte('\n')

	if !f.Contains(DumpAttributes) {
		return
	}
	for _, a := range el.Attrs() {
		w.WriteString(prefix)
		w.WriteString(indentStep)
		w.WriteString("- ")
		w.WriteString(a.Name)
		if f.Contains(DumpEncodings) {
			fmt.Fprintf(w, " [%v]", a.Value.enc)
		}
		w.WriteString(" = ")
		w.WriteString(a.Value.String())
		w.WriteByte('\n')
	}
}
