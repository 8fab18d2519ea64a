package celestemap

import (
	"cmp"
	"maps"
	"slices"
)

type TreeStats struct {
	Elements   int
	Attributes int
	MaxDepth   int
	Strings    int // distinct type names, attribute names and lookup values
	Detached   int // elements with an id that are not attached

	ByType map[string]int
}

// Types returns the element types in descending order of count.
func (ts *TreeStats) Types() []string {
	types := slices.Collect(maps.Keys(ts.ByType))
	slices.SortFunc(types, func(a, b string) int {
		if d := ts.ByType[b] - ts.ByType[a]; d != 0 {
			return d
		}
		return cmp.Compare(a, b)
	})
	return types
}

func Stats(t *Tree) TreeStats {
	result := TreeStats{ByType: make(map[string]int)}
	t.root.Walk(func(el *Element, depth int) bool {
		result.Elements++
		result.Attributes += len(el.names)
		result.MaxDepth = max(result.MaxDepth, depth)
		result.ByType[el.typ]++
		return true
	})
	for _, el := range t.elements {
		if !t.IsAttached(el) {
			result.Detached++
		}
	}

	tbl := NewStringTable()
	intern(tbl, t.root)
	result.Strings = tbl.Len()
	return result
}
