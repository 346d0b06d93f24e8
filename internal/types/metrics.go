package types

import "slices"

// TypeSize counts the nodes of the argument tree. A repeated subtree is
// counted once as a node and not expanded again.
func (in *Interner) TypeSize(id TypeID) int {
	if n, ok := in.sizes[id]; ok {
		return n
	}
	size := 0
	seen := make(map[TypeID]bool)
	var visit func(TypeID)
	visit = func(x TypeID) {
		size++
		if seen[x] {
			return
		}
		seen[x] = true
		for _, a := range in.MustLookup(x).Args {
			visit(a)
		}
	}
	visit(id)
	in.sizes[id] = size
	return size
}

// CoveringSet returns the sorted set of classifiers reachable in id.
func (in *Interner) CoveringSet(id TypeID) []ClassifierID {
	if cs, ok := in.covering[id]; ok {
		return cs
	}
	set := make(map[ClassifierID]struct{})
	var visit func(TypeID)
	visit = func(x TypeID) {
		t := in.MustLookup(x)
		set[t.Classifier] = struct{}{}
		for _, a := range t.Args {
			visit(a)
		}
	}
	visit(id)
	out := make([]ClassifierID, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	slices.Sort(out)
	in.covering[id] = out
	return out
}

// SameCoveringSet compares the covering sets of a and b.
func (in *Interner) SameCoveringSet(a, b TypeID) bool {
	return slices.Equal(in.CoveringSet(a), in.CoveringSet(b))
}
