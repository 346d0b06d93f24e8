package types

// DeclaredSupertypes returns the declared supertypes of c. Classifiers without
// declarations default to Any; type parameters default to Any?.
func (in *Interner) DeclaredSupertypes(c ClassifierID) []TypeID {
	cl := in.mustClassifier(c)
	if len(cl.Supertypes) > 0 {
		return cl.Supertypes
	}
	switch {
	case c == in.builtins.Any || c == in.builtins.Nothing:
		return nil
	case cl.IsTypeParameter():
		return []TypeID{in.builtins.NullableAny}
	default:
		return []TypeID{in.builtins.AnyType}
	}
}

// Supertypes are the declared supertypes of id's classifier substituted with
// id's arguments, carrying id's nullability.
func (in *Interner) Supertypes(id TypeID) []TypeID {
	if s, ok := in.supers[id]; ok {
		return s
	}
	t := in.MustLookup(id)
	cl := in.mustClassifier(t.Classifier)
	var subst Subst
	if len(t.Args) > 0 {
		subst = make(Subst, len(t.Args))
		for i, p := range cl.TypeParams {
			subst[p] = t.Args[i]
		}
	}
	decl := in.DeclaredSupertypes(t.Classifier)
	out := make([]TypeID, 0, len(decl))
	for _, s := range decl {
		st := in.Substitute(s, subst)
		if t.Nullable {
			st = in.WithNullable(st, true)
		}
		out = append(out, st)
	}
	in.supers[id] = out
	return out
}

// AllTypes lists id followed by every transitive supertype, breadth first.
func (in *Interner) AllTypes(id TypeID) []TypeID {
	if all, ok := in.all[id]; ok {
		return all
	}
	seen := map[TypeID]bool{id: true}
	out := []TypeID{id}
	for i := 0; i < len(out); i++ {
		for _, s := range in.Supertypes(out[i]) {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	in.all[id] = out
	return out
}

// SubtypeView finds the supertype of id whose classifier is c.
func (in *Interner) SubtypeView(id TypeID, c ClassifierID) (TypeID, bool) {
	key := viewKey{Type: id, Classifier: c}
	if v, ok := in.views[key]; ok {
		return v, v != NoTypeID
	}
	view := NoTypeID
	for _, s := range in.AllTypes(id) {
		if in.MustLookup(s).Classifier == c {
			view = s
			break
		}
	}
	in.views[key] = view
	return view, view != NoTypeID
}

// IsNullableType reports whether null is a value of id: either it is marked
// nullable or it is a type parameter with a nullable bound.
func (in *Interner) IsNullableType(id TypeID) bool {
	if v, ok := in.nullable[id]; ok {
		return v
	}
	in.nullable[id] = false
	t := in.MustLookup(id)
	res := t.Nullable
	if !res && in.mustClassifier(t.Classifier).IsTypeParameter() {
		for _, b := range in.Supertypes(id) {
			if in.IsNullableType(b) {
				res = true
				break
			}
		}
	}
	in.nullable[id] = res
	return res
}
