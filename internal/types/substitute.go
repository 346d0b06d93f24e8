package types

// Subst maps type parameter classifiers to their replacement types.
type Subst map[ClassifierID]TypeID

// Substitute replaces the classifiers keyed in s inside id. Nullability and the
// provide flag of the replaced position are OR'ed into the replacement; a
// star projection takes the nullability of the replacement. The replacement's
// variance wins unless it is invariant.
func (in *Interner) Substitute(id TypeID, s Subst) TypeID {
	if len(s) == 0 {
		return id
	}
	t := in.MustLookup(id)
	if sub, ok := s[t.Classifier]; ok {
		st := in.MustLookup(sub)
		out := st
		out.Args = st.Args
		if t.Star {
			out.Nullable = st.Nullable
		} else {
			out.Nullable = t.Nullable || st.Nullable
		}
		out.Provide = t.Provide || st.Provide
		if st.Variance == Invariant {
			out.Variance = t.Variance
		}
		return in.Intern(out)
	}
	if len(t.Args) == 0 {
		return id
	}
	var args []TypeID
	for i, a := range t.Args {
		na := in.Substitute(a, s)
		if na != a && args == nil {
			args = append(make([]TypeID, 0, len(t.Args)), t.Args[:i]...)
		}
		if args != nil {
			args = append(args, na)
		}
	}
	if args == nil {
		return id
	}
	t.Args = args
	return in.Intern(t)
}

// SubstituteAll applies s to every element of ids.
func (in *Interner) SubstituteAll(ids []TypeID, s Subst) []TypeID {
	if len(s) == 0 {
		return ids
	}
	out := make([]TypeID, len(ids))
	for i, id := range ids {
		out[i] = in.Substitute(id, s)
	}
	return out
}

// Compose returns the substitution that applies s first and then next.
func (in *Interner) Compose(s, next Subst) Subst {
	if len(s) == 0 {
		return next
	}
	out := make(Subst, len(s)+len(next))
	for k, v := range s {
		out[k] = in.Substitute(v, next)
	}
	for k, v := range next {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// Mentions reports whether id refers to classifier c anywhere in its tree.
func (in *Interner) Mentions(id TypeID, c ClassifierID) bool {
	t := in.MustLookup(id)
	if t.Classifier == c {
		return true
	}
	for _, a := range t.Args {
		if in.Mentions(a, c) {
			return true
		}
	}
	return false
}

// TypeParametersIn lists the type parameter classifiers occurring in id in
// order of first appearance.
func (in *Interner) TypeParametersIn(id TypeID) []ClassifierID {
	var out []ClassifierID
	seen := make(map[ClassifierID]bool)
	var walk func(TypeID)
	walk = func(x TypeID) {
		t := in.MustLookup(x)
		if in.mustClassifier(t.Classifier).IsTypeParameter() && !seen[t.Classifier] {
			seen[t.Classifier] = true
			out = append(out, t.Classifier)
		}
		for _, a := range t.Args {
			walk(a)
		}
	}
	walk(id)
	return out
}
