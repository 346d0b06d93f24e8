package types

const maxCommonDepth = 4

// CommonSupertype returns the most specific type every element of ids is a
// subtype of. Without intersection types the first most specific common
// classifier in breadth-first supertype order is chosen.
func (in *Interner) CommonSupertype(ids []TypeID) TypeID {
	return in.commonSupertype(ids, 0)
}

func (in *Interner) commonSupertype(ids []TypeID, depth int) TypeID {
	b := in.builtins
	if len(ids) == 0 {
		return b.NullableAny
	}
	if len(ids) == 1 {
		return ids[0]
	}
	nullable := false
	var rest []TypeID
	for _, id := range ids {
		t := in.MustLookup(id)
		if t.Star {
			return b.Star
		}
		if t.Nullable {
			nullable = true
		}
		if t.Classifier == b.Nothing {
			continue
		}
		rest = appendUnique(rest, in.WithNullable(id, false))
	}
	if len(rest) == 0 {
		if nullable {
			return b.NullableNothing
		}
		return b.NothingType
	}
	rest = in.dropSubsumed(rest)
	if len(rest) == 1 {
		return in.withNullableIf(rest[0], nullable)
	}
	if depth >= maxCommonDepth {
		return in.withNullableIf(b.AnyType, nullable)
	}

	common := in.commonClassifiers(rest)
	if len(common) == 0 {
		return in.withNullableIf(b.AnyType, nullable)
	}
	c := common[0]
	cl := in.mustClassifier(c)
	args := make([]TypeID, len(cl.TypeParams))
	for i, p := range cl.TypeParams {
		var argsI []TypeID
		star := false
		for _, r := range rest {
			view, _ := in.SubtypeView(r, c)
			a := in.MustLookup(view).Args[i]
			if in.MustLookup(a).Star {
				star = true
			}
			argsI = appendUnique(argsI, a)
		}
		switch {
		case star:
			args[i] = b.Star
		case len(argsI) == 1:
			args[i] = argsI[0]
		case in.mustClassifier(p).Variance == Out:
			args[i] = in.commonSupertype(argsI, depth+1)
		default:
			args[i] = b.Star
		}
	}
	return in.withNullableIf(in.Intern(Type{Classifier: c, Args: args}), nullable)
}

// dropSubsumed removes types that are subtypes of another member.
func (in *Interner) dropSubsumed(ids []TypeID) []TypeID {
	out := make([]TypeID, 0, len(ids))
	for i, a := range ids {
		subsumed := false
		for j, o := range ids {
			if i == j || !in.IsSubtypeOf(a, o) {
				continue
			}
			// Equivalent types keep the earlier one.
			if in.IsSubtypeOf(o, a) && i < j {
				continue
			}
			subsumed = true
			break
		}
		if !subsumed {
			out = append(out, a)
		}
	}
	return out
}

// commonClassifiers lists the classifiers shared by all supertype sets,
// keeping only those not implied by a more specific shared classifier.
func (in *Interner) commonClassifiers(ids []TypeID) []ClassifierID {
	var shared []ClassifierID
	for _, t := range in.AllTypes(ids[0]) {
		c := in.MustLookup(t).Classifier
		all := true
		for _, other := range ids[1:] {
			if _, ok := in.SubtypeView(other, c); !ok {
				all = false
				break
			}
		}
		if all && !containsClassifier(shared, c) {
			shared = append(shared, c)
		}
	}
	var out []ClassifierID
	for _, c := range shared {
		implied := false
		for _, d := range shared {
			if d == c {
				continue
			}
			if _, ok := in.SubtypeView(in.DefaultType(d), c); ok {
				implied = true
				break
			}
		}
		if !implied {
			out = append(out, c)
		}
	}
	return out
}

// Intersect picks the member of ids that is a subtype of all others, or the
// first member when none is.
func (in *Interner) Intersect(ids []TypeID) TypeID {
	if len(ids) == 0 {
		return in.builtins.NullableAny
	}
	for _, a := range ids {
		all := true
		for _, o := range ids {
			if !in.IsSubtypeOf(a, o) {
				all = false
				break
			}
		}
		if all {
			return a
		}
	}
	return ids[0]
}

func (in *Interner) withNullableIf(id TypeID, nullable bool) TypeID {
	if nullable {
		return in.WithNullable(id, true)
	}
	return id
}

func appendUnique(list []TypeID, id TypeID) []TypeID {
	for _, x := range list {
		if x == id {
			return list
		}
	}
	return append(list, id)
}

func containsClassifier(list []ClassifierID, c ClassifierID) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}
