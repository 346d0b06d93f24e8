package types

// checker walks the subtype lattice. With a solver attached, comparisons that
// touch an open type variable become constraints instead of answers.
type checker struct {
	in     *Interner
	solver *Solver
}

// IsSubtypeOf reports whether sub <: super.
func (in *Interner) IsSubtypeOf(sub, super TypeID) bool {
	return checker{in: in}.subtype(sub, super)
}

// IsEqual reports type equality up to flags that do not affect subtyping
// (provide, framework key, use-site variance).
func (in *Interner) IsEqual(a, b TypeID) bool {
	return checker{in: in}.equal(a, b)
}

func (c checker) subtype(sub, super TypeID) bool {
	if sub == super {
		return true
	}
	if c.solver != nil {
		if handled, ok := c.solver.subtypeHook(c, sub, super); handled {
			return ok
		}
	}
	in := c.in
	b := in.builtins
	st := in.MustLookup(sub)
	su := in.MustLookup(super)
	if su.Star {
		return true
	}
	if st.Classifier == b.Nothing {
		return !st.Nullable || in.IsNullableType(super)
	}
	if su.Classifier == b.Any {
		return su.Nullable || !in.IsNullableType(sub)
	}
	if in.IsNullableType(sub) && !in.IsNullableType(super) {
		return false
	}
	view, ok := in.SubtypeView(sub, su.Classifier)
	if !ok {
		return false
	}
	if len(su.Args) == 0 {
		return true
	}
	vt := in.MustLookup(view)
	params := in.mustClassifier(su.Classifier).TypeParams
	for i, superArg := range su.Args {
		subArg := vt.Args[i]
		sa := in.MustLookup(superArg)
		if sa.Star {
			continue
		}
		if in.MustLookup(subArg).Star {
			return false
		}
		switch effectiveVariance(in.mustClassifier(params[i]).Variance, sa.Variance) {
		case Out:
			if !c.subtype(subArg, superArg) {
				return false
			}
		case In:
			if !c.subtype(superArg, subArg) {
				return false
			}
		default:
			if !c.equal(subArg, superArg) {
				return false
			}
		}
	}
	return true
}

func (c checker) equal(a, b TypeID) bool {
	if a == b {
		return true
	}
	if c.solver != nil {
		if handled, ok := c.solver.equalHook(c, a, b); handled {
			return ok
		}
	}
	ta := c.in.MustLookup(a)
	tb := c.in.MustLookup(b)
	if ta.Star || tb.Star {
		return ta.Star == tb.Star
	}
	return c.subtype(a, b) && c.subtype(b, a)
}

func effectiveVariance(declared, use Variance) Variance {
	if declared != Invariant {
		return declared
	}
	return use
}
