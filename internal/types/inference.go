package types

type constraintKind uint8

const (
	lowerBound constraintKind = iota
	upperBound
	equalBound
)

type variable struct {
	id    ClassifierID
	lower []TypeID
	upper []TypeID
	equal []TypeID
}

func (v *variable) list(k constraintKind) *[]TypeID {
	switch k {
	case lowerBound:
		return &v.lower
	case upperBound:
		return &v.upper
	default:
		return &v.equal
	}
}

type subtypePair struct{ sub, super TypeID }

// maxConstraintDepth bounds constraint propagation between variables.
const maxConstraintDepth = 32

// Solver collects constraints over a set of type variables and fixes them.
type Solver struct {
	in     *Interner
	vars   map[ClassifierID]*variable
	order  []ClassifierID
	checks []subtypePair
	failed bool
	depth  int
}

// NewSolver opens vars as type variables. Declared bounds become upper constraints.
func (in *Interner) NewSolver(vars []ClassifierID) *Solver {
	s := &Solver{in: in, vars: make(map[ClassifierID]*variable, len(vars))}
	for _, v := range vars {
		if _, dup := s.vars[v]; dup {
			continue
		}
		s.vars[v] = &variable{id: v}
		s.order = append(s.order, v)
	}
	for _, v := range s.order {
		vt := in.Apply(v)
		for _, bound := range in.DeclaredSupertypes(v) {
			if bound == in.builtins.NullableAny {
				continue
			}
			s.AddSubtype(vt, bound)
		}
	}
	return s
}

// OK reports whether the constraint system is still consistent.
func (s *Solver) OK() bool { return !s.failed }

// AddSubtype records sub <: super.
func (s *Solver) AddSubtype(sub, super TypeID) bool {
	if s.failed {
		return false
	}
	s.checks = append(s.checks, subtypePair{sub: sub, super: super})
	if !(checker{in: s.in, solver: s}).subtype(sub, super) {
		s.failed = true
	}
	return !s.failed
}

func (s *Solver) variableOf(id TypeID) *variable {
	t := s.in.MustLookup(id)
	if t.Star {
		return nil
	}
	return s.vars[t.Classifier]
}

func (s *Solver) subtypeHook(c checker, sub, super TypeID) (bool, bool) {
	in := s.in
	superVar := s.variableOf(super)
	subVar := s.variableOf(sub)
	if superVar != nil {
		if subVar == superVar {
			st, su := in.MustLookup(sub), in.MustLookup(super)
			return true, !st.Nullable || su.Nullable
		}
		lower := sub
		if in.MustLookup(super).Nullable {
			lower = in.WithNullable(sub, false)
		}
		return true, s.add(c, superVar, lowerBound, lower)
	}
	if subVar != nil {
		if in.MustLookup(sub).Nullable && !in.IsNullableType(super) {
			return true, false
		}
		return true, s.add(c, subVar, upperBound, super)
	}
	return false, false
}

func (s *Solver) equalHook(c checker, a, b TypeID) (bool, bool) {
	if v := s.variableOf(a); v != nil {
		return true, s.add(c, v, equalBound, s.stripVarNullability(a, b))
	}
	if v := s.variableOf(b); v != nil {
		return true, s.add(c, v, equalBound, s.stripVarNullability(b, a))
	}
	return false, false
}

// stripVarNullability removes the nullability the variable occurrence already
// contributes, so T? == Foo? constrains T to Foo.
func (s *Solver) stripVarNullability(varType, other TypeID) TypeID {
	if s.in.MustLookup(varType).Nullable {
		return s.in.WithNullable(other, false)
	}
	return other
}

func (s *Solver) add(c checker, v *variable, kind constraintKind, t TypeID) bool {
	if s.in.MustLookup(t).Classifier == v.id {
		return true
	}
	list := v.list(kind)
	for _, existing := range *list {
		if existing == t {
			return true
		}
	}
	*list = append(*list, t)
	if s.depth >= maxConstraintDepth {
		return true
	}
	s.depth++
	defer func() { s.depth-- }()
	switch kind {
	case lowerBound:
		for _, u := range v.upper {
			if !c.subtype(t, u) {
				return false
			}
		}
		for _, e := range v.equal {
			if !c.subtype(t, e) {
				return false
			}
		}
	case upperBound:
		for _, l := range v.lower {
			if !c.subtype(l, t) {
				return false
			}
		}
		for _, e := range v.equal {
			if !c.subtype(e, t) {
				return false
			}
		}
	case equalBound:
		for _, l := range v.lower {
			if !c.subtype(l, t) {
				return false
			}
		}
		for _, u := range v.upper {
			if !c.subtype(t, u) {
				return false
			}
		}
		for _, e := range v.equal {
			if e != t && !c.equal(e, t) {
				return false
			}
		}
	}
	return true
}

// Solve fixes every variable. Variables whose constraints do not mention other
// open variables are fixed first. The result is verified against every
// recorded constraint.
func (s *Solver) Solve() (Subst, bool) {
	if s.failed {
		return nil, false
	}
	in := s.in
	subst := make(Subst, len(s.order))
	remaining := append([]ClassifierID(nil), s.order...)
	for len(remaining) > 0 {
		pick := 0
		for i, id := range remaining {
			if !s.dependsOnOpen(s.vars[id], subst, remaining) {
				pick = i
				break
			}
		}
		v := s.vars[remaining[pick]]
		remaining = append(remaining[:pick], remaining[pick+1:]...)
		fixed := s.fix(v, subst)
		if fixed == NoTypeID {
			return nil, false
		}
		step := Subst{v.id: fixed}
		for k, x := range subst {
			subst[k] = in.Substitute(x, step)
		}
		subst[v.id] = fixed
	}
	for _, p := range s.checks {
		if !in.IsSubtypeOf(in.Substitute(p.sub, subst), in.Substitute(p.super, subst)) {
			return nil, false
		}
	}
	return subst, true
}

func (s *Solver) dependsOnOpen(v *variable, subst Subst, open []ClassifierID) bool {
	for _, list := range [][]TypeID{v.lower, v.upper, v.equal} {
		for _, t := range list {
			t = s.in.Substitute(t, subst)
			for _, o := range open {
				if o != v.id && s.in.Mentions(t, o) {
					return true
				}
			}
		}
	}
	return false
}

func (s *Solver) fix(v *variable, subst Subst) TypeID {
	in := s.in
	if len(v.equal) > 0 {
		return in.Substitute(v.equal[0], subst)
	}
	if len(v.lower) > 0 {
		return in.CommonSupertype(in.SubstituteAll(v.lower, subst))
	}
	if len(v.upper) > 0 {
		return in.Intersect(in.SubstituteAll(v.upper, subst))
	}
	return in.builtins.NullableAny
}

// InferCandidate solves candidate <: request for vars. Type parameters in
// static stay rigid even when they occur among vars.
func (in *Interner) InferCandidate(candidate, request TypeID, vars, static []ClassifierID) (Subst, bool) {
	open := openVariables(vars, static)
	if len(open) == 0 {
		return nil, in.IsSubtypeOf(candidate, request)
	}
	s := in.NewSolver(open)
	if !s.AddSubtype(candidate, request) {
		return nil, false
	}
	return s.Solve()
}

// InferSpread solves candidateType <: constraint for vars. It decides whether
// a spreading declaration applies to a visible candidate type.
func (in *Interner) InferSpread(constraint, candidateType TypeID, vars, static []ClassifierID) (Subst, bool) {
	open := openVariables(vars, static)
	s := in.NewSolver(open)
	if !s.AddSubtype(candidateType, constraint) {
		return nil, false
	}
	return s.Solve()
}

func openVariables(vars, static []ClassifierID) []ClassifierID {
	if len(static) == 0 {
		return vars
	}
	rigid := make(map[ClassifierID]bool, len(static))
	for _, s := range static {
		rigid[s] = true
	}
	out := make([]ClassifierID, 0, len(vars))
	for _, v := range vars {
		if !rigid[v] {
			out = append(out, v)
		}
	}
	return out
}
