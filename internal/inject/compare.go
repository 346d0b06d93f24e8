package inject

import "injekt/internal/types"

// compareResult orders two results; negative means a is preferred. Any
// result beats none, successes beat failures, concrete values beat
// defaults, and failures keep the most actionable one.
func (s *Session) compareResult(a, b *Result) int {
	if a == b {
		return 0
	}
	switch {
	case a != nil && b == nil:
		return -1
	case a == nil:
		return 1
	}
	if a.IsSuccess() != b.IsSuccess() {
		if a.IsSuccess() {
			return -1
		}
		return 1
	}
	if a.IsSuccess() {
		aDefault, bDefault := a.Kind == ResultDefault, b.Kind == ResultDefault
		switch {
		case !aDefault && bDefault:
			return -1
		case aDefault && !bDefault:
			return 1
		case aDefault && bDefault:
			return 0
		}
		return s.compareCandidate(a.Candidate, b.Candidate)
	}
	return a.failureOrdering() - b.failureOrdering()
}

// compareCandidate orders candidates by specificity; negative means a wins.
func (s *Session) compareCandidate(a, b *Injectable) int {
	if a == b {
		return 0
	}
	switch {
	case a != nil && b == nil:
		return -1
	case a == nil:
		return 1
	}
	if a.Owner.Nesting != b.Owner.Nesting {
		if a.Owner.Nesting > b.Owner.Nesting {
			return -1
		}
		return 1
	}
	in := s.Types
	if a.Kind == KindCallable && b.Kind == KindCallable {
		ra, rb := a.Callable.DispatchReceiver, b.Callable.DispatchReceiver
		if ra != types.NoTypeID && rb != types.NoTypeID {
			if in.IsSubtypeOf(ra, rb) && !in.IsSubtypeOf(rb, ra) {
				return -1
			}
			if in.IsSubtypeOf(rb, ra) && !in.IsSubtypeOf(ra, rb) {
				return 1
			}
		}
		if a.Callable.Owner != "" && a.Callable.Owner == b.Callable.Owner &&
			a.Callable.OverrideDepth != b.Callable.OverrideDepth {
			if a.Callable.OverrideDepth < b.Callable.OverrideDepth {
				return -1
			}
			return 1
		}
	}
	return s.compareType(a.OriginalType, b.OriginalType, make(map[[2]types.TypeID]bool))
}

// compareType prefers exact over star projections, non-null over nullable,
// concrete over type parameters, and then the more specific classifier.
func (s *Session) compareType(a, b types.TypeID, compared map[[2]types.TypeID]bool) int {
	if a == b {
		return 0
	}
	switch {
	case a != types.NoTypeID && b == types.NoTypeID:
		return -1
	case a == types.NoTypeID:
		return 1
	}
	in := s.Types
	ta, tb := in.MustLookup(a), in.MustLookup(b)
	if r := preferFalse(ta.Star, tb.Star); r != 0 {
		return r
	}
	if r := preferFalse(ta.Nullable, tb.Nullable); r != 0 {
		return r
	}
	if r := preferFalse(in.IsTypeParameterType(a), in.IsTypeParameterType(b)); r != 0 {
		return r
	}
	pair := [2]types.TypeID{a, b}
	if compared[pair] {
		return 0
	}
	compared[pair] = true

	if ta.Classifier != tb.Classifier {
		aSub, bSub := in.IsSubtypeOf(a, b), in.IsSubtypeOf(b, a)
		if aSub && !bSub {
			return -1
		}
		if bSub && !aSub {
			return 1
		}
		return sign(s.compareType(s.commonOfSupertypes(a), s.commonOfSupertypes(b), compared))
	}
	diff := 0
	for i := range ta.Args {
		diff += s.compareType(ta.Args[i], tb.Args[i], compared)
	}
	return sign(diff)
}

func (s *Session) commonOfSupertypes(id types.TypeID) types.TypeID {
	supers := s.Types.Supertypes(id)
	if len(supers) == 0 {
		return types.NoTypeID
	}
	return s.Types.CommonSupertype(supers)
}

// preferFalse ranks a cleared flag before a set one.
func preferFalse(a, b bool) int {
	switch {
	case !a && b:
		return -1
	case a && !b:
		return 1
	}
	return 0
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
