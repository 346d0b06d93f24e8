package inject

import (
	"injekt/internal/decl"
	"injekt/internal/types"
)

// spreadEntry is a declaration with a spreading type parameter. It is not a
// candidate itself; it contributes one substituted copy for every visible
// candidate type its constraint accepts.
type spreadEntry struct {
	entry      *entry
	param      types.ClassifierID
	constraint types.TypeID
	processed  map[types.TypeID]bool
}

func (sp *spreadEntry) copy() *spreadEntry {
	processed := make(map[types.TypeID]bool, len(sp.processed))
	for k, v := range sp.processed {
		processed[k] = v
	}
	return &spreadEntry{entry: sp.entry, param: sp.param, constraint: sp.constraint, processed: processed}
}

// collectModule adds e to sc and expands it: spreading declarations become
// spread entries, receivers and module instances contribute their members.
// path guards against modules that provide themselves.
func (s *Session) collectModule(sc *Scope, e *entry, path []types.ClassifierID) {
	in := s.Types
	if tp, ok := e.callable.SpreadParam(in); ok {
		sp := &spreadEntry{
			entry:      e,
			param:      tp,
			constraint: in.Apply(tp),
			processed:  make(map[types.TypeID]bool),
		}
		sc.spreading = append(sc.spreading, sp)
		s.spreadOverVisible(sc, sp)
		return
	}

	sc.entries = append(sc.entries, e)
	for _, sp := range append([]*spreadEntry(nil), sc.spreading...) {
		s.spread(sc, sp, e.callable.Type)
	}

	inner := in.UnwrapTags(e.callable.Type)
	cls := in.MustLookup(inner).Classifier
	if e.callable.Kind != decl.KindReceiver && !in.Classifier(cls).IsModule() {
		return
	}
	for _, seen := range path {
		if seen == cls {
			return
		}
	}
	members := s.Index.Members(cls)
	if len(members) == 0 {
		return
	}
	moduleSubst := s.classSubst(cls, inner)
	path = append(path, cls)
	for _, m := range members {
		mc := m.Substitute(in, moduleSubst)
		s.collectModule(sc, &entry{callable: mc, original: m.Type, receiver: e}, path)
	}
}

// classSubst maps the type parameters of cls to the arguments of t.
func (s *Session) classSubst(cls types.ClassifierID, t types.TypeID) types.Subst {
	params := s.Types.Classifier(cls).TypeParams
	args := s.Types.MustLookup(t).Args
	if len(params) == 0 || len(params) != len(args) {
		return nil
	}
	out := make(types.Subst, len(params))
	for i, p := range params {
		if s.Types.Apply(p) != args[i] {
			out[p] = args[i]
		}
	}
	return out
}

// spreadOverVisible matches sp against every candidate type visible from sc.
func (s *Session) spreadOverVisible(sc *Scope, sp *spreadEntry) {
	for _, scope := range sc.allScopes {
		for _, e := range append([]*entry(nil), scope.entries...) {
			s.spread(sc, sp, e.callable.Type)
		}
	}
}

// spread applies sp to one candidate type. A match substitutes the spreading
// declaration and collects the result like any other local declaration; the
// remaining type parameters are inferred against the request later.
func (s *Session) spread(sc *Scope, sp *spreadEntry, candidateType types.TypeID) {
	if sp.processed[candidateType] {
		return
	}
	sp.processed[candidateType] = true
	key := sp.entry.callable.Key
	for _, k := range sc.spreadChain {
		if k == key {
			return
		}
	}
	c := sp.entry.callable
	subst, ok := s.Types.InferSpread(sp.constraint, candidateType, c.TypeParams, sc.allStatic)
	if !ok {
		return
	}
	if _, bound := subst[sp.param]; !bound {
		return
	}
	product := &entry{
		callable: c.Substitute(s.Types, subst),
		original: sp.entry.original,
		typeArgs: s.Types.Compose(sp.entry.typeArgs, subst),
		receiver: sp.entry.receiver,
	}
	sc.spreadChain = append(sc.spreadChain, key)
	s.collectModule(sc, product, nil)
	sc.spreadChain = sc.spreadChain[:len(sc.spreadChain)-1]
}
