package inject

import (
	"fmt"
	"strings"

	"injekt/internal/decl"
	"injekt/internal/types"
)

// Scope is one lexical lookup context. Scopes are built by the factories in
// factory.go and cached per position, so two lookups of the same position see
// the same caches.
type Scope struct {
	ID      int
	Name    string
	Parent  *Scope
	Nesting int
	// TypeParams are the static type parameters introduced here.
	TypeParams []types.ClassifierID
	File       string
	Module     string

	session   *Session
	entries   []*entry
	spreading []*spreadEntry
	// spreadChain holds the spreading callables being expanded right now.
	spreadChain []string

	allScopes []*Scope
	allStatic []types.ClassifierID

	resultsByType      map[types.TypeID]*Result
	resultsByCandidate map[string]*Result
	byRequest          map[requestKey][]*Injectable
}

// entry is one local declaration, after module expansion.
type entry struct {
	callable *decl.Callable
	original types.TypeID
	typeArgs types.Subst
	// receiver is the module instance a member was collected from.
	receiver *entry
}

type requestKey struct {
	Type   types.TypeID
	Static string
}

// scopeSpec describes a scope before it is materialized.
type scopeSpec struct {
	name       string
	parent     *Scope
	callables  []*decl.Callable
	typeParams []types.ClassifierID
	// sameNesting keeps the parent's nesting instead of nesting+1.
	sameNesting bool
	file        string
	module      string
}

// newScope builds a scope, expands its modules and spreading declarations,
// and flattens it into the parent when nothing local remains.
func (s *Session) newScope(spec scopeSpec) *Scope {
	sc := &Scope{
		Name:               spec.name,
		Parent:             spec.parent,
		TypeParams:         spec.typeParams,
		File:               spec.file,
		Module:             spec.module,
		session:            s,
		resultsByType:      make(map[types.TypeID]*Result),
		resultsByCandidate: make(map[string]*Result),
		byRequest:          make(map[requestKey][]*Injectable),
	}
	if p := spec.parent; p != nil {
		sc.Nesting = p.Nesting + 1
		if spec.sameNesting {
			sc.Nesting = p.Nesting
		}
		if sc.File == "" {
			sc.File = p.File
		}
		if sc.Module == "" {
			sc.Module = p.Module
		}
		sc.allScopes = append(append([]*Scope(nil), p.allScopes...), sc)
		sc.allStatic = append(append([]types.ClassifierID(nil), p.allStatic...), spec.typeParams...)
		for _, sp := range p.spreading {
			sc.spreading = append(sc.spreading, sp.copy())
		}
	} else {
		sc.allScopes = []*Scope{sc}
		sc.allStatic = append([]types.ClassifierID(nil), spec.typeParams...)
	}

	inherited := len(sc.spreading)
	for _, c := range spec.callables {
		s.collectModule(sc, &entry{callable: c, original: c.Type}, nil)
	}
	for _, sp := range append([]*spreadEntry(nil), sc.spreading...) {
		s.spreadOverVisible(sc, sp)
	}

	if len(sc.entries) == 0 && len(sc.TypeParams) == 0 && len(sc.spreading) == inherited && spec.parent != nil {
		return spec.parent
	}
	s.nextScopeID++
	sc.ID = s.nextScopeID
	s.traceScope(sc)
	return sc
}

func (sc *Scope) String() string {
	return fmt.Sprintf("Scope(%s)", sc.Name)
}

// Chain renders the scope names from the innermost outwards.
func (sc *Scope) Chain() string {
	names := make([]string, 0, len(sc.allScopes))
	for i := len(sc.allScopes) - 1; i >= 0; i-- {
		names = append(names, sc.allScopes[i].Name)
	}
	return strings.Join(names, " -> ")
}

// Candidates lists the local declarations of this scope only.
func (sc *Scope) Candidates() []*decl.Callable {
	out := make([]*decl.Callable, len(sc.entries))
	for i, e := range sc.entries {
		out[i] = e.callable
	}
	return out
}

func (sc *Scope) staticKey() string {
	var sb strings.Builder
	for _, c := range sc.allStatic {
		fmt.Fprintf(&sb, "%d,", c)
	}
	return sb.String()
}

// declaredCandidates returns the candidates for request visible from the
// requesting scope, outer scopes first. List and Set requests without a
// frameworkKey are always served by the merged collection.
func (sc *Scope) declaredCandidates(req *Request, requesting *Scope) []*Injectable {
	in := sc.session.Types
	t := in.MustLookup(req.Type)
	b := in.Builtins()
	if t.FrameworkKey == "" && (t.Classifier == b.List || t.Classifier == b.Set) {
		return nil
	}
	return sc.candidatesFor(requestKey{Type: req.Type, Static: requesting.staticKey()}, requesting.allStatic)
}

func (sc *Scope) candidatesFor(key requestKey, static []types.ClassifierID) []*Injectable {
	if len(sc.entries) == 0 {
		if sc.Parent == nil {
			return nil
		}
		return sc.Parent.candidatesFor(key, static)
	}
	if cached, ok := sc.byRequest[key]; ok {
		return cached
	}
	var out []*Injectable
	if sc.Parent != nil {
		out = append(out, sc.Parent.candidatesFor(key, static)...)
	}
	s := sc.session
	in := s.Types
	wantKey := in.MustLookup(key.Type).FrameworkKey
	want := in.WithFrameworkKey(key.Type, "")
	for _, e := range sc.entries {
		if in.MustLookup(e.callable.Type).FrameworkKey != wantKey {
			continue
		}
		got := in.WithFrameworkKey(e.callable.Type, "")
		subst, ok := in.InferCandidate(got, want, e.callable.TypeParams, static)
		if !ok {
			continue
		}
		out = append(out, s.callableInjectable(sc, e, key.Type, subst))
	}
	sc.byRequest[key] = out
	return out
}

// collectionElements lists the element types for a List<T>/Set<T> request:
// every visible entry producing T or Collection<T>, outer scopes first.
func (sc *Scope) collectionElements(single, collection types.TypeID, static []types.ClassifierID) []*collected {
	if len(sc.entries) == 0 {
		if sc.Parent == nil {
			return nil
		}
		return sc.Parent.collectionElements(single, collection, static)
	}
	var out []*collected
	if sc.Parent != nil {
		out = append(out, sc.Parent.collectionElements(single, collection, static)...)
	}
	in := sc.session.Types
	for _, e := range sc.entries {
		if in.MustLookup(e.callable.Type).FrameworkKey != "" {
			continue
		}
		subst, ok := in.InferCandidate(e.callable.Type, single, e.callable.TypeParams, static)
		if !ok {
			subst, ok = in.InferCandidate(e.callable.Type, collection, e.callable.TypeParams, static)
		}
		if !ok {
			continue
		}
		out = append(out, &collected{entry: e, subst: subst, owner: sc})
	}
	return out
}

type collected struct {
	entry *entry
	subst types.Subst
	owner *Scope
}
