package inject

import (
	"fmt"
	"strings"

	"injekt/internal/decl"
	"injekt/internal/types"
)

// InjectableKind tags the variants of Injectable.
type InjectableKind uint8

const (
	// KindCallable is backed by a declared callable.
	KindCallable InjectableKind = iota + 1
	// KindCollection aggregates element providers behind List<T> or Set<T>.
	KindCollection
	// KindLambda produces a function value whose body resolves the return type.
	KindLambda
	// KindTypeKey produces a reflective marker for a type.
	KindTypeKey
	// KindSourceKey produces the call-site location.
	KindSourceKey
)

var injectableKindNames = map[InjectableKind]string{
	KindCallable:   "callable",
	KindCollection: "collection",
	KindLambda:     "lambda",
	KindTypeKey:    "type-key",
	KindSourceKey:  "source-key",
}

func (k InjectableKind) String() string {
	if s, ok := injectableKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Injectable is a candidate able to produce Type.
type Injectable struct {
	Kind InjectableKind
	Type types.TypeID
	// Callable is the substituted declaration of a KindCallable candidate.
	Callable *decl.Callable
	// OriginalType is the declared type before substitution; NoTypeID for
	// framework candidates.
	OriginalType types.TypeID
	// TypeArgs binds the declaration's type parameters.
	TypeArgs types.Subst

	Dependencies []*Request
	// bound[i] resolves Dependencies[i] directly when non-nil (module instances).
	bound []*Injectable
	// DependencyScope resolves the dependencies when set, the requesting scope otherwise.
	DependencyScope *Scope
	Owner           *Scope

	// Origin is the name shown in resolution chains.
	Origin string
	// Elements are the element types of a collection, keyed by frameworkKey.
	Elements []types.TypeID

	key string
}

// Key identifies the candidate inside its owner scope.
func (c *Injectable) Key() string { return c.key }

func (c *Injectable) String() string {
	return c.Kind.String() + " " + c.Origin
}

func (s *Session) finishKey(c *Injectable, parts ...string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d|%d|%d", c.Kind, c.Owner.ID, c.Type)
	for _, p := range parts {
		sb.WriteByte('|')
		sb.WriteString(p)
	}
	for _, d := range c.Dependencies {
		fmt.Fprintf(&sb, "|%d", d.Type)
	}
	c.key = sb.String()
}

// callableInjectable instantiates the entry e for a request of type want.
// subst binds e's remaining type parameters.
func (s *Session) callableInjectable(owner *Scope, e *entry, want types.TypeID, subst types.Subst) *Injectable {
	in := s.Types
	c := e.callable.Substitute(in, subst)
	candidate := &Injectable{
		Kind:         KindCallable,
		Type:         want,
		Callable:     c,
		OriginalType: e.original,
		TypeArgs:     in.Compose(e.typeArgs, subst),
		Owner:        owner,
		Origin:       c.FqName,
	}
	if c.DispatchReceiver != types.NoTypeID {
		candidate.Dependencies = append(candidate.Dependencies, &Request{
			Type:       c.DispatchReceiver,
			Owner:      c.FqName,
			ParamName:  dispatchReceiverParam,
			ParamIndex: -1,
			Required:   true,
		})
		var receiver *Injectable
		if e.receiver != nil {
			receiver = s.boundReceiver(owner, e.receiver, c.DispatchReceiver)
		}
		candidate.bound = append(candidate.bound, receiver)
	}
	for _, r := range RequestsFor(c) {
		candidate.Dependencies = append(candidate.Dependencies, r)
		candidate.bound = append(candidate.bound, nil)
	}
	s.finishKey(candidate, e.callable.Key)
	return candidate
}

// boundReceiver instantiates the module entry a member was collected from.
func (s *Session) boundReceiver(owner *Scope, module *entry, want types.TypeID) *Injectable {
	subst, ok := s.Types.InferCandidate(module.callable.Type, want, module.callable.TypeParams, owner.allStatic)
	if !ok {
		subst = nil
	}
	return s.callableInjectable(owner, module, want, subst)
}
