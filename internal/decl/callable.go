// Package decl describes what the resolver consumes from the declaration
// index and the lexical structure of a program: provider callables and the
// containment chain of the position a request is made from.
package decl

import (
	"fmt"

	"injekt/internal/source"
	"injekt/internal/types"
)

// CallableKind is the syntactic origin of a callable.
type CallableKind uint8

const (
	KindFunction CallableKind = iota
	KindConstructor
	KindProperty
	KindObject
	// KindReceiver is the implicit enclosing instance of a class or an extension receiver.
	KindReceiver
	// KindParameter is an injectable value parameter of a function or lambda.
	KindParameter
)

var kindNames = [...]string{"function", "constructor", "property", "object", "receiver", "parameter"}

func (k CallableKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("CallableKind(%d)", k)
}

// ParseKind maps a manifest kind name to a CallableKind.
func ParseKind(s string) (CallableKind, bool) {
	for i, n := range kindNames {
		if n == s {
			return CallableKind(i), true
		}
	}
	return 0, false
}

// Visibility limits the scopes a callable is visible from.
type Visibility uint8

const (
	Public Visibility = iota
	Internal
	Private
)

func (v Visibility) String() string {
	switch v {
	case Internal:
		return "internal"
	case Private:
		return "private"
	default:
		return "public"
	}
}

// ParseVisibility accepts public|internal|private; empty means public.
func ParseVisibility(s string) (Visibility, bool) {
	switch s {
	case "", "public":
		return Public, true
	case "internal":
		return Internal, true
	case "private":
		return Private, true
	}
	return 0, false
}

// DefaultStrategy tells the resolver when an optional parameter falls back to
// its declared default.
type DefaultStrategy uint8

const (
	// DefaultIfNotProvided defaults on every failure except ambiguity.
	DefaultIfNotProvided DefaultStrategy = iota
	DefaultOnAllErrors
)

// Param is one value parameter of a callable.
type Param struct {
	Name       string
	Type       types.TypeID
	HasDefault bool
	Strategy   DefaultStrategy
}

// Callable is a declaration able to produce a value of Type.
type Callable struct {
	Key    string
	FqName string
	Kind   CallableKind
	// Type is the produced type as declared, tags included.
	Type       types.TypeID
	TypeParams []types.ClassifierID
	Params     []Param
	// DispatchReceiver is the owning class type for members, NoTypeID otherwise.
	DispatchReceiver types.TypeID
	// Owner identifies the declaration this callable overrides into; callables
	// with the same owner are ranked by OverrideDepth.
	Owner         string
	OverrideDepth int
	Module        string
	File          string
	Visibility    Visibility
	// Default marks a fallback provider that is only consulted when nothing
	// else applies.
	Default bool
	Span    source.Span
}

// String renders "kind fqName".
func (c *Callable) String() string {
	return c.Kind.String() + " " + c.FqName
}

// Clone returns a shallow copy with its own parameter slice.
func (c *Callable) Clone() *Callable {
	cc := *c
	cc.Params = append([]Param(nil), c.Params...)
	cc.TypeParams = append([]types.ClassifierID(nil), c.TypeParams...)
	return &cc
}

// SpreadParam returns the spreading type parameter, if any.
func (c *Callable) SpreadParam(in *types.Interner) (types.ClassifierID, bool) {
	for _, tp := range c.TypeParams {
		if in.Classifier(tp).IsSpread() {
			return tp, true
		}
	}
	return types.NoClassifierID, false
}

// Substitute applies s to the produced type and parameter types and drops the
// bound type parameters.
func (c *Callable) Substitute(in *types.Interner, s types.Subst) *Callable {
	if len(s) == 0 {
		return c
	}
	cc := c.Clone()
	cc.Type = in.Substitute(c.Type, s)
	for i := range cc.Params {
		cc.Params[i].Type = in.Substitute(c.Params[i].Type, s)
	}
	if c.DispatchReceiver != types.NoTypeID {
		cc.DispatchReceiver = in.Substitute(c.DispatchReceiver, s)
	}
	cc.TypeParams = cc.TypeParams[:0]
	for _, tp := range c.TypeParams {
		if _, bound := s[tp]; !bound {
			cc.TypeParams = append(cc.TypeParams, tp)
		}
	}
	return cc
}
