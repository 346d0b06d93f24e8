package inject

import (
	"fmt"

	"injekt/internal/decl"
)

// frameworkCandidate synthesizes a candidate the user did not declare, or
// returns nil when the request type has no builtin provider.
func (s *Session) frameworkCandidate(sc *Scope, req *Request) *Injectable {
	in := s.Types
	b := in.Builtins()
	t := in.MustLookup(req.Type)
	switch {
	case in.IsFunctionType(req.Type) && !t.Provide:
		return s.lambdaCandidate(sc, req)
	case t.FrameworkKey == "" && (t.Classifier == b.List || t.Classifier == b.Set):
		return s.collectionCandidate(sc, req)
	case t.Classifier == b.TypeKey:
		return s.typeKeyCandidate(sc, req)
	case t.Classifier == b.SourceKey:
		c := &Injectable{Kind: KindSourceKey, Type: req.Type, Owner: sc, Origin: "SourceKey"}
		s.finishKey(c)
		return c
	}
	return nil
}

// lambdaCandidate resolves the return type lazily in a private scope that
// provides one candidate per function parameter.
func (s *Session) lambdaCandidate(sc *Scope, req *Request) *Injectable {
	in := s.Types
	params, ret := in.FunctionParts(req.Type)
	origin := in.ClassifierOf(req.Type).FqName
	locals := make([]*decl.Callable, len(params))
	for i, p := range params {
		name := fmt.Sprintf("p%d", i+1)
		locals[i] = &decl.Callable{
			Key:    fmt.Sprintf("lambda:%d:%d:%s", sc.ID, req.Type, name),
			FqName: origin + "." + name,
			Kind:   decl.KindParameter,
			Type:   p,
			File:   sc.File,
			Module: sc.Module,
		}
	}
	depScope := s.newScope(scopeSpec{
		name:      "LAMBDA " + in.TypeString(req.Type),
		parent:    sc,
		callables: locals,
	})
	c := &Injectable{
		Kind: KindLambda,
		Type: req.Type,
		Dependencies: []*Request{{
			Type:      ret,
			Owner:     origin,
			ParamName: "invoke",
			Required:  !in.IsNullableType(ret),
			Lazy:      true,
		}},
		DependencyScope: depScope,
		Owner:           sc,
		Origin:          origin,
	}
	c.bound = []*Injectable{nil}
	s.finishKey(c)
	return c
}

// collectionCandidate merges every visible provider of T or Collection<T>.
// Each element is re-keyed with a fresh frameworkKey and lives in the
// collection's private scope, so two collections never share elements.
func (s *Session) collectionCandidate(sc *Scope, req *Request) *Injectable {
	in := s.Types
	b := in.Builtins()
	single := in.MustLookup(req.Type).Args[0]
	collection := in.Apply(b.Collection, single)
	found := sc.collectionElements(single, collection, sc.allStatic)
	if len(found) == 0 {
		return nil
	}
	c := &Injectable{
		Kind:   KindCollection,
		Type:   req.Type,
		Owner:  sc,
		Origin: in.ClassifierOf(req.Type).FqName,
	}
	locals := make([]*decl.Callable, 0, len(found))
	for i, f := range found {
		key := s.Keys.NewKey()
		el := f.entry.callable.Substitute(in, f.subst).Clone()
		el.Type = in.WithFrameworkKey(el.Type, key)
		el.Key = el.Key + "#" + key
		locals = append(locals, el)
		c.Elements = append(c.Elements, el.Type)
		c.Dependencies = append(c.Dependencies, &Request{
			Type:       el.Type,
			Owner:      c.Origin,
			ParamName:  fmt.Sprintf("element%d", i),
			ParamIndex: i,
			Required:   true,
		})
		c.bound = append(c.bound, nil)
	}
	c.DependencyScope = s.newScope(scopeSpec{
		name:      "COLLECTION " + in.TypeString(req.Type),
		parent:    sc,
		callables: locals,
	})
	s.finishKey(c)
	return c
}

// typeKeyCandidate depends on one TypeKey per type parameter occurring in
// the keyed type. A bare type parameter has no builtin key; its TypeKey must
// be declared, usually as a provided parameter.
func (s *Session) typeKeyCandidate(sc *Scope, req *Request) *Injectable {
	in := s.Types
	b := in.Builtins()
	keyed := in.MustLookup(req.Type).Args[0]
	if in.IsTypeParameterType(keyed) {
		return nil
	}
	c := &Injectable{Kind: KindTypeKey, Type: req.Type, Owner: sc, Origin: "TypeKey"}
	for i, tp := range in.TypeParametersIn(keyed) {
		c.Dependencies = append(c.Dependencies, &Request{
			Type:       in.Apply(b.TypeKey, in.Apply(tp)),
			Owner:      "TypeKey",
			ParamName:  in.Classifier(tp).FqName,
			ParamIndex: i,
			Required:   true,
		})
		c.bound = append(c.bound, nil)
	}
	s.finishKey(c)
	return c
}
