package inject

import (
	"testing"

	"injekt/internal/decl"
	"injekt/internal/types"
)

func TestListMergesElementProviders(t *testing.T) {
	w := newWorld(t)
	b := w.in.Builtins()
	service := w.class("app.Service")
	impl := w.class("app.Impl", service)
	w.provide("app.plain", service)
	w.provide("app.impl", impl)
	w.provide("app.more", w.in.Apply(b.Collection, service))

	r := w.single(w.resolve(w.session(), nil, required(w.in.Apply(b.List, service))))
	if r.Candidate.Kind != KindCollection || len(r.Deps) != 3 {
		t.Fatalf("collection = %+v", r.Candidate)
	}
	wantOrigins := []string{"app.plain", "app.impl", "app.more"}
	for i, dep := range r.Deps {
		if key := w.in.MustLookup(dep.Request.Type).FrameworkKey; key != []string{"k1", "k2", "k3"}[i] {
			t.Errorf("element %d keyed %q", i, key)
		}
		if dep.Result.Candidate.Origin != wantOrigins[i] {
			t.Errorf("element %d from %s, want %s", i, dep.Result.Candidate.Origin, wantOrigins[i])
		}
	}
}

func TestEmptyCollectionHasNoCandidates(t *testing.T) {
	w := newWorld(t)
	b := w.in.Builtins()
	service := w.class("app.Service")
	res := w.resolve(w.session(), nil, required(w.in.Apply(b.Set, service)))
	if res.OK() || res.Failure.Kind != FailNoCandidates {
		t.Fatalf("empty set must fail with no candidates")
	}
}

func TestKeyedRequestSkipsUnkeyedProviders(t *testing.T) {
	w := newWorld(t)
	a := w.class("app.A")
	w.provide("app.plain", a)
	w.provide("app.keyed", w.in.WithFrameworkKey(a, "blue"))

	r := w.single(w.resolve(w.session(), nil, required(w.in.WithFrameworkKey(a, "blue"))))
	if r.Candidate.Origin != "app.keyed" {
		t.Fatalf("keyed request served by %s", r.Candidate.Origin)
	}
	r = w.single(w.resolve(w.session(), nil, required(a)))
	if r.Candidate.Origin != "app.plain" {
		t.Fatalf("unkeyed request served by %s", r.Candidate.Origin)
	}
}

func TestLambdaParametersAreCandidates(t *testing.T) {
	w := newWorld(t)
	a, b := w.class("app.A"), w.class("app.B")
	w.provide("app.provideB", b, w.param("a", a))

	r := w.single(w.resolve(w.session(), nil, required(w.in.FunctionType([]types.TypeID{a}, b))))
	if r.Candidate.Kind != KindLambda || !r.Deps[0].Request.Lazy {
		t.Fatalf("lambda = %+v", r.Candidate)
	}
	body := r.Deps[0].Result
	param := body.Deps[0].Result.Candidate
	if body.Candidate.Origin != "app.provideB" || param.Callable.Kind != decl.KindParameter {
		t.Fatalf("lambda body should use its own parameter, got %s", param)
	}
	if param.Owner == r.Candidate.Owner || param.Owner.Nesting != r.Candidate.Owner.Nesting+1 {
		t.Fatalf("parameters live in a private nested scope")
	}
}

func TestLambdaWithoutReturnProvider(t *testing.T) {
	w := newWorld(t)
	x := w.class("app.X")
	res := w.resolve(w.session(), nil, required(w.in.FunctionType(nil, x)))
	if res.OK() || res.Failure.Kind != FailNoCandidates || res.Failure.Request.Type != x {
		t.Fatalf("missing return type must surface directly, got %+v", res.Failure)
	}

	r := w.single(w.resolve(w.session(), nil, required(w.in.FunctionType(nil, w.in.WithNullable(x, true)))))
	if r.Deps[0].Result != DefaultValue {
		t.Fatalf("nullable lambda body defaults, got %s", r.Deps[0].Result.Kind)
	}
}

func TestProvideFunctionTypeIsNotSynthesized(t *testing.T) {
	w := newWorld(t)
	x := w.class("app.X")
	w.provide("app.x", x)
	fn := w.in.WithProvide(w.in.FunctionType(nil, x), true)
	expectKind(t, w.resolve(w.session(), nil, required(fn)), FailNoCandidates)
}

func TestTypeKeys(t *testing.T) {
	w := newWorld(t)
	b := w.in.Builtins()
	box := w.generic("app.Box", types.Invariant)
	tp := w.typeParam("app.run.T", 0)
	T := w.in.Apply(tp)
	fn := w.idx.AddElement(decl.Element{
		Kind: decl.ElemFunction, Name: "app.run", Parent: w.file, Index: decl.Whole,
		Function: &decl.FunctionInfo{
			TypeParams: []types.ClassifierID{tp},
			Params:     []decl.FunctionParam{{Name: "tKey", Type: w.in.Apply(b.TypeKey, T), Provide: true}},
		},
	})
	s := w.session()
	sc := w.scopeAt(s, fn, decl.Whole)

	r := w.single(w.resolve(s, sc, required(w.in.Apply(b.TypeKey, w.in.Apply(box, T)))))
	if r.Candidate.Kind != KindTypeKey || len(r.Deps) != 1 {
		t.Fatalf("type key = %+v", r.Candidate)
	}
	if r.Deps[0].Result.Candidate.Callable.FqName != "app.run.tKey" {
		t.Fatalf("the type parameter key comes from the provided parameter")
	}

	concrete := w.single(w.resolve(s, sc, required(w.in.Apply(b.TypeKey, w.class("app.Foo")))))
	if len(concrete.Deps) != 0 {
		t.Fatalf("concrete keys have no dependencies")
	}

	u := w.in.Apply(w.typeParam("app.other.U", 0))
	expectKind(t, w.resolve(s, sc, required(w.in.Apply(b.TypeKey, u))), FailNoCandidates)
}

func TestSourceKey(t *testing.T) {
	w := newWorld(t)
	b := w.in.Builtins()
	r := w.single(w.resolve(w.session(), nil, required(w.in.Apply(b.SourceKey))))
	if r.Candidate.Kind != KindSourceKey || len(r.Deps) != 0 {
		t.Fatalf("source key = %+v", r.Candidate)
	}
}
