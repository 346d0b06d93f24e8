package inject

import (
	"testing"

	"injekt/internal/decl"
	"injekt/internal/types"
)

// testWorld is a one-module program: a file app/main.kt plus helpers to
// declare classifiers and providers in it.
type testWorld struct {
	t    *testing.T
	in   *types.Interner
	idx  *decl.MemIndex
	file decl.ElementID
}

const mainFile = "app/main.kt"

func newWorld(t *testing.T) *testWorld {
	t.Helper()
	w := &testWorld{t: t, in: types.NewInterner(), idx: decl.NewMemIndex()}
	w.file = w.idx.AddFile("app", mainFile)
	return w
}

// class declares a classifier without type parameters.
func (w *testWorld) class(name string, supers ...types.TypeID) types.TypeID {
	c := w.in.DeclareClassifier(types.Classifier{Key: name, FqName: name, Supertypes: supers})
	return w.in.Apply(c)
}

// generic declares a classifier with one type parameter of variance v.
func (w *testWorld) generic(name string, v types.Variance) types.ClassifierID {
	tp := w.in.NewTypeParameter(name+".T", "T", nil, 0)
	w.in.SetVariance(tp, v)
	return w.in.DeclareClassifier(types.Classifier{Key: name, FqName: name, TypeParams: []types.ClassifierID{tp}})
}

func (w *testWorld) typeParam(key string, flags types.ClassifierFlags, bounds ...types.TypeID) types.ClassifierID {
	return w.in.NewTypeParameter(key, key, bounds, flags)
}

func (w *testWorld) param(name string, t types.TypeID) decl.Param {
	return decl.Param{Name: name, Type: t}
}

func (w *testWorld) optional(name string, t types.TypeID) decl.Param {
	return decl.Param{Name: name, Type: t, HasDefault: true}
}

// provide declares a top-level function of the main file.
func (w *testWorld) provide(name string, t types.TypeID, params ...decl.Param) *decl.Callable {
	w.t.Helper()
	return w.add(&decl.Callable{FqName: name, Kind: decl.KindFunction, Type: t, Params: params, File: mainFile})
}

func (w *testWorld) add(c *decl.Callable) *decl.Callable {
	w.t.Helper()
	if c.File == "" {
		c.File = mainFile
	}
	if err := w.idx.AddCallable(c); err != nil {
		w.t.Fatalf("add %s: %v", c.FqName, err)
	}
	return c
}

func (w *testWorld) session() *Session {
	return NewSession(w.in, w.idx, Options{Keys: &SeqKeys{}})
}

func required(t types.TypeID) *Request {
	return &Request{Type: t, Owner: "main", ParamName: "p", Required: true}
}

// resolve resolves reqs in the main file scope and fails on a fatal error.
func (w *testWorld) resolve(s *Session, sc *Scope, reqs ...*Request) InjectionResult {
	w.t.Helper()
	if sc == nil {
		sc = s.FileScope(mainFile)
	}
	res, err := s.ResolveRequests(sc, &decl.Callable{FqName: "main"}, reqs)
	if err != nil {
		w.t.Fatalf("resolve: %v", err)
	}
	return res
}

func (w *testWorld) single(res InjectionResult) *Result {
	w.t.Helper()
	if !res.OK() {
		w.t.Fatalf("unexpected failure %s on %s", res.Failure.Kind, res.FailureRequest)
	}
	if len(res.Results) != 1 {
		w.t.Fatalf("expected one result, got %d", len(res.Results))
	}
	return res.Results[0].Result
}
