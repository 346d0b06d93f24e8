package inject

import (
	"testing"

	"injekt/internal/decl"
	"injekt/internal/types"
)

func TestModuleMembersBindTheirInstance(t *testing.T) {
	w := newWorld(t)
	client := w.class("app.Client")
	module := w.in.DeclareClassifier(types.Classifier{Key: "app.NetworkModule", FqName: "app.NetworkModule", Flags: types.FlagModule | types.FlagObject})
	moduleType := w.in.Apply(module)
	w.add(&decl.Callable{FqName: "app.NetworkModule", Kind: decl.KindObject, Type: moduleType})
	if err := w.idx.AddMember(module, &decl.Callable{FqName: "app.NetworkModule.client", Type: client, DispatchReceiver: moduleType}); err != nil {
		t.Fatal(err)
	}

	r := w.single(w.resolve(w.session(), nil, required(client)))
	if r.Candidate.Origin != "app.NetworkModule.client" || len(r.Deps) != 1 {
		t.Fatalf("member = %+v", r.Candidate)
	}
	if got := r.Deps[0].Result.Candidate.Origin; got != "app.NetworkModule" {
		t.Fatalf("receiver from %s", got)
	}
}

func TestGenericModuleSubstitutesMembers(t *testing.T) {
	w := newWorld(t)
	foo := w.class("app.Foo")
	mp := w.in.NewTypeParameter("app.Holder.T", "T", nil, 0)
	holder := w.in.DeclareClassifier(types.Classifier{Key: "app.Holder", FqName: "app.Holder", TypeParams: []types.ClassifierID{mp}, Flags: types.FlagModule})
	box := w.generic("app.Box", types.Invariant)
	w.provide("app.holder", w.in.Apply(holder, foo))
	if err := w.idx.AddMember(holder, &decl.Callable{
		FqName:           "app.Holder.box",
		Type:             w.in.Apply(box, w.in.Apply(mp)),
		DispatchReceiver: w.in.Apply(holder, w.in.Apply(mp)),
	}); err != nil {
		t.Fatal(err)
	}
	r := w.single(w.resolve(w.session(), nil, required(w.in.Apply(box, foo))))
	if r.Candidate.Origin != "app.Holder.box" {
		t.Fatalf("member = %s", r.Candidate)
	}
}

func TestSpreadingDeclarations(t *testing.T) {
	for _, spreadFirst := range []bool{true, false} {
		w := newWorld(t)
		service := w.class("app.Service")
		a := w.class("app.A", service)
		b := w.class("app.B")
		wrapper := w.generic("app.Wrapper", types.Invariant)
		tp := w.typeParam("app.wrap.T", types.FlagSpread, service)
		wrap := &decl.Callable{
			FqName:     "app.wrap",
			Type:       w.in.Apply(wrapper, w.in.Apply(tp)),
			TypeParams: []types.ClassifierID{tp},
			Params:     []decl.Param{w.param("t", w.in.Apply(tp))},
		}
		if spreadFirst {
			w.add(wrap)
		}
		w.provide("app.a", a)
		w.provide("app.b", b)
		if !spreadFirst {
			w.add(wrap)
		}

		s := w.session()
		r := w.single(w.resolve(s, nil, required(w.in.Apply(wrapper, a))))
		if r.Candidate.Origin != "app.wrap" || r.Deps[0].Result.Candidate.Origin != "app.a" {
			t.Fatalf("spreadFirst=%v: wrap = %+v", spreadFirst, r.Candidate)
		}
		expectKind(t, w.resolve(s, nil, required(w.in.Apply(wrapper, b))), FailNoCandidates)
		expectKind(t, w.resolve(s, nil, required(w.in.Apply(wrapper, service))), FailNoCandidates)
	}
}

func TestSpreadingReachesNestedScopes(t *testing.T) {
	w := newWorld(t)
	service := w.class("app.Service")
	c := w.class("app.C", service)
	wrapper := w.generic("app.Wrapper", types.Invariant)
	tp := w.typeParam("app.wrap.T", types.FlagSpread, service)
	w.add(&decl.Callable{
		FqName:     "app.wrap",
		Type:       w.in.Apply(wrapper, w.in.Apply(tp)),
		TypeParams: []types.ClassifierID{tp},
		Params:     []decl.Param{w.param("t", w.in.Apply(tp))},
	})
	s := w.session()
	local := s.ChildScope("BLOCK", s.FileScope(mainFile), []*decl.Callable{{Key: "local.c", FqName: "local.c", Type: c}}, nil)

	r := w.single(w.resolve(s, local, required(w.in.Apply(wrapper, c))))
	if r.Candidate.Owner != local {
		t.Fatalf("the spread product belongs to the scope of its trigger, got %s", r.Candidate.Owner)
	}
	expectKind(t, w.resolve(s, nil, required(w.in.Apply(wrapper, c))), FailNoCandidates)
}
