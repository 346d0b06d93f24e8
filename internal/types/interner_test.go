package types

import "testing"

// testWorld declares a small hierarchy used across the package tests:
// Base, Service : Base, Impl : Service, Box<out T>, Cell<T>, Qualifier (tag).
type testWorld struct {
	in      *Interner
	base    ClassifierID
	service ClassifierID
	impl    ClassifierID
	box     ClassifierID
	cell    ClassifierID
	qual    ClassifierID
	other   ClassifierID
}

func newTestWorld() *testWorld {
	in := NewInterner()
	w := &testWorld{in: in}
	w.base = in.DeclareClassifier(Classifier{Key: "app.Base", FqName: "app.Base"})
	w.service = in.DeclareClassifier(Classifier{Key: "app.Service", FqName: "app.Service",
		Supertypes: []TypeID{in.Apply(w.base)}})
	w.impl = in.DeclareClassifier(Classifier{Key: "app.Impl", FqName: "app.Impl",
		Supertypes: []TypeID{in.Apply(w.service)}})
	bt := in.NewTypeParameter("app.Box.T", "T", nil, 0)
	in.SetVariance(bt, Out)
	w.box = in.DeclareClassifier(Classifier{Key: "app.Box", FqName: "app.Box", TypeParams: []ClassifierID{bt}})
	ct := in.NewTypeParameter("app.Cell.T", "T", nil, 0)
	w.cell = in.DeclareClassifier(Classifier{Key: "app.Cell", FqName: "app.Cell", TypeParams: []ClassifierID{ct}})
	w.qual = in.DeclareClassifier(Classifier{Key: "app.Qualifier", FqName: "app.Qualifier", Flags: FlagTag})
	w.other = in.DeclareClassifier(Classifier{Key: "app.Other", FqName: "app.Other"})
	return w
}

func (w *testWorld) t(c ClassifierID, args ...TypeID) TypeID { return w.in.Apply(c, args...) }

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Any == NoClassifierID || b.List == NoClassifierID || b.TypeKey == NoClassifierID {
		t.Fatalf("builtins not initialized")
	}
	star := in.MustLookup(b.Star)
	if !star.Star || !star.Nullable || star.Classifier != b.Any {
		t.Fatalf("star projection must be a nullable Any marked star, got %+v", star)
	}
	if in.FunctionClassifier(2) != in.FunctionClassifier(2) {
		t.Fatalf("function classifiers must be reused")
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	w := newTestWorld()
	a := w.t(w.box, w.t(w.service))
	b := w.t(w.box, w.t(w.service))
	if a != b {
		t.Fatalf("structurally equal types should be deduplicated")
	}
	if w.in.WithNullable(a, true) == a {
		t.Fatalf("nullability must affect identity")
	}
	if w.in.WithFrameworkKey(a, "k1") == w.in.WithFrameworkKey(a, "k2") {
		t.Fatalf("framework keys must affect identity")
	}
}

func TestClassifierReuseByKey(t *testing.T) {
	in := NewInterner()
	a := in.DeclareClassifier(Classifier{Key: "x.A", FqName: "x.A"})
	b := in.DeclareClassifier(Classifier{Key: "x.A", FqName: "other name"})
	if a != b {
		t.Fatalf("classifiers with equal keys must be reused")
	}
}

func TestInternArityMismatchPanics(t *testing.T) {
	w := newTestWorld()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on argument count mismatch")
		}
	}()
	w.in.Apply(w.box)
}

func TestTagClassifierGetsWrappedSlot(t *testing.T) {
	w := newTestWorld()
	q := w.in.Classifier(w.qual)
	if len(q.TypeParams) != 1 {
		t.Fatalf("tag should carry one trailing parameter, got %d", len(q.TypeParams))
	}
	if v := w.in.Classifier(q.TypeParams[0]).Variance; v != Out {
		t.Fatalf("tag slot variance = %v, want out", v)
	}
}

func TestTypeString(t *testing.T) {
	w := newTestWorld()
	in := w.in
	fn := in.FunctionType([]TypeID{w.t(w.base)}, in.WithNullable(w.t(w.service), true))
	cases := []struct {
		id   TypeID
		want string
	}{
		{w.t(w.box, w.t(w.service)), "app.Box<app.Service>"},
		{in.WithNullable(w.t(w.impl), true), "app.Impl?"},
		{w.t(w.cell, in.Builtins().Star), "app.Cell<*>"},
		{w.t(w.qual, w.t(w.service)), "@app.Qualifier app.Service"},
		{fn, "(app.Base) -> app.Service?"},
	}
	for _, c := range cases {
		if got := in.TypeString(c.id); got != c.want {
			t.Errorf("TypeString = %q, want %q", got, c.want)
		}
	}
}
