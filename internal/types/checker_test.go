package types

import "testing"

func TestSubtypeHierarchy(t *testing.T) {
	w := newTestWorld()
	in := w.in
	b := in.Builtins()
	impl, svc, base := w.t(w.impl), w.t(w.service), w.t(w.base)
	nullSvc := in.WithNullable(svc, true)

	cases := []struct {
		name       string
		sub, super TypeID
		want       bool
	}{
		{"reflexive", svc, svc, true},
		{"transitive", impl, base, true},
		{"not reversed", base, impl, false},
		{"to Any", impl, b.AnyType, true},
		{"nullable to Any", nullSvc, b.AnyType, false},
		{"nullable to Any?", nullSvc, b.NullableAny, true},
		{"non-null to nullable", svc, nullSvc, true},
		{"nullable to non-null", nullSvc, svc, false},
		{"Nothing bottom", b.NothingType, impl, true},
		{"Nothing? needs nullable", b.NullableNothing, impl, false},
		{"covariant arg", w.t(w.box, impl), w.t(w.box, base), true},
		{"covariant reversed", w.t(w.box, base), w.t(w.box, impl), false},
		{"invariant arg", w.t(w.cell, impl), w.t(w.cell, base), false},
		{"invariant equal", w.t(w.cell, impl), w.t(w.cell, impl), true},
		{"star super", w.t(w.cell, impl), w.t(w.cell, b.Star), true},
		{"star sub", w.t(w.cell, b.Star), w.t(w.cell, impl), false},
		{"list to collection", in.Apply(b.List, impl), in.Apply(b.Collection, base), true},
		{"unrelated", w.t(w.other), svc, false},
	}
	for _, c := range cases {
		if got := in.IsSubtypeOf(c.sub, c.super); got != c.want {
			t.Errorf("%s: %s <: %s = %v, want %v", c.name, in.TypeString(c.sub), in.TypeString(c.super), got, c.want)
		}
	}
}

func TestFunctionTypeVariance(t *testing.T) {
	w := newTestWorld()
	in := w.in
	impl, base := w.t(w.impl), w.t(w.base)
	narrow := in.FunctionType([]TypeID{base}, impl)
	wide := in.FunctionType([]TypeID{impl}, base)
	if !in.IsSubtypeOf(narrow, wide) {
		t.Fatalf("(Base) -> Impl should be a subtype of (Impl) -> Base")
	}
	if in.IsSubtypeOf(wide, narrow) {
		t.Fatalf("(Impl) -> Base must not be a subtype of (Base) -> Impl")
	}
}

func TestTypeParameterBounds(t *testing.T) {
	w := newTestWorld()
	in := w.in
	bounded := in.Apply(in.NewTypeParameter("f.S", "S", []TypeID{w.t(w.service)}, 0))
	free := in.Apply(in.NewTypeParameter("f.U", "U", nil, 0))
	if !in.IsSubtypeOf(bounded, w.t(w.base)) {
		t.Fatalf("S : Service should be a subtype of Base")
	}
	if !in.IsNullableType(free) || in.IsNullableType(bounded) {
		t.Fatalf("nullability of type parameters follows their bounds")
	}
	if in.IsSubtypeOf(free, in.Builtins().AnyType) {
		t.Fatalf("an unbounded type parameter may be null")
	}
}

func TestSelfReferentialSupertypes(t *testing.T) {
	in := NewInterner()
	ct := in.NewTypeParameter("x.Comparable.T", "T", nil, 0)
	in.SetVariance(ct, In)
	comparable := in.DeclareClassifier(Classifier{Key: "x.Comparable", FqName: "x.Comparable", TypeParams: []ClassifierID{ct}})
	name := in.DeclareClassifier(Classifier{Key: "x.Name", FqName: "x.Name"})
	nameT := in.Apply(name)
	in.SetSupertypes(name, []TypeID{in.Apply(comparable, nameT)})

	if !in.IsSubtypeOf(nameT, in.Apply(comparable, nameT)) {
		t.Fatalf("Name should be Comparable<Name>")
	}
	if got := len(in.AllTypes(nameT)); got != 3 {
		t.Fatalf("AllTypes(Name) = %d entries, want 3 (Name, Comparable<Name>, Any)", got)
	}
}

func TestCommonSupertype(t *testing.T) {
	w := newTestWorld()
	in := w.in
	impl, svc, base := w.t(w.impl), w.t(w.service), w.t(w.base)
	sibling := in.DeclareClassifier(Classifier{Key: "app.Sibling", FqName: "app.Sibling",
		Supertypes: []TypeID{base}})

	if got := in.CommonSupertype([]TypeID{impl, svc}); got != svc {
		t.Fatalf("common(Impl, Service) = %s", in.TypeString(got))
	}
	if got := in.CommonSupertype([]TypeID{impl, in.Apply(sibling)}); got != base {
		t.Fatalf("common(Impl, Sibling) = %s", in.TypeString(got))
	}
	if got := in.CommonSupertype([]TypeID{impl, in.WithNullable(svc, true)}); got != in.WithNullable(svc, true) {
		t.Fatalf("nullability must be kept, got %s", in.TypeString(got))
	}
	if got := in.CommonSupertype([]TypeID{w.t(w.box, impl), w.t(w.box, in.Apply(sibling))}); got != w.t(w.box, base) {
		t.Fatalf("common(Box<Impl>, Box<Sibling>) = %s", in.TypeString(got))
	}
	if got := in.CommonSupertype([]TypeID{w.t(w.cell, impl), w.t(w.cell, base)}); got != w.t(w.cell, in.Builtins().Star) {
		t.Fatalf("invariant arguments collapse to a star, got %s", in.TypeString(got))
	}
	if got := in.CommonSupertype([]TypeID{in.Builtins().NothingType, impl}); got != impl {
		t.Fatalf("Nothing is ignored, got %s", in.TypeString(got))
	}
}
