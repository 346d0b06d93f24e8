package types

import "testing"

func TestSubstituteEmptyIsIdentity(t *testing.T) {
	w := newTestWorld()
	for _, id := range []TypeID{
		w.t(w.box, w.t(w.service)),
		w.in.WithNullable(w.t(w.impl), true),
		w.t(w.qual, w.t(w.cell, w.t(w.base))),
	} {
		if got := w.in.Substitute(id, Subst{}); got != id {
			t.Fatalf("substitute({}) changed %s into %s", w.in.TypeString(id), w.in.TypeString(got))
		}
	}
}

func TestSubstitutePropagatesFlags(t *testing.T) {
	w := newTestWorld()
	in := w.in
	tp := in.NewTypeParameter("f.T", "T", nil, 0)
	tv := in.Apply(tp)
	nullableT := in.WithNullable(tv, true)
	provideT := in.WithProvide(tv, true)

	svc := w.t(w.service)
	if got := in.Substitute(nullableT, Subst{tp: svc}); got != in.WithNullable(svc, true) {
		t.Fatalf("T? with T=Service should be Service?, got %s", in.TypeString(got))
	}
	if got := in.MustLookup(in.Substitute(provideT, Subst{tp: svc})); !got.Provide {
		t.Fatalf("provide flag must survive substitution")
	}
	nested := w.t(w.box, tv)
	if got := in.Substitute(nested, Subst{tp: svc}); got != w.t(w.box, svc) {
		t.Fatalf("Box<T> with T=Service should be Box<Service>, got %s", in.TypeString(got))
	}
	outSvc := in.WithVariance(svc, Out)
	if got := in.MustLookup(in.Substitute(in.WithVariance(tv, In), Subst{tp: outSvc})); got.Variance != Out {
		t.Fatalf("non-invariant replacement variance must win, got %v", got.Variance)
	}
	if got := in.MustLookup(in.Substitute(in.WithVariance(tv, In), Subst{tp: svc})); got.Variance != In {
		t.Fatalf("invariant replacement keeps the original variance, got %v", got.Variance)
	}
}

func TestCompose(t *testing.T) {
	w := newTestWorld()
	in := w.in
	a := in.NewTypeParameter("f.A", "A", nil, 0)
	b := in.NewTypeParameter("f.B", "B", nil, 0)
	first := Subst{a: w.t(w.box, in.Apply(b))}
	second := Subst{b: w.t(w.service)}
	got := in.Compose(first, second)
	if got[a] != w.t(w.box, w.t(w.service)) || got[b] != w.t(w.service) {
		t.Fatalf("compose produced %v", got)
	}
}

func TestTagsRoundTrip(t *testing.T) {
	w := newTestWorld()
	in := w.in
	q2 := in.DeclareClassifier(Classifier{Key: "app.Named", FqName: "app.Named", Flags: FlagTag})
	inner := w.t(w.box, w.t(w.service))
	tagged := w.t(w.qual, w.t(q2, inner))

	if got := in.UnwrapTags(tagged); got != inner {
		t.Fatalf("unwrap = %s, want %s", in.TypeString(got), in.TypeString(inner))
	}
	tags := in.TagsOf(tagged)
	if len(tags) != 2 {
		t.Fatalf("expected two tag layers, got %d", len(tags))
	}
	if got := in.WrapTags(tags, in.UnwrapTags(tagged)); got != tagged {
		t.Fatalf("wrap(unwrapTags(T)) = %s, want %s", in.TypeString(got), in.TypeString(tagged))
	}
	other := w.t(w.impl)
	rewrapped := in.WrapTags(tags, other)
	if in.UnwrapTags(rewrapped) != other || len(in.TagsOf(rewrapped)) != 2 {
		t.Fatalf("rewrapping a different inner type lost layers: %s", in.TypeString(rewrapped))
	}
}

func TestTypeSizeAndCoveringSet(t *testing.T) {
	w := newTestWorld()
	in := w.in
	svc := w.t(w.service)
	one := w.t(w.box, svc)
	two := w.t(w.box, one)
	if in.TypeSize(svc) != 1 || in.TypeSize(one) != 2 || in.TypeSize(two) != 3 {
		t.Fatalf("sizes: %d %d %d", in.TypeSize(svc), in.TypeSize(one), in.TypeSize(two))
	}
	if !in.SameCoveringSet(one, two) {
		t.Fatalf("Box<Service> and Box<Box<Service>> cover the same classifiers")
	}
	if in.SameCoveringSet(one, w.t(w.cell, svc)) {
		t.Fatalf("Box and Cell must differ")
	}
	pair := in.FunctionType([]TypeID{one}, one)
	// the repeated Box<Service> subtree is expanded once
	if got := in.TypeSize(pair); got != 4 {
		t.Fatalf("size with repeated subtree = %d, want 4", got)
	}
}

func TestSubstituteRewritesEveryArgumentPosition(t *testing.T) {
	w := newTestWorld()
	in := w.in
	tp := in.NewTypeParameter("f.T", "T", nil, 0)
	tv := in.Apply(tp)
	svc := w.t(w.service)
	s := Subst{tp: svc}

	cases := []struct{ in, want TypeID }{
		{in.FunctionType([]TypeID{tv}, svc), in.FunctionType([]TypeID{svc}, svc)},
		{in.FunctionType([]TypeID{svc}, tv), in.FunctionType([]TypeID{svc}, svc)},
		{in.FunctionType([]TypeID{tv, tv}, tv), in.FunctionType([]TypeID{svc, svc}, svc)},
		{w.t(w.cell, w.t(w.box, tv)), w.t(w.cell, w.t(w.box, svc))},
	}
	for _, tc := range cases {
		if got := in.Substitute(tc.in, s); got != tc.want {
			t.Errorf("%s[T:=Service] = %s, want %s", in.TypeString(tc.in), in.TypeString(got), in.TypeString(tc.want))
		}
	}
}
