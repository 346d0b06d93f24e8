package types

// IsTagged reports whether the outermost classifier of id is a tag.
func (in *Interner) IsTagged(id TypeID) bool {
	return in.ClassifierOf(id).IsTag()
}

// UnwrapTags strips every tag layer and returns the innermost type.
func (in *Interner) UnwrapTags(id TypeID) TypeID {
	for in.IsTagged(id) {
		t := in.MustLookup(id)
		id = t.Args[len(t.Args)-1]
	}
	return id
}

// TagsOf returns the tag layers of id from the outermost inwards. Each entry
// is the full tag type including the type it wrapped.
func (in *Interner) TagsOf(id TypeID) []TypeID {
	var out []TypeID
	for in.IsTagged(id) {
		out = append(out, id)
		t := in.MustLookup(id)
		id = t.Args[len(t.Args)-1]
	}
	return out
}

// Wrap places inner into the trailing slot of tag. The tag's own nullability
// and flags are kept.
func (in *Interner) Wrap(tag, inner TypeID) TypeID {
	t := in.MustLookup(tag)
	if !in.mustClassifier(t.Classifier).IsTag() {
		panic("types: wrap with a non-tag type")
	}
	args := append([]TypeID(nil), t.Args...)
	args[len(args)-1] = inner
	t.Args = args
	return in.Intern(t)
}

// WrapTags wraps inner with tags, tags[0] ending up outermost. It is the
// inverse of TagsOf and UnwrapTags: WrapTags(TagsOf(x), UnwrapTags(x)) == x.
func (in *Interner) WrapTags(tags []TypeID, inner TypeID) TypeID {
	out := inner
	for i := len(tags) - 1; i >= 0; i-- {
		out = in.Wrap(tags[i], out)
	}
	return out
}
