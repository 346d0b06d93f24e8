package types

import "strings"

// TypeString renders id the way declarations write it: tags as @Tag prefixes,
// function types as (A) -> B, star projections as *.
func (in *Interner) TypeString(id TypeID) string {
	var sb strings.Builder
	in.render(&sb, id)
	return sb.String()
}

func (in *Interner) render(sb *strings.Builder, id TypeID) {
	t := in.MustLookup(id)
	if t.Star {
		sb.WriteByte('*')
		return
	}
	switch t.Variance {
	case In:
		sb.WriteString("in ")
	case Out:
		sb.WriteString("out ")
	}
	cl := in.mustClassifier(t.Classifier)
	switch {
	case cl.IsTag():
		sb.WriteByte('@')
		sb.WriteString(cl.FqName)
		if n := len(t.Args) - 1; n > 0 {
			in.renderArgs(sb, t.Args[:n])
		}
		sb.WriteByte(' ')
		in.render(sb, t.Args[len(t.Args)-1])
		if t.Nullable {
			sb.WriteByte('?')
		}
		return
	case cl.IsFunction():
		if t.Nullable {
			sb.WriteByte('(')
		}
		sb.WriteByte('(')
		for i, p := range t.Args[:len(t.Args)-1] {
			if i > 0 {
				sb.WriteString(", ")
			}
			in.render(sb, p)
		}
		sb.WriteString(") -> ")
		in.render(sb, t.Args[len(t.Args)-1])
		if t.Nullable {
			sb.WriteString(")?")
		}
		return
	}
	sb.WriteString(cl.FqName)
	if len(t.Args) > 0 {
		in.renderArgs(sb, t.Args)
	}
	if t.Nullable {
		sb.WriteByte('?')
	}
}

func (in *Interner) renderArgs(sb *strings.Builder, args []TypeID) {
	sb.WriteByte('<')
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		in.render(sb, a)
	}
	sb.WriteByte('>')
}
