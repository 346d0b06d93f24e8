package plan

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	originColor = color.New(color.FgCyan, color.Bold)
	typeColor   = color.New(color.FgGreen)
	scopeColor  = color.New(color.FgHiBlack)
	refColor    = color.New(color.FgYellow)
)

// ExplainOpts controls Explain.
type ExplainOpts struct {
	Color bool
}

// Explain renders p as a tree, one line per edge:
//
//	param: origin -> Type  [scope]
//
// Shared nodes are expanded once and then shown as "(see #id)".
func Explain(w io.Writer, p *Plan, opts ExplainOpts) {
	e := explainer{w: w, p: p, opts: opts, shown: make(map[int]bool)}
	fmt.Fprintf(w, "%s  [%s]\n", p.CallSite, p.Scope)
	for i, root := range p.Roots {
		e.edge(root, "", i == len(p.Roots)-1)
	}
}

type explainer struct {
	w     io.Writer
	p     *Plan
	opts  ExplainOpts
	shown map[int]bool
}

func (e *explainer) paint(c *color.Color, s string) string {
	if !e.opts.Color {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

func (e *explainer) edge(edge Edge, prefix string, last bool) {
	branch, next := "├── ", "│   "
	if last {
		branch, next = "└── ", "    "
	}
	n, ok := e.p.Node(edge.Node)
	if !ok {
		fmt.Fprintf(e.w, "%s%s%s: <missing #%d>\n", prefix, branch, edge.Param, edge.Node)
		return
	}
	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteString(branch)
	sb.WriteString(edge.Param)
	sb.WriteString(": ")
	switch n.Kind {
	case KindDefault:
		sb.WriteString(e.paint(refColor, "default value"))
	case KindCircular:
		fmt.Fprintf(&sb, "%s -> %s %s", e.paint(originColor, n.Origin), e.paint(typeColor, n.Type), e.paint(refColor, fmt.Sprintf("(circular #%d)", n.Ref)))
	default:
		fmt.Fprintf(&sb, "%s -> %s", e.paint(originColor, n.Origin), e.paint(typeColor, n.Type))
		if n.Scope != "" {
			sb.WriteString("  " + e.paint(scopeColor, "["+n.Scope+"]"))
		}
		if e.shown[n.ID] && len(n.Deps) > 0 {
			sb.WriteString(" " + e.paint(refColor, fmt.Sprintf("(see #%d)", n.ID)))
			fmt.Fprintln(e.w, sb.String())
			return
		}
		fmt.Fprintf(&sb, " #%d", n.ID)
	}
	fmt.Fprintln(e.w, sb.String())
	if e.shown[n.ID] {
		return
	}
	e.shown[n.ID] = true
	for i, d := range n.Deps {
		e.edge(d, prefix+next, i == len(n.Deps)-1)
	}
}
