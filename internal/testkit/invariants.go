// Package testkit holds structural checks shared by tests of the packages
// that build worlds and plans.
package testkit

import (
	"errors"
	"fmt"

	"injekt/internal/decl"
	"injekt/internal/manifest"
	"injekt/internal/plan"
	"injekt/internal/source"
)

// CheckWorldSpans verifies the spans a world attaches to its declarations
// and call sites:
// 1) every span points into the world file and lies within its content
// 2) a non-empty call-site or callable span covers exactly its name
func CheckWorldSpans(w *manifest.World, fs *source.FileSet) error {
	if w == nil || fs == nil {
		return fmt.Errorf("nil world or file set")
	}
	sf := fs.Get(w.File)
	if sf == nil {
		return fmt.Errorf("world file %d not in file set", w.File)
	}
	check := func(what, name string, sp source.Span) error {
		if sp.File != sf.ID {
			return fmt.Errorf("%s %s: span file mismatch: got=%d want=%d", what, name, sp.File, sf.ID)
		}
		text, ok := sp.Text(sf.Content)
		if !ok {
			return fmt.Errorf("%s %s: span %v outside content of %d bytes", what, name, sp, len(sf.Content))
		}
		if !sp.Empty() && text != name {
			return fmt.Errorf("%s %s: span covers %q", what, name, text)
		}
		return nil
	}

	var errs []error
	for _, cs := range w.CallSites {
		errs = append(errs, check("call site", cs.Name, cs.Span))
	}
	callables := append(append([]*decl.Callable(nil), w.Index.ModuleCallables(w.Module)...), w.Index.ExternalCallables(w.Module)...)
	for _, c := range callables {
		errs = append(errs, check("callable", c.FqName, c.Span))
	}
	return errors.Join(errs...)
}

// CheckPlan verifies the shape of a plan:
// 1) node ids are 1..len(Nodes) in order
// 2) every root and dependency edge targets an existing node
// 3) circular nodes are leaves pointing back at a non-circular node of the
// same origin; other nodes carry no back reference
// 4) following dependency edges never loops
func CheckPlan(p *plan.Plan) error {
	if p == nil {
		return fmt.Errorf("nil plan")
	}
	for i, n := range p.Nodes {
		if n.ID != i+1 {
			return fmt.Errorf("plan %s: node %d has id %d", p.CallSite, i+1, n.ID)
		}
	}
	target := func(from string, e plan.Edge) error {
		if _, ok := p.Node(e.Node); !ok {
			return fmt.Errorf("plan %s: %s edge %q targets missing node %d", p.CallSite, from, e.Param, e.Node)
		}
		return nil
	}
	for _, root := range p.Roots {
		if err := target("root", root); err != nil {
			return err
		}
	}
	for _, n := range p.Nodes {
		for _, d := range n.Deps {
			if err := target(fmt.Sprintf("#%d", n.ID), d); err != nil {
				return err
			}
		}
		switch n.Kind {
		case plan.KindCircular:
			ref, ok := p.Node(n.Ref)
			if !ok || ref.Kind == plan.KindCircular || ref.Origin != n.Origin {
				return fmt.Errorf("plan %s: circular node #%d has bad ref %d", p.CallSite, n.ID, n.Ref)
			}
			if len(n.Deps) != 0 {
				return fmt.Errorf("plan %s: circular node #%d has dependencies", p.CallSite, n.ID)
			}
		default:
			if n.Ref != 0 {
				return fmt.Errorf("plan %s: node #%d is not circular but has ref %d", p.CallSite, n.ID, n.Ref)
			}
		}
	}

	const (
		unvisited = iota
		visiting
		visited
	)
	state := make([]uint8, len(p.Nodes)+1)
	var visit func(id int) error
	visit = func(id int) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("plan %s: dependency loop through #%d", p.CallSite, id)
		case visited:
			return nil
		}
		state[id] = visiting
		n, _ := p.Node(id)
		for _, d := range n.Deps {
			if err := visit(d.Node); err != nil {
				return err
			}
		}
		state[id] = visited
		return nil
	}
	for id := 1; id <= len(p.Nodes); id++ {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// CheckPlanSet runs CheckPlan on every plan and rejects repeated call sites.
func CheckPlanSet(set *plan.Set) error {
	if set == nil {
		return fmt.Errorf("nil plan set")
	}
	seen := make(map[string]bool, len(set.Plans))
	var errs []error
	for i := range set.Plans {
		p := &set.Plans[i]
		if seen[p.CallSite] {
			errs = append(errs, fmt.Errorf("call site %s planned twice", p.CallSite))
		}
		seen[p.CallSite] = true
		errs = append(errs, CheckPlan(p))
	}
	return errors.Join(errs...)
}
