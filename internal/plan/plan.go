// Package plan turns successful resolutions into serializable plans: a flat
// node list an emission backend can walk without the type system. Plans of
// one world travel together as a Set, encoded with msgpack on disk and JSON
// on the wire.
package plan

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"injekt/internal/inject"
)

// Schema is the plan format version. Bump it when Node or Set change shape.
const Schema uint16 = 1

// Node kinds beyond the injectable kinds.
const (
	KindDefault  = "default"
	KindCircular = "circular"
)

// Node is one resolved value. Nodes reached through several paths appear
// once and are shared by id.
type Node struct {
	ID           int    `msgpack:"id" json:"id"`
	Kind         string `msgpack:"kind" json:"kind"`
	Origin       string `msgpack:"origin,omitempty" json:"origin,omitempty"`
	Type         string `msgpack:"type,omitempty" json:"type,omitempty"`
	Scope        string `msgpack:"scope,omitempty" json:"scope,omitempty"`
	FrameworkKey string `msgpack:"framework_key,omitempty" json:"framework_key,omitempty"`
	// Ref is the node a circular reference points back to.
	Ref  int    `msgpack:"ref,omitempty" json:"ref,omitempty"`
	Deps []Edge `msgpack:"deps,omitempty" json:"deps,omitempty"`
}

// Edge binds a parameter to the node that provides it.
type Edge struct {
	Param string `msgpack:"param" json:"param"`
	Node  int    `msgpack:"node" json:"node"`
}

// Plan is the resolution of one call site. Node ids start at 1.
type Plan struct {
	CallSite string `msgpack:"callsite" json:"callsite"`
	Scope    string `msgpack:"scope" json:"scope"`
	Roots    []Edge `msgpack:"roots" json:"roots"`
	Nodes    []Node `msgpack:"nodes" json:"nodes"`
}

// Node returns the node with id.
func (p *Plan) Node(id int) (*Node, bool) {
	if id < 1 || id > len(p.Nodes) {
		return nil, false
	}
	return &p.Nodes[id-1], true
}

// Set holds the plans of one world.
type Set struct {
	Schema uint16 `msgpack:"schema" json:"schema"`
	World  string `msgpack:"world" json:"world"`
	Module string `msgpack:"module" json:"module"`
	Plans  []Plan `msgpack:"plans" json:"plans"`
}

// Find returns the plan of callsite.
func (s *Set) Find(callsite string) (*Plan, bool) {
	for i := range s.Plans {
		if s.Plans[i].CallSite == callsite {
			return &s.Plans[i], true
		}
	}
	return nil, false
}

// ErrFailed is returned by FromResult for a failed resolution.
var ErrFailed = errors.New("plan: resolution failed")

type builder struct {
	s     *inject.Session
	plan  *Plan
	ids   map[*inject.Result]int
	open  map[string]int // candidate key -> node id, for frames in progress
	fixup []int          // circular nodes waiting for their ref
}

// FromResult flattens a successful resolution of callsite.
func FromResult(s *inject.Session, callsite string, res inject.InjectionResult) (*Plan, error) {
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s", ErrFailed, callsite)
	}
	b := &builder{
		s:    s,
		plan: &Plan{CallSite: callsite},
		ids:  make(map[*inject.Result]int),
		open: make(map[string]int),
	}
	if res.Scope != nil {
		b.plan.Scope = res.Scope.Name
	}
	for _, dep := range res.Results {
		b.plan.Roots = append(b.plan.Roots, Edge{Param: dep.Request.ParamName, Node: b.node(dep.Result)})
	}
	for _, id := range b.fixup {
		n := &b.plan.Nodes[id-1]
		if n.Ref == 0 {
			return nil, fmt.Errorf("plan %s: dangling circular reference to %s", callsite, n.Origin)
		}
	}
	return b.plan, nil
}

func (b *builder) alloc(n Node) int {
	id, err := safecast.Conv[int](len(b.plan.Nodes) + 1)
	if err != nil {
		panic(fmt.Errorf("plan node id overflow: %w", err))
	}
	n.ID = id
	b.plan.Nodes = append(b.plan.Nodes, n)
	return id
}

func (b *builder) node(r *inject.Result) int {
	if id, ok := b.ids[r]; ok {
		return id
	}
	var id int
	switch r.Kind {
	case inject.ResultDefault:
		id = b.alloc(Node{Kind: KindDefault})
	case inject.ResultCircular:
		n := b.describe(r.Candidate)
		n.Kind = KindCircular
		n.Ref = b.open[r.Candidate.Key()]
		id = b.alloc(n)
		b.fixup = append(b.fixup, id)
		// back-references depend on the frame they point to; never share them
		return id
	default:
		n := b.describe(r.Candidate)
		if r.Scope != nil {
			n.Scope = r.Scope.Name
		}
		id = b.alloc(n)
		key := r.Candidate.Key()
		prev, had := b.open[key]
		b.open[key] = id
		var deps []Edge
		for _, d := range r.Deps {
			deps = append(deps, Edge{Param: d.Request.ParamName, Node: b.node(d.Result)})
		}
		b.plan.Nodes[id-1].Deps = deps
		if had {
			b.open[key] = prev
		} else {
			delete(b.open, key)
		}
	}
	b.ids[r] = id
	return id
}

func (b *builder) describe(c *inject.Injectable) Node {
	in := b.s.Types
	return Node{
		Kind:         c.Kind.String(),
		Origin:       c.Origin,
		Type:         in.TypeString(c.Type),
		FrameworkKey: in.MustLookup(c.Type).FrameworkKey,
	}
}
