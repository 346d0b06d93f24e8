// Package inject resolves dependency requests against a graph of lexical
// scopes. A Session owns every cache of one resolution pass: scopes, per-scope
// results and the active resolution chain. Sessions are not safe for
// concurrent use; run independent passes with independent sessions.
package inject

import (
	"fmt"

	"github.com/google/uuid"

	"injekt/internal/decl"
	"injekt/internal/trace"
	"injekt/internal/types"
)

// KeySource mints frameworkKey values for synthesized collection elements.
type KeySource interface {
	NewKey() string
}

// UUIDKeys mints random UUIDs.
type UUIDKeys struct{}

func (UUIDKeys) NewKey() string { return uuid.NewString() }

// SeqKeys mints "k1", "k2", ... for reproducible output.
type SeqKeys struct{ n int }

func (k *SeqKeys) NewKey() string {
	k.n++
	return fmt.Sprintf("k%d", k.n)
}

// Options configures a Session. Zero values select the defaults.
type Options struct {
	Tracer trace.Tracer
	Keys   KeySource
}

// Session is one resolution pass over a world.
type Session struct {
	Types  *types.Interner
	Index  decl.Index
	Tracer trace.Tracer
	Keys   KeySource

	scopes      map[scopeKey]*Scope
	nextScopeID int

	frames     []frame
	cycleFloor int
	parentSpan uint64
}

// NewSession creates a session over the given type system and index.
func NewSession(in *types.Interner, idx decl.Index, opts Options) *Session {
	s := &Session{
		Types:      in,
		Index:      idx,
		Tracer:     opts.Tracer,
		Keys:       opts.Keys,
		scopes:     make(map[scopeKey]*Scope),
		cycleFloor: noFloor,
	}
	if s.Tracer == nil {
		s.Tracer = trace.Nop
	}
	if s.Keys == nil {
		s.Keys = UUIDKeys{}
	}
	return s
}

// WithParentSpan nests the session's trace spans under span.
func (s *Session) WithParentSpan(span uint64) *Session {
	s.parentSpan = span
	return s
}

// RootScope creates a parentless scope holding callables. It is meant for
// hosts that assemble scopes themselves instead of going through lexical
// positions.
func (s *Session) RootScope(name string, callables []*decl.Callable, typeParams []types.ClassifierID) *Scope {
	return s.newScope(scopeSpec{name: name, callables: callables, typeParams: typeParams})
}

// ChildScope creates a scope nested in parent. Empty scopes flatten into parent.
func (s *Session) ChildScope(name string, parent *Scope, callables []*decl.Callable, typeParams []types.ClassifierID) *Scope {
	return s.newScope(scopeSpec{name: name, parent: parent, callables: callables, typeParams: typeParams})
}

func (s *Session) traceScope(sc *Scope) {
	if !s.Tracer.Enabled() {
		return
	}
	trace.Point(s.Tracer, trace.ScopeCandidate, "scope", fmt.Sprintf("%s nesting=%d candidates=%d", sc.Name, sc.Nesting, len(sc.entries)), s.parentSpan)
}
