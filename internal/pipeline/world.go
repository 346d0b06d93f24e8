package pipeline

import (
	"errors"
	"strconv"
	"time"

	"injekt/internal/diag"
	"injekt/internal/inject"
	"injekt/internal/manifest"
	"injekt/internal/plan"
	"injekt/internal/trace"
)

// SessionOptions configures the session of one world.
type SessionOptions struct {
	Tracer trace.Tracer
	// Parent nests the session span.
	Parent uint64
	// Keys mints frameworkKeys; nil selects random UUIDs.
	Keys inject.KeySource
	// Timings receives the resolve and plan durations when set.
	Timings *Timings
}

// ResolveWorld resolves every call site of w with one fresh session and
// reports failures to r. The returned set holds the plans of the call sites
// that resolved. A fatal cycle is reported and stops the world.
func ResolveWorld(w *manifest.World, opts SessionOptions, r diag.Reporter) *plan.Set {
	set := &plan.Set{Schema: plan.Schema, World: w.Path, Module: w.Module}
	span := trace.Begin(opts.Tracer, trace.ScopeSession, "session:"+w.Path, opts.Parent)
	s := inject.NewSession(w.Types, w.Index, inject.Options{Tracer: opts.Tracer, Keys: opts.Keys}).WithParentSpan(span.ID())

	resolved := 0
	var resolving, planning time.Duration
	for _, cs := range w.CallSites {
		sc, err := s.ScopeAt(cs.Position)
		if err != nil {
			diag.ReportError(r, diag.ManUnknownElement, cs.Span, err.Error()).Emit()
			continue
		}
		started := time.Now()
		res, err := s.ResolveRequests(sc, cs.Callee, inject.RequestsFor(cs.Callee))
		resolving += time.Since(started)
		if err != nil {
			s.ReportError(r, err, cs.Span)
			var cycle *inject.CircularDependencyError
			if errors.As(err, &cycle) {
				break
			}
			continue
		}
		if !res.OK() {
			s.Report(r, res, cs.Span)
			continue
		}
		started = time.Now()
		p, err := plan.FromResult(s, cs.Name, res)
		planning += time.Since(started)
		if err != nil {
			diag.ReportError(r, diag.UnknownCode, cs.Span, err.Error()).Emit()
			continue
		}
		set.Plans = append(set.Plans, *p)
		resolved++
	}
	opts.Timings.Set(StageResolve, resolving)
	opts.Timings.Set(StagePlan, planning)
	span.WithExtra("callsites", strconv.Itoa(len(w.CallSites))).WithExtra("resolved", strconv.Itoa(resolved)).End("")
	return set
}
