package inject

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"injekt/internal/decl"
	"injekt/internal/trace"
	"injekt/internal/types"
)

// frame is one entry of the active resolution chain.
type frame struct {
	request   *Request
	candidate *Injectable
}

// noFloor means no open back-reference.
const noFloor = int(^uint(0) >> 1)

// CircularDependencyError reports a cycle with at least one link that is
// required, non-null and eager.
type CircularDependencyError struct {
	Callee string
	Chain  []ChainLink
}

// ChainLink is one hop of a cycle: the request and the candidate chosen for it.
type ChainLink struct {
	Request   *Request
	Candidate *Injectable
}

func (e *CircularDependencyError) Error() string {
	parts := make([]string, len(e.Chain))
	for i, l := range e.Chain {
		parts[i] = fmt.Sprintf("%s (%s)", l.Candidate.Origin, l.Request)
	}
	return fmt.Sprintf("circular dependency while resolving %s: %s", e.Callee, strings.Join(parts, " -> "))
}

// ResolveRequests resolves every request in scope on behalf of callee. The
// error is non-nil only for an illegal cycle; every other failure is part of
// the InjectionResult.
func (s *Session) ResolveRequests(scope *Scope, callee *decl.Callable, requests []*Request) (InjectionResult, error) {
	name := "<root>"
	if callee != nil {
		name = callee.FqName
	}
	span := trace.Begin(s.Tracer, trace.ScopeRequest, "resolve "+name, s.parentSpan)
	prevParent := s.parentSpan
	s.parentSpan = span.ID()
	defer func() { s.parentSpan = prevParent }()

	out := InjectionResult{Scope: scope, Callee: callee}
	for _, req := range requests {
		r, err := s.resolveRequest(scope, req)
		if err != nil {
			span.WithExtra("callee", name).WithExtra("result", "circular").End("")
			return out, err
		}
		if r.IsSuccess() {
			out.Results = append(out.Results, Dependency{Request: req, Result: r})
			continue
		}
		if s.defaults(req, r) {
			out.Results = append(out.Results, Dependency{Request: req, Result: DefaultValue})
			continue
		}
		if s.compareResult(r, out.Failure) < 0 {
			out.FailureRequest, out.Failure = req, r
		}
	}
	status := "success"
	if !out.OK() {
		status = out.Failure.Kind.String()
	}
	span.WithExtra("callee", name).WithExtra("result", status).End("")
	return out, nil
}

// defaults reports whether a failed optional request falls back to its
// declared default.
func (s *Session) defaults(req *Request, r *Result) bool {
	if req.Required {
		return false
	}
	if req.Strategy == decl.DefaultOnAllErrors {
		return true
	}
	_, cause := r.Unwrap(req)
	return cause.Kind != FailAmbiguity
}

func (s *Session) resolveRequest(sc *Scope, req *Request) (*Result, error) {
	if r, ok := sc.resultsByType[req.Type]; ok {
		return r.forRequest(req), nil
	}
	depth := len(s.frames)
	r, err := s.resolveDeclared(sc, req)
	if err != nil {
		return nil, err
	}
	if r == nil {
		if c := s.frameworkCandidate(sc, req); c != nil {
			if r, err = s.resolveCandidate(sc, req, c); err != nil {
				return nil, err
			}
		}
	}
	if r == nil {
		r = &Result{Kind: FailNoCandidates, Request: req}
	}
	if s.cycleFloor >= depth {
		sc.resultsByType[req.Type] = r
	}
	return r, nil
}

// resolveDeclared tries the declared candidates; default providers are only
// consulted when no other declaration applies.
func (s *Session) resolveDeclared(sc *Scope, req *Request) (*Result, error) {
	all := sc.declaredCandidates(req, sc)
	if len(all) == 0 {
		return nil, nil
	}
	var primary, fallback []*Injectable
	for _, c := range all {
		if c.Callable != nil && c.Callable.Default {
			fallback = append(fallback, c)
		} else {
			primary = append(primary, c)
		}
	}
	if len(primary) == 0 {
		primary = fallback
	}
	return s.resolveCandidates(sc, req, primary)
}

func (s *Session) resolveCandidates(sc *Scope, req *Request, candidates []*Injectable) (*Result, error) {
	if len(candidates) == 1 {
		return s.resolveCandidate(sc, req, candidates[0])
	}
	sorted := append([]*Injectable(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return s.compareCandidate(sorted[i], sorted[j]) < 0
	})

	var successes []*Result
	var failure *Result
	for _, c := range sorted {
		if len(successes) > 0 && successes[0].Candidate != nil &&
			s.compareCandidate(successes[0].Candidate, c) < 0 {
			break
		}
		r, err := s.resolveCandidate(sc, req, c)
		if err != nil {
			return nil, err
		}
		if r.IsSuccess() {
			var first *Result
			if len(successes) > 0 {
				first = successes[0]
			}
			switch s.compareResult(r, first) {
			case -1:
				successes = append(successes[:0], r)
			case 0:
				successes = append(successes, r)
			}
			continue
		}
		if s.compareResult(r, failure) < 0 {
			failure = r
		}
	}
	switch {
	case len(successes) == 1:
		return successes[0], nil
	case len(successes) > 1:
		return &Result{Kind: FailAmbiguity, Request: req, Candidates: successes}, nil
	}
	return failure, nil
}

func (s *Session) resolveCandidate(sc *Scope, req *Request, c *Injectable) (*Result, error) {
	if r, ok := sc.resultsByCandidate[c.key]; ok {
		return r, nil
	}
	span := trace.Begin(s.Tracer, trace.ScopeCandidate, c.String(), s.parentSpan)
	r, err := s.computeForCandidate(sc, req, c)
	if err != nil {
		span.End("error")
		return nil, err
	}
	span.WithExtra("type", s.Types.TypeString(c.Type)).End(r.Kind.String())
	return r, nil
}

func (s *Session) computeForCandidate(sc *Scope, req *Request, c *Injectable) (*Result, error) {
	if r := s.reifiedMismatch(c); r != nil {
		sc.resultsByCandidate[c.key] = r
		return r, nil
	}
	if r, err := s.checkCycle(req, c); r != nil || err != nil {
		return r, err
	}
	if r := s.checkDivergence(c); r != nil {
		sc.resultsByCandidate[c.key] = r
		return r, nil
	}
	if len(c.Dependencies) == 0 {
		r := &Result{Kind: ResultValue, Candidate: c, Scope: sc}
		sc.resultsByCandidate[c.key] = r
		return r, nil
	}

	depth := len(s.frames)
	s.frames = append(s.frames, frame{request: req, candidate: c})
	r, err := s.resolveDependencies(sc, c)
	s.frames = s.frames[:depth]
	if s.cycleFloor >= depth {
		s.cycleFloor = noFloor
	}
	if err != nil {
		return nil, err
	}
	if s.cycleFloor >= depth {
		sc.resultsByCandidate[c.key] = r
	}
	return r, nil
}

func (s *Session) resolveDependencies(sc *Scope, c *Injectable) (*Result, error) {
	depScope := sc
	if c.DependencyScope != nil {
		depScope = c.DependencyScope
	}
	deps := make([]Dependency, 0, len(c.Dependencies))
	for i, dep := range c.Dependencies {
		var r *Result
		var err error
		if i < len(c.bound) && c.bound[i] != nil {
			r, err = s.resolveCandidate(depScope, dep, c.bound[i])
		} else {
			r, err = s.resolveRequest(depScope, dep)
		}
		if err != nil {
			return nil, err
		}
		if r.IsSuccess() {
			deps = append(deps, Dependency{Request: dep, Result: r})
			continue
		}
		if c.Kind == KindLambda && dep.Required && r.Kind == FailNoCandidates {
			return r, nil
		}
		if s.defaults(dep, r) {
			deps = append(deps, Dependency{Request: dep, Result: DefaultValue})
			continue
		}
		return &Result{Kind: FailDependency, Candidate: c, DependencyRequest: dep, Cause: r}, nil
	}
	return &Result{Kind: ResultValue, Candidate: c, Scope: sc, Deps: deps}, nil
}

// reifiedMismatch fails a candidate that binds a reified type parameter to a
// type parameter that is not reified itself.
func (s *Session) reifiedMismatch(c *Injectable) *Result {
	if c.Kind != KindCallable || len(c.TypeArgs) == 0 {
		return nil
	}
	in := s.Types
	params := make([]types.ClassifierID, 0, len(c.TypeArgs))
	for p := range c.TypeArgs {
		params = append(params, p)
	}
	sort.Slice(params, func(i, j int) bool { return params[i] < params[j] })
	for _, p := range params {
		if !in.Classifier(p).IsReified() {
			continue
		}
		arg := in.ClassifierOf(c.TypeArgs[p])
		if arg.IsTypeParameter() && !arg.IsReified() {
			return &Result{Kind: FailReifiedMismatch, Candidate: c, Parameter: in.Classifier(p).FqName, Argument: arg.FqName}
		}
	}
	return nil
}

// checkCycle detects a candidate that is already being constructed further
// up the chain. The cycle is legal when any of its links is lazy or
// function-typed, or else when every link is optional or nullable; it then
// resolves to a back-reference. Legality is a property of the whole cycle,
// so it does not depend on the end the cycle was entered from.
// cycleBroken reports whether some link of a cycle lets it be constructed.
func (s *Session) cycleBroken(links []ChainLink) bool {
	deferred := slices.ContainsFunc(links, func(l ChainLink) bool {
		return l.Request.Lazy || s.Types.IsFunctionType(l.Request.Type)
	})
	if deferred {
		return true
	}
	for _, l := range links {
		if l.Request.Required && !s.Types.IsNullableType(l.Request.Type) {
			return false
		}
	}
	return true
}

func (s *Session) checkCycle(req *Request, c *Injectable) (*Result, error) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].candidate.key != c.key {
			continue
		}
		links := make([]ChainLink, 0, len(s.frames)-i)
		for _, f := range s.frames[i+1:] {
			links = append(links, ChainLink{Request: f.request, Candidate: f.candidate})
		}
		links = append(links, ChainLink{Request: req, Candidate: c})

		legal := s.cycleBroken(links)
		trace.Point(s.Tracer, trace.ScopeCandidate, "cycle", c.Origin, s.parentSpan)
		if !legal {
			callee := ""
			if len(s.frames) > 0 {
				callee = s.frames[0].request.Owner
			}
			full := make([]ChainLink, 0, len(s.frames)+1)
			for _, f := range s.frames {
				full = append(full, ChainLink{Request: f.request, Candidate: f.candidate})
			}
			full = append(full, ChainLink{Request: req, Candidate: c})
			return nil, &CircularDependencyError{Callee: callee, Chain: full}
		}
		s.cycleFloor = min(s.cycleFloor, i)
		return &Result{Kind: ResultCircular, Candidate: s.frames[i].candidate}, nil
	}
	return nil, nil
}

// checkDivergence bounds self-expanding generic candidates: an earlier frame
// of the same callable over the same classifiers with a type that is not
// larger means the expansion would never end.
func (s *Session) checkDivergence(c *Injectable) *Result {
	in := s.Types
	size := -1
	for i := len(s.frames) - 1; i >= 0; i-- {
		prev := s.frames[i].candidate
		if !s.sameCallable(prev, c) {
			continue
		}
		if !in.SameCoveringSet(prev.Type, c.Type) {
			continue
		}
		if size < 0 {
			size = in.TypeSize(c.Type)
		}
		if prev.Type == c.Type || in.TypeSize(prev.Type) < size {
			trace.Point(s.Tracer, trace.ScopeCandidate, "divergent", c.Origin, s.parentSpan)
			return &Result{Kind: FailDivergent, Candidate: c}
		}
	}
	return nil
}

func (s *Session) sameCallable(a, b *Injectable) bool {
	if a.Kind == KindLambda && b.Kind == KindLambda {
		return a.Dependencies[0].Type == b.Dependencies[0].Type
	}
	if a.Kind != b.Kind || a.Kind == KindCollection {
		return false
	}
	return a.Origin == b.Origin
}
