package inject

import (
	"errors"
	"fmt"

	"injekt/internal/diag"
	"injekt/internal/source"
)

// Report turns a failed InjectionResult into one diagnostic at the call site.
// A successful result reports nothing.
func (s *Session) Report(r diag.Reporter, res InjectionResult, at source.Span) {
	if res.OK() {
		return
	}
	req, failure := res.FailureRequest, res.Failure
	if failure.Kind != FailDependency {
		b := diag.ReportError(r, codeFor(failure), at, s.describe(req, failure))
		s.causeNotes(b, failure)
		b.Emit()
		return
	}
	innerReq, cause := failure.Unwrap(req)
	b := diag.ReportError(r, diag.InjDependencyFailure, at,
		fmt.Sprintf("%s (required by %s)", s.describe(innerReq, cause), failure.Candidate.Origin))
	step, link := failure, req
	for step != nil && step.Kind == FailDependency {
		b.WithNote(s.spanOf(step.Candidate), fmt.Sprintf("%s for %s requires %s",
			step.Candidate.Origin, link, s.Types.TypeString(step.DependencyRequest.Type)))
		link, step = step.DependencyRequest, step.Cause
	}
	s.causeNotes(b, cause)
	b.Emit()
}

// ReportError reports a resolution error. Only CircularDependencyError is
// produced by the resolver; other errors are reported verbatim.
func (s *Session) ReportError(r diag.Reporter, err error, at source.Span) {
	var cycle *CircularDependencyError
	if !errors.As(err, &cycle) {
		diag.ReportError(r, diag.UnknownCode, at, err.Error()).Emit()
		return
	}
	b := diag.ReportError(r, diag.InjCircular, at, fmt.Sprintf("circular dependency while resolving %s", cycle.Callee))
	for _, l := range cycle.Chain {
		b.WithNote(s.spanOf(l.Candidate), fmt.Sprintf("%s provides %s for %s",
			l.Candidate.Origin, s.Types.TypeString(l.Candidate.Type), l.Request))
	}
	b.Emit()
}

func codeFor(r *Result) diag.Code {
	switch r.Kind {
	case FailAmbiguity:
		return diag.InjAmbiguity
	case FailDivergent:
		return diag.InjDivergent
	case FailReifiedMismatch:
		return diag.InjReifiedMismatch
	case FailDependency:
		return diag.InjDependencyFailure
	default:
		return diag.InjNoCandidates
	}
}

func (s *Session) describe(req *Request, r *Result) string {
	t := s.Types.TypeString(req.Type)
	switch r.Kind {
	case FailAmbiguity:
		return fmt.Sprintf("ambiguous injectables of type %s for parameter %s", t, req)
	case FailDivergent:
		return fmt.Sprintf("divergent injectable %s of type %s for parameter %s", r.Candidate.Origin, s.Types.TypeString(r.Candidate.Type), req)
	case FailReifiedMismatch:
		return fmt.Sprintf("%s binds reified type parameter %s to non-reified %s", r.Candidate.Origin, r.Parameter, r.Argument)
	default:
		return fmt.Sprintf("no injectable found of type %s for parameter %s", t, req)
	}
}

func (s *Session) causeNotes(b *diag.ReportBuilder, r *Result) {
	if r.Kind != FailAmbiguity {
		return
	}
	for _, c := range r.Candidates {
		b.WithNote(s.spanOf(c.Candidate), fmt.Sprintf("candidate %s in %s", c.Candidate.Origin, c.Candidate.Owner.Name))
	}
}

func (s *Session) spanOf(c *Injectable) source.Span {
	if c != nil && c.Callable != nil && c.Callable.Span != (source.Span{}) {
		return c.Callable.Span
	}
	return source.NoSpan
}
