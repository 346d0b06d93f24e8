package inject

import (
	"injekt/internal/decl"
)

// ResultKind tags the variants of Result.
type ResultKind uint8

const (
	// ResultValue: Candidate resolved with Deps in Scope.
	ResultValue ResultKind = iota + 1
	// ResultDefault: the parameter keeps its declared default.
	ResultDefault
	// ResultCircular: a legal back-reference to Candidate, which is still
	// being constructed further up the chain.
	ResultCircular

	FailNoCandidates
	FailAmbiguity
	FailDivergent
	FailReifiedMismatch
	FailDependency
)

var resultKindNames = map[ResultKind]string{
	ResultValue:         "value",
	ResultDefault:       "default",
	ResultCircular:      "circular",
	FailNoCandidates:    "no-candidates",
	FailAmbiguity:       "ambiguity",
	FailDivergent:       "divergent",
	FailReifiedMismatch: "reified-mismatch",
	FailDependency:      "dependency-failure",
}

func (k ResultKind) String() string {
	if s, ok := resultKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Result is the outcome of resolving a request or a candidate. Only the
// fields of its Kind are set.
type Result struct {
	Kind ResultKind

	// Value, Circular, Divergent, ReifiedMismatch, Dependency
	Candidate *Injectable
	// Value
	Scope *Scope
	Deps  []Dependency

	// NoCandidates, Ambiguity
	Request *Request
	// Ambiguity
	Candidates []*Result

	// Dependency
	DependencyRequest *Request
	Cause             *Result

	// ReifiedMismatch
	Parameter string
	Argument  string
}

// Dependency pairs a dependency request with its successful result.
type Dependency struct {
	Request *Request
	Result  *Result
}

// DefaultValue is the shared DefaultValue success.
var DefaultValue = &Result{Kind: ResultDefault}

func (r *Result) IsSuccess() bool {
	return r != nil && r.Kind <= ResultCircular
}

func (r *Result) IsFailure() bool {
	return r != nil && r.Kind >= FailNoCandidates
}

// failureOrdering ranks failures; lower is the more actionable one.
func (r *Result) failureOrdering() int {
	switch r.Kind {
	case FailAmbiguity:
		return 0
	case FailDependency, FailReifiedMismatch:
		return 1
	case FailDivergent:
		return 2
	default:
		return 3
	}
}

// forRequest rebinds a memoized failure to req: results are shared by every
// request of the same type in a scope, but NoCandidates and Ambiguity name
// the request that failed.
func (r *Result) forRequest(req *Request) *Result {
	if r.Request == nil || r.Request == req {
		return r
	}
	rebound := *r
	rebound.Request = req
	return &rebound
}

// Unwrap follows dependency failures to the innermost failing request.
func (r *Result) Unwrap(req *Request) (*Request, *Result) {
	for r != nil && r.Kind == FailDependency {
		req, r = r.DependencyRequest, r.Cause
	}
	return req, r
}

// Chain lists the candidates of a dependency failure from the outermost in.
func (r *Result) Chain() []*Injectable {
	var out []*Injectable
	for r != nil && r.Kind == FailDependency {
		out = append(out, r.Candidate)
		r = r.Cause
	}
	if r != nil && r.Candidate != nil {
		out = append(out, r.Candidate)
	}
	return out
}

// InjectionResult is the outcome of ResolveRequests: a success with one
// result per request, or the worst failure.
type InjectionResult struct {
	Scope  *Scope
	Callee *decl.Callable

	Results []Dependency

	FailureRequest *Request
	Failure        *Result
}

// OK reports whether every request was satisfied.
func (r InjectionResult) OK() bool { return r.Failure == nil }
