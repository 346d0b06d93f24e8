package diag

import "injekt/internal/source"

// identity is what makes two diagnostics the same report. Notes are not
// part of it: the first report wins.
type identity struct {
	code Code
	sev  Severity
	span source.Span
	msg  string
}

// DedupReporter forwards each distinct diagnostic once. One resolution
// session reaches the same failing candidate through several call sites,
// and each would otherwise report it again.
type DedupReporter struct {
	next       Reporter
	seen       map[identity]struct{}
	suppressed int
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[identity]struct{})}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	if r == nil {
		return
	}
	id := identity{code: code, sev: sev, span: primary, msg: msg}
	if _, dup := r.seen[id]; dup {
		r.suppressed++
		return
	}
	r.seen[id] = struct{}{}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes)
	}
}

// Suppressed counts the reports dropped as duplicates.
func (r *DedupReporter) Suppressed() int {
	if r == nil {
		return 0
	}
	return r.suppressed
}
