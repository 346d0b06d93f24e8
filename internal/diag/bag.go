package diag

import (
	"cmp"
	"math"
	"slices"

	"fortio.org/safecast"

	"injekt/internal/source"
)

// Bag collects the diagnostics of one world file up to a limit.
type Bag struct {
	items []Diagnostic
	max   uint16
}

// NewBag создаёт мешок с лимитом max; отрицательные значения дают 0,
// слишком большие обрезаются до MaxUint16.
func NewBag(max int) *Bag {
	limit := clampLimit(max)
	return &Bag{
		items: make([]Diagnostic, 0, min(int(limit), 32)),
		max:   limit,
	}
}

func clampLimit(n int) uint16 {
	if n < 0 {
		return 0
	}
	v, err := safecast.Conv[uint16](n)
	if err != nil {
		return math.MaxUint16
	}
	return v
}

// Add returns false once the limit is reached; the diagnostic is dropped then.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= int(b.max) {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() uint16 { return b.max }

func (b *Bag) Len() int { return len(b.items) }

// Items отдаёт внутренний срез: только для чтения.
func (b *Bag) Items() []Diagnostic { return b.items }

func (b *Bag) atLeast(sev Severity) bool {
	return slices.ContainsFunc(b.items, func(d Diagnostic) bool { return d.Severity >= sev })
}

func (b *Bag) HasErrors() bool   { return b.atLeast(SevError) }
func (b *Bag) HasWarnings() bool { return b.atLeast(SevWarning) }

// Errors returns a copy of the error diagnostics.
func (b *Bag) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range b.items {
		if d.Severity >= SevError {
			out = append(out, d)
		}
	}
	return out
}

// Merge appends other and raises the limit when the union would not fit.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.max = max(b.max, clampLimit(len(b.items)+len(other.items)))
	b.items = append(b.items, other.items...)
}

// compareDiagnostics orders by position, then the more serious first, then code.
func compareDiagnostics(a, b Diagnostic) int {
	if c := cmp.Compare(a.Primary.File, b.Primary.File); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Primary.Start, b.Primary.Start); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Primary.End, b.Primary.End); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Severity, a.Severity); c != 0 {
		return c
	}
	return cmp.Compare(a.Code.ID(), b.Code.ID())
}

// Sort is stable, so reports at the same place keep their emission order.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, compareDiagnostics)
}

// Dedup оставляет первую диагностику для каждой пары (код, основной span).
// Это грубее, чем DedupReporter: сообщение не учитывается.
func (b *Bag) Dedup() {
	type key struct {
		code Code
		span source.Span
	}
	seen := make(map[key]struct{}, len(b.items))
	b.items = slices.DeleteFunc(b.items, func(d Diagnostic) bool {
		k := key{code: d.Code, span: d.Primary}
		if _, dup := seen[k]; dup {
			return true
		}
		seen[k] = struct{}{}
		return false
	})
}

// Apply enforces a warning policy. Promotion re-sorts, since severity is
// part of the order.
func (b *Bag) Apply(p WarningPolicy) {
	switch p {
	case WarnDrop:
		b.items = slices.DeleteFunc(b.items, func(d Diagnostic) bool { return d.Severity < SevError })
	case WarnPromote:
		for i := range b.items {
			if b.items[i].Severity == SevWarning {
				b.items[i].Severity = SevError
			}
		}
		b.Sort()
	}
}
