package diag

import (
	"strings"
	"testing"

	"injekt/internal/source"
)

func TestCodeIDs(t *testing.T) {
	cases := []struct {
		code Code
		want string
	}{
		{InjNoCandidates, "INJ1001"},
		{InjCircular, "INJ1006"},
		{ManUnknownClassifier, "MAN2002"},
		{IOLoadFileError, "IO4001"},
		{ObsTimings, "OBS6001"},
		{UnknownCode, "E0000"},
	}
	for _, tc := range cases {
		if got := tc.code.ID(); got != tc.want {
			t.Errorf("%d.ID() = %q, want %q", tc.code, got, tc.want)
		}
	}
	if Code(1999).Title() != "Unknown error" {
		t.Fatalf("unknown codes fall back to the generic title")
	}
}

func TestBagLimitSortDedup(t *testing.T) {
	b := NewBag(3)
	r := BagReporter{Bag: b}
	sp := func(start uint32) source.Span { return source.Span{File: 1, Start: start, End: start + 1} }
	ReportWarning(r, ManUnknownKey, sp(10), "unused key").Emit()
	ReportError(r, InjNoCandidates, sp(2), "no candidate").WithNote(sp(3), "requested here").Emit()
	ReportError(r, InjNoCandidates, sp(2), "no candidate again").Emit()
	if b.Add(NewError(InjAmbiguity, sp(1), "over limit")) {
		t.Fatalf("bag must refuse diagnostics over its limit")
	}
	b.Sort()
	items := b.Items()
	if items[0].Primary.Start != 2 || items[2].Code != ManUnknownKey {
		t.Fatalf("unexpected order: %+v", items)
	}
	b.Dedup()
	if b.Len() != 2 || !b.HasErrors() || !b.HasWarnings() {
		t.Fatalf("dedup kept %d items", b.Len())
	}
	if len(b.Errors()) != 1 || len(b.Errors()[0].Notes) != 1 {
		t.Fatalf("errors = %+v", b.Errors())
	}
}

func TestBuilderEmitsOnce(t *testing.T) {
	b := NewBag(10)
	rb := ReportInfo(BagReporter{Bag: b}, ObsTimings, source.Span{}, "timings")
	rb.Emit()
	rb.Emit()
	if b.Len() != 1 {
		t.Fatalf("emitted %d times", b.Len())
	}
}

func TestDedupReporterAndMulti(t *testing.T) {
	left, right := NewBag(10), NewBag(10)
	r := NewDedupReporter(MultiReporter{BagReporter{Bag: left}, BagReporter{Bag: right}})
	sp := source.Span{File: 1, Start: 4, End: 9}
	r.Report(InjAmbiguity, SevError, sp, "ambiguous", nil)
	r.Report(InjAmbiguity, SevError, sp, "ambiguous", nil)
	r.Report(InjAmbiguity, SevError, sp, "ambiguous elsewhere", nil)
	if left.Len() != 2 || right.Len() != 2 {
		t.Fatalf("left=%d right=%d", left.Len(), right.Len())
	}
	merged := NewBag(1)
	merged.Merge(left)
	if merged.Len() != 2 || merged.Cap() < 2 {
		t.Fatalf("merge must grow the limit")
	}
}

func TestSeverityNames(t *testing.T) {
	for _, sev := range []Severity{SevInfo, SevWarning, SevError} {
		got, err := ParseSeverity(strings.ToLower(sev.String()))
		if err != nil || got != sev {
			t.Fatalf("ParseSeverity(%s) = %v, %v", sev, got, err)
		}
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Fatalf("unknown names must fail")
	}
	if Severity(9).String() != "UNKNOWN" {
		t.Fatalf("out of range severity = %q", Severity(9).String())
	}
}

func TestWarningPolicy(t *testing.T) {
	fill := func() *Bag {
		b := NewBag(10)
		b.Add(New(SevInfo, ObsTimings, source.Span{File: 1, Start: 1}, "timings"))
		b.Add(New(SevWarning, IOCacheError, source.Span{File: 1, Start: 5}, "cache"))
		b.Add(NewError(InjNoCandidates, source.Span{File: 1, Start: 5}, "missing"))
		return b
	}
	if _, err := NewWarningPolicy(true, true); err == nil {
		t.Fatalf("both switches at once must fail")
	}

	dropped := fill()
	dropped.Apply(WarnDrop)
	if dropped.Len() != 1 || dropped.Items()[0].Code != InjNoCandidates {
		t.Fatalf("drop left %+v", dropped.Items())
	}

	promoted := fill()
	promoted.Apply(WarnPromote)
	if len(promoted.Errors()) != 2 {
		t.Fatalf("promote left %d errors", len(promoted.Errors()))
	}
	// равные позиция и severity: порядок решает код
	if promoted.Items()[1].Code != InjNoCandidates {
		t.Fatalf("promoted order: %+v", promoted.Items())
	}

	kept := fill()
	kept.Apply(WarnKeep)
	if kept.Len() != 3 {
		t.Fatalf("keep changed the bag")
	}
}

func TestDedupReporterCountsSuppressed(t *testing.T) {
	b := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: b})
	sp := source.Span{File: 2, Start: 1, End: 3}
	for range 3 {
		r.Report(InjCircular, SevError, sp, "cycle", nil)
	}
	if b.Len() != 1 || r.Suppressed() != 2 {
		t.Fatalf("len=%d suppressed=%d", b.Len(), r.Suppressed())
	}
	var nilReporter *DedupReporter
	nilReporter.Report(InjCircular, SevError, sp, "cycle", nil)
	if nilReporter.Suppressed() != 0 {
		t.Fatalf("nil reporter counts nothing")
	}
}
