package observ

import (
	"strings"
	"testing"
	"time"

	"injekt/internal/diag"
)

func TestReportSumsPhases(t *testing.T) {
	tm := NewTimer()
	tm.Record("load", 2*time.Millisecond, "")
	tm.Record("resolve", 6*time.Millisecond, "4 call sites")
	tm.SetWall(5 * time.Millisecond)

	r := tm.Report()
	if len(r.Phases) != 2 || r.TotalMS != 8 || r.WallMS != 5 {
		t.Fatalf("report = %+v", r)
	}
	if r.Phases[0].Share != 0.25 || r.Phases[1].Share != 0.75 {
		t.Fatalf("shares = %v, %v", r.Phases[0].Share, r.Phases[1].Share)
	}
	s := tm.Summary()
	for _, want := range []string{"resolve", "// 4 call sites", "75.0%", "wall"} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary lacks %q:\n%s", want, s)
		}
	}
}

func TestTimingsDiagnostic(t *testing.T) {
	tm := NewTimer()
	tm.Record("load", time.Millisecond, "")
	d := tm.Diagnostic()
	if d.Code != diag.ObsTimings || d.Severity != diag.SevInfo || len(d.Notes) != 1 || d.Notes[0].Msg != "load 1.00 ms" {
		t.Fatalf("diagnostic = %+v", d)
	}
	if strings.Contains(d.Message, "wall") {
		t.Fatalf("wall is only shown when set: %q", d.Message)
	}
}

func TestEmptyTimer(t *testing.T) {
	tm := NewTimer()
	if r := tm.Report(); r.TotalMS != 0 || r.Phases != nil {
		t.Fatalf("empty report = %+v", r)
	}
	tm.Record("load", 0, "")
	if r := tm.Report(); r.Phases[0].Share != 0 {
		t.Fatalf("zero total must not divide: %+v", r)
	}
}
