// Package observ summarizes where a run spent its time, as a table for
// the terminal, a JSON report or an info diagnostic.
package observ

import (
	"fmt"
	"strings"
	"time"

	"injekt/internal/diag"
	"injekt/internal/source"
)

type phase struct {
	name string
	dur  time.Duration
	note string
}

// Timer collects phase durations measured elsewhere. Phases are summed
// over every job of a run, so their total may exceed the wall time.
// Not safe for concurrent use.
type Timer struct {
	phases []phase
	wall   time.Duration
}

func NewTimer() *Timer { return &Timer{} }

// Record appends a phase; note is free text shown after it.
func (t *Timer) Record(name string, dur time.Duration, note string) {
	t.phases = append(t.phases, phase{name: name, dur: dur, note: note})
}

// SetWall sets the elapsed real time of the run.
func (t *Timer) SetWall(d time.Duration) { t.wall = d }

type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	// Share is the phase's fraction of TotalMS, 0..1.
	Share float64 `json:"share"`
	Note  string  `json:"note,omitempty"`
}

type Report struct {
	TotalMS float64       `json:"total_ms"`
	WallMS  float64       `json:"wall_ms,omitempty"`
	Phases  []PhaseReport `json:"phases"`
}

// Report пустой таймер даёт нулевой Report с Phases == nil.
func (t *Timer) Report() Report {
	r := Report{WallMS: millis(t.wall)}
	if len(t.phases) == 0 {
		return r
	}
	var total time.Duration
	for _, p := range t.phases {
		total += p.dur
	}
	r.TotalMS = millis(total)
	r.Phases = make([]PhaseReport, len(t.phases))
	for i, p := range t.phases {
		r.Phases[i] = PhaseReport{Name: p.name, DurationMS: millis(p.dur), Note: p.note}
		if total > 0 {
			r.Phases[i].Share = float64(p.dur) / float64(total)
		}
	}
	return r
}

// Summary renders the report as an aligned table.
func (t *Timer) Summary() string {
	r := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range r.Phases {
		fmt.Fprintf(&sb, "  %-12s %9.2f ms %5.1f%%", p.Name, p.DurationMS, 100*p.Share)
		if p.Note != "" {
			sb.WriteString("  // " + p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-12s %9.2f ms\n", "total", r.TotalMS)
	if r.WallMS > 0 {
		fmt.Fprintf(&sb, "  %-12s %9.2f ms\n", "wall", r.WallMS)
	}
	return sb.String()
}

// Diagnostic is the report as an ObsTimings info with one note per phase.
func (t *Timer) Diagnostic() diag.Diagnostic {
	r := t.Report()
	msg := fmt.Sprintf("timings: total %.2f ms", r.TotalMS)
	if r.WallMS > 0 {
		msg += fmt.Sprintf(", wall %.2f ms", r.WallMS)
	}
	d := diag.New(diag.SevInfo, diag.ObsTimings, source.NoSpan, msg)
	for _, p := range r.Phases {
		note := fmt.Sprintf("%s %.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			note += " (" + p.Note + ")"
		}
		d = d.WithNote(source.NoSpan, note)
	}
	return d
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
