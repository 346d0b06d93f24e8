package main

import (
	"encoding/json"
	"fmt"
	"io"

	"injekt/internal/diag"
	"injekt/internal/diagfmt"
	"injekt/internal/observ"
	"injekt/internal/pipeline"
	"injekt/internal/source"
)

type fileReport struct {
	Path        string                    `json:"path"`
	Cached      bool                      `json:"cached"`
	Plans       int                       `json:"plans"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
}

type resolveReport struct {
	Files   []fileReport   `json:"files"`
	Timings *observ.Report `json:"timings,omitempty"`
}

func printPretty(out io.Writer, res pipeline.Result, opts runOptions) {
	for _, f := range res.Files {
		if f.Bag == nil || f.Bag.Len() == 0 {
			continue
		}
		f.Bag.Sort()
		diagfmt.Pretty(out, f.Bag, f.FileSet, diagfmt.PrettyOpts{
			Color:     opts.color,
			PathMode:  source.PathAuto,
			ShowNotes: true,
		})
	}
}

func printJSON(out io.Writer, res pipeline.Result, opts runOptions) error {
	report := resolveReport{Files: make([]fileReport, 0, len(res.Files))}
	for _, f := range res.Files {
		fr := fileReport{Path: f.Display, Cached: f.Cached}
		if f.Plans != nil {
			fr.Plans = len(f.Plans.Plans)
		}
		if f.Bag != nil {
			f.Bag.Sort()
			fr.Diagnostics = diagfmt.BuildDiagnosticsOutput(f.Bag, f.FileSet, diagfmt.JSONOpts{
				IncludePositions: true,
				PathMode:         source.PathAuto,
				IncludeNotes:     true,
			})
		}
		report.Files = append(report.Files, fr)
	}
	if opts.timings {
		r := stageTimer(res).Report()
		report.Timings = &r
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// stageTimer turns the summed stage timings of a run into a Timer.
func stageTimer(res pipeline.Result) *observ.Timer {
	timer := observ.NewTimer()
	for _, stage := range pipeline.Stages {
		if res.Timings.Has(stage) {
			timer.Record(string(stage), res.Timings.Duration(stage), "")
		}
	}
	timer.SetWall(res.Elapsed)
	return timer
}

// printTimingsDiagnostic prints the stage timings as an info diagnostic.
func printTimingsDiagnostic(out io.Writer, res pipeline.Result, opts runOptions) {
	bag := diag.NewBag(1)
	bag.Add(stageTimer(res).Diagnostic())
	diagfmt.Pretty(out, bag, source.NewFileSet(""), diagfmt.PrettyOpts{Color: opts.color})
}

// printSummaryLine reports what a resolve run did.
func printSummaryLine(out io.Writer, res pipeline.Result) {
	var plans, cached, errs int
	for _, f := range res.Files {
		if f.Plans != nil {
			plans += len(f.Plans.Plans)
		}
		if f.Cached {
			cached++
		}
		if f.Bag != nil {
			errs += len(f.Bag.Errors())
		}
	}
	fmt.Fprintf(out, "resolved %d call sites in %d files (%d cached), %d errors\n", plans, len(res.Files), cached, errs)
}
