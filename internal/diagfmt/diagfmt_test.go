package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"injekt/internal/diag"
	"injekt/internal/source"
)

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet("/work")
	id := fs.AddVirtual("w.toml", []byte("module = \"app\"\ntype = \"app.Servce\"\n"))
	bag := diag.NewBag(10)
	d := diag.NewError(diag.ManUnknownClassifier, source.Span{File: id, Start: 23, End: 33}, "unknown classifier app.Servce").
		WithNote(source.NoSpan, "declared classifiers: app.Service")
	bag.Add(d)
	return bag, fs
}

func TestPrettyExcerpt(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "w.toml:2:9: ERROR MAN2002: unknown classifier app.Servce" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != `   2 | type = "app.Servce"` {
		t.Errorf("excerpt = %q", lines[1])
	}
	if want := strings.Repeat(" ", 15) + "^" + strings.Repeat("~", 9); lines[2] != want {
		t.Errorf("caret = %q, want %q", lines[2], want)
	}
	if lines[3] != "  note: declared classifiers: app.Service" {
		t.Errorf("note = %q", lines[3])
	}
}

func TestPrettyWithoutLocation(t *testing.T) {
	bag := diag.NewBag(2)
	bag.Add(diag.New(diag.SevInfo, diag.ObsTimings, source.NoSpan, "timings").WithNote(source.NoSpan, "load: 1ms"))
	var buf bytes.Buffer
	Pretty(&buf, bag, nil, PrettyOpts{})
	if got := buf.String(); got != "INFO OBS6001: timings\n  note: load: 1ms\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestJSONOutput(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, PathMode: source.PathBasename}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 1 {
		t.Fatalf("count = %d", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Code != "MAN2002" || d.Severity != "ERROR" {
		t.Errorf("unexpected diagnostic %+v", d)
	}
	if d.Location == nil || d.Location.File != "w.toml" || d.Location.StartLine != 2 || d.Location.StartCol != 9 {
		t.Errorf("location = %+v", d.Location)
	}
	if len(d.Notes) != 0 {
		t.Errorf("notes are opt-in")
	}
}

func TestJSONMax(t *testing.T) {
	bag := diag.NewBag(5)
	for range 3 {
		bag.Add(diag.NewError(diag.InjNoCandidates, source.NoSpan, "no candidate"))
	}
	out := BuildDiagnosticsOutput(bag, nil, JSONOpts{Max: 2})
	if out.Count != 2 || out.Diagnostics[0].Location != nil {
		t.Fatalf("output = %+v", out)
	}
}
