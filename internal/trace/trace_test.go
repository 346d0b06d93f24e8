package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltersScopes(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)

	Begin(tr, ScopeSession, "session:w.toml", 0).End("")
	Begin(tr, ScopeRequest, "callsite:main", 0).End("ok")
	Begin(tr, ScopeCandidate, "candidate:f", 0).End("")

	out := buf.String()
	if !strings.Contains(out, "session:w.toml") || !strings.Contains(out, "callsite:main (ok)") {
		t.Fatalf("missing session/request events:\n%s", out)
	}
	if strings.Contains(out, "candidate:f") {
		t.Fatalf("candidate events need debug level:\n%s", out)
	}
}

func TestNDJSONEvents(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	span := Begin(tr, ScopeRequest, "resolve", 0)
	Point(tr, ScopeCandidate, "divergent", "app.grow", span.ID())
	span.WithExtra("result", "success").End("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 events, got %d:\n%s", len(lines), buf.String())
	}
	var last jsonEvent
	if err := json.Unmarshal([]byte(lines[2]), &last); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if last.Kind != "end" || last.Extra["result"] != "success" {
		t.Fatalf("unexpected end event %+v", last)
	}
	var point jsonEvent
	if err := json.Unmarshal([]byte(lines[1]), &point); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if point.ParentID != span.ID() || point.Detail != "app.grow" {
		t.Fatalf("unexpected point %+v", point)
	}
}

func TestRingKeepsNewest(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		r.Emit(&Event{Kind: KindPoint, Scope: ScopeDriver, Name: name})
	}
	snap := r.Snapshot()
	if len(snap) != 3 || snap[0].Name != "c" || snap[2].Name != "e" {
		names := make([]string, len(snap))
		for i, ev := range snap {
			names[i] = ev.Name
		}
		t.Fatalf("snapshot = %v, want [c d e]", names)
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("off level must produce a disabled tracer")
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("unknown levels must be rejected")
	}
	if lvl, _ := ParseLevel("DEBUG"); lvl != LevelDebug {
		t.Fatalf("levels are case-insensitive")
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("missing tracer must fall back to Nop")
	}
	r := NewRingTracer(4, LevelDebug)
	ctx := WithParent(WithTracer(context.Background(), r), 42)
	if FromContext(ctx) != Tracer(r) || ParentFrom(ctx) != 42 {
		t.Fatalf("context lost tracer or parent")
	}
}

func TestEnumNames(t *testing.T) {
	for _, m := range []StorageMode{ModeStream, ModeRing, ModeBoth} {
		got, err := ParseMode(strings.ToUpper(m.String()))
		if err != nil || got != m {
			t.Fatalf("ParseMode(%s) = %v, %v", m, got, err)
		}
	}
	_, err := ParseMode("disk")
	if err == nil || !strings.Contains(err.Error(), "stream|ring|both") {
		t.Fatalf("ParseMode(disk) err = %v", err)
	}
	if Kind(0).String() != "unknown" || ScopeCandidate.String() != "candidate" || KindHeartbeat.String() != "heartbeat" {
		t.Fatalf("unexpected kind/scope names")
	}
	if LevelError.ShouldEmit(ScopeDriver) || !LevelPhase.ShouldEmit(ScopeSession) || LevelPhase.ShouldEmit(ScopeRequest) {
		t.Fatalf("level ceilings are off")
	}
	if Level(200).ShouldEmit(ScopeDriver) {
		t.Fatalf("out of range levels emit nothing")
	}
}

func TestFilteredSpanIsInert(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)
	s := Begin(tr, ScopeCandidate, "candidate:x", 7)
	if s.ID() != 0 || s.WithExtra("k", "v").End("done") != 0 {
		t.Fatalf("filtered span must be inert")
	}
	if buf.Len() != 0 {
		t.Fatalf("filtered span wrote %q", buf.String())
	}
	if Begin(nil, ScopeDriver, "x", 0).ID() != 0 {
		t.Fatalf("nil tracer gives an inert span")
	}
}
