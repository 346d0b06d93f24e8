package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"injekt/internal/diag"
	"injekt/internal/inject"
	"injekt/internal/plan"
	"injekt/internal/testkit"
)

const cleanWorld = `module = "app"
[[classifier]]
name = "app.Db"
[[classifier]]
name = "app.Repo"
[[file]]
path = "app/main.kt"
  [[file.declaration]]
  name = "app.db"
  type = "app.Db"
  [[file.declaration]]
  name = "app.repo"
  type = "app.Repo"
  params = [{ name = "db", type = "app.Db" }]
[[callsite]]
name = "main"
file = "app/main.kt"
requests = [{ name = "repo", type = "app.Repo" }]
`

const brokenWorld = `module = "app"
[[classifier]]
name = "app.Repo"
[[file]]
path = "app/main.kt"
[[callsite]]
name = "main"
file = "app/main.kt"
requests = [{ name = "repo", type = "app.Repo" }]
`

const cyclicWorld = `module = "app"
[[classifier]]
name = "app.A"
[[classifier]]
name = "app.B"
[[file]]
path = "a.kt"
  [[file.declaration]]
  name = "app.provideA"
  type = "app.A"
  params = [{ name = "b", type = "app.B" }]
  [[file.declaration]]
  name = "app.provideB"
  type = "app.B"
  params = [{ name = "a", type = "app.A" }]
[[callsite]]
name = "first"
file = "a.kt"
requests = [{ name = "a", type = "app.A" }]
[[callsite]]
name = "second"
file = "a.kt"
requests = [{ name = "b", type = "app.B" }]
`

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) statuses(file string) []Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Status
	for _, e := range s.events {
		if e.File == file {
			out = append(out, e.Status)
		}
	}
	return out
}

func writeWorld(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func seqKeys() inject.KeySource { return &inject.SeqKeys{} }

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestRunResolvesEveryFile(t *testing.T) {
	dir := t.TempDir()
	clean := writeWorld(t, dir, "clean.toml", cleanWorld)
	broken := writeWorld(t, dir, "broken.toml", brokenWorld)
	sink := &recordingSink{}

	res, err := Run(context.Background(), &Request{
		Files:    []string{clean, broken, clean},
		BaseDir:  dir,
		Jobs:     2,
		Keys:     seqKeys,
		Progress: sink,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Files) != 2 {
		t.Fatalf("duplicates must be dropped, got %d files", len(res.Files))
	}
	ok, bad := res.Files[0], res.Files[1]
	if ok.Display != "clean.toml" || ok.Bag.Len() != 0 || len(ok.Plans.Plans) != 1 {
		t.Fatalf("clean = %+v diagnostics=%v", ok, ok.Bag.Items())
	}
	if p := ok.Plans.Plans[0]; p.CallSite != "main" || len(p.Nodes) != 2 {
		t.Fatalf("plan = %+v", p)
	}
	if err := testkit.CheckPlanSet(ok.Plans); err != nil {
		t.Fatalf("plan shape: %v", err)
	}
	if err := testkit.CheckWorldSpans(ok.World, ok.FileSet); err != nil {
		t.Fatalf("world spans: %v", err)
	}
	if !hasCode(bad.Bag, diag.InjNoCandidates) || len(bad.Plans.Plans) != 0 {
		t.Fatalf("broken = %v", bad.Bag.Items())
	}
	if !res.HasErrors() {
		t.Fatalf("the broken world must fail the run")
	}
	if !res.Timings.Has(StageLoad) || !res.Timings.Has(StageResolve) {
		t.Fatalf("stage timings missing")
	}

	got := sink.statuses("clean.toml")
	if len(got) == 0 || got[0] != StatusQueued || got[len(got)-1] != StatusDone {
		t.Fatalf("clean events = %v", got)
	}
	if got := sink.statuses("broken.toml"); got[len(got)-1] != StatusError {
		t.Fatalf("broken events = %v", got)
	}
}

func TestCachedPlansSkipResolution(t *testing.T) {
	dir := t.TempDir()
	cache, err := plan.OpenDiskCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	world := writeWorld(t, dir, "w.toml", cleanWorld)
	req := &Request{Files: []string{world}, Cache: cache, Keys: seqKeys}

	first, err := Run(context.Background(), req)
	if err != nil || first.Files[0].Cached {
		t.Fatalf("first run: cached=%v err=%v", first.Files[0].Cached, err)
	}
	second, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	f := second.Files[0]
	if !f.Cached || f.World != nil || len(f.Plans.Plans) != 1 {
		t.Fatalf("second run = %+v", f)
	}

	broken := writeWorld(t, dir, "broken.toml", brokenWorld)
	req.Files = []string{broken}
	for range 2 {
		res, _ := Run(context.Background(), req)
		if res.Files[0].Cached {
			t.Fatalf("worlds with errors are never cached")
		}
	}
}

func TestMissingFileIsDiagnostic(t *testing.T) {
	res, err := Run(context.Background(), &Request{Files: []string{filepath.Join(t.TempDir(), "nope.toml")}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !hasCode(res.Files[0].Bag, diag.IOLoadFileError) {
		t.Fatalf("diagnostics = %v", res.Files[0].Bag.Items())
	}
}

func TestIllegalCycleStopsWorld(t *testing.T) {
	world := writeWorld(t, t.TempDir(), "cycle.toml", cyclicWorld)
	res, err := Run(context.Background(), &Request{Files: []string{world}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	bag := res.Files[0].Bag
	if !hasCode(bag, diag.InjCircular) || bag.Len() != 1 {
		t.Fatalf("the cycle must be reported once and stop the world: %v", bag.Items())
	}
}

func TestCancelledRun(t *testing.T) {
	world := writeWorld(t, t.TempDir(), "w.toml", cleanWorld)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, &Request{Files: []string{world}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestChannelSink(t *testing.T) {
	ch := make(chan Event, 1)
	ChannelSink{Ch: ch}.OnEvent(Event{File: "a", Status: StatusDone})
	if e := <-ch; e.File != "a" || e.Status != StatusDone {
		t.Fatalf("event = %+v", e)
	}
	ChannelSink{}.OnEvent(Event{})
}
