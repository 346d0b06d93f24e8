package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"injekt/internal/config"
	"injekt/internal/diag"
	"injekt/internal/manifest"
	"injekt/internal/pipeline"
	"injekt/internal/plan"
	"injekt/internal/source"
)

var rootOnce sync.Once

// execute runs the CLI in-process. Flags keep their values between runs, so
// every test passes the flags it depends on.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootOnce.Do(func() { setupRoot(config.Defaults()) })
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--color", "off", "--ui", "off", "--no-cache", "--quiet=false", "--no-warnings=false", "--warnings-as-errors=false"}, args...))
	err := rootCmd.Execute()
	finishTrace()
	return out.String() + errOut.String(), err
}

func writeStarterFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	var buf bytes.Buffer
	if err := writeStarter(&buf, manifest.FormatOf(name)); err != nil {
		t.Fatalf("starter: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestStarterWorldResolves(t *testing.T) {
	for _, name := range []string{"world.toml", "world.yaml"} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeStarter(&buf, manifest.FormatOf(name)); err != nil {
				t.Fatalf("starter: %v", err)
			}
			bag := diag.NewBag(20)
			rep := diag.BagReporter{Bag: bag}
			w := manifest.Parse(source.NewFileSet(""), name, buf.Bytes(), rep)
			if w == nil {
				t.Fatalf("starter does not decode:\n%s", buf.String())
			}
			set := pipeline.ResolveWorld(w, pipeline.SessionOptions{}, rep)
			if bag.HasErrors() {
				t.Fatalf("starter has errors: %v\n%s", bag.Items(), buf.String())
			}
			if _, ok := set.Find("main"); !ok {
				t.Fatalf("starter must plan call site main")
			}
		})
	}
}

func TestReadSwitch(t *testing.T) {
	cases := map[string]switchMode{"": modeAuto, "AUTO": modeAuto, "on": modeOn, "always": modeOn, "off": modeOff, " never ": modeOff}
	for in, want := range cases {
		got, err := readSwitch("ui", in)
		if err != nil || got != want {
			t.Errorf("readSwitch(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := readSwitch("ui", "sometimes"); err == nil || !strings.Contains(err.Error(), "--ui") {
		t.Fatalf("invalid values must name the flag, got %v", err)
	}
	if !modeAuto.resolve(true) || modeAuto.resolve(false) || !modeOn.resolve(false) || modeOff.resolve(true) {
		t.Fatalf("resolve does not follow the mode")
	}
}

func TestResolveCommand(t *testing.T) {
	good := writeStarterFile(t, "world.toml")
	out, err := execute(t, "resolve", "--format", "pretty", good)
	if err != nil {
		t.Fatalf("resolve: %v\n%s", err, out)
	}
	if !strings.Contains(out, "resolved 1 call sites in 1 files") {
		t.Fatalf("missing summary:\n%s", out)
	}

	broken := filepath.Join(t.TempDir(), "broken.toml")
	content := "module = \"app\"\n[[classifier]]\nname = \"app.Repo\"\n[[file]]\npath = \"a.kt\"\n[[callsite]]\nname = \"main\"\nfile = \"a.kt\"\nrequests = [{ name = \"repo\", type = \"app.Repo\" }]\n"
	if err := os.WriteFile(broken, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err = execute(t, "resolve", "--format", "pretty", broken)
	if !errors.Is(err, errReported) {
		t.Fatalf("broken worlds must fail with reported errors, got %v", err)
	}
	if !strings.Contains(out, "INJ1001") {
		t.Fatalf("missing diagnostic:\n%s", out)
	}
}

func TestPlanCommandWritesMsgpack(t *testing.T) {
	world := writeStarterFile(t, "world.yaml")
	outPath := filepath.Join(t.TempDir(), "plans.mp")
	if out, err := execute(t, "plan", "--format", "", "--out", outPath, world); err != nil {
		t.Fatalf("plan: %v\n%s", err, out)
	}
	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	set, err := plan.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p, ok := set.Find("main"); !ok || len(p.Roots) != 1 {
		t.Fatalf("plans = %+v", set)
	}
}

func TestExplainUnknownCallSite(t *testing.T) {
	world := writeStarterFile(t, "world.toml")
	_, err := execute(t, "explain", "--callsite", "nope", world)
	if err == nil || !strings.Contains(err.Error(), `"nope"`) {
		t.Fatalf("unknown call sites must be an error, got %v", err)
	}
}

func TestWarningSwitchesConflict(t *testing.T) {
	path := writeStarterFile(t, "world.toml")
	_, err := execute(t, "--no-warnings", "--warnings-as-errors", "resolve", path)
	if err == nil || !strings.Contains(err.Error(), "cannot be used together") {
		t.Fatalf("err = %v", err)
	}
}
