package manifest

import (
	"strings"
	"testing"

	"injekt/internal/decl"
	"injekt/internal/diag"
	"injekt/internal/source"
)

func loadWorld(t *testing.T, path string) (*World, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(50)
	w, err := Load(source.NewFileSet(""), path, diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("load %s: %v", path, err)
	}
	return w, bag
}

func parseWorld(t *testing.T, name, content string) (*World, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(50)
	return Parse(source.NewFileSet(""), name, []byte(content), diag.BagReporter{Bag: bag}), bag
}

func expectCode(t *testing.T, bag *diag.Bag, code diag.Code) diag.Diagnostic {
	t.Helper()
	for _, d := range bag.Items() {
		if d.Code == code {
			return d
		}
	}
	var got []string
	for _, d := range bag.Items() {
		got = append(got, d.Code.ID()+": "+d.Message)
	}
	t.Fatalf("no %s diagnostic; got %v", code.ID(), got)
	return diag.Diagnostic{}
}

func TestLoadShopWorld(t *testing.T) {
	w, bag := loadWorld(t, "testdata/shop.toml")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if w.Module != "shop" || len(w.CallSites) != 3 {
		t.Fatalf("world = %s with %d call sites", w.Module, len(w.CallSites))
	}
	repo, ok := w.Index.Callable("shop.provideRepo")
	if !ok || len(repo.Params) != 2 || repo.Module != "shop" {
		t.Fatalf("provideRepo = %+v", repo)
	}
	service, _ := w.Index.Callable("shop.provideService")
	if logger := service.Params[1]; !logger.HasDefault || w.Types.TypeString(logger.Type) != "shop.Logger?" {
		t.Fatalf("logger = %+v", logger)
	}
	if ext := w.Index.ExternalCallables("shop"); len(ext) != 1 || ext[0].FqName != "lib.systemClock" {
		t.Fatalf("external = %v", ext)
	}

	run := w.CallSites[1]
	el, ok := w.Index.Element(run.Position.Element)
	if !ok || el.Kind != decl.ElemFunction || el.Name != "shop.App.run" || run.Position.Index != decl.Whole {
		t.Fatalf("run position = %+v", el)
	}
	if len(el.Function.Params) != 1 || !el.Function.Params[0].Provide {
		t.Fatalf("run params = %+v", el.Function.Params)
	}
	if got := w.Types.TypeString(run.Callee.Params[1].Type); got != "List<shop.Plugin>" {
		t.Fatalf("plugins request = %s", got)
	}
	if got := w.Types.TypeString(w.CallSites[2].Callee.Params[0].Type); got != "@shop.Named shop.Db" {
		t.Fatalf("tagged request = %s", got)
	}
}

func TestLoadGenericYAML(t *testing.T) {
	w, bag := loadWorld(t, "testdata/generic.yaml")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	wrap, ok := w.Index.Callable("app.wrap")
	if !ok || len(wrap.TypeParams) != 1 {
		t.Fatalf("wrap = %+v", wrap)
	}
	tp := w.Types.Classifier(wrap.TypeParams[0])
	if !tp.IsSpread() || len(tp.Supertypes) != 1 || w.Types.TypeString(tp.Supertypes[0]) != "app.Service" {
		t.Fatalf("spread parameter = %+v", tp)
	}
	boxOf, _ := w.Index.Callable("app.boxOf")
	if !w.Types.Classifier(boxOf.TypeParams[0]).IsReified() {
		t.Fatalf("R must be reified")
	}

	inside := w.CallSites[1]
	block, _ := w.Index.Element(inside.Position.Element)
	if block.Kind != decl.ElemBlock || len(block.Block.Statements) != 1 {
		t.Fatalf("inside = %+v", block)
	}
	run, _ := w.Index.Element(block.Parent)
	local := block.Block.Statements[0]
	if local.Type != inside.Callee.Params[0].Type {
		t.Fatalf("the block statement and the request must share the function's T")
	}
	if w.Types.TypeString(local.Type) != "app.Box<T>" || run.Function.TypeParams[0] != w.Types.MustLookup(w.Types.MustLookup(local.Type).Args[0]).Classifier {
		t.Fatalf("local = %s", w.Types.TypeString(local.Type))
	}
}

func TestUnknownClassifierSpan(t *testing.T) {
	content := "module = \"app\"\n[[file]]\npath = \"a.kt\"\n  [[file.declaration]]\n  name = \"app.x\"\n  type = \"List<app.Servce>\"\n"
	_, bag := parseWorld(t, "w.toml", content)
	d := expectCode(t, bag, diag.ManUnknownClassifier)
	start := uint32(strings.Index(content, "app.Servce"))
	if d.Primary.Start != start || d.Primary.End != start+uint32(len("app.Servce")) {
		t.Fatalf("span = %v, want it on app.Servce at %d", d.Primary, start)
	}
}

func TestManifestDiagnostics(t *testing.T) {
	cases := []struct {
		name, file, content string
		code                diag.Code
	}{
		{"unknown toml key", "w.toml", "module = \"app\"\ntypo = 1\n", diag.ManUnknownKey},
		{"unknown yaml key", "w.yaml", "module: app\ntypo: 1\n", diag.ManUnknownKey},
		{"toml syntax", "w.toml", "module = \n", diag.ManInvalid},
		{"missing module", "w.toml", "[[classifier]]\nname = \"a.B\"\n", diag.ManInvalid},
		{"duplicate classifier", "w.toml", "module = \"app\"\n[[classifier]]\nname = \"a.B\"\n[[classifier]]\nname = \"a.B\"\n", diag.ManDuplicateKey},
		{"arity", "w.toml", "module = \"app\"\n[[classifier]]\nname = \"a.B\"\n[[file]]\npath = \"a.kt\"\n[[file.declaration]]\nname = \"x\"\ntype = \"List<a.B, a.B>\"\n", diag.ManArity},
		{"bad type expression", "w.toml", "module = \"app\"\n[[file]]\npath = \"a.kt\"\n[[file.declaration]]\nname = \"x\"\ntype = \"List<\"\n", diag.ManBadTypeExpr},
		{"bad kind", "w.toml", "module = \"app\"\n[[file]]\npath = \"a.kt\"\n[[file.declaration]]\nname = \"x\"\nkind = \"macro\"\ntype = \"Any\"\n", diag.ManBadKind},
		{"tag as type", "w.toml", "module = \"app\"\n[[classifier]]\nname = \"a.Named\"\ntag = true\n[[file]]\npath = \"a.kt\"\n[[file.declaration]]\nname = \"x\"\ntype = \"a.Named\"\n", diag.ManBadTypeExpr},
		{"unknown call site file", "w.toml", "module = \"app\"\n[[callsite]]\nname = \"main\"\nfile = \"nope.kt\"\n", diag.ManUnknownElement},
		{"unknown path element", "w.toml", "module = \"app\"\n[[file]]\npath = \"a.kt\"\n[[callsite]]\nname = \"main\"\nfile = \"a.kt\"\npath = [\"class a.Missing\"]\n", diag.ManUnknownElement},
		{"duplicate declaration", "w.toml", "module = \"app\"\n[[file]]\npath = \"a.kt\"\n[[file.declaration]]\nname = \"x\"\ntype = \"Any\"\n[[file.declaration]]\nname = \"x\"\ntype = \"Any\"\n", diag.ManDuplicateKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, bag := parseWorld(t, tc.file, tc.content)
			expectCode(t, bag, tc.code)
		})
	}
}

func TestUndecodableWorldIsNil(t *testing.T) {
	w, bag := parseWorld(t, "w.toml", "module = [\n")
	if w != nil || !bag.HasErrors() {
		t.Fatalf("syntax errors must yield no world")
	}
}

func TestFunctionArityNames(t *testing.T) {
	content := "module = \"app\"\n[[classifier]]\nname = \"a.B\"\n[[file]]\npath = \"a.kt\"\n[[file.declaration]]\nname = \"x\"\ntype = \"Function1<a.B, a.B>\"\n"
	w, bag := parseWorld(t, "w.toml", content)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	x, _ := w.Index.Callable("x")
	if !w.Types.IsFunctionType(x.Type) || w.Types.TypeString(x.Type) != "(a.B) -> a.B" {
		t.Fatalf("x = %s", w.Types.TypeString(x.Type))
	}
}
