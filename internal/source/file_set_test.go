package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet("")
	id1 := fs.Add("world.toml", []byte("a = 1"), 0)
	id2 := fs.Add("world.toml", []byte("a = 2"), 0)
	if id1 == id2 {
		t.Fatalf("re-adding a path must allocate a new id")
	}
	f, ok := fs.GetByPath("./world.toml")
	if !ok || f.ID != id2 {
		t.Fatalf("lookup by path should return the latest version")
	}
	if fs.Get(id1).Hash == fs.Get(id2).Hash {
		t.Fatalf("different content must hash differently")
	}
}

func TestLoadNormalizesBOMAndCRLF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "w.toml")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFa = 1\r\nb = 2\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := NewFileSet(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a = 1\nb = 2\n" {
		t.Fatalf("content = %q", f.Content)
	}
	if !f.Flags.Has(FileHadBOM|FileNormalizedCRLF) {
		t.Fatalf("flags = %b", f.Flags)
	}
	if got := f.FormatPath(PathRelative, dir); got != "w.toml" {
		t.Fatalf("relative path = %q", got)
	}
}

func TestResolveAndSpanAt(t *testing.T) {
	fs := NewFileSet("")
	id := fs.AddVirtual("mem", []byte("first\nsecond line\nthird"))

	span := fs.SpanAt(id, 2, 8, 4)
	if got := string(fs.Get(id).Content[span.Start:span.End]); got != "line" {
		t.Fatalf("SpanAt covered %q", got)
	}
	start, end := fs.Resolve(span)
	if start != (LineCol{Line: 2, Col: 8}) || end != (LineCol{Line: 2, Col: 12}) {
		t.Fatalf("resolve = %v..%v", start, end)
	}
	if got := fs.Get(id).GetLine(3); got != "third" {
		t.Fatalf("line 3 = %q", got)
	}
	if got := fs.Get(id).GetLine(9); got != "" {
		t.Fatalf("missing line should be empty, got %q", got)
	}
	if got := fs.Location(span, PathAuto); got != "mem:2:8" {
		t.Fatalf("location = %q", got)
	}
	// за пределами файла позиция прижимается к концу
	past := fs.SpanAt(id, 40, 1, 3)
	if !past.Empty() || int(past.Start) != len(fs.Get(id).Content) {
		t.Fatalf("out of range span = %v", past)
	}
}

func TestSpanText(t *testing.T) {
	content := []byte("app.repo")
	if got, ok := (Span{Start: 4, End: 8}).Text(content); !ok || got != "repo" {
		t.Fatalf("text = %q, %v", got, ok)
	}
	if _, ok := (Span{Start: 4, End: 9}).Text(content); ok {
		t.Fatalf("span past the end must fail")
	}
	if _, ok := (Span{Start: 5, End: 2}).Text(content); ok {
		t.Fatalf("inverted span must fail")
	}
	if (Span{Start: 5, End: 2}).Len() != 0 || NoSpan.String() != "-" {
		t.Fatalf("inverted len or NoSpan string")
	}
}
