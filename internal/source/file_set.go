package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fortio.org/safecast"
)

// FileSet owns the world description files of one run and maps spans back
// to lines and columns.
type FileSet struct {
	files   []File
	index   map[string]FileID // path -> latest id
	baseDir string
}

// NewFileSet creates an empty FileSet rooted at baseDir (cwd when empty).
func NewFileSet(baseDir string) *FileSet {
	return &FileSet{
		index:   make(map[string]FileID),
		baseDir: baseDir,
	}
}

// BaseDir returns the directory relative paths are printed against.
func (fs *FileSet) BaseDir() string {
	if fs.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fs.baseDir
}

// Add stores normalized content and returns a new FileID. A path added twice
// gets a new id; lookups by path return the latest one.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		panic(fmt.Errorf("file %s too large: %w", path, err))
	}
	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(n)
	p := normalizePath(path)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    p,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fs.index[p] = id
	return id
}

// Load reads a file from disk, strips a BOM and normalizes CRLF.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return fs.AddBytes(path, content, 0), nil
}

// AddBytes normalizes raw bytes the way Load does.
func (fs *FileSet) AddBytes(path string, raw []byte, flags FileFlags) FileID {
	content, hadBOM := removeBOM(raw)
	content, hadCRLF := normalizeCRLF(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fs.Add(path, content, flags)
}

// AddVirtual adds in-memory content with the FileVirtual flag.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	return fs.AddBytes(name, content, FileVirtual)
}

// Get returns the file for id.
func (fs *FileSet) Get(id FileID) *File {
	if int(id) >= len(fs.files) {
		panic(fmt.Sprintf("source: invalid FileID %d", id))
	}
	return &fs.files[id]
}

// Has reports whether id names a stored file.
func (fs *FileSet) Has(id FileID) bool {
	return fs != nil && int(id) < len(fs.files)
}

// Len is the number of stored files.
func (fs *FileSet) Len() int { return len(fs.files) }

// GetByPath returns the latest file stored under path.
func (fs *FileSet) GetByPath(path string) (*File, bool) {
	if id, ok := fs.index[normalizePath(path)]; ok {
		return &fs.files[id], true
	}
	return nil, false
}

// Resolve converts a span into line and column positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.Get(span.File)
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// SpanAt builds a span of length n starting at a 1-based line and column.
// Decoders report positions as line/column; out of range positions clamp to
// the end of the file.
func (fs *FileSet) SpanAt(id FileID, line, col, n uint32) Span {
	f := fs.Get(id)
	size := uint32(len(f.Content)) // #nosec G115 -- checked in Add
	start, ok := lineStart(f.LineIdx, line)
	if !ok {
		return Span{File: id, Start: size, End: size}
	}
	if col > 0 {
		start += col - 1
	}
	start = min(start, size)
	return Span{File: id, Start: start, End: min(start+n, size)}
}

// Location renders "path:line:col" for the start of span.
func (fs *FileSet) Location(span Span, mode PathMode) string {
	f := fs.Get(span.File)
	lc := toLineCol(f.LineIdx, span.Start)
	return fmt.Sprintf("%s:%d:%d", f.FormatPath(mode, fs.BaseDir()), lc.Line, lc.Col)
}

// GetLine returns a 1-based line without its newline, or "" when out of range.
func (f *File) GetLine(line uint32) string {
	start, ok := lineStart(f.LineIdx, line)
	if !ok || int(start) > len(f.Content) {
		return ""
	}
	end := uint32(len(f.Content)) // #nosec G115 -- checked in Add
	if int(line-1) < len(f.LineIdx) {
		end = f.LineIdx[line-1]
	}
	return string(f.Content[start:end])
}

// FormatPath formats the path according to mode.
func (f *File) FormatPath(mode PathMode, baseDir string) string {
	switch mode {
	case PathAbsolute:
		if f.Flags.Has(FileVirtual) {
			return f.Path
		}
		if abs, err := filepath.Abs(f.Path); err == nil {
			return filepath.ToSlash(abs)
		}
	case PathRelative:
		if rel, err := filepath.Rel(baseDir, f.Path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	case PathBasename:
		return filepath.Base(f.Path)
	case PathAuto:
		// короткие и относительные пути как есть
		if len(f.Path) < 40 || !filepath.IsAbs(f.Path) {
			return f.Path
		}
		return filepath.Base(f.Path)
	}
	return f.Path
}
