// Package manifest loads world description files. A world declares
// classifiers, the files of a module with their provider declarations and
// lexical elements, declarations of other modules, and the call sites to
// resolve. Both TOML and YAML spellings are accepted.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"injekt/internal/diag"
	"injekt/internal/source"
)

// Document is the decoded form of a world file.
type Document struct {
	Module      string         `toml:"module,omitempty" yaml:"module,omitempty"`
	Classifiers []Classifier   `toml:"classifier,omitempty" yaml:"classifier,omitempty"`
	Files       []File         `toml:"file,omitempty" yaml:"file,omitempty"`
	Externals   []External     `toml:"external,omitempty" yaml:"external,omitempty"`
	CallSites   []CallSiteDecl `toml:"callsite,omitempty" yaml:"callsite,omitempty"`
}

// Classifier declares a named type constructor.
type Classifier struct {
	Name       string   `toml:"name,omitempty" yaml:"name,omitempty"`
	Params     []string `toml:"params,omitempty" yaml:"params,omitempty"`
	Supertypes []string `toml:"supertypes,omitempty" yaml:"supertypes,omitempty"`
	Tags       []string `toml:"tags,omitempty" yaml:"tags,omitempty"`
	Tag        bool     `toml:"tag,omitempty" yaml:"tag,omitempty"`
	Module     bool     `toml:"module,omitempty" yaml:"module,omitempty"`
	Object     bool     `toml:"object,omitempty" yaml:"object,omitempty"`
	// Members are provided by instances of the classifier: module members
	// and the members visible through a class receiver.
	Members []Declaration `toml:"member,omitempty" yaml:"member,omitempty"`
}

// File is one source file of the world's module.
type File struct {
	Path         string        `toml:"path,omitempty" yaml:"path,omitempty"`
	Declarations []Declaration `toml:"declaration,omitempty" yaml:"declaration,omitempty"`
	// Elements are listed outer first; Parent names an earlier element.
	Elements []Element `toml:"element,omitempty" yaml:"element,omitempty"`
}

// External holds the declarations of another module.
type External struct {
	Module       string        `toml:"module,omitempty" yaml:"module,omitempty"`
	File         string        `toml:"file,omitempty" yaml:"file,omitempty"`
	Declarations []Declaration `toml:"declaration,omitempty" yaml:"declaration,omitempty"`
}

// Declaration is a provider callable.
type Declaration struct {
	Name          string   `toml:"name,omitempty" yaml:"name,omitempty"`
	Key           string   `toml:"key,omitempty" yaml:"key,omitempty"`
	Kind          string   `toml:"kind,omitempty" yaml:"kind,omitempty"`
	Type          string   `toml:"type,omitempty" yaml:"type,omitempty"`
	FrameworkKey  string   `toml:"framework_key,omitempty" yaml:"framework_key,omitempty"`
	TypeParams    []string `toml:"type_params,omitempty" yaml:"type_params,omitempty"`
	Params        []Param  `toml:"params,omitempty" yaml:"params,omitempty"`
	Visibility    string   `toml:"visibility,omitempty" yaml:"visibility,omitempty"`
	Default       bool     `toml:"default,omitempty" yaml:"default,omitempty"`
	Owner         string   `toml:"owner,omitempty" yaml:"owner,omitempty"`
	OverrideDepth int      `toml:"override_depth,omitempty" yaml:"override_depth,omitempty"`
}

// Param is a value parameter or a call-site request.
type Param struct {
	Name         string `toml:"name,omitempty" yaml:"name,omitempty"`
	Type         string `toml:"type,omitempty" yaml:"type,omitempty"`
	FrameworkKey string `toml:"framework_key,omitempty" yaml:"framework_key,omitempty"`
	Default      bool   `toml:"default,omitempty" yaml:"default,omitempty"`
	// Strategy is "if-not-provided" (default) or "on-all-errors".
	Strategy string `toml:"strategy,omitempty" yaml:"strategy,omitempty"`
	// Provide makes a function parameter a candidate inside the function.
	Provide bool `toml:"provide,omitempty" yaml:"provide,omitempty"`
}

// Element is a scope-owning lexical element.
type Element struct {
	Name   string `toml:"name,omitempty" yaml:"name,omitempty"`
	Kind   string `toml:"kind,omitempty" yaml:"kind,omitempty"`
	Parent string `toml:"parent,omitempty" yaml:"parent,omitempty"`
	// Index locates the element inside its parent; absent means whole.
	Index *int `toml:"index,omitempty" yaml:"index,omitempty"`
	// Self is the receiver type of a class, the classifier Name applied to
	// its own parameters when empty.
	Self       string        `toml:"self,omitempty" yaml:"self,omitempty"`
	TypeParams []string      `toml:"type_params,omitempty" yaml:"type_params,omitempty"`
	Inner      bool          `toml:"inner,omitempty" yaml:"inner,omitempty"`
	Companion  string        `toml:"companion,omitempty" yaml:"companion,omitempty"`
	Receiver   string        `toml:"receiver,omitempty" yaml:"receiver,omitempty"`
	Params     []Param       `toml:"params,omitempty" yaml:"params,omitempty"`
	Statements []Declaration `toml:"statements,omitempty" yaml:"statements,omitempty"`
}

// CallSiteDecl is a resolution request made at a lexical position.
type CallSiteDecl struct {
	Name string `toml:"name,omitempty" yaml:"name,omitempty"`
	File string `toml:"file,omitempty" yaml:"file,omitempty"`
	// Path walks from the file through elements, each entry "kind" or "kind name".
	Path     []string `toml:"path,omitempty" yaml:"path,omitempty"`
	Index    *int     `toml:"index,omitempty" yaml:"index,omitempty"`
	Requests []Param  `toml:"requests,omitempty" yaml:"requests,omitempty"`
}

// Format is the syntax of a world file.
type Format uint8

const (
	FormatTOML Format = iota
	FormatYAML
)

// FormatOf picks the syntax from the file extension; TOML is the default.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatTOML
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// Decode parses file into a Document. Syntax errors and unknown keys are
// reported to r; ok is false when the document could not be decoded.
func Decode(fs *source.FileSet, id source.FileID, r diag.Reporter) (*Document, bool) {
	file := fs.Get(id)
	doc := &Document{}
	switch FormatOf(file.Path) {
	case FormatYAML:
		return doc, decodeYAML(fs, file, doc, r)
	default:
		return doc, decodeTOML(file, doc, r)
	}
}

func decodeTOML(file *source.File, doc *Document, r diag.Reporter) bool {
	md, err := toml.Decode(string(file.Content), doc)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			sp := offsetSpan(file.ID, perr.Position.Start, perr.Position.Len)
			diag.ReportError(r, diag.ManInvalid, sp, perr.Message).Emit()
			return false
		}
		diag.ReportError(r, diag.ManInvalid, offsetSpan(file.ID, 0, 0), err.Error()).Emit()
		return false
	}
	loc := newLocator(file)
	for _, key := range md.Undecoded() {
		last := key[len(key)-1]
		diag.ReportError(r, diag.ManUnknownKey, loc.find(last, 0),
			fmt.Sprintf("unknown key %q", key.String())).Emit()
	}
	return true
}

func decodeYAML(fs *source.FileSet, file *source.File, doc *Document, r diag.Reporter) bool {
	dec := yaml.NewDecoder(bytes.NewReader(file.Content))
	dec.KnownFields(true)
	err := dec.Decode(doc)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	var terr *yaml.TypeError
	if errors.As(err, &terr) {
		for _, msg := range terr.Errors {
			code := diag.ManInvalid
			if strings.Contains(msg, "not found in type") {
				code = diag.ManUnknownKey
			}
			diag.ReportError(r, code, yamlSpan(fs, file.ID, msg), msg).Emit()
		}
		return false
	}
	diag.ReportError(r, diag.ManInvalid, yamlSpan(fs, file.ID, err.Error()), err.Error()).Emit()
	return false
}

// yamlSpan maps the "line N" of a yaml.v3 message to the start of that line.
func yamlSpan(fs *source.FileSet, id source.FileID, msg string) source.Span {
	m := yamlLine.FindStringSubmatch(msg)
	if m == nil {
		return offsetSpan(id, 0, 0)
	}
	line, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return offsetSpan(id, 0, 0)
	}
	return fs.SpanAt(id, uint32(line), 1, 0)
}

func offsetSpan(id source.FileID, start, n int) source.Span {
	s, err := safecast.Conv[uint32](max(start, 0))
	if err != nil {
		return source.Span{File: id}
	}
	e, err := safecast.Conv[uint32](max(start+n, start, 0))
	if err != nil {
		e = s
	}
	return source.Span{File: id, Start: s, End: e}
}
