package decl

import (
	"fmt"

	"fortio.org/safecast"

	"injekt/internal/types"
)

// Index enumerates candidate-eligible declarations and lexical elements.
// Results are returned in declaration order.
type Index interface {
	Element(id ElementID) (*Element, bool)
	// FileModule names the module a file belongs to.
	FileModule(file string) string
	// FileCallables are the top-level declarations of a file, private ones included.
	FileCallables(file string) []*Callable
	// ModuleCallables are the top-level declarations of a module.
	ModuleCallables(module string) []*Callable
	// ExternalCallables are the public top-level declarations of every module but module.
	ExternalCallables(module string) []*Callable
	// Members are the provided members of a class or module classifier.
	Members(c types.ClassifierID) []*Callable
}

// MemIndex is an in-memory Index.
type MemIndex struct {
	elements  []*Element
	files     map[string]string // file -> module
	byFile    map[string][]*Callable
	byModule  map[string][]*Callable
	modules   []string
	members   map[types.ClassifierID][]*Callable
	callables map[string]*Callable
}

// NewMemIndex creates an empty index.
func NewMemIndex() *MemIndex {
	return &MemIndex{
		elements:  []*Element{nil}, // 0 is the invalid sentinel
		files:     make(map[string]string),
		byFile:    make(map[string][]*Callable),
		byModule:  make(map[string][]*Callable),
		members:   make(map[types.ClassifierID][]*Callable),
		callables: make(map[string]*Callable),
	}
}

// AddFile registers a file of module and returns its file element.
func (idx *MemIndex) AddFile(module, path string) ElementID {
	if _, ok := idx.files[path]; !ok {
		idx.files[path] = module
		if _, known := idx.byModule[module]; !known {
			idx.modules = append(idx.modules, module)
			idx.byModule[module] = nil
		}
	}
	return idx.AddElement(Element{Kind: ElemFile, Name: path, File: path, Index: Whole})
}

// AddElement stores e and returns its id. e.File is inherited from the parent
// when empty.
func (idx *MemIndex) AddElement(e Element) ElementID {
	n, err := safecast.Conv[uint32](len(idx.elements))
	if err != nil {
		panic(fmt.Errorf("len(elements) overflow: %w", err))
	}
	e.ID = ElementID(n)
	if e.File == "" && e.Parent != NoElement {
		e.File = idx.elements[e.Parent].File
	}
	idx.elements = append(idx.elements, &e)
	return e.ID
}

// SetCompanion links a class element to its companion element.
func (idx *MemIndex) SetCompanion(class, companion ElementID) {
	idx.elements[class].Class.Companion = companion
	idx.elements[companion].Class.IsCompanion = true
}

// AddCallable registers a top-level declaration. The file must be known.
func (idx *MemIndex) AddCallable(c *Callable) error {
	module, ok := idx.files[c.File]
	if !ok {
		return fmt.Errorf("callable %s: unknown file %q", c.FqName, c.File)
	}
	if c.Module == "" {
		c.Module = module
	}
	if c.Module != module {
		return fmt.Errorf("callable %s: file %q belongs to module %q, not %q", c.FqName, c.File, module, c.Module)
	}
	if err := idx.claimKey(c); err != nil {
		return err
	}
	idx.byFile[c.File] = append(idx.byFile[c.File], c)
	idx.byModule[c.Module] = append(idx.byModule[c.Module], c)
	return nil
}

// AddMember registers a provided member of classifier owner.
func (idx *MemIndex) AddMember(owner types.ClassifierID, c *Callable) error {
	if err := idx.claimKey(c); err != nil {
		return err
	}
	idx.members[owner] = append(idx.members[owner], c)
	return nil
}

func (idx *MemIndex) claimKey(c *Callable) error {
	if c.Key == "" {
		c.Key = c.FqName
	}
	if _, dup := idx.callables[c.Key]; dup {
		return fmt.Errorf("duplicate declaration key %q", c.Key)
	}
	idx.callables[c.Key] = c
	return nil
}

// Callable finds a registered callable by key.
func (idx *MemIndex) Callable(key string) (*Callable, bool) {
	c, ok := idx.callables[key]
	return c, ok
}

func (idx *MemIndex) Element(id ElementID) (*Element, bool) {
	if id == NoElement || int(id) >= len(idx.elements) {
		return nil, false
	}
	return idx.elements[id], true
}

func (idx *MemIndex) FileModule(file string) string { return idx.files[file] }

func (idx *MemIndex) FileCallables(file string) []*Callable { return idx.byFile[file] }

func (idx *MemIndex) ModuleCallables(module string) []*Callable { return idx.byModule[module] }

func (idx *MemIndex) ExternalCallables(module string) []*Callable {
	var out []*Callable
	for _, m := range idx.modules {
		if m == module {
			continue
		}
		for _, c := range idx.byModule[m] {
			if c.Visibility == Public {
				out = append(out, c)
			}
		}
	}
	return out
}

func (idx *MemIndex) Members(c types.ClassifierID) []*Callable { return idx.members[c] }
