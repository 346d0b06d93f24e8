package inject

import (
	"fmt"

	"injekt/internal/decl"
	"injekt/internal/types"
)

type scopeKind uint8

const (
	scopeExternal scopeKind = iota + 1
	scopeInternal
	scopeFile
	scopeClass
	scopeFunction
	scopeProperty
	scopeBlock
)

type scopeKey struct {
	kind    scopeKind
	element decl.ElementID
	index   int
	name    string
}

func (s *Session) memo(key scopeKey, build func() *Scope) *Scope {
	if sc, ok := s.scopes[key]; ok {
		return sc
	}
	sc := build()
	s.scopes[key] = sc
	return sc
}

// ScopeAt returns the scope visible at a lexical position. Repeated calls for
// the same position return the same *Scope.
func (s *Session) ScopeAt(pos decl.Position) (*Scope, error) {
	e, ok := s.Index.Element(pos.Element)
	if !ok {
		return nil, fmt.Errorf("unknown element %d", pos.Element)
	}
	return s.scopeFor(e, pos.Index)
}

func (s *Session) parentOf(e *decl.Element) (*Scope, error) {
	p, ok := s.Index.Element(e.Parent)
	if !ok {
		return nil, fmt.Errorf("element %s has no enclosing file", e.Name)
	}
	return s.scopeFor(p, e.Index)
}

func (s *Session) scopeFor(e *decl.Element, index int) (*Scope, error) {
	switch e.Kind {
	case decl.ElemFile:
		return s.FileScope(e.File), nil
	case decl.ElemClass:
		return s.ClassScope(e)
	case decl.ElemFunction, decl.ElemLambda:
		return s.FunctionScope(e, index)
	case decl.ElemProperty:
		return s.PropertyScope(e)
	case decl.ElemBlock:
		return s.BlockScope(e, index)
	default:
		return s.parentOf(e)
	}
}

// FileScope chains external globals, the module's other files and the file itself.
func (s *Session) FileScope(file string) *Scope {
	return s.memo(scopeKey{kind: scopeFile, name: file}, func() *Scope {
		module := s.Index.FileModule(file)
		internal := s.internalScope(module, file)
		return s.newScope(scopeSpec{
			name:      "FILE " + file,
			parent:    internal,
			callables: s.Index.FileCallables(file),
			file:      file,
			module:    module,
		})
	})
}

func (s *Session) externalScope(module string) *Scope {
	return s.memo(scopeKey{kind: scopeExternal, name: module}, func() *Scope {
		return s.newScope(scopeSpec{
			name:      "EXTERNAL GLOBAL",
			callables: s.Index.ExternalCallables(module),
			module:    module,
		})
	})
}

func (s *Session) internalScope(module, file string) *Scope {
	return s.memo(scopeKey{kind: scopeInternal, name: file}, func() *Scope {
		var local []*decl.Callable
		for _, c := range s.Index.ModuleCallables(module) {
			if c.File != file && c.Visibility != decl.Private {
				local = append(local, c)
			}
		}
		return s.newScope(scopeSpec{
			name:      "INTERNAL GLOBAL " + module,
			parent:    s.externalScope(module),
			callables: local,
			module:    module,
		})
	})
}

// ClassScope provides the enclosing instance and the class type parameters.
// Its parent is the companion scope when the class has one.
func (s *Session) ClassScope(e *decl.Element) (*Scope, error) {
	if e.Class == nil {
		return nil, fmt.Errorf("class element %s has no class info", e.Name)
	}
	if sc, ok := s.scopes[scopeKey{kind: scopeClass, element: e.ID}]; ok {
		return sc, nil
	}
	outer, err := s.classOuter(e)
	if err != nil {
		return nil, err
	}
	parent := outer
	if e.Class.Companion != decl.NoElement {
		comp, ok := s.Index.Element(e.Class.Companion)
		if !ok || comp.Class == nil {
			return nil, fmt.Errorf("class %s: unknown companion %d", e.Name, e.Class.Companion)
		}
		if parent, err = s.ClassScope(comp); err != nil {
			return nil, err
		}
	}
	return s.memo(scopeKey{kind: scopeClass, element: e.ID}, func() *Scope {
		return s.newScope(scopeSpec{
			name:       "CLASS " + e.Name,
			parent:     parent,
			callables:  []*decl.Callable{s.receiver(e, e.Class.Self, e.Name)},
			typeParams: e.Class.TypeParams,
		})
	}), nil
}

// classOuter is the scope a class body continues from. Nested classes that
// are not inner only see the companion of the outer class; companions
// continue from their owner's outer scope.
func (s *Session) classOuter(e *decl.Element) (*Scope, error) {
	parent, ok := s.Index.Element(e.Parent)
	if !ok {
		return nil, fmt.Errorf("class %s has no enclosing element", e.Name)
	}
	if parent.Kind != decl.ElemClass || parent.Class == nil {
		return s.parentOf(e)
	}
	if e.Class.IsCompanion {
		return s.classOuter(parent)
	}
	if e.Class.Inner {
		return s.ClassScope(parent)
	}
	if parent.Class.Companion != decl.NoElement {
		comp, ok := s.Index.Element(parent.Class.Companion)
		if ok && comp.ID != e.ID {
			return s.ClassScope(comp)
		}
	}
	return s.classOuter(parent)
}

// FunctionScope folds the provided parameters of a function or lambda into
// nested scopes, one per parameter. index selects the parameter whose default
// value is being resolved; only earlier parameters are visible there.
func (s *Session) FunctionScope(e *decl.Element, index int) (*Scope, error) {
	fn := e.Function
	if fn == nil {
		return nil, fmt.Errorf("function element %s has no function info", e.Name)
	}
	var provided []*decl.Callable
	if fn.Receiver != types.NoTypeID {
		provided = append(provided, s.receiver(e, fn.Receiver, e.Name))
	}
	for i, p := range fn.Params {
		if index != decl.Whole && i >= index {
			break
		}
		if p.Provide {
			provided = append(provided, &decl.Callable{
				Key:    fmt.Sprintf("%s#%d.%s", e.Name, e.ID, p.Name),
				FqName: e.Name + "." + p.Name,
				Kind:   decl.KindParameter,
				Type:   p.Type,
				File:   e.File,
			})
		}
	}
	if sc, ok := s.scopes[scopeKey{kind: scopeFunction, element: e.ID, index: len(provided)}]; ok {
		return sc, nil
	}
	parent, err := s.parentOf(e)
	if err != nil {
		return nil, err
	}
	if len(provided) == 0 {
		return s.memo(scopeKey{kind: scopeFunction, element: e.ID}, func() *Scope {
			return s.newScope(scopeSpec{name: "FUNCTION " + e.Name, parent: parent, typeParams: fn.TypeParams})
		}), nil
	}
	sc := parent
	for n := 1; n <= len(provided); n++ {
		prev, first := sc, n == 1
		p := provided[n-1]
		sc = s.memo(scopeKey{kind: scopeFunction, element: e.ID, index: n}, func() *Scope {
			spec := scopeSpec{
				name:        fmt.Sprintf("FUNCTION %s %s", e.Name, p.FqName),
				parent:      prev,
				callables:   []*decl.Callable{p},
				sameNesting: !first,
			}
			if first {
				spec.typeParams = fn.TypeParams
			}
			return s.newScope(spec)
		})
	}
	return sc, nil
}

// PropertyScope provides the extension receiver and type parameters of a property.
func (s *Session) PropertyScope(e *decl.Element) (*Scope, error) {
	if e.Property == nil {
		return nil, fmt.Errorf("property element %s has no property info", e.Name)
	}
	if sc, ok := s.scopes[scopeKey{kind: scopeProperty, element: e.ID}]; ok {
		return sc, nil
	}
	parent, err := s.parentOf(e)
	if err != nil {
		return nil, err
	}
	return s.memo(scopeKey{kind: scopeProperty, element: e.ID}, func() *Scope {
		var callables []*decl.Callable
		if e.Property.Receiver != types.NoTypeID {
			callables = append(callables, s.receiver(e, e.Property.Receiver, e.Name))
		}
		return s.newScope(scopeSpec{
			name:       "PROPERTY " + e.Name,
			parent:     parent,
			callables:  callables,
			typeParams: e.Property.TypeParams,
		})
	}), nil
}

// BlockScope provides the local declarations preceding index, one scope per
// statement. Only the first one nests deeper than the enclosing scope.
func (s *Session) BlockScope(e *decl.Element, index int) (*Scope, error) {
	if e.Block == nil {
		return nil, fmt.Errorf("block element %s has no block info", e.Name)
	}
	n := len(e.Block.Statements)
	if index != decl.Whole && index < n {
		n = max(index, 0)
	}
	if sc, ok := s.scopes[scopeKey{kind: scopeBlock, element: e.ID, index: n}]; ok {
		return sc, nil
	}
	sc, err := s.parentOf(e)
	if err != nil {
		return nil, err
	}
	for k := 1; k <= n; k++ {
		prev, first := sc, k == 1
		stmt := e.Block.Statements[k-1]
		sc = s.memo(scopeKey{kind: scopeBlock, element: e.ID, index: k}, func() *Scope {
			return s.newScope(scopeSpec{
				name:        fmt.Sprintf("BLOCK %s %s", e.Name, stmt.FqName),
				parent:      prev,
				callables:   []*decl.Callable{stmt},
				sameNesting: !first,
			})
		})
	}
	return sc, nil
}

func (s *Session) receiver(e *decl.Element, t types.TypeID, name string) *decl.Callable {
	return &decl.Callable{
		Key:    fmt.Sprintf("%s#%d.this", name, e.ID),
		FqName: name + ".this",
		Kind:   decl.KindReceiver,
		Type:   t,
		File:   e.File,
	}
}
