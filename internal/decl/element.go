package decl

import "injekt/internal/types"

// ElementID identifies a lexical element. Zero is the invalid sentinel.
type ElementID uint32

// NoElement marks the absence of an element.
const NoElement ElementID = 0

// ElementKind enumerates the scope-owning lexical elements plus a transparent
// kind for everything else (expressions, statements).
type ElementKind uint8

const (
	ElemOther ElementKind = iota
	ElemFile
	ElemClass
	ElemFunction
	ElemProperty
	ElemBlock
	ElemLambda
)

var elementKindNames = [...]string{"other", "file", "class", "function", "property", "block", "lambda"}

func (k ElementKind) String() string {
	if int(k) < len(elementKindNames) {
		return elementKindNames[k]
	}
	return "element"
}

// ParseElementKind maps a manifest kind name to an ElementKind.
func ParseElementKind(s string) (ElementKind, bool) {
	for i, n := range elementKindNames {
		if n == s {
			return ElementKind(i), true
		}
	}
	return 0, false
}

// Whole is the Index value meaning "after everything" (a function body, the
// end of a block).
const Whole = -1

// Element is one node of the containment chain.
type Element struct {
	ID     ElementID
	Kind   ElementKind
	Name   string
	Parent ElementID
	// Index locates the element inside its parent: for a block parent the
	// number of preceding statements, for a function parent the parameter
	// whose default value contains it, Whole otherwise.
	Index int
	File  string

	Class    *ClassInfo
	Function *FunctionInfo
	Property *PropertyInfo
	Block    *BlockInfo
}

// ClassInfo describes a class-like element.
type ClassInfo struct {
	Classifier types.ClassifierID
	// Self is the type of the implicit receiver.
	Self       types.TypeID
	TypeParams []types.ClassifierID
	Companion  ElementID
	// Inner classes see the enclosing instance; nested ones only see the
	// outer companion.
	Inner       bool
	IsCompanion bool
}

// FunctionInfo describes a function or lambda.
type FunctionInfo struct {
	TypeParams []types.ClassifierID
	// Params are the value parameters in declaration order. Only parameters
	// marked Provide become candidates.
	Params []FunctionParam
	// Receiver is the extension receiver, NoTypeID when absent.
	Receiver types.TypeID
}

// FunctionParam is a parameter of a scope-owning function.
type FunctionParam struct {
	Name    string
	Type    types.TypeID
	Provide bool
}

// PropertyInfo describes a property with an optional extension receiver.
type PropertyInfo struct {
	TypeParams []types.ClassifierID
	Receiver   types.TypeID
}

// BlockInfo describes a statement block. Statements are the local
// declarations of the block in source order.
type BlockInfo struct {
	Statements []*Callable
}

// Position is a lexical position: an element plus an index inside it with
// the same meaning as Element.Index.
type Position struct {
	Element ElementID
	Index   int
}
