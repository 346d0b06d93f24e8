package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// ClassifierID identifies a classifier (type constructor) inside the interner.
type ClassifierID uint32

// NoClassifierID marks the absence of a classifier.
const NoClassifierID ClassifierID = 0

// Variance is the declared or use-site variance of a type argument.
type Variance uint8

const (
	Invariant Variance = iota
	In
	Out
)

func (v Variance) String() string {
	switch v {
	case Invariant:
		return "inv"
	case In:
		return "in"
	case Out:
		return "out"
	default:
		return fmt.Sprintf("Variance(%d)", v)
	}
}

// ClassifierFlags describe the role a classifier plays during resolution.
type ClassifierFlags uint16

const (
	FlagTypeParameter ClassifierFlags = 1 << iota
	FlagObject
	FlagTag
	// FlagSpread marks a type parameter whose argument is inferred from
	// the visible candidate types rather than from the request.
	FlagSpread
	FlagReified
	FlagModule
	FlagFunction
)

// Has reports whether all bits of f are set.
func (c ClassifierFlags) Has(f ClassifierFlags) bool { return c&f == f }

// Classifier is a named type constructor. Identity is by Key only.
type Classifier struct {
	Key        string
	FqName     string
	TypeParams []ClassifierID
	// Supertypes are the declared supertypes; for a type parameter they are its upper bounds.
	Supertypes []TypeID
	Flags      ClassifierFlags
	// Tags are tag types attached to the declaration (e.g. a tagged class).
	Tags     []TypeID
	Variance Variance
	// Arity is the number of value parameters of a function classifier.
	Arity int
}

func (c *Classifier) IsTypeParameter() bool { return c.Flags.Has(FlagTypeParameter) }
func (c *Classifier) IsTag() bool           { return c.Flags.Has(FlagTag) }
func (c *Classifier) IsObject() bool        { return c.Flags.Has(FlagObject) }
func (c *Classifier) IsSpread() bool        { return c.Flags.Has(FlagSpread) }
func (c *Classifier) IsReified() bool       { return c.Flags.Has(FlagReified) }
func (c *Classifier) IsModule() bool        { return c.Flags.Has(FlagModule) }
func (c *Classifier) IsFunction() bool      { return c.Flags.Has(FlagFunction) }

// Type is an applied classifier. Two types are equal iff all fields are equal,
// which the interner turns into TypeID equality.
type Type struct {
	Classifier ClassifierID
	Args       []TypeID
	Nullable   bool
	// Provide marks a type as independently injectable at its use site.
	Provide bool
	Star    bool
	// FrameworkKey distinguishes synthesized instances of an otherwise identical type.
	FrameworkKey string
	Variance     Variance
}
