package types

import (
	"encoding/binary"
	"fmt"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores the classifiers and types the resolver treats specially.
type Builtins struct {
	Any        ClassifierID
	Nothing    ClassifierID
	Collection ClassifierID
	List       ClassifierID
	Set        ClassifierID
	TypeKey    ClassifierID
	SourceKey  ClassifierID

	AnyType         TypeID
	NullableAny     TypeID
	NothingType     TypeID
	NullableNothing TypeID
	Star            TypeID
}

// Interner provides stable ClassifierIDs and TypeIDs for structural descriptors.
// It is not safe for concurrent use; each resolution session owns one.
type Interner struct {
	classifiers []*Classifier
	classByKey  map[string]ClassifierID
	types       []Type
	index       map[typeKey]TypeID
	builtins    Builtins
	functions   map[int]ClassifierID

	supers   map[TypeID][]TypeID
	all      map[TypeID][]TypeID
	sizes    map[TypeID]int
	covering map[TypeID][]ClassifierID
	views    map[viewKey]TypeID
	nullable map[TypeID]bool
}

type typeKey struct {
	Classifier   ClassifierID
	Args         string
	Nullable     bool
	Provide      bool
	Star         bool
	FrameworkKey string
	Variance     Variance
}

type viewKey struct {
	Type       TypeID
	Classifier ClassifierID
}

// NewInterner constructs an interner seeded with the builtin classifiers.
func NewInterner() *Interner {
	in := &Interner{
		classByKey: make(map[string]ClassifierID, 64),
		index:      make(map[typeKey]TypeID, 256),
		functions:  make(map[int]ClassifierID),
	}
	in.resetMemo()
	in.classifiers = append(in.classifiers, nil) // reserve 0 as invalid sentinel
	in.types = append(in.types, Type{})

	b := &in.builtins
	b.Any = in.DeclareClassifier(Classifier{Key: "Any", FqName: "Any"})
	b.Nothing = in.DeclareClassifier(Classifier{Key: "Nothing", FqName: "Nothing"})
	b.AnyType = in.Intern(Type{Classifier: b.Any})
	b.NullableAny = in.Intern(Type{Classifier: b.Any, Nullable: true})
	b.NothingType = in.Intern(Type{Classifier: b.Nothing})
	b.NullableNothing = in.Intern(Type{Classifier: b.Nothing, Nullable: true})
	b.Star = in.Intern(Type{Classifier: b.Any, Nullable: true, Star: true})

	b.Collection = in.declareContainer("Collection", NoClassifierID)
	b.List = in.declareContainer("List", b.Collection)
	b.Set = in.declareContainer("Set", b.Collection)

	tk := in.NewTypeParameter("TypeKey.T", "T", nil, 0)
	b.TypeKey = in.DeclareClassifier(Classifier{Key: "TypeKey", FqName: "TypeKey", TypeParams: []ClassifierID{tk}})
	b.SourceKey = in.DeclareClassifier(Classifier{Key: "SourceKey", FqName: "SourceKey"})
	return in
}

func (in *Interner) declareContainer(name string, super ClassifierID) ClassifierID {
	t := in.NewTypeParameter(name+".T", "T", nil, 0)
	in.classifiers[t].Variance = Out
	var supers []TypeID
	if super != NoClassifierID {
		supers = []TypeID{in.Intern(Type{Classifier: super, Args: []TypeID{in.Intern(Type{Classifier: t})}})}
	}
	return in.DeclareClassifier(Classifier{Key: name, FqName: name, TypeParams: []ClassifierID{t}, Supertypes: supers})
}

func (in *Interner) resetMemo() {
	in.supers = make(map[TypeID][]TypeID)
	in.all = make(map[TypeID][]TypeID)
	in.sizes = make(map[TypeID]int)
	in.covering = make(map[TypeID][]ClassifierID)
	in.views = make(map[viewKey]TypeID)
	in.nullable = make(map[TypeID]bool)
}

// Builtins returns the builtin classifiers and types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// DeclareClassifier registers c and returns its id. A classifier with an
// already known key is reused as is. Tag classifiers receive an extra
// trailing type parameter that holds the wrapped type.
func (in *Interner) DeclareClassifier(c Classifier) ClassifierID {
	if id, ok := in.classByKey[c.Key]; ok {
		return id
	}
	cc := c
	cc.TypeParams = append([]ClassifierID(nil), c.TypeParams...)
	cc.Supertypes = append([]TypeID(nil), c.Supertypes...)
	cc.Tags = append([]TypeID(nil), c.Tags...)
	if cc.IsTag() {
		tt := in.NewTypeParameter(c.Key+".$TT", "$TT", []TypeID{in.builtins.NullableAny}, 0)
		in.classifiers[tt].Variance = Out
		cc.TypeParams = append(cc.TypeParams, tt)
	}
	n, err := safecast.Conv[uint32](len(in.classifiers))
	if err != nil {
		panic(fmt.Errorf("len(classifiers) overflow: %w", err))
	}
	id := ClassifierID(n)
	in.classifiers = append(in.classifiers, &cc)
	in.classByKey[c.Key] = id
	return id
}

// NewTypeParameter declares a type parameter classifier with the given bounds.
func (in *Interner) NewTypeParameter(key, name string, bounds []TypeID, flags ClassifierFlags) ClassifierID {
	return in.DeclareClassifier(Classifier{
		Key:        key,
		FqName:     name,
		Supertypes: bounds,
		Flags:      flags | FlagTypeParameter,
	})
}

// SetSupertypes replaces the declared supertypes of id. Classifiers may refer
// to themselves in their supertypes, so they are declared first and completed here.
func (in *Interner) SetSupertypes(id ClassifierID, supers []TypeID) {
	c := in.mustClassifier(id)
	c.Supertypes = append([]TypeID(nil), supers...)
	in.resetMemo()
}

// SetTags attaches declaration tags to a classifier.
func (in *Interner) SetTags(id ClassifierID, tags []TypeID) {
	in.mustClassifier(id).Tags = append([]TypeID(nil), tags...)
}

// AddFlags ORs flags into the classifier.
func (in *Interner) AddFlags(id ClassifierID, flags ClassifierFlags) {
	in.mustClassifier(id).Flags |= flags
}

// SetVariance sets the declared variance of a type parameter.
func (in *Interner) SetVariance(id ClassifierID, v Variance) {
	in.mustClassifier(id).Variance = v
}

// ClassifierByKey finds a declared classifier.
func (in *Interner) ClassifierByKey(key string) (ClassifierID, bool) {
	id, ok := in.classByKey[key]
	return id, ok
}

// Classifier returns the classifier for id. The result must not be mutated.
func (in *Interner) Classifier(id ClassifierID) *Classifier {
	return in.mustClassifier(id)
}

func (in *Interner) mustClassifier(id ClassifierID) *Classifier {
	if id == NoClassifierID || int(id) >= len(in.classifiers) {
		panic(fmt.Sprintf("types: invalid ClassifierID %d", id))
	}
	return in.classifiers[id]
}

// FunctionClassifier returns the classifier of function types with arity
// value parameters, declaring it on first use.
func (in *Interner) FunctionClassifier(arity int) ClassifierID {
	if id, ok := in.functions[arity]; ok {
		return id
	}
	name := fmt.Sprintf("Function%d", arity)
	params := make([]ClassifierID, 0, arity+1)
	for i := 0; i < arity; i++ {
		p := in.NewTypeParameter(fmt.Sprintf("%s.P%d", name, i+1), fmt.Sprintf("P%d", i+1), nil, 0)
		in.classifiers[p].Variance = In
		params = append(params, p)
	}
	r := in.NewTypeParameter(name+".R", "R", nil, 0)
	in.classifiers[r].Variance = Out
	params = append(params, r)
	id := in.DeclareClassifier(Classifier{Key: name, FqName: name, TypeParams: params, Flags: FlagFunction, Arity: arity})
	in.functions[arity] = id
	return id
}

// Intern ensures the provided descriptor has a stable TypeID.
// A descriptor whose argument count differs from its classifier's
// parameter count violates the interner contract and panics.
func (in *Interner) Intern(t Type) TypeID {
	c := in.mustClassifier(t.Classifier)
	if len(t.Args) != len(c.TypeParams) {
		panic(fmt.Sprintf("types: %s expects %d type arguments, got %d", c.FqName, len(c.TypeParams), len(t.Args)))
	}
	key := keyOf(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t, key)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type, key typeKey) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	t.Args = append([]TypeID(nil), t.Args...)
	in.types = append(in.types, t)
	in.index[key] = id
	return id
}

func keyOf(t Type) typeKey {
	var sb strings.Builder
	var buf [4]byte
	for _, a := range t.Args {
		binary.LittleEndian.PutUint32(buf[:], uint32(a))
		sb.Write(buf[:])
	}
	return typeKey{
		Classifier:   t.Classifier,
		Args:         sb.String(),
		Nullable:     t.Nullable,
		Provide:      t.Provide,
		Star:         t.Star,
		FrameworkKey: t.FrameworkKey,
		Variance:     t.Variance,
	}
}

// Lookup returns the descriptor for a TypeID. Args must not be mutated.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Apply interns classifier c applied to args.
func (in *Interner) Apply(c ClassifierID, args ...TypeID) TypeID {
	return in.Intern(Type{Classifier: c, Args: args})
}

// DefaultType is c applied to its own type parameters.
func (in *Interner) DefaultType(c ClassifierID) TypeID {
	cl := in.mustClassifier(c)
	args := make([]TypeID, len(cl.TypeParams))
	for i, p := range cl.TypeParams {
		args[i] = in.Apply(p)
	}
	return in.Intern(Type{Classifier: c, Args: args})
}

// FunctionType interns (params) -> ret.
func (in *Interner) FunctionType(params []TypeID, ret TypeID) TypeID {
	args := append(append([]TypeID(nil), params...), ret)
	return in.Intern(Type{Classifier: in.FunctionClassifier(len(params)), Args: args})
}

// IsFunctionType reports whether id is a function type.
func (in *Interner) IsFunctionType(id TypeID) bool {
	return in.mustClassifier(in.MustLookup(id).Classifier).IsFunction()
}

// FunctionParts splits a function type into its parameters and return type.
func (in *Interner) FunctionParts(id TypeID) ([]TypeID, TypeID) {
	t := in.MustLookup(id)
	n := len(t.Args)
	return t.Args[:n-1], t.Args[n-1]
}

func (in *Interner) with(id TypeID, f func(*Type)) TypeID {
	t := in.MustLookup(id)
	f(&t)
	return in.Intern(t)
}

func (in *Interner) WithNullable(id TypeID, nullable bool) TypeID {
	if in.MustLookup(id).Nullable == nullable {
		return id
	}
	return in.with(id, func(t *Type) { t.Nullable = nullable })
}

func (in *Interner) WithProvide(id TypeID, provide bool) TypeID {
	if in.MustLookup(id).Provide == provide {
		return id
	}
	return in.with(id, func(t *Type) { t.Provide = provide })
}

func (in *Interner) WithFrameworkKey(id TypeID, key string) TypeID {
	if in.MustLookup(id).FrameworkKey == key {
		return id
	}
	return in.with(id, func(t *Type) { t.FrameworkKey = key })
}

func (in *Interner) WithVariance(id TypeID, v Variance) TypeID {
	if in.MustLookup(id).Variance == v {
		return id
	}
	return in.with(id, func(t *Type) { t.Variance = v })
}

func (in *Interner) WithArgs(id TypeID, args []TypeID) TypeID {
	return in.with(id, func(t *Type) { t.Args = args })
}

// ClassifierOf returns the classifier of a type.
func (in *Interner) ClassifierOf(id TypeID) *Classifier {
	return in.mustClassifier(in.MustLookup(id).Classifier)
}

// IsTypeParameterType reports whether id is a use of a type parameter.
func (in *Interner) IsTypeParameterType(id TypeID) bool {
	return in.ClassifierOf(id).IsTypeParameter()
}
