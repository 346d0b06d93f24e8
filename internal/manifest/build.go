package manifest

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"injekt/internal/decl"
	"injekt/internal/diag"
	"injekt/internal/source"
	"injekt/internal/types"
)

// World is a checked world file ready for resolution.
type World struct {
	Path      string
	Module    string
	File      source.FileID
	Types     *types.Interner
	Index     *decl.MemIndex
	CallSites []*CallSite
}

// CallSite is a request made at a lexical position. The requests are the
// parameters of Callee.
type CallSite struct {
	Name     string
	File     string
	Position decl.Position
	Callee   *decl.Callable
	Span     source.Span
}

// Load reads path into fs and builds its world. Problems in the file are
// reported to r; the world is nil when the file could not be decoded. The
// error is only for I/O.
func Load(fs *source.FileSet, path string, r diag.Reporter) (*World, error) {
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	return decodeAndBuild(fs, id, r), nil
}

// Parse builds a world from in-memory content. name picks the syntax the
// way a path extension does.
func Parse(fs *source.FileSet, name string, content []byte, r diag.Reporter) *World {
	return decodeAndBuild(fs, fs.AddVirtual(name, content), r)
}

func decodeAndBuild(fs *source.FileSet, id source.FileID, r diag.Reporter) *World {
	doc, ok := Decode(fs, id, r)
	if !ok {
		return nil
	}
	return Build(fs, id, doc, r)
}

// Build checks doc and materializes its classifiers, declarations, elements
// and call sites. Invalid entries are reported and skipped.
func Build(fs *source.FileSet, id source.FileID, doc *Document, r diag.Reporter) *World {
	file := fs.Get(id)
	b := &builder{
		fs:         fs,
		file:       file,
		loc:        newLocator(file),
		r:          r,
		in:         types.NewInterner(),
		idx:        decl.NewMemIndex(),
		classEnv:   make(map[types.ClassifierID]*typeEnv),
		elements:   make(map[string]decl.ElementID),
		children:   make(map[decl.ElementID][]decl.ElementID),
		envOf:      make(map[decl.ElementID]*typeEnv),
		fileElem:   make(map[string]decl.ElementID),
		classSpans: make(map[string]source.Span),
	}
	b.world = &World{Path: file.Path, File: id, Types: b.in, Index: b.idx}
	b.build(doc)
	return b.world
}

type builder struct {
	fs    *source.FileSet
	file  *source.File
	loc   *locator
	r     diag.Reporter
	in    *types.Interner
	idx   *decl.MemIndex
	world *World
	// pos is the search hint for the next located value.
	pos int

	classEnv   map[types.ClassifierID]*typeEnv
	classSpans map[string]source.Span
	elements   map[string]decl.ElementID
	children   map[decl.ElementID][]decl.ElementID
	envOf      map[decl.ElementID]*typeEnv
	fileElem   map[string]decl.ElementID
}

// typeEnv resolves type parameter names of enclosing declarations.
type typeEnv struct {
	names  map[string]types.ClassifierID
	parent *typeEnv
}

func (e *typeEnv) lookup(name string) (types.ClassifierID, bool) {
	for ; e != nil; e = e.parent {
		if id, ok := e.names[name]; ok {
			return id, true
		}
	}
	return types.NoClassifierID, false
}

func (b *builder) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportError(b.r, code, sp, fmt.Sprintf(format, args...)).Emit()
}

// at locates value after the running hint and advances it.
func (b *builder) at(value string) source.Span {
	sp := b.loc.find(value, b.pos)
	if value != "" && sp.End > sp.Start {
		b.pos = int(sp.End)
	}
	return sp
}

func (b *builder) build(doc *Document) {
	module := nfc(doc.Module)
	if module == "" {
		b.errorf(diag.ManInvalid, offsetSpan(b.file.ID, 0, 0), "world has no module name")
		module = "main"
	}
	b.world.Module = module

	declared := b.declareClassifiers(doc.Classifiers)
	for i, c := range doc.Classifiers {
		if declared[i] != types.NoClassifierID {
			b.completeClassifier(declared[i], c)
		}
	}

	b.pos = 0
	for _, f := range doc.Files {
		path := nfc(f.Path)
		if path == "" {
			b.errorf(diag.ManInvalid, b.at("[[file]]"), "file without path")
			continue
		}
		if _, dup := b.fileElem[path]; dup {
			b.errorf(diag.ManDuplicateKey, b.at(path), "file %q declared twice", path)
			continue
		}
		b.fileElem[path] = b.idx.AddFile(module, path)
	}
	for _, ext := range doc.Externals {
		m := nfc(ext.Module)
		if m == "" || m == module {
			b.errorf(diag.ManInvalid, b.at("[[external]]"), "external declarations need a module other than %q", module)
			continue
		}
		path := nfc(ext.File)
		if path == "" {
			path = m + "/external"
		}
		if _, dup := b.fileElem[path]; !dup {
			b.fileElem[path] = b.idx.AddFile(m, path)
		}
		for _, d := range ext.Declarations {
			b.addTopLevel(d, path)
		}
	}

	b.pos = 0
	for _, f := range doc.Files {
		path := nfc(f.Path)
		if _, ok := b.fileElem[path]; !ok {
			continue
		}
		for _, d := range f.Declarations {
			b.addTopLevel(d, path)
		}
		b.addElements(path, f.Elements)
	}

	b.pos = 0
	for i, c := range doc.Classifiers {
		if declared[i] == types.NoClassifierID {
			continue
		}
		self := b.in.DefaultType(declared[i])
		for _, m := range c.Members {
			callable := b.callable(m, "", module, b.classEnv[declared[i]])
			if callable == nil {
				continue
			}
			callable.DispatchReceiver = self
			if err := b.idx.AddMember(declared[i], callable); err != nil {
				b.errorf(diag.ManDuplicateKey, callable.Span, "%v", err)
			}
		}
	}

	b.pos = 0
	seen := make(map[string]bool, len(doc.CallSites))
	for _, cs := range doc.CallSites {
		if site := b.callSite(cs); site != nil {
			if seen[site.Name] {
				b.errorf(diag.ManDuplicateKey, site.Span, "call site %q declared twice", site.Name)
				continue
			}
			seen[site.Name] = true
			b.world.CallSites = append(b.world.CallSites, site)
		}
	}
}

// declareClassifiers registers every classifier with its type parameters so
// supertypes and members may refer to classifiers declared later.
func (b *builder) declareClassifiers(cs []Classifier) []types.ClassifierID {
	out := make([]types.ClassifierID, len(cs))
	for i, c := range cs {
		name := nfc(c.Name)
		sp := b.at(name)
		if name == "" {
			b.errorf(diag.ManInvalid, sp, "classifier without name")
			continue
		}
		if _, dup := b.in.ClassifierByKey(name); dup {
			b.errorf(diag.ManDuplicateKey, sp, "classifier %s declared twice", name)
			continue
		}
		env := &typeEnv{names: make(map[string]types.ClassifierID)}
		params := b.declareTypeParams(name, c.Params, env, sp)
		var flags types.ClassifierFlags
		if c.Tag {
			flags |= types.FlagTag
		}
		if c.Module {
			flags |= types.FlagModule
		}
		if c.Object {
			flags |= types.FlagObject
		}
		out[i] = b.in.DeclareClassifier(types.Classifier{Key: name, FqName: name, TypeParams: params, Flags: flags})
		b.classEnv[out[i]] = env
		b.classSpans[name] = sp
	}
	return out
}

func (b *builder) completeClassifier(id types.ClassifierID, c Classifier) {
	sp := b.classSpans[nfc(c.Name)]
	env := b.classEnv[id]
	b.boundTypeParams(c.Params, env, sp)
	var supers []types.TypeID
	for _, s := range c.Supertypes {
		if t, ok := b.resolve(s, env, sp); ok {
			supers = append(supers, t)
		}
	}
	if len(supers) > 0 {
		b.in.SetSupertypes(id, supers)
	}
	var tags []types.TypeID
	for _, s := range c.Tags {
		if t, ok := b.resolve(s, env, sp); ok {
			tags = append(tags, t)
		}
	}
	if len(tags) > 0 {
		b.in.SetTags(id, tags)
	}
}

// declareTypeParams declares the parameters of owner into env. Bounds are
// set by boundTypeParams once every parameter is known.
func (b *builder) declareTypeParams(owner string, specs []string, env *typeEnv, sp source.Span) []types.ClassifierID {
	out := make([]types.ClassifierID, 0, len(specs))
	for _, s := range specs {
		tp, err := ParseTypeParam(s)
		if err != nil {
			b.syntaxError(s, err, sp)
			continue
		}
		if _, dup := env.names[tp.Name]; dup {
			b.errorf(diag.ManDuplicateKey, sp, "%s declares type parameter %s twice", owner, tp.Name)
			continue
		}
		var flags types.ClassifierFlags
		if tp.Spread {
			flags |= types.FlagSpread
		}
		if tp.Reified {
			flags |= types.FlagReified
		}
		id := b.in.NewTypeParameter(owner+"."+tp.Name, tp.Name, nil, flags)
		if tp.Variance != types.Invariant {
			b.in.SetVariance(id, tp.Variance)
		}
		env.names[tp.Name] = id
		out = append(out, id)
	}
	return out
}

func (b *builder) boundTypeParams(specs []string, env *typeEnv, sp source.Span) {
	for _, s := range specs {
		tp, err := ParseTypeParam(s)
		if err != nil || len(tp.Bounds) == 0 {
			continue
		}
		id, ok := env.names[tp.Name]
		if !ok {
			continue
		}
		at := b.loc.find(s, int(sp.Start))
		var bounds []types.TypeID
		for _, expr := range tp.Bounds {
			if t, ok := b.convert(expr, env, at); ok {
				bounds = append(bounds, t)
			}
		}
		b.in.SetSupertypes(id, bounds)
	}
}

func (b *builder) addTopLevel(d Declaration, path string) {
	c := b.callable(d, path, "", nil)
	if c == nil {
		return
	}
	if err := b.idx.AddCallable(c); err != nil {
		b.errorf(diag.ManDuplicateKey, c.Span, "%v", err)
	}
}

// callable converts a declaration. Type parameters of the declaration
// extend env. It returns nil after reporting when the declaration is unusable.
func (b *builder) callable(d Declaration, file, module string, env *typeEnv) *decl.Callable {
	name := nfc(d.Name)
	sp := b.at(name)
	if name == "" {
		b.errorf(diag.ManInvalid, sp, "declaration without name")
		return nil
	}
	kind := decl.KindFunction
	if d.Kind != "" {
		k, ok := decl.ParseKind(d.Kind)
		if !ok {
			b.errorf(diag.ManBadKind, b.loc.find(d.Kind, int(sp.Start)), "unknown declaration kind %q", d.Kind)
			return nil
		}
		kind = k
	}
	vis, ok := decl.ParseVisibility(d.Visibility)
	if !ok {
		b.errorf(diag.ManBadKind, b.loc.find(d.Visibility, int(sp.Start)), "unknown visibility %q", d.Visibility)
		return nil
	}
	key := nfc(d.Key)
	if key == "" {
		key = name
	}

	local := &typeEnv{names: make(map[string]types.ClassifierID), parent: env}
	typeParams := b.declareTypeParams(key, d.TypeParams, local, sp)
	b.boundTypeParams(d.TypeParams, local, sp)

	if d.Type == "" {
		b.errorf(diag.ManBadTypeExpr, sp, "declaration %s has no type", name)
		return nil
	}
	t, ok := b.resolve(d.Type, local, sp)
	if !ok {
		return nil
	}
	if d.FrameworkKey != "" {
		t = b.in.WithFrameworkKey(t, d.FrameworkKey)
	}
	params, ok := b.params(d.Params, local, sp)
	if !ok {
		return nil
	}
	return &decl.Callable{
		Key:           key,
		FqName:        name,
		Kind:          kind,
		Type:          t,
		TypeParams:    typeParams,
		Params:        params,
		Owner:         nfc(d.Owner),
		OverrideDepth: d.OverrideDepth,
		Module:        module,
		File:          file,
		Visibility:    vis,
		Default:       d.Default,
		Span:          sp,
	}
}

func (b *builder) params(ps []Param, env *typeEnv, sp source.Span) ([]decl.Param, bool) {
	out := make([]decl.Param, 0, len(ps))
	ok := true
	for _, p := range ps {
		t, good := b.resolve(p.Type, env, sp)
		if !good {
			ok = false
			continue
		}
		if p.FrameworkKey != "" {
			t = b.in.WithFrameworkKey(t, p.FrameworkKey)
		}
		strategy, good := parseStrategy(p.Strategy)
		if !good {
			b.errorf(diag.ManBadKind, b.loc.find(p.Strategy, int(sp.Start)), "unknown default strategy %q", p.Strategy)
			ok = false
			continue
		}
		out = append(out, decl.Param{Name: nfc(p.Name), Type: t, HasDefault: p.Default, Strategy: strategy})
	}
	return out, ok
}

func parseStrategy(s string) (decl.DefaultStrategy, bool) {
	switch s {
	case "", "if-not-provided":
		return decl.DefaultIfNotProvided, true
	case "on-all-errors":
		return decl.DefaultOnAllErrors, true
	}
	return 0, false
}

var functionName = regexp.MustCompile(`^Function(\d+)$`)

// resolve parses and converts a type expression located near sp.
func (b *builder) resolve(expr string, env *typeEnv, sp source.Span) (types.TypeID, bool) {
	at := b.loc.find(expr, int(sp.Start))
	te, err := ParseType(expr)
	if err != nil {
		b.syntaxError(expr, err, sp)
		return types.NoTypeID, false
	}
	return b.convert(te, env, at)
}

func (b *builder) syntaxError(expr string, err error, sp source.Span) {
	at := b.loc.find(expr, int(sp.Start))
	var serr *SyntaxError
	if errors.As(err, &serr) {
		b.errorf(diag.ManBadTypeExpr, within(at, serr.Offset, 1), "%s in %q", serr.Msg, expr)
		return
	}
	b.errorf(diag.ManBadTypeExpr, at, "%v", err)
}

func (b *builder) convert(te *TypeExpr, env *typeEnv, at source.Span) (types.TypeID, bool) {
	in := b.in
	if te.Star {
		return in.Builtins().Star, true
	}
	var t types.TypeID
	switch {
	case te.Func:
		params := make([]types.TypeID, 0, len(te.Params))
		for _, p := range te.Params {
			pt, ok := b.convert(p, env, at)
			if !ok {
				return types.NoTypeID, false
			}
			params = append(params, pt)
		}
		ret, ok := b.convert(te.Result, env, at)
		if !ok {
			return types.NoTypeID, false
		}
		t = in.FunctionType(params, ret)
	default:
		var ok bool
		if t, ok = b.named(te, env, at); !ok {
			return types.NoTypeID, false
		}
	}
	if te.Nullable {
		t = in.WithNullable(t, true)
	}
	for i := len(te.Tags) - 1; i >= 0; i-- {
		tag := te.Tags[i]
		id, ok := in.ClassifierByKey(tag.Name)
		if !ok {
			b.errorf(diag.ManUnknownClassifier, within(at, tag.Offset, len(tag.Name)), "unknown classifier %s", tag.Name)
			return types.NoTypeID, false
		}
		cl := in.Classifier(id)
		if !cl.IsTag() {
			b.errorf(diag.ManBadTypeExpr, within(at, tag.Offset, len(tag.Name)), "%s is not a tag", tag.Name)
			return types.NoTypeID, false
		}
		if want := len(cl.TypeParams) - 1; want != len(tag.Args) {
			b.errorf(diag.ManArity, within(at, tag.Offset, len(tag.Name)), "tag %s expects %d type arguments, got %d", tag.Name, want, len(tag.Args))
			return types.NoTypeID, false
		}
		args := make([]types.TypeID, 0, len(tag.Args)+1)
		for _, a := range tag.Args {
			arg, ok := b.convert(a, env, at)
			if !ok {
				return types.NoTypeID, false
			}
			args = append(args, arg)
		}
		t = in.Apply(id, append(args, t)...)
	}
	return t, true
}

func (b *builder) named(te *TypeExpr, env *typeEnv, at source.Span) (types.TypeID, bool) {
	in := b.in
	sp := within(at, te.Offset, len(te.Name))
	if id, ok := env.lookup(te.Name); ok {
		if len(te.Args) > 0 {
			b.errorf(diag.ManArity, sp, "type parameter %s takes no type arguments", te.Name)
			return types.NoTypeID, false
		}
		return in.Apply(id), true
	}
	id, ok := in.ClassifierByKey(te.Name)
	if !ok {
		if m := functionName.FindStringSubmatch(te.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			id, ok = in.FunctionClassifier(n), true
		}
	}
	if !ok {
		b.errorf(diag.ManUnknownClassifier, sp, "unknown classifier %s", te.Name)
		return types.NoTypeID, false
	}
	cl := in.Classifier(id)
	if cl.IsTag() {
		b.errorf(diag.ManBadTypeExpr, sp, "tag %s used as a type; write @%s T", te.Name, te.Name)
		return types.NoTypeID, false
	}
	if len(cl.TypeParams) != len(te.Args) {
		b.errorf(diag.ManArity, sp, "%s expects %d type arguments, got %d", te.Name, len(cl.TypeParams), len(te.Args))
		return types.NoTypeID, false
	}
	args := make([]types.TypeID, 0, len(te.Args))
	for _, a := range te.Args {
		t, ok := b.convert(a.Type, env, at)
		if !ok {
			return types.NoTypeID, false
		}
		if a.Variance != types.Invariant {
			t = in.WithVariance(t, a.Variance)
		}
		args = append(args, t)
	}
	return in.Apply(id, args...), true
}

// addElements adds the lexical elements of one file. Parents must precede
// their children.
func (b *builder) addElements(path string, els []Element) {
	fileID := b.fileElem[path]
	var classes []struct {
		id        decl.ElementID
		companion string
		sp        source.Span
	}
	for _, e := range els {
		name := nfc(e.Name)
		sp := b.at(name)
		if name == "" {
			b.errorf(diag.ManInvalid, sp, "element without name")
			continue
		}
		if _, dup := b.elements[name]; dup {
			b.errorf(diag.ManDuplicateKey, sp, "element %s declared twice", name)
			continue
		}
		kind, ok := decl.ParseElementKind(e.Kind)
		if !ok || kind == decl.ElemFile {
			b.errorf(diag.ManBadKind, b.loc.find(e.Kind, int(sp.Start)), "unknown element kind %q", e.Kind)
			continue
		}
		parent := fileID
		if p := nfc(e.Parent); p != "" {
			if parent, ok = b.elements[p]; !ok {
				b.errorf(diag.ManUnknownElement, b.loc.find(p, int(sp.Start)), "unknown parent element %s", p)
				continue
			}
		}
		index := decl.Whole
		if e.Index != nil {
			index = *e.Index
		}
		el := decl.Element{Kind: kind, Name: name, Parent: parent, Index: index, File: path}
		env := &typeEnv{names: make(map[string]types.ClassifierID), parent: b.envOf[parent]}
		if !b.elementInfo(&el, e, env, sp) {
			continue
		}
		id := b.idx.AddElement(el)
		b.elements[name] = id
		b.children[parent] = append(b.children[parent], id)
		b.envOf[id] = env
		if kind == decl.ElemClass && e.Companion != "" {
			classes = append(classes, struct {
				id        decl.ElementID
				companion string
				sp        source.Span
			}{id, nfc(e.Companion), sp})
		}
	}
	for _, c := range classes {
		comp, ok := b.elements[c.companion]
		if el, found := b.idx.Element(comp); !ok || !found || el.Kind != decl.ElemClass {
			b.errorf(diag.ManUnknownElement, b.loc.find(c.companion, int(c.sp.Start)), "unknown companion class %s", c.companion)
			continue
		}
		b.idx.SetCompanion(c.id, comp)
	}
}

func (b *builder) elementInfo(el *decl.Element, e Element, env *typeEnv, sp source.Span) bool {
	switch el.Kind {
	case decl.ElemClass:
		cls, ok := b.in.ClassifierByKey(el.Name)
		if !ok {
			b.errorf(diag.ManUnknownClassifier, sp, "class element %s has no classifier", el.Name)
			return false
		}
		if ce := b.classEnv[cls]; ce != nil {
			for n, id := range ce.names {
				env.names[n] = id
			}
		}
		self := b.in.DefaultType(cls)
		if e.Self != "" {
			if self, ok = b.resolve(e.Self, env, sp); !ok {
				return false
			}
		}
		el.Class = &decl.ClassInfo{
			Classifier: cls,
			Self:       self,
			TypeParams: b.in.Classifier(cls).TypeParams,
			Inner:      e.Inner,
		}
	case decl.ElemFunction, decl.ElemLambda:
		fn := &decl.FunctionInfo{TypeParams: b.declareTypeParams(el.Name, e.TypeParams, env, sp)}
		b.boundTypeParams(e.TypeParams, env, sp)
		if e.Receiver != "" {
			t, ok := b.resolve(e.Receiver, env, sp)
			if !ok {
				return false
			}
			fn.Receiver = t
		}
		for _, p := range e.Params {
			t, ok := b.resolve(p.Type, env, sp)
			if !ok {
				return false
			}
			if p.FrameworkKey != "" {
				t = b.in.WithFrameworkKey(t, p.FrameworkKey)
			}
			fn.Params = append(fn.Params, decl.FunctionParam{Name: nfc(p.Name), Type: t, Provide: p.Provide})
		}
		el.Function = fn
	case decl.ElemProperty:
		prop := &decl.PropertyInfo{TypeParams: b.declareTypeParams(el.Name, e.TypeParams, env, sp)}
		b.boundTypeParams(e.TypeParams, env, sp)
		if e.Receiver != "" {
			t, ok := b.resolve(e.Receiver, env, sp)
			if !ok {
				return false
			}
			prop.Receiver = t
		}
		el.Property = prop
	case decl.ElemBlock:
		info := &decl.BlockInfo{}
		for _, d := range e.Statements {
			if c := b.callable(d, el.File, b.world.Module, env); c != nil {
				info.Statements = append(info.Statements, c)
			}
		}
		el.Block = info
	}
	return true
}

func (b *builder) callSite(cs CallSiteDecl) *CallSite {
	name := nfc(cs.Name)
	sp := b.at(name)
	if name == "" {
		b.errorf(diag.ManInvalid, sp, "call site without name")
		return nil
	}
	file := nfc(cs.File)
	cur, ok := b.fileElem[file]
	if !ok || b.idx.FileModule(file) != b.world.Module {
		b.errorf(diag.ManUnknownElement, b.loc.find(file, int(sp.Start)), "call site %s: unknown file %q", name, file)
		return nil
	}
	for _, step := range cs.Path {
		kindName, elName, _ := strings.Cut(nfc(strings.TrimSpace(step)), " ")
		kind, ok := decl.ParseElementKind(kindName)
		if !ok {
			b.errorf(diag.ManBadKind, b.loc.find(step, int(sp.Start)), "unknown element kind %q", kindName)
			return nil
		}
		next, found := b.child(cur, kind, strings.TrimSpace(elName))
		if !found {
			b.errorf(diag.ManUnknownElement, b.loc.find(step, int(sp.Start)), "call site %s: no %s element %q", name, kindName, elName)
			return nil
		}
		cur = next
	}
	index := decl.Whole
	if cs.Index != nil {
		index = *cs.Index
	}
	params, ok := b.params(cs.Requests, b.envOf[cur], sp)
	if !ok {
		return nil
	}
	return &CallSite{
		Name:     name,
		File:     file,
		Position: decl.Position{Element: cur, Index: index},
		Callee: &decl.Callable{
			Key:    "callsite:" + name,
			FqName: name,
			Kind:   decl.KindFunction,
			Params: params,
			Module: b.world.Module,
			File:   file,
			Span:   sp,
		},
		Span: sp,
	}
}

// child finds the first child of parent with kind and, when given, name.
func (b *builder) child(parent decl.ElementID, kind decl.ElementKind, name string) (decl.ElementID, bool) {
	for _, id := range b.children[parent] {
		el, _ := b.idx.Element(id)
		if el.Kind == kind && (name == "" || el.Name == name) {
			return id, true
		}
	}
	return decl.NoElement, false
}

func nfc(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
