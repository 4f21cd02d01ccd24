// Package builtin is the Builtin Registry: it tracks which
// internal "shim" builtins the translator referenced while lowering
// instructions, and emits their declarations on demand.
package builtin

import (
	"sort"

	"silgen/internal/sil"
)

// Tag names a fixed internal shim builtin with a known IR signature.
type Tag string

const (
	IsTrue                 Tag = "python_is_true"
	BinaryAdd              Tag = "binary_add"
	PythonCall             Tag = "python_call"
	PythonCallMethod       Tag = "python_call_method"
	PythonClass            Tag = "python_class"
	PythonClassConstructor Tag = "python_class_constructor"
	PythonCode             Tag = "python_code"
	PythonIter             Tag = "python_iter"
	PythonIterNext         Tag = "python_iter_next"
	PythonLoadMethod       Tag = "python_load_method"
)

// signatures is the fixed catalog of shim signatures.
var signatures = map[Tag]sil.BuiltinDecl{
	IsTrue:                 {Name: string(IsTrue), Params: []sil.ValueType{sil.Object()}, Return: sil.Int()},
	BinaryAdd:              {Name: string(BinaryAdd), Params: []sil.ValueType{sil.Object(), sil.Object()}, Return: sil.Object()},
	PythonCall:             {Name: string(PythonCall), Params: []sil.ValueType{sil.Object()}, Return: sil.Object(), Variadic: true},
	PythonCallMethod:       {Name: string(PythonCallMethod), Params: []sil.ValueType{sil.Method()}, Return: sil.Object(), Variadic: true},
	PythonClass:            {Name: string(PythonClass), Params: []sil.ValueType{sil.String()}, Return: sil.Class()},
	PythonClassConstructor: {Name: string(PythonClassConstructor), Params: []sil.ValueType{sil.String()}, Return: sil.Object(), Variadic: true},
	PythonCode:             {Name: string(PythonCode), Params: nil, Return: sil.Code()},
	PythonIter:             {Name: string(PythonIter), Params: []sil.ValueType{sil.Object()}, Return: sil.Object()},
	PythonIterNext:         {Name: string(PythonIterNext), Params: []sil.ValueType{sil.Object()}, Return: sil.IterItem()},
	PythonLoadMethod:       {Name: string(PythonLoadMethod), Params: []sil.ValueType{sil.Object(), sil.String()}, Return: sil.Method()},
}

// alwaysEmitted is the unconditional set of primitive-wrapper declarations.
var alwaysEmitted = []sil.BuiltinDecl{
	{Name: "python_int", Params: []sil.ValueType{sil.Int()}, Return: sil.Object()},
	{Name: "python_bool", Params: []sil.ValueType{sil.Bool()}, Return: sil.Object()},
	{Name: "python_string", Params: []sil.ValueType{sil.String()}, Return: sil.Object()},
	{Name: "python_tuple", Params: nil, Return: sil.Object(), Variadic: true},
}

// defaultHostSignatures is the fixed set of language builtins the
// translator recognizes by name without any project configuration.
var defaultHostSignatures = map[string]sil.BuiltinDecl{
	"print": {Name: "print", Params: []sil.ValueType{sil.Object()}, Return: sil.None(), Variadic: true},
	"range": {Name: "range", Params: []sil.ValueType{sil.Int()}, Return: sil.Object(), Variadic: true},
	"len":   {Name: "len", Params: []sil.ValueType{sil.Object()}, Return: sil.Int()},
}

// ExtraDecl is one project-declared host builtin signature, its parameter
// and return type names already resolved to sil.ValueType.
type ExtraDecl struct {
	Name     string
	Params   []sil.ValueType
	Return   sil.ValueType
	Variadic bool
}

// Registry tracks which builtins have been referenced while lowering
// instructions. It is module-scoped.
type Registry struct {
	seen     map[Tag]bool
	hostSeen map[string]bool
	rename   map[string]string
	extra    map[string]sil.BuiltinDecl
}

// New returns an empty Registry with no project-level builtin
// customization.
func New() *Registry {
	return NewWithConfig(nil, nil)
}

// NewWithConfig returns an empty Registry that additionally recognizes the
// names in extra as host builtins with the given signatures, and emits
// rename's mapped name in place of a builtin's canonical name at both its
// call sites and its declare, for a downstream verifier whose $builtins
// namespace uses different names.
func NewWithConfig(rename map[string]string, extra []ExtraDecl) *Registry {
	extraMap := make(map[string]sil.BuiltinDecl, len(extra))
	for _, d := range extra {
		extraMap[d.Name] = sil.BuiltinDecl{Name: d.Name, Params: d.Params, Return: d.Return, Variadic: d.Variadic}
	}
	return &Registry{
		seen:     make(map[Tag]bool),
		hostSeen: make(map[string]bool),
		rename:   rename,
		extra:    extraMap,
	}
}

// Record marks tag as referenced.
func (r *Registry) Record(tag Tag) {
	r.seen[tag] = true
}

// RecordHost marks a host-provided builtin (e.g. "print", "range") as
// referenced, keyed by its canonical name (rename is applied only at
// emission, in EmitName/ToDecls). Host builtins fall outside the fixed
// shim catalog: any callee the translator resolves to a name it
// recognizes as a language builtin, rather than a user function, goes
// through this path.
func (r *Registry) RecordHost(name string) {
	r.hostSeen[name] = true
}

// DefaultHostNames returns the fixed set of host builtin names the
// translator recognizes without any project configuration, for seeding
// the Symbol Registry before translation starts.
func DefaultHostNames() []string {
	out := make([]string, 0, len(defaultHostSignatures))
	for name := range defaultHostSignatures {
		out = append(out, name)
	}
	return out
}

// IsKnownHost reports whether name is a language builtin this translator
// recognizes by name: one of the fixed defaults, or a project manifest's
// [[builtins.extra]] declaration.
func (r *Registry) IsKnownHost(name string) bool {
	if _, ok := defaultHostSignatures[name]; ok {
		return true
	}
	_, ok := r.extra[name]
	return ok
}

// EmitName returns the name a host builtin's call site and declare should
// carry in the emitted IR: name itself, unless a project manifest's
// [builtins.rename] table maps it to something else.
func (r *Registry) EmitName(name string) string {
	if renamed, ok := r.rename[name]; ok {
		return renamed
	}
	return name
}

// hostSignature returns the declared shape for a known host builtin, or a
// generic variadic-Object shape for anything else. A project's extra
// declaration takes precedence over a default of the same name.
func (r *Registry) hostSignature(name string) sil.BuiltinDecl {
	if decl, ok := r.extra[name]; ok {
		return decl
	}
	if decl, ok := defaultHostSignatures[name]; ok {
		return decl
	}
	return sil.BuiltinDecl{Name: name, Params: nil, Return: sil.Object(), Variadic: true}
}

// ToDecls emits the transitive closure of actually-called builtins plus
// the always-emitted primitive wrappers. Fixed
// shims come first in catalog-declaration order, then host builtins
// sorted by their canonical name (before any rename is applied to the
// name field), so translating the same code object twice yields
// byte-identical output.
func (r *Registry) ToDecls() []sil.BuiltinDecl {
	out := make([]sil.BuiltinDecl, 0, len(r.seen)+len(r.hostSeen)+len(alwaysEmitted))
	for _, tag := range catalogOrder {
		if r.seen[tag] {
			out = append(out, signatures[tag])
		}
	}
	hosts := make([]string, 0, len(r.hostSeen))
	for name := range r.hostSeen {
		hosts = append(hosts, name)
	}
	sort.Strings(hosts)
	for _, name := range hosts {
		decl := r.hostSignature(name)
		decl.Name = r.EmitName(name)
		out = append(out, decl)
	}
	out = append(out, alwaysEmitted...)
	return out
}

// UsesIter reports whether either iteration shim was referenced, which
// gates emission of the PyIterItem record type.
func (r *Registry) UsesIter() bool {
	return r.seen[PythonIter] || r.seen[PythonIterNext]
}

// UsesMethod reports whether the method-call shims were referenced, which
// gates emission of the PyMethod record type.
func (r *Registry) UsesMethod() bool {
	return r.seen[PythonLoadMethod] || r.seen[PythonCallMethod]
}

var catalogOrder = []Tag{
	IsTrue, BinaryAdd, PythonCall, PythonCallMethod, PythonClass,
	PythonClassConstructor, PythonCode, PythonIter, PythonIterNext,
	PythonLoadMethod,
}
