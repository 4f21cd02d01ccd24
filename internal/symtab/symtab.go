// Package symtab is the Symbol & Type Registry: it records global and
// local symbol definitions, their qualified names, and coarse type info,
// plus function/method signatures and the set of user classes.
package symtab

import "silgen/internal/sil"

// Info is the {is_code, is_class, typ} triple attached to symbols and
// temporaries.
type Info struct {
	IsCode  bool
	IsClass bool
	Type    sil.ValueType
}

// SymbolInfo is {qualified_name, is_builtin, info}.
type SymbolInfo struct {
	QualifiedName sil.QualifiedName
	IsBuiltin     bool
	Info          Info
}

// Param is an annotated parameter of a registered function or method
// signature.
type Param struct {
	Name string
	Type sil.ValueType
}

// Signature is a function or method's annotated parameter list plus return
// type, keyed by (enclosing_class_or_module, name) in the Registry.
type Signature struct {
	Params []Param
	Return sil.ValueType
}

// Registry is a mapping name -> symbol_info in two scopes (global, local);
// local shadows global for lookup. It is procedure-scoped for locals and
// module-scoped for globals, functions, and classes.
//
// The source language's shadowing semantics are preserved literally: a
// symbol registered twice in the same (scope, name) overwrites, it is not
// an error.
type Registry struct {
	globals     map[string]SymbolInfo
	globalOrder []string
	locals      map[string]SymbolInfo

	signatures  map[sigKey]Signature
	classFields map[string]map[string]sil.ValueType // class -> field -> type
	fieldOrder  map[string][]string                 // class -> fields in first-write order
	classOrder  []string
}

type sigKey struct {
	enclosing string
	name      string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		globals:     make(map[string]SymbolInfo),
		locals:      make(map[string]SymbolInfo),
		signatures:  make(map[sigKey]Signature),
		classFields: make(map[string]map[string]sil.ValueType),
		fieldOrder:  make(map[string][]string),
	}
}

// ResetLocals clears the local scope, e.g. on entering a new procedure.
// Globals, signatures, and classes persist across procedures within one
// module translation.
func (r *Registry) ResetLocals() {
	r.locals = make(map[string]SymbolInfo)
}

// RegisterSymbol inserts name into the requested scope, overwriting any
// prior entry — the source language's shadowing semantics. First
// registration of a global name fixes its declaration order, which
// Globals() preserves for deterministic output regardless of Go's
// unordered map iteration. It reports whether name already had an entry
// in that scope, so callers can surface shadowing as an advisory
// diagnostic without this package depending on the diagnostics model.
func (r *Registry) RegisterSymbol(isGlobal bool, name string, info SymbolInfo) (shadowed bool) {
	if isGlobal {
		_, existed := r.globals[name]
		if !existed {
			r.globalOrder = append(r.globalOrder, name)
		}
		r.globals[name] = info
		return existed
	}
	_, existed := r.locals[name]
	r.locals[name] = info
	return existed
}

// Globals returns every registered global symbol that is neither a
// function nor a class (those are emitted as `define` procedures and
// `type` record declarations respectively, not `global` declarations),
// in first-registration order.
func (r *Registry) Globals() []SymbolInfo {
	out := make([]SymbolInfo, 0, len(r.globalOrder))
	for _, name := range r.globalOrder {
		info := r.globals[name]
		if info.Info.IsCode || info.Info.IsClass || info.IsBuiltin {
			continue
		}
		out = append(out, info)
	}
	return out
}

// LookupSymbol looks a name up in the requested scope only; callers decide
// scope ordering (locals-then-globals is the usual source-language rule).
func (r *Registry) LookupSymbol(isGlobal bool, name string) (SymbolInfo, bool) {
	scope := r.globals
	if !isGlobal {
		scope = r.locals
	}
	info, ok := scope[name]
	return info, ok
}

// Lookup resolves name through locals then globals, the ordering the
// instruction lowering rules use for LOAD_NAME.
func (r *Registry) Lookup(name string) (SymbolInfo, bool) {
	if info, ok := r.locals[name]; ok {
		return info, true
	}
	if info, ok := r.globals[name]; ok {
		return info, true
	}
	return SymbolInfo{}, false
}

// RegisterFunction records a function's signature keyed by (module, name).
func (r *Registry) RegisterFunction(enclosing, name string, sig Signature) {
	r.signatures[sigKey{enclosing, name}] = sig
}

// RegisterMethod records a method's signature keyed by (class, name).
func (r *Registry) RegisterMethod(class, name string, sig Signature) {
	r.signatures[sigKey{class, name}] = sig
}

// LookupSignature looks up a previously registered function or method
// signature.
func (r *Registry) LookupSignature(enclosing, name string) (Signature, bool) {
	sig, ok := r.signatures[sigKey{enclosing, name}]
	return sig, ok
}

// RegisterClass records name as a known user class, emitted later as a
// record type declaration.
func (r *Registry) RegisterClass(name string) {
	if _, ok := r.classFields[name]; ok {
		return
	}
	r.classFields[name] = make(map[string]sil.ValueType)
	r.classOrder = append(r.classOrder, name)
}

// IsClass reports whether name has been registered as a user class.
func (r *Registry) IsClass(name string) bool {
	_, ok := r.classFields[name]
	return ok
}

// Classes returns the registered class names in first-registration order.
func (r *Registry) Classes() []string {
	out := make([]string, len(r.classOrder))
	copy(out, r.classOrder)
	return out
}

// RecordField infers a class record field from a `self.<attr> = e:*T`
// store in the class body. The first type seen for a field wins;
// unannotated stores default to Object at the call site, not here.
func (r *Registry) RecordField(class, field string, typ sil.ValueType) {
	fields, ok := r.classFields[class]
	if !ok {
		r.RegisterClass(class)
		fields = r.classFields[class]
	}
	if _, exists := fields[field]; exists {
		return
	}
	fields[field] = typ
	r.fieldOrder[class] = append(r.fieldOrder[class], field)
}

// ClassRecord materializes the record type declaration for a registered
// class, fields in first-write order, so translation stays deterministic
// without relying on Go map order.
func (r *Registry) ClassRecord(class string) []sil.Field {
	fields := r.classFields[class]
	order := r.fieldOrder[class]
	out := make([]sil.Field, 0, len(order))
	for _, name := range order {
		out = append(out, sil.Field{Name: name, Type: fields[name]})
	}
	return out
}
