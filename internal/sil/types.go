// Package sil defines the Textual IR data model this translator emits:
// typed procedures, basic blocks with SSA parameters, global and record
// type declarations, and external builtin declarations.
//
// This package models the translator's *output* contract. The pretty
// printer in print.go is a convenience for tests and the CLI, not the
// downstream verifier — that remains an external collaborator.
package sil

// Type is the closed set of IR value types.
type Type uint8

const (
	TObject Type = iota
	TInt
	TFloat
	TBool
	TString
	TNone
	TCode
	TClass
	TPyIterItem
	TMethod
	// TRecord marks a user-defined record type; RecordName carries the name.
	TRecord
)

// ValueType pairs a Type with the record name when Kind == TRecord.
type ValueType struct {
	Kind       Type
	RecordName string
}

func Object() ValueType   { return ValueType{Kind: TObject} }
func Int() ValueType      { return ValueType{Kind: TInt} }
func Float() ValueType    { return ValueType{Kind: TFloat} }
func Bool() ValueType     { return ValueType{Kind: TBool} }
func String() ValueType   { return ValueType{Kind: TString} }
func None() ValueType     { return ValueType{Kind: TNone} }
func Code() ValueType     { return ValueType{Kind: TCode} }
func Class() ValueType    { return ValueType{Kind: TClass} }
func IterItem() ValueType { return ValueType{Kind: TPyIterItem} }
func Method() ValueType   { return ValueType{Kind: TMethod} }
func Record(name string) ValueType {
	return ValueType{Kind: TRecord, RecordName: name}
}

// ParseType resolves one of the non-record type names ValueType.String()
// produces (e.g. "PyObject", "PyInt") back into a ValueType, for decoding
// a project manifest's extra-builtin parameter/return type names.
func ParseType(name string) (ValueType, bool) {
	switch name {
	case "PyObject":
		return Object(), true
	case "PyInt":
		return Int(), true
	case "PyFloat":
		return Float(), true
	case "PyBool":
		return Bool(), true
	case "PyString":
		return String(), true
	case "PyNone":
		return None(), true
	case "PyCode":
		return Code(), true
	case "PyClass":
		return Class(), true
	case "PyIterItem":
		return IterItem(), true
	case "PyMethod":
		return Method(), true
	default:
		return ValueType{}, false
	}
}

func (t ValueType) String() string {
	switch t.Kind {
	case TObject:
		return "PyObject"
	case TInt:
		return "PyInt"
	case TFloat:
		return "PyFloat"
	case TBool:
		return "PyBool"
	case TString:
		return "PyString"
	case TNone:
		return "PyNone"
	case TCode:
		return "PyCode"
	case TClass:
		return "PyClass"
	case TPyIterItem:
		return "PyIterItem"
	case TMethod:
		return "PyMethod"
	case TRecord:
		return t.RecordName
	default:
		return "?"
	}
}

// QualifiedName is a dotted identifier locating a symbol within a module or
// class, e.g. "Module::fn" or "Module::Class::method".
type QualifiedName struct {
	Value string
	Loc   Loc
}

// Loc is a source location, carried through for diagnostics; the loader
// supplies it from the original bytecode's line-table.
type Loc struct {
	File string
	Line int
}

// Param is a formal parameter of a procedure or a block's SSA parameter.
type Param struct {
	Name string
	Type ValueType
}

// Field is a record type field.
type Field struct {
	Name string
	Type ValueType
}

// RecordDecl is a `type Name = {field: *T; ...}` declaration.
type RecordDecl struct {
	Name   string
	Fields []Field
}

// GlobalDecl is a `global <qualified_name>: *T` declaration.
type GlobalDecl struct {
	Name QualifiedName
	Type ValueType
}

// BuiltinDecl is a `declare $builtins.<name>(params): *T` declaration.
type BuiltinDecl struct {
	Name    string
	Params  []ValueType
	Return  ValueType
	Variadic bool
}

// Proc is a `define <qualified_name>(param: *T, ...) : *R { <blocks> }`.
type Proc struct {
	Name    QualifiedName
	Params  []Param
	Return  ValueType
	Blocks  []Block
	IsClassMethod bool
}

// Block is `#label(params): instr...`.
type Block struct {
	Label  string
	Params []Param
	Instrs []Instr
}

// Module is the top-level translation unit.
type Module struct {
	SourceLanguage string
	Procs          []Proc
	Globals        []GlobalDecl
	Records        []RecordDecl
	Builtins       []BuiltinDecl
}
