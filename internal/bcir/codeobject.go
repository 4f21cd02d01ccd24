// Package bcir models a loaded bytecode code object: a constants pool,
// names tables, and a linear instruction stream with byte offsets.
// Producing this structure from a serialized file is the bytecode
// compiler's job, an external collaborator, so this package only defines
// the shape and a small set of loader implementations; it does not parse
// any particular on-disk bytecode format beyond the msgpack wire format
// defined here.
package bcir

// ConstKind is the tag of a constants-pool entry.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstBool
	ConstString
	ConstNone
	ConstCode
)

// Const is one entry of co_consts. Exactly one payload field is populated,
// selected by Kind; ConstCode nests a full CodeObject for functions,
// methods, and class bodies compiled as constants of their enclosing scope.
type Const struct {
	Kind ConstKind
	I    int64
	F    float64
	B    bool
	S    string
	Code *CodeObject
}

// Instruction is one decoded bytecode instruction.
type Instruction struct {
	Op        string
	Arg       int
	HasArg    bool
	Offset    int
	StartLine int // 0 when the loader did not attach a line table entry
}

// CodeObject is the translator's sole input: one compiled unit (module,
// function, or class body).
type CodeObject struct {
	Filename    string
	Name        string // "<module>" for the top-level object
	Consts      []Const
	Names       []string // co_names: global name references
	VarNames    []string // co_varnames: local variable slots
	ArgCount    int
	Flags       int
	Instructions []Instruction
}
