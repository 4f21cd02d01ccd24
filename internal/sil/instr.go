package sil

// InstrKind enumerates the instruction grammar of :
//   store &lval <- rhs: *T
//   n = rhs                     (id binding)
//   n:*T = load &lval
//   n = base.?.attr
//   store base.?.attr <- v:*T
//   jmp label(args...)          (one or two targets)
//   prune e / prune __sil_lnot(e)
//   ret e
type InstrKind uint8

const (
	InstrStore InstrKind = iota
	InstrBind
	InstrLoad
	InstrGetAttr
	InstrSetAttr
	InstrJmp
	InstrPrune
	InstrRet
)

// Instr is a single Textual IR instruction. Exactly one of the variant
// fields is populated, selected by Kind — the same tagged-union shape
// used for MIR instructions and terminators.
type Instr struct {
	Kind InstrKind

	Store   StoreInstr
	Bind    BindInstr
	Load    LoadInstr
	GetAttr GetAttrInstr
	SetAttr SetAttrInstr
	Jmp     JmpInstr
	Prune   PruneInstr
	Ret     RetInstr
}

// Lval is the left-hand side of a store: a global or a local. Attribute
// stores use SetAttrInstr instead.
type LvalKind uint8

const (
	LvalGlobal LvalKind = iota
	LvalLocal
)

type Lval struct {
	Kind LvalKind
	Name string // qualified name for globals, bare name for locals
}

// StoreInstr is `store &lval <- rhs: *T`.
type StoreInstr struct {
	Dst Lval
	Rhs Value
	Typ ValueType
}

// BindInstr is `n = rhs` — binds a fresh id to an expression's value.
// Rhs is a call, builtin call, or other value-producing expression encoded
// as a Value with Kind != VTemp/VConst-only (see Value.Call*).
type BindInstr struct {
	Dst string
	Rhs Value
}

// LoadInstr is `n:*T = load &lval`.
type LoadInstr struct {
	Dst string
	Typ ValueType
	Src Lval
}

// GetAttrInstr is `n = base.?.attr`.
type GetAttrInstr struct {
	Dst  string
	Base Value
	Attr string
}

// SetAttrInstr is `store base.?.attr <- v:*T`.
type SetAttrInstr struct {
	Base Value
	Attr string
	Rhs  Value
	Typ  ValueType
}

// JmpInstr closes a block with one or two successors, each supplied with
// the live SSA arguments carried across the join.
type JmpTarget struct {
	Label string
	Args  []Value
}

type JmpInstr struct {
	Targets []JmpTarget // len 1 (unconditional) or 2 (conditional: [true, false])
}

// PruneInstr narrows a conditional arm: `prune e` or `prune __sil_lnot(e)`.
type PruneInstr struct {
	Operand Value
	Negate  bool
}

// RetInstr is `ret e`.
type RetInstr struct {
	Value Value
}

// ValueKind is the closed set of expression shapes that can appear as an
// instruction operand or on the right-hand side of a bind.
type ValueKind uint8

const (
	VConst ValueKind = iota
	VTemp
	VLval
	VCall
	VBuiltinCall
	VBuiltinRef
	VNull
)

// Const is a materialized literal.
type ConstKind uint8

const (
	CInt ConstKind = iota
	CFloat
	CBool
	CString
)

type Const struct {
	Kind ConstKind
	I    int64
	F    float64
	B    bool
	S    string
}

// Call is a direct call to a known user procedure.
type Call struct {
	Callee QualifiedName
	Args   []Value
}

// BuiltinCall is a call to a `$builtins.<name>` shim.
type BuiltinCall struct {
	Name string
	Args []Value
}

// Value is a tagged operand: a constant, a previously-bound temporary, an
// lvalue read, or a nested call expression (used as a Bind's Rhs or
// inlined as a store's Rhs).
type Value struct {
	Kind ValueKind

	Const       Const
	Temp        string
	Lval        Lval
	Call        Call
	BuiltinCall BuiltinCall
	BuiltinRef  string
}

func ConstInt(n int64) Value       { return Value{Kind: VConst, Const: Const{Kind: CInt, I: n}} }
func ConstFloat(f float64) Value   { return Value{Kind: VConst, Const: Const{Kind: CFloat, F: f}} }
func ConstBool(b bool) Value       { return Value{Kind: VConst, Const: Const{Kind: CBool, B: b}} }
func ConstString(s string) Value   { return Value{Kind: VConst, Const: Const{Kind: CString, S: s}} }
func Null() Value                  { return Value{Kind: VNull} }
func Temp(name string) Value       { return Value{Kind: VTemp, Temp: name} }
func Global(name string) Value     { return Value{Kind: VLval, Lval: Lval{Kind: LvalGlobal, Name: name}} }
func Local(name string) Value      { return Value{Kind: VLval, Lval: Lval{Kind: LvalLocal, Name: name}} }
func DirectCall(callee QualifiedName, args []Value) Value {
	return Value{Kind: VCall, Call: Call{Callee: callee, Args: args}}
}
func BuiltinCallValue(name string, args []Value) Value {
	return Value{Kind: VBuiltinCall, BuiltinCall: BuiltinCall{Name: name, Args: args}}
}
func BuiltinRef(name string) Value {
	return Value{Kind: VBuiltinRef, BuiltinRef: name}
}
