package lower

import (
	"testing"

	"silgen/internal/bcir"
	"silgen/internal/config"
	"silgen/internal/sil"
	"silgen/internal/testkit"
)

// simpleAssignCodeObject builds the code object for a one-line module: `x = 42`.
// LOAD_CONST 0 pushes the literal, STORE_NAME 0 binds it to the module
// global "x", then an implicit RETURN_VALUE of None closes the module body
// the way a compiler appends after the last top-level statement.
func simpleAssignCodeObject() *bcir.CodeObject {
	return &bcir.CodeObject{
		Filename: "coin.pyc",
		Name:     "<module>",
		Consts: []bcir.Const{
			{Kind: bcir.ConstInt, I: 42},
			{Kind: bcir.ConstNone},
		},
		Names: []string{"x"},
		Instructions: []bcir.Instruction{
			{Op: "LOAD_CONST", Arg: 0, HasArg: true, Offset: 0, StartLine: 1},
			{Op: "STORE_NAME", Arg: 0, HasArg: true, Offset: 2, StartLine: 1},
			{Op: "LOAD_CONST", Arg: 1, HasArg: true, Offset: 4, StartLine: 2},
			{Op: "RETURN_VALUE", Offset: 6, StartLine: 2},
		},
	}
}

func TestToModuleSimpleAssignment(t *testing.T) {
	mod, diags, err := ToModule("coin.pyc", simpleAssignCodeObject(), 0, config.BuiltinsConfig{})
	if err != nil {
		t.Fatalf("ToModule: %v", err)
	}
	if diags == nil {
		t.Fatalf("expected a non-nil diagnostics bag")
	}
	if diags.HasErrors() {
		t.Fatalf("expected no errors translating a plain assignment, got %+v", diags.Items())
	}

	if len(mod.Globals) != 1 || mod.Globals[0].Name.Value != "coin::x" {
		t.Fatalf("expected exactly one global coin::x, got %+v", mod.Globals)
	}
	if mod.Globals[0].Type != sil.Object() {
		t.Fatalf("expected the global to be typed Object, got %v", mod.Globals[0].Type)
	}

	if len(mod.Procs) != 1 {
		t.Fatalf("expected exactly one procedure, got %d", len(mod.Procs))
	}
	proc := mod.Procs[0]
	if proc.Name.Value != "coin" {
		t.Fatalf("expected the toplevel proc to be named coin, got %q", proc.Name.Value)
	}
	if len(proc.Blocks) != 1 {
		t.Fatalf("expected a single basic block (no control flow), got %d", len(proc.Blocks))
	}

	block := proc.Blocks[0]
	if len(block.Instrs) != 2 {
		t.Fatalf("expected exactly a store then a ret, got %d instructions: %+v", len(block.Instrs), block.Instrs)
	}

	store := block.Instrs[0]
	if store.Kind != sil.InstrStore {
		t.Fatalf("expected the first instruction to be a store, got %v", store.Kind)
	}
	if store.Store.Dst.Kind != sil.LvalGlobal || store.Store.Dst.Name != "coin::x" {
		t.Fatalf("expected a store to &coin::x, got %+v", store.Store.Dst)
	}
	if store.Store.Rhs.Kind != sil.VBuiltinCall || store.Store.Rhs.BuiltinCall.Name != "python_int" {
		t.Fatalf("expected the stored value to be python_int(42), got %+v", store.Store.Rhs)
	}
	if len(store.Store.Rhs.BuiltinCall.Args) != 1 || store.Store.Rhs.BuiltinCall.Args[0].Const.I != 42 {
		t.Fatalf("expected python_int's sole argument to be the constant 42, got %+v", store.Store.Rhs.BuiltinCall.Args)
	}

	ret := block.Instrs[1]
	if ret.Kind != sil.InstrRet || ret.Ret.Value.Kind != sil.VNull {
		t.Fatalf("expected the block to end in ret null, got %+v", ret)
	}

	foundPrimitives := map[string]bool{}
	for _, b := range mod.Builtins {
		foundPrimitives[b.Name] = true
	}
	for _, want := range []string{"python_int", "python_bool", "python_string", "python_tuple"} {
		if !foundPrimitives[want] {
			t.Fatalf("expected the always-emitted wrapper %q among builtins, got %+v", want, mod.Builtins)
		}
	}

	if err := testkit.CheckBlocksTerminated(mod); err != nil {
		t.Fatalf("CheckBlocksTerminated: %v", err)
	}
	if err := testkit.CheckSSAArity(mod); err != nil {
		t.Fatalf("CheckSSAArity: %v", err)
	}
	if err := testkit.CheckBuiltinClosure(mod); err != nil {
		t.Fatalf("CheckBuiltinClosure: %v", err)
	}
	if err := testkit.CheckSymbolClosure(mod); err != nil {
		t.Fatalf("CheckSymbolClosure: %v", err)
	}
	if err := testkit.CheckClassFields(mod); err != nil {
		t.Fatalf("CheckClassFields: %v", err)
	}
}

// hostBuiltinCallCodeObject builds the code object for:
//
//	x = 1
//	if x:
//	    print(x)
//	else:
//	    print(0)
//
// exercising the Name resolution family's host-builtin branch (LOAD_NAME
// "print" resolving to $builtins.print rather than a load of an
// undeclared global) across both arms of a conditional join.
func hostBuiltinCallCodeObject() *bcir.CodeObject {
	return &bcir.CodeObject{
		Filename: "coin.pyc",
		Name:     "<module>",
		Consts: []bcir.Const{
			{Kind: bcir.ConstInt, I: 1},
			{Kind: bcir.ConstInt, I: 0},
			{Kind: bcir.ConstNone},
		},
		Names: []string{"x", "print"},
		Instructions: []bcir.Instruction{
			{Op: "LOAD_CONST", Arg: 0, HasArg: true, Offset: 0, StartLine: 1},
			{Op: "STORE_NAME", Arg: 0, HasArg: true, Offset: 2, StartLine: 1},
			{Op: "LOAD_NAME", Arg: 0, HasArg: true, Offset: 4, StartLine: 2},
			{Op: "POP_JUMP_IF_FALSE", Arg: 18, HasArg: true, Offset: 6, StartLine: 2},
			{Op: "LOAD_NAME", Arg: 1, HasArg: true, Offset: 8, StartLine: 3},
			{Op: "LOAD_NAME", Arg: 0, HasArg: true, Offset: 10, StartLine: 3},
			{Op: "CALL_FUNCTION", Arg: 1, HasArg: true, Offset: 12, StartLine: 3},
			{Op: "POP_TOP", Offset: 14, StartLine: 3},
			{Op: "JUMP_FORWARD", Arg: 26, HasArg: true, Offset: 16, StartLine: 3},
			{Op: "LOAD_NAME", Arg: 1, HasArg: true, Offset: 18, StartLine: 5},
			{Op: "LOAD_CONST", Arg: 1, HasArg: true, Offset: 20, StartLine: 5},
			{Op: "CALL_FUNCTION", Arg: 1, HasArg: true, Offset: 22, StartLine: 5},
			{Op: "POP_TOP", Offset: 24, StartLine: 5},
			{Op: "LOAD_CONST", Arg: 2, HasArg: true, Offset: 26, StartLine: 5},
			{Op: "RETURN_VALUE", Offset: 28, StartLine: 5},
		},
	}
}

func TestToModuleHostBuiltinCall(t *testing.T) {
	mod, diags, err := ToModule("coin.pyc", hostBuiltinCallCodeObject(), 0, config.BuiltinsConfig{})
	if err != nil {
		t.Fatalf("ToModule: %v", err)
	}
	if diags != nil && diags.HasErrors() {
		t.Fatalf("expected no errors, got %+v", diags.Items())
	}

	var printDecl *sil.BuiltinDecl
	for i := range mod.Builtins {
		if mod.Builtins[i].Name == "print" {
			printDecl = &mod.Builtins[i]
		}
	}
	if printDecl == nil {
		t.Fatalf("expected a print declare among builtins, got %+v", mod.Builtins)
	}
	if !printDecl.Variadic || printDecl.Return != sil.None() {
		t.Fatalf("expected print declared variadic returning None, got %+v", printDecl)
	}

	calls := 0
	for _, p := range mod.Procs {
		for _, b := range p.Blocks {
			for _, in := range b.Instrs {
				if in.Kind == sil.InstrBind && in.Bind.Rhs.Kind == sil.VBuiltinCall && in.Bind.Rhs.BuiltinCall.Name == "print" {
					calls++
				}
				// A call to a resolved host builtin must never surface as a
				// generic python_call: the whole point of recognizing "print"
				// is to skip that fallback.
				if in.Kind == sil.InstrBind && in.Bind.Rhs.Kind == sil.VBuiltinCall && in.Bind.Rhs.BuiltinCall.Name == "python_call" {
					t.Fatalf("print resolved to the generic python_call fallback instead of $builtins.print: %+v", in)
				}
			}
		}
	}
	if calls != 2 {
		t.Fatalf("expected print called once per branch (2 total), got %d", calls)
	}

	for _, check := range []struct {
		name string
		fn   func(*sil.Module) error
	}{
		{"CheckBlocksTerminated", testkit.CheckBlocksTerminated},
		{"CheckSSAArity", testkit.CheckSSAArity},
		{"CheckBuiltinClosure", testkit.CheckBuiltinClosure},
		{"CheckSymbolClosure", testkit.CheckSymbolClosure},
		{"CheckClassFields", testkit.CheckClassFields},
	} {
		if err := check.fn(mod); err != nil {
			t.Fatalf("%s: %v", check.name, err)
		}
	}
}

func TestToModuleIsDeterministic(t *testing.T) {
	a, _, err := ToModule("coin.pyc", simpleAssignCodeObject(), 0, config.BuiltinsConfig{})
	if err != nil {
		t.Fatalf("ToModule: %v", err)
	}
	b, _, err := ToModule("coin.pyc", simpleAssignCodeObject(), 0, config.BuiltinsConfig{})
	if err != nil {
		t.Fatalf("ToModule: %v", err)
	}
	if len(a.Builtins) != len(b.Builtins) {
		t.Fatalf("expected identical builtin sets across runs, got %d and %d", len(a.Builtins), len(b.Builtins))
	}
	for i := range a.Builtins {
		if a.Builtins[i].Name != b.Builtins[i].Name {
			t.Fatalf("expected builtin order to match at index %d: %q vs %q", i, a.Builtins[i].Name, b.Builtins[i].Name)
		}
	}
}

func TestToModuleRejectsUnsupportedOpcode(t *testing.T) {
	co := &bcir.CodeObject{
		Filename: "bad.pyc",
		Name:     "<module>",
		Instructions: []bcir.Instruction{
			{Op: "IMPORT_STAR", Offset: 0, StartLine: 1},
		},
	}
	if _, _, err := ToModule("bad.pyc", co, 0, config.BuiltinsConfig{}); err == nil {
		t.Fatalf("expected an error translating an unmodeled opcode")
	}
}

func TestToModuleMalformedConstIndex(t *testing.T) {
	co := &bcir.CodeObject{
		Filename: "bad.pyc",
		Name:     "<module>",
		Instructions: []bcir.Instruction{
			{Op: "LOAD_CONST", Arg: 5, HasArg: true, Offset: 0, StartLine: 1},
		},
	}
	if _, _, err := ToModule("bad.pyc", co, 0, config.BuiltinsConfig{}); err == nil {
		t.Fatalf("expected an error for a constant index out of range")
	}
}
