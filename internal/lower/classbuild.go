package lower

import (
	"silgen/internal/bcir"
	"silgen/internal/builtin"
	"silgen/internal/sil"
	"silgen/internal/stack"
	"silgen/internal/symtab"
)

// tryLowerClassBuild recognizes the LOAD_BUILD_CLASS handshake: a
// BuildClassMarker cell followed by the class body's Code cell and the
// class's name constant (and, above them, any base-class cells) sitting
// directly under the callee position of the CALL_FUNCTION that follows
// LOAD_BUILD_CLASS's own CALL_FUNCTION argument count. If the pattern is
// recognized, it registers the class, lowers the class body (via
// PendingClassBodies, drained by the module assembler) and emits
// `$builtins.python_class("Name")`; a malformed handshake is reported
// rather than silently miscompiled.
func (e *Env) tryLowerClassBuild(co *bcir.CodeObject, instr bcir.Instruction) (bool, error) {
	if instr.Arg < 2 {
		return false, nil
	}
	cells, ok := e.Stack.PopN(instr.Arg + 1)
	if !ok {
		return false, nil
	}
	if cells[0].Kind != stack.CellBuildClassMarker {
		// Not a class-build call; restore and let the generic call path
		// handle it.
		for _, c := range cells {
			e.Stack.Push(c)
		}
		return false, nil
	}
	if cells[1].Kind != stack.CellCode {
		return false, malformed(instr.Offset, instr.Op, "LOAD_BUILD_CLASS handshake: expected a code object, got cell kind %d", cells[1].Kind)
	}
	nameCell := cells[2]
	nameVal, _, err := e.resolve(co, instr.Offset, instr.Op, nameCell)
	if err != nil {
		return true, err
	}
	className, ok := constString(nameVal)
	if !ok {
		return true, malformed(instr.Offset, instr.Op, "LOAD_BUILD_CLASS handshake: class name is not a string constant")
	}

	e.Symbols.RegisterClass(className)
	e.PendingClassBodies = append(e.PendingClassBodies, PendingClassBody{
		ClassName: className,
		Code:      cells[1].Code.Code,
	})

	e.Builtins.Record(builtin.PythonClass)
	dst := e.MkFreshIdent(symtab.Info{Type: sil.Class(), IsClass: true})
	e.PushInstr(sil.Instr{Kind: sil.InstrBind, Bind: sil.BindInstr{
		Dst: dst,
		Rhs: sil.BuiltinCallValue("python_class", []sil.Value{sil.ConstString(className)}),
	}})
	e.pushTemp(dst)
	return true, nil
}

// constString extracts the literal string from a python_string(...)
// wrapper call, the shape resolve() always produces for a string
// constant (resolve.go's resolveConst).
func constString(v sil.Value) (string, bool) {
	if v.Kind != sil.VBuiltinCall || v.BuiltinCall.Name != "python_string" || len(v.BuiltinCall.Args) != 1 {
		return "", false
	}
	arg := v.BuiltinCall.Args[0]
	if arg.Kind != sil.VConst || arg.Const.Kind != sil.CString {
		return "", false
	}
	return arg.Const.S, true
}

// PendingClassBody is a class body discovered mid-translation, queued for
// the Module Assembler's worklist.
type PendingClassBody struct {
	ClassName string
	Code      *bcir.CodeObject
}

// LowerClassConstructor lowers a construction-site call recognized by the
// caller (calls.go) as invoking a known class: emits
// `$builtins.python_class_constructor("Name", args...)`, returning an
// instance typed as the class's record.
func (e *Env) LowerClassConstructor(className string, args []sil.Value) sil.Value {
	e.Builtins.Record(builtin.PythonClassConstructor)
	callArgs := append([]sil.Value{sil.ConstString(className)}, args...)
	return sil.BuiltinCallValue("python_class_constructor", callArgs)
}
