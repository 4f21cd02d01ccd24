package lower

import (
	"silgen/internal/bcir"
	"silgen/internal/builtin"
	"silgen/internal/sil"
	"silgen/internal/stack"
	"silgen/internal/symtab"
)

// MethodRecord is the PyMethod = {receiver: *PyObject; name: *PyString}
// record type emitted once a module uses either method-call shim.
var MethodRecord = sil.RecordDecl{
	Name: "PyMethod",
	Fields: []sil.Field{
		{Name: "receiver", Type: sil.Object()},
		{Name: "name", Type: sil.String()},
	},
}

// LowerCallFunction implements the Calls family:
// `CALL_FUNCTION n` pops n args and a callee. A known user function
// resolves to a direct call `$module::f(args...)`; a known host builtin
// (print, range, ...) resolves to `$builtins.f(args...)`; anything else
// goes through `$builtins.python_call(callee, args...)`. Return type is
// the function's annotated return type when known, else Object.
//
// The class-construction pattern (LOAD_BUILD_CLASS, Code, name, bases,
// then a CALL_FUNCTION over that sequence) is recognized first, since it
// shares the same opcode (classbuild.go).
func (e *Env) LowerCallFunction(co *bcir.CodeObject, instr bcir.Instruction) error {
	if handled, err := e.tryLowerClassBuild(co, instr); handled || err != nil {
		return err
	}

	argCells, ok := e.Stack.PopN(instr.Arg)
	if !ok {
		return malformed(instr.Offset, instr.Op, "stack underflow: CALL_FUNCTION needs %d args", instr.Arg)
	}
	calleeCell, ok := e.Stack.Pop()
	if !ok {
		return malformed(instr.Offset, instr.Op, "stack underflow: CALL_FUNCTION with no callee")
	}

	args, err := e.resolveAll(co, instr.Offset, instr.Op, argCells)
	if err != nil {
		return err
	}

	rhs, retType, err := e.lowerCallee(co, instr, calleeCell, args)
	if err != nil {
		return err
	}
	dst := e.MkFreshIdent(symtab.Info{Type: retType})
	e.PushInstr(sil.Instr{Kind: sil.InstrBind, Bind: sil.BindInstr{Dst: dst, Rhs: rhs}})
	e.pushTemp(dst)
	return nil
}

// resolveAll resolves a slice of stack cells to IR values, in order, via
// mapEnv, the traversal idiom shared by every lowering rule that processes
// a list of sub-elements.
func (e *Env) resolveAll(co *bcir.CodeObject, offset int, opcode string, cells []stack.Cell) ([]sil.Value, error) {
	return mapEnv(e, cells, func(e *Env, c stack.Cell) (sil.Value, error) {
		v, _, err := e.resolve(co, offset, opcode, c)
		return v, err
	})
}

// lowerCallee resolves the three-way callee dispatch described above,
// returning the call's Value and its result type.
func (e *Env) lowerCallee(co *bcir.CodeObject, instr bcir.Instruction, calleeCell stack.Cell, args []sil.Value) (sil.Value, sil.ValueType, error) {
	// A callee resolved through the symbol registry as a known user
	// function carries its qualified name directly on a Name/VarName
	// cell that resolve() would otherwise turn into a plain load; inspect
	// the registry before calling resolve() so we can emit a direct call
	// instead of a generic python_call.
	if short, ok := e.calleeShortName(co, calleeCell); ok {
		if e.Symbols.IsClass(short) {
			return e.LowerClassConstructor(short, args), sil.Record(short), nil
		}
		if sig, hasSig := e.Symbols.LookupSignature(e.ModuleName, short); hasSig {
			qn := e.QualifiedNameFor(e.ModuleName, short)
			return sil.DirectCall(qn, args), sig.Return, nil
		}
		if sym, known := e.Symbols.Lookup(short); known && sym.IsBuiltin {
			e.Builtins.RecordHost(short)
			return sil.BuiltinCallValue(e.Builtins.EmitName(short), args), sil.Object(), nil
		}
	}

	callee, _, err := e.resolve(co, instr.Offset, instr.Op, calleeCell)
	if err != nil {
		return sil.Value{}, sil.ValueType{}, err
	}
	if callee.Kind == sil.VBuiltinRef {
		return sil.BuiltinCallValue(callee.BuiltinRef, args), sil.Object(), nil
	}
	e.Builtins.Record(builtin.PythonCall)
	return sil.BuiltinCallValue("python_call", append([]sil.Value{callee}, args...)), sil.Object(), nil
}

// calleeShortName extracts the bare name a Name/VarName cell denotes,
// without resolving it (i.e. without emitting a load), so the caller can
// consult the symbol/builtin registries first.
func (e *Env) calleeShortName(co *bcir.CodeObject, c stack.Cell) (string, bool) {
	switch c.Kind {
	case stack.CellName:
		if c.NameIdx >= 0 && c.NameIdx < len(co.Names) {
			return co.Names[c.NameIdx], true
		}
	case stack.CellVarName:
		if c.VarNameIdx >= 0 && c.VarNameIdx < len(co.VarNames) {
			return co.VarNames[c.VarNameIdx], true
		}
	}
	return "", false
}

// QualifiedNameFor mints a QualifiedName rooted at enclosing (the module
// or an enclosing class), independent of the current procedure's
// QualPrefix.
func (e *Env) QualifiedNameFor(enclosing, short string) sil.QualifiedName {
	return sil.QualifiedName{Value: enclosing + "::" + short, Loc: e.LastLoc}
}

// LowerLoadMethod implements the Method calls family's lookup half:
// `LOAD_METHOD name` pops base, emits
// `n = $builtins.python_load_method(base, "name")` returning Method.
func (e *Env) LowerLoadMethod(co *bcir.CodeObject, instr bcir.Instruction) error {
	baseCell, ok := e.Stack.Pop()
	if !ok {
		return malformed(instr.Offset, instr.Op, "stack underflow: LOAD_METHOD with no base")
	}
	if instr.Arg < 0 || instr.Arg >= len(co.Names) {
		return malformed(instr.Offset, instr.Op, "name index %d out of range (table has %d entries)", instr.Arg, len(co.Names))
	}
	name := co.Names[instr.Arg]

	base, _, err := e.resolve(co, instr.Offset, instr.Op, baseCell)
	if err != nil {
		return err
	}
	e.Builtins.Record(builtin.PythonLoadMethod)
	dst := e.MkFreshIdent(symtab.Info{Type: sil.Method()})
	e.PushInstr(sil.Instr{Kind: sil.InstrBind, Bind: sil.BindInstr{
		Dst: dst,
		Rhs: sil.BuiltinCallValue("python_load_method", []sil.Value{base, sil.ConstString(name)}),
	}})
	e.pushTemp(dst)
	return nil
}

// LowerCallMethod implements the Method calls family's invocation half:
// `CALL_METHOD n` pops n args and the method handle, emits
// `$builtins.python_call_method(m, args...)`.
func (e *Env) LowerCallMethod(co *bcir.CodeObject, instr bcir.Instruction) error {
	argCells, ok := e.Stack.PopN(instr.Arg)
	if !ok {
		return malformed(instr.Offset, instr.Op, "stack underflow: CALL_METHOD needs %d args", instr.Arg)
	}
	methodCell, ok := e.Stack.Pop()
	if !ok {
		return malformed(instr.Offset, instr.Op, "stack underflow: CALL_METHOD with no method handle")
	}
	args, err := e.resolveAll(co, instr.Offset, instr.Op, argCells)
	if err != nil {
		return err
	}
	method, _, err := e.resolve(co, instr.Offset, instr.Op, methodCell)
	if err != nil {
		return err
	}
	e.Builtins.Record(builtin.PythonCallMethod)
	dst := e.MkFreshIdent(symtab.Info{Type: sil.Object()})
	e.PushInstr(sil.Instr{Kind: sil.InstrBind, Bind: sil.BindInstr{
		Dst: dst,
		Rhs: sil.BuiltinCallValue("python_call_method", append([]sil.Value{method}, args...)),
	}})
	e.pushTemp(dst)
	return nil
}
