package lower

import (
	"silgen/internal/bcir"
	"silgen/internal/stack"
)

// LowerLoadConst implements the Constant loads family's push half:
// `LOAD_CONST i` pushes `Const i` unresolved. Resolution against the
// constants pool happens lazily, when the cell is later consumed in an
// expression position (resolve.go).
func (e *Env) LowerLoadConst(co *bcir.CodeObject, instr bcir.Instruction) error {
	if instr.Arg < 0 || instr.Arg >= len(co.Consts) {
		return malformed(instr.Offset, instr.Op, "constant index %d out of range (pool has %d entries)", instr.Arg, len(co.Consts))
	}
	if co.Consts[instr.Arg].Kind == bcir.ConstCode {
		nested := co.Consts[instr.Arg].Code
		e.Stack.Push(stack.CodeVal(stack.CodeCell{Code: nested}))
		return nil
	}
	e.Stack.Push(stack.Const(instr.Arg))
	return nil
}

// LowerLoadName implements LOAD_NAME's push half: pushes a Name cell
// referencing co_names[arg], resolved (locals-then-globals, or a builtin
// reference) on consumption.
func (e *Env) LowerLoadName(co *bcir.CodeObject, instr bcir.Instruction) error {
	if instr.Arg < 0 || instr.Arg >= len(co.Names) {
		return malformed(instr.Offset, instr.Op, "name index %d out of range (table has %d entries)", instr.Arg, len(co.Names))
	}
	e.Stack.Push(stack.Name(instr.Arg))
	return nil
}

// LowerLoadGlobal implements LOAD_GLOBAL's push half.
func (e *Env) LowerLoadGlobal(co *bcir.CodeObject, instr bcir.Instruction) error {
	if instr.Arg < 0 || instr.Arg >= len(co.Names) {
		return malformed(instr.Offset, instr.Op, "name index %d out of range (table has %d entries)", instr.Arg, len(co.Names))
	}
	e.Stack.Push(stack.Name(instr.Arg))
	return nil
}

// LowerLoadFast implements LOAD_FAST's push half: pushes a VarName cell
// referencing co_varnames[arg].
func (e *Env) LowerLoadFast(co *bcir.CodeObject, instr bcir.Instruction) error {
	if instr.Arg < 0 || instr.Arg >= len(co.VarNames) {
		return malformed(instr.Offset, instr.Op, "varname index %d out of range (table has %d entries)", instr.Arg, len(co.VarNames))
	}
	e.Stack.Push(stack.VarName(instr.Arg))
	return nil
}

// LowerPopTop discards the top of the stack without resolving it — used
// for expression statements whose value is unused.
func (e *Env) LowerPopTop(instr bcir.Instruction) error {
	if _, ok := e.Stack.Pop(); !ok {
		return malformed(instr.Offset, instr.Op, "stack underflow: POP_TOP on an empty stack")
	}
	return nil
}

// LowerDupTop duplicates the top of the stack. Only legal on cells that
// are safe to evaluate twice without side effects (Const, Name, VarName,
// Temp); a Code or Map cell reaching here indicates an unsupported
// bytecode shape.
func (e *Env) LowerDupTop(instr bcir.Instruction) error {
	top, ok := e.Stack.Peek()
	if !ok {
		return malformed(instr.Offset, instr.Op, "stack underflow: DUP_TOP on an empty stack")
	}
	switch top.Kind {
	case stack.CellConst, stack.CellName, stack.CellVarName, stack.CellTemp:
		e.Stack.Push(top)
		return nil
	default:
		return unsupported(instr.Offset, instr.Op)
	}
}
