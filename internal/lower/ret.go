package lower

import (
	"silgen/internal/bcir"
	"silgen/internal/sil"
)

// LowerReturnValue implements the Return family: RETURN_VALUE pops one
// cell, emits `ret e`, closes the block. The block close itself happens
// in the driver loop once it observes the buffer ends in a terminator
// (Env.CurrentTerminated).
func (e *Env) LowerReturnValue(co *bcir.CodeObject, instr bcir.Instruction) error {
	cell, ok := e.Stack.Pop()
	if !ok {
		return malformed(instr.Offset, instr.Op, "stack underflow: RETURN_VALUE with no operand")
	}
	val, _, err := e.resolve(co, instr.Offset, instr.Op, cell)
	if err != nil {
		return err
	}
	e.PushInstr(sil.Instr{Kind: sil.InstrRet, Ret: sil.RetInstr{Value: val}})
	return nil
}
