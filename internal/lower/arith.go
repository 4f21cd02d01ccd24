package lower

import (
	"silgen/internal/bcir"
	"silgen/internal/builtin"
	"silgen/internal/sil"
	"silgen/internal/symtab"
)

// LowerBinaryAdd implements the Arithmetic family: BINARY_ADD pops two,
// lowers to `$builtins.binary_add(a, b)` returning Object, pushes the
// result temp, and records BinaryAdd in builtins_seen.
func (e *Env) LowerBinaryAdd(co *bcir.CodeObject, instr bcir.Instruction) error {
	return e.lowerBinaryBuiltin(co, instr, builtin.BinaryAdd, "binary_add")
}

func (e *Env) lowerBinaryBuiltin(co *bcir.CodeObject, instr bcir.Instruction, tag builtin.Tag, name string) error {
	cells, ok := e.Stack.PopN(2)
	if !ok {
		return malformed(instr.Offset, instr.Op, "stack underflow: %s needs two operands", instr.Op)
	}
	lhs, _, err := e.resolve(co, instr.Offset, instr.Op, cells[0])
	if err != nil {
		return err
	}
	rhs, _, err := e.resolve(co, instr.Offset, instr.Op, cells[1])
	if err != nil {
		return err
	}
	e.Builtins.Record(tag)
	info := symtab.Info{Type: sil.Object()}
	dst := e.MkFreshIdent(info)
	e.PushInstr(sil.Instr{Kind: sil.InstrBind, Bind: sil.BindInstr{
		Dst: dst,
		Rhs: sil.BuiltinCallValue(name, []sil.Value{lhs, rhs}),
	}})
	e.pushTemp(dst)
	return nil
}
