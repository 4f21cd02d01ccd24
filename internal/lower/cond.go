package lower

import (
	"silgen/internal/bcir"
	"silgen/internal/builtin"
	"silgen/internal/label"
	"silgen/internal/sil"
	"silgen/internal/symtab"
)

func labelInfo(name string, types []sil.ValueType, preludes ...label.Prelude) label.Info {
	return label.MkLabel(name, types, preludes...)
}

func preludePrune(v sil.Value) label.Prelude    { return label.Prelude{Kind: label.PreludePrune, Operand: v} }
func preludePruneNot(v sil.Value) label.Prelude { return label.Prelude{Kind: label.PreludePruneNot, Operand: v} }

func malformedFromLabelErr(offset int, opcode string, err error) error {
	return malformed(offset, opcode, "%s", err.Error())
}

// snapshotLiveArgs resolves every cell currently on the stack to an IR
// Value/type pair, in bottom-to-top order, for use as the argument list
// of a jmp carrying live state across a block boundary. The stack is
// left unmodified.
func (e *Env) snapshotLiveArgs(co *bcir.CodeObject, offset int, opcode string) ([]sil.Value, []sil.ValueType, error) {
	cells := e.Stack.Snapshot()
	args := make([]sil.Value, len(cells))
	types := make([]sil.ValueType, len(cells))
	for i, c := range cells {
		v, info, err := e.resolve(co, offset, opcode, c)
		if err != nil {
			return nil, nil, err
		}
		args[i] = v
		t := info.Type
		if t == (sil.ValueType{}) {
			t = sil.Object()
		}
		types[i] = t
	}
	return args, types, nil
}

// lowerConditionalJump is the shared implementation of the Conditionals
// family's pop variant: POP_JUMP_IF_FALSE, POP_JUMP_IF_TRUE, and (as a
// documented simplification) the JUMP_IF_*_OR_POP opcodes all pop the
// condition, compute `c = $builtins.python_is_true(v)`, and close the
// block with a two-way jmp. jumpOnTrue selects which arm the jump target
// (instr.Arg) belongs to; the other arm is the fallthrough to nextOffset.
func (e *Env) lowerConditionalJump(co *bcir.CodeObject, instr bcir.Instruction, nextOffset int, jumpOnTrue bool) error {
	condCell, ok := e.Stack.Pop()
	if !ok {
		return malformed(instr.Offset, instr.Op, "stack underflow: %s with no condition", instr.Op)
	}
	condVal, _, err := e.resolve(co, instr.Offset, instr.Op, condCell)
	if err != nil {
		return err
	}
	e.Builtins.Record(builtin.IsTrue)
	cDst := e.MkFreshIdent(symtab.Info{Type: sil.Int()})
	e.PushInstr(sil.Instr{Kind: sil.InstrBind, Bind: sil.BindInstr{
		Dst: cDst,
		Rhs: sil.BuiltinCallValue("python_is_true", []sil.Value{condVal}),
	}})
	c := sil.Temp(cDst)

	args, types, err := e.snapshotLiveArgs(co, instr.Offset, instr.Op)
	if err != nil {
		return err
	}

	jumpLabel := e.MkFreshLabel()
	fallLabel := e.MkFreshLabel()

	jumpPrelude := preludePrune(c)
	fallPrelude := preludePruneNot(c)
	if !jumpOnTrue {
		jumpPrelude, fallPrelude = fallPrelude, jumpPrelude
	}

	if err := e.Labels.RegisterLabel(instr.Arg, labelInfo(jumpLabel, types, jumpPrelude)); err != nil {
		return malformedFromLabelErr(instr.Offset, instr.Op, err)
	}
	if err := e.Labels.RegisterLabel(nextOffset, labelInfo(fallLabel, types, fallPrelude)); err != nil {
		return malformedFromLabelErr(instr.Offset, instr.Op, err)
	}

	trueTarget, falseTarget := sil.JmpTarget{Label: jumpLabel, Args: args}, sil.JmpTarget{Label: fallLabel, Args: args}
	if !jumpOnTrue {
		trueTarget, falseTarget = falseTarget, trueTarget
	}
	e.PushInstr(sil.Instr{Kind: sil.InstrJmp, Jmp: sil.JmpInstr{Targets: []sil.JmpTarget{trueTarget, falseTarget}}})
	return nil
}

// LowerPopJumpIfFalse implements POP_JUMP_IF_FALSE off.
func (e *Env) LowerPopJumpIfFalse(co *bcir.CodeObject, instr bcir.Instruction, nextOffset int) error {
	return e.lowerConditionalJump(co, instr, nextOffset, false)
}

// LowerPopJumpIfTrue implements POP_JUMP_IF_TRUE off.
func (e *Env) LowerPopJumpIfTrue(co *bcir.CodeObject, instr bcir.Instruction, nextOffset int) error {
	return e.lowerConditionalJump(co, instr, nextOffset, true)
}

// LowerJumpIfFalseOrPop implements JUMP_IF_FALSE_OR_POP off. This
// translator does not preserve the "OR_POP" short-circuit stack
// discipline (the condition value would need to survive on one arm and
// not the other, which the fixed equal-arity SSA join below cannot
// express); it is lowered identically to the pop variant, which is
// sufficient for the builtin shims this translator models.
func (e *Env) LowerJumpIfFalseOrPop(co *bcir.CodeObject, instr bcir.Instruction, nextOffset int) error {
	return e.lowerConditionalJump(co, instr, nextOffset, false)
}

// LowerJumpIfTrueOrPop implements JUMP_IF_TRUE_OR_POP off, with the same
// simplification as LowerJumpIfFalseOrPop.
func (e *Env) LowerJumpIfTrueOrPop(co *bcir.CodeObject, instr bcir.Instruction, nextOffset int) error {
	return e.lowerConditionalJump(co, instr, nextOffset, true)
}

// LowerJumpAbsolute and LowerJumpForward implement the unconditional jump
// family. Jumps are assumed forward-only, with one exception: back-edges
// appear only for for-loops via the FOR_ITER/JUMP_ABSOLUTE pair,
// targeting a label FOR_ITER self-registered, so RegisterLabel's merge
// path is what validates the back-edge's arity here rather than a fresh
// registration.
func (e *Env) LowerJumpAbsolute(co *bcir.CodeObject, instr bcir.Instruction) error {
	return e.lowerUnconditionalJump(co, instr)
}

func (e *Env) LowerJumpForward(co *bcir.CodeObject, instr bcir.Instruction) error {
	return e.lowerUnconditionalJump(co, instr)
}

func (e *Env) lowerUnconditionalJump(co *bcir.CodeObject, instr bcir.Instruction) error {
	args, types, err := e.snapshotLiveArgs(co, instr.Offset, instr.Op)
	if err != nil {
		return err
	}
	name := e.labelNameFor(instr.Arg, types)
	if err := e.Labels.RegisterLabel(instr.Arg, labelInfo(name, types)); err != nil {
		return malformedFromLabelErr(instr.Offset, instr.Op, err)
	}
	e.PushInstr(sil.Instr{Kind: sil.InstrJmp, Jmp: sil.JmpInstr{Targets: []sil.JmpTarget{{Label: name, Args: args}}}})
	return nil
}

// labelNameFor returns the name a label at offset already has, or mints a
// fresh one if this is the first reference to that offset.
func (e *Env) labelNameFor(offset int, types []sil.ValueType) string {
	if info, ok := e.Labels.LabelAt(offset); ok && info.Name != "" {
		return info.Name
	}
	return e.MkFreshLabel()
}
