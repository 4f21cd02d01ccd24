package lower

import (
	"silgen/internal/bcir"
	"silgen/internal/builtin"
	"silgen/internal/sil"
	"silgen/internal/symtab"
)

// IterItemRecord is the fixed PyIterItem = {has_item: *PyInt; next_item:
// *PyObject} record type emitted once a module uses either iteration
// shim.
var IterItemRecord = sil.RecordDecl{
	Name: "PyIterItem",
	Fields: []sil.Field{
		{Name: "has_item", Type: sil.Int()},
		{Name: "next_item", Type: sil.Object()},
	},
}

// LowerGetIter implements the Iteration family's entry half: `GET_ITER` emits `$builtins.python_iter(x): Object`.
func (e *Env) LowerGetIter(co *bcir.CodeObject, instr bcir.Instruction) error {
	cell, ok := e.Stack.Pop()
	if !ok {
		return malformed(instr.Offset, instr.Op, "stack underflow: GET_ITER with no operand")
	}
	val, _, err := e.resolve(co, instr.Offset, instr.Op, cell)
	if err != nil {
		return err
	}
	e.Builtins.Record(builtin.PythonIter)
	dst := e.MkFreshIdent(symtab.Info{Type: sil.Object()})
	e.PushInstr(sil.Instr{Kind: sil.InstrBind, Bind: sil.BindInstr{
		Dst: dst,
		Rhs: sil.BuiltinCallValue("python_iter", []sil.Value{val}),
	}})
	e.pushTemp(dst)
	return nil
}

// LowerForIter implements the Iteration family's step half: `FOR_ITER
// off` emits `it = $builtins.python_iter_next(x): PyIterItem`, loads
// `it.PyIterItem.has_item: int`, then conditionally jumps: on true, loads
// `it.PyIterItem.next_item: Object` and continues into the loop body; on
// false, jumps to off (the loop's exit, already past the matching
// JUMP_ABSOLUTE back-edge).
//
// nextOffset is the fallthrough offset (the loop body's first
// instruction); off is instr.Arg, the exit target.
func (e *Env) LowerForIter(co *bcir.CodeObject, instr bcir.Instruction, nextOffset int) error {
	iterCell, ok := e.Stack.Pop()
	if !ok {
		return malformed(instr.Offset, instr.Op, "stack underflow: FOR_ITER with no iterator")
	}
	iterVal, iterInfo, err := e.resolve(co, instr.Offset, instr.Op, iterCell)
	if err != nil {
		return err
	}

	e.Builtins.Record(builtin.PythonIterNext)
	itemDst := e.MkFreshIdent(symtab.Info{Type: sil.IterItem()})
	e.PushInstr(sil.Instr{Kind: sil.InstrBind, Bind: sil.BindInstr{
		Dst: itemDst,
		Rhs: sil.BuiltinCallValue("python_iter_next", []sil.Value{iterVal}),
	}})

	hasDst := e.MkFreshIdent(symtab.Info{Type: sil.Int()})
	e.PushInstr(sil.Instr{Kind: sil.InstrGetAttr, GetAttr: sil.GetAttrInstr{
		Dst: hasDst, Base: sil.Temp(itemDst), Attr: "PyIterItem.has_item",
	}})

	// The iterator and the fetched PyIterItem are live into the body (the
	// iterator re-enters FOR_ITER via the back-edge, so the header's own
	// SSA parameter must still be supplied; the item supplies next_item)
	// but CPython's FOR_ITER pops the iterator off the stack on
	// exhaustion, so the exit arm carries nothing across the join.
	iterType := iterInfo.Type
	if iterType == (sil.ValueType{}) {
		iterType = sil.Object()
	}

	trueLabel := e.MkFreshLabel()
	falseLabel := e.MkFreshLabel()

	trueInfo := labelInfo(trueLabel, []sil.ValueType{iterType, sil.IterItem()}, preludePrune(sil.Temp(hasDst)))
	trueInfo.ForIterBody = true
	if err := e.Labels.RegisterLabel(nextOffset, trueInfo); err != nil {
		return malformedFromLabelErr(instr.Offset, instr.Op, err)
	}
	if err := e.Labels.RegisterLabel(instr.Arg, labelInfo(falseLabel, nil, preludePruneNot(sil.Temp(hasDst)))); err != nil {
		return malformedFromLabelErr(instr.Offset, instr.Op, err)
	}

	e.PushInstr(sil.Instr{Kind: sil.InstrJmp, Jmp: sil.JmpInstr{Targets: []sil.JmpTarget{
		{Label: trueLabel, Args: []sil.Value{iterVal, sil.Temp(itemDst)}},
		{Label: falseLabel, Args: nil},
	}}})
	return nil
}

// LowerForIterBodyEntry materializes `next_item` at the top of a FOR_ITER
// body block, once the driver has restored the iterator and the
// PyIterItem that FOR_ITER fetched as the block's two SSA parameters.
// itemParam names the second one; its cell on top of the stack is
// replaced by the resulting Object cell, for STORE_FAST/STORE_NAME to
// consume as the loop variable.
func (e *Env) LowerForIterBodyEntry(itemParam string) {
	e.Stack.Pop()
	nextDst := e.MkFreshIdent(symtab.Info{Type: sil.Object()})
	e.PushInstr(sil.Instr{Kind: sil.InstrGetAttr, GetAttr: sil.GetAttrInstr{
		Dst: nextDst, Base: sil.Temp(itemParam), Attr: "PyIterItem.next_item",
	}})
	e.pushTemp(nextDst)
}
