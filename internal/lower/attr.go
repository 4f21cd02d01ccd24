package lower

import (
	"strings"

	"silgen/internal/bcir"
	"silgen/internal/sil"
	"silgen/internal/stack"
	"silgen/internal/symtab"
)

// LowerLoadAttr implements the Attribute access family's read half:
// pops one cell and emits `n = base.?.attr` returning Object.
func (e *Env) LowerLoadAttr(co *bcir.CodeObject, instr bcir.Instruction) error {
	cell, ok := e.Stack.Pop()
	if !ok {
		return malformed(instr.Offset, instr.Op, "stack underflow: LOAD_ATTR with no base")
	}
	if instr.Arg < 0 || instr.Arg >= len(co.Names) {
		return malformed(instr.Offset, instr.Op, "name index %d out of range (table has %d entries)", instr.Arg, len(co.Names))
	}
	attr := co.Names[instr.Arg]

	base, _, err := e.resolve(co, instr.Offset, instr.Op, cell)
	if err != nil {
		return err
	}
	info := symtab.Info{Type: sil.Object()}
	dst := e.MkFreshIdent(info)
	e.PushInstr(sil.Instr{Kind: sil.InstrGetAttr, GetAttr: sil.GetAttrInstr{Dst: dst, Base: base, Attr: attr}})
	e.Stack.Push(stack.Temp(dst))
	return nil
}

// LowerStoreAttr implements the Attribute access family's write half:
// pops value then base, emits a field store, and — when the base is the
// current method's receiver (i.e. this is a `self.x = e` store inside a
// class body) — infers the class record field (symtab.Registry.RecordField).
func (e *Env) LowerStoreAttr(co *bcir.CodeObject, instr bcir.Instruction) error {
	valCell, ok := e.Stack.Pop()
	if !ok {
		return malformed(instr.Offset, instr.Op, "stack underflow: STORE_ATTR with no value")
	}
	baseCell, ok := e.Stack.Pop()
	if !ok {
		return malformed(instr.Offset, instr.Op, "stack underflow: STORE_ATTR with no base")
	}
	if instr.Arg < 0 || instr.Arg >= len(co.Names) {
		return malformed(instr.Offset, instr.Op, "name index %d out of range (table has %d entries)", instr.Arg, len(co.Names))
	}
	attr := co.Names[instr.Arg]

	val, valInfo, err := e.resolve(co, instr.Offset, instr.Op, valCell)
	if err != nil {
		return err
	}
	base, _, err := e.resolve(co, instr.Offset, instr.Op, baseCell)
	if err != nil {
		return err
	}

	typ := valInfo.Type
	if typ == (sil.ValueType{}) {
		typ = sil.Object()
	}
	e.PushInstr(sil.Instr{Kind: sil.InstrSetAttr, SetAttr: sil.SetAttrInstr{Base: base, Attr: attr, Rhs: val, Typ: typ}})

	if class := e.selfAttrClass(co, baseCell); class != "" {
		e.Symbols.RecordField(class, attr, typ)
	}
	return nil
}

// selfAttrClass reports the enclosing class name when baseCell is the
// LOAD_FAST cell of the current method's receiver parameter ("self"),
// qualifying this STORE_ATTR as the `self.x = v` pattern singled out for
// class-field inference. QualPrefix is "Module::Class" while lowering a
// method body (see assembler.go).
func (e *Env) selfAttrClass(co *bcir.CodeObject, baseCell stack.Cell) string {
	idx := baseCell.VarNameIdx
	if baseCell.Kind != stack.CellVarName || idx < 0 || idx >= len(co.VarNames) || co.VarNames[idx] != "self" {
		return ""
	}
	parts := strings.SplitN(e.QualPrefix, "::", 2)
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}
