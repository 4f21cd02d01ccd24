package lower

import (
	"strings"

	"silgen/internal/bcir"
	"silgen/internal/sil"
	"silgen/internal/stack"
	"silgen/internal/symtab"
)

// lowerStore implements the Stores family: STORE_NAME,
// STORE_GLOBAL, STORE_FAST pop a cell, register the symbol (re-registering
// an existing one overwrites it and reports the shadowing), and
// emit a typed `store` instruction. The stored type is propagated from
// the cell when known; otherwise Object.
//
// A Code cell is the one exception: it is not a value the source
// language ever actually stores — it is the nested code object a
// preceding "load constant code" opcode pushed for a `def` statement.
// Binding it to a name is this translator's def-statement recognition
// point (there is no separate MAKE_FUNCTION-style opcode modeled here),
// so it is routed to defineCode instead of emitting a generic store.
func (e *Env) lowerStore(co *bcir.CodeObject, instr bcir.Instruction, table []string, isGlobal bool) error {
	cell, ok := e.Stack.Pop()
	if !ok {
		return malformed(instr.Offset, instr.Op, "stack underflow: store with no operand")
	}
	if instr.Arg < 0 || instr.Arg >= len(table) {
		return malformed(instr.Offset, instr.Op, "name index %d out of range (table has %d entries)", instr.Arg, len(table))
	}
	short := table[instr.Arg]

	if cell.Kind == stack.CellCode {
		return e.defineCode(short, cell.Code.Code, instr.Offset)
	}

	val, info, err := e.resolve(co, instr.Offset, instr.Op, cell)
	if err != nil {
		return err
	}
	typ := info.Type
	if typ == (sil.ValueType{}) {
		typ = sil.Object()
	}

	qn := short
	if isGlobal {
		qn = e.ModuleName + "::" + short
	}
	if shadowed := e.Symbols.RegisterSymbol(isGlobal, short, symtab.SymbolInfo{
		QualifiedName: sil.QualifiedName{Value: qn, Loc: e.LastLoc},
		Info:          info,
	}); shadowed {
		e.ReportShadow(short, instr.Offset)
	}

	var lv sil.Lval
	if isGlobal {
		lv = sil.Lval{Kind: sil.LvalGlobal, Name: qn}
	} else {
		lv = sil.Lval{Kind: sil.LvalLocal, Name: short}
	}
	e.PushInstr(sil.Instr{Kind: sil.InstrStore, Store: sil.StoreInstr{Dst: lv, Rhs: val, Typ: typ}})
	return nil
}

// defineCode registers a `def` (module-level function or, inside a class
// body, a method) discovered as a name bound directly to a Code cell: it
// records the signature under (enclosing, shortName) — RegisterFunction
// at module scope, RegisterMethod inside a class body, distinguished by
// whether the current QualPrefix names a class — and queues the nested
// code object on PendingFunctions for the Module Assembler's worklist.
// No store instruction is emitted; the binding surfaces only as the
// eventual `define` procedure, not as a global or local slot.
func (e *Env) defineCode(shortName string, nested *bcir.CodeObject, offset int) error {
	enclosing := e.QualPrefix
	if enclosing == "" {
		enclosing = e.ModuleName
	}
	qn := e.QualifiedName(shortName)
	params := paramsOf(nested)
	sig := symtab.Signature{Params: toSymtabParams(params), Return: sil.Object()}

	if parts := strings.SplitN(enclosing, "::", 2); len(parts) == 2 {
		e.Symbols.RegisterMethod(parts[1], shortName, sig)
	} else {
		e.Symbols.RegisterFunction(enclosing, shortName, sig)
	}
	if shadowed := e.Symbols.RegisterSymbol(e.IsToplevel, shortName, symtab.SymbolInfo{
		QualifiedName: qn,
		Info:          symtab.Info{IsCode: true, Type: sil.Code()},
	}); shadowed {
		e.ReportShadow(shortName, offset)
	}
	e.PendingFunctions = append(e.PendingFunctions, PendingFunction{
		QualifiedName: qn.Value,
		QualPrefix:    enclosing,
		Code:          nested,
	})
	return nil
}

// LowerStoreName lowers STORE_NAME: module-toplevel or class-body name
// binding, resolved against co_names.
func (e *Env) LowerStoreName(co *bcir.CodeObject, instr bcir.Instruction) error {
	return e.lowerStore(co, instr, co.Names, e.IsToplevel)
}

// LowerStoreGlobal lowers STORE_GLOBAL: always a global binding regardless
// of toplevel-ness.
func (e *Env) LowerStoreGlobal(co *bcir.CodeObject, instr bcir.Instruction) error {
	return e.lowerStore(co, instr, co.Names, true)
}

// LowerStoreFast lowers STORE_FAST: always a local binding, resolved
// against co_varnames.
func (e *Env) LowerStoreFast(co *bcir.CodeObject, instr bcir.Instruction) error {
	return e.lowerStore(co, instr, co.VarNames, false)
}
