package lower

import (
	"silgen/internal/bcir"
	"silgen/internal/sil"
	"silgen/internal/stack"
	"silgen/internal/symtab"
)

// resolve consumes a data-stack cell in an expression position and
// produces the IR Value it denotes, per the per-kind rule:
//
//   - Const i resolves against the constants pool inline (python_int(n),
//     python_bool(0|1), python_string("…"), null for None) — no separate
//     bind instruction, so a one-shot constant stays inlined.
//   - Name/VarName resolves through the Symbol Registry to an explicit
//     `load` instruction bound to a fresh temp.
//   - Temp is already bound; it resolves to itself with no side effect.
//   - Code, Map, and BuildClassMarker are not generic expression values;
//     callers that expect them inspect the raw stack.Cell directly (class
//     building, annotation tuples) rather than calling resolve.
func (e *Env) resolve(co *bcir.CodeObject, offset int, opcode string, c stack.Cell) (sil.Value, symtab.Info, error) {
	switch c.Kind {
	case stack.CellConst:
		return e.resolveConst(co, c.ConstIdx, offset, opcode)
	case stack.CellName:
		return e.resolveName(co, co.Names, c.NameIdx, offset, opcode, scopeAuto)
	case stack.CellVarName:
		return e.resolveName(co, co.VarNames, c.VarNameIdx, offset, opcode, scopeLocal)
	case stack.CellTemp:
		info, ok := e.GetIdentInfo(c.Temp)
		if !ok {
			return sil.Value{}, symtab.Info{}, malformed(offset, opcode, "temp %q has no recorded info", c.Temp)
		}
		return sil.Temp(c.Temp), info, nil
	default:
		return sil.Value{}, symtab.Info{}, malformed(offset, opcode, "cell kind %d cannot be resolved as an expression value", c.Kind)
	}
}

// resolveConst implements the Constant loads family.
func (e *Env) resolveConst(co *bcir.CodeObject, idx, offset int, opcode string) (sil.Value, symtab.Info, error) {
	if idx < 0 || idx >= len(co.Consts) {
		return sil.Value{}, symtab.Info{}, malformed(offset, opcode, "constant index %d out of range (pool has %d entries)", idx, len(co.Consts))
	}
	k := co.Consts[idx]
	switch k.Kind {
	case bcir.ConstInt:
		return e.primitiveWrap("python_int", sil.ConstInt(k.I)), symtab.Info{Type: sil.Object()}, nil
	case bcir.ConstFloat:
		return e.primitiveWrap("python_float", sil.ConstFloat(k.F)), symtab.Info{Type: sil.Object()}, nil
	case bcir.ConstBool:
		return e.primitiveWrap("python_bool", sil.ConstBool(k.B)), symtab.Info{Type: sil.Object()}, nil
	case bcir.ConstString:
		return e.primitiveWrap("python_string", sil.ConstString(k.S)), symtab.Info{Type: sil.Object()}, nil
	case bcir.ConstNone:
		return sil.Null(), symtab.Info{Type: sil.None()}, nil
	case bcir.ConstCode:
		return sil.Value{}, symtab.Info{}, malformed(offset, opcode, "a nested code constant must be consumed as a Code cell, not resolved as a value")
	default:
		return sil.Value{}, symtab.Info{}, malformed(offset, opcode, "unknown constant kind %d", k.Kind)
	}
}

// primitiveWrap wraps a literal in its python_* primitive-wrapper builtin
// call and records the builtin as referenced when it is not one of the
// three always-on wrappers (python_int, python_bool, python_string are
// always emitted regardless of use).
func (e *Env) primitiveWrap(name string, arg sil.Value) sil.Value {
	switch name {
	case "python_int", "python_bool", "python_string":
	default:
		e.Builtins.RecordHost(name)
	}
	return sil.BuiltinCallValue(name, []sil.Value{arg})
}

// nameScope controls how resolveName orders the Symbol Registry lookup.
type nameScope uint8

const (
	scopeAuto   nameScope = iota // locals, then globals (LOAD_NAME)
	scopeLocal                   // force local (LOAD_FAST)
	scopeGlobal                  // force global (LOAD_GLOBAL)
)

// resolveName implements the Name resolution family: LOAD_NAME,
// LOAD_GLOBAL, and LOAD_FAST all push a Name/VarName cell; on consumption
// the cell is resolved through the Symbol Registry to an IR load from
// &module::x (global), &x (local), or a builtin reference
// $builtins.<name>.
func (e *Env) resolveName(co *bcir.CodeObject, table []string, idx, offset int, opcode string, scope nameScope) (sil.Value, symtab.Info, error) {
	if idx < 0 || idx >= len(table) {
		return sil.Value{}, symtab.Info{}, malformed(offset, opcode, "name index %d out of range (table has %d entries)", idx, len(table))
	}
	short := table[idx]

	var sym symtab.SymbolInfo
	var known, isGlobal bool
	switch scope {
	case scopeLocal:
		sym, known = e.Symbols.LookupSymbol(false, short)
		isGlobal = false
	case scopeGlobal:
		sym, known = e.Symbols.LookupSymbol(true, short)
		isGlobal = true
	default:
		if sym, known = e.Symbols.LookupSymbol(false, short); known {
			isGlobal = false
		} else {
			sym, known = e.Symbols.LookupSymbol(true, short)
			isGlobal = true
		}
	}

	if known && sym.IsBuiltin {
		e.Builtins.RecordHost(short)
		return sil.BuiltinRef(e.Builtins.EmitName(short)), sym.Info, nil
	}

	typ := sil.Object()
	qn := short
	if known {
		typ = sym.Info.Type
		qn = sym.QualifiedName.Value
	} else if isGlobal {
		qn = e.ModuleName + "::" + short
	}

	var lv sil.Lval
	if isGlobal {
		lv = sil.Lval{Kind: sil.LvalGlobal, Name: qn}
	} else {
		lv = sil.Lval{Kind: sil.LvalLocal, Name: short}
	}

	info := symtab.Info{Type: typ}
	dst := e.MkFreshIdent(info)
	e.PushInstr(sil.Instr{Kind: sil.InstrLoad, Load: sil.LoadInstr{Dst: dst, Typ: typ, Src: lv}})
	return sil.Temp(dst), info, nil
}
