package lower

import (
	"sort"

	"silgen/internal/bcir"
	"silgen/internal/sil"
	"silgen/internal/stack"
	"silgen/internal/symtab"
)

// TranslateCode lowers one code object into a Proc, driving the per-opcode
// Instruction Lowering rules over its instruction stream and closing basic
// blocks at every boundary the Label/Block Manager reports.
//
// qualPrefix is the dotted path the procedure (and any nested code object
// it discovers) is qualified under: the module name at toplevel,
// "Module::Class" inside a class's methods. params is the procedure's
// formal parameter list; TranslateCode registers each one as a local
// right after EnterProc so LOAD_FAST resolves them through the Symbol
// Registry.
func (e *Env) TranslateCode(co *bcir.CodeObject, name sil.QualifiedName, qualPrefix string, isToplevel bool, params []sil.Param, ret sil.ValueType) (sil.Proc, error) {
	e.EnterProc(isToplevel, qualPrefix)
	for _, p := range params {
		e.Symbols.RegisterSymbol(false, p.Name, symtab.SymbolInfo{Info: symtab.Info{Type: p.Type}})
	}

	instrs := make([]bcir.Instruction, len(co.Instructions))
	copy(instrs, co.Instructions)
	sort.SliceStable(instrs, func(i, j int) bool { return instrs[i].Offset < instrs[j].Offset })

	curLabel := "b0"
	curParams := params

	for i, instr := range instrs {
		if instr.StartLine != 0 {
			e.UpdateLastLine(sil.Loc{File: co.Filename, Line: instr.StartLine})
		}

		nextOffset := -1
		if i+1 < len(instrs) {
			nextOffset = instrs[i+1].Offset
		}

		if instr.Op == "FOR_ITER" {
			newLabel, newParams, err := e.ensureLoopHeader(co, instr, curLabel, curParams)
			if err != nil {
				return sil.Proc{}, err
			}
			curLabel, curParams = newLabel, newParams
		}

		if err := e.dispatch(co, instr, nextOffset); err != nil {
			return sil.Proc{}, err
		}

		switch {
		case e.CurrentTerminated():
			e.CloseBlock(curLabel, curParams)
			if nextOffset < 0 {
				continue
			}
			label, lparams, ok, err := e.openLabelAt(nextOffset)
			if err != nil {
				return sil.Proc{}, err
			}
			if ok {
				curLabel, curParams = label, lparams
				continue
			}
			// Dead code: nothing jumps here (e.g. the implicit trailing
			// `return None` a compiler appends after an exhaustive
			// if/else). Still translated, just with no predecessors.
			curLabel = e.MkFreshLabel()
			curParams = nil
			e.ResetStack()
		case nextOffset >= 0:
			if info, ok := e.Labels.LabelAt(nextOffset); ok && !info.Processed {
				args, _, err := e.snapshotLiveArgs(co, instr.Offset, instr.Op)
				if err != nil {
					return sil.Proc{}, err
				}
				e.PushInstr(sil.Instr{Kind: sil.InstrJmp, Jmp: sil.JmpInstr{Targets: []sil.JmpTarget{{Label: info.Name, Args: args}}}})
				e.CloseBlock(curLabel, curParams)
				label, lparams, ok2, err := e.openLabelAt(nextOffset)
				if err != nil {
					return sil.Proc{}, err
				}
				if ok2 {
					curLabel, curParams = label, lparams
				}
			}
		}
	}

	return sil.Proc{
		Name:   name,
		Params: params,
		Return: ret,
		Blocks: e.Blocks,
	}, nil
}

// openLabelAt materializes the block registered at offset, if any,
// restoring its SSA parameters onto the data stack and applying its
// prelude. Returns ok=false if nothing is registered there.
func (e *Env) openLabelAt(offset int) (name string, params []sil.Param, ok bool, err error) {
	name, params, prelude, forIterBody, ok := e.Labels.ToTextual(offset, func(t sil.ValueType) string {
		return e.MkFreshIdent(symtab.Info{Type: t})
	})
	if !ok {
		return "", nil, false, nil
	}
	e.Labels.ProcessLabel(offset)
	e.ResetStack()
	for _, p := range params {
		e.pushTemp(p.Name)
	}
	for _, instr := range prelude {
		e.PushInstr(instr)
	}
	if forIterBody {
		if len(params) < 2 {
			return "", nil, false, malformed(offset, "FOR_ITER", "for-iter body label lacks its iterator and item parameters")
		}
		e.LowerForIterBodyEntry(params[len(params)-1].Name)
	}
	return name, params, true, nil
}

// ensureLoopHeader forces a block boundary at a FOR_ITER's own offset the
// first time it is reached, since it is always a loop header reachable by
// a later back-edge that this single forward pass cannot have registered
// in advance (jumps are otherwise assumed forward-only). A second
// visit cannot happen — FOR_ITER appears once in the linear instruction
// stream — so this only ever fires once per FOR_ITER.
func (e *Env) ensureLoopHeader(co *bcir.CodeObject, instr bcir.Instruction, curLabel string, curParams []sil.Param) (string, []sil.Param, error) {
	if _, already := e.Labels.LabelAt(instr.Offset); already {
		return curLabel, curParams, nil
	}
	args, types, err := e.snapshotLiveArgs(co, instr.Offset, instr.Op)
	if err != nil {
		return "", nil, err
	}
	headerName := e.MkFreshLabel()
	if err := e.Labels.RegisterLabel(instr.Offset, labelInfo(headerName, types)); err != nil {
		return "", nil, malformedFromLabelErr(instr.Offset, instr.Op, err)
	}
	e.PushInstr(sil.Instr{Kind: sil.InstrJmp, Jmp: sil.JmpInstr{Targets: []sil.JmpTarget{{Label: headerName, Args: args}}}})
	e.CloseBlock(curLabel, curParams)
	name, params, ok, err := e.openLabelAt(instr.Offset)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, malformed(instr.Offset, instr.Op, "failed to open self-registered loop header")
	}
	return name, params, nil
}

// dispatch routes one instruction to its per-opcode lowering rule.
// Opcodes outside the modeled subset fail fast.
func (e *Env) dispatch(co *bcir.CodeObject, instr bcir.Instruction, nextOffset int) error {
	switch instr.Op {
	case "LOAD_CONST":
		return e.LowerLoadConst(co, instr)
	case "LOAD_NAME":
		return e.LowerLoadName(co, instr)
	case "LOAD_GLOBAL":
		return e.LowerLoadGlobal(co, instr)
	case "LOAD_FAST":
		return e.LowerLoadFast(co, instr)
	case "STORE_NAME":
		return e.LowerStoreName(co, instr)
	case "STORE_GLOBAL":
		return e.LowerStoreGlobal(co, instr)
	case "STORE_FAST":
		return e.LowerStoreFast(co, instr)
	case "LOAD_ATTR":
		return e.LowerLoadAttr(co, instr)
	case "STORE_ATTR":
		return e.LowerStoreAttr(co, instr)
	case "BINARY_ADD":
		return e.LowerBinaryAdd(co, instr)
	case "CALL_FUNCTION":
		return e.LowerCallFunction(co, instr)
	case "LOAD_METHOD":
		return e.LowerLoadMethod(co, instr)
	case "CALL_METHOD":
		return e.LowerCallMethod(co, instr)
	case "GET_ITER":
		return e.LowerGetIter(co, instr)
	case "FOR_ITER":
		return e.LowerForIter(co, instr, nextOffset)
	case "POP_JUMP_IF_FALSE":
		return e.LowerPopJumpIfFalse(co, instr, nextOffset)
	case "POP_JUMP_IF_TRUE":
		return e.LowerPopJumpIfTrue(co, instr, nextOffset)
	case "JUMP_IF_FALSE_OR_POP":
		return e.LowerJumpIfFalseOrPop(co, instr, nextOffset)
	case "JUMP_IF_TRUE_OR_POP":
		return e.LowerJumpIfTrueOrPop(co, instr, nextOffset)
	case "JUMP_ABSOLUTE":
		return e.LowerJumpAbsolute(co, instr)
	case "JUMP_FORWARD":
		return e.LowerJumpForward(co, instr)
	case "RETURN_VALUE":
		return e.LowerReturnValue(co, instr)
	case "LOAD_BUILD_CLASS":
		e.Stack.Push(stack.BuildClassMarker())
		return nil
	case "POP_TOP":
		return e.LowerPopTop(instr)
	case "DUP_TOP":
		return e.LowerDupTop(instr)
	default:
		return unsupported(instr.Offset, instr.Op)
	}
}
