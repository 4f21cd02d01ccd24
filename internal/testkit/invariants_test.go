package testkit

import (
	"testing"

	"silgen/internal/sil"
)

func simpleModule() *sil.Module {
	return &sil.Module{
		SourceLanguage: "python",
		Globals:        []sil.GlobalDecl{{Name: sil.QualifiedName{Value: "mod::x"}, Type: sil.Object()}},
		Builtins:       []sil.BuiltinDecl{{Name: "python_int", Params: []sil.ValueType{sil.Int()}, Return: sil.Object()}},
		Procs: []sil.Proc{
			{
				Name: sil.QualifiedName{Value: "mod"},
				Blocks: []sil.Block{
					{
						Label: "b0",
						Instrs: []sil.Instr{
							{Kind: sil.InstrBind, Bind: sil.BindInstr{Dst: "n1", Rhs: sil.BuiltinCallValue("python_int", []sil.Value{sil.ConstInt(42)})}},
							{Kind: sil.InstrStore, Store: sil.StoreInstr{Dst: sil.Lval{Kind: sil.LvalGlobal, Name: "mod::x"}, Rhs: sil.Temp("n1"), Typ: sil.Object()}},
							{Kind: sil.InstrRet, Ret: sil.RetInstr{Value: sil.Null()}},
						},
					},
				},
			},
		},
	}
}

func TestCheckBlocksTerminatedPasses(t *testing.T) {
	if err := CheckBlocksTerminated(simpleModule()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCheckBlocksTerminatedCatchesMissingTerminator(t *testing.T) {
	m := simpleModule()
	m.Procs[0].Blocks[0].Instrs = m.Procs[0].Blocks[0].Instrs[:2] // drop the ret
	if err := CheckBlocksTerminated(m); err == nil {
		t.Fatalf("expected an error for a block with no terminator")
	}
}

func TestCheckSSAArityPasses(t *testing.T) {
	m := &sil.Module{
		Procs: []sil.Proc{{
			Name: sil.QualifiedName{Value: "f"},
			Blocks: []sil.Block{
				{Label: "b0", Instrs: []sil.Instr{
					{Kind: sil.InstrJmp, Jmp: sil.JmpInstr{Targets: []sil.JmpTarget{{Label: "b1", Args: []sil.Value{sil.ConstInt(1)}}}}},
				}},
				{Label: "b1", Params: []sil.Param{{Name: "n1", Type: sil.Int()}}, Instrs: []sil.Instr{
					{Kind: sil.InstrRet, Ret: sil.RetInstr{Value: sil.Temp("n1")}},
				}},
			},
		}},
	}
	if err := CheckSSAArity(m); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCheckSSAArityCatchesMismatch(t *testing.T) {
	m := &sil.Module{
		Procs: []sil.Proc{{
			Name: sil.QualifiedName{Value: "f"},
			Blocks: []sil.Block{
				{Label: "b0", Instrs: []sil.Instr{
					{Kind: sil.InstrJmp, Jmp: sil.JmpInstr{Targets: []sil.JmpTarget{{Label: "b1", Args: nil}}}},
				}},
				{Label: "b1", Params: []sil.Param{{Name: "n1", Type: sil.Int()}}, Instrs: []sil.Instr{
					{Kind: sil.InstrRet, Ret: sil.RetInstr{Value: sil.Temp("n1")}},
				}},
			},
		}},
	}
	if err := CheckSSAArity(m); err == nil {
		t.Fatalf("expected an arity mismatch error")
	}
}

func TestCheckSSAArityCatchesUndeclaredLabel(t *testing.T) {
	m := &sil.Module{
		Procs: []sil.Proc{{
			Name: sil.QualifiedName{Value: "f"},
			Blocks: []sil.Block{
				{Label: "b0", Instrs: []sil.Instr{
					{Kind: sil.InstrJmp, Jmp: sil.JmpInstr{Targets: []sil.JmpTarget{{Label: "ghost"}}}},
				}},
			},
		}},
	}
	if err := CheckSSAArity(m); err == nil {
		t.Fatalf("expected an undeclared-label error")
	}
}

func TestCheckBuiltinClosurePasses(t *testing.T) {
	if err := CheckBuiltinClosure(simpleModule()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCheckBuiltinClosureCatchesUndeclaredBuiltin(t *testing.T) {
	m := simpleModule()
	m.Builtins = nil
	if err := CheckBuiltinClosure(m); err == nil {
		t.Fatalf("expected an error for a builtin call without a matching declare")
	}
}

func TestCheckSymbolClosurePasses(t *testing.T) {
	if err := CheckSymbolClosure(simpleModule()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCheckSymbolClosureCatchesUndeclaredGlobal(t *testing.T) {
	m := simpleModule()
	m.Globals = nil
	if err := CheckSymbolClosure(m); err == nil {
		t.Fatalf("expected an error for a store to an undeclared global")
	}
}

func TestCheckClassFieldsPasses(t *testing.T) {
	m := &sil.Module{
		Records: []sil.RecordDecl{{Name: "C", Fields: []sil.Field{{Name: "x", Type: sil.Object()}}}},
		Procs: []sil.Proc{{
			Name:          sil.QualifiedName{Value: "mod::C::__init__"},
			IsClassMethod: true,
			Blocks: []sil.Block{{Label: "b0", Instrs: []sil.Instr{
				{Kind: sil.InstrSetAttr, SetAttr: sil.SetAttrInstr{Base: sil.Local("self"), Attr: "x", Rhs: sil.ConstInt(1), Typ: sil.Object()}},
				{Kind: sil.InstrRet, Ret: sil.RetInstr{Value: sil.Null()}},
			}}},
		}},
	}
	if err := CheckClassFields(m); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCheckClassFieldsCatchesMissingField(t *testing.T) {
	m := &sil.Module{
		Records: []sil.RecordDecl{{Name: "C", Fields: nil}},
		Procs: []sil.Proc{{
			Name:          sil.QualifiedName{Value: "mod::C::__init__"},
			IsClassMethod: true,
			Blocks: []sil.Block{{Label: "b0", Instrs: []sil.Instr{
				{Kind: sil.InstrSetAttr, SetAttr: sil.SetAttrInstr{Base: sil.Local("self"), Attr: "x", Rhs: sil.ConstInt(1), Typ: sil.Object()}},
			}}},
		}},
	}
	if err := CheckClassFields(m); err == nil {
		t.Fatalf("expected an error for a field written but not in the record type")
	}
}

func TestNilModuleReturnsError(t *testing.T) {
	checks := []func(*sil.Module) error{
		CheckBlocksTerminated, CheckSSAArity, CheckBuiltinClosure, CheckSymbolClosure, CheckClassFields,
	}
	for _, check := range checks {
		if err := check(nil); err == nil {
			t.Fatalf("expected every invariant check to reject a nil module")
		}
	}
}
