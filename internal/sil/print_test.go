package sil

import (
	"strings"
	"testing"
)

func TestFprintScalarModule(t *testing.T) {
	m := &Module{
		SourceLanguage: "python",
		Globals:        []GlobalDecl{{Name: QualifiedName{Value: "coin::x"}, Type: Object()}},
		Builtins:       []BuiltinDecl{{Name: "python_int", Params: []ValueType{Int()}, Return: Object()}},
		Procs: []Proc{
			{
				Name:   QualifiedName{Value: "coin"},
				Return: Object(),
				Blocks: []Block{
					{
						Label: "entry",
						Instrs: []Instr{
							{Kind: InstrBind, Bind: BindInstr{Dst: "n1", Rhs: BuiltinCallValue("python_int", []Value{ConstInt(42)})}},
							{Kind: InstrStore, Store: StoreInstr{Dst: Lval{Kind: LvalGlobal, Name: "coin::x"}, Rhs: Temp("n1"), Typ: Object()}},
							{Kind: InstrRet, Ret: RetInstr{Value: Null()}},
						},
					},
				},
			},
		},
	}

	var buf strings.Builder
	if err := Fprint(&buf, m); err != nil {
		t.Fatalf("Fprint: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`.source_language = "python"`,
		"global coin::x: *PyObject",
		"declare $builtins.python_int(*PyInt) : *PyObject",
		"define coin() : *PyObject {",
		"#entry():",
		`n1 = $builtins.python_int(42)`,
		"store &coin::x <- n1: *PyObject",
		"ret null",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestFprintNilIsNoop(t *testing.T) {
	var buf strings.Builder
	if err := Fprint(&buf, nil); err != nil {
		t.Fatalf("Fprint(nil): %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output for a nil module, got %q", buf.String())
	}
}

func TestFprintJmpWithArgs(t *testing.T) {
	m := &Module{
		Procs: []Proc{{
			Name: QualifiedName{Value: "f"},
			Blocks: []Block{
				{Label: "b0", Instrs: []Instr{
					{Kind: InstrJmp, Jmp: JmpInstr{Targets: []JmpTarget{{Label: "join", Args: []Value{ConstInt(1), ConstBool(true)}}}}},
				}},
				{Label: "join", Params: []Param{{Name: "n1", Type: Int()}, {Name: "n2", Type: Bool()}}, Instrs: []Instr{
					{Kind: InstrRet, Ret: RetInstr{Value: Temp("n1")}},
				}},
			},
		}},
	}
	var buf strings.Builder
	if err := Fprint(&buf, m); err != nil {
		t.Fatalf("Fprint: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "jmp join(1, true)") {
		t.Fatalf("expected a jmp with SSA args, got:\n%s", out)
	}
	if !strings.Contains(out, "#join(n1: *PyInt, n2: *PyBool):") {
		t.Fatalf("expected join block params, got:\n%s", out)
	}
}

func TestValueTypeStringForRecord(t *testing.T) {
	if got := Record("Point").String(); got != "Point" {
		t.Fatalf("expected record type to print its name, got %q", got)
	}
}
