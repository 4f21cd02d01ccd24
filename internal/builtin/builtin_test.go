package builtin

import (
	"testing"

	"silgen/internal/sil"
)

func TestToDeclsAlwaysEmitsPrimitiveWrappers(t *testing.T) {
	r := New()
	decls := r.ToDecls()
	names := make(map[string]bool, len(decls))
	for _, d := range decls {
		names[d.Name] = true
	}
	for _, want := range []string{"python_int", "python_bool", "python_string", "python_tuple"} {
		if !names[want] {
			t.Fatalf("expected always-emitted builtin %q, got %+v", want, decls)
		}
	}
}

func TestToDeclsOnlyIncludesReferencedShims(t *testing.T) {
	r := New()
	r.Record(BinaryAdd)
	decls := r.ToDecls()
	for _, d := range decls {
		if d.Name == string(IsTrue) {
			t.Fatalf("IsTrue was never recorded, should not be emitted")
		}
	}
	found := false
	for _, d := range decls {
		if d.Name == string(BinaryAdd) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected binary_add to be emitted, got %+v", decls)
	}
}

func TestToDeclsOrdersHostBuiltinsByName(t *testing.T) {
	r := New()
	r.RecordHost("range")
	r.RecordHost("len")
	r.RecordHost("print")

	decls := r.ToDecls()
	var hostOrder []string
	for _, d := range decls {
		switch d.Name {
		case "range", "len", "print":
			hostOrder = append(hostOrder, d.Name)
		}
	}
	want := []string{"len", "print", "range"}
	if len(hostOrder) != len(want) {
		t.Fatalf("expected 3 host builtins, got %v", hostOrder)
	}
	for i := range want {
		if hostOrder[i] != want[i] {
			t.Fatalf("expected sorted host builtin order %v, got %v", want, hostOrder)
		}
	}
}

func TestUsesIterAndUsesMethod(t *testing.T) {
	r := New()
	if r.UsesIter() || r.UsesMethod() {
		t.Fatalf("fresh registry should report neither iter nor method usage")
	}
	r.Record(PythonIterNext)
	if !r.UsesIter() {
		t.Fatalf("expected UsesIter after recording PythonIterNext")
	}
	r.Record(PythonCallMethod)
	if !r.UsesMethod() {
		t.Fatalf("expected UsesMethod after recording PythonCallMethod")
	}
}

func TestUnknownHostBuiltinGetsGenericVariadicSignature(t *testing.T) {
	got := New().hostSignature("input")
	if !got.Variadic {
		t.Fatalf("unknown host builtins should default to variadic")
	}
	if len(got.Params) != 0 {
		t.Fatalf("unknown host builtins should have no fixed params, got %+v", got.Params)
	}
}

func TestIsKnownHostRecognizesDefaultsAndExtras(t *testing.T) {
	r := NewWithConfig(nil, []ExtraDecl{{Name: "input", Return: sil.Object()}})
	for _, name := range []string{"print", "range", "len", "input"} {
		if !r.IsKnownHost(name) {
			t.Fatalf("expected %q to be a known host builtin", name)
		}
	}
	if r.IsKnownHost("frobnicate") {
		t.Fatalf("did not expect frobnicate to be a known host builtin")
	}
}

func TestEmitNameAppliesRename(t *testing.T) {
	r := NewWithConfig(map[string]string{"print": "py_print"}, nil)
	if got := r.EmitName("print"); got != "py_print" {
		t.Fatalf("expected print to be renamed to py_print, got %q", got)
	}
	if got := r.EmitName("len"); got != "len" {
		t.Fatalf("expected len to be unaffected by an unrelated rename, got %q", got)
	}
}

func TestToDeclsAppliesRenameAndExtraSignature(t *testing.T) {
	r := NewWithConfig(map[string]string{"len": "py_len"}, []ExtraDecl{{Name: "input", Return: sil.Object(), Variadic: true}})
	r.RecordHost("len")
	r.RecordHost("input")

	decls := r.ToDecls()
	var sawLen, sawInput bool
	for _, d := range decls {
		if d.Name == "py_len" {
			sawLen = true
		}
		if d.Name == "len" {
			t.Fatalf("expected len's declare to carry its renamed name, got a bare %q entry", d.Name)
		}
		if d.Name == "input" {
			sawInput = true
			if !d.Variadic {
				t.Fatalf("expected input's extra declaration to be honored, got %+v", d)
			}
		}
	}
	if !sawLen || !sawInput {
		t.Fatalf("expected both py_len and input among builtins, got %+v", decls)
	}
}
