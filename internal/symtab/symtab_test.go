package symtab

import (
	"testing"

	"silgen/internal/sil"
)

func TestRegisterSymbolReportsShadow(t *testing.T) {
	r := New()
	if shadowed := r.RegisterSymbol(true, "x", SymbolInfo{Info: Info{Type: sil.Int()}}); shadowed {
		t.Fatalf("first registration should not report shadowing")
	}
	if shadowed := r.RegisterSymbol(true, "x", SymbolInfo{Info: Info{Type: sil.String()}}); !shadowed {
		t.Fatalf("second registration of the same global name should report shadowing")
	}
	info, ok := r.LookupSymbol(true, "x")
	if !ok || info.Info.Type != sil.String() {
		t.Fatalf("expected the second registration to win, got %+v", info)
	}
}

func TestGlobalsPreservesOrderAndExcludesCodeAndClass(t *testing.T) {
	r := New()
	r.RegisterSymbol(true, "b", SymbolInfo{Info: Info{Type: sil.Int()}})
	r.RegisterSymbol(true, "a", SymbolInfo{Info: Info{Type: sil.String()}})
	r.RegisterSymbol(true, "fn", SymbolInfo{Info: Info{IsCode: true, Type: sil.Code()}})
	r.RegisterSymbol(true, "C", SymbolInfo{Info: Info{IsClass: true, Type: sil.Class()}})

	globals := r.Globals()
	if len(globals) != 2 {
		t.Fatalf("expected 2 globals (fn/C excluded), got %d: %+v", len(globals), globals)
	}
	if globals[0].Info.Type != sil.Int() || globals[1].Info.Type != sil.String() {
		t.Fatalf("expected globals in first-registration order (b, a), got %+v", globals)
	}
}

func TestGlobalsExcludesBuiltins(t *testing.T) {
	r := New()
	r.RegisterSymbol(true, "print", SymbolInfo{IsBuiltin: true, Info: Info{Type: sil.Object()}})
	r.RegisterSymbol(true, "x", SymbolInfo{Info: Info{Type: sil.Int()}})

	globals := r.Globals()
	if len(globals) != 1 || globals[0].Info.Type != sil.Int() {
		t.Fatalf("expected only x among globals (print is a builtin), got %+v", globals)
	}
	sym, ok := r.LookupSymbol(true, "print")
	if !ok || !sym.IsBuiltin {
		t.Fatalf("expected print to still resolve as a known builtin, got %+v ok=%v", sym, ok)
	}
}

func TestLookupLocalsShadowGlobals(t *testing.T) {
	r := New()
	r.RegisterSymbol(true, "x", SymbolInfo{Info: Info{Type: sil.Int()}})
	r.RegisterSymbol(false, "x", SymbolInfo{Info: Info{Type: sil.String()}})

	info, ok := r.Lookup("x")
	if !ok || info.Info.Type != sil.String() {
		t.Fatalf("expected locals to shadow globals, got %+v", info)
	}
}

func TestResetLocalsKeepsGlobals(t *testing.T) {
	r := New()
	r.RegisterSymbol(true, "g", SymbolInfo{Info: Info{Type: sil.Int()}})
	r.RegisterSymbol(false, "l", SymbolInfo{Info: Info{Type: sil.Int()}})
	r.ResetLocals()

	if _, ok := r.LookupSymbol(false, "l"); ok {
		t.Fatalf("ResetLocals should clear locals")
	}
	if _, ok := r.LookupSymbol(true, "g"); !ok {
		t.Fatalf("ResetLocals should not clear globals")
	}
}

func TestFunctionAndMethodSignaturesAreIndependentlyKeyed(t *testing.T) {
	r := New()
	r.RegisterFunction("mod", "f", Signature{Return: sil.Object()})
	r.RegisterMethod("C", "f", Signature{Return: sil.Int()})

	fnSig, ok := r.LookupSignature("mod", "f")
	if !ok || fnSig.Return != sil.Object() {
		t.Fatalf("expected module-scoped signature, got %+v ok=%v", fnSig, ok)
	}
	methodSig, ok := r.LookupSignature("C", "f")
	if !ok || methodSig.Return != sil.Int() {
		t.Fatalf("expected class-scoped signature, got %+v ok=%v", methodSig, ok)
	}
}

func TestClassRecordFieldOrderIsFirstWriteOrder(t *testing.T) {
	r := New()
	r.RecordField("C", "y", sil.Int())
	r.RecordField("C", "x", sil.String())
	r.RecordField("C", "y", sil.Bool()) // second write to y must not move it or change its type

	fields := r.ClassRecord("C")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %+v", fields)
	}
	if fields[0].Name != "y" || fields[0].Type != sil.Int() {
		t.Fatalf("expected first field y:Int (first write wins), got %+v", fields[0])
	}
	if fields[1].Name != "x" || fields[1].Type != sil.String() {
		t.Fatalf("expected second field x:String, got %+v", fields[1])
	}
}

func TestClassesInFirstRegistrationOrder(t *testing.T) {
	r := New()
	r.RegisterClass("B")
	r.RegisterClass("A")
	r.RegisterClass("B") // re-registration is a no-op

	classes := r.Classes()
	if len(classes) != 2 || classes[0] != "B" || classes[1] != "A" {
		t.Fatalf("expected [B A], got %v", classes)
	}
}
