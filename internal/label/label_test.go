package label

import (
	"testing"

	"silgen/internal/sil"
)

func TestRegisterAndLookupLabel(t *testing.T) {
	m := New()
	if err := m.RegisterLabel(10, MkLabel("b1", []sil.ValueType{sil.Int()})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, ok := m.LabelAt(10)
	if !ok || info.Name != "b1" {
		t.Fatalf("expected label b1 at offset 10, got %+v ok=%v", info, ok)
	}
	if _, ok := m.LabelAt(11); ok {
		t.Fatalf("no label should be registered at offset 11")
	}
}

func TestRegisterLabelMergesCompatibleJoins(t *testing.T) {
	m := New()
	if err := m.RegisterLabel(10, MkLabel("", []sil.ValueType{sil.Int()}, Prelude{Kind: PreludePrune})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.RegisterLabel(10, MkLabel("b1", []sil.ValueType{sil.Int()}, Prelude{Kind: PreludePruneNot})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, ok := m.LabelAt(10)
	if !ok {
		t.Fatalf("expected merged label at offset 10")
	}
	if info.Name != "b1" {
		t.Fatalf("expected the second registration's name to fill the empty one, got %q", info.Name)
	}
	if len(info.Preludes) != 2 {
		t.Fatalf("expected preludes from both registrations concatenated, got %+v", info.Preludes)
	}
}

func TestRegisterLabelRejectsArityMismatch(t *testing.T) {
	m := New()
	if err := m.RegisterLabel(10, MkLabel("b1", []sil.ValueType{sil.Int()})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := m.RegisterLabel(10, MkLabel("b1", []sil.ValueType{sil.Int(), sil.String()}))
	if err == nil {
		t.Fatalf("expected an SSA arity mismatch error")
	}
}

func TestRegisterLabelRejectsTypeMismatch(t *testing.T) {
	m := New()
	if err := m.RegisterLabel(10, MkLabel("b1", []sil.ValueType{sil.Int()})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := m.RegisterLabel(10, MkLabel("b1", []sil.ValueType{sil.String()}))
	if err == nil {
		t.Fatalf("expected an SSA param type mismatch error")
	}
}

func TestProcessLabelGatesReentry(t *testing.T) {
	m := New()
	m.RegisterLabel(10, MkLabel("b1", nil))
	info, _ := m.LabelAt(10)
	if info.Processed {
		t.Fatalf("label should start unprocessed")
	}
	m.ProcessLabel(10)
	info, _ = m.LabelAt(10)
	if !info.Processed {
		t.Fatalf("ProcessLabel should mark the label processed")
	}
}

func TestToTextualMintsParamsAndPreludes(t *testing.T) {
	m := New()
	operand := sil.Local("c")
	m.RegisterLabel(10, MkLabel("b1", []sil.ValueType{sil.Int(), sil.Bool()}, Prelude{Kind: PreludePrune, Operand: operand}))

	var minted []sil.ValueType
	name, params, prelude, forIterBody, ok := m.ToTextual(10, func(t sil.ValueType) string {
		minted = append(minted, t)
		return "n" + string(rune('0'+len(minted)))
	})
	if !ok {
		t.Fatalf("expected ToTextual to find the registered label")
	}
	if name != "b1" {
		t.Fatalf("expected name b1, got %q", name)
	}
	if len(params) != 2 || params[0].Type != sil.Int() || params[1].Type != sil.Bool() {
		t.Fatalf("expected two SSA params (Int, Bool), got %+v", params)
	}
	if len(prelude) != 1 || prelude[0].Kind != sil.InstrPrune || prelude[0].Prune.Negate {
		t.Fatalf("expected one non-negated prune instruction, got %+v", prelude)
	}
	if forIterBody {
		t.Fatalf("this label was not registered as a for-iter body")
	}
}

func TestToTextualMissingOffset(t *testing.T) {
	m := New()
	_, _, _, _, ok := m.ToTextual(99, func(sil.ValueType) string { return "n1" })
	if ok {
		t.Fatalf("expected ok=false for an unregistered offset")
	}
}
