// Package label is the Label/Block Manager: it maps bytecode offsets to
// pending labels, records SSA parameter types and block preludes, and
// prevents a block from being materialized twice.
package label

import (
	"fmt"

	"silgen/internal/sil"
)

// PreludeKind is the deferred transformation applied when a label is
// materialized. A prelude is a small data record rather than a closure:
// the block materializer interprets it directly into a `prune`
// instruction.
type PreludeKind uint8

const (
	PreludeIdentity PreludeKind = iota
	PreludePrune
	PreludePruneNot
)

// Prelude is one deferred transformation; Operand is the already-bound
// value to prune on (typically the `c = $builtins.python_is_true(v)`
// temporary recorded at the conditional-jump site that registered this
// label).
type Prelude struct {
	Kind    PreludeKind
	Operand sil.Value
}

// Info is a pending label's {name, ssa_param_types, prelude, processed}.
//
// ForIterBody is a narrow extension beyond the {Identity, Prune, PruneNot}
// prelude set: it marks a label as the true-arm successor of a FOR_ITER
// branch, whose SSA parameters are the iterator and the PyIterItem that
// FOR_ITER fetched. The translator uses it to know it must read the
// loop's current item (`.next_item` of that second parameter) right
// after the block opens. Kept
// as a sibling flag rather than stuffed into Preludes, since the prelude
// encoding is otherwise closed.
type Info struct {
	Name          string
	SSAParamTypes []sil.ValueType
	Preludes      []Prelude
	Processed     bool
	ForIterBody   bool
}

// Manager is the procedure-scoped label table, rebuilt fresh per code
// object translated.
type Manager struct {
	byOffset map[int]*Info
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{byOffset: make(map[int]*Info)}
}

// MkLabel constructs a new Info with the given name and SSA parameter
// types, optionally with preludes.
func MkLabel(name string, ssaTypes []sil.ValueType, preludes ...Prelude) Info {
	return Info{Name: name, SSAParamTypes: ssaTypes, Preludes: preludes}
}

// RegisterLabel places a label at a future offset. If one is already
// registered there, the two are merged: SSA parameter arities must agree
// (a mismatch is a malformed-bytecode error), and the preludes are
// concatenated so both apply when the block materializes.
func (m *Manager) RegisterLabel(offset int, info Info) error {
	existing, ok := m.byOffset[offset]
	if !ok {
		copied := info
		m.byOffset[offset] = &copied
		return nil
	}
	if len(existing.SSAParamTypes) != len(info.SSAParamTypes) {
		return fmt.Errorf("label: SSA arity mismatch at offset %d: have %d params, got %d",
			offset, len(existing.SSAParamTypes), len(info.SSAParamTypes))
	}
	for i := range existing.SSAParamTypes {
		if existing.SSAParamTypes[i] != info.SSAParamTypes[i] {
			return fmt.Errorf("label: SSA param %d type mismatch at offset %d: have %s, got %s",
				i, offset, existing.SSAParamTypes[i], info.SSAParamTypes[i])
		}
	}
	existing.Preludes = append(existing.Preludes, info.Preludes...)
	existing.ForIterBody = existing.ForIterBody || info.ForIterBody
	if existing.Name == "" {
		existing.Name = info.Name
	}
	return nil
}

// ProcessLabel marks the label at offset as processed, gating re-entry
// during CFG traversal, so a back-edge relowers nothing.
func (m *Manager) ProcessLabel(offset int) {
	if info, ok := m.byOffset[offset]; ok {
		info.Processed = true
	}
}

// LabelAt returns the label registered at offset, if any. The
// translator consults this at every instruction boundary to detect an
// upcoming join.
func (m *Manager) LabelAt(offset int) (*Info, bool) {
	info, ok := m.byOffset[offset]
	return info, ok
}

// ToTextual instantiates SSA parameter identifiers for the label at
// offset using freshID, applies its preludes, and returns the data needed
// to open the new block: the block's name, its formal parameters, and the
// prelude instructions to emit first in the block body.
//
// freshID is called once per SSA parameter, in order, and should return a
// temp name bound in the caller's environment (the caller's
// mk_fresh_ident).
func (m *Manager) ToTextual(offset int, freshID func(sil.ValueType) string) (name string, params []sil.Param, bodyPrelude []sil.Instr, forIterBody bool, ok bool) {
	info, found := m.byOffset[offset]
	if !found {
		return "", nil, nil, false, false
	}
	params = make([]sil.Param, len(info.SSAParamTypes))
	for i, t := range info.SSAParamTypes {
		params[i] = sil.Param{Name: freshID(t), Type: t}
	}
	for _, p := range info.Preludes {
		switch p.Kind {
		case PreludePrune:
			bodyPrelude = append(bodyPrelude, sil.Instr{Kind: sil.InstrPrune, Prune: sil.PruneInstr{Operand: p.Operand}})
		case PreludePruneNot:
			bodyPrelude = append(bodyPrelude, sil.Instr{Kind: sil.InstrPrune, Prune: sil.PruneInstr{Operand: p.Operand, Negate: true}})
		}
	}
	return info.Name, params, bodyPrelude, info.ForIterBody, true
}
