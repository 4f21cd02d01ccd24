// Package lower is the bytecode-to-SSA translator: the Environment, the
// per-opcode Instruction Lowering rules, and the Module Assembler that
// drives one code object and every code object nested within it into
// Textual IR.
package lower

import (
	"fmt"

	"silgen/internal/bcir"
	"silgen/internal/builtin"
	"silgen/internal/config"
	"silgen/internal/diag"
	"silgen/internal/label"
	"silgen/internal/sil"
	"silgen/internal/stack"
	"silgen/internal/symtab"
)

// Env is the state threaded through translation. Module-scoped fields
// (Symbols, Builtins, the class list) persist across the procedures of
// one module translation; the rest is reset by EnterProc.
type Env struct {
	Symbols  *symtab.Registry
	Builtins *builtin.Registry

	ModuleName string

	Stack      stack.Stack
	Labels     *label.Manager
	TempInfo   map[string]symtab.Info
	InstrBuf   []sil.Instr
	Blocks     []sil.Block
	LastLoc    sil.Loc
	IsToplevel bool

	freshIDCtr    int
	freshLabelCtr int

	// QualPrefix is the dotted path prefix for qualified names minted
	// while translating the current procedure: the module name at
	// toplevel, "Module::Class" inside a class's methods.
	QualPrefix string

	// PendingClassBodies queues class bodies discovered via the
	// LOAD_BUILD_CLASS handshake for the Module Assembler's worklist.
	// Module-scoped: it survives EnterProc.
	PendingClassBodies []PendingClassBody

	// PendingFunctions queues nested function/method code objects
	// discovered as Code cells, to be translated once the Module
	// Assembler reaches them in its worklist.
	PendingFunctions []PendingFunction

	// Diags collects advisory diagnostics. Nil is valid: a nil Diags
	// silently drops every report, which is what translator unit tests
	// that don't care about advisories get by default.
	Diags *diag.Bag
}

// PendingFunction is a nested function or method code object discovered
// mid-translation, queued for the Module Assembler's worklist.
// QualPrefix is the enclosing scope's qualification prefix at the point
// of definition — the module name for a plain function, "Module::Class"
// for a method — so the assembler can resume translating it under the
// same prefix it was discovered in.
type PendingFunction struct {
	QualifiedName string
	QualPrefix    string
	Code          *bcir.CodeObject
}

// NewEnv constructs a module-scoped Env, seeding the Symbol Registry with
// every host builtin builtinsCfg makes known (the fixed defaults plus any
// [[builtins.extra]] declarations) so name resolution recognizes them as
// builtins rather than treating a reference to "print" as a read of an
// undeclared global. Call EnterProc before translating each code object.
func NewEnv(moduleName string, builtinsCfg config.BuiltinsConfig) *Env {
	extras := make([]builtin.ExtraDecl, 0, len(builtinsCfg.Extra))
	for _, d := range builtinsCfg.Extra {
		extras = append(extras, extraDeclFromConfig(d))
	}
	e := &Env{
		Symbols:    symtab.New(),
		Builtins:   builtin.NewWithConfig(builtinsCfg.Rename, extras),
		ModuleName: moduleName,
	}
	for _, name := range builtin.DefaultHostNames() {
		e.Symbols.RegisterSymbol(true, name, symtab.SymbolInfo{IsBuiltin: true, Info: symtab.Info{Type: sil.Object()}})
	}
	for _, d := range builtinsCfg.Extra {
		e.Symbols.RegisterSymbol(true, d.Name, symtab.SymbolInfo{IsBuiltin: true, Info: symtab.Info{Type: sil.Object()}})
	}
	return e
}

// extraDeclFromConfig resolves a manifest-declared builtin's string type
// names into sil.ValueType, falling back to Object for a name it doesn't
// recognize rather than rejecting the whole manifest.
func extraDeclFromConfig(d config.ExtraBuiltinDecl) builtin.ExtraDecl {
	params := make([]sil.ValueType, len(d.Params))
	for i, name := range d.Params {
		if t, ok := sil.ParseType(name); ok {
			params[i] = t
		} else {
			params[i] = sil.Object()
		}
	}
	ret := sil.Object()
	if t, ok := sil.ParseType(d.Return); ok {
		ret = t
	}
	return builtin.ExtraDecl{Name: d.Name, Params: params, Return: ret, Variadic: d.Variadic}
}

// EnterProc resets everything procedure-scoped: the stack, the
// instruction buffer, locals, labels, and the fresh-id/fresh-label
// counters. Globals, builtins_seen, functions, and classes are
// untouched.
func (e *Env) EnterProc(isToplevel bool, qualPrefix string) {
	e.Stack.Reset()
	e.InstrBuf = nil
	e.Blocks = nil
	e.Symbols.ResetLocals()
	e.Labels = label.New()
	e.TempInfo = make(map[string]symtab.Info)
	e.freshIDCtr = 0
	e.freshLabelCtr = 0
	e.IsToplevel = isToplevel
	e.QualPrefix = qualPrefix
}

// EnterNode resets the instruction buffer only, e.g. between sub-steps of
// lowering one source construct that itself starts a fresh buffer window.
func (e *Env) EnterNode() {
	e.InstrBuf = nil
}

// ResetStack empties the symbolic data stack, used on block entry once all
// live values have been materialized as SSA parameters.
func (e *Env) ResetStack() {
	e.Stack.Reset()
}

// MkFreshIdent allocates a fresh SSA identifier and records its Info.
func (e *Env) MkFreshIdent(info symtab.Info) string {
	e.freshIDCtr++
	id := fmt.Sprintf("n%d", e.freshIDCtr)
	e.TempInfo[id] = info
	return id
}

// MkFreshLabel allocates a fresh block label name.
func (e *Env) MkFreshLabel() string {
	e.freshLabelCtr++
	return fmt.Sprintf("b%d", e.freshLabelCtr)
}

// pushTemp pushes a Temp cell for a just-minted identifier onto the data
// stack. A small convenience shared by every lowering rule that produces
// exactly one result value.
func (e *Env) pushTemp(id string) {
	e.Stack.Push(stack.Temp(id))
}

// GetIdentInfo looks up a previously minted temporary's Info. Every Temp
// cell on the stack has a corresponding entry here.
func (e *Env) GetIdentInfo(id string) (symtab.Info, bool) {
	info, ok := e.TempInfo[id]
	return info, ok
}

// PushInstr appends an instruction to the current block's buffer.
func (e *Env) PushInstr(instr sil.Instr) {
	e.InstrBuf = append(e.InstrBuf, instr)
}

// UpdateLastLine records the most recently seen source location, used to
// attach locations to emitted diagnostics.
func (e *Env) UpdateLastLine(loc sil.Loc) {
	e.LastLoc = loc
}

// Loc returns the last-recorded source location.
func (e *Env) Loc() sil.Loc {
	return e.LastLoc
}

// ReportShadow records an Info diagnostic when a symbol registration
// overwrote an existing entry — the source language's shadowing
// semantics. A no-op when Diags is nil.
func (e *Env) ReportShadow(name string, offset int) {
	if e.Diags == nil {
		return
	}
	e.Diags.Add(diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.DeclShadowedSymbol,
		Message:  fmt.Sprintf("%q shadows a previous definition in this scope", name),
		Primary:  diag.Location{File: e.LastLoc.File, Offset: offset},
	})
}

// QualifiedName mints a QualifiedName under the current procedure's
// qualification prefix.
func (e *Env) QualifiedName(short string) sil.QualifiedName {
	value := short
	if e.QualPrefix != "" {
		value = e.QualPrefix + "::" + short
	}
	return sil.QualifiedName{Value: value, Loc: e.LastLoc}
}

// CloseBlock drains the instruction buffer into a finished Block with the
// given label and SSA parameters, appends it to Blocks, and resets the
// buffer for the next block. The instruction buffer is reset on entry to
// each procedure and each block; its contents are drained when a block
// is closed.
func (e *Env) CloseBlock(labelName string, params []sil.Param) {
	e.Blocks = append(e.Blocks, sil.Block{
		Label:  labelName,
		Params: params,
		Instrs: e.InstrBuf,
	})
	e.InstrBuf = nil
}

// CurrentTerminated reports whether the instruction buffer already ends in
// a terminator (jmp/ret), so the caller can skip synthesizing an implicit
// fallthrough jump.
func (e *Env) CurrentTerminated() bool {
	if len(e.InstrBuf) == 0 {
		return false
	}
	switch e.InstrBuf[len(e.InstrBuf)-1].Kind {
	case sil.InstrJmp, sil.InstrRet:
		return true
	default:
		return false
	}
}

// mapEnv threads the environment through a sequence, accumulating
// results — the canonical traversal idiom lowering rules use to process
// a list of sub-elements. Kept as a package-level generic helper (mapEnv,
// not map, since map is a builtin) rather than a method: Go generics
// don't support new type parameters on methods.
func mapEnv[T, R any](e *Env, xs []T, f func(*Env, T) (R, error)) ([]R, error) {
	out := make([]R, 0, len(xs))
	for _, x := range xs {
		r, err := f(e, x)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
