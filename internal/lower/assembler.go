package lower

import (
	"path/filepath"
	"strings"

	"silgen/internal/bcir"
	"silgen/internal/config"
	"silgen/internal/diag"
	"silgen/internal/sil"
	"silgen/internal/symtab"
)

// ToModule is the core translator's sole entry point: the Module Assembler. It drives
// translation of the top-level code object and, via a worklist, every
// code object nested within it (functions, methods, classes), then
// collects the results into a complete Textual IR module: procedure
// declarations, global declarations, user-class record declarations, the
// PyIterItem/PyMethod record declarations if their shims were used, and
// every referenced builtin declaration plus the always-emitted primitive
// wrappers.
//
// The returned Bag carries advisory diagnostics accumulated during this
// translation (currently: shadowed-symbol notices) plus whatever a
// caller-supplied downstream type/decl checker later adds to the same
// bag for the "downstream-reported" failure class — ToModule
// itself never populates that class. maxDiags caps the bag; 0 means
// unbounded. builtinsCfg carries a project manifest's host-builtin
// renames and extra declarations (config.BuiltinsConfig{} for none).
func ToModule(sourcefile string, top *bcir.CodeObject, maxDiags int, builtinsCfg config.BuiltinsConfig) (*sil.Module, *diag.Bag, error) {
	moduleName := moduleNameFromPath(sourcefile)
	env := NewEnv(moduleName, builtinsCfg)
	env.Diags = diag.NewBag(maxDiags)

	topProc, err := env.TranslateCode(top, sil.QualifiedName{Value: moduleName}, moduleName, true, nil, sil.Object())
	if err != nil {
		return nil, nil, err
	}
	procs := []sil.Proc{topProc}

	// Drain both worklists discovered while translating top (and
	// recursively, while translating anything they themselves discover)
	// until neither queue has anything left.
	for len(env.PendingFunctions) > 0 || len(env.PendingClassBodies) > 0 {
		for len(env.PendingFunctions) > 0 {
			pf := env.PendingFunctions[0]
			env.PendingFunctions = env.PendingFunctions[1:]
			proc, err := translateFunction(env, pf)
			if err != nil {
				return nil, nil, err
			}
			procs = append(procs, proc)
		}
		if len(env.PendingClassBodies) > 0 {
			pc := env.PendingClassBodies[0]
			env.PendingClassBodies = env.PendingClassBodies[1:]
			if err := translateClassBody(env, pc); err != nil {
				return nil, nil, err
			}
		}
	}

	module := &sil.Module{
		SourceLanguage: "python",
		Procs:          procs,
		Globals:        globalDecls(env),
		Records:        recordDecls(env),
		Builtins:       env.Builtins.ToDecls(),
	}
	env.Diags.Sort()
	return module, env.Diags, nil
}

// translateFunction drives one queued function or method's code object
// through TranslateCode under the qualification prefix it was discovered
// in, marking it as a class method when that prefix names a class.
func translateFunction(env *Env, pf PendingFunction) (sil.Proc, error) {
	params := paramsOf(pf.Code)
	proc, err := env.TranslateCode(pf.Code, sil.QualifiedName{Value: pf.QualifiedName}, pf.QualPrefix, false, params, sil.Object())
	if err != nil {
		return sil.Proc{}, err
	}
	proc.IsClassMethod = strings.Contains(pf.QualPrefix, "::")
	return proc, nil
}

// translateClassBody drives a class body's code object through
// TranslateCode purely for its side effects: every `def` it contains
// queues a PendingFunction qualified under "Module::Class" (stores.go's
// defineCode), and every `self.x = e:*T` queues a class record field
// (attr.go's selfAttrClass). The class body's own instruction stream
// becomes a throwaway Proc — CPython executes it once to populate the
// class namespace, but that namespace is this translator's class record
// plus its methods, not a `define`d procedure in its own right.
func translateClassBody(env *Env, pc PendingClassBody) error {
	qualPrefix := env.ModuleName + "::" + pc.ClassName
	_, err := env.TranslateCode(pc.Code, sil.QualifiedName{Value: qualPrefix}, qualPrefix, false, nil, sil.Object())
	return err
}

// paramsOf derives a code object's own formal parameter list from its
// argument count and local-variable-names table, each typed Object — the
// source bytecode model carries no parameter type annotations.
func paramsOf(co *bcir.CodeObject) []sil.Param {
	n := co.ArgCount
	if n > len(co.VarNames) {
		n = len(co.VarNames)
	}
	if n <= 0 {
		return nil
	}
	out := make([]sil.Param, n)
	for i := 0; i < n; i++ {
		out[i] = sil.Param{Name: co.VarNames[i], Type: sil.Object()}
	}
	return out
}

func toSymtabParams(params []sil.Param) []symtab.Param {
	out := make([]symtab.Param, len(params))
	for i, p := range params {
		out[i] = symtab.Param{Name: p.Name, Type: p.Type}
	}
	return out
}

// globalDecls emits a `global` declaration for every registered global
// symbol that is neither a function, a class, nor a builtin, each typed
// Object.
func globalDecls(env *Env) []sil.GlobalDecl {
	globals := env.Symbols.Globals()
	out := make([]sil.GlobalDecl, 0, len(globals))
	for _, g := range globals {
		out = append(out, sil.GlobalDecl{Name: g.QualifiedName, Type: sil.Object()})
	}
	return out
}

// recordDecls emits every user class's record type declaration, followed
// by PyIterItem and PyMethod when their builtins were referenced.
func recordDecls(env *Env) []sil.RecordDecl {
	classes := env.Symbols.Classes()
	out := make([]sil.RecordDecl, 0, len(classes)+2)
	for _, name := range classes {
		out = append(out, sil.RecordDecl{Name: name, Fields: env.Symbols.ClassRecord(name)})
	}
	if env.Builtins.UsesIter() {
		out = append(out, IterItemRecord)
	}
	if env.Builtins.UsesMethod() {
		out = append(out, MethodRecord)
	}
	return out
}

// moduleNameFromPath derives the Textual IR module's qualification
// prefix from the source file's base name, stripped of its extension —
// e.g. "examples/coin.pyc" becomes "coin", so "Module::fn" reads
// "coin::fn" for this input.
func moduleNameFromPath(sourcefile string) string {
	base := filepath.Base(sourcefile)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "module"
	}
	return base
}
