// Package testkit provides reusable invariant checks over an assembled
// Textual IR module, used by the translator's own unit tests. It checks
// testable
// properties directly against the emitted module rather than against
// translator-internal state, so the same checks work whether the module
// came from a fresh translation or one loaded back from the cache.
package testkit

import (
	"fmt"

	"silgen/internal/sil"
)

// CheckBlocksTerminated verifies every block in every procedure ends in
// a jmp or a ret — the invariant the driver's CurrentTerminated check
// maintains during translation.
func CheckBlocksTerminated(m *sil.Module) error {
	if m == nil {
		return fmt.Errorf("nil module")
	}
	for _, p := range m.Procs {
		for _, b := range p.Blocks {
			if len(b.Instrs) == 0 {
				return fmt.Errorf("%s: block %s has no instructions", p.Name.Value, b.Label)
			}
			last := b.Instrs[len(b.Instrs)-1]
			if last.Kind != sil.InstrJmp && last.Kind != sil.InstrRet {
				return fmt.Errorf("%s: block %s does not end in jmp/ret", p.Name.Value, b.Label)
			}
		}
	}
	return nil
}

// CheckSSAArity verifies every jmp target within a procedure supplies
// exactly the argument count its target block declares as parameters,
// with matching types.
func CheckSSAArity(m *sil.Module) error {
	if m == nil {
		return fmt.Errorf("nil module")
	}
	for _, p := range m.Procs {
		paramsByLabel := make(map[string][]sil.Param, len(p.Blocks))
		for _, b := range p.Blocks {
			paramsByLabel[b.Label] = b.Params
		}
		for _, b := range p.Blocks {
			for _, in := range b.Instrs {
				if in.Kind != sil.InstrJmp {
					continue
				}
				for _, t := range in.Jmp.Targets {
					params, ok := paramsByLabel[t.Label]
					if !ok {
						return fmt.Errorf("%s: block %s jumps to undeclared label %s", p.Name.Value, b.Label, t.Label)
					}
					if len(t.Args) != len(params) {
						return fmt.Errorf("%s: block %s -> %s: %d args, want %d", p.Name.Value, b.Label, t.Label, len(t.Args), len(params))
					}
				}
			}
		}
	}
	return nil
}

// CheckBuiltinClosure verifies every builtin referenced by an emitted
// instruction has a matching declare in the module.
func CheckBuiltinClosure(m *sil.Module) error {
	if m == nil {
		return fmt.Errorf("nil module")
	}
	declared := make(map[string]bool, len(m.Builtins))
	for _, b := range m.Builtins {
		declared[b.Name] = true
	}
	var missing []string
	walkValues(m, func(v sil.Value) {
		var name string
		switch v.Kind {
		case sil.VBuiltinCall:
			name = v.BuiltinCall.Name
		case sil.VBuiltinRef:
			name = v.BuiltinRef
		default:
			return
		}
		if !declared[name] {
			missing = append(missing, name)
		}
	})
	if len(missing) > 0 {
		return fmt.Errorf("builtin(s) referenced without a declare: %v", missing)
	}
	return nil
}

// CheckSymbolClosure verifies every load/store of a global refers to a
// declared global.
func CheckSymbolClosure(m *sil.Module) error {
	if m == nil {
		return fmt.Errorf("nil module")
	}
	declared := make(map[string]bool, len(m.Globals))
	for _, g := range m.Globals {
		declared[g.Name.Value] = true
	}
	var missing []string
	for _, p := range m.Procs {
		for _, b := range p.Blocks {
			for _, in := range b.Instrs {
				switch in.Kind {
				case sil.InstrLoad:
					if in.Load.Src.Kind == sil.LvalGlobal && !declared[in.Load.Src.Name] {
						missing = append(missing, in.Load.Src.Name)
					}
				case sil.InstrStore:
					if in.Store.Dst.Kind == sil.LvalGlobal && !declared[in.Store.Dst.Name] {
						missing = append(missing, in.Store.Dst.Name)
					}
				}
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("global(s) referenced without a declare: %v", missing)
	}
	return nil
}

// CheckClassFields verifies every field written via `self.x = v:*T`
// appears in that class's record type by cross-checking the record declarations against the
// SetAttr instructions found in every procedure marked IsClassMethod.
func CheckClassFields(m *sil.Module) error {
	if m == nil {
		return fmt.Errorf("nil module")
	}
	fieldsByRecord := make(map[string]map[string]bool, len(m.Records))
	for _, r := range m.Records {
		fields := make(map[string]bool, len(r.Fields))
		for _, f := range r.Fields {
			fields[f.Name] = true
		}
		fieldsByRecord[r.Name] = fields
	}
	for _, p := range m.Procs {
		if !p.IsClassMethod {
			continue
		}
		class := className(p.Name.Value)
		fields, ok := fieldsByRecord[class]
		if !ok {
			continue // the method writes no self.x, or the class has no record yet
		}
		for _, b := range p.Blocks {
			for _, in := range b.Instrs {
				if in.Kind != sil.InstrSetAttr {
					continue
				}
				if in.SetAttr.Base.Kind == sil.VLval && in.SetAttr.Base.Lval.Kind == sil.LvalLocal && in.SetAttr.Base.Lval.Name == "self" {
					if !fields[in.SetAttr.Attr] {
						return fmt.Errorf("class %s: field %q written but not in its record type", class, in.SetAttr.Attr)
					}
				}
			}
		}
	}
	return nil
}

// className extracts the class segment from a "Module::Class::method"
// qualified name.
func className(qualified string) string {
	parts := splitQualified(qualified)
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}

func splitQualified(s string) []string {
	var parts []string
	start := 0
	for i := 0; i+1 < len(s); i++ {
		if s[i] == ':' && s[i+1] == ':' {
			parts = append(parts, s[start:i])
			start = i + 2
			i++
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// walkValues visits every Value reachable from m's instructions.
func walkValues(m *sil.Module, visit func(sil.Value)) {
	for _, p := range m.Procs {
		for _, b := range p.Blocks {
			for _, in := range b.Instrs {
				switch in.Kind {
				case sil.InstrBind:
					walkValue(in.Bind.Rhs, visit)
				case sil.InstrStore:
					walkValue(in.Store.Rhs, visit)
				case sil.InstrGetAttr:
					walkValue(in.GetAttr.Base, visit)
				case sil.InstrSetAttr:
					walkValue(in.SetAttr.Base, visit)
					walkValue(in.SetAttr.Rhs, visit)
				case sil.InstrJmp:
					for _, t := range in.Jmp.Targets {
						for _, a := range t.Args {
							walkValue(a, visit)
						}
					}
				case sil.InstrPrune:
					walkValue(in.Prune.Operand, visit)
				case sil.InstrRet:
					walkValue(in.Ret.Value, visit)
				}
			}
		}
	}
}

func walkValue(v sil.Value, visit func(sil.Value)) {
	visit(v)
	switch v.Kind {
	case sil.VCall:
		for _, a := range v.Call.Args {
			walkValue(a, visit)
		}
	case sil.VBuiltinCall:
		for _, a := range v.BuiltinCall.Args {
			walkValue(a, visit)
		}
	}
}
