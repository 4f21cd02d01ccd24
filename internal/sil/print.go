package sil

import (
	"fmt"
	"io"
)

// Fprint writes m as Textual IR. It is a convenience for tests and the
// CLI; the authoritative pretty-printer and type verifier are external
// collaborators.
func Fprint(w io.Writer, m *Module) error {
	if w == nil || m == nil {
		return nil
	}
	lang := m.SourceLanguage
	if lang == "" {
		lang = "python"
	}
	if _, err := fmt.Fprintf(w, ".source_language = %q\n\n", lang); err != nil {
		return err
	}

	for _, r := range m.Records {
		if err := fprintRecord(w, r); err != nil {
			return err
		}
	}
	for _, g := range m.Globals {
		if err := fprintGlobal(w, g); err != nil {
			return err
		}
	}
	for _, b := range m.Builtins {
		if err := fprintBuiltin(w, b); err != nil {
			return err
		}
	}
	for _, p := range m.Procs {
		if err := fprintProc(w, p); err != nil {
			return err
		}
	}
	return nil
}

func fprintRecord(w io.Writer, r RecordDecl) error {
	if _, err := fmt.Fprintf(w, "type %s = {", r.Name); err != nil {
		return err
	}
	for i, f := range r.Fields {
		if i > 0 {
			if _, err := fmt.Fprint(w, "; "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s: *%s", f.Name, f.Type); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "}\n\n")
	return err
}

func fprintGlobal(w io.Writer, g GlobalDecl) error {
	_, err := fmt.Fprintf(w, "global %s: *%s\n\n", g.Name.Value, g.Type)
	return err
}

func fprintBuiltin(w io.Writer, b BuiltinDecl) error {
	if _, err := fmt.Fprintf(w, "declare $builtins.%s(", b.Name); err != nil {
		return err
	}
	for i, p := range b.Params {
		if i > 0 {
			if _, err := fmt.Fprint(w, ", "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "*%s", p); err != nil {
			return err
		}
	}
	if b.Variadic {
		if len(b.Params) > 0 {
			if _, err := fmt.Fprint(w, ", "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(w, "..."); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, ") : *%s\n\n", b.Return)
	return err
}

func fprintProc(w io.Writer, p Proc) error {
	if _, err := fmt.Fprintf(w, "define %s(", p.Name.Value); err != nil {
		return err
	}
	for i, param := range p.Params {
		if i > 0 {
			if _, err := fmt.Fprint(w, ", "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s: *%s", param.Name, param.Type); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, ") : *%s {\n", p.Return); err != nil {
		return err
	}
	for _, b := range p.Blocks {
		if err := fprintBlock(w, b); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "}\n\n")
	return err
}

func fprintBlock(w io.Writer, b Block) error {
	if _, err := fmt.Fprintf(w, "  #%s(", b.Label); err != nil {
		return err
	}
	for i, p := range b.Params {
		if i > 0 {
			if _, err := fmt.Fprint(w, ", "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s: *%s", p.Name, p.Type); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(w, "):\n"); err != nil {
		return err
	}
	for _, in := range b.Instrs {
		if _, err := fmt.Fprint(w, "    "); err != nil {
			return err
		}
		if err := fprintInstr(w, in); err != nil {
			return err
		}
		if _, err := fmt.Fprint(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func fprintInstr(w io.Writer, in Instr) error {
	switch in.Kind {
	case InstrStore:
		_, err := fmt.Fprintf(w, "store %s <- %s: *%s", lvalStr(in.Store.Dst), valueStr(in.Store.Rhs), in.Store.Typ)
		return err
	case InstrBind:
		_, err := fmt.Fprintf(w, "%s = %s", in.Bind.Dst, valueStr(in.Bind.Rhs))
		return err
	case InstrLoad:
		_, err := fmt.Fprintf(w, "%s:*%s = load %s", in.Load.Dst, in.Load.Typ, lvalStr(in.Load.Src))
		return err
	case InstrGetAttr:
		_, err := fmt.Fprintf(w, "%s = %s.?.%s", in.GetAttr.Dst, valueStr(in.GetAttr.Base), in.GetAttr.Attr)
		return err
	case InstrSetAttr:
		_, err := fmt.Fprintf(w, "store %s.?.%s <- %s: *%s", valueStr(in.SetAttr.Base), in.SetAttr.Attr, valueStr(in.SetAttr.Rhs), in.SetAttr.Typ)
		return err
	case InstrJmp:
		return fprintJmp(w, in.Jmp)
	case InstrPrune:
		if in.Prune.Negate {
			_, err := fmt.Fprintf(w, "prune __sil_lnot(%s)", valueStr(in.Prune.Operand))
			return err
		}
		_, err := fmt.Fprintf(w, "prune %s", valueStr(in.Prune.Operand))
		return err
	case InstrRet:
		_, err := fmt.Fprintf(w, "ret %s", valueStr(in.Ret.Value))
		return err
	default:
		return fmt.Errorf("sil: unknown instruction kind %d", in.Kind)
	}
}

func fprintJmp(w io.Writer, j JmpInstr) error {
	if _, err := fmt.Fprint(w, "jmp "); err != nil {
		return err
	}
	for i, t := range j.Targets {
		if i > 0 {
			if _, err := fmt.Fprint(w, ", "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s(", t.Label); err != nil {
			return err
		}
		for j, a := range t.Args {
			if j > 0 {
				if _, err := fmt.Fprint(w, ", "); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprint(w, valueStr(a)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(w, ")"); err != nil {
			return err
		}
	}
	return nil
}

func lvalStr(l Lval) string {
	switch l.Kind {
	case LvalGlobal:
		return "&" + l.Name
	default:
		return "&" + l.Name
	}
}

func valueStr(v Value) string {
	switch v.Kind {
	case VConst:
		switch v.Const.Kind {
		case CInt:
			return fmt.Sprintf("%d", v.Const.I)
		case CFloat:
			return fmt.Sprintf("%g", v.Const.F)
		case CBool:
			if v.Const.B {
				return "true"
			}
			return "false"
		case CString:
			return fmt.Sprintf("%q", v.Const.S)
		}
		return "?const"
	case VNull:
		return "null"
	case VTemp:
		return v.Temp
	case VLval:
		return lvalStr(v.Lval)
	case VCall:
		return fmt.Sprintf("%s(%s)", v.Call.Callee.Value, valueListStr(v.Call.Args))
	case VBuiltinCall:
		return fmt.Sprintf("$builtins.%s(%s)", v.BuiltinCall.Name, valueListStr(v.BuiltinCall.Args))
	case VBuiltinRef:
		return "$builtins." + v.BuiltinRef
	default:
		return "?value"
	}
}

func valueListStr(vs []Value) string {
	s := ""
	for i, v := range vs {
		if i > 0 {
			s += ", "
		}
		s += valueStr(v)
	}
	return s
}
