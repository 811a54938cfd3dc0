package ir

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented, human-readable form of the statement tree.
func Dump(w io.Writer, s *Stmt) error {
	var sb strings.Builder
	dumpStmt(&sb, s, 0)
	_, err := io.WriteString(w, sb.String())
	return err
}

func dumpStmt(sb *strings.Builder, s *Stmt, depth int) {
	indent := strings.Repeat("  ", depth)
	if s == nil {
		sb.WriteString(indent + "<nil>\n")
		return
	}
	switch d := s.Data.(type) {
	case SeqData:
		for _, st := range d.Stmts {
			dumpStmt(sb, st, depth)
		}
	case IfData:
		fmt.Fprintf(sb, "%sif %s {\n", indent, d.Cond)
		dumpStmt(sb, d.Then, depth+1)
		if d.Else != nil {
			sb.WriteString(indent + "} else {\n")
			dumpStmt(sb, d.Else, depth+1)
		}
		sb.WriteString(indent + "}\n")
	case WhileData:
		if d.PostCondition {
			sb.WriteString(indent + "do {\n")
			dumpStmt(sb, d.Body, depth+1)
			fmt.Fprintf(sb, "%s} while %s\n", indent, d.Cond)
			return
		}
		fmt.Fprintf(sb, "%swhile %s {\n", indent, d.Cond)
		dumpStmt(sb, d.Body, depth+1)
		sb.WriteString(indent + "}\n")
	case LabelData:
		fmt.Fprintf(sb, "%s%s:\n", indent, d.Name)
	case SuspendData:
		if d.Registrar == nil {
			sb.WriteString(indent + "suspend\n")
			return
		}
		fmt.Fprintf(sb, "%ssuspend %s\n", indent, d.Registrar)
	case YieldData:
		fmt.Fprintf(sb, "%syield %s\n", indent, d.Value)
	case AcceptData:
		if d.Dst.IsValid() {
			fmt.Fprintf(sb, "%s$%d := accept\n", indent, d.Dst)
			return
		}
		sb.WriteString(indent + "accept\n")
	case SuspendingCallData:
		call := &Expr{Kind: ExprAwait, Data: CallData{Callee: d.Callee, Args: d.Args}}
		if d.Dst.IsValid() {
			fmt.Fprintf(sb, "%s$%d := %s\n", indent, d.Dst, call)
			return
		}
		fmt.Fprintf(sb, "%s%s\n", indent, call)
	case GenericData:
		fmt.Fprintf(sb, "%s%s\n", indent, d.Expr)
	default:
		fmt.Fprintf(sb, "%s%s\n", indent, strings.ToLower(s.Kind.String()))
	}
}

// String renders the expression in infix form.
func (e *Expr) String() string {
	if e == nil {
		return "<nil>"
	}
	switch d := e.Data.(type) {
	case ConstData:
		return formatConst(d.Value)
	case LoadData:
		return fmt.Sprintf("$%d", d.Slot)
	case StoreData:
		return fmt.Sprintf("$%d := %s", d.Slot, d.Value)
	case UnaryData:
		return fmt.Sprintf("%s%s", d.Op, d.X)
	case BinaryData:
		return fmt.Sprintf("(%s %s %s)", d.X, d.Op, d.Y)
	case CallData:
		args := make([]string, len(d.Args))
		for i, a := range d.Args {
			args[i] = a.String()
		}
		prefix := ""
		if e.Kind == ExprAwait {
			prefix = "await "
		}
		return fmt.Sprintf("%s%s(%s)", prefix, d.Callee, strings.Join(args, ", "))
	case AcceptExprData:
		return "accept()"
	default:
		return e.Kind.String()
	}
}

func formatConst(v Value) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case string:
		return fmt.Sprintf("%q", v)
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("<%T>", v)
	}
}
