package ast

import (
	"fmt"
	"strings"
)

// Dump renders a Program as an indented debug tree. It is not a
// pretty-printer (spec.md's Non-goals explicitly exclude
// source-preserving pretty-printing) — it exists for `--debug` dumps
// and test fixtures.
func Dump(p *Program) string {
	var b strings.Builder
	for _, s := range p.Statements {
		dumpStmt(&b, s, 0)
	}
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
}

func dumpStmt(b *strings.Builder, s Stmt, depth int) {
	indent(b, depth)
	switch n := s.(type) {
	case *FunctionDef:
		fmt.Fprintf(b, "FunctionDef %s\n", n.Name)
		for _, st := range n.Body {
			dumpStmt(b, st, depth+1)
		}
	case *VarDecl:
		fmt.Fprintf(b, "VarDecl %s = %s\n", n.Name, dumpExprString(n.Init))
	case *If:
		fmt.Fprintf(b, "If %s\n", dumpExprString(n.Cond))
		for _, st := range n.Then {
			dumpStmt(b, st, depth+1)
		}
	case *While:
		fmt.Fprintf(b, "While %s\n", dumpExprString(n.Cond))
		for _, st := range n.Body {
			dumpStmt(b, st, depth+1)
		}
	case *Return:
		fmt.Fprintf(b, "Return %s\n", dumpExprString(n.Value))
	case *ExprStmt:
		fmt.Fprintf(b, "ExprStmt %s\n", dumpExprString(n.X))
	default:
		fmt.Fprintf(b, "%T\n", n)
	}
}

func dumpExprString(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	switch n := e.(type) {
	case *Number:
		return fmt.Sprintf("%d", n.Value)
	case *Float:
		return fmt.Sprintf("%g", n.Value)
	case *String:
		return fmt.Sprintf("%q", n.Value)
	case *Variable:
		return n.Name
	case *Binary:
		return fmt.Sprintf("(%s %s %s)", dumpExprString(n.Left), n.Op, dumpExprString(n.Right))
	case *Call:
		return fmt.Sprintf("%s(...)", dumpExprString(n.Callee))
	default:
		return fmt.Sprintf("%T", n)
	}
}
