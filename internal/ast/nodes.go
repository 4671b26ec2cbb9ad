// Package ast defines Quark's abstract syntax tree. Every node is
// immutable once the parser has produced it; nodes own their children
// and carry no back-pointers (spec.md §9's "raw pointer graph" note).
package ast

// Node is the common interface satisfied by every AST node.
type Node interface {
	Span() Span
}

// Expr is any expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is any statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Base is embedded by every concrete node to satisfy Node and store
// its span. The field is exported so constructors in other packages
// (the parser) can build node literals directly.
type Base struct {
	Sp Span
}

func (b Base) Span() Span { return b.Sp }

// At is a convenience constructor for Base.
func At(span Span) Base { return Base{Sp: span} }
