package ast

// TypeExpr is the syntactic form of a type annotation as written in
// source — a variable declaration, parameter, field, or cast target.
// Semantic elaboration (internal/types) resolves this into a
// types.Type.
type TypeExpr struct {
	Base
	Name         string // "int", "float", "double", "bool", "str", "char", "void", or a struct name
	Indirection  int    // number of trailing '*'
	ArraySize    int    // 0 for a dynamic T[]; >0 for a fixed-size array
	IsArray      bool
}

func NewTypeExpr(span Span, name string, indirection int) *TypeExpr {
	return &TypeExpr{Base: Base{span}, Name: name, Indirection: indirection}
}
