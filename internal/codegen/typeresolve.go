package codegen

import (
	"github.com/quark-lang/quarkc/internal/ast"
	quarktypes "github.com/quark-lang/quarkc/internal/types"
)

// resolveTypeExpr converts the syntactic form of a type annotation
// into the semantic types.Type codegen operates on (spec.md §4.3):
// base scalar/struct name first, then an array wrapper if declared
// `T[]`, then Indirection layers of Pointer wrapping outward.
func (c *Context) resolveTypeExpr(te *ast.TypeExpr) *quarktypes.Type {
	return c.gen.resolveTypeExpr(te)
}

func (g *Generator) resolveTypeExpr(te *ast.TypeExpr) *quarktypes.Type {
	var base *quarktypes.Type
	switch te.Name {
	case "int":
		base = quarktypes.Int
	case "float":
		base = quarktypes.Float
	case "double":
		base = quarktypes.Double
	case "bool":
		base = quarktypes.Bool
	case "char":
		base = quarktypes.Char
	case "str":
		base = quarktypes.Str
	case "void":
		base = quarktypes.Void
	default:
		base = quarktypes.Struct(te.Name)
	}

	if te.IsArray {
		base = quarktypes.Array(base)
	}
	for i := 0; i < te.Indirection; i++ {
		base = quarktypes.Pointer(base)
	}
	return base
}
