package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir/constant"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/quark-lang/quarkc/internal/ast"
	quarktypes "github.com/quark-lang/quarkc/internal/types"
)

// lowerArrayLiteral malloc's a length-prefixed array sized to the
// literal's element count and stores each element in turn (spec.md
// §4.4.4). The element type is taken from the first element; later
// elements are coerced to match.
func (c *Context) lowerArrayLiteral(n *ast.ArrayLiteral) (value.Value, *quarktypes.Type, error) {
	if len(n.Elements) == 0 {
		return nil, nil, diagWrap(c, "GEN001", "empty array literals require an explicit element type, not yet supported", n.Span())
	}
	vals := make([]value.Value, len(n.Elements))
	tys := make([]*quarktypes.Type, len(n.Elements))
	for i, el := range n.Elements {
		v, ty, err := c.lowerExpr(el)
		if err != nil {
			return nil, nil, err
		}
		vals[i] = v
		tys[i] = ty
	}
	elemTy := tys[0]
	countConst := constant.NewInt(irtypes.I32, int64(len(vals)))
	payload := c.NewArray(elemTy, countConst)
	for i, v := range vals {
		idx := constant.NewInt(irtypes.I32, int64(i))
		addr := c.ElementPtr(elemTy, payload, idx)
		c.block.NewStore(c.coerce(v, tys[i], elemTy), addr)
	}
	return payload, quarktypes.Array(elemTy), nil
}

// lowerStructLiteral malloc's a struct's backing storage and
// initializes each declared field (spec.md §4.4.5); a literal that
// omits any declared field (inherited ones included) reports SEM004.
func (c *Context) lowerStructLiteral(n *ast.StructLiteral) (value.Value, *quarktypes.Type, error) {
	info, ok := c.gen.Structs[n.Name]
	if !ok {
		return nil, nil, diagWrap(c, "SEM001", fmt.Sprintf("unknown struct %q", n.Name), n.Span())
	}
	given := make(map[string]bool, len(n.Fields))
	for _, init := range n.Fields {
		given[init.Name] = true
	}
	for _, f := range info.AllFields(c.gen.Structs) {
		if !given[f.Name] {
			return nil, nil, diagWrap(c, "SEM004", fmt.Sprintf("struct literal %s is missing field %q", n.Name, f.Name), n.Span())
		}
	}
	st := c.gen.structType(n.Name)
	size := c.sizeOfStruct(info)
	raw := c.Malloc(constant.NewInt(irtypes.I64, size))
	ptr := c.block.NewBitCast(raw, irtypes.NewPointer(st))

	for _, init := range n.Fields {
		idx, fieldTy, ok := FieldIndex(c.gen.Structs, n.Name, init.Name)
		if !ok {
			return nil, nil, diagWrap(c, "SEM005", fmt.Sprintf("struct %s has no field %q", n.Name, init.Name), n.Span())
		}
		v, vt, err := c.lowerExpr(init.Value)
		if err != nil {
			return nil, nil, err
		}
		addr := c.block.NewGetElementPtr(st, ptr, constant.NewInt(irtypes.I32, 0), constant.NewInt(irtypes.I32, int64(idx)))
		c.block.NewStore(c.coerce(v, vt, fieldTy), addr)
	}
	return ptr, quarktypes.Struct(n.Name), nil
}

// sizeOfStruct sums field widths, padding each field to a multiple of
// its own width and the total to a multiple of the widest field; this
// natural-alignment layout needs no target datalayout query since all
// of quarkc's representations are fixed-width scalars or pointers (see
// elemSizeBytes).
func (c *Context) sizeOfStruct(info *quarktypes.StructInfo) int64 {
	var total, align int64 = 0, 1
	for _, f := range info.AllFields(c.gen.Structs) {
		sz := int64(elemSizeBytes(c.gen, f.Type))
		total = (total+sz-1)/sz*sz + sz
		if sz > align {
			align = sz
		}
	}
	total = (total + align - 1) / align * align
	if total == 0 {
		total = 1
	}
	return total
}
