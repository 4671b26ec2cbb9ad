package codegen

import (
	"github.com/llir/llvm/ir/constant"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	quarktypes "github.com/quark-lang/quarkc/internal/types"
)

// arrayHeaderSize is the 4-byte element-count header every dynamic
// array payload is preceded by (spec.md §4.4.4).
const arrayHeaderSize = 4

// NewArray malloc's a length-prefixed array of n elements of elemTy
// and returns a pointer to the payload (one past the header), the
// value every Quark array variable actually holds.
func (c *Context) NewArray(elemTy *quarktypes.Type, n value.Value) value.Value {
	elemSize := int64(elemSizeBytes(c.gen, elemTy))
	n64 := c.block.NewSExt(n, irtypes.I64)
	payloadSize := c.block.NewMul(n64, constant.NewInt(irtypes.I64, elemSize))
	total := c.block.NewAdd(payloadSize, constant.NewInt(irtypes.I64, arrayHeaderSize))

	raw := c.Malloc(total)
	header := c.block.NewBitCast(raw, irtypes.NewPointer(irtypes.I32))
	c.block.NewStore(n, header)

	payload := c.block.NewGetElementPtr(irtypes.I8, raw, constant.NewInt(irtypes.I64, arrayHeaderSize))
	return payload
}

// ArrayLength reads the 4-byte element count stored just before
// payload (spec.md §4.4.4's negative-offset header access).
func (c *Context) ArrayLength(payload value.Value) value.Value {
	headerPtr := c.block.NewGetElementPtr(irtypes.I8, payload, constant.NewInt(irtypes.I64, -arrayHeaderSize))
	typed := c.block.NewBitCast(headerPtr, irtypes.NewPointer(irtypes.I32))
	return c.block.NewLoad(irtypes.I32, typed)
}

// ArrayBase returns the original malloc'd pointer (the header start)
// given a payload pointer, for passing to free.
func (c *Context) ArrayBase(payload value.Value) value.Value {
	return c.block.NewGetElementPtr(irtypes.I8, payload, constant.NewInt(irtypes.I64, -arrayHeaderSize))
}

// ElementPtr computes the address of element i of an array payload,
// used by array-index read and write lowering (spec.md §4.4.4).
func (c *Context) ElementPtr(elemTy *quarktypes.Type, payload, index value.Value) value.Value {
	irElem := c.IRType(elemTy)
	typed := c.block.NewBitCast(payload, irtypes.NewPointer(irElem))
	idx64 := c.block.NewSExt(index, irtypes.I64)
	return c.block.NewGetElementPtr(irElem, typed, idx64)
}

// elemSizeBytes reports the storage width of a Quark type's LLVM
// representation, used to compute array allocation sizes without
// invoking a datalayout query (every representation quarkc emits is a
// fixed-width scalar or pointer).
func elemSizeBytes(g *Generator, t *quarktypes.Type) int {
	switch t.Kind {
	case quarktypes.KInt:
		return 4
	case quarktypes.KFloat:
		return 4
	case quarktypes.KDouble:
		return 8
	case quarktypes.KBool, quarktypes.KChar:
		return 1
	default:
		return 8 // pointer-sized: str, struct*, array payload, generic pointer
	}
}
