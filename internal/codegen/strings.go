package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/quark-lang/quarkc/internal/builtins"
	quarktypes "github.com/quark-lang/quarkc/internal/types"
)

// Malloc emits a call to libc malloc, returning an i8* (spec.md
// §4.4.3's heap-owned string/struct allocation convention).
func (c *Context) Malloc(size value.Value) value.Value {
	malloc := c.RuntimeFunc("malloc")
	return c.block.NewCall(malloc, size)
}

// Free emits a call to libc free. The builtins call it on the
// temporary strings they create by stringifying print/format
// arguments, right after those strings are used; other temporary
// strs (builtin results that are not bound to a variable) are not
// freed automatically.
func (c *Context) Free(ptr value.Value) {
	free := c.RuntimeFunc("free")
	c.block.NewCall(free, ptr)
}

// NewStringConstant interns src as a private global constant named `.str.N`
// and returns an i8* to its first byte. Identical literals are
// deduplicated within one compilation unit.
func (c *Context) NewStringConstant(src string) value.Value {
	if g, ok := c.gen.stringGlobals[src]; ok {
		return c.gepStringGlobal(g)
	}
	c.gen.stringCounter++
	name := fmt.Sprintf(".str.%d", c.gen.stringCounter)
	data := constant.NewCharArrayFromString(src + "\x00")
	g := c.gen.Module.NewGlobalDef(name, data)
	g.Immutable = true
	g.Linkage = enum.LinkagePrivate
	c.gen.stringGlobals[src] = g
	return c.gepStringGlobal(g)
}

func (c *Context) gepStringGlobal(g *ir.Global) value.Value {
	zero := constant.NewInt(irtypes.I32, 0)
	return constant.NewGetElementPtr(g.ContentType, g, zero, zero)
}

// Stringify converts an arbitrary typed value into a freshly malloc'd
// null-terminated str, the way print/format auto-stringify a
// non-string argument (spec.md §4.5). The caller owns the returned
// buffer and must Free it once done (builtins free their own
// temporaries; a user-level to_string call hands ownership to the
// caller, per spec.md §4.4.3).
func (c *Context) Stringify(a builtins.Arg) value.Value {
	snprintf := c.RuntimeFunc("snprintf")
	fmtStr, val := c.stringifyFormat(a)

	sizeArg := constant.NewInt(irtypes.I64, 0)
	nullPtr := constant.NewNull(irtypes.NewPointer(irtypes.I8))
	needed := c.block.NewCall(snprintf, nullPtr, sizeArg, fmtStr, val)

	one := constant.NewInt(irtypes.I64, 1)
	sz := c.block.NewAdd(c.block.NewSExt(needed, irtypes.I64), one)
	out := c.Malloc(sz)
	c.block.NewCall(snprintf, out, sz, fmtStr, val)
	return out
}

// stringifyFormat picks the printf-family conversion specifier for a
// value's Quark type and widens it to the type snprintf's variadic
// calling convention expects (bool/char promote to i32; float
// promotes to double — the same default-argument-promotion rules C
// itself applies).
func (c *Context) stringifyFormat(a builtins.Arg) (value.Value, value.Value) {
	switch a.Type.Kind {
	case quarktypes.KInt:
		return c.NewStringConstant("%d"), a.Value
	case quarktypes.KFloat:
		widened := c.block.NewFPExt(a.Value, irtypes.Double)
		return c.NewStringConstant("%g"), widened
	case quarktypes.KDouble:
		return c.NewStringConstant("%g"), a.Value
	case quarktypes.KBool:
		widened := c.block.NewZExt(a.Value, irtypes.I32)
		return c.NewStringConstant("%d"), widened
	case quarktypes.KChar:
		widened := c.block.NewZExt(a.Value, irtypes.I32)
		return c.NewStringConstant("%c"), widened
	case quarktypes.KStr:
		return c.NewStringConstant("%s"), a.Value
	default:
		return c.NewStringConstant("%p"), a.Value
	}
}
