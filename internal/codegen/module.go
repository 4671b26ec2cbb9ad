package codegen

import (
	"github.com/llir/llvm/ir"
	irtypes "github.com/llir/llvm/ir/types"

	"github.com/quark-lang/quarkc/internal/runtime"
	quarktypes "github.com/quark-lang/quarkc/internal/types"
)

// externFunc returns the *ir.Func declaration for name, declaring it
// into the module the first time it's requested (spec.md §4.4.7's
// predeclare-before-use rule, applied uniformly to libc/runtime
// support and user extern functions alike).
func (g *Generator) externFunc(name string) *ir.Func {
	if fn, ok := g.declaredExtern[name]; ok {
		return fn
	}
	if proto, ok := runtime.Lookup(name); ok {
		fn := declareFunc(g.Module, proto.Name, proto.Ret, proto.Params, proto.Variadic)
		g.declaredExtern[name] = fn
		return fn
	}
	panic("codegen: no runtime prototype registered for " + name)
}

// RegisterExternFn predeclares a user `extern fn` (spec.md §4.4.7) so
// later call sites find it already declared regardless of where in
// the source file the extern appears relative to its callers.
func (g *Generator) RegisterExternFn(name string, ret *quarktypes.Type, params []*quarktypes.Type, variadic bool) *ir.Func {
	if fn, ok := g.declaredExtern[name]; ok {
		return fn
	}
	irParams := make([]irtypes.Type, len(params))
	for i, p := range params {
		irParams[i] = g.IRType(p)
	}
	fn := declareFunc(g.Module, name, g.IRType(ret), irParams, variadic)
	g.declaredExtern[name] = fn
	return fn
}

// RegisterExternStruct predeclares an opaque extern struct by name
// (spec.md §4.4.7): only pointers to it are ever formed, its layout
// is never known to the generator.
func (g *Generator) RegisterExternStruct(info *quarktypes.StructInfo) {
	g.Structs[info.Name] = info
	g.structType(info.Name) // predeclare as opaque; DefineStruct is a no-op for extern structs
}

func declareFunc(m *ir.Module, name string, ret irtypes.Type, params []irtypes.Type, variadic bool) *ir.Func {
	irParams := make([]*ir.Param, len(params))
	for i, p := range params {
		irParams[i] = ir.NewParam("", p)
	}
	fn := m.NewFunc(name, ret, irParams...)
	fn.Sig.Variadic = variadic
	return fn
}
