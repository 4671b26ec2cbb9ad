// Package builtins is the registry of IR-template generators for
// Quark's built-in functions (spec.md §4.5): print, format, the
// str_*/array_* families, math, sleep, and the variadic dispatch
// group (print/format/to_string/to_int/min/max/clamp). Each entry is
// an *IR generator*, not a fixed function body: the generator inspects
// the caller's argument types and emits a specialized call sequence at
// the call site (spec.md §4.4.6).
//
// This package never imports internal/codegen — Emitter is declared
// here and satisfied structurally by codegen.Context, keeping the
// dependency one-directional (codegen imports builtins to look up and
// invoke templates).
package builtins

import (
	"github.com/llir/llvm/ir"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/quark-lang/quarkc/internal/diagnostics"
	quarktypes "github.com/quark-lang/quarkc/internal/types"
)

// Arg is one already-lowered call argument: its IR value plus the
// Quark type semantic elaboration assigned it.
type Arg struct {
	Value value.Value
	Type  *quarktypes.Type
}

// Emitter is the slice of *codegen.Context a builtin's Emit function
// needs: the current insertion block, the module being built, the
// diagnostics bus, and lazy access to libc/runtime-support function
// declarations and to type conversion. codegen.Context implements this
// interface without referencing this package.
type Emitter interface {
	Block() *ir.Block
	SetBlock(b *ir.Block)
	NewBlock(label string) *ir.Block
	Module() *ir.Module
	Bus() *diagnostics.Bus
	RuntimeFunc(name string) *ir.Func

	// IRType converts a Quark type to its LLVM representation.
	IRType(t *quarktypes.Type) irtypes.Type

	// Malloc/Free wrap calls to libc malloc/free.
	Malloc(size value.Value) value.Value
	Free(ptr value.Value)

	// NewStringConstant interns src as a read-only global and returns
	// an i8* pointer to its first byte (spec.md §4.4.3).
	NewStringConstant(src string) value.Value

	// Stringify converts a into a freshly malloc'd, null-terminated
	// str, used by print/format to auto-stringify non-string
	// arguments (spec.md §4.5).
	Stringify(a Arg) value.Value

	// ArrayLength/ArrayBase implement the length-prefixed array
	// convention of spec.md §4.4.4.
	ArrayLength(payload value.Value) value.Value
	ArrayBase(payload value.Value) value.Value
}

// Builtin describes one registered built-in function.
type Builtin struct {
	Name       string
	ReturnType *quarktypes.Type // nil if it depends on argument types (resolved per call by Emit)
	ParamTypes []*quarktypes.Type
	Variadic   bool
	// Emit lowers a call site. It receives the already-lowered,
	// already-typechecked argument list and returns the call's result
	// value and Quark type.
	Emit func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error)
}

// Registry maps a builtin's source-level name to its definition.
type Registry struct {
	byName map[string]*Builtin
}

// NewRegistry builds the full set of spec.md §4.5 builtins.
func NewRegistry() *Registry {
	r := &Registry{byName: map[string]*Builtin{}}
	registerIO(r)
	registerConversion(r)
	registerMath(r)
	registerString(r)
	registerArray(r)
	return r
}

func (r *Registry) add(b *Builtin) { r.byName[b.Name] = b }

// Lookup returns the builtin named name, if any.
func (r *Registry) Lookup(name string) (*Builtin, bool) {
	b, ok := r.byName[name]
	return b, ok
}

// Names returns every registered builtin name, for diagnostics/tests.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	return out
}
