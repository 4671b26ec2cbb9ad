// Package codegen lowers a fully type-annotated Quark AST into LLVM
// IR using github.com/llir/llvm/ir (spec.md §4.4). Semantic
// elaboration is interleaved with generation rather than a separate
// pass (spec.md §4.3): every lowering function returns the
// quarktypes.Type of the value it produced alongside the IR value, so
// its caller can coerce without re-inferring (spec.md §9's
// "TypeInfo-out-of-every-lowering-call" discipline).
package codegen

import (
	"github.com/llir/llvm/ir"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/quark-lang/quarkc/internal/ast"
	"github.com/quark-lang/quarkc/internal/builtins"
	"github.com/quark-lang/quarkc/internal/diagnostics"
	quarktypes "github.com/quark-lang/quarkc/internal/types"
)

// loopFrame is one entry of a Context's loop stack (spec.md §4.4.2):
// the blocks `break`/`continue` branch to.
type loopFrame struct {
	continueTarget *ir.Block
	breakTarget    *ir.Block
}

// Generator owns everything shared across the whole compilation unit:
// the module under construction, the struct registry, the declared
// extern/builtin function cache, and the diagnostics bus. One
// Generator exists per compilation (spec.md §5: "not shared").
type Generator struct {
	Module   *ir.Module
	Bus      *diagnostics.Bus
	Structs  map[string]*quarktypes.StructInfo
	Builtins *builtins.Registry

	freestanding bool

	declaredExtern map[string]*ir.Func // libc/support/user-extern funcs, declared lazily
	structTypes    map[string]*irtypes.StructType
	stringGlobals  map[string]*ir.Global // dedupes identical string literals
	stringCounter  int
	blockCounter   int

	// GlobalScope holds free functions, extern declarations, and
	// struct names — visible from every function body.
	GlobalScope *quarktypes.Scope
}

// NewGenerator creates a Generator ready to lower a Program. structs
// and globalScope are built by a prepass over the Program's top-level
// statements (RegisterStruct/RegisterGlobal) before any function body
// is generated, since struct and extern declarations must be visible
// to every function regardless of textual order (spec.md §4.4.5,
// §4.4.7).
func NewGenerator(moduleName string, bus *diagnostics.Bus, freestanding bool) *Generator {
	return &Generator{
		Module:         ir.NewModule(),
		Bus:            bus,
		Structs:        map[string]*quarktypes.StructInfo{},
		Builtins:       builtins.NewRegistry(),
		freestanding:   freestanding,
		declaredExtern: map[string]*ir.Func{},
		structTypes:    map[string]*irtypes.StructType{},
		stringGlobals:  map[string]*ir.Global{},
		GlobalScope:    quarktypes.NewScope(),
	}
}

// Context carries the per-function generation state threaded through
// every statement/expression lowering call (spec.md §9's
// "GeneratorContext value explicitly threaded" note): the current
// function, the active insertion block, the lexical scope chain, the
// loop stack, and the side-table distinguishing parameter slots from
// local-variable slots.
type Context struct {
	gen   *Generator
	Func  *ir.Func
	block *ir.Block
	scope *quarktypes.Scope

	loopStack []loopFrame

	// paramSlots records, for the current function, which named
	// stack slots back a copied-in parameter rather than a `var`
	// local (spec.md §4.4.1's "side-table... to distinguish taking
	// the address of a parameter from structural lvalue operations").
	paramSlots map[string]bool

	// thisType is the receiver struct type inside a method body, nil
	// in a free function.
	thisType *quarktypes.Type

	// returnType is the function's declared Quark return type, used
	// to coerce a `ret` expression's value before storing it.
	returnType *quarktypes.Type

	// locals maps a variable name to the stack slot (alloca) backing
	// it. Flat rather than scope-chained: every `var` in a function
	// gets one alloca for the function's lifetime (spec.md §4.4.1),
	// and nested blocks share their enclosing function's slot map.
	locals map[string]value.Value

	terminated bool // true once the current block has a terminator
}

func newContext(gen *Generator, fn *ir.Func, entry *ir.Block) *Context {
	return &Context{
		gen:        gen,
		Func:       fn,
		block:      entry,
		scope:      gen.GlobalScope.Child(),
		paramSlots: map[string]bool{},
		locals:     map[string]value.Value{},
	}
}

// declareLocal binds name to both its semantic Symbol and the alloca
// backing it, the two side tables lowering keeps in lockstep.
func (c *Context) declareLocal(sym *quarktypes.Symbol, slot value.Value) {
	c.scope.Declare(sym)
	c.locals[sym.Name] = slot
}

// lookupSlot returns the alloca backing a previously declared local
// or parameter.
func (c *Context) lookupSlot(name string) (value.Value, bool) {
	v, ok := c.locals[name]
	return v, ok
}

// --- builtins.Emitter implementation (structural — builtins never imports codegen) ---

func (c *Context) Block() *ir.Block { return c.block }

func (c *Context) SetBlock(b *ir.Block) {
	c.block = b
	c.terminated = false
}

func (c *Context) NewBlock(label string) *ir.Block {
	c.gen.blockCounter++
	return c.Func.NewBlock(label)
}

func (c *Context) Module() *ir.Module { return c.gen.Module }

func (c *Context) Bus() *diagnostics.Bus { return c.gen.Bus }

func (c *Context) RuntimeFunc(name string) *ir.Func { return c.gen.externFunc(name) }

func (c *Context) IRType(t *quarktypes.Type) irtypes.Type { return c.gen.IRType(t) }

// --- scope helpers ---

func (c *Context) pushScope() { c.scope = c.scope.Child() }

// childContext returns a shallow copy of c with a nested scope,
// sharing the same function/block/loop-stack slices (block-scoped
// statements mutate c.block in place via SetBlock, so callers always
// read back c.block / c.Terminated() after lowering a nested block).
func (c *Context) childContext() *Context {
	nc := *c
	nc.scope = c.scope.Child()
	return &nc
}

func (c *Context) pushLoop(continueTarget, breakTarget *ir.Block) {
	c.loopStack = append(c.loopStack, loopFrame{continueTarget, breakTarget})
}

func (c *Context) popLoop() {
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
}

func (c *Context) currentLoop() (loopFrame, bool) {
	if len(c.loopStack) == 0 {
		return loopFrame{}, false
	}
	return c.loopStack[len(c.loopStack)-1], true
}

// Terminated reports whether the current block already ends in a
// terminator, so callers suppress emission of unreachable code after
// a ret/break/continue (spec.md §4.4.2's invariant).
func (c *Context) Terminated() bool { return c.terminated }

func (c *Context) markTerminated() { c.terminated = true }

func errReport(code, msg string, span *ast.Span) *diagnostics.Report {
	return diagnostics.New(code, msg, "", span)
}

// i8ptr is the universal "pointer to byte" type used for str values,
// opaque extern-struct pointers, and untyped array payload pointers
// after a bitcast.
var i8ptr = irtypes.NewPointer(irtypes.I8)
