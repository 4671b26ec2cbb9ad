package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	irtypes "github.com/llir/llvm/ir/types"

	"github.com/quark-lang/quarkc/internal/ast"
	quarktypes "github.com/quark-lang/quarkc/internal/types"
)

// lowerBlock lowers a sequence of statements in a fresh lexical scope,
// stopping early (without error) once a statement terminates the
// block (ret/break/continue), matching spec.md §4.4.2's "unreachable
// code after a terminator is never emitted" invariant.
func (c *Context) lowerBlock(stmts []ast.Stmt) error {
	c.pushScope()
	for _, s := range stmts {
		if c.Terminated() {
			break
		}
		if err := c.lowerStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) lowerStmt(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.VarDecl:
		return c.lowerVarDecl(n)
	case *ast.Assign:
		return c.lowerAssign(n)
	case *ast.MemberAssign:
		return c.lowerMemberAssign(n)
	case *ast.DerefAssign:
		return c.lowerDerefAssign(n)
	case *ast.ArrayAssign:
		return c.lowerArrayAssign(n)
	case *ast.ExprStmt:
		_, _, err := c.lowerExpr(n.X)
		return err
	case *ast.If:
		return c.lowerIf(n)
	case *ast.While:
		return c.lowerWhile(n)
	case *ast.For:
		return c.lowerFor(n)
	case *ast.Match:
		return c.lowerMatch(n)
	case *ast.Return:
		return c.lowerReturn(n)
	case *ast.Break:
		return c.lowerBreak(n)
	case *ast.Continue:
		return c.lowerContinue(n)
	default:
		return diagWrap(c, "GEN001", fmt.Sprintf("unsupported statement %T", s), s.Span())
	}
}

// lowerVarDecl lowers `var name: T = init;` and the initializer-less
// `var name: T;` form (spec.md §4.4.1: an omitted initializer leaves
// the declared type's zero value — 0/0.0/false/null, matching a
// struct/array/pointer's natural zero-initialized layout).
func (c *Context) lowerVarDecl(n *ast.VarDecl) error {
	if n.Init == nil {
		if n.Type == nil {
			return diagWrap(c, "SEM002", fmt.Sprintf("cannot declare %q without a type or initializer", n.Name), n.Span())
		}
		declTy := c.resolveTypeExpr(n.Type)
		irTy := c.IRType(declTy)
		slot := c.entryAlloca(n.Name, irTy)
		c.block.NewStore(constant.NewZeroInitializer(irTy), slot)
		c.declareLocal(&quarktypes.Symbol{Name: n.Name, Type: declTy}, slot)
		return nil
	}

	v, initTy, err := c.lowerExpr(n.Init)
	if err != nil {
		return err
	}
	declTy := initTy
	if n.Type != nil {
		declTy = c.resolveTypeExpr(n.Type)
	}
	if !quarktypes.AssignableTo(initTy, declTy) {
		return diagWrap(c, "SEM002", fmt.Sprintf("cannot initialize %s with %s", declTy, initTy), n.Span())
	}
	slot := c.entryAlloca(n.Name, c.IRType(declTy))
	c.block.NewStore(c.coerce(v, initTy, declTy), slot)
	c.declareLocal(&quarktypes.Symbol{Name: n.Name, Type: declTy}, slot)
	return nil
}

// entryAlloca emits the alloca for a new local into the function's
// entry block rather than the current block, the standard LLVM
// convention for keeping every alloca reachable by mem2reg (spec.md
// §4.4.1).
func (c *Context) entryAlloca(name string, ty irtypes.Type) *ir.InstAlloca {
	entry := c.Func.Blocks[0]
	alloca := entry.NewAlloca(ty)
	alloca.LocalName = name
	return alloca
}

func (c *Context) lowerAssign(n *ast.Assign) error {
	v, vt, err := c.lowerExpr(n.Value)
	if err != nil {
		return err
	}
	sym, ok := c.scope.Lookup(n.Name)
	if !ok {
		return diagWrap(c, "SEM001", fmt.Sprintf("undefined variable %q", n.Name), n.Span())
	}
	if sym.Immutable {
		return diagWrap(c, "SEM006", fmt.Sprintf("cannot assign to immutable binding %q", n.Name), n.Span())
	}
	slot, ok := c.lookupSlot(n.Name)
	if !ok {
		return diagWrap(c, "INT001", fmt.Sprintf("no storage slot for %q", n.Name), n.Span())
	}
	if !quarktypes.AssignableTo(vt, sym.Type) {
		return diagWrap(c, "SEM002", fmt.Sprintf("cannot assign %s to %s", vt, sym.Type), n.Span())
	}
	c.block.NewStore(c.coerce(v, vt, sym.Type), slot)
	return nil
}

func (c *Context) lowerMemberAssign(n *ast.MemberAssign) error {
	addr, fieldTy, err := c.lowerMemberAddr(&ast.MemberAccess{Base: n.Base, Receiver: n.Object, Field: n.Field})
	if err != nil {
		return err
	}
	v, vt, err := c.lowerExpr(n.Value)
	if err != nil {
		return err
	}
	if !quarktypes.AssignableTo(vt, fieldTy) {
		return diagWrap(c, "SEM002", fmt.Sprintf("cannot assign %s to field of type %s", vt, fieldTy), n.Span())
	}
	c.block.NewStore(c.coerce(v, vt, fieldTy), addr)
	return nil
}

func (c *Context) lowerDerefAssign(n *ast.DerefAssign) error {
	ptr, ptrTy, err := c.lowerExpr(n.Pointer)
	if err != nil {
		return err
	}
	if ptrTy.Kind != quarktypes.KPointer {
		return diagWrap(c, "SEM002", fmt.Sprintf("cannot dereference non-pointer type %s", ptrTy), n.Span())
	}
	v, vt, err := c.lowerExpr(n.Value)
	if err != nil {
		return err
	}
	if !quarktypes.AssignableTo(vt, ptrTy.Elem) {
		return diagWrap(c, "SEM002", fmt.Sprintf("cannot assign %s through a pointer to %s", vt, ptrTy.Elem), n.Span())
	}
	c.block.NewStore(c.coerce(v, vt, ptrTy.Elem), ptr)
	return nil
}

func (c *Context) lowerArrayAssign(n *ast.ArrayAssign) error {
	addr, elemTy, err := c.lowerArrayElementAddr(&ast.ArrayAccess{Base: n.Base, Array: n.Array, Index: n.Index})
	if err != nil {
		return err
	}
	v, vt, err := c.lowerExpr(n.Value)
	if err != nil {
		return err
	}
	if !quarktypes.AssignableTo(vt, elemTy) {
		return diagWrap(c, "SEM002", fmt.Sprintf("cannot assign %s to array element of type %s", vt, elemTy), n.Span())
	}
	c.block.NewStore(c.coerce(v, vt, elemTy), addr)
	return nil
}

func (c *Context) lowerReturn(n *ast.Return) error {
	if n.Value == nil {
		c.block.NewRet(nil)
		c.markTerminated()
		return nil
	}
	v, vt, err := c.lowerExpr(n.Value)
	if err != nil {
		return err
	}
	want := vt
	if c.returnType != nil {
		want = c.returnType
	}
	c.block.NewRet(c.coerce(v, vt, want))
	c.markTerminated()
	return nil
}

func (c *Context) lowerBreak(n *ast.Break) error {
	loop, ok := c.currentLoop()
	if !ok {
		return diagWrap(c, "SEM007", "break outside of a loop", n.Span())
	}
	c.block.NewBr(loop.breakTarget)
	c.markTerminated()
	return nil
}

func (c *Context) lowerContinue(n *ast.Continue) error {
	loop, ok := c.currentLoop()
	if !ok {
		return diagWrap(c, "SEM007", "continue outside of a loop", n.Span())
	}
	c.block.NewBr(loop.continueTarget)
	c.markTerminated()
	return nil
}
