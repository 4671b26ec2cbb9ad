package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/quark-lang/quarkc/internal/ast"
	"github.com/quark-lang/quarkc/internal/diagnostics"
	quarktypes "github.com/quark-lang/quarkc/internal/types"
)

// lowerExpr lowers e to an IR value, returning its Quark type
// alongside it so callers can coerce without re-deriving it (spec.md
// §4.3/§4.4's interleaved elaboration discipline).
func (c *Context) lowerExpr(e ast.Expr) (value.Value, *quarktypes.Type, error) {
	switch n := e.(type) {
	case *ast.Number:
		return constant.NewInt(irtypes.I32, n.Value), quarktypes.Int, nil
	case *ast.Float:
		return constant.NewFloat(irtypes.Double, n.Value), quarktypes.Double, nil
	case *ast.String:
		return c.NewStringConstant(n.Value), quarktypes.Str, nil
	case *ast.Char:
		return constant.NewInt(irtypes.I8, int64(n.Value)), quarktypes.Char, nil
	case *ast.Bool:
		v := int64(0)
		if n.Value {
			v = 1
		}
		return constant.NewInt(irtypes.I1, v), quarktypes.Bool, nil
	case *ast.Null:
		return constant.NewNull(i8ptr), quarktypes.Null, nil
	case *ast.Variable:
		return c.lowerVariable(n)
	case *ast.Binary:
		return c.lowerBinary(n)
	case *ast.Unary:
		return c.lowerUnary(n)
	case *ast.Call:
		return c.lowerCall(n)
	case *ast.MethodCall:
		return c.lowerMethodCall(n)
	case *ast.StaticCall:
		return c.lowerStaticCall(n)
	case *ast.MemberAccess:
		ptr, ty, err := c.lowerMemberAddr(n)
		if err != nil {
			return nil, nil, err
		}
		return c.block.NewLoad(c.IRType(ty), ptr), ty, nil
	case *ast.AddressOf:
		return c.lowerAddressOf(n)
	case *ast.Dereference:
		ptr, ty, err := c.lowerExpr(n.Operand)
		if err != nil {
			return nil, nil, err
		}
		if ty.Kind != quarktypes.KPointer {
			return nil, nil, diagWrap(c, "SEM002", fmt.Sprintf("cannot dereference non-pointer type %s", ty), n.Span())
		}
		return c.block.NewLoad(c.IRType(ty.Elem), ptr), ty.Elem, nil
	case *ast.ArrayLiteral:
		return c.lowerArrayLiteral(n)
	case *ast.ArrayAccess:
		ptr, ty, err := c.lowerArrayElementAddr(n)
		if err != nil {
			return nil, nil, err
		}
		return c.block.NewLoad(c.IRType(ty), ptr), ty, nil
	case *ast.StructLiteral:
		return c.lowerStructLiteral(n)
	case *ast.Cast:
		return c.lowerCast(n)
	case *ast.MapLiteral:
		return nil, nil, diagWrap(c, "GEN001", "map literals are not yet supported by code generation", n.Span())
	default:
		return nil, nil, diagWrap(c, "GEN001", fmt.Sprintf("unsupported expression %T", e), e.Span())
	}
}

func (c *Context) lowerVariable(n *ast.Variable) (value.Value, *quarktypes.Type, error) {
	sym, ok := c.scope.Lookup(n.Name)
	if !ok {
		return nil, nil, diagWrap(c, "SEM001", fmt.Sprintf("undefined variable %q", n.Name), n.Span())
	}
	if sym.IsFunc {
		fn := c.gen.declaredExtern[n.Name]
		return fn, quarktypes.Unknown, nil
	}
	slot, ok := c.lookupSlot(n.Name)
	if !ok {
		return nil, nil, diagWrap(c, "INT001", fmt.Sprintf("no storage slot for %q", n.Name), n.Span())
	}
	return c.block.NewLoad(c.IRType(sym.Type), slot), sym.Type, nil
}

// lowerAddr returns the storage address of an lvalue expression
// (Variable, MemberAccess, Dereference, ArrayAccess), used by `&x` and
// by assignment lowering.
func (c *Context) lowerAddr(e ast.Expr) (value.Value, *quarktypes.Type, error) {
	switch n := e.(type) {
	case *ast.Variable:
		sym, ok := c.scope.Lookup(n.Name)
		if !ok {
			return nil, nil, diagWrap(c, "SEM001", fmt.Sprintf("undefined variable %q", n.Name), n.Span())
		}
		slot, ok := c.lookupSlot(n.Name)
		if !ok {
			return nil, nil, diagWrap(c, "INT001", fmt.Sprintf("no storage slot for %q", n.Name), n.Span())
		}
		return slot, sym.Type, nil
	case *ast.MemberAccess:
		return c.lowerMemberAddr(n)
	case *ast.Dereference:
		ptr, ty, err := c.lowerExpr(n.Operand)
		if err != nil {
			return nil, nil, err
		}
		if ty.Kind != quarktypes.KPointer {
			return nil, nil, diagWrap(c, "SEM002", fmt.Sprintf("cannot dereference non-pointer type %s", ty), n.Span())
		}
		return ptr, ty.Elem, nil
	case *ast.ArrayAccess:
		return c.lowerArrayElementAddr(n)
	default:
		return nil, nil, diagWrap(c, "SEM010", "expression is not addressable", e.Span())
	}
}

func (c *Context) lowerAddressOf(n *ast.AddressOf) (value.Value, *quarktypes.Type, error) {
	addr, ty, err := c.lowerAddr(n.Operand)
	if err != nil {
		return nil, nil, err
	}
	return addr, quarktypes.Pointer(ty), nil
}

func (c *Context) lowerMemberAddr(n *ast.MemberAccess) (value.Value, *quarktypes.Type, error) {
	recv, recvTy, err := c.lowerExpr(n.Receiver)
	if err != nil {
		return nil, nil, err
	}
	structName := recvTy.Name
	if recvTy.Kind == quarktypes.KPointer {
		structName = recvTy.Elem.Name
	}
	idx, fieldTy, ok := FieldIndex(c.gen.Structs, structName, n.Field)
	if !ok {
		return nil, nil, diagWrap(c, "SEM005", fmt.Sprintf("struct %s has no field %q", structName, n.Field), n.Span())
	}
	gep := c.block.NewGetElementPtr(c.gen.structType(structName), recv,
		constant.NewInt(irtypes.I32, 0), constant.NewInt(irtypes.I32, int64(idx)))
	return gep, fieldTy, nil
}

// lowerArrayElementAddr computes the address of arr[idx], bounds
// checking is the caller's responsibility at a higher phase (spec.md
// leaves array bounds checking out of scope for the core language).
func (c *Context) lowerArrayElementAddr(n *ast.ArrayAccess) (value.Value, *quarktypes.Type, error) {
	arr, arrTy, err := c.lowerExpr(n.Array)
	if err != nil {
		return nil, nil, err
	}
	idx, _, err := c.lowerExpr(n.Index)
	if err != nil {
		return nil, nil, err
	}
	if arrTy.Kind != quarktypes.KArray {
		return nil, nil, diagWrap(c, "SEM002", fmt.Sprintf("cannot index non-array type %s", arrTy), n.Span())
	}
	return c.ElementPtr(arrTy.Elem, arr, idx), arrTy.Elem, nil
}

func (c *Context) lowerBinary(n *ast.Binary) (value.Value, *quarktypes.Type, error) {
	if n.Op == "&&" || n.Op == "||" {
		return c.lowerShortCircuit(n)
	}
	l, lt, err := c.lowerExpr(n.Left)
	if err != nil {
		return nil, nil, err
	}
	r, rt, err := c.lowerExpr(n.Right)
	if err != nil {
		return nil, nil, err
	}

	switch n.Op {
	case "+", "-", "*", "/", "%":
		return c.lowerArith(n.Op, l, lt, r, rt, n)
	case "==", "!=", "<", ">", "<=", ">=":
		return c.lowerCompare(n.Op, l, lt, r, rt, n)
	case "&", "|", "^", "<<", ">>":
		return c.lowerBitwise(n.Op, l, r), quarktypes.Int, nil
	default:
		return nil, nil, diagWrap(c, "GEN001", fmt.Sprintf("unsupported binary operator %q", n.Op), n.Span())
	}
}

// lowerShortCircuit lowers && and || with real control flow (a phi
// over two predecessor blocks) rather than eager evaluation, so the
// right operand is only evaluated when it can affect the result
// (spec.md §4.4.2's short-circuit requirement).
func (c *Context) lowerShortCircuit(n *ast.Binary) (value.Value, *quarktypes.Type, error) {
	l, _, err := c.lowerExpr(n.Left)
	if err != nil {
		return nil, nil, err
	}
	lhsBlock := c.block
	rhsBlock := c.NewBlock("sc.rhs")
	joinBlock := c.NewBlock("sc.join")

	if n.Op == "&&" {
		lhsBlock.NewCondBr(l, rhsBlock, joinBlock)
	} else {
		lhsBlock.NewCondBr(l, joinBlock, rhsBlock)
	}

	c.SetBlock(rhsBlock)
	r, _, err := c.lowerExpr(n.Right)
	if err != nil {
		return nil, nil, err
	}
	rhsBlock = c.block
	rhsBlock.NewBr(joinBlock)

	c.SetBlock(joinBlock)
	phi := joinBlock.NewPhi(
		ir.NewIncoming(l, lhsBlock),
		ir.NewIncoming(r, rhsBlock),
	)
	return phi, quarktypes.Bool, nil
}

func (c *Context) lowerArith(op string, l value.Value, lt *quarktypes.Type, r value.Value, rt *quarktypes.Type, n *ast.Binary) (value.Value, *quarktypes.Type, error) {
	result := quarktypes.Wider(lt, rt)
	l = c.coerce(l, lt, result)
	r = c.coerce(r, rt, result)

	if result.IsFloating() {
		switch op {
		case "+":
			return c.block.NewFAdd(l, r), result, nil
		case "-":
			return c.block.NewFSub(l, r), result, nil
		case "*":
			return c.block.NewFMul(l, r), result, nil
		case "/":
			return c.block.NewFDiv(l, r), result, nil
		case "%":
			return c.block.NewFRem(l, r), result, nil
		}
	}
	switch op {
	case "+":
		return c.block.NewAdd(l, r), result, nil
	case "-":
		return c.block.NewSub(l, r), result, nil
	case "*":
		return c.block.NewMul(l, r), result, nil
	case "/":
		return c.block.NewSDiv(l, r), result, nil
	case "%":
		return c.block.NewSRem(l, r), result, nil
	}
	return nil, nil, diagWrap(c, "GEN001", fmt.Sprintf("unsupported arithmetic operator %q", op), n.Span())
}

func (c *Context) lowerCompare(op string, l value.Value, lt *quarktypes.Type, r value.Value, rt *quarktypes.Type, n *ast.Binary) (value.Value, *quarktypes.Type, error) {
	if !quarktypes.Comparable(lt, rt) {
		return nil, nil, diagWrap(c, "SEM002", fmt.Sprintf("cannot compare %s and %s", lt, rt), n.Span())
	}
	if lt.Kind == quarktypes.KStr && rt.Kind == quarktypes.KStr {
		strcmp := c.RuntimeFunc("strcmp")
		cmp := c.block.NewCall(strcmp, l, r)
		zero := constant.NewInt(irtypes.I32, 0)
		return c.block.NewICmp(icmpPred(op, true), cmp, zero), quarktypes.Bool, nil
	}
	if lt.IsNumeric() || rt.IsNumeric() {
		wide := quarktypes.Wider(lt, rt)
		l = c.coerce(l, lt, wide)
		r = c.coerce(r, rt, wide)
		if wide.IsFloating() {
			return c.block.NewFCmp(fcmpPred(op), l, r), quarktypes.Bool, nil
		}
		return c.block.NewICmp(icmpPred(op, true), l, r), quarktypes.Bool, nil
	}
	return c.block.NewICmp(icmpPred(op, false), l, r), quarktypes.Bool, nil
}

func (c *Context) lowerBitwise(op string, l, r value.Value) value.Value {
	switch op {
	case "&":
		return c.block.NewAnd(l, r)
	case "|":
		return c.block.NewOr(l, r)
	case "^":
		return c.block.NewXor(l, r)
	case "<<":
		return c.block.NewShl(l, r)
	case ">>":
		return c.block.NewAShr(l, r)
	}
	return l
}

func (c *Context) lowerUnary(n *ast.Unary) (value.Value, *quarktypes.Type, error) {
	v, ty, err := c.lowerExpr(n.Operand)
	if err != nil {
		return nil, nil, err
	}
	switch n.Op {
	case "-":
		if ty.IsFloating() {
			return c.block.NewFNeg(v), ty, nil
		}
		return c.block.NewSub(constant.NewInt(irtypes.I32, 0), v), ty, nil
	case "!":
		return c.block.NewXor(v, constant.NewInt(irtypes.I1, 1)), quarktypes.Bool, nil
	case "~":
		return c.block.NewXor(v, constant.NewInt(irtypes.I32, -1)), ty, nil
	default:
		return nil, nil, diagWrap(c, "GEN001", fmt.Sprintf("unsupported unary operator %q", n.Op), n.Span())
	}
}

// coerce widens v from `from` to `to` per spec.md §4.3's silent
// literal/numeric coercion; a no-op when the kinds already match.
func (c *Context) coerce(v value.Value, from, to *quarktypes.Type) value.Value {
	if quarktypes.Equal(from, to) {
		return v
	}
	switch {
	case from.Kind == quarktypes.KInt && to.Kind == quarktypes.KFloat:
		return c.block.NewSIToFP(v, irtypes.Float)
	case from.Kind == quarktypes.KInt && to.Kind == quarktypes.KDouble:
		return c.block.NewSIToFP(v, irtypes.Double)
	case from.Kind == quarktypes.KFloat && to.Kind == quarktypes.KDouble:
		return c.block.NewFPExt(v, irtypes.Double)
	case from.Kind == quarktypes.KDouble && to.Kind == quarktypes.KFloat:
		return c.block.NewFPTrunc(v, irtypes.Float)
	default:
		return v
	}
}

func (c *Context) lowerCast(n *ast.Cast) (value.Value, *quarktypes.Type, error) {
	v, from, err := c.lowerExpr(n.Operand)
	if err != nil {
		return nil, nil, err
	}
	to := c.resolveTypeExpr(n.Type)
	switch {
	case quarktypes.Equal(from, to):
		return v, to, nil
	case from.IsNumeric() && to.IsNumeric():
		return c.coerceNumericCast(v, from, to), to, nil
	case from.Kind == quarktypes.KPointer && to.Kind == quarktypes.KPointer:
		return c.block.NewBitCast(v, c.IRType(to)), to, nil
	default:
		return nil, nil, diagWrap(c, "SEM002", fmt.Sprintf("invalid cast from %s to %s", from, to), n.Span())
	}
}

func (c *Context) coerceNumericCast(v value.Value, from, to *quarktypes.Type) value.Value {
	if from.IsFloating() && to.Kind == quarktypes.KInt {
		return c.block.NewFPToSI(v, irtypes.I32)
	}
	if from.Kind == quarktypes.KInt && to.IsFloating() {
		return c.coerce(v, from, to)
	}
	if from.IsFloating() && to.IsFloating() {
		return c.coerce(v, from, to)
	}
	return v
}

func diagWrap(c *Context, code, msg string, span ast.Span) error {
	rep := diagnostics.New(code, msg, "", &span)
	c.Bus().Err(rep)
	return diagnostics.Wrap(rep)
}
