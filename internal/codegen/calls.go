package codegen

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir/value"

	"github.com/quark-lang/quarkc/internal/ast"
	"github.com/quark-lang/quarkc/internal/builtins"
	"github.com/quark-lang/quarkc/internal/runtime"
	quarktypes "github.com/quark-lang/quarkc/internal/types"
)

// lowerCall dispatches a `name(args)` call site to one of: a builtin
// IR template, a user-declared free function, or a user extern
// function (spec.md §4.4.6). Builtins are checked first since their
// names are reserved (spec.md §4.5).
func (c *Context) lowerCall(n *ast.Call) (value.Value, *quarktypes.Type, error) {
	name, ok := calleeName(n.Callee)
	if !ok {
		return nil, nil, diagWrap(c, "GEN001", "indirect calls through a non-identifier expression are not supported", n.Span())
	}

	args, err := c.lowerArgs(n.Args)
	if err != nil {
		return nil, nil, err
	}

	if b, ok := c.gen.Builtins.Lookup(name); ok {
		if c.gen.freestanding && runtime.FreestandingBlocklist[name] {
			return nil, nil, diagWrap(c, "GEN001", fmt.Sprintf("builtin %q is not available under --freestanding", name), n.Span())
		}
		if err := checkArity(b, len(args), name, n.Span()); err != nil {
			return nil, nil, diagWrap(c, "GEN010", err.Error(), n.Span())
		}
		if name == "format" && len(n.Args) > 0 {
			if lit, ok := n.Args[0].(*ast.String); ok {
				if want := strings.Count(lit.Value, "{}"); want != len(args)-1 {
					return nil, nil, diagWrap(c, "GEN010", fmt.Sprintf("format string has %d placeholder(s) but %d argument(s) were given", want, len(args)-1), n.Span())
				}
				args[0].Value = c.NewStringConstant(strings.ReplaceAll(strings.ReplaceAll(lit.Value, "%", "%%"), "{}", "%s"))
			}
		}
		return b.Emit(c, args)
	}

	sym, ok := c.scope.Lookup(name)
	if !ok {
		return nil, nil, diagWrap(c, "SEM001", fmt.Sprintf("undefined function %q", name), n.Span())
	}
	if !sym.IsFunc {
		return nil, nil, diagWrap(c, "SEM002", fmt.Sprintf("%q is not callable", name), n.Span())
	}
	fn, ok := c.gen.declaredExtern[name]
	if !ok {
		return nil, nil, diagWrap(c, "INT001", fmt.Sprintf("function %q was not predeclared", name), n.Span())
	}

	callArgs := make([]value.Value, len(args))
	for i, a := range args {
		want := sym.Type
		if i < len(sym.ParamTys) {
			want = sym.ParamTys[i]
		}
		callArgs[i] = c.coerce(a.Value, a.Type, want)
	}
	call := c.block.NewCall(fn, callArgs...)
	if sym.ReturnTy == nil || sym.ReturnTy.Kind == quarktypes.KVoid {
		return nil, quarktypes.Void, nil
	}
	return call, sym.ReturnTy, nil
}

func calleeName(e ast.Expr) (string, bool) {
	v, ok := e.(*ast.Variable)
	if !ok {
		return "", false
	}
	return v.Name, true
}

func (c *Context) lowerArgs(exprs []ast.Expr) ([]builtins.Arg, error) {
	out := make([]builtins.Arg, len(exprs))
	for i, e := range exprs {
		v, ty, err := c.lowerExpr(e)
		if err != nil {
			return nil, err
		}
		out[i] = builtins.Arg{Value: v, Type: ty}
	}
	return out, nil
}

func checkArity(b *builtins.Builtin, got int, name string, span ast.Span) error {
	if b.Variadic {
		if len(b.ParamTypes) > 0 && got < len(b.ParamTypes) {
			return fmt.Errorf("%s expects at least %d argument(s), got %d", name, len(b.ParamTypes), got)
		}
		return nil
	}
	if got != len(b.ParamTypes) {
		return fmt.Errorf("%s expects %d argument(s), got %d", name, len(b.ParamTypes), got)
	}
	return nil
}

// lowerMethodCall dispatches `recv.method(args)` (spec.md §4.4.5):
// the method is resolved child-then-parent on the receiver's static
// struct type, mangled to `Struct_method`, and called with the
// receiver's address passed as the implicit first `this` argument.
func (c *Context) lowerMethodCall(n *ast.MethodCall) (value.Value, *quarktypes.Type, error) {
	recvAddr, recvTy, err := c.lowerAddr(n.Receiver)
	if err != nil {
		// Receiver may be a value-typed struct pointer already (not an
		// lvalue, e.g. the result of another call) — fall back to a
		// plain value lowering in that case.
		var vErr error
		recvAddr, recvTy, vErr = c.lowerExpr(n.Receiver)
		if vErr != nil {
			return nil, nil, err
		}
	}
	structName := recvTy.Name
	if recvTy.Kind == quarktypes.KPointer {
		structName = recvTy.Elem.Name
	}
	sym, owner, ok := quarktypes.ResolveMethod(c.gen.Structs, structName, n.Name)
	if !ok {
		return nil, nil, diagWrap(c, "SEM005", fmt.Sprintf("%s has no method %q", structName, n.Name), n.Span())
	}
	mangled := owner + "_" + n.Name
	fn, ok := c.gen.declaredExtern[mangled]
	if !ok {
		return nil, nil, diagWrap(c, "INT001", fmt.Sprintf("method %q was not predeclared", mangled), n.Span())
	}

	args, err := c.lowerArgs(n.Args)
	if err != nil {
		return nil, nil, err
	}
	callArgs := make([]value.Value, 0, len(args)+1)
	callArgs = append(callArgs, recvAddr)
	for i, a := range args {
		want := a.Type
		if i < len(sym.ParamTys) {
			want = sym.ParamTys[i]
		}
		callArgs = append(callArgs, c.coerce(a.Value, a.Type, want))
	}
	call := c.block.NewCall(fn, callArgs...)
	if sym.ReturnTy == nil || sym.ReturnTy.Kind == quarktypes.KVoid {
		return nil, quarktypes.Void, nil
	}
	return call, sym.ReturnTy, nil
}

// lowerStaticCall dispatches `Type->method(args)`: identical to a
// method call but with no implicit `this` (spec.md's static-dispatch
// call form).
func (c *Context) lowerStaticCall(n *ast.StaticCall) (value.Value, *quarktypes.Type, error) {
	sym, owner, ok := quarktypes.ResolveMethod(c.gen.Structs, n.TypeName, n.Name)
	if !ok {
		return nil, nil, diagWrap(c, "SEM005", fmt.Sprintf("%s has no method %q", n.TypeName, n.Name), n.Span())
	}
	mangled := owner + "_" + n.Name
	fn, ok := c.gen.declaredExtern[mangled]
	if !ok {
		return nil, nil, diagWrap(c, "INT001", fmt.Sprintf("method %q was not predeclared", mangled), n.Span())
	}
	args, err := c.lowerArgs(n.Args)
	if err != nil {
		return nil, nil, err
	}
	callArgs := make([]value.Value, len(args))
	for i, a := range args {
		want := a.Type
		if i < len(sym.ParamTys) {
			want = sym.ParamTys[i]
		}
		callArgs[i] = c.coerce(a.Value, a.Type, want)
	}
	call := c.block.NewCall(fn, callArgs...)
	if sym.ReturnTy == nil || sym.ReturnTy.Kind == quarktypes.KVoid {
		return nil, quarktypes.Void, nil
	}
	return call, sym.ReturnTy, nil
}
