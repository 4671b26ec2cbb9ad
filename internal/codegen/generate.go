package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	irtypes "github.com/llir/llvm/ir/types"

	"github.com/quark-lang/quarkc/internal/ast"
	"github.com/quark-lang/quarkc/internal/diagnostics"
	quarktypes "github.com/quark-lang/quarkc/internal/types"
)

// Generate lowers a fully-parsed, import-inlined Program into an LLVM
// module (spec.md §4.4). Generation happens in four passes so that
// struct layouts, extern declarations, and function signatures are
// all visible to every function body regardless of where in the
// source they were declared (spec.md §4.4.5/§4.4.7):
//
//  1. collect every struct's name and field list, then fill in layouts
//  2. predeclare every extern fn and extern struct
//  3. predeclare every user free function and method signature
//  4. generate each function/method body
func Generate(moduleName string, prog *ast.Program, bus *diagnostics.Bus, freestanding bool) (*ir.Module, error) {
	g := NewGenerator(moduleName, bus, freestanding)

	if err := g.collectStructs(prog); err != nil {
		return nil, err
	}
	if err := g.collectExterns(prog); err != nil {
		return nil, err
	}
	if err := g.collectFunctionSignatures(prog); err != nil {
		return nil, err
	}
	if err := g.generateBodies(prog); err != nil {
		return nil, err
	}
	return g.Module, nil
}

func (g *Generator) collectStructs(prog *ast.Program) error {
	var defs []*ast.StructDef
	for _, s := range prog.Statements {
		if sd, ok := s.(*ast.StructDef); ok {
			defs = append(defs, sd)
			info := &quarktypes.StructInfo{Name: sd.Name, Parent: sd.Parent, Methods: map[string]*quarktypes.Symbol{}}
			g.Structs[sd.Name] = info
		}
	}
	for _, sd := range defs {
		info := g.Structs[sd.Name]
		for _, f := range sd.Fields {
			info.Fields = append(info.Fields, quarktypes.FieldInfo{Name: f.Name, Type: g.resolveTypeExpr(f.Type)})
		}
		for _, m := range sd.Methods {
			info.Methods[m.Name] = g.functionSymbol(m, sd.Name)
		}
	}
	for _, impl := range implBlocks(prog) {
		info, ok := g.Structs[impl.StructName]
		if !ok {
			return diagTop("SEM001", fmt.Sprintf("impl block for unknown struct %q", impl.StructName), impl.Span(), g.Bus)
		}
		for _, m := range impl.Methods {
			info.Methods[m.Name] = g.functionSymbol(m, impl.StructName)
		}
	}
	for _, sd := range defs {
		g.DefineStruct(g.Structs[sd.Name])
	}
	return nil
}

func implBlocks(prog *ast.Program) []*ast.ImplBlock {
	var out []*ast.ImplBlock
	for _, s := range prog.Statements {
		if ib, ok := s.(*ast.ImplBlock); ok {
			out = append(out, ib)
		}
	}
	return out
}

func (g *Generator) collectExterns(prog *ast.Program) error {
	for _, s := range prog.Statements {
		switch n := s.(type) {
		case *ast.ExternStructDecl:
			g.RegisterExternStruct(&quarktypes.StructInfo{Name: n.Name, Extern: true, Methods: map[string]*quarktypes.Symbol{}})
		case *ast.ExternFn:
			params := make([]*quarktypes.Type, len(n.Params))
			for i, p := range n.Params {
				params[i] = g.resolveTypeExpr(p.Type)
			}
			ret := quarktypes.Void
			if n.ReturnType != nil {
				ret = g.resolveTypeExpr(n.ReturnType)
			}
			g.RegisterExternFn(n.Name, ret, params, n.Variadic)
			g.GlobalScope.Declare(&quarktypes.Symbol{Name: n.Name, IsFunc: true, ParamTys: params, ReturnTy: ret, Variadic: n.Variadic})
		}
	}
	return nil
}

func (g *Generator) functionSymbol(fn *ast.FunctionDef, receiverStruct string) *quarktypes.Symbol {
	params := make([]*quarktypes.Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = g.resolveTypeExpr(p.Type)
	}
	ret := quarktypes.Void
	if fn.ReturnType != nil {
		ret = g.resolveTypeExpr(fn.ReturnType)
	}
	return &quarktypes.Symbol{Name: fn.Name, IsFunc: true, ParamTys: params, ReturnTy: ret}
}

func (g *Generator) collectFunctionSignatures(prog *ast.Program) error {
	for _, s := range prog.Statements {
		switch n := s.(type) {
		case *ast.FunctionDef:
			sym := g.functionSymbol(n, "")
			g.GlobalScope.Declare(sym)
			g.declareFuncSignature(n.Name, sym, nil)
		case *ast.ImplBlock:
			info := g.Structs[n.StructName]
			for _, m := range n.Methods {
				sym := info.Methods[m.Name]
				mangled := n.StructName + "_" + m.Name
				g.declareFuncSignature(mangled, sym, quarktypes.Pointer(quarktypes.Struct(n.StructName)))
			}
		case *ast.StructDef:
			info := g.Structs[n.Name]
			for _, m := range n.Methods {
				sym := info.Methods[m.Name]
				mangled := n.Name + "_" + m.Name
				g.declareFuncSignature(mangled, sym, quarktypes.Pointer(quarktypes.Struct(n.Name)))
			}
		}
	}
	return nil
}

// declareFuncSignature predeclares the IR function for a free
// function or method. A non-nil thisTy prepends an implicit `this`
// parameter (spec.md §4.4.5).
func (g *Generator) declareFuncSignature(irName string, sym *quarktypes.Symbol, thisTy *quarktypes.Type) {
	var irParams []irtypes.Type
	if thisTy != nil {
		irParams = append(irParams, g.IRType(thisTy))
	}
	for _, p := range sym.ParamTys {
		irParams = append(irParams, g.IRType(p))
	}
	fn := declareFunc(g.Module, irName, g.IRType(sym.ReturnTy), irParams, false)
	g.declaredExtern[irName] = fn
}

func (g *Generator) generateBodies(prog *ast.Program) error {
	for _, s := range prog.Statements {
		switch n := s.(type) {
		case *ast.FunctionDef:
			if err := g.generateFunctionBody(n.Name, n, nil, ""); err != nil {
				return err
			}
		case *ast.ImplBlock:
			thisTy := quarktypes.Pointer(quarktypes.Struct(n.StructName))
			for _, m := range n.Methods {
				mangled := n.StructName + "_" + m.Name
				if err := g.generateFunctionBody(mangled, m, thisTy, n.StructName); err != nil {
					return err
				}
			}
		case *ast.StructDef:
			thisTy := quarktypes.Pointer(quarktypes.Struct(n.Name))
			for _, m := range n.Methods {
				mangled := n.Name + "_" + m.Name
				if err := g.generateFunctionBody(mangled, m, thisTy, n.Name); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// generateFunctionBody emits a function's entry block, names every IR
// parameter after its source parameter, copies each one (and `this`,
// if present) into a fresh `<name>.addr` alloca so the body reads it
// the same way as a `var` local, then lowers the statement list.
// Parameters are bound immutable: assigning to one reports SEM006.
func (g *Generator) generateFunctionBody(irName string, fn *ast.FunctionDef, thisTy *quarktypes.Type, receiverStruct string) error {
	irFn := g.declaredExtern[irName]
	entry := irFn.NewBlock("entry")
	c := newContext(g, irFn, entry)

	sym := g.functionSymbol(fn, receiverStruct)
	c.returnType = sym.ReturnTy
	c.thisType = thisTy

	paramOffset := 0
	if thisTy != nil {
		thisParam := irFn.Params[0]
		thisParam.SetName("this")
		slot := c.entryAlloca("this.addr", g.IRType(thisTy))
		c.block.NewStore(thisParam, slot)
		c.declareLocal(&quarktypes.Symbol{Name: "this", Type: thisTy, Immutable: true}, slot)
		c.paramSlots["this"] = true
		paramOffset = 1
	}

	for i, p := range fn.Params {
		paramTy := sym.ParamTys[i]
		irParam := irFn.Params[i+paramOffset]
		irParam.SetName(p.Name)
		slot := c.entryAlloca(p.Name+".addr", g.IRType(paramTy))
		c.block.NewStore(irParam, slot)
		c.declareLocal(&quarktypes.Symbol{Name: p.Name, Type: paramTy, Immutable: true}, slot)
		c.paramSlots[p.Name] = true
	}

	if err := c.lowerBlock(fn.Body); err != nil {
		return err
	}
	if !c.Terminated() {
		if sym.ReturnTy == quarktypes.Void || sym.ReturnTy.Kind == quarktypes.KVoid {
			c.block.NewRet(nil)
		} else {
			return diagTop("SEM011", fmt.Sprintf("function %q does not return a value on all paths", irName), fn.Span(), g.Bus)
		}
	}
	return nil
}

func diagTop(code, msg string, span ast.Span, bus *diagnostics.Bus) error {
	rep := diagnostics.New(code, msg, "", &span)
	bus.Err(rep)
	return diagnostics.Wrap(rep)
}
