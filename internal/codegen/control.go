package codegen

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/quark-lang/quarkc/internal/ast"
	quarktypes "github.com/quark-lang/quarkc/internal/types"
)

// lowerIf lowers if/elif*/else into a cascade of basic blocks: one
// condition-test block per clause, one body block per clause, and a
// shared merge block every non-terminated body branches to (spec.md
// §4.4.2's if table).
func (c *Context) lowerIf(n *ast.If) error {
	merge := c.NewBlock("if.end")

	clauses := make([]struct {
		cond ast.Expr
		body []ast.Stmt
	}, 0, 1+len(n.Elifs))
	clauses = append(clauses, struct {
		cond ast.Expr
		body []ast.Stmt
	}{n.Cond, n.Then})
	for _, el := range n.Elifs {
		clauses = append(clauses, struct {
			cond ast.Expr
			body []ast.Stmt
		}{el.Cond, el.Body})
	}

	for _, cl := range clauses {
		cond, _, err := c.lowerExpr(cl.cond)
		if err != nil {
			return err
		}
		thenBlock := c.NewBlock("if.then")
		nextBlock := c.NewBlock("if.next")
		c.block.NewCondBr(cond, thenBlock, nextBlock)

		c.SetBlock(thenBlock)
		if err := c.lowerBlock(cl.body); err != nil {
			return err
		}
		if !c.Terminated() {
			c.block.NewBr(merge)
		}

		c.SetBlock(nextBlock)
	}

	if n.Else != nil {
		if err := c.lowerBlock(n.Else); err != nil {
			return err
		}
	}
	if !c.Terminated() {
		c.block.NewBr(merge)
	}

	c.SetBlock(merge)
	return nil
}

// lowerWhile lowers `while cond { body }` into a condition-test block,
// a body block, and an exit block, with the loop stack pointing
// continue at the condition test and break at the exit (spec.md
// §4.4.2's while table).
func (c *Context) lowerWhile(n *ast.While) error {
	condBlock := c.NewBlock("while.cond")
	bodyBlock := c.NewBlock("while.body")
	exitBlock := c.NewBlock("while.end")

	c.block.NewBr(condBlock)
	c.SetBlock(condBlock)
	cond, _, err := c.lowerExpr(n.Cond)
	if err != nil {
		return err
	}
	c.block.NewCondBr(cond, bodyBlock, exitBlock)

	c.SetBlock(bodyBlock)
	c.pushLoop(condBlock, exitBlock)
	err = c.lowerBlock(n.Body)
	c.popLoop()
	if err != nil {
		return err
	}
	if !c.Terminated() {
		c.block.NewBr(condBlock)
	}

	c.SetBlock(exitBlock)
	return nil
}

// lowerFor lowers `for x in lo..hi { body }` into an index variable
// initialized to lo, a condition test against hi, and a per-iteration
// increment, with continue targeting the increment block (spec.md
// §4.4.2's range-for table).
func (c *Context) lowerFor(n *ast.For) error {
	lo, loTy, err := c.lowerExpr(n.Range.Lo)
	if err != nil {
		return err
	}
	hi, _, err := c.lowerExpr(n.Range.Hi)
	if err != nil {
		return err
	}

	slot := c.entryAlloca(n.Var, c.IRType(quarktypes.Int))
	c.block.NewStore(c.coerce(lo, loTy, quarktypes.Int), slot)

	condBlock := c.NewBlock("for.cond")
	bodyBlock := c.NewBlock("for.body")
	incBlock := c.NewBlock("for.inc")
	exitBlock := c.NewBlock("for.end")

	c.block.NewBr(condBlock)
	c.SetBlock(condBlock)
	cur := c.block.NewLoad(irtypes.I32, slot)
	cond := c.block.NewICmp(enum.IPredSLT, cur, hi)
	c.block.NewCondBr(cond, bodyBlock, exitBlock)

	c.SetBlock(bodyBlock)
	c.pushScope()
	c.declareLocal(&quarktypes.Symbol{Name: n.Var, Type: quarktypes.Int, Immutable: true}, slot)
	c.pushLoop(incBlock, exitBlock)
	err = c.lowerBlock(n.Body)
	c.popLoop()
	if err != nil {
		return err
	}
	if !c.Terminated() {
		c.block.NewBr(incBlock)
	}

	c.SetBlock(incBlock)
	cur2 := c.block.NewLoad(irtypes.I32, slot)
	next := c.block.NewAdd(cur2, constant.NewInt(irtypes.I32, 1))
	c.block.NewStore(next, slot)
	c.block.NewBr(condBlock)

	c.SetBlock(exitBlock)
	return nil
}

// lowerMatch lowers `match subject { pattern => body ... _ => body }`
// as a cascade of equality tests against the subject, falling through
// to the wildcard arm if present (spec.md §4.4.2's match table); Quark
// has no pattern destructuring, only value equality, so this differs
// from the teacher's ADT-matching dtree entirely.
func (c *Context) lowerMatch(n *ast.Match) error {
	subject, subjectTy, err := c.lowerExpr(n.Subject)
	if err != nil {
		return err
	}
	merge := c.NewBlock("match.end")

	for _, arm := range n.Arms {
		if arm.Pattern == nil {
			if err := c.lowerBlock(arm.Body); err != nil {
				return err
			}
			if !c.Terminated() {
				c.block.NewBr(merge)
			}
			c.SetBlock(merge)
			return nil
		}

		patVal, patTy, err := c.lowerExpr(arm.Pattern)
		if err != nil {
			return err
		}
		eq := c.equalityTest(subject, subjectTy, patVal, patTy)

		bodyBlock := c.NewBlock("match.arm")
		nextBlock := c.NewBlock("match.next")
		c.block.NewCondBr(eq, bodyBlock, nextBlock)

		c.SetBlock(bodyBlock)
		if err := c.lowerBlock(arm.Body); err != nil {
			return err
		}
		if !c.Terminated() {
			c.block.NewBr(merge)
		}

		c.SetBlock(nextBlock)
	}

	if !c.Terminated() {
		c.block.NewBr(merge)
	}
	c.SetBlock(merge)
	return nil
}

// equalityTest builds the == comparison match-arm dispatch needs,
// widening numeric operands and routing strings through strcmp
// (spec.md §4.3's comparison rules, the same ones lowerCompare uses
// for a source-level == expression).
func (c *Context) equalityTest(a value.Value, at *quarktypes.Type, b value.Value, bt *quarktypes.Type) value.Value {
	if at.Kind == quarktypes.KStr && bt.Kind == quarktypes.KStr {
		strcmp := c.RuntimeFunc("strcmp")
		cmp := c.block.NewCall(strcmp, a, b)
		return c.block.NewICmp(enum.IPredEQ, cmp, constant.NewInt(irtypes.I32, 0))
	}
	if at.IsNumeric() || bt.IsNumeric() {
		wide := quarktypes.Wider(at, bt)
		a = c.coerce(a, at, wide)
		b = c.coerce(b, bt, wide)
		if wide.IsFloating() {
			return c.block.NewFCmp(enum.FPredOEQ, a, b)
		}
		return c.block.NewICmp(enum.IPredEQ, a, b)
	}
	return c.block.NewICmp(enum.IPredEQ, a, b)
}
