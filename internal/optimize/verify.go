package optimize

import (
	"fmt"

	"github.com/llir/llvm/ir"

	"github.com/quark-lang/quarkc/internal/diagnostics"
)

// VerifyTerminators checks spec.md §8's terminator law: every basic
// block in every function has exactly one terminator instruction. The
// generator always assigns one (ir.Block.Term is non-nil once a
// function body is fully lowered); a nil Term here means some
// control-flow lowering routine left a block open, an internal
// invariant break rather than a user-facing error.
func VerifyTerminators(m *ir.Module) error {
	for _, fn := range m.Funcs {
		for _, b := range fn.Blocks {
			if b.Term == nil {
				return diagnostics.Wrap(diagnostics.New(diagnostics.INT001,
					fmt.Sprintf("function %q has an unterminated basic block %q", fn.Name(), b.Name()), "", nil))
			}
		}
	}
	return nil
}

// VerifyReachability checks spec.md §8's no-unreachable-IR property:
// every basic block is reachable from its function's entry block along
// some control-flow path. The generator never emits a block it doesn't
// wire into the control-flow graph, so an unreachable block indicates
// a lowering routine built a block and then abandoned it.
func VerifyReachability(m *ir.Module) error {
	for _, fn := range m.Funcs {
		if len(fn.Blocks) == 0 {
			continue
		}
		reached := map[*ir.Block]bool{}
		stack := []*ir.Block{fn.Blocks[0]}
		for len(stack) > 0 {
			b := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if reached[b] {
				continue
			}
			reached[b] = true
			stack = append(stack, successors(b)...)
		}
		for _, b := range fn.Blocks {
			if !reached[b] {
				return diagnostics.Wrap(diagnostics.New(diagnostics.INT001,
					fmt.Sprintf("function %q has unreachable basic block %q", fn.Name(), b.Name()), "", nil))
			}
		}
	}
	return nil
}

// successors extracts a terminator's target blocks by concrete type,
// covering every terminator internal/codegen's lowering routines ever
// emit (unconditional/conditional branch, switch for match lowering);
// ret/unreachable have none.
func successors(b *ir.Block) []*ir.Block {
	switch t := b.Term.(type) {
	case *ir.TermBr:
		return []*ir.Block{t.Target}
	case *ir.TermCondBr:
		return []*ir.Block{t.TargetTrue, t.TargetFalse}
	case *ir.TermSwitch:
		targets := make([]*ir.Block, 0, len(t.Cases)+1)
		targets = append(targets, t.TargetDefault)
		for _, c := range t.Cases {
			targets = append(targets, c.Target)
		}
		return targets
	case *ir.TermIndirectBr:
		return t.ValidTargets
	default:
		return nil
	}
}
