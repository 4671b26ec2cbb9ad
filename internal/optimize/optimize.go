// Package optimize implements the optimizer driver (spec.md §4.6):
// O0 is a no-op passthrough, O1-O3 shell out to the LLVM `opt` tool
// over the module's textual IR, and a small set of Go-native guard
// passes run on the module before the external pass to verify the testable properties
// of spec.md §8 (every basic block has exactly one terminator, every
// block is reachable from its function's entry).
package optimize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/llir/llvm/ir"

	"github.com/quark-lang/quarkc/internal/diagnostics"
)

// Level is an optimization level, spec.md §6's -O0/-O1/-O2/-O3 flags.
type Level int

const (
	O0 Level = iota
	O1
	O2
	O3
)

func (l Level) String() string { return fmt.Sprintf("O%d", int(l)) }

// optFlag is the `opt` command-line flag for each level above O0.
func (l Level) optFlag() string {
	switch l {
	case O1:
		return "-O1"
	case O2:
		return "-O2"
	case O3:
		return "-O3"
	default:
		return ""
	}
}

// Pipeline runs the optimizer over one module's textual IR.
type Pipeline struct {
	Level Level
	Bus   *diagnostics.Bus
}

// NewPipeline builds a Pipeline at the given level, reporting tool
// invocations to bus (may be nil).
func NewPipeline(level Level, bus *diagnostics.Bus) *Pipeline {
	return &Pipeline{Level: level, Bus: bus}
}

// Run verifies m, then — for O1 and above — serializes it to `.ll`
// text, shells out to `opt`, and returns the optimized text. At O0 it
// returns m's own textual form unchanged. The guard passes run only
// before the external stage; `opt`'s output text is not re-verified.
func (p *Pipeline) Run(ctx context.Context, m *ir.Module) (string, error) {
	if err := VerifyTerminators(m); err != nil {
		return "", err
	}
	if err := VerifyReachability(m); err != nil {
		return "", err
	}

	text := m.String()
	if p.Level == O0 {
		return text, nil
	}

	optimized, err := p.runOpt(ctx, text)
	if err != nil {
		return "", err
	}
	return optimized, nil
}

// runOpt pipes ir through `opt -O<n> -S`, reading the optimized
// textual IR back from stdout. Tool stderr is forwarded to the bus as
// Debug events (spec.md §4.7's runTool convention, shared with
// internal/emit).
func (p *Pipeline) runOpt(ctx context.Context, irText string) (string, error) {
	tmp, err := os.CreateTemp("", "quark-*.ll")
	if err != nil {
		return "", diagnostics.Wrap(diagnostics.New(diagnostics.IO002, fmt.Sprintf("creating temp IR file: %v", err), "", nil))
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(irText); err != nil {
		tmp.Close()
		return "", diagnostics.Wrap(diagnostics.New(diagnostics.IO002, fmt.Sprintf("writing temp IR file: %v", err), "", nil))
	}
	tmp.Close()

	cmd := exec.CommandContext(ctx, "opt", p.Level.optFlag(), "-S", tmp.Name())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) && os.IsNotExist(execErr.Err) {
			return "", diagnostics.Wrap(diagnostics.New(diagnostics.IO004, "opt not found on PATH; install LLVM or build with -O0", "", nil))
		}
		if p.Bus != nil {
			p.Bus.Debugf("opt: %s", stderr.String())
		}
		return "", diagnostics.Wrap(diagnostics.New(diagnostics.IO004, fmt.Sprintf("opt failed: %v: %s", err, stderr.String()), "", nil))
	}
	if p.Bus != nil && stderr.Len() > 0 {
		p.Bus.Debugf("opt: %s", stderr.String())
	}
	return stdout.String(), nil
}

// ParseLevel maps the CLI's -O0/-O/-O1/-O2/-O3 flag family to a Level;
// "-O" alone (no digit) means O1, matching spec.md §6's flag list.
func ParseLevel(flagText string) (Level, error) {
	switch flagText {
	case "0":
		return O0, nil
	case "", "1":
		return O1, nil
	case "2":
		return O2, nil
	case "3":
		return O3, nil
	default:
		return O0, fmt.Errorf("invalid optimization level %q", flagText)
	}
}
