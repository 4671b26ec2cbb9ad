// Package emit implements the executable emitter (spec.md §4.7): the
// optimizer's textual LLVM IR becomes an object file via `llc`, then an
// executable via the host linker (`cc`). Both external tools, plus
// `opt` in internal/optimize, are invoked through the same runTool
// convention so their stderr reaches the diagnostics bus uniformly.
package emit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/quark-lang/quarkc/internal/diagnostics"
)

// Options controls how a module's IR is turned into output (spec.md §6's
// -o/--emit-llvm/--emit-asm/-L/-l/--freestanding flags).
type Options struct {
	OutputPath   string
	EmitLLVM     bool // write textual IR as-is, skip llc/linker entirely
	EmitAsm      bool // stop after llc -S, write target assembly
	Freestanding bool // link with -nostdlib, no libc/libm runtime support
	LibDirs      []string
	Libs         []string
}

// Write drives irText through llc and the linker according to opts,
// producing whatever opts.OutputPath should hold: IR text, assembly,
// or a native executable. Intermediate files live in a temp directory
// that is removed before Write returns.
func Write(ctx context.Context, bus *diagnostics.Bus, irText string, opts Options) error {
	if opts.EmitLLVM {
		return writeFile(opts.OutputPath, []byte(irText))
	}

	workDir, err := os.MkdirTemp("", "quarkc-emit-*")
	if err != nil {
		return diagnostics.Wrap(diagnostics.New(diagnostics.IO002, fmt.Sprintf("creating emit work dir: %v", err), "", nil))
	}
	defer os.RemoveAll(workDir)

	llPath := filepath.Join(workDir, "module.ll")
	if err := os.WriteFile(llPath, []byte(irText), 0o644); err != nil {
		return diagnostics.Wrap(diagnostics.New(diagnostics.IO002, fmt.Sprintf("writing IR for llc: %v", err), "", nil))
	}

	if opts.EmitAsm {
		asmPath := filepath.Join(workDir, "module.s")
		if err := runTool(ctx, bus, "llc", "-O2", "-S", "-o", asmPath, llPath); err != nil {
			return err
		}
		data, err := os.ReadFile(asmPath)
		if err != nil {
			return diagnostics.Wrap(diagnostics.New(diagnostics.IO002, fmt.Sprintf("reading llc assembly output: %v", err), "", nil))
		}
		return writeFile(opts.OutputPath, data)
	}

	objPath := filepath.Join(workDir, "module.o")
	if err := runTool(ctx, bus, "llc", "-O2", "-filetype=obj", "-o", objPath, llPath); err != nil {
		return err
	}

	return link(ctx, bus, objPath, opts)
}

// link invokes the host C compiler as a linker driver, matching the
// common `cc main.o -o main` convention rather than calling `ld`
// directly, so libc search paths and startup files resolve the way a
// normal C toolchain install expects.
func link(ctx context.Context, bus *diagnostics.Bus, objPath string, opts Options) error {
	args := []string{objPath, "-o", opts.OutputPath}
	if opts.Freestanding {
		args = append(args, "-nostdlib", "-nostartfiles")
	}
	for _, dir := range opts.LibDirs {
		args = append(args, "-L"+dir)
	}
	for _, lib := range opts.Libs {
		args = append(args, "-l"+lib)
	}
	if !opts.Freestanding {
		args = append(args, "-lm")
	}
	return runTool(ctx, bus, "cc", args...)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return diagnostics.Wrap(diagnostics.New(diagnostics.IO002, fmt.Sprintf("writing %s: %v", path, err), "", nil))
	}
	return nil
}

// runTool runs name with args, forwarding stderr to bus as Debug events
// and turning a missing executable or non-zero exit into an IO003/IO004
// report. Shared shape with internal/optimize's `opt` invocation.
func runTool(ctx context.Context, bus *diagnostics.Bus, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) && os.IsNotExist(execErr.Err) {
			return diagnostics.Wrap(diagnostics.New(diagnostics.IO004, fmt.Sprintf("%s not found on PATH; install LLVM and a C toolchain", name), "", nil))
		}
		code := diagnostics.IO003
		if name != "cc" {
			code = diagnostics.IO004
		}
		return diagnostics.Wrap(diagnostics.New(code, fmt.Sprintf("%s failed: %v: %s", name, err, stderr.String()), "", nil))
	}
	if bus != nil && stderr.Len() > 0 {
		bus.Debugf("%s: %s", name, stderr.String())
	}
	return nil
}
