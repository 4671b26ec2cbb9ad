// Package compiler is the embeddable interface (spec.md §6): an opaque
// handle wrapping internal/driver, with registered callbacks instead
// of direct stdout/stderr writes, so a host application can drive the
// compiler in-process instead of shelling out to cmd/quarkc.
package compiler

import (
	"context"
	"sync"

	"github.com/quark-lang/quarkc/internal/diagnostics"
	"github.com/quark-lang/quarkc/internal/driver"
	"github.com/quark-lang/quarkc/internal/optimize"
)

// Code is the embeddable interface's return status (spec.md §6).
type Code int

const (
	Ok              Code = 0
	InvalidArgument Code = -1
	Io              Code = -2
	Compilation     Code = -3
	Internal        Code = -4
)

// Options mirrors every flag spec.md §6 exposes, independent of the
// CLI's flag parsing.
type Options struct {
	InputPath  string
	OutputPath string

	Optimize          bool
	OptimizationLevel int // 0-3, meaningful only when Optimize is true

	EmitLLVM     bool
	EmitAsm      bool
	Freestanding bool

	LibraryPaths []string
	LinkLibaries []string

	UseCache   bool
	ClearCache bool
	CacheDir   string

	Verbose bool
	Quiet   bool
	NoColor bool
}

// Result is returned from CompileFile/CompileSource.
type Result struct {
	Code         Code
	OutputPath   string
	CacheHit     bool
	ErrorCount   int
	WarningCount int
}

// processLock serializes compilations process-wide (spec.md §6: "at
// most one compilation runs at a time per process"), since the
// embeddable interface's Compiler instances all share the diagnostics
// Bus's non-reentrant terminal renderer.
var processLock sync.Mutex

// Compiler is the opaque handle spec.md §6's create/destroy pair
// manages. A zero Compiler is not valid; always use Create.
type Compiler struct {
	mu      sync.Mutex
	bus     *diagnostics.Bus
	echo    bool
	noColor bool
}

// Create allocates a Compiler with console echo enabled by default.
func Create() *Compiler {
	bus := diagnostics.NewBus()
	return &Compiler{bus: bus, echo: true}
}

// Destroy releases c. Present for API symmetry with Create and for
// hosts translating this package to a C ABI, where destroy frees an
// opaque pointer.
func (c *Compiler) Destroy() {}

// SetDiagnosticCallback registers cb to receive every structured event.
func (c *Compiler) SetDiagnosticCallback(cb diagnostics.StructuredCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bus.SetDiagnosticCallback(cb)
}

// SetRawOutputCallback registers cb to receive every event's rendered text.
func (c *Compiler) SetRawOutputCallback(cb diagnostics.RawCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bus.SetRawOutputCallback(cb)
}

// SetConsoleEcho toggles the bus's internal terminal renderer.
func (c *Compiler) SetConsoleEcho(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.echo = enabled
	c.bus.SetConsoleEcho(enabled)
}

// GetErrorCount returns the number of Error events raised on this
// Compiler's bus across all of its compile calls; it is not reset
// between calls.
func (c *Compiler) GetErrorCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bus.ErrorCount()
}

// GetWarningCount returns the number of Warning events raised on this
// Compiler's bus across all of its compile calls; it is not reset
// between calls.
func (c *Compiler) GetWarningCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bus.WarningCount()
}

// CompileFile compiles the .k file at opts.InputPath.
func (c *Compiler) CompileFile(ctx context.Context, opts Options) Result {
	return c.compile(ctx, opts, "")
}

// CompileSource compiles text directly, reporting diagnostics against
// virtualFilename as if it had been loaded from disk.
func (c *Compiler) CompileSource(ctx context.Context, text, virtualFilename string, opts Options) Result {
	if opts.InputPath == "" {
		opts.InputPath = virtualFilename
	}
	return c.compile(ctx, opts, text)
}

func (c *Compiler) compile(ctx context.Context, opts Options, sourceText string) Result {
	processLock.Lock()
	defer processLock.Unlock()

	c.mu.Lock()
	c.bus.SetNoColor(opts.NoColor)
	c.bus.SetConsoleEcho(c.echo && !opts.Quiet)
	c.bus.SetVerbose(opts.Verbose)
	bus := c.bus
	c.mu.Unlock()

	if opts.InputPath == "" && sourceText == "" {
		return Result{Code: InvalidArgument}
	}

	level := optimize.O0
	if opts.Optimize {
		switch opts.OptimizationLevel {
		case 2:
			level = optimize.O2
		case 3:
			level = optimize.O3
		default:
			level = optimize.O1
		}
	}

	res, err := driver.Compile(ctx, bus, driver.Options{
		InputPath:    opts.InputPath,
		SourceText:   sourceText,
		OutputPath:   opts.OutputPath,
		Level:        level,
		Freestanding: opts.Freestanding,
		EmitLLVM:     opts.EmitLLVM,
		EmitAsm:      opts.EmitAsm,
		LibDirs:      opts.LibraryPaths,
		Libs:         opts.LinkLibaries,
		UseCache:     opts.UseCache,
		ClearCache:   opts.ClearCache,
		CacheDir:     opts.CacheDir,
	})
	if err != nil {
		code := Compilation
		if rep, ok := diagnostics.AsReport(err); ok {
			switch {
			case rep.Phase == "internal":
				code = Internal
			case rep.Phase == "io":
				code = Io
			}
		}
		return Result{Code: code, ErrorCount: bus.ErrorCount(), WarningCount: bus.WarningCount()}
	}

	return Result{
		Code:         Ok,
		OutputPath:   res.OutputPath,
		CacheHit:     res.CacheHit,
		ErrorCount:   bus.ErrorCount(),
		WarningCount: bus.WarningCount(),
	}
}
