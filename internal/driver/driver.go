// Package driver orchestrates one compilation end to end: load source,
// consult the cache, lex/parse, inline imports, generate IR, optimize,
// and emit, wiring internal/cache, internal/codegen, internal/module,
// internal/optimize and internal/emit together the way spec.md §4
// describes the pipeline and spec.md §4.9 describes the cache's place
// in it.
package driver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quark-lang/quarkc/internal/ast"
	"github.com/quark-lang/quarkc/internal/cache"
	"github.com/quark-lang/quarkc/internal/codegen"
	"github.com/quark-lang/quarkc/internal/diagnostics"
	"github.com/quark-lang/quarkc/internal/emit"
	"github.com/quark-lang/quarkc/internal/module"
	"github.com/quark-lang/quarkc/internal/optimize"
	"github.com/quark-lang/quarkc/internal/parser"
	"github.com/quark-lang/quarkc/internal/source"
)

// CompilerVersion is embedded in the cache manifest so a compiler
// upgrade invalidates every prior entry (spec.md §4.9).
const CompilerVersion = "0.1.0"

// Options gathers every knob spec.md §6 exposes on the CLI and the
// embeddable interface, independent of how the caller collects them.
type Options struct {
	InputPath  string // required, a .k file
	SourceText string // set instead of InputPath to compile text directly (compile_source)
	OutputPath string

	Level        optimize.Level
	Freestanding bool
	EmitLLVM     bool
	EmitAsm      bool

	LibDirs     []string
	Libs        []string
	SearchPaths []string

	UseCache   bool
	ClearCache bool
	CacheDir   string
}

// Result reports what happened, for the embedding interface's counters
// and for tests asserting on cache behavior.
type Result struct {
	OutputPath string
	CacheHit   bool
}

// Compile runs the full pipeline for opts. bus receives every
// diagnostic and progress event (spec.md §4.10); a non-nil error means
// the build did not produce OutputPath.
func Compile(ctx context.Context, bus *diagnostics.Bus, opts Options) (*Result, error) {
	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = defaultCacheDir()
	}

	if opts.ClearCache {
		m, err := cache.Open(cacheDir, CompilerVersion, bus)
		if err != nil {
			return nil, diagnostics.Wrap(diagnostics.New(diagnostics.IO002, fmt.Sprintf("opening cache to clear it: %v", err), "", nil))
		}
		if err := m.Clear(); err != nil {
			return nil, diagnostics.Wrap(diagnostics.New(diagnostics.IO002, fmt.Sprintf("clearing cache: %v", err), "", nil))
		}
		bus.Infof("cache cleared: %s", cacheDir)
	}

	file, err := loadInput(opts)
	if err != nil {
		return nil, err
	}
	bus.RegisterFile(file)

	hash := sourceHash(file.Bytes)

	var manifest *cache.Manifest
	if opts.UseCache {
		manifest, err = cache.Open(cacheDir, CompilerVersion, bus)
		if err != nil {
			return nil, diagnostics.Wrap(diagnostics.New(diagnostics.IO002, fmt.Sprintf("opening cache: %v", err), "", nil))
		}
		if entry, ok := manifest.Lookup(file.CanonicalPath, hash); ok &&
			entry.OptimizationLevel == int(opts.Level) && entry.Freestanding == opts.Freestanding {
			bitcode, err := os.ReadFile(entry.LLVMBitcodePath)
			if err == nil {
				bus.Successf("cache hit: %s", file.CanonicalPath)
				if err := emitOutput(ctx, bus, string(bitcode), opts); err != nil {
					return nil, err
				}
				return &Result{OutputPath: opts.OutputPath, CacheHit: true}, nil
			}
			bus.Warn(diagnostics.New(diagnostics.CACHE002, fmt.Sprintf("cached bitcode unreadable, rebuilding: %v", err), "", nil))
		}
	}

	prog, err := parseAndInline(bus, file, opts)
	if err != nil {
		return nil, err
	}

	mod, err := codegen.Generate(moduleName(file.CanonicalPath), prog, bus, opts.Freestanding)
	if err != nil {
		return nil, err
	}

	pipeline := optimize.NewPipeline(opts.Level, bus)
	irText, err := pipeline.Run(ctx, mod)
	if err != nil {
		return nil, err
	}

	if err := emitOutput(ctx, bus, irText, opts); err != nil {
		return nil, err
	}

	if opts.UseCache && manifest != nil {
		key := cache.Key(file.CanonicalPath)
		bcPath := manifest.BitcodePath(key)
		if err := os.WriteFile(bcPath, []byte(irText), 0o644); err != nil {
			bus.Warn(diagnostics.New(diagnostics.CACHE002, fmt.Sprintf("failed to persist bitcode: %v", err), "", nil))
		} else {
			info, statErr := os.Stat(bcPath)
			var size int64
			if statErr == nil {
				size = info.Size()
			}
			manifest.Put(file.CanonicalPath, cache.Entry{
				SourceHash:        hash,
				LLVMBitcodePath:   bcPath,
				OptimizationLevel: int(opts.Level),
				Freestanding:      opts.Freestanding,
				SizeBytes:         size,
			})
			if err := manifest.Save(); err != nil {
				bus.Warn(diagnostics.New(diagnostics.CACHE001, fmt.Sprintf("failed to save cache manifest: %v", err), "", nil))
			}
		}
	}

	bus.Successf("compiled %s -> %s", file.CanonicalPath, opts.OutputPath)
	return &Result{OutputPath: opts.OutputPath, CacheHit: false}, nil
}

// loadInput materializes a source.File from either opts.InputPath or
// opts.SourceText (compile_source's virtual-file form, spec.md §6).
func loadInput(opts Options) (*source.File, error) {
	if opts.SourceText != "" {
		name := opts.InputPath
		if name == "" {
			name = "<source>"
		}
		return source.New(name, []byte(opts.SourceText)), nil
	}
	file, err := source.Load(opts.InputPath)
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.New(diagnostics.IO001, err.Error(), "", nil))
	}
	return file, nil
}

// parseAndInline lexes and parses file's text, then recursively inlines
// its imports via module.Resolver/Loader and flattens the resulting
// Include tree back into one statement list (spec.md §4.2, §5).
func parseAndInline(bus *diagnostics.Bus, file *source.File, opts Options) (*ast.Program, error) {
	prog, diags, err := parser.ParseString(string(file.Bytes), file.CanonicalPath, parser.Strict)
	for _, d := range diags {
		bus.Err(d)
	}
	if len(diags) > 0 {
		return nil, diagnostics.Wrap(diags[0])
	}
	if err != nil {
		if pe, ok := err.(*parser.ParseError); ok {
			rep := diagnostics.New(pe.Code, pe.Message, "", &pe.Span)
			bus.Err(rep)
			return nil, diagnostics.Wrap(rep)
		}
		rep := diagnostics.New(diagnostics.PAR001, err.Error(), "", nil)
		bus.Err(rep)
		return nil, diagnostics.Wrap(rep)
	}

	projectRoot := module.FindProjectRoot(filepath.Dir(file.CanonicalPath))
	compilerDir := filepath.Dir(mustExecutable())
	resolver := module.New(compilerDir, projectRoot, opts.SearchPaths)
	loader := module.NewLoader(resolver, parser.Strict)

	inlined, err := loader.Load(prog, file.CanonicalPath)
	if err != nil {
		rep := diagnostics.New(diagnostics.IO001, err.Error(), "", nil)
		bus.Err(rep)
		return nil, diagnostics.Wrap(rep)
	}
	prog.Statements = module.Flatten(inlined)
	return prog, nil
}

func emitOutput(ctx context.Context, bus *diagnostics.Bus, irText string, opts Options) error {
	return emit.Write(ctx, bus, irText, emit.Options{
		OutputPath:   opts.OutputPath,
		EmitLLVM:     opts.EmitLLVM,
		EmitAsm:      opts.EmitAsm,
		Freestanding: opts.Freestanding,
		LibDirs:      opts.LibDirs,
		Libs:         opts.Libs,
	})
}

func sourceHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func moduleName(canonicalPath string) string {
	base := filepath.Base(canonicalPath)
	return base[:len(base)-len(filepath.Ext(base))]
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "quarkc")
	}
	return filepath.Join(os.TempDir(), "quarkc-cache")
}

// mustExecutable returns the running quarkc binary's path, falling
// back to the working directory so stdlib resolution degrades to "no
// adjacent lib/" rather than failing outright when unavailable (e.g.
// under `go test`).
func mustExecutable() string {
	exe, err := os.Executable()
	if err != nil {
		wd, _ := os.Getwd()
		return filepath.Join(wd, "quarkc")
	}
	return exe
}
