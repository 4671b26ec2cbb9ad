// Command quarkc compiles Quark source to a native executable
// (spec.md §6). It is a thin flag-parsing shell around
// internal/compiler: all real work happens through the embeddable
// interface, so anything the CLI can do a host application embedding
// this package can do too.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/quark-lang/quarkc/internal/compiler"
	"github.com/quark-lang/quarkc/internal/projectconfig"
)

// Version is set by ldflags during release builds.
var Version = "dev"

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// stringList implements flag.Value for repeatable -L/-l flags.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("quarkc", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		help         = fs.Bool("h", false, "show help")
		helpLong     = fs.Bool("help", false, "show help")
		version      = fs.Bool("V", false, "print version")
		versionLong  = fs.Bool("version", false, "print version")
		verbose      = fs.Bool("v", false, "verbose: echo external tool stderr")
		quiet        = fs.Bool("q", false, "quiet: suppress non-error output")
		debug        = fs.Bool("debug", false, "enable debug diagnostics")
		output       = fs.String("o", "", "output path")
		noColor      = fs.Bool("no-color", false, "disable colored output")
		emitLLVM     = fs.Bool("emit-llvm", true, "emit textual LLVM IR instead of a native executable")
		emitAsm      = fs.Bool("emit-asm", false, "emit target assembly instead of a native executable")
		o0           = fs.Bool("O0", false, "optimization level 0 (default)")
		oBare        = fs.Bool("O", false, "optimization level 1")
		o1           = fs.Bool("O1", false, "optimization level 1")
		o2           = fs.Bool("O2", false, "optimization level 2")
		o3           = fs.Bool("O3", false, "optimization level 3")
		freestanding = fs.Bool("freestanding", false, "link without the host libc/libm runtime")
		noCache      = fs.Bool("no-cache", false, "bypass the compilation cache")
		clearCache   = fs.Bool("clear-cache", false, "clear the compilation cache before building")
		cacheDir     = fs.String("cache-dir", "", "compilation cache directory")
		libDirs      stringList
		libs         stringList
	)
	fs.Var(&libDirs, "L", "library search directory (repeatable)")
	fs.Var(&libs, "l", "library to link (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *help || *helpLong {
		printHelp()
		return 0
	}
	if *version || *versionLong {
		fmt.Printf("quarkc %s\n", bold(Version))
		return 0
	}

	if fs.NArg() == 0 {
		printHelp()
		return 2
	}

	if fs.Arg(0) == "run" {
		return runSubcommand(fs.Args()[1:], *freestanding, libDirs, libs)
	}

	inputPath := fs.Arg(0)
	level := 0
	switch {
	case *o3:
		level = 3
	case *o2:
		level = 2
	case *o1, *oBare:
		level = 1
	case *o0:
		level = 0
	}

	cfg, _ := projectconfig.FindAndLoad(filepath.Dir(inputPath))
	opts := optionsFromFlags(inputPath, *output, level, *emitLLVM, *emitAsm, *freestanding,
		*noCache, *clearCache, *cacheDir, *verbose || *debug, *quiet, *noColor, libDirs, libs, cfg)

	c := compiler.Create()
	defer c.Destroy()
	c.SetConsoleEcho(!*quiet)

	res := c.CompileFile(context.Background(), opts)
	return reportResult(res, inputPath)
}

func optionsFromFlags(inputPath, output string, level int, emitLLVM, emitAsm, freestanding,
	noCache, clearCache bool, cacheDir string, verbose, quiet, noColor bool,
	libDirs, libs stringList, cfg projectconfig.Config) compiler.Options {

	if output == "" {
		output = defaultOutputPath(inputPath, emitLLVM, emitAsm)
	}
	if cacheDir == "" {
		cacheDir = cfg.CacheDir
	}
	dirs := append([]string{}, cfg.LibraryPaths...)
	dirs = append(dirs, libDirs...)
	names := append([]string{}, cfg.Libraries...)
	names = append(names, libs...)
	if cfg.OptimizationLevel != nil && level == 0 {
		level = *cfg.OptimizationLevel
	}
	if !freestanding {
		freestanding = cfg.Freestanding
	}

	return compiler.Options{
		InputPath:         inputPath,
		OutputPath:        output,
		Optimize:          level > 0,
		OptimizationLevel: level,
		EmitLLVM:          emitLLVM && !emitAsm,
		EmitAsm:           emitAsm,
		Freestanding:      freestanding,
		LibraryPaths:      dirs,
		LinkLibaries:      names,
		UseCache:          !noCache,
		ClearCache:        clearCache,
		CacheDir:          cacheDir,
		Verbose:           verbose,
		Quiet:             quiet,
		NoColor:           noColor,
	}
}

func defaultOutputPath(inputPath string, emitLLVM, emitAsm bool) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	switch {
	case emitAsm:
		return base + ".s"
	case emitLLVM:
		return base + ".ll"
	default:
		return base
	}
}

func reportResult(res compiler.Result, inputPath string) int {
	switch res.Code {
	case compiler.Ok:
		if res.CacheHit {
			fmt.Printf("%s %s (cache hit)\n", green("✓"), res.OutputPath)
		} else {
			fmt.Printf("%s %s\n", green("✓"), res.OutputPath)
		}
		if res.WarningCount > 0 {
			fmt.Printf("%s %d warning(s)\n", yellow("!"), res.WarningCount)
		}
		return 0
	case compiler.InvalidArgument:
		fmt.Fprintf(os.Stderr, "%s: invalid arguments compiling %s\n", red("error"), inputPath)
		return 2
	default:
		fmt.Fprintf(os.Stderr, "%s: failed to compile %s (%d error(s))\n", red("error"), inputPath, res.ErrorCount)
		return 1
	}
}

// runSubcommand compiles file to a temporary executable, runs it, and
// removes the temporary binary, matching original_source's
// compile-run-discard `run` command.
func runSubcommand(args []string, freestanding bool, libDirs, libs stringList) int {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "%s: missing file argument\n", red("error"))
		fmt.Println("Usage: quarkc run <file.k> [program args...]")
		return 2
	}
	inputPath := args[0]

	tmpDir, err := os.MkdirTemp("", "quarkc-run-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
		return 1
	}
	defer os.RemoveAll(tmpDir)
	binPath := filepath.Join(tmpDir, "a.out")

	c := compiler.Create()
	defer c.Destroy()
	res := c.CompileFile(context.Background(), compiler.Options{
		InputPath:    inputPath,
		OutputPath:   binPath,
		Freestanding: freestanding,
		LibraryPaths: libDirs,
		LinkLibaries: libs,
		UseCache:     true,
	})
	if res.Code != compiler.Ok {
		fmt.Fprintf(os.Stderr, "%s: failed to compile %s (%d error(s))\n", red("error"), inputPath, res.ErrorCount)
		return 1
	}

	cmd := exec.Command(binPath, args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
		return 1
	}
	return 0
}

func printHelp() {
	fmt.Println(bold("quarkc - the Quark compiler"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  quarkc [flags] <file.k>")
	fmt.Println("  quarkc run <file.k> [args...]")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -h, --help          show this help message")
	fmt.Println("  -V, --version       print version information")
	fmt.Println("  -v                  verbose: echo external tool stderr")
	fmt.Println("  -q                  quiet: suppress non-error output")
	fmt.Println("  --debug             enable debug diagnostics")
	fmt.Println("  -o FILE             output path")
	fmt.Println("  --no-color          disable colored output")
	fmt.Println("  --emit-llvm         emit textual LLVM IR (default)")
	fmt.Println("  --emit-asm          emit target assembly")
	fmt.Println("  -O0, -O, -O1, -O2, -O3   optimization level")
	fmt.Println("  -L DIR              library search directory (repeatable)")
	fmt.Println("  -l LIB              library to link (repeatable)")
	fmt.Println("  --freestanding      link without the host libc/libm runtime")
	fmt.Println("  --no-cache          bypass the compilation cache")
	fmt.Println("  --clear-cache       clear the compilation cache before building")
	fmt.Println("  --cache-dir DIR     compilation cache directory")
	fmt.Println()
	fmt.Printf("Example:\n  %s\n", cyan("quarkc -O2 -o hello hello.k"))
}
