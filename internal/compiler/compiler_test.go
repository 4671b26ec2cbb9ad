package compiler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quark-lang/quarkc/internal/diagnostics"
)

func TestCompileSourceHelloWorld(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "hello.ll")

	c := Create()
	defer c.Destroy()
	c.SetConsoleEcho(false)

	var events []diagnostics.Event
	c.SetDiagnosticCallback(func(ev diagnostics.Event) { events = append(events, ev) })

	res := c.CompileSource(context.Background(), `
extern fn puts(s: str) -> int;
fn main() -> int {
	ret puts("hello, world");
}
`, "hello.k", Options{
		OutputPath: out,
		EmitLLVM:   true,
	})

	if res.Code != Ok {
		t.Fatalf("expected Ok, got %v (errors=%d)", res.Code, res.ErrorCount)
	}
	if res.ErrorCount != 0 {
		t.Fatalf("expected no errors, got %d", res.ErrorCount)
	}
	ir, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(ir), "define i32 @main()") {
		t.Fatalf("expected main's signature, got:\n%s", ir)
	}
}

func TestCompileFileReportsCompilationErrorCode(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.k")
	if err := os.WriteFile(in, []byte(`
fn bad() -> int {
	ret missing;
}
`), 0o644); err != nil {
		t.Fatal(err)
	}

	c := Create()
	defer c.Destroy()
	c.SetConsoleEcho(false)

	res := c.CompileFile(context.Background(), Options{
		InputPath:  in,
		OutputPath: filepath.Join(dir, "bad.ll"),
		EmitLLVM:   true,
	})
	if res.Code != Compilation {
		t.Fatalf("expected Compilation, got %v", res.Code)
	}
	if res.ErrorCount == 0 {
		t.Fatal("expected at least one reported error")
	}
}

func TestCompileFileInvalidArgument(t *testing.T) {
	c := Create()
	defer c.Destroy()
	res := c.CompileFile(context.Background(), Options{})
	if res.Code != InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", res.Code)
	}
}

func TestCompileFileMissingInputIsIOError(t *testing.T) {
	c := Create()
	defer c.Destroy()
	c.SetConsoleEcho(false)

	res := c.CompileFile(context.Background(), Options{
		InputPath:  filepath.Join(t.TempDir(), "nope.k"),
		OutputPath: filepath.Join(t.TempDir(), "nope.ll"),
		EmitLLVM:   true,
	})
	if res.Code != Io {
		t.Fatalf("expected Io, got %v", res.Code)
	}
}

func TestCompileFileCacheHit(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "cached.k")
	if err := os.WriteFile(in, []byte("fn main() -> int {\n\tret 1;\n}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	opts := Options{
		InputPath:  in,
		OutputPath: filepath.Join(dir, "cached.ll"),
		EmitLLVM:   true,
		UseCache:   true,
		CacheDir:   filepath.Join(dir, "cache"),
	}

	c := Create()
	defer c.Destroy()
	c.SetConsoleEcho(false)

	first := c.CompileFile(context.Background(), opts)
	if first.Code != Ok || first.CacheHit {
		t.Fatalf("expected a fresh Ok build, got %+v", first)
	}
	second := c.CompileFile(context.Background(), opts)
	if second.Code != Ok || !second.CacheHit {
		t.Fatalf("expected a cache-hit Ok build, got %+v", second)
	}
}
