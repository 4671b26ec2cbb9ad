package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quark-lang/quarkc/internal/diagnostics"
	"github.com/quark-lang/quarkc/internal/optimize"
)

// writeSource writes src to a temp .k file and returns its path.
func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompileHelloWorldEmitsIR(t *testing.T) {
	dir := t.TempDir()
	in := writeSource(t, dir, "hello.k", `
extern fn puts(s: str) -> int;
fn main() -> int {
	ret puts("hello, world");
}
`)
	out := filepath.Join(dir, "hello.ll")

	res, err := Compile(context.Background(), diagnostics.NewBus(), Options{
		InputPath:  in,
		OutputPath: out,
		EmitLLVM:   true,
		Level:      optimize.O0,
		UseCache:   false,
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.CacheHit {
		t.Fatal("first build should not be a cache hit")
	}

	ir, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading emitted IR: %v", err)
	}
	if !strings.Contains(string(ir), "declare i32 @puts(i8*)") {
		t.Fatalf("expected puts declared as extern, got:\n%s", ir)
	}
	if !strings.Contains(string(ir), "define i32 @main()") {
		t.Fatalf("expected main's signature, got:\n%s", ir)
	}
}

func TestCompileArithmeticAndFormat(t *testing.T) {
	dir := t.TempDir()
	in := writeSource(t, dir, "arith.k", `
fn main() -> int {
	var x: int = 2 + 3 * 4;
	ret x;
}
`)
	out := filepath.Join(dir, "arith.ll")

	if _, err := Compile(context.Background(), diagnostics.NewBus(), Options{
		InputPath:  in,
		OutputPath: out,
		EmitLLVM:   true,
		Level:      optimize.O0,
	}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	ir, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(ir), "mul i32") {
		t.Fatalf("expected a multiply instruction, got:\n%s", ir)
	}
}

func TestCompileRangeForWithBreak(t *testing.T) {
	dir := t.TempDir()
	in := writeSource(t, dir, "loop.k", `
fn firstEven(n: int) -> int {
	var result: int = -1;
	for i in 0..n {
		if i % 2 == 0 {
			result = i;
			break;
		}
	}
	ret result;
}
`)
	out := filepath.Join(dir, "loop.ll")
	if _, err := Compile(context.Background(), diagnostics.NewBus(), Options{
		InputPath:  in,
		OutputPath: out,
		EmitLLVM:   true,
		Level:      optimize.O0,
	}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	ir, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(ir), "for.end") {
		t.Fatalf("expected a for.end block from break lowering, got:\n%s", ir)
	}
}

func TestCompileStructWithMethod(t *testing.T) {
	dir := t.TempDir()
	in := writeSource(t, dir, "point.k", `
struct Point {
	data { x: int; y: int; }
	impl {
		fn sum(this) -> int {
			ret this.x + this.y;
		}
	}
}
fn main() -> int {
	var p: Point = Point { x: 3, y: 4 };
	ret p.sum();
}
`)
	out := filepath.Join(dir, "point.ll")
	if _, err := Compile(context.Background(), diagnostics.NewBus(), Options{
		InputPath:  in,
		OutputPath: out,
		EmitLLVM:   true,
		Level:      optimize.O0,
	}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	ir, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(ir), "define i32 @Point_sum(%Point* %this)") {
		t.Fatalf("expected a mangled method signature, got:\n%s", ir)
	}
}

func TestCompileArrayLengthBuiltin(t *testing.T) {
	dir := t.TempDir()
	in := writeSource(t, dir, "arr.k", `
fn count() -> int {
	var xs: int[] = [1, 2, 3, 4];
	ret array_length(xs);
}
`)
	out := filepath.Join(dir, "arr.ll")
	if _, err := Compile(context.Background(), diagnostics.NewBus(), Options{
		InputPath:  in,
		OutputPath: out,
		EmitLLVM:   true,
		Level:      optimize.O0,
	}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	ir, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(ir), "@malloc") {
		t.Fatalf("expected a malloc call for the array literal, got:\n%s", ir)
	}
}

func TestCompileCacheHitReusesBuild(t *testing.T) {
	dir := t.TempDir()
	in := writeSource(t, dir, "cached.k", `
fn main() -> int {
	ret 42;
}
`)
	out := filepath.Join(dir, "cached.ll")
	cacheDir := filepath.Join(dir, "cache")

	opts := Options{
		InputPath:  in,
		OutputPath: out,
		EmitLLVM:   true,
		Level:      optimize.O0,
		UseCache:   true,
		CacheDir:   cacheDir,
	}

	first, err := Compile(context.Background(), diagnostics.NewBus(), opts)
	if err != nil {
		t.Fatalf("first Compile: %v", err)
	}
	if first.CacheHit {
		t.Fatal("first build should not be a cache hit")
	}
	firstIR, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	second, err := Compile(context.Background(), diagnostics.NewBus(), opts)
	if err != nil {
		t.Fatalf("second Compile: %v", err)
	}
	if !second.CacheHit {
		t.Fatal("second build with an unchanged source should hit the cache")
	}
	secondIR, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(firstIR) != string(secondIR) {
		t.Fatalf("cache hit produced different output:\nfirst:\n%s\nsecond:\n%s", firstIR, secondIR)
	}
}

func TestCompileUndefinedVariableReportsError(t *testing.T) {
	dir := t.TempDir()
	in := writeSource(t, dir, "bad.k", `
fn bad() -> int {
	ret missing;
}
`)
	out := filepath.Join(dir, "bad.ll")

	_, err := Compile(context.Background(), diagnostics.NewBus(), Options{
		InputPath:  in,
		OutputPath: out,
		EmitLLVM:   true,
		Level:      optimize.O0,
	})
	if err == nil {
		t.Fatal("expected an error for an undefined identifier")
	}
	rep, ok := diagnostics.AsReport(err)
	if !ok || rep.Code != "SEM001" {
		t.Fatalf("expected SEM001, got %v", err)
	}
}

func TestCompileMissingSourceFileReportsIOError(t *testing.T) {
	_, err := Compile(context.Background(), diagnostics.NewBus(), Options{
		InputPath:  filepath.Join(t.TempDir(), "nope.k"),
		OutputPath: filepath.Join(t.TempDir(), "nope.ll"),
		EmitLLVM:   true,
	})
	if err == nil {
		t.Fatal("expected an error for a missing source file")
	}
	rep, ok := diagnostics.AsReport(err)
	if !ok || rep.Code != "IO001" {
		t.Fatalf("expected IO001, got %v", err)
	}
}
