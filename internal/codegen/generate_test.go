package codegen

import (
	"strings"
	"testing"

	"github.com/quark-lang/quarkc/internal/diagnostics"
	"github.com/quark-lang/quarkc/internal/parser"
)

// compile parses src and lowers it, failing the test on any error.
// Mirrors the parse-then-lower pipeline a real compilation runs
// (spec.md §4's lexer → parser → generator chain).
func compile(t *testing.T, src string) string {
	t.Helper()
	prog, diags, err := parser.ParseString(src, "<test>", parser.Strict)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %v", diags)
	}
	bus := diagnostics.NewBus()
	mod, err := Generate("test", prog, bus, false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return mod.String()
}

// compileErr parses and lowers src, returning the error (which must
// be non-nil).
func compileErr(t *testing.T, src string) error {
	t.Helper()
	prog, diags, err := parser.ParseString(src, "<test>", parser.Strict)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %v", diags)
	}
	bus := diagnostics.NewBus()
	_, err = Generate("test", prog, bus, false)
	if err == nil {
		t.Fatalf("expected a generation error, got none")
	}
	return err
}

func TestGenerateSimpleFunction(t *testing.T) {
	ir := compile(t, `
fn add(a: int, b: int) -> int {
	ret a + b;
}
`)
	if !strings.Contains(ir, "define i32 @add(i32 %a, i32 %b)") {
		t.Fatalf("expected add's signature in IR, got:\n%s", ir)
	}
	if !strings.Contains(ir, "add i32") {
		t.Fatalf("expected an add instruction, got:\n%s", ir)
	}
}

func TestGenerateIfElifElse(t *testing.T) {
	ir := compile(t, `
fn classify(x: int) -> int {
	if x < 0 {
		ret -1;
	} elif x == 0 {
		ret 0;
	} else {
		ret 1;
	}
}
`)
	if !strings.Contains(ir, "icmp slt i32") {
		t.Fatalf("expected a signed less-than compare, got:\n%s", ir)
	}
}

func TestGenerateWhileLoop(t *testing.T) {
	ir := compile(t, `
fn countdown(n: int) -> int {
	var i: int = n;
	while i > 0 {
		i = i - 1;
	}
	ret i;
}
`)
	if !strings.Contains(ir, "br i1") {
		t.Fatalf("expected a conditional branch for the loop, got:\n%s", ir)
	}
}

func TestGenerateRangeFor(t *testing.T) {
	ir := compile(t, `
fn sum(n: int) -> int {
	var total: int = 0;
	for i in 0..n {
		total = total + i;
	}
	ret total;
}
`)
	if !strings.Contains(ir, "define i32 @sum(i32 %n)") {
		t.Fatalf("expected sum's signature, got:\n%s", ir)
	}
}

func TestGenerateMatch(t *testing.T) {
	ir := compile(t, `
fn describe(x: int) -> int {
	match x {
		0 => { ret 100; },
		1 => { ret 200; },
		_ => { ret -1; }
	}
	ret 0;
}
`)
	if !strings.Contains(ir, "define i32 @describe(i32 %x)") {
		t.Fatalf("expected describe's signature, got:\n%s", ir)
	}
}

func TestGenerateShortCircuit(t *testing.T) {
	ir := compile(t, `
fn both(a: bool, b: bool) -> bool {
	ret a && b;
}
`)
	if !strings.Contains(ir, "phi i1") {
		t.Fatalf("expected a phi node joining the short-circuit branches, got:\n%s", ir)
	}
}

func TestGenerateStructFieldsAndMethods(t *testing.T) {
	ir := compile(t, `
struct Point {
	data {
		x: int;
		y: int;
	}
	impl {
		fn sum(this) -> int {
			ret this.x + this.y;
		}
	}
}

fn origin() -> int {
	var p: Point = Point { x: 3, y: 4 };
	ret p.sum();
}
`)
	if !strings.Contains(ir, "%Point = type { i32, i32 }") {
		t.Fatalf("expected Point's field layout, got:\n%s", ir)
	}
	if !strings.Contains(ir, "define i32 @Point_sum(%Point* %this)") {
		t.Fatalf("expected a mangled method signature, got:\n%s", ir)
	}
}

func TestGenerateStructInheritance(t *testing.T) {
	ir := compile(t, `
struct Animal {
	data { legs: int; }
}
struct Dog : Animal {
	data { name: int; }
}
fn make() -> int {
	var d: Dog = Dog { legs: 4, name: 1 };
	ret d.legs;
}
`)
	if !strings.Contains(ir, "%Dog = type { i32, i32 }") {
		t.Fatalf("expected Dog's layout to prepend Animal's field, got:\n%s", ir)
	}
}

func TestGenerateArrayLiteralAndBuiltins(t *testing.T) {
	ir := compile(t, `
fn lengths() -> int {
	var xs: int[] = [1, 2, 3];
	ret array_length(xs);
}
`)
	if !strings.Contains(ir, "call i32 @malloc") && !strings.Contains(ir, "call i8* @malloc") {
		t.Fatalf("expected a malloc call for the array literal, got:\n%s", ir)
	}
}

func TestGenerateStringBuiltins(t *testing.T) {
	ir := compile(t, `
fn greet(name: str) -> str {
	ret str_concat("hello ", name);
}
`)
	if !strings.Contains(ir, "@strlen") && !strings.Contains(ir, "@memcpy") {
		t.Fatalf("expected str_concat to lower through memcpy/strlen, got:\n%s", ir)
	}
}

func TestGenerateExternCall(t *testing.T) {
	ir := compile(t, `
extern fn puts(s: str) -> int;
fn main() -> int {
	ret puts("hi");
}
`)
	if !strings.Contains(ir, "declare i32 @puts(i8*)") {
		t.Fatalf("expected puts declared as an extern, got:\n%s", ir)
	}
}

func TestGenerateUndefinedVariableDiagnoses(t *testing.T) {
	err := compileErr(t, `
fn bad() -> int {
	ret missing;
}
`)
	rep, ok := diagnostics.AsReport(err)
	if !ok {
		t.Fatalf("expected a structured diagnostic, got %v", err)
	}
	if rep.Code != "SEM001" {
		t.Fatalf("expected SEM001, got %s", rep.Code)
	}
}

func TestGenerateBreakOutsideLoopDiagnoses(t *testing.T) {
	err := compileErr(t, `
fn bad() -> int {
	break;
	ret 0;
}
`)
	rep, ok := diagnostics.AsReport(err)
	if !ok {
		t.Fatalf("expected a structured diagnostic, got %v", err)
	}
	if rep.Code != "SEM007" {
		t.Fatalf("expected SEM007, got %s", rep.Code)
	}
}

func TestGenerateMissingReturnDiagnoses(t *testing.T) {
	err := compileErr(t, `
fn bad(x: int) -> int {
	if x > 0 {
		ret 1;
	}
}
`)
	rep, ok := diagnostics.AsReport(err)
	if !ok {
		t.Fatalf("expected a structured diagnostic, got %v", err)
	}
	if rep.Code != "SEM011" {
		t.Fatalf("expected SEM011, got %s", rep.Code)
	}
}

func TestGenerateVarDeclWithoutInitializerZeroes(t *testing.T) {
	ir := compile(t, `
fn zero() -> int {
	var x: int;
	ret x;
}
`)
	if !strings.Contains(ir, "store i32 0, i32*") {
		t.Fatalf("expected a zero-initialized store for the uninitialized local, got:\n%s", ir)
	}
}

func TestGenerateVarDeclWithoutTypeOrInitializerDiagnoses(t *testing.T) {
	err := compileErr(t, `
fn bad() -> int {
	var x;
	ret 0;
}
`)
	rep, ok := diagnostics.AsReport(err)
	if !ok {
		t.Fatalf("expected a structured diagnostic, got %v", err)
	}
	if rep.Code != "SEM002" {
		t.Fatalf("expected SEM002, got %s", rep.Code)
	}
}

func TestGenerateImmutableAssignmentDiagnoses(t *testing.T) {
	err := compileErr(t, `
fn bad(x: int) -> int {
	x = 1;
	ret x;
}
`)
	rep, ok := diagnostics.AsReport(err)
	if !ok {
		t.Fatalf("expected a structured diagnostic, got %v", err)
	}
	if rep.Code != "SEM006" {
		t.Fatalf("expected SEM006, got %s", rep.Code)
	}
}
