package parser

import (
	"testing"

	"github.com/quark-lang/quarkc/internal/ast"
)

func TestParseSimpleFunction(t *testing.T) {
	src := `
fn add(a: int, b: int) -> int {
	ret a + b;
}
`
	prog, diags, err := ParseString(src, "test.k", Strict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 top-level statement, got %d", len(prog.Statements))
	}
	fn, ok := prog.Statements[0].(*ast.FunctionDef)
	if !ok {
		t.Fatalf("expected *ast.FunctionDef, got %T", prog.Statements[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Fatalf("unexpected function shape: %+v", fn)
	}
	ret, ok := fn.Body[0].(*ast.Return)
	if !ok {
		t.Fatalf("expected return statement, got %T", fn.Body[0])
	}
	bin, ok := ret.Value.(*ast.Binary)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected a + binary, got %#v", ret.Value)
	}
}

func TestParseIfElifElse(t *testing.T) {
	src := `
fn classify(x: int) -> int {
	if x < 0 {
		ret -1;
	} elif x == 0 {
		ret 0;
	} else {
		ret 1;
	}
}
`
	prog, diags, err := ParseString(src, "test.k", Strict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	fn := prog.Statements[0].(*ast.FunctionDef)
	ifStmt := fn.Body[0].(*ast.If)
	if len(ifStmt.Elifs) != 1 || ifStmt.Else == nil {
		t.Fatalf("expected one elif and an else, got %+v", ifStmt)
	}
}

func TestParseForRange(t *testing.T) {
	src := `
fn sumTo(n: int) -> int {
	var total: int = 0;
	for i in 0..n {
		total += i;
	}
	ret total;
}
`
	prog, diags, err := ParseString(src, "test.k", Strict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	fn := prog.Statements[0].(*ast.FunctionDef)
	forStmt := fn.Body[1].(*ast.For)
	if forStmt.Var != "i" {
		t.Fatalf("expected induction variable 'i', got %q", forStmt.Var)
	}
	assign := forStmt.Body[0].(*ast.Assign)
	if assign.Name != "total" {
		t.Fatalf("expected compound assignment to 'total', got %+v", assign)
	}
	if _, ok := assign.Value.(*ast.Binary); !ok {
		t.Fatalf("expected += to desugar to a Binary, got %#v", assign.Value)
	}
}

func TestParseStructDefAndMethodCall(t *testing.T) {
	src := `
struct Point {
	data {
		x: int;
		y: int;
	}
	impl {
		fn sum() -> int {
			ret this.x + this.y;
		}
	}
}

fn main() -> int {
	var p: Point;
	ret p.sum();
}
`
	prog, diags, err := ParseString(src, "test.k", Strict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	sd, ok := prog.Statements[0].(*ast.StructDef)
	if !ok || sd.Name != "Point" || len(sd.Fields) != 2 || len(sd.Methods) != 1 {
		t.Fatalf("unexpected struct shape: %+v", sd)
	}
	mainFn := prog.Statements[1].(*ast.FunctionDef)
	ret := mainFn.Body[1].(*ast.Return)
	if _, ok := ret.Value.(*ast.MethodCall); !ok {
		t.Fatalf("expected a method call, got %#v", ret.Value)
	}
}

func TestParseStructLiteral(t *testing.T) {
	src := `
fn origin() -> int {
	var p: Point = Point { x: 3, y: 4 };
	ret p.x;
}
`
	prog, diags, err := ParseString(src, "test.k", Strict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	fn := prog.Statements[0].(*ast.FunctionDef)
	decl := fn.Body[0].(*ast.VarDecl)
	lit, ok := decl.Init.(*ast.StructLiteral)
	if !ok {
		t.Fatalf("expected a struct literal initializer, got %#v", decl.Init)
	}
	if lit.Name != "Point" || len(lit.Fields) != 2 {
		t.Fatalf("unexpected struct literal shape: %+v", lit)
	}
	if lit.Fields[0].Name != "x" || lit.Fields[1].Name != "y" {
		t.Fatalf("unexpected field order: %+v", lit.Fields)
	}
}

// TestParseIfHeaderDoesNotMistakeBlockForStructLiteral guards the
// classic `if Ident { ... }` ambiguity: the brace after the condition
// must always open the if's body block, never a struct literal's
// field list, even though `Ident { ... }` is valid as a struct literal
// everywhere else in expression position.
func TestParseIfHeaderDoesNotMistakeBlockForStructLiteral(t *testing.T) {
	src := `
fn check(flag: int) -> int {
	if flag {
		ret 1;
	}
	ret 0;
}
`
	prog, diags, err := ParseString(src, "test.k", Strict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	fn := prog.Statements[0].(*ast.FunctionDef)
	ifStmt, ok := fn.Body[0].(*ast.If)
	if !ok {
		t.Fatalf("expected an if statement, got %#v", fn.Body[0])
	}
	if _, ok := ifStmt.Cond.(*ast.Variable); !ok {
		t.Fatalf("expected a bare variable condition, got %#v", ifStmt.Cond)
	}
	if len(ifStmt.Then) != 1 {
		t.Fatalf("expected the if's block to hold one statement, got %d", len(ifStmt.Then))
	}
}

// TestParseStructLiteralInsideCall confirms struct-literal parsing
// resumes inside a nested call-argument list even while a
// noStructLit-suppressing header is still open (e.g. a match subject).
func TestParseStructLiteralInsideCall(t *testing.T) {
	src := `
fn use(p: Point) -> int {
	match id(Point { x: 1, y: 2 }) {
		_ => { ret 0; }
	}
}
`
	prog, diags, err := ParseString(src, "test.k", Strict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	fn := prog.Statements[0].(*ast.FunctionDef)
	m := fn.Body[0].(*ast.Match)
	call, ok := m.Subject.(*ast.Call)
	if !ok {
		t.Fatalf("expected a call subject, got %#v", m.Subject)
	}
	if _, ok := call.Args[0].(*ast.StructLiteral); !ok {
		t.Fatalf("expected the call's argument to be a struct literal, got %#v", call.Args[0])
	}
}

func TestRecoveringParserSynchronizes(t *testing.T) {
	src := `
fn broken( {
	ret 1;
}

fn ok() -> int {
	ret 2;
}
`
	prog, diags, err := ParseString(src, "test.k", Recovering)
	if err != nil {
		t.Fatalf("recovering parser should not return a hard error: %v", err)
	}
	if len(diags) == 0 {
		t.Fatalf("expected at least one recorded diagnostic")
	}
	found := false
	for _, s := range prog.Statements {
		if fn, ok := s.(*ast.FunctionDef); ok && fn.Name == "ok" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected recovery to resume parsing and find function 'ok'")
	}
}
