package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestDumpRendersIndentedTree builds a small program by hand (bypassing
// the parser entirely) and diffs Dump's output against the exact tree
// expected, the same cmp.Diff-driven comparison internal/parser's
// testutil.go uses for golden ASTs.
func TestDumpRendersIndentedTree(t *testing.T) {
	prog := &Program{
		Statements: []Stmt{
			&FunctionDef{
				Name: "add",
				Body: []Stmt{
					&Return{Value: &Binary{
						Op:    "+",
						Left:  &Variable{Name: "a"},
						Right: &Variable{Name: "b"},
					}},
				},
			},
		},
	}

	want := "FunctionDef add\n  Return (a + b)\n"
	got := Dump(prog)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Dump mismatch (-want +got):\n%s", diff)
	}
}

func TestDumpNestedIf(t *testing.T) {
	prog := &Program{
		Statements: []Stmt{
			&FunctionDef{
				Name: "classify",
				Body: []Stmt{
					&If{
						Cond: &Binary{Op: "<", Left: &Variable{Name: "x"}, Right: &Number{Value: 0}},
						Then: []Stmt{&Return{Value: &Number{Value: -1}}},
					},
				},
			},
		},
	}

	want := "FunctionDef classify\n  If (x < 0)\n    Return -1\n"
	got := Dump(prog)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Dump mismatch (-want +got):\n%s", diff)
	}
}
