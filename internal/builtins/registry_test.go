package builtins

import (
	"testing"

	quarktypes "github.com/quark-lang/quarkc/internal/types"
)

func TestRegistryLookupKnownNames(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{
		"print", "readline", "to_string", "to_int", "to_float", "format",
		"sqrt", "sin", "cos", "tan", "floor", "ceil", "fabs", "pow", "sleep",
		"abs", "min", "max", "clamp",
		"str_len", "str_concat", "str_find", "str_starts_with", "str_slice",
		"array_length", "array_free",
	} {
		if _, ok := r.Lookup(name); !ok {
			t.Errorf("expected builtin %q to be registered", name)
		}
	}
}

func TestRegistryLookupUnknownName(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup("not_a_builtin"); ok {
		t.Fatalf("did not expect a builtin named not_a_builtin")
	}
}

func TestRegistryNamesMatchesLookup(t *testing.T) {
	r := NewRegistry()
	names := r.Names()
	seen := map[string]bool{}
	for _, n := range names {
		if seen[n] {
			t.Fatalf("duplicate name in Names(): %s", n)
		}
		seen[n] = true
		if _, ok := r.Lookup(n); !ok {
			t.Fatalf("Names() returned %q but Lookup failed", n)
		}
	}
	if len(names) != 26 {
		t.Fatalf("expected 26 registered builtins, got %d: %v", len(names), names)
	}
}

// TestBuiltinArity pins down each non-variadic builtin's declared
// parameter count, the invariant checkArity relies on to reject
// mismatched call sites before Emit ever indexes into args.
func TestBuiltinArity(t *testing.T) {
	r := NewRegistry()
	cases := []struct {
		name     string
		variadic bool
		arity    int
	}{
		{"to_string", false, 1},
		{"to_int", false, 1},
		{"to_float", false, 1},
		{"print", true, 0},
		{"format", true, 0},
		{"readline", false, 0},
		{"sqrt", false, 1},
		{"pow", false, 2},
		{"sleep", false, 1},
		{"abs", false, 1},
		{"min", false, 2},
		{"max", false, 2},
		{"clamp", false, 3},
		{"str_len", false, 1},
		{"str_concat", false, 2},
		{"str_find", false, 2},
		{"str_starts_with", false, 2},
		{"str_slice", false, 3},
		{"array_length", false, 1},
		{"array_free", false, 1},
	}
	for _, c := range cases {
		b, ok := r.Lookup(c.name)
		if !ok {
			t.Fatalf("builtin %q not registered", c.name)
		}
		if b.Variadic != c.variadic {
			t.Errorf("%s: expected Variadic=%v, got %v", c.name, c.variadic, b.Variadic)
		}
		if len(b.ParamTypes) != c.arity {
			t.Errorf("%s: expected %d ParamTypes, got %d", c.name, c.arity, len(b.ParamTypes))
		}
	}
}

// TestNoVariadicWithoutParamTypesIndexesBlindly guards against the
// class of bug min/max/clamp/abs once had: a builtin marked Variadic
// with an empty ParamTypes accepts any argument count, including
// zero, through checkArity's minimum-length check — and then panics
// the moment Emit indexes into args. Every fixed-shape builtin (one
// that indexes a specific args[i]) must declare a non-variadic arity
// instead.
func TestNoVariadicWithoutParamTypesIndexesBlindly(t *testing.T) {
	r := NewRegistry()
	for _, name := range r.Names() {
		b, _ := r.Lookup(name)
		if b.Variadic && len(b.ParamTypes) == 0 {
			switch name {
			case "print", "format":
				// Genuinely 0+ argument builtins; their Emit bodies
				// handle an empty args slice explicitly.
			default:
				t.Errorf("%s: variadic with no ParamTypes but not a known 0+-arg builtin", name)
			}
		}
	}
}

func TestGenericBuiltinsUseUnknownPlaceholder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"abs", "min", "max", "clamp", "to_string"} {
		b, ok := r.Lookup(name)
		if !ok {
			t.Fatalf("builtin %q not registered", name)
		}
		for i, pt := range b.ParamTypes {
			if pt.Kind != quarktypes.KUnknown {
				t.Errorf("%s: param %d expected Unknown placeholder, got %s", name, i, pt)
			}
		}
	}
}

func TestArrayBuiltinsAcceptAnyElementType(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"array_length", "array_free"} {
		b, ok := r.Lookup(name)
		if !ok {
			t.Fatalf("builtin %q not registered", name)
		}
		if len(b.ParamTypes) != 1 || b.ParamTypes[0].Kind != quarktypes.KArray {
			t.Fatalf("%s: expected a single array ParamType, got %v", name, b.ParamTypes)
		}
		if b.ParamTypes[0].Elem.Kind != quarktypes.KUnknown {
			t.Errorf("%s: expected element type Unknown, got %s", name, b.ParamTypes[0].Elem)
		}
	}
}

func TestReturnTypesMatchDeclaredSignatures(t *testing.T) {
	r := NewRegistry()
	cases := map[string]*quarktypes.Type{
		"str_len":      quarktypes.Int,
		"str_concat":   quarktypes.Str,
		"to_int":       quarktypes.Int,
		"to_float":     quarktypes.Double,
		"array_length": quarktypes.Int,
		"array_free":   quarktypes.Void,
		"readline":     quarktypes.Str,
	}
	for name, want := range cases {
		b, ok := r.Lookup(name)
		if !ok {
			t.Fatalf("builtin %q not registered", name)
		}
		if b.ReturnType != want {
			t.Errorf("%s: expected return type %s, got %s", name, want, b.ReturnType)
		}
	}
}
