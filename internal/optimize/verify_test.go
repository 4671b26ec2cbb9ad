package optimize

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"github.com/quark-lang/quarkc/internal/diagnostics"
)

func TestVerifyTerminatorsPassesOnWellFormedFunction(t *testing.T) {
	m := ir.NewModule()
	fn := m.NewFunc("ok", types.I32)
	entry := fn.NewBlock("entry")
	entry.NewRet(constant.NewInt(types.I32, 0))

	if err := VerifyTerminators(m); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestVerifyTerminatorsCatchesOpenBlock(t *testing.T) {
	m := ir.NewModule()
	fn := m.NewFunc("bad", types.I32)
	fn.NewBlock("entry") // never given a terminator

	err := VerifyTerminators(m)
	if err == nil {
		t.Fatal("expected an error for an unterminated block")
	}
	rep, ok := diagnostics.AsReport(err)
	if !ok || rep.Code != diagnostics.INT001 {
		t.Fatalf("expected INT001, got %v", err)
	}
}

func TestVerifyReachabilityPassesOnLinearControlFlow(t *testing.T) {
	m := ir.NewModule()
	fn := m.NewFunc("linear", types.I32)
	entry := fn.NewBlock("entry")
	next := fn.NewBlock("next")
	entry.NewBr(next)
	next.NewRet(constant.NewInt(types.I32, 1))

	if err := VerifyReachability(m); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestVerifyReachabilityCatchesOrphanBlock(t *testing.T) {
	m := ir.NewModule()
	fn := m.NewFunc("orphan", types.I32)
	entry := fn.NewBlock("entry")
	entry.NewRet(constant.NewInt(types.I32, 0))
	orphan := fn.NewBlock("orphan")
	orphan.NewRet(constant.NewInt(types.I32, 1))

	err := VerifyReachability(m)
	if err == nil {
		t.Fatal("expected an error for an unreachable block")
	}
	rep, ok := diagnostics.AsReport(err)
	if !ok || rep.Code != diagnostics.INT001 {
		t.Fatalf("expected INT001, got %v", err)
	}
}

func TestVerifyReachabilityFollowsCondBr(t *testing.T) {
	m := ir.NewModule()
	fn := m.NewFunc("branchy", types.I32)
	entry := fn.NewBlock("entry")
	thenB := fn.NewBlock("then")
	elseB := fn.NewBlock("else")
	entry.NewCondBr(constant.True, thenB, elseB)
	thenB.NewRet(constant.NewInt(types.I32, 1))
	elseB.NewRet(constant.NewInt(types.I32, 0))

	if err := VerifyReachability(m); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"0": O0, "": O1, "1": O1, "2": O2, "3": O3}
	for text, want := range cases {
		got, err := ParseLevel(text)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", text, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", text, got, want)
		}
	}
	if _, err := ParseLevel("9"); err == nil {
		t.Fatal("expected an error for an invalid level")
	}
}
