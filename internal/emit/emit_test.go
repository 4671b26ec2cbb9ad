package emit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/quark-lang/quarkc/internal/diagnostics"
)

func TestWriteEmitLLVMWritesTextAsIs(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "module.ll")

	err := Write(context.Background(), diagnostics.NewBus(), "define i32 @main() {\nret i32 0\n}\n", Options{
		OutputPath: out,
		EmitLLVM:   true,
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "define i32 @main() {\nret i32 0\n}\n" {
		t.Fatalf("output mutated, got:\n%s", got)
	}
}

// TestWriteMissingToolReportsIOError clears PATH so llc can't be found,
// exercising runTool's exec.Error/os.IsNotExist branch without requiring
// LLVM to be installed in the test environment.
func TestWriteMissingToolReportsIOError(t *testing.T) {
	t.Setenv("PATH", "")

	dir := t.TempDir()
	out := filepath.Join(dir, "main")

	err := Write(context.Background(), diagnostics.NewBus(), "define i32 @main() {\nret i32 0\n}\n", Options{
		OutputPath: out,
	})
	if err == nil {
		t.Fatal("expected an error with an empty PATH")
	}
	rep, ok := diagnostics.AsReport(err)
	if !ok {
		t.Fatalf("expected a diagnostics.Report, got %v", err)
	}
	if rep.Code != diagnostics.IO004 {
		t.Fatalf("expected IO004, got %s", rep.Code)
	}
}

func TestLinkWithFreestandingAndLibFlagsReportsMissingCC(t *testing.T) {
	t.Setenv("PATH", "")

	dir := t.TempDir()
	err := link(context.Background(), diagnostics.NewBus(), filepath.Join(dir, "module.o"), Options{
		OutputPath:   filepath.Join(dir, "main"),
		Freestanding: true,
		LibDirs:      []string{"/opt/lib"},
		Libs:         []string{"c"},
	})
	if err == nil {
		t.Fatal("expected an error with an empty PATH")
	}
	rep, ok := diagnostics.AsReport(err)
	if !ok {
		t.Fatalf("expected a diagnostics.Report, got %v", err)
	}
	if rep.Code != diagnostics.IO004 {
		t.Fatalf("expected IO004 (cc not found), got %s", rep.Code)
	}
}
