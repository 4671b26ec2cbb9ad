package module

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveStdlibImport(t *testing.T) {
	dir := t.TempDir()
	compiler := filepath.Join(dir, "compiler")
	project := filepath.Join(dir, "project")
	libDir := filepath.Join(compiler, "lib", "json")
	if err := os.MkdirAll(libDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(libDir, "json.k"), []byte("module json\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := New(compiler, project, nil)
	path, err := r.ResolveImport("json", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := filepath.Abs(filepath.Join(libDir, "json.k"))
	if path != want {
		t.Fatalf("got %s, want %s", path, want)
	}
}

func TestResolveProjectModule(t *testing.T) {
	dir := t.TempDir()
	compiler := filepath.Join(dir, "compiler")
	project := filepath.Join(dir, "project")
	modDir := filepath.Join(project, "modules", "util")
	if err := os.MkdirAll(modDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(modDir, "mod.k"), []byte("module util\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := New(compiler, project, nil)
	path, err := r.ResolveImport("util", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := filepath.Abs(filepath.Join(modDir, "mod.k"))
	if path != want {
		t.Fatalf("got %s, want %s", path, want)
	}
}

func TestResolveRelativeImport(t *testing.T) {
	dir := t.TempDir()
	current := filepath.Join(dir, "main.k")
	sibling := filepath.Join(dir, "local", "file.k")
	if err := os.MkdirAll(filepath.Dir(sibling), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(sibling, []byte("module file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := New(filepath.Join(dir, "compiler"), filepath.Join(dir, "project"), nil)
	path, err := r.ResolveImport("./local/file", current)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := filepath.Abs(sibling)
	if path != want {
		t.Fatalf("got %s, want %s", path, want)
	}
}

func TestResolveImportNotFound(t *testing.T) {
	dir := t.TempDir()
	r := New(filepath.Join(dir, "compiler"), filepath.Join(dir, "project"), nil)
	if _, err := r.ResolveImport("doesnotexist", ""); err == nil {
		t.Fatal("expected an error for an unresolvable import")
	}
}
