// Package module resolves Quark import names to canonical file paths
// and inlines resolved files into the AST (spec.md §4.8, §4.2).
package module

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolver implements the ordered search of spec.md §4.8:
//  1. module registry (one-time scan of compiler-adjacent lib/ and
//     project-adjacent modules/)
//  2. standard-library directory (<compiler>/lib/<name>/<name>.k)
//  3. project modules directory (<project>/modules/<name>/{mod.k,<name>.k},
//     then src/{mod.k,<name>.k})
//  4. caller-provided search paths
//  5. relative quoted imports
type Resolver struct {
	compilerDir string
	projectRoot string
	searchPaths []string

	registry map[string]string // module name -> canonical path, built once
}

// New builds a Resolver rooted at compilerDir (the directory holding
// the quarkc binary, for locating the adjacent lib/ stdlib) and
// projectRoot (the directory holding the project's modules/).
func New(compilerDir, projectRoot string, searchPaths []string) *Resolver {
	r := &Resolver{compilerDir: compilerDir, projectRoot: projectRoot, searchPaths: searchPaths}
	r.buildRegistry()
	return r
}

// buildRegistry scans compiler-adjacent lib/ and project-adjacent
// modules/ once, recording the first .k file under each whose first
// non-comment, non-BOM line declares a module name.
func (r *Resolver) buildRegistry() {
	r.registry = map[string]string{}
	for _, root := range []string{filepath.Join(r.compilerDir, "lib"), filepath.Join(r.projectRoot, "modules")} {
		r.scanRegistryRoot(root)
	}
}

func (r *Resolver) scanRegistryRoot(root string) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() || !strings.HasSuffix(path, ".k") {
			return nil
		}
		name, ok := firstModuleDeclaration(path)
		if ok {
			if _, exists := r.registry[name]; !exists {
				r.registry[name] = path
			}
		}
		return nil
	})
}

// firstModuleDeclaration reads path's first non-comment, non-BOM line
// and reports the module name if it is a `module <identifier>`
// declaration.
func firstModuleDeclaration(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimPrefix(sc.Text(), "﻿")
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "module ") {
			name := strings.TrimSpace(strings.TrimPrefix(line, "module "))
			name = strings.TrimSuffix(name, ";")
			return strings.TrimSpace(name), true
		}
		return "", false
	}
	return "", false
}

// ResolveImport resolves importPath (as it appears in an `import`
// statement) to a canonical file path, trying each branch of spec.md
// §4.8's order in turn. currentFile supplies the base directory for
// relative quoted imports.
func (r *Resolver) ResolveImport(importPath, currentFile string) (string, error) {
	// Relative quoted import: "./local/file" or "../sibling".
	if strings.HasPrefix(importPath, "./") || strings.HasPrefix(importPath, "../") {
		return r.resolveRelative(importPath, currentFile)
	}

	// Branch 1: module registry.
	if path, ok := r.registry[importPath]; ok {
		return canonicalize(path), nil
	}
	// A submodule path like "mymod/sub" uses the top segment's
	// registry entry as its root, if present.
	if idx := strings.IndexByte(importPath, '/'); idx >= 0 {
		if base, ok := r.registry[importPath[:idx]]; ok {
			candidate := filepath.Join(filepath.Dir(base), importPath[idx+1:]+".k")
			if fileExists(candidate) {
				return canonicalize(candidate), nil
			}
		}
	}

	// Branch 2: standard-library directory.
	stdlibPath := filepath.Join(r.compilerDir, "lib", importPath, importPath+".k")
	if fileExists(stdlibPath) {
		return canonicalize(stdlibPath), nil
	}

	// Branch 3: project modules directory, four candidate layouts.
	modDir := filepath.Join(r.projectRoot, "modules", importPath)
	for _, candidate := range []string{
		filepath.Join(modDir, "mod.k"),
		filepath.Join(modDir, importPath+".k"),
		filepath.Join(modDir, "src", "mod.k"),
		filepath.Join(modDir, "src", importPath+".k"),
	} {
		if fileExists(candidate) {
			return canonicalize(candidate), nil
		}
	}

	// Branch 4: caller-provided search paths.
	for _, sp := range r.searchPaths {
		candidate := filepath.Join(sp, importPath+".k")
		if fileExists(candidate) {
			return canonicalize(candidate), nil
		}
		candidate = filepath.Join(sp, importPath, importPath+".k")
		if fileExists(candidate) {
			return canonicalize(candidate), nil
		}
	}

	return "", fmt.Errorf("cannot resolve import %q", importPath)
}

func (r *Resolver) resolveRelative(importPath, currentFile string) (string, error) {
	if currentFile == "" {
		return "", fmt.Errorf("relative import %q requires a current file context", importPath)
	}
	path := importPath
	if !strings.HasSuffix(path, ".k") {
		path += ".k"
	}
	candidate := filepath.Join(filepath.Dir(currentFile), path)
	if !fileExists(candidate) {
		return "", fmt.Errorf("module not found: %s", importPath)
	}
	return canonicalize(candidate), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func canonicalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// FindProjectRoot walks upward from startDir looking for a project
// marker (quark.yaml, .quark, go.mod, .git), used by the CLI to infer
// the project root when none is passed explicitly.
func FindProjectRoot(startDir string) string {
	markers := []string{"quark.yaml", ".quark", "go.mod", ".git"}
	dir := startDir
	for {
		for _, m := range markers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}
