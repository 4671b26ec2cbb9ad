package module

import (
	"fmt"
	"os"

	"github.com/quark-lang/quarkc/internal/ast"
	"github.com/quark-lang/quarkc/internal/lexer"
	"github.com/quark-lang/quarkc/internal/parser"
)

// Loader walks a parsed Program's Import statements, resolves each to
// a canonical path, parses the target file at most once per
// compilation, and replaces the Import with an Include wrapping the
// target's own (recursively inlined) statements (spec.md §4.2).
type Loader struct {
	resolver *Resolver
	mode     parser.Mode
	visited  map[string]*ast.Include // canonical path -> already-built Include, for sharing and cycle detection
	stack    map[string]bool         // canonical paths currently being loaded, for cycle detection
}

// NewLoader builds a Loader that resolves imports via r and parses
// dependency files in the given mode (Strict for compilation,
// Recovering for editor tooling).
func NewLoader(r *Resolver, mode parser.Mode) *Loader {
	return &Loader{resolver: r, mode: mode, visited: map[string]*ast.Include{}, stack: map[string]bool{}}
}

// Load inlines every Import in prog (recursively, depth-first),
// returning a new statement list with each Import replaced by an
// Include. currentFile is the canonical path of prog's own source,
// used to resolve relative quoted imports.
func (l *Loader) Load(prog *ast.Program, currentFile string) ([]ast.Stmt, error) {
	return l.loadStatements(prog.Statements, currentFile)
}

func (l *Loader) loadStatements(stmts []ast.Stmt, currentFile string) ([]ast.Stmt, error) {
	out := make([]ast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		imp, ok := s.(*ast.Import)
		if !ok {
			out = append(out, s)
			continue
		}
		for _, path := range imp.Paths {
			inc, err := l.loadOne(path, currentFile)
			if err != nil {
				return nil, err
			}
			out = append(out, inc)
		}
	}
	return out, nil
}

func (l *Loader) loadOne(importPath, currentFile string) (*ast.Include, error) {
	canonical, err := l.resolver.ResolveImport(importPath, currentFile)
	if err != nil {
		return nil, fmt.Errorf("import %q: %w", importPath, err)
	}
	if inc, ok := l.visited[canonical]; ok {
		// Already parsed this file in this compilation; share the
		// result rather than re-parsing (spec.md §4.2: "each file is
		// parsed at most once per compilation").
		return inc, nil
	}
	if l.stack[canonical] {
		return nil, fmt.Errorf("cyclic import detected: %s", canonical)
	}
	l.stack[canonical] = true
	defer delete(l.stack, canonical)

	src, err := readSource(canonical)
	if err != nil {
		return nil, err
	}
	prog, diags, parseErr := parser.ParseString(src, canonical, l.mode)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing %s: %w", canonical, parseErr)
	}
	if l.mode == parser.Strict && len(diags) > 0 {
		return nil, fmt.Errorf("parsing %s: %s", canonical, diags[0].Message)
	}

	nested, err := l.loadStatements(prog.Statements, canonical)
	if err != nil {
		return nil, err
	}

	inc := &ast.Include{CanonicalPath: canonical, Statements: nested}
	l.visited[canonical] = inc
	return inc, nil
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(lexer.Normalize(data)), nil
}
