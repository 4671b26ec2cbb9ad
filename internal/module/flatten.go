package module

import "github.com/quark-lang/quarkc/internal/ast"

// Flatten expands every Include a Loader produced back into the
// top-level statement list, depth-first, so codegen's single-pass
// collectors (which only ever look at one flat []ast.Stmt) see every
// declaration from every transitively imported file. Per spec.md §5's
// ordering guarantee ("imports are parsed and inlined in source order,
// depth-first, with the top-level file last"), an Include's own
// statements are emitted in place of the Import that produced it —
// ahead of whatever followed the import in its including file — so a
// file's own top-level declarations still end up after everything it
// imports.
func Flatten(stmts []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		if inc, ok := s.(*ast.Include); ok {
			out = append(out, Flatten(inc.Statements)...)
			continue
		}
		out = append(out, s)
	}
	return out
}
