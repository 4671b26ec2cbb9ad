// Package parser builds a Quark AST from a token stream. One grammar
// serves two error disciplines (spec.md §4.2): the strict parser used
// for compilation fails fast on the first unrecoverable mismatch,
// while the recovering parser used for editor tooling records a
// diagnostic and synchronizes to the next statement boundary.
package parser

import (
	"fmt"

	"github.com/quark-lang/quarkc/internal/ast"
	"github.com/quark-lang/quarkc/internal/diagnostics"
	"github.com/quark-lang/quarkc/internal/lexer"
	"github.com/quark-lang/quarkc/internal/token"
)

// Mode selects the error discipline.
type Mode int

const (
	Strict Mode = iota
	Recovering
)

// ParseError is returned by the strict parser on the first
// unrecoverable mismatch (spec.md §4.2).
type ParseError struct {
	Code    string
	Message string
	Span    ast.Span
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Code, e.Span, e.Message)
}

type prefixFn func() ast.Expr
type infixFn func(ast.Expr) ast.Expr

// Parser holds cursor state over a pre-lexed token slice, a registry
// of Pratt parse functions per token kind, and (in Recovering mode)
// a running diagnostics list instead of a first-error abort.
type Parser struct {
	mode   Mode
	tokens []token.Token
	pos    int
	file   string

	prefix map[token.Kind]prefixFn
	infix  map[token.Kind]infixFn

	// noStructLit suppresses `Ident { ... }` struct-literal parsing
	// while set, the same ambiguity C-family parsers resolve by
	// disabling brace-literals in if/while/for/match headers (the
	// brace there opens the statement block, not a literal).
	noStructLit bool

	Diags []*diagnostics.Report
}

// New builds a Parser over toks (as produced by lexer.Tokenize).
func New(toks []token.Token, file string, mode Mode) *Parser {
	p := &Parser{mode: mode, tokens: toks, file: file}
	p.prefix = map[token.Kind]prefixFn{}
	p.infix = map[token.Kind]infixFn{}
	p.registerExprFns()
	return p
}

// ParseFile is the main entry: parse until end of file, returning a
// program tree. In Recovering mode errors are collected in Diags and
// parsing continues via synchronize(); in Strict mode the first error
// returns immediately as a *ParseError.
func (p *Parser) ParseFile() (*ast.Program, error) {
	prog := &ast.Program{}
	for !p.atEnd() {
		before := p.pos
		stmt, err := p.parseTopLevel()
		if err != nil {
			if p.mode == Strict {
				return nil, err
			}
			p.recordError(err)
			p.synchronize()
			if p.pos == before {
				// synchronize() found nothing to skip to (e.g. a stray
				// closing brace at top level); force progress so
				// recovery never loops forever.
				p.advance()
			}
			continue
		}
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
	}
	return prog, nil
}

func (p *Parser) recordError(err error) {
	if pe, ok := err.(*ParseError); ok {
		p.Diags = append(p.Diags, diagnostics.New(pe.Code, pe.Message, "", &pe.Span))
		return
	}
	p.Diags = append(p.Diags, diagnostics.New(diagnostics.PAR001, err.Error(), "", nil))
}

// synchronize discards tokens until a statement boundary: `;`, a
// closing brace, or a top-level keyword (spec.md §4.2).
func (p *Parser) synchronize() {
	for !p.atEnd() {
		if p.cur().Kind == token.SEMICOLON {
			p.advance()
			return
		}
		switch p.cur().Kind {
		case token.RBRACE, token.FN, token.STRUCT, token.IMPORT, token.MODULE, token.EXTERN, token.IMPL:
			return
		}
		p.advance()
	}
}

// --- cursor helpers ---

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek() token.Token {
	if p.pos+1 >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *Parser) atEnd() bool { return p.cur().Kind == token.EOF }

func (p *Parser) check(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind, code string) (token.Token, error) {
	if p.check(k) {
		return p.advance(), nil
	}
	t := p.cur()
	return t, &ParseError{
		Code:    code,
		Message: fmt.Sprintf("expected %s, found %s %q", k, t.Kind, t.Text),
		Span:    tokSpan(t),
	}
}

func tokSpan(t token.Token) ast.Span {
	end := t.Column + len(t.Text)
	return ast.Span{File: t.File, StartLine: t.Line, StartCol: t.Column, StartByte: t.Offset, EndLine: t.Line, EndCol: end, EndByte: t.Offset + len(t.Text)}
}

func joinSpan(start token.Token, end token.Token) ast.Span {
	return ast.Join(tokSpan(start), tokSpan(end))
}

// ParseString is a convenience used by tests and by the embeddable
// interface's compile_source entry point: lex then parse in one call.
func ParseString(src, file string, mode Mode) (*ast.Program, []*diagnostics.Report, error) {
	toks, lexDiags := lexer.Tokenize([]byte(src), file)
	p := New(toks, file, mode)
	prog, err := p.ParseFile()
	diags := append(lexDiags, p.Diags...)
	return prog, diags, err
}
