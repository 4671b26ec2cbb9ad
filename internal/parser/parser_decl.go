package parser

import (
	"github.com/quark-lang/quarkc/internal/ast"
	"github.com/quark-lang/quarkc/internal/token"
)

// parseTopLevel dispatches on the current token to one of the
// top-level forms named in spec.md §4.2: module declaration, import
// list, extern block, struct definition, free function, impl block,
// or a bare statement. Bare statements are kept in the Program, but
// codegen lowers only declarations and function bodies: no `main` is
// generated around top-level statements.
func (p *Parser) parseTopLevel() (ast.Stmt, error) {
	switch p.cur().Kind {
	case token.MODULE:
		return p.parseModule()
	case token.IMPORT:
		return p.parseImport()
	case token.EXTERN:
		return p.parseExtern()
	case token.STRUCT:
		return p.parseStructDef()
	case token.IMPL, token.EXTEND:
		return p.parseImplBlock()
	case token.FN:
		return p.parseFunctionDef()
	default:
		return p.parseStatement()
	}
}

// parseModule parses `module <identifier>` (spec.md §3's "first
// non-comment, non-BOM line of a .k file").
func (p *Parser) parseModule() (ast.Stmt, error) {
	start := p.advance() // 'module'
	name, err := p.expect(token.IDENT, "PAR004")
	if err != nil {
		return nil, &ParseError{Code: "PAR004", Message: "invalid module declaration: " + err.Error(), Span: tokSpan(start)}
	}
	p.match(token.SEMICOLON)
	return &ast.Module{Base: ast.At(joinSpan(start, name)), Name: name.Text}, nil
}

// parseImport parses `import a, b, c;` where each entry is a symbolic
// module name, a submodule path (slash-separated identifiers), or a
// quoted relative path string (spec.md §4.2).
func (p *Parser) parseImport() (ast.Stmt, error) {
	start := p.advance() // 'import'
	var paths []string
	for {
		if p.check(token.STRING) {
			paths = append(paths, p.advance().Text)
		} else {
			nameTok, err := p.expect(token.IDENT, "PAR005")
			if err != nil {
				return nil, &ParseError{Code: "PAR005", Message: "invalid import statement: " + err.Error(), Span: tokSpan(start)}
			}
			path := nameTok.Text
			for p.check(token.SLASH) {
				p.advance()
				sub, err := p.expect(token.IDENT, "PAR005")
				if err != nil {
					return nil, err
				}
				path += "/" + sub.Text
			}
			paths = append(paths, path)
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	end := p.cur()
	p.match(token.SEMICOLON)
	return &ast.Import{Base: ast.At(joinSpan(start, end)), Paths: paths}, nil
}

// parseExtern parses `extern fn name(params) -> type;`,
// `extern fn name(params, ...) -> type;`, and
// `extern struct Name;` (spec.md §4.4.7).
func (p *Parser) parseExtern() (ast.Stmt, error) {
	start := p.advance() // 'extern'
	switch p.cur().Kind {
	case token.STRUCT:
		p.advance()
		nameTok, err := p.expect(token.IDENT, "PAR009")
		if err != nil {
			return nil, err
		}
		p.match(token.SEMICOLON)
		return &ast.ExternStructDecl{Base: ast.At(joinSpan(start, nameTok)), Name: nameTok.Text}, nil
	case token.FN:
		p.advance()
		nameTok, err := p.expect(token.IDENT, "PAR009")
		if err != nil {
			return nil, err
		}
		params, variadic, err := p.parseParamList()
		if err != nil {
			return nil, err
		}
		retType, err := p.parseOptionalReturnType()
		if err != nil {
			return nil, err
		}
		end := p.cur()
		p.match(token.SEMICOLON)
		return &ast.ExternFn{Base: ast.At(joinSpan(start, end)), Name: nameTok.Text, ReturnType: retType, Params: params, Variadic: variadic}, nil
	default:
		t := p.cur()
		return nil, &ParseError{Code: "PAR009", Message: "expected 'fn' or 'struct' after 'extern'", Span: tokSpan(t)}
	}
}

// parseParamList parses `(name: type, name2: type2, ...)` with an
// optional trailing `...` marking the function variadic. A `this`
// entry (a method's receiver, as in `fn sum(this)`) is accepted and
// adds no Param; the receiver is supplied by the enclosing impl block.
func (p *Parser) parseParamList() ([]ast.Param, bool, error) {
	if _, err := p.expect(token.LPAREN, "PAR003"); err != nil {
		return nil, false, err
	}
	var params []ast.Param
	variadic := false
	for !p.check(token.RPAREN) {
		if isEllipsis(p) {
			consumeEllipsis(p)
			variadic = true
			break
		}
		if p.check(token.THIS) {
			p.advance()
			if !p.match(token.COMMA) {
				break
			}
			continue
		}
		nameTok, err := p.expect(token.IDENT, "PAR003")
		if err != nil {
			return nil, false, err
		}
		if _, err := p.expect(token.COLON, "PAR003"); err != nil {
			return nil, false, err
		}
		ty, err := p.parseTypeExpr()
		if err != nil {
			return nil, false, err
		}
		params = append(params, ast.Param{Name: nameTok.Text, Type: ty})
		if !p.match(token.COMMA) {
			break
		}
	}
	if _, err := p.expect(token.RPAREN, "PAR003"); err != nil {
		return nil, false, err
	}
	return params, variadic, nil
}

// isEllipsis/consumeEllipsis recognize `...` as three consecutive DOT
// tokens, since token.Kind has no dedicated ellipsis lexeme (spec.md's
// token vocabulary only lists `.` and `..`, so `...` lexes as `..`
// followed by `.`).
func isEllipsis(p *Parser) bool {
	return p.cur().Kind == token.RANGE && p.peek().Kind == token.DOT
}

func consumeEllipsis(p *Parser) {
	p.advance() // '..'
	p.advance() // '.'
}

func (p *Parser) parseOptionalReturnType() (*ast.TypeExpr, error) {
	if p.match(token.ARROW) {
		return p.parseTypeExpr()
	}
	return nil, nil
}

// parseTypeExpr parses a scalar/struct type name, any number of
// trailing `*` (pointer indirection), and an optional trailing `[]`
// (dynamic array).
func (p *Parser) parseTypeExpr() (*ast.TypeExpr, error) {
	start := p.cur()
	var name string
	switch {
	case token.IsTypeKeyword(p.cur().Kind), p.cur().Kind == token.VOID:
		name = p.advance().Text
	case p.cur().Kind == token.IDENT:
		name = p.advance().Text
	default:
		return nil, &ParseError{Code: "PAR008", Message: "expected a type name", Span: tokSpan(start)}
	}
	indirection := 0
	for p.match(token.STAR) {
		indirection++
	}
	isArray := false
	if p.check(token.LBRACKET) && p.peek().Kind == token.RBRACKET {
		p.advance()
		p.advance()
		isArray = true
	}
	end := p.tokens[p.pos-1]
	te := ast.NewTypeExpr(joinSpan(start, end), name, indirection)
	te.IsArray = isArray
	return te, nil
}

// parseStructDef parses:
//
//	struct Name [: Parent] {
//	  data { field: type; ... }
//	  impl { fn method(...) -> type { ... } ... }
//	}
func (p *Parser) parseStructDef() (ast.Stmt, error) {
	start := p.advance() // 'struct'
	nameTok, err := p.expect(token.IDENT, "PAR006")
	if err != nil {
		return nil, err
	}
	parent := ""
	if p.match(token.COLON) {
		parentTok, err := p.expect(token.IDENT, "PAR006")
		if err != nil {
			return nil, err
		}
		parent = parentTok.Text
	}
	if _, err := p.expect(token.LBRACE, "PAR006"); err != nil {
		return nil, err
	}

	var fields []ast.Field
	var methods []*ast.FunctionDef

	for !p.check(token.RBRACE) && !p.atEnd() {
		switch p.cur().Kind {
		case token.DATA:
			p.advance()
			if _, err := p.expect(token.LBRACE, "PAR006"); err != nil {
				return nil, err
			}
			for !p.check(token.RBRACE) && !p.atEnd() {
				fname, err := p.expect(token.IDENT, "PAR006")
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(token.COLON, "PAR006"); err != nil {
					return nil, err
				}
				fty, err := p.parseTypeExpr()
				if err != nil {
					return nil, err
				}
				fields = append(fields, ast.Field{Name: fname.Text, Type: fty})
				p.match(token.SEMICOLON)
				p.match(token.COMMA)
			}
			if _, err := p.expect(token.RBRACE, "PAR006"); err != nil {
				return nil, err
			}
		case token.IMPL:
			p.advance()
			if _, err := p.expect(token.LBRACE, "PAR006"); err != nil {
				return nil, err
			}
			for !p.check(token.RBRACE) && !p.atEnd() {
				fn, err := p.parseFunctionDef()
				if err != nil {
					return nil, err
				}
				methods = append(methods, fn.(*ast.FunctionDef))
			}
			if _, err := p.expect(token.RBRACE, "PAR006"); err != nil {
				return nil, err
			}
		default:
			t := p.cur()
			return nil, &ParseError{Code: "PAR006", Message: "expected 'data' or 'impl' block inside struct body, found " + t.Kind.String(), Span: tokSpan(t)}
		}
	}
	end, err := p.expect(token.RBRACE, "PAR006")
	if err != nil {
		return nil, err
	}
	return &ast.StructDef{Base: ast.At(joinSpan(start, end)), Name: nameTok.Text, Parent: parent, Fields: fields, Methods: methods}, nil
}

// parseImplBlock parses a standalone `impl StructName { ... }` or
// `extend StructName { ... }` block (spec.md's EXTEND keyword allows
// a struct's methods to be spread across multiple impl blocks).
func (p *Parser) parseImplBlock() (ast.Stmt, error) {
	start := p.advance() // 'impl' or 'extend'
	nameTok, err := p.expect(token.IDENT, "PAR006")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE, "PAR006"); err != nil {
		return nil, err
	}
	var methods []*ast.FunctionDef
	for !p.check(token.RBRACE) && !p.atEnd() {
		fn, err := p.parseFunctionDef()
		if err != nil {
			return nil, err
		}
		methods = append(methods, fn.(*ast.FunctionDef))
	}
	end, err := p.expect(token.RBRACE, "PAR006")
	if err != nil {
		return nil, err
	}
	return &ast.ImplBlock{Base: ast.At(joinSpan(start, end)), StructName: nameTok.Text, Methods: methods}, nil
}

// parseFunctionDef parses `fn name(params) -> type { body }`.
func (p *Parser) parseFunctionDef() (ast.Stmt, error) {
	start := p.advance() // 'fn'
	nameTok, err := p.expect(token.IDENT, "PAR003")
	if err != nil {
		return nil, err
	}
	params, _, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	retType, err := p.parseOptionalReturnType()
	if err != nil {
		return nil, err
	}
	body, end, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDef{Base: ast.At(joinSpan(start, end)), Name: nameTok.Text, ReturnType: retType, Params: params, Body: body}, nil
}
