package parser

import (
	"github.com/quark-lang/quarkc/internal/ast"
	"github.com/quark-lang/quarkc/internal/token"
)

// parseCondExpr parses an expression in a position immediately
// followed by a `{` block (if/while/for/match headers, range bounds),
// suppressing `Ident { ... }` struct-literal parsing so the brace is
// never mistaken for a literal's field list.
func (p *Parser) parseCondExpr() (ast.Expr, error) {
	prev := p.noStructLit
	p.noStructLit = true
	defer func() { p.noStructLit = prev }()
	return p.parseExpr(0)
}

// parseBlock parses a `{ stmt... }` body, returning the statements and
// the closing brace token (used to compute the enclosing span).
func (p *Parser) parseBlock() ([]ast.Stmt, token.Token, error) {
	if _, err := p.expect(token.LBRACE, "PAR002"); err != nil {
		return nil, token.Token{}, err
	}
	var stmts []ast.Stmt
	for !p.check(token.RBRACE) && !p.atEnd() {
		before := p.pos
		s, err := p.parseStatement()
		if err != nil {
			if p.mode == Strict {
				return nil, token.Token{}, err
			}
			p.recordError(err)
			p.synchronize()
			if p.pos == before {
				p.advance()
			}
			continue
		}
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	end, err := p.expect(token.RBRACE, "PAR002")
	if err != nil {
		return nil, token.Token{}, err
	}
	return stmts, end, nil
}

// parseStatement dispatches on the current token to one statement
// form. Assignment is a statement, not an expression (spec.md §4.2).
func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch p.cur().Kind {
	case token.VAR:
		return p.parseVarDecl()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.MATCH:
		return p.parseMatch()
	case token.RET:
		return p.parseReturn()
	case token.BREAK:
		t := p.advance()
		p.match(token.SEMICOLON)
		return &ast.Break{Base: ast.At(tokSpan(t))}, nil
	case token.CONTINUE:
		t := p.advance()
		p.match(token.SEMICOLON)
		return &ast.Continue{Base: ast.At(tokSpan(t))}, nil
	default:
		return p.parseExprOrAssignStatement()
	}
}

func (p *Parser) parseVarDecl() (ast.Stmt, error) {
	start := p.advance() // 'var'
	nameTok, err := p.expect(token.IDENT, "PAR001")
	if err != nil {
		return nil, err
	}
	var ty *ast.TypeExpr
	if p.match(token.COLON) {
		ty, err = p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
	}
	var init ast.Expr
	if p.match(token.ASSIGN) {
		init, err = p.parseExpr(0)
		if err != nil {
			return nil, err
		}
	}
	end := p.cur()
	p.match(token.SEMICOLON)
	return &ast.VarDecl{Base: ast.At(joinSpan(start, end)), Type: ty, Name: nameTok.Text, Init: init}, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	start := p.advance() // 'if'
	cond, err := p.parseCondExpr()
	if err != nil {
		return nil, err
	}
	then, _, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	node := &ast.If{Base: ast.At(tokSpan(start)), Cond: cond, Then: then}
	for p.check(token.ELIF) {
		p.advance()
		elifCond, err := p.parseCondExpr()
		if err != nil {
			return nil, err
		}
		elifBody, _, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		node.Elifs = append(node.Elifs, ast.ElifClause{Cond: elifCond, Body: elifBody})
	}
	end := p.tokens[p.pos-1]
	if p.match(token.ELSE) {
		elseBody, elseEnd, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		node.Else = elseBody
		end = elseEnd
	}
	node.Sp = joinSpan(start, end)
	return node, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	start := p.advance() // 'while'
	cond, err := p.parseCondExpr()
	if err != nil {
		return nil, err
	}
	body, end, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{Base: ast.At(joinSpan(start, end)), Cond: cond, Body: body}, nil
}

// parseFor parses `for x in lo..hi { body }` (spec.md §4.4.2's
// range-for induction-variable form).
func (p *Parser) parseFor() (ast.Stmt, error) {
	start := p.advance() // 'for'
	varTok, err := p.expect(token.IDENT, "PAR001")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.IN, "PAR001"); err != nil {
		return nil, err
	}
	lo, err := p.parseCondExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RANGE, "PAR001"); err != nil {
		return nil, err
	}
	hi, err := p.parseCondExpr()
	if err != nil {
		return nil, err
	}
	rangeExpr := &ast.Range{Base: ast.At(ast.Join(lo.Span(), hi.Span())), Lo: lo, Hi: hi}
	body, end, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.For{Base: ast.At(joinSpan(start, end)), Var: varTok.Text, Range: rangeExpr, Body: body}, nil
}

// parseMatch parses `match subject { pattern => { stmts } ..., _ => { ... } }`.
// Each arm body is a block; `_` is the wildcard fall-through arm
// (spec.md §4.4.2).
func (p *Parser) parseMatch() (ast.Stmt, error) {
	start := p.advance() // 'match'
	subject, err := p.parseCondExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE, "PAR007"); err != nil {
		return nil, err
	}
	var arms []ast.MatchArm
	for !p.check(token.RBRACE) && !p.atEnd() {
		var pattern ast.Expr
		if p.check(token.IDENT) && p.cur().Text == "_" {
			p.advance()
		} else {
			pattern, err = p.parseCondExpr()
			if err != nil {
				return nil, &ParseError{Code: "PAR007", Message: "invalid match arm: " + err.Error(), Span: tokSpan(p.cur())}
			}
		}
		if _, err := p.expect(token.FARROW, "PAR007"); err != nil {
			return nil, err
		}
		body, _, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		arms = append(arms, ast.MatchArm{Pattern: pattern, Body: body})
		p.match(token.COMMA)
	}
	end, err := p.expect(token.RBRACE, "PAR007")
	if err != nil {
		return nil, err
	}
	return &ast.Match{Base: ast.At(joinSpan(start, end)), Subject: subject, Arms: arms}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	start := p.advance() // 'ret'
	var val ast.Expr
	if !p.check(token.SEMICOLON) && !p.check(token.RBRACE) {
		var err error
		val, err = p.parseExpr(0)
		if err != nil {
			return nil, err
		}
	}
	end := p.cur()
	p.match(token.SEMICOLON)
	return &ast.Return{Base: ast.At(joinSpan(start, end)), Value: val}, nil
}

// parseExprOrAssignStatement parses either a plain expression
// statement or one of the lvalue assignment forms (simple name,
// member, dereference, array slot), including the compound-assignment
// operators which desugar to `lhs = lhs OP rhs` using
// token.BinaryOpForCompound.
func (p *Parser) parseExprOrAssignStatement() (ast.Stmt, error) {
	start := p.cur()
	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}

	if token.IsCompoundAssign(p.cur().Kind) || p.check(token.ASSIGN) {
		opTok := p.advance()
		rhs, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if opTok.Kind != token.ASSIGN {
			binOp := token.BinaryOpForCompound(opTok.Kind)
			rhs = &ast.Binary{Base: ast.At(ast.Join(expr.Span(), rhs.Span())), Op: binOp.String(), Left: expr, Right: rhs}
		}
		end := p.cur()
		p.match(token.SEMICOLON)
		span := ast.At(joinSpan(start, end))
		switch lhs := expr.(type) {
		case *ast.Variable:
			return &ast.Assign{Base: span, Name: lhs.Name, Value: rhs}, nil
		case *ast.MemberAccess:
			return &ast.MemberAssign{Base: span, Object: lhs.Receiver, Field: lhs.Field, Value: rhs}, nil
		case *ast.Dereference:
			return &ast.DerefAssign{Base: span, Pointer: lhs.Operand, Value: rhs}, nil
		case *ast.ArrayAccess:
			return &ast.ArrayAssign{Base: span, Array: lhs.Array, Index: lhs.Index, Value: rhs}, nil
		default:
			return nil, &ParseError{Code: "SEM010", Message: "left-hand side of assignment is not an lvalue", Span: expr.Span()}
		}
	}

	end := p.cur()
	p.match(token.SEMICOLON)
	return &ast.ExprStmt{Base: ast.At(joinSpan(start, end)), X: expr}, nil
}
