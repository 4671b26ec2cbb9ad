package parser

import (
	"strconv"

	"github.com/quark-lang/quarkc/internal/ast"
	"github.com/quark-lang/quarkc/internal/token"
)

// registerExprFns wires the Pratt tables. Precedence climbing for
// binary operators uses token.Precedence() directly rather than a
// second table (spec.md §4.2's precedence ladder is exactly
// token.go's `precedence` map).
func (p *Parser) registerExprFns() {
	p.prefix[token.IDENT] = p.parseIdentOrCall
	p.prefix[token.INT] = p.parseIntLit
	p.prefix[token.HEXINT] = p.parseHexLit
	p.prefix[token.FLOAT] = p.parseFloatLit
	p.prefix[token.STRING] = p.parseStringLit
	p.prefix[token.CHAR] = p.parseCharLit
	p.prefix[token.TRUE] = p.parseBoolLit(true)
	p.prefix[token.FALSE] = p.parseBoolLit(false)
	p.prefix[token.NULL] = p.parseNullLit
	p.prefix[token.THIS] = p.parseThis
	p.prefix[token.LPAREN] = p.parseGroup
	p.prefix[token.LBRACKET] = p.parseArrayLit
	p.prefix[token.MINUS] = p.parseUnary
	p.prefix[token.BANG] = p.parseUnary
	p.prefix[token.TILDE] = p.parseUnary
	p.prefix[token.AMP] = p.parseUnary
	p.prefix[token.STAR] = p.parseUnary
}

// parseExpr parses a full expression at the given minimum precedence
// (0 = lowest), the standard precedence-climbing loop.
func (p *Parser) parseExpr(minPrec int) (ast.Expr, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	left, err = p.parsePostfix(left)
	if err != nil {
		return nil, err
	}

	for {
		prec := token.Precedence(p.cur().Kind)
		if prec == 0 || prec < minPrec {
			break
		}
		opTok := p.advance()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Base: ast.At(ast.Join(left.Span(), right.Span())), Op: opTok.Text, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parsePrefix() (ast.Expr, error) {
	fn, ok := p.prefix[p.cur().Kind]
	if !ok {
		t := p.cur()
		return nil, &ParseError{Code: "PAR001", Message: "unexpected token " + t.Kind.String() + " in expression", Span: tokSpan(t)}
	}
	return fn(), nil
}

// parsePostfix handles member access `.`, call `()`, and index `[]`,
// which spec.md §4.2 places above unary and below primary.
func (p *Parser) parsePostfix(left ast.Expr) (ast.Expr, error) {
	for {
		switch p.cur().Kind {
		case token.DOT:
			p.advance()
			nameTok, err := p.expect(token.IDENT, "PAR001")
			if err != nil {
				return nil, err
			}
			if p.check(token.LPAREN) {
				args, endTok, err := p.parseArgList()
				if err != nil {
					return nil, err
				}
				left = &ast.MethodCall{Base: ast.At(joinSpan(tokenOf(left), endTok)), Receiver: left, Name: nameTok.Text, Args: args}
			} else {
				left = &ast.MemberAccess{Base: ast.At(ast.Join(left.Span(), tokSpan(nameTok))), Receiver: left, Field: nameTok.Text}
			}
		case token.ARROW:
			p.advance()
			nameTok, err := p.expect(token.IDENT, "PAR001")
			if err != nil {
				return nil, err
			}
			args, endTok, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			left = &ast.StaticCall{Base: ast.At(joinSpan(tokenOf(left), endTok)), TypeName: exprName(left), Name: nameTok.Text, Args: args}
		case token.LBRACKET:
			p.advance()
			prev := p.noStructLit
			p.noStructLit = false
			idx, err := p.parseExpr(0)
			p.noStructLit = prev
			if err != nil {
				return nil, err
			}
			endTok, err := p.expect(token.RBRACKET, "PAR001")
			if err != nil {
				return nil, err
			}
			left = &ast.ArrayAccess{Base: ast.At(joinSpan(tokenOf(left), endTok)), Array: left, Index: idx}
		case token.LPAREN:
			args, endTok, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			left = &ast.Call{Base: ast.At(joinSpan(tokenOf(left), endTok)), Callee: left, Args: args}
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseArgList() ([]ast.Expr, token.Token, error) {
	if _, err := p.expect(token.LPAREN, "PAR001"); err != nil {
		return nil, token.Token{}, err
	}
	prev := p.noStructLit
	p.noStructLit = false
	defer func() { p.noStructLit = prev }()
	var args []ast.Expr
	for !p.check(token.RPAREN) {
		arg, err := p.parseExpr(0)
		if err != nil {
			return nil, token.Token{}, err
		}
		args = append(args, arg)
		if !p.match(token.COMMA) {
			break
		}
	}
	end, err := p.expect(token.RPAREN, "PAR001")
	if err != nil {
		return nil, token.Token{}, err
	}
	return args, end, nil
}

func (p *Parser) parseIdentOrCall() ast.Expr {
	t := p.advance()
	if !p.noStructLit && p.check(token.LBRACE) {
		return p.parseStructLiteral(t)
	}
	return &ast.Variable{Base: ast.At(tokSpan(t)), Name: t.Text}
}

// parseStructLiteral parses `Name { field: value, ... }` (spec.md
// §4.3's "every declared field must be initialized; field order in
// the literal is irrelevant" — that requirement is checked later, by
// codegen's lowerStructLiteral, against the struct's registered field set).
func (p *Parser) parseStructLiteral(nameTok token.Token) ast.Expr {
	p.advance() // '{'
	var fields []ast.StructFieldInit
	for !p.check(token.RBRACE) && !p.atEnd() {
		fnameTok, err := p.expect(token.IDENT, "PAR006")
		if err != nil {
			break
		}
		if _, err := p.expect(token.COLON, "PAR006"); err != nil {
			break
		}
		val, err := p.parseExpr(0)
		if err != nil {
			break
		}
		fields = append(fields, ast.StructFieldInit{Name: fnameTok.Text, Value: val})
		if !p.match(token.COMMA) {
			break
		}
	}
	end, _ := p.expect(token.RBRACE, "PAR006")
	return &ast.StructLiteral{Base: ast.At(joinSpan(nameTok, end)), Name: nameTok.Text, Fields: fields}
}

func (p *Parser) parseIntLit() ast.Expr {
	t := p.advance()
	v, _ := strconv.ParseInt(t.Text, 10, 64)
	return &ast.Number{Base: ast.At(tokSpan(t)), Value: v}
}

func (p *Parser) parseHexLit() ast.Expr {
	t := p.advance()
	v, _ := strconv.ParseInt(t.Text[2:], 16, 64)
	return &ast.Number{Base: ast.At(tokSpan(t)), Value: v}
}

func (p *Parser) parseFloatLit() ast.Expr {
	t := p.advance()
	text := t.Text
	if len(text) > 0 && (text[len(text)-1] == 'f' || text[len(text)-1] == 'F') {
		text = text[:len(text)-1]
	}
	v, _ := strconv.ParseFloat(text, 64)
	return &ast.Float{Base: ast.At(tokSpan(t)), Value: v}
}

func (p *Parser) parseStringLit() ast.Expr {
	t := p.advance()
	return &ast.String{Base: ast.At(tokSpan(t)), Value: t.Text}
}

func (p *Parser) parseCharLit() ast.Expr {
	t := p.advance()
	var b byte
	if len(t.Text) > 0 {
		b = t.Text[0]
	}
	return &ast.Char{Base: ast.At(tokSpan(t)), Value: b}
}

func (p *Parser) parseBoolLit(v bool) prefixFn {
	return func() ast.Expr {
		t := p.advance()
		return &ast.Bool{Base: ast.At(tokSpan(t)), Value: v}
	}
}

func (p *Parser) parseNullLit() ast.Expr {
	t := p.advance()
	return &ast.Null{Base: ast.At(tokSpan(t))}
}

func (p *Parser) parseThis() ast.Expr {
	t := p.advance()
	return &ast.Variable{Base: ast.At(tokSpan(t)), Name: "this"}
}

func (p *Parser) parseGroup() ast.Expr {
	start := p.advance() // '('
	prev := p.noStructLit
	p.noStructLit = false
	inner, err := p.parseExpr(0)
	p.noStructLit = prev
	if err != nil {
		return &ast.Null{Base: ast.At(tokSpan(start))}
	}
	p.expect(token.RPAREN, "PAR002")
	return inner
}

func (p *Parser) parseArrayLit() ast.Expr {
	start := p.advance() // '['
	prevNoStructLit := p.noStructLit
	p.noStructLit = false
	defer func() { p.noStructLit = prevNoStructLit }()
	var elems []ast.Expr
	for !p.check(token.RBRACKET) && !p.atEnd() {
		e, err := p.parseExpr(0)
		if err != nil {
			break
		}
		elems = append(elems, e)
		if !p.match(token.COMMA) {
			break
		}
	}
	end, _ := p.expect(token.RBRACKET, "PAR002")
	return &ast.ArrayLiteral{Base: ast.At(joinSpan(start, end)), Elements: elems}
}

// parseUnary handles prefix `-`, `!`, `~`, `&` (address-of), `*`
// (dereference) per spec.md §4.2/§4.3.
func (p *Parser) parseUnary() ast.Expr {
	opTok := p.advance()
	operand, err := p.parseExpr(unaryPrecedence)
	if err != nil {
		return &ast.Null{Base: ast.At(tokSpan(opTok))}
	}
	span := ast.At(joinSpan(opTok, tokenOf(operand)))
	switch opTok.Kind {
	case token.AMP:
		return &ast.AddressOf{Base: span, Operand: operand}
	case token.STAR:
		return &ast.Dereference{Base: span, Operand: operand}
	default:
		return &ast.Unary{Base: span, Op: opTok.Text, Operand: operand}
	}
}

// unaryPrecedence is above every binary operator so unary binds
// tighter than any binary form, per spec.md §4.2's ladder.
const unaryPrecedence = 11

// exprName extracts the bare identifier name from a Variable
// expression, used for `StructName->method(...)` static calls where
// the left-hand side must name a struct, not an arbitrary expression.
func exprName(e ast.Expr) string {
	if v, ok := e.(*ast.Variable); ok {
		return v.Name
	}
	return ""
}

// tokenOf recovers a synthetic end-position token.Token from an
// already-built Expr's span, so postfix chains can join spans without
// threading the original token through every parse function.
func tokenOf(e ast.Expr) token.Token {
	sp := e.Span()
	return token.Token{File: sp.File, Line: sp.EndLine, Column: sp.EndCol, Offset: sp.EndByte}
}
