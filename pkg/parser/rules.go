package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kristofer/silk/pkg/ast"
	"github.com/kristofer/silk/pkg/token"
)

// --- Precedence climbing core ----------------------------------------

func (p *Parser) parseExpression() ast.Expression {
	return p.parsePrecedence(PrecAssignment)
}

func (p *Parser) parsePrecedence(min Precedence) ast.Expression {
	r := ruleFor(p.cur.Kind)
	if r.prefix == nil {
		p.errorf("unexpected token %s in expression", p.cur.Kind)
		loc := p.cur.Location
		p.advance()
		return &ast.ExpressionVoid{Base: at(loc)}
	}
	left := r.prefix(p)

	for {
		r2 := ruleFor(p.cur.Kind)
		if r2.infix == nil || r2.precedence < min {
			break
		}
		left = r2.infix(p, left)
	}
	return left
}

// --- Prefix rules ------------------------------------------------------

func parseIdentifier(p *Parser) ast.Expression {
	t := p.cur
	p.advance()
	return &ast.ExpressionIdentifier{Base: at(t.Location), Name: t.Lexeme}
}

func parseNatural(p *Parser) ast.Expression {
	t := p.cur
	p.advance()
	v, err := strconv.ParseUint(t.Lexeme, 10, 64)
	if err != nil {
		p.Diagnostics.Errorf(t.Location, "invalid natural literal %q", t.Lexeme)
	}
	return &ast.ExpressionNat{Base: at(t.Location), Value: v}
}

func parseInteger(p *Parser) ast.Expression {
	t := p.cur
	p.advance()
	v, err := strconv.ParseInt(t.Lexeme, 10, 64)
	if err != nil {
		p.Diagnostics.Errorf(t.Location, "invalid integer literal %q", t.Lexeme)
	}
	return &ast.ExpressionInt{Base: at(t.Location), Value: v}
}

func parseReal(p *Parser) ast.Expression {
	t := p.cur
	p.advance()
	v, err := strconv.ParseFloat(t.Lexeme, 64)
	if err != nil {
		p.Diagnostics.Errorf(t.Location, "invalid real literal %q", t.Lexeme)
	}
	return &ast.ExpressionReal{Base: at(t.Location), Value: v}
}

func parseChar(p *Parser) ast.Expression {
	t := p.cur
	p.advance()
	var r rune
	if len(t.Lexeme) > 1 {
		r, _ = utf8.DecodeRuneInString(t.Lexeme[1:])
	}
	return &ast.ExpressionChar{Base: at(t.Location), Value: r}
}

func parseString(p *Parser) ast.Expression {
	t := p.cur
	p.advance()
	raw := t.Lexeme
	body := raw
	if len(body) >= 2 {
		body = body[1 : len(body)-1]
	}
	return &ast.ExpressionString{Base: at(t.Location), Raw: raw, Parsed: unescape(body)}
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '\\':
			sb.WriteByte('\\')
		case '\'':
			sb.WriteByte('\'')
		case '0':
			sb.WriteByte(0)
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

func parseBool(p *Parser) ast.Expression {
	t := p.cur
	p.advance()
	return &ast.ExpressionBool{Base: at(t.Location), Value: t.Kind == token.KeywordTrue}
}

func parseVoidLit(p *Parser) ast.Expression {
	loc := p.cur.Location
	p.advance()
	return &ast.ExpressionVoid{Base: at(loc)}
}

func parseRealKeyword(p *Parser) ast.Expression {
	t := p.cur
	p.advance()
	var k ast.RealKeyword
	switch t.Kind {
	case token.KeywordPi:
		k = ast.RealPi
	case token.KeywordTau:
		k = ast.RealTau
	case token.KeywordEuler:
		k = ast.RealEuler
	}
	return &ast.ExpressionRealKeyword{Base: at(t.Location), Keyword: k}
}

func parseContinuation(p *Parser) ast.Expression {
	loc := p.cur.Location
	p.advance()
	return &ast.ExpressionContinuation{Base: at(loc)}
}

func parseUnary(p *Parser) ast.Expression {
	t := p.cur
	p.advance()
	child := p.parsePrecedence(PrecUnary)
	kind := ast.UnaryNeg
	if t.Kind == token.KeywordNot || t.Kind == token.Bang {
		kind = ast.UnaryNot
	}
	return &ast.ExpressionUnaryOp{Base: at(t.Location), Child: child, Kind: kind}
}

// parseGroupOrTuple handles `(`: an empty `()`, a single parenthesized
// expression (returned unwrapped — see ast.ExpressionTuple's doc), or
// a genuine comma-separated tuple.
func parseGroupOrTuple(p *Parser) ast.Expression {
	loc := p.cur.Location
	p.advance()
	if p.curIs(token.RightParen) {
		p.advance()
		return &ast.ExpressionTuple{Base: at(loc)}
	}
	first := p.parseExpression()
	if !p.curIs(token.Comma) {
		p.expect(token.RightParen)
		return first
	}
	children := []ast.Expression{first}
	for p.accept(token.Comma) {
		if p.curIs(token.RightParen) {
			break
		}
		children = append(children, p.parseExpression())
	}
	p.expect(token.RightParen)
	return &ast.ExpressionTuple{Base: at(loc), Children: children}
}

func parseArrayLiteral(p *Parser) ast.Expression {
	loc := p.cur.Location
	p.advance()
	var children []ast.Expression
	for !p.curIs(token.RightBracket) && !p.curIs(token.End) {
		children = append(children, p.parseExpression())
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RightBracket)
	return &ast.ExpressionArray{Base: at(loc), Children: children}
}

func parseVectorLiteral(p *Parser) ast.Expression {
	loc := p.cur.Location
	p.advance() // consume '<'
	var children []ast.Expression
	for !p.curIs(token.Greater) && !p.curIs(token.End) {
		// Elements bind tighter than comparison so the closing '>' is
		// not taken as a greater-than operator.
		children = append(children, p.parsePrecedence(PrecComparison+1))
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.Greater)
	return &ast.ExpressionVector{Base: at(loc), Children: children}
}

func parseDictLiteral(p *Parser) ast.Expression {
	loc := p.cur.Location
	p.advance()
	var pairs []ast.DictPair
	for !p.curIs(token.RightBrace) && !p.curIs(token.End) {
		key := p.parseExpression()
		p.expect(token.Colon)
		val := p.parseExpression()
		pairs = append(pairs, ast.DictPair{Key: key, Value: val})
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RightBrace)
	return &ast.ExpressionDictionary{Base: at(loc), Pairs: pairs}
}

func parseLambdaExpression(p *Parser) ast.Expression {
	loc := p.cur.Location
	p.advance() // consume 'fun'
	lambda := p.parseLambdaBody(loc)
	return &ast.ExpressionLambda{Base: at(loc), Lambda: lambda}
}

// --- Infix rules ---------------------------------------------------

func parseCall(p *Parser, left ast.Expression) ast.Expression {
	loc := p.cur.Location
	p.advance() // consume '('
	var args []ast.Expression
	for !p.curIs(token.RightParen) && !p.curIs(token.End) {
		args = append(args, p.parseExpression())
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RightParen)
	return &ast.ExpressionCall{Base: at(loc), Callee: left, Args: args}
}

// parseDotIndex implements `.` as the indexing infix (collection.index),
// left-associative so `a.0.1` reads as `(a.0).1`.
func parseDotIndex(p *Parser, left ast.Expression) ast.Expression {
	loc := p.cur.Location
	p.advance() // consume '.'
	idx := p.parsePrecedence(PrecCall + 1)
	return &ast.ExpressionIndex{Base: at(loc), Collection: left, Index: idx}
}

func parseBinary(p *Parser, left ast.Expression) ast.Expression {
	t := p.cur
	r := ruleFor(t.Kind)
	p.advance()
	right := p.parsePrecedence(r.precedence + 1) // left-associative
	return &ast.ExpressionBinaryOp{Base: at(t.Location), Left: left, Right: right, Kind: binaryKind(t.Kind)}
}

// parsePower implements `**`'s right associativity: 2 ** 3 ** 2 == 2
// ** (3 ** 2).
func parsePower(p *Parser, left ast.Expression) ast.Expression {
	loc := p.cur.Location
	p.advance()
	right := p.parsePrecedence(PrecPower)
	return &ast.ExpressionBinaryOp{Base: at(loc), Left: left, Right: right, Kind: ast.BinPow}
}

func parseRange(p *Parser, left ast.Expression) ast.Expression {
	loc := p.cur.Location
	p.advance()
	right := p.parsePrecedence(PrecRange + 1)
	return &ast.ExpressionRange{Base: at(loc), Left: left, Right: right}
}

// parseAssignment is right-associative: a = b = c parses as a = (b =
// c).
func parseAssignment(p *Parser, left ast.Expression) ast.Expression {
	t := p.cur
	p.advance()
	right := p.parsePrecedence(PrecAssignment)
	return &ast.ExpressionAssignment{Base: at(t.Location), Assignee: left, Child: right, Kind: assignKind(t.Kind)}
}

func binaryKind(t token.Kind) ast.BinaryKind {
	switch t {
	case token.Plus:
		return ast.BinAdd
	case token.Minus:
		return ast.BinSub
	case token.Star:
		return ast.BinMul
	case token.Slash:
		return ast.BinDiv
	case token.SlashSlash:
		return ast.BinIntDiv
	case token.Percent:
		return ast.BinMod
	case token.KeywordAnd:
		return ast.BinAnd
	case token.KeywordOr:
		return ast.BinOr
	case token.Equal, token.StrictEqual:
		return ast.BinEq
	case token.NotEqual:
		return ast.BinNeq
	case token.Less:
		return ast.BinLt
	case token.LessEqual:
		return ast.BinLte
	case token.Greater:
		return ast.BinGt
	case token.GreaterEqual:
		return ast.BinGte
	case token.Pipe:
		return ast.BinMerge
	default:
		return ast.BinAdd
	}
}

func assignKind(t token.Kind) ast.AssignKind {
	switch t {
	case token.PlusAssign:
		return ast.AssignAdd
	case token.MinusAssign:
		return ast.AssignSub
	case token.StarAssign:
		return ast.AssignMul
	case token.SlashAssign:
		return ast.AssignDiv
	case token.SlashSlashAssign:
		return ast.AssignIntDiv
	case token.StarStarAssign:
		return ast.AssignPow
	default:
		return ast.AssignPlain
	}
}
