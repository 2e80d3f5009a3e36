package parser

import (
	"github.com/kristofer/silk/pkg/ast"
	"github.com/kristofer/silk/pkg/token"
)

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur.Kind {
	case token.Semicolon:
		loc := p.cur.Location
		p.advance()
		return &ast.StatementEmpty{Base: at(loc)}
	case token.LeftBrace:
		return p.parseBlock()
	case token.KeywordLet, token.KeywordDef:
		return p.parseVariable()
	case token.KeywordConst:
		return p.parseConst()
	case token.KeywordReturn:
		return p.parseReturn()
	case token.KeywordBreak:
		loc := p.cur.Location
		p.advance()
		p.expect(token.Semicolon)
		return &ast.StatementIterationControl{Base: at(loc), Kind: ast.Break}
	case token.KeywordContinue:
		loc := p.cur.Location
		p.advance()
		p.expect(token.Semicolon)
		return &ast.StatementIterationControl{Base: at(loc), Kind: ast.Continue}
	case token.KeywordIf:
		return p.parseIf()
	case token.KeywordWhile:
		return p.parseWhile()
	case token.KeywordLoop:
		return p.parseLoop()
	case token.KeywordFor:
		return p.parseFor()
	case token.KeywordForeach:
		return p.parseForeach()
	case token.KeywordSwitch:
		return p.parseSwitch()
	case token.KeywordMatch:
		return p.parseMatch()
	default:
		loc := p.cur.Location
		expr := p.parseExpression()
		p.accept(token.Semicolon)
		return &ast.StatementExpression{Base: at(loc), Child: expr}
	}
}

func (p *Parser) parseBlockStatements() []ast.Statement {
	p.expect(token.LeftBrace)
	var stmts []ast.Statement
	for !p.curIs(token.RightBrace) && !p.curIs(token.End) {
		stmts = append(stmts, p.parseStatement())
	}
	p.expect(token.RightBrace)
	return stmts
}

func (p *Parser) parseBlock() ast.Statement {
	loc := p.cur.Location
	return &ast.StatementBlock{Base: at(loc), Children: p.parseBlockStatements()}
}

func (p *Parser) parseVariable() ast.Statement {
	loc := p.cur.Location
	kind := ast.Let
	if p.cur.Kind == token.KeywordDef {
		kind = ast.Def
	}
	p.advance()
	name := p.expect(token.Identifier).Lexeme
	if p.accept(token.DoubleColon) {
		p.parseTypeAnnotation()
	}
	var init ast.Expression
	if p.accept(token.Assign) {
		init = p.parseExpression()
	}
	p.expect(token.Semicolon)
	return &ast.StatementVariable{Base: at(loc), Name: name, Init: init, Kind: kind}
}

func (p *Parser) parseConst() ast.Statement {
	loc := p.cur.Location
	p.advance()
	name := p.expect(token.Identifier).Lexeme
	if p.accept(token.DoubleColon) {
		p.parseTypeAnnotation()
	}
	p.expect(token.Assign)
	init := p.parseExpression()
	p.expect(token.Semicolon)
	return &ast.StatementConstant{Base: at(loc), Name: name, Init: init}
}

func (p *Parser) parseReturn() ast.Statement {
	loc := p.cur.Location
	p.advance()
	var val ast.Expression
	if !p.curIs(token.Semicolon) {
		val = p.parseExpression()
	}
	p.expect(token.Semicolon)
	return &ast.StatementReturn{Base: at(loc), Value: val}
}

func (p *Parser) parseIf() ast.Statement {
	loc := p.cur.Location
	p.advance()
	p.expect(token.LeftParen)
	cond := p.parseExpression()
	p.expect(token.RightParen)
	conseq := p.parseStatement()
	var altern ast.Statement
	if p.accept(token.KeywordElse) {
		altern = p.parseStatement()
	}
	return &ast.StatementIf{Base: at(loc), Cond: cond, Conseq: conseq, Altern: altern}
}

func (p *Parser) parseWhile() ast.Statement {
	loc := p.cur.Location
	p.advance()
	p.expect(token.LeftParen)
	cond := p.parseExpression()
	p.expect(token.RightParen)
	body := p.parseStatement()
	return &ast.StatementWhile{Base: at(loc), Cond: cond, Body: body}
}

func (p *Parser) parseLoop() ast.Statement {
	loc := p.cur.Location
	p.advance()
	return &ast.StatementLoop{Base: at(loc), Body: p.parseStatement()}
}

func (p *Parser) parseFor() ast.Statement {
	loc := p.cur.Location
	p.advance()
	p.expect(token.LeftParen)

	var init ast.Statement
	if p.curIs(token.Semicolon) {
		p.advance()
	} else if p.curIs(token.KeywordLet) || p.curIs(token.KeywordDef) {
		init = p.parseVariable()
	} else {
		iloc := p.cur.Location
		expr := p.parseExpression()
		p.expect(token.Semicolon)
		init = &ast.StatementExpression{Base: at(iloc), Child: expr}
	}

	var cond ast.Expression
	if !p.curIs(token.Semicolon) {
		cond = p.parseExpression()
	}
	p.expect(token.Semicolon)

	var incr ast.Expression
	if !p.curIs(token.RightParen) {
		incr = p.parseExpression()
	}
	p.expect(token.RightParen)

	body := p.parseStatement()
	return &ast.StatementFor{Base: at(loc), Init: init, Cond: cond, Incr: incr, Body: body}
}

func (p *Parser) parseForeach() ast.Statement {
	loc := p.cur.Location
	p.advance()
	p.expect(token.LeftParen)
	iterKind := ast.ForeachValue
	name := p.expect(token.Identifier).Lexeme
	if p.accept(token.Colon) {
		iterKind = ast.ForeachKeyValue
		name = name + ":" + p.expect(token.Identifier).Lexeme
	}
	p.expect(token.KeywordIn)
	coll := p.parseExpression()
	p.expect(token.RightParen)
	body := p.parseStatement()
	return &ast.StatementForeach{Base: at(loc), IterKind: iterKind, Iter: name, Collection: coll, Body: body}
}

func (p *Parser) parseSwitch() ast.Statement {
	loc := p.cur.Location
	p.advance()
	label := p.expect(token.Identifier).Lexeme
	p.expect(token.Semicolon)
	return &ast.StatementSwitch{Base: at(loc), Label: label}
}

// parseMatch parses the reserved `match (subject) { ... }` form.
// Match arms are not represented in ast.StatementMatch (the compiler
// does not lower this construct), so the body is consumed for its
// brace nesting and discarded.
func (p *Parser) parseMatch() ast.Statement {
	loc := p.cur.Location
	p.advance()
	p.expect(token.LeftParen)
	subject := p.parseExpression()
	p.expect(token.RightParen)
	if p.curIs(token.LeftBrace) {
		p.skipBalancedBraces()
	}
	return &ast.StatementMatch{Base: at(loc), Subject: subject}
}

func (p *Parser) skipBalancedBraces() {
	depth := 0
	for {
		switch {
		case p.curIs(token.LeftBrace):
			depth++
			p.advance()
		case p.curIs(token.RightBrace):
			depth--
			p.advance()
			if depth == 0 {
				return
			}
		case p.curIs(token.End):
			return
		default:
			p.advance()
		}
	}
}

// --- Declarations ----------------------------------------------------

func (p *Parser) parseUse() ast.Node {
	loc := p.cur.Location
	p.advance()
	name := p.expect(token.String).Lexeme
	var imports []string
	if p.accept(token.DoubleColon) {
		p.expect(token.LeftBrace)
		for !p.curIs(token.RightBrace) && !p.curIs(token.End) {
			imports = append(imports, p.expect(token.Identifier).Lexeme)
			if !p.accept(token.Comma) {
				break
			}
		}
		p.expect(token.RightBrace)
	}
	p.expect(token.Semicolon)
	return &ast.ModuleImport{Base: at(loc), Name: name, Imports: imports}
}

func (p *Parser) parseParams() []ast.Param {
	p.expect(token.LeftParen)
	var params []ast.Param
	for !p.curIs(token.RightParen) && !p.curIs(token.End) {
		name := p.expect(token.Identifier).Lexeme
		typ := ""
		if p.accept(token.DoubleColon) {
			typ = p.parseTypeAnnotation()
		}
		params = append(params, ast.Param{Name: name, TypeAnnotation: typ})
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RightParen)
	return params
}

func (p *Parser) parseTypeAnnotation() string {
	return p.expect(token.Identifier).Lexeme
}

func (p *Parser) parseLambdaBody(loc token.Position) *ast.Lambda {
	params := p.parseParams()
	retType := ""
	if p.accept(token.DoubleColon) {
		retType = p.parseTypeAnnotation()
	}
	var body []ast.Statement
	if p.accept(token.FatArrow) {
		exprLoc := p.cur.Location
		expr := p.parseExpression()
		body = []ast.Statement{&ast.StatementReturn{Base: at(exprLoc), Value: expr}}
		p.accept(token.Semicolon)
	} else {
		body = p.parseBlockStatements()
	}
	return &ast.Lambda{Base: at(loc), Params: params, ReturnType: retType, Body: body}
}

func (p *Parser) parseFunctionDecl() ast.Declaration {
	loc := p.cur.Location
	p.advance()
	name := p.expect(token.Identifier).Lexeme
	lambda := p.parseLambdaBody(loc)
	p.accept(token.Semicolon)
	return &ast.DeclarationFunction{Base: at(loc), Name: name, Lambda: lambda}
}

func (p *Parser) parseEnumDecl() ast.Declaration {
	loc := p.cur.Location
	p.advance()
	name := p.expect(token.Identifier).Lexeme
	p.expect(token.LeftBrace)
	var variants []ast.EnumVariant
	for !p.curIs(token.RightBrace) && !p.curIs(token.End) {
		vname := p.expect(token.Identifier).Lexeme
		var fields []string
		if p.accept(token.LeftParen) {
			for !p.curIs(token.RightParen) && !p.curIs(token.End) {
				fields = append(fields, p.expect(token.Identifier).Lexeme)
				if !p.accept(token.Comma) {
					break
				}
			}
			p.expect(token.RightParen)
		}
		variants = append(variants, ast.EnumVariant{Name: vname, Fields: fields})
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RightBrace)
	return &ast.DeclarationEnum{Base: at(loc), Name: name, Variants: variants}
}

func (p *Parser) parseObjectDecl() ast.Declaration {
	loc := p.cur.Location
	p.advance()
	name := p.expect(token.Identifier).Lexeme
	p.expect(token.LeftBrace)
	var fields []ast.ObjectField
	for !p.curIs(token.RightBrace) && !p.curIs(token.End) {
		fname := p.expect(token.Identifier).Lexeme
		p.expect(token.DoubleColon)
		ftyp := p.parseTypeAnnotation()
		fields = append(fields, ast.ObjectField{Name: fname, TypeAnnotation: ftyp})
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RightBrace)
	return &ast.DeclarationObject{Base: at(loc), Name: name, Fields: fields}
}

func (p *Parser) parseExternLibrary() ast.Declaration {
	loc := p.cur.Location
	p.advance()
	name := p.expect(token.String).Lexeme
	p.expect(token.LeftBrace)
	var children []ast.Declaration
	for !p.curIs(token.RightBrace) && !p.curIs(token.End) {
		children = append(children, p.parseExternFunction())
	}
	p.expect(token.RightBrace)
	return &ast.DeclarationExternLibrary{Base: at(loc), Name: name, Children: children}
}

func (p *Parser) parseExternFunction() ast.Declaration {
	loc := p.cur.Location
	p.expect(token.KeywordFun)
	name := p.expect(token.Identifier).Lexeme
	params := p.parseParams()
	ret := ""
	if p.accept(token.DoubleColon) {
		ret = p.parseTypeAnnotation()
	}
	p.expect(token.Semicolon)
	return &ast.DeclarationExternFunction{Base: at(loc), Name: name, Params: params, RetType: ret}
}

func (p *Parser) parseMacroDecl() ast.Declaration {
	loc := p.cur.Location
	p.advance()
	name := p.expect(token.Identifier).Lexeme
	lambda := p.parseLambdaBody(loc)
	return &ast.DeclarationMacro{Base: at(loc), Name: name, Lambda: lambda}
}
