// Package parser implements a Pratt (precedence-climbing) parser that
// turns a token stream into a Silk ast.Module. Expressions go through
// a rule table — {prefix, infix, precedence} keyed by token.Kind — and
// the parsePrecedence(minimum) loop, with prefix rules for the
// vector/dictionary literals and the continuation/PI/TAU/EULER keyword
// constants and infix rules for range (..), merge (|), and the
// compound-assignment operators. Declarations and statements go
// through a keyword dispatcher, the part whose shape follows the
// teacher's (kristofer-smog's pkg/parser/parser.go) statement switch.
package parser

import (
	"github.com/kristofer/silk/pkg/ast"
	"github.com/kristofer/silk/pkg/diag"
	"github.com/kristofer/silk/pkg/lexer"
	"github.com/kristofer/silk/pkg/token"
)

// Precedence orders binding strength from loosest to tightest, with
// POWER between FACTOR and UNARY for Silk's right-associative `**`.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecMerge
	PrecEquality
	PrecComparison
	PrecRange
	PrecTerm
	PrecFactor
	PrecPower
	PrecUnary
	PrecCall
)

type (
	prefixFn func(p *Parser) ast.Expression
	infixFn  func(p *Parser, left ast.Expression) ast.Expression
)

type rule struct {
	prefix     prefixFn
	infix      infixFn
	precedence Precedence
}

var rules map[token.Kind]rule

func init() {
	rules = map[token.Kind]rule{
		token.Identifier:   {prefix: parseIdentifier},
		token.Natural:      {prefix: parseNatural},
		token.Integer:      {prefix: parseInteger},
		token.Real:         {prefix: parseReal},
		token.Character:    {prefix: parseChar},
		token.String:       {prefix: parseString},
		token.KeywordTrue:  {prefix: parseBool},
		token.KeywordFalse: {prefix: parseBool},
		token.KeywordVoid:  {prefix: parseVoidLit},
		token.KeywordPi:    {prefix: parseRealKeyword},
		token.KeywordTau:   {prefix: parseRealKeyword},
		token.KeywordEuler: {prefix: parseRealKeyword},
		token.KeywordContinuation: {prefix: parseContinuation},
		token.KeywordNot:   {prefix: parseUnary},
		token.Minus:        {prefix: parseUnary, infix: parseBinary, precedence: PrecTerm},
		token.Bang:         {prefix: parseUnary},
		token.LeftParen:    {prefix: parseGroupOrTuple, infix: parseCall, precedence: PrecCall},
		token.LeftBracket:  {prefix: parseArrayLiteral},
		token.HashBrace:    {prefix: parseDictLiteral},
		token.KeywordFun:   {prefix: parseLambdaExpression},

		token.Plus:       {infix: parseBinary, precedence: PrecTerm},
		token.Star:       {infix: parseBinary, precedence: PrecFactor},
		token.Slash:      {infix: parseBinary, precedence: PrecFactor},
		token.SlashSlash: {infix: parseBinary, precedence: PrecFactor},
		token.Percent:    {infix: parseBinary, precedence: PrecFactor},
		token.StarStar:   {infix: parsePower, precedence: PrecPower},

		token.KeywordAnd: {infix: parseBinary, precedence: PrecAnd},
		token.KeywordOr:  {infix: parseBinary, precedence: PrecOr},
		token.Pipe:       {infix: parseBinary, precedence: PrecMerge},

		token.Equal:        {infix: parseBinary, precedence: PrecEquality},
		token.StrictEqual:  {infix: parseBinary, precedence: PrecEquality},
		token.NotEqual:     {infix: parseBinary, precedence: PrecEquality},
		// Less doubles as the vector literal's opening delimiter
		// (<e, e, ...>) in prefix position and the `<` comparison in
		// infix position, same token playing both roles the way '-'
		// already does for negation vs. subtraction above.
		token.Less:         {prefix: parseVectorLiteral, infix: parseBinary, precedence: PrecComparison},
		token.LessEqual:    {infix: parseBinary, precedence: PrecComparison},
		token.Greater:      {infix: parseBinary, precedence: PrecComparison},
		token.GreaterEqual: {infix: parseBinary, precedence: PrecComparison},

		token.Dot:    {infix: parseDotIndex, precedence: PrecCall},
		token.DotDot: {infix: parseRange, precedence: PrecRange},

		token.Assign:           {infix: parseAssignment, precedence: PrecAssignment},
		token.PlusAssign:       {infix: parseAssignment, precedence: PrecAssignment},
		token.MinusAssign:      {infix: parseAssignment, precedence: PrecAssignment},
		token.StarAssign:       {infix: parseAssignment, precedence: PrecAssignment},
		token.SlashAssign:      {infix: parseAssignment, precedence: PrecAssignment},
		token.SlashSlashAssign: {infix: parseAssignment, precedence: PrecAssignment},
		token.StarStarAssign:   {infix: parseAssignment, precedence: PrecAssignment},
	}
}

func ruleFor(k token.Kind) rule { return rules[k] }

// Parser consumes a lexer's token stream one lookahead token at a
// time. Errors are accumulated into Diagnostics rather than aborting
// immediately. After an error the failing rule returns what it has
// built and parsing continues from the token where it stopped; no
// tokens are skipped, so a statement missing its ';' does not swallow
// the statement after it.
type Parser struct {
	lex         *lexer.Lexer
	cur, peek   token.Token
	Diagnostics diag.Bag
}

// New creates a Parser reading from l, primed with its first two
// tokens.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{lex: l}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.Scan()
}

func (p *Parser) curIs(k token.Kind) bool  { return p.cur.Kind == k }
func (p *Parser) peekIs(k token.Kind) bool { return p.peek.Kind == k }

func (p *Parser) expect(k token.Kind) token.Token {
	if !p.curIs(k) {
		p.errorf("expected %s, found %s", k, p.cur.Kind)
		return p.cur
	}
	t := p.cur
	p.advance()
	return t
}

func (p *Parser) accept(k token.Kind) bool {
	if p.curIs(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) errorf(format string, args ...any) {
	p.Diagnostics.Errorf(p.cur.Location, format, args...)
}

// resync skips tokens until the next statement boundary, so a single
// malformed statement doesn't cascade into spurious follow-on errors.
func (p *Parser) resync() {
	for !p.curIs(token.End) {
		if p.cur.Kind == token.Semicolon {
			p.advance()
			return
		}
		if p.cur.Kind == token.RightBrace {
			return
		}
		p.advance()
	}
}

// ParseModule parses an entire source file into an ast.Module. Parse
// errors are collected, not fatal: ParseModule keeps going after an
// error so a caller can report every malformed construct in one pass
// instead of just the first. The only token it skips on its own is one
// that no top-level rule consumed.
func (p *Parser) ParseModule(path string) *ast.Module {
	m := &ast.Module{Path: path}
	for !p.curIs(token.End) {
		before := p.cur
		node := p.parseTopLevel()
		if node != nil {
			m.Tree = append(m.Tree, node)
		}
		if p.cur == before {
			// parseTopLevel made no progress (e.g. on a token with no
			// rule at all) — force one token forward so the loop
			// terminates.
			p.advance()
		}
	}
	return m
}

func (p *Parser) parseTopLevel() ast.Node {
	switch p.cur.Kind {
	case token.KeywordMain:
		loc := p.cur.Location
		p.advance()
		p.expect(token.Semicolon)
		return &ast.ModuleMain{Base: ast.Base{Loc: loc}}
	case token.KeywordPkg:
		loc := p.cur.Location
		p.advance()
		name := p.expect(token.String).Lexeme
		p.expect(token.Semicolon)
		return &ast.ModuleDeclaration{Base: ast.Base{Loc: loc}, Path: name}
	case token.KeywordUse:
		return p.parseUse()
	case token.KeywordFun:
		return p.parseFunctionDecl()
	case token.KeywordEnum:
		return p.parseEnumDecl()
	case token.KeywordObj:
		return p.parseObjectDecl()
	case token.KeywordDll:
		return p.parseExternLibrary()
	case token.KeywordMacro:
		return p.parseMacroDecl()
	default:
		return p.parseStatement()
	}
}

func at(loc token.Position) ast.Base { return ast.Base{Loc: loc} }
