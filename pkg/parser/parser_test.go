package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/silk/pkg/ast"
	"github.com/kristofer/silk/pkg/lexer"
)

func parse(t *testing.T, src string) *ast.Module {
	t.Helper()
	p := New(lexer.New(src))
	mod := p.ParseModule("<test>")
	require.False(t, p.Diagnostics.HasErrors(), "unexpected parse errors: %s", p.Diagnostics.Error())
	return mod
}

func TestParseIntegerLiteralStatement(t *testing.T) {
	mod := parse(t, "42;")
	require.Len(t, mod.Tree, 1)
	stmt, ok := mod.Tree[0].(*ast.StatementExpression)
	require.True(t, ok)
	lit, ok := stmt.Child.(*ast.ExpressionNat)
	require.True(t, ok)
	assert.Equal(t, uint64(42), lit.Value)
}

func TestBinaryPrecedence(t *testing.T) {
	// 1 + 2 * 3 should parse as 1 + (2 * 3), not (1 + 2) * 3.
	mod := parse(t, "1 + 2 * 3;")
	stmt := mod.Tree[0].(*ast.StatementExpression)
	bin := stmt.Child.(*ast.ExpressionBinaryOp)
	assert.Equal(t, ast.BinAdd, bin.Kind)
	rhs := bin.Right.(*ast.ExpressionBinaryOp)
	assert.Equal(t, ast.BinMul, rhs.Kind)
}

func TestPowerIsRightAssociative(t *testing.T) {
	// 2 ** 3 ** 2 should parse as 2 ** (3 ** 2).
	mod := parse(t, "2 ** 3 ** 2;")
	stmt := mod.Tree[0].(*ast.StatementExpression)
	top := stmt.Child.(*ast.ExpressionBinaryOp)
	assert.Equal(t, ast.BinPow, top.Kind)
	_, ok := top.Right.(*ast.ExpressionBinaryOp)
	require.True(t, ok, "right operand should itself be a ** expression")
}

func TestAssignmentIsRightAssociative(t *testing.T) {
	// a = b = c should parse as a = (b = c).
	mod := parse(t, "a = b = c;")
	stmt := mod.Tree[0].(*ast.StatementExpression)
	top := stmt.Child.(*ast.ExpressionAssignment)
	_, ok := top.Child.(*ast.ExpressionAssignment)
	require.True(t, ok)
}

func TestIndexExpression(t *testing.T) {
	mod := parse(t, "a.0;")
	stmt := mod.Tree[0].(*ast.StatementExpression)
	idx := stmt.Child.(*ast.ExpressionIndex)
	ident := idx.Collection.(*ast.ExpressionIdentifier)
	assert.Equal(t, "a", ident.Name)
}

func TestChainedIndexIsLeftAssociative(t *testing.T) {
	// a.0.1 should parse as (a.0).1, not a.(0.1).
	mod := parse(t, "a.0.1;")
	stmt := mod.Tree[0].(*ast.StatementExpression)
	outer := stmt.Child.(*ast.ExpressionIndex)
	inner, ok := outer.Collection.(*ast.ExpressionIndex)
	require.True(t, ok, "left operand should itself be an index expression")
	ident := inner.Collection.(*ast.ExpressionIdentifier)
	assert.Equal(t, "a", ident.Name)
}

func TestVectorLiteral(t *testing.T) {
	mod := parse(t, "<1, 2, 3>;")
	stmt := mod.Tree[0].(*ast.StatementExpression)
	vec := stmt.Child.(*ast.ExpressionVector)
	assert.Len(t, vec.Children, 3)
}

func TestLessThanStillParsesAsComparison(t *testing.T) {
	// `<` must keep working as a binary comparison once it also serves
	// as the vector literal's prefix delimiter.
	mod := parse(t, "1 < 2;")
	stmt := mod.Tree[0].(*ast.StatementExpression)
	bin := stmt.Child.(*ast.ExpressionBinaryOp)
	assert.Equal(t, ast.BinLt, bin.Kind)
}

func TestCallExpression(t *testing.T) {
	mod := parse(t, "f(1, 2);")
	stmt := mod.Tree[0].(*ast.StatementExpression)
	call := stmt.Child.(*ast.ExpressionCall)
	assert.Len(t, call.Args, 2)
}

func TestArrayLiteral(t *testing.T) {
	mod := parse(t, "[1, 2, 3];")
	stmt := mod.Tree[0].(*ast.StatementExpression)
	arr := stmt.Child.(*ast.ExpressionArray)
	assert.Len(t, arr.Children, 3)
}

func TestDictLiteral(t *testing.T) {
	mod := parse(t, `#{ 'a': 1, 'b': 2 };`)
	stmt := mod.Tree[0].(*ast.StatementExpression)
	dict := stmt.Child.(*ast.ExpressionDictionary)
	assert.Len(t, dict.Pairs, 2)
}

func TestSingleParenIsNotATuple(t *testing.T) {
	mod := parse(t, "(1);")
	stmt := mod.Tree[0].(*ast.StatementExpression)
	_, isTuple := stmt.Child.(*ast.ExpressionTuple)
	assert.False(t, isTuple)
	_, isNat := stmt.Child.(*ast.ExpressionNat)
	assert.True(t, isNat)
}

func TestCommaParenIsATuple(t *testing.T) {
	mod := parse(t, "(1, 2);")
	stmt := mod.Tree[0].(*ast.StatementExpression)
	tup := stmt.Child.(*ast.ExpressionTuple)
	assert.Len(t, tup.Children, 2)
}

func TestFunctionDeclArrowBody(t *testing.T) {
	mod := parse(t, "fun add(a, b) => a + b;")
	decl := mod.Tree[0].(*ast.DeclarationFunction)
	assert.Equal(t, "add", decl.Name)
	assert.Len(t, decl.Lambda.Params, 2)
	require.Len(t, decl.Lambda.Body, 1)
}

func TestIfElseStatement(t *testing.T) {
	mod := parse(t, `if (true) { 1; } else { 2; }`)
	ifStmt := mod.Tree[0].(*ast.StatementIf)
	require.NotNil(t, ifStmt.Altern)
}

func TestForLoopStructure(t *testing.T) {
	mod := parse(t, "for (let i = 0; i < 10; i = i + 1) { i; }")
	forStmt := mod.Tree[0].(*ast.StatementFor)
	require.NotNil(t, forStmt.Init)
	require.NotNil(t, forStmt.Cond)
	require.NotNil(t, forStmt.Incr)
}

func TestResyncAfterMalformedStatement(t *testing.T) {
	p := New(lexer.New("let ; 1;"))
	mod := p.ParseModule("<test>")
	require.True(t, p.Diagnostics.HasErrors())
	// The parser should still have recovered and parsed the trailing
	// statement rather than aborting the whole file.
	assert.NotEmpty(t, mod.Tree)
}
