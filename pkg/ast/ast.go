// Package ast defines the Silk syntax tree: a closed set of 40+ node
// variants realized as a Go interface plus one concrete struct per
// variant, exactly as spec.md's "tagged union over named variants"
// design (see SPEC_FULL.md §9 design note on closed sum types).
// Children are owned exclusively by their parent; there are no
// back-pointers and no cycles.
package ast

import "github.com/kristofer/silk/pkg/token"

// Node is implemented by every tree variant. Location lets every pass
// (pretty-printer, compiler, JSON dump) report the exact source point
// for errors.
type Node interface {
	Location() token.Position
	node()
}

// Expression is a Node that evaluates to a Value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is a Node executed for effect.
type Statement interface {
	Node
	statementNode()
}

// Declaration is a Node that introduces a module-level binding.
type Declaration interface {
	Node
	declarationNode()
}

// Base carries the location every node has; embedded by every concrete
// variant so Location() doesn't need to be reimplemented 40+ times.
type Base struct {
	Loc token.Position
}

func (b Base) Location() token.Position { return b.Loc }
func (Base) node()                      {}

// ---- Module level -------------------------------------------------

// Module is the root of one parsed source file.
type Module struct {
	Path string
	Tree []Node // top-level declarations and statements, in source order
}

// ModuleMain marks the file as the program's entry module (`main;`).
type ModuleMain struct{ Base }

func (ModuleMain) statementNode() {}

// ModuleDeclaration is `pkg "name";`.
type ModuleDeclaration struct {
	Base
	Path string
}

func (ModuleDeclaration) statementNode() {}

// ModuleImport is `use "pkg";` with an optional selective import list.
type ModuleImport struct {
	Base
	Name    string
	Imports []string
}

func (ModuleImport) statementNode() {}

// ---- Declarations ---------------------------------------------------

// Param is one function parameter; TypeAnnotation is parsed and
// discarded per spec.md (the language is not statically type checked).
type Param struct {
	Name           string
	TypeAnnotation string
}

// Lambda is the `(params) :: ret? => expr` or `{ ... }` function body
// shared by DeclarationFunction and ExpressionLambda.
type Lambda struct {
	Base
	Params     []Param
	ReturnType string
	Body       []Statement
}

func (Lambda) expressionNode() {}

// DeclarationFunction is `fun name(params) => body;`.
type DeclarationFunction struct {
	Base
	Name   string
	Lambda *Lambda
}

func (DeclarationFunction) declarationNode() {}

// EnumVariant is one member of an enum declaration.
type EnumVariant struct {
	Name   string
	Fields []string
}

// DeclarationEnum is `enum Name { Variant, Variant(fields) }`. Parsed;
// not lowered by the compiler (see spec.md §1 scope, §9 design notes).
type DeclarationEnum struct {
	Base
	Name     string
	Variants []EnumVariant
}

func (DeclarationEnum) declarationNode() {}

// ObjectField is one field of an `obj` declaration.
type ObjectField struct {
	Name           string
	TypeAnnotation string
}

// DeclarationObject is `obj Name { field :: type, ... }`. Parsed; not
// lowered by the compiler.
type DeclarationObject struct {
	Base
	Name   string
	Fields []ObjectField
}

func (DeclarationObject) declarationNode() {}

// DeclarationExternLibrary is `dll "name" { extern-function decls };`.
type DeclarationExternLibrary struct {
	Base
	Name     string
	Children []Declaration
}

func (DeclarationExternLibrary) declarationNode() {}

// DeclarationExternFunction declares one FFI-bound function signature.
type DeclarationExternFunction struct {
	Base
	Name     string
	Params   []Param
	RetType  string
}

func (DeclarationExternFunction) declarationNode() {}

// DeclarationMacro is `macro name(params) { body }`. Parsed; not
// lowered by the compiler.
type DeclarationMacro struct {
	Base
	Name   string
	Lambda *Lambda
}

func (DeclarationMacro) declarationNode() {}

// ---- Statements -----------------------------------------------------

// StatementEmpty is a bare `;`.
type StatementEmpty struct{ Base }

func (StatementEmpty) statementNode() {}

// StatementExpression wraps an expression used for its side effect;
// the compiler always pops its value.
type StatementExpression struct {
	Base
	Child Expression
}

func (StatementExpression) statementNode() {}

// StatementBlock is a `{ ... }` sequence introducing a new lexical
// scope.
type StatementBlock struct {
	Base
	Children []Statement
}

func (StatementBlock) statementNode() {}

// CircuitLabel is one `case` arm of a `circuit` statement (a
// multi-way branch the compiler does not yet lower).
type CircuitLabel struct {
	Cond Expression
	Body Statement
}

// StatementCircuit is the reserved `circuit { ... }` construct.
// Parsed; not lowered.
type StatementCircuit struct {
	Base
	DefaultSwitch Statement
	Labels        []CircuitLabel
}

func (StatementCircuit) statementNode() {}

// VariableKind distinguishes `let` (immutable) from `def` (mutable).
type VariableKind int

const (
	Let VariableKind = iota
	Def
)

// StatementVariable is `let name = init;` or `def name = init;`.
type StatementVariable struct {
	Base
	Name string
	Init Expression
	Kind VariableKind
}

func (StatementVariable) statementNode() {}

// StatementConstant is `const name = init;`: a compile-time constant.
type StatementConstant struct {
	Base
	Name string
	Init Expression
}

func (StatementConstant) statementNode() {}

// StatementReturn is `return expr?;`; Continuation is set when
// returning through a captured continuation object (reserved).
type StatementReturn struct {
	Base
	Continuation Expression
	Value        Expression
}

func (StatementReturn) statementNode() {}

// StatementSwitch is one `switch label;` arm jump target (reserved,
// used with StatementCircuit).
type StatementSwitch struct {
	Base
	Label string
}

func (StatementSwitch) statementNode() {}

// IterationControlKind distinguishes `break` from `continue`.
type IterationControlKind int

const (
	Break IterationControlKind = iota
	Continue
)

// StatementIterationControl is `break;` or `continue;`.
type StatementIterationControl struct {
	Base
	Kind IterationControlKind
}

func (StatementIterationControl) statementNode() {}

// StatementIf is `if (cond) conseq else altern?`.
type StatementIf struct {
	Base
	Cond    Expression
	Conseq  Statement
	Altern  Statement
}

func (StatementIf) statementNode() {}

// StatementWhile is `while (cond) body`.
type StatementWhile struct {
	Base
	Cond Expression
	Body Statement
}

func (StatementWhile) statementNode() {}

// StatementLoop is `loop body`: an unconditional loop, exited only via
// break or return.
type StatementLoop struct {
	Base
	Body Statement
}

func (StatementLoop) statementNode() {}

// StatementFor is a C-style `for (init; cond; incr) body`.
type StatementFor struct {
	Base
	Init Statement
	Cond Expression
	Incr Expression
	Body Statement
}

func (StatementFor) statementNode() {}

// ForeachKind distinguishes value iteration from key:value iteration.
type ForeachKind int

const (
	ForeachValue ForeachKind = iota
	ForeachKeyValue
)

// StatementForeach is `foreach (x in collection) body` (reserved; the
// compiler does not yet lower it — see spec.md §1, §9).
type StatementForeach struct {
	Base
	IterKind   ForeachKind
	Iter       string
	Collection Expression
	Body       Statement
}

func (StatementForeach) statementNode() {}

// StatementMatch is the reserved `match` construct. Parsed; not
// lowered.
type StatementMatch struct {
	Base
	Subject Expression
}

func (StatementMatch) statementNode() {}

// ---- Expressions ----------------------------------------------------

// ExpressionIdentifier is a bare variable reference.
type ExpressionIdentifier struct {
	Base
	Name string
}

func (ExpressionIdentifier) expressionNode() {}

// ExpressionVoid is the literal `void`.
type ExpressionVoid struct{ Base }

func (ExpressionVoid) expressionNode() {}

// ExpressionContinuation is the reserved `continuation` literal.
type ExpressionContinuation struct{ Base }

func (ExpressionContinuation) expressionNode() {}

// ExpressionBool is a `true`/`false` literal.
type ExpressionBool struct {
	Base
	Value bool
}

func (ExpressionBool) expressionNode() {}

// ExpressionNat is an unsigned integer literal.
type ExpressionNat struct {
	Base
	Value uint64
}

func (ExpressionNat) expressionNode() {}

// ExpressionInt is a signed integer literal.
type ExpressionInt struct {
	Base
	Value int64
}

func (ExpressionInt) expressionNode() {}

// ExpressionReal is a floating point literal.
type ExpressionReal struct {
	Base
	Value float64
}

func (ExpressionReal) expressionNode() {}

// RealKeyword names one of the built-in real-valued constants.
type RealKeyword int

const (
	RealPi RealKeyword = iota
	RealTau
	RealEuler
)

// ExpressionRealKeyword is one of PI, TAU, EULER.
type ExpressionRealKeyword struct {
	Base
	Keyword RealKeyword
}

func (ExpressionRealKeyword) expressionNode() {}

// ExpressionChar is a character literal.
type ExpressionChar struct {
	Base
	Value rune
}

func (ExpressionChar) expressionNode() {}

// ExpressionString carries both the raw source lexeme (quotes
// included) and the parsed value (escapes resolved, quotes stripped).
type ExpressionString struct {
	Base
	Raw    string
	Parsed string
}

func (ExpressionString) expressionNode() {}

// ExpressionTuple is `(e, e, ...)`. A single parenthesized expression
// with no comma is NOT a tuple — see the parser's parseGroupOrTuple.
type ExpressionTuple struct {
	Base
	Children []Expression
}

func (ExpressionTuple) expressionNode() {}

// UnaryKind distinguishes logical negation from arithmetic negation.
type UnaryKind int

const (
	UnaryNot UnaryKind = iota
	UnaryNeg
)

// ExpressionUnaryOp is `not x` or `-x`.
type ExpressionUnaryOp struct {
	Base
	Child Expression
	Kind  UnaryKind
}

func (ExpressionUnaryOp) expressionNode() {}

// BinaryKind enumerates every binary operator Silk recognizes.
type BinaryKind int

const (
	BinAdd BinaryKind = iota
	BinSub
	BinMul
	BinDiv
	BinIntDiv // //
	BinMod
	BinPow // **
	BinAnd
	BinOr
	BinEq
	BinNeq
	BinLt
	BinLte
	BinGt
	BinGte
	BinMerge // |
)

// ExpressionBinaryOp is `left op right`.
type ExpressionBinaryOp struct {
	Base
	Left  Expression
	Right Expression
	Kind  BinaryKind
}

func (ExpressionBinaryOp) expressionNode() {}

// ExpressionRange is `left .. right`.
type ExpressionRange struct {
	Base
	Left  Expression
	Right Expression
}

func (ExpressionRange) expressionNode() {}

// ExpressionVector is `<e, e, ...>`: a fixed-cardinality (<=255)
// array of reals.
type ExpressionVector struct {
	Base
	Children []Expression
}

func (ExpressionVector) expressionNode() {}

// ExpressionArray is `[e, e, ...]`.
type ExpressionArray struct {
	Base
	Children []Expression
}

func (ExpressionArray) expressionNode() {}

// DictPair is one `key: value` entry of a dictionary literal.
type DictPair struct {
	Key   Expression
	Value Expression
}

// ExpressionDictionary is `#{ key: value, ... }`.
type ExpressionDictionary struct {
	Base
	Pairs []DictPair
}

func (ExpressionDictionary) expressionNode() {}

// AssignKind enumerates the compound-assignment operators.
type AssignKind int

const (
	AssignPlain AssignKind = iota
	AssignAdd
	AssignSub
	AssignDiv
	AssignIntDiv
	AssignMul
	AssignPow
)

// ExpressionAssignment is `assignee op= child`.
type ExpressionAssignment struct {
	Base
	Assignee Expression
	Child    Expression
	Kind     AssignKind
}

func (ExpressionAssignment) expressionNode() {}

// ExpressionCall is `callee(args...)`.
type ExpressionCall struct {
	Base
	Callee Expression
	Args   []Expression
}

func (ExpressionCall) expressionNode() {}

// ExpressionIndex is `collection.index`, shared by both array/vector
// element access and dictionary lookup.
type ExpressionIndex struct {
	Base
	Collection Expression
	Index      Expression
}

func (ExpressionIndex) expressionNode() {}

// ExpressionLambda wraps a Lambda as a first-class expression value
// (`fun (params) => body`).
type ExpressionLambda struct {
	Base
	Lambda *Lambda
}

func (ExpressionLambda) expressionNode() {}

// ---- Comments --------------------------------------------------------

// Placement says whether a Comment sits before or after the node it
// annotates.
type Placement int

const (
	Before Placement = iota
	After
)

// Comment wraps an adjacent node; every pass traverses through it
// transparently (see spec.md §3.2).
type Comment struct {
	Base
	Text      string
	Placement Placement
	Wrapped   Node
}

func (Comment) expressionNode()   {}
func (Comment) statementNode()    {}
func (Comment) declarationNode()  {}

// Unwrap strips any number of wrapping Comments and returns the
// underlying node, used by every pass that pattern-matches on variant.
func Unwrap(n Node) Node {
	for {
		c, ok := n.(*Comment)
		if !ok {
			return n
		}
		n = c.Wrapped
	}
}
