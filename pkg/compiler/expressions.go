package compiler

import (
	"math"

	"github.com/kristofer/silk/pkg/ast"
	"github.com/kristofer/silk/pkg/opcode"
	"github.com/kristofer/silk/pkg/value"
)

func (c *Compiler) compileExpression(e ast.Expression) {
	node := ast.Unwrap(e)
	switch ex := node.(type) {
	case *ast.ExpressionVoid:
		c.emit(opcode.Vid)
	case *ast.ExpressionContinuation:
		c.errorf(ex.Location(), "continuation expressions are not supported")
		c.emit(opcode.Vid)
	case *ast.ExpressionBool:
		if ex.Value {
			c.emit(opcode.Tru)
		} else {
			c.emit(opcode.Fal)
		}
	case *ast.ExpressionNat:
		c.emitConst(value.IntValue(int64(ex.Value)))
	case *ast.ExpressionInt:
		c.emitConst(value.IntValue(ex.Value))
	case *ast.ExpressionReal:
		c.emitConst(value.RealValue(ex.Value))
	case *ast.ExpressionRealKeyword:
		switch ex.Keyword {
		case ast.RealPi:
			c.emit(opcode.Pi)
		case ast.RealTau:
			c.emit(opcode.Tau)
		case ast.RealEuler:
			c.emit(opcode.Eul)
		}
	case *ast.ExpressionChar:
		c.emitConst(value.CharValue(ex.Value))
	case *ast.ExpressionString:
		c.emitConst(value.StrValue(value.NewString(ex.Parsed)))
	case *ast.ExpressionIdentifier:
		c.compileIdentifierLoad(ex.Name, ex)
	case *ast.ExpressionTuple:
		// No dedicated tuple representation in the runtime: a tuple
		// carries the same "fixed sequence of values" shape an array
		// does, so it compiles the same way.
		for _, child := range ex.Children {
			c.compileExpression(child)
		}
		if len(ex.Children) > 255 {
			c.errorf(ex.Location(), "tuple literal has more than 255 elements")
		}
		c.emit(opcode.Arr)
		c.out.WriteByte(byte(len(ex.Children)))
	case *ast.ExpressionUnaryOp:
		c.compileExpression(ex.Child)
		if ex.Kind == ast.UnaryNot {
			c.emit(opcode.Not)
		} else {
			c.emit(opcode.Neg)
		}
	case *ast.ExpressionBinaryOp:
		c.compileBinaryOp(ex)
	case *ast.ExpressionRange:
		c.errorf(ex.Location(), "range expressions are only meaningful inside foreach, which is not yet lowered")
		c.emit(opcode.Vid)
	case *ast.ExpressionVector:
		if len(ex.Children) > value.MaxVectorCardinality {
			c.errorf(ex.Location(), "vector literal exceeds the %d-element cardinality cap", value.MaxVectorCardinality)
		}
		for _, child := range ex.Children {
			c.compileExpression(child)
		}
		c.emit(opcode.Vec)
		c.out.WriteByte(byte(len(ex.Children)))
	case *ast.ExpressionArray:
		if len(ex.Children) > 255 {
			c.errorf(ex.Location(), "array literal has more than 255 elements")
		}
		for _, child := range ex.Children {
			c.compileExpression(child)
		}
		c.emit(opcode.Arr)
		c.out.WriteByte(byte(len(ex.Children)))
	case *ast.ExpressionDictionary:
		if len(ex.Pairs) > 255 {
			c.errorf(ex.Location(), "dictionary literal has more than 255 pairs")
		}
		for _, pair := range ex.Pairs {
			c.compileExpression(pair.Key)
			c.compileExpression(pair.Value)
		}
		c.emit(opcode.Dct)
		c.out.WriteByte(byte(len(ex.Pairs)))
	case *ast.ExpressionIndex:
		c.compileExpression(ex.Collection)
		c.compileExpression(ex.Index)
		c.emit(opcode.Idx)
	case *ast.ExpressionAssignment:
		c.compileAssignment(ex)
	case *ast.ExpressionCall:
		c.compileExpression(ex.Callee)
		for _, arg := range ex.Args {
			c.compileExpression(arg)
		}
		if len(ex.Args) > 255 {
			c.errorf(ex.Location(), "call has more than 255 arguments")
		}
		c.emit(opcode.Cal)
		c.out.WriteByte(byte(len(ex.Args)))
	case *ast.ExpressionLambda:
		fn := c.compileLambda(ex.Lambda, "<lambda>")
		idx := c.Program.AddRodata(value.ObjValue(fn))
		c.emitFrm(idx, len(ex.Lambda.Params))
		c.emit(opcode.Clo)
	default:
		c.errorf(e.Location(), "cannot compile expression %T", node)
		c.emit(opcode.Vid)
	}
}

// emitConst pushes the literal v, reusing the rodata slot of an equal
// literal already in the pool so repeated literals share one entry.
func (c *Compiler) emitConst(v value.Value) {
	idx := -1
	for i, r := range c.Program.Rodata {
		same := r.Kind == v.Kind && r.Kind != value.Obj && value.Equal(r, v)
		if same && v.Kind == value.Real {
			same = math.Float64bits(r.F) == math.Float64bits(v.F)
		}
		if same {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = c.Program.AddRodata(v)
	}
	c.emitIndexedFamily(opcode.Val, idx)
}

// compileBinaryOp special-cases AND/OR for short-circuit evaluation:
// neither operator has a dedicated opcode, both lower to a
// conditional jump that leaves the short-circuiting operand's value
// on the stack as the whole expression's result.
func (c *Compiler) compileBinaryOp(ex *ast.ExpressionBinaryOp) {
	switch ex.Kind {
	case ast.BinAnd:
		c.compileExpression(ex.Left)
		shortCircuit := c.emitJumpPlaceholder(opcode.Jpf)
		c.emit(opcode.Pop)
		c.compileExpression(ex.Right)
		c.patchJump(shortCircuit)
		return
	case ast.BinOr:
		c.compileExpression(ex.Left)
		shortCircuit := c.emitJumpPlaceholder(opcode.Jpt)
		c.emit(opcode.Pop)
		c.compileExpression(ex.Right)
		c.patchJump(shortCircuit)
		return
	}

	c.compileExpression(ex.Left)
	c.compileExpression(ex.Right)
	switch ex.Kind {
	case ast.BinAdd:
		c.emit(opcode.Add)
	case ast.BinSub:
		c.emit(opcode.Sub)
	case ast.BinMul:
		c.emit(opcode.Mul)
	case ast.BinDiv:
		c.emit(opcode.Div)
	case ast.BinIntDiv:
		c.emit(opcode.Riv)
	case ast.BinMod:
		c.emit(opcode.Mod)
	case ast.BinPow:
		c.emit(opcode.Pow)
	case ast.BinEq:
		c.emit(opcode.Eq)
	case ast.BinNeq:
		c.emit(opcode.Neq)
	case ast.BinLt:
		c.emit(opcode.Lt)
	case ast.BinLte:
		c.emit(opcode.Lte)
	case ast.BinGt:
		c.emit(opcode.Gt)
	case ast.BinGte:
		c.emit(opcode.Gte)
	case ast.BinMerge:
		c.emit(opcode.Mrg)
	default:
		c.errorf(ex.Location(), "unknown binary operator %v", ex.Kind)
	}
}

func (c *Compiler) compileIdentifierLoad(name string, node ast.Node) {
	if slot, ok, _ := c.resolveLocal(name); ok {
		c.emitIndexedFamily(opcode.Psh, slot)
		return
	}
	id := c.Program.InternSymbol(name)
	c.emitIndexedFamily(opcode.Sym, id)
}

// compileIdentifierStoreAndReload pops the value on top of the stack
// into name's binding, then pushes it back — STR and ASN both consume
// their operand with no result, so reloading is what makes assignment
// behave as an expression that yields the value assigned.
func (c *Compiler) compileIdentifierStoreAndReload(name string, node ast.Node) {
	if slot, ok, immutable := c.resolveLocal(name); ok {
		if immutable {
			c.errorf(node.Location(), "cannot assign to immutable binding %q", name)
		}
		c.emitIndexedFamily(opcode.Str, slot)
		c.emitIndexedFamily(opcode.Psh, slot)
		return
	}
	id := c.Program.InternSymbol(name)
	c.emitIndexedFamily(opcode.Asn, id)
	c.emitIndexedFamily(opcode.Sym, id)
}

func (c *Compiler) compileAssignment(e *ast.ExpressionAssignment) {
	switch target := ast.Unwrap(e.Assignee).(type) {
	case *ast.ExpressionIdentifier:
		if e.Kind != ast.AssignPlain {
			c.compileIdentifierLoad(target.Name, target)
			c.compileExpression(e.Child)
			c.emit(compoundOp(e.Kind))
		} else {
			c.compileExpression(e.Child)
		}
		c.compileIdentifierStoreAndReload(target.Name, target)
	case *ast.ExpressionIndex:
		if e.Kind != ast.AssignPlain {
			c.errorf(e.Location(), "compound assignment to an indexed target is not supported")
		}
		c.compileExpression(target.Collection)
		c.compileExpression(target.Index)
		c.compileExpression(e.Child)
		c.emit(opcode.Ida)
	default:
		c.errorf(e.Location(), "invalid assignment target")
	}
}

func compoundOp(k ast.AssignKind) opcode.Op {
	switch k {
	case ast.AssignAdd:
		return opcode.Add
	case ast.AssignSub:
		return opcode.Sub
	case ast.AssignMul:
		return opcode.Mul
	case ast.AssignDiv:
		return opcode.Div
	case ast.AssignIntDiv:
		return opcode.Riv
	case ast.AssignPow:
		return opcode.Pow
	default:
		return opcode.Add
	}
}
