package compiler

import (
	"github.com/kristofer/silk/pkg/ast"
	"github.com/kristofer/silk/pkg/opcode"
)

func (c *Compiler) compileStatement(s ast.Statement) {
	node := ast.Unwrap(s)
	switch st := node.(type) {
	case *ast.StatementEmpty:
	case *ast.StatementExpression:
		c.compileExpression(st.Child)
		c.emit(opcode.Pop)
	case *ast.StatementBlock:
		c.beginScope()
		for _, child := range st.Children {
			c.compileStatement(child)
		}
		c.endScope()
	case *ast.StatementVariable:
		c.compileBinding(st.Name, st.Init, st.Kind == ast.Let)
	case *ast.StatementConstant:
		c.compileBinding(st.Name, st.Init, true)
	case *ast.StatementReturn:
		if st.Value != nil {
			c.compileExpression(st.Value)
			c.emit(opcode.Retv)
		} else {
			c.emit(opcode.Ret)
		}
	case *ast.StatementIterationControl:
		c.compileIterationControl(st)
	case *ast.StatementIf:
		c.compileIf(st)
	case *ast.StatementWhile:
		c.compileWhile(st)
	case *ast.StatementLoop:
		c.compileLoopStatement(st)
	case *ast.StatementFor:
		c.compileFor(st)
	case *ast.StatementForeach, *ast.StatementSwitch, *ast.StatementMatch, *ast.StatementCircuit:
		c.errorf(node.Location(), "%T is reserved and not yet lowered by the compiler", node)
	default:
		if stmt, ok := node.(ast.Statement); ok {
			c.errorf(stmt.Location(), "cannot compile statement %T", node)
		}
	}
}

func (c *Compiler) compileBinding(name string, init ast.Expression, immutable bool) {
	if init != nil {
		c.compileExpression(init)
	} else {
		c.emit(opcode.Vid)
	}
	if c.scopeDepth == 0 {
		id := c.Program.InternSymbol(name)
		c.emitIndexedFamily(opcode.Def, id)
		return
	}
	c.declareLocal(name, immutable)
}

func (c *Compiler) compileIterationControl(st *ast.StatementIterationControl) {
	if len(c.loops) == 0 {
		c.errorf(st.Location(), "break/continue used outside of a loop")
		return
	}
	top := &c.loops[len(c.loops)-1]
	switch st.Kind {
	case ast.Break:
		pos := c.emitJumpPlaceholder(opcode.Jmp)
		top.breakPatches = append(top.breakPatches, pos)
	case ast.Continue:
		c.emitJumpBack(opcode.Jbw, top.continueTarget)
	}
}

func (c *Compiler) compileIf(st *ast.StatementIf) {
	c.compileExpression(st.Cond)
	elseJump := c.emitJumpPlaceholder(opcode.Jpf)
	c.emit(opcode.Pop)
	c.compileStatement(st.Conseq)
	endJump := c.emitJumpPlaceholder(opcode.Jmp)
	c.patchJump(elseJump)
	c.emit(opcode.Pop)
	if st.Altern != nil {
		c.compileStatement(st.Altern)
	}
	c.patchJump(endJump)
}

func (c *Compiler) compileWhile(st *ast.StatementWhile) {
	loopStart := c.out.Len()
	c.loops = append(c.loops, loopCtx{continueTarget: loopStart})

	c.compileExpression(st.Cond)
	exit := c.emitJumpPlaceholder(opcode.Jpf)
	c.emit(opcode.Pop)
	c.compileStatement(st.Body)
	c.emitJumpBack(opcode.Jbw, loopStart)
	c.patchJump(exit)
	c.emit(opcode.Pop)

	c.closeLoop()
}

func (c *Compiler) compileLoopStatement(st *ast.StatementLoop) {
	loopStart := c.out.Len()
	c.loops = append(c.loops, loopCtx{continueTarget: loopStart})

	c.compileStatement(st.Body)
	c.emitJumpBack(opcode.Jbw, loopStart)

	c.closeLoop()
}

func (c *Compiler) compileFor(st *ast.StatementFor) {
	c.beginScope()
	if st.Init != nil {
		c.compileStatement(st.Init)
	}

	condStart := c.out.Len()
	hasCond := st.Cond != nil
	var exit int
	if hasCond {
		c.compileExpression(st.Cond)
		exit = c.emitJumpPlaceholder(opcode.Jpf)
		c.emit(opcode.Pop)
	}

	incrStart := condStart
	if st.Incr != nil {
		skipIncr := c.emitJumpPlaceholder(opcode.Jmp)
		incrStart = c.out.Len()
		c.compileExpression(st.Incr)
		c.emit(opcode.Pop)
		c.emitJumpBack(opcode.Jbw, condStart)
		c.patchJump(skipIncr)
	}

	c.loops = append(c.loops, loopCtx{continueTarget: incrStart})
	c.compileStatement(st.Body)
	c.emitJumpBack(opcode.Jbw, incrStart)
	c.closeLoop()

	if hasCond {
		c.patchJump(exit)
		c.emit(opcode.Pop)
	}
	c.endScope()
}

// closeLoop patches every break this loop recorded and pops the loop
// context, used once a loop's body and back-edge are both emitted.
func (c *Compiler) closeLoop() {
	top := c.loops[len(c.loops)-1]
	for _, bp := range top.breakPatches {
		c.patchJump(bp)
	}
	c.loops = c.loops[:len(c.loops)-1]
}
