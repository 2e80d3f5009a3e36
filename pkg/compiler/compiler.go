// Package compiler lowers a parsed Silk ast.Module into a Moth
// program.Program: a flat instruction buffer plus a constant pool and
// global symbol table (spec.md §4's "compile, don't interpret the
// tree" design).
//
// The emitter's shape — walk the tree once, grow a byte buffer, patch
// forward jumps after the fact — is the teacher's own
// (kristofer-smog's pkg/compiler/compiler.go), generalized from Smog's
// fixed-width, interface{}-operand instruction format to Moth's
// variable-width byte encoding, and from Smog's single flat local
// table to one local table per compiled function (parameters and
// nested-block locals alike addressed as stack slots relative to the
// active call frame's base).
package compiler

import (
	"bytes"
	"fmt"

	"github.com/kristofer/silk/pkg/ast"
	"github.com/kristofer/silk/pkg/diag"
	"github.com/kristofer/silk/pkg/opcode"
	"github.com/kristofer/silk/pkg/program"
	"github.com/kristofer/silk/pkg/token"
	"github.com/kristofer/silk/pkg/value"
)

// local is one compile-time binding living at a known stack slot
// relative to the enclosing function's frame base.
type local struct {
	name      string
	depth     int
	slot      int
	immutable bool
}

// loopCtx tracks the bookkeeping a break/continue inside a loop body
// needs: where continue should jump back to, and the still-unpatched
// forward jumps every break has emitted so far.
type loopCtx struct {
	continueTarget int
	breakPatches   []int
}

// Compiler walks one ast.Module and produces a program.Program.
// FoldConstants is carried for the pipeline's benefit only: the
// compiler performs no constant folding, so the emitted code is the
// same whether it is set or not.
type Compiler struct {
	Program       *program.Program
	Diagnostics   diag.Bag
	FoldConstants bool

	out        *bytes.Buffer
	locals     []local
	scopeDepth int
	nextSlot   int
	loops      []loopCtx
}

// New creates a Compiler targeting a fresh Program.
func New() *Compiler {
	return &Compiler{Program: program.New()}
}

// Compile lowers mod into c.Program, returning it even on error so a
// caller can inspect diagnostics alongside a best-effort result.
func (c *Compiler) Compile(mod *ast.Module) (*program.Program, error) {
	c.out = &bytes.Buffer{}
	for _, n := range mod.Tree {
		c.compileTopLevel(n)
	}
	c.emit(opcode.Fin)
	c.Program.Bytes = c.out.Bytes()

	if c.Diagnostics.HasErrors() {
		return c.Program, fmt.Errorf("compile failed:\n%s", c.Diagnostics.Error())
	}
	return c.Program, nil
}

func (c *Compiler) errorf(loc token.Position, format string, args ...any) {
	c.Diagnostics.Errorf(loc, format, args...)
}

func (c *Compiler) compileTopLevel(n ast.Node) {
	n = ast.Unwrap(n)
	switch t := n.(type) {
	case *ast.ModuleMain, *ast.ModuleDeclaration, *ast.ModuleImport:
		// No runtime representation: module metadata only.
	case *ast.DeclarationFunction:
		c.compileFunctionDecl(t)
	case *ast.DeclarationEnum, *ast.DeclarationObject, *ast.DeclarationMacro:
		c.errorf(n.Location(), "%T is reserved and not lowered by the compiler", n)
	case *ast.DeclarationExternLibrary:
		// FFI declarations are parsed but produce no code.
	case ast.Statement:
		c.compileStatement(t)
	default:
		c.errorf(n.Location(), "cannot compile top-level node %T", n)
	}
}

func (c *Compiler) compileFunctionDecl(d *ast.DeclarationFunction) {
	fn := c.compileLambda(d.Lambda, d.Name)
	idx := c.Program.AddRodata(value.ObjValue(fn))
	c.emitFrm(idx, len(d.Lambda.Params))
	c.emit(opcode.Clo)
	id := c.Program.InternSymbol(d.Name)
	c.emitIndexedFamily(opcode.Def, id)
}

// compileLambda compiles a Lambda's body into its own fresh
// instruction buffer, swapping the Compiler's emitter state around
// the nested compilation and restoring it afterward so the enclosing
// function's locals and loop stack are untouched.
func (c *Compiler) compileLambda(lambda *ast.Lambda, name string) *value.Object {
	savedOut, savedLocals, savedDepth, savedSlot, savedLoops :=
		c.out, c.locals, c.scopeDepth, c.nextSlot, c.loops

	c.out = &bytes.Buffer{}
	c.locals = nil
	c.scopeDepth = 1
	c.nextSlot = 0
	c.loops = nil

	for _, param := range lambda.Params {
		c.declareLocal(param.Name, false)
	}
	for _, stmt := range lambda.Body {
		c.compileStatement(stmt)
	}
	c.emit(opcode.Vid)
	c.emit(opcode.Ret)

	bytecode := c.out.Bytes()
	fn := value.NewFunction(name, bytecode, len(lambda.Params))

	c.out, c.locals, c.scopeDepth, c.nextSlot, c.loops =
		savedOut, savedLocals, savedDepth, savedSlot, savedLoops
	return fn
}

func (c *Compiler) emit(op opcode.Op) { c.out.WriteByte(byte(op)) }

// emitIndexedFamily picks the narrowest opcode in base's width family
// that can hold idx and writes it followed by idx as a big-endian
// operand of that width.
func (c *Compiler) emitIndexedFamily(base opcode.Op, idx int) {
	op := opcode.FamilyForWidth(base, idx)
	c.emit(op)
	width := opcode.Width(op)
	for i := width - 1; i >= 0; i-- {
		c.out.WriteByte(byte(idx >> uint(8*i)))
	}
}

// emitFrm writes an FRM-family opcode for a rodata Function at idx
// plus its one-byte argc sanity operand.
func (c *Compiler) emitFrm(idx, argc int) {
	op := opcode.FamilyForWidth(opcode.Frm, idx)
	c.emit(op)
	width := opcode.Width(op)
	for i := width - 1; i >= 0; i-- {
		c.out.WriteByte(byte(idx >> uint(8*i)))
	}
	c.out.WriteByte(byte(argc))
}

// emitJumpPlaceholder emits op followed by a two-byte zero placeholder
// and returns the placeholder's offset for a later patchJump call.
func (c *Compiler) emitJumpPlaceholder(op opcode.Op) int {
	c.emit(op)
	pos := c.out.Len()
	c.out.Write([]byte{0, 0})
	return pos
}

// patchJump backfills the two-byte operand at pos with the forward
// distance from just past that operand to the current end of the
// buffer.
func (c *Compiler) patchJump(pos int) {
	offset := c.out.Len() - (pos + 2)
	b := c.out.Bytes()
	b[pos] = byte(offset >> 8)
	b[pos+1] = byte(offset)
}

// emitJumpBack emits a backward jump (JBW) whose target is target,
// computing the operand relative to the position just past this
// instruction's own operand — the same convention patchJump uses for
// forward jumps.
func (c *Compiler) emitJumpBack(op opcode.Op, target int) {
	pos := c.out.Len()
	c.emit(op)
	offset := (pos + 1 + 2) - target
	c.out.WriteByte(byte(offset >> 8))
	c.out.WriteByte(byte(offset))
}

func (c *Compiler) beginScope() { c.scopeDepth++ }

// endScope pops every local declared at the scope being closed,
// restoring c.nextSlot so sibling scopes reuse the same stack slots.
func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emit(opcode.Pop)
		c.locals = c.locals[:len(c.locals)-1]
		c.nextSlot--
	}
}

func (c *Compiler) declareLocal(name string, immutable bool) {
	c.locals = append(c.locals, local{name: name, depth: c.scopeDepth, slot: c.nextSlot, immutable: immutable})
	c.nextSlot++
}

func (c *Compiler) resolveLocal(name string) (slot int, found, immutable bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return c.locals[i].slot, true, c.locals[i].immutable
		}
	}
	return 0, false, false
}
