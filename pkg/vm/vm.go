// Package vm implements Moth, the stack-based bytecode virtual
// machine that executes a compiled Silk Program (spec.md §4.4).
//
// The execution loop itself — fetch the opcode at ip, switch on it,
// advance ip, repeat until halted — is the teacher's own shape
// (kristofer-smog's pkg/vm/vm.go `for vm.ip = 0; ...; vm.ip++`
// dispatch loop), generalized from an []Instruction slice of
// interface{}-typed operands to a raw byte cursor over a
// variable-width encoding, and from a single flat bytecode buffer to
// one buffer per call frame (program.Bytes for "main", a
// value.FunctionObject's own Bytes once a call descends into it).
package vm

import (
	"fmt"

	"github.com/kristofer/silk/pkg/gc"
	"github.com/kristofer/silk/pkg/opcode"
	"github.com/kristofer/silk/pkg/program"
	"github.com/kristofer/silk/pkg/value"
)

// Status is the VM's halt/fault code (spec.md §4.4 "error/status
// codes"). Any value other than Running means the main loop has
// stopped dispatching.
type Status byte

const (
	Running Status = iota
	OK
	Fin
	InvType // a binary op saw mismatched or unsupported operand types
	InvA    // an invalid operand: bad index, division by zero on INT, etc.
	NotFct  // CAL's callee was not a function or closure
)

func (s Status) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case OK:
		return "OK"
	case Fin:
		return "FIN"
	case InvType:
		return "INVTYP"
	case InvA:
		return "INVA"
	case NotFct:
		return "NOTFCT"
	default:
		return "UNKNOWN"
	}
}

// Frame records everything needed to resume the caller once a call
// returns: which byte buffer and instruction pointer to restore, and
// where the callee's stack slots began.
type Frame struct {
	ReturnCode []byte
	ReturnIP   int
	Base       int
	Argc       int
}

// DefaultStackSize mirrors the teacher's hardcoded 1024-slot stack;
// DefaultGCThreshold is the live-object count past which an implicit
// collection runs. Both are named, overridable constants rather than
// magic numbers sprinkled through New.
const (
	DefaultStackSize  = 1024
	DefaultGCThreshold = 4096
)

// VM is Moth's interpreter state (spec.md §3.6). A VM is constructed
// empty; Run mutates it until a FIN opcode halts it or a fault sets a
// non-OK, non-FIN status.
type VM struct {
	Program *program.Program
	code    []byte // the buffer currently executing: Program.Bytes or a Function's Bytes
	ip      int

	stack []value.Value
	sp    int

	frames []Frame

	globals map[uint32]value.Value
	gc      *gc.Collector

	maxCallDepth int

	status Status
}

// DefaultMaxCallDepth mirrors the teacher's implicit limit (the host
// Go call stack) as an explicit, checkable number: Moth frames are
// heap-allocated Go slice elements rather than Go stack frames, so
// nothing stops unbounded recursion short of this check.
const DefaultMaxCallDepth = 256

// New creates an empty VM with default sizing.
func New() *VM {
	return NewWithOptions(DefaultStackSize, DefaultGCThreshold, DefaultMaxCallDepth)
}

// NewWithOptions creates a VM with caller-supplied sizing, the knobs
// internal/config.Config exposes to a driver.
func NewWithOptions(stackSize, gcThreshold, maxCallDepth int) *VM {
	return &VM{
		stack:        make([]value.Value, stackSize),
		globals:      make(map[uint32]value.Value),
		gc:           gc.New(gcThreshold),
		maxCallDepth: maxCallDepth,
	}
}

// Reset clears per-run state (stack, frames, status) but preserves
// globals and the GC's heap registry, matching spec.md §9's lifecycle
// requirement that a VM instance not leak state between unrelated
// runs while still allowing reuse within one program's lifetime.
func (vm *VM) Reset() {
	vm.sp = 0
	vm.frames = vm.frames[:0]
	vm.status = Running
	vm.ip = 0
	vm.code = nil
}

// Status reports the VM's halt/fault code after Run returns.
func (vm *VM) Status() Status { return vm.status }

// StackTop returns the value left on top of the stack once Run halts,
// or VOID if the stack is empty.
func (vm *VM) StackTop() value.Value {
	if vm.sp == 0 {
		return value.VoidValue()
	}
	return vm.stack[vm.sp-1]
}

func (vm *VM) push(v value.Value) error {
	if vm.sp >= len(vm.stack) {
		return fmt.Errorf("stack overflow")
	}
	vm.stack[vm.sp] = v
	vm.sp++
	return nil
}

func (vm *VM) pop() (value.Value, error) {
	if vm.sp == 0 {
		return value.Value{}, fmt.Errorf("stack underflow")
	}
	vm.sp--
	return vm.stack[vm.sp], nil
}

func (vm *VM) peek() value.Value {
	if vm.sp == 0 {
		return value.VoidValue()
	}
	return vm.stack[vm.sp-1]
}

// register hands a freshly allocated heap object to the collector and
// returns it, so every allocation site stays a one-liner.
func (vm *VM) register(o *value.Object) *value.Object {
	vm.gc.Register(o)
	return o
}

// base returns the first stack slot belonging to the current call
// frame (0 for the top-level program).
func (vm *VM) base() int {
	if len(vm.frames) == 0 {
		return 0
	}
	return vm.frames[len(vm.frames)-1].Base
}

// Run executes p's top-level "main" routine from IP 0 until FIN or a
// fault.
func (vm *VM) Run(p *program.Program) error {
	vm.Program = p
	vm.Reset()
	vm.code = p.Bytes
	vm.status = Running

	for vm.status == Running {
		if vm.ip >= len(vm.code) {
			vm.status = Fin
			break
		}
		vm.step()
	}
	if vm.status != Fin && vm.status != OK {
		return fmt.Errorf("vm halted with status %s at ip=%d", vm.status, vm.ip)
	}
	return nil
}

func (vm *VM) fault(s Status) {
	vm.status = s
}

// readOperand reads a big-endian unsigned operand of the given byte
// width starting at vm.ip, advancing vm.ip past it.
func (vm *VM) readOperand(width int) int {
	v := 0
	for i := 0; i < width; i++ {
		v = v<<8 | int(vm.code[vm.ip])
		vm.ip++
	}
	return v
}

func (vm *VM) readOp() opcode.Op {
	op := opcode.Op(vm.code[vm.ip])
	vm.ip++
	return op
}

// step executes exactly one instruction.
func (vm *VM) step() {
	op := vm.readOp()

	if vm.gc.ShouldCollect() {
		vm.runGC()
	}

	switch {
	case op == opcode.Fin:
		vm.status = Fin
	case op == opcode.Nop:
	case op == opcode.Pop:
		if _, err := vm.pop(); err != nil {
			vm.fault(InvA)
		}
	case op == opcode.Vid:
		vm.pushOrFault(value.VoidValue())
	case op == opcode.Tru:
		vm.pushOrFault(value.BoolValue(true))
	case op == opcode.Fal:
		vm.pushOrFault(value.BoolValue(false))
	case op == opcode.Pi:
		vm.pushOrFault(value.RealValue(3.14159265358979323846))
	case op == opcode.Tau:
		vm.pushOrFault(value.RealValue(6.28318530717958647692))
	case op == opcode.Eul:
		vm.pushOrFault(value.RealValue(2.71828182845904523536))
	case op == opcode.GC:
		vm.runGC()

	case op >= opcode.Psh && op <= opcode.Psh4:
		slot := vm.readOperand(opcode.Width(op))
		vm.pushOrFault(vm.stack[vm.base()+slot])
	case op >= opcode.Str && op <= opcode.Str4:
		slot := vm.readOperand(opcode.Width(op))
		v, err := vm.pop()
		if err != nil {
			vm.fault(InvA)
			return
		}
		vm.stack[vm.base()+slot] = v

	case op >= opcode.Val && op <= opcode.Val4:
		idx := vm.readOperand(opcode.Width(op))
		if idx < 0 || idx >= len(vm.Program.Rodata) {
			vm.fault(InvA)
			return
		}
		vm.pushOrFault(vm.Program.Rodata[idx])

	case op >= opcode.Def && op <= opcode.Def4:
		id := vm.readOperand(opcode.Width(op))
		v, err := vm.pop()
		if err != nil {
			vm.fault(InvA)
			return
		}
		vm.globals[uint32(id)] = v
	case op >= opcode.Sym && op <= opcode.Sym4:
		id := vm.readOperand(opcode.Width(op))
		v, ok := vm.globals[uint32(id)]
		if !ok {
			vm.fault(InvA)
			return
		}
		vm.pushOrFault(v)
	case op >= opcode.Asn && op <= opcode.Asn4:
		id := vm.readOperand(opcode.Width(op))
		v, err := vm.pop()
		if err != nil {
			vm.fault(InvA)
			return
		}
		if _, ok := vm.globals[uint32(id)]; !ok {
			vm.fault(InvA)
			return
		}
		vm.globals[uint32(id)] = v

	case op == opcode.Jmp:
		off := vm.readOperand(2)
		vm.ip += off
	case op == opcode.Jbw:
		off := vm.readOperand(2)
		vm.ip -= off
	case op == opcode.Jpt:
		off := vm.readOperand(2)
		if vm.peek().Truthy() {
			vm.ip += off
		}
	case op == opcode.Jpf:
		off := vm.readOperand(2)
		if !vm.peek().Truthy() {
			vm.ip += off
		}

	case op >= opcode.Frm && op <= opcode.Frm4:
		vm.execFrm(op)
	case op == opcode.Clo:
		vm.execClo()
	case op == opcode.Cal:
		argc := vm.readOperand(1)
		vm.execCal(argc)
	case op == opcode.Ret:
		vm.execReturn(value.VoidValue())
	case op == opcode.Retv:
		v, err := vm.pop()
		if err != nil {
			vm.fault(InvA)
			return
		}
		vm.execReturn(v)

	case op == opcode.Neg:
		vm.execNeg()
	case op == opcode.Add, op == opcode.Sub, op == opcode.Mul, op == opcode.Div,
		op == opcode.Riv, op == opcode.Pow, op == opcode.Mod:
		vm.execArith(op)
	case op == opcode.Not:
		v, err := vm.pop()
		if err != nil {
			vm.fault(InvA)
			return
		}
		vm.pushOrFault(value.BoolValue(!v.Truthy()))
	case op == opcode.Eq, op == opcode.Neq, op == opcode.Gt, op == opcode.Gte,
		op == opcode.Lt, op == opcode.Lte:
		vm.execCompare(op)

	case op == opcode.Arr:
		n := vm.readOperand(1)
		vm.execArr(n)
	case op == opcode.Vec:
		n := vm.readOperand(1)
		vm.execVec(n)
	case op == opcode.Dct:
		n := vm.readOperand(1)
		vm.execDct(n)
	case op == opcode.Idx:
		vm.execIdx()
	case op == opcode.Ida:
		vm.execIda()
	case op == opcode.Mrg:
		vm.execMrg()

	default:
		vm.fault(InvA)
	}
}

func (vm *VM) pushOrFault(v value.Value) {
	if err := vm.push(v); err != nil {
		vm.fault(InvA)
	}
}

func (vm *VM) runGC() {
	frames := make([][]value.Value, 0, len(vm.frames)+1)
	for i, f := range vm.frames {
		end := vm.sp
		if i+1 < len(vm.frames) {
			end = vm.frames[i+1].Base
		}
		frames = append(frames, vm.stack[f.Base:end])
	}
	vm.gc.Collect(gc.Roots{
		Stack:   vm.stack[:vm.sp],
		Globals: vm.globals,
		Frames:  frames,
	})
}
