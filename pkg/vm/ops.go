package vm

import (
	"math"

	"github.com/kristofer/silk/pkg/opcode"
	"github.com/kristofer/silk/pkg/value"
)

// resolveCallable unwraps a Function or Closure value down to the
// instruction buffer CAL should jump into and the arity the compiler
// recorded for it.
func resolveCallable(v value.Value) (fnBytes []byte, paramCount int, ok bool) {
	if v.Kind != value.Obj || v.Ptr == nil {
		return nil, 0, false
	}
	switch v.Ptr.Kind {
	case value.OFunction:
		return v.Ptr.Fn.Bytes, v.Ptr.Fn.ParamCount, true
	case value.OClosure:
		fn := v.Ptr.Clo.Fn
		return fn.Fn.Bytes, fn.Fn.ParamCount, true
	default:
		return nil, 0, false
	}
}

// execFrm handles the FRM family: addr selects a compiled Function
// object out of rodata, argc is a one-byte sanity check against the
// arity the compiler baked into that object.
func (vm *VM) execFrm(op opcode.Op) {
	addr := vm.readOperand(opcode.Width(op))
	argc := vm.readOperand(1)
	if addr < 0 || addr >= len(vm.Program.Rodata) {
		vm.fault(InvA)
		return
	}
	v := vm.Program.Rodata[addr]
	if v.Kind != value.Obj || v.Ptr == nil || v.Ptr.Kind != value.OFunction {
		vm.fault(InvA)
		return
	}
	if v.Ptr.Fn.ParamCount != argc {
		vm.fault(InvA)
		return
	}
	vm.pushOrFault(v)
}

// execClo wraps the Function object on top of the stack into a
// Closure. Upvalue capture is not emitted by the compiler yet (spec.md
// §9's documented gap), so every closure starts with no upvalues.
func (vm *VM) execClo() {
	v, err := vm.pop()
	if err != nil {
		vm.fault(InvA)
		return
	}
	if v.Kind != value.Obj || v.Ptr == nil || v.Ptr.Kind != value.OFunction {
		vm.fault(InvType)
		return
	}
	clo := vm.register(value.NewClosure(v.Ptr, nil))
	vm.pushOrFault(value.ObjValue(clo))
}

// execCal implements the CAL argc calling convention: the callee is
// pushed first, then its argc arguments on top of it, then CAL. A
// frame's Base points at the first argument slot, so PSH/STR slot 0
// addresses the first parameter.
func (vm *VM) execCal(argc int) {
	if vm.sp < argc+1 {
		vm.fault(InvA)
		return
	}
	calleeIdx := vm.sp - argc - 1
	callee := vm.stack[calleeIdx]
	fnBytes, paramCount, ok := resolveCallable(callee)
	if !ok {
		vm.fault(NotFct)
		return
	}
	if paramCount != argc {
		vm.fault(InvA)
		return
	}
	if vm.maxCallDepth > 0 && len(vm.frames) >= vm.maxCallDepth {
		vm.fault(InvA)
		return
	}
	vm.frames = append(vm.frames, Frame{
		ReturnCode: vm.code,
		ReturnIP:   vm.ip,
		Base:       calleeIdx + 1,
		Argc:       argc,
	})
	vm.code = fnBytes
	vm.ip = 0
}

// execReturn pops the current call frame, discards its argument and
// callee slots, and leaves v on top of the caller's stack. Returning
// with no active frame (falling off the top-level routine via RET
// rather than FIN) halts the VM exactly as FIN would.
func (vm *VM) execReturn(v value.Value) {
	if len(vm.frames) == 0 {
		vm.status = Fin
		return
	}
	f := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.sp = f.Base - 1
	vm.pushOrFault(v)
	vm.code = f.ReturnCode
	vm.ip = f.ReturnIP
}

func (vm *VM) execNeg() {
	v, err := vm.pop()
	if err != nil {
		vm.fault(InvA)
		return
	}
	switch v.Kind {
	case value.Int:
		vm.pushOrFault(value.IntValue(-v.I))
	case value.Real:
		vm.pushOrFault(value.RealValue(-v.F))
	default:
		vm.fault(InvType)
	}
}

// execArith implements spec.md §4.4's binary-op type rules: INT op
// INT stays INT (except DIV and POW, which always widen to REAL), REAL
// op REAL stays REAL (RIV truncates to INT), and ADD additionally
// concatenates STR with STR. Mixing INT with REAL, or any other
// combination, faults INVTYP. REAL division by zero yields the IEEE
// infinity or NaN rather than a fault.
func (vm *VM) execArith(op opcode.Op) {
	b, err := vm.pop()
	if err != nil {
		vm.fault(InvA)
		return
	}
	a, err := vm.pop()
	if err != nil {
		vm.fault(InvA)
		return
	}

	if op == opcode.Add && a.Kind == value.Str && b.Kind == value.Str {
		concat := append(append([]byte{}, a.Ptr.Str.Bytes...), b.Ptr.Str.Bytes...)
		vm.pushOrFault(value.StrValue(vm.register(value.NewString(string(concat)))))
		return
	}

	if a.Kind == value.Int && b.Kind == value.Int {
		switch op {
		case opcode.Add:
			vm.pushOrFault(value.IntValue(a.I + b.I))
		case opcode.Sub:
			vm.pushOrFault(value.IntValue(a.I - b.I))
		case opcode.Mul:
			vm.pushOrFault(value.IntValue(a.I * b.I))
		case opcode.Mod:
			if b.I == 0 {
				vm.fault(InvA)
				return
			}
			vm.pushOrFault(value.IntValue(a.I % b.I))
		case opcode.Riv:
			if b.I == 0 {
				vm.fault(InvA)
				return
			}
			vm.pushOrFault(value.IntValue(a.I / b.I))
		case opcode.Div:
			if b.I == 0 {
				vm.fault(InvA)
				return
			}
			vm.pushOrFault(value.RealValue(float64(a.I) / float64(b.I)))
		case opcode.Pow:
			vm.pushOrFault(value.RealValue(math.Pow(float64(a.I), float64(b.I))))
		default:
			vm.fault(InvA)
		}
		return
	}

	if a.Kind != b.Kind {
		vm.fault(InvType)
		return
	}
	af, aok := numericAsReal(a)
	bf, bok := numericAsReal(b)
	if !aok || !bok {
		vm.fault(InvType)
		return
	}
	switch op {
	case opcode.Add:
		vm.pushOrFault(value.RealValue(af + bf))
	case opcode.Sub:
		vm.pushOrFault(value.RealValue(af - bf))
	case opcode.Mul:
		vm.pushOrFault(value.RealValue(af * bf))
	case opcode.Div:
		vm.pushOrFault(value.RealValue(af / bf))
	case opcode.Riv:
		if bf == 0 {
			vm.fault(InvA)
			return
		}
		vm.pushOrFault(value.IntValue(int64(af / bf)))
	case opcode.Mod:
		if bf == 0 {
			vm.fault(InvA)
			return
		}
		vm.pushOrFault(value.RealValue(math.Mod(af, bf)))
	case opcode.Pow:
		vm.pushOrFault(value.RealValue(math.Pow(af, bf)))
	default:
		vm.fault(InvA)
	}
}

func numericAsReal(v value.Value) (float64, bool) {
	switch v.Kind {
	case value.Int:
		return float64(v.I), true
	case value.Real:
		return v.F, true
	default:
		return 0, false
	}
}

// execCompare handles EQ/NEQ (defined for every Kind via value.Equal)
// and the four ordering operators (defined only for two INTs, two
// REALs, or two STRs, lexicographically for the latter; mixing INT
// with REAL faults INVTYP).
func (vm *VM) execCompare(op opcode.Op) {
	b, err := vm.pop()
	if err != nil {
		vm.fault(InvA)
		return
	}
	a, err := vm.pop()
	if err != nil {
		vm.fault(InvA)
		return
	}

	if op == opcode.Eq {
		vm.pushOrFault(value.BoolValue(value.Equal(a, b)))
		return
	}
	if op == opcode.Neq {
		vm.pushOrFault(value.BoolValue(!value.Equal(a, b)))
		return
	}

	if a.Kind == value.Str && b.Kind == value.Str {
		cmp := compareStrings(string(a.Ptr.Str.Bytes), string(b.Ptr.Str.Bytes))
		vm.pushOrFault(value.BoolValue(applyOrder(op, cmp)))
		return
	}

	if a.Kind != b.Kind {
		vm.fault(InvType)
		return
	}
	af, aok := numericAsReal(a)
	bf, bok := numericAsReal(b)
	if !aok || !bok {
		vm.fault(InvType)
		return
	}
	var cmp int
	switch {
	case af < bf:
		cmp = -1
	case af > bf:
		cmp = 1
	}
	vm.pushOrFault(value.BoolValue(applyOrder(op, cmp)))
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func applyOrder(op opcode.Op, cmp int) bool {
	switch op {
	case opcode.Gt:
		return cmp > 0
	case opcode.Gte:
		return cmp >= 0
	case opcode.Lt:
		return cmp < 0
	case opcode.Lte:
		return cmp <= 0
	default:
		return false
	}
}

func (vm *VM) execArr(n int) {
	if vm.sp < n {
		vm.fault(InvA)
		return
	}
	elems := make([]value.Value, n)
	copy(elems, vm.stack[vm.sp-n:vm.sp])
	vm.sp -= n
	vm.pushOrFault(value.ObjValue(vm.register(value.NewArray(elems))))
}

func (vm *VM) execVec(n int) {
	if vm.sp < n {
		vm.fault(InvA)
		return
	}
	floats := make([]float64, n)
	for i, v := range vm.stack[vm.sp-n : vm.sp] {
		f, ok := numericAsReal(v)
		if !ok {
			vm.fault(InvType)
			return
		}
		floats[i] = f
	}
	vm.sp -= n
	obj, err := value.NewVector(floats)
	if err != nil {
		vm.fault(InvA)
		return
	}
	vm.pushOrFault(value.ObjValue(vm.register(obj)))
}

func (vm *VM) execDct(n int) {
	need := 2 * n
	if vm.sp < need {
		vm.fault(InvA)
		return
	}
	dict := value.NewDictionary()
	pairs := vm.stack[vm.sp-need : vm.sp]
	for i := 0; i < n; i++ {
		k := pairs[2*i]
		v := pairs[2*i+1]
		dict.Dict.Set(k, v)
	}
	vm.sp -= need
	vm.pushOrFault(value.ObjValue(vm.register(dict)))
}

func (vm *VM) execIdx() {
	idx, err := vm.pop()
	if err != nil {
		vm.fault(InvA)
		return
	}
	coll, err := vm.pop()
	if err != nil {
		vm.fault(InvA)
		return
	}
	switch {
	case coll.Kind == value.Obj && coll.Ptr != nil && coll.Ptr.Kind == value.OArray:
		if idx.Kind != value.Int {
			vm.fault(InvType)
			return
		}
		elems := coll.Ptr.Arr.Elements
		if idx.I < 0 || idx.I >= int64(len(elems)) {
			vm.fault(InvA)
			return
		}
		vm.pushOrFault(elems[idx.I])
	case coll.Kind == value.Obj && coll.Ptr != nil && coll.Ptr.Kind == value.OVector:
		if idx.Kind != value.Int {
			vm.fault(InvType)
			return
		}
		elems := coll.Ptr.Vec.Elements
		if idx.I < 0 || idx.I >= int64(len(elems)) {
			vm.fault(InvA)
			return
		}
		vm.pushOrFault(value.RealValue(elems[idx.I]))
	case coll.Kind == value.Str:
		if idx.Kind != value.Int {
			vm.fault(InvType)
			return
		}
		bytes := coll.Ptr.Str.Bytes
		if idx.I < 0 || idx.I >= int64(len(bytes)) {
			vm.fault(InvA)
			return
		}
		vm.pushOrFault(value.CharValue(rune(bytes[idx.I])))
	case coll.Kind == value.Obj && coll.Ptr != nil && coll.Ptr.Kind == value.ODictionary:
		v, ok := coll.Ptr.Dict.Get(idx)
		if !ok {
			vm.fault(InvA)
			return
		}
		vm.pushOrFault(v)
	default:
		vm.fault(InvType)
	}
}

// execIda implements index-assignment a[i] = v. It mutates the
// collection in place and leaves v on the stack, so an index
// assignment reads back as the value assigned, the same convention
// every other assignment opcode in this instruction set follows.
func (vm *VM) execIda() {
	v, err := vm.pop()
	if err != nil {
		vm.fault(InvA)
		return
	}
	idx, err := vm.pop()
	if err != nil {
		vm.fault(InvA)
		return
	}
	coll, err := vm.pop()
	if err != nil {
		vm.fault(InvA)
		return
	}
	switch {
	case coll.Kind == value.Obj && coll.Ptr != nil && coll.Ptr.Kind == value.OArray:
		if idx.Kind != value.Int {
			vm.fault(InvType)
			return
		}
		elems := coll.Ptr.Arr.Elements
		if idx.I < 0 || idx.I >= int64(len(elems)) {
			vm.fault(InvA)
			return
		}
		elems[idx.I] = v
	case coll.Kind == value.Obj && coll.Ptr != nil && coll.Ptr.Kind == value.OVector:
		f, ok := numericAsReal(v)
		if !ok || idx.Kind != value.Int {
			vm.fault(InvType)
			return
		}
		elems := coll.Ptr.Vec.Elements
		if idx.I < 0 || idx.I >= int64(len(elems)) {
			vm.fault(InvA)
			return
		}
		elems[idx.I] = f
	case coll.Kind == value.Obj && coll.Ptr != nil && coll.Ptr.Kind == value.ODictionary:
		coll.Ptr.Dict.Set(idx, v)
	default:
		vm.fault(InvType)
		return
	}
	vm.pushOrFault(v)
}

// execMrg implements the `|` merge operator: STR+STR concatenates,
// ARRAY+ARRAY concatenates, DICTIONARY+DICTIONARY unions with the
// right-hand side's keys taking precedence on collision.
func (vm *VM) execMrg() {
	b, err := vm.pop()
	if err != nil {
		vm.fault(InvA)
		return
	}
	a, err := vm.pop()
	if err != nil {
		vm.fault(InvA)
		return
	}
	switch {
	case a.Kind == value.Str && b.Kind == value.Str:
		concat := append(append([]byte{}, a.Ptr.Str.Bytes...), b.Ptr.Str.Bytes...)
		vm.pushOrFault(value.StrValue(vm.register(value.NewString(string(concat)))))
	case isKind(a, value.OArray) && isKind(b, value.OArray):
		merged := append(append([]value.Value{}, a.Ptr.Arr.Elements...), b.Ptr.Arr.Elements...)
		vm.pushOrFault(value.ObjValue(vm.register(value.NewArray(merged))))
	case isKind(a, value.ODictionary) && isKind(b, value.ODictionary):
		merged := value.NewDictionary()
		a.Ptr.Dict.Each(func(k, v value.Value) { merged.Dict.Set(k, v) })
		b.Ptr.Dict.Each(func(k, v value.Value) { merged.Dict.Set(k, v) })
		vm.pushOrFault(value.ObjValue(vm.register(merged)))
	default:
		vm.fault(InvType)
	}
}

func isKind(v value.Value, k value.ObjectKind) bool {
	return v.Kind == value.Obj && v.Ptr != nil && v.Ptr.Kind == k
}
