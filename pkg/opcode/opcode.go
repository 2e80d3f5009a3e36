// Package opcode defines the Moth instruction set: a byte-oriented,
// variable-width encoding where families of related opcodes
// (VAL/VAL2/VAL3/VAL4, DEF/DEF2/..., SYM, ASN, FRM) each select an
// operand width of 1, 2, 3, or 4 bytes. The compiler always picks the
// smallest width that fits the operand, so small programs stay
// compact while large ones are never truncated.
//
// Operands are always encoded big-endian in the instruction buffer,
// written and read byte by byte, most significant byte first. Never
// using the host's native byte order is what keeps the format
// host-independent: a
// buffer produced on a little-endian host decodes identically on a
// big-endian one, satisfying spec.md §4.3's "always big-endian-on-disk,
// swapped at runtime on big-endian hosts" requirement without any
// runtime byte-swap branch.
package opcode

// Op is a single Moth opcode.
type Op byte

const (
	// --- Stack ---
	Pop Op = iota // pop and discard the top of stack

	Psh  // PSH slot  (1-byte operand width)
	Psh2 // PSH slot (2-byte)
	Psh3
	Psh4

	Str  // STR slot: pop, store into local slot, operand widths as above
	Str2
	Str3
	Str4

	// --- Constants ---
	Val // VAL index: push rodata[index]
	Val2
	Val3
	Val4

	// --- Symbols (globals) ---
	Def // DEF id: pop and bind a global
	Def2
	Def3
	Def4

	Sym // SYM id: push a global
	Sym2
	Sym3
	Sym4

	Asn // ASN id: pop and reassign an existing global
	Asn2
	Asn3
	Asn4

	// --- Jumps (always a u16 relative offset operand) ---
	Jmp // unconditional forward jump
	Jpt // jump-if-true, leaves the tested value on the stack
	Jpf // jump-if-false, leaves the tested value on the stack
	Jbw // unconditional backward jump

	// --- Functions ---
	Frm // FRM addr argc: define/push a function object
	Frm2
	Frm3
	Frm4

	Clo // wrap the function on top of stack into a closure
	Cal // CAL argc: call the callee on the stack below argc arguments
	Ret  // return void
	Retv // return top-of-stack value

	// --- Arithmetic ---
	Neg
	Add
	Sub
	Mul
	Div
	Riv // round-to-int division
	Pow
	Mod

	// --- Logic ---
	Not
	Eq
	Neq
	Gt
	Gte
	Lt
	Lte

	// --- Collections ---
	Arr // ARR n: build an array from n stack values
	Vec // VEC n: build a vector (cardinality <= 255) from n reals
	Dct // DCT n: build a dictionary from n key/value pairs
	Idx // index read:  a[i]
	Ida // index assign: a[i] = v
	Mrg // merge (the `|` operator)

	// --- Constants / literals ---
	Nop
	Vid // push VOID
	Tru
	Fal
	Pi
	Tau
	Eul

	// --- GC ---
	GC // explicit collection safepoint

	// --- Halt ---
	Fin
)

var names = [...]string{
	Pop: "POP",
	Psh: "PSH", Psh2: "PSH2", Psh3: "PSH3", Psh4: "PSH4",
	Str: "STR", Str2: "STR2", Str3: "STR3", Str4: "STR4",
	Val: "VAL", Val2: "VAL2", Val3: "VAL3", Val4: "VAL4",
	Def: "DEF", Def2: "DEF2", Def3: "DEF3", Def4: "DEF4",
	Sym: "SYM", Sym2: "SYM2", Sym3: "SYM3", Sym4: "SYM4",
	Asn: "ASN", Asn2: "ASN2", Asn3: "ASN3", Asn4: "ASN4",
	Jmp: "JMP", Jpt: "JPT", Jpf: "JPF", Jbw: "JBW",
	Frm: "FRM", Frm2: "FRM2", Frm3: "FRM3", Frm4: "FRM4",
	Clo: "CLO", Cal: "CAL", Ret: "RET", Retv: "RETV",
	Neg: "NEG", Add: "ADD", Sub: "SUB", Mul: "MUL", Div: "DIV", Riv: "RIV", Pow: "POW", Mod: "MOD",
	Not: "NOT", Eq: "EQ", Neq: "NEQ", Gt: "GT", Gte: "GTE", Lt: "LT", Lte: "LTE",
	Arr: "ARR", Vec: "VEC", Dct: "DCT", Idx: "IDX", Ida: "IDA", Mrg: "MRG",
	Nop: "NOP", Vid: "VID", Tru: "TRU", Fal: "FAL", Pi: "PI", Tau: "TAU", Eul: "EUL",
	GC:  "GC",
	Fin: "FIN",
}

func (op Op) String() string {
	if int(op) < len(names) && names[op] != "" {
		return names[op]
	}
	return "UNKNOWN"
}

// Width returns the operand width, in bytes, that a family member
// opcode encodes. Opcodes outside a variable-width family return 0.
func Width(op Op) int {
	switch {
	case op >= Psh && op <= Psh4:
		return int(op-Psh) + 1
	case op >= Str && op <= Str4:
		return int(op-Str) + 1
	case op >= Val && op <= Val4:
		return int(op-Val) + 1
	case op >= Def && op <= Def4:
		return int(op-Def) + 1
	case op >= Sym && op <= Sym4:
		return int(op-Sym) + 1
	case op >= Asn && op <= Asn4:
		return int(op-Asn) + 1
	case op >= Frm && op <= Frm4:
		return int(op-Frm) + 1
	}
	return 0
}

// FamilyForWidth picks the smallest-width opcode in a family that can
// hold a given non-negative index. Widths of 1, 2, 3, or 4 bytes cover
// indices up to 2^32-1; the compiler calls this once per emission.
func FamilyForWidth(base Op, index int) Op {
	switch {
	case index < 1<<8:
		return base
	case index < 1<<16:
		return base + 1
	case index < 1<<24:
		return base + 2
	default:
		return base + 3
	}
}

// IsJump reports whether op is one of the four jump opcodes, all of
// which carry a fixed-width u16 relative offset operand.
func IsJump(op Op) bool {
	return op == Jmp || op == Jpt || op == Jpf || op == Jbw
}
