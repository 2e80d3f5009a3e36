package opcode

import (
	"fmt"
	"strings"

	"github.com/kristofer/silk/pkg/value"
)

// Disassemble renders code as one line per instruction: offset,
// mnemonic, and any operand (rodata values resolved inline for VAL,
// jump targets resolved to an absolute offset for JMP/JBW/JPT/JPF).
// It never faults on malformed input — a truncated operand prints
// "<truncated>" and disassembly stops, matching the rest of this
// toolchain's "report, don't panic" stance toward untrusted bytecode.
func Disassemble(code []byte, rodata []value.Value) string {
	var sb strings.Builder
	ip := 0
	for ip < len(code) {
		start := ip
		op := Op(code[ip])
		ip++

		width := Width(op)
		if IsJump(op) {
			width = 2
		}
		if op == Arr || op == Vec || op == Dct || op == Cal {
			width = 1 // element, pair or argument count
		}
		if width == 0 && op != Frm && !(op >= Frm && op <= Frm4) {
			fmt.Fprintf(&sb, "%04d  %-6s\n", start, op)
			continue
		}
		if ip+width > len(code) {
			fmt.Fprintf(&sb, "%04d  %-6s <truncated>\n", start, op)
			break
		}
		operand := readBigEndian(code[ip : ip+width])
		ip += width

		switch {
		case op >= Val && op <= Val4:
			fmt.Fprintf(&sb, "%04d  %-6s %d  ; %s\n", start, op, operand, rodataPreview(rodata, operand))
		case IsJump(op):
			target := ip + operand
			if op == Jbw {
				target = ip - operand
			}
			fmt.Fprintf(&sb, "%04d  %-6s %d  ; -> %04d\n", start, op, operand, target)
		case op >= Frm && op <= Frm4:
			if ip >= len(code) {
				fmt.Fprintf(&sb, "%04d  %-6s <truncated argc>\n", start, op)
				ip = len(code)
				continue
			}
			argc := int(code[ip])
			ip++
			fmt.Fprintf(&sb, "%04d  %-6s %d %d\n", start, op, operand, argc)
		default:
			fmt.Fprintf(&sb, "%04d  %-6s %d\n", start, op, operand)
		}
	}
	return sb.String()
}

func readBigEndian(b []byte) int {
	v := 0
	for _, c := range b {
		v = v<<8 | int(c)
	}
	return v
}

func rodataPreview(rodata []value.Value, idx int) string {
	if idx < 0 || idx >= len(rodata) {
		return "<out of range>"
	}
	return rodata[idx].String()
}
