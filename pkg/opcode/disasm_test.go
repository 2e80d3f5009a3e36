package opcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kristofer/silk/pkg/value"
)

func TestDisassembleValAndFin(t *testing.T) {
	code := []byte{byte(Val), 0x00, byte(Fin)}
	rodata := []value.Value{value.IntValue(42)}

	out := Disassemble(code, rodata)
	assert.Contains(t, out, "VAL")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "FIN")
}

func TestDisassembleJumpResolvesAbsoluteTarget(t *testing.T) {
	// JPF with a 2-byte relative-forward offset of 3, immediately
	// followed by 3 bytes of filler and then FIN.
	code := []byte{byte(Jpf), 0x00, 0x03, byte(Pop), byte(Pop), byte(Pop), byte(Fin)}

	out := Disassemble(code, nil)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines[0], "JPF")
	assert.Contains(t, lines[0], "-> 0006")
}

func TestDisassembleTruncatedOperandDoesNotPanic(t *testing.T) {
	code := []byte{byte(Val2), 0x00} // VAL2 wants 2 operand bytes, only has 1
	assert.NotPanics(t, func() {
		out := Disassemble(code, nil)
		assert.Contains(t, out, "truncated")
	})
}

func TestDisassembleFrmIncludesArgc(t *testing.T) {
	code := []byte{byte(Frm), 0x05, 0x02, byte(Fin)}
	out := Disassemble(code, nil)
	assert.Contains(t, out, "FRM")
	assert.Contains(t, out, "5 2")
}

func TestDisassembleNoOperandOpcode(t *testing.T) {
	code := []byte{byte(Add), byte(Fin)}
	out := Disassemble(code, nil)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines[0], "ADD")
}
