package opcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWidthSelectsFamilyMember(t *testing.T) {
	assert.Equal(t, 1, Width(Psh))
	assert.Equal(t, 2, Width(Psh2))
	assert.Equal(t, 3, Width(Psh3))
	assert.Equal(t, 4, Width(Psh4))
	assert.Equal(t, 0, Width(Add), "non-family opcode has no operand width")
}

func TestFamilyForWidthPicksSmallestFit(t *testing.T) {
	assert.Equal(t, Val, FamilyForWidth(Val, 0))
	assert.Equal(t, Val, FamilyForWidth(Val, 255))
	assert.Equal(t, Val2, FamilyForWidth(Val, 256))
	assert.Equal(t, Val2, FamilyForWidth(Val, 1<<16-1))
	assert.Equal(t, Val3, FamilyForWidth(Val, 1<<16))
	assert.Equal(t, Val4, FamilyForWidth(Val, 1<<24))
}

func TestIsJumpCoversOnlyTheFourJumpOps(t *testing.T) {
	for _, op := range []Op{Jmp, Jpt, Jpf, Jbw} {
		assert.True(t, IsJump(op), "%s should be a jump", op)
	}
	assert.False(t, IsJump(Add))
	assert.False(t, IsJump(Psh))
}

func TestOpStringUnknownFallback(t *testing.T) {
	assert.Equal(t, "UNKNOWN", Op(255).String())
	assert.Equal(t, "ADD", Add.String())
}
