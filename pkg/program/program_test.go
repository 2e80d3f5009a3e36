package program

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kristofer/silk/pkg/value"
)

func TestInternSymbolDeduplicates(t *testing.T) {
	p := New()
	a := p.InternSymbol("x")
	b := p.InternSymbol("y")
	c := p.InternSymbol("x")

	assert.Equal(t, a, c)
	assert.NotEqual(t, a, b)
	assert.Len(t, p.Symbols, 2)
}

func TestAddRodataAppendsUnconditionally(t *testing.T) {
	p := New()
	i0 := p.AddRodata(value.IntValue(1))
	i1 := p.AddRodata(value.IntValue(1))

	assert.Equal(t, 0, i0)
	assert.Equal(t, 1, i1, "AddRodata never interns on its own")
	assert.Len(t, p.Rodata, 2)
}
