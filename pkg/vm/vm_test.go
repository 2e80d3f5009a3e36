package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/silk/pkg/compiler"
	"github.com/kristofer/silk/pkg/lexer"
	"github.com/kristofer/silk/pkg/parser"
	"github.com/kristofer/silk/pkg/value"
)

// runSource compiles and runs src, returning the VM it ran in.
func runSource(t *testing.T, src string) *VM {
	t.Helper()
	p := parser.New(lexer.New(src))
	mod := p.ParseModule("<test>")
	require.False(t, p.Diagnostics.HasErrors(), "parse errors: %s", p.Diagnostics.Error())

	c := compiler.New()
	prog, err := c.Compile(mod)
	require.NoError(t, err)

	v := New()
	require.NoError(t, v.Run(prog))
	return v
}

// global returns the value bound to the global name once Run has
// halted. Every expression statement pops its value, so these tests
// bind a result to a global and read it back from there.
func global(t *testing.T, v *VM, name string) value.Value {
	t.Helper()
	for id, s := range v.Program.Symbols {
		if s.Name == name {
			g, ok := v.globals[uint32(id)]
			require.True(t, ok, "global %q is not bound", name)
			return g
		}
	}
	t.Fatalf("no global named %q", name)
	return value.Value{}
}

func TestArithmeticWidensToReal(t *testing.T) {
	v := runSource(t, "let r = 1 / 2;")
	assert.Equal(t, Fin, v.Status())
	assert.Equal(t, value.Real, global(t, v, "r").Kind)
}

func TestDivAlwaysWidensToReal(t *testing.T) {
	// DIV never short-circuits to INT, even on exact division.
	v := runSource(t, "let r = 4 / 2;")
	assert.Equal(t, Fin, v.Status())
	top := global(t, v, "r")
	assert.Equal(t, value.Real, top.Kind)
	assert.Equal(t, 2.0, top.F)
}

func TestIntDivisionStaysInt(t *testing.T) {
	v := runSource(t, "let x = 7 // 2; x;")
	assert.Equal(t, Fin, v.Status())
	assert.Equal(t, int64(3), global(t, v, "x").I)
}

func TestWhileLoopCountsToTen(t *testing.T) {
	v := runSource(t, `
		let i = 0;
		while (i < 10) {
			i = i + 1;
		}
		i;
	`)
	assert.Equal(t, Fin, v.Status())
	assert.Equal(t, int64(10), global(t, v, "i").I)
}

func TestForLoopSum(t *testing.T) {
	v := runSource(t, `
		let total = 0;
		for (def i = 0; i < 5; i = i + 1) {
			total = total + i;
		}
		total;
	`)
	assert.Equal(t, int64(10), global(t, v, "total").I)
}

func TestBreakExitsLoop(t *testing.T) {
	v := runSource(t, `
		let i = 0;
		loop {
			if (i == 3) { break; }
			i = i + 1;
		}
		i;
	`)
	assert.Equal(t, int64(3), global(t, v, "i").I)
}

func TestFunctionCallReturnsValue(t *testing.T) {
	v := runSource(t, `
		fun add(a, b) => a + b;
		let r = add(2, 3);
	`)
	assert.Equal(t, Fin, v.Status())
	assert.Equal(t, int64(5), global(t, v, "r").I)
}

func TestRecursiveFunction(t *testing.T) {
	v := runSource(t, `
		fun fact(n) {
			if (n < 2) { return 1; }
			return n * fact(n - 1);
		}
		let r = fact(5);
	`)
	assert.Equal(t, int64(120), global(t, v, "r").I)
}

func TestAssignmentExpressionYieldsValue(t *testing.T) {
	v := runSource(t, `
		let x = 1;
		let y = (x = 9);
		y;
	`)
	assert.Equal(t, int64(9), global(t, v, "y").I)
}

func TestShortCircuitAnd(t *testing.T) {
	v := runSource(t, "let r = false and (1 / 0 == 0);")
	assert.Equal(t, Fin, v.Status())
	assert.False(t, global(t, v, "r").Truthy())
}

func TestShortCircuitOr(t *testing.T) {
	v := runSource(t, "let r = true or (1 / 0 == 0);")
	assert.Equal(t, Fin, v.Status())
	assert.True(t, global(t, v, "r").Truthy())
}

func TestArrayIndexAssign(t *testing.T) {
	v := runSource(t, `
		let a = [1, 2, 3];
		a.1 = 99;
		let r = a.1;
	`)
	assert.Equal(t, int64(99), global(t, v, "r").I)
}

func TestStringConcatMerge(t *testing.T) {
	v := runSource(t, `let r = 'foo' | 'bar';`)
	assert.Equal(t, "foobar", global(t, v, "r").String())
}

func TestDivisionByZeroFaults(t *testing.T) {
	p := parser.New(lexer.New("1 / 0;"))
	mod := p.ParseModule("<test>")
	require.False(t, p.Diagnostics.HasErrors())

	c := compiler.New()
	prog, err := c.Compile(mod)
	require.NoError(t, err)

	v := New()
	err = v.Run(prog)
	require.Error(t, err)
	assert.Equal(t, InvA, v.Status())
}

func TestCallDepthIsBounded(t *testing.T) {
	p := parser.New(lexer.New(`
		fun loopForever(n) => loopForever(n + 1);
		loopForever(0);
	`))
	mod := p.ParseModule("<test>")
	require.False(t, p.Diagnostics.HasErrors())

	c := compiler.New()
	prog, err := c.Compile(mod)
	require.NoError(t, err)

	v := NewWithOptions(DefaultStackSize, DefaultGCThreshold, 8)
	err = v.Run(prog)
	require.Error(t, err)
	assert.Equal(t, InvA, v.Status())
}
