package bytecode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/silk/pkg/program"
	"github.com/kristofer/silk/pkg/value"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := &program.Program{
		Bytes: []byte{0x01, 0x02, 0x03},
		Rodata: []value.Value{
			value.IntValue(42),
			value.BoolValue(true),
			value.CharValue('x'),
			value.StrValue(value.NewString("hello")),
		},
		Symbols: []program.Symbol{
			{Name: "foo"},
			{Name: "bar"},
		},
	}
	// Symbols' Hash fields are recomputed on decode, so populate them
	// the same way encodeSymbols/decodeSymbols would for a fair compare.
	for i := range p.Symbols {
		p.Symbols[i].Hash = symbolHashForTest(p.Symbols[i].Name)
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, p))

	got, err := Decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, p.Bytes, got.Bytes)
	assert.Equal(t, p.Symbols, got.Symbols)
	require.Len(t, got.Rodata, len(p.Rodata))
	assert.Equal(t, int64(42), got.Rodata[0].I)
	assert.True(t, got.Rodata[1].Bool())
	assert.Equal(t, 'x', got.Rodata[2].Rune())
	assert.Equal(t, "hello", got.Rodata[3].String())
}

func TestRealEncodingRoundTripsWithinLossyPrecision(t *testing.T) {
	p := &program.Program{Rodata: []value.Value{value.RealValue(3.14)}}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, p))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.InDelta(t, 3.14, got.Rodata[0].F, 1e-9)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not a silk file at all")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeRejectsCorruptedChecksum(t *testing.T) {
	p := &program.Program{Bytes: []byte{0xAA}}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, p))

	corrupt := buf.Bytes()
	corrupt[len(corrupt)-8] ^= 0xFF // flip every bit of one byte of the stored checksum

	_, err := Decode(bytes.NewReader(corrupt))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}

func symbolHashForTest(name string) uint32 {
	p := program.New()
	p.InternSymbol(name)
	return p.Symbols[0].Hash
}
