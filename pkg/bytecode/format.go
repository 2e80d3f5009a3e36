// Package bytecode implements the on-disk .slkc binary format for a
// compiled Silk Program: a canonical, self-checking encoding with a
// fixed header, versioned sections, an FNV-1a checksum, and a literal
// footer (spec.md §4.6).
//
// Layout, in order:
//
//	"SILKEXE"            7-byte magic header
//	version              u16 little-endian
//	ins_len              u32 little-endian (byte length of the instruction section)
//	rodata_len           u32 little-endian (byte length of the rodata section)
//	symbol_len           u32 little-endian (byte length of the symbol section)
//	bytes[ins_len]       raw instruction bytes
//	rodata[rodata_len]   tagged constant values
//	symbols[symbol_len]  NUL-terminated symbol name strings
//	checksum             u32 little-endian, FNV-1a over bytes+symbols
//	"SILKEND"            7-byte magic footer
//
// Every multi-byte field goes through encoding/binary with an explicit
// byte order, so files produced on one host decode identically on a
// host of the other endianness — generalizing the teacher's
// hardcoded-LittleEndian Encode/Decode pair in kristofer-smog's own
// pkg/bytecode/format.go.
package bytecode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"io"

	"github.com/kristofer/silk/pkg/program"
	"github.com/kristofer/silk/pkg/value"
)

var (
	magicHeader = [7]byte{'S', 'I', 'L', 'K', 'E', 'X', 'E'}
	magicFooter = [7]byte{'S', 'I', 'L', 'K', 'E', 'N', 'D'}
)

// FormatVersion is the current .slkc format version.
const FormatVersion uint16 = 1

// ErrMalformed is returned (wrapped with more context) for any
// structural problem: wrong magic, unsupported version, a bad section
// length, an unrecognized value tag, or a checksum mismatch.
var ErrMalformed = errors.New("malformed executable")

// Tagged value kinds, mirroring value.Kind but fixed at a stable wire
// value independent of the in-memory enum's iota ordering.
const (
	tagVoid byte = iota
	tagBool
	tagInt
	tagReal
	tagChar
	tagStr
	tagObj
)

const tagObjFunction byte = 0x01

// Encode writes p to w in the .slkc format described above.
func Encode(w io.Writer, p *program.Program) error {
	rodataBuf, err := encodeRodata(p.Rodata)
	if err != nil {
		return fmt.Errorf("encode rodata: %w", err)
	}
	symbolBuf := encodeSymbols(p.Symbols)

	if err := binary.Write(w, binary.LittleEndian, magicHeader); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, FormatVersion); err != nil {
		return err
	}
	lengths := []uint32{uint32(len(p.Bytes)), uint32(rodataBuf.Len()), uint32(symbolBuf.Len())}
	for _, l := range lengths {
		if err := binary.Write(w, binary.LittleEndian, l); err != nil {
			return err
		}
	}
	if _, err := w.Write(p.Bytes); err != nil {
		return err
	}
	if _, err := w.Write(rodataBuf.Bytes()); err != nil {
		return err
	}
	if _, err := w.Write(symbolBuf.Bytes()); err != nil {
		return err
	}

	sum := checksum(p.Bytes, symbolBuf.Bytes())
	if err := binary.Write(w, binary.LittleEndian, sum); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, magicFooter)
}

// Decode reads a .slkc file from r, validating the header, every
// section length, every value tag, the checksum, and the footer.
func Decode(r io.Reader) (*program.Program, error) {
	var header [7]byte
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrMalformed, err)
	}
	if header != magicHeader {
		return nil, fmt.Errorf("%w: bad header magic %q", ErrMalformed, header)
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: reading version: %v", ErrMalformed, err)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d (expected %d)", ErrMalformed, version, FormatVersion)
	}

	var insLen, rodataLen, symbolLen uint32
	for _, dst := range []*uint32{&insLen, &rodataLen, &symbolLen} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return nil, fmt.Errorf("%w: reading section length: %v", ErrMalformed, err)
		}
	}

	insBytes := make([]byte, insLen)
	if _, err := io.ReadFull(r, insBytes); err != nil {
		return nil, fmt.Errorf("%w: reading instructions: %v", ErrMalformed, err)
	}
	rodataBytes := make([]byte, rodataLen)
	if _, err := io.ReadFull(r, rodataBytes); err != nil {
		return nil, fmt.Errorf("%w: reading rodata: %v", ErrMalformed, err)
	}
	symbolBytes := make([]byte, symbolLen)
	if _, err := io.ReadFull(r, symbolBytes); err != nil {
		return nil, fmt.Errorf("%w: reading symbols: %v", ErrMalformed, err)
	}

	var storedSum uint32
	if err := binary.Read(r, binary.LittleEndian, &storedSum); err != nil {
		return nil, fmt.Errorf("%w: reading checksum: %v", ErrMalformed, err)
	}
	if got := checksum(insBytes, symbolBytes); got != storedSum {
		return nil, fmt.Errorf("%w: checksum mismatch: got %08x want %08x", ErrMalformed, got, storedSum)
	}

	var footer [7]byte
	if err := binary.Read(r, binary.LittleEndian, &footer); err != nil {
		return nil, fmt.Errorf("%w: reading footer: %v", ErrMalformed, err)
	}
	if footer != magicFooter {
		return nil, fmt.Errorf("%w: bad footer magic %q", ErrMalformed, footer)
	}

	rodata, err := decodeRodata(rodataBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding rodata: %v", ErrMalformed, err)
	}
	symbols, err := decodeSymbols(symbolBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding symbols: %v", ErrMalformed, err)
	}

	return &program.Program{Bytes: insBytes, Rodata: rodata, Symbols: symbols}, nil
}

// checksum computes the FNV-1a digest over the instruction bytes
// followed by the symbol-section bytes, per spec.md §4.6.
func checksum(insBytes, symbolBytes []byte) uint32 {
	h := fnv.New32a()
	h.Write(insBytes)
	h.Write(symbolBytes)
	return h.Sum32()
}

func encodeRodata(values []value.Value) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	for _, v := range values {
		if err := encodeValue(&buf, v); err != nil {
			return nil, err
		}
	}
	return &buf, nil
}

func encodeValue(buf *bytes.Buffer, v value.Value) error {
	switch v.Kind {
	case value.Void:
		buf.WriteByte(tagVoid)
	case value.Bool:
		buf.WriteByte(tagBool)
		if v.Bool() {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case value.Int:
		buf.WriteByte(tagInt)
		binary.Write(buf, binary.LittleEndian, v.I)
	case value.Real:
		buf.WriteByte(tagReal)
		integral, fraction := encodeReal(v.F)
		binary.Write(buf, binary.LittleEndian, integral)
		binary.Write(buf, binary.LittleEndian, fraction)
	case value.Char:
		buf.WriteByte(tagChar)
		binary.Write(buf, binary.LittleEndian, uint32(v.Rune()))
	case value.Str:
		buf.WriteByte(tagStr)
		buf.Write(v.Ptr.Str.Bytes)
		buf.WriteByte(0)
	case value.Obj:
		buf.WriteByte(tagObj)
		switch v.Ptr.Kind {
		case value.OFunction:
			buf.WriteByte(tagObjFunction)
			binary.Write(buf, binary.LittleEndian, uint32(len(v.Ptr.Fn.Bytes)))
			buf.Write(v.Ptr.Fn.Bytes)
		default:
			return fmt.Errorf("object kind %s is not serializable", v.Ptr.Kind)
		}
	default:
		return fmt.Errorf("unknown value kind %d", v.Kind)
	}
	return nil
}

// encodeReal splits f into an integral part and a fractional part
// scaled by 10^10, per spec.md §4.6 and §9: this is an intentionally
// lossy encoding, acknowledged by the spec rather than hidden.
func encodeReal(f float64) (uint32, uint32) {
	integral := uint32(int64(f))
	frac := f - float64(int64(f))
	if frac < 0 {
		frac = -frac
	}
	fraction := uint32(frac * 1e10)
	return integral, fraction
}

func decodeReal(integral, fraction uint32) float64 {
	return float64(int32(integral)) + float64(fraction)/1e10
}

func decodeRodata(b []byte) ([]value.Value, error) {
	r := bytes.NewReader(b)
	var out []value.Value
	for r.Len() > 0 {
		v, err := decodeValue(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeValue(r *bytes.Reader) (value.Value, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return value.Value{}, err
	}
	switch tag {
	case tagVoid:
		return value.VoidValue(), nil
	case tagBool:
		b, err := r.ReadByte()
		if err != nil {
			return value.Value{}, err
		}
		return value.BoolValue(b != 0), nil
	case tagInt:
		var i int64
		if err := binary.Read(r, binary.LittleEndian, &i); err != nil {
			return value.Value{}, err
		}
		return value.IntValue(i), nil
	case tagReal:
		var integral, fraction uint32
		if err := binary.Read(r, binary.LittleEndian, &integral); err != nil {
			return value.Value{}, err
		}
		if err := binary.Read(r, binary.LittleEndian, &fraction); err != nil {
			return value.Value{}, err
		}
		return value.RealValue(decodeReal(integral, fraction)), nil
	case tagChar:
		var c uint32
		if err := binary.Read(r, binary.LittleEndian, &c); err != nil {
			return value.Value{}, err
		}
		return value.CharValue(rune(c)), nil
	case tagStr:
		s, err := readNulTerminated(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.StrValue(value.NewString(s)), nil
	case tagObj:
		objTag, err := r.ReadByte()
		if err != nil {
			return value.Value{}, err
		}
		if objTag != tagObjFunction {
			return value.Value{}, fmt.Errorf("unsupported object tag %d", objTag)
		}
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return value.Value{}, err
		}
		bytes := make([]byte, n)
		if _, err := io.ReadFull(r, bytes); err != nil {
			return value.Value{}, err
		}
		return value.ObjValue(value.NewFunction("", bytes, 0)), nil
	default:
		return value.Value{}, fmt.Errorf("unknown value tag %d", tag)
	}
}

func readNulTerminated(r *bytes.Reader) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
}

func encodeSymbols(symbols []program.Symbol) *bytes.Buffer {
	var buf bytes.Buffer
	for _, s := range symbols {
		buf.WriteString(s.Name)
		buf.WriteByte(0)
	}
	return &buf
}

func decodeSymbols(b []byte) ([]program.Symbol, error) {
	r := bytes.NewReader(b)
	var out []program.Symbol
	for r.Len() > 0 {
		name, err := readNulTerminated(r)
		if err != nil {
			return nil, err
		}
		h := fnv.New32a()
		h.Write([]byte(name))
		out = append(out, program.Symbol{Hash: h.Sum32(), Name: name})
	}
	return out, nil
}
