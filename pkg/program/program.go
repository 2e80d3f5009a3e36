// Package program defines the compiled output of the Silk compiler:
// a linear instruction buffer, a read-only constant pool, and a
// deduplicated global symbol table (spec.md §3.5).
package program

import (
	"hash/fnv"

	"github.com/kristofer/silk/pkg/value"
)

// Symbol is one deduplicated global name.
type Symbol struct {
	Hash uint32
	Name string
}

// Program is the Moth VM's unit of execution: the top-level "main"
// routine's bytes, plus the rodata pool (literals and compiled
// Function objects) and symbol table every DEF/SYM/ASN opcode indexes
// into.
type Program struct {
	Bytes   []byte
	Rodata  []value.Value
	Symbols []Symbol
}

// New creates an empty program ready for the compiler to populate.
func New() *Program {
	return &Program{}
}

// InternSymbol returns the index of name in the symbol table, adding
// it if this is the first time it has been seen.
func (p *Program) InternSymbol(name string) int {
	h := symbolHash(name)
	for i, s := range p.Symbols {
		if s.Hash == h && s.Name == name {
			return i
		}
	}
	p.Symbols = append(p.Symbols, Symbol{Hash: h, Name: name})
	return len(p.Symbols) - 1
}

func symbolHash(name string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(name))
	return h.Sum32()
}

// AddRodata appends v to the constant pool unconditionally and returns
// its index. Callers that want interning (the compiler's emitConst
// does) look for an equal entry first; Program itself stores whatever
// it is given.
func (p *Program) AddRodata(v value.Value) int {
	p.Rodata = append(p.Rodata, v)
	return len(p.Rodata) - 1
}
