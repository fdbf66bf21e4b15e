package types

import (
	"encoding/binary"
	"fmt"
)

// NType is the symbol-table type bitfield. This system emits exactly two
// defined values and treats anything else as undefined.
type NType uint8

const (
	N_UNDF NType = 0x00 // undefined
	N_LOCL NType = 0x0e // defined, local
	N_EXT  NType = 0x0f // defined, external
)

func (t NType) Defined() bool { return t == N_LOCL || t == N_EXT }

// Symbol is the 16-byte on-disk symbol table entry, plus the resolved
// name carried alongside it in memory (the wire form only stores n_strx).
type Symbol struct {
	Name   string
	Nstrx  uint32
	Ntype  NType
	Nsect  uint8  // 1-based; 0 = no section
	Ndesc  uint16
	Nvalue uint64
}

const SymbolSize = 16

func (s *Symbol) Put(b []byte, o binary.ByteOrder) int {
	o.PutUint32(b[0:], s.Nstrx)
	b[4] = byte(s.Ntype)
	b[5] = s.Nsect
	o.PutUint16(b[6:], s.Ndesc)
	o.PutUint64(b[8:], s.Nvalue)
	return SymbolSize
}

func (s *Symbol) Unpack(b []byte, o binary.ByteOrder) {
	s.Nstrx = o.Uint32(b[0:])
	s.Ntype = NType(b[4])
	s.Nsect = b[5]
	s.Ndesc = o.Uint16(b[6:])
	s.Nvalue = o.Uint64(b[8:])
}

func (s Symbol) String() string {
	return fmt.Sprintf("0x%016x %s (sect %d, type 0x%02x)", s.Nvalue, s.Name, s.Nsect, s.Ntype)
}

// RelocType is the opaque relocation tag space, stable across the wire.
type RelocType uint32

const (
	RELOC_NONE                     RelocType = 0
	RELOC_ABS64                    RelocType = 1
	RELOC_ABS32                    RelocType = 2
	RELOC_REL64                    RelocType = 3
	RELOC_REL32                    RelocType = 4
	RELOC_BRANCH26                 RelocType = 5
	RELOC_GOT                      RelocType = 6
	RELOC_PLT                      RelocType = 7
	RELOC_TLS                      RelocType = 8
	RELOC_AARCH64_ADR_PREL_PG_HI21 RelocType = 9
	RELOC_AARCH64_ADD_ABS_LO12_NC  RelocType = 10
	RELOC_AARCH64_LD_PREL_LO19     RelocType = 11
)

var relocTypeStrings = []IntName{
	{uint32(RELOC_NONE), "NONE"},
	{uint32(RELOC_ABS64), "ABS64"},
	{uint32(RELOC_ABS32), "ABS32"},
	{uint32(RELOC_REL64), "REL64"},
	{uint32(RELOC_REL32), "REL32"},
	{uint32(RELOC_BRANCH26), "BRANCH26"},
	{uint32(RELOC_GOT), "GOT"},
	{uint32(RELOC_PLT), "PLT"},
	{uint32(RELOC_TLS), "TLS"},
	{uint32(RELOC_AARCH64_ADR_PREL_PG_HI21), "ADR_PREL_PG_HI21"},
	{uint32(RELOC_AARCH64_ADD_ABS_LO12_NC), "ADD_ABS_LO12_NC"},
	{uint32(RELOC_AARCH64_LD_PREL_LO19), "LD_PREL_LO19"},
}

func (t RelocType) String() string { return StringName(uint32(t), relocTypeStrings, false) }

// Relocation is the 24-byte on-disk relocation entry.
type Relocation struct {
	Addr   uint64 // absolute virtual address of the patch site
	Symbol uint32 // 0-based symbol index
	Type   RelocType
	Addend int32
}

const RelocationSize = 24

func (r *Relocation) Put(b []byte, o binary.ByteOrder) int {
	o.PutUint64(b[0:], r.Addr)
	o.PutUint32(b[8:], r.Symbol)
	o.PutUint32(b[12:], uint32(r.Type))
	o.PutUint32(b[16:], uint32(r.Addend))
	o.PutUint32(b[20:], 0)
	return RelocationSize
}

func (r *Relocation) Unpack(b []byte, o binary.ByteOrder) {
	r.Addr = o.Uint64(b[0:])
	r.Symbol = o.Uint32(b[8:])
	r.Type = RelocType(o.Uint32(b[12:]))
	r.Addend = int32(o.Uint32(b[16:]))
}

func (r Relocation) String() string {
	return fmt.Sprintf("0x%016x sym=%d %s addend=%d", r.Addr, r.Symbol, r.Type, r.Addend)
}
