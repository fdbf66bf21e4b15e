package types

import (
	"encoding/binary"
	"fmt"
)

// FileHeader is the 32-byte Ohlink container header.
type FileHeader struct {
	Magic        Magic
	CPU          CPU
	SubCPU       CPUSubtype
	Type         HeaderFileType
	NCommands    uint32
	SizeCommands uint32
	Flags        uint32
	Reserved     uint32
}

const FileHeaderSize = 32

// Put writes the header in little-endian wire format and returns the
// number of bytes written (always FileHeaderSize).
func (h *FileHeader) Put(b []byte, o binary.ByteOrder) int {
	o.PutUint32(b[0:], uint32(h.Magic))
	o.PutUint32(b[4:], uint32(h.CPU))
	o.PutUint32(b[8:], uint32(h.SubCPU))
	o.PutUint32(b[12:], uint32(h.Type))
	o.PutUint32(b[16:], h.NCommands)
	o.PutUint32(b[20:], h.SizeCommands)
	o.PutUint32(b[24:], h.Flags)
	o.PutUint32(b[28:], h.Reserved)
	return FileHeaderSize
}

func (h *FileHeader) Unpack(b []byte, o binary.ByteOrder) {
	h.Magic = Magic(o.Uint32(b[0:]))
	h.CPU = CPU(o.Uint32(b[4:]))
	h.SubCPU = CPUSubtype(o.Uint32(b[8:]))
	h.Type = HeaderFileType(o.Uint32(b[12:]))
	h.NCommands = o.Uint32(b[16:])
	h.SizeCommands = o.Uint32(b[20:])
	h.Flags = o.Uint32(b[24:])
	h.Reserved = o.Uint32(b[28:])
}

// Magic is the leading 4-byte tag identifying an Ohlink container.
type Magic uint32

const (
	Magic32 Magic = 0x0f112233 // 32-bit tag, accepted by the parser, never emitted
	Magic64 Magic = 0x0f112234 // 64-bit tag, the only one this system emits
)

var magicStrings = []IntName{
	{uint32(Magic32), "Ohlink32"},
	{uint32(Magic64), "Ohlink64"},
}

func (m Magic) String() string   { return StringName(uint32(m), magicStrings, false) }
func (m Magic) GoString() string { return StringName(uint32(m), magicStrings, true) }

// HeaderFileType distinguishes relocatable objects, executables, and
// dynamic libraries. The only producer of a dylib-typed file is
// elf2ohlink's --file-type dylib, which writes the same layout as an
// object with this type tag; the linker's Ohlink output is always an
// executable.
type HeaderFileType uint32

const (
	MH_OBJECT  HeaderFileType = 0x1
	MH_EXECUTE HeaderFileType = 0x2
	MH_DYLIB   HeaderFileType = 0x6
)

var fileTypeStrings = []IntName{
	{uint32(MH_OBJECT), "OBJECT"},
	{uint32(MH_EXECUTE), "EXECUTE"},
	{uint32(MH_DYLIB), "DYLIB"},
}

func (t HeaderFileType) String() string { return StringName(uint32(t), fileTypeStrings, false) }

func (h FileHeader) String() string {
	return fmt.Sprintf(
		"Magic    = %s\nType     = %s\nCPU      = %s\nCommands = %d (size %d)\n",
		h.Magic, h.Type, h.CPU, h.NCommands, h.SizeCommands,
	)
}
