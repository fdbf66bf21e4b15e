package types

import (
	"encoding/binary"
	"fmt"
)

// LoadCmd is the tag half of a load command's leading (cmd, cmdsize) pair.
type LoadCmd uint32

func (c LoadCmd) Command() LoadCmd { return c }

const (
	LC_SEGMENT_64 LoadCmd = 0x19 // Segment64
	LC_SYMTAB     LoadCmd = 0x2  // SymtabCmd
	LC_NOTE_ABI   LoadCmd = 0x31 // NoteAbiCmd
)

var loadCmdStrings = []IntName{
	{uint32(LC_SEGMENT_64), "SEGMENT_64"},
	{uint32(LC_SYMTAB), "SYMTAB"},
	{uint32(LC_NOTE_ABI), "NOTE_ABI"},
}

func (c LoadCmd) String() string { return StringName(uint32(c), loadCmdStrings, false) }

const (
	SegmentHeaderSize = 72 // LC_SEGMENT_64 fixed portion, excluding trailing sections
	SectionHeaderSize = 80
	SymtabCmdSize     = 24
	NoteAbiCmdSize    = 16
)

// Segment64 is a 64-bit Ohlink segment load command: segname, vmaddr,
// vmsize, fileoff, filesize, maxprot, initprot, nsects, flags, followed
// in the file by nsects Section64 headers.
type Segment64 struct {
	Name    [16]byte
	Addr    uint64
	Memsz   uint64
	Offset  uint64
	Filesz  uint64
	Maxprot VmProtection
	Prot    VmProtection
	Nsect   uint32
	Flag    uint32
}

func (s *Segment64) Command() LoadCmd { return LC_SEGMENT_64 }

func (s *Segment64) Cmdsize() uint32 {
	return uint32(SegmentHeaderSize + int(s.Nsect)*SectionHeaderSize)
}

// Put writes the (cmd, cmdsize) pair followed by the fixed segment fields.
// Trailing section headers are written separately by the caller, which
// knows about the section list.
func (s *Segment64) Put(b []byte, o binary.ByteOrder) int {
	o.PutUint32(b[0:], uint32(LC_SEGMENT_64))
	o.PutUint32(b[4:], s.Cmdsize())
	copy(b[8:24], s.Name[:])
	o.PutUint64(b[24:], s.Addr)
	o.PutUint64(b[32:], s.Memsz)
	o.PutUint64(b[40:], s.Offset)
	o.PutUint64(b[48:], s.Filesz)
	o.PutUint32(b[56:], uint32(s.Maxprot))
	o.PutUint32(b[60:], uint32(s.Prot))
	o.PutUint32(b[64:], s.Nsect)
	o.PutUint32(b[68:], s.Flag)
	return SegmentHeaderSize
}

func (s *Segment64) Unpack(b []byte, o binary.ByteOrder) {
	copy(s.Name[:], b[8:24])
	s.Addr = o.Uint64(b[24:])
	s.Memsz = o.Uint64(b[32:])
	s.Offset = o.Uint64(b[40:])
	s.Filesz = o.Uint64(b[48:])
	s.Maxprot = VmProtection(o.Uint32(b[56:]))
	s.Prot = VmProtection(o.Uint32(b[60:]))
	s.Nsect = o.Uint32(b[64:])
	s.Flag = o.Uint32(b[68:])
}

func (s Segment64) String() string {
	return fmt.Sprintf("%-16s addr=0x%x size=0x%x off=0x%x prot=%s/%s nsect=%d",
		NameFromBytes(s.Name[:]), s.Addr, s.Memsz, s.Offset, s.Prot, s.Maxprot, s.Nsect)
}

// Section64 is the fixed-size header describing one section's data region
// within its owning segment.
type Section64 struct {
	SectName  [16]byte
	SegName   [16]byte
	Addr      uint64
	Size      uint64
	Offset    uint32
	Align     uint32
	Reloff    uint32
	Nreloc    uint32
	Flags     uint32
	Reserved1 uint32
	Reserved2 uint32
	Reserved3 uint32
}

func (s *Section64) Put(b []byte, o binary.ByteOrder) int {
	copy(b[0:16], s.SectName[:])
	copy(b[16:32], s.SegName[:])
	o.PutUint64(b[32:], s.Addr)
	o.PutUint64(b[40:], s.Size)
	o.PutUint32(b[48:], s.Offset)
	o.PutUint32(b[52:], s.Align)
	o.PutUint32(b[56:], s.Reloff)
	o.PutUint32(b[60:], s.Nreloc)
	o.PutUint32(b[64:], s.Flags)
	o.PutUint32(b[68:], s.Reserved1)
	o.PutUint32(b[72:], s.Reserved2)
	o.PutUint32(b[76:], s.Reserved3)
	return SectionHeaderSize
}

func (s *Section64) Unpack(b []byte, o binary.ByteOrder) {
	copy(s.SectName[:], b[0:16])
	copy(s.SegName[:], b[16:32])
	s.Addr = o.Uint64(b[32:])
	s.Size = o.Uint64(b[40:])
	s.Offset = o.Uint32(b[48:])
	s.Align = o.Uint32(b[52:])
	s.Reloff = o.Uint32(b[56:])
	s.Nreloc = o.Uint32(b[60:])
	s.Flags = o.Uint32(b[64:])
	s.Reserved1 = o.Uint32(b[68:])
	s.Reserved2 = o.Uint32(b[72:])
	s.Reserved3 = o.Uint32(b[76:])
}

func (s Section64) String() string {
	return fmt.Sprintf("%-16s/%-16s addr=0x%x size=0x%x off=0x%x align=%d nreloc=%d",
		NameFromBytes(s.SectName[:]), NameFromBytes(s.SegName[:]), s.Addr, s.Size, s.Offset, s.Align, s.Nreloc)
}

// SymtabCmd locates the symbol table and string table.
type SymtabCmd struct {
	Symoff  uint32
	Nsyms   uint32
	Stroff  uint32
	Strsize uint32
}

func (s *SymtabCmd) Command() LoadCmd { return LC_SYMTAB }
func (s *SymtabCmd) Cmdsize() uint32  { return SymtabCmdSize }

func (s *SymtabCmd) Put(b []byte, o binary.ByteOrder) int {
	o.PutUint32(b[0:], uint32(LC_SYMTAB))
	o.PutUint32(b[4:], SymtabCmdSize)
	o.PutUint32(b[8:], s.Symoff)
	o.PutUint32(b[12:], s.Nsyms)
	o.PutUint32(b[16:], s.Stroff)
	o.PutUint32(b[20:], s.Strsize)
	return SymtabCmdSize
}

func (s *SymtabCmd) Unpack(b []byte, o binary.ByteOrder) {
	s.Symoff = o.Uint32(b[8:])
	s.Nsyms = o.Uint32(b[12:])
	s.Stroff = o.Uint32(b[16:])
	s.Strsize = o.Uint32(b[20:])
}

func (s SymtabCmd) String() string {
	return fmt.Sprintf("symoff=0x%x nsyms=%d stroff=0x%x strsize=%d", s.Symoff, s.Nsyms, s.Stroff, s.Strsize)
}

// NoteAbiCmd asserts that a file targets this system's ABI.
type NoteAbiCmd struct {
	AbiVersion uint32
	Flags      uint32
}

func (n *NoteAbiCmd) Command() LoadCmd { return LC_NOTE_ABI }
func (n *NoteAbiCmd) Cmdsize() uint32  { return NoteAbiCmdSize }

func (n *NoteAbiCmd) Put(b []byte, o binary.ByteOrder) int {
	o.PutUint32(b[0:], uint32(LC_NOTE_ABI))
	o.PutUint32(b[4:], NoteAbiCmdSize)
	o.PutUint32(b[8:], n.AbiVersion)
	o.PutUint32(b[12:], n.Flags)
	return NoteAbiCmdSize
}

func (n *NoteAbiCmd) Unpack(b []byte, o binary.ByteOrder) {
	n.AbiVersion = o.Uint32(b[8:])
	n.Flags = o.Uint32(b[12:])
}

func (n NoteAbiCmd) String() string {
	return fmt.Sprintf("abi_version=%d flags=0x%x", n.AbiVersion, n.Flags)
}

// UnknownCmd preserves an unrecognized load command verbatim so that
// parsing round-trips files this system does not otherwise interpret.
type UnknownCmd struct {
	Cmd     LoadCmd
	Len     uint32
	Raw     []byte // the full cmdsize bytes, including the (cmd, cmdsize) header
}

func (u *UnknownCmd) Command() LoadCmd { return u.Cmd }
func (u *UnknownCmd) Cmdsize() uint32  { return u.Len }

func (u *UnknownCmd) Put(b []byte, o binary.ByteOrder) int {
	return copy(b, u.Raw)
}

func (u UnknownCmd) String() string {
	return fmt.Sprintf("unknown cmd=0x%x size=%d", uint32(u.Cmd), u.Len)
}
