package types

import (
	"encoding/binary"
	"fmt"
)

// ArchiveMagic is the leading 4 bytes of an Ohlib archive.
const ArchiveMagic uint32 = 0x0f112235

const ArchiveHeaderSize = 16
const ArchiveEntrySize = 32 + 8 + 8 // name[32], offset, size

// ArchiveHeader is the 16-byte Ohlib header.
type ArchiveHeader struct {
	Magic    uint32
	Nentries uint32
	Reserved uint64
}

func (h *ArchiveHeader) Put(b []byte, o binary.ByteOrder) int {
	o.PutUint32(b[0:], h.Magic)
	o.PutUint32(b[4:], h.Nentries)
	o.PutUint64(b[8:], h.Reserved)
	return ArchiveHeaderSize
}

func (h *ArchiveHeader) Unpack(b []byte, o binary.ByteOrder) {
	h.Magic = o.Uint32(b[0:])
	h.Nentries = o.Uint32(b[4:])
	h.Reserved = o.Uint64(b[8:])
}

// ArchiveEntry describes one member in the Ohlib entry table. Name is
// zero-padded up to 31 payload bytes.
type ArchiveEntry struct {
	Name   [32]byte
	Offset uint64
	Size   uint64
}

func (e *ArchiveEntry) Put(b []byte, o binary.ByteOrder) int {
	copy(b[0:32], e.Name[:])
	o.PutUint64(b[32:], e.Offset)
	o.PutUint64(b[40:], e.Size)
	return ArchiveEntrySize
}

func (e *ArchiveEntry) Unpack(b []byte, o binary.ByteOrder) {
	copy(e.Name[:], b[0:32])
	e.Offset = o.Uint64(b[32:])
	e.Size = o.Uint64(b[40:])
}

func (e ArchiveEntry) String() string {
	return fmt.Sprintf("%-31s off=0x%x size=%d", NameFromBytes(e.Name[:]), e.Offset, e.Size)
}
