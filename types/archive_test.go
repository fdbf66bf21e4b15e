package types

import (
	"encoding/binary"
	"testing"
)

func TestArchiveHeaderPutUnpack(t *testing.T) {
	h := ArchiveHeader{Magic: ArchiveMagic, Nentries: 5}
	buf := make([]byte, ArchiveHeaderSize)
	h.Put(buf, binary.LittleEndian)

	var got ArchiveHeader
	got.Unpack(buf, binary.LittleEndian)
	if got != h {
		t.Errorf("round-trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestArchiveEntryPutUnpack(t *testing.T) {
	var e ArchiveEntry
	PutName(e.Name[:], "member.o")
	e.Offset = 64
	e.Size = 128

	buf := make([]byte, ArchiveEntrySize)
	e.Put(buf, binary.LittleEndian)

	var got ArchiveEntry
	got.Unpack(buf, binary.LittleEndian)
	if got != e {
		t.Errorf("round-trip mismatch: got %+v, want %+v", got, e)
	}
	if name := NameFromBytes(got.Name[:]); name != "member.o" {
		t.Errorf("recovered name = %q, want member.o", name)
	}
}
