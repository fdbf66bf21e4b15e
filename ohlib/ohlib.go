// Package ohlib implements the Ohlib archive codec: a header plus an
// entry table bundling multiple Ohlink member objects into one file.
package ohlib

import (
	"encoding/binary"

	"github.com/appsworld/ohlink/types"
)

// Member is one named, in-memory archive member.
type Member struct {
	Name string
	Data []byte
}

// Builder accumulates (name, bytes) pairs and writes the archive on
// Build: header, entry table, then concatenated member bodies.
type Builder struct {
	members []Member
}

func NewBuilder() *Builder { return &Builder{} }

// AddMember appends a member to the archive.
func (b *Builder) AddMember(name string, data []byte) {
	b.members = append(b.members, Member{Name: name, Data: data})
}

// Build serializes the archive.
func (b *Builder) Build() []byte {
	o := binary.LittleEndian
	entryTableOff := types.ArchiveHeaderSize
	bodyStart := uint64(entryTableOff + len(b.members)*types.ArchiveEntrySize)

	total := bodyStart
	for _, m := range b.members {
		total += uint64(len(m.Data))
	}

	out := make([]byte, total)
	hdr := types.ArchiveHeader{Magic: types.ArchiveMagic, Nentries: uint32(len(b.members))}
	hdr.Put(out, o)

	cursor := bodyStart
	entryOff := entryTableOff
	for _, m := range b.members {
		var e types.ArchiveEntry
		types.PutName(e.Name[:31], m.Name)
		e.Offset = cursor
		e.Size = uint64(len(m.Data))
		e.Put(out[entryOff:], o)
		copy(out[cursor:cursor+e.Size], m.Data)
		cursor += e.Size
		entryOff += types.ArchiveEntrySize
	}
	return out
}

// Archive is a parsed, read-only view of an Ohlib file.
type Archive struct {
	Entries []types.ArchiveEntry
	data    []byte
}

// Parse validates the archive magic and entry table, returning a view
// that slices member bytes out of an owned copy of data.
func Parse(data []byte) (*Archive, error) {
	buf := make([]byte, len(data))
	copy(buf, data)

	if len(buf) < types.ArchiveHeaderSize {
		return nil, &types.ParseError{Off: 0, Msg: "archive shorter than header"}
	}
	o := binary.LittleEndian
	var hdr types.ArchiveHeader
	hdr.Unpack(buf, o)
	if hdr.Magic != types.ArchiveMagic {
		return nil, ErrInvalidMagic
	}

	entryEnd := int64(types.ArchiveHeaderSize) + int64(hdr.Nentries)*types.ArchiveEntrySize
	if entryEnd > int64(len(buf)) {
		return nil, &types.ParseError{Off: int64(types.ArchiveHeaderSize), Msg: "entry table exceeds archive length"}
	}

	a := &Archive{data: buf}
	off := int64(types.ArchiveHeaderSize)
	for i := uint32(0); i < hdr.Nentries; i++ {
		var e types.ArchiveEntry
		e.Unpack(buf[off:], o)
		if e.Offset+e.Size > uint64(len(buf)) {
			return nil, &types.ParseError{Off: off, Msg: "member bytes out of range", Val: i}
		}
		a.Entries = append(a.Entries, e)
		off += types.ArchiveEntrySize
	}
	return a, nil
}

// Member returns the i'th member's name and sliced bytes.
func (a *Archive) Member(i int) (string, []byte) {
	e := a.Entries[i]
	return types.NameFromBytes(e.Name[:]), a.data[e.Offset : e.Offset+e.Size]
}
