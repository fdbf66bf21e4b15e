// Package ohlink implements the Ohlink container codec: the serializer
// ("builder") that assembles an AArch64 object/executable/dylib file, and
// the parser that reconstructs an in-memory view from raw bytes.
package ohlink

import (
	"encoding/binary"
	"fmt"

	"github.com/appsworld/ohlink/types"
)

// Load is the common interface satisfied by every load command variant,
// recognized or not. Unrecognized commands are preserved as raw bytes so
// that parsing round-trips files this system does not otherwise interpret.
type Load interface {
	Command() types.LoadCmd
	Cmdsize() uint32
	String() string
}

// Section is a single section's header plus its data and any relocations
// targeting it.
type Section struct {
	types.Section64
	Data   []byte
	Relocs []types.Relocation
}

func (s *Section) Name() string    { return types.NameFromBytes(s.SectName[:]) }
func (s *Section) SegName() string { return types.NameFromBytes(s.Section64.SegName[:]) }

// Segment is a Segment64 load command plus its trailing section headers.
type Segment struct {
	types.Segment64
	Sections []*Section
}

func (s *Segment) Command() types.LoadCmd { return types.LC_SEGMENT_64 }
func (s *Segment) Cmdsize() uint32        { return uint32(types.SegmentHeaderSize + len(s.Sections)*types.SectionHeaderSize) }
func (s *Segment) Name() string           { return types.NameFromBytes(s.Segment64.Name[:]) }

func (s *Segment) String() string {
	return fmt.Sprintf("LC_SEGMENT_64 %s", s.Segment64.String())
}

// Symtab is the SymtabCmd load command plus the resolved symbol list.
type Symtab struct {
	types.SymtabCmd
	Syms []types.Symbol
}

func (s *Symtab) Command() types.LoadCmd { return types.LC_SYMTAB }
func (s *Symtab) Cmdsize() uint32        { return types.SymtabCmdSize }
func (s *Symtab) String() string         { return "LC_SYMTAB " + s.SymtabCmd.String() }

// NoteAbi is the NoteAbiCmd load command.
type NoteAbi struct {
	types.NoteAbiCmd
}

func (n *NoteAbi) Command() types.LoadCmd { return types.LC_NOTE_ABI }
func (n *NoteAbi) Cmdsize() uint32        { return types.NoteAbiCmdSize }
func (n *NoteAbi) String() string         { return "LC_NOTE_ABI " + n.NoteAbiCmd.String() }

// Unknown preserves an unrecognized load command verbatim.
type Unknown struct {
	types.UnknownCmd
}

func (u *Unknown) Command() types.LoadCmd { return u.Cmd }
func (u *Unknown) Cmdsize() uint32        { return u.Len }
func (u *Unknown) String() string         { return u.UnknownCmd.String() }

// File is the parsed, in-memory structural view of an Ohlink container.
// It is immutable once returned by NewFile; mutation happens only by
// round-tripping through a Builder.
type File struct {
	types.FileHeader
	ByteOrder binary.ByteOrder
	Loads     []Load
}

// Segments returns every Segment64 load command, in load order.
func (f *File) Segments() []*Segment {
	var segs []*Segment
	for _, l := range f.Loads {
		if s, ok := l.(*Segment); ok {
			segs = append(segs, s)
		}
	}
	return segs
}

// Segment returns the named segment, or nil.
func (f *File) Segment(name string) *Segment {
	for _, s := range f.Segments() {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

// Section returns the named section within the named segment, or nil.
func (f *File) Section(segname, sectname string) *Section {
	seg := f.Segment(segname)
	if seg == nil {
		return nil
	}
	for _, sec := range seg.Sections {
		if sec.Name() == sectname {
			return sec
		}
	}
	return nil
}

// FlatSections returns every section across every segment in emission
// order: segments in creation order, sections within each in insertion
// order. This is the ordering that backs n_sect ordinals (§3 invariant 7).
func (f *File) FlatSections() []*Section {
	var out []*Section
	for _, seg := range f.Segments() {
		out = append(out, seg.Sections...)
	}
	return out
}

// Symtab returns the file's symbol table command, or nil.
func (f *File) Symtab() *Symtab {
	for _, l := range f.Loads {
		if s, ok := l.(*Symtab); ok {
			return s
		}
	}
	return nil
}

// NoteAbi returns the file's NoteAbi command, or nil if the structured
// parse did not find one (callers needing strict-mode tolerance should
// fall back to ScanForNoteAbi on the raw bytes).
func (f *File) NoteAbi() *NoteAbi {
	for _, l := range f.Loads {
		if n, ok := l.(*NoteAbi); ok {
			return n
		}
	}
	return nil
}

// Symbols is a convenience accessor equivalent to Symtab().Syms, returning
// nil if there is no symbol table.
func (f *File) Symbols() []types.Symbol {
	if st := f.Symtab(); st != nil {
		return st.Syms
	}
	return nil
}
