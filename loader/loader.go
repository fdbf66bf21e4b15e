// Package loader implements the read-only projection a hypothetical
// user-space mapper would need: segment layout and entry point,
// computed from a parsed Ohlink file.
package loader

import (
	"fmt"

	"github.com/appsworld/ohlink/ohlink"
	"github.com/appsworld/ohlink/types"
)

// SegmentMap is one segment's file/virtual layout as a loader would map
// it.
type SegmentMap struct {
	Name     string
	VMAddr   uint64
	FileOff  uint64
	FileSize uint64
	VMSize   uint64
	Prot     types.VmProtection
}

// Image is the loader's view of a linked file: its segment maps and
// resolved entry point.
type Image struct {
	Segments   []SegmentMap
	Entry      uint64
	HasNoteABI bool
}

// Load builds the loader view of f. Strict is the format's "strict mode":
// when true, a missing NoteAbi (after the raw-byte-scan fallback) is
// reported as an error instead of merely noted in Image.HasNoteABI.
func Load(f *ohlink.File, raw []byte, strict bool) (*Image, error) {
	img := &Image{}
	for _, seg := range f.Segments() {
		img.Segments = append(img.Segments, SegmentMap{
			Name:     seg.Name(),
			VMAddr:   seg.Addr,
			FileOff:  seg.Offset,
			FileSize: seg.Filesz,
			VMSize:   seg.Memsz,
			Prot:     seg.Prot,
		})
	}

	if f.NoteAbi() != nil {
		img.HasNoteABI = true
	} else if raw != nil {
		if _, ok := ohlink.ScanForNoteAbi(raw, f.SizeCommands); ok {
			img.HasNoteABI = true
		}
	}
	if strict && !img.HasNoteABI {
		return nil, fmt.Errorf("loader: missing NoteAbi load command")
	}

	img.Entry = resolveEntry(f)
	return img, nil
}

// resolveEntry searches the symbol table for _start; if absent, it falls
// back to the __TEXT segment's vmaddr.
func resolveEntry(f *ohlink.File) uint64 {
	for _, sym := range f.Symbols() {
		if sym.Name == "_start" && sym.Ntype.Defined() {
			return sym.Nvalue
		}
	}
	if seg := f.Segment("__TEXT"); seg != nil {
		return seg.Addr
	}
	return 0
}
