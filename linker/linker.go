// Package linker merges Ohlink objects (and Ohlib archive members, and
// translated foreign ELF inputs) into a single Ohlink executable or
// archive: input classification, archive selective inclusion, section
// merging with alignment, AArch64 relocation application, and symbol
// resolution.
package linker

import (
	"bytes"
	"debug/elf"
	"fmt"
	"path/filepath"

	"github.com/appsworld/ohlink/elfconv"
	"github.com/appsworld/ohlink/ohlib"
	"github.com/appsworld/ohlink/ohlink"
	"github.com/appsworld/ohlink/types"
)

// Default section placement bases, per the format's linker defaults.
const (
	DefaultTextBase = 0x4000_0000
	DefaultDataBase = 0x4000_8000
)

// RawInput is one input file as given on the command line: its path (used
// for diagnostics and, in library mode, as the archive member name) and
// its raw bytes.
type RawInput struct {
	Path string
	Data []byte
}

// DefaultPageZeroSize is the size of the unmapped guard segment placed
// ahead of __TEXT in executable output, unless suppressed.
const DefaultPageZeroSize = 0x1_0000_0000

// Options configures a Link invocation.
type Options struct {
	TextBase     uint64
	DataBase     uint64
	Entry        string
	Library      bool
	WholeArchive bool
	NoPageZero   bool
}

func (o Options) withDefaults() Options {
	if o.TextBase == 0 {
		o.TextBase = DefaultTextBase
	}
	if o.DataBase == 0 {
		o.DataBase = DefaultDataBase
	}
	if o.Entry == "" {
		o.Entry = "_start"
	}
	return o
}

// Result carries the linked output and diagnostics a caller can print.
type Result struct {
	Output   []byte
	Warnings []string
	Entry    uint64
}

type kind int

const (
	kindObject kind = iota
	kindArchive
	kindForeignELF
	kindUnknown
)

func classify(data []byte) kind {
	if len(data) < 4 {
		return kindUnknown
	}
	magic := bytesToU32LE(data)
	switch types.Magic(magic) {
	case types.Magic32, types.Magic64:
		return kindObject
	}
	if magic == types.ArchiveMagic {
		return kindArchive
	}
	if _, err := elf.NewFile(bytes.NewReader(data)); err == nil {
		return kindForeignELF
	}
	return kindUnknown
}

func bytesToU32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// loadedObject is a direct object input after classification: either a
// native Ohlink object or the result of translating a foreign ELF.
type loadedObject struct {
	name string
	file *ohlink.File
}

// Link performs input classification, (library mode |) archive
// expansion, section merging, relocation application, and symbol
// resolution, returning the linked Ohlink bytes.
func Link(inputs []RawInput, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	res := &Result{}

	var objects []loadedObject
	var archives []*ohlib.Archive
	var archiveNames []string

	for _, in := range inputs {
		switch classify(in.Data) {
		case kindArchive:
			a, err := ohlib.Parse(in.Data)
			if err != nil {
				return nil, fmt.Errorf("linker: parsing archive %s: %w", in.Path, err)
			}
			archives = append(archives, a)
			archiveNames = append(archiveNames, in.Path)

		case kindObject:
			f, err := ohlink.NewFile(in.Data)
			if err != nil {
				return nil, fmt.Errorf("linker: parsing object %s: %w", in.Path, err)
			}
			objects = append(objects, loadedObject{name: in.Path, file: f})

		case kindForeignELF:
			ef, err := elf.NewFile(bytes.NewReader(in.Data))
			if err != nil {
				return nil, fmt.Errorf("linker: re-reading ELF %s: %w", in.Path, err)
			}
			converted, err := elfconv.Convert(ef, elfconv.Options{RodataSection: "__rodata", FileType: types.MH_OBJECT})
			if err != nil {
				return nil, fmt.Errorf("linker: converting ELF %s: %w", in.Path, err)
			}
			f, err := ohlink.NewFile(converted)
			if err != nil {
				return nil, fmt.Errorf("linker: re-parsing converted %s: %w", in.Path, err)
			}
			objects = append(objects, loadedObject{name: in.Path, file: f})

		default:
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: unrecognized format, substituting empty object", in.Path))
			objects = append(objects, loadedObject{name: in.Path, file: emptyObject()})
		}
	}

	if opts.Library {
		return linkLibrary(objects)
	}

	included, err := expandArchives(objects, archives, archiveNames, opts.WholeArchive, opts.Entry)
	if err != nil {
		return nil, err
	}
	objects = append(objects, included...)

	out, entry, err := mergeAndLink(objects, opts)
	if err != nil {
		return nil, err
	}
	res.Output = out
	res.Entry = entry
	return res, nil
}

// emptyObject is the placeholder substituted for an unrecognized input so
// mixed-input sessions can proceed.
func emptyObject() *ohlink.File {
	b := ohlink.NewBuilder(types.MH_OBJECT)
	bytes, err := b.Build()
	if err != nil {
		panic(err) // an empty builder can never fail to finalize
	}
	f, err := ohlink.NewFile(bytes)
	if err != nil {
		panic(err)
	}
	return f
}

func linkLibrary(objects []loadedObject) (*Result, error) {
	ab := ohlib.NewBuilder()
	for _, o := range objects {
		if o.file.Type != types.MH_OBJECT {
			return nil, fmt.Errorf("linker: only MH_OBJECT can be archived into .ohlib: %s", o.name)
		}
		raw, err := rebuildObject(o.file)
		if err != nil {
			return nil, fmt.Errorf("linker: re-serializing %s: %w", o.name, err)
		}
		ab.AddMember(filepath.Base(o.name), raw)
	}
	return &Result{Output: ab.Build()}, nil
}

// rebuildObject round-trips a parsed File back through a Builder, used
// when a member must be re-emitted verbatim (e.g. into an archive).
func rebuildObject(f *ohlink.File) ([]byte, error) {
	b := ohlink.NewBuilder(f.Type)
	for _, seg := range f.Segments() {
		sh := b.AddSegment(seg.Name(), seg.Addr, seg.Maxprot, seg.Prot)
		for _, sec := range seg.Sections {
			declared := sec.Size
			sch := b.AddSection(sh, sec.Name(), sec.Data, sec.Addr-seg.Addr, sec.Align, declared)
			if len(sec.Relocs) > 0 {
				b.AppendRelocations(sch, sec.Relocs)
			}
		}
	}
	for _, sym := range f.Symbols() {
		b.AddSymbol(sym.Name, sym.Nvalue, uint32(sym.Nsect), sym.Ntype, sym.Ndesc)
	}
	return b.Build()
}
