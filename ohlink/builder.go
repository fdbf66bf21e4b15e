package ohlink

import (
	"encoding/binary"

	"github.com/appsworld/ohlink/types"
)

// SegmentHandle identifies a segment added to a Builder.
type SegmentHandle int

// SectionHandle identifies a section added to a Builder.
type SectionHandle struct {
	seg, sec int
}

type buildSection struct {
	name         string
	data         []byte
	relAddr      uint64
	align        uint32
	declaredSize uint64
	relocs       []types.Relocation
}

type buildSegment struct {
	name      string
	vmaddr    uint64
	maxprot   types.VmProtection
	prot      types.VmProtection
	sections  []*buildSection
	minVMSize uint64
}

// Builder is a linear accumulator for an Ohlink container: segments,
// sections, and symbols are added in order, then Build consumes the
// accumulator and produces the file bytes exactly once.
type Builder struct {
	fileType types.HeaderFileType
	segments []*buildSegment
	symbols  []types.Symbol
	built    bool
}

// NewBuilder creates a builder that will emit a file of the given type.
func NewBuilder(fileType types.HeaderFileType) *Builder {
	return &Builder{fileType: fileType}
}

// AddSegment appends a new segment with the given name and base virtual
// address, returning a handle for AddSection calls.
func (b *Builder) AddSegment(name string, vmaddr uint64, maxprot, prot types.VmProtection) SegmentHandle {
	b.segments = append(b.segments, &buildSegment{name: name, vmaddr: vmaddr, maxprot: maxprot, prot: prot})
	return SegmentHandle(len(b.segments) - 1)
}

// AddSection appends a section to seg. relAddr is the section's address
// relative to the segment's vmaddr. If data is empty and declaredSize is
// nonzero, the section is zero-fill: it occupies no file bytes but
// contributes declaredSize to the segment's memory extent.
func (b *Builder) AddSection(seg SegmentHandle, name string, data []byte, relAddr uint64, align uint32, declaredSize uint64) SectionHandle {
	s := b.segments[seg]
	bs := &buildSection{name: name, data: data, relAddr: relAddr, align: align, declaredSize: declaredSize}
	s.sections = append(s.sections, bs)
	return SectionHandle{seg: int(seg), sec: len(s.sections) - 1}
}

// SetMinVMSize ensures the segment's emitted vmsize is at least size,
// even if its sections don't extend that far. Used for reserved regions
// such as a zero-page guard segment that has no backing sections.
func (b *Builder) SetMinVMSize(seg SegmentHandle, size uint64) {
	b.segments[seg].minVMSize = size
}

// AppendRelocations attaches relocation records to a section, to be
// written immediately after its data on Build.
func (b *Builder) AppendRelocations(sec SectionHandle, relocs []types.Relocation) {
	s := b.segments[sec.seg].sections[sec.sec]
	s.relocs = append(s.relocs, relocs...)
}

// AddSymbol appends a symbol and returns its 0-based index in the final
// symbol table.
func (b *Builder) AddSymbol(name string, value uint64, sectionOrdinal uint32, ntype types.NType, ndesc uint16) uint32 {
	b.symbols = append(b.symbols, types.Symbol{
		Name:   name,
		Ntype:  ntype,
		Nsect:  uint8(sectionOrdinal),
		Ndesc:  ndesc,
		Nvalue: value,
	})
	return uint32(len(b.symbols) - 1)
}

func alignUp(x uint64, align uint32) uint64 {
	if align == 0 {
		align = 1
	}
	return types.RoundUp(x, uint64(align))
}

func orOne(align uint32) uint32 {
	if align == 0 {
		return 1
	}
	return align
}

// laidSection is a section after step-3 layout: relative (pre-base)
// offsets within the contiguous segment-data region.
type laidSection struct {
	sec         *buildSection
	relOffset   uint64 // 0 when zero-fill
	relRelocOff uint64 // 0 when no relocations
	size        uint64
}

// laidSegment is a segment after step-3 layout.
type laidSegment struct {
	seg       *buildSegment
	sections  []laidSection
	regionOff uint64 // relative start of this segment's data region
	filesz    uint64
	vmsize    uint64
}

// Build finalizes the accumulator and returns the serialized file bytes.
// It follows the ordering contract exactly: header, load commands,
// segment data and relocations, symbol table, string table.
func (b *Builder) Build() ([]byte, error) {
	if b.built {
		return nil, errBuiltTwice
	}
	b.built = true
	o := binary.LittleEndian

	// Step 1-2: reserve the header, compute sizeofcmds and base.
	sizeofcmds := uint32(0)
	for _, seg := range b.segments {
		sizeofcmds += uint32(types.SegmentHeaderSize + len(seg.sections)*types.SectionHeaderSize)
	}
	sizeofcmds += types.SymtabCmdSize + types.NoteAbiCmdSize
	base := uint64(types.FileHeaderSize) + uint64(sizeofcmds)

	// Step 3: lay out section data and relocations, relative to the
	// start of the data region (base is added in step 4, when the load
	// commands and data are written below).
	var laidSegs []laidSegment
	var fileCursor uint64

	for _, seg := range b.segments {
		ls := laidSegment{seg: seg, regionOff: fileCursor}
		var vmMax uint64
		for _, sec := range seg.sections {
			size := sec.declaredSize
			if len(sec.data) > 0 {
				size = uint64(len(sec.data))
			}
			var relOff uint64
			if len(sec.data) > 0 {
				fileCursor = alignUp(fileCursor, sec.align)
				relOff = fileCursor
				fileCursor += uint64(len(sec.data))
			}
			var relRelocOff uint64
			if len(sec.relocs) > 0 {
				relRelocOff = fileCursor
				fileCursor += uint64(len(sec.relocs)) * types.RelocationSize
			}
			ls.sections = append(ls.sections, laidSection{sec: sec, relOffset: relOff, relRelocOff: relRelocOff, size: size})
			if ext := sec.relAddr + size; ext > vmMax {
				vmMax = ext
			}
		}
		ls.filesz = fileCursor - ls.regionOff
		ls.vmsize = vmMax
		if seg.minVMSize > ls.vmsize {
			ls.vmsize = seg.minVMSize
		}
		laidSegs = append(laidSegs, ls)
	}
	dataRegionSize := fileCursor

	// Step 5: symbol table immediately after all segment data, string
	// table immediately after that.
	symoff := base + dataRegionSize
	strtab := []byte{0} // first byte always zero, n_strx=0 is the empty string
	strx := make([]uint32, len(b.symbols))
	for i, sym := range b.symbols {
		strx[i] = uint32(len(strtab))
		strtab = append(strtab, []byte(sym.Name)...)
		strtab = append(strtab, 0)
	}
	stroff := symoff + uint64(len(b.symbols))*types.SymbolSize
	strsize := uint32(len(strtab))

	hdr := types.FileHeader{
		Magic:        types.Magic64,
		CPU:          types.CPUArm64,
		SubCPU:       types.CPUSubtypeArm64All,
		Type:         b.fileType,
		NCommands:    uint32(len(b.segments)) + 2,
		SizeCommands: sizeofcmds,
	}

	totalSize := stroff + uint64(strsize)
	out := make([]byte, totalSize)
	hdr.Put(out, o)

	// Step 6-7: load commands (segments, then Symtab, then NoteAbi).
	cmdOff := int64(types.FileHeaderSize)
	for _, ls := range laidSegs {
		seg := ls.seg
		var segName [16]byte
		types.PutName(segName[:], seg.name)
		s64 := types.Segment64{
			Name:    segName,
			Addr:    seg.vmaddr,
			Memsz:   ls.vmsize,
			Offset:  base + ls.regionOff,
			Filesz:  ls.filesz,
			Maxprot: seg.maxprot,
			Prot:    seg.prot,
			Nsect:   uint32(len(seg.sections)),
		}
		cmdOff += int64((&s64).Put(out[cmdOff:], o))

		for _, lsec := range ls.sections {
			var sectName, segNameB [16]byte
			types.PutName(sectName[:], lsec.sec.name)
			types.PutName(segNameB[:], seg.name)
			var fileOffset uint32
			if len(lsec.sec.data) > 0 {
				fileOffset = uint32(base + lsec.relOffset)
			}
			var reloff uint32
			if len(lsec.sec.relocs) > 0 {
				reloff = uint32(base + lsec.relRelocOff)
			}
			sh := types.Section64{
				SectName: sectName,
				SegName:  segNameB,
				Addr:     seg.vmaddr + lsec.sec.relAddr,
				Size:     lsec.size,
				Offset:   fileOffset,
				Align:    orOne(lsec.sec.align),
				Reloff:   reloff,
				Nreloc:   uint32(len(lsec.sec.relocs)),
			}
			cmdOff += int64((&sh).Put(out[cmdOff:], o))
		}
	}

	st := types.SymtabCmd{Symoff: uint32(symoff), Nsyms: uint32(len(b.symbols)), Stroff: uint32(stroff), Strsize: strsize}
	cmdOff += int64((&st).Put(out[cmdOff:], o))
	note := types.NoteAbiCmd{AbiVersion: 1, Flags: 0}
	cmdOff += int64((&note).Put(out[cmdOff:], o))

	// Step 8 (body): segment data and relocations, at their absolute
	// (base-shifted) positions.
	for _, ls := range laidSegs {
		for _, lsec := range ls.sections {
			if len(lsec.sec.data) > 0 {
				abs := base + lsec.relOffset
				copy(out[abs:abs+uint64(len(lsec.sec.data))], lsec.sec.data)
			}
			if len(lsec.sec.relocs) > 0 {
				rp := base + lsec.relRelocOff
				for _, r := range lsec.sec.relocs {
					rr := r
					(&rr).Put(out[rp:], o)
					rp += types.RelocationSize
				}
			}
		}
	}

	// Symbol table, then string table.
	sp := symoff
	for i, sym := range b.symbols {
		s := sym
		s.Nstrx = strx[i]
		(&s).Put(out[sp:], o)
		sp += types.SymbolSize
	}
	copy(out[stroff:], strtab)

	return out, nil
}

var errBuiltTwice = builderError("ohlink: builder already built")

type builderError string

func (e builderError) Error() string { return string(e) }
