// Package elfconv translates AArch64 ELF relocatable objects into Ohlink
// object files. It is the single translation path used both by the
// standalone converter and, internally, by the linker when it is handed
// a foreign ELF input — consolidating what was duplicated translation
// logic into one place.
package elfconv

import (
	"debug/elf"
	"fmt"

	"github.com/appsworld/ohlink/ohlink"
	"github.com/appsworld/ohlink/types"
)

// Options controls section-name targeting. RodataSection lets the linker's
// own pre-merge pass target a different intermediate section name
// (historically "__rodata") than the standalone converter's "__cstring",
// per the format's design notes on reconciling ELF rodata handling.
type Options struct {
	RodataSection string // default "__cstring" when empty
	FileType      types.HeaderFileType
}

// Convert translates a parsed ELF relocatable object into Ohlink object
// bytes. Unknown sections are dropped; accepted sections preserve their
// ELF alignment, size, and virtual address.
func Convert(ef *elf.File, opts Options) ([]byte, error) {
	if opts.RodataSection == "" {
		opts.RodataSection = "__cstring"
	}
	if opts.FileType == 0 {
		opts.FileType = types.MH_OBJECT
	}

	b := ohlink.NewBuilder(opts.FileType)
	textSeg := b.AddSegment("__TEXT", 0, types.ProtRX, types.ProtRX)
	dataSeg := b.AddSegment("__DATA", 0, types.ProtRW, types.ProtRW)

	type placedSection struct {
		handle ohlink.SectionHandle
		inData bool   // placed in __DATA, after every __TEXT section
		pos    uint32 // 0-based position within its segment
	}

	// n_sect ordinals are 1-based positions in the flattened section list:
	// every __TEXT section first, then every __DATA section.
	var nText, nData uint32
	secMap := make(map[int]placedSection)

	for i, sec := range ef.Sections {
		seg, name, zerofill := classify(sec.Name, opts.RodataSection, textSeg, dataSeg)
		if name == "" {
			continue
		}
		var data []byte
		if !zerofill {
			d, err := sec.Data()
			if err != nil {
				return nil, fmt.Errorf("elfconv: reading section %s: %w", sec.Name, err)
			}
			data = d
		}
		align := uint32(sec.Addralign)
		h := b.AddSection(seg, name, data, sec.Addr, align, sec.Size)
		ps := placedSection{handle: h, inData: seg == dataSeg}
		if ps.inData {
			ps.pos = nData
			nData++
		} else {
			ps.pos = nText
			nText++
		}
		secMap[i] = ps
	}

	syms, err := ef.Symbols()
	if err != nil && err != elf.ErrNoSymbols {
		return nil, fmt.Errorf("elfconv: reading symbols: %w", err)
	}

	// debug/elf's Symbols() drops the leading null symtab entry, so slice
	// position i corresponds to raw symbol-table index i+1 (the index
	// relocation r_info fields actually reference).
	symIndex := make(map[uint32]uint32, len(syms))
	for i, sym := range syms {
		var ntype types.NType
		var nsect uint32
		if sym.Section == elf.SHN_UNDEF {
			ntype = types.N_UNDF
		} else if placed, ok := secMap[int(sym.Section)]; ok {
			nsect = placed.pos + 1
			if placed.inData {
				nsect += nText
			}
			if elf.ST_BIND(sym.Info) == elf.STB_GLOBAL || elf.ST_BIND(sym.Info) == elf.STB_WEAK {
				ntype = types.N_EXT
			} else {
				ntype = types.N_LOCL
			}
		} else {
			ntype = types.N_UNDF
		}
		idx := b.AddSymbol(sym.Name, sym.Value, nsect, ntype, 0)
		symIndex[uint32(i+1)] = idx
	}

	for i, sec := range ef.Sections {
		placed, ok := secMap[i]
		if !ok {
			continue
		}
		relocs, err := readRelocations(ef, sec, symIndex)
		if err != nil {
			return nil, err
		}
		if len(relocs) > 0 {
			b.AppendRelocations(placed.handle, relocs)
		}
	}

	return b.Build()
}

// classify maps an ELF section name to its Ohlink segment/section and
// whether it is zero-fill (BSS).
func classify(name, rodataName string, textSeg, dataSeg ohlink.SegmentHandle) (seg ohlink.SegmentHandle, target string, zerofill bool) {
	switch {
	case hasPrefix(name, ".text"):
		return textSeg, "__text", false
	case hasPrefix(name, ".rodata"):
		return textSeg, rodataName, false
	case hasPrefix(name, ".data"):
		return dataSeg, "__data", false
	case hasPrefix(name, ".bss"):
		return dataSeg, "__bss", true
	default:
		return 0, "", false
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func readRelocations(ef *elf.File, sec *elf.Section, symIndex map[uint32]uint32) ([]types.Relocation, error) {
	relaName := ".rela" + sec.Name
	var relaSec *elf.Section
	for _, s := range ef.Sections {
		if s.Name == relaName && s.Type == elf.SHT_RELA {
			relaSec = s
			break
		}
	}
	if relaSec == nil {
		return nil, nil
	}
	data, err := relaSec.Data()
	if err != nil {
		return nil, fmt.Errorf("elfconv: reading %s: %w", relaName, err)
	}
	const relaEntSize = 24 // Elf64_Rela: r_offset, r_info, r_addend, 8 bytes each
	var out []types.Relocation
	for off := 0; off+relaEntSize <= len(data); off += relaEntSize {
		r := elf.Rela64{
			Off:    ef.ByteOrder.Uint64(data[off:]),
			Info:   ef.ByteOrder.Uint64(data[off+8:]),
			Addend: int64(ef.ByteOrder.Uint64(data[off+16:])),
		}
		symIdx := elf.R_SYM64(r.Info)
		relType := elf.R_TYPE64(r.Info)
		tag := mapRelocType(elf.R_AARCH64(relType))
		var ohSym uint32
		if symIdx > 0 {
			ohSym = symIndex[uint32(symIdx)]
		}
		out = append(out, types.Relocation{
			Addr:   sec.Addr + r.Off,
			Symbol: ohSym,
			Type:   tag,
			Addend: int32(r.Addend),
		})
	}
	return out, nil
}

func mapRelocType(t elf.R_AARCH64) types.RelocType {
	switch t {
	case elf.R_AARCH64_ABS64:
		return types.RELOC_ABS64
	case elf.R_AARCH64_ABS32:
		return types.RELOC_ABS32
	case elf.R_AARCH64_PREL64:
		return types.RELOC_REL64
	case elf.R_AARCH64_PREL32:
		return types.RELOC_REL32
	case elf.R_AARCH64_CALL26, elf.R_AARCH64_JUMP26:
		return types.RELOC_BRANCH26
	case elf.R_AARCH64_ADR_PREL_PG_HI21:
		return types.RELOC_AARCH64_ADR_PREL_PG_HI21
	case elf.R_AARCH64_ADD_ABS_LO12_NC:
		return types.RELOC_AARCH64_ADD_ABS_LO12_NC
	case elf.R_AARCH64_LD_PREL_LO19:
		return types.RELOC_AARCH64_LD_PREL_LO19
	case elf.R_AARCH64_TLSLE_ADD_TPREL_HI12, elf.R_AARCH64_TLSLE_ADD_TPREL_LO12_NC:
		return types.RELOC_TLS
	default:
		return types.RELOC_NONE
	}
}
