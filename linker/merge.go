package linker

import (
	"github.com/appsworld/ohlink/ohlink"
	"github.com/appsworld/ohlink/types"
)

// sectionInfo tracks, per original section of a merged-in object, the
// data needed to resolve relocations and symbol values after merging:
// its old absolute address, its new absolute address, and its ordinal in
// the final output's flattened section list.
type sectionInfo struct {
	oldAddr    uint64
	newAddr    uint64
	newOrdinal uint32
}

type mergedSection struct {
	targetSeg string // "__TEXT" or "__DATA"
	name      string
	data      []byte
	align     uint32
	declared  uint64
	newAddr   uint64
}

func orOneU32(align uint32) uint32 {
	if align == 0 {
		return 1
	}
	return align
}

func alignUp64(x uint64, align uint32) uint64 {
	a := uint64(orOneU32(align))
	return types.RoundUp(x, a)
}

// mergeAndLink implements §4.4's section merging, two-pass relocation
// application, symbol resolution, and final object assembly.
func mergeAndLink(objects []loadedObject, opts Options) ([]byte, uint64, error) {
	// Pass 1: lay out every accepted section at its new address, copying
	// its bytes, without yet patching relocations (those need the global
	// symbol table built below).
	var merged []*mergedSection
	perObjectInfo := make([][]sectionInfo, len(objects))
	var curText, curData uint64

	for oi, obj := range objects {
		flat := obj.file.FlatSections()
		info := make([]sectionInfo, len(flat))
		i := 0
		for _, seg := range obj.file.Segments() {
			var target string
			switch seg.Name() {
			case "__TEXT":
				target = "__TEXT"
			case "__DATA":
				target = "__DATA"
			default:
				target = ""
			}
			for _, sec := range seg.Sections {
				info[i].oldAddr = sec.Addr
				if target != "" {
					align := orOneU32(sec.Align)
					var cur *uint64
					if target == "__TEXT" {
						cur = &curText
					} else {
						cur = &curData
					}
					*cur = alignUp64(*cur, align)
					base := opts.TextBase
					if target == "__DATA" {
						base = opts.DataBase
					}
					newAddr := base + *cur
					dataCopy := append([]byte(nil), sec.Data...)
					if len(dataCopy) > 0 {
						*cur += uint64(len(dataCopy))
					}
					info[i].newAddr = newAddr
					merged = append(merged, &mergedSection{
						targetSeg: target,
						name:      sec.Name(),
						data:      dataCopy,
						align:     sec.Align,
						declared:  sec.Size,
						newAddr:   newAddr,
					})
					info[i].newOrdinal = uint32(len(merged)) // provisional; fixed below
				}
				i++
			}
		}
		perObjectInfo[oi] = info
	}

	// Final ordinals: all __TEXT sections first (in merge order), then
	// all __DATA sections, matching emission order (segments in creation
	// order, __TEXT created before __DATA).
	ordinalOf := make(map[*mergedSection]uint32, len(merged))
	next := uint32(1)
	for _, m := range merged {
		if m.targetSeg == "__TEXT" {
			ordinalOf[m] = next
			next++
		}
	}
	for _, m := range merged {
		if m.targetSeg == "__DATA" {
			ordinalOf[m] = next
			next++
		}
	}
	// Back-fill the real ordinals into perObjectInfo (pass 1 above stored
	// len(merged) as a placeholder index into the slice itself).
	idx := 0
	for oi, obj := range objects {
		info := perObjectInfo[oi]
		flatI := 0
		for _, seg := range obj.file.Segments() {
			target := segTarget(seg.Name())
			for range seg.Sections {
				if target != "" {
					info[flatI].newOrdinal = ordinalOf[merged[idx]]
					idx++
				}
				flatI++
			}
		}
	}

	// Pass 2: build the global name -> new-value symbol table from every
	// object's defined symbols, now that every section has a final
	// address. This is the corrected two-pass resolution: relocations
	// below are patched from this table, not from each input's own
	// pre-merge symbol values.
	global := map[string]uint64{}
	for oi, obj := range objects {
		info := perObjectInfo[oi]
		for _, sym := range obj.file.Symbols() {
			if !sym.Ntype.Defined() || sym.Nsect == 0 {
				continue
			}
			si := info[sym.Nsect-1]
			newVal := si.newAddr + (sym.Nvalue - si.oldAddr)
			if _, exists := global[sym.Name]; !exists {
				global[sym.Name] = newVal
			}
		}
	}

	// Pass 3: apply relocations into the copied section bytes, before
	// they are installed into the new builder.
	mi := 0
	for oi, obj := range objects {
		info := perObjectInfo[oi]
		syms := obj.file.Symbols()
		flatI := 0
		for _, seg := range obj.file.Segments() {
			target := segTarget(seg.Name())
			for _, sec := range seg.Sections {
				if target == "" {
					flatI++
					continue
				}
				m := merged[mi]
				for _, r := range sec.Relocs {
					var name string
					if int(r.Symbol) < len(syms) {
						name = syms[r.Symbol].Name
					}
					v := global[name]
					place := info[flatI].newAddr + (r.Addr - info[flatI].oldAddr)
					applyRelocation(m.data, place-m.newAddr, place, v, r)
				}
				flatI++
				mi++
			}
		}
	}

	// Assemble the final object. __PAGEZERO is an unmapped guard segment
	// ahead of __TEXT/__DATA, emitted by default for executable output
	// (never for MH_OBJECT/library mode); opts.NoPageZero suppresses it.
	b := ohlink.NewBuilder(types.MH_EXECUTE)
	if !opts.NoPageZero {
		pz := b.AddSegment("__PAGEZERO", 0, types.VmProtection(0), types.VmProtection(0))
		b.SetMinVMSize(pz, DefaultPageZeroSize)
	}
	textSeg := b.AddSegment("__TEXT", opts.TextBase, types.ProtRX, types.ProtRX)
	dataSeg := b.AddSegment("__DATA", opts.DataBase, types.ProtRW, types.ProtRW)

	for _, m := range merged {
		seg := textSeg
		if m.targetSeg == "__DATA" {
			seg = dataSeg
		}
		relAddr := m.newAddr - opts.TextBase
		if m.targetSeg == "__DATA" {
			relAddr = m.newAddr - opts.DataBase
		}
		b.AddSection(seg, m.name, m.data, relAddr, m.align, m.declared)
	}

	// Final symbol table: every symbol from every input, translated
	// section ordinal, value from the global table when undefined.
	for oi, obj := range objects {
		info := perObjectInfo[oi]
		for _, sym := range obj.file.Symbols() {
			var nsect uint32
			var value uint64
			if sym.Ntype.Defined() && sym.Nsect != 0 {
				nsect = info[sym.Nsect-1].newOrdinal
				value = info[sym.Nsect-1].newAddr + (sym.Nvalue - info[sym.Nsect-1].oldAddr)
			} else {
				value = global[sym.Name]
			}
			b.AddSymbol(sym.Name, value, nsect, sym.Ntype, sym.Ndesc)
		}
	}

	entryAddr := global[opts.Entry]
	out, err := b.Build()
	return out, entryAddr, err
}

func segTarget(name string) string {
	switch name {
	case "__TEXT":
		return "__TEXT"
	case "__DATA":
		return "__DATA"
	default:
		return ""
	}
}
