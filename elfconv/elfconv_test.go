package elfconv

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/appsworld/ohlink/ohlink"
	"github.com/appsworld/ohlink/types"
)

// buildAArch64RelObject hand-assembles a minimal ELF64 AArch64 relocatable
// object: one .text section (two instructions), one .rela.text entry
// referencing a global "_start" symbol with R_AARCH64_ABS64, and the
// symtab/strtab/shstrtab machinery debug/elf needs to read all of it back.
// There is no ELF writer in the example pack to borrow, so this mirrors
// the format's own Put-style manual little-endian field construction
// applied to the (well-documented, stable) ELF64 layout.
func buildAArch64RelObject(t *testing.T) []byte {
	t.Helper()
	o := binary.LittleEndian

	text := []byte{0x00, 0x00, 0x80, 0xd2, 0xc0, 0x03, 0x5f, 0xd6} // mov x0,#0 ; ret
	shstrtab := "\x00.text\x00.rela.text\x00.symtab\x00.strtab\x00.shstrtab\x00"
	strtab := "\x00_start\x00"

	const (
		ehsize = 64
		shsize = 64
	)
	textOff := int64(ehsize)
	relaOff := textOff + int64(len(text))
	symtabOff := relaOff + 24 // one Elf64_Rela entry
	symtabSize := int64(24 * 2) // null symbol + _start
	strtabOff := symtabOff + symtabSize
	shstrtabOff := strtabOff + int64(len(strtab))
	shoff := shstrtabOff + int64(len(shstrtab))

	buf := make([]byte, shoff+6*shsize)

	// e_ident
	buf[0], buf[1], buf[2], buf[3] = 0x7f, 'E', 'L', 'F'
	buf[4] = 2 // ELFCLASS64
	buf[5] = 1 // ELFDATA2LSB
	buf[6] = 1 // EV_CURRENT
	// e_type, e_machine, e_version
	o.PutUint16(buf[16:], 1)   // ET_REL
	o.PutUint16(buf[18:], 183) // EM_AARCH64
	o.PutUint32(buf[20:], 1)   // EV_CURRENT
	// e_entry, e_phoff, e_shoff
	o.PutUint64(buf[40:], uint64(shoff))
	o.PutUint16(buf[52:], ehsize)
	o.PutUint16(buf[58:], shsize) // e_shentsize
	o.PutUint16(buf[60:], 6)      // e_shnum
	o.PutUint16(buf[62:], 5)      // e_shstrndx

	copy(buf[textOff:], text)

	// .rela.text: one entry targeting symbol 1 (_start), R_AARCH64_ABS64
	const rAArch64Abs64 = 257
	relaEntry := buf[relaOff:]
	o.PutUint64(relaEntry[0:], 0)                                     // r_offset
	o.PutUint64(relaEntry[8:], uint64(1)<<32|uint64(rAArch64Abs64))   // r_info
	o.PutUint64(relaEntry[16:], 0)                                    // r_addend

	// symtab: entry 0 is the mandatory null symbol; entry 1 is "_start",
	// global function, defined in section 1 (.text), value 0.
	sym1 := buf[symtabOff+24:]
	o.PutUint32(sym1[0:], 1) // st_name -> strtab offset 1
	sym1[4] = (1 << 4) | 2   // STB_GLOBAL<<4 | STT_FUNC
	sym1[5] = 0              // st_other
	o.PutUint16(sym1[6:], 1) // st_shndx = .text (section index 1)
	o.PutUint64(sym1[8:], 0) // st_value
	o.PutUint64(sym1[16:], 0)

	copy(buf[strtabOff:], strtab)
	copy(buf[shstrtabOff:], shstrtab)

	putShdr := func(idx int, name, shtype uint32, flags, addr, offset, size uint64, link, info uint32, align, entsize uint64) {
		b := buf[int(shoff)+idx*shsize:]
		o.PutUint32(b[0:], name)
		o.PutUint32(b[4:], shtype)
		o.PutUint64(b[8:], flags)
		o.PutUint64(b[16:], addr)
		o.PutUint64(b[24:], offset)
		o.PutUint64(b[32:], size)
		o.PutUint32(b[40:], link)
		o.PutUint32(b[44:], info)
		o.PutUint64(b[48:], align)
		o.PutUint64(b[56:], entsize)
	}

	// 0: NULL section, already zeroed.
	putShdr(1, 1, 1 /* SHT_PROGBITS */, 0x6 /* ALLOC|EXECINSTR */, 0, uint64(textOff), uint64(len(text)), 0, 0, 4, 0)
	putShdr(2, 7, 4 /* SHT_RELA */, 0, 0, uint64(relaOff), 24, 3 /* link: symtab */, 1 /* info: target .text */, 8, 24)
	putShdr(3, 18, 2 /* SHT_SYMTAB */, 0, 0, uint64(symtabOff), uint64(symtabSize), 4 /* link: strtab */, 1 /* one local sym */, 8, 24)
	putShdr(4, 26, 3 /* SHT_STRTAB */, 0, 0, uint64(strtabOff), uint64(len(strtab)), 0, 0, 1, 0)
	putShdr(5, 34, 3 /* SHT_STRTAB */, 0, 0, uint64(shstrtabOff), uint64(len(shstrtab)), 0, 0, 1, 0)

	return buf
}

func mustParseElf(t *testing.T, data []byte) *elf.File {
	t.Helper()
	ef, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("elf.NewFile: %v", err)
	}
	return ef
}

func TestConvertProducesTextSectionAndSymbol(t *testing.T) {
	ef := mustParseElf(t, buildAArch64RelObject(t))

	out, err := Convert(ef, Options{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	f, err := ohlink.NewFile(out)
	if err != nil {
		t.Fatalf("parsing converted object: %v", err)
	}

	sec := f.Section("__TEXT", "__text")
	if sec == nil {
		t.Fatal("expected __TEXT/__text section in converted object")
	}
	if len(sec.Data) != 8 {
		t.Errorf("__text size = %d, want 8", len(sec.Data))
	}
	if len(sec.Relocs) != 1 {
		t.Fatalf("expected 1 relocation, got %d", len(sec.Relocs))
	}
	if sec.Relocs[0].Type != types.RELOC_ABS64 {
		t.Errorf("reloc type = %v, want RELOC_ABS64", sec.Relocs[0].Type)
	}

	var gotStart bool
	for _, sym := range f.Symbols() {
		if sym.Name == "_start" {
			gotStart = true
			if !sym.Ntype.Defined() {
				t.Error("_start should be marked defined")
			}
		}
	}
	if !gotStart {
		t.Error("expected _start symbol to survive conversion")
	}
}

func TestConvertHonorsRodataOption(t *testing.T) {
	ef := mustParseElf(t, buildAArch64RelObject(t))
	_, err := Convert(ef, Options{RodataSection: "__rodata"})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	// No .rodata section in the fixture, so this mainly guards against a
	// panic/error when the option is set but unused.
}
