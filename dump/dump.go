// Package dump implements the symbol-listing and structural-dump views
// used by the nm- and objdump-style command-line tools: thin consumers
// of the container codec's queries.
package dump

import (
	"fmt"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"

	"github.com/appsworld/ohlink/ohlib"
	"github.com/appsworld/ohlink/ohlink"
)

// Symbols renders one line per symbol as "<value-hex> <name>".
func Symbols(f *ohlink.File) []string {
	var lines []string
	for _, sym := range f.Symbols() {
		lines = append(lines, fmt.Sprintf("%016x %s", sym.Nvalue, sym.Name))
	}
	return lines
}

// ArchiveSymbols renders one line per symbol across every member of an
// Ohlib archive, as "<value-hex> <member>(<name>)".
func ArchiveSymbols(a *ohlib.Archive) ([]string, error) {
	var lines []string
	for i := range a.Entries {
		name, data := a.Member(i)
		f, err := ohlink.NewFile(data)
		if err != nil {
			return nil, fmt.Errorf("dump: parsing member %s: %w", name, err)
		}
		for _, sym := range f.Symbols() {
			lines = append(lines, fmt.Sprintf("%016x %s(%s)", sym.Nvalue, name, sym.Name))
		}
	}
	return lines, nil
}

// Structure renders the header summary, every segment and its sections,
// the symtab command, and the NoteAbi command (falling back to a raw
// byte scan if the structured parse missed it).
func Structure(f *ohlink.File, raw []byte) string {
	var b strings.Builder
	b.WriteString(f.FileHeader.String())

	for _, seg := range f.Segments() {
		fmt.Fprintf(&b, "\n%s\n", seg.String())
		for _, sec := range seg.Sections {
			fmt.Fprintf(&b, "  %s\n", sec.String())
		}
	}

	if st := f.Symtab(); st != nil {
		fmt.Fprintf(&b, "\n%s\n", st.String())
	}

	if n := f.NoteAbi(); n != nil {
		fmt.Fprintf(&b, "%s\n", n.String())
	} else if raw != nil {
		if n, ok := ohlink.ScanForNoteAbi(raw, f.SizeCommands); ok {
			fmt.Fprintf(&b, "NOTE_ABI (byte-scan fallback) %s\n", n.String())
		} else {
			b.WriteString("NOTE_ABI: absent\n")
		}
	}
	return b.String()
}

// Disassemble decodes data as a stream of AArch64 instructions starting
// at virtual address addr, one line per instruction. Undecodable words
// are rendered as raw hex rather than aborting the whole listing.
func Disassemble(data []byte, addr uint64) []string {
	var lines []string
	for off := 0; off+4 <= len(data); off += 4 {
		inst, err := arm64asm.Decode(data[off : off+4])
		pc := addr + uint64(off)
		if err != nil {
			lines = append(lines, fmt.Sprintf("%016x\t.word 0x%08x", pc, leUint32(data[off:])))
			continue
		}
		lines = append(lines, fmt.Sprintf("%016x\t%s", pc, inst.String()))
	}
	return lines
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
