package linker

import (
	"encoding/binary"

	"github.com/appsworld/ohlink/types"
)

// applyRelocation patches one relocation into data (a copy of the target
// section's bytes), at byte offset relOff. place is the relocation's
// absolute virtual address, v the resolved symbol value (0 if
// unresolved), and r carries the type and addend. Sites that do not fit
// in data, and PC-relative displacements that do not fit their
// instruction's immediate field, are skipped without failure, per the
// format's best-effort patching policy.
func applyRelocation(data []byte, relOff uint64, place uint64, v uint64, r types.Relocation) {
	a := int64(r.Addend)
	switch r.Type {
	case types.RELOC_ABS64:
		if !fits(data, relOff, 8) {
			return
		}
		binary.LittleEndian.PutUint64(data[relOff:], v+uint64(a))

	case types.RELOC_ABS32:
		if !fits(data, relOff, 4) {
			return
		}
		binary.LittleEndian.PutUint32(data[relOff:], uint32(int32(v)+int32(a)))

	case types.RELOC_REL64:
		if !fits(data, relOff, 8) {
			return
		}
		delta := int64(v) + a - int64(place)
		binary.LittleEndian.PutUint64(data[relOff:], uint64(delta))

	case types.RELOC_REL32:
		if !fits(data, relOff, 4) {
			return
		}
		delta := int64(v) + a - int64(place)
		binary.LittleEndian.PutUint32(data[relOff:], uint32(int32(delta)))

	case types.RELOC_BRANCH26:
		if !fits(data, relOff, 4) {
			return
		}
		delta := (int64(v) + a - int64(place)) >> 2
		if delta < -(1<<25) || delta >= 1<<25 {
			return
		}
		word := binary.LittleEndian.Uint32(data[relOff:])
		word = (word &^ 0x03FFFFFF) | (uint32(delta) & 0x03FFFFFF)
		binary.LittleEndian.PutUint32(data[relOff:], word)

	case types.RELOC_AARCH64_ADR_PREL_PG_HI21:
		if !fits(data, relOff, 4) {
			return
		}
		targetPage := (int64(v) + a) &^ 0xfff
		placePage := int64(place) &^ 0xfff
		imm21 := (targetPage - placePage) >> 12
		if imm21 < -(1<<20) || imm21 >= 1<<20 {
			return
		}
		immlo := uint32(imm21) & 0x3
		immhi := (uint32(imm21) >> 2) & 0x7ffff
		word := binary.LittleEndian.Uint32(data[relOff:])
		word = (word &^ (0x3 << 29)) | (immlo << 29)
		word = (word &^ (0x7ffff << 5)) | (immhi << 5)
		binary.LittleEndian.PutUint32(data[relOff:], word)

	case types.RELOC_AARCH64_ADD_ABS_LO12_NC:
		if !fits(data, relOff, 4) {
			return
		}
		lo12 := uint32((uint64(int64(v)+a))&0xfff)
		word := binary.LittleEndian.Uint32(data[relOff:])
		word = (word &^ (0xfff << 10)) | (lo12 << 10)
		binary.LittleEndian.PutUint32(data[relOff:], word)

	case types.RELOC_AARCH64_LD_PREL_LO19:
		if !fits(data, relOff, 4) {
			return
		}
		delta := (int64(v) + a - int64(place)) >> 2
		if delta < -(1<<18) || delta >= 1<<18 {
			return
		}
		imm19 := uint32(delta) & 0x7ffff
		word := binary.LittleEndian.Uint32(data[relOff:])
		word = (word &^ (0x7ffff << 5)) | (imm19 << 5)
		binary.LittleEndian.PutUint32(data[relOff:], word)

	case types.RELOC_GOT, types.RELOC_PLT, types.RELOC_TLS, types.RELOC_NONE:
		// leave bytes untouched

	default:
		// unknown tag: best-effort, leave untouched
	}
}

func fits(data []byte, off uint64, width int) bool {
	return off <= uint64(len(data)) && uint64(len(data))-off >= uint64(width)
}
