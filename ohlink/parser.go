package ohlink

import (
	"encoding/binary"

	"github.com/appsworld/ohlink/types"
)

// NewFile parses data as an Ohlink container, copying it into an owned
// buffer so the returned File outlives the caller's slice.
func NewFile(data []byte) (*File, error) {
	buf := make([]byte, len(data))
	copy(buf, data)

	if len(buf) < types.FileHeaderSize {
		return nil, &types.ParseError{Off: 0, Msg: "file shorter than header"}
	}

	o := binary.LittleEndian
	var hdr types.FileHeader
	hdr.Unpack(buf, o)

	switch hdr.Magic {
	case types.Magic32, types.Magic64:
	default:
		return nil, ErrInvalidMagic
	}
	if hdr.CPU != types.CPUArm64 {
		return nil, ErrUnsupportedCpuType
	}

	f := &File{FileHeader: hdr, ByteOrder: o}

	off := int64(types.FileHeaderSize)
	cmdsEnd := off + int64(hdr.SizeCommands)
	if cmdsEnd > int64(len(buf)) {
		return nil, &types.ParseError{Off: off, Msg: "sizeofcmds exceeds file length", Val: hdr.SizeCommands}
	}

	for i := uint32(0); i < hdr.NCommands; i++ {
		if off+8 > int64(len(buf)) {
			return nil, &types.ParseError{Off: off, Msg: "truncated load command header"}
		}
		cmd := types.LoadCmd(o.Uint32(buf[off:]))
		cmdsize := o.Uint32(buf[off+4:])
		if cmdsize < 8 || off+int64(cmdsize) > int64(len(buf)) {
			return nil, &types.ParseError{Off: off, Msg: "impossible cmdsize", Val: cmdsize}
		}
		cmdBytes := buf[off : off+int64(cmdsize)]

		switch cmd {
		case types.LC_SEGMENT_64:
			if cmdsize < types.SegmentHeaderSize {
				return nil, &types.ParseError{Off: off, Msg: "segment command too short", Val: cmdsize}
			}
			var raw types.Segment64
			raw.Unpack(cmdBytes, o)
			need := int64(types.SegmentHeaderSize) + int64(raw.Nsect)*int64(types.SectionHeaderSize)
			if int64(cmdsize) < need {
				return nil, &types.ParseError{Off: off, Msg: "segment cmdsize too small for nsect", Val: raw.Nsect}
			}
			seg := &Segment{Segment64: raw}
			sp := int64(types.SegmentHeaderSize)
			for s := uint32(0); s < raw.Nsect; s++ {
				var sh types.Section64
				sh.Unpack(cmdBytes[sp:], o)
				sec := &Section{Section64: sh}
				if sh.Offset != 0 {
					end := int64(sh.Offset) + int64(sh.Size)
					if end > int64(len(buf)) {
						return nil, &types.ParseError{Off: int64(sh.Offset), Msg: "section data out of range"}
					}
					sec.Data = append([]byte(nil), buf[sh.Offset:end]...)
				}
				if sh.Nreloc > 0 {
					rend := int64(sh.Reloff) + int64(sh.Nreloc)*types.RelocationSize
					if rend > int64(len(buf)) {
						return nil, &types.ParseError{Off: int64(sh.Reloff), Msg: "relocation array out of range"}
					}
					sec.Relocs = make([]types.Relocation, sh.Nreloc)
					rp := int64(sh.Reloff)
					for r := range sec.Relocs {
						sec.Relocs[r].Unpack(buf[rp:], o)
						rp += types.RelocationSize
					}
				}
				seg.Sections = append(seg.Sections, sec)
				sp += int64(types.SectionHeaderSize)
			}
			f.Loads = append(f.Loads, seg)

		case types.LC_SYMTAB:
			if cmdsize != types.SymtabCmdSize {
				return nil, &types.ParseError{Off: off, Msg: "symtab cmdsize must be exact", Val: cmdsize}
			}
			var st types.SymtabCmd
			st.Unpack(cmdBytes, o)
			syms, err := readSymtab(buf, o, st)
			if err != nil {
				return nil, err
			}
			f.Loads = append(f.Loads, &Symtab{SymtabCmd: st, Syms: syms})

		case types.LC_NOTE_ABI:
			if cmdsize != types.NoteAbiCmdSize {
				return nil, &types.ParseError{Off: off, Msg: "note_abi cmdsize must be exact", Val: cmdsize}
			}
			var n types.NoteAbiCmd
			n.Unpack(cmdBytes, o)
			f.Loads = append(f.Loads, &NoteAbi{NoteAbiCmd: n})

		default:
			raw := append([]byte(nil), cmdBytes...)
			f.Loads = append(f.Loads, &Unknown{UnknownCmd: types.UnknownCmd{Cmd: cmd, Len: cmdsize, Raw: raw}})
		}

		off += int64(cmdsize)
	}

	return f, nil
}

func readSymtab(buf []byte, o binary.ByteOrder, st types.SymtabCmd) ([]types.Symbol, error) {
	if st.Nsyms == 0 {
		return nil, nil
	}
	symEnd := int64(st.Symoff) + int64(st.Nsyms)*types.SymbolSize
	if symEnd > int64(len(buf)) {
		return nil, &types.ParseError{Off: int64(st.Symoff), Msg: "symbol table out of range"}
	}
	strEnd := int64(st.Stroff) + int64(st.Strsize)
	if strEnd > int64(len(buf)) {
		return nil, &types.ParseError{Off: int64(st.Stroff), Msg: "string table out of range"}
	}
	strtab := buf[st.Stroff:strEnd]

	syms := make([]types.Symbol, st.Nsyms)
	sp := int64(st.Symoff)
	for i := range syms {
		syms[i].Unpack(buf[sp:], o)
		syms[i].Name = cstring(strtab, syms[i].Nstrx)
		sp += types.SymbolSize
	}
	return syms, nil
}

func cstring(strtab []byte, strx uint32) string {
	if int(strx) >= len(strtab) {
		return ""
	}
	b := strtab[strx:]
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// ScanForNoteAbi performs the byte-level fallback scan of the raw
// load-command region for an LC_NOTE_ABI command, used when the
// structured parse did not surface one (tolerant-mode loader/dump use).
func ScanForNoteAbi(data []byte, sizeofcmds uint32) (*types.NoteAbiCmd, bool) {
	o := binary.LittleEndian
	start := int64(types.FileHeaderSize)
	end := start + int64(sizeofcmds)
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	for off := start; off+8 <= end; {
		cmd := types.LoadCmd(o.Uint32(data[off:]))
		cmdsize := o.Uint32(data[off+4:])
		if cmdsize < 8 {
			break
		}
		if cmd == types.LC_NOTE_ABI && cmdsize == types.NoteAbiCmdSize && off+int64(cmdsize) <= end {
			var n types.NoteAbiCmd
			n.Unpack(data[off:off+int64(cmdsize)], o)
			return &n, true
		}
		off += int64(cmdsize)
	}
	return nil, false
}
