package dump

import (
	"strings"
	"testing"

	"github.com/appsworld/ohlink/ohlib"
	"github.com/appsworld/ohlink/ohlink"
	"github.com/appsworld/ohlink/types"
)

func buildSimpleObject(t *testing.T) []byte {
	t.Helper()
	b := ohlink.NewBuilder(types.MH_OBJECT)
	seg := b.AddSegment("__TEXT", 0, types.ProtRX, types.ProtRX)
	b.AddSection(seg, "__text", []byte{0x00, 0x00, 0x80, 0xd2, 0xc0, 0x03, 0x5f, 0xd6}, 0, 4, 8)
	b.AddSymbol("_start", 0, 1, types.N_EXT, 0)
	out, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return out
}

func TestSymbols(t *testing.T) {
	out := buildSimpleObject(t)
	f, err := ohlink.NewFile(out)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	lines := Symbols(f)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if !strings.Contains(lines[0], "_start") {
		t.Errorf("expected symbol line to mention _start, got %q", lines[0])
	}
}

func TestArchiveSymbols(t *testing.T) {
	obj := buildSimpleObject(t)
	ab := ohlib.NewBuilder()
	ab.AddMember("a.o", obj)
	archiveBytes := ab.Build()

	a, err := ohlib.Parse(archiveBytes)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	lines, err := ArchiveSymbols(a)
	if err != nil {
		t.Fatalf("ArchiveSymbols: %v", err)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], "a.o(_start)") {
		t.Errorf("unexpected lines: %v", lines)
	}
}

func TestStructureIncludesSegmentsAndNoteAbi(t *testing.T) {
	out := buildSimpleObject(t)
	f, err := ohlink.NewFile(out)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	report := Structure(f, out)
	if !strings.Contains(report, "__TEXT") {
		t.Error("expected structure report to mention __TEXT")
	}
	if !strings.Contains(report, "__text") {
		t.Error("expected structure report to mention __text")
	}
	if !strings.Contains(report, "LC_NOTE_ABI") && !strings.Contains(report, "NOTE_ABI") {
		t.Error("expected structure report to mention the NoteAbi command")
	}
}

func TestDisassembleCoversEveryWordWithoutAborting(t *testing.T) {
	// ret, followed by a second word that may or may not be a decodable
	// instruction; Disassemble must produce one line per word either way
	// rather than aborting the whole listing on a bad decode.
	data := []byte{0xc0, 0x03, 0x5f, 0xd6, 0x00, 0x00, 0x00, 0x00}
	lines := Disassemble(data, 0x1000)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "0000000000001") {
			t.Errorf("expected line to start with the pc, got %q", l)
		}
	}
}
