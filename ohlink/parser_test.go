package ohlink

import (
	"testing"

	"github.com/appsworld/ohlink/types"
)

func TestNewFileRejectsShortInput(t *testing.T) {
	if _, err := NewFile([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for input shorter than header")
	}
}

func TestNewFileRejectsBadMagic(t *testing.T) {
	b := NewBuilder(types.MH_OBJECT)
	out, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out[0] ^= 0xff // corrupt the magic
	if _, err := NewFile(out); err != ErrInvalidMagic {
		t.Errorf("got %v, want ErrInvalidMagic", err)
	}
}

func TestNewFileRejectsWrongCPU(t *testing.T) {
	b := NewBuilder(types.MH_OBJECT)
	out, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// CPU field occupies bytes [4:8).
	out[4], out[5], out[6], out[7] = 0xff, 0xff, 0xff, 0xff
	if _, err := NewFile(out); err != ErrUnsupportedCpuType {
		t.Errorf("got %v, want ErrUnsupportedCpuType", err)
	}
}

func TestNewFileSurfacesNoteAbiLoadCommand(t *testing.T) {
	b := NewBuilder(types.MH_OBJECT)
	b.AddSegment("__TEXT", 0, types.ProtRX, types.ProtRX)
	out, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	f, err := NewFile(out)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	var found bool
	for _, l := range f.Loads {
		if l.Command() == types.LC_NOTE_ABI {
			found = true
		}
	}
	if !found {
		t.Error("expected a LC_NOTE_ABI load command in every built file")
	}
}

func TestScanForNoteAbiFallback(t *testing.T) {
	b := NewBuilder(types.MH_OBJECT)
	out, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	f, err := NewFile(out)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if n, ok := ScanForNoteAbi(out, f.SizeCommands); !ok || n == nil {
		t.Fatal("expected ScanForNoteAbi to find the NoteAbi command")
	}
}
