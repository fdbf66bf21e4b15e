package ohlib

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildParseRoundTrip(t *testing.T) {
	b := NewBuilder()
	b.AddMember("a.o", []byte{1, 2, 3, 4})
	b.AddMember("b.o", []byte{5, 6})
	out := b.Build()

	a, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(a.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(a.Entries))
	}

	name0, data0 := a.Member(0)
	if name0 != "a.o" || !cmp.Equal(data0, []byte{1, 2, 3, 4}) {
		t.Errorf("member 0 = (%q, %v)", name0, data0)
	}
	name1, data1 := a.Member(1)
	if name1 != "b.o" || !cmp.Equal(data1, []byte{5, 6}) {
		t.Errorf("member 1 = (%q, %v)", name1, data1)
	}
}

func TestParseEmptyArchive(t *testing.T) {
	b := NewBuilder()
	out := b.Build()

	a, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(a.Entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(a.Entries))
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	b := NewBuilder()
	b.AddMember("x.o", []byte{1})
	out := b.Build()
	out[0] ^= 0xff

	if _, err := Parse(out); err != ErrInvalidMagic {
		t.Errorf("got %v, want ErrInvalidMagic", err)
	}
}

func TestParseRejectsShortInput(t *testing.T) {
	if _, err := Parse([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for input shorter than header")
	}
}
