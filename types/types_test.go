package types

import "testing"

func TestPutNameRoundTrip(t *testing.T) {
	cases := []string{"", "__text", "__DATA_CONST", "sixteen_byte_nm"}
	for _, name := range cases {
		var b [16]byte
		PutName(b[:], name)
		if got := NameFromBytes(b[:]); got != name {
			t.Errorf("PutName/NameFromBytes(%q) round-trip: got %q", name, got)
		}
	}
}

func TestPutNameTruncatesExactFit(t *testing.T) {
	var b [4]byte
	PutName(b[:], "abcdxyz")
	if got := NameFromBytes(b[:]); got != "abcd" {
		t.Errorf("expected truncation to 4 bytes, got %q", got)
	}
}

func TestRoundUp(t *testing.T) {
	tests := []struct {
		x, align, want uint64
	}{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{5, 0, 5},
		{17, 16, 32},
	}
	for _, tc := range tests {
		if got := RoundUp(tc.x, tc.align); got != tc.want {
			t.Errorf("RoundUp(%d, %d) = %d, want %d", tc.x, tc.align, got, tc.want)
		}
	}
}

func TestVmProtectionString(t *testing.T) {
	tests := []struct {
		p    VmProtection
		want string
	}{
		{0, "---"},
		{ProtRead, "r--"},
		{ProtRX, "r-x"},
		{ProtRW, "rw-"},
		{ProtRWX, "rwx"},
	}
	for _, tc := range tests {
		if got := tc.p.String(); got != tc.want {
			t.Errorf("%d.String() = %q, want %q", tc.p, got, tc.want)
		}
	}
}

func TestExtractBits(t *testing.T) {
	// 0b1011_0100, bits [7:4] = 0b1011 = 0xb
	x := uint64(0xB4)
	if got := ExtractBits(x, 4, 4); got != 0xB {
		t.Errorf("ExtractBits(0xB4, 4, 4) = 0x%x, want 0xb", got)
	}
	if got := ExtractBits(x, 0, 4); got != 0x4 {
		t.Errorf("ExtractBits(0xB4, 0, 4) = 0x%x, want 0x4", got)
	}
}

func TestParseErrorMessage(t *testing.T) {
	err := &ParseError{Off: 42, Msg: "bad magic", Val: uint32(7)}
	got := err.Error()
	want := "ohlink parse error: bad magic: 7, offset 42"
	if got != want {
		t.Errorf("ParseError.Error() = %q, want %q", got, want)
	}
}

func TestIsASCII(t *testing.T) {
	if !IsASCII("hello_world") {
		t.Error("expected ASCII string to pass")
	}
	if IsASCII("h\xc3\xa9llo") {
		t.Error("expected non-ASCII string to fail")
	}
}
