package conv

import "testing"

func TestU32Hex(t *testing.T) {
	var b [10]byte
	if got := string(U32Hex(b[:], 0xA5)); got != "000000A5" {
		t.Fatalf("got %q", got)
	}
	if got := string(U32Hex(b[:], 0xDEADBEEF)); got != "DEADBEEF" {
		t.Fatalf("got %q", got)
	}
	if got := U32Hex(b[:4], 1); len(got) != 0 {
		t.Fatalf("short buffer gave %q", got)
	}
}

func TestRegLine(t *testing.T) {
	got := string(RegLine([]byte("pmd0 "), "EMGSTA", 1))
	if got != "pmd0 EMGSTA=0x00000001" {
		t.Fatalf("got %q", got)
	}
}
