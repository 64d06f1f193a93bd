package fdt

import (
	"encoding/binary"
	"testing"
)

func TestMinimalHeader(t *testing.T) {
	blob := Minimal(0x80000000, 64<<20, "console=ttyS0")

	if len(blob) < 40 {
		t.Fatalf("blob too small: %d bytes", len(blob))
	}
	if got := binary.BigEndian.Uint32(blob[0:4]); got != magic {
		t.Fatalf("magic = 0x%x, want 0x%x", got, magic)
	}
	if got := binary.BigEndian.Uint32(blob[4:8]); int(got) != len(blob) {
		t.Fatalf("totalsize = %d, want %d", got, len(blob))
	}
	if got := binary.BigEndian.Uint32(blob[20:24]); got != version {
		t.Fatalf("version = %d, want %d", got, version)
	}
}

func TestMinimalContainsBootargsAndMemory(t *testing.T) {
	blob := Minimal(0x80000000, 64<<20, "console=ttyS0 rw")

	mustContain(t, blob, "bootargs")
	mustContain(t, blob, "console=ttyS0 rw")
	mustContain(t, blob, "memory@80000000")
	mustContain(t, blob, "cpu@0")
	mustContain(t, blob, "riscv,isa")
}

func TestMinimalOmitsEmptyBootargs(t *testing.T) {
	blob := Minimal(0x80000000, 64<<20, "")
	if containsString(blob, "bootargs") {
		t.Fatalf("empty bootArgs should not add a bootargs property")
	}
}

func mustContain(t *testing.T, blob []byte, s string) {
	t.Helper()
	if !containsString(blob, s) {
		t.Fatalf("blob does not contain %q", s)
	}
}

func containsString(blob []byte, s string) bool {
	needle := []byte(s)
	for i := 0; i+len(needle) <= len(blob); i++ {
		match := true
		for j := range needle {
			if blob[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
