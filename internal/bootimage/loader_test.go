package bootimage

import (
	"testing"

	"github.com/tinyrange/rv32ima/internal/rv32"
)

func TestPlaceKernelAndDTB(t *testing.T) {
	ram := make([]byte, 4096)
	img := Image{
		Kernel: []byte{0xDE, 0xAD, 0xBE, 0xEF},
		DTB:    []byte{0x01, 0x02, 0x03},
	}

	x10, x11, err := img.Place(ram, rv32.RAMBase)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if x10 != 0 {
		t.Fatalf("x10 (hart id) = %d, want 0", x10)
	}

	for i, b := range img.Kernel {
		if ram[i] != b {
			t.Fatalf("kernel byte %d = 0x%x, want 0x%x", i, ram[i], b)
		}
	}

	wantDTBOfs := (uint32(len(ram)) - uint32(len(img.DTB))) &^ 7
	if x11 != rv32.RAMBase+wantDTBOfs {
		t.Fatalf("x11 (dtb ptr) = 0x%x, want 0x%x", x11, rv32.RAMBase+wantDTBOfs)
	}
	for i, b := range img.DTB {
		if ram[wantDTBOfs+uint32(i)] != b {
			t.Fatalf("dtb byte %d = 0x%x, want 0x%x", i, ram[wantDTBOfs+uint32(i)], b)
		}
	}
}

func TestPlaceNoDTB(t *testing.T) {
	ram := make([]byte, 64)
	img := Image{Kernel: []byte{1, 2, 3}}

	x10, x11, err := img.Place(ram, rv32.RAMBase)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if x10 != 0 || x11 != 0 {
		t.Fatalf("x10=%d x11=%d, want both 0 with no dtb", x10, x11)
	}
}

func TestPlaceKernelTooLarge(t *testing.T) {
	ram := make([]byte, 4)
	img := Image{Kernel: []byte{1, 2, 3, 4, 5}}
	if _, _, err := img.Place(ram, rv32.RAMBase); err == nil {
		t.Fatalf("expected an error placing an oversized kernel")
	}
}

func TestSeed(t *testing.T) {
	var st rv32.State
	st.Reset(rv32.RAMBase)
	Seed(&st, 0, 0xABCD0000)
	if st.Regs[10] != 0 {
		t.Fatalf("x10 = %d, want 0", st.Regs[10])
	}
	if st.Regs[11] != 0xABCD0000 {
		t.Fatalf("x11 = 0x%x, want 0xABCD0000", st.Regs[11])
	}
}

func TestConfigNormalizeDefaults(t *testing.T) {
	cfg := Config{Kernel: "kernel.bin"}
	cfg.normalize()
	if cfg.MemoryMB != 64 {
		t.Fatalf("MemoryMB = %d, want 64", cfg.MemoryMB)
	}
	if cfg.StepBatch != 1024 {
		t.Fatalf("StepBatch = %d, want 1024", cfg.StepBatch)
	}
}
