package bootimage

import (
	"fmt"
	"os"

	"github.com/tinyrange/rv32ima/internal/fdt"
	"github.com/tinyrange/rv32ima/internal/rv32"
)

// Image is a loaded kernel (plus optional DTB) ready to be placed into
// a guest's RAM and used to seed its boot registers.
type Image struct {
	Kernel []byte
	DTB    []byte
}

// Load reads the kernel and device-tree blob named by cfg. When cfg
// has no DTB path, one is synthesized from cfg.MemoryMB and
// cfg.BootArgs instead of leaving the guest without one.
func Load(cfg Config) (Image, error) {
	kernel, err := os.ReadFile(cfg.Kernel)
	if err != nil {
		return Image{}, fmt.Errorf("read kernel %s: %w", cfg.Kernel, err)
	}
	img := Image{Kernel: kernel}
	if cfg.DTB != "" {
		dtb, err := os.ReadFile(cfg.DTB)
		if err != nil {
			return Image{}, fmt.Errorf("read dtb %s: %w", cfg.DTB, err)
		}
		img.DTB = dtb
	} else {
		img.DTB = fdt.Minimal(rv32.RAMBase, uint32(cfg.MemoryMB*1024*1024), cfg.BootArgs)
	}
	return img, nil
}

// Place copies the kernel to the start of ram and, if present, the DTB
// to the last 8-byte-aligned offset that leaves it entirely inside
// ram. It returns the boot-ABI register values the caller should seed
// before the first Step call: x10 = hart id (always 0, single-hart),
// x11 = DTB pointer (0 if no DTB was supplied).
func (img Image) Place(ram []byte, ramBase uint32) (x10, x11 uint32, err error) {
	if len(img.Kernel) > len(ram) {
		return 0, 0, fmt.Errorf("kernel image (%d bytes) does not fit in RAM (%d bytes)", len(img.Kernel), len(ram))
	}
	copy(ram, img.Kernel)

	if len(img.DTB) == 0 {
		return 0, 0, nil
	}
	if len(img.DTB) > len(ram) {
		return 0, 0, fmt.Errorf("dtb (%d bytes) does not fit in RAM (%d bytes)", len(img.DTB), len(ram))
	}
	dtbOfs := (uint32(len(ram)) - uint32(len(img.DTB))) &^ 7
	copy(ram[dtbOfs:], img.DTB)
	return 0, ramBase + dtbOfs, nil
}

// Seed applies the boot ABI to a freshly Reset state.
func Seed(st *rv32.State, x10, x11 uint32) {
	st.Regs[10] = x10
	st.Regs[11] = x11
}
