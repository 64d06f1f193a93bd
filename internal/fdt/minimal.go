package fdt

// Minimal synthesizes a small RV32 device tree: a root node, a
// /cpus/cpu@0 node naming the single hart's ISA, a /memory node
// covering [ramBase, ramBase+ramSize),
// and /chosen/bootargs carrying the kernel command line. It stands in
// for a real board DTB when the host doesn't supply one via -dtb.
func Minimal(ramBase, ramSize uint32, bootArgs string) []byte {
	b := NewBuilder()

	b.BeginNode("")
	b.PropU32("#address-cells", 2)
	b.PropU32("#size-cells", 2)
	b.PropString("compatible", "riscv-minimal-nommu")
	b.PropString("model", "rv32ima,step-engine")

	b.BeginNode("chosen")
	if bootArgs != "" {
		b.PropString("bootargs", bootArgs)
	}
	b.EndNode()

	b.BeginNode("memory@" + hex32(ramBase))
	b.PropString("device_type", "memory")
	b.PropU64Pair("reg", uint64(ramBase), uint64(ramSize))
	b.EndNode()

	b.BeginNode("cpus")
	b.PropU32("#address-cells", 1)
	b.PropU32("#size-cells", 0)
	b.PropU32("timebase-frequency", 1000000)

	b.BeginNode("cpu@0")
	b.PropString("device_type", "cpu")
	b.PropString("compatible", "riscv")
	b.PropString("riscv,isa", "rv32ima")
	b.PropString("mmu-type", "riscv,none")
	b.PropU32("reg", 0)
	b.PropEmpty("clock-frequency")
	b.EndNode()

	b.EndNode() // cpus

	b.EndNode() // root

	return b.Build()
}

func hex32(v uint32) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xF]
		v >>= 4
	}
	return string(buf[i:])
}
