// Package fdt builds flattened device-tree blobs for the machines the
// rv32 engine boots: just enough of the format to describe memory, a
// single hart, and the kernel command line.
package fdt

import "encoding/binary"

const (
	magic      = 0xd00dfeed
	version    = 17
	lastCompat = 16

	tokenBeginNode = 0x00000001
	tokenEndNode   = 0x00000002
	tokenProp      = 0x00000003
	tokenEnd       = 0x00000009
)

// Builder assembles a flattened device-tree blob one node/property at
// a time, in the order BeginNode/properties/children/EndNode expects.
type Builder struct {
	structure []byte
	strings   []byte
	stringOff map[string]uint32
}

func NewBuilder() *Builder {
	return &Builder{stringOff: make(map[string]uint32)}
}

func (b *Builder) BeginNode(name string) {
	b.appendU32(tokenBeginNode)
	b.appendPaddedString(name)
}

func (b *Builder) EndNode() {
	b.appendU32(tokenEndNode)
}

func (b *Builder) PropString(name, value string) {
	b.prop(name, append([]byte(value), 0))
}

func (b *Builder) PropU32(name string, value uint32) {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, value)
	b.prop(name, buf)
}

func (b *Builder) PropU64Pair(name string, a, c uint64) {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:], a)
	binary.BigEndian.PutUint64(buf[8:], c)
	b.prop(name, buf)
}

func (b *Builder) PropEmpty(name string) {
	b.prop(name, nil)
}

func (b *Builder) prop(name string, data []byte) {
	b.appendU32(tokenProp)
	b.appendU32(uint32(len(data)))
	b.appendU32(b.stringIndex(name))
	b.appendPaddedBytes(data)
}

// Build finalizes the structure and string blocks into a complete FDT
// blob with an empty memory-reservation map.
func (b *Builder) Build() []byte {
	b.appendU32(tokenEnd)

	const headerSize = 40
	memRsvOff := uint32(headerSize)
	memRsvSize := uint32(16)
	structOff := memRsvOff + memRsvSize
	structSize := uint32(len(b.structure))
	stringsOff := structOff + structSize
	stringsSize := uint32(len(b.strings))
	total := stringsOff + stringsSize

	header := make([]byte, headerSize)
	binary.BigEndian.PutUint32(header[0:], magic)
	binary.BigEndian.PutUint32(header[4:], total)
	binary.BigEndian.PutUint32(header[8:], structOff)
	binary.BigEndian.PutUint32(header[12:], stringsOff)
	binary.BigEndian.PutUint32(header[16:], memRsvOff)
	binary.BigEndian.PutUint32(header[20:], version)
	binary.BigEndian.PutUint32(header[24:], lastCompat)
	binary.BigEndian.PutUint32(header[28:], 0)
	binary.BigEndian.PutUint32(header[32:], stringsSize)
	binary.BigEndian.PutUint32(header[36:], structSize)

	blob := make([]byte, total)
	copy(blob, header)
	copy(blob[structOff:], b.structure)
	copy(blob[stringsOff:], b.strings)
	return blob
}

func (b *Builder) appendU32(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	b.structure = append(b.structure, buf[:]...)
}

func (b *Builder) appendPaddedString(s string) {
	b.structure = append(b.structure, s...)
	b.structure = append(b.structure, 0)
	b.pad()
}

func (b *Builder) appendPaddedBytes(data []byte) {
	b.structure = append(b.structure, data...)
	b.pad()
}

func (b *Builder) pad() {
	for len(b.structure)%4 != 0 {
		b.structure = append(b.structure, 0)
	}
}

func (b *Builder) stringIndex(name string) uint32 {
	if off, ok := b.stringOff[name]; ok {
		return off
	}
	off := uint32(len(b.strings))
	b.stringOff[name] = off
	b.strings = append(b.strings, name...)
	b.strings = append(b.strings, 0)
	return off
}
