package bus

// FlatBus is a reference Bus implementation backed by a single
// contiguous byte array. It ignores the privilege/segment component of
// AddressSpace (a real platform would fault on it); it exists for unit
// tests and the cmd/ tools, not as part of the interpreter core itself.
type FlatBus struct {
	Mem []byte
}

// NewFlatBus allocates a FlatBus with the given size in bytes.
func NewFlatBus(size int) *FlatBus {
	return &FlatBus{Mem: make([]byte, size)}
}

// Load copies data into the bus starting at addr, for test and CLI setup.
func (b *FlatBus) Load(addr uint32, data []byte) {
	copy(b.Mem[addr:], data)
}

func (b *FlatBus) Read8(_ AddressSpace, addr uint32) uint8 {
	if int(addr) >= len(b.Mem) {
		return 0
	}
	return b.Mem[addr]
}

func (b *FlatBus) Read16(space AddressSpace, addr uint32) uint16 {
	hi := uint16(b.Read8(space, addr))
	lo := uint16(b.Read8(space, addr+1))
	return hi<<8 | lo
}

func (b *FlatBus) Read32(space AddressSpace, addr uint32) uint32 {
	hi := uint32(b.Read16(space, addr))
	lo := uint32(b.Read16(space, addr+2))
	return hi<<16 | lo
}

func (b *FlatBus) Write8(_ AddressSpace, addr uint32, value uint8) {
	if int(addr) >= len(b.Mem) {
		return
	}
	b.Mem[addr] = value
}

func (b *FlatBus) Write16(space AddressSpace, addr uint32, value uint16) {
	b.Write8(space, addr, uint8(value>>8))
	b.Write8(space, addr+1, uint8(value))
}

func (b *FlatBus) Write32(space AddressSpace, addr uint32, value uint32) {
	b.Write16(space, addr, uint16(value>>16))
	b.Write16(space, addr+2, uint16(value))
}
