package bus

import "testing"

func TestFlatBusReadWrite8(t *testing.T) {
	b := NewFlatBus(16)
	b.Write8(SupervisorData, 4, 0xAB)
	if got := b.Read8(SupervisorData, 4); got != 0xAB {
		t.Errorf("Read8 = %#02x, want 0xAB", got)
	}
}

func TestFlatBusBigEndian16(t *testing.T) {
	b := NewFlatBus(16)
	b.Write16(SupervisorData, 0, 0x1234)
	if got := b.Read8(SupervisorData, 0); got != 0x12 {
		t.Errorf("high byte = %#02x, want 0x12", got)
	}
	if got := b.Read8(SupervisorData, 1); got != 0x34 {
		t.Errorf("low byte = %#02x, want 0x34", got)
	}
	if got := b.Read16(SupervisorData, 0); got != 0x1234 {
		t.Errorf("Read16 = %#04x, want 0x1234", got)
	}
}

func TestFlatBusBigEndian32(t *testing.T) {
	b := NewFlatBus(16)
	b.Write32(SupervisorData, 0, 0x11223344)
	want := []byte{0x11, 0x22, 0x33, 0x44}
	for i, w := range want {
		if got := b.Read8(SupervisorData, uint32(i)); got != w {
			t.Errorf("byte %d = %#02x, want %#02x", i, got, w)
		}
	}
	if got := b.Read32(SupervisorData, 0); got != 0x11223344 {
		t.Errorf("Read32 = %#08x, want 0x11223344", got)
	}
}

func TestFlatBusLoad(t *testing.T) {
	b := NewFlatBus(16)
	b.Load(8, []byte{1, 2, 3})
	if got := b.Read8(UserData, 9); got != 2 {
		t.Errorf("Read8(9) = %d, want 2", got)
	}
}

func TestFunctionCode(t *testing.T) {
	cases := []struct {
		space AddressSpace
		want  int
	}{
		{UserData, 1},
		{UserProgram, 2},
		{SupervisorData, 5},
		{SupervisorProgram, 6},
	}
	for _, c := range cases {
		if got := c.space.FunctionCode(); got != c.want {
			t.Errorf("%v.FunctionCode() = %d, want %d", c.space, got, c.want)
		}
	}
}
