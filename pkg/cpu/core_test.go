package cpu

import (
	"testing"

	"github.com/mc68kcore/m68k/pkg/bus"
)

// newTestCore builds a FlatBus with a reset vector (SP at 0, PC at 4)
// and the given code loaded starting at address 0x400, then resets a
// fresh MC68000 core against it.
func newTestCore(t *testing.T, code []byte) (*Core, *bus.FlatBus) {
	t.Helper()
	b := bus.NewFlatBus(0x10000)
	header := []byte{0x00, 0x00, 0x20, 0x00, 0x00, 0x00, 0x04, 0x00}
	b.Load(0, header)
	b.Load(0x400, code)

	c := New(MC68000)
	c.Reset(b)
	return c, b
}

func w16(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }

func w32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// newTestCoreVersion is newTestCore parameterized by CPU version, for
// exercising '010+-only behavior (frame/vector word, MOVEC, ...).
func newTestCoreVersion(t *testing.T, version Version, code []byte) (*Core, *bus.FlatBus) {
	t.Helper()
	b := bus.NewFlatBus(0x10000)
	header := []byte{0x00, 0x00, 0x20, 0x00, 0x00, 0x00, 0x04, 0x00}
	b.Load(0, header)
	b.Load(0x400, code)

	c := New(version)
	c.Reset(b)
	return c, b
}

func TestEndToEndAddByteOverflowAndCarry(t *testing.T) {
	var code []byte
	code = append(code, w16(0x707F)...) // MOVEQ #0x7F,D0
	code = append(code, w16(0x0600)...) // ADDI.B #1,D0
	code = append(code, w16(0x0001)...)

	c, b := newTestCore(t, code)
	c.Step(b)
	c.Step(b)

	if got := c.d(0) & 0xFF; got != 0x80 {
		t.Fatalf("expected D0.B = 0x80, got %#x", got)
	}
	if !c.flags.vSet() {
		t.Fatal("expected V set on signed byte overflow")
	}
	if c.flags.cSet() {
		t.Fatal("did not expect carry")
	}
}

func TestEndToEndAddLongOverflow(t *testing.T) {
	var code []byte
	code = append(code, w16(0x223C)...) // MOVE.L #0x7FFFFFFF,D1
	code = append(code, w16(0x7FFF)...)
	code = append(code, w16(0xFFFF)...)
	code = append(code, w16(0x0681)...) // ADDI.L #1,D1
	code = append(code, w16(0x0000)...)
	code = append(code, w16(0x0001)...)

	c, b := newTestCore(t, code)
	c.Step(b)
	c.Step(b)

	if got := c.d(1); got != 0x80000000 {
		t.Fatalf("expected D1 = 0x80000000, got %#x", got)
	}
	if !c.flags.vSet() {
		t.Fatal("expected V set on signed long overflow")
	}
	if c.flags.cSet() {
		t.Fatal("did not expect carry")
	}
}

func TestEndToEndDivu(t *testing.T) {
	var code []byte
	code = append(code, w16(0x243C)...) // MOVE.L #100,D2
	code = append(code, w16(0x0000)...)
	code = append(code, w16(0x0064)...)
	code = append(code, w16(0x84FC)...) // DIVU.W #7,D2
	code = append(code, w16(0x0007)...)

	c, b := newTestCore(t, code)
	c.Step(b)
	c.Step(b)

	want := uint32(2)<<16 | 14 // remainder 2, quotient 14
	if got := c.d(2); got != want {
		t.Fatalf("expected D2 = %#x, got %#x", want, got)
	}
}

func TestEndToEndStop(t *testing.T) {
	code := append(w16(0x4E72), w16(0x2700)...) // STOP #0x2700

	c, b := newTestCore(t, code)
	c.Step(b)

	if c.State() != Stopped {
		t.Fatal("expected core to be Stopped after STOP")
	}
	if c.intMask != 7 {
		t.Fatalf("expected interrupt mask 7 from the loaded SR, got %d", c.intMask)
	}
}

func TestEndToEndMovemPostIncrementRoundTrip(t *testing.T) {
	var code []byte
	code = append(code, w16(0x203C)...) // MOVE.L #0x11111111,D0
	code = append(code, w16(0x1111)...)
	code = append(code, w16(0x1111)...)
	code = append(code, w16(0x223C)...) // MOVE.L #0x22222222,D1
	code = append(code, w16(0x2222)...)
	code = append(code, w16(0x2222)...)
	code = append(code, w16(0x48E7)...) // MOVEM.L D0-D1,-(A7)
	code = append(code, w16(0xC000)...) // predecrement mask: bit15=D0, bit14=D1
	code = append(code, w16(0x4CDF)...) // MOVEM.L (A7)+,D2-D3
	code = append(code, w16(0x000C)...)

	c, b := newTestCore(t, code)
	startSP := c.a(7)
	c.Step(b)
	c.Step(b)
	storeCycles := c.Step(b) // MOVEM.L D0-D1,-(A7): 2 registers, 8 cycles/register, no EA extra
	loadCycles := c.Step(b)  // MOVEM.L (A7)+,D2-D3: 2 registers, 8 cycles/register, +4 load offset

	if storeCycles != 8+2*8 {
		t.Fatalf("expected store MOVEM to cost %d cycles, got %d", 8+2*8, storeCycles)
	}
	if loadCycles != 8+4+2*8+8 {
		t.Fatalf("expected load MOVEM to cost %d cycles, got %d", 8+4+2*8+8, loadCycles)
	}

	if c.d(2) != 0x11111111 {
		t.Fatalf("expected D2 = 0x11111111, got %#x", c.d(2))
	}
	if c.d(3) != 0x22222222 {
		t.Fatalf("expected D3 = 0x22222222, got %#x", c.d(3))
	}
	if c.a(7) != startSP {
		t.Fatalf("expected A7 restored to %#x after the push/pop round trip, got %#x", startSP, c.a(7))
	}
}

func TestEndToEndPrivilegeViolationOnMoveToSRInUserMode(t *testing.T) {
	code := w16(0x46C0) // MOVE.W D0,SR

	c, b := newTestCore(t, code)
	c.srToFlags(0) // drop to user mode, clear interrupt mask
	c.setA(7, 0x1800)

	if c.s {
		t.Fatal("test setup: expected user mode before Step")
	}

	c.Step(b)

	if !c.s {
		t.Fatal("expected the privilege violation to force supervisor mode")
	}
}

func TestEndToEndTrapRteRoundTrip010Plus(t *testing.T) {
	for _, version := range []Version{MC68010, MC68020} {
		t.Run(version.String(), func(t *testing.T) {
			code := w16(0x4E40) // TRAP #0

			c, b := newTestCoreVersion(t, version, code)

			const trapVector = 32 // VectorTrapBase + 0
			const handlerAddr = 0x600
			b.Load(trapVector*4, w32(handlerAddr))
			b.Load(handlerAddr, w16(0x4E73)) // RTE

			srBefore := c.statusRegister()

			c.Step(b) // TRAP #0: push PC/SR (+frame word), jump to handler
			if c.PC != handlerAddr {
				t.Fatalf("expected PC = %#x at trap handler, got %#x", handlerAddr, c.PC)
			}

			c.Step(b) // RTE: pop SR, PC, discard frame word
			if c.PC != 0x402 {
				t.Fatalf("expected PC restored to %#x after RTE, got %#x", 0x402, c.PC)
			}
			if got := c.statusRegister(); got != srBefore {
				t.Fatalf("expected SR restored to %#x after RTE, got %#x", srBefore, got)
			}
		})
	}
}
