package cpu

import "testing"

func TestAddByteOverflowAndCarry(t *testing.T) {
	var f Flags
	result := f.add(0x7F, 0x01, 1) // 127 + 1 overflows into negative
	if result != 0x80 {
		t.Fatalf("expected 0x80, got %#x", result)
	}
	if !f.vSet() {
		t.Fatal("expected V set on signed overflow")
	}
	if f.cSet() {
		t.Fatal("did not expect carry out of bit 7")
	}
	if !f.nSet() {
		t.Fatal("expected N set, result is negative")
	}
}

func TestAddByteCarryOut(t *testing.T) {
	var f Flags
	result := f.add(0xFF, 0x01, 1)
	if result != 0x00 {
		t.Fatalf("expected wraparound to 0, got %#x", result)
	}
	if !f.cSet() || !f.xSet() {
		t.Fatal("expected C and X set on carry out")
	}
	if !f.zSet() {
		t.Fatal("expected Z set, result is zero")
	}
}

func TestAddLongOverflow(t *testing.T) {
	var f Flags
	result := f.add(0x7FFFFFFF, 0x00000001, 4)
	if result != 0x80000000 {
		t.Fatalf("expected 0x80000000, got %#x", result)
	}
	if !f.vSet() {
		t.Fatal("expected V set on 32-bit signed overflow")
	}
	if f.cSet() {
		t.Fatal("did not expect carry")
	}
}

func TestSubBorrow(t *testing.T) {
	var f Flags
	result := f.sub(0x00, 0x01, 1)
	if result != 0xFF {
		t.Fatalf("expected 0xFF, got %#x", result)
	}
	if !f.cSet() || !f.xSet() {
		t.Fatal("expected borrow to set C and X")
	}
}

func TestDivuExactAndRemainder(t *testing.T) {
	var f Flags
	res := f.divu(10, 3)
	if res.Quotient != 3 || res.Remainder != 1 {
		t.Fatalf("expected 10/3 = q3 r1, got q%d r%d", res.Quotient, res.Remainder)
	}
	if res.Overflow {
		t.Fatal("did not expect overflow")
	}
}

func TestDivuOverflow(t *testing.T) {
	var f Flags
	res := f.divu(0x10000, 1)
	if !res.Overflow {
		t.Fatal("expected quotient overflow to be reported")
	}
}

func TestDivsMinIntByNegOneQuirk(t *testing.T) {
	var f Flags
	res := f.divs(-2147483648, -1)
	if res.Quotient != 0 || res.Remainder != 0 {
		t.Fatalf("expected quotient/remainder both zero on the documented quirk, got q%d r%d", res.Quotient, res.Remainder)
	}
	if f.cSet() || f.vSet() || f.nSet() || f.xSet() || f.zSet() {
		t.Fatal("expected every flag clear (Z clear via nonzero notZ) on the documented quirk")
	}
}

func TestDivsOrdinary(t *testing.T) {
	var f Flags
	res := f.divs(-10, 3)
	if res.Overflow {
		t.Fatal("did not expect overflow")
	}
	if int32(res.Quotient) != -3 || int32(res.Remainder) != -1 {
		t.Fatalf("expected q=-3 r=-1, got q%d r%d", int32(res.Quotient), int32(res.Remainder))
	}
}

func TestShiftASLSetsOverflowOnSignChange(t *testing.T) {
	var f Flags
	result := f.shift(ShiftASL, 0x40, 1, 1) // 0b0100_0000 -> 0b1000_0000, sign changed mid-shift
	if result != 0x80 {
		t.Fatalf("expected 0x80, got %#x", result)
	}
	if !f.vSet() {
		t.Fatal("expected V set, sign bit changed during the shift")
	}
}

func TestShiftLSRCarryOut(t *testing.T) {
	var f Flags
	result := f.shift(ShiftLSR, 0x01, 1, 1)
	if result != 0 {
		t.Fatalf("expected 0, got %#x", result)
	}
	if !f.cSet() || !f.xSet() {
		t.Fatal("expected C and X set from the shifted-out bit")
	}
}

func TestShiftCountZeroClearsCarryOnly(t *testing.T) {
	var f Flags
	f.c = cFlagBit
	result := f.shift(ShiftASL, 0x55, 0, 1)
	if result != 0x55 {
		t.Fatalf("count 0 should not change the value, got %#x", result)
	}
	if f.cSet() {
		t.Fatal("count 0 clears C")
	}
}

func TestRotateROL(t *testing.T) {
	var f Flags
	result := f.shift(ShiftROL, 0x81, 1, 1) // 1000_0001 rol 1 -> 0000_0011
	if result != 0x03 {
		t.Fatalf("expected 0x03, got %#x", result)
	}
	if !f.cSet() {
		t.Fatal("expected C set from the rotated-out bit")
	}
}

func TestAbcdSimpleAddition(t *testing.T) {
	var f Flags
	result := f.abcd(0x25, 0x17, false) // 25 + 17 = 42 in decimal
	if result != 0x42 {
		t.Fatalf("expected BCD 0x42, got %#x", result)
	}
	if f.cSet() {
		t.Fatal("did not expect decimal carry")
	}
}

func TestAbcdDecimalCarry(t *testing.T) {
	var f Flags
	result := f.abcd(0x58, 0x59, false) // 58 + 59 = 117 -> wraps to 17, carry out
	if result != 0x17 {
		t.Fatalf("expected BCD 0x17, got %#x", result)
	}
	if !f.cSet() || !f.xSet() {
		t.Fatal("expected decimal carry to set C and X")
	}
}

func TestAbcdVFlagQuirk(t *testing.T) {
	var f Flags
	result := f.abcd(0x49, 0x49, false) // 49 + 49 = 98, a valid BCD result with no decimal carry
	if result != 0x98 {
		t.Fatalf("expected BCD 0x98, got %#x", result)
	}
	if f.cSet() {
		t.Fatal("did not expect decimal carry")
	}
	if !f.vSet() {
		t.Fatal("expected V set per the documented ABCD sign-bit quirk even without a true decimal carry")
	}
}
