package cpu

import "testing"

func TestFreshFlagsZeroSet(t *testing.T) {
	f := freshFlags()
	if !f.zSet() {
		t.Fatal("fresh flags should have Z set")
	}
	if f.nSet() || f.vSet() || f.cSet() || f.xSet() {
		t.Fatal("fresh flags should have N, V, C, X clear")
	}
}

func TestConditionCodeRegisterRoundTrip(t *testing.T) {
	var f Flags
	f.c = cFlagBit
	f.v = vFlagBit
	f.notZ = 0
	f.n = nSignBit32
	f.x = xFlagBit

	ccr := f.conditionCodeRegister()
	if ccr != 0x1F {
		t.Fatalf("expected CCR 0x1F (all set), got %#x", ccr)
	}

	var f2 Flags
	f2.ccrToFlags(ccr)
	if f2.conditionCodeRegister() != ccr {
		t.Fatalf("round trip mismatch: %#x != %#x", f2.conditionCodeRegister(), ccr)
	}
}

func TestConditionFormulas(t *testing.T) {
	cases := []struct {
		name        string
		c, z, v, n  bool
		cond        Condition
		want        bool
	}{
		{"HI true", false, false, false, false, CondHI, true},
		{"HI false on carry", true, false, false, false, CondHI, false},
		{"EQ", false, true, false, false, CondEQ, true},
		{"GE n&v", true /*unused*/, false, true, true, CondGE, true},
		{"LT mismatch", false, false, true, false, CondLT, true},
		{"GT", false, false, false, false, CondGT, true},
		{"LE on zero", false, true, false, false, CondLE, true},
	}
	for _, tc := range cases {
		var f Flags
		f.c = boolFlag(tc.c, cFlagBit)
		if tc.z {
			f.notZ = 0
		} else {
			f.notZ = 1
		}
		f.v = boolFlag(tc.v, vFlagBit)
		f.n = boolFlag(tc.n, nSignBit32)
		if got := f.Test(tc.cond); got != tc.want {
			t.Errorf("%s: Test(%v) = %v, want %v", tc.name, tc.cond, got, tc.want)
		}
	}
}

func TestSRPacksExpectedBits(t *testing.T) {
	c := New(MC68000)
	c.s = true
	c.m = false
	c.intMask = 5
	c.flags.c = cFlagBit

	sr := c.statusRegister()
	if sr&(1<<sFlagBit) == 0 {
		t.Fatal("S bit should be set")
	}
	if (sr>>intBits)&7 != 5 {
		t.Fatalf("interrupt mask mismatch: got %d", (sr>>intBits)&7)
	}
	if sr&1 == 0 {
		t.Fatal("C bit should be set in low byte")
	}
}

func TestSRToFlagsSwapsStackOnModeChange(t *testing.T) {
	c := New(MC68000)
	c.s = false
	c.dar[15] = 0x1000 // USP
	c.inactiveISP = 0x2000

	// Entering supervisor mode (S=1, M=0) should save USP and load ISP.
	c.srToFlags(1 << sFlagBit)
	if c.dar[15] != 0x2000 {
		t.Fatalf("expected ISP 0x2000 loaded, got %#x", c.dar[15])
	}
	if c.inactiveUSP != 0x1000 {
		t.Fatalf("expected USP 0x1000 saved, got %#x", c.inactiveUSP)
	}
}
