package cpu

// Denormalized flag-byte constants. Only one bit is ever significant in
// each of c, x, v per the invariant in spec §3.2: kernels store a fixed
// sentinel bit rather than a boolean so that materializing the CCR is a
// handful of shifts, never branches. n is size-dependent (the masked
// sign bit at its natural bit position); not_z is the zero-extended
// result itself, ORed across chained operations, with the inverted
// sense its name implies. Bit positions confirmed against
// original_source/src/instructions/constants.rs.
const (
	cFlagBit uint32 = 0x100
	vFlagBit uint32 = 0x80
	xFlagBit uint32 = 0x100

	nSignBit8  uint32 = 0x80
	nSignBit16 uint32 = 0x8000
	nSignBit32 uint32 = 0x80000000

	sFlagBit uint16 = 13
	mFlagBit uint16 = 12
	intBits  uint16 = 8

	// CPUSRMask masks the bits of an SR write that are actually defined:
	// T1 T0 S M - I2 I1 I0 - - - X N Z V C.
	CPUSRMask uint16 = 0xF71F
)

// Flags holds the processor's denormalized condition-code state: one
// 32-bit word per flag, per spec §3.1/§3.2.
type Flags struct {
	x     uint32
	n     uint32
	v     uint32
	c     uint32
	notZ  uint32 // 0 means Z=1 ("not Z"); any nonzero byte means Z=0
}

func freshFlags() Flags {
	return Flags{notZ: 0} // Z=1 at reset
}

func signMaskForSize(size int) uint32 {
	switch size {
	case 1:
		return nSignBit8
	case 2:
		return nSignBit16
	default:
		return nSignBit32
	}
}

func boolFlag(set bool, bit uint32) uint32 {
	if set {
		return bit
	}
	return 0
}

func (f Flags) zSet() bool { return f.notZ == 0 }
func (f Flags) nSet() bool { return f.n != 0 }
func (f Flags) vSet() bool { return f.v != 0 }
func (f Flags) cSet() bool { return f.c != 0 }
func (f Flags) xSet() bool { return f.x != 0 }

// conditionCodeRegister materializes the CCR byte {X N Z V C} from the
// denormalized flag words. See spec §6.3 for bit layout.
func (f Flags) conditionCodeRegister() uint16 {
	var ccr uint16
	if f.cSet() {
		ccr |= 1 << 0
	}
	if f.vSet() {
		ccr |= 1 << 1
	}
	if f.zSet() {
		ccr |= 1 << 2
	}
	if f.nSet() {
		ccr |= 1 << 3
	}
	if f.xSet() {
		ccr |= 1 << 4
	}
	return ccr
}

// ccrToFlags writes back the X N Z V C bits of ccr into the denormalized
// flag words.
func (f *Flags) ccrToFlags(ccr uint16) {
	f.c = boolFlag(ccr&(1<<0) != 0, cFlagBit)
	f.v = boolFlag(ccr&(1<<1) != 0, vFlagBit)
	if ccr&(1<<2) != 0 {
		f.notZ = 0
	} else {
		f.notZ = 0xFFFFFFFF
	}
	f.n = boolFlag(ccr&(1<<3) != 0, nSignBit32)
	f.x = boolFlag(ccr&(1<<4) != 0, xFlagBit)
}

// Condition evaluates one of the 16 68000 branch/Scc/DBcc conditions
// against the current flags. Formulas carried verbatim from
// original_source/src/lib.rs (M68k::condition).
type Condition uint8

const (
	CondT  Condition = iota // true
	CondF                   // false
	CondHI                  // !C & !Z
	CondLS                  // C | Z
	CondCC                  // !C
	CondCS                  // C
	CondNE                  // !Z
	CondEQ                  // Z
	CondVC                  // !V
	CondVS                  // V
	CondPL                  // !N
	CondMI                  // N
	CondGE                  // N&V | !N&!V
	CondLT                  // N&!V | !N&V
	CondGT                  // N&V&!Z | !N&!V&!Z
	CondLE                  // Z | N&!V | !N&V
)

func (f Flags) Test(cond Condition) bool {
	c, z, v, n := f.cSet(), f.zSet(), f.vSet(), f.nSet()
	switch cond {
	case CondT:
		return true
	case CondF:
		return false
	case CondHI:
		return !c && !z
	case CondLS:
		return c || z
	case CondCC:
		return !c
	case CondCS:
		return c
	case CondNE:
		return !z
	case CondEQ:
		return z
	case CondVC:
		return !v
	case CondVS:
		return v
	case CondPL:
		return !n
	case CondMI:
		return n
	case CondGE:
		return (n && v) || (!n && !v)
	case CondLT:
		return (n && !v) || (!n && v)
	case CondGT:
		return (n && v && !z) || (!n && !v && !z)
	case CondLE:
		return z || (n && !v) || (!n && v)
	default:
		return false
	}
}

// conditionFromOpcode extracts the 4-bit condition field (bits 11-8) used
// by Bcc and Scc/DBcc opcodes.
func conditionFromOpcode(opcode uint16) Condition {
	return Condition((opcode >> 8) & 0xF)
}
