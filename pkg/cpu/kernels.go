package cpu

// Kernels (component A): pure flag/arithmetic primitives shared by every
// handler in instructions.go. Each kernel takes operands already widened
// to uint32/int32 and a byte size (1, 2, or 4) used only to pick the sign
// mask and the "fits in size" truncation; the caller is responsible for
// masking its inputs to size before calling.

func maskToSize(v uint32, size int) uint32 {
	switch size {
	case 1:
		return v & 0xFF
	case 2:
		return v & 0xFFFF
	default:
		return v
	}
}

func signExtend(v uint32, size int) int64 {
	switch size {
	case 1:
		return int64(int8(v))
	case 2:
		return int64(int16(v))
	default:
		return int64(int32(v))
	}
}

// add computes dst+src at the given size and returns the masked result
// plus the updated flags (spec §4.A, "ADD family").
func (f *Flags) add(dst, src uint32, size int) uint32 {
	d, s := maskToSize(dst, size), maskToSize(src, size)
	full := uint64(d) + uint64(s)
	result := maskToSize(uint32(full), size)

	sign := signMaskForSize(size)
	overflow := (d&sign) == (s&sign) && (result&sign) != (d&sign)
	carry := full > uint64(maskToSize(^uint32(0), size))

	f.n = result & sign
	f.notZ = result
	f.v = boolFlag(overflow, vFlagBit)
	f.c = boolFlag(carry, cFlagBit)
	f.x = boolFlag(carry, xFlagBit)
	return result
}

// addx is add with an incoming extend bit, used by ADDX; unlike add, it
// clears Z only when the result is nonzero (Z is otherwise left
// unchanged across a chain), per the 68000 ADDX Z-flag rule.
func (f *Flags) addx(dst, src uint32, size int, x bool) uint32 {
	d, s := maskToSize(dst, size), maskToSize(src, size)
	xBit := uint64(0)
	if x {
		xBit = 1
	}
	full := uint64(d) + uint64(s) + xBit
	result := maskToSize(uint32(full), size)

	sign := signMaskForSize(size)
	overflow := (d&sign) == (s&sign) && (result&sign) != (d&sign)
	carry := full > uint64(maskToSize(^uint32(0), size))

	f.n = result & sign
	f.notZ |= result
	f.v = boolFlag(overflow, vFlagBit)
	f.c = boolFlag(carry, cFlagBit)
	f.x = boolFlag(carry, xFlagBit)
	return result
}

// sub computes dst-src at the given size (spec §4.A, "SUB/CMP family").
// CMP reuses this and simply discards the result.
func (f *Flags) sub(dst, src uint32, size int) uint32 {
	d, s := maskToSize(dst, size), maskToSize(src, size)
	full := int64(d) - int64(s)
	result := maskToSize(uint32(full), size)

	sign := signMaskForSize(size)
	overflow := (d&sign) != (s&sign) && (result&sign) != (d&sign)
	borrow := d < s

	f.n = result & sign
	f.notZ = result
	f.v = boolFlag(overflow, vFlagBit)
	f.c = boolFlag(borrow, cFlagBit)
	f.x = boolFlag(borrow, xFlagBit)
	return result
}

func (f *Flags) subx(dst, src uint32, size int, x bool) uint32 {
	d, s := maskToSize(dst, size), maskToSize(src, size)
	xBit := int64(0)
	if x {
		xBit = 1
	}
	full := int64(d) - int64(s) - xBit
	result := maskToSize(uint32(full), size)

	sign := signMaskForSize(size)
	overflow := (d&sign) != (s&sign) && (result&sign) != (d&sign)
	borrow := full < 0

	f.n = result & sign
	f.notZ |= result
	f.v = boolFlag(overflow, vFlagBit)
	f.c = boolFlag(borrow, cFlagBit)
	f.x = boolFlag(borrow, xFlagBit)
	return result
}

// cmp is sub without writeback: used directly by CMP/CMPA/CMPI/CMPM.
func (f *Flags) cmp(dst, src uint32, size int) {
	f.sub(dst, src, size)
}

// logical applies op to dst/src, clears V and C, and sets N/Z from the
// masked result. Shared by AND/OR/EOR and their immediate/to-CCR/to-SR
// forms (spec §4.A, "logical family").
func (f *Flags) logical(result uint32, size int) uint32 {
	result = maskToSize(result, size)
	sign := signMaskForSize(size)
	f.n = result & sign
	f.notZ = result
	f.v = 0
	f.c = 0
	return result
}

func (f *Flags) not(v uint32, size int) uint32 {
	return f.logical(^v, size)
}

// --- shifts and rotates --------------------------------------------------

// ShiftKind distinguishes the eight shift/rotate operations (spec §4.A).
type ShiftKind int

const (
	ShiftASL ShiftKind = iota
	ShiftASR
	ShiftLSL
	ShiftLSR
	ShiftROL
	ShiftROR
	ShiftROXL
	ShiftROXR
)

// shift performs one of the eight shift/rotate operations for `count`
// positions (0-63, already resolved from the immediate/register/size-8
// encoding) and updates flags. A count of 0 leaves the value unchanged
// but still clears C and V, for every kind including the rotates; see
// spec §4.A edge cases.
func (f *Flags) shift(kind ShiftKind, value uint32, count uint, size int) uint32 {
	sign := signMaskForSize(size)
	bits := uint(size * 8)
	v := maskToSize(value, size)

	if count == 0 {
		f.n = v & sign
		f.notZ = v
		f.v = 0
		f.c = 0
		return v
	}

	var lastOut bool
	var result uint32
	overflow := false

	switch kind {
	case ShiftASL, ShiftLSL:
		for i := uint(0); i < count; i++ {
			topBefore := v&sign != 0
			lastOut = v&sign != 0
			v = maskToSize(v<<1, size)
			if kind == ShiftASL && (v&sign != 0) != topBefore {
				overflow = true
			}
		}
		result = v
		f.c = boolFlag(lastOut, cFlagBit)
		f.x = boolFlag(lastOut, xFlagBit)
		f.v = boolFlag(overflow, vFlagBit)

	case ShiftLSR:
		for i := uint(0); i < count; i++ {
			lastOut = v&1 != 0
			v >>= 1
		}
		result = v
		f.c = boolFlag(lastOut, cFlagBit)
		f.x = boolFlag(lastOut, xFlagBit)
		f.v = 0

	case ShiftASR:
		signBit := v & sign
		for i := uint(0); i < count; i++ {
			lastOut = v&1 != 0
			v = (v >> 1) | signBit
		}
		result = maskToSize(v, size)
		f.c = boolFlag(lastOut, cFlagBit)
		f.x = boolFlag(lastOut, xFlagBit)
		f.v = 0

	case ShiftROL:
		n := count % bits
		result = maskToSize(rotl(v, n, bits), size)
		lastOut = result&1 != 0
		if n > 0 {
			lastOut = (v>>(bits-n))&1 != 0
		}
		f.c = boolFlag(lastOut, cFlagBit)
		f.v = 0

	case ShiftROR:
		n := count % bits
		result = maskToSize(rotr(v, n, bits), size)
		lastOut = (v>>(n-1+bits))&1 != 0
		if n > 0 {
			lastOut = (v>>(n-1))&1 != 0
		}
		f.c = boolFlag(lastOut, cFlagBit)
		f.v = 0

	case ShiftROXL:
		x := f.xSet()
		for i := uint(0); i < count; i++ {
			newX := v&sign != 0
			v = maskToSize(v<<1, size)
			if x {
				v |= 1
			}
			x = newX
		}
		result = v
		f.c = boolFlag(x, cFlagBit)
		f.x = boolFlag(x, xFlagBit)
		f.v = 0

	case ShiftROXR:
		x := f.xSet()
		for i := uint(0); i < count; i++ {
			newX := v&1 != 0
			v >>= 1
			if x {
				v |= sign
			}
			x = newX
		}
		result = v
		f.c = boolFlag(x, cFlagBit)
		f.x = boolFlag(x, xFlagBit)
		f.v = 0
	}

	f.n = result & sign
	f.notZ = result
	return result
}

func rotl(v uint32, n, bits uint) uint32 {
	if n == 0 {
		return v
	}
	mask := uint32(1)<<bits - 1
	v &= mask
	return ((v << n) | (v >> (bits - n))) & mask
}

func rotr(v uint32, n, bits uint) uint32 {
	if n == 0 {
		return v
	}
	mask := uint32(1)<<bits - 1
	v &= mask
	return ((v >> n) | (v << (bits - n))) & mask
}

// --- BCD ------------------------------------------------------------------

// abcd implements decimal-adjusted addition for ABCD, operating on
// packed BCD bytes. C and X are set identically on decimal carry; Z is
// cleared on a nonzero result but, per the 68000's documented quirk,
// never set to 1 by ABCD/SBCD/NBCD — only cleared. The kernel preserves
// a previously-set Z across a chain by not touching notZ when the byte
// is zero (spec §4.A, "BCD family"). V follows the same quirk: it is the
// AND of the complement of the pre-adjustment low-digit sum with the
// final adjusted result, both read at the sign-bit position — for ABCD
// the low-digit sum is at most 19, so its complement always has bit 7
// set and V ends up equal to bit 7 of the adjusted result
// (original_source/src/instructions/common.rs
// abcd/sbcd_8: `core.v = !res` before adjustment, `core.v &= res` after).
func (f *Flags) abcd(dst, src uint8, x bool) uint8 {
	xBit := uint32(0)
	if x {
		xBit = 1
	}
	res := uint32(src&0x0F) + uint32(dst&0x0F) + xBit
	preV := ^res

	if res > 9 {
		res += 6
	}
	res += uint32(src&0xF0) + uint32(dst&0xF0)

	carry := res > 0x99
	f.c = boolFlag(carry, cFlagBit)
	f.x = boolFlag(carry, xFlagBit)
	if carry {
		res -= 0xA0
	}

	f.v = boolFlag(preV&res&nSignBit8 != 0, vFlagBit)
	f.n = res & nSignBit8

	result := uint8(res & 0xFF)
	if result != 0 {
		f.notZ |= uint32(result)
	}
	return result
}

func (f *Flags) sbcd(dst, src uint8, x bool) uint8 {
	xBit := uint32(0)
	if x {
		xBit = 1
	}
	res := uint32(dst&0x0F) - uint32(src&0x0F) - xBit
	preV := ^res

	if res > 9 {
		res -= 6
	}
	res += uint32(dst&0xF0) - uint32(src&0xF0)

	carry := res > 0x99
	f.c = boolFlag(carry, cFlagBit)
	f.x = boolFlag(carry, xFlagBit)
	if carry {
		res += 0xA0
	}

	f.v = boolFlag(preV&res&nSignBit8 != 0, vFlagBit)
	f.n = res & nSignBit8

	result := uint8(res & 0xFF)
	if result != 0 {
		f.notZ |= uint32(result)
	}
	return result
}

func (f *Flags) nbcd(src uint8, x bool) uint8 {
	return f.sbcd(0, src, x)
}

// --- multiply/divide -------------------------------------------------------

// mulu multiplies two 16-bit unsigned values into a 32-bit result, per
// spec §4.A. V and C are always cleared; N/Z come from the full 32-bit
// product.
func (f *Flags) mulu(dst, src uint16) uint32 {
	result := uint32(dst) * uint32(src)
	f.n = result & nSignBit32
	f.notZ = result
	f.v = 0
	f.c = 0
	return result
}

func (f *Flags) muls(dst, src int16) uint32 {
	result := uint32(int32(dst) * int32(src))
	f.n = result & nSignBit32
	f.notZ = result
	f.v = 0
	f.c = 0
	return result
}

// DivResult carries the quotient/remainder pair (and whether the divide
// overflowed the 16-bit quotient range, which DIVU/DIVS report without
// writing back) out of the divide kernels.
type DivResult struct {
	Quotient  uint32
	Remainder uint32
	Overflow  bool
}

// divu divides a 32-bit dividend by a 16-bit divisor. Division by zero is
// the caller's responsibility to detect before calling (it raises a
// Trap, not a kernel-level flag change).
func (f *Flags) divu(dividend uint32, divisor uint16) DivResult {
	q := dividend / uint32(divisor)
	r := dividend % uint32(divisor)
	if q > 0xFFFF {
		f.v = vFlagBit
		return DivResult{Overflow: true}
	}
	f.n = boolFlag(q&0x8000 != 0, nSignBit32)
	f.notZ = q
	f.v = 0
	f.c = 0
	return DivResult{Quotient: q, Remainder: r}
}

// divs divides a signed 32-bit dividend by a signed 16-bit divisor. The
// -2^31 / -1 case is preserved bit-for-bit as a quirk inherited from the
// reference this module was built against: quotient and remainder both
// come back zero and every flag is cleared, rather than raising overflow
// or computing the mathematically correct (out-of-range) quotient.
func (f *Flags) divs(dividend int32, divisor int16) DivResult {
	if dividend == -2147483648 && divisor == -1 {
		f.n, f.notZ, f.v, f.c, f.x = 0, 0xFFFFFFFF, 0, 0, 0
		return DivResult{Quotient: 0, Remainder: 0}
	}

	q := int64(dividend) / int64(divisor)
	r := int64(dividend) % int64(divisor)
	if q > 32767 || q < -32768 {
		f.v = vFlagBit
		return DivResult{Overflow: true}
	}

	result := uint32(int32(q))
	f.n = result & nSignBit32
	f.notZ = result
	f.v = 0
	f.c = 0
	return DivResult{Quotient: result, Remainder: uint32(int32(r))}
}
