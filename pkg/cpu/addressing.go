package cpu

import "github.com/mc68kcore/m68k/pkg/bus"

// AddrMode enumerates the 12 effective-addressing modes of spec §4.B.
// Register-direct and register-indirect-with-displacement share a
// "mode,register" encoding identical to the hardware's; immediate and PC
// modes reuse mode 7 with a register field as the sub-mode selector.
type AddrMode int

const (
	ModeDReg AddrMode = iota
	ModeAReg
	ModeAInd
	ModeAIndPostInc
	ModeAIndPreDec
	ModeAIndDisp
	ModeAIndIndex
	ModeAbsShort
	ModeAbsLong
	ModePCDisp
	ModePCIndex
	ModeImmediate
)

// EffectiveAddress is the decoded target of an operand: either a
// register number (ModeDReg/ModeAReg) or a memory address plus the space
// it lives in. Immediate mode carries its literal value directly and has
// no address.
type EffectiveAddress struct {
	Mode AddrMode
	Reg  int

	Addr  uint32
	Space bus.AddressSpace

	Immediate uint32
}

// decodeEA decodes the 6-bit mode/register field of an instruction word
// (bits 5-3 mode, bits 2-0 register) at the given operand size, consuming
// any extension words from program space and applying pre-decrement/
// post-increment side effects immediately (spec §4.B). A7 always steps by
// 2 for byte-sized pre-decrement/post-increment, never by 1 (spec §8
// property 6).
func (c *Core) decodeEA(b bus.Bus, modeField, regField int, size int) (EffectiveAddress, *Exception) {
	switch modeField {
	case 0:
		return EffectiveAddress{Mode: ModeDReg, Reg: regField}, nil
	case 1:
		return EffectiveAddress{Mode: ModeAReg, Reg: regField}, nil
	case 2:
		return EffectiveAddress{Mode: ModeAInd, Addr: c.a(regField), Space: c.dataSpace()}, nil
	case 3:
		addr := c.a(regField)
		ea := EffectiveAddress{Mode: ModeAIndPostInc, Addr: addr, Space: c.dataSpace()}
		c.setA(regField, addr+addrStep(regField, size))
		return ea, nil
	case 4:
		step := addrStep(regField, size)
		addr := c.a(regField) - step
		c.setA(regField, addr)
		return EffectiveAddress{Mode: ModeAIndPreDec, Addr: addr, Space: c.dataSpace()}, nil
	case 5:
		disp := int16(c.readImmData16(b))
		addr := c.a(regField) + uint32(int32(disp))
		return EffectiveAddress{Mode: ModeAIndDisp, Addr: addr, Space: c.dataSpace()}, nil
	case 6:
		base := c.a(regField)
		addr := c.decodeIndexed(b, base)
		return EffectiveAddress{Mode: ModeAIndIndex, Addr: addr, Space: c.dataSpace()}, nil
	case 7:
		switch regField {
		case 0:
			addr := uint32(int32(int16(c.readImmData16(b))))
			return EffectiveAddress{Mode: ModeAbsShort, Addr: addr, Space: c.dataSpace()}, nil
		case 1:
			addr := c.readImmData32(b)
			return EffectiveAddress{Mode: ModeAbsLong, Addr: addr, Space: c.dataSpace()}, nil
		case 2:
			base := c.PC
			disp := int16(c.readImmData16(b))
			addr := base + uint32(int32(disp))
			return EffectiveAddress{Mode: ModePCDisp, Addr: addr, Space: c.progSpace()}, nil
		case 3:
			base := c.PC
			addr := c.decodeIndexed(b, base)
			return EffectiveAddress{Mode: ModePCIndex, Addr: addr, Space: c.progSpace()}, nil
		case 4:
			var imm uint32
			if size == 4 {
				imm = c.readImmData32(b)
			} else {
				imm = uint32(c.readImmData16(b))
			}
			return EffectiveAddress{Mode: ModeImmediate, Immediate: imm}, nil
		default:
			return EffectiveAddress{}, illegalErr(c.IR, c.PC)
		}
	}
	return EffectiveAddress{}, illegalErr(c.IR, c.PC)
}

// addrStep returns how far a pre-decrement/post-increment address
// register moves for the given operand size. A7 (the stack pointer)
// always moves by at least 2 so the stack stays word-aligned even for
// byte operands.
func addrStep(reg int, size int) uint32 {
	if reg == 7 && size == 1 {
		return 2
	}
	return uint32(size)
}

// decodeIndexed decodes a brief extension word: an 8-bit displacement
// plus an index register (D or A, word or long, no scale on '000/'010;
// '020 full-format extension words are not modeled, matching this core's
// stated non-goal around 68020 addressing-mode extensions beyond the
// instruction cache).
func (c *Core) decodeIndexed(b bus.Bus, base uint32) uint32 {
	ext := c.readImmData16(b)
	disp := int8(ext & 0xFF)
	indexIsAddr := ext&0x8000 != 0
	indexReg := int((ext >> 12) & 7)
	longIndex := ext&0x0800 != 0

	var indexVal uint32
	if indexIsAddr {
		indexVal = c.a(indexReg)
	} else {
		indexVal = c.d(indexReg)
	}
	if !longIndex {
		indexVal = uint32(int32(int16(indexVal)))
	}

	return base + uint32(int32(disp)) + indexVal
}

// readOperand fetches the value addressed by ea at the given size,
// without any side effects beyond what decodeEA already performed (spec
// §4.C).
func (c *Core) readOperand(b bus.Bus, ea EffectiveAddress, size int) uint32 {
	switch ea.Mode {
	case ModeDReg:
		return maskToSize(c.d(ea.Reg), size)
	case ModeAReg:
		if size == 2 {
			return uint32(int32(int16(c.a(ea.Reg))))
		}
		return c.a(ea.Reg)
	case ModeImmediate:
		return ea.Immediate
	default:
		switch size {
		case 1:
			return uint32(c.read8(b, ea.Space, ea.Addr))
		case 2:
			return uint32(c.read16(b, ea.Space, ea.Addr))
		default:
			return c.read32(b, ea.Space, ea.Addr)
		}
	}
}

// writeOperand stores value into the destination addressed by ea,
// preserving untouched upper bits of data registers for byte/word writes
// (spec §8 properties 3 and 4). Writing to ModeImmediate or ModePCDisp/
// ModePCIndex is a programming error in the handler tables, not a
// runtime condition, so it is not guarded here.
func (c *Core) writeOperand(b bus.Bus, ea EffectiveAddress, value uint32, size int) {
	switch ea.Mode {
	case ModeDReg:
		switch size {
		case 1:
			c.setDByte(ea.Reg, uint8(value))
		case 2:
			c.setDWord(ea.Reg, uint16(value))
		default:
			c.setD(ea.Reg, value)
		}
	case ModeAReg:
		if size == 2 {
			c.setA(ea.Reg, uint32(int32(int16(value))))
		} else {
			c.setA(ea.Reg, value)
		}
	default:
		switch size {
		case 1:
			c.write8(b, ea.Space, ea.Addr, uint8(value))
		case 2:
			c.write16(b, ea.Space, ea.Addr, uint16(value))
		default:
			c.write32(b, ea.Space, ea.Addr, value)
		}
	}
}

// eaCycles reports the base extra-cycle cost of computing ea, used by
// handlers composing their reported cycle total (spec §5's cycle-table
// obligation). Register-direct modes cost nothing extra; memory modes
// roughly follow the classic 68000 timing tables.
func eaCycles(ea EffectiveAddress, size int) int {
	switch ea.Mode {
	case ModeDReg, ModeAReg:
		return 0
	case ModeAInd, ModeAIndPostInc:
		if size == 4 {
			return 8
		}
		return 4
	case ModeAIndPreDec:
		if size == 4 {
			return 10
		}
		return 6
	case ModeAIndDisp, ModePCDisp:
		if size == 4 {
			return 12
		}
		return 8
	case ModeAIndIndex, ModePCIndex:
		if size == 4 {
			return 14
		}
		return 10
	case ModeAbsShort:
		if size == 4 {
			return 12
		}
		return 8
	case ModeAbsLong:
		if size == 4 {
			return 16
		}
		return 12
	case ModeImmediate:
		if size == 4 {
			return 8
		}
		return 4
	default:
		return 0
	}
}
