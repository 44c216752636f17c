package cpu

import "github.com/mc68kcore/m68k/pkg/bus"

// Handlers (component D) all share the same shape: decode whatever
// fields they need straight out of c.IR (the opcode Step already fetched
// into place), perform the operation through the component-A kernels and
// component-B/C addressing helpers, and report a cycle count or an
// exception. None of them mutate PC directly except the control-flow
// family (Bcc/BSR/JMP/JSR/RTS/RTE/RTR/DBcc/TRAP*).

// sizeField2 decodes the common 2-bit size encoding (00 byte, 01 word,
// 10 long) found in ADD/SUB/AND/OR/EOR/CMP/NEG/CLR/NOT/TST and friends.
func sizeField2(bits uint16) (int, bool) {
	switch bits {
	case 0:
		return 1, true
	case 1:
		return 2, true
	case 2:
		return 4, true
	default:
		return 0, false
	}
}

// moveSizeField decodes MOVE's own size encoding at bits 13-12 (01 byte,
// 11 word, 10 long).
func moveSizeField(bits uint16) (int, bool) {
	switch bits {
	case 1:
		return 1, true
	case 3:
		return 2, true
	case 2:
		return 4, true
	default:
		return 0, false
	}
}

func opIllegal(c *Core, b bus.Bus) (int, *Exception) {
	return 4, illegalErr(c.IR, c.PC-2)
}

func opLineA(c *Core, b bus.Bus) (int, *Exception) {
	return 4, unimplementedErr(c.IR, c.PC-2, VectorLineA)
}

func opLineF(c *Core, b bus.Bus) (int, *Exception) {
	return 4, unimplementedErr(c.IR, c.PC-2, VectorLineF)
}

// --- MOVE family -----------------------------------------------------------

func opMove(c *Core, b bus.Bus) (int, *Exception) {
	size, ok := moveSizeField((c.IR >> 12) & 3)
	if !ok {
		return opIllegal(c, b)
	}
	srcMode := int((c.IR >> 3) & 7)
	srcReg := int(c.IR & 7)
	dstReg := int((c.IR >> 9) & 7)
	dstMode := int((c.IR >> 6) & 7)

	src, err := c.decodeEA(b, srcMode, srcReg, size)
	if err != nil {
		return 4, err
	}
	value := c.readOperand(b, src, size)
	c.flags.logical(value, size) // MOVE sets N/Z from the result, clears V/C

	dst, err := c.decodeEA(b, dstMode, dstReg, size)
	if err != nil {
		return 4, err
	}
	c.writeOperand(b, dst, value, size)
	return 4 + eaCycles(src, size) + eaCycles(dst, size), nil
}

func opMovea(c *Core, b bus.Bus) (int, *Exception) {
	size, ok := moveSizeField((c.IR >> 12) & 3)
	if !ok || size == 1 {
		return opIllegal(c, b)
	}
	srcMode := int((c.IR >> 3) & 7)
	srcReg := int(c.IR & 7)
	dstReg := int((c.IR >> 9) & 7)

	src, err := c.decodeEA(b, srcMode, srcReg, size)
	if err != nil {
		return 4, err
	}
	value := c.readOperand(b, src, size)
	if size == 2 {
		value = uint32(int32(int16(value)))
	}
	c.setA(dstReg, value)
	return 4 + eaCycles(src, size), nil
}

func opMoveq(c *Core, b bus.Bus) (int, *Exception) {
	reg := int((c.IR >> 9) & 7)
	data := uint32(int32(int8(c.IR & 0xFF)))
	c.flags.logical(data, 4)
	c.setD(reg, data)
	return 4, nil
}

func opLea(c *Core, b bus.Bus) (int, *Exception) {
	mode := int((c.IR >> 3) & 7)
	reg := int(c.IR & 7)
	areg := int((c.IR >> 9) & 7)
	ea, err := c.decodeEA(b, mode, reg, 4)
	if err != nil {
		return 4, err
	}
	if ea.Mode == ModeDReg || ea.Mode == ModeAReg || ea.Mode == ModeImmediate {
		return opIllegal(c, b)
	}
	c.setA(areg, ea.Addr)
	return 4 + eaCycles(ea, 4), nil
}

func opPea(c *Core, b bus.Bus) (int, *Exception) {
	mode := int((c.IR >> 3) & 7)
	reg := int(c.IR & 7)
	ea, err := c.decodeEA(b, mode, reg, 4)
	if err != nil {
		return 4, err
	}
	if ea.Mode == ModeDReg || ea.Mode == ModeAReg || ea.Mode == ModeImmediate {
		return opIllegal(c, b)
	}
	c.pushLong(b, ea.Addr)
	return 12 + eaCycles(ea, 4), nil
}

// --- arithmetic family -------------------------------------------------

// decodeArithOpmode reads the common <ea>,Dn / Dn,<ea> opmode triplet shared by
// ADD/SUB/AND/OR.
func (c *Core) decodeArithOpmode() (areaReg int, size int, toEA bool, ok bool) {
	areaReg = int((c.IR >> 9) & 7)
	opmode := (c.IR >> 6) & 7
	switch opmode {
	case 0:
		return areaReg, 1, false, true
	case 1:
		return areaReg, 2, false, true
	case 2:
		return areaReg, 4, false, true
	case 4:
		return areaReg, 1, true, true
	case 5:
		return areaReg, 2, true, true
	case 6:
		return areaReg, 4, true, true
	default:
		return 0, 0, false, false
	}
}

func opAdd(c *Core, b bus.Bus) (int, *Exception) {
	dReg, size, toEA, ok := c.decodeArithOpmode()
	if !ok {
		return opIllegal(c, b)
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	if toEA {
		result := c.flags.add(c.readOperand(b, ea, size), c.d(dReg), size)
		c.writeOperand(b, ea, result, size)
		return 4 + eaCycles(ea, size), nil
	}
	result := c.flags.add(c.d(dReg), c.readOperand(b, ea, size), size)
	if size == 1 {
		c.setDByte(dReg, uint8(result))
	} else if size == 2 {
		c.setDWord(dReg, uint16(result))
	} else {
		c.setD(dReg, result)
	}
	return 4 + eaCycles(ea, size), nil
}

func opAdda(c *Core, b bus.Bus) (int, *Exception) {
	areg := int((c.IR >> 9) & 7)
	long := (c.IR>>8)&1 != 0
	size := 2
	if long {
		size = 4
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	v := c.readOperand(b, ea, size)
	if size == 2 {
		v = uint32(int32(int16(v)))
	}
	c.setA(areg, c.a(areg)+v)
	return 8 + eaCycles(ea, size), nil
}

func opAddi(c *Core, b bus.Bus) (int, *Exception) {
	size, ok := sizeField2((c.IR >> 6) & 3)
	if !ok {
		return opIllegal(c, b)
	}
	var imm uint32
	if size == 4 {
		imm = c.readImmData32(b)
	} else {
		imm = uint32(c.readImmData16(b))
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	result := c.flags.add(c.readOperand(b, ea, size), imm, size)
	c.writeOperand(b, ea, result, size)
	return 8 + eaCycles(ea, size), nil
}

func opAddq(c *Core, b bus.Bus) (int, *Exception) {
	size, ok := sizeField2((c.IR >> 6) & 3)
	if !ok {
		return opIllegal(c, b)
	}
	data := uint32((c.IR >> 9) & 7)
	if data == 0 {
		data = 8
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	if ea.Mode == ModeAReg {
		// ADDQ to an address register does not affect flags and always
		// operates on the full 32 bits (spec §4.A ADDQ edge case).
		c.setA(ea.Reg, c.a(ea.Reg)+data)
		return 4 + eaCycles(ea, size), nil
	}
	result := c.flags.add(c.readOperand(b, ea, size), data, size)
	c.writeOperand(b, ea, result, size)
	return 4 + eaCycles(ea, size), nil
}

func opAddx(c *Core, b bus.Bus) (int, *Exception) {
	size, ok := sizeField2((c.IR >> 6) & 3)
	if !ok {
		return opIllegal(c, b)
	}
	ry := int(c.IR & 7)
	rx := int((c.IR >> 9) & 7)
	useMemory := (c.IR>>3)&1 != 0

	if !useMemory {
		result := c.flags.addx(c.d(rx), c.d(ry), size, c.flags.xSet())
		if size == 1 {
			c.setDByte(rx, uint8(result))
		} else if size == 2 {
			c.setDWord(rx, uint16(result))
		} else {
			c.setD(rx, result)
		}
		return 4, nil
	}
	srcEA, _ := c.decodeEA(b, 4, ry, size)
	dstEA, _ := c.decodeEA(b, 4, rx, size)
	result := c.flags.addx(c.readOperand(b, dstEA, size), c.readOperand(b, srcEA, size), size, c.flags.xSet())
	c.writeOperand(b, dstEA, result, size)
	return 18, nil
}

func opSub(c *Core, b bus.Bus) (int, *Exception) {
	dReg, size, toEA, ok := c.decodeArithOpmode()
	if !ok {
		return opIllegal(c, b)
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	if toEA {
		result := c.flags.sub(c.readOperand(b, ea, size), c.d(dReg), size)
		c.writeOperand(b, ea, result, size)
		return 4 + eaCycles(ea, size), nil
	}
	result := c.flags.sub(c.d(dReg), c.readOperand(b, ea, size), size)
	if size == 1 {
		c.setDByte(dReg, uint8(result))
	} else if size == 2 {
		c.setDWord(dReg, uint16(result))
	} else {
		c.setD(dReg, result)
	}
	return 4 + eaCycles(ea, size), nil
}

func opSuba(c *Core, b bus.Bus) (int, *Exception) {
	areg := int((c.IR >> 9) & 7)
	long := (c.IR>>8)&1 != 0
	size := 2
	if long {
		size = 4
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	v := c.readOperand(b, ea, size)
	if size == 2 {
		v = uint32(int32(int16(v)))
	}
	c.setA(areg, c.a(areg)-v)
	return 8 + eaCycles(ea, size), nil
}

func opSubi(c *Core, b bus.Bus) (int, *Exception) {
	size, ok := sizeField2((c.IR >> 6) & 3)
	if !ok {
		return opIllegal(c, b)
	}
	var imm uint32
	if size == 4 {
		imm = c.readImmData32(b)
	} else {
		imm = uint32(c.readImmData16(b))
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	result := c.flags.sub(c.readOperand(b, ea, size), imm, size)
	c.writeOperand(b, ea, result, size)
	return 8 + eaCycles(ea, size), nil
}

func opSubq(c *Core, b bus.Bus) (int, *Exception) {
	size, ok := sizeField2((c.IR >> 6) & 3)
	if !ok {
		return opIllegal(c, b)
	}
	data := uint32((c.IR >> 9) & 7)
	if data == 0 {
		data = 8
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	if ea.Mode == ModeAReg {
		c.setA(ea.Reg, c.a(ea.Reg)-data)
		return 4 + eaCycles(ea, size), nil
	}
	result := c.flags.sub(c.readOperand(b, ea, size), data, size)
	c.writeOperand(b, ea, result, size)
	return 4 + eaCycles(ea, size), nil
}

func opSubx(c *Core, b bus.Bus) (int, *Exception) {
	size, ok := sizeField2((c.IR >> 6) & 3)
	if !ok {
		return opIllegal(c, b)
	}
	ry := int(c.IR & 7)
	rx := int((c.IR >> 9) & 7)
	useMemory := (c.IR>>3)&1 != 0

	if !useMemory {
		result := c.flags.subx(c.d(rx), c.d(ry), size, c.flags.xSet())
		if size == 1 {
			c.setDByte(rx, uint8(result))
		} else if size == 2 {
			c.setDWord(rx, uint16(result))
		} else {
			c.setD(rx, result)
		}
		return 4, nil
	}
	srcEA, _ := c.decodeEA(b, 4, ry, size)
	dstEA, _ := c.decodeEA(b, 4, rx, size)
	result := c.flags.subx(c.readOperand(b, dstEA, size), c.readOperand(b, srcEA, size), size, c.flags.xSet())
	c.writeOperand(b, dstEA, result, size)
	return 18, nil
}

// --- compare family ------------------------------------------------------

func opCmp(c *Core, b bus.Bus) (int, *Exception) {
	size, ok := sizeField2((c.IR >> 6) & 3)
	if !ok {
		return opIllegal(c, b)
	}
	dReg := int((c.IR >> 9) & 7)
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	c.flags.cmp(c.d(dReg), c.readOperand(b, ea, size), size)
	return 4 + eaCycles(ea, size), nil
}

func opCmpa(c *Core, b bus.Bus) (int, *Exception) {
	areg := int((c.IR >> 9) & 7)
	long := (c.IR>>8)&1 != 0
	size := 2
	if long {
		size = 4
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	v := c.readOperand(b, ea, size)
	if size == 2 {
		v = uint32(int32(int16(v)))
	}
	c.flags.cmp(c.a(areg), v, 4)
	return 6 + eaCycles(ea, size), nil
}

func opCmpi(c *Core, b bus.Bus) (int, *Exception) {
	size, ok := sizeField2((c.IR >> 6) & 3)
	if !ok {
		return opIllegal(c, b)
	}
	var imm uint32
	if size == 4 {
		imm = c.readImmData32(b)
	} else {
		imm = uint32(c.readImmData16(b))
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	c.flags.cmp(c.readOperand(b, ea, size), imm, size)
	return 8 + eaCycles(ea, size), nil
}

func opCmpm(c *Core, b bus.Bus) (int, *Exception) {
	size, ok := sizeField2((c.IR >> 6) & 3)
	if !ok {
		return opIllegal(c, b)
	}
	ry := int(c.IR & 7)
	rx := int((c.IR >> 9) & 7)
	srcEA, _ := c.decodeEA(b, 3, ry, size)
	dstEA, _ := c.decodeEA(b, 3, rx, size)
	c.flags.cmp(c.readOperand(b, dstEA, size), c.readOperand(b, srcEA, size), size)
	return 12, nil
}

// --- logical family ------------------------------------------------------

func opAnd(c *Core, b bus.Bus) (int, *Exception) {
	return genericLogical(c, b, func(d, s uint32) uint32 { return d & s })
}
func opOr(c *Core, b bus.Bus) (int, *Exception) {
	return genericLogical(c, b, func(d, s uint32) uint32 { return d | s })
}
func opEor(c *Core, b bus.Bus) (int, *Exception) {
	dReg := int((c.IR >> 9) & 7)
	opmode := (c.IR >> 6) & 7
	var size int
	switch opmode {
	case 4:
		size = 1
	case 5:
		size = 2
	case 6:
		size = 4
	default:
		return opIllegal(c, b)
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	result := c.flags.logical(c.readOperand(b, ea, size)^c.d(dReg), size)
	c.writeOperand(b, ea, result, size)
	return 4 + eaCycles(ea, size), nil
}

func genericLogical(c *Core, b bus.Bus, op func(d, s uint32) uint32) (int, *Exception) {
	dReg := int((c.IR >> 9) & 7)
	opmode := (c.IR >> 6) & 7
	var size int
	var toEA bool
	switch opmode {
	case 0:
		size, toEA = 1, false
	case 1:
		size, toEA = 2, false
	case 2:
		size, toEA = 4, false
	case 4:
		size, toEA = 1, true
	case 5:
		size, toEA = 2, true
	case 6:
		size, toEA = 4, true
	default:
		return opIllegal(c, b)
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	if toEA {
		result := c.flags.logical(op(c.readOperand(b, ea, size), c.d(dReg)), size)
		c.writeOperand(b, ea, result, size)
		return 4 + eaCycles(ea, size), nil
	}
	result := c.flags.logical(op(c.d(dReg), c.readOperand(b, ea, size)), size)
	if size == 1 {
		c.setDByte(dReg, uint8(result))
	} else if size == 2 {
		c.setDWord(dReg, uint16(result))
	} else {
		c.setD(dReg, result)
	}
	return 4 + eaCycles(ea, size), nil
}

func immLogical(c *Core, b bus.Bus, op func(d, s uint32) uint32) (int, *Exception) {
	size, ok := sizeField2((c.IR >> 6) & 3)
	if !ok {
		return opIllegal(c, b)
	}
	var imm uint32
	if size == 4 {
		imm = c.readImmData32(b)
	} else {
		imm = uint32(c.readImmData16(b))
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	result := c.flags.logical(op(c.readOperand(b, ea, size), imm), size)
	c.writeOperand(b, ea, result, size)
	return 8 + eaCycles(ea, size), nil
}

func opAndi(c *Core, b bus.Bus) (int, *Exception) {
	return immLogical(c, b, func(d, s uint32) uint32 { return d & s })
}
func opOri(c *Core, b bus.Bus) (int, *Exception) {
	return immLogical(c, b, func(d, s uint32) uint32 { return d | s })
}
func opEori(c *Core, b bus.Bus) (int, *Exception) {
	return immLogical(c, b, func(d, s uint32) uint32 { return d ^ s })
}

func opAndiToCCR(c *Core, b bus.Bus) (int, *Exception) {
	imm := c.readImmData16(b)
	c.srToFlags((c.statusRegister() & 0xFF00) | (c.conditionCodeRegister() & imm & 0xFF))
	return 20, nil
}
func opOriToCCR(c *Core, b bus.Bus) (int, *Exception) {
	imm := c.readImmData16(b)
	c.srToFlags((c.statusRegister() & 0xFF00) | ((c.conditionCodeRegister() | imm) & 0xFF))
	return 20, nil
}
func opEoriToCCR(c *Core, b bus.Bus) (int, *Exception) {
	imm := c.readImmData16(b)
	c.srToFlags((c.statusRegister() & 0xFF00) | ((c.conditionCodeRegister() ^ imm) & 0xFF))
	return 20, nil
}

func opAndiToSR(c *Core, b bus.Bus) (int, *Exception) {
	if pe := c.requirePrivilege(c.IR, c.PC-2); pe != nil {
		return 4, pe
	}
	imm := c.readImmData16(b)
	c.srToFlags(c.statusRegister() & imm)
	return 20, nil
}
func opOriToSR(c *Core, b bus.Bus) (int, *Exception) {
	if pe := c.requirePrivilege(c.IR, c.PC-2); pe != nil {
		return 4, pe
	}
	imm := c.readImmData16(b)
	c.srToFlags(c.statusRegister() | imm)
	return 20, nil
}
func opEoriToSR(c *Core, b bus.Bus) (int, *Exception) {
	if pe := c.requirePrivilege(c.IR, c.PC-2); pe != nil {
		return 4, pe
	}
	imm := c.readImmData16(b)
	c.srToFlags(c.statusRegister() ^ imm)
	return 20, nil
}

func opMoveToCCR(c *Core, b bus.Bus) (int, *Exception) {
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, 2)
	if err != nil {
		return 4, err
	}
	v := c.readOperand(b, ea, 2)
	c.srToFlags((c.statusRegister() & 0xFF00) | uint16(v&0xFF))
	return 12 + eaCycles(ea, 2), nil
}

func opMoveToSR(c *Core, b bus.Bus) (int, *Exception) {
	if pe := c.requirePrivilege(c.IR, c.PC-2); pe != nil {
		return 4, pe
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, 2)
	if err != nil {
		return 4, err
	}
	v := c.readOperand(b, ea, 2)
	c.srToFlags(uint16(v))
	return 12 + eaCycles(ea, 2), nil
}

func opMoveFromSR(c *Core, b bus.Bus) (int, *Exception) {
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, 2)
	if err != nil {
		return 4, err
	}
	c.writeOperand(b, ea, uint32(c.statusRegister()), 2)
	return 6 + eaCycles(ea, 2), nil
}

func opNot(c *Core, b bus.Bus) (int, *Exception) {
	size, ok := sizeField2((c.IR >> 6) & 3)
	if !ok {
		return opIllegal(c, b)
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	result := c.flags.not(c.readOperand(b, ea, size), size)
	c.writeOperand(b, ea, result, size)
	return 4 + eaCycles(ea, size), nil
}

func opNeg(c *Core, b bus.Bus) (int, *Exception) {
	size, ok := sizeField2((c.IR >> 6) & 3)
	if !ok {
		return opIllegal(c, b)
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	result := c.flags.sub(0, c.readOperand(b, ea, size), size)
	c.writeOperand(b, ea, result, size)
	return 4 + eaCycles(ea, size), nil
}

func opNegx(c *Core, b bus.Bus) (int, *Exception) {
	size, ok := sizeField2((c.IR >> 6) & 3)
	if !ok {
		return opIllegal(c, b)
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	result := c.flags.subx(0, c.readOperand(b, ea, size), size, c.flags.xSet())
	c.writeOperand(b, ea, result, size)
	return 4 + eaCycles(ea, size), nil
}

func opClr(c *Core, b bus.Bus) (int, *Exception) {
	size, ok := sizeField2((c.IR >> 6) & 3)
	if !ok {
		return opIllegal(c, b)
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	c.flags.logical(0, size)
	c.writeOperand(b, ea, 0, size)
	return 4 + eaCycles(ea, size), nil
}

func opTst(c *Core, b bus.Bus) (int, *Exception) {
	size, ok := sizeField2((c.IR >> 6) & 3)
	if !ok {
		return opIllegal(c, b)
	}
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	c.flags.logical(c.readOperand(b, ea, size), size)
	return 4 + eaCycles(ea, size), nil
}

// --- bit instructions ------------------------------------------------------

func bitNumber(c *Core, b bus.Bus, dynamic bool, isMemory bool) uint32 {
	if dynamic {
		reg := int((c.IR >> 9) & 7)
		if isMemory {
			return c.d(reg) & 7
		}
		return c.d(reg) & 31
	}
	imm := c.readImmData16(b) & 0xFF
	if isMemory {
		return uint32(imm) & 7
	}
	return uint32(imm) & 31
}

func bitOp(c *Core, b bus.Bus, dynamic, writeBack bool, apply func(v uint32, mask uint32) uint32) (int, *Exception) {
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	isMemory := mode != 0
	size := 4
	if isMemory {
		size = 1
	}
	bit := bitNumber(c, b, dynamic, isMemory)

	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	v := c.readOperand(b, ea, size)
	mask := uint32(1) << bit
	if v&mask == 0 {
		c.flags.notZ = 0
	} else {
		c.flags.notZ = 1
	}
	if writeBack {
		c.writeOperand(b, ea, apply(v, mask), size)
	}
	cycles := 4
	if isMemory {
		cycles = 4 + eaCycles(ea, size)
	}
	return cycles, nil
}

func opBtst(c *Core, b bus.Bus) (int, *Exception) {
	dynamic := (c.IR & 0x0100) != 0
	return bitOp(c, b, dynamic, false, func(v, mask uint32) uint32 { return v })
}

func opBchg(c *Core, b bus.Bus) (int, *Exception) {
	dynamic := (c.IR & 0x0100) != 0
	return bitOp(c, b, dynamic, true, func(v, mask uint32) uint32 { return v ^ mask })
}

func opBclr(c *Core, b bus.Bus) (int, *Exception) {
	dynamic := (c.IR & 0x0100) != 0
	return bitOp(c, b, dynamic, true, func(v, mask uint32) uint32 { return v &^ mask })
}

func opBset(c *Core, b bus.Bus) (int, *Exception) {
	dynamic := (c.IR & 0x0100) != 0
	return bitOp(c, b, dynamic, true, func(v, mask uint32) uint32 { return v | mask })
}

// --- shift/rotate instructions -----------------------------------------

func shiftKindFromBits(bits uint16, usingX bool) ShiftKind {
	switch bits {
	case 0:
		if usingX {
			return ShiftASR
		}
		return ShiftASL
	case 1:
		if usingX {
			return ShiftLSR
		}
		return ShiftLSL
	case 2:
		if usingX {
			return ShiftROXR
		}
		return ShiftROXL
	default:
		if usingX {
			return ShiftROR
		}
		return ShiftROL
	}
}

func opShiftRegister(c *Core, b bus.Bus) (int, *Exception) {
	size, ok := sizeField2((c.IR >> 6) & 3)
	if !ok {
		return opShiftMemory(c, b)
	}
	dir := (c.IR >> 8) & 1 // 1 = left
	typeBits := (c.IR >> 3) & 3
	kind := shiftKindFromBits(typeBits, dir == 0)
	reg := int(c.IR & 7)

	var count uint
	if (c.IR>>5)&1 != 0 {
		countReg := int((c.IR >> 9) & 7)
		count = uint(c.d(countReg) % 64)
	} else {
		n := (c.IR >> 9) & 7
		if n == 0 {
			n = 8
		}
		count = uint(n)
	}

	result := c.flags.shift(kind, c.d(reg), count, size)
	if size == 1 {
		c.setDByte(reg, uint8(result))
	} else if size == 2 {
		c.setDWord(reg, uint16(result))
	} else {
		c.setD(reg, result)
	}
	return 6 + 2*int(count), nil
}

func opShiftMemory(c *Core, b bus.Bus) (int, *Exception) {
	dir := (c.IR >> 8) & 1
	typeBits := (c.IR >> 9) & 3
	kind := shiftKindFromBits(typeBits, dir == 0)
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, 2)
	if err != nil {
		return 4, err
	}
	result := c.flags.shift(kind, c.readOperand(b, ea, 2), 1, 2)
	c.writeOperand(b, ea, result, 2)
	return 8 + eaCycles(ea, 2), nil
}

// --- branch / subroutine family ------------------------------------------

func branchDisplacement(c *Core, b bus.Bus) int32 {
	disp8 := int8(c.IR & 0xFF)
	if disp8 != 0 {
		return int32(disp8)
	}
	ext := int16(c.readImmData16(b))
	return int32(ext)
}

func opBra(c *Core, b bus.Bus) (int, *Exception) {
	base := c.PC
	disp := branchDisplacement(c, b)
	c.PC = uint32(int32(base) + disp)
	return 10, nil
}

func opBsr(c *Core, b bus.Bus) (int, *Exception) {
	base := c.PC
	disp := branchDisplacement(c, b)
	c.pushLong(b, c.PC)
	c.PC = uint32(int32(base) + disp)
	return 18, nil
}

// opBcc is installed for the whole 0x6xxx opcode group; its own
// condition field distinguishes BRA (condition 0, always taken) and BSR
// (condition 1, push return address) from the 14 true Bcc conditions.
func opBcc(c *Core, b bus.Bus) (int, *Exception) {
	cond := conditionFromOpcode(c.IR)
	switch cond {
	case CondT:
		return opBra(c, b)
	case CondF:
		return opBsr(c, b)
	}
	base := c.PC
	disp := branchDisplacement(c, b)
	if c.flags.Test(cond) {
		c.PC = uint32(int32(base) + disp)
		return 10, nil
	}
	return 8, nil
}

func opDbcc(c *Core, b bus.Bus) (int, *Exception) {
	cond := conditionFromOpcode(c.IR)
	reg := int(c.IR & 7)
	base := c.PC
	disp := int16(c.readImmData16(b))
	if c.flags.Test(cond) {
		return 12, nil
	}
	count := int16(c.d(reg)) - 1
	c.setDWord(reg, uint16(count))
	if count != -1 {
		c.PC = uint32(int32(base) + int32(disp))
		return 10, nil
	}
	return 14, nil
}

func opScc(c *Core, b bus.Bus) (int, *Exception) {
	cond := conditionFromOpcode(c.IR)
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, 1)
	if err != nil {
		return 4, err
	}
	var v uint32
	if c.flags.Test(cond) {
		v = 0xFF
	}
	c.writeOperand(b, ea, v, 1)
	return 4 + eaCycles(ea, 1), nil
}

func opJmp(c *Core, b bus.Bus) (int, *Exception) {
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, 4)
	if err != nil {
		return 4, err
	}
	if ea.Mode == ModeDReg || ea.Mode == ModeAReg || ea.Mode == ModeImmediate {
		return opIllegal(c, b)
	}
	c.PC = ea.Addr
	return 8, nil
}

func opJsr(c *Core, b bus.Bus) (int, *Exception) {
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, 4)
	if err != nil {
		return 4, err
	}
	if ea.Mode == ModeDReg || ea.Mode == ModeAReg || ea.Mode == ModeImmediate {
		return opIllegal(c, b)
	}
	c.pushLong(b, c.PC)
	c.PC = ea.Addr
	return 16, nil
}

func opRts(c *Core, b bus.Bus) (int, *Exception) {
	c.PC = c.popLong(b)
	return 16, nil
}

func opRtr(c *Core, b bus.Bus) (int, *Exception) {
	ccr := c.popWord(b)
	c.PC = c.popLong(b)
	c.srToFlags((c.statusRegister() & 0xFF00) | (ccr & 0xFF))
	return 20, nil
}

func opRte(c *Core, b bus.Bus) (int, *Exception) {
	if pe := c.requirePrivilege(c.IR, c.PC-2); pe != nil {
		return 4, pe
	}
	sr := c.popWord(b)
	pc := c.popLong(b)
	if c.Version.atLeast010() {
		c.popWord(b) // discard the frame format/vector word
	}
	c.srToFlags(sr)
	c.PC = pc
	return 20, nil
}

// --- misc data-movement / register instructions -------------------------

func opSwap(c *Core, b bus.Bus) (int, *Exception) {
	reg := int(c.IR & 7)
	v := c.d(reg)
	result := (v << 16) | (v >> 16)
	c.flags.logical(result, 4)
	c.setD(reg, result)
	return 4, nil
}

func opExt(c *Core, b bus.Bus) (int, *Exception) {
	reg := int(c.IR & 7)
	opmode := (c.IR >> 6) & 7
	switch opmode {
	case 2: // byte -> word
		v := uint32(int32(int8(c.d(reg))))
		c.flags.logical(v, 2)
		c.setDWord(reg, uint16(v))
	case 3: // word -> long
		v := uint32(int32(int16(c.d(reg))))
		c.flags.logical(v, 4)
		c.setD(reg, v)
	case 7: // '020 byte -> long (EXTB.L)
		v := uint32(int32(int8(c.d(reg))))
		c.flags.logical(v, 4)
		c.setD(reg, v)
	default:
		return opIllegal(c, b)
	}
	return 4, nil
}

func opExg(c *Core, b bus.Bus) (int, *Exception) {
	rx := int((c.IR >> 9) & 7)
	ry := int(c.IR & 7)
	mode := (c.IR >> 3) & 0x1F
	switch mode {
	case 0x08: // data/data
		c.dar[rx], c.dar[ry] = c.dar[ry], c.dar[rx]
	case 0x09: // addr/addr
		c.dar[8+rx], c.dar[8+ry] = c.dar[8+ry], c.dar[8+rx]
	case 0x11: // data/addr
		c.dar[rx], c.dar[8+ry] = c.dar[8+ry], c.dar[rx]
	default:
		return opIllegal(c, b)
	}
	return 6, nil
}

func opTas(c *Core, b bus.Bus) (int, *Exception) {
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, 1)
	if err != nil {
		return 4, err
	}
	v := c.readOperand(b, ea, 1)
	c.flags.logical(v, 1)
	c.writeOperand(b, ea, v|0x80, 1)
	return 4 + eaCycles(ea, 1), nil
}

func opChk(c *Core, b bus.Bus) (int, *Exception) {
	dReg := int((c.IR >> 9) & 7)
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, 2)
	if err != nil {
		return 4, err
	}
	upper := int16(c.readOperand(b, ea, 2))
	v := int16(c.d(dReg))
	if v < 0 {
		c.flags.n = nSignBit32
		return 10, trapErr(VectorCHK, 0)
	}
	if v > upper {
		c.flags.n = 0
		return 10, trapErr(VectorCHK, 0)
	}
	return 10 + eaCycles(ea, 2), nil
}

func opTrap(c *Core, b bus.Bus) (int, *Exception) {
	vector := VectorTrapBase + uint8(c.IR&0xF)
	return 4, trapErr(vector, 0)
}

func opTrapv(c *Core, b bus.Bus) (int, *Exception) {
	if c.flags.vSet() {
		return 4, trapErr(VectorTRAPV, 0)
	}
	return 4, nil
}

func opStop(c *Core, b bus.Bus) (int, *Exception) {
	if pe := c.requirePrivilege(c.IR, c.PC-2); pe != nil {
		return 4, pe
	}
	sr := c.readImmData16(b)
	c.srToFlags(sr)
	c.state = Stopped
	return 4, nil
}

func opReset(c *Core, b bus.Bus) (int, *Exception) {
	if pe := c.requirePrivilege(c.IR, c.PC-2); pe != nil {
		return 4, pe
	}
	return 132, nil
}

func opNop(c *Core, b bus.Bus) (int, *Exception) {
	return 4, nil
}

func opLink(c *Core, b bus.Bus) (int, *Exception) {
	reg := int(c.IR & 7)
	disp := int16(c.readImmData16(b))
	c.pushLong(b, c.a(reg))
	c.setA(reg, c.a(7))
	c.setA(7, c.a(7)+uint32(int32(disp)))
	return 16, nil
}

func opUnlk(c *Core, b bus.Bus) (int, *Exception) {
	reg := int(c.IR & 7)
	c.setA(7, c.a(reg))
	c.setA(reg, c.popLong(b))
	return 12, nil
}

// opMoveUSP implements MOVE USP, handling the '010+ restriction that it
// is privileged on every family member (spec §5 supplemented features).
func opMoveUSP(c *Core, b bus.Bus) (int, *Exception) {
	if pe := c.requirePrivilege(c.IR, c.PC-2); pe != nil {
		return 4, pe
	}
	reg := int(c.IR & 7)
	toUSP := (c.IR>>3)&1 == 0
	if toUSP {
		c.inactiveUSP = c.a(reg)
	} else {
		c.setA(reg, c.inactiveUSP)
	}
	return 4, nil
}

// opMovec implements MOVEC, the '010+ control-register move (spec §5).
// Selectors follow original_source/src/instructions/constants.rs: SFC
// 0x000, DFC 0x001, CACR 0x002, USP 0x800, VBR 0x801, CAAR 0x802, MSP
// 0x803, ISP 0x804. USP always uses inactiveUSP (MOVEC only runs in
// supervisor mode); MSP and ISP use dar[15] when that stack is the one
// selected by M and their inactive slot otherwise, mirroring opMoveUSP
// and the S/M-mode stack-pointer aliasing in srToFlags. Other control registers fault as unimplemented.
func opMovec(c *Core, b bus.Bus) (int, *Exception) {
	if pe := c.requirePrivilege(c.IR, c.PC-2); pe != nil {
		return 4, pe
	}
	if !c.Version.atLeast010() {
		return 4, illegalErr(c.IR, c.PC-2)
	}
	ext := c.readImmData16(b)
	toControl := c.IR&1 != 0
	ctrlReg := ext & 0xFFF
	isAddrReg := ext&0x8000 != 0
	regNum := int((ext >> 12) & 7)

	getGP := func() uint32 {
		if isAddrReg {
			return c.a(regNum)
		}
		return c.d(regNum)
	}
	setGP := func(v uint32) {
		if isAddrReg {
			c.setA(regNum, v)
		} else {
			c.setD(regNum, v)
		}
	}

	getMSP := func() uint32 {
		if c.m {
			return c.dar[15]
		}
		return c.inactiveMSP
	}
	setMSP := func(v uint32) {
		if c.m {
			c.dar[15] = v
		} else {
			c.inactiveMSP = v
		}
	}
	getISP := func() uint32 {
		if !c.m {
			return c.dar[15]
		}
		return c.inactiveISP
	}
	setISP := func(v uint32) {
		if !c.m {
			c.dar[15] = v
		} else {
			c.inactiveISP = v
		}
	}

	if toControl {
		v := getGP()
		switch ctrlReg {
		case 0x000:
			c.SFC = v & 7
		case 0x001:
			c.DFC = v & 7
		case 0x002:
			c.CACR = v
		case 0x800:
			c.inactiveUSP = v
		case 0x801:
			c.VBR = v
		case 0x802:
			c.CAAR = v
		case 0x803:
			setMSP(v)
		case 0x804:
			setISP(v)
		default:
			return 4, unimplementedErr(c.IR, c.PC-2, VectorIllegal)
		}
		return 12, nil
	}

	var v uint32
	switch ctrlReg {
	case 0x000:
		v = c.SFC
	case 0x001:
		v = c.DFC
	case 0x002:
		v = c.CACR
	case 0x800:
		v = c.inactiveUSP
	case 0x801:
		v = c.VBR
	case 0x802:
		v = c.CAAR
	case 0x803:
		v = getMSP()
	case 0x804:
		v = getISP()
	default:
		return 4, unimplementedErr(c.IR, c.PC-2, VectorIllegal)
	}
	setGP(v)
	return 12, nil
}

// --- MOVEM / MOVEP ---------------------------------------------------------

// opMovem implements MOVEM register/memory, covering the pre-decrement
// (reverse register order) and post-increment/control (ascending
// register order) address-book-keeping rules of spec §5.
func opMovem(c *Core, b bus.Bus) (int, *Exception) {
	toRegisters := (c.IR>>10)&1 != 0
	long := (c.IR>>6)&1 != 0
	size := 2
	if long {
		size = 4
	}
	mask := c.readImmData16(b)
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)

	regOrder := func(fn func(i int)) {
		for i := 0; i < 16; i++ {
			fn(i)
		}
	}
	if mode == 4 {
		// pre-decrement: mask bit 0 = A7, descending store order
		regOrder = func(fn func(i int)) {
			for i := 15; i >= 0; i-- {
				fn(i)
			}
		}
	}

	regCost := 4
	if long {
		regCost = 8
	}

	count := 0
	if mode == 4 {
		addr := c.a(reg)
		regOrder(func(i int) {
			bit := 15 - i
			if mask&(1<<uint(bit)) == 0 {
				return
			}
			regIdx := i
			addr -= uint32(size)
			c.write32At(b, addr, c.dar[regIdx], size)
			count++
		})
		c.setA(reg, addr)
		return 8 + count*regCost, nil
	}

	ea, err := c.decodeEA(b, mode, reg, size)
	if err != nil {
		return 4, err
	}
	addr := ea.Addr
	if toRegisters {
		regOrder(func(i int) {
			if mask&(1<<uint(i)) == 0 {
				return
			}
			v := c.read32At(b, addr, size)
			c.dar[i] = v
			addr += uint32(size)
			count++
		})
		if mode == 3 {
			c.setA(reg, addr)
		}
	} else {
		regOrder(func(i int) {
			if mask&(1<<uint(i)) == 0 {
				return
			}
			c.write32At(b, addr, c.dar[i], size)
			addr += uint32(size)
			count++
		})
		if mode == 3 {
			c.setA(reg, addr)
		}
	}
	base := 8
	if toRegisters {
		base += 4 // loads cost 4 cycles more than stores at the same addressing mode
	}
	return base + count*regCost + eaCycles(ea, size), nil
}

func (c *Core) read32At(b bus.Bus, addr uint32, size int) uint32 {
	if size == 2 {
		return uint32(int32(int16(c.read16(b, c.dataSpace(), addr))))
	}
	return c.read32(b, c.dataSpace(), addr)
}

func (c *Core) write32At(b bus.Bus, addr uint32, v uint32, size int) {
	if size == 2 {
		c.write16(b, c.dataSpace(), addr, uint16(v))
	} else {
		c.write32(b, c.dataSpace(), addr, v)
	}
}

func opMovep(c *Core, b bus.Bus) (int, *Exception) {
	dReg := int((c.IR >> 9) & 7)
	areg := int(c.IR & 7)
	long := (c.IR>>6)&1 != 0
	toMemory := (c.IR>>7)&1 != 0
	disp := int16(c.readImmData16(b))
	addr := c.a(areg) + uint32(int32(disp))

	n := 2
	if long {
		n = 4
	}
	if toMemory {
		v := c.d(dReg)
		for i := 0; i < n; i++ {
			shift := uint((n - 1 - i) * 8)
			c.write8(b, c.dataSpace(), addr+uint32(i*2), uint8(v>>shift))
		}
		return 16 + 8*(n-2), nil
	}
	var v uint32
	for i := 0; i < n; i++ {
		byteVal := c.read8(b, c.dataSpace(), addr+uint32(i*2))
		v = (v << 8) | uint32(byteVal)
	}
	if long {
		c.setD(dReg, v)
	} else {
		c.setDWord(dReg, uint16(v))
	}
	return 16 + 8*(n-2), nil
}

// --- BCD instructions -------------------------------------------------

func opAbcd(c *Core, b bus.Bus) (int, *Exception) {
	ry := int(c.IR & 7)
	rx := int((c.IR >> 9) & 7)
	useMemory := (c.IR>>3)&1 != 0
	if !useMemory {
		result := c.flags.abcd(uint8(c.d(rx)), uint8(c.d(ry)), c.flags.xSet())
		c.setDByte(rx, result)
		return 6, nil
	}
	srcEA, _ := c.decodeEA(b, 4, ry, 1)
	dstEA, _ := c.decodeEA(b, 4, rx, 1)
	result := c.flags.abcd(uint8(c.readOperand(b, dstEA, 1)), uint8(c.readOperand(b, srcEA, 1)), c.flags.xSet())
	c.writeOperand(b, dstEA, uint32(result), 1)
	return 18, nil
}

func opSbcd(c *Core, b bus.Bus) (int, *Exception) {
	ry := int(c.IR & 7)
	rx := int((c.IR >> 9) & 7)
	useMemory := (c.IR>>3)&1 != 0
	if !useMemory {
		result := c.flags.sbcd(uint8(c.d(rx)), uint8(c.d(ry)), c.flags.xSet())
		c.setDByte(rx, result)
		return 6, nil
	}
	srcEA, _ := c.decodeEA(b, 4, ry, 1)
	dstEA, _ := c.decodeEA(b, 4, rx, 1)
	result := c.flags.sbcd(uint8(c.readOperand(b, dstEA, 1)), uint8(c.readOperand(b, srcEA, 1)), c.flags.xSet())
	c.writeOperand(b, dstEA, uint32(result), 1)
	return 18, nil
}

func opNbcd(c *Core, b bus.Bus) (int, *Exception) {
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, 1)
	if err != nil {
		return 4, err
	}
	result := c.flags.nbcd(uint8(c.readOperand(b, ea, 1)), c.flags.xSet())
	c.writeOperand(b, ea, uint32(result), 1)
	return 6 + eaCycles(ea, 1), nil
}

// --- multiply / divide ---------------------------------------------------

func opMulu(c *Core, b bus.Bus) (int, *Exception) {
	dReg := int((c.IR >> 9) & 7)
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, 2)
	if err != nil {
		return 4, err
	}
	src := uint16(c.readOperand(b, ea, 2))
	result := c.flags.mulu(uint16(c.d(dReg)), src)
	c.setD(dReg, result)
	return 70 + eaCycles(ea, 2), nil
}

func opMuls(c *Core, b bus.Bus) (int, *Exception) {
	dReg := int((c.IR >> 9) & 7)
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, 2)
	if err != nil {
		return 4, err
	}
	src := int16(c.readOperand(b, ea, 2))
	result := c.flags.muls(int16(c.d(dReg)), src)
	c.setD(dReg, result)
	return 70 + eaCycles(ea, 2), nil
}

func opDivu(c *Core, b bus.Bus) (int, *Exception) {
	dReg := int((c.IR >> 9) & 7)
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, 2)
	if err != nil {
		return 4, err
	}
	divisor := uint16(c.readOperand(b, ea, 2))
	if divisor == 0 {
		return 38 + eaCycles(ea, 2), trapErr(VectorZeroDivide, 0)
	}
	res := c.flags.divu(c.d(dReg), divisor)
	if res.Overflow {
		return 38 + eaCycles(ea, 2), nil
	}
	c.setD(dReg, (res.Remainder<<16)|(res.Quotient&0xFFFF))
	return 140 + eaCycles(ea, 2), nil
}

func opDivs(c *Core, b bus.Bus) (int, *Exception) {
	dReg := int((c.IR >> 9) & 7)
	mode, reg := int((c.IR>>3)&7), int(c.IR&7)
	ea, err := c.decodeEA(b, mode, reg, 2)
	if err != nil {
		return 4, err
	}
	divisor := int16(c.readOperand(b, ea, 2))
	if divisor == 0 {
		return 38 + eaCycles(ea, 2), trapErr(VectorZeroDivide, 0)
	}
	res := c.flags.divs(int32(c.d(dReg)), divisor)
	if res.Overflow {
		return 38 + eaCycles(ea, 2), nil
	}
	c.setD(dReg, (res.Remainder<<16)|(res.Quotient&0xFFFF))
	return 158 + eaCycles(ea, 2), nil
}
