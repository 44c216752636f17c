package cpu

// generateDispatchTable (component E) fills every one of the 65,536
// opcode slots with a handler. Unassigned slots default to opIllegal;
// the reserved "real illegal" opcode 0x4AFC is mapped to opIllegal
// explicitly, and the line-A/line-F holes get opLineA/opLineF (spec §4.E).
func generateDispatchTable(ops *[65536]handler) {
	for opcode := 0; opcode < 65536; opcode++ {
		ops[opcode] = decodeHandler(uint16(opcode))
	}
}

// decodeHandler classifies one opcode by walking the same top-nibble
// decode tree the hardware's own microcode follows, narrowing on
// sub-fields only as far as needed to pick a handler. Invalid bit
// combinations within a group fall through to opIllegal; handlers
// themselves re-validate fields Step didn't already disambiguate (e.g.
// reserved size or opmode encodings).
func decodeHandler(opcode uint16) handler {
	if opcode == 0x4AFC {
		return opIllegal
	}

	switch opcode >> 12 {
	case 0x0:
		return decodeGroup0(opcode)
	case 0x1, 0x2, 0x3:
		return decodeMoveGroup(opcode)
	case 0x4:
		return decodeGroup4(opcode)
	case 0x5:
		return decodeGroup5(opcode)
	case 0x6:
		return opBcc // BRA/BSR share the Bcc decode; condition 0/1 special-cased inside
	case 0x7:
		if opcode&0x0100 == 0 {
			return opMoveq
		}
		return opIllegal
	case 0x8:
		return decodeGroup8(opcode)
	case 0x9:
		return decodeGroup9OrD(opcode, false)
	case 0xA:
		return opLineA
	case 0xB:
		return decodeGroupB(opcode)
	case 0xC:
		return decodeGroupC(opcode)
	case 0xD:
		return decodeGroup9OrD(opcode, true)
	case 0xE:
		return decodeGroupE(opcode)
	default: // 0xF
		return opLineF
	}
}

func decodeGroup0(opcode uint16) handler {
	switch opcode {
	case 0x003C:
		return opOriToCCR
	case 0x007C:
		return opOriToSR
	case 0x023C:
		return opAndiToCCR
	case 0x027C:
		return opAndiToSR
	case 0x0A3C:
		return opEoriToCCR
	case 0x0A7C:
		return opEoriToSR
	}

	if opcode&0xF138 == 0x0108 {
		return opMovep
	}
	if opcode&0xF1C0 == 0x0100 {
		return opBtst
	}
	if opcode&0xF1C0 == 0x0140 {
		return opBchg
	}
	if opcode&0xF1C0 == 0x0180 {
		return opBclr
	}
	if opcode&0xF1C0 == 0x01C0 {
		return opBset
	}
	if opcode&0xFFC0 == 0x0800 {
		return opBtst
	}
	if opcode&0xFFC0 == 0x0840 {
		return opBchg
	}
	if opcode&0xFFC0 == 0x0880 {
		return opBclr
	}
	if opcode&0xFFC0 == 0x08C0 {
		return opBset
	}

	switch opcode & 0xFF00 {
	case 0x0000:
		return opOri
	case 0x0200:
		return opAndi
	case 0x0400:
		return opSubi
	case 0x0600:
		return opAddi
	case 0x0A00:
		return opEori
	case 0x0C00:
		return opCmpi
	}
	return opIllegal
}

func decodeMoveGroup(opcode uint16) handler {
	dstMode := (opcode >> 6) & 7
	if dstMode == 1 {
		return opMovea
	}
	return opMove
}

func decodeGroup4(opcode uint16) handler {
	switch opcode {
	case 0x4E70:
		return opReset
	case 0x4E71:
		return opNop
	case 0x4E72:
		return opStop
	case 0x4E73:
		return opRte
	case 0x4E75:
		return opRts
	case 0x4E76:
		return opTrapv
	case 0x4E77:
		return opRtr
	}
	if opcode&0xFFF0 == 0x4E60 {
		return opMoveUSP
	}
	if opcode == 0x4E7A || opcode == 0x4E7B {
		return opMovec
	}
	if opcode&0xFFF8 == 0x4E50 {
		return opLink
	}
	if opcode&0xFFF8 == 0x4E58 {
		return opUnlk
	}
	if opcode&0xFFC0 == 0x4E80 {
		return opJsr
	}
	if opcode&0xFFC0 == 0x4EC0 {
		return opJmp
	}
	if opcode&0xF1C0 == 0x41C0 && (opcode>>3)&7 != 0 {
		return opLea
	}
	if opcode&0xFFF8 == 0x4840 {
		return opSwap
	}
	if opcode&0xFFC0 == 0x4840 {
		mode := (opcode >> 3) & 7
		if mode == 2 || mode == 5 || mode == 6 || mode == 7 {
			return opPea
		}
	}
	if opcode&0xFB80 == 0x4880 && (opcode>>3)&7 != 0 {
		return opMovem
	}
	if opcode&0xFFC0 == 0x4AC0 {
		return opTas
	}

	if opcode&0x00C0 != 0x00C0 {
		switch opcode & 0xFF00 {
		case 0x4000:
			return opNegx
		case 0x4200:
			return opClr
		case 0x4400:
			return opNeg
		case 0x4600:
			return opNot
		}
	}
	if opcode&0xFF00 == 0x4A00 {
		return opTst
	}
	if opcode&0xFFF8 == 0x4880 || opcode&0xFFF8 == 0x48C0 || opcode&0xFFF8 == 0x49C0 {
		return opExt // EXT.W, EXT.L, and ('020) EXTB.L
	}
	if opcode&0xFFC0 == 0x4800 {
		return opNbcd
	}
	if opcode&0xF1C0 == 0x4180 {
		return opChk
	}
	if opcode&0xFFC0 == 0x40C0 {
		return opMoveFromSR
	}
	if opcode&0xFFC0 == 0x44C0 {
		return opMoveToCCR
	}
	if opcode&0xFFC0 == 0x46C0 {
		return opMoveToSR
	}
	if opcode&0xF000 == 0x4000 && (opcode>>8)&0xF == 0xE {
		return opTrap
	}
	return opIllegal
}

func decodeGroup5(opcode uint16) handler {
	if opcode&0xF0C0 == 0x50C0 {
		if (opcode>>3)&7 == 1 {
			return opDbcc
		}
		return opScc
	}
	if opcode&0x0100 == 0 {
		return opAddq
	}
	return opSubq
}

func decodeGroup8(opcode uint16) handler {
	opmode := (opcode >> 6) & 7
	switch opmode {
	case 3:
		return opDivu
	case 7:
		return opDivs
	case 4, 5:
		if opmode == 4 && opcode&0x01F0 == 0x0100 {
			return opSbcd
		}
		return opOr
	}
	return opOr
}

func decodeGroup9OrD(opcode uint16, isAdd bool) handler {
	opmode := (opcode >> 6) & 7
	switch opmode {
	case 3, 7:
		if isAdd {
			return opAdda
		}
		return opSuba
	}
	if opmode == 4 || opmode == 5 || opmode == 6 {
		// could be ADDX/SUBX (register-to-register or mem-to-mem) or the
		// to-EA logical form; ADDX/SUBX are distinguished by mode field
		// bits 5-3 being exactly reg-direct(0) or predec(4) AND the low 3
		// bits of the opmode sub-pattern (bit 8 of the full opcode group
		// isn't applicable here; ADDX/SUBX use bits 7-6 == opmode's low 2
		// bits with bit 3 as the R/M selector).
		if opcode&0x0130 == 0x0100 {
			if isAdd {
				return opAddx
			}
			return opSubx
		}
	}
	if isAdd {
		return opAdd
	}
	return opSub
}

func decodeGroupB(opcode uint16) handler {
	opmode := (opcode >> 6) & 7
	switch opmode {
	case 3, 7:
		return opCmpa
	case 4, 5, 6:
		if opcode&0x0138 == 0x0108 {
			return opCmpm
		}
		return opEor
	}
	return opCmp
}

func decodeGroupC(opcode uint16) handler {
	opmode := (opcode >> 6) & 7
	switch opmode {
	case 3:
		return opMulu
	case 7:
		return opMuls
	case 4, 5, 6:
		if opcode&0x01F0 == 0x0100 {
			return opAbcd
		}
		if opcode&0x01F8 == 0x0140 || opcode&0x01F8 == 0x0148 || opcode&0x01F8 == 0x0188 {
			return opExg
		}
		return opAnd
	}
	return opAnd
}

func decodeGroupE(opcode uint16) handler {
	if opcode&0xFFC0 == 0xE0C0 || opcode&0xFFC0 == 0xE2C0 ||
		opcode&0xFFC0 == 0xE4C0 || opcode&0xFFC0 == 0xE6C0 ||
		opcode&0xFFC0 == 0xE8C0 || opcode&0xFFC0 == 0xEAC0 ||
		opcode&0xFFC0 == 0xECC0 || opcode&0xFFC0 == 0xEEC0 {
		return opShiftMemory
	}
	return opShiftRegister
}
