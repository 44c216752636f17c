// Package cpu implements the programmer-visible state, dispatch table,
// and instruction semantics of the 68000-family cycle-counting
// interpreter core described by the specification this module was built
// against. The bus, interrupt sources, MMU, and FPU are external
// collaborators reached only through the pkg/bus.Bus interface.
package cpu

import (
	"github.com/mc68kcore/m68k/pkg/bus"
	"github.com/mc68kcore/m68k/pkg/logger"
)

// RunState is the tri-state machine a single Step transitions through;
// see spec §4.D.1. Halted is reserved (double fault) and unreachable from
// this core's handlers.
type RunState int

const (
	Running RunState = iota
	Stopped
	Halted
)

// CacheLine020 is one line of the 68020's 64-line direct-mapped
// instruction cache: a 24-bit tag, a validity bit, and the two 16-bit
// words it caches. See spec §3.1 and §4.F.
type CacheLine020 struct {
	Tag   uint32
	Valid bool
	Word  [2]uint16
}

// Core is the processor's entire programmer-visible state (spec §3.1).
// It owns its register file, flags, and instruction cache exclusively;
// the bus is a borrowed collaborator supplied on every operation.
type Core struct {
	Version Version

	PC uint32
	IR uint16

	// dar[0..7] = D0-D7, dar[8..14] = A0-A6, dar[15] = the active stack
	// pointer (USP/ISP/MSP depending on S, M below).
	dar [16]uint32

	inactiveUSP uint32
	inactiveISP uint32
	inactiveMSP uint32

	flags Flags

	s       bool
	m       bool
	intMask uint8 // 3-bit interrupt priority mask

	// '010+
	VBR uint32
	SFC uint32
	DFC uint32

	// '020+
	CAAR uint32
	CACR uint32
	CAHR uint32
	Cache [64]CacheLine020

	state RunState

	ops [65536]handler
}

// handler is the signature every dispatch-table entry implements:
// execute the already-fetched opcode in Core.IR, mutate state through c
// and b, and return the cycle count or an exception (component D).
type handler func(c *Core, b bus.Bus) (int, *Exception)

// New constructs a fresh core with its dispatch table generated and
// flags initialized per spec §4.F: supervisor mode, interrupts masked,
// Z set.
func New(version Version) *Core {
	c := &Core{
		Version: version,
		flags:   freshFlags(),
		s:       true,
		m:       true,
		intMask: 7,
	}
	generateDispatchTable(&c.ops)
	return c
}

// Reset implements the RESET sequence of spec §4.F: enter supervisor
// mode, mask interrupts, then load the initial SP and PC from the first
// two longwords of supervisor program space.
func (c *Core) Reset(b bus.Bus) {
	c.s = true
	c.m = true
	c.intMask = 7
	c.PC = 0
	c.state = Running
	c.setA(7, c.read32(b, bus.SupervisorProgram, 0))
	c.PC = c.read32(b, bus.SupervisorProgram, 4)
}

// Step fetches and executes one instruction, returning the cycle count.
// On exception, it performs exception processing (push PC/SR, vector
// from VBR, enter supervisor mode) and returns the exception's reported
// cycle cost. Trap-kind exceptions (TRAP, TRAPV, CHK, zero divide) stack
// the address of the next instruction; the others stack the address of
// the faulting opcode. See spec §4.D.1 and §7.
func (c *Core) Step(b bus.Bus) int {
	if c.state == Stopped {
		return 0
	}

	startPC := c.PC
	opcode, err := c.readImmProg16(b)
	if err != nil {
		c.raiseException(b, err, startPC)
		return 0
	}
	c.IR = opcode

	cycles, execErr := c.ops[opcode](c, b)
	if execErr != nil {
		faultPC := startPC
		if execErr.Kind == Trap {
			faultPC = c.PC
		}
		c.raiseException(b, execErr, faultPC)
		return cycles
	}
	return cycles
}

// TriggerInterrupt requests an interrupt at the given priority (1-7). If
// the current mask does not block it, this call performs the exception
// processing immediately, waking the core first if it is Stopped.
func (c *Core) TriggerInterrupt(b bus.Bus, level uint8) {
	if level == 0 || level <= c.intMask {
		return
	}
	exc := &Exception{Kind: Interrupt, IRQLevel: level, Vector: 24 + level} // autovector 1-7: vectors 25-31
	if c.state == Stopped {
		c.state = Running
	}
	c.raiseException(b, exc, c.PC)
}

// raiseException implements centralized exception processing (spec
// §4.D.1, §6.2, §7): push the old PC and SR (plus, on '010+, a frame
// format/vector word), clear the trace bits, enter supervisor mode, and
// load PC from VBR + 4*vector.
func (c *Core) raiseException(b bus.Bus, e *Exception, faultPC uint32) {
	vector := c.vectorFor(e)
	logger.LogExc("%s -> vector %d", e.Error(), vector)

	sr := c.statusRegister()

	oldS := c.s
	c.s = true
	if !oldS {
		c.swapStackOnSupervisorEntry()
	}

	if c.Version.atLeast010() {
		// Frame format 0, vector offset in the low 12 bits. Pushed first so
		// it lands at the highest address of the frame (SP+6), matching the
		// documented six-word layout (SR at SP+0, PC at SP+2, vector at
		// SP+6) and RTE's pop order (SR, PC, discard-last).
		c.pushWord(b, uint16(vector)*4)
	}
	c.pushLong(b, faultPC)
	c.pushWord(b, sr)

	c.PC = c.read32(b, bus.SupervisorProgram, c.VBR+4*uint32(vector))
	c.state = Running
}

func (c *Core) vectorFor(e *Exception) uint8 {
	switch e.Kind {
	case AddressError:
		return VectorAddressError
	case IllegalInstruction:
		return VectorIllegal
	case UnimplementedInstruction:
		return e.Vector
	case PrivilegeViolation:
		return VectorPrivilege
	case Trap:
		return e.Vector
	case Interrupt:
		return e.Vector
	default:
		return VectorIllegal
	}
}

// swapStackOnSupervisorEntry saves the current A7 (the USP, since we're
// transitioning from user mode) into inactiveUSP and loads whichever
// supervisor SP (ISP or MSP) is currently selected by M.
func (c *Core) swapStackOnSupervisorEntry() {
	c.inactiveUSP = c.dar[15]
	if c.m {
		c.dar[15] = c.inactiveMSP
	} else {
		c.dar[15] = c.inactiveISP
	}
}

// --- register file accessors -------------------------------------------------

func (c *Core) d(n int) uint32    { return c.dar[n&7] }
func (c *Core) setD(n int, v uint32) { c.dar[n&7] = v }

func (c *Core) a(n int) uint32    { return c.dar[8+(n&7)] }
func (c *Core) setA(n int, v uint32) { c.dar[8+(n&7)] = v }

// setDByte/setDWord write the low byte/word of a data register while
// preserving the untouched upper bits (spec §8 properties 3 and 4).
func (c *Core) setDByte(n int, v uint8) {
	idx := n & 7
	c.dar[idx] = (c.dar[idx] &^ 0xFF) | uint32(v)
}

func (c *Core) setDWord(n int, v uint16) {
	idx := n & 7
	c.dar[idx] = (c.dar[idx] &^ 0xFFFF) | uint32(v)
}

// --- SR/CCR materialization ---------------------------------------------------

// statusRegister packs {T1 T0 S M - Imask - - - X N Z V C}. Trace bits
// are always reported clear: this core never sets them (no trace mode).
func (c *Core) statusRegister() uint16 {
	var sr uint16
	if c.s {
		sr |= 1 << sFlagBit
	}
	if c.m {
		sr |= 1 << mFlagBit
	}
	sr |= uint16(c.intMask) << intBits
	sr |= c.flags.conditionCodeRegister()
	return sr & CPUSRMask
}

// conditionCodeRegister returns just the low byte of the SR.
func (c *Core) conditionCodeRegister() uint16 {
	return c.flags.conditionCodeRegister()
}

// srToFlags writes back a full SR value, swapping the active stack
// pointer if S or M changed. Order matters: save the old SP into the
// slot matching the *old* (S,M) before loading the newly active one, per
// original_source/src/lib.rs sr_to_flags.
func (c *Core) srToFlags(sr uint16) {
	sr &= CPUSRMask
	oldS, oldM := c.s, c.m

	c.intMask = uint8((sr >> intBits) & 0x7)
	c.s = sr&(1<<sFlagBit) != 0
	c.m = sr&(1<<mFlagBit) != 0
	c.flags.ccrToFlags(sr & 0xFF)

	if oldS != c.s {
		if c.s {
			// user -> supervisor
			c.inactiveUSP = c.dar[15]
			if c.m {
				c.dar[15] = c.inactiveMSP
			} else {
				c.dar[15] = c.inactiveISP
			}
		} else {
			// supervisor -> user
			if oldM {
				c.inactiveMSP = c.dar[15]
			} else {
				c.inactiveISP = c.dar[15]
			}
			c.dar[15] = c.inactiveUSP
		}
	} else if c.s && oldM != c.m {
		// staying supervisor, M flipped between ISP and MSP
		if oldM {
			c.inactiveMSP = c.dar[15]
		} else {
			c.inactiveISP = c.dar[15]
		}
		if c.m {
			c.dar[15] = c.inactiveMSP
		} else {
			c.dar[15] = c.inactiveISP
		}
	}
}

func (c *Core) ccrToFlags(ccr uint16) {
	sr := c.statusRegister()
	c.srToFlags((sr & 0xFF00) | (ccr & 0xFF))
}

// requirePrivilege raises PrivilegeViolation (leaving state unchanged)
// unless the core is in supervisor mode.
func (c *Core) requirePrivilege(opcode uint16, pc uint32) *Exception {
	if c.s {
		return nil
	}
	return privilegeErr(opcode, pc)
}

// --- bus access helpers (component F) ----------------------------------------

func (c *Core) dataSpace() bus.AddressSpace {
	if c.s {
		return bus.SupervisorData
	}
	return bus.UserData
}

func (c *Core) progSpace() bus.AddressSpace {
	if c.s {
		return bus.SupervisorProgram
	}
	return bus.UserProgram
}

func (c *Core) read8(b bus.Bus, space bus.AddressSpace, addr uint32) uint8 {
	return b.Read8(space, addr)
}
func (c *Core) read16(b bus.Bus, space bus.AddressSpace, addr uint32) uint16 {
	return b.Read16(space, addr)
}
func (c *Core) read32(b bus.Bus, space bus.AddressSpace, addr uint32) uint32 {
	return b.Read32(space, addr)
}
func (c *Core) write8(b bus.Bus, space bus.AddressSpace, addr uint32, v uint8) {
	b.Write8(space, addr, v)
}
func (c *Core) write16(b bus.Bus, space bus.AddressSpace, addr uint32, v uint16) {
	b.Write16(space, addr, v)
}
func (c *Core) write32(b bus.Bus, space bus.AddressSpace, addr uint32, v uint32) {
	b.Write32(space, addr, v)
}

// readImmProg16 fetches the next instruction word (or extension word)
// from program space at PC and advances PC by 2. On the '020, this goes
// through the instruction cache (cache020.go); '000/'010 do the natural
// bus read, per spec §4.F's stated non-goal around prefetch modeling.
func (c *Core) readImmProg16(b bus.Bus) (uint16, *Exception) {
	if c.PC&1 != 0 {
		return 0, addressErr()
	}
	var word uint16
	if c.Version.atLeast020() {
		word = c.fetch020(b, c.PC)
	} else {
		word = c.read16(b, c.progSpace(), c.PC)
	}
	c.PC += 2
	return word, nil
}

// readImmData16/32 consume an extension word from data space at PC,
// advancing PC. Used by immediate operands and EA extension words.
func (c *Core) readImmData16(b bus.Bus) uint16 {
	v := c.read16(b, c.dataSpace(), c.PC)
	c.PC += 2
	return v
}

func (c *Core) readImmData32(b bus.Bus) uint32 {
	v := c.read32(b, c.dataSpace(), c.PC)
	c.PC += 4
	return v
}

// --- stack helpers -------------------------------------------------------

func (c *Core) pushLong(b bus.Bus, v uint32) {
	sp := c.a(7) - 4
	c.setA(7, sp)
	c.write32(b, c.dataSpace(), sp, v)
}

func (c *Core) pushWord(b bus.Bus, v uint16) {
	sp := c.a(7) - 2
	c.setA(7, sp)
	c.write16(b, c.dataSpace(), sp, v)
}

func (c *Core) popLong(b bus.Bus) uint32 {
	sp := c.a(7)
	v := c.read32(b, c.dataSpace(), sp)
	c.setA(7, sp+4)
	return v
}

func (c *Core) popWord(b bus.Bus) uint16 {
	sp := c.a(7)
	v := c.read16(b, c.dataSpace(), sp)
	c.setA(7, sp+2)
	return v
}

// DAR exposes a copy of the 16-register file for tests and CLI tracing.
func (c *Core) DAR() [16]uint32 { return c.dar }

// State reports the current run state (Running/Stopped/Halted).
func (c *Core) State() RunState { return c.state }

// StatusRegister exposes the materialized SR for tests and CLI tracing.
func (c *Core) StatusRegister() uint16 { return c.statusRegister() }

// ConditionCodeRegister exposes the materialized CCR.
func (c *Core) ConditionCodeRegister() uint16 { return c.conditionCodeRegister() }

// SRToFlags is the exported form of srToFlags, used by RTE/RTR handlers
// and by tests exercising the SR round trip (spec §8 property 10).
func (c *Core) SRToFlags(sr uint16) { c.srToFlags(sr) }
