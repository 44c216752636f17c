package cpu

import (
	"github.com/mc68kcore/m68k/pkg/bus"
	"github.com/mc68kcore/m68k/pkg/logger"
)

// 68020 instruction cache bit layout (spec §3.1, confirmed against
// original_source/src/lib.rs): 64 lines, each holding two instruction
// words. The address splits into a 24-bit tag, a 6-bit line index, and a
// 1-bit word select; bits 0 is always 0 (word-aligned fetches only).
const (
	cacheLines    = 64
	cacheIndexMask = 0x3F
	cacheEnableBit = 1 << 0 // CACR bit 0: enable instruction cache
	cacheFreezeBit = 1 << 1 // CAAR bit 1: freeze (no new line fills)
	cacheClearBit  = 1 << 3 // CACR bit 3: clear entire cache (self-clearing)
)

func cacheIndex(addr uint32) uint32 {
	return (addr >> 2) & cacheIndexMask
}

func cacheTag(addr uint32) uint32 {
	return addr >> 8
}

func cacheWordSelect(addr uint32) int {
	return int((addr >> 1) & 1)
}

// fetch020 services an instruction fetch through the 68020 cache. A hit
// returns the cached word without touching the bus; a miss fills both
// words of the line (unless frozen) and returns the requested word.
// Disabling the cache (CACR bit 0 clear) bypasses it entirely.
func (c *Core) fetch020(b bus.Bus, addr uint32) uint16 {
	if c.CACR&cacheClearBit != 0 {
		c.Cache = [64]CacheLine020{}
		c.CACR &^= cacheClearBit
	}
	if c.CACR&cacheEnableBit == 0 {
		return c.read16(b, c.progSpace(), addr)
	}

	idx := cacheIndex(addr)
	tag := cacheTag(addr)
	line := &c.Cache[idx]
	sel := cacheWordSelect(addr)

	if line.Valid && line.Tag == tag {
		logger.LogCache("hit line=%d addr=%#08x", idx, addr)
		return line.Word[sel]
	}

	logger.LogCache("miss line=%d addr=%#08x", idx, addr)
	lineBase := addr &^ 3
	w0 := c.read16(b, c.progSpace(), lineBase)
	w1 := c.read16(b, c.progSpace(), lineBase+2)

	if c.CAAR&cacheFreezeBit == 0 {
		line.Tag = tag
		line.Valid = true
		line.Word[0] = w0
		line.Word[1] = w1
	}

	if sel == 0 {
		return w0
	}
	return w1
}
