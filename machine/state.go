// Package machine implements the W16 virtual machine: an 8-bit
// accumulator, 13-bit address toy CPU with memory-mapped keyboard and
// time I/O (design §C3).
package machine

import (
	"bufio"
	"encoding/binary"
)

const (
	// MemorySize is the full 13-bit address space, 8 KiB.
	MemorySize = 0x2000

	// IOPort is the memory-mapped keyboard/console address. Reads
	// consume (or peek) the latched keystroke; writes print and flush.
	IOPort uint16 = 0x1FFF

	// TimeWindowLo is the first byte of the little-endian 32-bit
	// simulated-elapsed-time view. Reading it latches the clock.
	TimeWindowLo uint16 = 0x1FFB

	// TimeWindowHi is the last byte of the time window (inclusive).
	TimeWindowHi uint16 = 0x1FFE
)

// State is the machine's architectural state: memory, registers, halt
// flag, and the time-window bookkeeping.
type State struct {
	Memory [MemorySize]byte
	PC     uint16 // 13-bit, wraps mod 0x2000 after every update
	A      byte
	Halted bool

	Clock    Clock
	Keyboard KeyboardPort
	Stdout   *bufio.Writer

	startTimeMs    uint64
	measuredTimeMs uint64
	idleTimeMs     uint64
}

// NewState returns a zeroed machine with the time window's epoch
// anchored at the current instant, matching get_initial_state().
func NewState(clock Clock, keyboard KeyboardPort, stdout *bufio.Writer) *State {
	now := clock.NowMs()
	return &State{
		Clock:          clock,
		Keyboard:       keyboard,
		Stdout:         stdout,
		startTimeMs:    now,
		measuredTimeMs: now,
	}
}

// LoadImage copies a binary image into memory starting at address 0.
// The caller (the out-of-scope binary-file loader) is responsible for
// enforcing the 0x1FFF byte size limit before calling this.
func (s *State) LoadImage(image []byte) {
	copy(s.Memory[:], image)
}

// IdleTimeMs returns the accumulated time excluded from the program
// visible clock (time spent inside the debugger prompt).
func (s *State) IdleTimeMs() uint64 {
	return s.idleTimeMs
}

// AddIdleTime accrues wall time spent outside the interpreter loop.
func (s *State) AddIdleTime(ms uint64) {
	s.idleTimeMs += ms
}

// PeekMemory reads a byte with no side effects: at the I/O port this
// is a non-consuming peek of the latched keystroke, and reads of the
// time window never (re-)latch the clock.
func (s *State) PeekMemory(addr uint16) byte {
	addr %= MemorySize
	switch {
	case addr == IOPort:
		return s.Keyboard.PeekLastChar()
	case addr >= TimeWindowLo && addr <= TimeWindowHi:
		return s.timeWindowByte(addr - TimeWindowLo)
	default:
		return s.Memory[addr]
	}
}

// GetMemory reads a byte, applying side effects: at the I/O port it
// consumes the latched keystroke (zeroing it), and reading the first
// byte of the time window (TimeWindowLo) latches the clock so a
// subsequent four-byte read observes a consistent snapshot.
func (s *State) GetMemory(addr uint16) byte {
	addr %= MemorySize
	switch {
	case addr == IOPort:
		return s.Keyboard.GetLastChar()
	case addr == TimeWindowLo:
		s.measuredTimeMs = s.Clock.NowMs()
		return s.timeWindowByte(0)
	case addr > TimeWindowLo && addr <= TimeWindowHi:
		return s.timeWindowByte(addr - TimeWindowLo)
	default:
		return s.Memory[addr]
	}
}

// setMemory writes plain RAM. Writes to the time-window addresses land
// here with no special effect; the I/O port's write side effect (print
// and flush) is handled directly in Step, never through setMemory.
func (s *State) setMemory(addr uint16, value byte) {
	addr %= MemorySize
	s.Memory[addr] = value
}

func (s *State) timeWindowByte(offset uint16) byte {
	elapsed := uint32(s.measuredTimeMs - s.startTimeMs - s.idleTimeMs)
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], elapsed)
	return buf[offset]
}

// PeekInstruction assembles the little-endian 16-bit word at addr
// without side effects.
func (s *State) PeekInstruction(addr uint16) Instruction {
	lo := s.PeekMemory(addr)
	hi := s.PeekMemory(addr + 1)
	return DecodeWord(uint16(lo) | uint16(hi)<<8)
}

// GetInstruction assembles the little-endian 16-bit word at addr,
// applying the same side effects as GetMemory to each byte fetched.
func (s *State) GetInstruction(addr uint16) Instruction {
	lo := s.GetMemory(addr)
	hi := s.GetMemory(addr + 1)
	return DecodeWord(uint16(lo) | uint16(hi)<<8)
}

// Step fetches, decodes, and executes exactly one instruction.
//
// step does not fail: every address is in range by construction (a
// 13-bit argument field into 13-bit memory), arithmetic wraps, and the
// ISA has no trapping instructions.
func (s *State) Step() {
	instr := s.GetInstruction(s.PC)

	switch instr.Op {
	case OpLD:
		s.A = s.GetMemory(instr.Arg)
		s.PC += 2
	case OpNOT:
		s.A = ^s.GetMemory(instr.Arg)
		s.PC += 2
	case OpADD:
		s.A = s.A + s.GetMemory(instr.Arg)
		s.PC += 2
	case OpAND:
		s.A = s.A & s.GetMemory(instr.Arg)
		s.PC += 2
	case OpST:
		// Opcodes 0..4 all fetch M[argument] via get_memory for its side
		// effects (keyboard consume / time latch) before acting; ST
		// discards the fetched value and writes A instead.
		s.GetMemory(instr.Arg)
		if instr.Arg == IOPort {
			s.Stdout.WriteByte(s.A)
			s.Stdout.Flush()
		} else {
			s.setMemory(instr.Arg, s.A)
		}
		s.PC += 2
	case OpJMP:
		if instr.Arg == s.PC {
			s.Halted = true
		} else {
			s.PC = instr.Arg
		}
	case OpJMN:
		if s.A&0x80 != 0 {
			s.PC = instr.Arg
		} else {
			s.PC += 2
		}
	case OpJMZ:
		if s.A == 0 {
			s.PC = instr.Arg
		} else {
			s.PC += 2
		}
	}

	s.PC %= MemorySize
}
