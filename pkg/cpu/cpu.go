package cpu

import (
	"errors"
	"fmt"
	"math"
)

// Primary opcodes, bits 31..26.
const (
	OpSPECIAL uint32 = 0x00
	OpJ       uint32 = 0x02
	OpJAL     uint32 = 0x03
	OpBEQ     uint32 = 0x04
	OpBNE     uint32 = 0x05
	OpADDI    uint32 = 0x08
	OpADDIU   uint32 = 0x09
	OpSLTI    uint32 = 0x0A
	OpSLTIU   uint32 = 0x0B
	OpANDI    uint32 = 0x0C
	OpORI     uint32 = 0x0D
	OpXORI    uint32 = 0x0E
	OpLUI     uint32 = 0x0F
	OpCOP2    uint32 = 0x12
	OpLW      uint32 = 0x23
	OpSW      uint32 = 0x2B
)

// SPECIAL function codes, bits 5..0.
const (
	FnSLL   uint32 = 0x00
	FnSRL   uint32 = 0x02
	FnSRA   uint32 = 0x03
	FnSLLV  uint32 = 0x04
	FnSRLV  uint32 = 0x06
	FnSRAV  uint32 = 0x07
	FnJR    uint32 = 0x08
	FnJALR  uint32 = 0x09
	FnMFHI  uint32 = 0x10
	FnMFLO  uint32 = 0x12
	FnMULT  uint32 = 0x18
	FnMULTU uint32 = 0x19
	FnDIV   uint32 = 0x1A
	FnDIVU  uint32 = 0x1B
	FnADD   uint32 = 0x20
	FnADDU  uint32 = 0x21
	FnSUB   uint32 = 0x22
	FnSUBU  uint32 = 0x23
	FnAND   uint32 = 0x24
	FnOR    uint32 = 0x25
	FnXOR   uint32 = 0x26
	FnNOR   uint32 = 0x27
	FnSLT   uint32 = 0x2A
	FnSLTU  uint32 = 0x2B
)

// Cop2MT is the rs field of mtc2 ("move to coprocessor 2").
const Cop2MT uint32 = 0x04

// General purpose register numbers.
const (
	RegZero uint32 = 0
	RegAT   uint32 = 1
	RegV0   uint32 = 2
	RegV1   uint32 = 3
	RegA0   uint32 = 4
	RegT0   uint32 = 8
	RegSP   uint32 = 29
	RegFP   uint32 = 30
	RegRA   uint32 = 31
)

const (
	// MemorySize is the amount of RAM. It is mirrored through KSEG0 and
	// KSEG1, so 0x80000000 and 0xA0000000 both map to physical address 0.
	MemorySize = 2 << 20

	// DefaultOrigin is where programs are loaded by default.
	DefaultOrigin uint32 = 0x80010000
)

var (
	ErrAddress     = errors.New("bad memory address")
	ErrInstruction = errors.New("reserved instruction")
	ErrOverflow    = errors.New("arithmetic overflow")
	ErrStepLimit   = errors.New("step limit reached")
)

// CPU is a MIPS I interpreter without caches, exceptions or load delays.
// Branch and jump delay slots are honoured: the instruction after a
// control transfer always executes.
//
// Writing coprocessor 2 register 0 stops the machine; the generated
// program preamble does this once the entry function returns.
type CPU struct {
	Regs [32]uint32
	HI   uint32
	LO   uint32

	PC     uint32 // address of the next instruction to execute
	NextPC uint32 // address after that; branches rewrite it

	Cop2 [32]uint32

	Memory []byte

	Halted bool
	Steps  uint64
}

func NewCPU() *CPU {
	return &CPU{Memory: make([]byte, MemorySize)}
}

// LoadProgram copies words into memory at origin and points the CPU at entry.
func (c *CPU) LoadProgram(origin, entry uint32, words []uint32) error {
	for i, w := range words {
		if err := c.Write32(origin+uint32(i)*4, w); err != nil {
			return fmt.Errorf("program does not fit in memory: %w", err)
		}
	}
	c.Reset(entry)
	return nil
}

// Reset clears the run state and starts execution at entry. Memory is kept.
func (c *CPU) Reset(entry uint32) {
	c.Regs = [32]uint32{}
	c.HI, c.LO = 0, 0
	c.Cop2 = [32]uint32{}
	c.PC = entry
	c.NextPC = entry + 4
	c.Halted = false
	c.Steps = 0
}

// phys maps a virtual address to an index into Memory.
func (c *CPU) phys(addr uint32) (uint32, error) {
	if addr&3 != 0 {
		return 0, fmt.Errorf("%w: unaligned word access at 0x%08X", ErrAddress, addr)
	}
	p := addr & 0x1FFFFFFF
	if uint64(p)+4 > uint64(len(c.Memory)) {
		return 0, fmt.Errorf("%w: 0x%08X is outside RAM", ErrAddress, addr)
	}
	return p, nil
}

// Read32 reads a little-endian word.
func (c *CPU) Read32(addr uint32) (uint32, error) {
	p, err := c.phys(addr)
	if err != nil {
		return 0, err
	}
	m := c.Memory[p : p+4]
	return uint32(m[0]) | uint32(m[1])<<8 | uint32(m[2])<<16 | uint32(m[3])<<24, nil
}

// Write32 writes a little-endian word.
func (c *CPU) Write32(addr uint32, val uint32) error {
	p, err := c.phys(addr)
	if err != nil {
		return err
	}
	c.Memory[p] = byte(val)
	c.Memory[p+1] = byte(val >> 8)
	c.Memory[p+2] = byte(val >> 16)
	c.Memory[p+3] = byte(val >> 24)
	return nil
}

// Step executes one instruction.
func (c *CPU) Step() error {
	if c.Halted {
		return nil
	}

	pc := c.PC
	instr, err := c.Read32(pc)
	if err != nil {
		return fmt.Errorf("fetch at 0x%08X: %w", pc, err)
	}
	c.PC = c.NextPC
	c.NextPC += 4
	c.Steps++

	err = c.execute(pc, instr)
	c.Regs[RegZero] = 0
	if err != nil {
		return fmt.Errorf("at 0x%08X: %w", pc, err)
	}
	return nil
}

func (c *CPU) execute(pc, instr uint32) error {
	op := instr >> 26
	rs := (instr >> 21) & 0x1F
	rt := (instr >> 16) & 0x1F
	rd := (instr >> 11) & 0x1F
	imm := instr & 0xFFFF
	simm := uint32(int32(int16(imm)))

	switch op {
	case OpSPECIAL:
		return c.special(instr)

	case OpJ:
		c.NextPC = (c.PC & 0xF0000000) | (instr&0x03FFFFFF)<<2

	case OpJAL:
		c.Regs[RegRA] = c.PC + 4
		c.NextPC = (c.PC & 0xF0000000) | (instr&0x03FFFFFF)<<2

	case OpBEQ:
		if c.Regs[rs] == c.Regs[rt] {
			c.NextPC = c.PC + simm<<2
		}

	case OpBNE:
		if c.Regs[rs] != c.Regs[rt] {
			c.NextPC = c.PC + simm<<2
		}

	case OpADDI:
		sum := int64(int32(c.Regs[rs])) + int64(int32(simm))
		if sum > math.MaxInt32 || sum < math.MinInt32 {
			return ErrOverflow
		}
		c.Regs[rt] = uint32(sum)

	case OpADDIU:
		c.Regs[rt] = c.Regs[rs] + simm

	case OpSLTI:
		c.Regs[rt] = boolWord(int32(c.Regs[rs]) < int32(simm))

	case OpSLTIU:
		c.Regs[rt] = boolWord(c.Regs[rs] < simm)

	case OpANDI:
		c.Regs[rt] = c.Regs[rs] & imm

	case OpORI:
		c.Regs[rt] = c.Regs[rs] | imm

	case OpXORI:
		c.Regs[rt] = c.Regs[rs] ^ imm

	case OpLUI:
		c.Regs[rt] = imm << 16

	case OpLW:
		v, err := c.Read32(c.Regs[rs] + simm)
		if err != nil {
			return err
		}
		c.Regs[rt] = v

	case OpSW:
		return c.Write32(c.Regs[rs]+simm, c.Regs[rt])

	case OpCOP2:
		if rs != Cop2MT {
			return fmt.Errorf("%w: cop2 0x%08X", ErrInstruction, instr)
		}
		c.Cop2[rd] = c.Regs[rt]
		if rd == 0 {
			c.Halted = true
		}

	default:
		return fmt.Errorf("%w: 0x%08X", ErrInstruction, instr)
	}
	return nil
}

func (c *CPU) special(instr uint32) error {
	rs := (instr >> 21) & 0x1F
	rt := (instr >> 16) & 0x1F
	rd := (instr >> 11) & 0x1F
	sa := (instr >> 6) & 0x1F
	fn := instr & 0x3F

	a, b := c.Regs[rs], c.Regs[rt]

	switch fn {
	case FnSLL:
		c.Regs[rd] = b << sa
	case FnSRL:
		c.Regs[rd] = b >> sa
	case FnSRA:
		c.Regs[rd] = uint32(int32(b) >> sa)
	case FnSLLV:
		c.Regs[rd] = b << (a & 31)
	case FnSRLV:
		c.Regs[rd] = b >> (a & 31)
	case FnSRAV:
		c.Regs[rd] = uint32(int32(b) >> (a & 31))

	case FnJR:
		c.NextPC = a
	case FnJALR:
		c.Regs[rd] = c.PC + 4
		c.NextPC = a

	case FnMFHI:
		c.Regs[rd] = c.HI
	case FnMFLO:
		c.Regs[rd] = c.LO

	case FnMULT:
		p := int64(int32(a)) * int64(int32(b))
		c.LO, c.HI = uint32(p), uint32(uint64(p)>>32)
	case FnMULTU:
		p := uint64(a) * uint64(b)
		c.LO, c.HI = uint32(p), uint32(p>>32)
	case FnDIV:
		c.divSigned(int32(a), int32(b))
	case FnDIVU:
		if b == 0 {
			c.LO, c.HI = 0xFFFFFFFF, a
		} else {
			c.LO, c.HI = a/b, a%b
		}

	case FnADD:
		sum := int64(int32(a)) + int64(int32(b))
		if sum > math.MaxInt32 || sum < math.MinInt32 {
			return ErrOverflow
		}
		c.Regs[rd] = uint32(sum)
	case FnADDU:
		c.Regs[rd] = a + b
	case FnSUB:
		diff := int64(int32(a)) - int64(int32(b))
		if diff > math.MaxInt32 || diff < math.MinInt32 {
			return ErrOverflow
		}
		c.Regs[rd] = uint32(diff)
	case FnSUBU:
		c.Regs[rd] = a - b
	case FnAND:
		c.Regs[rd] = a & b
	case FnOR:
		c.Regs[rd] = a | b
	case FnXOR:
		c.Regs[rd] = a ^ b
	case FnNOR:
		c.Regs[rd] = ^(a | b)
	case FnSLT:
		c.Regs[rd] = boolWord(int32(a) < int32(b))
	case FnSLTU:
		c.Regs[rd] = boolWord(a < b)

	default:
		return fmt.Errorf("%w: special 0x%08X", ErrInstruction, instr)
	}
	return nil
}

// divSigned follows the R3000: division by zero leaves the dividend in HI
// and -1 or 1 in LO depending on its sign.
func (c *CPU) divSigned(n, d int32) {
	switch {
	case d == 0:
		c.HI = uint32(n)
		if n >= 0 {
			c.LO = 0xFFFFFFFF
		} else {
			c.LO = 1
		}
	case n == math.MinInt32 && d == -1:
		c.LO, c.HI = uint32(n), 0
	default:
		c.LO, c.HI = uint32(n/d), uint32(n%d)
	}
}

func boolWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// Run executes until the machine halts or faults.
func (c *CPU) Run() error {
	for !c.Halted {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunFor executes at most maxSteps instructions.
func (c *CPU) RunFor(maxSteps uint64) error {
	for i := uint64(0); !c.Halted; i++ {
		if i == maxSteps {
			return fmt.Errorf("%w after %d instructions (PC=0x%08X)", ErrStepLimit, maxSteps, c.PC)
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// EncodeR builds a SPECIAL (register) instruction.
func EncodeR(rs, rt, rd, sa, fn uint32) uint32 {
	return OpSPECIAL<<26 | (rs&0x1F)<<21 | (rt&0x1F)<<16 | (rd&0x1F)<<11 | (sa&0x1F)<<6 | fn&0x3F
}

// EncodeI builds an immediate instruction. Only the low 16 bits of imm are used.
func EncodeI(op, rs, rt, imm uint32) uint32 {
	return (op&0x3F)<<26 | (rs&0x1F)<<21 | (rt&0x1F)<<16 | imm&0xFFFF
}

// EncodeJ builds a jump to the word-aligned target within the current 256 MiB region.
func EncodeJ(op, target uint32) uint32 {
	return (op&0x3F)<<26 | (target>>2)&0x03FFFFFF
}

// EncodeCop2 builds an mtc2 moving rt into coprocessor 2 register rd.
func EncodeCop2(rt, rd uint32) uint32 {
	return OpCOP2<<26 | Cop2MT<<21 | (rt&0x1F)<<16 | (rd&0x1F)<<11
}
