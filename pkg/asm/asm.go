package asm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"minicc/pkg/cpu"
)

// rd, rs, rt
var threeRegisterOps = map[string]uint32{
	"addu": cpu.FnADDU,
	"add":  cpu.FnADD,
	"subu": cpu.FnSUBU,
	"sub":  cpu.FnSUB,
	"and":  cpu.FnAND,
	"or":   cpu.FnOR,
	"xor":  cpu.FnXOR,
	"nor":  cpu.FnNOR,
	"slt":  cpu.FnSLT,
	"sltu": cpu.FnSLTU,
}

// rd, rt, rs
var variableShiftOps = map[string]uint32{
	"sllv": cpu.FnSLLV,
	"srlv": cpu.FnSRLV,
	"srav": cpu.FnSRAV,
}

// rd, rt, sa
var shiftOps = map[string]uint32{
	"sll": cpu.FnSLL,
	"srl": cpu.FnSRL,
	"sra": cpu.FnSRA,
}

// rs, rt
var multiplyOps = map[string]uint32{
	"mult":  cpu.FnMULT,
	"multu": cpu.FnMULTU,
	"div":   cpu.FnDIV,
	"divu":  cpu.FnDIVU,
}

// rd
var moveFromOps = map[string]uint32{
	"mfhi": cpu.FnMFHI,
	"mflo": cpu.FnMFLO,
}

// rt, rs, signed 16-bit immediate
var signedImmediateOps = map[string]uint32{
	"addiu": cpu.OpADDIU,
	"addi":  cpu.OpADDI,
	"slti":  cpu.OpSLTI,
	"sltiu": cpu.OpSLTIU,
}

// rt, rs, unsigned 16-bit immediate
var unsignedImmediateOps = map[string]uint32{
	"andi": cpu.OpANDI,
	"ori":  cpu.OpORI,
	"xori": cpu.OpXORI,
}

// rt, offset(base)
var memoryOps = map[string]uint32{
	"lw": cpu.OpLW,
	"sw": cpu.OpSW,
}

// rs, rt, label
var branchOps = map[string]uint32{
	"beq": cpu.OpBEQ,
	"bne": cpu.OpBNE,
}

// label
var jumpOps = map[string]uint32{
	"j":   cpu.OpJ,
	"jal": cpu.OpJAL,
}

var registerNames = map[string]uint32{
	"zero": 0, "at": 1, "v0": 2, "v1": 3,
	"a0": 4, "a1": 5, "a2": 6, "a3": 7,
	"t0": 8, "t1": 9, "t2": 10, "t3": 11, "t4": 12, "t5": 13, "t6": 14, "t7": 15,
	"s0": 16, "s1": 17, "s2": 18, "s3": 19, "s4": 20, "s5": 21, "s6": 22, "s7": 23,
	"t8": 24, "t9": 25, "k0": 26, "k1": 27,
	"gp": 28, "sp": 29, "fp": 30, "s8": 30, "ra": 31,
}

// Image is an assembled program ready to be loaded at Origin.
type Image struct {
	Origin    uint32
	Entry     uint32
	Words     []uint32
	Labels    map[string]uint32
	SourceMap map[uint32]int // instruction address to source line
}

type Assembler struct {
	origin uint32
	labels map[string]uint32
	entry  string
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		origin: cpu.DefaultOrigin,
		labels: make(map[string]uint32),
	}
}

// Assemble assembles code with the default origin.
func Assemble(code string) (*Image, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) (*Image, error) {
	lines := strings.Split(code, "\n")

	parsed := make([]parsedLine, 0, len(lines))
	for i, raw := range lines {
		p, err := parseLine(raw, i+1)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, p)
	}

	if err := a.pass1(parsed); err != nil {
		return nil, err
	}
	return a.pass2(parsed)
}

func (a *Assembler) pass1(lines []parsedLine) error {
	address := uint64(a.origin)

	for _, p := range lines {
		for _, lbl := range p.labels {
			if _, exists := a.labels[lbl]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, p.lineNo)
			}
			a.labels[lbl] = uint32(address)
		}

		if p.mnemonic == "" {
			continue
		}

		switch p.mnemonic {
		case ".text":
			continue
		case ".entry":
			if len(p.operands) != 1 {
				return fmt.Errorf(".entry expects exactly one label on line %d", p.lineNo)
			}
			a.entry = p.operands[0]
			continue
		case ".word":
			if len(p.operands) == 0 {
				return fmt.Errorf(".word expects at least one operand on line %d", p.lineNo)
			}
			address += 4 * uint64(len(p.operands))
			continue
		}

		words, ok := a.instructionLength(p)
		if !ok {
			return fmt.Errorf("unknown instruction on line %d: %s", p.lineNo, p.mnemonic)
		}
		address += 4 * uint64(words)
		if address > math.MaxUint32 {
			return fmt.Errorf("program too large near line %d", p.lineNo)
		}
	}

	return nil
}

func (a *Assembler) pass2(lines []parsedLine) (*Image, error) {
	img := &Image{
		Origin:    a.origin,
		Entry:     a.origin,
		Labels:    a.labels,
		SourceMap: make(map[uint32]int),
	}

	if a.entry != "" {
		addr, ok := a.labels[a.entry]
		if !ok {
			return nil, fmt.Errorf("undefined entry label '%s'", a.entry)
		}
		img.Entry = addr
	}

	for _, p := range lines {
		if p.mnemonic == "" || p.mnemonic == ".text" || p.mnemonic == ".entry" {
			continue
		}

		address := a.origin + uint32(len(img.Words))*4
		img.SourceMap[address] = p.lineNo

		if p.mnemonic == ".word" {
			for _, op := range p.operands {
				val, err := a.parseImmediate(op, p.lineNo)
				if err != nil {
					return nil, err
				}
				if val < math.MinInt32 || val > math.MaxUint32 {
					return nil, fmt.Errorf("word out of range on line %d: %s", p.lineNo, op)
				}
				img.Words = append(img.Words, uint32(val))
			}
			continue
		}

		encoded, err := a.encode(p, address)
		if err != nil {
			return nil, err
		}
		img.Words = append(img.Words, encoded...)
	}

	return img, nil
}

func (a *Assembler) encode(p parsedLine, address uint32) ([]uint32, error) {
	mnemonic, ops, lineNo := p.mnemonic, p.operands, p.lineNo

	regs := func(n int) ([]uint32, error) {
		out := make([]uint32, n)
		for i := 0; i < n; i++ {
			r, err := parseRegister(ops[i], lineNo)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	}

	if want, ok := operandCount(mnemonic); ok && len(ops) != want {
		return nil, fmt.Errorf("%s expects %d operands on line %d", mnemonic, want, lineNo)
	}

	if fn, ok := threeRegisterOps[mnemonic]; ok {
		r, err := regs(3)
		if err != nil {
			return nil, err
		}
		return []uint32{cpu.EncodeR(r[1], r[2], r[0], 0, fn)}, nil
	}

	if fn, ok := variableShiftOps[mnemonic]; ok {
		r, err := regs(3)
		if err != nil {
			return nil, err
		}
		return []uint32{cpu.EncodeR(r[2], r[1], r[0], 0, fn)}, nil
	}

	if fn, ok := shiftOps[mnemonic]; ok {
		r, err := regs(2)
		if err != nil {
			return nil, err
		}
		sa, err := a.parseImmediate(ops[2], lineNo)
		if err != nil {
			return nil, err
		}
		if sa < 0 || sa > 31 {
			return nil, fmt.Errorf("shift amount out of range on line %d: %s", lineNo, ops[2])
		}
		return []uint32{cpu.EncodeR(0, r[1], r[0], uint32(sa), fn)}, nil
	}

	if fn, ok := multiplyOps[mnemonic]; ok {
		r, err := regs(2)
		if err != nil {
			return nil, err
		}
		return []uint32{cpu.EncodeR(r[0], r[1], 0, 0, fn)}, nil
	}

	if fn, ok := moveFromOps[mnemonic]; ok {
		r, err := regs(1)
		if err != nil {
			return nil, err
		}
		return []uint32{cpu.EncodeR(0, 0, r[0], 0, fn)}, nil
	}

	if op, ok := signedImmediateOps[mnemonic]; ok {
		r, err := regs(2)
		if err != nil {
			return nil, err
		}
		imm, err := a.parseImmediate(ops[2], lineNo)
		if err != nil {
			return nil, err
		}
		if imm < math.MinInt16 || imm > math.MaxInt16 {
			return nil, fmt.Errorf("immediate out of range on line %d: %s", lineNo, ops[2])
		}
		return []uint32{cpu.EncodeI(op, r[1], r[0], uint32(imm))}, nil
	}

	if op, ok := unsignedImmediateOps[mnemonic]; ok {
		r, err := regs(2)
		if err != nil {
			return nil, err
		}
		imm, err := a.parseImmediate(ops[2], lineNo)
		if err != nil {
			return nil, err
		}
		if imm < 0 || imm > math.MaxUint16 {
			return nil, fmt.Errorf("immediate out of range on line %d: %s", lineNo, ops[2])
		}
		return []uint32{cpu.EncodeI(op, r[1], r[0], uint32(imm))}, nil
	}

	if op, ok := memoryOps[mnemonic]; ok {
		r, err := regs(1)
		if err != nil {
			return nil, err
		}
		offset, base, err := a.parseMemoryOperand(ops[1], lineNo)
		if err != nil {
			return nil, err
		}
		return []uint32{cpu.EncodeI(op, base, r[0], offset)}, nil
	}

	if op, ok := branchOps[mnemonic]; ok {
		r, err := regs(2)
		if err != nil {
			return nil, err
		}
		offset, err := a.branchOffset(ops[2], address, lineNo)
		if err != nil {
			return nil, err
		}
		return []uint32{cpu.EncodeI(op, r[0], r[1], offset)}, nil
	}

	if op, ok := jumpOps[mnemonic]; ok {
		target, err := a.jumpTarget(ops[0], address, lineNo)
		if err != nil {
			return nil, err
		}
		return []uint32{cpu.EncodeJ(op, target)}, nil
	}

	switch mnemonic {
	case "nop":
		return []uint32{0}, nil

	case "jr":
		r, err := regs(1)
		if err != nil {
			return nil, err
		}
		return []uint32{cpu.EncodeR(r[0], 0, 0, 0, cpu.FnJR)}, nil

	case "lui":
		r, err := regs(1)
		if err != nil {
			return nil, err
		}
		imm, err := a.parseImmediate(ops[1], lineNo)
		if err != nil {
			return nil, err
		}
		if imm < 0 || imm > math.MaxUint16 {
			return nil, fmt.Errorf("immediate out of range on line %d: %s", lineNo, ops[1])
		}
		return []uint32{cpu.EncodeI(cpu.OpLUI, 0, r[0], uint32(imm))}, nil

	case "mtc2":
		rt, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return nil, err
		}
		rd, err := parseCopRegister(ops[1], lineNo)
		if err != nil {
			return nil, err
		}
		return []uint32{cpu.EncodeCop2(rt, rd)}, nil

	case "move":
		r, err := regs(2)
		if err != nil {
			return nil, err
		}
		return []uint32{cpu.EncodeR(r[1], cpu.RegZero, r[0], 0, cpu.FnADDU)}, nil

	case "b":
		offset, err := a.branchOffset(ops[0], address, lineNo)
		if err != nil {
			return nil, err
		}
		return []uint32{cpu.EncodeI(cpu.OpBEQ, 0, 0, offset)}, nil

	case "li", "la":
		r, err := regs(1)
		if err != nil {
			return nil, err
		}
		val, err := a.parseImmediate(ops[1], lineNo)
		if err != nil {
			return nil, err
		}
		if val < math.MinInt32 || val > math.MaxUint32 {
			return nil, fmt.Errorf("immediate out of range on line %d: %s", lineNo, ops[1])
		}
		if mnemonic == "la" || isLabelOperand(ops[1]) {
			return loadUpperLower(r[0], uint32(val)), nil
		}
		return loadImmediate(r[0], val), nil
	}

	return nil, fmt.Errorf("unknown instruction on line %d: %s", lineNo, mnemonic)
}

// loadImmediate expands li into the shortest sequence for val.
// Its length must agree with liLength.
func loadImmediate(rt uint32, val int64) []uint32 {
	switch {
	case val >= math.MinInt16 && val <= math.MaxInt16:
		return []uint32{cpu.EncodeI(cpu.OpADDIU, cpu.RegZero, rt, uint32(val))}
	case val >= 0 && val <= math.MaxUint16:
		return []uint32{cpu.EncodeI(cpu.OpORI, cpu.RegZero, rt, uint32(val))}
	}
	word := uint32(val)
	if word&0xFFFF == 0 {
		return []uint32{cpu.EncodeI(cpu.OpLUI, 0, rt, word>>16)}
	}
	return loadUpperLower(rt, word)
}

func loadUpperLower(rt, word uint32) []uint32 {
	return []uint32{
		cpu.EncodeI(cpu.OpLUI, 0, rt, word>>16),
		cpu.EncodeI(cpu.OpORI, rt, rt, word&0xFFFF),
	}
}

func liLength(val int64) int {
	switch {
	case val >= math.MinInt16 && val <= math.MaxUint16:
		return 1
	case uint32(val)&0xFFFF == 0:
		return 1
	}
	return 2
}

func (a *Assembler) branchOffset(token string, address uint32, lineNo int) (uint32, error) {
	target, err := a.parseImmediate(token, lineNo)
	if err != nil {
		return 0, err
	}
	delta := target - int64(address) - 4
	if delta&3 != 0 {
		return 0, fmt.Errorf("misaligned branch target on line %d: %s", lineNo, token)
	}
	delta >>= 2
	if delta < math.MinInt16 || delta > math.MaxInt16 {
		return 0, fmt.Errorf("branch target out of range on line %d: %s", lineNo, token)
	}
	return uint32(delta), nil
}

func (a *Assembler) jumpTarget(token string, address uint32, lineNo int) (uint32, error) {
	target, err := a.parseImmediate(token, lineNo)
	if err != nil {
		return 0, err
	}
	if target < 0 || target > math.MaxUint32 || target&3 != 0 {
		return 0, fmt.Errorf("invalid jump target on line %d: %s", lineNo, token)
	}
	if uint32(target)&0xF0000000 != (address+4)&0xF0000000 {
		return 0, fmt.Errorf("jump target outside current region on line %d: %s", lineNo, token)
	}
	return uint32(target), nil
}

func (a *Assembler) parseMemoryOperand(token string, lineNo int) (offset, base uint32, err error) {
	open := strings.IndexByte(token, '(')
	if open < 0 || !strings.HasSuffix(token, ")") {
		return 0, 0, fmt.Errorf("invalid memory operand '%s' on line %d", token, lineNo)
	}

	base, err = parseRegister(token[open+1:len(token)-1], lineNo)
	if err != nil {
		return 0, 0, err
	}

	var off int64
	if s := strings.TrimSpace(token[:open]); s != "" {
		off, err = a.parseImmediate(s, lineNo)
		if err != nil {
			return 0, 0, err
		}
	}
	if off < math.MinInt16 || off > math.MaxInt16 {
		return 0, 0, fmt.Errorf("offset out of range on line %d: %s", lineNo, token)
	}
	return uint32(off), base, nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}

		beforeColon := strings.TrimSpace(line[:colon])
		if strings.ContainsAny(beforeColon, " \t") {
			break
		}

		if !isIdentifier(beforeColon) {
			return p, fmt.Errorf("invalid label '%s' on line %d", beforeColon, lineNo)
		}

		p.labels = append(p.labels, beforeColon)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(fields) == 0 {
		return p, nil
	}

	p.mnemonic = strings.ToLower(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}

	return p, nil
}

func stripComments(line string) string {
	if cut := strings.IndexAny(line, "#;"); cut >= 0 {
		return line[:cut]
	}
	return line
}

func parseRegister(token string, lineNo int) (uint32, error) {
	name, ok := strings.CutPrefix(strings.TrimSpace(token), "$")
	if !ok {
		return 0, fmt.Errorf("invalid register '%s' on line %d", token, lineNo)
	}
	if r, ok := registerNames[strings.ToLower(name)]; ok {
		return r, nil
	}
	if n, err := strconv.ParseUint(name, 10, 8); err == nil && n < 32 {
		return uint32(n), nil
	}
	return 0, fmt.Errorf("invalid register '%s' on line %d", token, lineNo)
}

// parseCopRegister accepts a bare number or a $-prefixed one.
func parseCopRegister(token string, lineNo int) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(token, "$"), 10, 8)
	if err != nil || n > 31 {
		return 0, fmt.Errorf("invalid coprocessor register '%s' on line %d", token, lineNo)
	}
	return uint32(n), nil
}

func (a *Assembler) parseImmediate(token string, lineNo int) (int64, error) {
	if value, err := strconv.ParseInt(token, 0, 64); err == nil {
		return value, nil
	}

	if addr, ok := a.labels[token]; ok {
		return int64(addr), nil
	}

	if isIdentifier(token) {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}

	return 0, fmt.Errorf("invalid immediate '%s' on line %d", token, lineNo)
}

// instructionLength returns the number of words an instruction assembles to.
// Only li and la expand to more than one word.
func (a *Assembler) instructionLength(p parsedLine) (int, bool) {
	switch p.mnemonic {
	case "la":
		return 2, true
	case "li":
		if len(p.operands) != 2 || isLabelOperand(p.operands[1]) {
			return 2, true
		}
		val, err := strconv.ParseInt(p.operands[1], 0, 64)
		if err != nil {
			return 2, true
		}
		return liLength(val), true
	}

	if _, ok := operandCount(p.mnemonic); ok {
		return 1, true
	}
	return 0, false
}

// operandCount reports how many operands a mnemonic takes.
func operandCount(mnemonic string) (int, bool) {
	for _, table := range []map[string]uint32{threeRegisterOps, variableShiftOps, shiftOps, signedImmediateOps, unsignedImmediateOps, branchOps} {
		if _, ok := table[mnemonic]; ok {
			return 3, true
		}
	}
	for _, table := range []map[string]uint32{multiplyOps, memoryOps} {
		if _, ok := table[mnemonic]; ok {
			return 2, true
		}
	}
	for _, table := range []map[string]uint32{moveFromOps, jumpOps} {
		if _, ok := table[mnemonic]; ok {
			return 1, true
		}
	}

	switch mnemonic {
	case "nop":
		return 0, true
	case "jr", "b":
		return 1, true
	case "lui", "mtc2", "move", "li", "la":
		return 2, true
	}
	return 0, false
}

func isLabelOperand(token string) bool {
	_, err := strconv.ParseInt(token, 0, 64)
	return err != nil && isIdentifier(token)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' && r != '.' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return false
		}
	}

	return true
}
