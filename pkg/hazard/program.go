// Package hazard enumerates pipeline hazard shapes into self-checking RISC-V
// assembly programs.
//
// Generation is split in two steps: generator functions build a structured
// Program (an ordered list of instructions and labels) for every Descriptor in
// a suite, and Render serializes it to assembly text. Nothing but Render knows
// about the textual syntax.
package hazard

import (
	"fmt"
	"strings"
)

// Label marking the end of every generated program
const EndLabel = "end_program"

// Instruction is a single assembly instruction. Operands are kept in source
// order and already formatted (registers, immediates, offset(base) operands).
type Instruction struct {
	Op       string
	Operands []string
	Comment  string
}

func (i Instruction) String() string {
	if len(i.Operands) == 0 {
		return i.Op
	}

	return i.Op + " " + strings.Join(i.Operands, ", ")
}

// Line is either an instruction or a label definition
type Line struct {
	Label       string
	Instruction *Instruction
}

func (l Line) IsLabel() bool {
	return l.Instruction == nil
}

// Program is the structured form of a generated test program: optional
// preconditions followed by the instructions under test. The end label is
// implicit and always emitted last.
type Program struct {
	Preamble []Line
	Body     []Line
}

// Lines returns preamble and body as a single sequence
func (p Program) Lines() []Line {
	lines := make([]Line, 0, len(p.Preamble)+len(p.Body))
	lines = append(lines, p.Preamble...)
	return append(lines, p.Body...)
}

// InstructionCount returns the number of instructions (labels excluded)
func (p Program) InstructionCount() int {
	count := 0

	for _, line := range p.Lines() {
		if !line.IsLabel() {
			count++
		}
	}

	return count
}

// ByteOffset returns the distance in bytes between the instruction at index
// `from` (counting instructions only) and the given label
func (p Program) ByteOffset(from int, label string) (int, error) {
	index := 0

	for _, line := range p.Lines() {
		if line.IsLabel() {
			if line.Label == label {
				return (index - from) * InstructionSize, nil
			}
			continue
		}
		index++
	}

	if label == EndLabel {
		return (index - from) * InstructionSize, nil
	}

	return 0, fmt.Errorf("label '%v' not found in program", label)
}

// Encoded instruction width in bytes
const InstructionSize = 4

func Instr(op string, operands ...string) Line {
	return Line{Instruction: &Instruction{Op: op, Operands: operands}}
}

func Commented(comment string, op string, operands ...string) Line {
	line := Instr(op, operands...)
	line.Instruction.Comment = comment
	return line
}

func Label(name string) Line {
	return Line{Label: name}
}

// Mem formats a base+offset memory operand
func Mem(offset string, base string) string {
	return fmt.Sprintf("%s(%s)", offset, base)
}

// Li loads a small constant into a register
func Li(rd string, value int) Line {
	return Instr("addi", rd, Zero, fmt.Sprint(value))
}

// Nop is the canonical no-op
func Nop() Line {
	return Instr("addi", Zero, Zero, "0")
}
