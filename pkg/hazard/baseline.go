package hazard

import (
	"strconv"
)

// Baseline categories, one per instruction class
const (
	CategoryRType  = "01_r_type_arith"
	CategoryIType  = "02_i_type_arith"
	CategoryShift  = "02_i_type_shift"
	CategoryLoad   = "03_load_type"
	CategoryStore  = "04_store_type"
	CategoryBranch = "05_branch_type"
	CategoryUpper  = "06_u_type"
	CategoryJump   = "07_j_type"
)

const (
	branchTarget   = "branch_target"
	takenLabel     = "label_taken"
	jumpLabel      = "label_jump"
	takenMarker    = "x5"
	notTakenMarker = "x6"
	storeValue     = 99
	allOnes        = -1
)

func itoa(v int) string {
	return strconv.Itoa(v)
}

// branchCases are the three comparisons every branch is checked against
var branchCases = []struct {
	name     string
	lhs, rhs int
}{
	{"less_than", 5, 10},
	{"equal", 10, 10},
	{"greater_than", 10, 5},
}

type baseline struct {
	def      *Definition
	programs []TestProgram
}

func (b *baseline) add(category string, descriptor Descriptor, preamble []Line, body ...Line) {
	padded := make([]Line, 0, b.def.Padding+len(body))
	for i := 0; i < b.def.Padding; i++ {
		padded = append(padded, Nop())
	}

	b.programs = append(b.programs, TestProgram{
		Category:   category,
		Descriptor: descriptor,
		Program: Program{
			Preamble: preamble,
			Body:     append(padded, body...),
		},
	})
}

// preamble returns the given lines only when the suite establishes preconditions
func (b *baseline) preamble(lines ...Line) []Line {
	if !b.def.Preamble {
		return nil
	}
	return lines
}

// memoryPreamble sets up the base register of memory operands. Memory
// accesses need it even in suites without preconditions.
func (b *baseline) memoryPreamble(extra ...Line) []Line {
	lines := dataBase(b.def, b.def.Registers.Base)
	if b.def.Preamble {
		lines = append(lines, extra...)
	}
	return lines
}

func single(op string, operands ...string) Descriptor {
	return Descriptor{Producer: op, Operands: operands}
}

func generateBaseline(def *Definition) ([]TestProgram, error) {
	b := &baseline{def: def}
	regs := def.Registers
	rtype := regs.RType
	if len(rtype) == 0 {
		rtype = regs.General
	}
	loadRd := regs.LoadRd
	if len(loadRd) == 0 {
		loadRd = regs.General
	}
	storeRs2 := regs.StoreRs2
	if len(storeRs2) == 0 {
		storeRs2 = regs.General
	}
	base := regs.Base

	for _, op := range def.Classes.RType {
		preamble := b.preamble(Li("x1", 10), Li("x2", 20))

		for _, rd := range rtype {
			for _, rs1 := range rtype {
				for _, rs2 := range rtype {
					b.add(CategoryRType, single(op, rd, rs1, rs2), preamble, Instr(op, rd, rs1, rs2))
				}
			}
		}
	}

	for _, op := range def.Classes.IType {
		preamble := b.preamble(Li("x1", 10))

		for _, rd := range regs.General {
			for _, rs1 := range regs.General {
				for _, imm := range def.Immediates {
					b.add(CategoryIType, single(op, rd, rs1, imm), preamble, Instr(op, rd, rs1, imm))
				}
			}
		}
	}

	for _, op := range def.Classes.Shift {
		// All ones exercises the sign fill of arithmetic shifts
		preamble := b.preamble(Li("x1", allOnes))

		for _, rd := range regs.General {
			for _, rs1 := range regs.General {
				for _, shamt := range def.Shifts {
					b.add(CategoryShift, single(op, rd, rs1, shamt), preamble, Instr(op, rd, rs1, shamt))
				}
			}
		}
	}

	for _, op := range def.Classes.Load {
		for _, rd := range loadRd {
			for _, imm := range def.Immediates {
				b.add(CategoryLoad, single(op, rd, imm, base), b.memoryPreamble(), Instr(op, rd, Mem(imm, base)))
			}
		}
	}

	for _, op := range def.Classes.Store {
		for _, rs2 := range storeRs2 {
			for _, imm := range def.Immediates {
				b.add(CategoryStore, single(op, rs2, imm, base), b.memoryPreamble(Li("x2", storeValue)), Instr(op, rs2, Mem(imm, base)))
			}
		}
	}

	for _, op := range def.Classes.Branch {
		if def.Preamble {
			for _, c := range branchCases {
				b.add(CategoryBranch, Descriptor{Producer: op, Variant: c.name}, []Line{Li("x1", c.lhs), Li("x2", c.rhs)},
					Instr(op, "x1", "x2", takenLabel),
					Li(notTakenMarker, 1),
					Instr("jal", Zero, EndLabel),
					Label(takenLabel),
					Li(takenMarker, 1),
				)
			}
			continue
		}

		for _, rs1 := range regs.General {
			for _, rs2 := range regs.General {
				b.add(CategoryBranch, single(op, rs1, rs2), nil, Instr(op, rs1, rs2, branchTarget), Label(branchTarget))
			}
		}
	}

	for _, op := range def.Classes.Upper {
		for _, rd := range regs.General {
			for _, imm := range def.UpperImmediates {
				b.add(CategoryUpper, single(op, rd, imm), nil, Instr(op, rd, imm))
			}
		}
	}

	for _, op := range def.Classes.Jump {
		switch op {
		case "jal":
			for _, rd := range regs.General {
				if def.Preamble {
					b.add(CategoryJump, single(op, rd), nil,
						Instr(op, rd, jumpLabel),
						Li(takenMarker, 1),
						Instr("jal", Zero, EndLabel),
						Label(jumpLabel),
						Li(notTakenMarker, 1),
					)
				} else {
					b.add(CategoryJump, single(op, rd), nil, Instr(op, rd, branchTarget), Label(branchTarget))
				}
			}
		case "jalr":
			for _, rd := range regs.General {
				for _, imm := range def.Immediates {
					b.add(CategoryJump, single(op, rd, imm, base), b.memoryPreamble(), Instr(op, rd, Mem(imm, base)))
				}
			}
		default:
			return nil, unsupported(def, op)
		}
	}

	return b.programs, nil
}
