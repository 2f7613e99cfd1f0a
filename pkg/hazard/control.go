package hazard

import (
	"github.com/Manu343726/hazardbench/pkg/utils"
	"github.com/samber/lo"
)

// Control and data hazard categories
const (
	CategoryBranchTaken    = "branch_taken"
	CategoryBranchNotTaken = "branch_not_taken"
	CategoryJalrAddress    = "jalr_addr"
	CategoryAcrossBranch   = "across_branch"
)

const (
	jalrTarget   = "label_jalr_target"
	branchLabel  = "label_target"
	failLabel    = "label_fail"
	controlValue = 10
)

// controlPreamble establishes x1 = x3 = 10, x2 = 20, the data section word
// (10) at the base register and zeroed sentinels
func controlPreamble(def *Definition) []Line {
	regs := def.Registers

	lines := []Line{Li("x1", controlValue), Li("x2", 20), Li(regs.Dest, controlValue)}
	lines = append(lines, dataBase(def, regs.Base)...)
	lines = append(lines, Instr("sw", "x1", Mem("0", regs.Base)))
	return append(lines, sentinelInit(def)...)
}

// controlProducer writes rd with a value equal to the copy held by the
// destination register (lui and jal excepted)
func controlProducer(def *Definition, op string, rd string) ([]Line, error) {
	switch op {
	case "add":
		return []Line{Instr("add", rd, def.Registers.Dest, Zero)}, nil
	case "addi":
		return []Line{Li(rd, controlValue)}, nil
	case "lw":
		return []Line{Instr("lw", rd, Mem("0", def.Registers.Base))}, nil
	case "lui":
		return []Line{Instr("lui", rd, "0x1")}, nil
	case "jal":
		return producer(def, op, rd, jalLabel, 1)
	default:
		return nil, unsupported(def, op)
	}
}

func generateControlData(def *Definition) ([]TestProgram, error) {
	var programs []TestProgram

	for _, generate := range []generatorFunc{
		generateBranchTaken,
		generateBranchNotTaken,
		generateJalrAddress,
		generateAcrossBranch,
	} {
		generated, err := generate(def)
		if err != nil {
			return nil, err
		}
		programs = append(programs, generated...)
	}

	return programs, nil
}

// generateBranchTaken feeds the produced register into either operand of an
// equality branch that must be taken
func generateBranchTaken(def *Definition) ([]TestProgram, error) {
	preamble := controlPreamble(def)

	var programs []TestProgram

	for _, p := range def.Producers {
		for _, dep := range def.Registers.Dependent {
			produced, err := controlProducer(def, p, dep)
			if err != nil {
				return nil, err
			}

			compare := def.Registers.Dest
			if dep == Zero || p == "lui" || p == "jal" {
				compare = dep
			}

			for _, operand := range []Operand{Rs1, Rs2} {
				label := "label_pass_" + operand.String()
				branch := Instr("beq", dep, compare, label)
				if operand == Rs2 {
					branch = Instr("beq", compare, dep, label)
				}

				body := append(append([]Line{}, produced...), branch)
				body = append(body, passFail(def, label, FailCode, PassCode)...)

				programs = append(programs, TestProgram{
					Category: CategoryBranchTaken,
					Descriptor: Descriptor{
						Producer:        p,
						Consumer:        "beq",
						Registers:       []string{dep},
						Operand:         operand,
						ControlConsumer: true,
						Variant:         "taken",
					},
					Program: Program{Preamble: preamble, Body: body},
				})
			}
		}
	}

	return programs, nil
}

// generateBranchNotTaken feeds the produced register into an equality branch
// that must fall through
func generateBranchNotTaken(def *Definition) ([]TestProgram, error) {
	preamble := controlPreamble(def)

	var programs []TestProgram

	// A jumping producer never reaches a fall-through path of its own
	for _, p := range lo.Without(def.Producers, "jal") {
		for _, dep := range def.Registers.Dependent {
			produced, err := controlProducer(def, p, dep)
			if err != nil {
				return nil, err
			}

			body := append(append([]Line{}, produced...), Instr("beq", dep, "x2", failLabel))
			body = append(body, passFail(def, failLabel, PassCode, FailCode)...)

			programs = append(programs, TestProgram{
				Category: CategoryBranchNotTaken,
				Descriptor: Descriptor{
					Producer:        p,
					Consumer:        "beq",
					Registers:       []string{dep},
					Operand:         Rs1,
					ControlConsumer: true,
					Variant:         "not_taken",
				},
				Program: Program{Preamble: preamble, Body: body},
			})
		}
	}

	return programs, nil
}

// jalrProducer computes the jump target into rd from the address register
func jalrProducer(def *Definition, op string, rd string) (Line, bool) {
	addr := def.Registers.Neutral

	switch op {
	case "add":
		return Instr("add", rd, addr, Zero), true
	case "addi":
		return Instr("addi", rd, addr, "0"), true
	case "lw":
		return Instr("lw", rd, Mem("0", def.Registers.Base)), true
	default:
		return Line{}, false
	}
}

// generateJalrAddress makes the jump target of a jalr depend on the
// immediately preceding instruction. The target address is computed relative
// to an auipc so programs stay position independent.
func generateJalrAddress(def *Definition) ([]TestProgram, error) {
	regs := def.Registers
	target := "x1"

	var programs []TestProgram

	for _, p := range def.Producers {
		produced, ok := jalrProducer(def, p, target)
		if !ok {
			continue
		}

		preamble := sentinelInit(def)
		preamble = append(preamble, dataBase(def, regs.Base)...)
		auipcIndex := len(preamble)
		preamble = append(preamble,
			Instr("auipc", regs.Neutral, "0"),
			Instr("addi", regs.Neutral, regs.Neutral, "0"),
			Instr("sw", regs.Neutral, Mem("0", regs.Base)),
		)

		program := Program{
			Preamble: preamble,
			Body: append([]Line{
				produced,
				Instr("jalr", Zero, Mem("0", target)),
			}, passFail(def, jalrTarget, FailCode, PassCode)...),
		}

		offset, err := program.ByteOffset(auipcIndex, jalrTarget)
		if err != nil {
			return nil, utils.MakeError(ErrGeneration, "%v", err)
		}
		program.Preamble[auipcIndex+1] = Instr("addi", regs.Neutral, regs.Neutral, itoa(offset))

		programs = append(programs, TestProgram{
			Category: CategoryJalrAddress,
			Descriptor: Descriptor{
				Producer:        p,
				Consumer:        "jalr",
				Registers:       []string{target},
				ControlConsumer: true,
			},
			Program: program,
		})
	}

	return programs, nil
}

// generateAcrossBranch separates producer and consumer by an always taken
// branch whose shadow writes the flush sentinel. A correct pipeline squashes
// the shadow and still forwards the produced value to the consumer.
func generateAcrossBranch(def *Definition) ([]TestProgram, error) {
	regs := def.Registers
	dep := "x1"

	preamble := []Line{Li("x2", controlValue)}
	preamble = append(preamble, dataBase(def, regs.Base)...)
	preamble = append(preamble, Instr("sw", "x2", Mem("0", regs.Base)))
	preamble = append(preamble, sentinelInit(def)...)

	var programs []TestProgram

	for _, p := range def.Producers {
		var produced Line

		switch p {
		case "add":
			produced = Instr("add", dep, "x2", Zero)
		case "addi":
			produced = Li(dep, controlValue)
		case "lw":
			produced = Instr("lw", dep, Mem("0", regs.Base))
		case "lui":
			produced = Instr("lui", dep, "1")
		default:
			// jal is itself a taken control transfer
			continue
		}

		programs = append(programs, TestProgram{
			Category: CategoryAcrossBranch,
			Descriptor: Descriptor{
				Producer:  p,
				Consumer:  "add",
				Registers: []string{dep},
				Distance:  AcrossBranch,
				Operand:   Rs1,
			},
			Program: Program{
				Preamble: preamble,
				Body: []Line{
					produced,
					Commented("always taken", "beq", dep, dep, branchLabel),
					flushed(def, 1),
					Label(branchLabel),
					Li(def.Sentinels.Result, PassCode),
					Instr("add", regs.Dest, dep, Zero),
				},
			},
		})
	}

	return programs, nil
}
