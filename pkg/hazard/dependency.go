package hazard

import (
	"github.com/Manu343726/hazardbench/pkg/utils"
)

const (
	jalLabel = "jal_jump"
	// Immediate used by immediate-operand producers and consumers
	smallImm = "5"
)

func unsupported(def *Definition, op string) error {
	return utils.MakeError(ErrUnsupportedInstruction, "suite '%v' has no generation rule for '%v'", def.Name, op)
}

// dependencyPreamble initializes the source registers, the data section word
// at the base register and the sentinel/neutral registers
func dependencyPreamble(def *Definition) []Line {
	regs := def.Registers

	lines := []Line{Li("x1", 10), Li("x2", 20)}
	lines = append(lines, dataBase(def, regs.Base)...)
	lines = append(lines,
		Instr("sw", "x1", Mem("0", regs.Base)),
		Li(def.Sentinels.Flush, 0),
	)
	if regs.Neutral != "" {
		lines = append(lines, Li(regs.Neutral, 0))
	}

	return lines
}

// producer returns the lines writing rd. Jumping producers also plant a
// flushed write to the flush sentinel, flagged with flushValue.
func producer(def *Definition, op string, rd string, label string, flushValue int) ([]Line, error) {
	switch op {
	case "add":
		return []Line{Instr("add", rd, "x1", "x2")}, nil
	case "addi":
		return []Line{Instr("addi", rd, "x1", smallImm)}, nil
	case "lw":
		return []Line{Instr("lw", rd, Mem("0", def.Registers.Base))}, nil
	case "lui":
		return []Line{Instr("lui", rd, "0xABC")}, nil
	case "jal":
		return []Line{
			Instr("jal", rd, label),
			flushed(def, flushValue),
			Label(label),
		}, nil
	default:
		return nil, unsupported(def, op)
	}
}

// consumerForm is one way a consumer reads the dependent register
type consumerForm struct {
	operand Operand
	// The form also reads the independent "other" register
	usesOther bool
	build     func(def *Definition, dep string, other string) Line
}

var consumerForms = map[string][]consumerForm{
	"add": {
		{Rs1, true, func(def *Definition, dep, other string) Line { return Instr("add", def.Registers.Dest, dep, other) }},
		{Rs2, true, func(def *Definition, dep, other string) Line { return Instr("add", def.Registers.Dest, other, dep) }},
		{BothOperands, false, func(def *Definition, dep, _ string) Line { return Instr("add", def.Registers.Dest, dep, dep) }},
	},
	"addi": {
		{Rs1, false, func(def *Definition, dep, _ string) Line { return Instr("addi", def.Registers.Dest, dep, smallImm) }},
	},
	"lw": {
		{Rs1, false, func(def *Definition, dep, _ string) Line { return Instr("lw", def.Registers.Dest, Mem("0", dep)) }},
	},
	"sw": {
		{Rs1, true, func(def *Definition, dep, other string) Line { return Instr("sw", other, Mem("0", dep)) }},
		{Rs2, false, func(def *Definition, dep, _ string) Line { return Instr("sw", dep, Mem("0", def.Registers.Base)) }},
	},
}

// generateDependency covers producer -> consumer pairs separated by def.Gap
// neutral instructions
func generateDependency(def *Definition) ([]TestProgram, error) {
	regs := def.Registers
	preamble := dependencyPreamble(def)
	others := regs.Other
	if len(others) == 0 {
		others = []string{Zero}
	}

	gap := make([]Line, 0, def.Gap)
	for i := 0; i < def.Gap; i++ {
		gap = append(gap, Instr("addi", regs.Neutral, regs.Neutral, "1"))
	}

	var programs []TestProgram

	for _, p := range def.Producers {
		for _, c := range def.Consumers {
			forms, ok := consumerForms[c]
			if !ok {
				return nil, unsupported(def, c)
			}

			for _, dep := range regs.Dependent {
				produced, err := producer(def, p, dep, jalLabel, 1)
				if err != nil {
					return nil, err
				}

				for _, form := range forms {
					otherRegs := others
					if !form.usesOther {
						otherRegs = others[:1]
					}

					for _, other := range otherRegs {
						registers := []string{dep}
						if form.usesOther {
							registers = append(registers, other)
						}

						body := make([]Line, 0, len(produced)+len(gap)+1)
						body = append(body, produced...)
						body = append(body, gap...)
						body = append(body, form.build(def, dep, other))

						distance := Adjacent
						if def.Gap > 0 {
							distance = Gapped
						}

						programs = append(programs, TestProgram{
							Category: p + "_" + c,
							Descriptor: Descriptor{
								Producer:  p,
								Consumer:  c,
								Registers: registers,
								Distance:  distance,
								Operand:   form.operand,
							},
							Program: Program{Preamble: preamble, Body: body},
						})
					}
				}
			}
		}
	}

	return programs, nil
}

// doubleConsumer reads both pair registers, first as rs1 and second as rs2
func doubleConsumer(def *Definition, op string, first string, second string) (Line, error) {
	switch op {
	case "add":
		return Instr("add", def.Registers.Dest, first, second), nil
	case "sw":
		return Instr("sw", second, Mem("0", first)), nil
	default:
		return Line{}, unsupported(def, op)
	}
}

// doubleProducer writes rd from the base register so that both producers are
// independent of each other
func doubleProducer(def *Definition, op string, rd string, index int) ([]Line, error) {
	base := def.Registers.Base
	imms := []string{"15", "25"}
	uppers := []string{"0xAAA", "0xBBB"}

	switch op {
	case "add":
		return []Line{Instr("add", rd, base, base)}, nil
	case "addi":
		return []Line{Instr("addi", rd, Zero, imms[index])}, nil
	case "lw":
		return []Line{Instr("lw", rd, Mem("0", base))}, nil
	case "lui":
		return []Line{Instr("lui", rd, uppers[index])}, nil
	case "jal":
		return producer(def, op, rd, "label_p"+itoa(index+1), index+1)
	default:
		return nil, unsupported(def, op)
	}
}

// generateDoubleDependency covers two producers writing distinct registers
// followed by a consumer reading both, in both operand orders
func generateDoubleDependency(def *Definition) ([]TestProgram, error) {
	regs := def.Registers
	first, second := regs.Pair[0], regs.Pair[1]

	preamble := []Line{Li("x1", 10), Li("x2", 20)}
	preamble = append(preamble, dataBase(def, regs.Base)...)
	preamble = append(preamble,
		Instr("sw", "x1", Mem("0", regs.Base)),
		Li(def.Sentinels.Flush, 0),
	)

	orders := [][2]string{{first, second}, {second, first}}

	var programs []TestProgram

	for _, p1 := range def.Producers {
		p1Lines, err := doubleProducer(def, p1, first, 0)
		if err != nil {
			return nil, err
		}

		for _, p2 := range def.Producers {
			p2Lines, err := doubleProducer(def, p2, second, 1)
			if err != nil {
				return nil, err
			}

			for _, c := range def.Consumers {
				for _, order := range orders {
					consumer, err := doubleConsumer(def, c, order[0], order[1])
					if err != nil {
						return nil, err
					}

					body := make([]Line, 0, len(p1Lines)+len(p2Lines)+1)
					body = append(body, p1Lines...)
					body = append(body, p2Lines...)
					body = append(body, consumer)

					programs = append(programs, TestProgram{
						Category: p1 + "_" + p2 + "_on_" + c,
						Descriptor: Descriptor{
							Producer:       p1,
							SecondProducer: p2,
							Consumer:       c,
							Registers:      []string{order[0], order[1]},
							Distance:       Adjacent,
							Operand:        BothOperands,
						},
						Program: Program{Preamble: preamble, Body: body},
					})
				}
			}
		}
	}

	return programs, nil
}
