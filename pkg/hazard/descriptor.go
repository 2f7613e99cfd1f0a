package hazard

import (
	"fmt"
	"strings"
)

// Distance between the producer of a value and its consumer
type Distance int

const (
	// Consumer immediately follows the producer
	Adjacent Distance = iota
	// One independent instruction separates producer and consumer
	Gapped
	// A taken branch and its flushed shadow separate producer and consumer
	AcrossBranch
)

var distanceNames = []string{"adjacent", "gapped", "across_branch"}

func (d Distance) String() string {
	if int(d) < len(distanceNames) {
		return distanceNames[d]
	}
	return fmt.Sprintf("Distance(%d)", int(d))
}

func (d Distance) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Distance) UnmarshalText(text []byte) error {
	for i, name := range distanceNames {
		if name == string(text) {
			*d = Distance(i)
			return nil
		}
	}
	return fmt.Errorf("unknown distance '%s'", text)
}

// Operand position of the consumer that carries the dependency
type Operand int

const (
	NoOperand Operand = iota
	Rs1
	Rs2
	// Both source operands alias the same producer-written register
	BothOperands
)

var operandNames = []string{"none", "rs1", "rs2", "rs1_rs2"}

func (o Operand) String() string {
	if int(o) < len(operandNames) {
		return operandNames[o]
	}
	return fmt.Sprintf("Operand(%d)", int(o))
}

func (o Operand) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Operand) UnmarshalText(text []byte) error {
	for i, name := range operandNames {
		if name == string(text) {
			*o = Operand(i)
			return nil
		}
	}
	return fmt.Errorf("unknown operand '%s'", text)
}

// Descriptor is the logical shape of one generated program. It is the unit of
// coverage: each descriptor in a suite maps to exactly one source file whose
// name is derived from it.
//
// Single instruction programs (baseline coverage) leave Consumer empty and
// describe the instruction under test with Producer and Operands.
type Descriptor struct {
	Producer        string   `yaml:"producer"`
	SecondProducer  string   `yaml:"second_producer,omitempty"`
	Consumer        string   `yaml:"consumer,omitempty"`
	Registers       []string `yaml:"registers,omitempty"`
	Operands        []string `yaml:"operands,omitempty"`
	Distance        Distance `yaml:"distance"`
	Operand         Operand  `yaml:"operand"`
	ControlConsumer bool     `yaml:"control_consumer,omitempty"`
	Variant         string   `yaml:"variant,omitempty"`
}

// FileName returns the source file name encoding this descriptor:
//
//	add_x0_x1_x2.s                  single instruction with its operands
//	beq_less_than.s                 single instruction with a variant
//	lw_x1__add_rs2_other_x2.s       producer, dependent register, consumer, operand, other register
//	addi_x1__beq_taken_rs1.s        control consumer variant
//	addi_x1__add_across_branch_rs1.s
//	p1_lw_p2_jal__sw_x2_x1.s        two producers, consumer and registers in operand order
func (d Descriptor) FileName() string {
	var name string

	switch {
	case d.Consumer == "":
		parts := append([]string{d.Producer}, d.Operands...)
		if d.Variant != "" {
			parts = append(parts, d.Variant)
		}
		name = strings.Join(parts, "_")
	case d.SecondProducer != "":
		tail := append([]string{d.Consumer}, d.Registers...)
		name = fmt.Sprintf("p1_%s_p2_%s__%s", d.Producer, d.SecondProducer, strings.Join(tail, "_"))
	default:
		head := []string{d.Producer}
		if len(d.Registers) > 0 {
			head = append(head, d.Registers[0])
		}

		tail := []string{d.Consumer}
		if d.Variant != "" {
			tail = append(tail, d.Variant)
		}
		if d.Distance == AcrossBranch {
			tail = append(tail, AcrossBranch.String())
		}
		if d.Operand != NoOperand {
			tail = append(tail, d.Operand.String())
		}
		if len(d.Registers) > 1 {
			tail = append(tail, "other", d.Registers[1])
		}

		name = strings.Join(head, "_") + "__" + strings.Join(tail, "_")
	}

	return name + ".s"
}
