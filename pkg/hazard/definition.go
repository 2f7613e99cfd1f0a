package hazard

import (
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Manu343726/hazardbench/pkg/layout"
	"github.com/Manu343726/hazardbench/pkg/utils"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Kind selects the generator used to enumerate a suite
type Kind string

const (
	KindBaseline         Kind = "baseline"
	KindDependency       Kind = "dependency"
	KindDoubleDependency Kind = "double_dependency"
	KindControlData      Kind = "control_data"
)

// Hard-wired zero register
const Zero = "x0"

// RegisterSet lists the registers each generator draws operands from
type RegisterSet struct {
	// Destination and source registers of single instruction programs
	General []string `yaml:"general,omitempty"`
	// Register operands of register-register arithmetic
	RType []string `yaml:"rtype,omitempty"`
	// Load destinations, must not alias the base register
	LoadRd []string `yaml:"load_rd,omitempty"`
	// Store data registers, must not alias the base register
	StoreRs2 []string `yaml:"store_rs2,omitempty"`
	// Registers written by producers and read by consumers
	Dependent []string `yaml:"dependent,omitempty"`
	// Independent second source operand of two-operand consumers
	Other []string `yaml:"other,omitempty"`
	// Registers written by the two producers of double dependency programs
	Pair []string `yaml:"pair,omitempty"`
	// Data section base address register
	Base string `yaml:"base,omitempty"`
	// Consumer destination register
	Dest string `yaml:"dest,omitempty"`
	// Register updated by neutral (independent) instructions and jump targets
	Neutral string `yaml:"neutral,omitempty"`
}

// Classes is the instruction roster per instruction class
type Classes struct {
	RType  []string `yaml:"rtype,omitempty"`
	IType  []string `yaml:"itype,omitempty"`
	Shift  []string `yaml:"shift,omitempty"`
	Load   []string `yaml:"load,omitempty"`
	Store  []string `yaml:"store,omitempty"`
	Branch []string `yaml:"branch,omitempty"`
	Upper  []string `yaml:"upper,omitempty"`
	Jump   []string `yaml:"jump,omitempty"`
}

// Sentinels are the registers every program reserves for self-checking
type Sentinels struct {
	// Set to PassCode or FailCode depending on the control path taken
	Result string `yaml:"result"`
	// Written only by instructions that must be flushed. Stays 0 on a correct pipeline.
	Flush string `yaml:"flush"`
}

const (
	PassCode = 1
	FailCode = 2
)

// DataSection places memory operands inside the simulator data section
type DataSection struct {
	// Upper immediate loaded with lui to reach the data section base
	Lui string `yaml:"lui"`
	// Offset added to the base so negative offsets stay in the section
	Offset int `yaml:"offset"`
}

// Definition is the complete configuration of a generated suite. Every knob a
// generator uses comes from here so that suites can be extended or composed
// by editing their definition file.
type Definition struct {
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind"`
	// Suite directory, relative to the sources and reference roots
	Dir string `yaml:"dir"`

	// Hazard-free padding (nops) placed before the instruction under test
	Padding int `yaml:"padding,omitempty"`
	// Number of neutral instructions between producer and consumer
	Gap int `yaml:"gap,omitempty"`
	// Establish register/memory preconditions for baseline programs
	Preamble bool `yaml:"preamble,omitempty"`

	Registers       RegisterSet `yaml:"registers"`
	Immediates      []string    `yaml:"immediates,omitempty"`
	Shifts          []string    `yaml:"shifts,omitempty"`
	UpperImmediates []string    `yaml:"upper_immediates,omitempty"`
	Classes         Classes     `yaml:"classes,omitempty"`
	Producers       []string    `yaml:"producers,omitempty"`
	Consumers       []string    `yaml:"consumers,omitempty"`

	Sentinels Sentinels   `yaml:"sentinels"`
	Data      DataSection `yaml:"data"`
}

func (d Definition) Suite() layout.Suite {
	return layout.Suite{Name: d.Name, Dir: d.Dir}
}

// Validate checks the fields every generator relies on
func (d *Definition) Validate() error {
	switch {
	case d.Name == "":
		return utils.MakeError(ErrInvalidDefinition, "suite name is empty")
	case d.Dir == "" || path.IsAbs(d.Dir) || path.Clean(d.Dir) == "." || strings.HasPrefix(path.Clean(d.Dir), ".."):
		return utils.MakeError(ErrInvalidDefinition, "suite '%v' directory '%v' must be a relative path below the sources root", d.Name, d.Dir)
	case d.Sentinels.Result == "" || d.Sentinels.Flush == "":
		return utils.MakeError(ErrInvalidDefinition, "suite '%v' has no sentinel registers", d.Name)
	case d.Sentinels.Result == d.Sentinels.Flush:
		return utils.MakeError(ErrInvalidDefinition, "suite '%v' result and flush sentinels alias register %v", d.Name, d.Sentinels.Result)
	case d.Gap < 0 || d.Padding < 0:
		return utils.MakeError(ErrInvalidDefinition, "suite '%v' gap and padding must not be negative", d.Name)
	}

	switch d.Kind {
	case KindBaseline:
		if len(d.Registers.General) == 0 {
			return utils.MakeError(ErrInvalidDefinition, "suite '%v' has no general registers", d.Name)
		}
	case KindDependency, KindControlData:
		if len(d.Registers.Dependent) == 0 || len(d.Producers) == 0 {
			return utils.MakeError(ErrInvalidDefinition, "suite '%v' needs dependent registers and producers", d.Name)
		}
	case KindDoubleDependency:
		if len(d.Registers.Pair) != 2 {
			return utils.MakeError(ErrInvalidDefinition, "suite '%v' needs exactly two pair registers, got %v", d.Name, len(d.Registers.Pair))
		}
	default:
		return utils.MakeError(ErrUnknownKind, "suite '%v' has kind '%v'", d.Name, d.Kind)
	}

	return nil
}

// DecodeDefinition parses a YAML suite definition, rejecting unknown fields
func DecodeDefinition(data []byte) (Definition, error) {
	var def Definition

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&def); err != nil {
		return def, utils.MakeError(ErrInvalidDefinition, "%v", err)
	}

	return def, def.Validate()
}

// LoadDefinition reads a suite definition file
func LoadDefinition(fs afero.Fs, file string) (Definition, error) {
	data, err := afero.ReadFile(fs, file)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to read suite definition: %w", err)
	}

	def, err := DecodeDefinition(data)
	if err != nil {
		return def, fmt.Errorf("%v: %w", file, err)
	}

	return def, nil
}

// LoadDefinitions reads every *.yaml definition of a directory, sorted by suite name
func LoadDefinitions(fs afero.Fs, dir string) ([]Definition, error) {
	files, err := afero.Glob(fs, filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}

	defs := make([]Definition, 0, len(files))
	seen := make(map[string]string)

	for _, file := range files {
		def, err := LoadDefinition(fs, file)
		if err != nil {
			return nil, err
		}
		if previous, ok := seen[def.Name]; ok {
			return nil, utils.MakeError(ErrInvalidDefinition, "suite '%v' defined twice (%v and %v)", def.Name, previous, file)
		}
		seen[def.Name] = file
		defs = append(defs, def)
	}

	if err := CheckDisjoint(defs); err != nil {
		return nil, err
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

// CheckDisjoint fails if two suites write the same directory or one suite
// directory lies inside another. Each suite owns its source and reference
// trees exclusively.
func CheckDisjoint(defs []Definition) error {
	for i, a := range defs {
		for _, b := range defs[i+1:] {
			if within(a.Dir, b.Dir) || within(b.Dir, a.Dir) {
				return utils.MakeError(ErrInvalidDefinition, "suites '%v' (%v) and '%v' (%v) have overlapping directories", a.Name, a.Dir, b.Name, b.Dir)
			}
		}
	}

	return nil
}

func within(dir string, parent string) bool {
	dir, parent = path.Clean(dir), path.Clean(parent)
	return dir == parent || strings.HasPrefix(dir, parent+"/")
}

// EncodeDefinition validates a definition and renders it as YAML
func EncodeDefinition(def Definition) ([]byte, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(2)

	if err := encoder.Encode(def); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

// SaveDefinition writes a suite definition as YAML
func SaveDefinition(fs afero.Fs, file string, def Definition) error {
	data, err := EncodeDefinition(def)
	if err != nil {
		return err
	}

	if err := fs.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return fmt.Errorf("failed to create definitions directory: %w", err)
	}

	return afero.WriteFile(fs, file, data, 0644)
}

var defaultClasses = Classes{
	RType:  []string{"add", "sub", "xor", "or", "and", "sll", "srl", "sra", "slt", "sltu"},
	IType:  []string{"addi", "xori", "ori", "andi", "slti", "sltiu"},
	Shift:  []string{"slli", "srli", "srai"},
	Load:   []string{"lb", "lh", "lw", "ld", "lbu", "lhu", "lwu"},
	Store:  []string{"sb", "sh", "sw", "sd"},
	Branch: []string{"beq", "bne", "blt", "bge", "bltu", "bgeu"},
	Upper:  []string{"lui", "auipc"},
	Jump:   []string{"jal", "jalr"},
}

var (
	defaultSentinels = Sentinels{Result: "x30", Flush: "x29"}
	defaultData      = DataSection{Lui: "0x10000", Offset: 128}
	hazardProducers  = []string{"add", "addi", "lw", "lui", "jal"}
)

func hazardRegisters() RegisterSet {
	return RegisterSet{
		Dependent: []string{"x0", "x1"},
		Other:     []string{"x0", "x2"},
		Pair:      []string{"x1", "x2"},
		Base:      "x4",
		Dest:      "x3",
		Neutral:   "x5",
	}
}

// DefaultDefinitions returns the built-in suites
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Name:    "single_without_hazards",
			Kind:    KindBaseline,
			Dir:     "single_without_hazards",
			Padding: 4,
			Registers: RegisterSet{
				General:  []string{"x0", "x1"},
				RType:    []string{"x0", "x1"},
				LoadRd:   []string{"x0", "x1"},
				StoreRs2: []string{"x0", "x1"},
				Base:     "x1",
			},
			Immediates:      []string{"0", "1", "10", "-1", "2047", "-2048"},
			Shifts:          []string{"0", "1", "5", "31"},
			UpperImmediates: []string{"0", "1", "1024", "1048575"},
			Classes:         defaultClasses,
			Sentinels:       defaultSentinels,
			Data:            defaultData,
		},
		{
			Name:     "single_hazards",
			Kind:     KindBaseline,
			Dir:      "single_hazards",
			Preamble: true,
			Registers: RegisterSet{
				General:  []string{"x0", "x1"},
				RType:    []string{"x0", "x1", "x2"},
				LoadRd:   []string{"x0", "x2"},
				StoreRs2: []string{"x0", "x2"},
				Base:     "x1",
			},
			Immediates:      []string{"0", "1", "-1", "2047", "-2048"},
			Shifts:          []string{"0", "1", "31"},
			UpperImmediates: []string{"0", "1", "1048575"},
			Classes:         defaultClasses,
			Sentinels:       defaultSentinels,
			Data:            defaultData,
		},
		{
			Name:      "multi_2_instr",
			Kind:      KindDependency,
			Dir:       "multi_hazard/2_instr",
			Gap:       0,
			Registers: hazardRegisters(),
			Producers: hazardProducers,
			Consumers: []string{"add", "addi", "lw", "sw"},
			Sentinels: defaultSentinels,
			Data:      defaultData,
		},
		{
			Name:      "multi_gapped",
			Kind:      KindDependency,
			Dir:       "multi_hazard/gapped",
			Gap:       1,
			Registers: hazardRegisters(),
			Producers: hazardProducers,
			Consumers: []string{"add", "addi", "lw", "sw"},
			Sentinels: defaultSentinels,
			Data:      defaultData,
		},
		{
			Name:      "double_dep",
			Kind:      KindDoubleDependency,
			Dir:       "multi_hazard/double_dep",
			Registers: hazardRegisters(),
			Producers: hazardProducers,
			Consumers: []string{"add", "sw"},
			Sentinels: defaultSentinels,
			Data:      defaultData,
		},
		{
			Name:      "control_data",
			Kind:      KindControlData,
			Dir:       "multi_hazard/control_data",
			Registers: hazardRegisters(),
			Producers: hazardProducers,
			Sentinels: defaultSentinels,
			Data:      defaultData,
		},
	}
}

// DefaultDefinition returns the built-in suite with the given name
func DefaultDefinition(name string) (Definition, bool) {
	for _, def := range DefaultDefinitions() {
		if def.Name == name {
			return def, true
		}
	}

	return Definition{}, false
}
