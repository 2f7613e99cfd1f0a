package hazard

import (
	"path"

	"github.com/Manu343726/hazardbench/pkg/utils"
)

// TestProgram is a generated program together with the descriptor it covers
type TestProgram struct {
	// Subdirectory of the suite the program is written to
	Category   string
	Descriptor Descriptor
	Program    Program
}

// Path returns the program location relative to its suite directory
func (t TestProgram) Path() string {
	return path.Join(t.Category, t.Descriptor.FileName())
}

type generatorFunc func(def *Definition) ([]TestProgram, error)

var generators = map[Kind]generatorFunc{
	KindBaseline:         generateBaseline,
	KindDependency:       generateDependency,
	KindDoubleDependency: generateDoubleDependency,
	KindControlData:      generateControlData,
}

// Generate enumerates every program of a suite. It has no side effects and is
// deterministic: the same definition always yields the same programs in the
// same order.
func Generate(def Definition) ([]TestProgram, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	generator, ok := generators[def.Kind]
	if !ok {
		return nil, utils.MakeError(ErrUnknownKind, "suite '%v' has kind '%v'", def.Name, def.Kind)
	}

	programs, err := generator(&def)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]Descriptor, len(programs))

	for _, program := range programs {
		path := program.Path()
		if previous, ok := seen[path]; ok {
			return nil, utils.MakeError(ErrDuplicateProgram, "suite '%v': %v generated by both %+v and %+v", def.Name, path, previous, program.Descriptor)
		}
		seen[path] = program.Descriptor
	}

	return programs, nil
}

// dataBase loads the data section address (plus offset) into a register
func dataBase(def *Definition, reg string) []Line {
	return []Line{
		Instr("lui", reg, def.Data.Lui),
		Instr("addi", reg, reg, itoa(def.Data.Offset)),
	}
}

// sentinelInit zeroes both sentinel registers
func sentinelInit(def *Definition) []Line {
	return []Line{
		Li(def.Sentinels.Result, 0),
		Li(def.Sentinels.Flush, 0),
	}
}

// flushed is an instruction that must be squashed by the preceding control transfer
func flushed(def *Definition, value int) Line {
	line := Li(def.Sentinels.Flush, value)
	line.Instruction.Comment = "Should be flushed"
	return line
}

// passFail sets the result sentinel depending on the path taken after a
// branch. The fall-through path records fallthroughCode, the target records
// targetCode.
func passFail(def *Definition, target string, fallthroughCode int, targetCode int) []Line {
	return []Line{
		Li(def.Sentinels.Result, fallthroughCode),
		Instr("jal", Zero, EndLabel),
		Label(target),
		Li(def.Sentinels.Result, targetCode),
	}
}
