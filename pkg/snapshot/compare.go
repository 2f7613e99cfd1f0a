package snapshot

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Manu343726/hazardbench/pkg/utils"
)

var ErrMismatch = errors.New("state mismatch")

// Memory mismatches listed before the remaining ones are elided
const MaxMemoryDiffs = 20

// Number of architectural registers, always compared
const RegisterCount = 32

// FieldDiff is a single differing field. Nil values are missing from the snapshot.
type FieldDiff struct {
	Field    string
	Expected *Word
	Actual   *Word
}

func formatValue(w *Word) string {
	if w == nil {
		return "<missing>"
	}
	return w.String()
}

func (d FieldDiff) String() string {
	return fmt.Sprintf("'%s': expected %s, got %s", d.Field, formatValue(d.Expected), formatValue(d.Actual))
}

// Diff lists every authoritative field that differs between two snapshots
type Diff struct {
	VM        []FieldDiff
	Registers []FieldDiff
	// First MaxMemoryDiffs memory mismatches by ascending address
	Memory []FieldDiff
	// Memory mismatches not listed
	MemoryOmitted int
}

func (d Diff) Empty() bool {
	return len(d.VM) == 0 && len(d.Registers) == 0 && len(d.Memory) == 0 && d.MemoryOmitted == 0
}

// String renders the diff as an indented report, empty if there are no differences
func (d Diff) String() string {
	if d.Empty() {
		return ""
	}

	var builder strings.Builder
	builder.WriteString("State mismatch:\n")

	for _, field := range d.VM {
		fmt.Fprintf(&builder, "  - %s\n", field)
	}

	if len(d.Registers) > 0 {
		builder.WriteString("  - Register state mismatch:\n")
		for _, field := range d.Registers {
			fmt.Fprintf(&builder, "    - %s\n", field)
		}
	}

	if len(d.Memory) > 0 {
		builder.WriteString("  - Memory state mismatch:\n")
		for _, field := range d.Memory {
			fmt.Fprintf(&builder, "    - %s\n", field)
		}
		if d.MemoryOmitted > 0 {
			fmt.Fprintf(&builder, "    - ... (%d more omitted)\n", d.MemoryOmitted)
		}
	}

	return builder.String()
}

// Result of comparing a reference snapshot with the device under test
type Result struct {
	Match bool
	Diff  Diff
}

// Err returns an ErrMismatch error carrying the diff, nil on match
func (r Result) Err() error {
	if r.Match {
		return nil
	}
	return utils.MakeError(ErrMismatch, "\n%s", r.Diff)
}

func lookup(m map[string]Word, key string) *Word {
	if value, ok := m[key]; ok {
		return &value
	}
	return nil
}

func equal(a, b *Word) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Compare checks program counter, retired instruction count, registers and
// memory. Performance counters are ignored.
func Compare(ref, dut *State) Result {
	var diff Diff

	vmFields := []FieldDiff{
		{"program_counter", ref.VM.ProgramCounter, dut.VM.ProgramCounter},
		{"instructions_retired", ref.VM.InstructionsRetired, dut.VM.InstructionsRetired},
	}
	for _, field := range vmFields {
		if !equal(field.Expected, field.Actual) {
			diff.VM = append(diff.VM, field)
		}
	}

	for _, reg := range registerOrder(ref.Registers, dut.Registers) {
		expected, actual := lookup(ref.Registers, reg), lookup(dut.Registers, reg)
		if !equal(expected, actual) {
			diff.Registers = append(diff.Registers, FieldDiff{reg, expected, actual})
		}
	}

	for _, addr := range addressOrder(ref.Memory, dut.Memory) {
		expected, actual := lookup(ref.Memory, addr), lookup(dut.Memory, addr)
		if equal(expected, actual) {
			continue
		}

		if len(diff.Memory) < MaxMemoryDiffs {
			diff.Memory = append(diff.Memory, FieldDiff{addr, expected, actual})
		} else {
			diff.MemoryOmitted++
		}
	}

	return Result{Match: diff.Empty(), Diff: diff}
}

// CompareFiles loads and compares two snapshot files
func CompareFiles(refPath, dutPath string) (Result, error) {
	ref, err := Load(refPath)
	if err != nil {
		return Result{}, err
	}

	dut, err := Load(dutPath)
	if err != nil {
		return Result{}, err
	}

	return Compare(ref, dut), nil
}

// registerOrder returns x0..x31 followed by any other register name present
// in either snapshot, sorted
func registerOrder(maps ...map[string]Word) []string {
	order := make([]string, 0, RegisterCount)
	architectural := make(map[string]bool, RegisterCount)

	for i := 0; i < RegisterCount; i++ {
		name := "x" + strconv.Itoa(i)
		order = append(order, name)
		architectural[name] = true
	}

	for _, name := range utils.UnionKeys(maps...) {
		if !architectural[name] {
			order = append(order, name)
		}
	}

	return order
}

// addressOrder returns the union of addresses sorted numerically, reading keys
// as decimal unless 0x prefixed. Keys that are not numbers sort last,
// lexicographically.
func addressOrder(maps ...map[string]Word) []string {
	addrs := utils.UnionKeys(maps...)

	parsed := make(map[string]uint64, len(addrs))
	for _, addr := range addrs {
		if value, err := parseUnsigned(addr); err == nil {
			parsed[addr] = value
		}
	}

	sort.SliceStable(addrs, func(i, j int) bool {
		a, aok := parsed[addrs[i]]
		b, bok := parsed[addrs[j]]

		switch {
		case aok && bok:
			return a < b
		case aok != bok:
			return aok
		default:
			return addrs[i] < addrs[j]
		}
	})

	return addrs
}
