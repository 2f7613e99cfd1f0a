package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goldenDump = `{
  "vm_state": {
    "program_counter": 36,
    "instructions_retired": 9,
    "cycle_s": 13,
    "cpi": 1.44,
    "ipc": 0.69,
    "step_count": 9
  },
  "registers": {
    "x0": 0, "x1": 10, "x2": 20, "x3": 10, "x4": 268435584, "x5": 0, "x6": 0, "x7": 0,
    "x8": 0, "x9": 0, "x10": 0, "x11": 0, "x12": 0, "x13": 0, "x14": 0, "x15": 0,
    "x16": 0, "x17": 0, "x18": 0, "x19": 0, "x20": 0, "x21": 0, "x22": 0, "x23": 0,
    "x24": 0, "x25": 0, "x26": 0, "x27": 0, "x28": 0, "x29": 0, "x30": 1, "x31": 18446744073709551615
  },
  "memory_dump": {
    "0x10000080": 10,
    "0x10000084": 0
  }
}`

func parse(t *testing.T, text string) *State {
	t.Helper()

	state, err := Parse(strings.NewReader(text))
	require.NoError(t, err)
	return state
}

func word(v uint64) *Word {
	w := Word(v)
	return &w
}

func clone(s *State) *State {
	c := &State{VM: s.VM, Registers: map[string]Word{}, Memory: map[string]Word{}}
	for k, v := range s.Registers {
		c.Registers[k] = v
	}
	for k, v := range s.Memory {
		c.Memory[k] = v
	}
	return c
}

func TestParse(t *testing.T) {
	state := parse(t, goldenDump)

	assert.Equal(t, word(36), state.VM.ProgramCounter)
	assert.Equal(t, word(9), state.VM.InstructionsRetired)
	require.NotNil(t, state.VM.CPI)
	assert.InDelta(t, 1.44, float64(*state.VM.CPI), 1e-9)
	assert.Len(t, state.Registers, 32)
	assert.Equal(t, Word(^uint64(0)), state.Registers["x31"])
	assert.Equal(t, Word(10), state.Memory["0x10000080"])
}

func TestWord_SignedAndUnsigned(t *testing.T) {
	signed := parse(t, `{"registers": {"x1": -1, "x2": -2048}}`)
	unsigned := parse(t, `{"registers": {"x1": 18446744073709551615, "x2": 18446744073709549568}}`)

	assert.Equal(t, unsigned.Registers, signed.Registers)

	var w Word
	assert.Error(t, w.UnmarshalJSON([]byte(`1.5`)))
	assert.NoError(t, w.UnmarshalJSON([]byte(`"0x20"`)))
	assert.Equal(t, Word(32), w)

	// Leading zeros are decimal
	assert.NoError(t, w.UnmarshalJSON([]byte(`"0100"`)))
	assert.Equal(t, Word(100), w)
	assert.NoError(t, w.UnmarshalJSON([]byte(`"-0x10"`)))
	assert.Equal(t, Word(^uint64(15)), w)
	assert.NoError(t, w.UnmarshalJSON([]byte(`-9223372036854775808`)))
	assert.Equal(t, Word(1<<63), w)
	assert.Error(t, w.UnmarshalJSON([]byte(`-9223372036854775809`)))
	assert.Error(t, w.UnmarshalJSON([]byte(`"0o17"`)))
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"registers": [1, 2]}`))
	assert.Error(t, err)
}

func TestCompare_Reflexive(t *testing.T) {
	state := parse(t, goldenDump)

	result := Compare(state, state)
	assert.True(t, result.Match)
	assert.Empty(t, result.Diff.String())
	assert.NoError(t, result.Err())
}

func TestCompare_SingleRegister(t *testing.T) {
	ref := parse(t, goldenDump)
	dut := clone(ref)
	dut.Registers["x29"] = 1

	result := Compare(ref, dut)
	require.False(t, result.Match)

	expected := Diff{Registers: []FieldDiff{{Field: "x29", Expected: word(0), Actual: word(1)}}}
	if diff := cmp.Diff(expected, result.Diff); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}

	text := result.Diff.String()
	assert.Contains(t, text, "'x29': expected 0 (0x0), got 1 (0x1)")
	assert.Equal(t, 1, strings.Count(text, "'x"))
	assert.ErrorIs(t, result.Err(), ErrMismatch)
}

func TestCompare_MissingIsNotZero(t *testing.T) {
	ref := parse(t, goldenDump)
	dut := clone(ref)
	delete(dut.Registers, "x0")
	dut.VM.ProgramCounter = nil
	dut.Registers["pc_shadow"] = 4

	result := Compare(ref, dut)
	require.False(t, result.Match)

	require.Len(t, result.Diff.VM, 1)
	assert.Equal(t, "program_counter", result.Diff.VM[0].Field)
	assert.Nil(t, result.Diff.VM[0].Actual)

	fields := []string{}
	for _, field := range result.Diff.Registers {
		fields = append(fields, field.Field)
	}
	assert.Equal(t, []string{"x0", "pc_shadow"}, fields)
	assert.Contains(t, result.Diff.String(), "got <missing>")
}

func TestCompare_MemoryBounded(t *testing.T) {
	ref := parse(t, goldenDump)
	dut := clone(ref)

	for i := 0; i < 30; i++ {
		dut.Memory[fmt.Sprintf("0x%x", 0x20000000+4*i)] = Word(i + 1)
	}

	result := Compare(ref, dut)
	require.False(t, result.Match)
	assert.Len(t, result.Diff.Memory, MaxMemoryDiffs)
	assert.Equal(t, 10, result.Diff.MemoryOmitted)
	assert.Equal(t, "0x20000000", result.Diff.Memory[0].Field)
	assert.Nil(t, result.Diff.Memory[0].Expected)

	text := result.Diff.String()
	assert.Equal(t, MaxMemoryDiffs, strings.Count(text, "'0x"))
	assert.Contains(t, text, "... (10 more omitted)")
}

func TestCompare_MemoryNumericOrder(t *testing.T) {
	ref := &State{Memory: map[string]Word{"0x100": 1, "0x20": 1, "8": 1, "0100": 1, "bad": 1}}
	dut := &State{Memory: map[string]Word{}}

	result := Compare(ref, dut)

	fields := []string{}
	for _, field := range result.Diff.Memory {
		fields = append(fields, field.Field)
	}
	assert.Equal(t, []string{"8", "0x20", "0100", "0x100", "bad"}, fields)
}

func TestCompare_PerformanceIndependent(t *testing.T) {
	ref := parse(t, goldenDump)
	dut := parse(t, strings.NewReplacer(`"cycle_s": 13`, `"cycle_s": 42`, `"cpi": 1.44`, `"cpi": "nan"`, `"ipc": 0.69`, `"ipc": 0.2`).Replace(goldenDump))

	assert.NotEqual(t, *ref.VM.CycleS, *dut.VM.CycleS)

	result := Compare(ref, dut)
	assert.True(t, result.Match)
	assert.Empty(t, result.Diff.String())
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "golden.json")
	dut := filepath.Join(dir, "dut.json")

	require.NoError(t, os.WriteFile(golden, []byte(goldenDump), 0644))
	require.NoError(t, os.WriteFile(dut, []byte(strings.Replace(goldenDump, `"instructions_retired": 9`, `"instructions_retired": 8`, 1)), 0644))

	result, err := CompareFiles(golden, golden)
	require.NoError(t, err)
	assert.True(t, result.Match)

	result, err = CompareFiles(golden, dut)
	require.NoError(t, err)
	assert.False(t, result.Match)
	assert.Contains(t, result.Diff.String(), "'instructions_retired': expected 9 (0x9), got 8 (0x8)")

	_, err = CompareFiles(golden, filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
