// Package snapshot loads simulator state dumps and compares them for
// correctness.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Word is a register or memory value. Dumps may print values either as
// unsigned or as signed two's complement integers; both decode to the same
// 64-bit pattern.
type Word uint64

func (w *Word) UnmarshalJSON(data []byte) error {
	text := string(bytes.Trim(data, `"`))
	negative := strings.HasPrefix(text, "-")

	u, err := parseUnsigned(strings.TrimPrefix(text, "-"))
	if err != nil || (negative && u > 1<<63) {
		return fmt.Errorf("invalid word value %s", data)
	}

	if negative {
		u = -u
	}
	*w = Word(u)
	return nil
}

// parseUnsigned reads a decimal or 0x prefixed hexadecimal number. Leading
// zeros do not select octal.
func parseUnsigned(text string) (uint64, error) {
	if len(text) > 2 && (text[:2] == "0x" || text[:2] == "0X") {
		return strconv.ParseUint(text[2:], 16, 64)
	}
	return strconv.ParseUint(text, 10, 64)
}

func (w Word) String() string {
	return fmt.Sprintf("%d (0x%x)", uint64(w), uint64(w))
}

// Metric is a performance counter. It is decoded leniently since it never
// takes part in comparisons.
type Metric float64

func (m *Metric) UnmarshalJSON(data []byte) error {
	if f, err := strconv.ParseFloat(string(bytes.Trim(data, `"`)), 64); err == nil {
		*m = Metric(f)
	} else {
		*m = Metric(math.NaN())
	}

	return nil
}

// VMState holds the scalar machine state. Pointers distinguish missing fields.
type VMState struct {
	ProgramCounter      *Word `json:"program_counter"`
	InstructionsRetired *Word `json:"instructions_retired"`

	CycleS *Metric `json:"cycle_s,omitempty"`
	CPI    *Metric `json:"cpi,omitempty"`
	IPC    *Metric `json:"ipc,omitempty"`
}

// State is the final machine state dumped by a simulator
type State struct {
	VM        VMState         `json:"vm_state"`
	Registers map[string]Word `json:"registers"`
	// Sparse memory contents keyed by address
	Memory map[string]Word `json:"memory_dump"`
}

// Parse decodes a state dump. Unknown fields are ignored.
func Parse(r io.Reader) (*State, error) {
	state := &State{}

	if err := json.NewDecoder(r).Decode(state); err != nil {
		return nil, fmt.Errorf("failed to decode state snapshot: %w", err)
	}

	return state, nil
}

// Load reads a state dump from a file
func Load(path string) (*State, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state snapshot: %w", err)
	}
	defer file.Close()

	state, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return state, nil
}
