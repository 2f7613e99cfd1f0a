package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Manu343726/hazardbench/pkg/utils"
)

// Outcome classifies a tool invocation
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	// Non-zero exit, missing output or failure to start
	OutcomeToolFailure
	OutcomeTimeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeToolFailure:
		return "tool failure"
	case OutcomeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Time a killed process gets to release its output pipes
const waitDelay = 500 * time.Millisecond

// Result contains the result of a tool invocation
type Result struct {
	// Command is the command line that was executed
	Command string

	// ExitCode is the process exit code, -1 if it did not exit normally
	ExitCode int

	// Stdout is the standard output from the tool
	Stdout string

	// Stderr is the standard error from the tool
	Stderr string

	Duration time.Duration
	Outcome  Outcome
}

// Output returns stderr, or stdout if the tool wrote nothing to stderr
func (r *Result) Output() string {
	if strings.TrimSpace(r.Stderr) != "" {
		return r.Stderr
	}
	return r.Stdout
}

// Run executes the tool with the given arguments, waiting at most timeout (no
// limit if zero). The returned error wraps ErrTimeout or ErrToolFailure and
// carries the captured output; the result is returned in both cases.
func (t *Tool) Run(ctx context.Context, timeout time.Duration, args ...string) (*Result, error) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, t.path, args...)
	cmd.WaitDelay = waitDelay

	result := &Result{
		Command:  fmt.Sprintf("%s %s", t.path, strings.Join(args, " ")),
		ExitCode: -1,
	}

	var stdoutBuf, stderrBuf strings.Builder
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	t.logger.Debug("running tool", "tool", t.name, "command", result.Command)

	start := time.Now()
	err := cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()

	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	switch {
	case err == nil:
		result.Outcome = OutcomeSuccess
		return result, nil
	case ctx.Err() != nil:
		result.Outcome = OutcomeToolFailure
		return result, fmt.Errorf("%s interrupted: %w", t.name, ctx.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.Outcome = OutcomeTimeout
		return result, utils.MakeError(ErrTimeout, "%s did not finish within %v\n%s", result.Command, timeout, result.Output())
	default:
		result.Outcome = OutcomeToolFailure
		return result, utils.MakeError(ErrToolFailure, "%s failed (exit code %d): %v\n%s", result.Command, result.ExitCode, err, result.Output())
	}
}

// expectOutput downgrades a successful run that did not produce its output file
func expectOutput(result *Result, output string) error {
	if _, err := os.Stat(output); err != nil {
		result.Outcome = OutcomeToolFailure
		return utils.MakeError(ErrToolFailure, "%s produced no output file %s\n%s", result.Command, output, result.Output())
	}

	return nil
}
