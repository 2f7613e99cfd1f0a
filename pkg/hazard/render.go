package hazard

import (
	"fmt"
	"io"
	"strings"
)

// Render writes the assembly text of a program. Output is fully determined by
// the program, so rendering the same program twice yields identical bytes.
func Render(w io.Writer, p Program) error {
	pw := &programWriter{w: w, p: p}
	return pw.write()
}

// RenderString renders a program into a string
func RenderString(p Program) (string, error) {
	var builder strings.Builder

	if err := Render(&builder, p); err != nil {
		return "", err
	}

	return builder.String(), nil
}

type programWriter struct {
	w io.Writer
	p Program
}

func (pw *programWriter) write() error {
	if _, err := fmt.Fprintln(pw.w, ".text"); err != nil {
		return err
	}
	if err := pw.writeLines(pw.p.Preamble); err != nil {
		return err
	}
	if _, err := fmt.Fprint(pw.w, "\n\t# Test Instructions\n"); err != nil {
		return err
	}
	if err := pw.writeLines(pw.p.Body); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(pw.w, "\n%s:\n", EndLabel); err != nil {
		return err
	}
	return nil
}

func (pw *programWriter) writeLines(lines []Line) error {
	for _, line := range lines {
		if err := pw.writeLine(line); err != nil {
			return err
		}
	}

	return nil
}

func (pw *programWriter) writeLine(line Line) error {
	if line.IsLabel() {
		_, err := fmt.Fprintf(pw.w, "%s:\n", line.Label)
		return err
	}

	text := line.Instruction.String()
	if line.Instruction.Comment != "" {
		text += "  # " + line.Instruction.Comment
	}

	_, err := fmt.Fprintf(pw.w, "\t%s\n", text)
	return err
}
