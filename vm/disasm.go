package vm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the artifact.
func (a *Artifact) Disassemble() string {
	return a.DisassembleWithName("")
}

// DisassembleWithName returns a listing with a name header.
func (a *Artifact) DisassembleWithName(name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}

	if len(a.Constants) > 0 {
		sb.WriteString("; Constants:\n")
		for i, c := range a.Constants {
			display := c.Repr()
			if len(display) > 40 {
				display = display[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf(";   [%3d] %s\n", i, display))
		}
		sb.WriteString("\n")
	}

	if len(a.Functions) > 0 {
		sb.WriteString("; Functions:\n")
		for i, f := range a.Functions {
			sb.WriteString(fmt.Sprintf(";   [%3d] %s(%s) entry=%04d depth=%d\n",
				i, f.Name, strings.Join(f.Params, ", "), f.Entry, f.Depth))
		}
		sb.WriteString("\n")
	}

	entries := make(map[int]string)
	for _, f := range a.Functions {
		entries[f.Entry] = f.Name
	}

	sb.WriteString("; Code:\n")
	for pc, in := range a.Instructions {
		if name, ok := entries[pc]; ok {
			sb.WriteString(fmt.Sprintf("%s:\n", name))
		}
		text := a.describe(in)
		if line := a.LineAt(pc); line > 0 {
			sb.WriteString(fmt.Sprintf("%04d  %-30s ; line %d\n", pc, text, line))
		} else {
			sb.WriteString(fmt.Sprintf("%04d  %s\n", pc, text))
		}
	}

	return sb.String()
}

// describe renders an instruction, resolving constant and function
// operands for readability.
func (a *Artifact) describe(in Instruction) string {
	switch in.Op {
	case OpLoadConst:
		if in.A >= 0 && in.A < len(a.Constants) {
			return fmt.Sprintf("LOAD_CONST %d (%s)", in.A, a.Constants[in.A].Repr())
		}
	case OpCall:
		if in.A >= 0 && in.A < len(a.Functions) {
			return fmt.Sprintf("CALL %d (%s)", in.A, a.Functions[in.A].Name)
		}
	}
	return in.String()
}
