package vm

// FunctionInfo is one function table entry.
type FunctionInfo struct {
	Name   string
	Params []string
	Entry  int // instruction index of the first body instruction
	Depth  int // static scope depth of the function body
}

// Arity returns the number of declared parameters.
func (f FunctionInfo) Arity() int {
	return len(f.Params)
}

// Artifact is the compiled output consumed by the VM. Lines[i] is the source
// line of Instructions[i].
type Artifact struct {
	Constants    []Value
	Functions    []FunctionInfo
	Instructions []Instruction
	Lines        []int
	// Globals maps top-level binding names to their depth-0 slot.
	Globals map[string]int
}

// LineAt returns the source line of the instruction at pc, or 0.
func (a *Artifact) LineAt(pc int) int {
	if pc >= 0 && pc < len(a.Lines) {
		return a.Lines[pc]
	}
	return 0
}

// FunctionAt returns the function whose body contains pc, or nil for
// top-level code. Bodies nest, so the innermost match wins.
func (a *Artifact) FunctionAt(pc int) *FunctionInfo {
	var best *FunctionInfo
	for i := range a.Functions {
		f := &a.Functions[i]
		if pc < f.Entry || pc >= a.functionEnd(i) {
			continue
		}
		if best == nil || f.Entry > best.Entry {
			best = f
		}
	}
	return best
}

// functionEnd returns one past the function's Return: the target of the
// Jump that precedes its entry.
func (a *Artifact) functionEnd(i int) int {
	f := a.Functions[i]
	skip := f.Entry - 1
	if skip >= 0 && skip < len(a.Instructions) && a.Instructions[skip].Op == OpJump {
		return a.Instructions[skip].A
	}
	return f.Entry
}
