package vm

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Inspector renders a human-readable dump of VM state: operand stack,
// frames, heap and collector statistics.
type Inspector struct {
	vm *VM
}

// NewInspector creates an Inspector attached to the given VM.
func NewInspector(vm *VM) *Inspector {
	return &Inspector{vm: vm}
}

// Dump writes the full diagnostic dump to w.
func (i *Inspector) Dump(w io.Writer) error {
	_, err := io.WriteString(w, i.String())
	return err
}

// String returns the diagnostic dump.
func (i *Inspector) String() string {
	vm := i.vm
	var sb strings.Builder

	fmt.Fprintf(&sb, "== vm %s ==\n", vm.ID)
	fmt.Fprintf(&sb, "pc: %d (line %d) halted: %t\n", vm.pc, vm.artifact.LineAt(vm.pc), vm.halted)

	fmt.Fprintf(&sb, "stack (%d):\n", len(vm.stack))
	for idx, v := range vm.stack {
		fmt.Fprintf(&sb, "  [%d] %s\n", idx, i.describe(v))
	}

	fmt.Fprintf(&sb, "frames (%d):\n", len(vm.frames))
	for idx, f := range vm.frames {
		name := "<top>"
		if f.Function != nil {
			name = f.Function.Name
		}
		fmt.Fprintf(&sb, "  #%d depth %d %s\n", idx, f.Depth, name)
		for slot := range f.slots {
			if !f.bound[slot] {
				continue
			}
			fmt.Fprintf(&sb, "    slot %d = %s\n", slot, i.describe(f.slots[slot]))
		}
	}

	h := vm.heap
	fmt.Fprintf(&sb, "heap (gen %d, %d objects, weight %d):\n",
		h.Generation(), h.Len(), h.Weight(vm.config.Weights))
	for idx, obj := range h.Objects() {
		ref := PointerValue(HeapRef{Index: idx, Gen: h.Generation()})
		fmt.Fprintf(&sb, "  @%d %s %s\n", idx, obj.TypeName(), vm.format(ref, true, 0))
	}

	s := vm.GCStats()
	fmt.Fprintf(&sb, "gc: checks %d, collections %d, freed %d, history %v\n",
		s.Checks, s.Collections, s.Freed, s.History)
	return sb.String()
}

// describe renders a value with its resolved type.
func (i *Inspector) describe(v Value) string {
	if v.Kind == KindHeapPointer {
		return fmt.Sprintf("%s -> %s %s", v, i.vm.TypeName(v), i.vm.format(v, true, 0))
	}
	return v.Repr()
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
