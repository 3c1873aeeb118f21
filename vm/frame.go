package vm

// Frame is one activation: the variable slots of a function call (or of the
// top level, for frame 0). Slots grow on demand.
type Frame struct {
	Depth    int           // static scope depth the frame was created for
	Function *FunctionInfo // nil for the top-level frame
	slots    []Value
	bound    []bool
}

func newFrame(depth int, fn *FunctionInfo) *Frame {
	return &Frame{Depth: depth, Function: fn}
}

// Set binds slot to v.
func (f *Frame) Set(slot int, v Value) {
	for len(f.slots) <= slot {
		f.slots = append(f.slots, NullValue())
		f.bound = append(f.bound, false)
	}
	f.slots[slot] = v
	f.bound[slot] = true
}

// Get returns the value bound at slot.
func (f *Frame) Get(slot int) (Value, bool) {
	if slot < 0 || slot >= len(f.slots) || !f.bound[slot] {
		return Value{}, false
	}
	return f.slots[slot], true
}

// Len returns the number of allocated slots.
func (f *Frame) Len() int {
	return len(f.slots)
}

// Slots returns a copy of the frame's slots; unbound slots are null.
func (f *Frame) Slots() []Value {
	return append([]Value(nil), f.slots...)
}
