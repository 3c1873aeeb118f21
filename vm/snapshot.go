package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Snapshot is a serializable copy of VM runtime state, written by
// `mirrow run -snapshot`. It captures data, not code.
type Snapshot struct {
	ID      string           `cbor:"1,keyasint"`
	PC      int              `cbor:"2,keyasint"`
	Halted  bool             `cbor:"3,keyasint"`
	Stack   []Value          `cbor:"4,keyasint,omitempty"`
	Frames  []FrameSnapshot  `cbor:"5,keyasint,omitempty"`
	Heap    []HeapObject     `cbor:"6,keyasint,omitempty"`
	HeapGen uint32           `cbor:"7,keyasint"`
	GC      GCStats          `cbor:"8,keyasint"`
	Globals map[string]Value `cbor:"9,keyasint,omitempty"`
}

// FrameSnapshot is one frame in a Snapshot. Unbound slots are omitted.
type FrameSnapshot struct {
	Depth    int           `cbor:"1,keyasint"`
	Function string        `cbor:"2,keyasint,omitempty"`
	Slots    map[int]Value `cbor:"3,keyasint,omitempty"`
}

var snapshotEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	snapshotEncMode = em
}

// Snapshot captures the VM's current state.
func (vm *VM) Snapshot() *Snapshot {
	s := &Snapshot{
		ID:      vm.ID.String(),
		PC:      vm.pc,
		Halted:  vm.halted,
		Stack:   vm.Stack(),
		HeapGen: vm.heap.Generation(),
		GC:      vm.GCStats(),
	}
	for _, f := range vm.frames {
		fs := FrameSnapshot{Depth: f.Depth, Slots: make(map[int]Value)}
		if f.Function != nil {
			fs.Function = f.Function.Name
		}
		for slot := range f.slots {
			if f.bound[slot] {
				fs.Slots[slot] = f.slots[slot]
			}
		}
		s.Frames = append(s.Frames, fs)
	}
	for _, obj := range vm.heap.Objects() {
		s.Heap = append(s.Heap, *obj)
	}
	if len(vm.artifact.Globals) > 0 {
		s.Globals = make(map[string]Value)
		for name := range vm.artifact.Globals {
			if v, ok := vm.Global(name); ok {
				s.Globals[name] = v
			}
		}
	}
	return s
}

// MarshalSnapshot serializes a Snapshot to canonical CBOR.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return snapshotEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes a Snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("vm: unmarshal snapshot: %w", err)
	}
	return &s, nil
}
