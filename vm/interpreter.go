package vm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// VM: the fetch-execute loop
// ---------------------------------------------------------------------------

// VM executes one Artifact. A VM is single-threaded and owns its stack,
// frames, heap and artifact exclusively.
type VM struct {
	ID uuid.UUID

	config   Config
	artifact *Artifact

	stack   []Value
	frames  []*Frame
	returns []int
	pc      int
	halted  bool

	heap    *Heap
	history *weightHistory
	gcStats GCStats

	log commonlog.Logger
}

// New creates a VM for art. Zero fields of cfg take their defaults.
func New(art *Artifact, cfg Config) *VM {
	cfg = cfg.normalized()
	vm := &VM{
		ID:       uuid.New(),
		config:   cfg,
		artifact: art,
		frames:   []*Frame{newFrame(0, nil)},
		heap:     NewHeap(),
		history:  newWeightHistory(cfg.GCHistorySize),
		log:      commonlog.GetLogger("mirrow.vm"),
	}
	return vm
}

// Execute runs art on a fresh VM and returns it for inspection. The VM is
// returned even when execution fails.
func Execute(ctx context.Context, art *Artifact, cfg Config) (*VM, error) {
	vm := New(art, cfg)
	return vm, vm.Run(ctx)
}

// Config returns the effective configuration.
func (vm *VM) Config() Config { return vm.config }

// Artifact returns the program being executed.
func (vm *VM) Artifact() *Artifact { return vm.artifact }

// Heap returns the VM's heap.
func (vm *VM) Heap() *Heap { return vm.heap }

// PC returns the current program counter.
func (vm *VM) PC() int { return vm.pc }

// Halted reports whether execution stopped at a Halt instruction.
func (vm *VM) Halted() bool { return vm.halted }

// Stack returns a copy of the operand stack, bottom first.
func (vm *VM) Stack() []Value { return append([]Value(nil), vm.stack...) }

// Frames returns the frame stack, outermost first.
func (vm *VM) Frames() []*Frame { return vm.frames }

// Result returns the value on top of the operand stack.
func (vm *VM) Result() (Value, bool) {
	if len(vm.stack) == 0 {
		return Value{}, false
	}
	return vm.stack[len(vm.stack)-1], true
}

// Global returns the value of a top-level binding by name.
func (vm *VM) Global(name string) (Value, bool) {
	slot, ok := vm.artifact.Globals[name]
	if !ok {
		return Value{}, false
	}
	return vm.frames[0].Get(slot)
}

// Run executes from the current pc until Halt, the end of the instruction
// stream, or the first error. Errors are returned as *RuntimeError.
func (vm *VM) Run(ctx context.Context) error {
	code := vm.artifact.Instructions
	vm.log.Debugf("vm %s: running %d instructions", vm.ID, len(code))

	for vm.pc < len(code) {
		if (vm.pc+1)%vm.config.GCCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return vm.fail(err)
			}
		}
		vm.maybeCollect()

		in := code[vm.pc]
		if in.Op == OpHalt {
			vm.halted = true
			break
		}
		next, err := vm.step(in)
		if err != nil {
			return vm.fail(err)
		}
		vm.pc = next
	}
	return nil
}

func (vm *VM) fail(err error) error {
	return &RuntimeError{Line: vm.artifact.LineAt(vm.pc), PC: vm.pc, Err: err}
}

// ---------------------------------------------------------------------------
// Stack helpers
// ---------------------------------------------------------------------------

func (vm *VM) push(v Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop(op Opcode) (Value, error) {
	if len(vm.stack) == 0 {
		return Value{}, underflow(op)
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

// pop2 pops the right operand, then the left.
func (vm *VM) pop2(op Opcode) (a, b Value, err error) {
	if len(vm.stack) < 2 {
		return Value{}, Value{}, underflow(op)
	}
	b = vm.stack[len(vm.stack)-1]
	a = vm.stack[len(vm.stack)-2]
	vm.stack = vm.stack[:len(vm.stack)-2]
	return a, b, nil
}

// popN pops n values and returns them in push order.
func (vm *VM) popN(op Opcode, n int) ([]Value, error) {
	if n < 0 || len(vm.stack) < n {
		return nil, underflow(op)
	}
	vals := make([]Value, n)
	copy(vals, vm.stack[len(vm.stack)-n:])
	vm.stack = vm.stack[:len(vm.stack)-n]
	return vals, nil
}

func (vm *VM) topFrame() *Frame {
	return vm.frames[len(vm.frames)-1]
}

// ---------------------------------------------------------------------------
// Instruction execution
// ---------------------------------------------------------------------------

// step executes one instruction and returns the next pc.
func (vm *VM) step(in Instruction) (int, error) {
	next := vm.pc + 1

	switch in.Op {
	case OpPush:
		vm.push(in.Value)

	case OpLoadConst:
		if in.A < 0 || in.A >= len(vm.artifact.Constants) {
			return 0, fmt.Errorf("%w: %d", ErrInvalidConstantIndex, in.A)
		}
		vm.push(vm.artifact.Constants[in.A])

	case OpStoreVar:
		v, err := vm.pop(in.Op)
		if err != nil {
			return 0, err
		}
		if v.Kind == KindString && len(v.Str) > vm.config.MaxInlineString {
			v = PointerValue(vm.heap.Alloc(NewStringObject(v.Str)))
		}
		vm.topFrame().Set(in.B, v)

	case OpLoadVar:
		v, err := vm.loadVar(in)
		if err != nil {
			return 0, err
		}
		vm.push(v)

	case OpLoadArg:
		// Arguments were pushed in reverse, so the i-th pop is parameter i.
		frame := vm.topFrame()
		for i := 0; i < in.A; i++ {
			v, err := vm.pop(in.Op)
			if err != nil {
				return 0, err
			}
			frame.Set(i, v)
		}

	case OpCall:
		if in.A < 0 || in.A >= len(vm.artifact.Functions) {
			return 0, fmt.Errorf("%w: %d", ErrInvalidFunctionIndex, in.A)
		}
		if len(vm.frames) >= vm.config.MaxFrames {
			return 0, fmt.Errorf("%w: call depth exceeds %d", ErrStackOverflow, vm.config.MaxFrames)
		}
		fn := &vm.artifact.Functions[in.A]
		vm.returns = append(vm.returns, next)
		vm.frames = append(vm.frames, newFrame(fn.Depth, fn))
		next = fn.Entry

	case OpReturn:
		if len(vm.returns) == 0 {
			return 0, ErrMissingReturnAddress
		}
		if len(vm.frames) <= 1 {
			return 0, ErrFrameUnderflow
		}
		vm.frames = vm.frames[:len(vm.frames)-1]
		next = vm.returns[len(vm.returns)-1]
		vm.returns = vm.returns[:len(vm.returns)-1]

	case OpAdd, OpSub, OpMul, OpDiv:
		a, b, err := vm.pop2(in.Op)
		if err != nil {
			return 0, err
		}
		r, err := vm.arith(in.Op, a, b)
		if err != nil {
			return 0, err
		}
		vm.push(r)

	case OpEqual:
		a, b, err := vm.pop2(in.Op)
		if err != nil {
			return 0, err
		}
		eq, err := vm.equal(a, b)
		if err != nil {
			return 0, err
		}
		vm.push(BoolValue(eq))

	case OpLess, OpGreater:
		a, b, err := vm.pop2(in.Op)
		if err != nil {
			return 0, err
		}
		r, err := vm.compare(in.Op, a, b)
		if err != nil {
			return 0, err
		}
		vm.push(BoolValue(r))

	case OpNot:
		v, err := vm.pop(in.Op)
		if err != nil {
			return 0, err
		}
		b, err := vm.boolean(v, "cannot negate %s")
		if err != nil {
			return 0, err
		}
		vm.push(BoolValue(!b))

	case OpCreateArray:
		elems, err := vm.popN(in.Op, in.A)
		if err != nil {
			return 0, err
		}
		if vm.config.Legacy.FlattenArrays {
			for i, e := range elems {
				if e.Kind == KindHeapPointer || e.Kind == KindFunction {
					elems[i] = NullValue()
				}
			}
		}
		vm.push(PointerValue(vm.heap.Alloc(NewArrayObject(elems))))

	case OpJump:
		if err := vm.checkTarget(in.A); err != nil {
			return 0, err
		}
		next = in.A

	case OpJumpIfFalse, OpJumpIfTrue:
		v, err := vm.pop(in.Op)
		if err != nil {
			return 0, err
		}
		b, err := vm.boolean(v, "condition must be boolean, got %s")
		if err != nil {
			return 0, err
		}
		if b == (in.Op == OpJumpIfTrue) {
			if err := vm.checkTarget(in.A); err != nil {
				return 0, err
			}
			next = in.A
		}

	case OpPop:
		if _, err := vm.pop(in.Op); err != nil {
			return 0, err
		}

	case OpDup:
		if len(vm.stack) == 0 {
			return 0, underflow(in.Op)
		}
		vm.push(vm.stack[len(vm.stack)-1])

	default:
		return 0, fmt.Errorf("%w: opcode 0x%02X", ErrInvalidInstruction, byte(in.Op))
	}

	return next, nil
}

func (vm *VM) checkTarget(target int) error {
	if target < 0 || target > len(vm.artifact.Instructions) {
		return fmt.Errorf("%w: %d", ErrInvalidJumpTarget, target)
	}
	return nil
}

// loadVar resolves a LoadVar instruction against the frame stack.
func (vm *VM) loadVar(in Instruction) (Value, error) {
	depth, slot := in.A, in.B

	if vm.config.Legacy.DynamicScoping {
		for i := len(vm.frames) - 1; i >= 0; i-- {
			if v, ok := vm.frames[i].Get(slot); ok {
				return v, nil
			}
		}
		return Value{}, vm.unbound(in)
	}

	var frame *Frame
	if depth == 0 {
		frame = vm.frames[0]
	} else {
		for i := len(vm.frames) - 1; i > 0; i-- {
			if vm.frames[i].Depth == depth {
				frame = vm.frames[i]
				break
			}
		}
	}
	if frame == nil {
		return Value{}, vm.unbound(in)
	}
	v, ok := frame.Get(slot)
	if !ok {
		return Value{}, vm.unbound(in)
	}
	return v, nil
}

func (vm *VM) unbound(in Instruction) error {
	if in.Name != "" {
		return fmt.Errorf("%w: %s (depth %d, slot %d)", ErrUnboundVariable, in.Name, in.A, in.B)
	}
	return fmt.Errorf("%w: depth %d, slot %d", ErrUnboundVariable, in.A, in.B)
}
