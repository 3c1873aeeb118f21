package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents a single VM instruction kind.
type Opcode byte

// Variables and calls
const (
	OpStoreVar  Opcode = 0x01 // pop value, bind (depth, slot) in the top frame
	OpLoadVar   Opcode = 0x02 // push the value bound at (depth, slot)
	OpLoadArg   Opcode = 0x03 // pop n arguments into slots 0..n-1
	OpCall      Opcode = 0x04 // call function table entry
	OpReturn    Opcode = 0x05 // pop frame and return address
	OpLoadConst Opcode = 0x06 // push constant pool entry
)

// Arithmetic and comparison
const (
	OpAdd         Opcode = 0x10
	OpSub         Opcode = 0x11
	OpDiv         Opcode = 0x12
	OpMul         Opcode = 0x13
	OpEqual       Opcode = 0x14
	OpLess        Opcode = 0x15
	OpGreater     Opcode = 0x16
	OpNot         Opcode = 0x17
	OpCreateArray Opcode = 0x18 // pop n values, push pointer to a new array
)

// Control flow
const (
	OpJump        Opcode = 0x20
	OpJumpIfFalse Opcode = 0x21 // pop condition
	OpJumpIfTrue  Opcode = 0x22 // pop condition
)

// Stack operations
const (
	OpPop  Opcode = 0x30
	OpPush Opcode = 0x31 // push inline value
	OpDup  Opcode = 0x32
	OpHalt Opcode = 0x33
)

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name        string // human-readable name
	Operands    int    // number of integer operands (A, B)
	StackEffect int    // net effect on stack (-99 = depends on operand)
}

const variableEffect = -99

var opcodeTable = map[Opcode]OpcodeInfo{
	OpStoreVar:  {"STORE_VAR", 2, -1},
	OpLoadVar:   {"LOAD_VAR", 2, 1},
	OpLoadArg:   {"LOAD_ARG", 1, variableEffect},
	OpCall:      {"CALL", 1, 0},
	OpReturn:    {"RETURN", 0, 0},
	OpLoadConst: {"LOAD_CONST", 1, 1},

	OpAdd:         {"ADD", 0, -1},
	OpSub:         {"SUB", 0, -1},
	OpDiv:         {"DIV", 0, -1},
	OpMul:         {"MUL", 0, -1},
	OpEqual:       {"EQUAL", 0, -1},
	OpLess:        {"LESS", 0, -1},
	OpGreater:     {"GREATER", 0, -1},
	OpNot:         {"NOT", 0, 0},
	OpCreateArray: {"CREATE_ARRAY", 1, variableEffect},

	OpJump:        {"JUMP", 1, 0},
	OpJumpIfFalse: {"JUMP_IF_FALSE", 1, -1},
	OpJumpIfTrue:  {"JUMP_IF_TRUE", 1, -1},

	OpPop:  {"POP", 0, -1},
	OpPush: {"PUSH", 0, 1},
	OpDup:  {"DUP", 0, 1},
	OpHalt: {"HALT", 0, 0},
}

// Info returns metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// Valid reports whether op is a known opcode.
func (op Opcode) Valid() bool {
	_, ok := opcodeTable[op]
	return ok
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Info().Name
}

// IsJump reports whether the opcode carries a jump target in A.
func (op Opcode) IsJump() bool {
	return op == OpJump || op == OpJumpIfFalse || op == OpJumpIfTrue
}

// ---------------------------------------------------------------------------
// Instruction
// ---------------------------------------------------------------------------

// Instruction is one decoded VM instruction. Operand meaning depends on Op:
//
//	LoadVar/StoreVar  A = depth, B = slot
//	LoadConst         A = constant index
//	LoadArg           A = argument count
//	CreateArray       A = element count
//	Call              A = function table index
//	Jump*             A = absolute target
//	Push              Value
//
// Name is a debug label (variable or function name) and never affects
// execution.
type Instruction struct {
	Op    Opcode
	A     int
	B     int
	Value Value
	Name  string
}

// StoreVar builds a StoreVar instruction.
func StoreVar(depth, slot int, name string) Instruction {
	return Instruction{Op: OpStoreVar, A: depth, B: slot, Name: name}
}

// LoadVar builds a LoadVar instruction.
func LoadVar(depth, slot int, name string) Instruction {
	return Instruction{Op: OpLoadVar, A: depth, B: slot, Name: name}
}

// LoadArg builds a LoadArg instruction.
func LoadArg(n int) Instruction { return Instruction{Op: OpLoadArg, A: n} }

// LoadConst builds a LoadConst instruction.
func LoadConst(idx int) Instruction { return Instruction{Op: OpLoadConst, A: idx} }

// Call builds a Call instruction.
func Call(funcIdx int, name string) Instruction {
	return Instruction{Op: OpCall, A: funcIdx, Name: name}
}

// Push builds a Push instruction carrying an inline value.
func Push(v Value) Instruction { return Instruction{Op: OpPush, Value: v} }

// CreateArray builds a CreateArray instruction.
func CreateArray(n int) Instruction { return Instruction{Op: OpCreateArray, A: n} }

// Jump builds an unconditional jump.
func Jump(target int) Instruction { return Instruction{Op: OpJump, A: target} }

// JumpIfFalse builds a conditional jump taken on false.
func JumpIfFalse(target int) Instruction { return Instruction{Op: OpJumpIfFalse, A: target} }

// JumpIfTrue builds a conditional jump taken on true.
func JumpIfTrue(target int) Instruction { return Instruction{Op: OpJumpIfTrue, A: target} }

// Simple builds an instruction with no operands.
func Simple(op Opcode) Instruction { return Instruction{Op: op} }

// String renders the instruction in disassembly form.
func (in Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(in.Op.String())
	switch in.Op {
	case OpLoadVar, OpStoreVar:
		fmt.Fprintf(&sb, " %d %d", in.A, in.B)
	case OpPush:
		fmt.Fprintf(&sb, " %s", in.Value.Repr())
	default:
		if in.Op.Info().Operands > 0 {
			fmt.Fprintf(&sb, " %d", in.A)
		}
	}
	if in.Name != "" {
		fmt.Fprintf(&sb, " ; %s", in.Name)
	}
	return sb.String()
}
