package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Value: runtime values held on the stack and in frame slots
// ---------------------------------------------------------------------------

// ValueKind discriminates the variants of Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindNumber
	KindString
	KindBoolean
	KindFunction
	KindHeapPointer
)

// HeapRef is a non-owning handle to a heap object. Gen is the heap
// generation the handle was issued or last rewritten in; a handle whose
// generation does not match the heap's is stale.
type HeapRef struct {
	Index int
	Gen   uint32
}

// Value is a tagged runtime value. Only the fields matching Kind are
// meaningful.
type Value struct {
	Kind   ValueKind
	Num    float64
	Str    string
	Bool   bool
	Params []string // function parameter names
	Offset int      // function entry offset
	Ref    HeapRef
}

// NumberValue returns a number value.
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// StringValue returns an inline string value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// BoolValue returns a boolean value.
func BoolValue(b bool) Value { return Value{Kind: KindBoolean, Bool: b} }

// NullValue returns the null value.
func NullValue() Value { return Value{Kind: KindNull} }

// FunctionValue returns a function value with the given parameters and entry.
func FunctionValue(params []string, offset int) Value {
	return Value{Kind: KindFunction, Params: params, Offset: offset}
}

// PointerValue returns a heap pointer value.
func PointerValue(ref HeapRef) Value { return Value{Kind: KindHeapPointer, Ref: ref} }

func (v Value) IsNumber() bool  { return v.Kind == KindNumber }
func (v Value) IsString() bool  { return v.Kind == KindString }
func (v Value) IsBoolean() bool { return v.Kind == KindBoolean }
func (v Value) IsNull() bool    { return v.Kind == KindNull }
func (v Value) IsPointer() bool { return v.Kind == KindHeapPointer }

// TypeName returns the name of the value's kind without consulting the heap.
func (v Value) TypeName() string {
	switch v.Kind {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindFunction:
		return "function"
	case KindHeapPointer:
		return "heap pointer"
	default:
		return "null"
	}
}

// Equal reports structural equality. Numbers compare with ==, so NaN is
// never equal to itself.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num == o.Num
	case KindString:
		return v.Str == o.Str
	case KindBoolean:
		return v.Bool == o.Bool
	case KindFunction:
		if v.Offset != o.Offset || len(v.Params) != len(o.Params) {
			return false
		}
		for i := range v.Params {
			if v.Params[i] != o.Params[i] {
				return false
			}
		}
		return true
	case KindHeapPointer:
		return v.Ref == o.Ref
	default:
		return true
	}
}

// Repr renders a value the way it appears in disassembly and dumps; strings
// are quoted.
func (v Value) Repr() string {
	if v.Kind == KindString {
		return strconv.Quote(v.Str)
	}
	return v.String()
}

// String renders a value for display. Heap pointers are not dereferenced;
// use VM.Format for that.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return formatNumber(v.Num)
	case KindString:
		return v.Str
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	case KindFunction:
		return fmt.Sprintf("<func(%s) @%d>", strings.Join(v.Params, ", "), v.Offset)
	case KindHeapPointer:
		return fmt.Sprintf("<ptr %d:%d>", v.Ref.Index, v.Ref.Gen)
	default:
		return "null"
	}
}

// formatNumber prints whole numbers below 1e21 without an exponent.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
