package vm

import "fmt"

// ---------------------------------------------------------------------------
// Operand resolution
// ---------------------------------------------------------------------------

// deref resolves a pointer to a primitive heap object into the inline value
// it boxes. Pointers to arrays and objects are returned unchanged.
func (vm *VM) deref(v Value) (Value, error) {
	if v.Kind != KindHeapPointer {
		return v, nil
	}
	obj, err := vm.heap.Get(v.Ref)
	if err != nil {
		return Value{}, err
	}
	if p, ok := obj.Primitive(); ok {
		return p, nil
	}
	return v, nil
}

// TypeName names a value's type, looking through heap pointers. A pointer
// whose target no longer exists is "unknown".
func (vm *VM) TypeName(v Value) string {
	if v.Kind != KindHeapPointer {
		return v.TypeName()
	}
	obj, err := vm.heap.Get(v.Ref)
	if err != nil {
		return "unknown"
	}
	return obj.TypeName()
}

var arithVerb = map[Opcode]string{
	OpAdd: "add",
	OpSub: "subtract",
	OpMul: "multiply",
	OpDiv: "divide",
}

func (vm *VM) arith(op Opcode, a, b Value) (Value, error) {
	x, err := vm.deref(a)
	if err != nil {
		return Value{}, err
	}
	y, err := vm.deref(b)
	if err != nil {
		return Value{}, err
	}

	if x.Kind == KindNumber && y.Kind == KindNumber {
		switch op {
		case OpAdd:
			return NumberValue(x.Num + y.Num), nil
		case OpSub:
			return NumberValue(x.Num - y.Num), nil
		case OpMul:
			return NumberValue(x.Num * y.Num), nil
		case OpDiv:
			if y.Num == 0 {
				return Value{}, ErrDivisionByZero
			}
			return NumberValue(x.Num / y.Num), nil
		}
	}
	if op == OpAdd && x.Kind == KindString && y.Kind == KindString {
		return StringValue(x.Str + y.Str), nil
	}
	return Value{}, typeMismatch("cannot %s %s and %s", arithVerb[op], vm.TypeName(a), vm.TypeName(b))
}

// equal implements Equal. With NarrowEquality only number and string
// pairs can compare equal.
func (vm *VM) equal(a, b Value) (bool, error) {
	x, err := vm.deref(a)
	if err != nil {
		return false, err
	}
	y, err := vm.deref(b)
	if err != nil {
		return false, err
	}

	if vm.config.Legacy.NarrowEquality {
		switch {
		case x.Kind == KindNumber && y.Kind == KindNumber:
			return x.Num == y.Num, nil
		case x.Kind == KindString && y.Kind == KindString:
			return x.Str == y.Str, nil
		}
		return false, nil
	}
	return x.Equal(y), nil
}

func (vm *VM) compare(op Opcode, a, b Value) (bool, error) {
	x, err := vm.deref(a)
	if err != nil {
		return false, err
	}
	y, err := vm.deref(b)
	if err != nil {
		return false, err
	}
	if x.Kind != KindNumber || y.Kind != KindNumber {
		return false, typeMismatch("cannot compare %s and %s", vm.TypeName(a), vm.TypeName(b))
	}
	if op == OpLess {
		return x.Num < y.Num, nil
	}
	return x.Num > y.Num, nil
}

// boolean requires v to be a boolean; format names the offending type.
func (vm *VM) boolean(v Value, format string) (bool, error) {
	x, err := vm.deref(v)
	if err != nil {
		return false, err
	}
	if x.Kind != KindBoolean {
		return false, typeMismatch(format, vm.TypeName(v))
	}
	return x.Bool, nil
}

// ---------------------------------------------------------------------------
// Formatting
// ---------------------------------------------------------------------------

// Format renders a value for display, following heap pointers. Nested
// strings are quoted.
func (vm *VM) Format(v Value) string {
	return vm.format(v, false, 0)
}

const maxFormatDepth = 16

func (vm *VM) format(v Value, quote bool, depth int) string {
	if v.Kind != KindHeapPointer {
		if quote {
			return v.Repr()
		}
		return v.String()
	}
	obj, err := vm.heap.Get(v.Ref)
	if err != nil {
		return "<dangling>"
	}
	if depth >= maxFormatDepth {
		return "<" + obj.TypeName() + ">"
	}
	if p, ok := obj.Primitive(); ok {
		return vm.format(p, quote, depth)
	}
	if obj.Kind == ObjArray {
		s := "["
		for i, e := range obj.Elements {
			if i > 0 {
				s += ", "
			}
			s += vm.format(e, true, depth+1)
		}
		return s + "]"
	}
	s := "{"
	for i, k := range sortedKeys(obj.Fields) {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s: %s", k, vm.format(obj.Fields[k], true, depth+1))
	}
	return s + "}"
}
