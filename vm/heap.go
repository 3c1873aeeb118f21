package vm

import "fmt"

// ---------------------------------------------------------------------------
// Heap objects
// ---------------------------------------------------------------------------

// ObjectKind discriminates heap object variants.
type ObjectKind uint8

const (
	ObjNull ObjectKind = iota
	ObjNumber
	ObjString
	ObjBoolean
	ObjArray
	ObjObject
)

// HeapObject is a value that lives in the heap arena.
type HeapObject struct {
	Kind     ObjectKind
	Num      float64
	Str      string
	Bool     bool
	Elements []Value
	Fields   map[string]Value
}

// NewArrayObject returns an array object holding elems.
func NewArrayObject(elems []Value) *HeapObject {
	return &HeapObject{Kind: ObjArray, Elements: elems}
}

// NewStringObject returns a string object.
func NewStringObject(s string) *HeapObject {
	return &HeapObject{Kind: ObjString, Str: s}
}

// NewObject returns a record object with the given fields.
func NewObject(fields map[string]Value) *HeapObject {
	if fields == nil {
		fields = make(map[string]Value)
	}
	return &HeapObject{Kind: ObjObject, Fields: fields}
}

// BoxValue converts a primitive value to its heap object form. Pointers
// and functions have no boxed form and become null objects.
func BoxValue(v Value) *HeapObject {
	switch v.Kind {
	case KindNumber:
		return &HeapObject{Kind: ObjNumber, Num: v.Num}
	case KindString:
		return &HeapObject{Kind: ObjString, Str: v.Str}
	case KindBoolean:
		return &HeapObject{Kind: ObjBoolean, Bool: v.Bool}
	default:
		return &HeapObject{Kind: ObjNull}
	}
}

// TypeName returns the object's type name.
func (o *HeapObject) TypeName() string {
	switch o.Kind {
	case ObjNumber:
		return "number"
	case ObjString:
		return "string"
	case ObjBoolean:
		return "boolean"
	case ObjArray:
		return "array"
	case ObjObject:
		return "object"
	default:
		return "null"
	}
}

// Primitive returns the inline value of a number, string, boolean or null
// object. ok is false for arrays and objects.
func (o *HeapObject) Primitive() (v Value, ok bool) {
	switch o.Kind {
	case ObjNumber:
		return NumberValue(o.Num), true
	case ObjString:
		return StringValue(o.Str), true
	case ObjBoolean:
		return BoolValue(o.Bool), true
	case ObjNull:
		return NullValue(), true
	}
	return Value{}, false
}

// Weight returns the object's contribution to the heap weight.
func (o *HeapObject) Weight(w Weights) int {
	switch o.Kind {
	case ObjArray:
		return w.ArrayBase + len(o.Elements)*w.ArrayElement
	case ObjString:
		return w.StringBase + len(o.Str)
	case ObjObject:
		return w.ObjectBase + len(o.Fields)*w.ObjectEntry
	default:
		return w.Other
	}
}

// eachChild calls fn with a pointer to every value the object holds.
func (o *HeapObject) eachChild(fn func(*Value)) {
	for i := range o.Elements {
		fn(&o.Elements[i])
	}
	for k, v := range o.Fields {
		fn(&v)
		o.Fields[k] = v
	}
}

// ---------------------------------------------------------------------------
// Heap arena
// ---------------------------------------------------------------------------

// Heap is an arena of objects addressed by index. Each collection bumps the
// generation; handles issued before it are valid only if the collector
// rewrote them.
type Heap struct {
	objects []*HeapObject
	gen     uint32
}

// NewHeap creates an empty heap.
func NewHeap() *Heap {
	return &Heap{}
}

// Alloc appends obj and returns a handle to it.
func (h *Heap) Alloc(obj *HeapObject) HeapRef {
	h.objects = append(h.objects, obj)
	return HeapRef{Index: len(h.objects) - 1, Gen: h.gen}
}

// Get dereferences a handle.
func (h *Heap) Get(ref HeapRef) (*HeapObject, error) {
	if ref.Gen != h.gen || ref.Index < 0 || ref.Index >= len(h.objects) {
		return nil, fmt.Errorf("%w: %d:%d (heap generation %d, %d objects)",
			ErrDanglingPointer, ref.Index, ref.Gen, h.gen, len(h.objects))
	}
	return h.objects[ref.Index], nil
}

// Valid reports whether ref can be dereferenced.
func (h *Heap) Valid(ref HeapRef) bool {
	return ref.Gen == h.gen && ref.Index >= 0 && ref.Index < len(h.objects)
}

// Len returns the number of objects in the arena.
func (h *Heap) Len() int {
	return len(h.objects)
}

// Generation returns the current heap generation.
func (h *Heap) Generation() uint32 {
	return h.gen
}

// Objects returns the arena in index order. The slice must not be modified.
func (h *Heap) Objects() []*HeapObject {
	return h.objects
}

// Weight sums the weight of every object in the arena.
func (h *Heap) Weight(w Weights) int {
	total := 0
	for _, obj := range h.objects {
		total += obj.Weight(w)
	}
	return total
}
