package vm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeapAllocAndGet(t *testing.T) {
	h := NewHeap()
	a := h.Alloc(NewStringObject("a"))
	b := h.Alloc(NewArrayObject([]Value{NumberValue(1)}))

	require.Equal(t, 0, a.Index)
	require.Equal(t, 1, b.Index)
	require.Equal(t, 2, h.Len())

	obj, err := h.Get(b)
	require.NoError(t, err)
	require.Equal(t, ObjArray, obj.Kind)

	_, err = h.Get(HeapRef{Index: 5})
	require.ErrorIs(t, err, ErrDanglingPointer)
}

func TestHeapWeight(t *testing.T) {
	w := DefaultWeights()
	tests := []struct {
		obj  *HeapObject
		want int
	}{
		{NewArrayObject(make([]Value, 3)), 8 + 3*2},
		{NewStringObject("hello"), 4 + 5},
		{NewObject(map[string]Value{"a": NullValue(), "b": NullValue()}), 8 + 2*4},
		{BoxValue(NumberValue(1)), 1},
		{BoxValue(NullValue()), 1},
	}

	h := NewHeap()
	total := 0
	for _, tc := range tests {
		require.Equal(t, tc.want, tc.obj.Weight(w), tc.obj.TypeName())
		h.Alloc(tc.obj)
		total += tc.want
	}
	require.Equal(t, total, h.Weight(w))
}

func TestCollectRemapsSurvivors(t *testing.T) {
	h := NewHeap()
	h.Alloc(NewStringObject("dead0"))
	live := h.Alloc(NewArrayObject([]Value{NumberValue(1), NumberValue(2)}))
	h.Alloc(NewStringObject("dead2"))

	root := []Value{PointerValue(live), NumberValue(7)}
	res := h.Collect(root)

	require.Equal(t, 3, res.Before)
	require.Equal(t, 1, res.After)
	require.Equal(t, 2, res.Freed())
	require.Equal(t, map[int]int{1: 0}, res.Remap)
	require.Equal(t, uint32(1), h.Generation())

	// The root was rewritten in place.
	require.Equal(t, 0, root[0].Ref.Index)
	obj, err := h.Get(root[0].Ref)
	require.NoError(t, err)
	require.Equal(t, []Value{NumberValue(1), NumberValue(2)}, obj.Elements)

	// The handle issued before collection is stale.
	_, err = h.Get(live)
	require.ErrorIs(t, err, ErrDanglingPointer)
}

func TestCollectPreservesOrder(t *testing.T) {
	h := NewHeap()
	var roots []Value
	for i := 0; i < 6; i++ {
		ref := h.Alloc(BoxValue(NumberValue(float64(i))))
		if i%2 == 1 {
			roots = append(roots, PointerValue(ref))
		}
	}

	h.Collect(roots)
	require.Equal(t, 3, h.Len())
	for i, obj := range h.Objects() {
		require.Equal(t, float64(2*i+1), obj.Num)
		require.Equal(t, i, roots[i].Ref.Index)
	}
}

func TestCollectMarksTransitively(t *testing.T) {
	h := NewHeap()
	h.Alloc(NewStringObject("garbage"))
	leaf := h.Alloc(NewStringObject("leaf"))
	inner := h.Alloc(NewArrayObject([]Value{PointerValue(leaf)}))
	rec := h.Alloc(NewObject(map[string]Value{"child": PointerValue(inner)}))

	root := []Value{PointerValue(rec)}
	res := h.Collect(root)
	require.Equal(t, 1, res.Freed())

	obj, err := h.Get(root[0].Ref)
	require.NoError(t, err)
	child, err := h.Get(obj.Fields["child"].Ref)
	require.NoError(t, err, "nested pointer in an object was rewritten")
	got, err := h.Get(child.Elements[0].Ref)
	require.NoError(t, err, "nested pointer in an array was rewritten")
	require.Equal(t, "leaf", got.Str)
}

func TestCollectHandlesCycles(t *testing.T) {
	h := NewHeap()
	h.Alloc(NewStringObject("garbage"))
	a := h.Alloc(NewArrayObject(nil))
	b := h.Alloc(NewArrayObject([]Value{PointerValue(a)}))
	objA, _ := h.Get(a)
	objA.Elements = []Value{PointerValue(b)}

	root := []Value{PointerValue(a)}
	res := h.Collect(root)
	require.Equal(t, 2, res.After)

	first, err := h.Get(root[0].Ref)
	require.NoError(t, err)
	second, err := h.Get(first.Elements[0].Ref)
	require.NoError(t, err)
	back, err := h.Get(second.Elements[0].Ref)
	require.NoError(t, err)
	require.Same(t, first, back)
}

func TestCollectSkipsStaleRoots(t *testing.T) {
	h := NewHeap()
	ref := h.Alloc(NewStringObject("x"))
	h.Collect() // nothing rooted; ref is now stale

	root := []Value{PointerValue(ref)}
	res := h.Collect(root)
	require.Equal(t, 0, res.Before)
	require.Equal(t, uint32(0), root[0].Ref.Gen, "stale pointer is not rewritten")
	require.False(t, h.Valid(root[0].Ref))
}

func TestWeightHistoryRing(t *testing.T) {
	w := newWeightHistory(3)
	require.Empty(t, w.values())

	w.record(1)
	w.record(2)
	require.Equal(t, []int{1, 2}, w.values())

	w.record(3)
	w.record(4)
	w.record(5)
	require.Equal(t, []int{3, 4, 5}, w.values())
}

// churnProgram allocates count one-element arrays, discarding each, and
// keeps one array bound to a global.
func churnProgram(count int) *Artifact {
	code := []Instruction{
		Push(StringValue("kept")), CreateArray(1), StoreVar(0, 0, "keep"),
	}
	for i := 0; i < count; i++ {
		code = append(code, Push(NumberValue(float64(i))), CreateArray(1), Simple(OpPop))
	}
	code = append(code, LoadVar(0, 0, "keep"), Simple(OpHalt))
	art := artifact(code)
	art.Globals = map[string]int{"keep": 0}
	return art
}

func TestVMCollectsGarbage(t *testing.T) {
	cfg := Config{GCCheckInterval: 4, GCThreshold: 40, GCHistorySize: 4}
	m, err := execute(t, churnProgram(50), cfg)
	require.NoError(t, err)

	stats := m.GCStats()
	require.Positive(t, stats.Collections)
	require.Positive(t, stats.Freed)
	require.Positive(t, stats.Checks)
	require.LessOrEqual(t, len(stats.History), 4)
	require.Less(t, m.Heap().Len(), 51)

	keep, ok := m.Global("keep")
	require.True(t, ok)
	require.Equal(t, `["kept"]`, m.Format(keep))
	require.Equal(t, `["kept"]`, m.Format(top(t, m)))
}

func TestVMCollectsOnlyAboveThreshold(t *testing.T) {
	// One discarded array of weight 10 is live on the heap at every check.
	code := []Instruction{
		Push(NumberValue(1)), CreateArray(1), Simple(OpPop),
		Push(NumberValue(0)), Simple(OpPop), Simple(OpHalt),
	}

	m, err := execute(t, artifact(code), Config{GCCheckInterval: 2, GCThreshold: 10})
	require.NoError(t, err)
	require.Positive(t, m.GCStats().Checks)
	require.Zero(t, m.GCStats().Collections, "weight equal to the threshold")
	require.Equal(t, 1, m.Heap().Len())

	m, err = execute(t, artifact(code), Config{GCCheckInterval: 2, GCThreshold: 9})
	require.NoError(t, err)
	require.Positive(t, m.GCStats().Collections)
	require.Zero(t, m.Heap().Len())
}

func TestVMStackRootsKeepTemporaries(t *testing.T) {
	// An array that only lives on the operand stack survives a collection
	// unless stack roots are ignored.
	code := []Instruction{Push(NumberValue(1)), CreateArray(1)}
	for i := 0; i < 8; i++ {
		code = append(code, Push(NumberValue(0)), Simple(OpPop))
	}

	m := New(artifact(code), Config{})
	require.NoError(t, m.Run(context.Background()))
	m.CollectGarbage()
	require.Equal(t, "[1]", m.Format(top(t, m)))

	m = New(artifact(code), Config{Legacy: Legacy{IgnoreStackRoots: true}})
	require.NoError(t, m.Run(context.Background()))
	m.CollectGarbage()
	require.Equal(t, 0, m.Heap().Len())
	require.Equal(t, "<dangling>", m.Format(top(t, m)))
	require.Equal(t, "unknown", m.TypeName(top(t, m)))
}

func TestDanglingPointerAtRuntime(t *testing.T) {
	// A pointer that a collection did not root fails on use.
	m := New(artifact([]Instruction{
		Push(StringValue("ab")), Push(StringValue("cd")), Simple(OpAdd),
	}), Config{})
	stale := PointerValue(m.heap.Alloc(NewStringObject("ab")))
	m.CollectGarbage()
	m.artifact.Instructions[0] = Push(stale)

	err := m.Run(context.Background())
	require.ErrorIs(t, err, ErrDanglingPointer)
}
