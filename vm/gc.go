package vm

// ---------------------------------------------------------------------------
// Mark-sweep-compact collector
// ---------------------------------------------------------------------------

// CollectResult describes one collection.
type CollectResult struct {
	Before int // objects before collection
	After  int // objects surviving
	// Remap maps old index to new index for every surviving object.
	Remap map[int]int
}

// Freed returns the number of objects reclaimed.
func (r CollectResult) Freed() int {
	return r.Before - r.After
}

// Collect marks every object reachable from roots, compacts the survivors
// in their original order and rewrites every mapped pointer found in roots
// and in surviving objects. Root slices are rewritten in place.
//
// Pointers that were not reachable (or were already stale) are left with
// their old generation and fail on dereference afterwards.
func (h *Heap) Collect(roots ...[]Value) CollectResult {
	marked := make([]bool, len(h.objects))

	var work []int
	markValue := func(v *Value) {
		if v.Kind != KindHeapPointer || !h.Valid(v.Ref) {
			return
		}
		if !marked[v.Ref.Index] {
			marked[v.Ref.Index] = true
			work = append(work, v.Ref.Index)
		}
	}

	for _, root := range roots {
		for i := range root {
			markValue(&root[i])
		}
	}
	for len(work) > 0 {
		idx := work[len(work)-1]
		work = work[:len(work)-1]
		h.objects[idx].eachChild(markValue)
	}

	// Sweep and compact.
	result := CollectResult{Before: len(h.objects), Remap: make(map[int]int)}
	survivors := make([]*HeapObject, 0, len(h.objects))
	for i, obj := range h.objects {
		if marked[i] {
			result.Remap[i] = len(survivors)
			survivors = append(survivors, obj)
		}
	}
	result.After = len(survivors)

	oldGen := h.gen
	h.objects = survivors
	h.gen++

	rewrite := func(v *Value) {
		if v.Kind != KindHeapPointer || v.Ref.Gen != oldGen {
			return
		}
		if newIdx, ok := result.Remap[v.Ref.Index]; ok {
			v.Ref = HeapRef{Index: newIdx, Gen: h.gen}
		}
	}
	for _, root := range roots {
		for i := range root {
			rewrite(&root[i])
		}
	}
	for _, obj := range h.objects {
		obj.eachChild(rewrite)
	}

	return result
}

// ---------------------------------------------------------------------------
// Weight history
// ---------------------------------------------------------------------------

// weightHistory is a bounded ring of recent heap weight measurements.
type weightHistory struct {
	buf  []int
	next int
	full bool
}

func newWeightHistory(size int) *weightHistory {
	return &weightHistory{buf: make([]int, size)}
}

func (w *weightHistory) record(n int) {
	w.buf[w.next] = n
	w.next = (w.next + 1) % len(w.buf)
	if w.next == 0 {
		w.full = true
	}
}

// values returns recorded weights, oldest first.
func (w *weightHistory) values() []int {
	if !w.full {
		return append([]int(nil), w.buf[:w.next]...)
	}
	out := make([]int, 0, len(w.buf))
	out = append(out, w.buf[w.next:]...)
	return append(out, w.buf[:w.next]...)
}

// ---------------------------------------------------------------------------
// VM integration
// ---------------------------------------------------------------------------

// GCStats summarizes collector activity over the VM's lifetime.
type GCStats struct {
	Checks      int
	Collections int
	Freed       int
	// History holds the most recent heap weight measurements, oldest first.
	History []int
}

// GCStats returns a snapshot of collector statistics.
func (vm *VM) GCStats() GCStats {
	s := vm.gcStats
	s.History = vm.history.values()
	return s
}

// HeapWeight measures the heap and records the measurement in the history.
func (vm *VM) HeapWeight() int {
	w := vm.heap.Weight(vm.config.Weights)
	vm.history.record(w)
	vm.gcStats.Checks++
	return w
}

// CollectGarbage runs a full collection using the VM's frames (and, unless
// disabled, the operand stack) as roots.
func (vm *VM) CollectGarbage() CollectResult {
	roots := make([][]Value, 0, len(vm.frames)+1)
	for _, f := range vm.frames {
		roots = append(roots, f.slots)
	}
	if !vm.config.Legacy.IgnoreStackRoots {
		roots = append(roots, vm.stack)
	}

	res := vm.heap.Collect(roots...)
	vm.gcStats.Collections++
	vm.gcStats.Freed += res.Freed()
	vm.log.Debugf("vm %s: gc #%d freed %d of %d objects", vm.ID, vm.gcStats.Collections, res.Freed(), res.Before)
	return res
}

// maybeCollect runs the periodic weight check before the instruction at pc.
func (vm *VM) maybeCollect() {
	if (vm.pc+1)%vm.config.GCCheckInterval != 0 {
		return
	}
	if vm.HeapWeight() > vm.config.GCThreshold {
		vm.CollectGarbage()
	}
}
