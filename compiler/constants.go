package compiler

import (
	"fmt"

	"github.com/chazu/mirrow/vm"
)

// MaxConstants is the largest constant pool a program may use.
const MaxConstants = 1 << 16

// ConstantPool collects literal values, deduplicated by structural
// equality with a linear scan. Numbers compare with ==, so NaN never
// matches an existing entry.
type ConstantPool struct {
	values []vm.Value
}

// Add returns the index of v, appending it if no equal entry exists.
// Only number and string literals belong in the pool.
func (p *ConstantPool) Add(v vm.Value) (int, error) {
	if v.Kind != vm.KindNumber && v.Kind != vm.KindString {
		return 0, fmt.Errorf("%w: %s cannot be stored in the constant pool", ErrMalformedConstant, v.TypeName())
	}
	for i, existing := range p.values {
		if existing.Equal(v) {
			return i, nil
		}
	}
	if len(p.values) >= MaxConstants {
		return 0, fmt.Errorf("%w: constant pool exceeds %d entries", ErrMalformedConstant, MaxConstants)
	}
	p.values = append(p.values, v)
	return len(p.values) - 1, nil
}

// Len returns the number of entries.
func (p *ConstantPool) Len() int {
	return len(p.values)
}

// Values returns the pool contents.
func (p *ConstantPool) Values() []vm.Value {
	return p.values
}

// FunctionTable records every function declared in a program. Entries are
// registered with a placeholder entry offset during declaration collection
// and patched once the body is emitted.
type FunctionTable struct {
	entries []vm.FunctionInfo
	byName  map[string]int
	decls   map[*FuncStmt]int
}

// NewFunctionTable returns an empty table.
func NewFunctionTable() *FunctionTable {
	return &FunctionTable{
		byName: make(map[string]int),
		decls:  make(map[*FuncStmt]int),
	}
}

// Declare registers fn at the given body depth.
func (t *FunctionTable) Declare(fn *FuncStmt, depth int) (int, error) {
	if _, ok := t.byName[fn.Name]; ok {
		return 0, fmt.Errorf("%w: function %s", ErrDuplicateBinding, fn.Name)
	}
	idx := len(t.entries)
	t.entries = append(t.entries, vm.FunctionInfo{
		Name:   fn.Name,
		Params: fn.Params,
		Depth:  depth,
	})
	t.byName[fn.Name] = idx
	t.decls[fn] = idx
	return idx, nil
}

// Lookup resolves a function by name.
func (t *FunctionTable) Lookup(name string) (int, bool) {
	idx, ok := t.byName[name]
	return idx, ok
}

// IndexOf returns the table index of a declaration.
func (t *FunctionTable) IndexOf(fn *FuncStmt) (int, bool) {
	idx, ok := t.decls[fn]
	return idx, ok
}

// Get returns the entry at idx.
func (t *FunctionTable) Get(idx int) vm.FunctionInfo {
	return t.entries[idx]
}

// SetEntry patches the entry offset of idx.
func (t *FunctionTable) SetEntry(idx, entry int) {
	t.entries[idx].Entry = entry
}

// Entries returns the table.
func (t *FunctionTable) Entries() []vm.FunctionInfo {
	return t.entries
}
