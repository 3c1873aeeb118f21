package compiler

// ---------------------------------------------------------------------------
// ScopeTable: compile-time variable resolution
// ---------------------------------------------------------------------------

// scope is one name map. Function bodies open a scope at a new depth; if
// branches open a block scope at the same depth that shares its slot
// numbering.
type scope struct {
	depth int
	names map[string]int
}

// ScopeTable binds names to (depth, slot) pairs. Depth 0 is the top level;
// each function body is one level deeper than the code that declares it.
// Slot numbers restart at 0 for every function body.
type ScopeTable struct {
	scopes []scope
	next   []int // next free slot, indexed by depth
}

// Binding is a resolved variable address.
type Binding struct {
	Depth int
	Slot  int
}

// NewScopeTable returns a table positioned at depth 0.
func NewScopeTable() *ScopeTable {
	return &ScopeTable{
		scopes: []scope{{depth: 0, names: make(map[string]int)}},
		next:   []int{0},
	}
}

// Depth returns the current nesting depth.
func (s *ScopeTable) Depth() int {
	return s.current().depth
}

func (s *ScopeTable) current() *scope {
	return &s.scopes[len(s.scopes)-1]
}

// Enter opens a function body scope one level deeper. The new level starts
// empty, so sibling functions never share slots.
func (s *ScopeTable) Enter() {
	depth := s.Depth() + 1
	for len(s.next) <= depth {
		s.next = append(s.next, 0)
	}
	s.next[depth] = 0
	s.scopes = append(s.scopes, scope{depth: depth, names: make(map[string]int)})
}

// EnterBlock opens a nested block at the current depth.
func (s *ScopeTable) EnterBlock() {
	s.scopes = append(s.scopes, scope{depth: s.Depth(), names: make(map[string]int)})
}

// Leave closes the innermost scope opened by Enter or EnterBlock.
func (s *ScopeTable) Leave() {
	if len(s.scopes) > 1 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

func (s *ScopeTable) alloc(name string) Binding {
	cur := s.current()
	slot := s.next[cur.depth]
	s.next[cur.depth]++
	cur.names[name] = slot
	return Binding{Depth: cur.depth, Slot: slot}
}

// Bind declares a let binding in the innermost scope. A name already bound
// in that same scope is ErrDuplicateBinding; a name bound only further out
// gets a fresh slot that shadows it.
func (s *ScopeTable) Bind(name string) (Binding, error) {
	cur := s.current()
	if _, ok := cur.names[name]; ok {
		return Binding{}, ErrDuplicateBinding
	}
	return s.alloc(name), nil
}

// BindParam declares a parameter. Parameters always get a fresh slot.
func (s *ScopeTable) BindParam(name string) Binding {
	return s.alloc(name)
}

// Resolve finds the innermost binding of name.
func (s *ScopeTable) Resolve(name string) (Binding, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if slot, ok := s.scopes[i].names[name]; ok {
			return Binding{Depth: s.scopes[i].depth, Slot: slot}, true
		}
	}
	return Binding{}, false
}

// ResolveOrBind resolves name, creating a binding at the current depth when
// none exists.
func (s *ScopeTable) ResolveOrBind(name string) Binding {
	if b, ok := s.Resolve(name); ok {
		return b
	}
	return s.alloc(name)
}

// Globals returns the depth-0 top-level bindings.
func (s *ScopeTable) Globals() map[string]int {
	out := make(map[string]int, len(s.scopes[0].names))
	for name, slot := range s.scopes[0].names {
		out[name] = slot
	}
	return out
}
