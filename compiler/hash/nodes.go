package hash

// ---------------------------------------------------------------------------
// Frozen hashing AST types.
//
// These are stripped-down parallels of compiler/ast.go with no Span/position
// data and de Bruijn indices instead of variable names.
// ---------------------------------------------------------------------------

// HNode is the interface implemented by all hashing AST nodes.
type HNode interface {
	hnode() // marker method
}

// ---------------------------------------------------------------------------
// Literal nodes
// ---------------------------------------------------------------------------

type HNumberLiteral struct{ Value float64 }
type HStringLiteral struct{ Value string }
type HBoolLiteral struct{ Value bool }
type HArrayLiteral struct{ Elements []HNode }

func (*HNumberLiteral) hnode() {}
func (*HStringLiteral) hnode() {}
func (*HBoolLiteral) hnode()   {}
func (*HArrayLiteral) hnode()  {}

// ---------------------------------------------------------------------------
// Variable reference nodes (de Bruijn indexed)
// ---------------------------------------------------------------------------

// HLocalVarRef references a local variable by de Bruijn indices.
// ScopeDepth 0 = current scope, 1 = one enclosing scope up, etc.
// SlotIndex is the binding's position within that scope.
type HLocalVarRef struct {
	ScopeDepth uint16
	SlotIndex  uint16
}

// HGlobalRef references a name bound outside the hashed function.
type HGlobalRef struct {
	Name string
}

func (*HLocalVarRef) hnode() {}
func (*HGlobalRef) hnode()   {}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

type HUnary struct {
	Op      byte
	Operand HNode
}

type HBinary struct {
	Op          byte
	Left, Right HNode
}

// HCall is a direct call. Pipelines normalize to calls.
type HCall struct {
	Callee string
	Args   []HNode
}

type HIf struct {
	Cond    HNode
	Then    []HNode
	Else    []HNode
	HasElse bool
}

func (*HUnary) hnode()  {}
func (*HBinary) hnode() {}
func (*HCall) hnode()   {}
func (*HIf) hnode()     {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

type HLet struct {
	Slot  uint16
	Value HNode
}

type HExprStmt struct{ Expr HNode }

// HFuncDef is a function declaration. Name is empty for the function being
// hashed and set for nested declarations, which are call targets.
type HFuncDef struct {
	Name  string
	Arity int
	Body  []HNode
}

func (*HLet) hnode()      {}
func (*HExprStmt) hnode() {}
func (*HFuncDef) hnode()  {}
