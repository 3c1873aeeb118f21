package hash

import (
	"github.com/chazu/mirrow/compiler"
)

// ---------------------------------------------------------------------------
// AST Normalization: compiler AST → frozen hashing AST
//
// Walks the compiler's AST and produces the frozen hashing AST with de
// Bruijn indices for parameters and locals. Names bound outside the
// function become global references.
// ---------------------------------------------------------------------------

// scope tracks variables at one nesting level.
type scope struct {
	vars map[string]uint16 // variable name → slot index
	next uint16
}

func (s *scope) bind(name string) uint16 {
	slot := s.next
	s.vars[name] = slot
	s.next++
	return slot
}

// normalizer holds state for the normalization walk.
type normalizer struct {
	scopes []*scope // scope stack: [0]=function, then nested functions and branches
}

// NormalizeFunction transforms a compiler FuncStmt into a frozen HFuncDef.
func NormalizeFunction(fn *compiler.FuncStmt) *HFuncDef {
	n := &normalizer{}
	hf := n.normalizeFunc(fn)
	hf.Name = ""
	return hf
}

func (n *normalizer) push() *scope {
	s := &scope{vars: make(map[string]uint16)}
	n.scopes = append(n.scopes, s)
	return s
}

func (n *normalizer) pop() {
	n.scopes = n.scopes[:len(n.scopes)-1]
}

func (n *normalizer) normalizeFunc(fn *compiler.FuncStmt) *HFuncDef {
	s := n.push()
	for _, p := range fn.Params {
		s.bind(p)
	}
	body := n.normalizeBlock(fn.Body)
	n.pop()

	return &HFuncDef{Name: fn.Name, Arity: len(fn.Params), Body: body}
}

func (n *normalizer) normalizeBlock(stmts []compiler.Stmt) []HNode {
	out := make([]HNode, len(stmts))
	for i, s := range stmts {
		out[i] = n.normalizeStmt(s)
	}
	return out
}

// normalizeBranch normalizes an if branch in its own scope.
func (n *normalizer) normalizeBranch(stmts []compiler.Stmt) []HNode {
	n.push()
	defer n.pop()
	return n.normalizeBlock(stmts)
}

// ---------------------------------------------------------------------------
// Statement normalization
// ---------------------------------------------------------------------------

func (n *normalizer) normalizeStmt(stmt compiler.Stmt) HNode {
	switch s := stmt.(type) {
	case *compiler.ExprStmt:
		return &HExprStmt{Expr: n.normalizeExpr(s.Expr)}
	case *compiler.LetStmt:
		// The initializer is evaluated before the name is bound.
		value := n.normalizeExpr(s.Value)
		slot := n.scopes[len(n.scopes)-1].bind(s.Name)
		return &HLet{Slot: slot, Value: value}
	case *compiler.FuncStmt:
		return n.normalizeFunc(s)
	default:
		// Unknown statement type; should not happen
		return &HExprStmt{}
	}
}

// ---------------------------------------------------------------------------
// Expression normalization
// ---------------------------------------------------------------------------

func (n *normalizer) normalizeExpr(expr compiler.Expr) HNode {
	switch e := expr.(type) {
	case *compiler.NumberLiteral:
		return &HNumberLiteral{Value: e.Value}
	case *compiler.StringLiteral:
		return &HStringLiteral{Value: e.Value}
	case *compiler.BooleanLiteral:
		return &HBoolLiteral{Value: e.Value}

	case *compiler.ArrayLiteral:
		return &HArrayLiteral{Elements: n.normalizeExprs(e.Elements)}

	case *compiler.Identifier:
		return n.resolveVariable(e.Name)

	case *compiler.UnaryExpr:
		return &HUnary{Op: byte(e.Op), Operand: n.normalizeExpr(e.Operand)}

	case *compiler.BinaryExpr:
		return &HBinary{
			Op:    byte(e.Op),
			Left:  n.normalizeExpr(e.Left),
			Right: n.normalizeExpr(e.Right),
		}

	case *compiler.CallExpr:
		return &HCall{Callee: e.Callee, Args: n.normalizeExprs(e.Args)}

	case *compiler.PipelineExpr:
		left := n.normalizeExpr(e.Left)
		switch r := e.Right.(type) {
		case *compiler.CallExpr:
			return &HCall{Callee: r.Callee, Args: append([]HNode{left}, n.normalizeExprs(r.Args)...)}
		case *compiler.Identifier:
			return &HCall{Callee: r.Name, Args: []HNode{left}}
		default:
			// Not compilable; keep both sides so the hash still differs.
			return &HCall{Args: []HNode{left, n.normalizeExpr(e.Right)}}
		}

	case *compiler.IfExpr:
		h := &HIf{Cond: n.normalizeExpr(e.Cond), Then: n.normalizeBranch(e.Then)}
		if e.Else != nil {
			h.HasElse = true
			h.Else = n.normalizeBranch(e.Else)
		}
		return h

	default:
		return &HExprStmt{}
	}
}

func (n *normalizer) normalizeExprs(exprs []compiler.Expr) []HNode {
	out := make([]HNode, len(exprs))
	for i, e := range exprs {
		out[i] = n.normalizeExpr(e)
	}
	return out
}

// ---------------------------------------------------------------------------
// Variable resolution → de Bruijn indices
// ---------------------------------------------------------------------------

// resolveVariable resolves a variable name to HLocalVarRef or HGlobalRef,
// searching scopes innermost first like the compiler's ScopeTable.
func (n *normalizer) resolveVariable(name string) HNode {
	for depth := len(n.scopes) - 1; depth >= 0; depth-- {
		if slot, ok := n.scopes[depth].vars[name]; ok {
			return &HLocalVarRef{
				ScopeDepth: uint16(len(n.scopes) - 1 - depth),
				SlotIndex:  slot,
			}
		}
	}
	return &HGlobalRef{Name: name}
}
