package hash

import (
	"testing"

	"github.com/chazu/mirrow/compiler"
)

// funcs parses source and returns its top-level function declarations.
func funcs(t *testing.T, source string) []*compiler.FuncStmt {
	t.Helper()
	prog, err := compiler.Parse(source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	var out []*compiler.FuncStmt
	for _, s := range prog.Statements {
		if fn, ok := s.(*compiler.FuncStmt); ok {
			out = append(out, fn)
		}
	}
	return out
}

func samePair(t *testing.T, source string) bool {
	t.Helper()
	fs := funcs(t, source)
	if len(fs) != 2 {
		t.Fatalf("got %d functions, want 2", len(fs))
	}
	return HashFunction(fs[0]) == HashFunction(fs[1])
}

func TestHash_IgnoresNames(t *testing.T) {
	if !samePair(t, `func add(a, b) { let s = a + b
 s }
func plus(x, y) { let t = x + y
 t }`) {
		t.Error("alpha-equivalent functions should hash the same")
	}
}

func TestHash_DistinguishesBodies(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"operator", "func f(a, b) { a + b }\nfunc g(a, b) { a - b }"},
		{"operand order", "func f(a, b) { a - b }\nfunc g(a, b) { b - a }"},
		{"literal", "func f() { 1 }\nfunc g() { 2 }"},
		{"literal kind", `func f() { 1 }` + "\n" + `func g() { "1" }`},
		{"arity", "func f(a) { 1 }\nfunc g(a, b) { 1 }"},
		{"callee", "func f(a) { h(a) }\nfunc g(a) { k(a) }"},
		{"global", "func f() { x }\nfunc g() { y }"},
		{"else", "func f(c) { if c { 1 } }\nfunc g(c) { if c { 1 } else {} }"},
	}
	for _, tc := range tests {
		if samePair(t, tc.source) {
			t.Errorf("%s: different functions hashed the same", tc.name)
		}
	}
}

func TestHash_PipelineMatchesCall(t *testing.T) {
	if !samePair(t, "func f(a) { a |> g |> h(1) }\nfunc k(b) { h(g(b), 1) }") {
		t.Error("pipeline should hash like the direct call")
	}
}

func TestHash_Deterministic(t *testing.T) {
	fn := funcs(t, "func fib(n) { if n < 2 { n } else { fib(n - 1) + fib(n - 2) } }")[0]
	if HashFunction(fn) != HashFunction(fn) {
		t.Error("hash is not deterministic")
	}
	data := Serialize(NormalizeFunction(fn))
	if data[0] != HashVersion {
		t.Errorf("first byte = 0x%02X, want version", data[0])
	}
}

func TestNormalize_DeBruijnIndices(t *testing.T) {
	// outer(a, b) { func inner(c) { b + c } ... }: inside inner, b is one
	// scope up at slot 1 and c is local slot 0.
	fn := funcs(t, `func outer(a, b) {
	func inner(c) { b + c }
	inner(a)
}`)[0]

	hf := NormalizeFunction(fn)
	if hf.Name != "" || hf.Arity != 2 || len(hf.Body) != 2 {
		t.Fatalf("outer = %+v", hf)
	}
	inner, ok := hf.Body[0].(*HFuncDef)
	if !ok {
		t.Fatalf("body[0] = %T, want *HFuncDef", hf.Body[0])
	}
	if inner.Name != "inner" {
		t.Errorf("nested name = %q, want inner", inner.Name)
	}
	bin := inner.Body[0].(*HExprStmt).Expr.(*HBinary)
	left, right := bin.Left.(*HLocalVarRef), bin.Right.(*HLocalVarRef)
	if left.ScopeDepth != 1 || left.SlotIndex != 1 {
		t.Errorf("b = depth %d slot %d, want 1/1", left.ScopeDepth, left.SlotIndex)
	}
	if right.ScopeDepth != 0 || right.SlotIndex != 0 {
		t.Errorf("c = depth %d slot %d, want 0/0", right.ScopeDepth, right.SlotIndex)
	}
}

func TestNormalize_LetSlotsAfterParams(t *testing.T) {
	fn := funcs(t, "func f(a) {\n let x = a\n let y = x\n y\n}")[0]
	hf := NormalizeFunction(fn)

	let1 := hf.Body[0].(*HLet)
	let2 := hf.Body[1].(*HLet)
	if let1.Slot != 1 || let2.Slot != 2 {
		t.Errorf("let slots = %d, %d; want 1, 2", let1.Slot, let2.Slot)
	}
	if ref := let2.Value.(*HLocalVarRef); ref.SlotIndex != 1 {
		t.Errorf("y's initializer reads slot %d, want 1", ref.SlotIndex)
	}
}

func TestNormalize_UnboundNamesAreGlobal(t *testing.T) {
	fn := funcs(t, "func f() { total }")[0]
	ref, ok := NormalizeFunction(fn).Body[0].(*HExprStmt).Expr.(*HGlobalRef)
	if !ok || ref.Name != "total" {
		t.Errorf("got %+v, want global total", ref)
	}
}
