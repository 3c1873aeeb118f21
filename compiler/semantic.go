package compiler

import (
	"fmt"
	"sort"
)

// ---------------------------------------------------------------------------
// Semantic Analyzer: lint checks over a parsed program
// ---------------------------------------------------------------------------

// SemanticAnalyzer reports suspicious but legal code: unused locals and
// parameters, shadowed bindings, discarded pure expressions and functions
// that are never called. It never rejects a program; binding errors are
// reported by the code generator.
type SemanticAnalyzer struct {
	warnings []warning

	// Scope tracking; scopes[0] is the top level.
	scopes []map[string]*local

	funcs []*FuncStmt
	calls map[string]int
}

type warning struct {
	pos Position
	msg string
}

// local is one binding seen by the analyzer.
type local struct {
	node Node
	kind string // "variable" or "parameter"
	used bool
}

// NewSemanticAnalyzer creates a new semantic analyzer.
func NewSemanticAnalyzer() *SemanticAnalyzer {
	return &SemanticAnalyzer{calls: make(map[string]int)}
}

// Warnings returns the accumulated warnings ordered by position.
func (s *SemanticAnalyzer) Warnings() []string {
	sort.SliceStable(s.warnings, func(i, j int) bool {
		a, b := s.warnings[i].pos, s.warnings[j].pos
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	out := make([]string, len(s.warnings))
	for i, w := range s.warnings {
		out[i] = fmt.Sprintf("warning: line %d, column %d: %s", w.pos.Line, w.pos.Column, w.msg)
	}
	return out
}

// warnAt records a warning with position information.
func (s *SemanticAnalyzer) warnAt(node Node, format string, args ...interface{}) {
	s.warnings = append(s.warnings, warning{pos: node.Span().Start, msg: fmt.Sprintf(format, args...)})
}

// AnalyzeProgram performs semantic analysis on a whole program.
func (s *SemanticAnalyzer) AnalyzeProgram(prog *Program) {
	s.scopes = []map[string]*local{make(map[string]*local)}
	s.analyzeStatements(prog.Statements)

	for _, fn := range s.funcs {
		if s.calls[fn.Name] == 0 {
			s.warnAt(fn, "function %s is never called", fn.Name)
		}
	}
}

func (s *SemanticAnalyzer) push() {
	s.scopes = append(s.scopes, make(map[string]*local))
}

// pop leaves a scope and reports its unused bindings. Top-level bindings
// are the program's results and are never reported.
func (s *SemanticAnalyzer) pop() {
	scope := s.scopes[len(s.scopes)-1]
	s.scopes = s.scopes[:len(s.scopes)-1]

	names := make([]string, 0, len(scope))
	for name := range scope {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if b := scope[name]; !b.used {
			s.warnAt(b.node, "%s %s is never used", b.kind, name)
		}
	}
}

func (s *SemanticAnalyzer) resolve(name string) *local {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if b, ok := s.scopes[i][name]; ok {
			return b
		}
	}
	return nil
}

// bind declares name in the innermost scope. Only let bindings are checked
// for shadowing.
func (s *SemanticAnalyzer) bind(node Node, name, kind string, used bool) {
	scope := s.scopes[len(s.scopes)-1]
	if _, dup := scope[name]; dup {
		return // reported by codegen
	}
	if kind == "variable" && s.resolve(name) != nil {
		s.warnAt(node, "let %s shadows an outer binding", name)
	}
	if len(s.scopes) == 1 {
		used = true
	}
	scope[name] = &local{node: node, kind: kind, used: used}
}

// analyzeStatements analyzes a block; its last statement is the block value.
func (s *SemanticAnalyzer) analyzeStatements(stmts []Stmt) {
	for i, stmt := range stmts {
		s.analyzeStmt(stmt, i == len(stmts)-1)
	}
}

func (s *SemanticAnalyzer) analyzeStmt(stmt Stmt, last bool) {
	switch st := stmt.(type) {
	case *LetStmt:
		s.analyzeExpr(st.Value)
		s.bind(st, st.Name, "variable", last)
	case *FuncStmt:
		s.funcs = append(s.funcs, st)
		if last {
			s.calls[st.Name]++
		}
		s.push()
		for _, p := range st.Params {
			s.bind(st, p, "parameter", false)
		}
		s.analyzeStatements(st.Body)
		s.pop()
	case *ExprStmt:
		if !last && pure(st.Expr) {
			s.warnAt(st, "result of expression is discarded")
		}
		s.analyzeExpr(st.Expr)
	}
}

func (s *SemanticAnalyzer) analyzeExpr(expr Expr) {
	switch e := expr.(type) {
	case *Identifier:
		if b := s.resolve(e.Name); b != nil {
			b.used = true
		}
	case *UnaryExpr:
		s.analyzeExpr(e.Operand)
	case *BinaryExpr:
		s.analyzeExpr(e.Left)
		s.analyzeExpr(e.Right)
	case *CallExpr:
		s.calls[e.Callee]++
		for _, arg := range e.Args {
			s.analyzeExpr(arg)
		}
	case *PipelineExpr:
		s.analyzeExpr(e.Left)
		if id, ok := e.Right.(*Identifier); ok {
			s.calls[id.Name]++
		} else {
			s.analyzeExpr(e.Right)
		}
	case *ArrayLiteral:
		for _, elem := range e.Elements {
			s.analyzeExpr(elem)
		}
	case *IfExpr:
		s.analyzeExpr(e.Cond)
		s.analyzeBranch(e.Then)
		if e.Else != nil {
			s.analyzeBranch(e.Else)
		}
	// Literals don't need checking
	case *NumberLiteral, *StringLiteral, *BooleanLiteral:
		// OK
	}
}

func (s *SemanticAnalyzer) analyzeBranch(stmts []Stmt) {
	s.push()
	s.analyzeStatements(stmts)
	s.pop()
}

// pure reports whether e contains no calls.
func pure(e Expr) bool {
	switch e := e.(type) {
	case *NumberLiteral, *StringLiteral, *BooleanLiteral, *Identifier:
		return true
	case *UnaryExpr:
		return pure(e.Operand)
	case *BinaryExpr:
		return pure(e.Left) && pure(e.Right)
	case *ArrayLiteral:
		for _, elem := range e.Elements {
			if !pure(elem) {
				return false
			}
		}
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Integration with Compile function
// ---------------------------------------------------------------------------

// Analyze runs semantic analysis on a program and returns its warnings.
func Analyze(prog *Program) []string {
	analyzer := NewSemanticAnalyzer()
	analyzer.AnalyzeProgram(prog)
	return analyzer.Warnings()
}
