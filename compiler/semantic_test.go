package compiler

import (
	"strings"
	"testing"
)

func analyze(t *testing.T, source string) []string {
	t.Helper()
	prog, err := Parse(source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return Analyze(prog)
}

func hasWarning(warnings []string, parts ...string) bool {
	for _, w := range warnings {
		found := true
		for _, p := range parts {
			if !strings.Contains(w, p) {
				found = false
				break
			}
		}
		if found {
			return true
		}
	}
	return false
}

func TestSemanticAnalyzer_CleanProgram(t *testing.T) {
	warnings := analyze(t, `func add(a, b) {
	let s = a + b
	s
}
let x = add(1, 2)
x |> add(3)`)
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestSemanticAnalyzer_UnusedLocal(t *testing.T) {
	warnings := analyze(t, `func f(n) {
	let tmp = n * 2
	n
}
f(1)`)
	if !hasWarning(warnings, "line 2", "variable tmp is never used") {
		t.Errorf("expected unused variable warning, got: %v", warnings)
	}
}

func TestSemanticAnalyzer_UnusedParameter(t *testing.T) {
	warnings := analyze(t, "func first(a, b) { a }\nfirst(1, 2)")
	if !hasWarning(warnings, "parameter b is never used") {
		t.Errorf("expected unused parameter warning, got: %v", warnings)
	}
	if hasWarning(warnings, "parameter a") {
		t.Errorf("a is used: %v", warnings)
	}
}

func TestSemanticAnalyzer_TopLevelBindingsAreResults(t *testing.T) {
	warnings := analyze(t, "let x = 1\nlet y = 2\ny")
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestSemanticAnalyzer_Shadowing(t *testing.T) {
	warnings := analyze(t, `let x = 1
func f() {
	let x = 2
	x
}
f()`)
	if !hasWarning(warnings, "line 3", "let x shadows an outer binding") {
		t.Errorf("expected shadowing warning, got: %v", warnings)
	}
}

func TestSemanticAnalyzer_DiscardedExpression(t *testing.T) {
	warnings := analyze(t, `func f(a) { a }
1 + 2
f(1)
[1, 2]`)
	if !hasWarning(warnings, "line 2, column 1", "result of expression is discarded") {
		t.Errorf("expected discarded expression warning, got: %v", warnings)
	}
	if hasWarning(warnings, "line 3") {
		t.Errorf("calls should not be flagged: %v", warnings)
	}
}

func TestSemanticAnalyzer_UncalledFunction(t *testing.T) {
	warnings := analyze(t, `func used(n) { n }
func unused(n) { n }
func piped(n) { n }
1 |> piped
used(2)`)
	if !hasWarning(warnings, "line 2", "function unused is never called") {
		t.Errorf("expected uncalled function warning, got: %v", warnings)
	}
	if hasWarning(warnings, "function used") || hasWarning(warnings, "function piped") {
		t.Errorf("called functions flagged: %v", warnings)
	}
}

func TestSemanticAnalyzer_IfBranchScopes(t *testing.T) {
	warnings := analyze(t, `func f(c) {
	if c {
		let unused = 1
		2
	} else {
		let kept = 3
		kept
	}
}
f(true)`)
	if !hasWarning(warnings, "line 3", "variable unused is never used") {
		t.Errorf("expected warning in then branch, got: %v", warnings)
	}
	if hasWarning(warnings, "kept") {
		t.Errorf("kept is used: %v", warnings)
	}
}

func TestSemanticAnalyzer_WarningsOrdered(t *testing.T) {
	warnings := analyze(t, `func a(x) { 1 }
func b(y) { 2 }`)
	// b is the program's value, so only a counts as uncalled.
	if len(warnings) != 3 {
		t.Fatalf("warnings = %v, want 3", warnings)
	}
	if !strings.Contains(warnings[0], "line 1") || !strings.Contains(warnings[2], "line 2") {
		t.Errorf("warnings not ordered by line: %v", warnings)
	}
}
