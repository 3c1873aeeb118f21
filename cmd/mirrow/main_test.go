package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/mirrow/vm"
)

func defaultOptions() *options {
	return &options{config: vm.DefaultConfig()}
}

func writeSource(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunPrintsResult(t *testing.T) {
	path := writeSource(t, "fact.n", `func fact(n) {
	if n < 2 { 1 } else { n * fact(n - 1) }
}
fact(5)
`)
	var out bytes.Buffer
	if err := cmdRun([]string{path}, defaultOptions(), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "120" {
		t.Errorf("output = %q, want 120", got)
	}
}

func TestRunRequiresSourceExtension(t *testing.T) {
	path := writeSource(t, "prog.txt", "1")
	err := cmdRun([]string{path}, defaultOptions(), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "expected a .n file") {
		t.Errorf("err = %v, want extension error", err)
	}
}

func TestRunReportsRuntimeError(t *testing.T) {
	path := writeSource(t, "bad.n", "let x = 1\nx / 0\n")
	err := cmdRun([]string{path}, defaultOptions(), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "[line 2] division by zero") {
		t.Errorf("err = %v", err)
	}
}

func TestRunDumpAndSnapshot(t *testing.T) {
	path := writeSource(t, "arr.n", "let a = [1, 2]\na")
	snap := filepath.Join(t.TempDir(), "state.cbor")

	var out bytes.Buffer
	if err := cmdRun([]string{"-dump", "-snapshot", snap, path}, defaultOptions(), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "heap (gen 0, 1 objects") {
		t.Errorf("dump missing heap section:\n%s", out.String())
	}
	if !strings.HasSuffix(out.String(), "[1, 2]\n") {
		t.Errorf("output should end with the result:\n%s", out.String())
	}

	data, err := os.ReadFile(snap)
	if err != nil {
		t.Fatal(err)
	}
	s, err := vm.UnmarshalSnapshot(data)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !s.Halted || len(s.Heap) != 1 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestDisasm(t *testing.T) {
	path := writeSource(t, "add.n", "func add(a, b) { a + b }\nadd(1, 2)")
	var out bytes.Buffer
	if err := cmdDisasm([]string{path}, defaultOptions(), &out); err != nil {
		t.Fatalf("disasm: %v", err)
	}
	for _, want := range []string{"; === add.n ===", "add:", "CALL 0 (add)", "HALT"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("listing missing %q:\n%s", want, out.String())
		}
	}
}

func TestManifestEntry(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "mirrow.toml"), []byte("[project]\nentry = \"prog.n\"\n[vm]\nmax-frames = 10\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "prog.n"), []byte("func f(n) { f(n) }\nf(1)"), 0644); err != nil {
		t.Fatal(err)
	}

	opts, err := loadOptions(dir)
	if err != nil {
		t.Fatal(err)
	}
	err = cmdRun(nil, opts, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "stack overflow") {
		t.Errorf("err = %v, want stack overflow from manifest max-frames", err)
	}
}

func TestNoInputFile(t *testing.T) {
	if _, err := sourcePath(nil, defaultOptions()); err == nil {
		t.Error("expected error without file or manifest")
	}
}

func TestSessionKeepsBindings(t *testing.T) {
	s := &session{opts: defaultOptions()}

	steps := []struct {
		input string
		want  string
	}{
		{"let x = 4", "4"},
		{"func sq(n) { n * n }", "<func(n) @"},
		{"sq(x)", "16"},
		{"x + 1", "5"},
	}
	for _, st := range steps {
		got, err := s.eval(st.input)
		if err != nil {
			t.Fatalf("%s: %v", st.input, err)
		}
		if !strings.HasPrefix(got, st.want) {
			t.Errorf("%s = %s, want %s", st.input, got, st.want)
		}
	}

	if _, err := s.eval("undefined + 1"); err == nil {
		t.Error("expected compile error")
	}
	if len(s.source) != 4 {
		t.Errorf("failed input was committed: %v", s.source)
	}

	var out bytes.Buffer
	if s.command(":reset", &out) {
		t.Error(":reset should not exit")
	}
	if len(s.source) != 0 {
		t.Error(":reset did not clear the session")
	}
	if !s.command(":quit", &out) {
		t.Error(":quit should exit")
	}
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"1 + 2", false},
		{"func f(a) {", true},
		{"func f(a) {\n a\n}", false},
		{"[1, 2,", true},
		{"f(", true},
		{`"open`, false},
	}
	for _, tc := range tests {
		if got := incomplete(tc.src); got != tc.want {
			t.Errorf("incomplete(%q) = %t, want %t", tc.src, got, tc.want)
		}
	}
}

func TestCheckReportsWarnings(t *testing.T) {
	path := writeSource(t, "lint.n", `func double(n) { n * 2 }
func twice(m) { m * 2 }
func f(a, b) {
	let unused = a
	a
}
double(1) + twice(2) + f(1, 2)
`)
	var out bytes.Buffer
	if err := cmdCheck([]string{path}, defaultOptions(), &out); err != nil {
		t.Fatalf("check: %v", err)
	}
	for _, want := range []string{
		"parameter b is never used",
		"variable unused is never used",
		"function twice has the same body as double (line 1)",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestCheckReportsCompileErrors(t *testing.T) {
	path := writeSource(t, "bad.n", "let x = 1\nlet x = 2\n")
	err := cmdCheck([]string{path}, defaultOptions(), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("err = %v, want duplicate binding on line 2", err)
	}
}

func TestExamplesRun(t *testing.T) {
	want := map[string]string{
		"fib.n":      "6765",
		"pipeline.n": `[15, 10, "done"]`,
	}

	opts, err := loadOptions("../../examples")
	if err != nil {
		t.Fatal(err)
	}
	if opts.project == nil || opts.project.Project.Name != "examples" {
		t.Fatalf("examples manifest not found: %+v", opts.project)
	}

	for name, result := range want {
		var out bytes.Buffer
		if err := cmdRun([]string{filepath.Join("../../examples", name)}, opts, &out); err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if got := strings.TrimSpace(out.String()); got != result {
			t.Errorf("%s = %s, want %s", name, got, result)
		}
	}
}
