package compiler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chazu/mirrow/vm"
)

// ---------------------------------------------------------------------------
// FuzzLexer: ensure the lexer never panics on arbitrary input.
// ---------------------------------------------------------------------------

func FuzzLexer(f *testing.F) {
	seeds := []string{
		// Basic tokens
		`( ) [ ] { } , + - * / = == != < > <= >= ! && || |>`,
		// Numbers
		`42`, `0`, `3.14`, `1e10`, `2.5E-3`, `1.`, `1e`, `1e+`,
		// Strings
		`"hello"`, `""`, `"a\nb"`, `"say \"hi\""`, `"bad \q"`, `"open`,
		// Identifiers and keywords
		`foo`, `_x1`, `let`, `func`, `if`, `else`, `true`, `false`, `añadir`,
		// Comments
		"// line comment\nx", "/* block */ x", "/* never closed",
		// Complete programs
		"let x = 1\nx + 2",
		"func add(a, b) { a + b }\nadd(2, 3)",
		"10 |> double |> sub(5)",
		// Edge cases
		`&`, `|`, `@`, `#`, `$`,
		// Unicode
		`"こんにちは"`, `café`,
		// Empty and whitespace
		``, `   `, "\t\n\r",
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("lexer panicked on input %q: %v", data, r)
			}
		}()

		l := NewLexer(data)
		for i := 0; i < len(data)+100; i++ {
			tok := l.NextToken()
			if tok.Type == TokenEOF || tok.Type == TokenError {
				return
			}
		}
		t.Fatalf("lexer did not terminate on input %q", data)
	})
}

// ---------------------------------------------------------------------------
// FuzzParser: ensure the parser never panics on arbitrary input.
// Parse errors are acceptable; panics are not.
// ---------------------------------------------------------------------------

func FuzzParser(f *testing.F) {
	seeds := []string{
		`42`, `-5`, `"s"`, `true`, `x`,
		`1 + 2 * 3`, `a || b && c`, `!a == b`,
		`f(1, 2)`, `[1, [2], "a",]`,
		`let x = 1`, `let = 1`, `let x 1`,
		`func f(a, b) { a - b }`, `func (a) {}`, `func f(a b) {}`,
		`if a { 1 } else if b { 2 } else { 3 }`, `if a {`, `else {}`,
		`a |> f |> g(1)`,
		``, `(`, `)`, `{`, `}`, `[`, `]`, `,`, `|>`, `=`,
		"func f() {\n\tlet y = 2\n\ty\n}\nf()",
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("parser panicked on input %q: %v", data, r)
			}
		}()

		p := NewParser(data)
		_ = p.ParseProgram()
		_ = p.Errors()

		p = NewParser(data)
		_ = p.ParseExpression()
		_ = p.Errors()
	})
}

// ---------------------------------------------------------------------------
// FuzzCompileAndRun: feed arbitrary programs through the full pipeline
// (parse -> codegen -> vm). Compile and runtime errors are fine, panics
// are not.
// ---------------------------------------------------------------------------

func FuzzCompileAndRun(f *testing.F) {
	seeds := []string{
		`42`,
		`"a" + "b"`,
		`"5" + 3`,
		`1 / 0`,
		`[1, [2, 3]] * 2`,
		"func add(a, b) { a + b }\nlet x = add(2, 3)",
		"func fact(n) { if n < 2 { 1 } else { n * fact(n - 1) } }\nfact(6)",
		"func loop(n) { loop(n) }\nloop(1)",
		"func double(n) { n * 2 }\n3 |> double",
		`if 1 { 2 }`,
		`true && false || !true`,
		`undefined`,
		`f(1)`,
	}

	for _, s := range seeds {
		f.Add(s)
	}

	cfg := vm.Config{GCCheckInterval: 8, GCThreshold: 64, MaxFrames: 256}

	f.Fuzz(func(t *testing.T, data string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("pipeline panicked on input %q: %v", data, r)
			}
		}()

		art, err := CompileSource(data, Options{})
		if err != nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, err = vm.Execute(ctx, art, cfg)
		var rt *vm.RuntimeError
		if err != nil && !errors.As(err, &rt) {
			t.Fatalf("non-runtime error on input %q: %v", data, err)
		}
	})
}

// ---------------------------------------------------------------------------
// FuzzSemantic: the analyzer never panics on any program that parses.
// ---------------------------------------------------------------------------

func FuzzSemantic(f *testing.F) {
	seeds := []string{
		"let x = 1\nx",
		"func f(a, b) { let c = a\n c }\nf(1, 2)",
		"func f() { if true { let y = 1\n y } }",
		"let x = 1\nfunc g() { let x = 2\n x }",
		"1\n2\n3",
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data string) {
		prog, err := Parse(data)
		if err != nil {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("analyzer panicked on input %q: %v", data, r)
			}
		}()
		_ = Analyze(prog)
	})
}
