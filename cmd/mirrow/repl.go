package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/chazu/mirrow/compiler"
	"github.com/chazu/mirrow/vm"
)

const (
	historyFile = ".mirrow_history"
	promptMain  = ">> "
	promptCont  = ".. "
)

// session accumulates the statements accepted so far. Each input is
// compiled together with them and the whole program is rerun, so earlier
// bindings and functions stay visible.
type session struct {
	opts   *options
	source []string
	last   *vm.VM
}

// eval runs input after the committed source and returns the rendered
// value of the last statement. Input that fails to compile or run is not
// committed.
func (s *session) eval(input string) (string, error) {
	src := strings.Join(append(append([]string(nil), s.source...), input), "\n")
	art, err := compiler.CompileSource(src, s.opts.compile)
	if err != nil {
		return "", err
	}
	m, err := vm.Execute(context.Background(), art, s.opts.config)
	if err != nil {
		return "", err
	}
	s.source = append(s.source, input)
	s.last = m

	v, ok := m.Result()
	if !ok {
		return "", nil
	}
	return m.Format(v), nil
}

// command handles a ':' command. It reports whether the REPL should exit.
func (s *session) command(line string, out io.Writer) (exit bool) {
	switch strings.TrimSpace(line) {
	case ":quit", ":q":
		return true
	case ":reset":
		s.source = nil
		s.last = nil
		fmt.Fprintln(out, "session cleared")
	case ":dump":
		if s.last == nil {
			fmt.Fprintln(out, "nothing has run yet")
			break
		}
		_ = vm.NewInspector(s.last).Dump(out)
	case ":disasm":
		if s.last == nil {
			fmt.Fprintln(out, "nothing has run yet")
			break
		}
		fmt.Fprint(out, s.last.Artifact().Disassemble())
	case ":source":
		for _, src := range s.source {
			fmt.Fprintln(out, src)
		}
	default:
		fmt.Fprintln(out, "commands: :quit :reset :dump :disasm :source")
	}
	return false
}

// incomplete reports whether src has unclosed brackets, so the REPL should
// keep reading.
func incomplete(src string) bool {
	depth := 0
	for _, tok := range compiler.NewLexer(src).Tokenize() {
		switch tok.Type {
		case compiler.TokenLParen, compiler.TokenLBrace, compiler.TokenLBracket:
			depth++
		case compiler.TokenRParen, compiler.TokenRBrace, compiler.TokenRBracket:
			depth--
		case compiler.TokenError:
			return false
		}
	}
	return depth > 0
}

func cmdRepl(opts *options) error {
	fmt.Println("Mirrow REPL (type :quit to exit)")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	s := &session{opts: opts}
	for {
		input, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return nil
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(input, "\n", " "))

		if strings.HasPrefix(strings.TrimSpace(input), ":") {
			if s.command(input, os.Stdout) {
				return nil
			}
			continue
		}

		result, err := s.eval(input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if result != "" {
			fmt.Println(result)
		}
	}
}

// readInput reads one entry, continuing while brackets are open.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !incomplete(b.String()) {
			return b.String(), true
		}
	}
}
