// Mirrow CLI - compile and run .n programs
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/mirrow/compiler"
	"github.com/chazu/mirrow/compiler/hash"
	"github.com/chazu/mirrow/manifest"
	"github.com/chazu/mirrow/vm"
)

// SourceExt is the required extension of program files.
const SourceExt = ".n"

// verbosity is a repeatable -v flag.
type verbosity int

func (v *verbosity) String() string   { return strconv.Itoa(int(*v)) }
func (v *verbosity) IsBoolFlag() bool { return true }

func (v *verbosity) Set(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if b {
		*v++
	}
	return nil
}

// options collects the settings shared by every subcommand.
type options struct {
	config  vm.Config
	compile compiler.Options
	project *manifest.Manifest
}

func main() {
	var verbose verbosity
	flag.Var(&verbose, "v", "Verbose logging (repeat for more)")
	logPath := flag.String("log", "", "Write logs to this file instead of stderr")
	configDir := flag.String("config", ".", "Directory to search upward for mirrow.toml")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mirrow [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  run [-dump] [-snapshot path] [file.n]  Compile and run a program\n")
		fmt.Fprintf(os.Stderr, "  disasm [file.n]                        Print the compiled bytecode\n")
		fmt.Fprintf(os.Stderr, "  check [file.n]                         Compile and report warnings\n")
		fmt.Fprintf(os.Stderr, "  repl                                   Start an interactive session\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  mirrow run fib.n          # Run fib.n, print the final value\n")
		fmt.Fprintf(os.Stderr, "  mirrow -v -v run fib.n    # Same, with debug logging\n")
		fmt.Fprintf(os.Stderr, "  mirrow run                # Run the entry file from mirrow.toml\n")
		fmt.Fprintf(os.Stderr, "  mirrow disasm fib.n       # Show bytecode\n")
	}
	flag.Parse()

	var logFile *string
	if *logPath != "" {
		logFile = logPath
	}
	commonlog.Configure(int(verbose), logFile)

	opts, err := loadOptions(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	switch args[0] {
	case "run":
		err = cmdRun(args[1:], opts, os.Stdout)
	case "disasm":
		err = cmdDisasm(args[1:], opts, os.Stdout)
	case "check":
		err = cmdCheck(args[1:], opts, os.Stdout)
	case "repl":
		err = cmdRepl(opts)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadOptions reads the nearest mirrow.toml, if any.
func loadOptions(dir string) (*options, error) {
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	return &options{config: m.VMConfig(), compile: m.CompilerOptions(), project: m}, nil
}

// sourcePath picks the program file from args or the manifest entry.
func sourcePath(args []string, opts *options) (string, error) {
	var path string
	switch {
	case len(args) > 0:
		path = args[0]
	case opts.project != nil:
		path = opts.project.EntryPath()
	default:
		return "", errors.New("no input file")
	}
	if filepath.Ext(path) != SourceExt {
		return "", fmt.Errorf("%s: expected a %s file", path, SourceExt)
	}
	return path, nil
}

// compileFile reads and compiles one program file.
func compileFile(path string, opts *options) (*vm.Artifact, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	art, err := compiler.CompileSource(string(src), opts.compile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return art, nil
}

func cmdRun(args []string, opts *options, out io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	dump := fs.Bool("dump", false, "Print VM state after execution")
	snapshot := fs.String("snapshot", "", "Write a CBOR state snapshot to this path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := sourcePath(fs.Args(), opts)
	if err != nil {
		return err
	}
	art, err := compileFile(path, opts)
	if err != nil {
		return err
	}

	m, runErr := vm.Execute(context.Background(), art, opts.config)

	if *dump {
		if err := vm.NewInspector(m).Dump(out); err != nil {
			return err
		}
	}
	if *snapshot != "" {
		if err := writeSnapshot(m, *snapshot); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("%s: %w", path, runErr)
	}

	if v, ok := m.Result(); ok {
		fmt.Fprintln(out, m.Format(v))
	}
	return nil
}

func writeSnapshot(m *vm.VM, path string) error {
	data, err := vm.MarshalSnapshot(m.Snapshot())
	if err != nil {
		return fmt.Errorf("cannot encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

func cmdDisasm(args []string, opts *options, out io.Writer) error {
	path, err := sourcePath(args, opts)
	if err != nil {
		return err
	}
	art, err := compileFile(path, opts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, art.DisassembleWithName(filepath.Base(path)))
	return err
}

// cmdCheck compiles a file without running it and prints analyzer
// warnings, including functions whose bodies are identical.
func cmdCheck(args []string, opts *options, out io.Writer) error {
	path, err := sourcePath(args, opts)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	prog, err := compiler.Parse(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if _, err := compiler.Compile(prog, opts.compile); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	warnings := compiler.Analyze(prog)
	warnings = append(warnings, duplicateBodies(prog)...)
	for _, w := range warnings {
		fmt.Fprintf(out, "%s: %s\n", path, w)
	}
	return nil
}

// duplicateBodies reports top-level functions with the same content hash.
func duplicateBodies(prog *compiler.Program) []string {
	seen := make(map[[32]byte]*compiler.FuncStmt)
	var out []string
	for _, stmt := range prog.Statements {
		fn, ok := stmt.(*compiler.FuncStmt)
		if !ok {
			continue
		}
		h := hash.HashFunction(fn)
		if first, dup := seen[h]; dup {
			out = append(out, fmt.Sprintf("warning: line %d: function %s has the same body as %s (line %d)",
				fn.Span().Line(), fn.Name, first.Name, first.Span().Line()))
			continue
		}
		seen[h] = fn
	}
	return out
}
