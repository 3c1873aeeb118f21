package compiler

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/mirrow/vm"
)

// ---------------------------------------------------------------------------
// Codegen: Compile AST to an artifact
// ---------------------------------------------------------------------------

// Options adjusts compilation.
type Options struct {
	// ImplicitBindings makes a read of an undeclared name create a binding
	// at the current depth instead of failing with ErrUnboundVariable.
	ImplicitBindings bool
	// DynamicScoping allows a nested function to read locals of the
	// function it is declared in. The read resolves through the runtime
	// frame chain, so it is only meaningful with vm.Legacy.DynamicScoping.
	DynamicScoping bool
}

// Compiler compiles a Program in two passes: declaration collection
// registers every function so calls can be resolved regardless of order,
// then emission walks the statements producing one contiguous instruction
// stream with function bodies laid out inline behind jumps.
type Compiler struct {
	opts Options

	scopes    *ScopeTable
	constants ConstantPool
	functions *FunctionTable

	code  []vm.Instruction
	lines []int
	line  int // line attributed to emitted instructions

	log commonlog.Logger
}

// NewCompiler creates a new compiler.
func NewCompiler(opts Options) *Compiler {
	return &Compiler{
		opts:      opts,
		scopes:    NewScopeTable(),
		functions: NewFunctionTable(),
		log:       commonlog.GetLogger("mirrow.compiler"),
	}
}

// Compile compiles prog. A Compiler is single use.
func (c *Compiler) Compile(prog *Program) (*vm.Artifact, error) {
	if err := c.declare(prog.Statements, 0); err != nil {
		return nil, err
	}

	if len(prog.Statements) > 0 {
		if err := c.compileBlock(prog.Statements); err != nil {
			return nil, err
		}
	}
	c.emit(vm.Simple(vm.OpHalt))

	art := &vm.Artifact{
		Constants:    c.constants.Values(),
		Functions:    c.functions.Entries(),
		Instructions: c.code,
		Lines:        c.lines,
		Globals:      c.scopes.Globals(),
	}
	c.log.Debugf("compiled %d instructions, %d constants, %d functions",
		len(art.Instructions), len(art.Constants), len(art.Functions))
	return art, nil
}

func (c *Compiler) errorf(err error, format string, args ...interface{}) error {
	return &CompileError{Line: c.line, Err: fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))}
}

func (c *Compiler) emit(in vm.Instruction) int {
	c.code = append(c.code, in)
	c.lines = append(c.lines, c.line)
	return len(c.code) - 1
}

// patch points the jump at index at to the next instruction to be emitted.
func (c *Compiler) patch(at int) {
	c.code[at].A = len(c.code)
}

// at attributes subsequently emitted code to n's line and returns a
// function restoring the previous line.
func (c *Compiler) at(n Node) func() {
	prev := c.line
	if l := n.Span().Line(); l > 0 {
		c.line = l
	}
	return func() { c.line = prev }
}

// ---------------------------------------------------------------------------
// Pass 1: declaration collection
// ---------------------------------------------------------------------------

func (c *Compiler) declare(stmts []Stmt, depth int) error {
	for _, s := range stmts {
		restore := c.at(s)
		var err error
		switch s := s.(type) {
		case *FuncStmt:
			if _, err = c.functions.Declare(s, depth+1); err == nil {
				err = c.declare(s.Body, depth+1)
			}
			if err != nil && !isCompileError(err) {
				err = &CompileError{Line: c.line, Err: err}
			}
		case *LetStmt:
			err = c.declareExpr(s.Value, depth)
		case *ExprStmt:
			err = c.declareExpr(s.Expr, depth)
		}
		restore()
		if err != nil {
			return err
		}
	}
	return nil
}

// declareExpr finds functions declared inside if branches.
func (c *Compiler) declareExpr(e Expr, depth int) error {
	switch e := e.(type) {
	case *IfExpr:
		if err := c.declareExpr(e.Cond, depth); err != nil {
			return err
		}
		if err := c.declare(e.Then, depth); err != nil {
			return err
		}
		return c.declare(e.Else, depth)
	case *BinaryExpr:
		if err := c.declareExpr(e.Left, depth); err != nil {
			return err
		}
		return c.declareExpr(e.Right, depth)
	case *UnaryExpr:
		return c.declareExpr(e.Operand, depth)
	case *PipelineExpr:
		if err := c.declareExpr(e.Left, depth); err != nil {
			return err
		}
		return c.declareExpr(e.Right, depth)
	case *CallExpr:
		for _, a := range e.Args {
			if err := c.declareExpr(a, depth); err != nil {
				return err
			}
		}
	case *ArrayLiteral:
		for _, el := range e.Elements {
			if err := c.declareExpr(el, depth); err != nil {
				return err
			}
		}
	}
	return nil
}

// legacyLookup reports whether reads may reach into enclosing functions.
func (c *Compiler) legacyLookup() bool {
	return c.opts.DynamicScoping || c.opts.ImplicitBindings
}

func isCompileError(err error) bool {
	_, ok := err.(*CompileError)
	return ok
}

// ---------------------------------------------------------------------------
// Pass 2: emission
// ---------------------------------------------------------------------------

// compileBlock compiles a statement sequence that leaves exactly one value:
// the value of its last statement, or null when empty.
func (c *Compiler) compileBlock(stmts []Stmt) error {
	if len(stmts) == 0 {
		c.emit(vm.Push(vm.NullValue()))
		return nil
	}
	for i, s := range stmts {
		if err := c.compileStmt(s, i == len(stmts)-1); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileStmt(s Stmt, last bool) error {
	defer c.at(s)()

	switch s := s.(type) {
	case *LetStmt:
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
		b, err := c.scopes.Bind(s.Name)
		if err != nil {
			return c.errorf(err, "%s is already declared in this scope", s.Name)
		}
		c.emit(vm.StoreVar(b.Depth, b.Slot, s.Name))
		if last {
			c.emit(vm.LoadVar(b.Depth, b.Slot, s.Name))
		}

	case *FuncStmt:
		entry, err := c.compileFunc(s)
		if err != nil {
			return err
		}
		if last {
			c.emit(vm.Push(vm.FunctionValue(s.Params, entry)))
		}

	case *ExprStmt:
		if err := c.compileExpr(s.Expr); err != nil {
			return err
		}
		if !last {
			c.emit(vm.Simple(vm.OpPop))
		}

	default:
		return c.errorf(ErrMalformedConstant, "unsupported statement %T", s)
	}
	return nil
}

// compileFunc lays out a function body inline, behind a jump that ordinary
// execution takes over it, and returns the entry offset.
func (c *Compiler) compileFunc(fn *FuncStmt) (int, error) {
	idx, ok := c.functions.IndexOf(fn)
	if !ok {
		return 0, c.errorf(ErrUnresolvedCall, "function %s was not declared", fn.Name)
	}

	skip := c.emit(vm.Jump(0))

	c.scopes.Enter()
	for _, p := range fn.Params {
		c.scopes.BindParam(p)
	}
	entry := len(c.code)
	if len(fn.Params) > 0 {
		c.emit(vm.LoadArg(len(fn.Params)))
	}
	if err := c.compileBlock(fn.Body); err != nil {
		return 0, err
	}
	c.emit(vm.Simple(vm.OpReturn))
	c.scopes.Leave()

	c.functions.SetEntry(idx, entry)
	c.patch(skip)
	return entry, nil
}

func (c *Compiler) compileExpr(e Expr) error {
	defer c.at(e)()

	switch e := e.(type) {
	case *NumberLiteral:
		return c.compileConstant(vm.NumberValue(e.Value))

	case *StringLiteral:
		return c.compileConstant(vm.StringValue(e.Value))

	case *BooleanLiteral:
		c.emit(vm.Push(vm.BoolValue(e.Value)))

	case *Identifier:
		b, ok := c.scopes.Resolve(e.Name)
		if !ok {
			if !c.opts.ImplicitBindings {
				if _, isFunc := c.functions.Lookup(e.Name); isFunc {
					return c.errorf(ErrUnboundVariable, "%s is a function; functions can only be called", e.Name)
				}
				return c.errorf(ErrUnboundVariable, "%s", e.Name)
			}
			b = c.scopes.ResolveOrBind(e.Name)
		}
		if b.Depth > 0 && b.Depth < c.scopes.Depth() && !c.legacyLookup() {
			return c.errorf(ErrUnboundVariable, "%s is a local of an enclosing function; cannot capture outer local", e.Name)
		}
		c.emit(vm.LoadVar(b.Depth, b.Slot, e.Name))

	case *UnaryExpr:
		return c.compileUnary(e)

	case *BinaryExpr:
		return c.compileBinary(e)

	case *CallExpr:
		return c.compileCall(e.Callee, e.Args)

	case *PipelineExpr:
		switch r := e.Right.(type) {
		case *CallExpr:
			args := append([]Expr{e.Left}, r.Args...)
			return c.compileCall(r.Callee, args)
		case *Identifier:
			return c.compileCall(r.Name, []Expr{e.Left})
		default:
			return c.errorf(ErrInvalidPipeline, "right side of |> must be a function call or name, got %T", e.Right)
		}

	case *ArrayLiteral:
		for _, el := range e.Elements {
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		c.emit(vm.CreateArray(len(e.Elements)))

	case *IfExpr:
		return c.compileIf(e)

	default:
		return c.errorf(ErrMalformedConstant, "unsupported expression %T", e)
	}
	return nil
}

func (c *Compiler) compileConstant(v vm.Value) error {
	idx, err := c.constants.Add(v)
	if err != nil {
		return &CompileError{Line: c.line, Err: err}
	}
	c.emit(vm.LoadConst(idx))
	return nil
}

func (c *Compiler) compileUnary(e *UnaryExpr) error {
	if e.Op == UnaryNot {
		if err := c.compileExpr(e.Operand); err != nil {
			return err
		}
		c.emit(vm.Simple(vm.OpNot))
		return nil
	}

	if lit, ok := e.Operand.(*NumberLiteral); ok {
		return c.compileConstant(vm.NumberValue(-lit.Value))
	}
	c.emit(vm.Push(vm.NumberValue(0)))
	if err := c.compileExpr(e.Operand); err != nil {
		return err
	}
	c.emit(vm.Simple(vm.OpSub))
	return nil
}

var binaryOpcodes = map[BinaryOp][]vm.Opcode{
	BinaryAdd: {vm.OpAdd},
	BinarySub: {vm.OpSub},
	BinaryMul: {vm.OpMul},
	BinaryDiv: {vm.OpDiv},
	BinaryEq:  {vm.OpEqual},
	BinaryNe:  {vm.OpEqual, vm.OpNot},
	BinaryLt:  {vm.OpLess},
	BinaryGt:  {vm.OpGreater},
	BinaryLe:  {vm.OpGreater, vm.OpNot},
	BinaryGe:  {vm.OpLess, vm.OpNot},
}

func (c *Compiler) compileBinary(e *BinaryExpr) error {
	if err := c.compileExpr(e.Left); err != nil {
		return err
	}

	if e.Op == BinaryAnd || e.Op == BinaryOr {
		// left; dup; jump-if-(false|true) end; pop; right; end:
		c.emit(vm.Simple(vm.OpDup))
		var jump int
		if e.Op == BinaryAnd {
			jump = c.emit(vm.JumpIfFalse(0))
		} else {
			jump = c.emit(vm.JumpIfTrue(0))
		}
		c.emit(vm.Simple(vm.OpPop))
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		c.patch(jump)
		return nil
	}

	ops, ok := binaryOpcodes[e.Op]
	if !ok {
		return c.errorf(ErrMalformedConstant, "unsupported operator %s", e.Op)
	}
	if err := c.compileExpr(e.Right); err != nil {
		return err
	}
	for _, op := range ops {
		c.emit(vm.Simple(op))
	}
	return nil
}

// compileCall pushes args right to left and calls name.
func (c *Compiler) compileCall(name string, args []Expr) error {
	idx, ok := c.functions.Lookup(name)
	if !ok {
		return c.errorf(ErrUnresolvedCall, "no function named %s", name)
	}
	fn := c.functions.Get(idx)
	if len(args) != fn.Arity() {
		return c.errorf(ErrArityMismatch, "%s takes %d arguments, got %d", name, fn.Arity(), len(args))
	}
	for i := len(args) - 1; i >= 0; i-- {
		if err := c.compileExpr(args[i]); err != nil {
			return err
		}
	}
	c.emit(vm.Call(idx, name))
	return nil
}

// compileIf emits cond; jump-if-false else; then; jump end; else: else; end:
// A missing else branch yields null.
func (c *Compiler) compileIf(e *IfExpr) error {
	if err := c.compileExpr(e.Cond); err != nil {
		return err
	}
	toElse := c.emit(vm.JumpIfFalse(0))

	c.scopes.EnterBlock()
	err := c.compileBlock(e.Then)
	c.scopes.Leave()
	if err != nil {
		return err
	}
	toEnd := c.emit(vm.Jump(0))
	c.patch(toElse)

	if e.Else == nil {
		c.emit(vm.Push(vm.NullValue()))
	} else {
		c.scopes.EnterBlock()
		err := c.compileBlock(e.Else)
		c.scopes.Leave()
		if err != nil {
			return err
		}
	}
	c.patch(toEnd)
	return nil
}

// ---------------------------------------------------------------------------
// Compile helpers for external use
// ---------------------------------------------------------------------------

// Compile compiles a parsed program.
func Compile(prog *Program, opts Options) (*vm.Artifact, error) {
	return NewCompiler(opts).Compile(prog)
}

// CompileSource parses and compiles source code.
func CompileSource(source string, opts Options) (*vm.Artifact, error) {
	prog, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return Compile(prog, opts)
}
