package compute

import (
	"fmt"

	"github.com/daviszhen/pipegen/pkg/common"
	"github.com/daviszhen/pipegen/pkg/ir"
	"github.com/daviszhen/pipegen/pkg/util"
)

// Context collects the program emitted by one code generation pass. It
// mints variable names, keeps the stack of open statement blocks and holds
// the ordinal mapping and batch shape flowing between operators.
type Context struct {
	paradigm Paradigm
	opts     Options
	env      Env
	counter  int
	names    map[string]struct{}
	globals  []*ir.Global
	init     []ir.Stmt
	blocks   []*[]ir.Stmt
	mapping  OrdinalMapping
	shape    BatchShape
	alloc    *ir.Var
	sink     *ir.Var
}

// NewContext starts an empty program with the allocation manager and the
// result sink of env bound as globals.
func NewContext(paradigm Paradigm, opts Options, env Env) *Context {
	ctx := &Context{
		paradigm: paradigm,
		opts:     opts,
		env:      env,
		names:    make(map[string]struct{}),
	}
	body := make([]ir.Stmt, 0)
	ctx.blocks = append(ctx.blocks, &body)
	ctx.alloc = ctx.Bind("alloc", env.Alloc)
	ctx.sink = ctx.Bind("sink", env.Sink)
	return ctx
}

func (ctx *Context) Paradigm() Paradigm {
	return ctx.paradigm
}

func (ctx *Context) Options() Options {
	return ctx.opts
}

func (ctx *Context) BatchSize() int {
	return ctx.opts.BatchSize
}

// NewVar mints a variable whose name is unique in the program.
func (ctx *Context) NewVar(prefix string, kind ir.Kind) *ir.Var {
	name := fmt.Sprintf("%s_%d", prefix, ctx.counter)
	ctx.counter++
	_, dup := ctx.names[name]
	util.AssertFunc(!dup)
	ctx.names[name] = struct{}{}
	return &ir.Var{Name: name, Kind: kind}
}

// Bind makes a host value visible to the program as a global object.
func (ctx *Context) Bind(prefix string, value any) *ir.Var {
	v := ctx.NewVar(prefix, ir.KObj)
	ctx.globals = append(ctx.globals, &ir.Global{Var: v, Value: value})
	return v
}

func (ctx *Context) AllocVar() *ir.Var {
	return ctx.alloc
}

func (ctx *Context) SinkVar() *ir.Var {
	return ctx.sink
}

// Emit appends statements to the innermost open block.
func (ctx *Context) Emit(stmts ...ir.Stmt) {
	top := ctx.blocks[len(ctx.blocks)-1]
	*top = append(*top, stmts...)
}

// EmitInit appends statements to the section run once per compiled unit.
func (ctx *Context) EmitInit(stmts ...ir.Stmt) {
	ctx.init = append(ctx.init, stmts...)
}

// Declare emits a declaration of a fresh variable initialized to init.
func (ctx *Context) Declare(prefix string, init ir.Expr) *ir.Var {
	v := ctx.NewVar(prefix, init.Kind())
	ctx.Emit(&ir.Declare{Var: v, Init: init})
	return v
}

// DeclareInit declares a fresh variable in the init section.
func (ctx *Context) DeclareInit(prefix string, init ir.Expr) *ir.Var {
	v := ctx.NewVar(prefix, init.Kind())
	ctx.EmitInit(&ir.Declare{Var: v, Init: init})
	return v
}

func (ctx *Context) Assign(v *ir.Var, val ir.Expr) {
	ctx.Emit(&ir.Assign{Var: v, Val: val})
}

// Do emits a call of intrinsic fn for its side effects.
func (ctx *Context) Do(fn string, args ...ir.Expr) {
	ctx.Emit(&ir.Do{Call: ir.Fn(fn, args...)})
}

func (ctx *Context) Comment(format string, args ...any) {
	ctx.Emit(&ir.Comment{Text: fmt.Sprintf(format, args...)})
}

// Nest runs gen with a fresh block open and returns what it emitted.
func (ctx *Context) Nest(gen func() error) ([]ir.Stmt, error) {
	block := make([]ir.Stmt, 0)
	ctx.blocks = append(ctx.blocks, &block)
	err := gen()
	ctx.blocks = ctx.blocks[:len(ctx.blocks)-1]
	return block, err
}

func (ctx *Context) Mapping() OrdinalMapping {
	return ctx.mapping
}

func (ctx *Context) SetMapping(mapping OrdinalMapping) {
	ctx.mapping = mapping
}

func (ctx *Context) Shape() BatchShape {
	return ctx.shape
}

func (ctx *Context) SetShape(shape BatchShape) {
	ctx.shape = shape
}

// scratch is a batch-sized vector checked out of the allocation manager by
// generated code. Every scratch vector must be released on the same path.
func (ctx *Context) scratch(typ common.LType) *ir.Var {
	var fn string
	switch typ.Id {
	case common.LTID_INTEGER:
		fn = ir.FnAllocInts
	case common.LTID_BIGINT:
		fn = ir.FnAllocLongs
	case common.LTID_DOUBLE:
		fn = ir.FnAllocDoubles
	case common.LTID_VARCHAR:
		fn = ir.FnAllocStrings
	default:
		panic(fmt.Sprintf("usp scratch %v", typ))
	}
	return ctx.Declare("buf", ir.Fn(fn, ir.R(ctx.alloc)))
}

func (ctx *Context) selScratch() *ir.Var {
	return ctx.Declare("sel", ir.Fn(ir.FnAllocInts, ir.R(ctx.alloc)))
}

func (ctx *Context) release(bufs ...*ir.Var) {
	for _, buf := range bufs {
		ctx.Do(ir.FnRelease, ir.R(ctx.alloc), ir.R(buf))
	}
}

// Program returns everything emitted so far.
func (ctx *Context) Program() *ir.Program {
	util.AssertFunc(len(ctx.blocks) == 1)
	return &ir.Program{
		Globals: ctx.globals,
		Init:    ctx.init,
		Body:    *ctx.blocks[0],
	}
}
