// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package backend loads ir programs by compiling every statement and
// expression into a Go closure over a frame of typed slots. Programs are
// type checked while they are compiled; intrinsic calls go through the
// registry of this package.
package backend

import (
	"fmt"

	"github.com/daviszhen/pipegen/pkg/ir"
	"github.com/daviszhen/pipegen/pkg/util"
)

// frame holds the variables of one loaded program, one slice per kind.
type frame struct {
	ints   []int64
	floats []float64
	bools  []bool
	strs   []string
	objs   []any
}

type slot struct {
	kind ir.Kind
	idx  int
}

// stmtFn runs a statement and reports whether a Break left it.
type stmtFn func(f *frame) bool

type Closure struct{}

func New() *Closure {
	return &Closure{}
}

var _ ir.Backend = &Closure{}

type compiler struct {
	slots  map[string]slot
	counts [ir.KObj + 1]int
	cur    ir.Stmt
	loops  int
}

func (c *compiler) failf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if c.cur != nil {
		return util.CompilationFailuref("%s in %s", msg, ir.RenderStmt(c.cur))
	}
	return util.CompilationFailuref("%s", msg)
}

func (c *compiler) declare(v *ir.Var) (slot, error) {
	if v.Kind == ir.KVoid {
		return slot{}, c.failf("void variable %s", v.Name)
	}
	if _, has := c.slots[v.Name]; has {
		return slot{}, c.failf("%s declared twice", v.Name)
	}
	s := slot{kind: v.Kind, idx: c.counts[v.Kind]}
	c.counts[v.Kind]++
	c.slots[v.Name] = s
	return s, nil
}

func (c *compiler) lookup(v *ir.Var) (slot, error) {
	s, has := c.slots[v.Name]
	if !has {
		return slot{}, c.failf("undeclared variable %s", v.Name)
	}
	if s.kind != v.Kind {
		return slot{}, c.failf("%s used as %s, declared as %s", v.Name, v.Kind, s.kind)
	}
	return s, nil
}

// Compile type checks p, builds the closures and runs Init once.
func (cl *Closure) Compile(p *ir.Program) (ir.Executable, error) {
	c := &compiler{slots: make(map[string]slot)}
	globals := make([]slot, 0, len(p.Globals))
	for _, g := range p.Globals {
		if g.Var.Kind != ir.KObj {
			return nil, c.failf("global %s of kind %s", g.Var.Name, g.Var.Kind)
		}
		s, err := c.declare(g.Var)
		if err != nil {
			return nil, err
		}
		globals = append(globals, s)
	}
	init, err := c.block(p.Init)
	if err != nil {
		return nil, err
	}
	body, err := c.block(p.Body)
	if err != nil {
		return nil, err
	}
	exec := &Executable{
		frame: &frame{
			ints:   make([]int64, c.counts[ir.KInt]),
			floats: make([]float64, c.counts[ir.KFloat]),
			bools:  make([]bool, c.counts[ir.KBool]),
			strs:   make([]string, c.counts[ir.KString]),
			objs:   make([]any, c.counts[ir.KObj]),
		},
		body: body,
	}
	for i, g := range p.Globals {
		exec.frame.objs[globals[i].idx] = g.Value
	}
	if err = exec.run(init); err != nil {
		return nil, err
	}
	return exec, nil
}

// Executable is a loaded program. Variables declared by Init keep their
// values across runs.
type Executable struct {
	frame *frame
	body  stmtFn
}

func (exec *Executable) run(fn stmtFn) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = util.RecoverError(r)
		}
	}()
	fn(exec.frame)
	return nil
}

func (exec *Executable) Execute() error {
	return exec.run(exec.body)
}

func (c *compiler) block(stmts []ir.Stmt) (stmtFn, error) {
	fns := make([]stmtFn, 0, len(stmts))
	for _, s := range stmts {
		fn, err := c.stmt(s)
		if err != nil {
			return nil, err
		}
		if fn != nil {
			fns = append(fns, fn)
		}
	}
	return func(f *frame) bool {
		for _, fn := range fns {
			if fn(f) {
				return true
			}
		}
		return false
	}, nil
}

func (c *compiler) stmt(s ir.Stmt) (stmtFn, error) {
	c.cur = s
	switch st := s.(type) {
	case *ir.Comment:
		return nil, nil
	case *ir.Declare:
		var val *expr
		if st.Init != nil {
			var err error
			if val, err = c.expr(st.Init); err != nil {
				return nil, err
			}
			if val.kind != st.Var.Kind {
				return nil, c.failf("%s of kind %s initialized with %s", st.Var.Name, st.Var.Kind, val.kind)
			}
		}
		sl, err := c.declare(st.Var)
		if err != nil {
			return nil, err
		}
		if val == nil {
			val = zero(st.Var.Kind)
		}
		return assign(sl, val), nil
	case *ir.Assign:
		sl, err := c.lookup(st.Var)
		if err != nil {
			return nil, err
		}
		val, err := c.expr(st.Val)
		if err != nil {
			return nil, err
		}
		if val.kind != sl.kind {
			return nil, c.failf("assign %s to %s of kind %s", val.kind, st.Var.Name, sl.kind)
		}
		return assign(sl, val), nil
	case *ir.Store:
		return c.store(st)
	case *ir.If:
		cond, err := c.expr(st.Cond)
		if err != nil {
			return nil, err
		}
		if cond.kind != ir.KBool {
			return nil, c.failf("condition of kind %s", cond.kind)
		}
		then, err := c.block(st.Then)
		if err != nil {
			return nil, err
		}
		els, err := c.block(st.Else)
		if err != nil {
			return nil, err
		}
		return func(f *frame) bool {
			if cond.b(f) {
				return then(f)
			}
			return els(f)
		}, nil
	case *ir.While:
		cond, err := c.expr(st.Cond)
		if err != nil {
			return nil, err
		}
		if cond.kind != ir.KBool {
			return nil, c.failf("condition of kind %s", cond.kind)
		}
		c.loops++
		body, err := c.block(st.Body)
		c.loops--
		if err != nil {
			return nil, err
		}
		return func(f *frame) bool {
			for cond.b(f) {
				if body(f) {
					break
				}
			}
			return false
		}, nil
	case *ir.For:
		return c.forLoop(st)
	case *ir.Do:
		call, err := c.call(st.Call)
		if err != nil {
			return nil, err
		}
		return func(f *frame) bool {
			call(f)
			return false
		}, nil
	case *ir.Break:
		if c.loops == 0 {
			return nil, c.failf("break outside a loop")
		}
		return func(f *frame) bool {
			return true
		}, nil
	default:
		return nil, c.failf("usp statement %T", s)
	}
}

func (c *compiler) forLoop(st *ir.For) (stmtFn, error) {
	from, err := c.expr(st.From)
	if err != nil {
		return nil, err
	}
	to, err := c.expr(st.To)
	if err != nil {
		return nil, err
	}
	if from.kind != ir.KInt || to.kind != ir.KInt {
		return nil, c.failf("loop bounds of kind %s and %s", from.kind, to.kind)
	}
	if st.Var.Kind != ir.KInt {
		return nil, c.failf("loop variable %s of kind %s", st.Var.Name, st.Var.Kind)
	}
	sl, err := c.declare(st.Var)
	if err != nil {
		return nil, err
	}
	c.loops++
	body, err := c.block(st.Body)
	c.loops--
	if err != nil {
		return nil, err
	}
	idx := sl.idx
	return func(f *frame) bool {
		end := to.i(f)
		for i := from.i(f); i < end; i++ {
			f.ints[idx] = i
			if body(f) {
				break
			}
		}
		return false
	}, nil
}

func (c *compiler) store(st *ir.Store) (stmtFn, error) {
	vec, err := c.expr(st.Vec)
	if err != nil {
		return nil, err
	}
	pos, err := c.expr(st.Pos)
	if err != nil {
		return nil, err
	}
	val, err := c.expr(st.Val)
	if err != nil {
		return nil, err
	}
	if vec.kind != ir.KObj || pos.kind != ir.KInt || val.kind != st.Elem.Elem() {
		return nil, c.failf("store of %s into %s", val.kind, st.Elem)
	}
	switch st.Elem {
	case ir.VecInt32:
		return func(f *frame) bool {
			vec.o(f).([]int32)[pos.i(f)] = int32(val.i(f))
			return false
		}, nil
	case ir.VecInt64:
		return func(f *frame) bool {
			vec.o(f).([]int64)[pos.i(f)] = val.i(f)
			return false
		}, nil
	case ir.VecFloat64:
		return func(f *frame) bool {
			vec.o(f).([]float64)[pos.i(f)] = val.f(f)
			return false
		}, nil
	default:
		return func(f *frame) bool {
			vec.o(f).([]string)[pos.i(f)] = val.s(f)
			return false
		}, nil
	}
}

func assign(sl slot, val *expr) stmtFn {
	idx := sl.idx
	switch sl.kind {
	case ir.KInt:
		return func(f *frame) bool {
			f.ints[idx] = val.i(f)
			return false
		}
	case ir.KFloat:
		return func(f *frame) bool {
			f.floats[idx] = val.f(f)
			return false
		}
	case ir.KBool:
		return func(f *frame) bool {
			f.bools[idx] = val.b(f)
			return false
		}
	case ir.KString:
		return func(f *frame) bool {
			f.strs[idx] = val.s(f)
			return false
		}
	default:
		return func(f *frame) bool {
			f.objs[idx] = val.o(f)
			return false
		}
	}
}
