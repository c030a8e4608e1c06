package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Render prints p as Go-like pseudo source.
func Render(p *Program) string {
	w := &writer{}
	for _, g := range p.Globals {
		w.line("var %s %s", g.Var.Name, g.Var.Kind)
	}
	if len(p.Init) != 0 {
		w.line("func init() {")
		w.block(p.Init)
		w.line("}")
	}
	w.line("func execute() {")
	w.block(p.Body)
	w.line("}")
	return w.String()
}

// RenderStmt prints a single statement without nested bodies.
func RenderStmt(s Stmt) string {
	w := &writer{}
	w.stmt(s, false)
	return strings.TrimSpace(w.String())
}

func RenderExpr(e Expr) string {
	switch ex := e.(type) {
	case *Const:
		return renderConst(ex)
	case *Ref:
		return ex.Var.Name
	case *Index:
		return fmt.Sprintf("%s.(%s)[%s]", RenderExpr(ex.Vec), ex.Elem, RenderExpr(ex.Pos))
	case *Binary:
		return fmt.Sprintf("(%s %s %s)", RenderExpr(ex.L), ex.Op, RenderExpr(ex.R))
	case *Unary:
		if ex.Op == OpNot {
			return "!" + RenderExpr(ex.X)
		}
		return "-" + RenderExpr(ex.X)
	case *Convert:
		return fmt.Sprintf("%s(%s)", ex.To, RenderExpr(ex.X))
	case *Call:
		args := make([]string, 0, len(ex.Args))
		for _, arg := range ex.Args {
			args = append(args, RenderExpr(arg))
		}
		return fmt.Sprintf("%s(%s)", ex.Fn, strings.Join(args, ", "))
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("<%T>", e)
	}
}

func renderConst(c *Const) string {
	switch v := c.Val.(type) {
	case nil:
		return "nil"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		switch {
		case math.IsNaN(v):
			return "math.NaN()"
		case math.IsInf(v, 1):
			return "math.Inf(1)"
		case math.IsInf(v, -1):
			return "math.Inf(-1)"
		}
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case bool:
		return strconv.FormatBool(v)
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

type writer struct {
	sb     strings.Builder
	indent int
}

func (w *writer) line(format string, args ...any) {
	w.sb.WriteString(strings.Repeat("\t", w.indent))
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

func (w *writer) block(stmts []Stmt) {
	w.indent++
	for _, s := range stmts {
		w.stmt(s, true)
	}
	w.indent--
}

func (w *writer) stmt(s Stmt, nested bool) {
	switch st := s.(type) {
	case *Declare:
		if st.Init == nil {
			w.line("var %s %s", st.Var.Name, st.Var.Kind)
		} else {
			w.line("%s := %s", st.Var.Name, RenderExpr(st.Init))
		}
	case *Assign:
		w.line("%s = %s", st.Var.Name, RenderExpr(st.Val))
	case *Store:
		w.line("%s.(%s)[%s] = %s", RenderExpr(st.Vec), st.Elem, RenderExpr(st.Pos), RenderExpr(st.Val))
	case *If:
		w.line("if %s {", RenderExpr(st.Cond))
		if nested {
			w.block(st.Then)
			if len(st.Else) != 0 {
				w.line("} else {")
				w.block(st.Else)
			}
			w.line("}")
		}
	case *While:
		w.line("for %s {", RenderExpr(st.Cond))
		if nested {
			w.block(st.Body)
			w.line("}")
		}
	case *For:
		w.line("for %s := %s; %s < %s; %s++ {",
			st.Var.Name, RenderExpr(st.From), st.Var.Name, RenderExpr(st.To), st.Var.Name)
		if nested {
			w.block(st.Body)
			w.line("}")
		}
	case *Do:
		w.line("%s", RenderExpr(st.Call))
	case *Break:
		w.line("break")
	case *Comment:
		w.line("// %s", st.Text)
	default:
		w.line("<%T>", s)
	}
}

func (w *writer) String() string {
	return w.sb.String()
}
