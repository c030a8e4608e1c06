package ir

type Stmt interface {
	stmt()
}

// Declare introduces Var. A nil Init means the zero value.
type Declare struct {
	Var  *Var
	Init Expr
}

type Assign struct {
	Var *Var
	Val Expr
}

// Store writes Val into element Pos of the vector Vec.
type Store struct {
	Vec  Expr
	Pos  Expr
	Val  Expr
	Elem VecType
}

type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

type While struct {
	Cond Expr
	Body []Stmt
}

// For runs Body with Var going from From up to To, exclusive.
type For struct {
	Var      *Var
	From, To Expr
	Body     []Stmt
}

// Do evaluates a call for its side effects.
type Do struct {
	Call *Call
}

// Break leaves the innermost While or For.
type Break struct{}

type Comment struct {
	Text string
}

func (*Declare) stmt() {}
func (*Assign) stmt()  {}
func (*Store) stmt()   {}
func (*If) stmt()      {}
func (*While) stmt()   {}
func (*For) stmt()     {}
func (*Do) stmt()      {}
func (*Break) stmt()   {}
func (*Comment) stmt() {}

// Global is a variable bound to a host value before the program runs.
type Global struct {
	Var   *Var
	Value any
}

// Program is a compiled unit. Init runs once when the unit is loaded; Body
// runs on every invocation. Variables declared in Init stay visible to Body.
type Program struct {
	Globals []*Global
	Init    []Stmt
	Body    []Stmt
}

// Count is the number of statements, nested ones included.
func (p *Program) Count() int {
	return countStmts(p.Init) + countStmts(p.Body)
}

func countStmts(stmts []Stmt) int {
	n := 0
	for _, s := range stmts {
		n++
		switch st := s.(type) {
		case *If:
			n += countStmts(st.Then) + countStmts(st.Else)
		case *While:
			n += countStmts(st.Body)
		case *For:
			n += countStmts(st.Body)
		}
	}
	return n
}
