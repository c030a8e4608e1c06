package plan

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/daviszhen/pipegen/pkg/common"
)

type ET int

const (
	ET_Column ET = iota //column
	ET_Func             //operator
	ET_Agg              //aggregate function

	ET_IConst //integer
	ET_FConst //float
	ET_SConst //string
	ET_BConst //bool
)

func (et ET) String() string {
	switch et {
	case ET_Column:
		return "column"
	case ET_Func:
		return "func"
	case ET_Agg:
		return "agg"
	case ET_IConst:
		return "iconst"
	case ET_FConst:
		return "fconst"
	case ET_SConst:
		return "sconst"
	case ET_BConst:
		return "bconst"
	default:
		panic(fmt.Sprintf("usp %d", int(et)))
	}
}

type ET_SubTyp int

const (
	ET_Invalid ET_SubTyp = iota
	//operator
	ET_Add
	ET_Sub
	ET_Mul
	ET_Div
	ET_Equal
	ET_NotEqual
	ET_Greater
	ET_GreaterEqual
	ET_Less
	ET_LessEqual
	ET_And
	ET_Or
	ET_Not
	//aggregate
	ET_Count
	ET_Sum
	ET_Avg
	ET_Min
	ET_Max
)

func (et ET_SubTyp) String() string {
	switch et {
	case ET_Add:
		return "+"
	case ET_Sub:
		return "-"
	case ET_Mul:
		return "*"
	case ET_Div:
		return "/"
	case ET_Equal:
		return "="
	case ET_NotEqual:
		return "<>"
	case ET_Greater:
		return ">"
	case ET_GreaterEqual:
		return ">="
	case ET_Less:
		return "<"
	case ET_LessEqual:
		return "<="
	case ET_And:
		return "and"
	case ET_Or:
		return "or"
	case ET_Not:
		return "not"
	case ET_Count:
		return "count"
	case ET_Sum:
		return "sum"
	case ET_Avg:
		return "avg"
	case ET_Min:
		return "min"
	case ET_Max:
		return "max"
	default:
		panic(fmt.Sprintf("usp %d", int(et)))
	}
}

func (et ET_SubTyp) IsArith() bool {
	return et >= ET_Add && et <= ET_Div
}

func (et ET_SubTyp) IsCompare() bool {
	return et >= ET_Equal && et <= ET_LessEqual
}

type Expr struct {
	Typ      ET
	SubTyp   ET_SubTyp
	DataTyp  common.LType
	ColIdx   int //ordinal of the column in the input of the node
	Name     string
	Alias    string
	Ivalue   int64
	Fvalue   float64
	Svalue   string
	Bvalue   bool
	Star     bool //count(*)
	Children []*Expr
}

func (e *Expr) OutputName() string {
	if e.Alias != "" {
		return e.Alias
	}
	if e.Typ == ET_Column && e.Name != "" {
		return e.Name
	}
	return e.String()
}

func (e *Expr) String() string {
	switch e.Typ {
	case ET_Column:
		if e.Name != "" {
			return fmt.Sprintf("%s#%d", e.Name, e.ColIdx)
		}
		return fmt.Sprintf("#%d", e.ColIdx)
	case ET_IConst:
		return fmt.Sprintf("%d", e.Ivalue)
	case ET_FConst:
		return fmt.Sprintf("%g", e.Fvalue)
	case ET_SConst:
		return fmt.Sprintf("'%s'", e.Svalue)
	case ET_BConst:
		return fmt.Sprintf("%v", e.Bvalue)
	case ET_Agg:
		if e.Star {
			return fmt.Sprintf("%s(*)", e.SubTyp)
		}
		return fmt.Sprintf("%s(%s)", e.SubTyp, e.Children[0])
	case ET_Func:
		switch e.SubTyp {
		case ET_Not:
			return fmt.Sprintf("not (%s)", e.Children[0])
		case ET_And, ET_Or:
			parts := make([]string, 0, len(e.Children))
			for _, child := range e.Children {
				parts = append(parts, child.String())
			}
			return "(" + strings.Join(parts, fmt.Sprintf(" %s ", e.SubTyp)) + ")"
		default:
			return fmt.Sprintf("(%s %s %s)", e.Children[0], e.SubTyp, e.Children[1])
		}
	default:
		panic(fmt.Sprintf("usp %v", e.Typ))
	}
}

func (e *Expr) Print(tree treeprint.Tree, meta string) {
	head := fmt.Sprintf("%s %s", e.String(), e.DataTyp)
	if meta != "" {
		tree.AddMetaNode(meta, head)
	} else {
		tree.AddNode(head)
	}
}

// SplitAnd flattens nested conjunctions.
func SplitAnd(e *Expr) []*Expr {
	if e.Typ == ET_Func && e.SubTyp == ET_And {
		ret := make([]*Expr, 0)
		for _, child := range e.Children {
			ret = append(ret, SplitAnd(child)...)
		}
		return ret
	}
	return []*Expr{e}
}

// Walk visits e and its descendants depth first.
func Walk(e *Expr, fun func(*Expr)) {
	fun(e)
	for _, child := range e.Children {
		Walk(child, fun)
	}
}
