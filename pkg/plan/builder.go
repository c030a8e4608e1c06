package plan

import (
	"github.com/daviszhen/pipegen/pkg/common"
)

func Scan(table string, columns []string, types []common.LType) *LogicalOperator {
	return &LogicalOperator{
		Typ:     LOT_Scan,
		Table:   table,
		Columns: columns,
		Types:   types,
	}
}

// Filter keeps rows where every condition holds.
func Filter(child *LogicalOperator, conds ...*Expr) *LogicalOperator {
	filters := make([]*Expr, 0, len(conds))
	for _, cond := range conds {
		filters = append(filters, SplitAnd(cond)...)
	}
	return &LogicalOperator{
		Typ:      LOT_Filter,
		Children: []*LogicalOperator{child},
		Filters:  filters,
	}
}

func Project(child *LogicalOperator, exprs ...*Expr) *LogicalOperator {
	return &LogicalOperator{
		Typ:      LOT_Project,
		Children: []*LogicalOperator{child},
		Projects: exprs,
	}
}

// Aggregate outputs the group columns followed by the aggregates.
func Aggregate(child *LogicalOperator, groupBys []*Expr, aggs ...*Expr) *LogicalOperator {
	return &LogicalOperator{
		Typ:      LOT_AggGroup,
		Children: []*LogicalOperator{child},
		GroupBys: groupBys,
		Aggs:     aggs,
	}
}

// Join outputs the columns of left followed by the columns of right. conds
// are equalities whose left side reads left and right side reads right.
func Join(left, right *LogicalOperator, typ LOT_JoinType, conds ...*Expr) *LogicalOperator {
	return &LogicalOperator{
		Typ:      LOT_JOIN,
		Children: []*LogicalOperator{left, right},
		JoinTyp:  typ,
		OnConds:  conds,
	}
}

func Limit(child *LogicalOperator, n int64) *LogicalOperator {
	return &LogicalOperator{
		Typ:      LOT_Limit,
		Children: []*LogicalOperator{child},
		Limit:    IConst(n),
	}
}

func Col(idx int, typ common.LType, name string) *Expr {
	return &Expr{
		Typ:     ET_Column,
		ColIdx:  idx,
		DataTyp: typ,
		Name:    name,
	}
}

func IConst(v int64) *Expr {
	typ := common.BigintType()
	if v >= -1<<31 && v < 1<<31 {
		typ = common.IntegerType()
	}
	return &Expr{
		Typ:     ET_IConst,
		DataTyp: typ,
		Ivalue:  v,
	}
}

func FConst(v float64) *Expr {
	return &Expr{
		Typ:     ET_FConst,
		DataTyp: common.DoubleType(),
		Fvalue:  v,
	}
}

func SConst(v string) *Expr {
	return &Expr{
		Typ:     ET_SConst,
		DataTyp: common.VarcharType(),
		Svalue:  v,
	}
}

func BConst(v bool) *Expr {
	return &Expr{
		Typ:     ET_BConst,
		DataTyp: common.BooleanType(),
		Bvalue:  v,
	}
}

// Binary builds an arithmetic or comparison operator.
func Binary(op ET_SubTyp, l, r *Expr) *Expr {
	typ := common.BooleanType()
	if op.IsArith() {
		typ = common.MaxNumericType(l.DataTyp, r.DataTyp)
	}
	return &Expr{
		Typ:      ET_Func,
		SubTyp:   op,
		DataTyp:  typ,
		Children: []*Expr{l, r},
	}
}

func Eq(l, r *Expr) *Expr {
	return Binary(ET_Equal, l, r)
}

func And(exprs ...*Expr) *Expr {
	if len(exprs) == 1 {
		return exprs[0]
	}
	return &Expr{
		Typ:      ET_Func,
		SubTyp:   ET_And,
		DataTyp:  common.BooleanType(),
		Children: exprs,
	}
}

func Or(exprs ...*Expr) *Expr {
	if len(exprs) == 1 {
		return exprs[0]
	}
	return &Expr{
		Typ:      ET_Func,
		SubTyp:   ET_Or,
		DataTyp:  common.BooleanType(),
		Children: exprs,
	}
}

func Not(e *Expr) *Expr {
	return &Expr{
		Typ:      ET_Func,
		SubTyp:   ET_Not,
		DataTyp:  common.BooleanType(),
		Children: []*Expr{e},
	}
}

func CountStar() *Expr {
	return &Expr{
		Typ:     ET_Agg,
		SubTyp:  ET_Count,
		DataTyp: common.BigintType(),
		Star:    true,
	}
}

// AggFunc builds count/sum/avg/min/max over arg. count is BIGINT, the others
// are DOUBLE.
func AggFunc(fun ET_SubTyp, arg *Expr) *Expr {
	typ := common.DoubleType()
	if fun == ET_Count {
		typ = common.BigintType()
	}
	return &Expr{
		Typ:      ET_Agg,
		SubTyp:   fun,
		DataTyp:  typ,
		Children: []*Expr{arg},
	}
}

func (e *Expr) As(alias string) *Expr {
	e.Alias = alias
	return e
}
