package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daviszhen/pipegen/pkg/common"
)

func Test_outputLayout(t *testing.T) {
	left := Scan("probe", []string{"k", "v"}, []common.LType{common.IntegerType(), common.BigintType()})
	right := Scan("build", []string{"k", "s"}, []common.LType{common.IntegerType(), common.VarcharType()})
	join := Join(left, right, LOT_JoinTypeInner,
		Eq(Col(0, common.IntegerType(), "k"), Col(0, common.IntegerType(), "k")))
	assert.Equal(t, []string{"k", "v", "k", "s"}, join.OutputNames())

	agg := Aggregate(join, []*Expr{Col(3, common.VarcharType(), "s")},
		CountStar().As("cnt"),
		AggFunc(ET_Sum, Col(1, common.BigintType(), "v")))
	assert.Equal(t, []common.LType{common.VarcharType(), common.BigintType(), common.DoubleType()}, agg.OutputTypes())
	assert.Equal(t, []string{"s", "cnt", "sum(v#1)"}, agg.OutputNames())

	text := agg.String()
	assert.Contains(t, text, "Aggregate")
	assert.Contains(t, text, "build")
	assert.Contains(t, text, "Scan")
}

func Test_filterFlattensConjunctions(t *testing.T) {
	scan := Scan("t", []string{"a"}, []common.LType{common.IntegerType()})
	a := Col(0, common.IntegerType(), "a")
	f := Filter(scan, And(Binary(ET_Greater, a, IConst(1)), And(Binary(ET_Less, a, IConst(9)), Binary(ET_NotEqual, a, IConst(5)))))
	assert.Len(t, f.Filters, 3)
	assert.Equal(t, "(a#0 <> 5)", f.Filters[2].String())
	assert.Equal(t, common.BigintType(), IConst(1<<40).DataTyp)
	assert.Equal(t, common.DoubleType(), Binary(ET_Add, a, FConst(1)).DataTyp)
}
