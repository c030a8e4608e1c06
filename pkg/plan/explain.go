package plan

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"
)

func WriteExprsTree(tree treeprint.Tree, exprs []*Expr) {
	for i, e := range exprs {
		e.Print(tree, fmt.Sprintf("%d", i))
	}
}

func ExplainLogicalPlan(root *LogicalOperator) string {
	tree := treeprint.NewWithRoot("Logical Plan")
	explain(tree, root)
	return tree.String()
}

func explain(tree treeprint.Tree, lo *LogicalOperator) {
	var node treeprint.Tree
	switch lo.Typ {
	case LOT_Scan:
		node = tree.AddMetaBranch(lo.Typ.String(), lo.Table)
		cols := make([]string, 0, len(lo.Columns))
		for i, col := range lo.Columns {
			cols = append(cols, fmt.Sprintf("%s %s", col, lo.Types[i]))
		}
		node.AddMetaNode("columns", strings.Join(cols, ", "))
	case LOT_Filter:
		node = tree.AddBranch(lo.Typ.String())
		WriteExprsTree(node.AddBranch("filters"), lo.Filters)
	case LOT_Project:
		node = tree.AddBranch(lo.Typ.String())
		WriteExprsTree(node.AddBranch("exprs"), lo.Projects)
	case LOT_AggGroup:
		node = tree.AddBranch(lo.Typ.String())
		if len(lo.GroupBys) != 0 {
			WriteExprsTree(node.AddBranch("groupBys"), lo.GroupBys)
		}
		WriteExprsTree(node.AddBranch("aggs"), lo.Aggs)
	case LOT_JOIN:
		node = tree.AddMetaBranch(lo.Typ.String(), lo.JoinTyp)
		WriteExprsTree(node.AddBranch("on"), lo.OnConds)
	case LOT_Limit:
		node = tree.AddMetaBranch(lo.Typ.String(), lo.Limit)
	default:
		node = tree.AddBranch(lo.Typ.String())
	}
	for _, child := range lo.Children {
		explain(node, child)
	}
}
