package compute

import (
	"github.com/daviszhen/pipegen/pkg/ir"
	"github.com/daviszhen/pipegen/pkg/plan"
)

// Filter passes on rows satisfying the conjunction of its conditions.
type Filter struct {
	baseOperator
}

func NewFilter(node *plan.LogicalOperator, child Operator) *Filter {
	filter := &Filter{baseOperator{node: node, children: []Operator{child}}}
	adopt(filter, child)
	return filter
}

func (filter *Filter) Name() string {
	return "Filter"
}

func (filter *Filter) CanProduce(p Paradigm) bool {
	if p == Vectorized {
		for _, cond := range filter.node.Filters {
			if !vecPredOK(cond) {
				return false
			}
		}
	}
	return filter.childrenCanProduce(p)
}

func (filter *Filter) Produce(ctx *Context) error {
	return filter.children[0].Produce(ctx)
}

func (filter *Filter) Consume(ctx *Context, from Operator) error {
	if ctx.Paradigm() == Vectorized {
		return filter.consumeBatch(ctx)
	}
	cond, err := rowExpr(ctx.Mapping(), plan.And(filter.node.Filters...))
	if err != nil {
		return err
	}
	then, err := ctx.Nest(func() error {
		return filter.parent.Consume(ctx, filter)
	})
	ctx.Emit(&ir.If{Cond: cond, Then: then})
	return err
}

// consumeBatch emits one narrowing pass per condition. Each pass reads the
// selection left by the previous one.
func (filter *Filter) consumeBatch(ctx *Context) error {
	shape := ctx.Shape()
	vg := &vecGen{ctx: ctx}
	for _, cond := range filter.node.Filters {
		if err := vg.filter(cond); err != nil {
			return err
		}
	}
	if err := filter.parent.Consume(ctx, filter); err != nil {
		return err
	}
	vg.releaseAll()
	ctx.SetShape(shape)
	return nil
}
