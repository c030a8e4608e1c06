package compute

import (
	"github.com/daviszhen/pipegen/pkg/plan"
)

// Projection computes its expressions for every row. Column references are
// passed through without copying.
type Projection struct {
	baseOperator
}

func NewProjection(node *plan.LogicalOperator, child Operator) *Projection {
	proj := &Projection{baseOperator{node: node, children: []Operator{child}}}
	adopt(proj, child)
	return proj
}

func (proj *Projection) Name() string {
	return "Projection"
}

func (proj *Projection) CanProduce(p Paradigm) bool {
	for _, e := range proj.node.Projects {
		if e.DataTyp.Id == 0 || (p == Vectorized && !vecValueOK(e)) {
			return false
		}
	}
	return proj.childrenCanProduce(p)
}

func (proj *Projection) Produce(ctx *Context) error {
	return proj.children[0].Produce(ctx)
}

func (proj *Projection) Consume(ctx *Context, from Operator) error {
	input := ctx.Mapping()
	mapping := make(OrdinalMapping, 0, len(proj.node.Projects))
	vg := &vecGen{ctx: ctx}
	for _, e := range proj.node.Projects {
		if e.Typ == plan.ET_Column {
			ap, err := lookupColumn(input, e)
			if err != nil {
				return err
			}
			mapping = append(mapping, ap)
			continue
		}
		if ctx.Paradigm() == Vectorized {
			vec, err := vg.eval(e, e.DataTyp)
			if err != nil {
				return err
			}
			mapping = append(mapping, &BatchVector{Vec: vec, Typ: e.DataTyp})
			continue
		}
		val, err := rowExpr(input, e)
		if err != nil {
			return err
		}
		v := ctx.Declare("proj", val)
		mapping = append(mapping, &ScalarVariable{Var: v, Typ: e.DataTyp})
	}
	ctx.SetMapping(mapping)
	if err := proj.parent.Consume(ctx, proj); err != nil {
		return err
	}
	vg.releaseAll()
	return nil
}
