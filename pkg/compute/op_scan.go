package compute

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/daviszhen/pipegen/pkg/ir"
	"github.com/daviszhen/pipegen/pkg/plan"
)

// TableScan pulls batches from a table reader until it is exhausted.
type TableScan struct {
	baseOperator
}

func NewTableScan(node *plan.LogicalOperator) *TableScan {
	return &TableScan{baseOperator{node: node}}
}

func (scan *TableScan) Name() string {
	return "TableScan"
}

func (scan *TableScan) CanProduce(p Paradigm) bool {
	return true
}

// ordinals maps the scanned columns onto reader columns by name.
func (scan *TableScan) ordinals(names []string) ([]int, error) {
	ret := make([]int, 0, len(scan.node.Columns))
	for _, col := range scan.node.Columns {
		found := -1
		for i, name := range names {
			if strings.EqualFold(name, col) {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, errors.Newf("no column %s in table %s", col, scan.node.Table)
		}
		ret = append(ret, found)
	}
	return ret, nil
}

func (scan *TableScan) Produce(ctx *Context) error {
	if ctx.env.Catalog == nil {
		return errors.New("no catalog")
	}
	reader, err := ctx.env.Catalog.Reader(scan.node.Table, ctx.BatchSize())
	if err != nil {
		return err
	}
	ords, err := scan.ordinals(reader.Names())
	if err != nil {
		return err
	}
	types := reader.Types()
	for i, ord := range ords {
		if !types[ord].Equal(scan.node.Types[i]) {
			return errors.Newf("column %s of table %s is %s, plan expects %s",
				scan.node.Columns[i], scan.node.Table, types[ord], scan.node.Types[i])
		}
	}

	rv := ctx.Bind("reader", reader)
	ctx.Comment("scan %s", scan.node.Table)
	ctx.Do(ir.FnReaderReset, ir.R(rv))
	body, err := ctx.Nest(func() error {
		n := ctx.Declare("n", ir.Fn(ir.FnReaderCount, ir.R(rv)))
		vecs := make([]*ir.Var, len(ords))
		for i, ord := range ords {
			vecs[i] = ctx.Declare("vec", ir.Fn(ir.FnReaderVector, ir.R(rv), ir.Int(int64(ord))))
		}
		if ctx.Paradigm() == Vectorized {
			mapping := make(OrdinalMapping, len(vecs))
			for i, vec := range vecs {
				mapping[i] = &BatchVector{Vec: vec, Typ: scan.node.Types[i]}
			}
			ctx.SetMapping(mapping)
			ctx.SetShape(DenseShape(ir.R(n)))
			return scan.parent.Consume(ctx, scan)
		}
		i := ctx.NewVar("i", ir.KInt)
		loop, err := ctx.Nest(func() error {
			mapping := make(OrdinalMapping, len(vecs))
			for j, vec := range vecs {
				mapping[j] = &ArrayVariable{Vec: vec, Pos: ir.R(i), Typ: scan.node.Types[j]}
			}
			ctx.SetMapping(mapping)
			return scan.parent.Consume(ctx, scan)
		})
		ctx.Emit(&ir.For{Var: i, From: ir.Int(0), To: ir.R(n), Body: loop})
		return err
	})
	ctx.Emit(&ir.While{Cond: ir.Fn(ir.FnReaderNext, ir.R(rv)), Body: body})
	return err
}

func (scan *TableScan) Consume(ctx *Context, from Operator) error {
	return errors.AssertionFailedf("table scan has no input")
}
