package compute

import (
	"github.com/cockroachdb/errors"

	"github.com/daviszhen/pipegen/pkg/common"
	"github.com/daviszhen/pipegen/pkg/ir"
	"github.com/daviszhen/pipegen/pkg/plan"
)

// ResultSink is the root of every pipeline. Row-wise code hands every value
// to the result sink as soon as it is produced, row-major. Vectorized code
// packs the batches into an array package flushed column-major at the end.
type ResultSink struct {
	baseOperator
	types []common.LType
	pkg   *ir.Var
}

func NewResultSink(child Operator) *ResultSink {
	sink := &ResultSink{
		baseOperator: baseOperator{children: []Operator{child}},
		types:        child.OutputTypes(),
	}
	adopt(sink, child)
	return sink
}

func (sink *ResultSink) Name() string {
	return "ResultSink"
}

func (sink *ResultSink) OutputTypes() []common.LType {
	return sink.types
}

func (sink *ResultSink) Plan() *plan.LogicalOperator {
	return sink.children[0].Plan()
}

func (sink *ResultSink) CanProduce(p Paradigm) bool {
	return sink.childrenCanProduce(p)
}

func (sink *ResultSink) Produce(ctx *Context) error {
	if ctx.Paradigm() == RowWise {
		return sink.children[0].Produce(ctx)
	}
	args := []ir.Expr{ir.Int(int64(ctx.BatchSize()))}
	for _, typ := range sink.types {
		args = append(args, ir.Int(int64(typ.Id)))
	}
	sink.pkg = ctx.DeclareInit("pkg", ir.Fn(ir.FnNewArrayPackage, args...))
	ctx.Do(ir.FnPkgReset, ir.R(sink.pkg))
	if err := sink.children[0].Produce(ctx); err != nil {
		return err
	}
	ctx.Do(ir.FnPkgFlush, ir.R(sink.pkg), ir.R(ctx.SinkVar()))
	return nil
}

func (sink *ResultSink) Consume(ctx *Context, from Operator) error {
	mapping := ctx.Mapping()
	if len(mapping) != len(sink.types) {
		return errors.AssertionFailedf("sink expects %d columns, got %s", len(sink.types), mapping)
	}
	if ctx.Paradigm() == Vectorized {
		shape := ctx.Shape()
		for i, ap := range mapping {
			ctx.Do(ir.FnPkgAppend, ir.R(sink.pkg), ir.Int(int64(i)), ap.Read(), shape.Sel, shape.Len)
		}
		return nil
	}
	for _, ap := range mapping {
		var fn string
		switch ap.Type().Id {
		case common.LTID_INTEGER:
			fn = ir.FnSinkInt32
		case common.LTID_BIGINT:
			fn = ir.FnSinkInt64
		case common.LTID_DOUBLE:
			fn = ir.FnSinkFloat
		case common.LTID_VARCHAR:
			fn = ir.FnSinkString
		default:
			return errors.Newf("usp result column %s", ap.Type())
		}
		ctx.Do(fn, ir.R(ctx.SinkVar()), ap.Read())
	}
	return nil
}
