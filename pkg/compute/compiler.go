package compute

import (
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/daviszhen/pipegen/pkg/backend"
	"github.com/daviszhen/pipegen/pkg/chunk"
	"github.com/daviszhen/pipegen/pkg/common"
	"github.com/daviszhen/pipegen/pkg/ir"
	"github.com/daviszhen/pipegen/pkg/plan"
	"github.com/daviszhen/pipegen/pkg/util"
)

// Catalog resolves table names to batch readers.
type Catalog interface {
	Reader(table string, batchSize int) (chunk.BatchReader, error)
}

// Env is the runtime environment a pipeline is bound to at compile time.
// Alloc may be nil; the pipeline then owns a fresh allocation manager.
type Env struct {
	Catalog Catalog
	Sink    chunk.ResultSink
	Alloc   *chunk.AllocationManager
}

type Options struct {
	Paradigm           Paradigm
	BatchSize          int
	MapInitialCapacity int
	MultiRecordGrowth  int
	KeyValueGrowth     int
	MaxRetained        int
	Backend            ir.Backend
}

func DefaultOptions() Options {
	opts, err := OptionsFromConfig(&util.DefaultConfig().Engine)
	util.AssertFunc(err == nil)
	return opts
}

func OptionsFromConfig(cfg *util.EngineOptions) (Options, error) {
	paradigm, err := ParseParadigm(cfg.Paradigm)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Paradigm:           paradigm,
		BatchSize:          cfg.BatchSize,
		MapInitialCapacity: cfg.MapInitialCapacity,
		MultiRecordGrowth:  cfg.MultiRecordGrowth,
		KeyValueGrowth:     cfg.KeyValueGrowth,
		MaxRetained:        cfg.MaxRetainedBuffers,
	}, nil
}

func (opts *Options) fill() {
	def := util.DefaultConfig().Engine
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.MapInitialCapacity <= 0 {
		opts.MapInitialCapacity = def.MapInitialCapacity
	}
	if opts.MultiRecordGrowth < 2 {
		opts.MultiRecordGrowth = def.MultiRecordGrowth
	}
	if opts.KeyValueGrowth < 2 {
		opts.KeyValueGrowth = def.KeyValueGrowth
	}
	if opts.MaxRetained <= 0 {
		opts.MaxRetained = def.MaxRetainedBuffers
	}
	if opts.Backend == nil {
		opts.Backend = backend.New()
	}
}

// Pipeline is a compiled plan. Every Execute re-runs the whole plan against
// the tables and pushes the result into the sink of its Env. A pipeline is
// not safe for concurrent use.
type Pipeline struct {
	Root     Operator
	Program  *ir.Program
	Paradigm Paradigm
	Types    []common.LType
	Names    []string
	exec     ir.Executable
	alloc    *chunk.AllocationManager
}

// Compile translates root, generates its program in the paradigm of opts
// and loads it with the backend of opts.
func Compile(root *plan.LogicalOperator, opts Options, env Env) (*Pipeline, error) {
	opts.fill()
	if env.Sink == nil {
		return nil, errors.New("no result sink")
	}
	if env.Alloc == nil {
		env.Alloc = chunk.NewAllocationManager(opts.BatchSize, opts.MaxRetained)
	}
	if env.Alloc.BatchSize() != opts.BatchSize {
		return nil, errors.Newf("allocation manager batch size %d, pipeline batch size %d",
			env.Alloc.BatchSize(), opts.BatchSize)
	}
	start := time.Now()
	op, err := Translate(root)
	if err != nil {
		return nil, err
	}
	sink := NewResultSink(op)
	if !sink.CanProduce(opts.Paradigm) {
		return nil, util.UnsupportedParadigmf("%s can not produce\n%s", opts.Paradigm, ExplainOperators(sink))
	}

	ctx := NewContext(opts.Paradigm, opts, env)
	if err = sink.Produce(ctx); err != nil {
		if errors.Is(err, util.ErrUnsupportedPlanNode) || errors.Is(err, util.ErrUnsupportedParadigm) {
			return nil, err
		}
		return nil, errors.Mark(errors.Wrap(err, "generate"), util.ErrCompilationFailure)
	}
	prog := ctx.Program()
	exec, err := opts.Backend.Compile(prog)
	if err != nil {
		return nil, err
	}
	util.Debug("pipeline compiled",
		zap.String("paradigm", opts.Paradigm.String()),
		zap.Int("statements", prog.Count()),
		zap.Duration("elapsed", time.Since(start)))
	return &Pipeline{
		Root:     sink,
		Program:  prog,
		Paradigm: opts.Paradigm,
		Types:    root.OutputTypes(),
		Names:    root.OutputNames(),
		exec:     exec,
		alloc:    env.Alloc,
	}, nil
}

// Execute runs the pipeline once. The allocation manager is maintained
// after every run, failed or not. Scratch buffers a failed run still held
// are written off.
func (p *Pipeline) Execute() error {
	err := p.exec.Execute()
	if err != nil {
		if lost := p.alloc.Abandon(); lost > 0 {
			util.Debug("abandoned scratch buffers of failed run",
				zap.Int("buffers", lost))
		}
	}
	p.alloc.PerformMaintenance()
	return err
}

func (p *Pipeline) Alloc() *chunk.AllocationManager {
	return p.alloc
}

// Rows regroups what one Execute handed to sink into result rows. Row-wise
// pipelines emit row-major, vectorized ones column-major.
func (p *Pipeline) Rows(sink *chunk.CollectSink) [][]any {
	width := len(p.Types)
	if p.Paradigm == RowWise {
		return sink.Rows(width)
	}
	cols := sink.Columns(width)
	if len(cols) == 0 {
		return nil
	}
	ret := make([][]any, len(cols[0]))
	for i := range ret {
		ret[i] = make([]any, width)
		for j := range cols {
			ret[i][j] = cols[j][i]
		}
	}
	return ret
}
