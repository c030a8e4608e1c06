package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/daviszhen/pipegen/pkg/chunk"
	"github.com/daviszhen/pipegen/pkg/compute"
	"github.com/daviszhen/pipegen/pkg/parser"
	"github.com/daviszhen/pipegen/pkg/plan"
	"github.com/daviszhen/pipegen/pkg/storage"
	"github.com/daviszhen/pipegen/pkg/util"
)

var sqlFile string

func readSql(args []string) (string, error) {
	if sqlFile != "" {
		data, err := os.ReadFile(sqlFile)
		if err != nil {
			return "", errors.Wrapf(err, "read %s", sqlFile)
		}
		return string(data), nil
	}
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", errors.New("no sql. pass it as argument or with --file")
	}
	return args[0], nil
}

// query is one sql statement compiled against the configured tables.
type query struct {
	cfg  *util.Config
	cat  *storage.Catalog
	root *plan.LogicalOperator
}

func newQuery(cfg *util.Config, sql string) (*query, error) {
	cat := storage.NewCatalog()
	if err := cat.LoadTables(cfg.Tables); err != nil {
		return nil, err
	}
	root, err := parser.Plan(sql, cat)
	if err != nil {
		return nil, err
	}
	return &query{cfg: cfg, cat: cat, root: root}, nil
}

func (q *query) compile(sink chunk.ResultSink) (*compute.Pipeline, error) {
	opts, err := compute.OptionsFromConfig(&q.cfg.Engine)
	if err != nil {
		return nil, err
	}
	return compute.Compile(q.root, opts, compute.Env{Catalog: q.cat, Sink: sink})
}

func writeRows(w io.Writer, names []string, rows [][]any) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	for _, row := range rows {
		for j, val := range row {
			if j > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, val)
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := color.New(color.Faint).Fprintf(w, "(%d rows)\n", len(rows))
	return err
}

func runQuery(w io.Writer, cfg *util.Config, sql string) error {
	q, err := newQuery(cfg, sql)
	if err != nil {
		return err
	}
	if cfg.Debug.PrintPlan {
		fmt.Fprintln(w, q.root.String())
	}
	sink := &chunk.CollectSink{}
	p, err := q.compile(sink)
	if err != nil {
		return err
	}
	if cfg.Debug.PrintProgram {
		fmt.Fprintln(w, p.Explain())
	}
	count := max(cfg.Debug.Count, 1)
	for i := 0; i < count; i++ {
		sink.Reset()
		start := time.Now()
		if err = p.Execute(); err != nil {
			return err
		}
		util.Info("query done",
			zap.Int("run", i),
			zap.Int("items", len(sink.Items)),
			zap.Duration("elapsed", time.Since(start)))
	}
	return writeRows(w, p.Names, p.Rows(sink))
}

//run cmd

var runInfo = "run a sql query"
var runCmd = &cobra.Command{
	Use:   "run [sql]",
	Short: runInfo,
	Long:  runInfo,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initOptions(); err != nil {
			return err
		}
		sql, err := readSql(args)
		if err != nil {
			return err
		}
		return runQuery(os.Stdout, pipegenCfg, sql)
	},
}

func initRunCmd() {
	RootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&sqlFile, "file", "", "file holding the sql")
	runCmd.Flags().Int("count", 1, "run the compiled pipeline count times")
	runCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlag("debug.count", cmd.Flags().Lookup("count"))
	}
}

//explain cmd

func explainQuery(w io.Writer, cfg *util.Config, sql string) error {
	q, err := newQuery(cfg, sql)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, q.root.String())
	p, err := q.compile(&chunk.CollectSink{})
	if err != nil {
		return err
	}
	fmt.Fprintln(w, p.Explain())
	return nil
}

var explainInfo = "print the logical plan, the operator tree and the generated program"
var explainCmd = &cobra.Command{
	Use:   "explain [sql]",
	Short: explainInfo,
	Long:  explainInfo,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initOptions(); err != nil {
			return err
		}
		sql, err := readSql(args)
		if err != nil {
			return err
		}
		return explainQuery(os.Stdout, pipegenCfg, sql)
	},
}

func initExplainCmd() {
	RootCmd.AddCommand(explainCmd)
	explainCmd.Flags().StringVar(&sqlFile, "file", "", "file holding the sql")
}

//bench cmd

// benchQuery runs parallel independent invocations. A pipeline is single
// threaded, so every worker compiles its own.
func benchQuery(ctx context.Context, cfg *util.Config, sql string) error {
	q, err := newQuery(cfg, sql)
	if err != nil {
		return err
	}
	workers := max(cfg.Debug.Parallel, 1)
	count := max(cfg.Debug.Count, 1)
	items := make([]int, workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			sink := &chunk.CollectSink{}
			p, err := q.compile(sink)
			if err != nil {
				return err
			}
			var total time.Duration
			for i := 0; i < count; i++ {
				if err = ctx.Err(); err != nil {
					return err
				}
				sink.Reset()
				start := time.Now()
				if err = p.Execute(); err != nil {
					return errors.Wrapf(err, "worker %d run %d", w, i)
				}
				total += time.Since(start)
			}
			items[w] = len(sink.Items)
			util.Info("bench worker done",
				zap.Int("worker", w),
				zap.Int("runs", count),
				zap.Duration("avg", total/time.Duration(count)))
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return err
	}
	for w := 1; w < workers; w++ {
		if items[w] != items[0] {
			return errors.Newf("worker %d produced %d items, worker 0 %d", w, items[w], items[0])
		}
	}
	return nil
}

var benchInfo = "run a sql query repeatedly on parallel workers"
var benchCmd = &cobra.Command{
	Use:   "bench [sql]",
	Short: benchInfo,
	Long:  benchInfo,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initOptions(); err != nil {
			return err
		}
		sql, err := readSql(args)
		if err != nil {
			return err
		}
		return benchQuery(cmd.Context(), pipegenCfg, sql)
	},
}

func initBenchCmd() {
	RootCmd.AddCommand(benchCmd)
	benchCmd.Flags().StringVar(&sqlFile, "file", "", "file holding the sql")
	benchCmd.Flags().Int("count", 10, "runs per worker")
	benchCmd.Flags().Int("parallel", 4, "workers")
	benchCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlag("debug.count", cmd.Flags().Lookup("count")); err != nil {
			return err
		}
		return viper.BindPFlag("debug.parallel", cmd.Flags().Lookup("parallel"))
	}
}
