// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	wire "github.com/jeroenrinzema/psql-wire"
	"github.com/lib/pq/oid"
	"go.uber.org/zap"

	"github.com/daviszhen/pipegen/pkg/chunk"
	"github.com/daviszhen/pipegen/pkg/common"
	"github.com/daviszhen/pipegen/pkg/compute"
	"github.com/daviszhen/pipegen/pkg/parser"
	"github.com/daviszhen/pipegen/pkg/storage"
	"github.com/daviszhen/pipegen/pkg/util"
)

var defCfgFilePaths = []string{".", "etc"}
var cfgFileName = "pipegen.toml"

func loadConfig() *util.Config {
	for _, dirPath := range defCfgFilePaths {
		fpath := filepath.Join(dirPath, cfgFileName)
		if !util.FileIsValid(fpath) {
			continue
		}
		cfg, err := util.LoadConfig(fpath)
		if err != nil {
			util.Error("load config file failed",
				zap.String("fpath", fpath),
				zap.Error(err))
			continue
		}
		return cfg
	}
	util.Warn("pipegen.toml does not exist, use defaults")
	return util.DefaultConfig()
}

func main() {
	cfg := loadConfig()
	util.InitLogger(cfg.Log.Level)
	srv, err := newServer(cfg)
	if err != nil {
		util.Error("init server failed", zap.Error(err))
		os.Exit(1)
	}
	util.Info("listening", zap.String("addr", cfg.Server.Addr))
	if err = wire.ListenAndServe(cfg.Server.Addr, srv.handler); err != nil {
		util.Error("serve failed", zap.Error(err))
		os.Exit(1)
	}
}

type server struct {
	cfg  *util.Config
	opts compute.Options
	cat  *storage.Catalog
}

func newServer(cfg *util.Config) (*server, error) {
	cfg = cfg.Clone()
	opts, err := compute.OptionsFromConfig(&cfg.Engine)
	if err != nil {
		return nil, err
	}
	cat := storage.NewCatalog()
	if err = cat.LoadTables(cfg.Tables); err != nil {
		return nil, err
	}
	return &server{cfg: cfg, opts: opts, cat: cat}, nil
}

// handler compiles the query once per statement. Execution happens when the
// client asks for the rows.
func (srv *server) handler(ctx context.Context, query string) (wire.PreparedStatements, error) {
	util.Info("incoming SQL :", zap.String("query", query))
	root, err := parser.Plan(query, srv.cat)
	if err != nil {
		return nil, err
	}
	sink := &chunk.CollectSink{}
	p, err := compute.Compile(root, srv.opts, compute.Env{Catalog: srv.cat, Sink: sink})
	if err != nil {
		return nil, err
	}
	if srv.cfg.Debug.PrintProgram {
		util.Info("compiled", zap.String("pipeline", p.Explain()))
	}
	execCtx := ExecCtx{
		p:    p,
		sink: sink,
	}
	return wire.Prepared(
		wire.NewStatement(execCtx.handleX,
			wire.WithColumns(columns(p)),
		),
	), nil
}

func typeOid(typ common.LType) oid.Oid {
	switch typ.Id {
	case common.LTID_INTEGER:
		return oid.T_int4
	case common.LTID_BIGINT:
		return oid.T_int8
	case common.LTID_DOUBLE:
		return oid.T_float8
	default:
		return oid.T_text
	}
}

func columns(p *compute.Pipeline) wire.Columns {
	cols := make(wire.Columns, 0, len(p.Types))
	for i, typ := range p.Types {
		cols = append(cols, wire.Column{
			Name:  p.Names[i],
			Oid:   typeOid(typ),
			Width: -1,
		})
	}
	return cols
}

type ExecCtx struct {
	p    *compute.Pipeline
	sink *chunk.CollectSink
}

func (exec *ExecCtx) handleX(ctx context.Context, writer wire.DataWriter, parameters []wire.Parameter) error {
	start := time.Now()
	exec.sink.Reset()
	if err := exec.p.Execute(); err != nil {
		return err
	}
	rows := exec.p.Rows(exec.sink)
	for _, row := range rows {
		if err := writer.Row(row); err != nil {
			return err
		}
	}
	util.Debug("query done",
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(start)))
	return writer.Complete("SELECT")
}
