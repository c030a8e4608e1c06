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

package util

import (
	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/huandu/go-clone"
)

const (
	ParadigmVectorized = "vectorized"
	ParadigmRowWise    = "rowwise"
)

type EngineOptions struct {
	Paradigm           string `toml:"paradigm"`
	BatchSize          int    `toml:"batchSize"`
	MapInitialCapacity int    `toml:"mapInitialCapacity"`
	MultiRecordGrowth  int    `toml:"multiRecordGrowth"`
	KeyValueGrowth     int    `toml:"keyValueGrowth"`
	MaxRetainedBuffers int    `toml:"maxRetainedBuffers"`
}

type ColumnOptions struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type TableOptions struct {
	Name   string `toml:"name"`
	Path   string `toml:"path"`
	Format string `toml:"format"`
	// Delimiter of csv/tbl files. Defaults to ',' and '|'.
	Delimiter string          `toml:"delimiter"`
	Columns   []ColumnOptions `toml:"columns"`
}

type DebugOptions struct {
	PrintPlan    bool `toml:"printPlan"`
	PrintProgram bool `toml:"printProgram"`
	Count        int  `toml:"count"`
	Parallel     int  `toml:"parallel"`
}

type LogOptions struct {
	Level string `toml:"level"`
}

type ServerOptions struct {
	Addr string `toml:"addr"`
}

type Config struct {
	Engine EngineOptions  `toml:"engine"`
	Tables []TableOptions `toml:"tables"`
	Debug  DebugOptions   `toml:"debug"`
	Log    LogOptions     `toml:"log"`
	Server ServerOptions  `toml:"server"`
}

func DefaultConfig() *Config {
	return &Config{
		Engine: EngineOptions{
			Paradigm:           ParadigmVectorized,
			BatchSize:          DefaultVectorSize,
			MapInitialCapacity: 1024,
			MultiRecordGrowth:  2,
			KeyValueGrowth:     8,
			MaxRetainedBuffers: 64,
		},
		Log: LogOptions{
			Level: "info",
		},
		Server: ServerOptions{
			Addr: "127.0.0.1:5432",
		},
	}
}

// LoadConfig decodes a toml file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "decode config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Clone() *Config {
	return clone.Clone(cfg).(*Config)
}

func (cfg *Config) Validate() error {
	switch cfg.Engine.Paradigm {
	case ParadigmVectorized, ParadigmRowWise:
	default:
		return errors.Newf("invalid paradigm %q", cfg.Engine.Paradigm)
	}
	if cfg.Engine.BatchSize <= 0 {
		return errors.Newf("invalid batch size %d", cfg.Engine.BatchSize)
	}
	if cfg.Engine.MapInitialCapacity <= 0 || !IsPowerOfTwo(uint64(cfg.Engine.MapInitialCapacity)) {
		return errors.Newf("map initial capacity %d is not a power of two", cfg.Engine.MapInitialCapacity)
	}
	if cfg.Engine.MultiRecordGrowth < 2 || cfg.Engine.KeyValueGrowth < 2 {
		return errors.New("growth factors must be at least 2")
	}
	for _, tab := range cfg.Tables {
		if tab.Name == "" {
			return errors.New("table without name")
		}
	}
	return nil
}
