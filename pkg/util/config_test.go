package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_loadConfig(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "pipegen.toml")
	text := `
[engine]
paradigm = "rowwise"
batchSize = 128

[log]
level = "debug"

[[tables]]
name = "lineitem"
path = "/data/lineitem.tbl"
format = "tbl"
columns = [
  { name = "l_orderkey", type = "bigint" },
  { name = "l_quantity", type = "double" },
]
`
	require.NoError(t, os.WriteFile(fpath, []byte(text), 0644))
	cfg, err := LoadConfig(fpath)
	require.NoError(t, err)
	assert.Equal(t, ParadigmRowWise, cfg.Engine.Paradigm)
	assert.Equal(t, 128, cfg.Engine.BatchSize)
	//untouched keys keep their defaults
	assert.Equal(t, 1024, cfg.Engine.MapInitialCapacity)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, cfg.Tables, 1)
	assert.Equal(t, "l_quantity", cfg.Tables[0].Columns[1].Name)

	dup := cfg.Clone()
	dup.Tables[0].Columns[1].Name = "x"
	assert.Equal(t, "l_quantity", cfg.Tables[0].Columns[1].Name)

	require.NoError(t, os.WriteFile(fpath, []byte("[engine]\nparadigm = \"simd\"\n"), 0644))
	_, err = LoadConfig(fpath)
	assert.ErrorContains(t, err, "invalid paradigm")
}

func Test_validateConfig(t *testing.T) {
	cases := []func(cfg *Config){
		func(cfg *Config) { cfg.Engine.BatchSize = 0 },
		func(cfg *Config) { cfg.Engine.MapInitialCapacity = 1000 },
		func(cfg *Config) { cfg.Engine.KeyValueGrowth = 1 },
		func(cfg *Config) { cfg.Tables = []TableOptions{{Path: "x.csv"}} },
	}
	for i, change := range cases {
		cfg := DefaultConfig()
		change(cfg)
		assert.Error(t, cfg.Validate(), "case %d", i)
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func Test_errorTaxonomy(t *testing.T) {
	err := InvalidKeyf("key %d", -1)
	assert.True(t, errors.Is(err, ErrInvalidKey))
	assert.False(t, errors.Is(err, ErrMapCapacityExceeded))
	assert.Contains(t, err.Error(), "key -1")

	got := func() (err error) {
		defer func() {
			err = RecoverError(recover())
		}()
		Raise(MapCapacityExceededf("grow to %d", 10))
		return nil
	}()
	assert.True(t, errors.Is(got, ErrMapCapacityExceeded))

	got = func() (err error) {
		defer func() {
			err = RecoverError(recover())
		}()
		panic("boom")
	}()
	assert.ErrorContains(t, got, "boom")
	assert.Nil(t, RecoverError(nil))
}
