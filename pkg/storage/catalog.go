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

// Package storage is the table catalog pipelines scan from. A table is either
// an in-memory MemTable or a CSV/Parquet file that is read batch by batch.
package storage

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/btree"
	"go.uber.org/zap"

	"github.com/daviszhen/pipegen/pkg/chunk"
	"github.com/daviszhen/pipegen/pkg/common"
	"github.com/daviszhen/pipegen/pkg/util"
)

var ErrTableNotFound = errors.New("table not found")

const (
	FormatMem     = "mem"
	FormatCsv     = "csv"
	FormatParquet = "parquet"
)

// source opens a fresh reader over a table.
type source interface {
	open(batchSize int) (chunk.BatchReader, error)
}

type memSource struct {
	tab *chunk.MemTable
}

func (src *memSource) open(batchSize int) (chunk.BatchReader, error) {
	return src.tab.NewReader(batchSize), nil
}

type TableEntry struct {
	Name   string
	Format string
	Path   string
	Names  []string
	Types  []common.LType
	src    source
}

func tableEntryLess(a, b *TableEntry) bool {
	return a.Name < b.Name
}

// Catalog maps lower-cased table names to entries.
type Catalog struct {
	lock   sync.RWMutex
	tables *btree.BTreeG[*TableEntry]
}

func NewCatalog() *Catalog {
	return &Catalog{
		tables: btree.NewBTreeG[*TableEntry](tableEntryLess),
	}
}

func key(name string) string {
	return strings.ToLower(name)
}

func delimiter(opt string, def rune) rune {
	if opt == "" {
		return def
	}
	if opt == "\\t" {
		return '\t'
	}
	return []rune(opt)[0]
}

func (cat *Catalog) add(ent *TableEntry) error {
	cat.lock.Lock()
	defer cat.lock.Unlock()
	if _, has := cat.tables.Get(&TableEntry{Name: ent.Name}); has {
		return errors.Newf("table %s already exists", ent.Name)
	}
	cat.tables.Set(ent)
	util.Debug("table registered",
		zap.String("table", ent.Name),
		zap.String("format", ent.Format),
		zap.Int("columns", len(ent.Types)))
	return nil
}

// RegisterMemTable adds an in-memory table.
func (cat *Catalog) RegisterMemTable(name string, tab *chunk.MemTable) error {
	return cat.add(&TableEntry{
		Name:   key(name),
		Format: FormatMem,
		Names:  tab.Names(),
		Types:  tab.Types(),
		src:    &memSource{tab: tab},
	})
}

// LoadTable registers a file backed table described by opts. The file is
// checked for existence here and read on every scan.
func (cat *Catalog) LoadTable(opts util.TableOptions) error {
	if opts.Name == "" {
		return errors.New("table without name")
	}
	if len(opts.Columns) == 0 {
		return errors.Newf("table %s has no columns", opts.Name)
	}
	ent := &TableEntry{
		Name:   key(opts.Name),
		Format: strings.ToLower(opts.Format),
		Path:   opts.Path,
	}
	for _, col := range opts.Columns {
		typ, err := common.ParseLType(col.Type)
		if err != nil {
			return errors.Wrapf(err, "table %s column %s", opts.Name, col.Name)
		}
		if typ.Id == common.LTID_BOOLEAN {
			return errors.Newf("table %s column %s: boolean columns are not stored", opts.Name, col.Name)
		}
		ent.Names = append(ent.Names, col.Name)
		ent.Types = append(ent.Types, typ)
	}
	switch ent.Format {
	case FormatCsv, "":
		ent.Format = FormatCsv
		ent.src = &csvSource{path: opts.Path, names: ent.Names, types: ent.Types, comma: delimiter(opts.Delimiter, ',')}
	case "tbl":
		ent.src = &csvSource{path: opts.Path, names: ent.Names, types: ent.Types, comma: delimiter(opts.Delimiter, '|')}
	case FormatParquet:
		ent.src = &parquetSource{path: opts.Path, names: ent.Names, types: ent.Types}
	default:
		return errors.Newf("table %s: unsupported format %q", opts.Name, opts.Format)
	}
	if !util.FileIsValid(opts.Path) {
		return errors.Newf("table %s: file %s does not exist", opts.Name, opts.Path)
	}
	return cat.add(ent)
}

// LoadTables registers every table of the configuration.
func (cat *Catalog) LoadTables(tables []util.TableOptions) error {
	for _, opts := range tables {
		if err := cat.LoadTable(opts); err != nil {
			return err
		}
	}
	return nil
}

func (cat *Catalog) Drop(name string) bool {
	cat.lock.Lock()
	defer cat.lock.Unlock()
	_, has := cat.tables.Delete(&TableEntry{Name: key(name)})
	return has
}

func (cat *Catalog) Lookup(name string) (*TableEntry, error) {
	cat.lock.RLock()
	defer cat.lock.RUnlock()
	ent, has := cat.tables.Get(&TableEntry{Name: key(name)})
	if !has {
		return nil, errors.Wrapf(ErrTableNotFound, "%s", name)
	}
	return ent, nil
}

// Tables lists the entries in name order.
func (cat *Catalog) Tables() []*TableEntry {
	cat.lock.RLock()
	defer cat.lock.RUnlock()
	ret := make([]*TableEntry, 0, cat.tables.Len())
	cat.tables.Scan(func(ent *TableEntry) bool {
		ret = append(ret, ent)
		return true
	})
	return ret
}

// Reader opens a batch reader over table. Every call returns an independent
// reader.
func (cat *Catalog) Reader(table string, batchSize int) (chunk.BatchReader, error) {
	ent, err := cat.Lookup(table)
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = util.DefaultVectorSize
	}
	reader, err := ent.src.open(batchSize)
	if err != nil {
		return nil, errors.Wrapf(err, "open table %s", ent.Name)
	}
	return reader, nil
}

// Schema returns the column names and types of table.
func (cat *Catalog) Schema(table string) ([]string, []common.LType, error) {
	ent, err := cat.Lookup(table)
	if err != nil {
		return nil, nil, err
	}
	return ent.Names, ent.Types, nil
}
