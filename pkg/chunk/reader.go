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

package chunk

import (
	"fmt"

	"github.com/daviszhen/pipegen/pkg/common"
)

// BatchReader is the table/batch source a compiled pipeline pulls from.
//
// LoadNextBatch advances to the next batch and reports false once the table
// is exhausted. GetVector exposes column ordinal of the current batch; the
// vector is only valid until the next LoadNextBatch. Reset restarts the
// iteration from the first batch.
type BatchReader interface {
	LoadNextBatch() (bool, error)
	GetVector(ordinal int) *Vector
	Count() int
	Reset() error
	Names() []string
	Types() []common.LType
}

// MemTable is a column-major in-memory table.
type MemTable struct {
	names   []string
	types   []common.LType
	columns []*Vector
	rows    int
}

func NewMemTable(names []string, types []common.LType) *MemTable {
	if len(names) != len(types) {
		panic("names and types mismatch")
	}
	tab := &MemTable{
		names: names,
		types: types,
	}
	for _, typ := range types {
		tab.columns = append(tab.columns, NewFlatVector(typ, 0))
	}
	return tab
}

func (tab *MemTable) Names() []string {
	return tab.names
}

func (tab *MemTable) Types() []common.LType {
	return tab.types
}

func (tab *MemTable) Rows() int {
	return tab.rows
}

// AppendRow adds one row. Values are converted to the column types.
func (tab *MemTable) AppendRow(vals ...any) error {
	if len(vals) != len(tab.columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(vals), len(tab.columns))
	}
	for i, val := range vals {
		col := tab.columns[i]
		switch data := col.Data.(type) {
		case []int32:
			col.Data = append(data, 0)
		case []int64:
			col.Data = append(data, 0)
		case []float64:
			col.Data = append(data, 0)
		case []string:
			col.Data = append(data, "")
		}
		if err := col.SetValue(tab.rows, val); err != nil {
			for _, c := range tab.columns[:i+1] {
				c.Data = c.Slice(0, tab.rows).Data
			}
			return fmt.Errorf("column %s: %w", tab.names[i], err)
		}
	}
	tab.rows++
	return nil
}

// AppendChunk adds all rows of a batch.
func (tab *MemTable) AppendChunk(data *Chunk) error {
	row := make([]any, data.ColumnCount())
	for i := 0; i < data.Card(); i++ {
		for j := range row {
			row[j] = data.Data[j].GetValue(i)
		}
		if err := tab.AppendRow(row...); err != nil {
			return err
		}
	}
	return nil
}

func (tab *MemTable) NewReader(batchSize int) *MemReader {
	return &MemReader{
		tab:       tab,
		batchSize: batchSize,
		start:     -1,
	}
}

// MemReader slices a MemTable into batches without copying.
type MemReader struct {
	tab       *MemTable
	batchSize int
	start     int
	end       int
}

var _ BatchReader = &MemReader{}

func (reader *MemReader) LoadNextBatch() (bool, error) {
	if reader.start < 0 {
		reader.start = 0
	} else {
		reader.start = reader.end
	}
	if reader.start >= reader.tab.rows {
		reader.end = reader.start
		return false, nil
	}
	reader.end = min(reader.start+reader.batchSize, reader.tab.rows)
	return true, nil
}

func (reader *MemReader) GetVector(ordinal int) *Vector {
	return reader.tab.columns[ordinal].Slice(reader.start, reader.end)
}

func (reader *MemReader) Count() int {
	return reader.end - reader.start
}

func (reader *MemReader) Reset() error {
	reader.start = -1
	reader.end = 0
	return nil
}

func (reader *MemReader) Names() []string {
	return reader.tab.names
}

func (reader *MemReader) Types() []common.LType {
	return reader.tab.types
}
