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

package storage

import (
	"io"

	"github.com/cockroachdb/errors"
	pqLocal "github.com/xitongsys/parquet-go-source/local"
	pqReader "github.com/xitongsys/parquet-go/reader"
	pqSource "github.com/xitongsys/parquet-go/source"

	"github.com/daviszhen/pipegen/pkg/chunk"
	"github.com/daviszhen/pipegen/pkg/common"
)

type parquetSource struct {
	path  string
	names []string
	types []common.LType
}

func (src *parquetSource) open(batchSize int) (chunk.BatchReader, error) {
	reader := &ParquetReader{
		path:      src.path,
		names:     src.names,
		types:     src.types,
		batchSize: batchSize,
	}
	reader.batch.Init(src.types, batchSize)
	if err := reader.Reset(); err != nil {
		return nil, err
	}
	return reader, nil
}

// ParquetReader reads leaf column i of the file as column i of the table.
type ParquetReader struct {
	path      string
	names     []string
	types     []common.LType
	batchSize int

	file  pqSource.ParquetFile
	pr    *pqReader.ParquetReader
	total int
	read  int
	batch chunk.Chunk
}

var _ chunk.BatchReader = &ParquetReader{}

func (reader *ParquetReader) LoadNextBatch() (bool, error) {
	reader.batch.SetCard(0)
	want := min(reader.batchSize, reader.total-reader.read)
	if want <= 0 {
		return false, nil
	}
	rowCnt := -1
	for j, typ := range reader.types {
		values, _, _, err := reader.pr.ReadColumnByIndex(int64(j), int64(want))
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, errors.Wrapf(err, "read %s column %s", reader.path, reader.names[j])
		}
		if rowCnt < 0 {
			rowCnt = len(values)
		} else if len(values) != rowCnt {
			return false, errors.Newf("column %s has %d values, previous columns %d",
				reader.names[j], len(values), rowCnt)
		}
		vec := reader.batch.Data[j]
		for i, raw := range values {
			val, err := parquetValue(raw, typ)
			if err != nil {
				return false, errors.Wrapf(err, "%s column %s row %d", reader.path, reader.names[j], reader.read+i)
			}
			if err = vec.SetValue(i, val); err != nil {
				return false, err
			}
		}
	}
	reader.batch.SetCard(rowCnt)
	reader.read += rowCnt
	return rowCnt > 0, nil
}

func parquetValue(raw any, typ common.LType) (any, error) {
	if raw == nil {
		return nil, errors.New("null value")
	}
	if s, ok := raw.(string); ok && typ.Id != common.LTID_VARCHAR {
		return chunk.ParseValue(s, typ)
	}
	return raw, nil
}

func (reader *ParquetReader) GetVector(ordinal int) *chunk.Vector {
	return reader.batch.Data[ordinal].Slice(0, reader.batch.Card())
}

func (reader *ParquetReader) Count() int {
	return reader.batch.Card()
}

// Reset reopens the file from the first row group.
func (reader *ParquetReader) Reset() error {
	if err := reader.Close(); err != nil {
		return err
	}
	file, err := pqLocal.NewLocalFileReader(reader.path)
	if err != nil {
		return errors.Wrapf(err, "open %s", reader.path)
	}
	pr, err := pqReader.NewParquetColumnReader(file, 1)
	if err != nil {
		_ = file.Close()
		return errors.Wrapf(err, "parquet footer of %s", reader.path)
	}
	reader.file = file
	reader.pr = pr
	reader.total = int(pr.GetNumRows())
	reader.read = 0
	reader.batch.SetCard(0)
	return nil
}

func (reader *ParquetReader) Close() error {
	if reader.pr == nil {
		return nil
	}
	reader.pr.ReadStop()
	err := reader.file.Close()
	reader.pr = nil
	reader.file = nil
	return err
}

func (reader *ParquetReader) Names() []string {
	return reader.names
}

func (reader *ParquetReader) Types() []common.LType {
	return reader.types
}
