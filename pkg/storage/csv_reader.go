package storage

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/daviszhen/pipegen/pkg/chunk"
	"github.com/daviszhen/pipegen/pkg/common"
)

type csvSource struct {
	path  string
	names []string
	types []common.LType
	comma rune
}

func (src *csvSource) open(batchSize int) (chunk.BatchReader, error) {
	reader := &CsvReader{
		path:      src.path,
		names:     src.names,
		types:     src.types,
		comma:     src.comma,
		batchSize: batchSize,
	}
	reader.batch.Init(src.types, batchSize)
	if err := reader.Reset(); err != nil {
		return nil, err
	}
	return reader, nil
}

// CsvReader streams a delimited text file. Field i of a line is column i.
// Lines may carry trailing fields beyond the declared columns.
type CsvReader struct {
	path      string
	names     []string
	types     []common.LType
	comma     rune
	batchSize int

	file  *os.File
	lines *csv.Reader
	line  int
	batch chunk.Chunk
	done  bool
}

var _ chunk.BatchReader = &CsvReader{}

func (reader *CsvReader) LoadNextBatch() (bool, error) {
	reader.batch.SetCard(0)
	if reader.done {
		return false, nil
	}
	count := 0
	for count < reader.batchSize {
		fields, err := reader.lines.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				reader.done = true
				break
			}
			return false, errors.Wrapf(err, "read %s", reader.path)
		}
		reader.line++
		if len(fields) < len(reader.types) {
			return false, errors.Newf("%s:%d: %d fields, want %d",
				reader.path, reader.line, len(fields), len(reader.types))
		}
		for j, typ := range reader.types {
			val, err := chunk.ParseValue(fields[j], typ)
			if err != nil {
				return false, errors.Wrapf(err, "%s:%d column %s", reader.path, reader.line, reader.names[j])
			}
			if err = reader.batch.Data[j].SetValue(count, val); err != nil {
				return false, err
			}
		}
		count++
	}
	reader.batch.SetCard(count)
	return count > 0, nil
}

func (reader *CsvReader) GetVector(ordinal int) *chunk.Vector {
	return reader.batch.Data[ordinal].Slice(0, reader.batch.Card())
}

func (reader *CsvReader) Count() int {
	return reader.batch.Card()
}

// Reset reopens the file from the start.
func (reader *CsvReader) Reset() error {
	if err := reader.Close(); err != nil {
		return err
	}
	file, err := os.Open(reader.path)
	if err != nil {
		return errors.Wrapf(err, "open %s", reader.path)
	}
	reader.file = file
	reader.lines = csv.NewReader(file)
	reader.lines.Comma = reader.comma
	reader.lines.FieldsPerRecord = -1
	reader.lines.ReuseRecord = true
	reader.line = 0
	reader.batch.SetCard(0)
	reader.done = false
	return nil
}

func (reader *CsvReader) Close() error {
	if reader.file == nil {
		return nil
	}
	err := reader.file.Close()
	reader.file = nil
	reader.lines = nil
	return err
}

func (reader *CsvReader) Names() []string {
	return reader.names
}

func (reader *CsvReader) Types() []common.LType {
	return reader.types
}
