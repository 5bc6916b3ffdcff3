package arrowutil

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
)

func testRecord() arrow.Record {
	pool := memory.NewGoAllocator()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(pool, schema)
	defer b.Release()

	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2, 3}, nil)
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"alice", "bob", "charlie"}, nil)

	return b.NewRecord()
}

func TestNewSingleRecordReader(t *testing.T) {
	record := testRecord()

	reader := NewSingleRecordReader(record)
	defer reader.Release()

	assert.NotNil(t, reader)
	assert.Equal(t, record.Schema(), reader.Schema())
}

// TestNext ensures the reader yields its record exactly once.
func TestNext(t *testing.T) {
	reader := NewSingleRecordReader(testRecord())
	defer reader.Release()

	assert.True(t, reader.Next(), "First call to Next() should return true")
	assert.False(t, reader.Next(), "Subsequent calls to Next() should return false")
}

func TestRecord(t *testing.T) {
	record := testRecord()

	reader := NewSingleRecordReader(record)
	defer reader.Release()

	assert.Equal(t, record, reader.Record(), "Record() should return the stored record")
}

func TestErr(t *testing.T) {
	reader := NewSingleRecordReader(testRecord())
	defer reader.Release()

	assert.Nil(t, reader.Err(), "Err() should always return nil")
}

// TestRetain ensures a retained reference can be released safely.
func TestRetain(t *testing.T) {
	reader := NewSingleRecordReader(testRecord())

	reader.Retain()
	reader.Release()
	reader.Release()
}
