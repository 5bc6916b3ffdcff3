// Package arrowutil provides small helpers for working with Arrow records.
package arrowutil

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// SingleRecordReader adapts one arrow.Record into an array.RecordReader.
// Useful for feeding a materialized record into code that consumes streams,
// such as bulk table replacement.
type SingleRecordReader struct {
	record arrow.Record
	done   bool
}

var _ array.RecordReader = (*SingleRecordReader)(nil)

// NewSingleRecordReader wraps record in a reader that yields it once.
// The reader takes over the caller's reference: Release releases the record.
func NewSingleRecordReader(record arrow.Record) *SingleRecordReader {
	return &SingleRecordReader{record: record}
}

// Schema returns the schema of the wrapped record.
func (r *SingleRecordReader) Schema() *arrow.Schema {
	return r.record.Schema()
}

// Next advances the reader. It returns true exactly once.
func (r *SingleRecordReader) Next() bool {
	if r.done {
		return false
	}
	r.done = true
	return true
}

// Record returns the wrapped record.
func (r *SingleRecordReader) Record() arrow.Record {
	return r.record
}

// Err always returns nil.
func (r *SingleRecordReader) Err() error {
	return nil
}

// Release releases the wrapped record.
func (r *SingleRecordReader) Release() {
	r.record.Release()
}

// Retain increases the reference count of the wrapped record.
func (r *SingleRecordReader) Retain() {
	r.record.Retain()
}
