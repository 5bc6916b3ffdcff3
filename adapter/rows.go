package adapter

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Row is one result row with values materialized from Arrow arrays.
type Row []any

// readAll drains a RecordReader into rows.
func readAll(rr array.RecordReader) ([]Row, error) {
	var rows []Row
	for rr.Next() {
		rec := rr.Record()
		rows = append(rows, recordRows(rec)...)
	}
	if err := rr.Err(); err != nil {
		return nil, fmt.Errorf("failed to read result records: %w", err)
	}
	return rows, nil
}

func recordRows(rec arrow.Record) []Row {
	rows := make([]Row, rec.NumRows())
	for i := range rows {
		row := make(Row, rec.NumCols())
		for j := 0; j < int(rec.NumCols()); j++ {
			row[j] = valueAt(rec.Column(j), i)
		}
		rows[i] = row
	}
	return rows
}

// valueAt converts one Arrow array element to a plain Go value.
func valueAt(col arrow.Array, idx int) any {
	if col.IsNull(idx) {
		return nil
	}

	switch arr := col.(type) {
	case *array.Boolean:
		return arr.Value(idx)
	case *array.Int8:
		return int64(arr.Value(idx))
	case *array.Int16:
		return int64(arr.Value(idx))
	case *array.Int32:
		return int64(arr.Value(idx))
	case *array.Int64:
		return arr.Value(idx)
	case *array.Uint8:
		return uint64(arr.Value(idx))
	case *array.Uint16:
		return uint64(arr.Value(idx))
	case *array.Uint32:
		return uint64(arr.Value(idx))
	case *array.Uint64:
		return arr.Value(idx)
	case *array.Float32:
		return float64(arr.Value(idx))
	case *array.Float64:
		return arr.Value(idx)
	case *array.String:
		return arr.Value(idx)
	case *array.LargeString:
		return arr.Value(idx)
	case *array.Binary:
		return arr.Value(idx)
	case *array.Date32:
		return arr.Value(idx).ToTime()
	case *array.Date64:
		return arr.Value(idx).ToTime()
	case *array.Timestamp:
		unit := arr.DataType().(*arrow.TimestampType).Unit
		return arr.Value(idx).ToTime(unit)
	case *array.Decimal128:
		typ := arr.DataType().(*arrow.Decimal128Type)
		return arr.Value(idx).ToFloat64(typ.Scale)
	default:
		return col.ValueStr(idx)
	}
}
