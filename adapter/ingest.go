package adapter

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/array"
)

// insertBatchSize bounds the number of row tuples per INSERT statement.
const insertBatchSize = 1000

// ReplaceQuery replaces the contents of a table with the rows of an Arrow
// record stream. The table is created from columns when it does not exist
// yet, then emptied and reloaded in batched inserts.
func (a *Adapter) ReplaceQuery(ctx context.Context, name string, rr array.RecordReader, columns []Column) error {
	t, err := ParseTableName(name)
	if err != nil {
		return err
	}

	if len(columns) > 0 {
		if err := a.CreateTable(ctx, name, columns); err != nil {
			return err
		}
	} else if err := a.ensureSchema(ctx, t); err != nil {
		return err
	}

	if err := a.Execute(ctx, deleteAllSQL(t)); err != nil {
		return fmt.Errorf("failed to empty table %s: %w", t, err)
	}

	colNames := make([]string, len(rr.Schema().Fields()))
	for i, f := range rr.Schema().Fields() {
		colNames[i] = f.Name
	}
	if len(colNames) == 0 {
		return fmt.Errorf("record stream for table %s has no columns", t)
	}

	var pending []Row
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := a.Execute(ctx, insertValuesSQL(t, colNames, pending)); err != nil {
			return fmt.Errorf("failed to insert batch into %s: %w", t, err)
		}
		pending = pending[:0]
		return nil
	}

	for rr.Next() {
		for _, row := range recordRows(rr.Record()) {
			pending = append(pending, row)
			if len(pending) >= insertBatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	if err := rr.Err(); err != nil {
		return fmt.Errorf("failed to read record stream for %s: %w", t, err)
	}
	return flush()
}
