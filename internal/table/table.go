package table

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one raw row as it arrives from the source database or from a
// raw JSON blob: column name to scalar value. Columns may be absent; it is
// up to each transform to declare what it requires.
type Record map[string]any

// Table is the tabular shape exchanged between the transform and load
// stages: a fixed column order plus one Record per row. Rows may carry nil
// values for any column.
type Table struct {
	Columns []string
	Rows    []Record
}

// New returns an empty table with the given column order.
func New(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds a row. Values not named in Columns are ignored by writers.
func (t *Table) Append(row Record) {
	t.Rows = append(t.Rows, row)
}

// Empty reports whether the table is nil or has no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// HasColumns reports the first required column missing from the record set,
// checking every row so sparse batches are caught too.
func HasColumns(records []Record, required ...string) error {
	for _, col := range required {
		found := false
		for _, rec := range records {
			if _, ok := rec[col]; ok {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("required column %q is missing", col)
		}
	}
	return nil
}

// DecodeRecords parses a JSON array of row objects, keeping numeric
// precision via json.Number and normalizing values afterwards.
func DecodeRecords(data []byte) ([]Record, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding record batch: %w", err)
	}
	records := make([]Record, 0, len(raw))
	for _, obj := range raw {
		rec := Record{}
		for col, val := range obj {
			v, err := decodeValue(val)
			if err != nil {
				return nil, fmt.Errorf("decoding column %q: %w", col, err)
			}
			rec[col] = v
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return Normalize(v), nil
}
