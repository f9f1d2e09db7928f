package table

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"
)

// columnKind is the physical type a column gets in the Parquet schema,
// inferred from its values.
type columnKind int

const (
	kindString columnKind = iota
	kindInt64
	kindDouble
	kindBool
)

// MarshalParquet serializes the table as a Parquet blob with a runtime
// schema: one optional leaf per column, typed by what the rows hold.
func (t *Table) MarshalParquet(name string) ([]byte, error) {
	if t.Empty() {
		return nil, errors.New("cannot serialize an empty table")
	}

	kinds := make(map[string]columnKind, len(t.Columns))
	group := parquet.Group{}
	for _, col := range t.Columns {
		kind := t.inferKind(col)
		kinds[col] = kind
		group[col] = parquet.Optional(leafNode(kind))
	}
	schema := parquet.NewSchema(name, group)

	rows := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		converted := make(map[string]any, len(t.Columns))
		for _, col := range t.Columns {
			v := coerce(row[col], kinds[col])
			if v != nil {
				converted[col] = v
			}
		}
		rows = append(rows, converted)
	}

	buf := new(bytes.Buffer)
	writer := parquet.NewGenericWriter[map[string]any](buf, schema)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("writing parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalParquet reads a Parquet blob back into a table. Parquet stores
// group fields in name order, so Columns come back sorted; the loader does
// not depend on column position.
func UnmarshalParquet(data []byte) (*Table, error) {
	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening parquet blob: %w", err)
	}

	schema := file.Schema()
	columns := make([]string, 0, len(schema.Fields()))
	for _, field := range schema.Fields() {
		columns = append(columns, field.Name())
	}

	out := New(columns...)
	for _, rowGroup := range file.RowGroups() {
		rows := rowGroup.Rows()
		buf := make([]parquet.Row, 64)
		for {
			n, err := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				m := map[string]any{}
				if rerr := schema.Reconstruct(&m, buf[i]); rerr != nil {
					rows.Close()
					return nil, fmt.Errorf("reconstructing parquet row: %w", rerr)
				}
				rec := Record{}
				for col, v := range m {
					if b, ok := v.([]byte); ok {
						v = string(b)
					}
					rec[col] = v
				}
				out.Append(rec)
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				rows.Close()
				return nil, fmt.Errorf("reading parquet rows: %w", err)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("closing parquet row reader: %w", err)
		}
	}
	return out, nil
}

// inferKind scans the column's non-null values. Mixed or unknown content
// falls back to string.
func (t *Table) inferKind(col string) columnKind {
	kind := kindString
	sawValue := false
	for _, row := range t.Rows {
		v := row[col]
		if v == nil {
			continue
		}
		var this columnKind
		switch n := v.(type) {
		case int, int32, int64:
			this = kindInt64
		case float32:
			this = kindDouble
		case float64:
			if n == float64(int64(n)) {
				this = kindInt64
			} else {
				this = kindDouble
			}
		case bool:
			this = kindBool
		default:
			return kindString
		}
		if !sawValue {
			kind = this
			sawValue = true
			continue
		}
		if kind != this {
			if (kind == kindInt64 && this == kindDouble) || (kind == kindDouble && this == kindInt64) {
				kind = kindDouble
				continue
			}
			return kindString
		}
	}
	return kind
}

func leafNode(kind columnKind) parquet.Node {
	switch kind {
	case kindInt64:
		return parquet.Int(64)
	case kindDouble:
		return parquet.Leaf(parquet.DoubleType)
	case kindBool:
		return parquet.Leaf(parquet.BooleanType)
	default:
		return parquet.String()
	}
}

func coerce(v any, kind columnKind) any {
	if v == nil {
		return nil
	}
	switch kind {
	case kindInt64:
		switch n := v.(type) {
		case int:
			return int64(n)
		case int32:
			return int64(n)
		case int64:
			return n
		case float64:
			return int64(n)
		case float32:
			return int64(n)
		}
	case kindDouble:
		switch n := v.(type) {
		case int:
			return float64(n)
		case int32:
			return float64(n)
		case int64:
			return float64(n)
		case float32:
			return float64(n)
		case float64:
			return n
		}
	case kindBool:
		if b, ok := v.(bool); ok {
			return b
		}
	case kindString:
		switch s := v.(type) {
		case string:
			return s
		case []byte:
			return string(s)
		case time.Time:
			return s.UTC().Format(time.RFC3339Nano)
		default:
			return fmt.Sprintf("%v", v)
		}
	}
	return fmt.Sprintf("%v", v)
}
