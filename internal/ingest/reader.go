package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pipeline-pioneers/etl-warehouse/internal/table"
)

// Entities is the closed set of operational tables extracted each run.
var Entities = []string{
	"counterparty",
	"currency",
	"department",
	"design",
	"staff",
	"sales_order",
	"address",
	"payment",
	"purchase_order",
	"payment_type",
	"transaction",
}

// Querier runs one query and hands back column names plus row values. It
// exists so the reader can be tested without a database.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (columns []string, rows [][]any, err error)
}

// GormQuerier adapts a gorm connection to the Querier contract.
type GormQuerier struct {
	DB *gorm.DB
}

func (q *GormQuerier) Query(ctx context.Context, sql string, args ...any) ([]string, [][]any, error) {
	rows, err := q.DB.WithContext(ctx).Raw(sql, args...).Rows()
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		scan := make([]any, len(columns))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, nil, err
		}
		out = append(out, values)
	}
	return columns, out, rows.Err()
}

// SourceReader fetches rows changed since the watermark, one entity at a
// time. A failed query for one entity omits that entity and carries on; the
// connection itself failing is the caller's fatal error.
type SourceReader struct {
	Querier Querier
	Log     *zap.Logger
}

func (r *SourceReader) FetchTables(ctx context.Context, since time.Time) map[string][]table.Record {
	tablesData := make(map[string][]table.Record)

	for _, entity := range Entities {
		// Entity names come from the fixed list above, never from input.
		query := fmt.Sprintf(`SELECT * FROM %s WHERE last_updated > ?;`, entity)

		columns, rows, err := r.Querier.Query(ctx, query, since)
		if err != nil {
			r.Log.Error("failed to fetch data from source table",
				zap.String("entity", entity), zap.Error(err))
			continue
		}
		if len(rows) == 0 {
			r.Log.Info("no new data", zap.String("entity", entity))
			continue
		}

		records := make([]table.Record, 0, len(rows))
		for _, row := range rows {
			rec := table.Record{}
			for i, col := range columns {
				rec[col] = normalizeDBValue(row[i])
			}
			records = append(records, rec)
		}
		tablesData[entity] = records
		r.Log.Info("fetched new data", zap.String("entity", entity), zap.Int("rows", len(records)))
	}
	return tablesData
}

// normalizeDBValue keeps raw records JSON-friendly: byte slices (NUMERIC,
// TEXT under some drivers) become strings, times stay time.Time so they
// serialize as ISO-8601.
func normalizeDBValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
