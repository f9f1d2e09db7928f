package load

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipeline-pioneers/etl-warehouse/internal/table"
)

func TestUpsertStatement(t *testing.T) {
	sql := upsertStatement("dim_currency", []string{"currency_id", "currency_code", "currency_name"}, "currency_id", 2)

	assert.Equal(t,
		`INSERT INTO "dim_currency" ("currency_id", "currency_code", "currency_name") `+
			`VALUES (?, ?, ?), (?, ?, ?) `+
			`ON CONFLICT ("currency_id") DO UPDATE SET `+
			`"currency_code" = EXCLUDED."currency_code", "currency_name" = EXCLUDED."currency_name";`,
		sql)
}

func TestInsertStatement(t *testing.T) {
	sql := insertStatement("fact_payment", []string{"payment_id", "paid"}, 1)
	assert.Equal(t, `INSERT INTO "fact_payment" ("payment_id", "paid") VALUES (?, ?);`, sql)
}

func TestFlattenArgsFollowsColumnOrder(t *testing.T) {
	rows := []table.Record{
		{"a": int64(1), "b": "x"},
		{"a": int64(2), "b": "y"},
	}
	args := flattenArgs(rows, []string{"b", "a"})
	assert.Equal(t, []any{"x", int64(1), "y", int64(2)}, args)
}

func TestMissingRowsComparesByContent(t *testing.T) {
	tbl := table.New("sales_order_id", "unit_price", "created_date")
	tbl.Append(table.Record{"sales_order_id": int64(1), "unit_price": 3.94, "created_date": "2022-11-03"})
	tbl.Append(table.Record{"sales_order_id": int64(2), "unit_price": 2.5, "created_date": "2022-11-04"})

	// What the warehouse hands back: NUMERIC as text, DATE as time.Time.
	existing := []table.Record{{
		"sales_order_id": int64(1),
		"unit_price":     "3.94",
		"created_date":   time.Date(2022, 11, 3, 0, 0, 0, 0, time.UTC),
	}}

	missing := missingRows(tbl, existing)
	require.Len(t, missing, 1)
	assert.Equal(t, int64(2), missing[0]["sales_order_id"])
}

func TestMissingRowsKeySameContentDifferent(t *testing.T) {
	// Same key, changed content: the row is new and must be inserted again.
	tbl := table.New("sales_order_id", "units_sold")
	tbl.Append(table.Record{"sales_order_id": int64(1), "units_sold": int64(100)})

	existing := []table.Record{{"sales_order_id": int64(1), "units_sold": int64(99)}}

	missing := missingRows(tbl, existing)
	require.Len(t, missing, 1)
}

func TestChunkRowsRespectsBindParamCap(t *testing.T) {
	rows := make([]table.Record, 7)
	for i := range rows {
		rows[i] = table.Record{"a": int64(i)}
	}

	chunks := chunkRows(rows, maxBindParams/3)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 3)
	assert.Len(t, chunks[1], 3)
	assert.Len(t, chunks[2], 1)

	single := chunkRows(rows, maxBindParams*2)
	require.Len(t, single, 7)
}

func TestDimPrimaryKeysCoverAllDimensions(t *testing.T) {
	for name, pk := range dimPrimaryKeys {
		assert.Contains(t, name, "dim_")
		assert.NotEmpty(t, pk)
	}
	assert.Equal(t, "date_id", dimPrimaryKeys["dim_date"])
	assert.Equal(t, "location_id", dimPrimaryKeys["dim_location"])
}
