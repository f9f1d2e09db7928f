package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParquetRoundTrip(t *testing.T) {
	tbl := New("staff_id", "rate", "name", "active", "note")
	tbl.Append(Record{"staff_id": int64(1), "rate": 2.5, "name": "Ana", "active": true, "note": nil})
	tbl.Append(Record{"staff_id": int64(2), "rate": 4.0, "name": "Bo", "active": false, "note": "on leave"})

	blob, err := tbl.MarshalParquet("dim_staff")
	require.NoError(t, err)
	require.NotEmpty(t, blob)

	got, err := UnmarshalParquet(blob)
	require.NoError(t, err)

	// Parquet group fields come back in name order.
	assert.ElementsMatch(t, tbl.Columns, got.Columns)
	require.Len(t, got.Rows, 2)

	assert.Equal(t, int64(1), got.Rows[0]["staff_id"])
	assert.Equal(t, "Ana", got.Rows[0]["name"])
	assert.Equal(t, true, got.Rows[0]["active"])
	assert.Nil(t, got.Rows[0]["note"])
	assert.Equal(t, "on leave", got.Rows[1]["note"])
	assert.Equal(t, Canonical(2.5), Canonical(got.Rows[0]["rate"]))
}

func TestParquetIntegralFloatsBecomeInts(t *testing.T) {
	// JSON decoding can leave integral values as float64; the column should
	// still serialize as an integer column.
	tbl := New("id")
	tbl.Append(Record{"id": float64(7)})

	blob, err := tbl.MarshalParquet("ids")
	require.NoError(t, err)

	got, err := UnmarshalParquet(blob)
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, int64(7), got.Rows[0]["id"])
}

func TestParquetMixedColumnFallsBackToString(t *testing.T) {
	tbl := New("v")
	tbl.Append(Record{"v": int64(1)})
	tbl.Append(Record{"v": "two"})

	blob, err := tbl.MarshalParquet("mixed")
	require.NoError(t, err)

	got, err := UnmarshalParquet(blob)
	require.NoError(t, err)
	assert.Equal(t, "1", got.Rows[0]["v"])
	assert.Equal(t, "two", got.Rows[1]["v"])
}

func TestMarshalParquetRejectsEmptyTable(t *testing.T) {
	_, err := New("a").MarshalParquet("empty")
	assert.Error(t, err)
}
