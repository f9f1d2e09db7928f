package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipeline-pioneers/etl-warehouse/internal/table"
)

func TestBuildDimDateCoversFullRange(t *testing.T) {
	orders := []table.Record{
		{"created_at": "2022-11-03 14:20:52.186000", "agreed_delivery_date": "2022-11-10"},
		{"created_at": "2022-11-05 09:00:00.000000", "agreed_delivery_date": "2022-11-07"},
	}

	tbl, err := BuildDimDate(orders)
	require.NoError(t, err)

	// One row per day from the earliest to the latest observed date,
	// including days nothing referenced.
	require.Len(t, tbl.Rows, 8)
	assert.Equal(t, int64(20221103), tbl.Rows[0]["date_id"])
	assert.Equal(t, int64(20221110), tbl.Rows[7]["date_id"])

	first := tbl.Rows[0]
	assert.Equal(t, "2022-11-03", first["date"])
	assert.Equal(t, int64(2022), first["year"])
	assert.Equal(t, int64(11), first["month"])
	assert.Equal(t, int64(3), first["day"])
	assert.Equal(t, "Thursday", first["day_name"])
	assert.Equal(t, "November", first["month_name"])
	assert.Equal(t, int64(4), first["quarter"])
}

func TestBuildDimDateMondayIsZero(t *testing.T) {
	// 2024-01-01 was a Monday.
	tbl, err := BuildDimDate([]table.Record{{"payment_date": "2024-01-01"}})
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, int64(0), tbl.Rows[0]["day_of_week"])
}

func TestBuildDimDateIgnoresBadValuesAndNonDateColumns(t *testing.T) {
	records := []table.Record{
		{"created_at": "garbage", "units_sold": int64(99), "payment_date": "2024-06-01"},
		{"created_at": nil, "payment_date": nil},
	}

	tbl, err := BuildDimDate(records)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, int64(20240601), tbl.Rows[0]["date_id"])
}

func TestBuildDimDateNothingFound(t *testing.T) {
	tbl, err := BuildDimDate([]table.Record{{"units_sold": int64(1)}})
	require.NoError(t, err)
	assert.True(t, tbl.Empty())
}
