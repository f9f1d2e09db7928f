package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecords(t *testing.T) {
	data := []byte(`[
		{"staff_id": 1, "rate": 2.5, "name": "Ana", "manager": null, "active": true},
		{"staff_id": 9007199254740993, "rate": 3, "name": "Bo", "manager": "Cy", "active": false}
	]`)

	records, err := DecodeRecords(data)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, int64(1), records[0]["staff_id"])
	assert.Equal(t, 2.5, records[0]["rate"])
	assert.Equal(t, "Ana", records[0]["name"])
	assert.Nil(t, records[0]["manager"])
	assert.Equal(t, true, records[0]["active"])

	// Values beyond float64 precision survive intact.
	assert.Equal(t, int64(9007199254740993), records[1]["staff_id"])
	assert.Equal(t, int64(3), records[1]["rate"])
}

func TestDecodeRecordsRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeRecords([]byte(`{"not": "an array"}`))
	assert.Error(t, err)
}

func TestHasColumns(t *testing.T) {
	records := []Record{
		{"a": 1},
		{"b": 2},
	}

	assert.NoError(t, HasColumns(records, "a", "b"))

	err := HasColumns(records, "a", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestTableEmpty(t *testing.T) {
	var nilTable *Table
	assert.True(t, nilTable.Empty())
	assert.True(t, New("a").Empty())

	tbl := New("a")
	tbl.Append(Record{"a": 1})
	assert.False(t, tbl.Empty())
}
