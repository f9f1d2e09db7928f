package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipeline-pioneers/etl-warehouse/internal/table"
)

func TestArchiverKeyLayout(t *testing.T) {
	a := &Archiver{}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	key := a.Key("staff", now)
	assert.Equal(t, "ingestion/staff/2024/01/02/staff_2024-01-02T03:04:05Z.json", key)
}

func TestArchiveWritesDecodableBatch(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	a := &Archiver{Store: store, Bucket: "ingestion"}

	records := []table.Record{
		{"staff_id": int64(1), "first_name": "Ana"},
		{"staff_id": int64(2), "first_name": "Bo"},
	}
	key, err := a.Archive(ctx, "staff", records, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	body, err := store.Get(ctx, "ingestion", key)
	require.NoError(t, err)

	decoded, err := table.DecodeRecords(body)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, int64(1), decoded[0]["staff_id"])
	assert.Equal(t, "Bo", decoded[1]["first_name"])
}
