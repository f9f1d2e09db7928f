package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipeline-pioneers/etl-warehouse/internal/table"
)

func TestFactSalesOrderSplitsInstants(t *testing.T) {
	inputs := map[string][]table.Record{
		"sales_order": {{
			"sales_order_id":              int64(2),
			"created_at":                  "2022-11-03 14:20:52.186000",
			"last_updated":                "2022-11-03 14:20:52.186000",
			"staff_id":                    int64(19),
			"counterparty_id":             int64(8),
			"units_sold":                  int64(42972),
			"unit_price":                  3.94,
			"currency_id":                 int64(2),
			"design_id":                   int64(3),
			"agreed_payment_date":         "2022-11-08",
			"agreed_delivery_date":        "2022-11-07",
			"agreed_delivery_location_id": int64(8),
		}},
	}

	tbl, err := FactSalesOrder(inputs)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)

	row := tbl.Rows[0]
	assert.Equal(t, "2022-11-03", row["created_date"])
	assert.Equal(t, "14:20:52.186000", row["created_time"])
	assert.Equal(t, "2022-11-03", row["last_updated_date"])
	assert.Equal(t, "14:20:52.186000", row["last_updated_time"])
	assert.Equal(t, int64(19), row["sales_staff_id"])
	assert.Equal(t, "2022-11-08", row["agreed_payment_date"])

	assert.NotContains(t, tbl.Columns, "staff_id")
	assert.NotContains(t, tbl.Columns, "created_at")
}

func TestFactSalesOrderUnparseableInstantGoesNull(t *testing.T) {
	inputs := map[string][]table.Record{
		"sales_order": {{
			"sales_order_id": int64(1),
			"created_at":     "not a timestamp",
			"last_updated":   "2022-11-03 14:20:52.186000",
		}},
	}

	tbl, err := FactSalesOrder(inputs)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Nil(t, tbl.Rows[0]["created_date"])
	assert.Nil(t, tbl.Rows[0]["created_time"])
	assert.Equal(t, "2022-11-03", tbl.Rows[0]["last_updated_date"])
}

func TestFactPaymentJoinsLookups(t *testing.T) {
	inputs := map[string][]table.Record{
		"payment": {{
			"payment_id":      int64(5),
			"created_at":      "2022-11-03 14:20:52.187000",
			"last_updated":    "2022-11-03 14:20:52.187000",
			"transaction_id":  int64(5),
			"counterparty_id": int64(11),
			"payment_amount":  "570463.23",
			"currency_id":     int64(2),
			"payment_type_id": int64(3),
			"paid":            false,
			"payment_date":    "2022-11-06",
		}},
		"transaction": {{
			"transaction_id":   int64(5),
			"transaction_type": "PURCHASE",
		}},
		"payment_type": {{
			"payment_type_id":   int64(3),
			"payment_type_name": "PURCHASE_PAYMENT",
		}},
	}

	tbl, err := FactPayment(inputs)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)

	row := tbl.Rows[0]
	assert.Equal(t, "PURCHASE_PAYMENT", row["payment_type_name"])
	assert.Equal(t, "2022-11-03", row["created_date"])
	assert.Equal(t, "14:20:52.187000", row["created_time"])

	// The joined transaction_type never reaches the output shape.
	assert.NotContains(t, tbl.Columns, "transaction_type")
}

func TestFactPaymentLeftJoinMissLeavesNull(t *testing.T) {
	inputs := map[string][]table.Record{
		"payment": {{
			"payment_id":      int64(5),
			"created_at":      "2022-11-03 14:20:52.187000",
			"last_updated":    "2022-11-03 14:20:52.187000",
			"payment_type_id": int64(404),
		}},
		"transaction":  nil,
		"payment_type": nil,
	}

	tbl, err := FactPayment(inputs)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Nil(t, tbl.Rows[0]["payment_type_name"])
}
