package transform

import (
	"fmt"

	"github.com/pipeline-pioneers/etl-warehouse/internal/table"
)

// FactSalesOrder maps sales_order rows onto the append-only sales fact:
// staff_id becomes sales_staff_id and both the creation and last-update
// instants are split into separate date and time-of-day columns.
func FactSalesOrder(inputs map[string][]table.Record) (*table.Table, error) {
	orders := inputs["sales_order"]
	if len(orders) == 0 {
		return nil, nil
	}
	if err := table.HasColumns(orders, "sales_order_id", "created_at", "last_updated"); err != nil {
		return nil, fmt.Errorf("fact_sales_order: %w", err)
	}

	out := table.New(
		"sales_order_id",
		"created_date", "created_time",
		"last_updated_date", "last_updated_time",
		"sales_staff_id", "counterparty_id",
		"units_sold", "unit_price", "currency_id", "design_id",
		"agreed_payment_date", "agreed_delivery_date", "agreed_delivery_location_id",
	)
	for _, order := range orders {
		row := table.Record{
			"sales_order_id":              order["sales_order_id"],
			"sales_staff_id":              order["staff_id"],
			"counterparty_id":             order["counterparty_id"],
			"units_sold":                  order["units_sold"],
			"unit_price":                  order["unit_price"],
			"currency_id":                 order["currency_id"],
			"design_id":                   order["design_id"],
			"agreed_payment_date":         normalizeDate(order["agreed_payment_date"]),
			"agreed_delivery_date":        normalizeDate(order["agreed_delivery_date"]),
			"agreed_delivery_location_id": order["agreed_delivery_location_id"],
		}
		splitInstant(order["created_at"], row, "created_date", "created_time")
		splitInstant(order["last_updated"], row, "last_updated_date", "last_updated_time")
		out.Append(row)
	}
	return out, nil
}

// FactPayment left-joins the transaction type and payment-type display name
// onto payment rows, then applies the same date/time decomposition as the
// sales fact. Join misses leave the looked-up fields null (left join), they
// never drop the payment.
func FactPayment(inputs map[string][]table.Record) (*table.Table, error) {
	payments := inputs["payment"]
	transactions := inputs["transaction"]
	paymentTypes := inputs["payment_type"]
	if len(payments) == 0 {
		return nil, nil
	}
	if err := table.HasColumns(payments, "payment_id", "created_at", "last_updated"); err != nil {
		return nil, fmt.Errorf("fact_payment: %w", err)
	}

	transactionByID := indexBy(transactions, "transaction_id")
	paymentTypeByID := indexBy(paymentTypes, "payment_type_id")

	out := table.New(
		"payment_id",
		"created_date", "created_time",
		"last_updated_date", "last_updated_time",
		"transaction_id", "counterparty_id",
		"payment_amount", "currency_id",
		"payment_type_id", "payment_type_name",
		"paid", "payment_date",
	)
	for _, payment := range payments {
		row := table.Record{
			"payment_id":      payment["payment_id"],
			"transaction_id":  payment["transaction_id"],
			"counterparty_id": payment["counterparty_id"],
			"payment_amount":  payment["payment_amount"],
			"currency_id":     payment["currency_id"],
			"payment_type_id": payment["payment_type_id"],
			"paid":            payment["paid"],
			"payment_date":    normalizeDate(payment["payment_date"]),
		}
		if pt, ok := paymentTypeByID[table.Canonical(payment["payment_type_id"])]; ok {
			row["payment_type_name"] = pt["payment_type_name"]
		}
		// transaction_type is joined on but projected out: it is not part
		// of the warehouse fact shape.
		if tx, ok := transactionByID[table.Canonical(payment["transaction_id"])]; ok {
			row["transaction_type"] = tx["transaction_type"]
		}

		splitInstant(payment["created_at"], row, "created_date", "created_time")
		splitInstant(payment["last_updated"], row, "last_updated_date", "last_updated_time")
		out.Append(row)
	}
	return out, nil
}

// splitInstant decomposes one timestamp value into date and time-of-day
// columns. Unparseable values leave both null rather than failing the row.
func splitInstant(v any, row table.Record, dateCol, timeCol string) {
	t, ok := table.ParseTimestamp(v)
	if !ok {
		row[dateCol] = nil
		row[timeCol] = nil
		return
	}
	row[dateCol] = table.FormatDate(t)
	row[timeCol] = table.FormatTimeOfDay(t)
}

// normalizeDate collapses timestamp-rendered calendar dates ("2024-01-02T
// 00:00:00Z" after a JSON round-trip) back to their date form.
func normalizeDate(v any) any {
	t, ok := table.ParseTimestamp(v)
	if !ok {
		return v
	}
	return table.FormatDate(t)
}
