package transform

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pipeline-pioneers/etl-warehouse/internal/table"
)

// currencyNames is the static display-name lookup; codes outside it map to
// the sentinel below.
var currencyNames = map[string]string{
	"USD": "US Dollar",
	"EUR": "Euro",
	"GBP": "British Pound",
	"JPY": "Japanese Yen",
}

const unknownCurrency = "Unknown Currency"

// DimLocation maps address rows onto dim_location: audit columns dropped,
// address_id renamed to location_id, everything else 1:1.
func DimLocation(inputs map[string][]table.Record) (*table.Table, error) {
	addresses := inputs["address"]
	if len(addresses) == 0 {
		return nil, nil
	}
	if err := table.HasColumns(addresses, "address_id"); err != nil {
		return nil, fmt.Errorf("dim_location: %w", err)
	}

	out := table.New(
		"location_id", "address_line_1", "address_line_2", "district",
		"city", "postal_code", "country", "phone",
	)
	for _, addr := range addresses {
		out.Append(table.Record{
			"location_id":    addr["address_id"],
			"address_line_1": addr["address_line_1"],
			"address_line_2": addr["address_line_2"],
			"district":       addr["district"],
			"city":           addr["city"],
			"postal_code":    addr["postal_code"],
			"country":        addr["country"],
			"phone":          addr["phone"],
		})
	}
	return dedupe(out), nil
}

// DimCounterparty inner-joins counterparty rows to their legal address and
// renames the address fields with the counterparty_legal_ prefix. A
// counterparty whose legal_address_id has no matching address is dropped,
// not emitted with blank fields.
func DimCounterparty(inputs map[string][]table.Record) (*table.Table, error) {
	counterparties := inputs["counterparty"]
	addresses := inputs["address"]
	if len(counterparties) == 0 {
		return nil, nil
	}
	if err := table.HasColumns(counterparties, "counterparty_id", "legal_address_id"); err != nil {
		return nil, fmt.Errorf("dim_counterparty: %w", err)
	}
	if err := table.HasColumns(addresses, "address_id"); err != nil {
		return nil, fmt.Errorf("dim_counterparty: %w", err)
	}

	addressByID := indexBy(addresses, "address_id")

	out := table.New(
		"counterparty_id", "counterparty_legal_name",
		"counterparty_legal_address_line_1", "counterparty_legal_address_line_2",
		"counterparty_legal_district", "counterparty_legal_city",
		"counterparty_legal_postal_code", "counterparty_legal_country",
		"counterparty_legal_phone_number",
	)
	dropped := 0
	for _, cp := range counterparties {
		addr, ok := addressByID[table.Canonical(cp["legal_address_id"])]
		if !ok {
			dropped++
			continue
		}
		out.Append(table.Record{
			"counterparty_id":                   cp["counterparty_id"],
			"counterparty_legal_name":           cp["counterparty_legal_name"],
			"counterparty_legal_address_line_1": addr["address_line_1"],
			"counterparty_legal_address_line_2": addr["address_line_2"],
			"counterparty_legal_district":       addr["district"],
			"counterparty_legal_city":           addr["city"],
			"counterparty_legal_postal_code":    addr["postal_code"],
			"counterparty_legal_country":        addr["country"],
			"counterparty_legal_phone_number":   addr["phone"],
		})
	}
	if dropped > 0 {
		zap.L().Warn("dim_counterparty dropped rows with no matching legal address",
			zap.Int("dropped", dropped))
	}
	return out, nil
}

// DimCurrency projects currency rows and attaches the display name,
// falling back to the sentinel for unrecognized codes. Exact duplicate
// rows collapse to one.
func DimCurrency(inputs map[string][]table.Record) (*table.Table, error) {
	currencies := inputs["currency"]
	if len(currencies) == 0 {
		return nil, nil
	}
	if err := table.HasColumns(currencies, "currency_id", "currency_code"); err != nil {
		return nil, fmt.Errorf("dim_currency: %w", err)
	}

	out := table.New("currency_id", "currency_code", "currency_name")
	for _, cur := range currencies {
		code, _ := cur["currency_code"].(string)
		name, ok := currencyNames[code]
		if !ok {
			name = unknownCurrency
		}
		out.Append(table.Record{
			"currency_id":   cur["currency_id"],
			"currency_code": cur["currency_code"],
			"currency_name": name,
		})
	}
	return dedupe(out), nil
}

// DimStaff inner-joins staff to their department, keeping the department's
// name and location and dropping its manager and audit columns. Staff with
// no matching department are dropped.
func DimStaff(inputs map[string][]table.Record) (*table.Table, error) {
	staff := inputs["staff"]
	departments := inputs["department"]
	if len(staff) == 0 {
		return nil, nil
	}
	if err := table.HasColumns(staff, "staff_id", "department_id"); err != nil {
		return nil, fmt.Errorf("dim_staff: %w", err)
	}
	if err := table.HasColumns(departments, "department_id"); err != nil {
		return nil, fmt.Errorf("dim_staff: %w", err)
	}

	departmentByID := indexBy(departments, "department_id")

	out := table.New(
		"staff_id", "first_name", "last_name",
		"department_name", "location", "email_address",
	)
	dropped := 0
	for _, member := range staff {
		dept, ok := departmentByID[table.Canonical(member["department_id"])]
		if !ok {
			dropped++
			continue
		}
		out.Append(table.Record{
			"staff_id":        member["staff_id"],
			"first_name":      member["first_name"],
			"last_name":       member["last_name"],
			"department_name": dept["department_name"],
			"location":        dept["location"],
			"email_address":   member["email_address"],
		})
	}
	if dropped > 0 {
		zap.L().Warn("dim_staff dropped rows with no matching department",
			zap.Int("dropped", dropped))
	}
	return out, nil
}

// DimDesign projects the four business columns of design and collapses
// exact duplicates.
func DimDesign(inputs map[string][]table.Record) (*table.Table, error) {
	designs := inputs["design"]
	if len(designs) == 0 {
		return nil, nil
	}
	if err := table.HasColumns(designs, "design_id"); err != nil {
		return nil, fmt.Errorf("dim_design: %w", err)
	}

	out := table.New("design_id", "design_name", "file_location", "file_name")
	for _, d := range designs {
		out.Append(table.Record{
			"design_id":     d["design_id"],
			"design_name":   d["design_name"],
			"file_location": d["file_location"],
			"file_name":     d["file_name"],
		})
	}
	return dedupe(out), nil
}

// DimDepartment is a passthrough of the department's business columns.
func DimDepartment(inputs map[string][]table.Record) (*table.Table, error) {
	departments := inputs["department"]
	if len(departments) == 0 {
		return nil, nil
	}
	if err := table.HasColumns(departments, "department_id"); err != nil {
		return nil, fmt.Errorf("dim_department: %w", err)
	}

	out := table.New("department_id", "department_name", "location", "manager")
	for _, d := range departments {
		out.Append(table.Record{
			"department_id":   d["department_id"],
			"department_name": d["department_name"],
			"location":        d["location"],
			"manager":         d["manager"],
		})
	}
	return dedupe(out), nil
}

// DimTransaction projects transaction rows without their audit columns.
func DimTransaction(inputs map[string][]table.Record) (*table.Table, error) {
	transactions := inputs["transaction"]
	if len(transactions) == 0 {
		return nil, nil
	}
	if err := table.HasColumns(transactions, "transaction_id"); err != nil {
		return nil, fmt.Errorf("dim_transaction: %w", err)
	}

	out := table.New("transaction_id", "transaction_type", "sales_order_id", "purchase_order_id")
	for _, tx := range transactions {
		out.Append(table.Record{
			"transaction_id":    tx["transaction_id"],
			"transaction_type":  tx["transaction_type"],
			"sales_order_id":    tx["sales_order_id"],
			"purchase_order_id": tx["purchase_order_id"],
		})
	}
	return dedupe(out), nil
}

// DimPaymentType projects payment_type rows without their audit columns.
func DimPaymentType(inputs map[string][]table.Record) (*table.Table, error) {
	paymentTypes := inputs["payment_type"]
	if len(paymentTypes) == 0 {
		return nil, nil
	}
	if err := table.HasColumns(paymentTypes, "payment_type_id"); err != nil {
		return nil, fmt.Errorf("dim_payment_type: %w", err)
	}

	out := table.New("payment_type_id", "payment_type_name")
	for _, pt := range paymentTypes {
		out.Append(table.Record{
			"payment_type_id":   pt["payment_type_id"],
			"payment_type_name": pt["payment_type_name"],
		})
	}
	return dedupe(out), nil
}

// indexBy builds a lookup from the canonical rendering of one column so
// joins work whether keys decoded as int64 or float64.
func indexBy(records []table.Record, column string) map[string]table.Record {
	index := make(map[string]table.Record, len(records))
	for _, rec := range records {
		if rec[column] == nil {
			continue
		}
		index[table.Canonical(rec[column])] = rec
	}
	return index
}

// dedupe collapses rows that are equal across every output column,
// preserving first-seen order.
func dedupe(t *table.Table) *table.Table {
	seen := make(map[string]struct{}, len(t.Rows))
	unique := t.Rows[:0]
	for _, row := range t.Rows {
		fp := table.Fingerprint(row, t.Columns)
		if _, ok := seen[fp]; ok {
			continue
		}
		seen[fp] = struct{}{}
		unique = append(unique, row)
	}
	t.Rows = unique
	return t
}
