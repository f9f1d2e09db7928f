package transform

import "github.com/pipeline-pioneers/etl-warehouse/internal/table"

// TransformFunc converts raw records for one or more related entities into
// one warehouse table. A (nil, nil) return means "nothing to transform";
// an error marks the entity failed without aborting the rest of the batch.
type TransformFunc func(inputs map[string][]table.Record) (*table.Table, error)

// Spec binds a triggering source entity to its transform. Inputs lists
// every required entity, the trigger first; the dispatcher fetches the rest
// from the latest raw batches when they did not arrive together.
type Spec struct {
	Output string
	Inputs []string
	Fn     TransformFunc
}

// registry is the static dispatch table for the transform stage. The
// schema is fixed and known in full at build time, so this is a literal
// map, not a plugin mechanism: a new entity means a new function and a new
// entry here. Entities with no entry (purchase_order) are skipped.
var registry = map[string]Spec{
	"address": {
		Output: "dim_location",
		Inputs: []string{"address"},
		Fn:     DimLocation,
	},
	"counterparty": {
		Output: "dim_counterparty",
		Inputs: []string{"counterparty", "address"},
		Fn:     DimCounterparty,
	},
	"currency": {
		Output: "dim_currency",
		Inputs: []string{"currency"},
		Fn:     DimCurrency,
	},
	"staff": {
		Output: "dim_staff",
		Inputs: []string{"staff", "department"},
		Fn:     DimStaff,
	},
	"design": {
		Output: "dim_design",
		Inputs: []string{"design"},
		Fn:     DimDesign,
	},
	"department": {
		Output: "dim_department",
		Inputs: []string{"department"},
		Fn:     DimDepartment,
	},
	"transaction": {
		Output: "dim_transaction",
		Inputs: []string{"transaction"},
		Fn:     DimTransaction,
	},
	"payment_type": {
		Output: "dim_payment_type",
		Inputs: []string{"payment_type"},
		Fn:     DimPaymentType,
	},
	"sales_order": {
		Output: "fact_sales_order",
		Inputs: []string{"sales_order"},
		Fn:     FactSalesOrder,
	},
	"payment": {
		Output: "fact_payment",
		Inputs: []string{"payment", "transaction", "payment_type"},
		Fn:     FactPayment,
	},
}

// Lookup returns the transform triggered by a source entity, or false when
// none is defined so the dispatcher can skip it without failing the batch.
func Lookup(entity string) (Spec, bool) {
	spec, ok := registry[entity]
	return spec, ok
}
