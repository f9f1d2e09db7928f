package load

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pipeline-pioneers/etl-warehouse/internal/table"
)

// dimPrimaryKeys declares the conflict column for each dimension's upsert.
// An entity with a dim_ prefix but no entry here cannot be loaded.
var dimPrimaryKeys = map[string]string{
	"dim_date":         "date_id",
	"dim_staff":        "staff_id",
	"dim_location":     "location_id",
	"dim_currency":     "currency_id",
	"dim_design":       "design_id",
	"dim_counterparty": "counterparty_id",
	"dim_department":   "department_id",
	"dim_transaction":  "transaction_id",
	"dim_payment_type": "payment_type_id",
}

// Postgres caps bind parameters per statement at 65535; inserts are
// chunked to stay under it.
const maxBindParams = 60000

// Result is the loader's three-way classification of one batch.
type Result struct {
	Loaded       []string `json:"successfully_loaded"`
	Failed       []string `json:"failed_to_load"`
	SkippedEmpty []string `json:"skipped_empty"`
}

// Loader applies transformed tables to the warehouse: dimensions are
// upserted last-write-wins on their primary key, facts are append-only and
// deduplicated by full row content, not by key.
type Loader struct {
	DB  *gorm.DB
	Log *zap.Logger
}

// Load applies each table in name order. A single entity failing is
// recorded and the loop continues; partial success is a normal outcome.
func (l *Loader) Load(ctx context.Context, tables map[string]*table.Table) Result {
	var result Result

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		tbl := tables[name]
		if tbl.Empty() {
			l.Log.Info("skipping entity: table is empty", zap.String("entity", name))
			result.SkippedEmpty = append(result.SkippedEmpty, name)
			continue
		}

		var err error
		if strings.HasPrefix(name, "dim_") {
			err = l.upsertDimension(ctx, name, tbl)
		} else {
			err = l.insertNewFacts(ctx, name, tbl)
		}
		if err != nil {
			l.Log.Error("failed to load entity", zap.String("entity", name), zap.Error(err))
			result.Failed = append(result.Failed, name)
			continue
		}
		result.Loaded = append(result.Loaded, name)
	}
	return result
}

// upsertDimension bulk-inserts the batch; key conflicts overwrite every
// non-key column with the incoming value. Last write wins, no history.
func (l *Loader) upsertDimension(ctx context.Context, name string, tbl *table.Table) error {
	pk, ok := dimPrimaryKeys[name]
	if !ok {
		return fmt.Errorf("no primary key declared for dimension %q", name)
	}

	for _, chunk := range chunkRows(tbl.Rows, len(tbl.Columns)) {
		sql := upsertStatement(name, tbl.Columns, pk, len(chunk))
		args := flattenArgs(chunk, tbl.Columns)
		if err := l.DB.WithContext(ctx).Exec(sql, args...).Error; err != nil {
			return err
		}
	}
	l.Log.Info("upserted dimension", zap.String("entity", name), zap.Int("rows", len(tbl.Rows)))
	return nil
}

// insertNewFacts reads the entity's full current row set back from the
// warehouse and inserts only rows not already present by full-column
// equality. Keys are not trusted to be stable across runs, so this is a
// content comparison — at the cost of scanning the whole fact table.
func (l *Loader) insertNewFacts(ctx context.Context, name string, tbl *table.Table) error {
	existing, err := l.fetchExisting(ctx, name, tbl.Columns)
	if err != nil {
		return fmt.Errorf("reading back existing rows: %w", err)
	}

	newRows := missingRows(tbl, existing)
	if len(newRows) == 0 {
		l.Log.Info("no new rows to insert", zap.String("entity", name))
		return nil
	}

	for _, chunk := range chunkRows(newRows, len(tbl.Columns)) {
		sql := insertStatement(name, tbl.Columns, len(chunk))
		args := flattenArgs(chunk, tbl.Columns)
		if err := l.DB.WithContext(ctx).Exec(sql, args...).Error; err != nil {
			return err
		}
	}
	l.Log.Info("inserted fact rows",
		zap.String("entity", name),
		zap.Int("inserted", len(newRows)),
		zap.Int("duplicates_skipped", len(tbl.Rows)-len(newRows)))
	return nil
}

func (l *Loader) fetchExisting(ctx context.Context, name string, columns []string) ([]table.Record, error) {
	sql := fmt.Sprintf(`SELECT %s FROM %s;`, quoteJoin(columns), quoteIdent(name))
	rows, err := l.DB.WithContext(ctx).Raw(sql).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var existing []table.Record
	for rows.Next() {
		values := make([]any, len(columns))
		scan := make([]any, len(columns))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, err
		}
		rec := table.Record{}
		for i, col := range columns {
			rec[col] = values[i]
		}
		existing = append(existing, rec)
	}
	return existing, rows.Err()
}

// missingRows returns the incoming rows whose full-row fingerprint does
// not appear in the existing set.
func missingRows(tbl *table.Table, existing []table.Record) []table.Record {
	seen := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		seen[table.Fingerprint(row, tbl.Columns)] = struct{}{}
	}

	var missing []table.Record
	for _, row := range tbl.Rows {
		if _, ok := seen[table.Fingerprint(row, tbl.Columns)]; ok {
			continue
		}
		missing = append(missing, row)
	}
	return missing
}

// upsertStatement builds the multi-row dimension upsert. Every non-key
// column is overwritten on conflict.
func upsertStatement(name string, columns []string, pk string, rowCount int) string {
	setClauses := make([]string, 0, len(columns)-1)
	for _, col := range columns {
		if col == pk {
			continue
		}
		setClauses = append(setClauses, fmt.Sprintf(`%s = EXCLUDED.%s`, quoteIdent(col), quoteIdent(col)))
	}
	return fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) DO UPDATE SET %s;`,
		quoteIdent(name), quoteJoin(columns), valuesPlaceholders(len(columns), rowCount),
		quoteIdent(pk), strings.Join(setClauses, ", "),
	)
}

func insertStatement(name string, columns []string, rowCount int) string {
	return fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES %s;`,
		quoteIdent(name), quoteJoin(columns), valuesPlaceholders(len(columns), rowCount),
	)
}

func valuesPlaceholders(columnCount, rowCount int) string {
	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", columnCount), ", ") + ")"
	rows := make([]string, rowCount)
	for i := range rows {
		rows[i] = row
	}
	return strings.Join(rows, ", ")
}

func flattenArgs(rows []table.Record, columns []string) []any {
	args := make([]any, 0, len(rows)*len(columns))
	for _, row := range rows {
		for _, col := range columns {
			args = append(args, row[col])
		}
	}
	return args
}

func chunkRows(rows []table.Record, columnCount int) [][]table.Record {
	perChunk := maxBindParams / columnCount
	if perChunk < 1 {
		perChunk = 1
	}
	var chunks [][]table.Record
	for start := 0; start < len(rows); start += perChunk {
		end := min(start+perChunk, len(rows))
		chunks = append(chunks, rows[start:end])
	}
	return chunks
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

func quoteJoin(columns []string) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
	}
	return strings.Join(quoted, ", ")
}
