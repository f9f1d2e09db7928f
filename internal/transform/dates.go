package transform

import (
	"sort"
	"strings"
	"time"

	"github.com/pipeline-pioneers/etl-warehouse/internal/table"
)

// dateColumnHints mark a column as date-bearing by substring match on its
// name. This is deliberately heuristic: dim_date accepts datasets of
// arbitrary schema.
var dateColumnHints = []string{"date", "created_at", "last_updated"}

// BuildDimDate scans every date-bearing column across all given datasets,
// unions the calendar dates it can parse, and materializes one row per day
// for the whole observed min..max range — including days that never
// appeared, so facts can always join against any date in range.
//
// Unparseable values are dropped per value, never failing the call. When no
// dates are found at all the result is (nil, nil): nothing to transform.
func BuildDimDate(datasets ...[]table.Record) (*table.Table, error) {
	var minDay, maxDay time.Time
	found := false

	for _, records := range datasets {
		for _, col := range dateColumns(records) {
			for _, rec := range records {
				t, ok := table.ParseTimestamp(rec[col])
				if !ok {
					continue
				}
				day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
				if !found || day.Before(minDay) {
					minDay = day
				}
				if !found || day.After(maxDay) {
					maxDay = day
				}
				found = true
			}
		}
	}

	if !found {
		return nil, nil
	}

	out := table.New(
		"date_id", "date", "year", "month", "day",
		"day_of_week", "day_name", "month_name", "quarter",
	)
	for day := minDay; !day.After(maxDay); day = day.AddDate(0, 0, 1) {
		out.Append(dateRow(day))
	}
	return out, nil
}

func dateRow(day time.Time) table.Record {
	year, month, dom := day.Date()
	return table.Record{
		"date_id":     int64(year)*10000 + int64(month)*100 + int64(dom),
		"date":        table.FormatDate(day),
		"year":        int64(year),
		"month":       int64(month),
		"day":         int64(dom),
		"day_of_week": mondayIndexed(day.Weekday()),
		"day_name":    day.Weekday().String(),
		"month_name":  month.String(),
		"quarter":     (int64(month)-1)/3 + 1,
	}
}

// mondayIndexed maps Go's Sunday=0 weekday onto the Monday=0 convention the
// warehouse uses.
func mondayIndexed(wd time.Weekday) int64 {
	return int64((int(wd) + 6) % 7)
}

// dateColumns lists the date-bearing column names present in the record
// set, sorted for deterministic scans.
func dateColumns(records []table.Record) []string {
	names := map[string]struct{}{}
	for _, rec := range records {
		for col := range rec {
			if isDateColumn(col) {
				names[col] = struct{}{}
			}
		}
	}
	cols := make([]string, 0, len(names))
	for col := range names {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func isDateColumn(name string) bool {
	for _, hint := range dateColumnHints {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}
