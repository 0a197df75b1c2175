package serviceImp

import (
	"fmt"
	"strconv"
	"strings"

	"pvc/pkg/apperr"
	"pvc/pkg/effort"
	"pvc/pkg/importer/service"
)

// colIndex turns a column letter into a zero-based index: A=0, Z=25, AA=26.
func colIndex(col string) (int, error) {
	col = strings.ToUpper(strings.TrimSpace(col))
	if col == "" {
		return -1, fmt.Errorf("empty column")
	}
	n := 0
	for _, r := range col {
		if r < 'A' || r > 'Z' {
			return -1, fmt.Errorf("invalid column %q", col)
		}
		n = n*26 + int(r-'A'+1)
	}
	return n - 1, nil
}

// columns is a resolved Mapping; imposts is -1 when not mapped.
type columns struct {
	batch, cell, typ, qty, imposts, date int
}

func resolve(m service.Mapping) (columns, error) {
	var c columns
	required := []struct {
		name string
		col  string
		dst  *int
	}{
		{"batch", m.Batch, &c.batch},
		{"cell", m.Cell, &c.cell},
		{"type", m.Type, &c.typ},
		{"qty_items", m.QtyItems, &c.qty},
		{"planned_date", m.PlannedDate, &c.date},
	}
	for _, f := range required {
		i, err := colIndex(f.col)
		if err != nil {
			return c, apperr.Validation("mapping.%s: %v", f.name, err)
		}
		*f.dst = i
	}
	c.imposts = -1
	if strings.TrimSpace(m.ImpostsPerItem) != "" {
		i, err := colIndex(m.ImpostsPerItem)
		if err != nil {
			return c, apperr.Validation("mapping.imposts_per_item: %v", err)
		}
		c.imposts = i
	}
	return c, nil
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// parseCount reads a whole number, tolerating the "3.0" spreadsheets emit.
func parseCount(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// read applies c to rec; the returned problems are user-facing.
func read(rec []string, c columns) (service.Row, []string) {
	var (
		row  service.Row
		errs []string
	)
	row.Batch = cell(rec, c.batch)
	row.Cell = cell(rec, c.cell)
	row.Type = cell(rec, c.typ)
	if row.Batch == "" {
		errs = append(errs, "batch is empty")
	}
	if row.Cell == "" {
		errs = append(errs, "cell is empty")
	}
	if row.Type == "" {
		errs = append(errs, "type is empty")
	}

	raw := cell(rec, c.qty)
	if n, ok := parseCount(raw); ok && n >= 1 {
		row.QtyItems = n
	} else {
		errs = append(errs, fmt.Sprintf("invalid quantity %q", raw))
	}
	if raw := cell(rec, c.imposts); raw != "" {
		if n, ok := parseCount(raw); ok && n >= 0 {
			row.ImpostsPerItem = n
		} else {
			errs = append(errs, fmt.Sprintf("invalid imposts %q", raw))
		}
	}

	if raw := cell(rec, c.date); raw == "" {
		errs = append(errs, "planned date is empty")
	} else if day, err := effort.NormalizeDay(raw); err != nil {
		errs = append(errs, err.Error())
	} else {
		row.PlannedDate = day
	}
	return row, errs
}
