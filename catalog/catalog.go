// Package catalog loads the ordered list of test specifications driving a
// run. The catalog is a UTF-8 CSV (byte-order-mark tolerant) whose header
// names the query column and the expected-field columns; row order assigns
// each spec its stable 0-based index.
package catalog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"slices"

	"github.com/skuqa/sku-acceptor/types"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads the catalog file and returns one TestSpec per data row,
// indexed by row order.
func Load(path string, cfg *Config) ([]types.TestSpec, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1 // validated against the header below

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("catalog %s is empty: missing header row", path)
	}

	header := rows[0]
	queryCol, fieldCols, err := mapColumns(header, cfg)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}

	specs := make([]types.TestSpec, 0, len(rows)-1)
	for i, row := range rows[1:] {
		spec := types.TestSpec{
			Index:          i,
			Query:          cell(row, queryCol),
			ExpectedFields: make([]types.ExpectedField, 0, len(fieldCols)),
		}
		for _, fc := range fieldCols {
			value := cell(row, fc.col)
			spec.ExpectedFields = append(spec.ExpectedFields, types.ExpectedField{
				Name:       fc.name,
				Value:      value,
				Applicable: value != cfg.NotApplicable,
			})
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// FieldColumns returns the expected-field column names in catalog order,
// as resolved against the given header.
func FieldColumns(specs []types.TestSpec) []string {
	if len(specs) == 0 {
		return nil
	}
	names := make([]string, 0, len(specs[0].ExpectedFields))
	for _, f := range specs[0].ExpectedFields {
		names = append(names, f.Name)
	}
	return names
}

type fieldColumn struct {
	name string
	col  int
}

func mapColumns(header []string, cfg *Config) (int, []fieldColumn, error) {
	queryCol := -1
	for i, name := range header {
		if name == cfg.QueryColumn {
			queryCol = i
			break
		}
	}
	// Without an explicit query column the first column is the query,
	// matching the layout the suite sheets have always used.
	if cfg.QueryColumn == "" {
		queryCol = 0
	}
	if queryCol < 0 {
		return 0, nil, fmt.Errorf("query column %q not found in header %v", cfg.QueryColumn, header)
	}

	var fields []fieldColumn
	if len(cfg.FieldColumns) > 0 {
		for _, want := range cfg.FieldColumns {
			col := slices.Index(header, want)
			if col < 0 {
				return 0, nil, fmt.Errorf("expected-field column %q not found in header %v", want, header)
			}
			fields = append(fields, fieldColumn{name: want, col: col})
		}
	} else {
		for i, name := range header {
			if i == queryCol {
				continue
			}
			fields = append(fields, fieldColumn{name: name, col: i})
		}
	}
	return queryCol, fields, nil
}

// cell returns the trimmed-to-existence cell value; short rows read as empty.
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
