// Package importer turns source rows into search_trends records and posts them one by one.
// A failing row is reported and skipped; it never stops the import.
package importer

import (
	"fmt"
	"strings"

	apperr "trendseed/cli/internal/errors"
	"trendseed/cli/internal/source"
)

// Record is the payload of one created record.
type Record struct {
	MainCategory string   `json:"main_category"`
	SubCategory  string   `json:"sub_category"`
	Queries      []string `json:"queries"`
}

// ParseRow maps a row to a Record. Cells after the second are queries; blank
// ones are dropped and the rest keep their order and original text.
// Queries is never nil so it always encodes as a JSON array.
func ParseRow(row source.Row) (Record, error) {
	if len(row.Cells) < 2 {
		return Record{}, apperr.New(apperr.RowImport,
			fmt.Sprintf("line %d: expected main category and subcategory, got %d column(s)", row.Line, len(row.Cells)))
	}

	rec := Record{
		MainCategory: row.Cells[0],
		SubCategory:  row.Cells[1],
		Queries:      make([]string, 0, len(row.Cells)-2),
	}
	for _, q := range row.Cells[2:] {
		if strings.TrimSpace(q) != "" {
			rec.Queries = append(rec.Queries, q)
		}
	}
	return rec, nil
}
