// Package tabular holds the column-named, string-celled tables passed between
// pipeline stages, plus the helpers to parse their cells.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
)

// Table is an ordered set of rows sharing one header. Every row has exactly
// len(Columns) cells; blank cells stand for missing values.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// New builds a table, padding or truncating rows to the header width.
func New(columns []string, rows [][]string) *Table {
	t := &Table{Columns: columns, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		t.Append(r)
	}

	return t
}

func (t *Table) Append(row []string) {
	cells := make([]string, len(t.Columns))
	copy(cells, row)
	t.Rows = append(t.Rows, cells)
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	if t.index == nil {
		t.index = make(map[string]int, len(t.Columns))
		for i, c := range t.Columns {
			if _, dup := t.index[c]; !dup {
				t.index[c] = i
			}
		}
	}

	if i, ok := t.index[name]; ok {
		return i
	}

	return -1
}

func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// Cell returns the trimmed value of the named column in row i, or "" if the
// column does not exist.
func (t *Table) Cell(i int, name string) string {
	idx := t.Index(name)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return ""
	}

	return strings.TrimSpace(t.Rows[i][idx])
}

// Missing returns the required column names absent from the header, sorted.
func (t *Table) Missing(required ...string) []string {
	missing := []string{}

	for _, name := range required {
		if !t.Has(name) && !slices.Contains(missing, name) {
			missing = append(missing, name)
		}
	}

	sort.Strings(missing)

	return missing
}

// Require returns a ValidationError naming every missing column.
func (t *Table) Require(source string, required ...string) error {
	if missing := t.Missing(required...); len(missing) > 0 {
		return &ValidationError{Source: source, Missing: missing}
	}

	return nil
}

// WriteCSV writes the header followed by every row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}

	return nil
}

// NormalizeHeader returns the column names trimmed and lowercased.
func NormalizeHeader(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = strings.ToLower(strings.TrimSpace(c))
	}

	return out
}
