package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/chenen3/glyphpad/internal/markup"
)

// ErrRaggedTable is returned for tables whose rows differ in length.
var ErrRaggedTable = errors.New("table rows have different lengths")

// Table is a pasted grid of cell text. All rows have the same length.
type Table struct {
	ID    string
	Cells [][]string
}

// NewTable copies rows into a new table with a fresh identifier.
func NewTable(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, errors.New("table has no rows")
	}
	cols := len(rows[0])
	cells := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d cells, want %d: %w", i, len(row), cols, ErrRaggedTable)
		}
		cells[i] = append([]string(nil), row...)
	}
	return &Table{ID: uuid.NewString(), Cells: cells}, nil
}

// TableFromMarkup builds a table from the first table element in fragment.
func TableFromMarkup(fragment string) (*Table, error) {
	snap, err := markup.Parse(markup.Clean(fragment))
	if err != nil {
		return nil, err
	}
	tables := snap.Tables()
	if len(tables) == 0 {
		return nil, errors.New("no table element in fragment")
	}
	return NewTable(tables[0])
}

// Rows returns the number of rows.
func (t *Table) Rows() int { return len(t.Cells) }

// Cols returns the number of columns.
func (t *Table) Cols() int {
	if len(t.Cells) == 0 {
		return 0
	}
	return len(t.Cells[0])
}

// Flatten renders the table as a bracketed literal, suitable for pasting
// into code. A single row becomes {a,b,c}; several rows become
// {{a,b},{c,d}} with empty cells written as 0.
func (t *Table) Flatten() string {
	if len(t.Cells) == 1 {
		return "{" + strings.Join(t.Cells[0], ",") + "}"
	}
	rows := make([]string, len(t.Cells))
	for i, row := range t.Cells {
		vals := make([]string, len(row))
		for j, v := range row {
			if v == "" {
				v = "0"
			}
			vals[j] = v
		}
		rows[i] = "{" + strings.Join(vals, ",") + "}"
	}
	return "{" + strings.Join(rows, ",") + "}"
}
