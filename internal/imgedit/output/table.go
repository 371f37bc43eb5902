package output

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Table prints space aligned columns. Quiet tables render nothing.
type Table struct {
	out     io.Writer
	quiet   bool
	headers []string
	rows    [][]string
	right   map[int]bool
}

func NewTable(out io.Writer, quiet bool, headers ...string) *Table {
	return &Table{
		out:     out,
		quiet:   quiet,
		headers: headers,
		right:   make(map[int]bool),
	}
}

// AlignRight right-aligns the given column indexes.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

// Row appends a row. Missing cells render empty; extra cells are dropped.
func (t *Table) Row(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

func (t *Table) Render() error {
	if t.quiet {
		return nil
	}

	widths := make([]int, len(t.headers))
	for _, row := range append([][]string{t.headers}, t.rows...) {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}

	var b strings.Builder
	for _, row := range append([][]string{t.headers}, t.rows...) {
		var line strings.Builder
		for i, cell := range row {
			if i > 0 {
				line.WriteString("  ")
			}
			pad := strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell))
			if t.right[i] {
				line.WriteString(pad + cell)
			} else {
				line.WriteString(cell + pad)
			}
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteByte('\n')
	}

	_, err := fmt.Fprint(t.out, b.String())
	return err
}
