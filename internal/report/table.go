package report

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Table formats rows into aligned columns. Cell widths ignore ANSI colour
// escapes so swatches line up.
type Table struct {
	headers []string
	rows    [][]string
	padding int
	right   map[int]bool
}

// NewTable creates a new table with the given headers.
func NewTable(headers []string) *Table {
	return &Table{
		headers: headers,
		padding: 2,
		right:   make(map[int]bool),
	}
}

// AlignRight right-aligns the given columns.
func (t *Table) AlignRight(cols ...int) {
	for _, c := range cols {
		t.right[c] = true
	}
}

// AddRow adds a row, padding or truncating it to the header count.
func (t *Table) AddRow(row []string) {
	fixed := make([]string, len(t.headers))
	copy(fixed, row)
	t.rows = append(t.rows, fixed)
}

// Render returns the table with a header separator line.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visibleWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], visibleWidth(cell))
		}
	}

	gap := strings.Repeat(" ", t.padding)
	var b strings.Builder
	writeLine := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = t.pad(cell, widths[i], i)
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, gap), " "))
		b.WriteString("\n")
	}

	writeLine(t.headers)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeLine(sep)
	for _, row := range t.rows {
		writeLine(row)
	}
	return b.String()
}

func (t *Table) pad(s string, width, col int) string {
	fill := width - visibleWidth(s)
	if fill <= 0 {
		return s
	}
	if t.right[col] {
		return strings.Repeat(" ", fill) + s
	}
	return s + strings.Repeat(" ", fill)
}

// visibleWidth counts runes after stripping ANSI escapes.
func visibleWidth(s string) int {
	return utf8.RuneCountInString(ansiEscape.ReplaceAllString(s, ""))
}
