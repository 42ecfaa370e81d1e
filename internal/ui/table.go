package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column. Width 0 sizes the column to its widest cell.
type Column struct {
	Title string
	Width int
}

// Row is a slice of cell values. Cells may already carry ANSI styling.
type Row []string

// Table renders a lipgloss-styled table.
type Table struct {
	Columns []Column
	Rows    []Row
	SelIdx  int // selected row index (-1 = none)
}

// NewTable creates a new table.
func NewTable(cols []Column) *Table {
	return &Table{Columns: cols, SelIdx: -1}
}

// AddRow appends a row.
func (t *Table) AddRow(r Row) {
	t.Rows = append(t.Rows, r)
}

// widths resolves auto-sized columns against the current rows.
func (t *Table) widths() []int {
	w := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		if col.Width > 0 {
			w[i] = col.Width
			continue
		}
		w[i] = lipgloss.Width(col.Title)
		for _, row := range t.Rows {
			if i < len(row) {
				w[i] = max(w[i], lipgloss.Width(row[i]))
			}
		}
	}
	return w
}

// Render returns the full table as a string. Fixed-width columns truncate
// plain cells that overflow; styled cells are padded but never cut.
func (t *Table) Render() string {
	var sb strings.Builder
	widths := t.widths()

	cell := func(s string, width int) string {
		if lipgloss.Width(s) > width && s == stripStyle(s) {
			s = truncate(s, width)
		}
		return padR(s, width)
	}

	var headers, divider []string
	for i, col := range t.Columns {
		headers = append(headers, StyleHeader.Render(cell(col.Title, widths[i])))
		divider = append(divider, StyleDim.Render(strings.Repeat("-", widths[i])))
	}
	sb.WriteString(strings.Join(headers, "  ") + "\n")
	sb.WriteString(strings.Join(divider, "  ") + "\n")

	for r, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i := range t.Columns {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			val = cell(val, widths[i])
			if r == t.SelIdx {
				val = StyleSelected.Render(val)
			}
			cells[i] = val
		}
		sb.WriteString(strings.Join(cells, "  ") + "\n")
	}

	return sb.String()
}

// KeyValueBlock renders a set of key-value pairs in a bordered box.
func KeyValueBlock(title string, pairs [][2]string) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title))
		sb.WriteString("\n")
	}
	for _, p := range pairs {
		key := StyleMeta.Render(fmt.Sprintf("%-20s", p[0]+":"))
		val := StyleValue.Render(p[1])
		sb.WriteString("  " + key + " " + val + "\n")
	}
	return StyleBorder.Render(sb.String())
}

// padR pads s to visible width n (ANSI-safe using lipgloss.Width).
func padR(s string, n int) string {
	w := lipgloss.Width(s)
	if w >= n {
		return s
	}
	return s + strings.Repeat(" ", n-w)
}

// truncate cuts plain text to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// stripStyle removes ANSI escape sequences.
func stripStyle(s string) string {
	var b strings.Builder
	inEsc := false
	for _, c := range s {
		switch {
		case c == '\x1b':
			inEsc = true
		case inEsc:
			if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
				inEsc = false
			}
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// trimErr shortens noisy RPC error messages for a table cell.
func trimErr(s string) string {
	for _, marker := range []string{
		"dial tcp", "connection refused", "no such host",
		"no healthy RPC", "context deadline", "no contract code",
	} {
		if idx := strings.Index(s, marker); idx >= 0 {
			s = s[idx:]
			break
		}
	}
	if len(s) > 30 {
		return s[:30] + "…"
	}
	return s
}
