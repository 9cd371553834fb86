package ingest

import "strings"

// SplitRows splits CSV text into logical rows. Line breaks inside a quoted
// cell belong to the cell; "\r\n" counts as one break and a lone "\r" ends a
// row. Quote characters are kept so Unquote can resolve escapes later.
func SplitRows(text string) []string {
	var rows []string
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case !inQuotes && c == '\n':
			rows = append(rows, cur.String())
			cur.Reset()
		case !inQuotes && c == '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			rows = append(rows, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		rows = append(rows, cur.String())
	}
	return rows
}

// SplitFields splits one logical row on commas outside quotes. Cells are
// returned raw, quotes included.
func SplitFields(row string) []string {
	var out []string
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(row); i++ {
		c := row[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case c == ',' && !inQuotes:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(out, cur.String())
}

// Unquote strips one layer of surrounding double quotes, collapses doubled
// quotes to one and trims whitespace.
func Unquote(cell string) string {
	s := strings.TrimSpace(cell)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
		return strings.TrimSpace(s)
	}
	return s
}

// splitCells is SplitFields followed by Unquote on every cell.
func splitCells(row string) []string {
	cells := SplitFields(row)
	for i, c := range cells {
		cells[i] = Unquote(c)
	}
	return cells
}
