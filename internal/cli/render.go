package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dzmitry-papkou/engagement/internal/export"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RenderTable draws records as a grid, columns in the first record's order.
func RenderTable(records []export.Record) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle)

	if len(records) == 0 {
		return t.Headers("No data").
			StyleFunc(func(int, int) lipgloss.Style { return headerStyle }).
			String()
	}

	headers := records[0].Keys()
	numeric := make([]bool, len(headers))
	for i, h := range headers {
		v, _ := records[0].Get(h)
		_, numeric[i] = v.(int)
	}

	for _, r := range records {
		row := make([]string, len(headers))
		for i, h := range headers {
			if v, ok := r.Get(h); ok {
				row[i] = fmt.Sprint(v)
			}
		}
		t.Row(row...)
	}

	return t.Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col < len(numeric) && numeric[col]:
				return numberStyle
			}
			return cellStyle
		}).
		String()
}
