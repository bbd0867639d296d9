package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/StarGazerM/datalchemy/ast"
	"github.com/StarGazerM/datalchemy/engine"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	rowStyle    = lipgloss.NewStyle().Padding(0, 1)
	sepStyle    = lipgloss.NewStyle().Faint(true)
)

// renderResult prints each output relation in the order of the program's
// output list.
// Rows are sorted textually for stable terminal output; the result itself is
// an unordered set.
func renderResult(prog ast.Program, res engine.Result, plain bool) string {
	declByName := make(map[string]ast.Decl, len(prog.Decls))
	for _, d := range prog.Decls {
		declByName[d.Name] = d
	}
	var sb strings.Builder
	for _, name := range prog.Outputs {
		rows := make([][]string, 0, len(res[name]))
		for _, tuple := range res[name] {
			row := make([]string, len(tuple))
			for i, v := range tuple {
				row[i] = v.String()
			}
			rows = append(rows, row)
		}
		sort.Slice(rows, func(i, j int) bool {
			return strings.Join(rows[i], "\x00") < strings.Join(rows[j], "\x00")
		})
		if plain {
			for _, row := range rows {
				sb.WriteString(fmt.Sprintf("%s(%s).\n", name, strings.Join(row, ", ")))
			}
			continue
		}
		sb.WriteString(renderTable(name, declByName[name], rows))
	}
	return sb.String()
}

// renderTable draws one relation as a column table: a title, a header row,
// a divider line, and one row per tuple, with "|" between columns.
func renderTable(name string, decl ast.Decl, rows [][]string) string {
	headers := make([]string, len(decl.Cols))
	for i, c := range decl.Cols {
		headers[i] = c.Name
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) {
				if w := lipgloss.Width(cell); w > colWidths[i] {
					colWidths[i] = w
				}
			}
		}
	}
	// Widths include the cell padding.
	for i := range colWidths {
		colWidths[i] += 2
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", name, len(rows))))
	sb.WriteString("\n")

	for i, h := range headers {
		sb.WriteString(headerStyle.Width(colWidths[i]).Render(h))
		if i < len(headers)-1 {
			sb.WriteString(sepStyle.Render("|"))
		}
	}
	sb.WriteString("\n")

	totalWidth := len(headers) - 1
	for _, w := range colWidths {
		totalWidth += w
	}
	sb.WriteString(sepStyle.Render(strings.Repeat("-", totalWidth)) + "\n")

	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) {
				sb.WriteString(rowStyle.Width(colWidths[i]).Render(cell))
				if i < len(row)-1 {
					sb.WriteString(sepStyle.Render("|"))
				}
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	return sb.String()
}
