package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/leengari/graphsql/internal/domain/schema"
)

var (
	primaryColor = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			MarginBottom(1)

	tableStyle = lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	keyStyle    = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94"))
)

var inspectHeaders = []string{"column", "type", "native", "nullable", "key", "default"}

// renderCatalog prints every table of the catalog as an aligned column listing
func renderCatalog(database string, catalog *schema.Catalog) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s: %d tables", database, catalog.Len())))
	b.WriteString("\n")

	if catalog.Len() == 0 {
		b.WriteString(mutedStyle.Render("No tables found in database") + "\n")
		return b.String()
	}

	for _, t := range catalog.Tables() {
		b.WriteString(tableStyle.Render(t.Name) + "\n")
		b.WriteString(renderColumns(t))
		if !t.HasSinglePrimaryKey() {
			b.WriteString(mutedStyle.Render("  no single primary key: list and create only") + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderColumns(t *schema.Table) string {
	rows := make([][]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		key := ""
		switch {
		case c.PrimaryKey && c.AutoGenerated:
			key = "PK auto"
		case c.PrimaryKey:
			key = "PK"
		case c.AutoGenerated:
			key = "auto"
		}
		def := ""
		if c.Default != nil {
			def = *c.Default
		}
		rows = append(rows, []string{c.Name, string(c.Type), c.NativeType, yesNo(c.Nullable), key, def})
	}

	widths := make([]int, len(inspectHeaders))
	for i, h := range inspectHeaders {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	var b strings.Builder
	for i, h := range inspectHeaders {
		b.WriteString("  " + headerStyle.Render(pad(h, widths[i])))
	}
	b.WriteString("\n")
	for r, row := range rows {
		for i, cell := range row {
			cell = pad(cell, widths[i])
			if i == 0 && t.Columns[r].PrimaryKey {
				cell = keyStyle.Render(cell)
			}
			b.WriteString("  " + cell)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
