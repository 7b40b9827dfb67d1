package main

import (
	"fmt"
	"image/color"
	"io"
	"slices"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/chazu/loam/pkg/nodes"
)

func c(hex string) color.Color { return lipgloss.Color(hex) }

var (
	accent = c("#7fb069")
	muted  = c("#8a8a8a")
	failed = c("#e4572e")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).PaddingRight(2)
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	errorStyle  = lipgloss.NewStyle().Foreground(failed).PaddingRight(2)
	tableStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			PaddingLeft(1)
)

// renderTable lays rows out in columns sized to their widest cell. Rows
// whose first cell is in highlight use the error style.
func renderTable(headers []string, rows [][]string, highlight ...string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, cell := range r {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, st lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			// width includes the right padding
			parts[i] = st.Width(widths[i] + 2).Render(cell)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}

	lines := []string{line(headers, headerStyle)}
	for _, r := range rows {
		st := cellStyle
		if len(r) > 0 && slices.Contains(highlight, r[0]) {
			st = errorStyle
		}
		lines = append(lines, line(r, st))
	}
	return tableStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// writeReports prints the per-graph update summary.
func writeReports(w io.Writer, reports []GraphReport) error {
	rows := make([][]string, len(reports))
	var bad []string
	for i, r := range reports {
		status := "ok"
		if r.Err != nil {
			status = "failed"
			bad = append(bad, r.Graph)
		}
		rows[i] = []string{
			r.Graph,
			fmt.Sprint(r.Nodes),
			fmt.Sprint(r.Computed),
			fmt.Sprint(r.Failed),
			r.Elapsed.Round(time.Millisecond).String(),
			status,
		}
	}
	headers := []string{"graph", "nodes", "computed", "failed", "elapsed", "status"}
	_, err := fmt.Fprintln(w, renderTable(headers, rows, bad...))
	return err
}

// writeInventory prints the node inventory in format: table, csv, mermaid
// or yaml.
func writeInventory(w io.Writer, r *nodes.Registry, format string) error {
	switch format {
	case "", "table":
		var rows [][]string
		for _, typ := range r.Types() {
			k, _ := r.Kind(typ)
			rows = append(rows, []string{k.Type, k.Category})
		}
		_, err := fmt.Fprintln(w, renderTable([]string{"type", "category"}, rows))
		return err
	case "csv":
		return r.WriteCSV(w)
	case "mermaid":
		return r.WriteMermaid(w)
	case "yaml":
		return r.WriteYAML(w)
	}
	return fmt.Errorf("unknown inventory format %q", format)
}
