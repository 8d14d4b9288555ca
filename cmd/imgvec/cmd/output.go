package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/viant/imgvec/search"
)

var (
	accent     = lipgloss.Color("#00afd7")
	dim        = lipgloss.Color("#6e7681")
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1)
	cellStyle  = lipgloss.NewStyle().Padding(0, 1)
	noteStyle  = lipgloss.NewStyle().Foreground(dim)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00d75f"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(accent)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headStyle
			}
			return cellStyle
		})
}

// renderMatches prints ranked matches followed by what was skipped.
func renderMatches(res *search.QueryResult) string {
	t := newTable("#", "FILENAME", "SIMILARITY")
	for i, m := range res.Matches {
		t.Row(strconv.Itoa(i+1), m.ID, strconv.FormatFloat(m.Score, 'f', 4, 64))
	}
	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(noteStyle.Render(fmt.Sprintf("%d candidates, %d excluded, %d corrupt",
		res.Candidates, len(res.Excluded), len(res.Corrupt))))
	return b.String()
}

// renderBatch prints rejected items and the batch summary.
func renderBatch(res *search.BatchResult) string {
	var b strings.Builder
	var rejected []search.IngestOutcome
	for _, out := range res.Outcomes {
		if !out.Stored() {
			rejected = append(rejected, out)
		}
	}
	if len(rejected) > 0 {
		t := newTable("IMAGE", "REASON")
		for _, out := range rejected {
			t.Row(out.ID, out.Reason)
		}
		b.WriteString(t.Render())
		b.WriteString("\n")
	}
	s := res.Summary
	summary := fmt.Sprintf("%d images: %d stored, %d rejected", s.Total, s.Stored, s.Rejected)
	if s.Rejected > 0 {
		b.WriteString(errorStyle.Render(summary))
	} else {
		b.WriteString(okStyle.Render(summary))
	}
	return b.String()
}
