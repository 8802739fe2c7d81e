package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"
	"github.com/sharavanan171081/AI-Stock-App/internal/performance"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
	upStyle   = cellStyle.Foreground(lipgloss.Color("#10B981"))
	downStyle = cellStyle.Foreground(lipgloss.Color("#EF4444"))

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func printTitle(format string, args ...any) {
	fmt.Println(titleStyle.Render(fmt.Sprintf(format, args...)))
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...)
}

// predictionTable colours the direction column.
func predictionTable(recs []model.PredictionRecord) *table.Table {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = []string{
			r.Date.Format(model.DateLayout),
			r.Symbol,
			fmt.Sprintf("%.2f", r.PredictedPrice),
			r.PredictedDirection.String(),
			fmt.Sprintf("%.4f", r.ProbabilityUp),
		}
	}
	return newTable("DATE", "SYMBOL", "PRICE", "DIRECTION", "P(UP)").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 3 && row < len(recs) {
				if recs[row].PredictedDirection == model.Up {
					return upStyle
				}
				return downStyle
			}
			return cellStyle
		})
}

// accuracyTable lists per-symbol stats, or one symbol when only is set.
func accuracyTable(stats []performance.SymbolStats, only string) *table.Table {
	var rows [][]string
	for _, s := range stats {
		if only != "" && s.Symbol != only {
			continue
		}
		rows = append(rows, []string{
			s.Symbol,
			fmt.Sprintf("%d", s.Evaluated),
			fmt.Sprintf("%d", s.Correct),
			fmt.Sprintf("%.2f%%", s.Accuracy*100),
			fmt.Sprintf("%.2f", s.MAE),
		})
	}
	return newTable("SYMBOL", "EVALUATED", "CORRECT", "ACCURACY", "MAE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}
