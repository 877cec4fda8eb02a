package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lox/blackjackbots/internal/agent"
	"github.com/lox/blackjackbots/internal/statistics"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Width(16).Foreground(lipgloss.Color("8"))
	valueStyle = lipgloss.NewStyle().Bold(true)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
}

// renderSummary formats round statistics, and the agent's learning state when
// ag is non-nil, as a bordered table.
func renderSummary(title string, stats *statistics.Statistics, ag *agent.Agent) string {
	low, high := stats.ConfidenceInterval95()
	lines := []string{
		titleStyle.Render(title),
		"",
		row("Games", fmt.Sprintf("%d", stats.Rounds)),
		row("Wins", fmt.Sprintf("%d", stats.Wins)),
		row("Losses", fmt.Sprintf("%d", stats.Losses)),
		row("Draws", fmt.Sprintf("%d", stats.Pushes)),
		row("Win rate", fmt.Sprintf("%.2f%%", stats.WinRate())),
		row("Mean reward", fmt.Sprintf("%+.4f ± %.4f", stats.Mean(), stats.StdError())),
		row("95% CI", fmt.Sprintf("[%+.4f, %+.4f]", low, high)),
		row("Hits / Stands", fmt.Sprintf("%d / %d", stats.Hits, stats.Stands)),
		row("Naturals", fmt.Sprintf("%d", stats.Naturals)),
		row("Busts", fmt.Sprintf("player %d, dealer %d", stats.PlayerBusts, stats.DealerBusts)),
	}
	if ag != nil {
		lines = append(lines,
			row("Epsilon", fmt.Sprintf("%.4f", ag.Epsilon())),
			row("States", fmt.Sprintf("%d", ag.Table().Size())),
			row("Updates", fmt.Sprintf("%d", ag.Updates())),
		)
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// writeSeries prints the running win rate as "games win%" pairs, thinned to
// at most limit lines.
func writeSeries(w io.Writer, series []statistics.SeriesPoint, limit int) {
	if len(series) == 0 {
		return
	}
	step := 1
	if limit > 0 && len(series) > limit {
		step = (len(series) + limit - 1) / limit
	}
	fmt.Fprintln(w, titleStyle.Render("Win rate over time"))
	for i := 0; i < len(series); i += step {
		p := series[i]
		bar := strings.Repeat("█", int(p.WinRate/2))
		fmt.Fprintf(w, "%8d  %6.2f%%  %s\n", p.Rounds, p.WinRate, bar)
	}
	if last := series[len(series)-1]; (len(series)-1)%step != 0 {
		fmt.Fprintf(w, "%8d  %6.2f%%  %s\n", last.Rounds, last.WinRate, strings.Repeat("█", int(last.WinRate/2)))
	}
}

// writeEntries prints learned action values.
func writeEntries(w io.Writer, entries []agent.Entry) {
	for _, e := range entries {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
