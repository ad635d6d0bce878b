package llmprompter

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/temirov/llm-prompter/internal/pipeline"
)

var (
	summaryTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	summaryLabelStyle = lipgloss.NewStyle().Width(11)
	summaryErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	summaryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func renderSummary(mode pipeline.Mode, stats pipeline.RunStatistics, elapsed time.Duration) string {
	row := func(label string, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, summaryLabelStyle.Render(label), value)
	}
	errored := fmt.Sprint(stats.Errored)
	if stats.Errored > 0 {
		errored = summaryErrorStyle.Render(errored)
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		summaryTitleStyle.Render("llm-prompter "+mode.String()),
		row("processed", fmt.Sprint(stats.Processed)),
		row("succeeded", fmt.Sprint(stats.Succeeded)),
		row("skipped", fmt.Sprint(stats.Skipped)),
		row("errored", errored),
		row("elapsed", elapsed.Round(time.Millisecond).String()),
	)
	return summaryBoxStyle.Render(body)
}
