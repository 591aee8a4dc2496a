package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/user/remedgen/pkg/batch"
	"github.com/user/remedgen/pkg/history"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	statusOK     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	statusFailed = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	statusActive = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

// RunInfo describes a run for the banner.
type RunInfo struct {
	Input    string
	Output   string
	Provider string
	Model    string
	Profile  string
	Workers  int
}

// RenderBanner renders the run parameters shown before dispatch.
func RenderBanner(info RunInfo) string {
	model := info.Model
	if model == "" {
		model = "(provider default)"
	}
	lines := []string{
		labelStyle.Render("Target:  ") + info.Input,
		labelStyle.Render("Output:  ") + info.Output,
		labelStyle.Render("Model:   ") + fmt.Sprintf("%s/%s", info.Provider, model),
		labelStyle.Render("Policy:  ") + info.Profile,
		labelStyle.Render("Workers: ") + fmt.Sprintf("%d", info.Workers),
	}
	return titleStyle.Render("remedgen") + "\n" +
		panelStyle.BorderForeground(lipgloss.Color("39")).Render(strings.Join(lines, "\n")) + "\n"
}

// RenderSummary renders the per-task table and the totals panel.
func RenderSummary(s batch.RunSummary) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Run summary"))
	if s.RunID != "" {
		sb.WriteString("  " + dimStyle.Render(s.RunID))
	}
	sb.WriteString("\n")
	sb.WriteString("───────────\n")

	for _, o := range s.Outcomes {
		sb.WriteString(formatOutcomeLine(o.SourceFile, o.OK(), o.Duration, detailFor(o)))
		sb.WriteString("\n")
	}

	border := lipgloss.Color("46")
	if s.Failed > 0 {
		border = lipgloss.Color("196")
	}
	totals := fmt.Sprintf("Processed: %d | Succeeded: %d | Failed: %d\nTotal time generating scripts: %s",
		s.Total, s.Succeeded, s.Failed, formatDuration(s.Wall))
	sb.WriteString("\n")
	sb.WriteString(panelStyle.BorderForeground(border).Render(totals))
	sb.WriteString("\n")
	return sb.String()
}

// RenderRunList renders recorded runs, newest first.
func RenderRunList(runs []history.Run) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Recent runs") + "\n")
	sb.WriteString("───────────\n")
	for _, r := range runs {
		status := statusOK.Render("✓ ok    ")
		if r.Failed > 0 {
			status = statusFailed.Render("✗ failed")
		}
		sb.WriteString(fmt.Sprintf("%s  %s  %s  %d/%d ok  %s  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			status,
			r.Succeeded, r.Total,
			dimStyle.Render(formatDuration(r.Wall)),
			truncate(r.InputPath, 40)))
	}
	return sb.String()
}

// RenderRunDetail renders one recorded run with its outcomes.
func RenderRunDetail(r *history.Run, outcomes []history.Outcome) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Run "+r.ID) + "\n\n")
	sb.WriteString(labelStyle.Render("Started:  ") + r.StartedAt.Local().Format(time.RFC3339) + "\n")
	sb.WriteString(labelStyle.Render("Input:    ") + r.InputPath + "\n")
	sb.WriteString(labelStyle.Render("Output:   ") + r.OutputDir + "\n")
	sb.WriteString(labelStyle.Render("Model:    ") + fmt.Sprintf("%s/%s", r.Provider, r.Model) + "\n")
	sb.WriteString(labelStyle.Render("Workers:  ") + fmt.Sprintf("%d", r.Workers) + "\n")
	sb.WriteString(labelStyle.Render("Result:   ") +
		fmt.Sprintf("%d processed, %d succeeded, %d failed in %s", r.Total, r.Succeeded, r.Failed, formatDuration(r.Wall)) + "\n\n")

	for _, o := range outcomes {
		detail := o.Error
		if o.Success {
			detail = o.OutputPath
		}
		sb.WriteString(formatOutcomeLine(o.SourceFile, o.Success, o.Duration, detail))
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatOutcomeLine(source string, ok bool, d time.Duration, detail string) string {
	status := statusOK.Render("OK  ")
	elapsed := formatDuration(d)
	if !ok {
		status = statusFailed.Render("FAIL")
	}
	return fmt.Sprintf("%-42s %s %7s  %s",
		truncate(filepath.Base(source), 42), status, elapsed, dimStyle.Render(detail))
}

func detailFor(o batch.TaskOutcome) string {
	if o.OK() {
		return filepath.Base(o.OutputPath)
	}
	if o.Err != nil {
		return o.Err.Error()
	}
	return "no output produced"
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-2] + ".."
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
